package seckill

type WindowStatus string

const (
	WindowUpcoming WindowStatus = "upcoming"
	WindowActive   WindowStatus = "active"
	WindowEnded    WindowStatus = "ended"
)

func (s WindowStatus) String() string {
	return string(s)
}

type OrderStatus string

// Only unpaid→cancelled and unpaid→paid are legal transitions.
const (
	OrderUnpaid    OrderStatus = "unpaid"
	OrderPaid      OrderStatus = "paid"
	OrderCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) String() string {
	return string(s)
}

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderUnpaid, OrderPaid, OrderCancelled:
		return true
	default:
		return false
	}
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return s == OrderUnpaid && (next == OrderPaid || next == OrderCancelled)
}

type ResultStatus string

const (
	ResultWon     ResultStatus = "won"
	ResultLost    ResultStatus = "lost"
	ResultPending ResultStatus = "pending"
)

func (s ResultStatus) String() string {
	return string(s)
}
