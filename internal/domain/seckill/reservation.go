package seckill

import (
	"time"

	"github.com/google/uuid"
)

// Reservation is the provisional reference handed back once the cache
// pre-deduction succeeded and the order transaction was accepted. It does not
// imply the order is settled.
type Reservation struct {
	BuyerID       uuid.UUID
	ItemID        uuid.UUID
	TransactionID string
	ReservedAt    time.Time
}

type Result struct {
	Status  ResultStatus
	OrderNo string
}

func Won(orderNo string) Result {
	return Result{Status: ResultWon, OrderNo: orderNo}
}

func Lost() Result {
	return Result{Status: ResultLost}
}

func Pending() Result {
	return Result{Status: ResultPending}
}

// IdempotenceRecord marks a transaction id as processed by settlement (or
// claimed by compensation, in which case Succeeded is false).
type IdempotenceRecord struct {
	TransactionID string
	Succeeded     bool
	CreatedAt     time.Time
}
