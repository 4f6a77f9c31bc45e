package errs

import "errors"

// Sentinel errors shared by the usecase and handler layers.
var (
	// Admission
	ErrRateLimited = errors.New("rate limited")

	// Reservation
	ErrItemNotFound        = errors.New("item not found")
	ErrSaleNotStarted      = errors.New("sale not started")
	ErrSaleEnded           = errors.New("sale ended")
	ErrSoldOut             = errors.New("sold out")
	ErrReservationConflict = errors.New("reservation conflict")
	ErrRepeatPurchase      = errors.New("repeat purchase")
	ErrEmissionFailure     = errors.New("order message emission failed")
	ErrOrderNotFound       = errors.New("order not found")
	ErrLockTimeout         = errors.New("lock acquisition timed out")
	ErrDuplicateProcessing = errors.New("transaction already processed")
	ErrTransactionUnknown  = errors.New("local transaction state unknown")
	ErrReconciliationDrift = errors.New("cache and store stock drifted")

	// Stock cache
	ErrStockExhausted = errors.New("cached stock exhausted")
	ErrStockNotLoaded = errors.New("cached stock not loaded")

	// Consumers
	ErrNotYetDue      = errors.New("message not yet due")
	ErrInvalidMessage = errors.New("invalid message")

	ErrDatabaseOperationFailed = errors.New("database operation failed")
)
