package api

import (
	"net/http"
	"time"

	"gin-seckill/internal/handler/httperr"
	"gin-seckill/internal/pkg/errs"

	"github.com/gin-gonic/gin"
)

type errorMapping struct {
	target  error
	status  int
	message string
	// retry > 0 adds Retry-After; the request is safe to repeat as-is.
	retry time.Duration
}

// Order matters: EmissionFailure wraps store errors that may carry other marks.
var errorMappings = []errorMapping{
	{errs.ErrEmissionFailure, http.StatusServiceUnavailable, "Order could not be placed, please retry", time.Second},
	{errs.ErrItemNotFound, http.StatusNotFound, "Item not found", 0},
	{errs.ErrSaleNotStarted, http.StatusBadRequest, "Sale has not started", 0},
	{errs.ErrSaleEnded, http.StatusBadRequest, "Sale has ended", 0},
	{errs.ErrSoldOut, http.StatusGone, "Sold out", 0},
	{errs.ErrRepeatPurchase, http.StatusConflict, "Already purchased", 0},
	{errs.ErrReservationConflict, http.StatusConflict, "Reservation conflict, please retry", time.Second},
	{errs.ErrRateLimited, http.StatusTooManyRequests, "Too many requests", time.Second},
}

func abortWithDomainError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if !errs.Is(err, m.target) {
			continue
		}
		if m.retry > 0 {
			httperr.AbortWithRetry(c, m.status, err, m.message, m.retry)
			return
		}
		httperr.AbortWithError(c, m.status, err, m.message, nil)
		return
	}
	httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
}

var errUnauthenticated = errs.New("no authenticated user in context")
