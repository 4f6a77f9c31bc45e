package middleware

import "gin-seckill/internal/pkg/errs"

var (
	errMissingToken       = errs.New("missing bearer token")
	errMissingAuthContext = errs.New("role check without authenticated context")
	errInsufficientRole   = errs.New("insufficient role")
)
