package httperr

import (
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Status int `json:"-"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
	Detail any `json:"detail,omitempty"`
}

// RetryDetail is the detail body of every response that carries Retry-After.
type RetryDetail struct {
	RetryAfterMs int64 `json:"retryAfterMs"`
}

// keeps the original error on c.Errors so the access log can report it
func AbortWithError(c *gin.Context, status int, err error, msg string, detail any) {
	if err == nil {
		panic("AbortWithError: err cannot be nil")
	}

	resp := Response{Status: status}
	resp.Error.Message = msg
	resp.Detail = detail

	_ = c.Error(gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(status, resp)
}

// AbortWithRetry is AbortWithError for responses the client may repeat after wait.
func AbortWithRetry(c *gin.Context, status int, err error, msg string, wait time.Duration) {
	c.Header("Retry-After", strconv.Itoa(RetryAfterSeconds(wait)))
	AbortWithError(c, status, err, msg, RetryDetail{RetryAfterMs: wait.Milliseconds()})
}

// RetryAfterSeconds rounds up to whole seconds; the header has no finer unit.
func RetryAfterSeconds(wait time.Duration) int {
	return max(int(math.Ceil(wait.Seconds())), 1)
}
