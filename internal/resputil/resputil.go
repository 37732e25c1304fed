package resputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"k8s.io/klog/v2"
)

// Response is the uniform envelope every endpoint returns. Code is OK for
// success; otherwise it carries a machine-readable error code and Msg a
// human-readable explanation.
type Response[T any] struct {
	Code ErrorCode `json:"code"`
	Data T         `json:"data"`
	Msg  string    `json:"msg"`
}

func Success[T any](c *gin.Context, data T) {
	c.JSON(http.StatusOK, Response[T]{
		Code: OK,
		Data: data,
		Msg:  "",
	})
}

// Error responds with HTTP 200 and a non-OK business code. Transport-level
// failures should go through HTTPError instead.
func Error(c *gin.Context, msg string, code ErrorCode) {
	klog.Infof("error: %s (%d)", msg, code)
	c.JSON(http.StatusOK, Response[any]{
		Code: code,
		Data: nil,
		Msg:  msg,
	})
}

// HTTPError responds with a non-200 status and aborts the handler chain, so
// it is safe to call from middleware.
func HTTPError(c *gin.Context, status int, msg string, code ErrorCode) {
	c.AbortWithStatusJSON(status, Response[any]{
		Code: code,
		Data: nil,
		Msg:  msg,
	})
}

func BadRequestError(c *gin.Context, msg string) {
	HTTPError(c, http.StatusBadRequest, msg, InvalidRequest)
}
