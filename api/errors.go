package api

import (
	"fmt"
	"net/http"

	"github.com/SlpAus/aureates-pokedex-backend/internal/platform/apperr"
	"github.com/gin-gonic/gin"
)

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError 把分类错误写成 {"message", "error"}；存储错误只记录日志，不向外暴露细节
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		fmt.Printf("[%s] %s %s 处理失败: %v\n", requestID(c), c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, gin.H{
		"message": apperr.MessageOf(err),
		"error":   kind.String(),
	})
}
