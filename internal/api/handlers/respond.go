// Package handlers HTTP 處理器共用的錯誤回應
package handlers

import (
	"context"
	"errors"

	"menu-lens/internal/core/ai/provider"
	"menu-lens/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Classify 將服務層錯誤對應到 API 錯誤。未知錯誤視為 fallback。
func Classify(err error, fallback *common.CustomError) *common.CustomError {
	switch {
	case errors.Is(err, provider.ErrUnauthorized):
		return common.ErrUnauthorized.Wrap(err)
	case errors.Is(err, provider.ErrQuotaExceeded):
		return common.ErrAIQuotaExceeded.Wrap(err)
	case errors.Is(err, context.DeadlineExceeded):
		return common.ErrGatewayTimeout.Wrap(err)
	case common.IsValidationError(err):
		return common.ErrInvalidRequest.Wrap(err)
	}
	return common.AsCustomError(err, fallback)
}

// RespondError 記錄錯誤並以統一格式回應。未授權的回應帶 reprompt，讓前端重新詢問憑證。
func RespondError(c *gin.Context, err error, fallback *common.CustomError) {
	ce := Classify(err, fallback)
	_ = c.Error(err)

	fields := []zap.Field{
		zap.String("code", ce.Code),
		zap.Int("status", ce.Status),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", requestid.Get(c)),
		zap.Error(err),
	}
	if ce.Status >= 500 {
		common.LogError("請求處理失敗", fields...)
	} else {
		common.LogWarn("請求處理失敗", fields...)
	}

	c.AbortWithStatusJSON(ce.Status, ce.Response(gin.IsDebugging()))
}
