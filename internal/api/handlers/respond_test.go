package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"menu-lens/internal/core/ai/provider"
	"menu-lens/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"unauthorized", fmt.Errorf("call: %w", provider.ErrUnauthorized), common.ErrCodeUnauthorized},
		{"quota", provider.ErrQuotaExceeded, common.ErrAIQuotaExceeded.Code},
		{"deadline", context.DeadlineExceeded, common.ErrCodeGatewayTimeout},
		{"custom", common.ErrNoImage, common.ErrCodeNoImage},
		{"validation", common.NewValidationError("image_count must be a non-negative integer"), common.ErrCodeInvalidRequest},
		{"unknown", errors.New("boom"), common.ErrAIServiceError.Code},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err, common.ErrAIServiceError); got.Code != tt.want {
				t.Errorf("Classify() code = %s, want %s", got.Code, tt.want)
			}
		})
	}
	if got := Classify(errors.New("x"), nil); got.Code != common.ErrCodeInternalError {
		t.Errorf("nil fallback should be internal error, got %s", got.Code)
	}
}

func TestRespondErrorReprompt(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/menu/analyze", nil)

	RespondError(c, provider.ErrUnauthorized, nil)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", w.Code)
	}
	var body common.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !body.Reprompt || body.Code != common.ErrCodeUnauthorized {
		t.Errorf("unexpected body %+v", body)
	}
}
