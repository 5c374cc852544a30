package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"menu-lens/internal/core/menu"
	"menu-lens/internal/core/queue"
	"menu-lens/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Checker 健康檢查所需的目錄服務資訊
type Checker interface {
	Ping(ctx context.Context) error
	QueueStatus() *queue.Status
	Stats() menu.Stats
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime"`
	Queue     *queue.Status          `json:"queue,omitempty"`
	Menu      *menu.Stats            `json:"menu,omitempty"`
	Cache     map[string]interface{} `json:"cache,omitempty"`
}

// Handler 健康檢查處理器
type Handler struct {
	version    string
	checker    Checker
	cacheStats func() map[string]interface{}
}

// NewHandler 創建健康檢查處理器；cacheStats 可為 nil
func NewHandler(version string, checker Checker, cacheStats func() map[string]interface{}) *Handler {
	return &Handler{version: version, checker: checker, cacheStats: cacheStats}
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}

	if h.checker != nil {
		response.Queue = h.checker.QueueStatus()
		stats := h.checker.Stats()
		response.Menu = &stats
	}
	if h.cacheStats != nil {
		response.Cache = h.cacheStats()
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查：目錄儲存必須可用
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if h.checker != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := h.checker.Ping(ctx); err != nil {
			common.LogWarn("Catalog store not ready", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not_ready",
				"store":  err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
