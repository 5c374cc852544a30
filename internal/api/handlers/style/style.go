// Package style 難度樣式查詢處理器
package style

import (
	"net/http"

	styleService "menu-lens/internal/core/style"

	"github.com/gin-gonic/gin"
)

// DifficultyResponse 難度與樣式
type DifficultyResponse struct {
	Label      string                  `json:"label"`
	Difficulty styleService.Difficulty `json:"difficulty"`
	styleService.Style
}

// HandleDifficulty GET /style/difficulty?label=；未知或空白的標籤回傳灰色
func HandleDifficulty(c *gin.Context) {
	label := c.Query("label")
	c.JSON(http.StatusOK, DifficultyResponse{
		Label:      label,
		Difficulty: styleService.Level(label),
		Style:      styleService.DifficultyStyle(label),
	})
}
