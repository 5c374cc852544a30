// Package style 將食譜難度標籤對應到前端顯示用的顏色
package style

import (
	"fmt"
	"strings"
)

// Difficulty 正規化後的難度分類
type Difficulty string

const (
	DifficultyEasy    Difficulty = "easy"
	DifficultyMedium  Difficulty = "medium"
	DifficultyHard    Difficulty = "hard"
	DifficultyUnknown Difficulty = "unknown"
)

// Style 文字顏色、背景色與邊框色
type Style struct {
	Color           string `json:"color"`
	BackgroundColor string `json:"backgroundColor"`
	BorderColor     string `json:"borderColor"`
}

type rgb struct {
	r, g, b uint8
}

func (c rgb) hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.r, c.g, c.b)
}

func (c rgb) alpha(a float64) string {
	return fmt.Sprintf("rgba(%d, %d, %d, %g)", c.r, c.g, c.b, a)
}

var palette = map[Difficulty]rgb{
	DifficultyEasy:    {46, 125, 50},   // 深綠
	DifficultyMedium:  {245, 124, 0},   // 橘
	DifficultyHard:    {211, 47, 47},   // 紅
	DifficultyUnknown: {102, 102, 102}, // 灰
}

// Level 去除前後空白並轉小寫後歸類
func Level(label string) Difficulty {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(label))); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d
	default:
		return DifficultyUnknown
	}
}

// DifficultyStyle 取得難度對應的完整樣式
func DifficultyStyle(label string) Style {
	c := palette[Level(label)]
	return Style{
		Color:           c.hex(),
		BackgroundColor: c.alpha(0.1),
		BorderColor:     c.alpha(0.3),
	}
}

// DifficultyColor 只取文字顏色
func DifficultyColor(label string) string {
	return DifficultyStyle(label).Color
}
