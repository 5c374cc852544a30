package provider

import (
	"context"
	"errors"
	"net/http"
	"time"
)

var (
	// ErrUnauthorized 憑證缺少、錯誤或遭拒，呼叫端應重新詢問 API key
	ErrUnauthorized = errors.New("vision provider rejected the credential")
	// ErrQuotaExceeded 供應商回報配額或頻率限制
	ErrQuotaExceeded = errors.New("vision provider quota exceeded")
)

// Request 表示發送到 AI 提供者的請求
type Request struct {
	Prompt string `json:"prompt"`
	// ImageData data URL；空字串表示純文字請求
	ImageData string `json:"-"`
	// APIKey 覆蓋設定檔中的憑證，只用於本次請求
	APIKey      string  `json:"-"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	// JSONMode 要求模型只輸出 JSON 物件
	JSONMode bool `json:"json_mode,omitempty"`
}

// Usage token 使用量
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response 表示從 AI 提供者收到的響應
type Response struct {
	Content string `json:"content"`
	Model   string `json:"model"`
	Usage   Usage  `json:"usage"`
}

// Provider 定義 AI 提供者介面
type Provider interface {
	// Generate 生成 AI 響應
	Generate(ctx context.Context, req *Request) (*Response, error)

	// GetModel 獲取當前使用的模型名稱
	GetModel() string

	// GetTimeout 獲取請求超時時間
	GetTimeout() time.Duration

	// Close 關閉提供者連接
	Close() error
}

// Config 定義 AI 提供者配置
type Config struct {
	APIKey    string
	Model     string
	Timeout   time.Duration
	BaseURL   string
	MaxTokens int
}

// StatusError 依 HTTP 狀態碼包裝供應商錯誤，401/403 與 429 對應到結構化錯誤
func StatusError(status int, err error) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return errors.Join(ErrUnauthorized, err)
	case http.StatusTooManyRequests:
		return errors.Join(ErrQuotaExceeded, err)
	default:
		return err
	}
}

// Credential 取得本次請求使用的 API key
func Credential(req *Request, fallback string) string {
	if req != nil && req.APIKey != "" {
		return req.APIKey
	}
	return fallback
}
