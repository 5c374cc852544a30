// Package search 透過 Google Custom Search 取得品項圖片
package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"menu-lens/internal/infrastructure/config"
	"menu-lens/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	// DefaultEndpoint Custom Search JSON API
	DefaultEndpoint = "https://www.googleapis.com/customsearch/v1"

	// maxResults API 單次最多回傳 10 筆
	maxResults = 10
)

// ErrNotConfigured 未設定 API key 或搜尋引擎 ID
var ErrNotConfigured = errors.New("google custom search is not configured")

// GoogleClient Google Custom Search 圖片搜尋客戶端
type GoogleClient struct {
	client   *resty.Client
	endpoint string
	apiKey   string
	engineID string
}

type searchResponse struct {
	Items []struct {
		Link string `json:"link"`
	} `json:"items"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewGoogleClient 創建圖片搜尋客戶端
func NewGoogleClient(cfg config.SearchConfig) *GoogleClient {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &GoogleClient{
		client:   client,
		endpoint: endpoint,
		apiKey:   cfg.APIKey,
		engineID: cfg.EngineID,
	}
}

// SearchImages 搜尋圖片並回傳連結；沒有結果時回傳空切片
func (c *GoogleClient) SearchImages(ctx context.Context, query string, count int) ([]string, error) {
	if c.apiKey == "" || c.engineID == "" {
		return nil, ErrNotConfigured
	}
	count = clampCount(count)

	var result searchResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"key":        c.apiKey,
			"cx":         c.engineID,
			"q":          query,
			"searchType": "image",
			"num":        strconv.Itoa(count),
		}).
		SetResult(&result).
		SetError(&result).
		Get(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to send image search request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		msg := resp.Status()
		if result.Error != nil && result.Error.Message != "" {
			msg = result.Error.Message
		}
		common.LogWarn("圖片搜尋回傳錯誤",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("query", query),
			zap.String("message", msg),
		)
		return nil, fmt.Errorf("image search error (status %d): %s", resp.StatusCode(), msg)
	}

	urls := make([]string, 0, len(result.Items))
	for _, item := range result.Items {
		if item.Link != "" {
			urls = append(urls, item.Link)
		}
	}

	common.LogDebug("圖片搜尋完成",
		zap.String("query", query),
		zap.Int("requested", count),
		zap.Int("results", len(urls)),
	)
	return urls, nil
}

func clampCount(n int) int {
	if n < 1 {
		return 1
	}
	if n > maxResults {
		return maxResults
	}
	return n
}
