// Package analysis 將上傳的圖片交給視覺模型，解析成分類品項
package analysis

import (
	"context"
	"fmt"
	"strings"

	"menu-lens/internal/core/ai/service"
	"menu-lens/internal/core/menu"
	"menu-lens/internal/pkg/common"

	"go.uber.org/zap"
)

// Generator 視覺模型呼叫
type Generator interface {
	ProcessRequest(ctx context.Context, prompt, imageData, apiKey string) (*service.Response, error)
}

// Service 圖片分析服務
type Service struct {
	gen     Generator
	variant Variant
	prompt  string
}

// NewService 創建分析服務
func NewService(gen Generator, variant Variant) *Service {
	if variant != VariantFridge {
		variant = VariantMenu
	}
	return &Service{gen: gen, variant: variant, prompt: Prompt(variant)}
}

// Variant 目前的部署變體
func (s *Service) Variant() Variant {
	return s.variant
}

// Analyze 分析 data URL 圖片。沒有圖片時回傳 common.ErrNoImage；
// 提供者的 ErrUnauthorized 原樣往上傳。
func (s *Service) Analyze(ctx context.Context, dataURL, apiKey string) (*menu.AnalysisResult, error) {
	if strings.TrimSpace(dataURL) == "" {
		return nil, common.ErrNoImage
	}

	resp, err := s.gen.ProcessRequest(ctx, s.prompt, dataURL, apiKey)
	if err != nil {
		common.LogError("圖片分析失敗",
			zap.String("variant", string(s.variant)),
			zap.Error(err),
		)
		return nil, err
	}

	result, err := Parse(resp.Content)
	if err != nil {
		common.LogError("無法解析模型輸出",
			zap.Int("content_length", len(resp.Content)),
			zap.Error(err),
		)
		return nil, common.ErrAnalysisParse.Wrap(err)
	}

	common.LogInfo("圖片分析完成",
		zap.String("variant", string(s.variant)),
		zap.Int("categories", len(result.Categories)),
		zap.Bool("cache_hit", resp.CacheHit),
	)
	return result, nil
}

// Parse 從模型輸出取出 JSON 物件並解碼，略過沒有名稱的品項
func Parse(content string) (*menu.AnalysisResult, error) {
	raw, ok := common.ExtractJSONObject(content)
	if !ok {
		return nil, fmt.Errorf("no JSON object in model output")
	}

	var result menu.AnalysisResult
	if err := common.ParseJSON(raw, &result); err != nil {
		// 部分模型會省略鍵的引號
		result = menu.AnalysisResult{}
		if err2 := common.ParseJSON(common.QuoteJSONKeys(raw), &result); err2 != nil {
			return nil, fmt.Errorf("failed to decode analysis: %w", err)
		}
	}

	cats := result.Categories[:0]
	for _, cat := range result.Categories {
		items := cat.Items[:0]
		for _, item := range cat.Items {
			if strings.TrimSpace(item.Name) != "" {
				items = append(items, item)
			}
		}
		cat.Items = items
		if len(items) > 0 {
			cats = append(cats, cat)
		}
	}
	result.Categories = cats
	return &result, nil
}
