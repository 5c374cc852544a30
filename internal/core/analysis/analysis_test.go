package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"menu-lens/internal/core/ai/provider"
	"menu-lens/internal/core/ai/service"
	"menu-lens/internal/pkg/common"
)

type fakeGenerator struct {
	content string
	err     error
	prompt  string
	apiKey  string
}

func (f *fakeGenerator) ProcessRequest(ctx context.Context, prompt, imageData, apiKey string) (*service.Response, error) {
	f.prompt, f.apiKey = prompt, apiKey
	if f.err != nil {
		return nil, f.err
	}
	return &service.Response{Content: f.content}, nil
}

const sampleOutput = "```json\n" + `{
  "categories": [
    {"name": "Starters", "items": [
      {"name": "Bruschetta", "price": "$7", "description": "Toasted bread", "ingredients": ["bread", "tomato"], "allergens": ["gluten"], "history": "Italian."},
      {"name": "", "price": "$1"}
    ]},
    {"name": "Empty", "items": []}
  ]
}` + "\n```"

func TestAnalyze(t *testing.T) {
	gen := &fakeGenerator{content: sampleOutput}
	svc := NewService(gen, VariantMenu)

	result, err := svc.Analyze(context.Background(), "data:image/jpeg;base64,AAAA", "user-key")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(result.Categories) != 1 || len(result.Categories[0].Items) != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if item := result.Categories[0].Items[0]; item.Name != "Bruschetta" || item.Price != "$7" {
		t.Errorf("unexpected item %+v", item)
	}
	if gen.apiKey != "user-key" {
		t.Errorf("api key not forwarded: %q", gen.apiKey)
	}
	if !strings.Contains(gen.prompt, "restaurant menu") {
		t.Errorf("menu prompt expected")
	}
}

func TestAnalyzeNoImage(t *testing.T) {
	svc := NewService(&fakeGenerator{}, VariantMenu)
	for _, in := range []string{"", "   "} {
		if _, err := svc.Analyze(context.Background(), in, ""); !errors.Is(err, common.ErrNoImage) {
			t.Errorf("Analyze(%q) error = %v, want ErrNoImage", in, err)
		}
	}
}

func TestAnalyzeUnauthorizedPropagates(t *testing.T) {
	upstream := fmt.Errorf("openrouter: %w", provider.ErrUnauthorized)
	svc := NewService(&fakeGenerator{err: upstream}, VariantFridge)

	_, err := svc.Analyze(context.Background(), "data:image/png;base64,AAAA", "")
	if !errors.Is(err, provider.ErrUnauthorized) {
		t.Fatalf("error = %v, want ErrUnauthorized", err)
	}
}

func TestAnalyzeParseFailure(t *testing.T) {
	svc := NewService(&fakeGenerator{content: "Sorry, I cannot read this menu."}, VariantMenu)

	_, err := svc.Analyze(context.Background(), "data:image/png;base64,AAAA", "")
	if !errors.Is(err, common.ErrAnalysisParse) {
		t.Fatalf("error = %v, want ErrAnalysisParse", err)
	}
}

func TestParseUnquotedKeys(t *testing.T) {
	result, err := Parse(`{categories: [{name: "Soups", items: [{name: "Pho", price: "Easy"}]}]}`)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if result.Categories[0].Items[0].Name != "Pho" {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestPromptVariants(t *testing.T) {
	if p := Prompt(VariantFridge); !strings.Contains(p, "difficulty level") {
		t.Error("fridge prompt should ask for difficulty in price")
	}
	if p := Prompt(VariantMenu); strings.Contains(p, "difficulty level") {
		t.Error("menu prompt should not ask for difficulty")
	}
	if NewService(&fakeGenerator{}, "unknown").Variant() != VariantMenu {
		t.Error("unknown variant should fall back to menu")
	}
}
