package menu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"menu-lens/internal/core/ai/provider"
	imageService "menu-lens/internal/core/image"
	menuService "menu-lens/internal/core/menu"
	"menu-lens/internal/infrastructure/storage"
	"menu-lens/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

type fakeAnalyzer struct {
	result *menuService.AnalysisResult
	err    error
	apiKey string
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, dataURL, apiKey string) (*menuService.AnalysisResult, error) {
	f.apiKey = apiKey
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func sampleResult() *menuService.AnalysisResult {
	return &menuService.AnalysisResult{Categories: []menuService.Category{
		{Name: "Quick Meals", Items: []menuService.Item{
			{Name: "Shakshuka", Price: "Easy", Allergens: []string{"eggs"}},
			{Name: "Beef Wellington", Price: "Hard", Allergens: []string{"gluten", "tree nuts"}},
		}},
	}}
}

func setup(t *testing.T, analyzer Analyzer) (*gin.Engine, *menuService.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := menuService.NewService(storage.NewMemoryStore(), nil)
	t.Cleanup(svc.Close)

	h := NewHandler(svc, analyzer, imageService.NewService(1<<20))
	r := gin.New()
	r.POST("/menu/analyze", h.HandleAnalyze)
	r.GET("/menu", h.HandleGet)
	r.DELETE("/menu", h.HandleClear)
	r.GET("/menu/image", h.HandleImage)
	r.GET("/menu/items/:name", h.HandleItem)
	return r, svc
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{G: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func multipartRequest(t *testing.T, image []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if image != nil {
		fw, err := mw.CreateFormFile("image", "menu.png")
		if err != nil {
			t.Fatal(err)
		}
		_, _ = fw.Write(image)
	}
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/menu/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandleAnalyze(t *testing.T) {
	analyzer := &fakeAnalyzer{result: sampleResult()}
	r, _ := setup(t, analyzer)

	req := multipartRequest(t, pngBytes(t), map[string]string{"image_count": "2"})
	req.Header.Set(APIKeyHeader, " user-key ")
	w := serve(r, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	var catalog menuService.Catalog
	if err := json.Unmarshal(w.Body.Bytes(), &catalog); err != nil {
		t.Fatal(err)
	}
	if catalog.ItemCount() != 2 || catalog.OriginalImage == "" {
		t.Errorf("unexpected catalog %+v", catalog)
	}
	if analyzer.apiKey != "user-key" {
		t.Errorf("api key = %q", analyzer.apiKey)
	}

	w = serve(r, httptest.NewRequest(http.MethodGet, "/menu/image", nil))
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("image status = %d type = %s", w.Code, w.Header().Get("Content-Type"))
	}
	if !bytes.Equal(w.Body.Bytes(), pngBytes(t)) {
		t.Error("original image bytes differ")
	}
}

func TestHandleAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name       string
		image      []byte
		fields     map[string]string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"no image", nil, nil, nil, http.StatusBadRequest, common.ErrCodeNoImage},
		{"not an image", []byte("plain text"), nil, nil, http.StatusBadRequest, common.ErrInvalidImageFormat.Code},
		{"bad image_count", []byte{}, map[string]string{"image_count": "x"}, nil, http.StatusBadRequest, common.ErrCodeInvalidRequest},
		{"unauthorized", []byte{}, nil, fmt.Errorf("openrouter: %w", provider.ErrUnauthorized), http.StatusUnauthorized, common.ErrCodeUnauthorized},
		{"upstream failure", []byte{}, nil, fmt.Errorf("status 500"), http.StatusBadGateway, common.ErrAIServiceError.Code},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, svc := setup(t, &fakeAnalyzer{result: sampleResult(), err: tt.err})
			img := tt.image
			if img != nil && len(img) == 0 {
				img = pngBytes(t)
			}

			w := serve(r, multipartRequest(t, img, tt.fields))
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			var body common.ErrorResponse
			_ = json.Unmarshal(w.Body.Bytes(), &body)
			if body.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", body.Code, tt.wantCode)
			}
			if body.Reprompt != (tt.wantCode == common.ErrCodeUnauthorized) {
				t.Errorf("reprompt = %v", body.Reprompt)
			}
			if _, ok := svc.GetMenuData(context.Background()); ok {
				t.Error("failed analysis must not set menu data")
			}
		})
	}
}

func TestHandleGetAndClear(t *testing.T) {
	r, svc := setup(t, &fakeAnalyzer{})

	if w := serve(r, httptest.NewRequest(http.MethodGet, "/menu", nil)); w.Code != http.StatusNotFound {
		t.Fatalf("empty menu status = %d", w.Code)
	}
	if w := serve(r, httptest.NewRequest(http.MethodGet, "/menu/image", nil)); w.Code != http.StatusNotFound {
		t.Fatalf("empty image status = %d", w.Code)
	}

	svc.SetMenuData(context.Background(), *sampleResult(), nil, 1)
	if w := serve(r, httptest.NewRequest(http.MethodGet, "/menu", nil)); w.Code != http.StatusOK {
		t.Fatalf("menu status = %d", w.Code)
	}
	if w := serve(r, httptest.NewRequest(http.MethodGet, "/menu/image", nil)); w.Code != http.StatusNotFound {
		t.Fatalf("menu without original image status = %d", w.Code)
	}

	if w := serve(r, httptest.NewRequest(http.MethodDelete, "/menu", nil)); w.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d", w.Code)
	}
	if w := serve(r, httptest.NewRequest(http.MethodGet, "/menu", nil)); w.Code != http.StatusNotFound {
		t.Fatalf("cleared menu status = %d", w.Code)
	}
}

func TestHandleItem(t *testing.T) {
	r, svc := setup(t, &fakeAnalyzer{})
	svc.SetMenuData(context.Background(), *sampleResult(), nil, 1)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/menu/items/"+url.PathEscape("beef wellington"), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	var resp ItemResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Item.Name != "Beef Wellington" {
		t.Errorf("item = %+v", resp.Item)
	}
	if resp.Style.Color != "#D32F2F" {
		t.Errorf("style color = %s", resp.Style.Color)
	}
	if got := resp.Links.Allergens["tree nuts"]; got != "https://en.wikipedia.org/wiki/tree_nuts" {
		t.Errorf("allergen link = %s", got)
	}

	if w := serve(r, httptest.NewRequest(http.MethodGet, "/menu/items/nonexistent", nil)); w.Code != http.StatusNotFound {
		t.Fatalf("missing item status = %d", w.Code)
	}
}
