package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"menu-lens/internal/core/ai/cache"
	"menu-lens/internal/core/ai/provider"
	"menu-lens/internal/infrastructure/config"
)

type fakeProvider struct {
	calls int
	last  *provider.Request
}

func (f *fakeProvider) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	f.calls++
	f.last = req
	return &provider.Response{Content: `{"categories":[]}`, Model: "fake"}, nil
}

func (f *fakeProvider) GetModel() string          { return "fake" }
func (f *fakeProvider) GetTimeout() time.Duration { return time.Second }
func (f *fakeProvider) Close() error              { return nil }

func pngDataURL(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func newTestService(p provider.Provider, withCache bool) *Service {
	cfg := &config.Config{
		Vision: config.VisionConfig{MaxTokens: 1024},
		Image:  config.ImageConfig{MaxSizeBytes: 1 << 20},
		Cache:  config.CacheConfig{Enabled: withCache, MaxSize: 10, TTL: time.Hour},
	}
	return NewService(cfg, p, cache.NewManager(cfg.Cache))
}

func TestProcessRequestNormalisesImage(t *testing.T) {
	p := &fakeProvider{}
	svc := newTestService(p, false)

	if _, err := svc.ProcessRequest(context.Background(), "  prompt  ", pngDataURL(t), ""); err != nil {
		t.Fatalf("ProcessRequest() error = %v", err)
	}
	if !strings.HasPrefix(p.last.ImageData, "data:image/jpeg;base64,") {
		t.Errorf("image should be re-encoded as JPEG")
	}
	if p.last.Prompt != "prompt" || !p.last.JSONMode || p.last.MaxTokens != 1024 {
		t.Errorf("unexpected request %+v", p.last)
	}
}

func TestProcessRequestCache(t *testing.T) {
	ctx := context.Background()
	p := &fakeProvider{}
	svc := newTestService(p, true)
	img := pngDataURL(t)

	_, _ = svc.ProcessRequest(ctx, "prompt", img, "")
	resp, err := svc.ProcessRequest(ctx, "prompt", img, "")
	if err != nil {
		t.Fatal(err)
	}
	if !resp.CacheHit || p.calls != 1 {
		t.Errorf("second call should hit cache, calls = %d", p.calls)
	}

	// 使用者自帶 key 時不使用快取
	if _, err := svc.ProcessRequest(ctx, "prompt", img, "user-key"); err != nil {
		t.Fatal(err)
	}
	if p.calls != 2 || p.last.APIKey != "user-key" {
		t.Errorf("per-request key should bypass cache, calls = %d", p.calls)
	}
}

func TestProcessRequestRejectsBadImage(t *testing.T) {
	svc := newTestService(&fakeProvider{}, false)
	if _, err := svc.ProcessRequest(context.Background(), "p", "data:image/png;base64,!!!", ""); err == nil {
		t.Fatal("expected error for invalid image")
	}
}
