package image

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 80, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func TestEncodeDataURL(t *testing.T) {
	svc := NewService(1 << 20)

	got, err := svc.EncodeDataURL(bytes.NewReader(pngBytes(t)))
	if err != nil {
		t.Fatalf("EncodeDataURL() error = %v", err)
	}
	if !strings.HasPrefix(got, "data:image/png;base64,") {
		t.Fatalf("EncodeDataURL() = %q, want png data url", got[:30])
	}

	mime, data, err := DecodeDataURL(got)
	if err != nil {
		t.Fatalf("DecodeDataURL() error = %v", err)
	}
	if mime != "image/png" || !bytes.Equal(data, pngBytes(t)) {
		t.Fatalf("round trip mismatch: mime %q, %d bytes", mime, len(data))
	}
}

func TestEncodeDataURLErrors(t *testing.T) {
	tests := []struct {
		name    string
		max     int64
		input   []byte
		wantErr error
	}{
		{name: "empty", max: 1024, input: nil, wantErr: ErrEmpty},
		{name: "not an image", max: 1024, input: []byte("hello, plain text"), wantErr: ErrNotImage},
		{name: "too large", max: 10, input: bytes.Repeat([]byte{0xff}, 64), wantErr: ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewService(tt.max).EncodeDataURL(bytes.NewReader(tt.input))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("EncodeDataURL() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeDataURLInvalid(t *testing.T) {
	for _, in := range []string{
		"",
		"https://example.com/a.png",
		"data:image/png,notbase64flag",
		"data:text/plain;base64,aGVsbG8=",
		"data:image/png;base64",
	} {
		if _, _, err := DecodeDataURL(in); err == nil {
			t.Errorf("DecodeDataURL(%q) expected error", in)
		}
	}
}

func TestProcessImageConvertsToJPEG(t *testing.T) {
	svc := NewService(1 << 20)
	src, err := EncodeBytes(pngBytes(t))
	if err != nil {
		t.Fatal(err)
	}

	out, err := svc.ProcessImage(src)
	if err != nil {
		t.Fatalf("ProcessImage() error = %v", err)
	}
	mime, data, err := DecodeDataURL(out)
	if err != nil {
		t.Fatal(err)
	}
	if mime != "image/jpeg" {
		t.Fatalf("mime = %q, want image/jpeg", mime)
	}
	if _, format, err := image.Decode(bytes.NewReader(data)); err != nil || format != "jpeg" {
		t.Fatalf("decode jpeg: format %q err %v", format, err)
	}
}

func TestDescribe(t *testing.T) {
	tests := map[string]string{
		"":                           "empty",
		"https://x/y.jpg":            "url",
		"data:image/png;base64,AAAA": "base64_data_uri_png",
		"data:image/png":             "invalid_data_uri",
		"/9j/4AAQ":                   "unknown_format",
	}
	for in, want := range tests {
		if got := Describe(in); got != want {
			t.Errorf("Describe(%q) = %q, want %q", in, got, want)
		}
	}
}
