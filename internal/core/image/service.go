// Package image 處理上傳的圖片：MIME 偵測、data URL 編解碼與 JPEG 正規化
package image

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"strings"

	_ "image/gif" // 支援 GIF
	_ "image/png" // 支援 PNG

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp" // 支援 WebP
)

var (
	// ErrEmpty 圖片為空
	ErrEmpty = errors.New("image data is empty")
	// ErrTooLarge 圖片超過大小限制
	ErrTooLarge = errors.New("image exceeds maximum size")
	// ErrNotImage 內容不是圖片
	ErrNotImage = errors.New("content is not an image")
	// ErrInvalidDataURL data URL 格式錯誤
	ErrInvalidDataURL = errors.New("invalid image data url")
)

// Service 圖片處理服務
type Service struct {
	maxSizeBytes int64
}

// NewService 創建新的圖片處理服務
func NewService(maxSizeBytes int64) *Service {
	return &Service{
		maxSizeBytes: maxSizeBytes,
	}
}

// ReadLimited 讀取圖片內容，超過上限時回傳 ErrTooLarge
func (s *Service) ReadLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxSizeBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if int64(len(data)) > s.maxSizeBytes {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrTooLarge, s.maxSizeBytes)
	}
	return data, nil
}

// EncodeDataURL 讀取圖片並轉為 data:<mime>;base64,<data>
func (s *Service) EncodeDataURL(r io.Reader) (string, error) {
	data, err := s.ReadLimited(r)
	if err != nil {
		return "", err
	}
	return EncodeBytes(data)
}

// EncodeBytes 偵測 MIME 後轉為 data URL
func EncodeBytes(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrNotImage, mime.String())
	}
	return "data:" + mime.String() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// DecodeDataURL 拆解 data URL，回傳 MIME 與原始位元組
func DecodeDataURL(dataURL string) (string, []byte, error) {
	if !strings.HasPrefix(dataURL, "data:") {
		return "", nil, ErrInvalidDataURL
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(dataURL, "data:"), ",")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	mime, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 || !strings.HasPrefix(mime, "image/") {
		return "", nil, ErrInvalidDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode base64 data: %w", err)
	}
	return mime, data, nil
}

// ProcessImage 將 data URL 中的圖片解碼後重新編碼為 JPEG，供視覺模型使用
func (s *Service) ProcessImage(dataURL string) (string, error) {
	if dataURL == "" {
		return "", ErrEmpty
	}

	_, data, err := DecodeDataURL(dataURL)
	if err != nil {
		return "", err
	}

	if int64(len(data)) > s.maxSizeBytes {
		return "", fmt.Errorf("%w: limit %d bytes", ErrTooLarge, s.maxSizeBytes)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	if !isSupportedFormat(format) {
		return "", fmt.Errorf("unsupported image format: %s", format)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return "", fmt.Errorf("failed to encode image as JPEG: %w", err)
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// isSupportedFormat 檢查圖片格式是否支援
func isSupportedFormat(format string) bool {
	supportedFormats := map[string]bool{
		"jpeg": true,
		"png":  true,
		"gif":  true,
		"webp": true,
	}
	return supportedFormats[format]
}

// Describe 用於日誌的圖片類型描述，不含圖片內容
func Describe(img string) string {
	switch {
	case img == "":
		return "empty"
	case strings.HasPrefix(img, "http://"), strings.HasPrefix(img, "https://"):
		return "url"
	case strings.HasPrefix(img, "data:image/"):
		header, _, ok := strings.Cut(img, ";base64,")
		if ok {
			return "base64_data_uri_" + strings.TrimPrefix(header, "data:image/")
		}
		return "invalid_data_uri"
	default:
		return "unknown_format"
	}
}
