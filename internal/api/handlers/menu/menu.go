// Package menu 目錄相關的 HTTP 處理器：上傳分析、查詢、清除
package menu

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"menu-lens/internal/api/handlers"
	"menu-lens/internal/core/image"
	"menu-lens/internal/core/links"
	menuService "menu-lens/internal/core/menu"
	"menu-lens/internal/core/style"
	"menu-lens/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// APIKeyHeader 使用者自帶的視覺模型憑證
const APIKeyHeader = "X-Vision-API-Key"

// Catalogs 目錄快取服務
type Catalogs interface {
	SetMenuData(ctx context.Context, raw menuService.AnalysisResult, original io.Reader, imageCount int) *menuService.Catalog
	GetMenuData(ctx context.Context) (*menuService.Catalog, bool)
	GetOriginalMenuImage(ctx context.Context) (string, bool)
	GetMenuItem(ctx context.Context, name string) (*menuService.Item, bool)
	ClearData(ctx context.Context)
}

// Analyzer 圖片分析服務
type Analyzer interface {
	Analyze(ctx context.Context, dataURL, apiKey string) (*menuService.AnalysisResult, error)
}

// Handler 目錄處理器
type Handler struct {
	catalogs Catalogs
	analyzer Analyzer
	images   *image.Service
}

// ItemResponse 單一品項與其顯示樣式、外部連結
type ItemResponse struct {
	Item  *menuService.Item `json:"item"`
	Style style.Style       `json:"style"`
	Links links.Set         `json:"links"`
}

// NewHandler 創建目錄處理器
func NewHandler(catalogs Catalogs, analyzer Analyzer, images *image.Service) *Handler {
	return &Handler{catalogs: catalogs, analyzer: analyzer, images: images}
}

// HandleAnalyze POST /menu/analyze：multipart 欄位 image，選填 image_count
func (h *Handler) HandleAnalyze(c *gin.Context) {
	requestID := requestid.Get(c)

	file, err := c.FormFile("image")
	if err != nil {
		handlers.RespondError(c, common.ErrNoImage.Wrap(err), nil)
		return
	}

	imageCount := 0
	if raw := c.PostForm("image_count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			handlers.RespondError(c, common.NewValidationError("image_count must be a non-negative integer"), nil)
			return
		}
		imageCount = n
	}

	f, err := file.Open()
	if err != nil {
		handlers.RespondError(c, common.ErrInvalidRequest.Wrap(err), nil)
		return
	}
	defer f.Close()

	data, err := h.images.ReadLimited(f)
	if err != nil {
		handlers.RespondError(c, imageError(err), nil)
		return
	}
	dataURL, err := image.EncodeBytes(data)
	if err != nil {
		handlers.RespondError(c, imageError(err), nil)
		return
	}

	common.LogInfo("開始分析圖片",
		zap.String("request_id", requestID),
		zap.String("filename", file.Filename),
		zap.Int("image_length", len(data)),
		zap.Bool("user_key", c.GetHeader(APIKeyHeader) != ""),
	)

	result, err := h.analyzer.Analyze(c.Request.Context(), dataURL, strings.TrimSpace(c.GetHeader(APIKeyHeader)))
	if err != nil {
		handlers.RespondError(c, err, common.ErrAIServiceError)
		return
	}

	catalog := h.catalogs.SetMenuData(c.Request.Context(), *result, bytes.NewReader(data), imageCount)

	common.LogInfo("圖片分析完成",
		zap.String("request_id", requestID),
		zap.Int("categories", len(catalog.Categories)),
		zap.Int("items", catalog.ItemCount()),
	)
	c.JSON(http.StatusCreated, catalog)
}

func imageError(err error) error {
	switch {
	case errors.Is(err, image.ErrEmpty):
		return common.ErrNoImage.Wrap(err)
	case errors.Is(err, image.ErrTooLarge):
		return common.ErrInvalidImageSize.Wrap(err)
	default:
		return common.ErrInvalidImageFormat.Wrap(err)
	}
}

// HandleGet GET /menu
func (h *Handler) HandleGet(c *gin.Context) {
	catalog, ok := h.catalogs.GetMenuData(c.Request.Context())
	if !ok {
		handlers.RespondError(c, common.ErrNotFound.Wrap(errors.New("no menu data")), nil)
		return
	}
	c.JSON(http.StatusOK, catalog)
}

// HandleClear DELETE /menu
func (h *Handler) HandleClear(c *gin.Context) {
	h.catalogs.ClearData(c.Request.Context())
	c.Status(http.StatusNoContent)
}

// HandleImage GET /menu/image：回傳原始圖片
func (h *Handler) HandleImage(c *gin.Context) {
	dataURL, ok := h.catalogs.GetOriginalMenuImage(c.Request.Context())
	if !ok {
		handlers.RespondError(c, common.ErrNotFound.Wrap(errors.New("no original image")), nil)
		return
	}

	mime, data, err := image.DecodeDataURL(dataURL)
	if err != nil {
		handlers.RespondError(c, err, common.ErrInternalError)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, mime, data)
}

// HandleItem GET /menu/items/:name
func (h *Handler) HandleItem(c *gin.Context) {
	name := c.Param("name")
	item, ok := h.catalogs.GetMenuItem(c.Request.Context(), name)
	if !ok {
		handlers.RespondError(c, common.ErrNotFound.Wrap(errors.New("menu item not found: "+name)), nil)
		return
	}

	c.JSON(http.StatusOK, ItemResponse{
		Item:  item,
		Style: style.DifficultyStyle(item.Price),
		Links: links.ForItem(item.Name, item.Allergens),
	})
}
