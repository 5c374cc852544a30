package menu

import (
	"slices"
	"strings"
)

// Item 菜單品項或食譜。Price 依部署變體為價格或難度標籤。
// ImageURLs 為 nil 表示尚未補充圖片，JSON 中不出現；補充嘗試之後一定不是 nil（失敗時為空）。
type Item struct {
	Name        string   `json:"name"`
	Price       string   `json:"price"`
	Description string   `json:"description"`
	Ingredients []string `json:"ingredients"`
	Allergens   []string `json:"allergens"`
	History     string   `json:"history"`
	ImageURLs   []string `json:"imageUrls,omitzero"`
}

// Enriched 是否已經嘗試過補充圖片
func (i *Item) Enriched() bool {
	return i.ImageURLs != nil
}

// Category 品項分類
type Category struct {
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// Catalog 一次分析的完整結果
type Catalog struct {
	Categories []Category `json:"categories"`
	// Timestamp 建立時間（毫秒）
	Timestamp     int64  `json:"timestamp"`
	OriginalImage string `json:"originalImage,omitempty"`
}

// AnalysisResult 視覺模型回傳的分類品項結構
type AnalysisResult struct {
	Categories []Category `json:"categories"`
}

// ItemCount 所有分類的品項總數
func (c *Catalog) ItemCount() int {
	n := 0
	for _, cat := range c.Categories {
		n += len(cat.Items)
	}
	return n
}

// FindItem 名稱不分大小寫完全比對，依分類順序再依品項順序取第一個
func (c *Catalog) FindItem(name string) (*Item, bool) {
	for ci := range c.Categories {
		items := c.Categories[ci].Items
		for ii := range items {
			if strings.EqualFold(items[ii].Name, name) {
				return &items[ii], true
			}
		}
	}
	return nil, false
}

// Clone 深複製，保留 ImageURLs 的 nil 與空切片差異
func (c *Catalog) Clone() *Catalog {
	if c == nil {
		return nil
	}
	out := &Catalog{
		Timestamp:     c.Timestamp,
		OriginalImage: c.OriginalImage,
		Categories:    make([]Category, len(c.Categories)),
	}
	for i, cat := range c.Categories {
		out.Categories[i] = Category{Name: cat.Name, Items: make([]Item, len(cat.Items))}
		for j, item := range cat.Items {
			out.Categories[i].Items[j] = item.clone()
		}
	}
	return out
}

func (i Item) clone() Item {
	i.Ingredients = slices.Clone(i.Ingredients)
	i.Allergens = slices.Clone(i.Allergens)
	i.ImageURLs = slices.Clone(i.ImageURLs)
	return i
}

// normalize 補上缺少的切片並清除外部傳入的圖片欄位
func (r AnalysisResult) normalize() []Category {
	cats := make([]Category, 0, len(r.Categories))
	for _, cat := range r.Categories {
		items := make([]Item, 0, len(cat.Items))
		for _, item := range cat.Items {
			item = item.clone()
			if item.Ingredients == nil {
				item.Ingredients = []string{}
			}
			if item.Allergens == nil {
				item.Allergens = []string{}
			}
			item.ImageURLs = nil
			items = append(items, item)
		}
		cats = append(cats, Category{Name: cat.Name, Items: items})
	}
	return cats
}
