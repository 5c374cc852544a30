// Package links 組出外部圖片搜尋、食譜搜尋與過敏原參考頁面的網址
package links

import (
	"net/http"
	"regexp"
	"strings"
)

const (
	imageSearchBase  = "https://www.google.com/search?udm=2&q="
	recipeSearchBase = "http://www.google.com/search?ie=UTF-8&q="
	wikipediaBase    = "https://en.wikipedia.org/wiki/"
	allergenListURL  = wikipediaBase + "List_of_allergens"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// ImageSearchURL Google 圖片搜尋
func ImageSearchURL(query string) string {
	return imageSearchBase + EncodeURIComponent(strings.TrimSpace(query))
}

// RecipeSearchURL 以 "<菜名> recipe" 進行 Google 搜尋
func RecipeSearchURL(dishName string) string {
	return recipeSearchBase + EncodeURIComponent(strings.TrimSpace(dishName)+" recipe")
}

// AllergenWikipediaURL 過敏原的 Wikipedia 條目，空白以底線取代
func AllergenWikipediaURL(allergen string) string {
	title := whitespaceRun.ReplaceAllString(strings.TrimSpace(allergen), "_")
	return wikipediaBase + EncodeURIComponent(title)
}

// AllergenListURL Wikipedia 過敏原列表
func AllergenListURL() string {
	return allergenListURL
}

// Set 單一品項相關的所有外部連結
type Set struct {
	ImageSearch  string            `json:"imageSearch"`
	RecipeSearch string            `json:"recipeSearch"`
	Allergens    map[string]string `json:"allergens"`
	AllergenList string            `json:"allergenList"`
}

// ForItem 為品項名稱與過敏原列表組出連結
func ForItem(name string, allergens []string) Set {
	set := Set{
		ImageSearch:  ImageSearchURL(name),
		RecipeSearch: RecipeSearchURL(name),
		Allergens:    make(map[string]string, len(allergens)),
		AllergenList: AllergenListURL(),
	}
	for _, a := range allergens {
		set.Allergens[a] = AllergenWikipediaURL(a)
	}
	return set
}

// Open 將使用者導向外部網址，不帶 referrer 也不保留 opener
func Open(w http.ResponseWriter, r *http.Request, target string) {
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
	http.Redirect(w, r, target, http.StatusFound)
}

// OpenImageSearch 開啟圖片搜尋
func OpenImageSearch(w http.ResponseWriter, r *http.Request, query string) {
	Open(w, r, ImageSearchURL(query))
}

// OpenRecipeSearch 開啟食譜搜尋
func OpenRecipeSearch(w http.ResponseWriter, r *http.Request, dishName string) {
	Open(w, r, RecipeSearchURL(dishName))
}

// OpenAllergenWikipedia 開啟過敏原條目
func OpenAllergenWikipedia(w http.ResponseWriter, r *http.Request, allergen string) {
	Open(w, r, AllergenWikipediaURL(allergen))
}

// OpenAllergenList 開啟過敏原列表
func OpenAllergenList(w http.ResponseWriter, r *http.Request) {
	Open(w, r, AllergenListURL())
}
