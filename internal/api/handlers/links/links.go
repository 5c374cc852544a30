// Package links 外部連結的導向處理器
package links

import (
	"errors"
	"strings"

	"menu-lens/internal/api/handlers"
	linkBuilder "menu-lens/internal/core/links"
	"menu-lens/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

func requireParam(c *gin.Context, value, name string) bool {
	if strings.TrimSpace(value) == "" {
		handlers.RespondError(c, common.ErrInvalidRequest.Wrap(errors.New(name+" is required")), nil)
		return false
	}
	return true
}

// HandleImageSearch GET /links/images?q=
func HandleImageSearch(c *gin.Context) {
	q := c.Query("q")
	if !requireParam(c, q, "q") {
		return
	}
	linkBuilder.OpenImageSearch(c.Writer, c.Request, q)
}

// HandleRecipeSearch GET /links/recipes?dish=
func HandleRecipeSearch(c *gin.Context) {
	dish := c.Query("dish")
	if !requireParam(c, dish, "dish") {
		return
	}
	linkBuilder.OpenRecipeSearch(c.Writer, c.Request, dish)
}

// HandleAllergenList GET /links/allergens
func HandleAllergenList(c *gin.Context) {
	linkBuilder.OpenAllergenList(c.Writer, c.Request)
}

// HandleAllergen GET /links/allergens/:allergen
func HandleAllergen(c *gin.Context) {
	allergen := c.Param("allergen")
	if !requireParam(c, allergen, "allergen") {
		return
	}
	linkBuilder.OpenAllergenWikipedia(c.Writer, c.Request, allergen)
}

// Register 註冊連結路由
func Register(rg *gin.RouterGroup) {
	rg.GET("/images", HandleImageSearch)
	rg.GET("/recipes", HandleRecipeSearch)
	rg.GET("/allergens", HandleAllergenList)
	rg.GET("/allergens/:allergen", HandleAllergen)
}
