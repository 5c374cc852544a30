package analysis

import "fmt"

// Variant 部署變體，決定 price 欄位的意義
type Variant string

const (
	// VariantMenu 拍攝餐廳菜單，price 為價格
	VariantMenu Variant = "menu"
	// VariantFridge 拍攝冰箱內容，price 為難度（Easy / Medium / Hard）
	VariantFridge Variant = "fridge"
)

const schema = `{
  "categories": [
    {
      "name": "string",
      "items": [
        {
          "name": "string",
          "price": "string",
          "description": "string",
          "ingredients": ["string"],
          "allergens": ["string"],
          "history": "string"
        }
      ]
    }
  ]
}`

const menuRules = `- Extract every dish visible on the menu, keeping the menu's own grouping as categories
- For "name": the dish name exactly as printed
- For "price": the price as printed, including the currency symbol; empty string if not shown
- For "description": a short appetizing description (1-2 sentences), using the menu text when present
- For "ingredients": the main ingredients of the dish
- For "allergens": potential allergens (dairy, gluten, nuts, eggs, shellfish, soy, etc.)
- For "history": 2-3 interesting sentences about the dish's origin or cultural significance`

const fridgeRules = `- Analyze the fridge contents and suggest 5-8 delicious recipes that can be made with the visible ingredients
- Group recipes by category (e.g., "Quick Meals", "Comfort Food", "Healthy Options", "Italian Classics")
- For "name": provide creative, appetizing recipe names
- For "price": indicate difficulty level (Easy, Medium, Hard) instead of actual price
- For "description": an enticing description of the dish and cooking method (2-3 sentences)
- For "ingredients": the main ingredients needed from what's visible in the fridge, plus common pantry items
- For "allergens": potential allergens in the recipe (dairy, gluten, nuts, etc.)
- For "history": 3-4 interesting sentences about the dish's origin, cultural significance, or cooking tips
- Focus on practical, home-cookable recipes that actually exist`

// Prompt 依變體產生分析提示詞
func Prompt(v Variant) string {
	subject, rules := "restaurant menu image", menuRules
	if v == VariantFridge {
		subject, rules = "fridge contents image", fridgeRules
	}
	return fmt.Sprintf("Analyze this %s and return a JSON with the following structure:\n%s\nFollow the rules:\n%s\n- ONLY JSON IS ALLOWED as an answer. No explanation or other text is allowed!",
		subject, schema, rules)
}
