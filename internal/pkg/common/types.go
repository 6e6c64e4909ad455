package common

// 花束中的角色
const (
	RoleMain   = "main"
	RoleSub    = "sub"
	RoleFiller = "filler"
	RoleOther  = "other"
)

// 串流事件類型
const (
	EventProgress = "progress"
	EventResult   = "result"
)

// BouquetRecipeResult 花束推薦結果，所有欄位永遠存在
type BouquetRecipeResult struct {
	Title           string              `json:"title"`
	ColorTheme      string              `json:"color_theme"`
	Flowers         []RecommendedFlower `json:"flowers"`
	Letter          string              `json:"letter"`
	CareGuide       []string            `json:"care_guide"`
	AvailableStores []AvailableStore    `json:"available_stores"`
}

// RecommendedFlower 花束中的一朵花
type RecommendedFlower struct {
	Role   string `json:"role"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// AvailableStore 可以製作花束的店家
type AvailableStore struct {
	StoreID      string `json:"store_id"`
	Name         string `json:"name"`
	Address      string `json:"address"`
	ProductID    string `json:"product_id,omitempty"`
	ProductPrice *int64 `json:"product_price,omitempty"`
}

// StreamEvent 換行分隔 JSON 串流中的單一事件
type StreamEvent struct {
	Type    string               `json:"type"`
	Message string               `json:"message,omitempty"`
	Data    *BouquetRecipeResult `json:"data,omitempty"`
}

// RecommendRequest 推薦請求
type RecommendRequest struct {
	Situation string `json:"situation" form:"situation"`
}
