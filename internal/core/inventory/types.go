package inventory

import (
	"context"
	"errors"
)

// StockStatus 庫存狀態
type StockStatus string

const (
	StockAvailable StockStatus = "AVAILABLE"
	StockSoldOut   StockStatus = "SOLD_OUT"
	StockDiscarded StockStatus = "DISCARDED"
)

// ProductType 商品類型
type ProductType string

const (
	ProductReadyMade ProductType = "READY_MADE"
	ProductCustom    ProductType = "CUSTOM"
)

// DefaultMeaning 花語缺漏時使用的文字
const DefaultMeaning = "따뜻한 마음"

// ErrNotFound 查無資料
var ErrNotFound = errors.New("inventory: not found")

// Flower 花卉參考資料
type Flower struct {
	ID        string `json:"flower_id"`
	Name      string `json:"name"`
	Meaning   string `json:"meaning"`
	Color     string `json:"color"`
	CareGuide string `json:"care_guide"`
}

// DisplayMeaning 返回花語，缺漏時返回預設文字
func (f Flower) DisplayMeaning() string {
	if f.Meaning == "" {
		return DefaultMeaning
	}
	return f.Meaning
}

// Store 店家
type Store struct {
	ID           string `json:"store_id"`
	Name         string `json:"name"`
	Address      string `json:"address"`
	BusinessHour string `json:"business_hours,omitempty"`
	HasPickupBox bool   `json:"has_pickup_box"`
}

// Product 店家商品
type Product struct {
	ID      string      `json:"product_id"`
	StoreID string      `json:"store_id"`
	Name    string      `json:"name"`
	Price   int64       `json:"price"`
	Type    ProductType `json:"type"`
}

// Stock 庫存列，花卉與商品二擇一
type Stock struct {
	ID        string
	StoreID   string
	FlowerID  string
	ProductID string
	Quantity  int
	Status    StockStatus
}

// Usable 判斷庫存是否可用於推薦
func (s Stock) Usable() bool {
	return s.FlowerID != "" && s.Status == StockAvailable && s.Quantity > 0
}

// StoreVariety 店家與其可用花卉種類數
type StoreVariety struct {
	StoreID     string
	FlowerCount int
}

// InventoryItem 店家庫存中的一種花
type InventoryItem struct {
	Flower  Flower
	Meaning string
}

// StockTotal 店家對某種花的可用總量
type StockTotal struct {
	StoreID  string
	FlowerID string
	Quantity int
}

// Gateway 花卉目錄唯讀查詢
type Gateway interface {
	// FindFlowersByNameFragment 名稱包含片段（區分大小寫）且有可用庫存的花
	FindFlowersByNameFragment(ctx context.Context, fragment string) ([]Flower, error)
	// TopStoresByVariety 依可用花卉種類數遞減排序的店家
	TopStoresByVariety(ctx context.Context, limit int) ([]StoreVariety, error)
	// StoreInventory 批次取得店家的可用花卉
	StoreInventory(ctx context.Context, storeIDs []string) (map[string][]InventoryItem, error)
	// ResolveStore 查詢店家，不存在時返回 ErrNotFound
	ResolveStore(ctx context.Context, storeID string) (*Store, error)
	// PrimaryProductForStore 優先返回 CUSTOM 商品，沒有商品時返回 nil
	PrimaryProductForStore(ctx context.Context, storeID string) (*Product, error)
	// AvailableFlowers 任意有可用庫存的花，排除指定 ID
	AvailableFlowers(ctx context.Context, limit int, excludeIDs []string) ([]Flower, error)
	// StockTotals 按 (店家, 花) 彙總可用數量
	StockTotals(ctx context.Context, flowerIDs []string) ([]StockTotal, error)
	// ListFlowerNames 目錄中全部花名
	ListFlowerNames(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}
