package inventory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Catalog 記憶體目錄的資料內容
type Catalog struct {
	Flowers  []Flower
	Stores   []Store
	Products []Product
	Stocks   []Stock
}

// MemoryGateway 以記憶體資料實現的花卉目錄，用於本機執行與測試
type MemoryGateway struct {
	mu      sync.RWMutex
	catalog Catalog
	flowers map[string]Flower
}

// NewMemoryGateway 創建記憶體目錄
func NewMemoryGateway(c Catalog) *MemoryGateway {
	g := &MemoryGateway{
		catalog: c,
		flowers: make(map[string]Flower, len(c.Flowers)),
	}
	for _, f := range c.Flowers {
		g.flowers[f.ID] = f
	}
	return g
}

// usableFlowerIDs 每家店可用的花 ID 集合
func (g *MemoryGateway) usableFlowerIDs() map[string]map[string]struct{} {
	byStore := make(map[string]map[string]struct{})
	for _, s := range g.catalog.Stocks {
		if !s.Usable() {
			continue
		}
		if _, ok := g.flowers[s.FlowerID]; !ok {
			continue
		}
		if byStore[s.StoreID] == nil {
			byStore[s.StoreID] = make(map[string]struct{})
		}
		byStore[s.StoreID][s.FlowerID] = struct{}{}
	}
	return byStore
}

// usableFlowers 依名稱排序、去重後的可用花
func (g *MemoryGateway) usableFlowers(match func(Flower) bool) []Flower {
	seen := make(map[string]struct{})
	var out []Flower
	for _, ids := range g.usableFlowerIDs() {
		for id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			f := g.flowers[id]
			if match != nil && !match(f) {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (g *MemoryGateway) FindFlowersByNameFragment(_ context.Context, fragment string) ([]Flower, error) {
	if fragment == "" {
		return nil, nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.usableFlowers(func(f Flower) bool {
		return strings.Contains(f.Name, fragment)
	}), nil
}

func (g *MemoryGateway) TopStoresByVariety(_ context.Context, limit int) ([]StoreVariety, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var stores []StoreVariety
	for storeID, ids := range g.usableFlowerIDs() {
		stores = append(stores, StoreVariety{StoreID: storeID, FlowerCount: len(ids)})
	}
	sort.Slice(stores, func(i, j int) bool {
		if stores[i].FlowerCount == stores[j].FlowerCount {
			return stores[i].StoreID < stores[j].StoreID
		}
		return stores[i].FlowerCount > stores[j].FlowerCount
	})
	if limit > 0 && len(stores) > limit {
		stores = stores[:limit]
	}
	return stores, nil
}

func (g *MemoryGateway) StoreInventory(_ context.Context, storeIDs []string) (map[string][]InventoryItem, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	usable := g.usableFlowerIDs()
	result := make(map[string][]InventoryItem, len(storeIDs))
	for _, storeID := range storeIDs {
		var items []InventoryItem
		for id := range usable[storeID] {
			f := g.flowers[id]
			items = append(items, InventoryItem{Flower: f, Meaning: f.DisplayMeaning()})
		}
		sort.Slice(items, func(i, j int) bool { return items[i].Flower.Name < items[j].Flower.Name })
		if len(items) > 0 {
			result[storeID] = items
		}
	}
	return result, nil
}

func (g *MemoryGateway) ResolveStore(_ context.Context, storeID string) (*Store, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, s := range g.catalog.Stores {
		if s.ID == storeID {
			store := s
			return &store, nil
		}
	}
	return nil, ErrNotFound
}

func (g *MemoryGateway) PrimaryProductForStore(_ context.Context, storeID string) (*Product, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var fallback *Product
	for i := range g.catalog.Products {
		p := g.catalog.Products[i]
		if p.StoreID != storeID {
			continue
		}
		if p.Type == ProductCustom {
			return &p, nil
		}
		if fallback == nil {
			fallback = &p
		}
	}
	return fallback, nil
}

func (g *MemoryGateway) AvailableFlowers(_ context.Context, limit int, excludeIDs []string) ([]Flower, error) {
	if limit <= 0 {
		return nil, nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	exclude := make(map[string]struct{}, len(excludeIDs))
	for _, id := range excludeIDs {
		exclude[id] = struct{}{}
	}
	flowers := g.usableFlowers(func(f Flower) bool {
		_, skip := exclude[f.ID]
		return !skip
	})
	if len(flowers) > limit {
		flowers = flowers[:limit]
	}
	return flowers, nil
}

func (g *MemoryGateway) StockTotals(_ context.Context, flowerIDs []string) ([]StockTotal, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	want := make(map[string]struct{}, len(flowerIDs))
	for _, id := range flowerIDs {
		want[id] = struct{}{}
	}

	type key struct{ store, flower string }
	sums := make(map[key]int)
	var order []key
	for _, s := range g.catalog.Stocks {
		if !s.Usable() {
			continue
		}
		if _, ok := want[s.FlowerID]; !ok {
			continue
		}
		k := key{s.StoreID, s.FlowerID}
		if _, seen := sums[k]; !seen {
			order = append(order, k)
		}
		sums[k] += s.Quantity
	}

	totals := make([]StockTotal, 0, len(order))
	for _, k := range order {
		totals = append(totals, StockTotal{StoreID: k.store, FlowerID: k.flower, Quantity: sums[k]})
	}
	return totals, nil
}

func (g *MemoryGateway) ListFlowerNames(_ context.Context) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	names := make([]string, 0, len(g.catalog.Flowers))
	for _, f := range g.catalog.Flowers {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (g *MemoryGateway) Ping(context.Context) error {
	return nil
}

// seedNamespace 用於產生固定的種子資料 ID
var seedNamespace = uuid.MustParse("6f1c2b1e-8a4d-4c1b-9d0e-3f6a2b7c9e10")

// SeedID 由名稱產生固定的 UUID
func SeedID(kind, name string) string {
	return uuid.NewSHA1(seedNamespace, []byte(kind+":"+name)).String()
}

// SeedCatalog 本機執行用的示範目錄
func SeedCatalog() Catalog {
	storeID := SeedID("store", "행복한 꽃집")

	flowers := []Flower{
		{Name: "빨간 장미", Meaning: "불타는 사랑, 열정, 아름다움", Color: "Red",
			CareGuide: "줄기 끝을 사선으로 자르고 물을 매일 갈아주세요. 직사광선은 피하는 것이 좋습니다."},
		{Name: "하얀 튤립", Meaning: "새로운 시작, 용서, 순결", Color: "White",
			CareGuide: "온도에 민감하므로 서늘한 곳에 두세요. 줄기가 휘어질 수 있으니 높은 화병이 좋습니다."},
		{Name: "노란 프리지아", Meaning: "당신의 시작을 응원합니다, 천진난만", Color: "Yellow",
			CareGuide: "향기가 강하며 에틸렌 가스에 민감합니다. 시든 꽃은 바로 제거해주세요."},
		{Name: "리시안셔스", Meaning: "변치 않는 사랑, 우아함", Color: "Purple",
			CareGuide: "줄기가 약해 꺾이기 쉬우니 조심스럽게 다뤄주세요. 물올림이 중요합니다."},
		{Name: "안개꽃", Meaning: "맑은 마음, 사랑의 성공", Color: "White",
			CareGuide: "드라이플라워로 만들기 좋습니다. 통풍이 잘 되는 곳에 두면 예쁘게 마릅니다."},
		{Name: "메리골드", Meaning: "반드시 오고야 말 행복", Color: "Orange",
			CareGuide: "잎에서 특유의 향이 납니다. 물에 닿은 잎은 썩기 쉬우니 제거하고 꽂아주세요."},
	}

	quantities := []int{24, 18, 35, 12, 50, 27}
	stocks := make([]Stock, 0, len(flowers)+1)
	for i := range flowers {
		flowers[i].ID = SeedID("flower", flowers[i].Name)
		stocks = append(stocks, Stock{
			ID:       SeedID("stock", flowers[i].Name),
			StoreID:  storeID,
			FlowerID: flowers[i].ID,
			Quantity: quantities[i],
			Status:   StockAvailable,
		})
	}

	product := Product{
		ID:      SeedID("product", "화해의 튤립 꽃다발"),
		StoreID: storeID,
		Name:    "화해의 튤립 꽃다발",
		Price:   45000,
		Type:    ProductReadyMade,
	}
	stocks = append(stocks, Stock{
		ID:        SeedID("stock", product.Name),
		StoreID:   storeID,
		ProductID: product.ID,
		Quantity:  3,
		Status:    StockAvailable,
	})

	return Catalog{
		Flowers: flowers,
		Stores: []Store{{
			ID:           storeID,
			Name:         "행복한 꽃집",
			Address:      "서울 강남구 테헤란로 123",
			BusinessHour: "09:00 - 20:00",
			HasPickupBox: true,
		}},
		Products: []Product{product},
		Stocks:   stocks,
	}
}
