package bouquet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bouquet-recommender/internal/core/inventory"
	"bouquet-recommender/internal/pkg/common"
	"bouquet-recommender/internal/pkg/metrics"

	"go.uber.org/zap"
)

// Fallback 不呼叫生成服務的備援推薦
type Fallback struct {
	gateway inventory.Gateway
	rng     Random
}

// NewFallback 創建備援推薦
func NewFallback(gateway inventory.Gateway, rng Random) *Fallback {
	return &Fallback{gateway: gateway, rng: rng}
}

// Recommend 從種類最多的店家隨機挑選花卉，永遠返回結果
func (f *Fallback) Recommend(ctx context.Context, reason string) common.BouquetRecipeResult {
	metrics.FallbacksTotal.WithLabelValues(reason).Inc()
	common.LogWarn("改用備援推薦",
		zap.String("reason", reason),
		zap.String("request_id", common.RequestIDFrom(ctx)),
	)

	top, err := f.gateway.TopStoresByVariety(ctx, 1)
	if err != nil {
		common.LogError("備援推薦查詢店家失敗", zap.Error(err))
		return ErrorResult("")
	}
	if len(top) == 0 || top[0].FlowerCount == 0 {
		return NoInventoryResult()
	}
	storeID := top[0].StoreID

	inv, err := f.gateway.StoreInventory(ctx, []string{storeID})
	if err != nil {
		common.LogError("備援推薦查詢庫存失敗", zap.Error(err), zap.String("store_id", storeID))
		return ErrorResult("")
	}
	items := inv[storeID]
	if len(items) == 0 {
		return ErrorResult("매장 재고를 불러오지 못했어요. 잠시 후 다시 시도해주세요.")
	}

	// 不重複抽樣
	n := len(items)
	if n > 3 {
		n = 3
	}
	order := f.rng.Perm(len(items))

	flowers := make([]common.RecommendedFlower, 0, n)
	var colors []string
	for i := 0; i < n; i++ {
		item := items[order[i]]
		meaning := item.Meaning
		if meaning == "" {
			meaning = item.Flower.DisplayMeaning()
		}
		flowers = append(flowers, common.RecommendedFlower{
			Role:   roleFor(i),
			Name:   item.Flower.Name,
			Reason: fmt.Sprintf("%s의 의미인 '%s'을(를) 담았어요.", item.Flower.Name, meaning),
		})
		if item.Flower.Color != "" && !containsString(colors, item.Flower.Color) {
			colors = append(colors, item.Flower.Color)
		}
	}

	colorTheme := DefaultColorTheme
	if len(colors) > 0 {
		colorTheme = strings.Join(colors, " & ") + " 톤"
	}

	store, err := storeEntry(ctx, f.gateway, storeID)
	if err != nil {
		common.LogError("備援推薦查詢店家資料失敗", zap.Error(err), zap.String("store_id", storeID))
		return ErrorResult("")
	}

	result := common.BouquetRecipeResult{
		Title:           "오늘의 추천 꽃다발",
		ColorTheme:      colorTheme,
		Flowers:         flowers,
		Letter:          letterPool[f.rng.Intn(len(letterPool))],
		CareGuide:       append([]string(nil), fallbackCareGuide...),
		AvailableStores: []common.AvailableStore{store},
	}
	return result
}

// storeEntry 查詢店家並附上主要商品
func storeEntry(ctx context.Context, gateway inventory.Gateway, storeID string) (common.AvailableStore, error) {
	store, err := gateway.ResolveStore(ctx, storeID)
	if err != nil {
		return common.AvailableStore{}, err
	}

	entry := common.AvailableStore{
		StoreID: store.ID,
		Name:    store.Name,
		Address: store.Address,
	}

	product, err := gateway.PrimaryProductForStore(ctx, storeID)
	if err != nil {
		// 沒有商品資訊仍然可以推薦
		common.LogWarn("查詢店家商品失敗", zap.Error(err), zap.String("store_id", storeID))
		return entry, nil
	}
	if product != nil {
		price := product.Price
		entry.ProductID = product.ID
		entry.ProductPrice = &price
	}
	return entry, nil
}

// isNotFound 判斷是否為查無資料
func isNotFound(err error) bool {
	return errors.Is(err, inventory.ErrNotFound)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
