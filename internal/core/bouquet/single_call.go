package bouquet

import (
	"context"

	"bouquet-recommender/internal/core/inventory"
	"bouquet-recommender/internal/pkg/common"

	"go.uber.org/zap"
)

// candidateStore 單次呼叫策略中提供給模型的店家與其庫存
type candidateStore struct {
	store inventory.Store
	items []inventory.InventoryItem
}

func (c candidateStore) flowers() []inventory.Flower {
	flowers := make([]inventory.Flower, 0, len(c.items))
	for _, item := range c.items {
		flowers = append(flowers, item.Flower)
	}
	return flowers
}

// singleCall 先挑出種類最多的店家，再讓模型一次選店並組成花束
func (a *Assembler) singleCall(ctx context.Context, situation string, report Reporter) *exit {
	report("꽃다발을 만들 수 있는 매장을 찾고 있어요...")
	candidates, ex := a.candidateStores(ctx)
	if ex != nil {
		return ex
	}

	report("AI가 매장과 꽃다발 레시피를 고르고 있어요...")
	obj, ex := a.compose(ctx, singleCallTemplate, map[string]any{
		"stores":    storeListing(candidates),
		"situation": situation,
	})
	if ex != nil {
		return ex
	}

	storeID, _ := asString(obj["store_id"])
	var chosen *candidateStore
	for i := range candidates {
		if candidates[i].store.ID == storeID {
			chosen = &candidates[i]
			break
		}
	}
	if chosen == nil {
		common.LogWarn("生成結果選擇了不存在的店家",
			zap.String("store_id", storeID),
			zap.String("request_id", common.RequestIDFrom(ctx)),
		)
		return degrade("unknown_store")
	}

	flowers, _ := reconcile(ctx, obj, chosen.flowers())

	entry, err := storeEntry(ctx, a.gateway, chosen.store.ID)
	if err != nil {
		common.LogWarn("查詢選定店家失敗", zap.Error(err), zap.String("store_id", chosen.store.ID))
		return degrade("unknown_store")
	}

	return a.finish(ctx, obj, flowers, []common.AvailableStore{entry}, flowerNames(chosen.flowers()))
}

// candidateStores 取得種類數達門檻的前幾家店與其庫存
func (a *Assembler) candidateStores(ctx context.Context) ([]candidateStore, *exit) {
	top, err := a.gateway.TopStoresByVariety(ctx, a.opts.CandidateStores)
	if err != nil {
		common.LogWarn("查詢候選店家失敗", zap.Error(err))
		return nil, degrade("catalog_error")
	}

	var ids []string
	for _, s := range top {
		if s.FlowerCount >= a.opts.MinStoreVariety && s.FlowerCount > 0 {
			ids = append(ids, s.StoreID)
		}
	}
	if len(ids) == 0 {
		if len(top) > 0 && top[0].FlowerCount > 0 {
			// 有庫存但種類不足，交給備援推薦
			return nil, degrade("no_candidate_store")
		}
		return nil, finished(NoInventoryResult(), "no_inventory")
	}

	inv, err := a.gateway.StoreInventory(ctx, ids)
	if err != nil {
		common.LogWarn("查詢候選店家庫存失敗", zap.Error(err))
		return nil, degrade("catalog_error")
	}

	candidates := make([]candidateStore, 0, len(ids))
	for _, id := range ids {
		items := inv[id]
		if len(items) == 0 {
			continue
		}
		store, err := a.gateway.ResolveStore(ctx, id)
		if err != nil {
			if !isNotFound(err) {
				common.LogWarn("查詢店家失敗", zap.Error(err), zap.String("store_id", id))
			}
			continue
		}
		candidates = append(candidates, candidateStore{store: *store, items: items})
	}

	if len(candidates) == 0 {
		return nil, degrade("no_candidate_store")
	}
	return candidates, nil
}
