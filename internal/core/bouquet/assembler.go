package bouquet

import (
	"context"
	"fmt"
	"strings"

	"bouquet-recommender/internal/core/inventory"
	"bouquet-recommender/internal/infrastructure/config"
	"bouquet-recommender/internal/pkg/common"
	"bouquet-recommender/internal/pkg/metrics"

	"go.uber.org/zap"
)

// Generator 以模板與變數呼叫一次文字生成
type Generator interface {
	Generate(ctx context.Context, template string, vars map[string]any) (string, error)
}

// Reporter 接收進度訊息
type Reporter func(message string)

// Options 推薦流程參數
type Options struct {
	Strategy        string
	IdeationCount   int
	MinMatches      int
	TopUpLimit      int
	CandidateCap    int
	CandidateStores int
	MinStoreVariety int
}

// OptionsFromConfig 由設定建立流程參數
func OptionsFromConfig(cfg config.RecommendConfig) Options {
	return Options{
		Strategy:        cfg.Strategy,
		IdeationCount:   cfg.IdeationCount,
		MinMatches:      cfg.MinMatches,
		TopUpLimit:      cfg.TopUpLimit,
		CandidateCap:    cfg.CandidateCap,
		CandidateStores: cfg.CandidateStores,
		MinStoreVariety: cfg.MinStoreVariety,
	}
}

// Assembler 花束推薦流程
type Assembler struct {
	gateway  inventory.Gateway
	gen      Generator
	fallback *Fallback
	rng      Random
	opts     Options
}

// NewAssembler 創建推薦流程，gen 為 nil 時一律使用備援推薦
func NewAssembler(gateway inventory.Gateway, gen Generator, rng Random, opts Options) *Assembler {
	if rng == nil {
		rng = NewRandom(0)
	}
	return &Assembler{
		gateway:  gateway,
		gen:      gen,
		fallback: NewFallback(gateway, rng),
		rng:      rng,
		opts:     opts,
	}
}

// exit 流程的結束方式：終止結果，或改用備援推薦
type exit struct {
	result   *common.BouquetRecipeResult
	outcome  string
	fallback string
}

func finished(r common.BouquetRecipeResult, outcome string) *exit {
	return &exit{result: &r, outcome: outcome}
}

func degrade(reason string) *exit {
	return &exit{fallback: reason}
}

// Recommend 依情境產生花束推薦，永遠返回一個結果
func (a *Assembler) Recommend(ctx context.Context, situation string, report Reporter) common.BouquetRecipeResult {
	if report == nil {
		report = func(string) {}
	}
	metrics.RecommendationsActive.Inc()
	defer metrics.RecommendationsActive.Dec()

	var ex *exit
	switch {
	case a.gen == nil:
		ex = degrade("generation_disabled")
	case a.opts.Strategy == config.StrategySingleCall:
		ex = a.singleCall(ctx, situation, report)
	default:
		ex = a.twoStage(ctx, situation, report)
	}

	if ex.result == nil {
		report("추천 꽃다발을 준비하고 있어요...")
		ex = finished(a.fallback.Recommend(ctx, ex.fallback), "fallback")
	}

	if err := ValidateResult(*ex.result); err != nil {
		common.LogError("推薦結果不符合輸出契約",
			zap.Error(err),
			zap.String("request_id", common.RequestIDFrom(ctx)),
		)
		ex = finished(ErrorResult(""), "error")
	}

	metrics.RecommendationsTotal.WithLabelValues(a.strategy(), ex.outcome).Inc()
	common.LogInfo("推薦完成",
		zap.String("request_id", common.RequestIDFrom(ctx)),
		zap.String("outcome", ex.outcome),
		zap.String("result", describe(*ex.result)),
	)
	return *ex.result
}

func (a *Assembler) strategy() string {
	if a.opts.Strategy == "" {
		return config.StrategyTwoStage
	}
	return a.opts.Strategy
}

// twoStage 先發想花名、比對庫存，再從候選花卉組成花束
func (a *Assembler) twoStage(ctx context.Context, situation string, report Reporter) *exit {
	report("AI가 상황을 분석하고 있어요...")
	names, ex := a.ideate(ctx, situation)
	if ex != nil {
		return ex
	}

	report("상황에 어울리는 꽃을 재고에서 찾고 있어요...")
	candidates, ex := a.match(ctx, names)
	if ex != nil {
		return ex
	}

	report("꽃다발 레시피와 편지를 작성하고 있어요...")
	obj, ex := a.compose(ctx, compositionTemplate, map[string]any{
		"inventory": inventoryListing(candidates),
		"situation": situation,
	})
	if ex != nil {
		return ex
	}

	flowers, required := reconcile(ctx, obj, candidates)

	report("꽃다발을 만들 수 있는 매장을 찾고 있어요...")
	stores, ex := a.eligibleStores(ctx, required)
	if ex != nil {
		return ex
	}

	return a.finish(ctx, obj, flowers, stores, flowerNames(candidates))
}

// ideate 請模型發想花名，額度錯誤直接終止，其他錯誤以空清單繼續
func (a *Assembler) ideate(ctx context.Context, situation string) ([]string, *exit) {
	raw, err := a.gen.Generate(ctx, ideationTemplate, map[string]any{
		"situation": situation,
		"count":     a.opts.IdeationCount,
	})
	if err != nil {
		if common.IsQuotaError(err) {
			return nil, finished(QuotaResult(), "quota")
		}
		common.LogWarn("花名發想失敗，以空清單繼續",
			zap.Error(err),
			zap.String("request_id", common.RequestIDFrom(ctx)),
		)
		return nil, nil
	}

	names := common.SplitNameList(raw)
	if a.opts.IdeationCount > 0 && len(names) > a.opts.IdeationCount {
		names = names[:a.opts.IdeationCount]
	}
	common.LogDebug("花名發想結果", zap.Strings("names", names))
	return names, nil
}

// match 以名稱片段比對庫存，不足時補上任意可用花卉
func (a *Assembler) match(ctx context.Context, names []string) ([]inventory.Flower, *exit) {
	seen := make(map[string]struct{})
	var matched []inventory.Flower
	add := func(flowers []inventory.Flower) {
		for _, f := range flowers {
			if _, dup := seen[f.ID]; dup {
				continue
			}
			seen[f.ID] = struct{}{}
			matched = append(matched, f)
		}
	}

	for _, name := range names {
		found, err := a.gateway.FindFlowersByNameFragment(ctx, name)
		if err != nil {
			common.LogWarn("比對花卉庫存失敗", zap.Error(err), zap.String("name", name))
			return nil, degrade("catalog_error")
		}
		add(found)
	}

	if len(matched) < a.opts.MinMatches {
		extra, err := a.gateway.AvailableFlowers(ctx, a.opts.TopUpLimit, flowerIDs(matched))
		if err != nil {
			common.LogWarn("補充候選花卉失敗", zap.Error(err))
			return nil, degrade("catalog_error")
		}
		add(extra)
	}

	if len(matched) == 0 {
		return nil, finished(NoInventoryResult(), "no_inventory")
	}

	if a.opts.CandidateCap > 0 && len(matched) > a.opts.CandidateCap {
		matched = matched[:a.opts.CandidateCap]
	}
	return matched, nil
}

// compose 呼叫一次生成並解析成鬆散物件
func (a *Assembler) compose(ctx context.Context, template string, vars map[string]any) (map[string]interface{}, *exit) {
	raw, err := a.gen.Generate(ctx, template, vars)
	if err != nil {
		if common.IsQuotaError(err) {
			return nil, finished(QuotaResult(), "quota")
		}
		common.LogWarn("花束組成生成失敗",
			zap.Error(err),
			zap.String("request_id", common.RequestIDFrom(ctx)),
		)
		return nil, degrade("generation_failed")
	}

	obj, err := common.ParseLooseObject(raw)
	if err != nil {
		common.LogWarn("無法解析生成結果",
			zap.Error(err),
			zap.String("request_id", common.RequestIDFrom(ctx)),
			zap.Int("raw_length", len(raw)),
		)
		common.LogDebug("無法解析的生成原文",
			zap.String("request_id", common.RequestIDFrom(ctx)),
			zap.String("raw_output", raw),
		)
		return nil, degrade("parse_failed")
	}
	return obj, nil
}

// eligibleStores 找出每一種必要花卉都有庫存的店家並附上商品
func (a *Assembler) eligibleStores(ctx context.Context, required []string) ([]common.AvailableStore, *exit) {
	totals, err := a.gateway.StockTotals(ctx, required)
	if err != nil {
		common.LogWarn("彙總店家庫存失敗", zap.Error(err))
		return nil, degrade("catalog_error")
	}

	ids := inventory.EligibleStores(totals, required)
	stores := make([]common.AvailableStore, 0, len(ids))
	for _, id := range ids {
		entry, err := storeEntry(ctx, a.gateway, id)
		if err != nil {
			if !isNotFound(err) {
				common.LogWarn("查詢店家失敗", zap.Error(err), zap.String("store_id", id))
			}
			continue
		}
		stores = append(stores, entry)
	}

	if len(stores) == 0 {
		common.LogWarn("沒有店家能製作這個花束",
			zap.Strings("required", required),
			zap.String("request_id", common.RequestIDFrom(ctx)),
		)
		return nil, degrade("no_eligible_store")
	}
	return stores, nil
}

// finish 套用輸出契約、檢查信件並產生最終結果
func (a *Assembler) finish(ctx context.Context, obj map[string]interface{}, flowers []common.RecommendedFlower,
	stores []common.AvailableStore, knownNames []string) *exit {
	result := Normalize(obj)
	result.Flowers = flowers
	result.AvailableStores = stores

	names, err := a.gateway.ListFlowerNames(ctx)
	if err != nil {
		common.LogWarn("讀取花名清單失敗，改用候選花名", zap.Error(err))
		names = knownNames
	}
	if term := LetterViolation(result.Letter, names); term != "" {
		common.LogWarn("信件包含花名或說明語氣，改用預設信件",
			zap.String("term", term),
			zap.String("request_id", common.RequestIDFrom(ctx)),
		)
		result.Letter = letterPool[a.rng.Intn(len(letterPool))]
	}

	if err := ValidateResult(result); err != nil {
		common.LogWarn("生成結果不符合輸出契約", zap.Error(err))
		return degrade("contract_violation")
	}
	return finished(result, "success")
}

// reconcile 把模型選的花名對應回候選花卉，無法對應的丟棄
func reconcile(ctx context.Context, obj map[string]interface{}, candidates []inventory.Flower) ([]common.RecommendedFlower, []string) {
	items, _ := obj["flowers"].([]interface{})

	seen := make(map[string]struct{})
	flowers := make([]common.RecommendedFlower, 0, len(items))
	var ids []string
	for _, item := range items {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		name, _ := asString(entry["name"])
		if name == "" {
			continue
		}
		f, ok := resolveName(name, candidates)
		if !ok {
			common.LogWarn("生成結果包含候選以外的花",
				zap.String("name", name),
				zap.String("request_id", common.RequestIDFrom(ctx)),
			)
			continue
		}
		if _, dup := seen[f.ID]; dup {
			continue
		}
		seen[f.ID] = struct{}{}

		role, _ := asString(entry["role"])
		flowers = append(flowers, common.RecommendedFlower{
			Role:   canonicalRole(role, len(flowers)),
			Name:   f.Name,
			Reason: stringOr(entry["reason"], DefaultReason),
		})
		ids = append(ids, f.ID)
	}

	if len(ids) > 0 {
		return flowers, ids
	}

	// 一個都對不上時改用前三個候選
	n := len(candidates)
	if n > 3 {
		n = 3
	}
	flowers = flowers[:0]
	for i, f := range candidates[:n] {
		flowers = append(flowers, common.RecommendedFlower{
			Role:   roleFor(i),
			Name:   f.Name,
			Reason: fmt.Sprintf("'%s'의 의미를 담았어요.", f.DisplayMeaning()),
		})
		ids = append(ids, f.ID)
	}
	return flowers, ids
}

// resolveName 先完全比對，再以片段比對
func resolveName(name string, candidates []inventory.Flower) (inventory.Flower, bool) {
	name = strings.TrimSpace(name)
	for _, f := range candidates {
		if f.Name == name {
			return f, true
		}
	}
	for _, f := range candidates {
		if strings.Contains(f.Name, name) {
			return f, true
		}
	}
	for _, f := range candidates {
		if strings.Contains(name, f.Name) {
			return f, true
		}
	}
	return inventory.Flower{}, false
}

func flowerIDs(flowers []inventory.Flower) []string {
	ids := make([]string, 0, len(flowers))
	for _, f := range flowers {
		ids = append(ids, f.ID)
	}
	return ids
}

func flowerNames(flowers []inventory.Flower) []string {
	names := make([]string, 0, len(flowers))
	for _, f := range flowers {
		names = append(names, f.Name)
	}
	return names
}
