package bouquet

import (
	"context"
	"errors"
	"strings"
	"testing"

	"bouquet-recommender/internal/core/inventory"
	"bouquet-recommender/internal/infrastructure/config"
	"bouquet-recommender/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// scriptedGenerator 依模板返回預先設定的回覆
type scriptedGenerator struct {
	ideation    string
	ideationErr error
	compose     string
	composeErr  error
	calls       []string
	vars        []map[string]any
}

func (g *scriptedGenerator) Generate(_ context.Context, template string, vars map[string]any) (string, error) {
	g.vars = append(g.vars, vars)
	if template == ideationTemplate {
		g.calls = append(g.calls, "ideation")
		return g.ideation, g.ideationErr
	}
	if template == singleCallTemplate {
		g.calls = append(g.calls, "single_call")
	} else {
		g.calls = append(g.calls, "composition")
	}
	return g.compose, g.composeErr
}

func testCatalog() inventory.Catalog {
	return inventory.Catalog{
		Flowers: []inventory.Flower{
			{ID: "f-tulip", Name: "하얀 튤립", Meaning: "용서", Color: "White"},
			{ID: "f-gyp", Name: "안개꽃", Meaning: "맑은 마음", Color: "White"},
			{ID: "f-freesia", Name: "노란 프리지아", Meaning: "새로운 시작", Color: "Yellow"},
			{ID: "f-rose", Name: "빨간 장미", Meaning: "사랑", Color: "Red"},
		},
		Stores: []inventory.Store{
			{ID: "store-a", Name: "A 꽃집", Address: "서울 A로 1"},
			{ID: "store-b", Name: "B 꽃집", Address: "서울 B로 2"},
		},
		Products: []inventory.Product{
			{ID: "p-a", StoreID: "store-a", Name: "화해 꽃다발", Price: 30000, Type: inventory.ProductCustom},
		},
		Stocks: []inventory.Stock{
			{ID: "s1", StoreID: "store-a", FlowerID: "f-tulip", Quantity: 10, Status: inventory.StockAvailable},
			{ID: "s2", StoreID: "store-a", FlowerID: "f-gyp", Quantity: 5, Status: inventory.StockAvailable},
			{ID: "s3", StoreID: "store-a", FlowerID: "f-freesia", Quantity: 4, Status: inventory.StockAvailable},
			{ID: "s4", StoreID: "store-b", FlowerID: "f-gyp", Quantity: 20, Status: inventory.StockAvailable},
			{ID: "s5", StoreID: "store-b", FlowerID: "f-rose", Quantity: 7, Status: inventory.StockAvailable},
			{ID: "s6", StoreID: "store-b", FlowerID: "f-tulip", Quantity: 0, Status: inventory.StockAvailable},
		},
	}
}

func testOptions(strategy string) Options {
	opts := OptionsFromConfig(config.Default().Recommend)
	opts.Strategy = strategy
	return opts
}

func newTestAssembler(catalog inventory.Catalog, gen Generator, strategy string) *Assembler {
	return NewAssembler(inventory.NewMemoryGateway(catalog), gen, NewRandom(42), testOptions(strategy))
}

const apologyComposition = "```json\n" + `{
  "title": "다시, 우리",
  "color_theme": "화이트 & 그린",
  "flowers": [
    {"role": "메인", "name": "하얀 튤립", "reason": "용서를 구하는 마음"},
    {"role": "filler", "name": "안개꽃", "reason": "맑은 마음"},
    {"role": "sub", "name": "해바라기", "reason": "목록에 없는 꽃"}
  ],
  "letter": "튤립처럼 새로 시작하고 싶어. 그때는 정말 미안했어.",
  "care_guide": "서늘한 곳에 두세요."
}` + "\n```"

func TestRecommend_TwoStageApologyScenario(t *testing.T) {
	gen := &scriptedGenerator{
		ideation: "하얀 튤립, 안개꽃, 해바라기 (Sunflower), 하얀 튤립",
		compose:  apologyComposition,
	}
	a := newTestAssembler(testCatalog(), gen, config.StrategyTwoStage)

	var progress []string
	result := a.Recommend(context.Background(), "sorry for an old argument", func(msg string) {
		progress = append(progress, msg)
	})

	assert.Equal(t, []string{"ideation", "composition"}, gen.calls)
	assert.NotEmpty(t, progress)

	require.Len(t, result.Flowers, 2)
	assert.Equal(t, common.RecommendedFlower{Role: common.RoleMain, Name: "하얀 튤립", Reason: "용서를 구하는 마음"}, result.Flowers[0])
	assert.Equal(t, common.RoleFiller, result.Flowers[1].Role)
	assert.Equal(t, "안개꽃", result.Flowers[1].Name)

	require.Len(t, result.AvailableStores, 1)
	store := result.AvailableStores[0]
	assert.Equal(t, "store-a", store.StoreID)
	assert.Equal(t, "p-a", store.ProductID)
	require.NotNil(t, store.ProductPrice)
	assert.Equal(t, int64(30000), *store.ProductPrice)

	assert.NotContains(t, result.Letter, "튤립")
	assert.Contains(t, letterPool, result.Letter)
	assert.Equal(t, []string{"서늘한 곳에 두세요."}, result.CareGuide)
	assert.Equal(t, "다시, 우리", result.Title)
	assert.NoError(t, ValidateResult(result))
}

func TestRecommend_CompositionSeesOnlyMatchedCandidates(t *testing.T) {
	gen := &scriptedGenerator{
		ideation: "하얀 튤립, 안개꽃",
		compose:  apologyComposition,
	}
	a := newTestAssembler(testCatalog(), gen, config.StrategyTwoStage)
	a.Recommend(context.Background(), "사과하고 싶어요", nil)

	require.Len(t, gen.vars, 2)
	listing, ok := gen.vars[1]["inventory"].(string)
	require.True(t, ok)
	assert.Contains(t, listing, "하얀 튤립")
	assert.Contains(t, listing, "안개꽃")
	assert.NotContains(t, listing, "빨간 장미")
}

func TestRecommend_QuotaIsTerminal(t *testing.T) {
	quota := common.ErrQuotaExceeded.Wrap(errors.New("status 429"))

	tests := []struct {
		name      string
		gen       *scriptedGenerator
		wantCalls []string
	}{
		{
			name:      "ideation",
			gen:       &scriptedGenerator{ideationErr: quota},
			wantCalls: []string{"ideation"},
		},
		{
			name:      "composition",
			gen:       &scriptedGenerator{ideation: "하얀 튤립, 안개꽃", composeErr: errors.New("RESOURCE_EXHAUSTED: quota exceeded")},
			wantCalls: []string{"ideation", "composition"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAssembler(testCatalog(), tt.gen, config.StrategyTwoStage)
			result := a.Recommend(context.Background(), "생일 축하", nil)

			assert.Equal(t, QuotaResult(), result)
			assert.Equal(t, tt.wantCalls, tt.gen.calls)
		})
	}
}

func TestRecommend_IdeationFailureContinuesWithTopUp(t *testing.T) {
	gen := &scriptedGenerator{
		ideationErr: common.ErrGenerationFailed.Wrap(errors.New("connection reset")),
		compose: `{"title": "t", "color_theme": "c", "letter": "늘 고마워요.",
			"flowers": [{"role": "main", "name": "노란 프리지아", "reason": "시작"}], "care_guide": ["a", "b", "c"]}`,
	}
	a := newTestAssembler(testCatalog(), gen, config.StrategyTwoStage)
	result := a.Recommend(context.Background(), "졸업 축하", nil)

	assert.Equal(t, []string{"ideation", "composition"}, gen.calls)
	require.Len(t, result.Flowers, 1)
	assert.Equal(t, "노란 프리지아", result.Flowers[0].Name)
	require.Len(t, result.AvailableStores, 1)
	assert.Equal(t, "store-a", result.AvailableStores[0].StoreID)
	assert.Equal(t, "늘 고마워요.", result.Letter)
}

func TestRecommend_ParseFailureFallsBack(t *testing.T) {
	gen := &scriptedGenerator{ideation: "하얀 튤립", compose: "죄송해요, 지금은 도와드릴 수 없어요."}
	a := newTestAssembler(testCatalog(), gen, config.StrategyTwoStage)

	var progress []string
	result := a.Recommend(context.Background(), "사과", func(msg string) { progress = append(progress, msg) })

	assertFallbackResult(t, result, "store-a")
	assert.Equal(t, "추천 꽃다발을 준비하고 있어요...", progress[len(progress)-1])
}

func TestRecommend_ParseFailureLogsRawOutputAtDebug(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	previous := common.Logger
	common.Logger = zap.New(core)
	t.Cleanup(func() { common.Logger = previous })

	raw := "죄송해요, 지금은 도와드릴 수 없어요."
	gen := &scriptedGenerator{ideation: "하얀 튤립", compose: raw}
	newTestAssembler(testCatalog(), gen, config.StrategyTwoStage).Recommend(context.Background(), "사과", nil)

	warn := logs.FilterMessage("無法解析生成結果").All()
	require.Len(t, warn, 1)
	assert.Equal(t, zap.WarnLevel, warn[0].Level)
	assert.EqualValues(t, len(raw), warn[0].ContextMap()["raw_length"])

	debug := logs.FilterMessage("無法解析的生成原文").All()
	require.Len(t, debug, 1)
	assert.Equal(t, raw, debug[0].ContextMap()["raw_output"])
}

func TestRecommend_GenerationErrorFallsBack(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"raw upstream error", errors.New("upstream 500")},
		{"classified error with 429 in body", common.ErrGenerationFailed.Wrap(errors.New(
			`OpenRouter API returned 502: {"error":{"metadata":{"provider_request_id":"gen-1742981429"}}}`))},
		{"classified error with quota word", common.ErrGenerationFailed.Wrap(errors.New("max context 4290 tokens, rate limit docs"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &scriptedGenerator{ideation: "하얀 튤립", composeErr: tt.err}
			a := newTestAssembler(testCatalog(), gen, config.StrategyTwoStage)

			result := a.Recommend(context.Background(), "사과", nil)
			assert.NotEqual(t, QuotaResult().Title, result.Title)
			assertFallbackResult(t, result, "store-a")
		})
	}
}

func TestRecommend_UnresolvedNamesUseFirstCandidates(t *testing.T) {
	gen := &scriptedGenerator{
		ideation: "하얀 튤립, 안개꽃, 노란 프리지아, 빨간 장미",
		compose: `{"title": "t", "color_theme": "c", "letter": "고마워요.",
			"flowers": [{"role": "main", "name": "해바라기", "reason": "x"}], "care_guide": ["a"]}`,
	}
	a := newTestAssembler(testCatalog(), gen, config.StrategyTwoStage)
	result := a.Recommend(context.Background(), "감사", nil)

	// 候選依比對順序：하얀 튤립, 안개꽃, 노란 프리지아
	require.Len(t, result.Flowers, 3)
	assert.Equal(t, "하얀 튤립", result.Flowers[0].Name)
	assert.Equal(t, common.RoleMain, result.Flowers[0].Role)
	assert.Equal(t, common.RoleFiller, result.Flowers[2].Role)
	require.Len(t, result.AvailableStores, 1)
	assert.Equal(t, "store-a", result.AvailableStores[0].StoreID)
}

func TestRecommend_NoEligibleStoreFallsBack(t *testing.T) {
	gen := &scriptedGenerator{
		ideation: "하얀 튤립, 빨간 장미",
		compose: `{"title": "t", "color_theme": "c", "letter": "고마워요.",
			"flowers": [{"role": "main", "name": "하얀 튤립", "reason": "x"}, {"role": "sub", "name": "빨간 장미", "reason": "y"}],
			"care_guide": ["a"]}`,
	}
	a := newTestAssembler(testCatalog(), gen, config.StrategyTwoStage)

	// 튤립은 A, 장미는 B에만 있어 둘 다 가진 매장이 없다
	assertFallbackResult(t, a.Recommend(context.Background(), "기념일", nil), "store-a")
}

func TestRecommend_EmptyCatalogIsNoInventory(t *testing.T) {
	gen := &scriptedGenerator{ideation: "하얀 튤립"}
	a := newTestAssembler(inventory.Catalog{}, gen, config.StrategyTwoStage)

	assert.Equal(t, NoInventoryResult(), a.Recommend(context.Background(), "사과", nil))
	assert.Equal(t, []string{"ideation"}, gen.calls)
}

func TestRecommend_GenerationDisabledUsesFallback(t *testing.T) {
	a := newTestAssembler(testCatalog(), nil, config.StrategyTwoStage)
	assertFallbackResult(t, a.Recommend(context.Background(), "사과", nil), "store-a")
}

func TestRecommend_SingleCall(t *testing.T) {
	gen := &scriptedGenerator{
		compose: `{store_id: "store-a", title: "새 출발", color_theme: "노랑", letter: "함께 걸어요.",
			flowers: [{role: "main", name: "프리지아", reason: "시작"}, {role: "sub", name: "안개꽃", reason: "마음"},],
			care_guide: ["물을 자주 갈아주세요."]}`,
	}
	opts := testOptions(config.StrategySingleCall)
	opts.MinStoreVariety = 2
	a := NewAssembler(inventory.NewMemoryGateway(testCatalog()), gen, NewRandom(1), opts)

	result := a.Recommend(context.Background(), "새로운 시작을 응원", nil)

	assert.Equal(t, []string{"single_call"}, gen.calls)
	listing, _ := gen.vars[0]["stores"].(string)
	assert.Contains(t, listing, "[store_id: store-a]")
	assert.Contains(t, listing, "[store_id: store-b]")

	require.Len(t, result.Flowers, 2)
	assert.Equal(t, "노란 프리지아", result.Flowers[0].Name)
	assert.Equal(t, "안개꽃", result.Flowers[1].Name)
	require.Len(t, result.AvailableStores, 1)
	assert.Equal(t, "store-a", result.AvailableStores[0].StoreID)
	assert.Equal(t, "함께 걸어요.", result.Letter)
}

func TestRecommend_SingleCallUnknownStoreFallsBack(t *testing.T) {
	gen := &scriptedGenerator{
		compose: `{"store_id": "store-zzz", "title": "t", "color_theme": "c", "letter": "l",
			"flowers": [{"role": "main", "name": "안개꽃", "reason": "r"}], "care_guide": ["a"]}`,
	}
	opts := testOptions(config.StrategySingleCall)
	opts.MinStoreVariety = 2
	a := NewAssembler(inventory.NewMemoryGateway(testCatalog()), gen, NewRandom(1), opts)

	assertFallbackResult(t, a.Recommend(context.Background(), "사과", nil), "store-a")
	assert.Equal(t, []string{"single_call"}, gen.calls)
}

func TestRecommend_SingleCallVarietyThreshold(t *testing.T) {
	gen := &scriptedGenerator{}
	// 預設門檻為 3，只有 store-a 符合
	a := newTestAssembler(testCatalog(), gen, config.StrategySingleCall)
	a.Recommend(context.Background(), "사과", nil)

	require.Len(t, gen.vars, 1)
	listing, _ := gen.vars[0]["stores"].(string)
	assert.Contains(t, listing, "store-a")
	assert.NotContains(t, listing, "store-b")
}

func TestRecommend_SeedCatalogLetterNeverNamesFlowers(t *testing.T) {
	catalog := inventory.SeedCatalog()
	names := make([]string, 0, len(catalog.Flowers))
	for _, f := range catalog.Flowers {
		names = append(names, f.Name)
	}

	letters := []string{
		"장미처럼 붉은 마음을 전해요.",
		"이 꽃의 꽃말처럼 용서해줘.",
		"안개꽃 같은 너에게.",
		"정말 미안해. 다시 시작하고 싶어.",
	}
	for _, letter := range letters {
		gen := &scriptedGenerator{
			ideation: strings.Join(names, ", "),
			compose: `{"title": "t", "color_theme": "c", "letter": "` + letter + `",
				"flowers": [{"role": "main", "name": "하얀 튤립", "reason": "용서"}], "care_guide": ["a"]}`,
		}
		a := NewAssembler(inventory.NewMemoryGateway(catalog), gen, NewRandom(7), testOptions(config.StrategyTwoStage))
		result := a.Recommend(context.Background(), "sorry for an old argument", nil)

		for _, name := range names {
			assert.NotContains(t, result.Letter, name)
		}
		assert.NotContains(t, result.Letter, "꽃말")
	}
}

func assertFallbackResult(t *testing.T, result common.BouquetRecipeResult, storeID string) {
	t.Helper()
	require.NoError(t, ValidateResult(result))
	require.Len(t, result.AvailableStores, 1)
	assert.Equal(t, storeID, result.AvailableStores[0].StoreID)
	assert.Contains(t, letterPool, result.Letter)
	assert.Equal(t, fallbackCareGuide, result.CareGuide)
	assert.NotEmpty(t, result.Flowers)
	assert.LessOrEqual(t, len(result.Flowers), 3)
}
