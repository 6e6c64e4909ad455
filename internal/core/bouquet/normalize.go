package bouquet

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"bouquet-recommender/internal/pkg/common"
)

// 欄位缺漏時的預設值
const (
	DefaultTitle      = "마음을 담은 꽃다발"
	DefaultColorTheme = "자연스러운 파스텔 톤"
	DefaultLetter     = "전하고 싶은 마음을 정성껏 담았어요. 오늘 하루도 당신에게 따뜻한 순간이 가득하길 바라요."
	DefaultRole       = "recommended"
	DefaultName       = "unnamed flower"
	DefaultReason     = "no reason given"
)

// DefaultCareGuide 通用的照顧方式
var DefaultCareGuide = []string{
	"줄기 끝을 사선으로 잘라 물올림을 해주세요.",
	"화병의 물은 매일 깨끗한 물로 갈아주세요.",
	"직사광선과 에어컨 바람이 닿지 않는 서늘한 곳에 두세요.",
}

// Normalize 把未經驗證的生成結果轉成完整的輸出契約，永不失敗
func Normalize(raw any) common.BouquetRecipeResult {
	obj := toObject(raw)

	result := common.BouquetRecipeResult{
		Title:           stringOr(obj["title"], DefaultTitle),
		ColorTheme:      stringOr(obj["color_theme"], DefaultColorTheme),
		Flowers:         normalizeFlowers(obj["flowers"]),
		Letter:          stringOr(obj["letter"], DefaultLetter),
		CareGuide:       normalizeCareGuide(obj["care_guide"]),
		AvailableStores: normalizeStores(obj["available_stores"]),
	}
	return result
}

// toObject 把各種輸入轉為 map，無法轉換時返回空 map
func toObject(raw any) map[string]interface{} {
	switch v := raw.(type) {
	case nil:
		return map[string]interface{}{}
	case string:
		obj, err := common.ParseLooseObject(v)
		if err != nil {
			return map[string]interface{}{}
		}
		return obj
	case []byte:
		return toObject(string(v))
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return map[string]interface{}{}
		}
		var obj map[string]interface{}
		if err := common.ParseJSONBytes(data, &obj); err != nil || obj == nil {
			return map[string]interface{}{}
		}
		return obj
	}
}

// asString 把純量轉為字串
func asString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s), true
	case json.Number:
		return s.String(), true
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case int:
		return strconv.Itoa(s), true
	case int64:
		return strconv.FormatInt(s, 10), true
	case bool:
		return strconv.FormatBool(s), true
	default:
		return "", false
	}
}

func stringOr(v interface{}, def string) string {
	if s, ok := asString(v); ok && s != "" {
		return s
	}
	return def
}

// asInt64 把數字或數字字串轉為整數
func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return int64(math.Round(f)), true
		}
	case float64:
		return int64(math.Round(n)), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case string:
		cleaned := strings.NewReplacer(",", "", "원", "", " ", "").Replace(n)
		if i, err := strconv.ParseInt(cleaned, 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

func normalizeFlowers(v interface{}) []common.RecommendedFlower {
	flowers := make([]common.RecommendedFlower, 0)
	items, ok := v.([]interface{})
	if !ok {
		return flowers
	}
	for _, item := range items {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		flowers = append(flowers, common.RecommendedFlower{
			Role:   stringOr(entry["role"], DefaultRole),
			Name:   stringOr(entry["name"], DefaultName),
			Reason: stringOr(entry["reason"], DefaultReason),
		})
	}
	return flowers
}

func normalizeCareGuide(v interface{}) []string {
	var guide []string
	switch g := v.(type) {
	case string:
		if s := strings.TrimSpace(g); s != "" {
			guide = []string{s}
		}
	case []interface{}:
		for _, item := range g {
			if s, ok := asString(item); ok && s != "" {
				guide = append(guide, s)
			}
		}
	}
	if len(guide) == 0 {
		return append([]string(nil), DefaultCareGuide...)
	}
	return guide
}

func normalizeStores(v interface{}) []common.AvailableStore {
	stores := make([]common.AvailableStore, 0)
	items, ok := v.([]interface{})
	if !ok {
		return stores
	}
	for _, item := range items {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		id, ok := asString(entry["store_id"])
		if !ok || id == "" {
			continue
		}
		store := common.AvailableStore{
			StoreID: id,
			Name:    stringOr(entry["name"], ""),
			Address: stringOr(entry["address"], ""),
		}
		if pid, ok := asString(entry["product_id"]); ok && pid != "" {
			store.ProductID = pid
		}
		if price, ok := asInt64(entry["product_price"]); ok {
			store.ProductPrice = &price
		}
		stores = append(stores, store)
	}
	return stores
}

// describe 供日誌使用的結果摘要
func describe(r common.BouquetRecipeResult) string {
	return fmt.Sprintf("%s (%d flowers, %d stores)", r.Title, len(r.Flowers), len(r.AvailableStores))
}
