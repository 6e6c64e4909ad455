package inventory

import "sort"

// EligibleStores 返回對每一種必要花卉都有可用總量 > 0 的店家，依 ID 排序
func EligibleStores(totals []StockTotal, required []string) []string {
	if len(required) == 0 {
		return nil
	}

	need := make(map[string]struct{}, len(required))
	for _, id := range required {
		need[id] = struct{}{}
	}

	sums := make(map[string]map[string]int)
	for _, t := range totals {
		if _, ok := need[t.FlowerID]; !ok {
			continue
		}
		if sums[t.StoreID] == nil {
			sums[t.StoreID] = make(map[string]int)
		}
		sums[t.StoreID][t.FlowerID] += t.Quantity
	}

	var stores []string
	for storeID, perFlower := range sums {
		covered := true
		for id := range need {
			if perFlower[id] <= 0 {
				covered = false
				break
			}
		}
		if covered {
			stores = append(stores, storeID)
		}
	}
	sort.Strings(stores)
	return stores
}
