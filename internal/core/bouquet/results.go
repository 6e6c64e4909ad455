package bouquet

import (
	"strings"

	"bouquet-recommender/internal/pkg/common"
)

// letterPool 備援推薦使用的通用信件，不提及任何花名
var letterPool = []string{
	"말로 다 전하지 못했던 마음을 조심스럽게 건네요. 당신이 있어 제 하루가 더 따뜻해졌어요. 늘 고마워요.",
	"서툴렀던 지난날을 돌아보며, 다시 한 번 진심을 전하고 싶어요. 우리의 새로운 시작을 함께 응원해요.",
	"당신의 모든 날이 오늘처럼 환하게 빛나길 바라요. 언제나 곁에서 응원하고 있을게요.",
	"바쁜 하루 속에서도 당신을 떠올리면 미소가 지어져요. 이 작은 선물이 잠시 쉬어가는 순간이 되길 바라요.",
	"시간이 흘러도 변하지 않는 마음으로 당신을 아끼고 있어요. 앞으로도 함께 웃는 날이 가득하길.",
}

// fallbackCareGuide 備援推薦使用的固定照顧方式
var fallbackCareGuide = []string{
	"줄기 끝을 사선으로 1~2cm 잘라 물을 잘 흡수하도록 해주세요.",
	"화병의 물은 하루에 한 번 깨끗한 물로 갈아주세요.",
	"직사광선과 과일 근처를 피해 서늘한 곳에 두면 더 오래 볼 수 있어요.",
}

// QuotaResult 生成服務額度用盡時的終止結果
func QuotaResult() common.BouquetRecipeResult {
	return terminalResult(
		"서비스 이용량이 많아요",
		"지금은 추천 요청이 많아 잠시 쉬어가고 있어요. 잠시 후 다시 시도해주세요.",
		"잠시 후 다시 시도해주세요.",
	)
}

// NoInventoryResult 沒有任何可用庫存時的終止結果
func NoInventoryResult() common.BouquetRecipeResult {
	return terminalResult(
		"추천 가능한 꽃이 없어요",
		"지금은 준비된 꽃이 없어 꽃다발을 추천해드리기 어려워요.",
		"재고가 입고되면 다시 찾아주세요.",
	)
}

// ErrorResult 無法完成推薦時的終止結果
func ErrorResult(message string) common.BouquetRecipeResult {
	if strings.TrimSpace(message) == "" {
		message = "추천을 완료하지 못했어요. 잠시 후 다시 시도해주세요."
	}
	return terminalResult("추천 중 문제가 발생했어요", message, "잠시 후 다시 시도해주세요.")
}

func terminalResult(title, letter, guide string) common.BouquetRecipeResult {
	return common.BouquetRecipeResult{
		Title:           title,
		ColorTheme:      "",
		Flowers:         []common.RecommendedFlower{},
		Letter:          letter,
		CareGuide:       []string{guide},
		AvailableStores: []common.AvailableStore{},
	}
}

// roleFor 依抽樣順序決定角色
func roleFor(i int) string {
	switch i {
	case 0:
		return common.RoleMain
	case 1:
		return common.RoleSub
	case 2:
		return common.RoleFiller
	default:
		return common.RoleOther
	}
}

// canonicalRole 把模型回傳的角色名稱統一為 main、sub、filler
// 無法辨識的角色依位置決定，第三朵之後一律為 filler
func canonicalRole(role string, index int) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "main", "메인", "主花":
		return common.RoleMain
	case "sub", "서브", "配花":
		return common.RoleSub
	case "filler", "소재", "filler flower", "填充":
		return common.RoleFiller
	}
	if index >= 2 {
		return common.RoleFiller
	}
	return roleFor(index)
}
