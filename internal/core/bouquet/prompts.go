package bouquet

import (
	"fmt"
	"strings"

	"bouquet-recommender/internal/core/inventory"
)

// 模板使用 {name} 佔位符，JSON 範例中的大括號需寫成 {{ }}
const ideationTemplate = `당신은 'FloMe'의 수석 플로리스트입니다.
아래 고객의 상황에 어울리는 꽃 이름을 {count}개 정도 떠올려 주세요.

[고객 상황]
{situation}

규칙:
- 꽃 이름만 쉼표(,)로 구분해서 한 줄로 답하세요.
- 설명, 번호, JSON, 마크다운은 쓰지 마세요.
- 색이 중요한 꽃은 '하얀 튤립'처럼 색을 붙여도 좋습니다.`

const compositionTemplate = `당신은 'FloMe'의 수석 플로리스트입니다.
고객의 상황을 분석하여 꽃다발 레시피를 설계하고, 고객이 전할 편지를 대신 작성해줍니다.

[사용 가능한 꽃 목록]
{inventory}

[고객 상황]
{situation}

[작업 지시사항]
1. 구성: 반드시 위 목록에 있는 꽃 이름만 그대로 사용하여 '메인(main) - 서브(sub) - 소재(filler)' 3단 구성을 만드세요.
2. 색감: 상황과 감정에 어울리는 컬러 테마를 정하세요.
3. 관리법: 선택한 꽃들의 핵심 관리법을 정확히 3가지로 정리하세요.
4. 편지:
   - 선택한 꽃들의 의미를 문장에 자연스럽게 녹여 1인칭의 진심 어린 메시지로 작성하세요.
   - 편지 본문에 꽃 이름이 절대 등장하면 안 됩니다.
   - '이 꽃의 꽃말처럼' 같은 설명조의 말투도 금지입니다.
   - 공백 포함 150자 이내로 작성하세요.

반드시 아래 JSON 형식으로만 답변하세요. (마크다운 금지, 순수 JSON만 출력)
{{
  "title": "꽃다발 이름",
  "color_theme": "컬러 테마 설명",
  "flowers": [
    {{"role": "main", "name": "꽃이름", "reason": "선택 이유"}},
    {{"role": "sub", "name": "꽃이름", "reason": "선택 이유"}},
    {{"role": "filler", "name": "꽃이름", "reason": "선택 이유"}}
  ],
  "letter": "꽃 이름 없이 의미만 담은 편지",
  "care_guide": ["관리법 1", "관리법 2", "관리법 3"]
}}`

const singleCallTemplate = `당신은 'FloMe'의 수석 플로리스트입니다.
아래는 꽃다발을 만들 수 있는 후보 매장과 각 매장이 보유한 꽃 목록입니다.

[후보 매장]
{stores}

[고객 상황]
{situation}

[작업 지시사항]
1. 고객 상황에 가장 잘 맞는 매장을 정확히 하나 고르고, 그 매장의 store_id를 그대로 적으세요.
2. 고른 매장의 목록에 있는 꽃만 사용하여 '메인(main) - 서브(sub) - 소재(filler)' 3단 구성을 만드세요.
3. 상황에 어울리는 컬러 테마와 핵심 관리법 3가지를 정리하세요.
4. 편지에는 꽃 이름을 절대 쓰지 말고, '이 꽃의 꽃말처럼' 같은 설명조도 쓰지 마세요. 꽃의 의미를 담은 1인칭 메시지로 150자 이내로 작성하세요.

반드시 아래 JSON 형식으로만 답변하세요. (마크다운 금지, 순수 JSON만 출력)
{{
  "store_id": "선택한 매장 ID",
  "title": "꽃다발 이름",
  "color_theme": "컬러 테마 설명",
  "flowers": [
    {{"role": "main", "name": "꽃이름", "reason": "선택 이유"}},
    {{"role": "sub", "name": "꽃이름", "reason": "선택 이유"}},
    {{"role": "filler", "name": "꽃이름", "reason": "선택 이유"}}
  ],
  "letter": "꽃 이름 없이 의미만 담은 편지",
  "care_guide": ["관리법 1", "관리법 2", "관리법 3"]
}}`

// inventoryListing 把候選花卉整理成提示詞中的清單
func inventoryListing(flowers []inventory.Flower) string {
	var sb strings.Builder
	for _, f := range flowers {
		sb.WriteString(flowerLine(f))
	}
	return sb.String()
}

func flowerLine(f inventory.Flower) string {
	color := f.Color
	if color == "" {
		color = "-"
	}
	care := f.CareGuide
	if care == "" {
		care = "-"
	}
	return fmt.Sprintf("- %s (색상: %s, 꽃말: %s, 관리특이사항: %s)\n", f.Name, color, f.DisplayMeaning(), care)
}

// storeListing 把候選店家與庫存整理成提示詞中的清單
func storeListing(stores []candidateStore) string {
	var sb strings.Builder
	for _, s := range stores {
		fmt.Fprintf(&sb, "[store_id: %s] %s (%s)\n", s.store.ID, s.store.Name, s.store.Address)
		for _, item := range s.items {
			sb.WriteString("  " + flowerLine(item.Flower))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
