package bouquet

import (
	"strings"
	"unicode/utf8"
)

// metaPhrases 說明式語氣，信件中不允許出現
var metaPhrases = []string{"꽃말", "이 꽃의"}

// forbiddenTerms 由花名產生信件中不能出現的詞：完整名稱與最後一個詞
func forbiddenTerms(names []string) []string {
	seen := make(map[string]struct{})
	var terms []string
	add := func(term string) {
		term = strings.TrimSpace(term)
		if utf8.RuneCountInString(term) < 2 {
			return
		}
		if _, dup := seen[term]; dup {
			return
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}

	for _, name := range names {
		add(name)
		if fields := strings.Fields(name); len(fields) > 1 {
			add(fields[len(fields)-1])
		}
	}
	return terms
}

// LetterViolation 返回信件中第一個違規的詞，沒有違規時返回空字串
func LetterViolation(letter string, flowerNames []string) string {
	for _, term := range forbiddenTerms(flowerNames) {
		if strings.Contains(letter, term) {
			return term
		}
	}
	for _, phrase := range metaPhrases {
		if strings.Contains(letter, phrase) {
			return phrase
		}
	}
	return ""
}
