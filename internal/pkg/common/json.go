package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// ParseJSON 解析 JSON 字符串到結構體
func ParseJSON(data string, v interface{}) error {
	return decodeJSON(strings.NewReader(data), v)
}

// ParseJSONBytes 解析 JSON 位元組切片到結構體
func ParseJSONBytes(data []byte, v interface{}) error {
	return decodeJSON(bytes.NewReader(data), v)
}

func decodeJSON(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := dec.Decode(v); err != nil {
		return err
	}

	// 確保沒有多餘資料
	for {
		t, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		// 若讀到額外 token，視為錯誤
		if t != nil {
			return fmt.Errorf("unexpected extra JSON data")
		}
	}
}

var (
	codeFencePattern   = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*\\s*(.*?)\\s*```")
	unquotedKeyPattern = regexp.MustCompile(`([{\[,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	trailingCommaRe    = regexp.MustCompile(`,\s*([}\]])`)
)

// StripCodeFence 去除模型回應中的 Markdown 代碼區塊標記
func StripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if m := codeFencePattern.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	// 只有開頭或結尾的半截 fence
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ExtractJSONObject 取出第一個 { 到最後一個 } 之間的內容
func ExtractJSONObject(raw string) (string, bool) {
	s := StripCodeFence(raw)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return s[start : end+1], true
}

// QuoteJSONKeys 將未加雙引號的鍵補上雙引號
func QuoteJSONKeys(raw string) string {
	return unquotedKeyPattern.ReplaceAllString(raw, `$1"$2":`)
}

// ParseLooseObject 把模型輸出解析為鬆散的 map，失敗時返回錯誤
func ParseLooseObject(raw string) (map[string]interface{}, error) {
	body, ok := ExtractJSONObject(raw)
	if !ok {
		return nil, fmt.Errorf("no JSON object in generated text")
	}

	var obj map[string]interface{}
	if err := ParseJSON(body, &obj); err == nil {
		return obj, nil
	}

	// 修補常見格式問題後再試一次
	repaired := trailingCommaRe.ReplaceAllString(QuoteJSONKeys(body), "$1")
	if err := ParseJSON(repaired, &obj); err != nil {
		return nil, fmt.Errorf("failed to parse generated JSON: %w", err)
	}
	return obj, nil
}

// SplitNameList 切分以逗號或換行分隔的名稱清單
func SplitNameList(raw string) []string {
	raw = StripCodeFence(raw)
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n' || r == '、' || r == '，'
	})

	seen := make(map[string]struct{}, len(fields))
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		// 去掉括號中的說明，例如 "하얀 튤립 (White Tulip)"
		if i := strings.IndexAny(f, "(（"); i >= 0 {
			f = f[:i]
		}
		name := strings.Trim(strings.TrimSpace(f), `"'.-*·`)
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}
