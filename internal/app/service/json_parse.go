package service

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var codeFence = regexp.MustCompile("(?m)^```[a-zA-Z]*\\n|\\n```$")

// parseItemsLoose 모델 응답에서 객체 배열을 최대한 복구
// 순서: 엄격 파싱 → 코드블록 제거 → 첫 [...] 블록 → {items|data|results} 객체 → 잘린 배열의 완결 객체
func parseItemsLoose(text string) []map[string]interface{} {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if items := parseArray(text); len(items) > 0 {
		return items
	}

	cleaned := strings.TrimSpace(codeFence.ReplaceAllString(text, "\n"))
	if items := parseArray(cleaned); len(items) > 0 {
		return items
	}

	if start, end := strings.Index(cleaned, "["), strings.LastIndex(cleaned, "]"); start != -1 && end > start {
		if items := parseArray(cleaned[start : end+1]); len(items) > 0 {
			return items
		}
	}

	if items := parseWrapped(cleaned); len(items) > 0 {
		return items
	}
	if start, end := strings.Index(cleaned, "{"), strings.LastIndex(cleaned, "}"); start != -1 && end > start {
		if items := parseWrapped(cleaned[start : end+1]); len(items) > 0 {
			return items
		}
	}

	return salvageItems(cleaned)
}

func parseArray(text string) []map[string]interface{} {
	var raw []interface{}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil
	}
	return objectsOf(raw)
}

func parseWrapped(text string) []map[string]interface{} {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return nil
	}
	for _, key := range []string{"items", "data", "results"} {
		if list, ok := obj[key].([]interface{}); ok && len(list) > 0 {
			return objectsOf(list)
		}
	}
	return nil
}

func objectsOf(list []interface{}) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(list))
	for _, v := range list {
		if m, ok := v.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

// salvageItems 잘린 응답에서 닫힌 객체만 골라낸다 (문자열 안의 괄호는 무시)
func salvageItems(text string) []map[string]interface{} {
	arrStart := -1
	if idx := strings.Index(text, `"items"`); idx != -1 {
		if rel := strings.Index(text[idx:], "["); rel != -1 {
			arrStart = idx + rel
		}
	} else {
		arrStart = strings.Index(text, "[")
	}
	if arrStart == -1 {
		return nil
	}

	var (
		out      []map[string]interface{}
		depth    int
		start    = -1
		inString bool
		escaped  bool
	)
	for i := arrStart + 1; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start != -1 {
				var obj map[string]interface{}
				if err := json.Unmarshal([]byte(text[start:i+1]), &obj); err == nil {
					out = append(out, obj)
				}
				start = -1
			}
		case ']':
			if depth == 0 {
				return out
			}
		}
	}
	return out
}

// stringField null/숫자도 문자열로 변환
func stringField(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
