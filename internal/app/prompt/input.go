package prompt

import (
	"fmt"
	"strings"
)

// Input 템플릿 입력 필드 맵
type Input map[string]interface{}

// 공통 필드
const (
	FieldKeyword      = "keyword"
	FieldProductName  = "product_name"
	FieldPriceBand    = "price_band"
	FieldAffiliateURL = "affiliate_url"
	FieldSpecTable    = "spec_table_md"
	FieldSources      = "sources"
	FieldSpecKeys     = "spec_keys"
	FieldItems        = "items"
	FieldAllowedNames = "allowed_names"
)

// Merge base 위에 override 를 덮어쓴 새 맵
func Merge(base Input, overrides ...Input) Input {
	out := make(Input, len(base))
	for k, v := range base {
		out[k] = v
	}
	for _, o := range overrides {
		for k, v := range o {
			out[k] = v
		}
	}
	return out
}

// String 문자열 필드, 비어 있으면 def
func (in Input) String(key, def string) string {
	v, ok := in[key]
	if !ok || v == nil {
		return def
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case []string, []interface{}:
		s = strings.Join(in.List(key), ", ")
	default:
		s = fmt.Sprint(t)
	}
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// List 목록 필드 ([]string, []interface{}, 콤마 구분 문자열 허용)
func (in Input) List(key string) []string {
	var out []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	switch t := in[key].(type) {
	case []string:
		for _, s := range t {
			add(s)
		}
	case []interface{}:
		for _, v := range t {
			if v != nil {
				add(fmt.Sprint(v))
			}
		}
	case string:
		for _, s := range strings.Split(t, ",") {
			add(s)
		}
	}
	return out
}

// has 비어 있지 않은 값 여부
func (in Input) has(key string) bool {
	if _, isList := in[key].([]interface{}); isList {
		return len(in.List(key)) > 0
	}
	if _, isList := in[key].([]string); isList {
		return len(in.List(key)) > 0
	}
	return in.String(key, "") != ""
}
