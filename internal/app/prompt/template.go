package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ikkim/coupang-partners-backend/internal/app/model"
)

var (
	ErrUnknownTemplate = errors.New("unknown template type")
	ErrMissingField    = errors.New("required template field missing")
)

// FieldError 템플릿 필드 검증 실패
type FieldError struct {
	Template model.TemplateType
	Field    string
	Reason   string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("template %s: field %q %s", e.Template, e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrMissingField }

// Template 템플릿 유형별 프롬프트 빌더
type Template interface {
	Type() model.TemplateType
	Label() string
	// RequiredFields 병합된 입력에 반드시 있어야 하는 필드
	RequiredFields() []string
	Validate(in Input) error
	Build(in Input) string
}

// base 공통 검증/출력 꼬리
type base struct {
	typ      model.TemplateType
	label    string
	required []string
	minItems int
}

func (b base) Type() model.TemplateType { return b.typ }
func (b base) Label() string            { return b.label }
func (b base) RequiredFields() []string { return b.required }

func (b base) Validate(in Input) error {
	for _, f := range b.required {
		if !in.has(f) {
			return &FieldError{Template: b.typ, Field: f, Reason: "is required"}
		}
	}
	if b.minItems > 0 {
		if n := len(in.List(FieldItems)); n < b.minItems {
			return &FieldError{Template: b.typ, Field: FieldItems, Reason: fmt.Sprintf("needs at least %d entries, got %d", b.minItems, n)}
		}
	}
	return nil
}

// header 카테고리 줄 + 링크 플레이스홀더
func header(sb *strings.Builder, category string, lines ...string) {
	sb.WriteString("카테고리: " + category + "\n")
	for _, l := range lines {
		sb.WriteString(l + "\n")
	}
}

// enrichment 스펙 축/비교표/참고 링크/허용 모델명
func enrichment(sb *strings.Builder, in Input, specAxisLabel, tableLabel string) {
	if keys := in.List(FieldSpecKeys); len(keys) > 0 {
		sb.WriteString(specAxisLabel + ": " + strings.Join(keys, ", ") + "\n")
	}
	if table := in.String(FieldSpecTable, ""); table != "" {
		sb.WriteString("\n" + tableLabel + "(spec_table_md):\n" + strings.TrimRight(table, "\n") + "\n")
	}
	if sources := in.List(FieldSources); len(sources) > 0 {
		sb.WriteString("\n참고 링크(sources):\n- " + strings.Join(sources, "\n- ") + "\n")
	}
	if names := in.List(FieldAllowedNames); len(names) > 0 {
		sb.WriteString("허용된 모델명: " + strings.Join(names, ", ") + ". 이 외 모델/브랜드는 언급하지 말 것.\n")
	}
	if name := in.String(FieldEnforceName, ""); name != "" {
		sb.WriteString("본문 제품명 표기: '" + name + "' 로 통일.\n")
	}
	if banned := in.List(FieldDisallowedBrands); len(banned) > 0 {
		sb.WriteString("언급 금지: " + strings.Join(banned, ", ") + "\n")
	}
	if anchors := in.List(FieldLinkAnchors); len(anchors) > 0 {
		sb.WriteString("링크 앵커 후보: " + strings.Join(anchors, " / ") + "\n")
	}
}

var registry = map[model.TemplateType]Template{}

func register(t Template) {
	registry[t.Type()] = t
}

// Lookup 템플릿 유형으로 빌더 조회 (소문자 허용)
func Lookup(t model.TemplateType) (Template, error) {
	tpl, ok := registry[model.TemplateType(strings.ToUpper(string(t)))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, t)
	}
	return tpl, nil
}

// Compose 검증 후 사용자 프롬프트 생성
func Compose(t model.TemplateType, in Input) (string, error) {
	tpl, err := Lookup(t)
	if err != nil {
		return "", err
	}
	if err := tpl.Validate(in); err != nil {
		return "", err
	}
	return tpl.Build(in), nil
}
