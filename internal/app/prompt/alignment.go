package prompt

import (
	"fmt"
	"strings"
)

// 정합성 분석 결과 필드
const (
	FieldEnforceName      = "enforce_product_name"
	FieldCategory         = "category"
	FieldDisallowedBrands = "disallowed_brands"
	FieldLinkAnchors      = "link_anchors"
)

// AlignmentFields 분석 응답에서 템플릿 입력으로 옮기는 키
var AlignmentFields = []string{
	FieldEnforceName,
	FieldAllowedNames,
	FieldCategory,
	FieldSpecKeys,
	FieldDisallowedBrands,
	FieldLinkAnchors,
}

// AnalyzerSystem 상품 정합성 분석기 (JSON 객체 하나를 돌려받는다)
const AnalyzerSystem = "역할: 전자상거래 상품 정렬기. 입력(브랜드/모델 추정, 쿠팡 상세 URL, 제휴 HTML alt)을 분석해 블로그 작성 정합성을 보장하는 JSON을 생성한다.\n" +
	"출력은 반드시 JSON 객체 하나. 코드블록/설명 금지. 키:\n" +
	"- enforce_product_name: 최종 본문에 써야 할 정확 표기.\n" +
	"- allowed_names: 허용 가능한 동의 표기/별칭 배열(브랜드+모델 변주 포함).\n" +
	"- category: 상위 카테고리.\n" +
	"- spec_keys: 비교/요약에 유용한 스펙 키 배열.\n" +
	"- disallowed_brands: 언급하지 말아야 할 경쟁사 브랜드/라인업 키워드 배열.\n" +
	"- link_anchors: 링크 앵커 문구 후보 3~5개(자연어, 명령형 금지).\n"

// AnalyzerHint 분석 요청 힌트
type AnalyzerHint struct {
	Brand        string
	Model        string
	Title        string
	Keyword      string
	AffiliateURL string
	AltNames     []string
}

func AnalyzerPrompt(h AnalyzerHint) string {
	var sb strings.Builder
	sb.WriteString("입력 힌트:\n")
	fmt.Fprintf(&sb, "- 브랜드: %s\n- 모델: %s\n- 추정 상품명: %s\n- 키워드: %s\n- 제휴 링크: %s\n",
		h.Brand, h.Model, h.Title, h.Keyword, h.AffiliateURL)
	if len(h.AltNames) > 0 {
		sb.WriteString("- 제휴 이미지 표기: " + strings.Join(h.AltNames, " / ") + "\n")
	}
	sb.WriteString("\n요구사항:\n" +
		"- enforce_product_name은 가장 정확하고 자연스러운 한국어 표기. 약어나 비공식 표기는 allowed_names로.\n" +
		"- allowed_names는 브랜드+모델의 실사용 표기 4~8개.\n" +
		"- category는 3~5어절.\n" +
		"- spec_keys는 이 카테고리에서 전형적으로 비교하는 항목 6~10개.\n" +
		"- disallowed_brands는 동급 경쟁사 메이저 라인업 이름 5~8개. 본문에서 제거해야 함.\n" +
		"- link_anchors는 과한 상업어구 없이 자연스러운 정보 탐색형 문구.\n")
	return sb.String()
}

// RewritePrompt 제품명 정합성이 어긋난 초안을 한 번 더 고쳐 쓰게 하는 요청
func RewritePrompt(draft, enforceName string, allowed, disallowed []string) string {
	var sb strings.Builder
	sb.WriteString("다음 글을 제약에 맞게 자연스럽게 재작성하세요.\n")
	if enforceName != "" {
		sb.WriteString("반드시 '" + enforceName + "' 제품명을 사용하고, 목록 외 다른 모델명은 언급하지 말 것.\n")
	}
	if len(allowed) > 0 {
		sb.WriteString("허용된 모델명: " + strings.Join(allowed, ", ") + ". 이 외 모델/브랜드는 삭제.\n")
	}
	if len(disallowed) > 0 {
		sb.WriteString("금지 키워드(브랜드/모델): " + strings.Join(disallowed, ", ") + ". 본문에서 제거.\n")
	}
	sb.WriteString("링크 위치(서두/표 아래/결론부)는 유지. 문장 길이 다양화, 동의어 치환으로 더 사람스럽게.\n\n")
	sb.WriteString(draft)
	return sb.String()
}
