package prompt

import (
	"strings"

	"github.com/ikkim/coupang-partners-backend/internal/app/model"
)

const outputRule = "출력: 마크다운 완성 글(제목/고지/본문/해시태그).\n"

func init() {
	register(reviewTemplate{base{typ: model.TemplateReview, label: "실사용 리뷰형", required: []string{FieldProductName, FieldAffiliateURL}}})
	register(comparisonTemplate{base{typ: model.TemplateComparison, label: "비교 가이드형", required: []string{FieldAffiliateURL}, minItems: 2}})
	register(curationTemplate{base{typ: model.TemplateCuration, label: "리스트·큐레이션형", required: []string{FieldAffiliateURL}}})
	register(problemTemplate{base{typ: model.TemplateProblem, label: "문제 해결형", required: []string{FieldKeyword, FieldAffiliateURL}}})
	register(seasonalTemplate{base{typ: model.TemplateSeasonal, label: "시즌/행사 특가형", required: []string{FieldKeyword, FieldAffiliateURL}}})
}

// A: 단일 제품 실사용 리뷰
type reviewTemplate struct{ base }

func (t reviewTemplate) Build(in Input) string {
	var sb strings.Builder
	header(&sb, "실사용 리뷰형(단일 제품)",
		"제품명: "+in.String(FieldProductName, ""),
		"핵심키워드: "+in.String(FieldKeyword, ""),
		"가격대: "+in.String(FieldPriceBand, ""),
		"사용 기간/장소/활동: "+in.String("period", "2주")+", "+in.String("place", "집")+", "+in.String("activity", "일상 사용"),
		"측정 항목/수치: "+in.String("measures", "소음, 사용시간 등 체감 위주"),
		"비교 대상: "+in.String("comparisons", "동급 타사 1~2개"),
		"독자 궁금 포인트: "+in.String("reader_points", "소음/보관/가성비"),
		"사진 설명 키워드: "+in.String("photo_keywords", "사용 장면, 보관, 구성품"),
		"링크 플레이스홀더: "+in.String(FieldAffiliateURL, ""),
	)
	enrichment(&sb, in, "권장 스펙 축", "제공 표")
	sb.WriteString("제약: 제목은 '[광고/제휴] '로 시작. 서두 3~5문장, 한줄 총평 포함. 본문 섹션에 장/단점 균형과 대안 제시 포함.\n")
	sb.WriteString("출력: 마크다운 완성 글. 첫 줄 제목, 둘째 줄 광고 고지, 이후 본문과 해시태그.\n")
	return sb.String()
}

// B: 2~4개 비교 가이드
type comparisonTemplate struct{ base }

func (t comparisonTemplate) Build(in Input) string {
	var sb strings.Builder
	header(&sb, "비교 가이드형(2~4개)",
		"카테고리명: "+in.String("category", in.String(FieldKeyword, "")),
		"후보: "+strings.Join(in.List(FieldItems), " / "),
		"사용시나리오 키워드: "+in.String("scenario", "가성비/조용함/내구"),
		"링크 플레이스홀더: "+in.String(FieldAffiliateURL, ""),
	)
	enrichment(&sb, in, "권장 비교 축", "비교 표")
	sb.WriteString("제약: 표 1개(핵심지표 6~8, 제공된 spec_table_md가 있으면 그대로 사용), 시나리오별 추천, 장단점 요약, 구매 전 체크포인트.\n")
	sb.WriteString(outputRule)
	return sb.String()
}

// C: 5~9개 큐레이션
type curationTemplate struct{ base }

func (t curationTemplate) Build(in Input) string {
	items := in.List(FieldItems)
	if len(items) == 0 {
		items = []string{in.String(FieldProductName, in.String(FieldKeyword, ""))}
	}
	var sb strings.Builder
	header(&sb, "리스트·큐레이션형(5~9개)",
		"테마: "+in.String("theme", in.String(FieldKeyword, "")),
		"아이템들: "+strings.Join(items, " / "),
		"링크 플레이스홀더: "+in.String(FieldAffiliateURL, ""),
	)
	enrichment(&sb, in, "권장 스펙 축", "제공 표")
	sb.WriteString("제약: 아이템 카드 반복(적합 대상/핵심 포인트/사용 장면/주의). 마무리 선택 가이드.\n")
	sb.WriteString(outputRule)
	return sb.String()
}

// D: 문제 해결 튜토리얼 + 추천
type problemTemplate struct{ base }

func (t problemTemplate) Build(in Input) string {
	stages := "3~5단계로 제시"
	if list := in.List("stages"); len(list) > 0 {
		stages = strings.Join(list, " → ")
	}
	var sb strings.Builder
	header(&sb, "문제 해결형(튜토리얼+추천)",
		"문제/증상: "+in.String("problem", in.String(FieldKeyword, "")),
		"단계: "+stages,
		"추천 제품: "+in.String(FieldProductName, ""),
		"링크 플레이스홀더: "+in.String(FieldAffiliateURL, ""),
	)
	enrichment(&sb, in, "권장 스펙 축", "제공 표")
	sb.WriteString("제약: 단계별 성공 기준/실패 시 다음 단계, 각 단계 도구 1~2개. 안전/보증 유의 3줄.\n")
	sb.WriteString(outputRule)
	return sb.String()
}

// E: 시즌/행사 특가
type seasonalTemplate struct{ base }

func (t seasonalTemplate) Build(in Input) string {
	picks := "3개 제시"
	if list := in.List("picks"); len(list) > 0 {
		picks = strings.Join(list, " / ")
	}
	var sb strings.Builder
	header(&sb, "시즌/행사 특가형",
		"행사/시즌: "+in.String("event", in.String(FieldKeyword, "")),
		"Top Picks: "+picks,
		"대표 제품: "+in.String(FieldProductName, ""),
		"링크 플레이스홀더: "+in.String(FieldAffiliateURL, ""),
	)
	enrichment(&sb, in, "권장 스펙 축", "제공 표")
	sb.WriteString("제약: 기간/변동성/환불 체크, 카테고리별 Top Pick 3개(이유/리스크), 가격 신호 3개, 알림 유도.\n")
	sb.WriteString(outputRule)
	return sb.String()
}
