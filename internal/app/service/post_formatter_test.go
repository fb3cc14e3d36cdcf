package service

import (
	"strings"
	"testing"

	"github.com/ikkim/coupang-partners-backend/internal/app/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAffiliateURL = "https://link.coupang.com/a/abc"

func TestFormatDraftBody(t *testing.T) {
	raw := strings.Join([]string{
		"# 무선청소기 추천",
		"",
		"요약 문단입니다.",
		"",
		"## 써보니 좋았던 점",
		"본문",
		"",
		"| 모델 | 용량 |",
		"|---|---|",
		"| A9 | 1L |",
		"",
		"## 결론",
		"끝",
	}, "\n")

	out := formatDraftBody(raw, testAffiliateURL)
	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Equal(t, "# [광고/제휴] 무선청소기 추천", lines[0])
	assert.Equal(t, prompt.Disclosure, lines[1])

	first := strings.Index(out, "[자세히 보기]("+testAffiliateURL+")")
	second := strings.Index(out, "[상세 스펙·최저가 확인]("+testAffiliateURL+")")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)

	assert.Less(t, strings.Index(out, "요약 문단입니다."), first)
	assert.Less(t, first, strings.Index(out, "## 써보니 좋았던 점"))
	assert.Less(t, strings.Index(out, "| A9 | 1L |"), second)
	assert.Less(t, second, strings.Index(out, "## 결론"))

	// 이미 정리된 글은 그대로
	assert.Equal(t, out, formatDraftBody(out, testAffiliateURL))
}

func TestFormatDraftBody_MissingTitleAndStructure(t *testing.T) {
	out := formatDraftBody("그냥 본문만 있습니다.", testAffiliateURL)
	lines := strings.Split(out, "\n")

	assert.Equal(t, "# [광고/제휴] 제목", lines[0])
	assert.Equal(t, prompt.Disclosure, lines[1])
	assert.Equal(t, "[상세 스펙·최저가 확인]("+testAffiliateURL+")", lines[len(lines)-1])
	assert.Equal(t, 1, strings.Count(out, "[자세히 보기]("))
}

func TestFormatDraftBody_KeepsExistingCTA(t *testing.T) {
	raw := "# [광고/제휴] 제목\n" + prompt.Disclosure + "\n\n서두\n\n[오늘 가격/재고 확인](" + testAffiliateURL + ")\n\n결론"
	out := formatDraftBody(raw, testAffiliateURL)

	assert.Equal(t, 1, strings.Count(out, "[오늘 가격/재고 확인]("))
	assert.Equal(t, 1, strings.Count(out, "[자세히 보기]("))
	assert.NotContains(t, out, "[상세 스펙·최저가 확인](")
	assert.Equal(t, 1, strings.Count(out, prompt.Disclosure))
}

func TestFormatDraftBody_Empty(t *testing.T) {
	assert.Equal(t, "  ", formatDraftBody("  ", testAffiliateURL))
}

func TestAppendAffiliateHTML(t *testing.T) {
	html := `<iframe src="https://coupa.ng/abc"></iframe>`
	out := appendAffiliateHTML("본문\n", html)
	assert.Equal(t, "본문\n\n"+html+"\n", out)
	assert.Equal(t, out, appendAffiliateHTML(out, html))
	assert.Equal(t, "본문", appendAffiliateHTML("본문", " "))
}

func TestExtractTitleAndTags(t *testing.T) {
	assert.Equal(t, "[광고/제휴] 좋은 청소기", extractTitle("# [광고/제휴] 좋은 청소기\n본문", "청소기"))
	assert.Equal(t, "[광고/제휴] 무선 청소기 리뷰", extractTitle("본문", "무선 청소기"))
	assert.Equal(t, []string{"무선청소기", "쿠팡파트너스"}, draftTags(" 무선 청소기 "))
	assert.Equal(t, []string{"쿠팡파트너스"}, draftTags(""))
}
