package service

import (
	"fmt"
	"strings"

	"github.com/ikkim/coupang-partners-backend/internal/app/prompt"
)

const (
	adTitlePrefix = "[광고/제휴]"
	minCTALinks   = 2
	partnerTag    = "쿠팡파트너스"
)

// CTA 앵커 문구 (배치 순서대로 사용)
var ctaAnchors = []string{"자세히 보기", "상세 스펙·최저가 확인", "오늘 가격/재고 확인"}

// formatDraftBody 제목 광고 표기, 둘째 줄 고지 문구, CTA 링크 2개 이상 보장
func formatDraftBody(text, affiliateURL string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return text
	}

	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}

	first := strings.TrimSpace(lines[0])
	if !strings.HasPrefix(first, "# ") {
		lines = insertLines(lines, 0, "# "+adTitlePrefix+" 제목")
	} else if title := strings.TrimSpace(first[2:]); !strings.HasPrefix(title, adTitlePrefix) {
		lines[0] = "# " + adTitlePrefix + " " + title
	}

	if len(lines) < 2 || !strings.Contains(lines[1], prompt.Disclosure) {
		lines = insertLines(lines, 1, prompt.Disclosure)
	}

	if affiliateURL == "" {
		return strings.Join(lines, "\n")
	}

	var missing []string
	present := 0
	body := strings.Join(lines, "\n")
	for _, anchor := range ctaAnchors {
		link := fmt.Sprintf("[%s](%s)", anchor, affiliateURL)
		if strings.Contains(body, link) {
			present++
		} else {
			missing = append(missing, link)
		}
	}
	needed := minCTALinks - present
	if needed <= 0 {
		return body
	}

	// 1) 서두 첫 문단 뒤
	introEnd := paragraphEnd(lines, 2)
	lines = insertLines(lines, introEnd, "", missing[0])
	needed--

	// 2) 첫 표 아래, 없으면 두 번째 H2 앞, 그것도 없으면 글 끝
	if needed > 0 {
		at := len(lines)
		if end := tableEnd(lines, introEnd+2); end != -1 {
			at = end
		} else if h2 := nthHeading(lines, "## ", 2); h2 != -1 && h2 > introEnd {
			at = h2
		}
		if at < len(lines) && strings.HasPrefix(lines[at], "## ") {
			lines = insertLines(lines, at, missing[1], "")
		} else {
			lines = insertLines(lines, at, "", missing[1])
		}
	}

	return strings.Join(lines, "\n")
}

func insertLines(lines []string, at int, add ...string) []string {
	if at > len(lines) {
		at = len(lines)
	}
	out := make([]string, 0, len(lines)+len(add))
	out = append(out, lines[:at]...)
	out = append(out, add...)
	return append(out, lines[at:]...)
}

// paragraphEnd from 이후 첫 문단이 끝나는 줄 (빈 줄 위치)
func paragraphEnd(lines []string, from int) int {
	i := from
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
		i++
	}
	return i
}

// tableEnd from 이후 첫 마크다운 표 바로 다음 줄, 표가 없으면 -1
func tableEnd(lines []string, from int) int {
	inTable := false
	for i := from; i < len(lines); i++ {
		isRow := strings.HasPrefix(strings.TrimSpace(lines[i]), "|")
		switch {
		case isRow:
			inTable = true
		case inTable:
			return i
		}
	}
	if inTable {
		return len(lines)
	}
	return -1
}

func nthHeading(lines []string, prefix string, n int) int {
	seen := 0
	for i, l := range lines {
		if strings.HasPrefix(l, prefix) {
			seen++
			if seen == n {
				return i
			}
		}
	}
	return -1
}

// appendAffiliateHTML 제휴 위젯 HTML 이 본문에 없으면 끝에 붙인다
func appendAffiliateHTML(body, html string) string {
	html = strings.TrimSpace(html)
	if html == "" || strings.Contains(body, html) {
		return body
	}
	return strings.TrimRight(body, "\n") + "\n\n" + html + "\n"
}

// extractTitle 첫 "# " 줄, 없으면 키워드 리뷰 제목
func extractTitle(body, keyword string) string {
	for _, l := range strings.Split(body, "\n") {
		if t := strings.TrimSpace(l); strings.HasPrefix(t, "# ") {
			return strings.TrimSpace(strings.ReplaceAll(t, "#", ""))
		}
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s 리뷰", adTitlePrefix, keyword))
}

// draftTags 키워드(공백 제거) + 파트너스 태그
func draftTags(keyword string) []string {
	var tags []string
	if k := strings.Join(strings.Fields(keyword), ""); k != "" {
		tags = append(tags, k)
	}
	return append(tags, partnerTag)
}
