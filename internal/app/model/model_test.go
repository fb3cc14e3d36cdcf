package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPostStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from PostStatus
		to   PostStatus
		want bool
	}{
		{PostStatusDraft, PostStatusScheduled, true},
		{PostStatusDraft, PostStatusPublished, true},
		{PostStatusDraft, PostStatusDraft, false},
		{PostStatusScheduled, PostStatusPublished, true},
		{PostStatusScheduled, PostStatusScheduled, true},
		{PostStatusScheduled, PostStatusDraft, false},
		{PostStatusPublished, PostStatusDraft, false},
		{PostStatusPublished, PostStatusScheduled, false},
		{PostStatusPublished, PostStatusPublished, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestProductCandidate_IsMapped(t *testing.T) {
	assert.False(t, (&ProductCandidate{Status: ProductStatusCandidate}).IsMapped())
	assert.False(t, (&ProductCandidate{Status: ProductStatusMapped, AffiliateURL: "  "}).IsMapped())
	assert.True(t, (&ProductCandidate{Status: ProductStatusMapped, AffiliateURL: "https://link.coupang.com/a/x"}).IsMapped())
}

func TestProductCandidate_DisplayName(t *testing.T) {
	assert.Equal(t, "다이슨 V12", (&ProductCandidate{Brand: "다이슨", Model: "V12", TitleGuess: "무선청소기"}).DisplayName())
	assert.Equal(t, "무선청소기", (&ProductCandidate{TitleGuess: " 무선청소기 "}).DisplayName())
}

func TestPost_FillProductIDs(t *testing.T) {
	post := &Post{Products: []PostProduct{
		{PostID: 1, ProductID: 30, Position: 2},
		{PostID: 1, ProductID: 10, Position: 0},
		{PostID: 1, ProductID: 20, Position: 1},
	}}
	post.FillProductIDs()
	assert.Equal(t, []uint{10, 20, 30}, post.ProductIDs)
}

func TestBudgetLedgerEntry_Remaining(t *testing.T) {
	e := &BudgetLedgerEntry{Cap: 5, USDSpent: 4.5, ReservedUSD: 0.25}
	assert.InDelta(t, 0.25, e.Remaining(), 1e-9)

	e.ReservedUSD = 1
	assert.Equal(t, float64(0), e.Remaining())
}

func TestNaverToken_Valid(t *testing.T) {
	now := time.Date(2025, 10, 7, 9, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	var nilToken *NaverToken
	assert.False(t, nilToken.Valid(now))
	assert.False(t, (&NaverToken{}).Valid(now))
	assert.True(t, (&NaverToken{AccessToken: "t"}).Valid(now))
	assert.True(t, (&NaverToken{AccessToken: "t", ExpiresAt: &future}).Valid(now))
	assert.False(t, (&NaverToken{AccessToken: "t", ExpiresAt: &past}).Valid(now))
}
