package repository

import (
	"testing"
	"time"

	"github.com/ikkim/coupang-partners-backend/internal/app/model"
	"github.com/ikkim/coupang-partners-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupKeywordTest(t *testing.T) (*gorm.DB, KeywordRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	return testDB, NewKeywordRepository(testDB)
}

func at(hour, minute int) time.Time {
	return time.Date(2025, 10, 1, hour, minute, 0, 0, time.UTC)
}

func keywordRows(t *testing.T, testDB *gorm.DB, date, text string) []model.Keyword {
	t.Helper()
	var rows []model.Keyword
	require.NoError(t, testDB.Where("ingestion_date = ? AND text = ?", date, text).Order("id").Find(&rows).Error)
	return rows
}

func TestKeywordRepository_CreateBatchAndList(t *testing.T) {
	testDB, repo := setupKeywordTest(t)
	defer db.CleanupTestDB(testDB)

	err := repo.CreateBatch([]model.Keyword{
		{Text: "무선청소기", Score: 0.9, IngestionDate: "2025-10-01", FetchedAt: at(9, 0)},
		{Text: "가습기", Score: 0.7, IngestionDate: "2025-10-01", FetchedAt: at(10, 0)},
		{Text: "전기요", Score: 0.5, IngestionDate: "2025-10-02", FetchedAt: at(11, 0)},
	})
	require.NoError(t, err)

	t.Run("all dates newest first", func(t *testing.T) {
		keywords, err := repo.List(KeywordFilter{})
		require.NoError(t, err)
		require.Len(t, keywords, 3)
		assert.Equal(t, "전기요", keywords[0].Text)
		assert.Equal(t, "무선청소기", keywords[2].Text)
	})

	t.Run("filter by date", func(t *testing.T) {
		keywords, err := repo.List(KeywordFilter{Date: "2025-10-01"})
		require.NoError(t, err)
		assert.Len(t, keywords, 2)
	})

	t.Run("limit", func(t *testing.T) {
		keywords, err := repo.List(KeywordFilter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, keywords, 1)
	})

	t.Run("empty batch", func(t *testing.T) {
		assert.NoError(t, repo.CreateBatch(nil))
	})
}

func TestKeywordRepository_FindByID(t *testing.T) {
	testDB, repo := setupKeywordTest(t)
	defer db.CleanupTestDB(testDB)

	keyword := model.Keyword{Text: "무선청소기", IngestionDate: "2025-10-01", FetchedAt: at(9, 0)}
	require.NoError(t, testDB.Create(&keyword).Error)

	found, err := repo.FindByID(keyword.ID)
	require.NoError(t, err)
	assert.Equal(t, "무선청소기", found.Text)

	_, err = repo.FindByID(9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestKeywordRepository_Dedup(t *testing.T) {
	testDB, repo := setupKeywordTest(t)
	defer db.CleanupTestDB(testDB)

	early := model.Keyword{Text: "무선청소기", IngestionDate: "2025-10-01", FetchedAt: at(9, 0)}
	late := model.Keyword{Text: "무선청소기", IngestionDate: "2025-10-01", FetchedAt: at(10, 5)}
	other := model.Keyword{Text: "무선청소기", IngestionDate: "2025-10-02", FetchedAt: at(8, 0)}
	for _, k := range []*model.Keyword{&early, &late, &other} {
		require.NoError(t, testDB.Create(k).Error)
	}

	candidate := model.ProductCandidate{KeywordID: early.ID, TitleGuess: "무선청소기 A"}
	require.NoError(t, testDB.Create(&candidate).Error)

	removed, err := repo.Dedup("2025-10-01")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	rows := keywordRows(t, testDB, "2025-10-01", "무선청소기")
	require.Len(t, rows, 1)
	assert.Equal(t, late.ID, rows[0].ID)
	assert.True(t, rows[0].FetchedAt.Equal(at(10, 5)))

	var moved model.ProductCandidate
	require.NoError(t, testDB.First(&moved, candidate.ID).Error)
	assert.Equal(t, late.ID, moved.KeywordID)

	var count int64
	require.NoError(t, testDB.Model(&model.Keyword{}).Where("ingestion_date = ?", "2025-10-02").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	removed, err = repo.Dedup("2025-10-01")
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestKeywordRepository_DedupTieBreaksByID(t *testing.T) {
	testDB, repo := setupKeywordTest(t)
	defer db.CleanupTestDB(testDB)

	first := model.Keyword{Text: "가습기", IngestionDate: "2025-10-01", FetchedAt: at(9, 0)}
	second := model.Keyword{Text: "가습기", IngestionDate: "2025-10-01", FetchedAt: at(9, 0)}
	require.NoError(t, testDB.Create(&first).Error)
	require.NoError(t, testDB.Create(&second).Error)

	removed, err := repo.Dedup("")
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	rows := keywordRows(t, testDB, "2025-10-01", "가습기")
	require.Len(t, rows, 1)
	assert.Equal(t, second.ID, rows[0].ID)
}

func TestKeywordRepository_DeleteCascade(t *testing.T) {
	testDB, repo := setupKeywordTest(t)
	defer db.CleanupTestDB(testDB)

	target := model.Keyword{Text: "무선청소기", IngestionDate: "2025-10-01", FetchedAt: at(9, 0)}
	keep := model.Keyword{Text: "가습기", IngestionDate: "2025-10-02", FetchedAt: at(9, 0)}
	require.NoError(t, testDB.Create(&target).Error)
	require.NoError(t, testDB.Create(&keep).Error)

	doomed := model.ProductCandidate{KeywordID: target.ID, TitleGuess: "청소기"}
	kept := model.ProductCandidate{KeywordID: keep.ID, TitleGuess: "가습기"}
	require.NoError(t, testDB.Create(&doomed).Error)
	require.NoError(t, testDB.Create(&kept).Error)

	post := model.Post{
		KeywordID:    &target.ID,
		TemplateType: model.TemplateReview,
		Status:       model.PostStatusDraft,
		Products:     []model.PostProduct{{ProductID: doomed.ID, Position: 0}},
	}
	require.NoError(t, testDB.Create(&post).Error)

	stats, err := repo.DeleteCascade("2025-10-01")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Keywords)
	assert.Equal(t, int64(1), stats.Candidates)
	assert.Equal(t, int64(1), stats.Posts)
	assert.Equal(t, int64(1), stats.PostProducts)

	var remaining int64
	testDB.Model(&model.ProductCandidate{}).Count(&remaining)
	assert.Equal(t, int64(1), remaining)

	stats, err = repo.DeleteCascade("")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Keywords)
	assert.Equal(t, int64(1), stats.Candidates)

	testDB.Model(&model.Keyword{}).Count(&remaining)
	assert.Zero(t, remaining)
}
