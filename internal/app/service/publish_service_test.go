package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ikkim/coupang-partners-backend/internal/app/model"
	"github.com/ikkim/coupang-partners-backend/internal/app/repository"
	"github.com/ikkim/coupang-partners-backend/internal/db"
	"github.com/ikkim/coupang-partners-backend/internal/events"
	"github.com/ikkim/coupang-partners-backend/pkg/naver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeBlog struct {
	mu    sync.Mutex
	calls []naver.PublishRequest
	err   error
	delay time.Duration
}

func (b *fakeBlog) Publish(_ context.Context, accessToken string, req naver.PublishRequest) (*naver.PublishResult, error) {
	if b.delay > 0 {
		time.Sleep(b.delay)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, req)
	if b.err != nil {
		return nil, b.err
	}
	n := len(b.calls)
	return &naver.PublishResult{
		PostID: fmt.Sprintf("remote-%d", n),
		URL:    fmt.Sprintf("https://blog.naver.com/tester/remote-%d", n),
	}, nil
}

func (b *fakeBlog) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

type fakeArchiver struct {
	mu   sync.Mutex
	objs map[string][]byte
	err  error
}

func (a *fakeArchiver) Put(_ context.Context, key string, body []byte, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	if a.objs == nil {
		a.objs = make(map[string][]byte)
	}
	a.objs[key] = body
	return nil
}

func (a *fakeArchiver) PresignGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://archive.test/%s?ttl=%d", key, int(ttl.Seconds())), nil
}

var publishTestNow = time.Date(2025, 10, 1, 3, 0, 0, 0, time.UTC)

type publishServiceFixture struct {
	db        *gorm.DB
	blog      *fakeBlog
	archiver  *fakeArchiver
	publisher *recordingPublisher
	service   *publishService
}

func setupPublishServiceTest(t *testing.T, loc *time.Location) *publishServiceFixture {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	expires := publishTestNow.Add(time.Hour)
	require.NoError(t, testDB.Create(&model.NaverToken{AccessToken: "token", TokenType: "bearer", ExpiresAt: &expires}).Error)

	blog := &fakeBlog{}
	archiver := &fakeArchiver{}
	publisher := &recordingPublisher{}
	svc := NewPublishService(
		repository.NewPostRepository(testDB),
		repository.NewNaverTokenRepository(testDB),
		blog,
		archiver,
		nil,
		loc,
		publisher,
		nil,
	).(*publishService)
	svc.now = func() time.Time { return publishTestNow }

	return &publishServiceFixture{db: testDB, blog: blog, archiver: archiver, publisher: publisher, service: svc}
}

func (fx *publishServiceFixture) draft(t *testing.T) *model.Post {
	t.Helper()
	post := &model.Post{
		TemplateType: model.TemplateReview,
		Title:        "[광고/제휴] 무선청소기 후기",
		BodyMD:       "# [광고/제휴] 무선청소기 후기\n본문",
		Tags:         "무선청소기,쿠팡파트너스",
		Status:       model.PostStatusDraft,
	}
	require.NoError(t, fx.db.Create(post).Error)
	return post
}

func TestParseSchedule(t *testing.T) {
	kst := time.FixedZone("KST", 9*3600)

	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"rfc3339", "2025-10-07T09:15:00Z", time.Date(2025, 10, 7, 9, 15, 0, 0, time.UTC)},
		{"rfc3339 with offset", "2025-10-07T09:15:00+09:00", time.Date(2025, 10, 7, 0, 15, 0, 0, time.UTC)},
		{"local seconds", "2025-10-07T09:15:00", time.Date(2025, 10, 7, 0, 15, 0, 0, time.UTC)},
		{"local minutes", "2025-10-07 09:15", time.Date(2025, 10, 7, 0, 15, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSchedule(tt.raw, kst)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	_, err := ParseSchedule("next tuesday", kst)
	assert.ErrorIs(t, err, ErrInvalidSchedule)
	assert.Equal(t, KindValidation, ErrorKind(err))
}

func TestPublishService_ScheduleThenPublish(t *testing.T) {
	fx := setupPublishServiceTest(t, time.UTC)
	post := fx.draft(t)

	scheduled, err := fx.service.Publish(context.Background(), PublishRequest{PostID: post.ID, Schedule: "2025-10-07T09:15:00"})
	require.NoError(t, err)
	assert.Equal(t, model.PostStatusScheduled, scheduled.Status)
	require.NotNil(t, scheduled.ScheduledAt)
	assert.True(t, time.Date(2025, 10, 7, 9, 15, 0, 0, time.UTC).Equal(*scheduled.ScheduledAt))
	assert.Nil(t, scheduled.PublishedAt)
	assert.Zero(t, fx.blog.Calls())

	// 예약 시각 변경
	rescheduled, err := fx.service.Publish(context.Background(), PublishRequest{PostID: post.ID, Schedule: "2025-10-08T10:00:00Z"})
	require.NoError(t, err)
	assert.True(t, time.Date(2025, 10, 8, 10, 0, 0, 0, time.UTC).Equal(*rescheduled.ScheduledAt))

	published, err := fx.service.Publish(context.Background(), PublishRequest{PostID: post.ID})
	require.NoError(t, err)
	assert.Equal(t, model.PostStatusPublished, published.Status)
	require.NotNil(t, published.PublishedAt)
	assert.True(t, publishTestNow.Equal(*published.PublishedAt))
	assert.Equal(t, "remote-1", published.RemotePostID)
	assert.Equal(t, "https://blog.naver.com/tester/remote-1", published.RemoteURL)
	assert.True(t, strings.HasPrefix(published.ArchiveKey, fmt.Sprintf("posts/%d/", post.ID)))
	assert.Equal(t, []byte(post.BodyMD), fx.archiver.objs[published.ArchiveKey])

	require.Len(t, fx.blog.calls, 1)
	assert.Equal(t, []string{"무선청소기", "쿠팡파트너스"}, fx.blog.calls[0].Tags)
	assert.Equal(t, []string{events.PostScheduled, events.PostScheduled, events.PostPublished}, fx.publisher.Types())
}

func TestPublishService_PublishImmediately(t *testing.T) {
	fx := setupPublishServiceTest(t, time.UTC)
	post := fx.draft(t)

	published, err := fx.service.Publish(context.Background(), PublishRequest{PostID: post.ID})
	require.NoError(t, err)
	assert.Equal(t, model.PostStatusPublished, published.Status)
	assert.True(t, publishTestNow.Equal(*published.PublishedAt))
	assert.Nil(t, published.ScheduledAt)
}

func TestPublishService_StatusIsMonotonic(t *testing.T) {
	fx := setupPublishServiceTest(t, time.UTC)
	post := fx.draft(t)

	_, err := fx.service.Publish(context.Background(), PublishRequest{PostID: post.ID})
	require.NoError(t, err)

	tests := []struct {
		name     string
		schedule string
	}{
		{"publish again", ""},
		{"schedule after publish", "2025-10-07T09:15:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.service.Publish(context.Background(), PublishRequest{PostID: post.ID, Schedule: tt.schedule})
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, KindValidation, ErrorKind(err))
		})
	}

	stored, err := fx.service.GetPost(post.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PostStatusPublished, stored.Status)
	assert.Equal(t, 1, fx.blog.Calls())
}

func TestPublishService_ScheduleValidation(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		wantErr  error
	}{
		{"past", "2025-09-30T09:00:00", ErrScheduleInPast},
		{"garbage", "tomorrow morning", ErrInvalidSchedule},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := setupPublishServiceTest(t, time.UTC)
			post := fx.draft(t)

			_, err := fx.service.Publish(context.Background(), PublishRequest{PostID: post.ID, Schedule: tt.schedule})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, KindValidation, ErrorKind(err))

			stored, err := fx.service.GetPost(post.ID)
			require.NoError(t, err)
			assert.Equal(t, model.PostStatusDraft, stored.Status)
			assert.Nil(t, stored.ScheduledAt)
		})
	}
}

func TestPublishService_ScheduleWithinGrace(t *testing.T) {
	fx := setupPublishServiceTest(t, time.UTC)
	post := fx.draft(t)

	scheduled, err := fx.service.Publish(context.Background(), PublishRequest{
		PostID:   post.ID,
		Schedule: publishTestNow.Add(-30 * time.Second).Format(time.RFC3339),
	})
	require.NoError(t, err)
	assert.Equal(t, model.PostStatusScheduled, scheduled.Status)
}

func TestPublishService_BlogFailureKeepsStatus(t *testing.T) {
	fx := setupPublishServiceTest(t, time.UTC)
	fx.blog.err = naver.ErrPublishFailed
	post := fx.draft(t)

	_, err := fx.service.Publish(context.Background(), PublishRequest{PostID: post.ID})
	require.Error(t, err)

	var pubErr *PublishFailureError
	require.True(t, errors.As(err, &pubErr))
	assert.Equal(t, post.ID, pubErr.PostID)
	assert.ErrorIs(t, err, naver.ErrPublishFailed)
	assert.Equal(t, KindPublishFailed, ErrorKind(err))

	stored, err := fx.service.GetPost(post.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PostStatusDraft, stored.Status)
	assert.Nil(t, stored.PublishedAt)
	assert.Empty(t, fx.archiver.objs)
	assert.Contains(t, fx.publisher.Types(), events.PostPublishFailed)
}

func TestPublishService_BlogNotConnected(t *testing.T) {
	fx := setupPublishServiceTest(t, time.UTC)
	require.NoError(t, fx.db.Exec("DELETE FROM naver_tokens").Error)
	post := fx.draft(t)

	_, err := fx.service.Publish(context.Background(), PublishRequest{PostID: post.ID})
	assert.ErrorIs(t, err, ErrBlogNotConnected)
	assert.Equal(t, KindPublishFailed, ErrorKind(err))
	assert.Zero(t, fx.blog.Calls())
}

func TestPublishService_WithoutBlogPublishesLocally(t *testing.T) {
	fx := setupPublishServiceTest(t, time.UTC)
	fx.service.blog = nil
	fx.service.archiver = nil
	post := fx.draft(t)

	published, err := fx.service.Publish(context.Background(), PublishRequest{PostID: post.ID})
	require.NoError(t, err)
	assert.Equal(t, model.PostStatusPublished, published.Status)
	assert.Empty(t, published.RemotePostID)
	assert.Empty(t, published.ArchiveKey)

	_, err = fx.service.ArchiveURL(context.Background(), post.ID)
	assert.ErrorIs(t, err, ErrArchiveDisabled)
}

func TestPublishService_ConcurrentPublishSendsOnce(t *testing.T) {
	fx := setupPublishServiceTest(t, time.UTC)
	fx.blog.delay = 20 * time.Millisecond
	post := fx.draft(t)

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fx.service.Publish(context.Background(), PublishRequest{PostID: post.ID})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidTransition)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, fx.blog.Calls())
}

func TestPublishService_PublishDue(t *testing.T) {
	fx := setupPublishServiceTest(t, time.UTC)
	due := fx.draft(t)
	later := fx.draft(t)
	untouched := fx.draft(t)

	_, err := fx.service.Publish(context.Background(), PublishRequest{PostID: due.ID, Schedule: "2025-10-01T04:00:00Z"})
	require.NoError(t, err)
	_, err = fx.service.Publish(context.Background(), PublishRequest{PostID: later.ID, Schedule: "2025-10-02T04:00:00Z"})
	require.NoError(t, err)

	fx.service.now = func() time.Time { return publishTestNow.Add(2 * time.Hour) }

	n, err := fx.service.PublishDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	statuses := map[uint]model.PostStatus{}
	for _, id := range []uint{due.ID, later.ID, untouched.ID} {
		p, err := fx.service.GetPost(id)
		require.NoError(t, err)
		statuses[id] = p.Status
	}
	assert.Equal(t, model.PostStatusPublished, statuses[due.ID])
	assert.Equal(t, model.PostStatusScheduled, statuses[later.ID])
	assert.Equal(t, model.PostStatusDraft, statuses[untouched.ID])

	// 재실행은 아무것도 하지 않는다
	n, err = fx.service.PublishDue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, fx.blog.Calls())
}

func TestPublishService_PublishDueKeepsFailedForRetry(t *testing.T) {
	fx := setupPublishServiceTest(t, time.UTC)
	post := fx.draft(t)
	_, err := fx.service.Publish(context.Background(), PublishRequest{PostID: post.ID, Schedule: "2025-10-01T04:00:00Z"})
	require.NoError(t, err)

	fx.service.now = func() time.Time { return publishTestNow.Add(2 * time.Hour) }
	fx.blog.err = naver.ErrPublishFailed

	n, err := fx.service.PublishDue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	stored, err := fx.service.GetPost(post.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PostStatusScheduled, stored.Status)
}

func TestPublishService_ArchiveURL(t *testing.T) {
	fx := setupPublishServiceTest(t, time.UTC)
	post := fx.draft(t)

	_, err := fx.service.ArchiveURL(context.Background(), post.ID)
	assert.ErrorIs(t, err, ErrArchiveMissing)

	published, err := fx.service.Publish(context.Background(), PublishRequest{PostID: post.ID})
	require.NoError(t, err)

	url, err := fx.service.ArchiveURL(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://archive.test/"+published.ArchiveKey+"?ttl=900", url)

	_, err = fx.service.ArchiveURL(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestPublishService_ListPosts(t *testing.T) {
	fx := setupPublishServiceTest(t, time.UTC)
	a := fx.draft(t)
	fx.draft(t)
	_, err := fx.service.Publish(context.Background(), PublishRequest{PostID: a.ID})
	require.NoError(t, err)

	all, err := fx.service.ListPosts(PostListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	status := model.PostStatusPublished
	published, err := fx.service.ListPosts(PostListOptions{Status: &status})
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, a.ID, published[0].ID)
}
