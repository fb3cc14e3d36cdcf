package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ikkim/coupang-partners-backend/internal/app/model"
	"github.com/ikkim/coupang-partners-backend/internal/app/repository"
	"github.com/ikkim/coupang-partners-backend/internal/events"
	"github.com/ikkim/coupang-partners-backend/internal/metrics"
	"github.com/ikkim/coupang-partners-backend/pkg/logger"
	"github.com/ikkim/coupang-partners-backend/pkg/naver"
	"github.com/ikkim/coupang-partners-backend/pkg/redis"
	"gorm.io/gorm"
)

const (
	// scheduleGrace 이 범위 안의 과거 시각은 다음 틱에 발행
	scheduleGrace   = time.Minute
	dueBatchSize    = 20
	archiveURLTTL   = 15 * time.Minute
	defaultPostList = 200

	TriggerAPI       = "api"
	TriggerScheduler = "scheduler"
)

// scheduleLayouts 오프셋 없는 형식은 설정 타임존으로 해석
var scheduleLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// BlogClient 외부 블로그 발행 (naver.Client)
type BlogClient interface {
	Publish(ctx context.Context, accessToken string, req naver.PublishRequest) (*naver.PublishResult, error)
}

// PostArchiver 발행된 본문 보관소 (storage.S3Archiver)
type PostArchiver interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type PublishRequest struct {
	PostID   uint
	Schedule string
}

type PostListOptions struct {
	Status *model.PostStatus
	Limit  int
	Offset int
}

// PublishService draft → scheduled → published 전이와 외부 발행
type PublishService interface {
	Publish(ctx context.Context, req PublishRequest) (*model.Post, error)
	PublishDue(ctx context.Context) (int, error)
	GetPost(id uint) (*model.Post, error)
	ListPosts(opts PostListOptions) ([]model.Post, error)
	ArchiveURL(ctx context.Context, id uint) (string, error)
}

type publishService struct {
	postRepo  repository.PostRepository
	tokenRepo repository.NaverTokenRepository
	blog      BlogClient
	archiver  PostArchiver
	locker    redis.Locker
	loc       *time.Location
	publisher events.Publisher
	metrics   *metrics.PipelineMetrics
	now       func() time.Time
}

// NewPublishService blog 가 nil 이면 로컬 상태만 전환, archiver 가 nil 이면 보관하지 않음
func NewPublishService(
	postRepo repository.PostRepository,
	tokenRepo repository.NaverTokenRepository,
	blog BlogClient,
	archiver PostArchiver,
	locker redis.Locker,
	loc *time.Location,
	publisher events.Publisher,
	m *metrics.PipelineMetrics,
) PublishService {
	if loc == nil {
		loc = time.UTC
	}
	if locker == nil {
		locker = redis.NewLocalLocker()
	}
	return &publishService{
		postRepo:  postRepo,
		tokenRepo: tokenRepo,
		blog:      blog,
		archiver:  archiver,
		locker:    locker,
		loc:       loc,
		publisher: publisher,
		metrics:   m,
		now:       time.Now,
	}
}

// ParseSchedule RFC3339 또는 오프셋 없는 로컬 시각
func ParseSchedule(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	for _, layout := range scheduleLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, newValidationError(ErrInvalidSchedule, "schedule",
		fmt.Sprintf("cannot parse %q as a timestamp (use RFC3339 or YYYY-MM-DDTHH:MM:SS)", raw))
}

func (s *publishService) GetPost(id uint) (*model.Post, error) {
	post, err := s.postRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return post, nil
}

func (s *publishService) ListPosts(opts PostListOptions) ([]model.Post, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultPostList
	}
	return s.postRepo.FindWithFilter(repository.PostFilter{
		Status: opts.Status,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	})
}

// Publish schedule 이 있으면 예약, 없으면 즉시 발행
func (s *publishService) Publish(ctx context.Context, req PublishRequest) (*model.Post, error) {
	var when time.Time
	scheduled := strings.TrimSpace(req.Schedule) != ""
	if scheduled {
		var err error
		if when, err = ParseSchedule(req.Schedule, s.loc); err != nil {
			return nil, err
		}
		if when.Before(s.now().Add(-scheduleGrace)) {
			return nil, newValidationError(ErrScheduleInPast, "schedule",
				fmt.Sprintf("%s is before now", when.In(s.loc).Format(time.RFC3339)))
		}
	}

	post, err := s.GetPost(req.PostID)
	if err != nil {
		return nil, err
	}

	if scheduled {
		return s.schedule(ctx, post, when)
	}
	return s.publishNow(ctx, post.ID, TriggerAPI)
}

func (s *publishService) schedule(ctx context.Context, post *model.Post, when time.Time) (*model.Post, error) {
	if !post.Status.CanTransitionTo(model.PostStatusScheduled) {
		return nil, transitionError(post, model.PostStatusScheduled)
	}

	applied, err := s.postRepo.Transition(post.ID,
		[]model.PostStatus{model.PostStatusDraft, model.PostStatusScheduled},
		map[string]interface{}{
			"status":       model.PostStatusScheduled,
			"scheduled_at": when.UTC(),
		})
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, transitionError(post, model.PostStatusScheduled)
	}

	s.metrics.RecordPublish(string(model.PostStatusScheduled), TriggerAPI)
	events.Emit(ctx, s.publisher, events.New(events.PostScheduled, fmt.Sprintf("post:%d", post.ID), map[string]interface{}{
		"scheduled_at": when.UTC(),
	}))
	logger.Info("Post scheduled", map[string]interface{}{
		"post_id":      post.ID,
		"scheduled_at": when.In(s.loc).Format(time.RFC3339),
	})
	return s.GetPost(post.ID)
}

// publishNow 글 단위 락 안에서 외부 발행 후 published 로 전환
// 외부 발행이 실패하면 상태는 그대로 남는다
func (s *publishService) publishNow(ctx context.Context, postID uint, trigger string) (*model.Post, error) {
	unlock, err := s.locker.Lock(ctx, fmt.Sprintf("post:publish:%d", postID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	post, err := s.GetPost(postID)
	if err != nil {
		return nil, err
	}
	if !post.Status.CanTransitionTo(model.PostStatusPublished) {
		return nil, transitionError(post, model.PostStatusPublished)
	}

	now := s.now().UTC()
	updates := map[string]interface{}{
		"status":       model.PostStatusPublished,
		"published_at": now,
	}

	if s.blog != nil {
		result, err := s.sendToBlog(ctx, post, now)
		if err != nil {
			s.metrics.RecordPublish("failed", trigger)
			events.Emit(ctx, s.publisher, events.New(events.PostPublishFailed, fmt.Sprintf("post:%d", post.ID), map[string]interface{}{
				"trigger": trigger,
				"error":   err.Error(),
			}))
			logger.Error("Failed to publish post", err, map[string]interface{}{
				"post_id": post.ID,
				"trigger": trigger,
			})
			return nil, &PublishFailureError{PostID: post.ID, Err: err}
		}
		updates["remote_post_id"] = result.PostID
		updates["remote_url"] = result.URL
	}

	if key := s.archive(ctx, post); key != "" {
		updates["archive_key"] = key
	}

	applied, err := s.postRepo.Transition(post.ID,
		[]model.PostStatus{model.PostStatusDraft, model.PostStatusScheduled}, updates)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, transitionError(post, model.PostStatusPublished)
	}

	s.metrics.RecordPublish(string(model.PostStatusPublished), trigger)
	events.Emit(ctx, s.publisher, events.New(events.PostPublished, fmt.Sprintf("post:%d", post.ID), map[string]interface{}{
		"trigger":    trigger,
		"remote_url": updates["remote_url"],
	}))
	logger.Info("Post published", map[string]interface{}{
		"post_id":        post.ID,
		"trigger":        trigger,
		"remote_post_id": updates["remote_post_id"],
	})
	return s.GetPost(post.ID)
}

func (s *publishService) sendToBlog(ctx context.Context, post *model.Post, now time.Time) (*naver.PublishResult, error) {
	token, err := s.tokenRepo.Latest()
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBlogNotConnected
		}
		return nil, err
	}
	if !token.Valid(now) {
		return nil, ErrBlogNotConnected
	}

	var tags []string
	for _, t := range strings.Split(post.Tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return s.blog.Publish(ctx, token.AccessToken, naver.PublishRequest{
		Title:    post.Title,
		Contents: post.BodyMD,
		Tags:     tags,
	})
}

// archive best-effort 보관, 실패 시 빈 키
func (s *publishService) archive(ctx context.Context, post *model.Post) string {
	if s.archiver == nil {
		return ""
	}
	key := fmt.Sprintf("posts/%d/%s.md", post.ID, uuid.NewString())
	if err := s.archiver.Put(ctx, key, []byte(post.BodyMD), "text/markdown; charset=utf-8"); err != nil {
		logger.Warn("Failed to archive post body", map[string]interface{}{
			"post_id": post.ID,
			"error":   err.Error(),
		})
		return ""
	}
	return key
}

// PublishDue 예약 시각이 지난 글을 즉시 발행 경로로 처리, 성공 건수 반환
func (s *publishService) PublishDue(ctx context.Context) (int, error) {
	due, err := s.postRepo.FindDue(s.now().UTC(), dueBatchSize)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, post := range due {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.publishNow(ctx, post.ID, TriggerScheduler); err != nil {
			logger.Warn("Scheduled publish failed, will retry on next tick", map[string]interface{}{
				"post_id": post.ID,
				"kind":    ErrorKind(err),
			})
			continue
		}
		published++
	}

	if len(due) > 0 {
		logger.Info("Scheduled publish tick finished", map[string]interface{}{
			"due":       len(due),
			"published": published,
		})
	}
	return published, nil
}

// ArchiveURL 보관된 본문의 presigned GET URL
func (s *publishService) ArchiveURL(ctx context.Context, id uint) (string, error) {
	if s.archiver == nil {
		return "", ErrArchiveDisabled
	}
	post, err := s.GetPost(id)
	if err != nil {
		return "", err
	}
	if post.ArchiveKey == "" {
		return "", ErrArchiveMissing
	}
	return s.archiver.PresignGet(ctx, post.ArchiveKey, archiveURLTTL)
}

func transitionError(post *model.Post, to model.PostStatus) error {
	return newValidationError(ErrInvalidTransition, "status",
		fmt.Sprintf("post %d cannot move from %s to %s", post.ID, post.Status, to))
}
