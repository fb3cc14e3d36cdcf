package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/coupang-partners-backend/internal/app/model"
	"github.com/ikkim/coupang-partners-backend/internal/app/repository"
	"github.com/ikkim/coupang-partners-backend/internal/app/service"
	"github.com/ikkim/coupang-partners-backend/internal/db"
	"github.com/ikkim/coupang-partners-backend/pkg/trends"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type controllerFixture struct {
	db     *gorm.DB
	router *gin.Engine
}

func setupControllerTest(t *testing.T) *controllerFixture {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("username", "admin")
		c.Set("user_role", "admin")
		c.Next()
	})

	return &controllerFixture{db: testDB, router: router}
}

func (fx *controllerFixture) keywordController() *KeywordController {
	svc := service.NewKeywordService(
		repository.NewKeywordRepository(fx.db),
		fx.db,
		trends.NewStaticSource(time.Now),
		nil,
		time.UTC,
		nil,
		nil,
	)
	return NewKeywordController(svc)
}

func (fx *controllerFixture) publishService() service.PublishService {
	return service.NewPublishService(
		repository.NewPostRepository(fx.db),
		repository.NewNaverTokenRepository(fx.db),
		nil,
		nil,
		nil,
		time.UTC,
		nil,
		nil,
	)
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	}
	return w, response
}

// fakeProductService 추천 결과/에러를 고정
type fakeProductService struct {
	products []model.ProductCandidate
	err      error
}

func (f *fakeProductService) Recommend(ctx context.Context, keywordID uint) ([]model.ProductCandidate, error) {
	return f.products, f.err
}

func (f *fakeProductService) GetProductByID(id uint) (*model.ProductCandidate, error) {
	for i := range f.products {
		if f.products[i].ID == id {
			return &f.products[i], nil
		}
	}
	return nil, service.ErrProductNotFound
}

func (f *fakeProductService) ListProducts(opts service.ProductListOptions) ([]model.ProductCandidate, error) {
	if opts.Status == nil {
		return f.products, nil
	}
	var out []model.ProductCandidate
	for _, p := range f.products {
		if p.Status == *opts.Status {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeDraftService struct {
	post *model.Post
	err  error
	last service.DraftRequest
}

func (f *fakeDraftService) Draft(ctx context.Context, req service.DraftRequest) (*model.Post, error) {
	f.last = req
	return f.post, f.err
}

func (f *fakeDraftService) DraftCompare(ctx context.Context, req service.CompareDraftRequest) (*model.Post, error) {
	return f.post, f.err
}

func serveRequest(fx *controllerFixture, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)
	return w
}
