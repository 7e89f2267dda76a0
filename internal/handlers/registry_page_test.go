package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/clay-wangzhi/RegistryPolaris/internal/services"
)

// RegistryPageHandlerTestSuite 仓库页面处理器测试套件
type RegistryPageHandlerTestSuite struct {
	suite.Suite
	db      *gorm.DB
	mock    sqlmock.Sqlmock
	source  *stubSource
	queries *services.RegistryQueries
	router  *gin.Engine
}

// SetupTest 每个测试前的设置
func (s *RegistryPageHandlerTestSuite) SetupTest() {
	s.db, s.mock = newMockDB(&s.Suite)
	s.source = &stubSource{summaries: sampleSummaries()}

	s.queries = newTestQueries(s.source)
	handler := NewRegistryPageHandler(s.queries, services.NewRegistryAccountService(s.db))
	s.router = newTestEngine()
	s.router.GET("/registries", handler.Index)
	s.router.GET("/registries/list", handler.List)
	s.router.GET("/registries/:type", handler.TypeDetail)
}

// TearDownTest 每个测试后的清理
func (s *RegistryPageHandlerTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	closeMockDB(s.db)
}

func (s *RegistryPageHandlerTestSuite) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	s.router.ServeHTTP(w, req)
	return w
}

// TestIndex_PendingThenResolved 首次访问展示占位卡片，数据到达后直接展示卡片
func (s *RegistryPageHandlerTestSuite) TestIndex_PendingThenResolved() {
	w := s.get("/registries")
	assert.Equal(s.T(), http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(s.T(), 9, strings.Count(body, "data-skeleton="))
	assert.Contains(s.T(), body, `hx-get="/registries/list"`)
	assert.NotContains(s.T(), body, `data-type=`)

	w = s.get("/registries/list")
	assert.Equal(s.T(), http.StatusOK, w.Code)
	body = w.Body.String()
	assert.Contains(s.T(), body, `data-type="docker_hub"`)
	assert.Contains(s.T(), body, `href="/registries/docker_hub"`)
	assert.Contains(s.T(), body, `title="1,500"`)
	assert.Contains(s.T(), body, "3.4K")

	w = s.get("/registries")
	body = w.Body.String()
	assert.NotContains(s.T(), body, "data-skeleton=")
	assert.Contains(s.T(), body, "Docker Hub")
	assert.Contains(s.T(), body, `data-type="quay"`)
}

// TestIndex_KeepsPreviousDataWhileRefetching 刷新失败时继续展示旧数据
func (s *RegistryPageHandlerTestSuite) TestIndex_KeepsPreviousDataWhileRefetching() {
	assert.Equal(s.T(), http.StatusOK, s.get("/registries/list").Code)

	s.source.set(nil, errors.New("upstream down"))
	s.queries.InvalidateSummary()

	w := s.get("/registries")
	assert.Equal(s.T(), http.StatusOK, w.Code)
	body := w.Body.String()
	assert.NotContains(s.T(), body, "data-skeleton=")
	assert.Contains(s.T(), body, `data-type="docker_hub"`)
	assert.Contains(s.T(), body, `data-stale="true"`)
}

// TestList_Error 首次获取失败时返回错误块
func (s *RegistryPageHandlerTestSuite) TestList_Error() {
	s.source.set(nil, errors.New("upstream down"))

	w := s.get("/registries/list")
	assert.Equal(s.T(), http.StatusInternalServerError, w.Code)
	assert.Contains(s.T(), w.Body.String(), "Failed to load registries")
	assert.Contains(s.T(), w.Body.String(), `hx-get="/registries/list"`)

	// 片段请求以 200 返回错误块，替换占位卡片
	req, _ := http.NewRequest(http.MethodGet, "/registries/list", nil)
	req.Header.Set("HX-Request", "true")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(s.T(), http.StatusOK, w.Code)
	assert.Contains(s.T(), w.Body.String(), "Failed to load registries")
	assert.Contains(s.T(), w.Body.String(), `id="registry-list"`)
	assert.NotContains(s.T(), w.Body.String(), "data-skeleton=")
}

// TestTypeDetail_Unknown 未知类型返回 404
func (s *RegistryPageHandlerTestSuite) TestTypeDetail_Unknown() {
	w := s.get("/registries/nope")
	assert.Equal(s.T(), http.StatusNotFound, w.Code)
	assert.Contains(s.T(), w.Body.String(), "Unknown registry type: nope")
}

// TestTypeDetail 展示类型下的仓库账号
func (s *RegistryPageHandlerTestSuite) TestTypeDetail() {
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "registry_type", "url", "namespace", "description", "created_at", "updated_at", "deleted_at"}).
		AddRow(1, "prod-harbor", "harbor", "https://harbor.example.com", "library", "", now, now, nil)
	s.mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `registry_accounts` WHERE registry_type = ?")).
		WithArgs("harbor").
		WillReturnRows(rows)

	w := s.get("/registries/harbor")
	assert.Equal(s.T(), http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(s.T(), body, "Harbor")
	assert.Contains(s.T(), body, "prod-harbor")
	assert.Contains(s.T(), body, "https://harbor.example.com")
}

// TestRegistryPageHandlerSuite 运行测试套件
func TestRegistryPageHandlerSuite(t *testing.T) {
	suite.Run(t, new(RegistryPageHandlerTestSuite))
}
