package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/clay-wangzhi/RegistryPolaris/internal/services"
)

// RegistrySummaryHandlerTestSuite 汇总接口测试套件
type RegistrySummaryHandlerTestSuite struct {
	suite.Suite
	db      *gorm.DB
	mock    sqlmock.Sqlmock
	source  *stubSource
	queries *services.RegistryQueries
	router  *gin.Engine
}

// SetupTest 每个测试前的设置
func (s *RegistrySummaryHandlerTestSuite) SetupTest() {
	s.db, s.mock = newMockDB(&s.Suite)
	s.source = &stubSource{summaries: sampleSummaries()}
	s.queries = newTestQueries(s.source)

	handler := NewRegistrySummaryHandler(s.queries, services.NewRegistrySummaryService(s.db))
	s.router = newTestEngine()
	s.router.GET("/api/v1/registries/summary", handler.GetSummary)
	s.router.PUT("/api/v1/registries/summary", handler.IngestSummary)
	s.router.POST("/api/v1/registries/summary/refresh", handler.RefreshSummary)
	s.router.GET("/api/v1/registries/types", handler.ListTypes)
}

// TearDownTest 每个测试后的清理
func (s *RegistrySummaryHandlerTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	closeMockDB(s.db)
}

func (s *RegistrySummaryHandlerTestSuite) do(method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, _ := http.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

// TestGetSummary 返回汇总与卡片
func (s *RegistrySummaryHandlerTestSuite) TestGetSummary() {
	w, resp := s.do(http.MethodGet, "/api/v1/registries/summary", nil)
	assert.Equal(s.T(), http.StatusOK, w.Code)
	assert.Equal(s.T(), float64(200), resp["code"])

	data := resp["data"].(map[string]interface{})
	cards := data["cards"].([]interface{})
	s.Require().Len(cards, 2)

	first := cards[0].(map[string]interface{})
	assert.Equal(s.T(), "Docker Hub", first["name"])
	assert.Equal(s.T(), "/registries/docker_hub", first["href"])
	stats := first["stats"].([]interface{})
	assert.Equal(s.T(), "1.5K", stats[1].(map[string]interface{})["value"])

	second := cards[1].(map[string]interface{})
	assert.Equal(s.T(), "0", second["stats"].([]interface{})[0].(map[string]interface{})["value"])
}

// TestGetSummary_Error 获取失败返回 500
func (s *RegistrySummaryHandlerTestSuite) TestGetSummary_Error() {
	s.source.set(nil, errors.New("boom"))

	w, resp := s.do(http.MethodGet, "/api/v1/registries/summary", nil)
	assert.Equal(s.T(), http.StatusInternalServerError, w.Code)
	assert.Equal(s.T(), float64(500), resp["code"])
}

// TestIngestSummary 写入快照后缓存失效并重新获取
func (s *RegistrySummaryHandlerTestSuite) TestIngestSummary() {
	_, _ = s.do(http.MethodGet, "/api/v1/registries/summary", nil)
	assert.Equal(s.T(), 1, s.source.callCount())

	s.mock.ExpectBegin()
	s.mock.ExpectExec("INSERT INTO `registry_summaries`.*ON DUPLICATE KEY UPDATE").
		WillReturnResult(sqlmock.NewResult(1, 1))
	s.mock.ExpectCommit()

	w, resp := s.do(http.MethodPut, "/api/v1/registries/summary", map[string]interface{}{
		"summaries": []map[string]interface{}{
			{"type": "harbor", "registries": 3, "images": 40, "tags": 1200},
		},
	})
	assert.Equal(s.T(), http.StatusOK, w.Code)
	assert.Equal(s.T(), float64(1), resp["data"].(map[string]interface{})["count"])

	assert.Eventually(s.T(), func() bool { return s.source.callCount() >= 2 }, timeout, tick)
}

// TestIngestSummary_UnknownType 未知类型返回 400
func (s *RegistrySummaryHandlerTestSuite) TestIngestSummary_UnknownType() {
	w, resp := s.do(http.MethodPut, "/api/v1/registries/summary", map[string]interface{}{
		"summaries": []map[string]interface{}{{"type": "nope"}},
	})
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	assert.Equal(s.T(), float64(400), resp["code"])
}

// TestIngestSummary_BadBody 请求体错误返回 400
func (s *RegistrySummaryHandlerTestSuite) TestIngestSummary_BadBody() {
	w, _ := s.do(http.MethodPut, "/api/v1/registries/summary", map[string]interface{}{})
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

// TestRefreshSummary 强制刷新
func (s *RegistrySummaryHandlerTestSuite) TestRefreshSummary() {
	_, _ = s.do(http.MethodGet, "/api/v1/registries/summary", nil)
	w, _ := s.do(http.MethodPost, "/api/v1/registries/summary/refresh", nil)
	assert.Equal(s.T(), http.StatusOK, w.Code)
	assert.Equal(s.T(), 2, s.source.callCount())

	s.source.set(nil, errors.New("boom"))
	w, _ = s.do(http.MethodPost, "/api/v1/registries/summary/refresh", nil)
	assert.Equal(s.T(), http.StatusBadGateway, w.Code)
}

// TestListTypes 返回目录中的全部类型
func (s *RegistrySummaryHandlerTestSuite) TestListTypes() {
	w, resp := s.do(http.MethodGet, "/api/v1/registries/types", nil)
	assert.Equal(s.T(), http.StatusOK, w.Code)
	types := resp["data"].([]interface{})
	s.Require().Len(types, 9)
	assert.Equal(s.T(), "docker_hub", types[0].(map[string]interface{})["type"])
}

// TestIngestSummary_ReadOnlySource 上游来源不支持写入
func TestIngestSummary_ReadOnlySource(t *testing.T) {
	handler := NewRegistrySummaryHandler(newTestQueries(&stubSource{}), nil)
	r := newTestEngine()
	r.PUT("/api/v1/registries/summary", handler.IngestSummary)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPut, "/api/v1/registries/summary", bytes.NewReader([]byte(`{"summaries":[]}`)))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

// TestRegistrySummaryHandlerSuite 运行测试套件
func TestRegistrySummaryHandlerSuite(t *testing.T) {
	suite.Run(t, new(RegistrySummaryHandlerTestSuite))
}
