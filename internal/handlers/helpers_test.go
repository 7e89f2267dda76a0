package handlers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/clay-wangzhi/RegistryPolaris/internal/models"
	"github.com/clay-wangzhi/RegistryPolaris/internal/query"
	"github.com/clay-wangzhi/RegistryPolaris/internal/services"
	"github.com/clay-wangzhi/RegistryPolaris/internal/views"
)

// newMockDB 使用 sqlmock 创建 GORM 实例
func newMockDB(s *suite.Suite) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	s.Require().NoError(err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)
	return gormDB, mock
}

func closeMockDB(db *gorm.DB) {
	if db != nil {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}
}

const (
	timeout = 2 * time.Second
	tick    = 10 * time.Millisecond
)

// stubSource 可控的汇总来源
type stubSource struct {
	mu        sync.Mutex
	summaries []models.RegistrySummary
	err       error
	calls     int32
}

func (s *stubSource) RegistrySummary(ctx context.Context) ([]models.RegistrySummary, error) {
	atomic.AddInt32(&s.calls, 1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := make([]models.RegistrySummary, len(s.summaries))
	copy(out, s.summaries)
	return out, nil
}

func (s *stubSource) set(summaries []models.RegistrySummary, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries = summaries
	s.err = err
}

func (s *stubSource) callCount() int {
	return int(atomic.LoadInt32(&s.calls))
}

func newTestQueries(source services.SummarySource) *services.RegistryQueries {
	return services.NewRegistryQueries(source, query.Options{
		StaleTime:    time.Minute,
		FetchTimeout: 5 * time.Second,
	})
}

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.SetHTMLTemplate(views.MustTemplates())
	return r
}

// sampleSummaries 示例汇总：Docker Hub 有计数，Quay 无计数
func sampleSummaries() []models.RegistrySummary {
	return []models.RegistrySummary{
		{Type: "docker_hub", Registries: models.Int64Ptr(2), Images: models.Int64Ptr(1500), Tags: models.Int64Ptr(3400)},
		{Type: "quay"},
	}
}
