package router

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clay-wangzhi/RegistryPolaris/internal/config"
	"github.com/clay-wangzhi/RegistryPolaris/internal/handlers"
	"github.com/clay-wangzhi/RegistryPolaris/internal/middleware"
	"github.com/clay-wangzhi/RegistryPolaris/internal/query"
	"github.com/clay-wangzhi/RegistryPolaris/internal/services"
	"github.com/clay-wangzhi/RegistryPolaris/internal/views"
	"github.com/clay-wangzhi/RegistryPolaris/pkg/logger"
)

// Setup 组装路由
func Setup(db *gorm.DB, cfg *config.Config) *gin.Engine {
	r := gin.New()

	r.Use(
		gin.Recovery(),
		gin.Logger(),
		middleware.RequestID(),
		middleware.CORS(cfg.Server.CORSOrigins),
		gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws/"})),
	)

	r.SetHTMLTemplate(views.MustTemplates())
	r.StaticFS("/static", http.FS(views.Static()))

	// Health endpoints：liveness 与 readiness
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ready": true})
	})

	// 统一的 Service 实例，避免重复创建
	summarySvc := services.NewRegistrySummaryService(db)
	accountSvc := services.NewRegistryAccountService(db)
	opLogSvc := services.NewOperationLogService(db)

	queries := services.NewRegistryQueries(summarySource(cfg, summarySvc), query.Options{
		StaleTime:    cfg.Summary.StaleTime,
		FetchTimeout: cfg.Summary.FetchTimeout,
	})
	// 预热汇总缓存（后台执行，不阻塞启动）
	queries.PrefetchSummary()

	// 上游来源只读，不开放快照写入
	ingestSvc := summarySvc
	if cfg.Summary.Source == "upstream" {
		ingestSvc = nil
	}

	// 页面
	pageHandler := handlers.NewRegistryPageHandler(queries, accountSvc)
	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/registries")
	})
	pages := r.Group("/registries")
	{
		pages.GET("", pageHandler.Index)
		pages.GET("/list", pageHandler.List)
		pages.GET("/:type", pageHandler.TypeDetail)
	}

	// 推送
	r.GET("/ws/registries/summary", handlers.NewSummaryWSHandler(queries).Stream)

	// /api/v1
	api := r.Group("/api/v1")

	authHandler := handlers.NewAuthHandler(cfg)
	auth := api.Group("/auth")
	{
		auth.POST("/login", middleware.OperationAudit(opLogSvc), authHandler.Login)
		auth.GET("/me", middleware.AuthRequired(cfg.JWT.Secret), authHandler.GetProfile)
	}

	summaryHandler := handlers.NewRegistrySummaryHandler(queries, ingestSvc)
	accountHandler := handlers.NewRegistryAccountHandler(accountSvc)

	// 只读接口
	registries := api.Group("/registries")
	{
		registries.GET("/summary", summaryHandler.GetSummary)
		registries.GET("/types", summaryHandler.ListTypes)
		registries.GET("/accounts", accountHandler.ListAccounts)
	}

	// 受保护的写操作
	protected := api.Group("")
	protected.Use(middleware.AuthRequired(cfg.JWT.Secret), middleware.OperationAudit(opLogSvc))
	{
		protected.PUT("/registries/summary", summaryHandler.IngestSummary)
		protected.POST("/registries/summary/refresh", summaryHandler.RefreshSummary)
		protected.POST("/registries/accounts", accountHandler.CreateAccount)
		protected.DELETE("/registries/accounts/:id", accountHandler.DeleteAccount)

		protected.GET("/operation-logs", handlers.NewOperationLogHandler(opLogSvc).GetOperationLogs)
	}

	return r
}

// summarySource 根据配置选择汇总来源
func summarySource(cfg *config.Config, summarySvc *services.RegistrySummaryService) services.SummarySource {
	if cfg.Summary.Source == "upstream" {
		logger.Info("仓库汇总来源: 上游服务", "url", cfg.Summary.UpstreamURL)
		return services.NewUpstreamSummarySource(cfg.Summary.UpstreamURL, cfg.Summary.UpstreamToken, cfg.Summary.FetchTimeout)
	}
	logger.Info("仓库汇总来源: 数据库快照")
	return summarySvc
}
