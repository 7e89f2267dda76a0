package handlers

import (
	"errors"
	"net/http"

	"github.com/clay-wangzhi/RegistryPolaris/internal/models"
	"github.com/clay-wangzhi/RegistryPolaris/internal/registry"
	"github.com/clay-wangzhi/RegistryPolaris/internal/services"
	"github.com/clay-wangzhi/RegistryPolaris/internal/views"
	"github.com/clay-wangzhi/RegistryPolaris/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RegistrySummaryHandler 仓库汇总接口处理器
type RegistrySummaryHandler struct {
	queries   *services.RegistryQueries
	summaries *services.RegistrySummaryService
}

// NewRegistrySummaryHandler 创建仓库汇总接口处理器
func NewRegistrySummaryHandler(queries *services.RegistryQueries, summaries *services.RegistrySummaryService) *RegistrySummaryHandler {
	return &RegistrySummaryHandler{
		queries:   queries,
		summaries: summaries,
	}
}

// SummaryResponse 汇总响应
type SummaryResponse struct {
	Summaries []models.RegistrySummary `json:"summaries"`
	Cards     []views.RegistryCard     `json:"cards"`
	Stale     bool                     `json:"stale"`
}

// IngestRequest 汇总写入请求
type IngestRequest struct {
	Summaries []models.RegistrySummary `json:"summaries" binding:"required"`
}

// GetSummary 获取仓库汇总
func (h *RegistrySummaryHandler) GetSummary(c *gin.Context) {
	summaries, err := h.queries.FetchSummary(c.Request.Context())
	if err != nil {
		logger.Error("获取仓库汇总失败", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "获取仓库汇总失败: " + err.Error(),
			"data":    nil,
		})
		return
	}

	st := h.queries.Cache().Peek(services.RegistrySummaryKey)
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "获取成功",
		"data": SummaryResponse{
			Summaries: summaries,
			Cards:     views.BuildCards(summaries),
			Stale:     st.Stale,
		},
	})
}

// IngestSummary 写入仓库汇总快照，并使缓存失效
func (h *RegistrySummaryHandler) IngestSummary(c *gin.Context) {
	if h.summaries == nil {
		c.JSON(http.StatusConflict, gin.H{
			"code":    409,
			"message": "当前汇总来源不支持写入",
			"data":    nil,
		})
		return
	}

	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "请求参数错误: " + err.Error(),
			"data":    nil,
		})
		return
	}

	if err := h.summaries.UpsertSnapshots(c.Request.Context(), req.Summaries); err != nil {
		c.Set("error_message", err.Error())
		if errors.Is(err, registry.ErrUnknownRegistryType) || errors.Is(err, services.ErrInvalidSummary) {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": err.Error(),
				"data":    nil,
			})
			return
		}
		logger.Error("写入仓库汇总失败", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "写入仓库汇总失败: " + err.Error(),
			"data":    nil,
		})
		return
	}

	h.queries.InvalidateSummary()

	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "写入成功",
		"data":    gin.H{"count": len(req.Summaries)},
	})
}

// RefreshSummary 强制重新获取汇总
func (h *RegistrySummaryHandler) RefreshSummary(c *gin.Context) {
	summaries, err := h.queries.RefreshSummary(c.Request.Context())
	if err != nil {
		c.Set("error_message", err.Error())
		logger.Error("刷新仓库汇总失败", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"code":    502,
			"message": "刷新仓库汇总失败: " + err.Error(),
			"data":    nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "刷新成功",
		"data": SummaryResponse{
			Summaries: summaries,
			Cards:     views.BuildCards(summaries),
		},
	})
}

// ListTypes 获取支持的仓库类型
func (h *RegistrySummaryHandler) ListTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "获取成功",
		"data":    registry.All(),
	})
}
