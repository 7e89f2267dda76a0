package handlers

import (
	"net/http"
	"strings"

	"github.com/clay-wangzhi/RegistryPolaris/internal/query"
	"github.com/clay-wangzhi/RegistryPolaris/internal/registry"
	"github.com/clay-wangzhi/RegistryPolaris/internal/services"
	"github.com/clay-wangzhi/RegistryPolaris/internal/views"
	"github.com/clay-wangzhi/RegistryPolaris/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RegistryPageHandler 仓库页面处理器
type RegistryPageHandler struct {
	queries  *services.RegistryQueries
	accounts *services.RegistryAccountService
}

// NewRegistryPageHandler 创建仓库页面处理器
func NewRegistryPageHandler(queries *services.RegistryQueries, accounts *services.RegistryAccountService) *RegistryPageHandler {
	return &RegistryPageHandler{
		queries:  queries,
		accounts: accounts,
	}
}

// Index 仓库总览页
// 已有数据时直接渲染（过期数据同时触发后台刷新），否则渲染占位卡片并由列表片段异步加载
func (h *RegistryPageHandler) Index(c *gin.Context) {
	st := h.queries.PeekSummary()
	if st.Status == query.StatusPending {
		h.queries.PrefetchSummary()
	}
	c.HTML(http.StatusOK, "registries_page", views.NewRegistriesPage(st))
}

// List 仓库列表片段，等待首次获取完成
func (h *RegistryPageHandler) List(c *gin.Context) {
	summaries, err := h.queries.FetchSummary(c.Request.Context())
	if err != nil {
		logger.Error("获取仓库汇总失败", "error", err)
		// 片段请求返回 200，保证错误块能替换占位卡片
		status := http.StatusInternalServerError
		if isHTMXRequest(c.Request) {
			status = http.StatusOK
		}
		c.HTML(status, "registry_error", views.ErrorBlock{
			Message:  "Failed to load registries",
			RetryURL: views.ListPath,
		})
		return
	}

	st := h.queries.Cache().Peek(services.RegistrySummaryKey)
	c.HTML(http.StatusOK, "registry_list", views.NewRegistryList(summaries, st.Stale))
}

// TypeDetail 单个仓库类型详情页
func (h *RegistryPageHandler) TypeDetail(c *gin.Context) {
	t := c.Param("type")
	info, err := registry.Lookup(t)
	if err != nil {
		c.HTML(http.StatusNotFound, "not_found_page", views.NewNotFoundPage("Unknown registry type: "+t))
		return
	}

	accounts, err := h.accounts.ListAccounts(c.Request.Context(), t)
	if err != nil {
		logger.Error("获取仓库账号失败", "type", t, "error", err)
		c.HTML(http.StatusInternalServerError, "registry_error", views.ErrorBlock{
			Message:  "Failed to load registry accounts",
			RetryURL: views.TypeHref(t),
		})
		return
	}

	c.HTML(http.StatusOK, "registry_type_page", views.NewRegistryTypePage(info, accounts))
}

// isHTMXRequest 判断是否为页面发起的片段请求
func isHTMXRequest(r *http.Request) bool {
	return r != nil && strings.EqualFold(r.Header.Get("HX-Request"), "true")
}
