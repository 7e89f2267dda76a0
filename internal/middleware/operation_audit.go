package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/clay-wangzhi/RegistryPolaris/internal/constants"
	"github.com/clay-wangzhi/RegistryPolaris/internal/services"
	"github.com/clay-wangzhi/RegistryPolaris/pkg/logger"

	"github.com/gin-gonic/gin"
)

// routeRule 路由规则
type routeRule struct {
	Pattern           *regexp.Regexp
	Method            string // 为空时匹配任意方法
	Module            string
	Action            string
	ResourceType      string
	ResourceNameIndex int // -1 表示不提取
}

// 预编译的路由规则
var routeRules = []routeRule{
	{regexp.MustCompile(`^/api/v1/auth/login$`), "", constants.ModuleAuth, constants.ActionLogin, "user", -1},
	{regexp.MustCompile(`^/api/v1/registries/summary$`), http.MethodPut, constants.ModuleSummary, constants.ActionIngest, "registry_summary", -1},
	{regexp.MustCompile(`^/api/v1/registries/summary/refresh$`), "", constants.ModuleSummary, constants.ActionRefresh, "registry_summary", -1},
	{regexp.MustCompile(`^/api/v1/registries/accounts$`), http.MethodPost, constants.ModuleRegistry, constants.ActionCreate, "registry_account", -1},
	{regexp.MustCompile(`^/api/v1/registries/accounts/(\d+)$`), http.MethodDelete, constants.ModuleRegistry, constants.ActionDelete, "registry_account", 1},
}

// OperationAudit 操作审计中间件，只记录写操作
func OperationAudit(logSvc *services.OperationLogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/healthz") || strings.HasPrefix(path, "/readyz") || strings.HasPrefix(path, "/ws/") {
			c.Next()
			return
		}

		startTime := time.Now()

		// 读取并缓存请求体
		var requestBody interface{}
		if c.Request.Body != nil && c.Request.ContentLength > 0 {
			bodyBytes, err := io.ReadAll(c.Request.Body)
			if err == nil && len(bodyBytes) > 0 {
				c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
				_ = json.Unmarshal(bodyBytes, &requestBody)
			}
		}

		c.Next()

		module, action, resourceType, resourceName := parseRoute(c.Request.Method, path)

		var userID *uint
		if uid := c.GetUint("user_id"); uid > 0 {
			userID = &uid
		}
		username := c.GetString("username")

		entry := &services.LogEntry{
			UserID:       userID,
			Username:     username,
			Method:       c.Request.Method,
			Path:         path,
			Query:        c.Request.URL.RawQuery,
			Module:       module,
			Action:       action,
			ResourceType: resourceType,
			ResourceName: resourceName,
			RequestBody:  requestBody,
			StatusCode:   c.Writer.Status(),
			Success:      c.Writer.Status() < 400,
			ErrorMessage: c.GetString("error_message"),
			ClientIP:     c.ClientIP(),
			UserAgent:    c.Request.UserAgent(),
			Duration:     time.Since(startTime).Milliseconds(),
		}

		logSvc.RecordAsync(entry)

		logger.Debug("操作审计记录",
			"module", module,
			"action", action,
			"path", path,
			"user", username,
			"success", entry.Success)
	}
}

// parseRoute 从路由解析操作信息
func parseRoute(method, path string) (module, action, resourceType, resourceName string) {
	for _, rule := range routeRules {
		if rule.Method != "" && rule.Method != method {
			continue
		}
		matches := rule.Pattern.FindStringSubmatch(path)
		if matches == nil {
			continue
		}
		if rule.ResourceNameIndex > 0 && rule.ResourceNameIndex < len(matches) {
			resourceName = matches[rule.ResourceNameIndex]
		}
		return rule.Module, rule.Action, rule.ResourceType, resourceName
	}

	return constants.ModuleUnknown, methodToAction(method), "unknown", ""
}

// methodToAction 根据 HTTP 方法返回操作
func methodToAction(method string) string {
	switch method {
	case http.MethodPost:
		return constants.ActionCreate
	case http.MethodPut, http.MethodPatch:
		return constants.ActionUpdate
	case http.MethodDelete:
		return constants.ActionDelete
	default:
		return strings.ToLower(method)
	}
}
