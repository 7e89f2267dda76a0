package handlers

import (
	"net/http"
	"strconv"

	"github.com/clay-wangzhi/RegistryPolaris/internal/services"

	"github.com/gin-gonic/gin"
)

// OperationLogHandler 操作日志处理器
type OperationLogHandler struct {
	opLogSvc *services.OperationLogService
}

// NewOperationLogHandler 创建操作日志处理器
func NewOperationLogHandler(opLogSvc *services.OperationLogService) *OperationLogHandler {
	return &OperationLogHandler{
		opLogSvc: opLogSvc,
	}
}

// GetOperationLogs 获取操作日志列表
func (h *OperationLogHandler) GetOperationLogs(c *gin.Context) {
	req := &services.OperationLogListRequest{
		Page:     getIntParam(c, "page", 1),
		PageSize: getIntParam(c, "pageSize", 20),
		Username: c.Query("username"),
		Module:   c.Query("module"),
		Action:   c.Query("action"),
	}

	// 解析成功/失败
	if successStr := c.Query("success"); successStr != "" {
		successVal := successStr == "true"
		req.Success = &successVal
	}

	resp, err := h.opLogSvc.List(req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "获取操作日志失败: " + err.Error(),
			"data":    nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "获取成功",
		"data":    resp,
	})
}

// getIntParam 获取整数参数
func getIntParam(c *gin.Context, key string, defaultValue int) int {
	if str := c.Query(key); str != "" {
		if val, err := strconv.Atoi(str); err == nil {
			return val
		}
	}
	return defaultValue
}
