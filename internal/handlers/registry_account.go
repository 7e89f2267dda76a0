package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/clay-wangzhi/RegistryPolaris/internal/models"
	"github.com/clay-wangzhi/RegistryPolaris/internal/registry"
	"github.com/clay-wangzhi/RegistryPolaris/internal/services"
	"github.com/clay-wangzhi/RegistryPolaris/pkg/logger"

	"github.com/gin-gonic/gin"
)

// RegistryAccountHandler 仓库账号处理器
type RegistryAccountHandler struct {
	accounts *services.RegistryAccountService
}

// NewRegistryAccountHandler 创建仓库账号处理器
func NewRegistryAccountHandler(accounts *services.RegistryAccountService) *RegistryAccountHandler {
	return &RegistryAccountHandler{accounts: accounts}
}

// CreateAccountRequest 创建账号请求
type CreateAccountRequest struct {
	Name         string `json:"name" binding:"required"`
	RegistryType string `json:"registry_type" binding:"required"`
	URL          string `json:"url"`
	Namespace    string `json:"namespace"`
	Description  string `json:"description"`
}

// ListAccounts 获取仓库账号列表，可按 type 过滤
func (h *RegistryAccountHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.accounts.ListAccounts(c.Request.Context(), c.Query("type"))
	if err != nil {
		if errors.Is(err, registry.ErrUnknownRegistryType) {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": err.Error(),
				"data":    nil,
			})
			return
		}
		logger.Error("获取仓库账号失败", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "获取仓库账号失败: " + err.Error(),
			"data":    nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "获取成功",
		"data": gin.H{
			"items": accounts,
			"total": len(accounts),
		},
	})
}

// CreateAccount 添加仓库账号
func (h *RegistryAccountHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "请求参数错误: " + err.Error(),
			"data":    nil,
		})
		return
	}

	account := &models.RegistryAccount{
		Name:         req.Name,
		RegistryType: req.RegistryType,
		URL:          req.URL,
		Namespace:    req.Namespace,
		Description:  req.Description,
	}
	if err := h.accounts.CreateAccount(c.Request.Context(), account); err != nil {
		c.Set("error_message", err.Error())
		switch {
		case errors.Is(err, registry.ErrUnknownRegistryType), errors.Is(err, services.ErrInvalidAccount):
			c.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": err.Error(), "data": nil})
		case errors.Is(err, services.ErrAccountExists):
			c.JSON(http.StatusConflict, gin.H{"code": 409, "message": err.Error(), "data": nil})
		default:
			logger.Error("添加仓库账号失败", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "添加仓库账号失败: " + err.Error(), "data": nil})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"code":    201,
		"message": "添加成功",
		"data":    account,
	})
}

// DeleteAccount 删除仓库账号
func (h *RegistryAccountHandler) DeleteAccount(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "无效的账号ID",
			"data":    nil,
		})
		return
	}

	if err := h.accounts.DeleteAccount(c.Request.Context(), uint(id)); err != nil {
		c.Set("error_message", err.Error())
		if errors.Is(err, services.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"code":    404,
				"message": err.Error(),
				"data":    nil,
			})
			return
		}
		logger.Error("删除仓库账号失败", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "删除仓库账号失败: " + err.Error(),
			"data":    nil,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "删除成功",
		"data":    nil,
	})
}
