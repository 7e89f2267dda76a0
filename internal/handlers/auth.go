package handlers

import (
	"net/http"
	"time"

	"github.com/clay-wangzhi/RegistryPolaris/internal/config"
	"github.com/clay-wangzhi/RegistryPolaris/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// adminUserID 配置中的管理员固定用户 ID
const adminUserID uint = 1

// AuthHandler 认证处理器
type AuthHandler struct {
	cfg *config.Config
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

// LoginRequest 登录请求结构
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应结构
type LoginResponse struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	ExpiresAt int64  `json:"expires_at"`
}

// Login 管理员登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "请求参数错误",
			"data":    nil,
		})
		return
	}

	// 未配置密码哈希时拒绝所有登录
	if h.cfg.Auth.AdminPasswordHash == "" || req.Username != h.cfg.Auth.AdminUsername {
		logger.Warnf("用户登录失败，用户名不存在: %s", req.Username)
		c.Set("error_message", "用户名或密码错误")
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    401,
			"message": "用户名或密码错误",
			"data":    nil,
		})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(h.cfg.Auth.AdminPasswordHash), []byte(req.Password)); err != nil {
		logger.Warnf("用户登录失败，密码错误: %s", req.Username)
		c.Set("error_message", "用户名或密码错误")
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    401,
			"message": "用户名或密码错误",
			"data":    nil,
		})
		return
	}

	// 生成JWT token
	expiresAt := time.Now().Add(time.Duration(h.cfg.JWT.ExpireTime) * time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  adminUserID,
		"username": req.Username,
		"exp":      expiresAt.Unix(),
	})

	tokenString, err := token.SignedString([]byte(h.cfg.JWT.Secret))
	if err != nil {
		logger.Errorf("JWT token生成失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "登录失败",
			"data":    nil,
		})
		return
	}

	// 审计中间件从上下文读取用户
	c.Set("user_id", adminUserID)
	c.Set("username", req.Username)

	logger.Infof("用户登录成功: %s", req.Username)

	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "登录成功",
		"data": LoginResponse{
			Token:     tokenString,
			Username:  req.Username,
			ExpiresAt: expiresAt.Unix(),
		},
	})
}

// GetProfile 获取当前用户
func (h *AuthHandler) GetProfile(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "获取成功",
		"data": gin.H{
			"user_id":  c.GetUint("user_id"),
			"username": c.GetString("username"),
		},
	})
}
