package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/clay-wangzhi/RegistryPolaris/internal/config"
	"github.com/clay-wangzhi/RegistryPolaris/internal/middleware"
)

// AuthHandlerTestSuite 定义认证处理器测试套件
type AuthHandlerTestSuite struct {
	suite.Suite
	router *gin.Engine
}

// SetupTest 每个测试前的设置
func (s *AuthHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	s.Require().NoError(err)

	cfg := &config.Config{
		JWT: config.JWTConfig{
			Secret:     "test-secret-key-for-unit-tests-only",
			ExpireTime: 24,
		},
		Auth: config.AuthConfig{
			AdminUsername:     "admin",
			AdminPasswordHash: string(hash),
		},
	}

	handler := NewAuthHandler(cfg)
	s.router = gin.New()
	s.router.POST("/api/v1/auth/login", handler.Login)
	s.router.GET("/api/v1/auth/profile", middleware.AuthRequired(cfg.JWT.Secret), handler.GetProfile)
}

func (s *AuthHandlerTestSuite) login(username, password string) (*httptest.ResponseRecorder, map[string]interface{}) {
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

// TestLogin_EmptyCredentials 测试空凭据登录
func (s *AuthHandlerTestSuite) TestLogin_EmptyCredentials() {
	w, resp := s.login("", "")
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	assert.Equal(s.T(), float64(400), resp["code"])
}

// TestLogin_WrongPassword 测试密码错误
func (s *AuthHandlerTestSuite) TestLogin_WrongPassword() {
	w, resp := s.login("admin", "nope")
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
	assert.Equal(s.T(), "用户名或密码错误", resp["message"])
}

// TestLogin_UnknownUser 测试用户名不存在
func (s *AuthHandlerTestSuite) TestLogin_UnknownUser() {
	w, _ := s.login("root", "s3cret")
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

// TestLogin_Success 登录后可使用令牌访问受保护接口
func (s *AuthHandlerTestSuite) TestLogin_Success() {
	w, resp := s.login("admin", "s3cret")
	s.Require().Equal(http.StatusOK, w.Code)

	data := resp["data"].(map[string]interface{})
	token, _ := data["token"].(string)
	s.Require().NotEmpty(token)

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/auth/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(s.T(), http.StatusOK, w.Code)

	var profile map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(s.T(), "admin", profile["data"].(map[string]interface{})["username"])
}

// TestProfile_NoToken 测试缺少令牌
func (s *AuthHandlerTestSuite) TestProfile_NoToken() {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/auth/profile", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

// TestLogin_NoPasswordConfigured 未配置密码时拒绝登录
func TestLogin_NoPasswordConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Auth: config.AuthConfig{AdminUsername: "admin"}}
	r := gin.New()
	r.POST("/login", NewAuthHandler(cfg).Login)

	req, _ := http.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(`{"username":"admin","password":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestAuthHandlerSuite 运行测试套件
func TestAuthHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerTestSuite))
}
