package services

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/clay-wangzhi/RegistryPolaris/internal/models"
	"github.com/clay-wangzhi/RegistryPolaris/pkg/logger"

	"gorm.io/gorm"
)

// OperationLogService 操作审计日志服务
type OperationLogService struct {
	db *gorm.DB
}

// NewOperationLogService 创建操作审计日志服务
func NewOperationLogService(db *gorm.DB) *OperationLogService {
	return &OperationLogService{db: db}
}

// LogEntry 日志条目（用于记录）
type LogEntry struct {
	UserID       *uint
	Username     string
	Method       string
	Path         string
	Query        string
	Module       string
	Action       string
	ResourceType string
	ResourceName string
	RequestBody  interface{}
	StatusCode   int
	Success      bool
	ErrorMessage string
	ClientIP     string
	UserAgent    string
	Duration     int64
}

// Record 记录操作日志
func (s *OperationLogService) Record(entry *LogEntry) error {
	log := &models.OperationLog{
		UserID:       entry.UserID,
		Username:     entry.Username,
		Method:       entry.Method,
		Path:         entry.Path,
		Query:        entry.Query,
		Module:       entry.Module,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceName: entry.ResourceName,
		RequestBody:  sanitizeAndMarshal(entry.RequestBody),
		StatusCode:   entry.StatusCode,
		Success:      entry.Success,
		ErrorMessage: entry.ErrorMessage,
		ClientIP:     entry.ClientIP,
		UserAgent:    entry.UserAgent,
		Duration:     entry.Duration,
		CreatedAt:    time.Now(),
	}

	if err := s.db.Create(log).Error; err != nil {
		logger.Error("记录操作日志失败", "error", err)
		return err
	}
	return nil
}

// RecordAsync 异步记录操作日志（不阻塞请求）
func (s *OperationLogService) RecordAsync(entry *LogEntry) {
	go func() {
		if err := s.Record(entry); err != nil {
			logger.Error("异步记录操作日志失败", "error", err, "path", entry.Path, "action", entry.Action)
		}
	}()
}

// sensitiveKeys 敏感字段
var sensitiveKeys = []string{
	"password",
	"token",
	"secret",
	"credential",
	"api_key",
	"apikey",
	"authorization",
	"private",
}

// sanitizeAndMarshal 脱敏并序列化请求体
func sanitizeAndMarshal(body interface{}) string {
	if body == nil {
		return ""
	}

	result, err := json.Marshal(sanitizeValue(body))
	if err != nil {
		return ""
	}

	// 限制长度，避免存储过大
	if len(result) > 4000 {
		return string(result[:4000]) + "...(truncated)"
	}
	return string(result)
}

// sanitizeValue 递归脱敏 JSON 解码后的值
func sanitizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(val))
		for k, item := range val {
			if isSensitiveKey(k) {
				result[k] = "***REDACTED***"
			} else {
				result[k] = sanitizeValue(item)
			}
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(val))
		for i, item := range val {
			result[i] = sanitizeValue(item)
		}
		return result
	default:
		return v
	}
}

func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, word := range sensitiveKeys {
		if strings.Contains(lowerKey, word) {
			return true
		}
	}
	return false
}

// OperationLogListRequest 操作日志列表请求
type OperationLogListRequest struct {
	Page     int
	PageSize int
	Username string
	Module   string
	Action   string
	Success  *bool
}

// OperationLogListResponse 操作日志列表响应
type OperationLogListResponse struct {
	Items    []models.OperationLog `json:"items"`
	Total    int64                 `json:"total"`
	Page     int                   `json:"page"`
	PageSize int                   `json:"pageSize"`
}

// List 获取操作日志列表
func (s *OperationLogService) List(req *OperationLogListRequest) (*OperationLogListResponse, error) {
	query := s.db.Model(&models.OperationLog{})

	if req.Username != "" {
		query = query.Where("username LIKE ?", "%"+req.Username+"%")
	}
	if req.Module != "" {
		query = query.Where("module = ?", req.Module)
	}
	if req.Action != "" {
		query = query.Where("action = ?", req.Action)
	}
	if req.Success != nil {
		query = query.Where("success = ?", *req.Success)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 || req.PageSize > 200 {
		req.PageSize = 20
	}
	offset := (req.Page - 1) * req.PageSize

	var logs []models.OperationLog
	if err := query.Order("created_at DESC").Offset(offset).Limit(req.PageSize).Find(&logs).Error; err != nil {
		return nil, err
	}

	return &OperationLogListResponse{
		Items:    logs,
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
	}, nil
}
