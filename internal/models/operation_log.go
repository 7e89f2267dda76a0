package models

import "time"

// OperationLog 操作审计日志模型
type OperationLog struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       *uint     `json:"user_id" gorm:"index"`
	Username     string    `json:"username" gorm:"size:100;index"`
	Method       string    `json:"method" gorm:"size:10"`
	Path         string    `json:"path" gorm:"size:500"`
	Query        string    `json:"query" gorm:"size:1000"`
	Module       string    `json:"module" gorm:"size:50;index"`
	Action       string    `json:"action" gorm:"size:50;index"`
	ResourceType string    `json:"resource_type" gorm:"size:50"`
	ResourceName string    `json:"resource_name" gorm:"size:255"`
	RequestBody  string    `json:"request_body" gorm:"type:text"` // 已脱敏
	StatusCode   int       `json:"status_code"`
	Success      bool      `json:"success" gorm:"index"`
	ErrorMessage string    `json:"error_message" gorm:"type:text"`
	ClientIP     string    `json:"client_ip" gorm:"size:45"`
	UserAgent    string    `json:"user_agent" gorm:"size:500"`
	Duration     int64     `json:"duration"` // 毫秒
	CreatedAt    time.Time `json:"created_at" gorm:"index"`
}

// TableName 指定操作日志表名
func (OperationLog) TableName() string {
	return "operation_logs"
}
