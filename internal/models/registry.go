package models

import (
	"time"

	"gorm.io/gorm"
)

// RegistrySummary 单个仓库类型的汇总记录（由外部聚合流程预先计算）
// 计数字段可缺省，缺省时按 0 展示
type RegistrySummary struct {
	Type       string `json:"type"`
	Registries *int64 `json:"registries,omitempty"`
	Images     *int64 `json:"images,omitempty"`
	Tags       *int64 `json:"tags,omitempty"`
}

// RegistryCount 返回仓库数，缺省为 0
func (s RegistrySummary) RegistryCount() int64 { return deref(s.Registries) }

// ImageCount 返回镜像数，缺省为 0
func (s RegistrySummary) ImageCount() int64 { return deref(s.Images) }

// TagCount 返回标签数，缺省为 0
func (s RegistrySummary) TagCount() int64 { return deref(s.Tags) }

func deref(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

// Int64Ptr 便捷构造计数指针
func Int64Ptr(v int64) *int64 { return &v }

// RegistrySummarySnapshot 汇总快照表，每个仓库类型一行
type RegistrySummarySnapshot struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	RegistryType string    `json:"registry_type" gorm:"uniqueIndex;not null;size:64"`
	Registries   *int64    `json:"registries"`
	Images       *int64    `json:"images"`
	Tags         *int64    `json:"tags"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName 指定汇总快照表名
func (RegistrySummarySnapshot) TableName() string {
	return "registry_summaries"
}

// ToSummary 转换为汇总记录
func (s RegistrySummarySnapshot) ToSummary() RegistrySummary {
	return RegistrySummary{
		Type:       s.RegistryType,
		Registries: s.Registries,
		Images:     s.Images,
		Tags:       s.Tags,
	}
}

// RegistryAccount 已配置的镜像仓库（不保存任何凭据）
type RegistryAccount struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Name         string         `json:"name" gorm:"not null;size:100;uniqueIndex:idx_registry_type_name"`
	RegistryType string         `json:"registry_type" gorm:"not null;size:64;uniqueIndex:idx_registry_type_name"`
	URL          string         `json:"url" gorm:"size:255"`
	Namespace    string         `json:"namespace" gorm:"size:255"`
	Description  string         `json:"description" gorm:"size:500"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName 指定仓库表名
func (RegistryAccount) TableName() string {
	return "registry_accounts"
}
