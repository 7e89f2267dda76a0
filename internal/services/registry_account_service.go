package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clay-wangzhi/RegistryPolaris/internal/models"
	"github.com/clay-wangzhi/RegistryPolaris/internal/registry"
	"github.com/clay-wangzhi/RegistryPolaris/pkg/logger"

	"gorm.io/gorm"
)

var (
	// ErrAccountNotFound 仓库不存在
	ErrAccountNotFound = errors.New("镜像仓库不存在")
	// ErrAccountExists 同类型下仓库名称已存在
	ErrAccountExists = errors.New("镜像仓库已存在")
	// ErrInvalidAccount 仓库参数不合法
	ErrInvalidAccount = errors.New("镜像仓库参数不合法")
)

// RegistryAccountService 已配置镜像仓库的管理服务
type RegistryAccountService struct {
	db *gorm.DB
}

// NewRegistryAccountService 创建仓库管理服务
func NewRegistryAccountService(db *gorm.DB) *RegistryAccountService {
	return &RegistryAccountService{db: db}
}

// CreateAccount 添加镜像仓库
func (s *RegistryAccountService) CreateAccount(ctx context.Context, account *models.RegistryAccount) error {
	account.Name = strings.TrimSpace(account.Name)
	if account.Name == "" {
		return fmt.Errorf("%w: 仓库名称不能为空", ErrInvalidAccount)
	}
	if err := registry.Validate(account.RegistryType); err != nil {
		return err
	}

	// 唯一索引同样覆盖已软删除的记录，需连同已删除记录一起检查
	var existing models.RegistryAccount
	if err := s.db.WithContext(ctx).Unscoped().
		Where("registry_type = ? AND name = ?", account.RegistryType, account.Name).
		Limit(1).Find(&existing).Error; err != nil {
		return fmt.Errorf("检查仓库是否存在失败: %w", err)
	}
	if existing.ID != 0 && !existing.DeletedAt.Valid {
		return fmt.Errorf("%w: %s/%s", ErrAccountExists, account.RegistryType, account.Name)
	}

	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	account.DeletedAt = gorm.DeletedAt{}

	if existing.ID != 0 {
		// 恢复已删除的同名仓库
		account.ID = existing.ID
		err := s.db.WithContext(ctx).Unscoped().Model(&models.RegistryAccount{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"url":         account.URL,
				"namespace":   account.Namespace,
				"description": account.Description,
				"created_at":  now,
				"updated_at":  now,
				"deleted_at":  nil,
			}).Error
		if err != nil {
			logger.Error("恢复镜像仓库失败", "id", existing.ID, "error", err)
			return fmt.Errorf("添加镜像仓库失败: %w", err)
		}
		logger.Info("镜像仓库已恢复", "id", account.ID, "type", account.RegistryType, "name", account.Name)
		return nil
	}

	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		logger.Error("添加镜像仓库失败", "error", err)
		return fmt.Errorf("添加镜像仓库失败: %w", err)
	}

	logger.Info("镜像仓库添加成功", "id", account.ID, "type", account.RegistryType, "name", account.Name)
	return nil
}

// GetAccount 获取单个镜像仓库
func (s *RegistryAccountService) GetAccount(ctx context.Context, id uint) (*models.RegistryAccount, error) {
	var account models.RegistryAccount
	if err := s.db.WithContext(ctx).First(&account, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrAccountNotFound, id)
		}
		return nil, fmt.Errorf("获取镜像仓库失败: %w", err)
	}
	return &account, nil
}

// ListAccounts 列出镜像仓库，registryType 为空时返回全部
func (s *RegistryAccountService) ListAccounts(ctx context.Context, registryType string) ([]*models.RegistryAccount, error) {
	query := s.db.WithContext(ctx).Model(&models.RegistryAccount{})
	if registryType != "" {
		if err := registry.Validate(registryType); err != nil {
			return nil, err
		}
		query = query.Where("registry_type = ?", registryType)
	}

	var accounts []*models.RegistryAccount
	if err := query.Order("name ASC").Find(&accounts).Error; err != nil {
		logger.Error("获取镜像仓库列表失败", "error", err)
		return nil, fmt.Errorf("获取镜像仓库列表失败: %w", err)
	}
	return accounts, nil
}

// DeleteAccount 删除镜像仓库
func (s *RegistryAccountService) DeleteAccount(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Delete(&models.RegistryAccount{}, id)
	if result.Error != nil {
		return fmt.Errorf("删除镜像仓库失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %d", ErrAccountNotFound, id)
	}

	logger.Info("镜像仓库删除成功", "id", id)
	return nil
}
