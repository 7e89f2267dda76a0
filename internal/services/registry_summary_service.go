package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/clay-wangzhi/RegistryPolaris/internal/models"
	"github.com/clay-wangzhi/RegistryPolaris/internal/registry"
	"github.com/clay-wangzhi/RegistryPolaris/pkg/logger"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SummarySource 仓库汇总数据来源，返回有序的汇总记录
type SummarySource interface {
	RegistrySummary(ctx context.Context) ([]models.RegistrySummary, error)
}

// ErrInvalidSummary 汇总记录不合法（类型重复或计数为负）
var ErrInvalidSummary = errors.New("仓库汇总记录不合法")

// RegistrySummaryService 基于数据库快照表的汇总服务
type RegistrySummaryService struct {
	db *gorm.DB
}

// NewRegistrySummaryService 创建汇总服务
func NewRegistrySummaryService(db *gorm.DB) *RegistrySummaryService {
	return &RegistrySummaryService{db: db}
}

// RegistrySummary 读取快照表，目录中的每个类型都会出现（无快照时计数为空）
func (s *RegistrySummaryService) RegistrySummary(ctx context.Context) ([]models.RegistrySummary, error) {
	var snapshots []models.RegistrySummarySnapshot
	if err := s.db.WithContext(ctx).Find(&snapshots).Error; err != nil {
		logger.Error("获取仓库汇总失败", "error", err)
		return nil, fmt.Errorf("获取仓库汇总失败: %w", err)
	}

	summaries := make([]models.RegistrySummary, 0, len(snapshots))
	for _, snap := range snapshots {
		summaries = append(summaries, snap.ToSummary())
	}
	return completeAndSort(summaries), nil
}

// UpsertSnapshots 写入外部聚合流程计算好的汇总快照
func (s *RegistrySummaryService) UpsertSnapshots(ctx context.Context, summaries []models.RegistrySummary) error {
	if len(summaries) == 0 {
		return nil
	}

	now := time.Now()
	seen := make(map[string]bool, len(summaries))
	snapshots := make([]models.RegistrySummarySnapshot, 0, len(summaries))
	for _, sum := range summaries {
		if err := registry.Validate(sum.Type); err != nil {
			return err
		}
		if seen[sum.Type] {
			return fmt.Errorf("%w: 仓库类型重复 %s", ErrInvalidSummary, sum.Type)
		}
		if sum.RegistryCount() < 0 || sum.ImageCount() < 0 || sum.TagCount() < 0 {
			return fmt.Errorf("%w: %s 计数不能为负", ErrInvalidSummary, sum.Type)
		}
		seen[sum.Type] = true
		snapshots = append(snapshots, models.RegistrySummarySnapshot{
			RegistryType: sum.Type,
			Registries:   sum.Registries,
			Images:       sum.Images,
			Tags:         sum.Tags,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "registry_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"registries", "images", "tags", "updated_at"}),
	}).Create(&snapshots).Error
	if err != nil {
		logger.Error("写入仓库汇总快照失败", "error", err)
		return fmt.Errorf("写入仓库汇总快照失败: %w", err)
	}

	logger.Info("仓库汇总快照已更新", "count", len(snapshots))
	return nil
}

// completeAndSort 补齐目录中缺失的类型，并按目录顺序排序，未知类型按标识排在最后
func completeAndSort(summaries []models.RegistrySummary) []models.RegistrySummary {
	present := make(map[string]bool, len(summaries))
	for _, s := range summaries {
		present[s.Type] = true
	}
	for _, info := range registry.All() {
		if !present[string(info.Type)] {
			summaries = append(summaries, models.RegistrySummary{Type: string(info.Type)})
		}
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		oi, oj := registry.Order(summaries[i].Type), registry.Order(summaries[j].Type)
		if oi != oj {
			return oi < oj
		}
		return summaries[i].Type < summaries[j].Type
	})
	return summaries
}
