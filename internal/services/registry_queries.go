package services

import (
	"context"

	"github.com/clay-wangzhi/RegistryPolaris/internal/models"
	"github.com/clay-wangzhi/RegistryPolaris/internal/query"
)

// RegistrySummaryKey 仓库汇总查询键
const RegistrySummaryKey = "registry.registrySummary"

// RegistryQueries 仓库相关查询的统一入口
type RegistryQueries struct {
	source SummarySource
	cache  *query.Cache[[]models.RegistrySummary]
}

// NewRegistryQueries 创建仓库查询
func NewRegistryQueries(source SummarySource, opts query.Options) *RegistryQueries {
	return &RegistryQueries{
		source: source,
		cache:  query.NewCache[[]models.RegistrySummary](opts),
	}
}

// Summary 仓库汇总查询定义，失效后保留旧数据
func (q *RegistryQueries) Summary() query.Query[[]models.RegistrySummary] {
	return query.Query[[]models.RegistrySummary]{
		Key:              RegistrySummaryKey,
		Fetch:            q.source.RegistrySummary,
		KeepPreviousData: true,
	}
}

// Cache 返回底层查询缓存
func (q *RegistryQueries) Cache() *query.Cache[[]models.RegistrySummary] {
	return q.cache
}

// PeekSummary 非阻塞读取汇总状态，过期时触发后台刷新
func (q *RegistryQueries) PeekSummary() query.State[[]models.RegistrySummary] {
	st := q.cache.Peek(RegistrySummaryKey)
	if st.Status == query.StatusResolved && st.Stale {
		q.cache.Revalidate(q.Summary())
	}
	return st
}

// PrefetchSummary 在后台开始获取汇总，不等待结果
func (q *RegistryQueries) PrefetchSummary() {
	q.cache.Revalidate(q.Summary())
}

// FetchSummary 获取汇总（无数据时阻塞等待）
func (q *RegistryQueries) FetchSummary(ctx context.Context) ([]models.RegistrySummary, error) {
	return q.cache.Fetch(ctx, q.Summary())
}

// RefreshSummary 强制刷新汇总并等待结果
func (q *RegistryQueries) RefreshSummary(ctx context.Context) ([]models.RegistrySummary, error) {
	return q.cache.Refetch(ctx, q.Summary())
}

// InvalidateSummary 标记汇总失效并在后台刷新
func (q *RegistryQueries) InvalidateSummary() {
	q.cache.Invalidate(RegistrySummaryKey)
	q.cache.Revalidate(q.Summary())
}

// SubscribeSummary 订阅汇总的新结果
func (q *RegistryQueries) SubscribeSummary() (<-chan []models.RegistrySummary, func()) {
	return q.cache.Subscribe(RegistrySummaryKey)
}
