// Package views 将仓库汇总映射为页面视图模型，并提供页面模板
package views

import (
	"net/url"

	"github.com/clay-wangzhi/RegistryPolaris/internal/models"
	"github.com/clay-wangzhi/RegistryPolaris/internal/query"
	"github.com/clay-wangzhi/RegistryPolaris/internal/registry"
	"github.com/clay-wangzhi/RegistryPolaris/pkg/logger"
	"github.com/clay-wangzhi/RegistryPolaris/pkg/numfmt"
)

// SkeletonCount 加载中占位卡片数量
const SkeletonCount = 9

// ListPath 仓库列表片段地址
const ListPath = "/registries/list"

// Stat 卡片上的单个统计项
type Stat struct {
	Label string `json:"label"`
	Value string `json:"value"` // 缩写值，例如 1.5K
	Exact string `json:"exact"` // 千分位精确值，例如 1,500
	Count int64  `json:"count"`
}

// RegistryCard 单个仓库类型卡片
type RegistryCard struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Href  string `json:"href"`
	Known bool   `json:"known"`
	Stats []Stat `json:"stats"`
}

// SkeletonCard 占位卡片
type SkeletonCard struct {
	Index int
}

// TypeHref 仓库类型详情页地址
func TypeHref(t string) string {
	return "/registries/" + url.PathEscape(t)
}

// NewRegistryCard 将汇总记录映射为卡片，缺省计数按 0 展示
func NewRegistryCard(s models.RegistrySummary) RegistryCard {
	info, known := registry.Describe(s.Type)
	if !known {
		logger.Warn("未知的仓库类型，使用通用占位展示", "type", s.Type)
	}

	return RegistryCard{
		Type:  s.Type,
		Name:  info.Name,
		Icon:  info.Icon,
		Href:  TypeHref(s.Type),
		Known: known,
		Stats: []Stat{
			newStat("Registries", s.RegistryCount()),
			newStat("Images", s.ImageCount()),
			newStat("Tags", s.TagCount()),
		},
	}
}

func newStat(label string, n int64) Stat {
	return Stat{
		Label: label,
		Value: numfmt.Abbreviate(n),
		Exact: numfmt.Exact(n),
		Count: n,
	}
}

// BuildCards 按到达顺序为每条记录生成一张卡片
func BuildCards(summaries []models.RegistrySummary) []RegistryCard {
	cards := make([]RegistryCard, 0, len(summaries))
	for _, s := range summaries {
		cards = append(cards, NewRegistryCard(s))
	}
	return cards
}

// SkeletonCards 生成固定数量的占位卡片
func SkeletonCards() []SkeletonCard {
	cards := make([]SkeletonCard, SkeletonCount)
	for i := range cards {
		cards[i] = SkeletonCard{Index: i}
	}
	return cards
}

// Breadcrumb 面包屑
type Breadcrumb struct {
	Label string
	Href  string
	Icon  string
}

// RegistriesPage 仓库总览页
type RegistriesPage struct {
	Title       string
	Breadcrumbs []Breadcrumb
	// Pending 为 true 时展示占位卡片，并异步加载列表片段
	Pending  bool
	Stale    bool
	Cards    []RegistryCard
	Skeleton []SkeletonCard
	ListURL  string
}

// NewRegistriesPage 根据查询状态组装页面：从未获取成功时为 Pending，否则直接展示（可能已过期的）数据
func NewRegistriesPage(st query.State[[]models.RegistrySummary]) RegistriesPage {
	page := RegistriesPage{
		Title:       "Registries",
		Breadcrumbs: []Breadcrumb{{Label: "Registries", Href: "/registries", Icon: "registry"}},
		ListURL:     ListPath,
	}
	if st.Status != query.StatusResolved {
		page.Pending = true
		page.Skeleton = SkeletonCards()
		return page
	}
	page.Stale = st.Stale
	page.Cards = BuildCards(st.Data)
	return page
}

// RegistryList 列表片段
type RegistryList struct {
	Stale bool
	Cards []RegistryCard
}

// NewRegistryList 组装列表片段
func NewRegistryList(summaries []models.RegistrySummary, stale bool) RegistryList {
	return RegistryList{Stale: stale, Cards: BuildCards(summaries)}
}

// RegistryTypePage 单个仓库类型的详情页
type RegistryTypePage struct {
	Title       string
	Breadcrumbs []Breadcrumb
	Info        registry.Info
	Accounts    []*models.RegistryAccount
}

// NewRegistryTypePage 组装仓库类型详情页
func NewRegistryTypePage(info registry.Info, accounts []*models.RegistryAccount) RegistryTypePage {
	return RegistryTypePage{
		Title: info.Name,
		Breadcrumbs: []Breadcrumb{
			{Label: "Registries", Href: "/registries", Icon: "registry"},
			{Label: info.Name, Href: TypeHref(string(info.Type)), Icon: info.Icon},
		},
		Info:     info,
		Accounts: accounts,
	}
}

// NotFoundPage 404 页面
type NotFoundPage struct {
	Title       string
	Breadcrumbs []Breadcrumb
	Message     string
}

// NewNotFoundPage 组装 404 页面
func NewNotFoundPage(message string) NotFoundPage {
	return NotFoundPage{
		Title:       "Not Found",
		Breadcrumbs: []Breadcrumb{{Label: "Registries", Href: "/registries", Icon: "registry"}},
		Message:     message,
	}
}

// ErrorBlock 列表加载失败时展示的错误块
type ErrorBlock struct {
	Message  string
	RetryURL string
}
