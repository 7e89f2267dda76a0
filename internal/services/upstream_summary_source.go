package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/clay-wangzhi/RegistryPolaris/internal/models"
	"github.com/clay-wangzhi/RegistryPolaris/pkg/logger"
)

// UpstreamSummarySource 从上游控制台 API 读取按类型汇总的仓库统计
type UpstreamSummarySource struct {
	url        string
	token      string
	httpClient *http.Client
}

// upstreamCounts 上游返回的单个类型计数，字段可缺省
type upstreamCounts struct {
	Registries *int64 `json:"registries"`
	Images     *int64 `json:"images"`
	Tags       *int64 `json:"tags"`
}

// NewUpstreamSummarySource 创建上游汇总来源
func NewUpstreamSummarySource(url, token string, timeout time.Duration) *UpstreamSummarySource {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &UpstreamSummarySource{
		url:   strings.TrimSpace(url),
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// RegistrySummary 请求上游汇总。上游返回 {type: {registries, images, tags}}，
// 也兼容 {code, message, data: {...}} 包装格式。
func (s *UpstreamSummarySource) RegistrySummary(ctx context.Context) ([]models.RegistrySummary, error) {
	if s.url == "" {
		return nil, fmt.Errorf("未配置上游汇总地址")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("创建上游请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求上游汇总失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取上游响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		logger.Warn("上游汇总返回异常状态", "status", resp.StatusCode, "url", s.url)
		return nil, fmt.Errorf("上游汇总返回状态码 %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	counts, err := decodeUpstreamSummary(body)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.RegistrySummary, 0, len(counts))
	for t, c := range counts {
		if negative(c.Registries) || negative(c.Images) || negative(c.Tags) {
			return nil, fmt.Errorf("%w: 上游返回的 %s 计数为负数", ErrInvalidSummary, t)
		}
		summaries = append(summaries, models.RegistrySummary{
			Type:       t,
			Registries: c.Registries,
			Images:     c.Images,
			Tags:       c.Tags,
		})
	}
	return completeAndSort(summaries), nil
}

func decodeUpstreamSummary(body []byte) (map[string]upstreamCounts, error) {
	var envelope struct {
		Code int                       `json:"code"`
		Data map[string]upstreamCounts `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Data != nil {
		return envelope.Data, nil
	}

	var counts map[string]upstreamCounts
	if err := json.Unmarshal(body, &counts); err != nil {
		return nil, fmt.Errorf("解析上游汇总失败: %w", err)
	}
	return counts, nil
}

func negative(v *int64) bool {
	return v != nil && *v < 0
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
