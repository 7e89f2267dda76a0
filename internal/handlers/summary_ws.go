package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/clay-wangzhi/RegistryPolaris/internal/models"
	"github.com/clay-wangzhi/RegistryPolaris/internal/query"
	"github.com/clay-wangzhi/RegistryPolaris/internal/services"
	"github.com/clay-wangzhi/RegistryPolaris/internal/views"
	"github.com/clay-wangzhi/RegistryPolaris/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// SummaryWSHandler 仓库汇总推送处理器
type SummaryWSHandler struct {
	queries  *services.RegistryQueries
	upgrader websocket.Upgrader
}

// NewSummaryWSHandler 创建仓库汇总推送处理器
func NewSummaryWSHandler(queries *services.RegistryQueries) *SummaryWSHandler {
	return &SummaryWSHandler{
		queries: queries,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// summaryMessage 推送消息
type summaryMessage struct {
	Type      string               `json:"type"`
	ID        string               `json:"id,omitempty"`
	Timestamp string               `json:"timestamp,omitempty"`
	Stale     bool                 `json:"stale,omitempty"`
	Cards     []views.RegistryCard `json:"cards,omitempty"`
	Message   string               `json:"message,omitempty"`
}

func newCardsMessage(summaries []models.RegistrySummary, stale bool) summaryMessage {
	return summaryMessage{
		Type:      "summary",
		ID:        uuid.NewString(),
		Timestamp: time.Now().Format(time.RFC3339Nano),
		Stale:     stale,
		Cards:     views.BuildCards(summaries),
	}
}

// Stream 先推送当前汇总，之后每次获取到新数据都推送一次
func (h *SummaryWSHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("WebSocket升级失败", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	// 先订阅，避免错过首次获取的结果
	updates, unsubscribe := h.queries.SubscribeSummary()
	defer unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听客户端断开
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	st := h.queries.PeekSummary()
	if st.Status == query.StatusResolved {
		if err := conn.WriteJSON(newCardsMessage(st.Data, st.Stale)); err != nil {
			return
		}
	} else {
		_ = conn.WriteJSON(summaryMessage{Type: "pending", Message: "仓库汇总加载中"})
		h.queries.PrefetchSummary()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case summaries, ok := <-updates:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(newCardsMessage(summaries, false)); err != nil {
				logger.Debug("汇总推送失败，断开连接", "error", err)
				return
			}
		}
	}
}
