package handlers

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryWS_PushesCards(t *testing.T) {
	source := &stubSource{summaries: sampleSummaries()}
	queries := newTestQueries(source)

	r := newTestEngine()
	r.GET("/ws/registries/summary", NewSummaryWSHandler(queries).Stream)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/registries/summary"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// 首条消息为 pending，随后推送获取到的卡片
	var msg summaryMessage
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "pending", msg.Type)

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "summary", msg.Type)
	require.Len(t, msg.Cards, 2)
	assert.Equal(t, "Docker Hub", msg.Cards[0].Name)
	assert.Equal(t, "1.5K", msg.Cards[0].Stats[1].Value)

	// 失效后推送新数据
	source.set(sampleSummaries()[:1], nil)
	queries.InvalidateSummary()

	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "summary", msg.Type)
	assert.Len(t, msg.Cards, 1)
}

func TestSummaryWS_ResolvedOnConnect(t *testing.T) {
	source := &stubSource{summaries: sampleSummaries()}
	queries := newTestQueries(source)
	_, err := queries.FetchSummary(context.Background())
	require.NoError(t, err)

	r := newTestEngine()
	r.GET("/ws/registries/summary", NewSummaryWSHandler(queries).Stream)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/registries/summary", nil)
	require.NoError(t, err)
	defer conn.Close()

	var msg summaryMessage
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "summary", msg.Type)
	assert.Len(t, msg.Cards, 2)
	assert.Equal(t, 1, source.callCount())
}
