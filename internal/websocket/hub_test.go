package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ikkim/coupang-partners-backend/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHubServer(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub()
	go hub.Run()
	t.Cleanup(func() { hub.Close() })

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, &Conn{Conn: conn}, "admin")
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	}))
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, hub *Hub, url string, want int) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return hub.ClientCount() == want }, time.Second, 10*time.Millisecond)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) events.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var evt events.Event
	require.NoError(t, json.Unmarshal(data, &evt))
	return evt
}

func TestHub_BroadcastsEvents(t *testing.T) {
	hub, url := startHubServer(t)
	first := dial(t, hub, url, 1)
	second := dial(t, hub, url, 2)

	err := hub.Publish(context.Background(), events.New(events.PostPublished, "7", map[string]interface{}{"post_id": 7}))
	require.NoError(t, err)

	for _, conn := range []*websocket.Conn{first, second} {
		evt := readEvent(t, conn)
		assert.Equal(t, events.PostPublished, evt.Type)
		assert.Equal(t, "7", evt.Subject)
	}
}

func readReply(t *testing.T, conn *websocket.Conn) Reply {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var reply Reply
	require.NoError(t, conn.ReadJSON(&reply))
	return reply
}

func TestHub_SubscribeFiltersByTopic(t *testing.T) {
	hub, url := startHubServer(t)
	conn := dial(t, hub, url, 1)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MessageSubscribe, Topics: []string{"budget", " "}}))
	reply := readReply(t, conn)
	assert.Equal(t, ReplyTopics, reply.Type)
	assert.Equal(t, []string{"budget"}, reply.Topics)

	require.NoError(t, hub.Publish(context.Background(), events.New(events.PostPublished, "1", nil)))
	require.NoError(t, hub.Publish(context.Background(), events.New(events.BudgetRejected, "small", nil)))

	evt := readEvent(t, conn)
	assert.Equal(t, events.BudgetRejected, evt.Type)

	// 필터를 지우면 다시 모든 이벤트를 받는다
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MessageUnsubscribe}))
	assert.Empty(t, readReply(t, conn).Topics)

	require.NoError(t, hub.Publish(context.Background(), events.New(events.PostPublished, "2", nil)))
	evt = readEvent(t, conn)
	assert.Equal(t, events.PostPublished, evt.Type)
	assert.Equal(t, "2", evt.Subject)
}

func TestHub_RepliesToBadMessages(t *testing.T) {
	hub, url := startHubServer(t)
	conn := dial(t, hub, url, 1)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	reply := readReply(t, conn)
	assert.Equal(t, ReplyError, reply.Type)
	assert.Equal(t, "invalid_json", reply.Error)

	// 잘못된 메시지 뒤에도 연결은 유지된다
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MessageSubscribe, Topics: []string{"post"}}))
	assert.Equal(t, []string{"post"}, readReply(t, conn).Topics)
	assert.Equal(t, 1, hub.ClientCount())
}

func TestHub_UnregisterOnDisconnect(t *testing.T) {
	hub, url := startHubServer(t)
	conn := dial(t, hub, url, 1)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestClient_Wants(t *testing.T) {
	client := NewClient(NewHub(), nil, "admin")
	assert.True(t, client.Wants(events.PostDrafted))

	client.topics.Add("post")
	assert.True(t, client.Wants("post.drafted"))
	assert.True(t, client.Wants("post"))
	assert.False(t, client.Wants("postal.x"))
	assert.False(t, client.Wants(events.BudgetRejected))
}

func TestClient_Handle(t *testing.T) {
	tests := []struct {
		name       string
		start      []string
		message    string
		wantType   string
		wantError  string
		wantTopics []string
	}{
		{"subscribe merges", []string{"post"}, `{"type":"subscribe","topics":["budget","post"]}`, ReplyTopics, "", []string{"budget", "post"}},
		{"type is case insensitive", nil, `{"type":"SUBSCRIBE","topics":["keyword"]}`, ReplyTopics, "", []string{"keyword"}},
		{"unsubscribe one", []string{"post", "budget"}, `{"type":"unsubscribe","topics":["post"]}`, ReplyTopics, "", []string{"budget"}},
		{"unsubscribe all", []string{"post", "budget"}, `{"type":"unsubscribe"}`, ReplyTopics, "", []string{}},
		{"subscribe needs topics", []string{"post"}, `{"type":"subscribe","topics":[""]}`, ReplyError, "topics_required", []string{"post"}},
		{"unknown type", nil, `{"type":"publish","topics":["post"]}`, ReplyError, "unknown_type", []string{}},
		{"invalid json", nil, `{"type":`, ReplyError, "invalid_json", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(NewHub(), nil, "admin")
			for _, topic := range tt.start {
				client.topics.Add(topic)
			}

			reply := client.handle([]byte(tt.message))
			assert.Equal(t, tt.wantType, reply.Type)
			assert.Equal(t, tt.wantError, reply.Error)
			assert.ElementsMatch(t, tt.wantTopics, reply.Topics)
			assert.ElementsMatch(t, tt.wantTopics, client.Topics())
		})
	}
}

func TestClient_ReplyAfterCloseIsDropped(t *testing.T) {
	client := NewClient(NewHub(), nil, "admin")
	client.closeSend()

	assert.NotPanics(t, func() { client.reply(Reply{Type: ReplyTopics}) })
	assert.False(t, client.enqueue([]byte("x")))
}

func TestRateWindow(t *testing.T) {
	w := rateWindow{limit: 2, size: time.Second}
	start := time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, w.allow(start))
	assert.True(t, w.allow(start.Add(100*time.Millisecond)))
	assert.False(t, w.allow(start.Add(900*time.Millisecond)))
	assert.True(t, w.allow(start.Add(time.Second)))
}
