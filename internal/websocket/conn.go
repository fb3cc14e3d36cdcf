package websocket

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ikkim/coupang-partners-backend/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// 구독 메시지만 받으므로 작게
	maxMessageSize = 4 * 1024

	// 초당 처리하는 구독 메시지 수
	maxMessagesPerSecond = 10
)

// 대시보드 → 서버 메시지 유형
const (
	MessageSubscribe   = "subscribe"
	MessageUnsubscribe = "unsubscribe"
)

// 서버 → 대시보드 응답 유형 (이벤트 유형과 겹치지 않게 점이 없다)
const (
	ReplyTopics = "topics"
	ReplyError  = "error"
)

// ClientMessage 대시보드가 보내는 구독 메시지
// {"type":"subscribe","topics":["post","budget"]} 처럼 이벤트 유형 접두어로 필터
// unsubscribe 에 topics 가 없으면 필터를 모두 지운다
type ClientMessage struct {
	Type   string   `json:"type"`
	Topics []string `json:"topics"`
}

// Reply 구독 메시지 처리 결과. 성공하면 현재 구독 목록을 돌려준다
type Reply struct {
	Type   string   `json:"type"`
	Topics []string `json:"topics"`
	Error  string   `json:"error,omitempty"`
}

// Conn 대시보드 세션 소켓
type Conn struct {
	*websocket.Conn
}

// ReadPump 구독 프로토콜을 처리하고 연결이 끊기면 허브에서 해제한다
// 응답은 Send 큐로 보내 WritePump 만 소켓에 쓴다
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	limiter := rateWindow{limit: maxMessagesPerSecond, size: time.Second}
	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Error("WebSocket read error", err, map[string]interface{}{
					"username": c.Username,
				})
			}
			return
		}

		if !limiter.allow(time.Now()) {
			logger.Warn("Subscription messages rate limited", map[string]interface{}{
				"username": c.Username,
			})
			c.reply(Reply{Type: ReplyError, Error: "rate_limited"})
			continue
		}
		c.reply(c.handle(data))
	}
}

// handle 메시지 하나를 구독 상태에 반영
func (c *Client) handle(data []byte) Reply {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return Reply{Type: ReplyError, Error: "invalid_json", Topics: c.Topics()}
	}

	topics := cleanTopics(msg.Topics)
	switch strings.ToLower(strings.TrimSpace(msg.Type)) {
	case MessageSubscribe:
		if len(topics) == 0 {
			return Reply{Type: ReplyError, Error: "topics_required", Topics: c.Topics()}
		}
		for _, t := range topics {
			c.topics.Add(t)
		}
	case MessageUnsubscribe:
		if len(topics) == 0 {
			c.topics.Clear()
		}
		for _, t := range topics {
			c.topics.Remove(t)
		}
	default:
		return Reply{Type: ReplyError, Error: "unknown_type", Topics: c.Topics()}
	}

	logger.Debug("WebSocket subscription updated", map[string]interface{}{
		"username": c.Username,
		"type":     msg.Type,
		"topics":   topics,
	})
	return Reply{Type: ReplyTopics, Topics: c.Topics()}
}

// Topics 정렬된 구독 목록 (비어 있으면 전체 수신)
func (c *Client) Topics() []string {
	topics := c.topics.ToSlice()
	sort.Strings(topics)
	return topics
}

func (c *Client) reply(r Reply) {
	if r.Topics == nil {
		r.Topics = []string{}
	}
	data, err := json.Marshal(r)
	if err != nil {
		return
	}
	if !c.enqueue(data) {
		logger.Warn("Reply dropped, send buffer unavailable", map[string]interface{}{
			"username": c.Username,
			"type":     r.Type,
		})
	}
}

func cleanTopics(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// rateWindow 고정 윈도 카운터 (ReadPump 고루틴 전용)
type rateWindow struct {
	limit int
	size  time.Duration
	start time.Time
	count int
}

func (w *rateWindow) allow(now time.Time) bool {
	if now.Sub(w.start) >= w.size {
		w.start = now
		w.count = 0
	}
	w.count++
	return w.count <= w.limit
}

// WritePump Send 큐를 소켓으로 흘려보내고 주기적으로 ping
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	write := func(kind int, data []byte) error {
		c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		return c.Conn.WriteMessage(kind, data)
	}

	for {
		select {
		case message, ok := <-c.Send:
			if !ok {
				write(websocket.CloseMessage, []byte{})
				return
			}
			if err := write(websocket.TextMessage, message); err != nil {
				logger.Error("Failed to write message", err, map[string]interface{}{
					"username": c.Username,
				})
				return
			}

		case <-ticker.C:
			if err := write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
