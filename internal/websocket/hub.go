package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ikkim/coupang-partners-backend/internal/events"
	"github.com/ikkim/coupang-partners-backend/pkg/logger"
)

const sendBufferSize = 64

// Client WebSocket 클라이언트 (대시보드 세션 하나)
type Client struct {
	Hub      *Hub
	Conn     *Conn
	Username string
	Send     chan []byte

	// 비어 있으면 모든 이벤트
	topics mapset.Set[string]

	sendMu     sync.Mutex
	sendClosed bool
}

// NewClient 등록 전 클라이언트 생성
func NewClient(hub *Hub, conn *Conn, username string) *Client {
	return &Client{
		Hub:      hub,
		Conn:     conn,
		Username: username,
		Send:     make(chan []byte, sendBufferSize),
		topics:   mapset.NewSet[string](),
	}
}

// Wants 구독 필터에 맞는 이벤트인지
func (c *Client) Wants(eventType string) bool {
	topics := c.topics.ToSlice()
	if len(topics) == 0 {
		return true
	}
	for _, topic := range topics {
		if eventType == topic || strings.HasPrefix(eventType, topic+".") {
			return true
		}
	}
	return false
}

// enqueue 버퍼가 가득 찼거나 이미 닫힌 세션이면 false
func (c *Client) enqueue(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.sendClosed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.sendClosed {
		c.sendClosed = true
		close(c.Send)
	}
}

// Hub 대시보드 연결 관리자, 파이프라인 이벤트를 모든 구독자에게 전달
// events.Publisher 를 구현한다
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	done       chan struct{}
	closeOnce  sync.Once

	mu sync.RWMutex
}

// BroadcastMessage 브로드캐스트 메시지
type BroadcastMessage struct {
	EventType string
	Message   []byte
}

// NewHub Hub 생성
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *BroadcastMessage, 1024),
		done:       make(chan struct{}),
	}
}

// Run Close 가 호출될 때까지 실행
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				client.closeSend()
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"username":       client.Username,
				"total_sessions": total,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
			}
			remaining := len(h.clients)
			h.mu.Unlock()
			logger.Info("WebSocket client unregistered", map[string]interface{}{
				"username":           client.Username,
				"remaining_sessions": remaining,
			})

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				if !client.Wants(message.EventType) {
					continue
				}
				if !client.enqueue(message.Message) {
					// 느린 세션은 비동기로 정리
					go h.Unregister(client)
					logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
						"username": client.Username,
					})
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Publish 이벤트를 브로드캐스트 큐에 넣는다 (가득 차면 버림)
func (h *Hub) Publish(_ context.Context, evt events.Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		logger.Error("Failed to marshal event", err)
		return err
	}

	select {
	case h.broadcast <- &BroadcastMessage{EventType: evt.Type, Message: data}:
	default:
		logger.Warn("Broadcast channel full, event dropped", map[string]interface{}{
			"type": evt.Type,
		})
	}
	return nil
}

// Close Run 루프 종료 및 모든 세션 정리
func (h *Hub) Close() error {
	h.closeOnce.Do(func() { close(h.done) })
	return nil
}

// Register 클라이언트 등록
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister 클라이언트 등록 해제
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount 현재 연결된 세션 수
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
