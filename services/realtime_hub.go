package services

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/ABFerraz00/mandacafe/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	EventDishCreated      = "prato.criado"
	EventDishUpdated      = "prato.atualizado"
	EventDishAvailability = "prato.disponibilidade"

	writeWait = 10 * time.Second
)

// MenuEvent is pushed to every connected menu client when a dish changes.
type MenuEvent struct {
	Type      string       `json:"tipo"`
	Dish      *models.Dish `json:"prato"`
	Timestamp time.Time    `json:"timestamp"`
}

// WSClient serialises writes to one websocket connection.
type WSClient struct {
	Conn *websocket.Conn
	mu   sync.Mutex
}

func (c *WSClient) Write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteMessage(messageType, data)
}

type MenuHub struct {
	mu      sync.RWMutex
	clients map[*WSClient]struct{}
	logger  *zap.Logger
}

func NewMenuHub(logger *zap.Logger) *MenuHub {
	return &MenuHub{clients: make(map[*WSClient]struct{}), logger: logger}
}

func (h *MenuHub) Register(c *WSClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *MenuHub) Unregister(c *WSClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()
	if ok {
		_ = c.Conn.Close()
	}
}

func (h *MenuHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish fans a dish event out to all clients. Clients that fail a write are dropped.
func (h *MenuHub) Publish(eventType string, dish *models.Dish) {
	msg, err := json.Marshal(MenuEvent{Type: eventType, Dish: dish, Timestamp: time.Now()})
	if err != nil {
		h.logger.Error("failed to encode menu event", zap.Error(err))
		return
	}

	h.mu.RLock()
	targets := make([]*WSClient, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.Write(websocket.TextMessage, msg); err != nil {
			h.logger.Debug("dropping websocket client", zap.Error(err))
			h.Unregister(c)
		}
	}
}
