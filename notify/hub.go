package notify

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/fieldmates/fieldmates/services"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Client — одно websocket-подписание на поток событий группового поста.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	room string

	mu     sync.Mutex
	closed bool
}

// Hub рассылает доменные события подписчикам. Комнаты привязаны к id
// группового поста; публикация никогда не блокирует публикующего.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	events     chan services.Event

	mu     sync.RWMutex
	rooms  map[string]map[*Client]bool
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan services.Event, 256),
		rooms:      make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

// Publish реализует services.NotificationPublisher. Если буфер событий полон,
// событие отбрасывается: доставка уведомлений best-effort и не должна
// тормозить запись в хранилище.
func (h *Hub) Publish(event services.Event) {
	select {
	case h.events <- event:
	default:
		h.logger.Warn("notification dropped: event buffer full",
			slog.String("type", string(event.Type)),
			slog.Int("group_post_id", event.GroupPostID),
		)
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[client.room]; !ok {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			h.mu.Unlock()
			h.logger.Debug("subscriber registered", slog.String("room", client.room))

		case client := <-h.unregister:
			h.mu.Lock()
			if room, ok := h.rooms[client.room]; ok {
				if room[client] {
					client.close()
					delete(room, client)
					if len(room) == 0 {
						delete(h.rooms, client.room)
					}
				}
			}
			h.mu.Unlock()
			h.logger.Debug("subscriber unregistered", slog.String("room", client.room))

		case event := <-h.events:
			h.broadcast(event)
		}
	}
}

func (h *Hub) broadcast(event services.Event) {
	message, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to marshal notification event", slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	room := h.rooms[roomID(event.GroupPostID)]
	for client := range room {
		client.mu.Lock()
		if client.closed {
			client.mu.Unlock()
			continue
		}
		select {
		case client.send <- message:
		default:
			// Отстающий подписчик пропускает событие.
		}
		client.mu.Unlock()
	}
}

func roomID(groupPostID int) string {
	return "group_post_" + strconv.Itoa(groupPostID)
}

// Subscribe регистрирует соединение в комнате поста и запускает его насосы.
func (h *Hub) Subscribe(conn *websocket.Conn, groupPostID int) {
	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 64),
		room: roomID(groupPostID),
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.send)
		c.closed = true
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		// Входящие сообщения игнорируются: поток событий односторонний.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
