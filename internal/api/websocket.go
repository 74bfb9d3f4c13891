// internal/api/websocket.go
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Corphon/SeriesMoodRecap/internal/session"
	"github.com/Corphon/SeriesMoodRecap/internal/utils"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingInterval = 54 * time.Second
	wsSendBuffer   = 16
)

// WebSocket 升级器配置
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StateMessage is pushed to the browser on every state transition.
type StateMessage struct {
	Type  string        `json:"type"`
	State session.State `json:"state"`
}

// wsClient 表示一个 WebSocket 客户端连接
type wsClient struct {
	conn      *websocket.Conn
	sessionID string
	send      chan []byte
	done      chan struct{}
	closed    int32
}

func (client *wsClient) Close() {
	if atomic.CompareAndSwapInt32(&client.closed, 0, 1) {
		close(client.done)
		client.conn.Close()
	}
}

func (client *wsClient) IsClosed() bool {
	return atomic.LoadInt32(&client.closed) == 1
}

// enqueue queues msg without blocking. Each message is a full snapshot, so
// when the queue is full the oldest one is dropped.
func (client *wsClient) enqueue(msg []byte) {
	if client.IsClosed() {
		return
	}
	select {
	case client.send <- msg:
		return
	default:
	}
	select {
	case <-client.send:
	default:
	}
	select {
	case client.send <- msg:
	default:
		utils.GetLogger().Warn("websocket queue full, snapshot dropped", map[string]interface{}{
			"session": client.sessionID,
		})
	}
}

// Hub tracks live websocket clients per session.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*wsClient]struct{}
	metrics *utils.MetricsCollector
}

func NewHub(metrics *utils.MetricsCollector) *Hub {
	if metrics == nil {
		metrics = utils.GetMetricsCollector()
	}
	return &Hub{
		clients: make(map[string]map[*wsClient]struct{}),
		metrics: metrics,
	}
}

func (h *Hub) register(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[client.sessionID] == nil {
		h.clients[client.sessionID] = make(map[*wsClient]struct{})
	}
	h.clients[client.sessionID][client] = struct{}{}
	h.metrics.IncGauge("websocket_connections")
}

func (h *Hub) unregister(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.clients[client.sessionID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			h.metrics.DecGauge("websocket_connections")
		}
		if len(clients) == 0 {
			delete(h.clients, client.sessionID)
		}
	}
	client.Close()
}

// Shutdown closes every connection.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	all := h.clients
	h.clients = make(map[string]map[*wsClient]struct{})
	h.mu.Unlock()

	for _, clients := range all {
		for client := range clients {
			client.Close()
		}
	}
	h.metrics.SetGauge("websocket_connections", 0)
}

// Status 获取连接状态
func (h *Hub) Status() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	sessions := make(map[string]int, len(h.clients))
	for id, clients := range h.clients {
		sessions[id] = len(clients)
		total += len(clients)
	}
	return map[string]interface{}{
		"total_sessions":    len(h.clients),
		"total_connections": total,
		"sessions":          sessions,
	}
}

// Serve streams ctrl's state over conn until the client leaves or the
// session ends.
func (h *Hub) Serve(conn *websocket.Conn, ctrl *session.Controller) {
	client := &wsClient{
		conn:      conn,
		sessionID: ctrl.ID(),
		send:      make(chan []byte, wsSendBuffer),
		done:      make(chan struct{}),
	}
	h.register(client)
	defer h.unregister(client)

	push := func(st session.State) {
		msg, err := json.Marshal(StateMessage{Type: "state", State: st})
		if err != nil {
			utils.GetLogger().Error("failed to encode state", map[string]interface{}{"error": err.Error()})
			return
		}
		client.enqueue(msg)
	}
	unsubscribe := ctrl.Watch(push)
	defer unsubscribe()

	go h.writePump(client, ctrl.Done())
	h.readPump(client)
}

// readPump drains client frames so pongs and close frames are processed.
func (h *Hub) readPump(client *wsClient) {
	client.conn.SetReadLimit(4096)
	client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				utils.GetLogger().Warn("websocket read error", map[string]interface{}{
					"session": client.sessionID,
					"error":   err.Error(),
				})
			}
			return
		}
	}
}

func (h *Hub) writePump(client *wsClient, sessionDone <-chan struct{}) {
	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		client.Close()
	}()

	for {
		select {
		case <-client.done:
			return

		case <-sessionDone:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			client.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
			return

		case msg := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SessionWebSocket upgrades the request and streams the session's state.
func (h *Handler) SessionWebSocket(c *gin.Context) {
	ctrl, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.Response.AppError(c, err, nil)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.GetLogger().Warn("websocket upgrade failed", map[string]interface{}{"error": err.Error()})
		return
	}
	h.hub.Serve(conn, ctrl)
}
