// internal/api/handlers.go
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/SeriesMoodRecap/internal/session"
	"github.com/Corphon/SeriesMoodRecap/internal/utils"
)

// HealthInfo is the static part of /api/health.
type HealthInfo struct {
	Version          string `json:"version"`
	OMDbConfigured   bool   `json:"omdb_configured"`
	LLMProvider      string `json:"llm_provider"`
	LLMConfigured    bool   `json:"llm_configured"`
	GenerativeModel  string `json:"model"`
	RateLimitEnabled bool   `json:"rate_limit_enabled"`
}

// Handler 处理API请求
type Handler struct {
	sessions *session.Manager
	hub      *Hub
	metrics  *utils.APIMetrics
	health   HealthInfo
	started  time.Time
	Response *ResponseHelper
}

func NewHandler(sessions *session.Manager, hub *Hub, metrics *utils.APIMetrics, health HealthInfo) *Handler {
	if metrics == nil {
		metrics = utils.NewAPIMetrics(nil)
	}
	if hub == nil {
		hub = NewHub(metrics.Collector())
	}
	return &Handler{
		sessions: sessions,
		hub:      hub,
		metrics:  metrics,
		health:   health,
		started:  time.Now(),
		Response: NewResponseHelper(),
	}
}

// SessionResponse carries a session id with its state.
type SessionResponse struct {
	ID    string        `json:"id"`
	State session.State `json:"state"`
}

// QueryRequest is the body of search and query edits. An empty query is
// allowed through so the flow can report it.
type QueryRequest struct {
	Query string `json:"query"`
}

// SelectRequest names the candidate to open.
type SelectRequest struct {
	ID string `json:"id" binding:"required"`
}

// IndexPage 返回主页
func (h *Handler) IndexPage(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"title": "TV Series Mood Recap",
	})
}

// Health reports liveness and whether each provider key is set.
func (h *Handler) Health(c *gin.Context) {
	h.Response.Success(c, gin.H{
		"status":    "ok",
		"providers": h.health,
		"sessions":  h.sessions.Len(),
		"uptime":    time.Since(h.started).Round(time.Second).String(),
	})
}

// Metrics returns the collector snapshot and websocket status.
func (h *Handler) Metrics(c *gin.Context) {
	h.Response.Success(c, gin.H{
		"metrics":   h.metrics.Collector().GetMetrics(),
		"websocket": h.hub.Status(),
	})
}

// CreateSession starts a session with empty state.
func (h *Handler) CreateSession(c *gin.Context) {
	ctrl := h.sessions.Create()
	h.Response.Created(c, SessionResponse{ID: ctrl.ID(), State: ctrl.State()})
}

// GetSession returns the current state.
func (h *Handler) GetSession(c *gin.Context) {
	ctrl, ok := h.lookup(c)
	if !ok {
		return
	}
	h.Response.Success(c, SessionResponse{ID: ctrl.ID(), State: ctrl.State()})
}

// SetQuery records a direct edit of the query text.
func (h *Handler) SetQuery(c *gin.Context) {
	ctrl, ok := h.lookup(c)
	if !ok {
		return
	}
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	h.Response.Success(c, SessionResponse{ID: ctrl.ID(), State: ctrl.SetQuery(req.Query)})
}

// Search runs a search with the submitted query.
func (h *Handler) Search(c *gin.Context) {
	ctrl, ok := h.lookup(c)
	if !ok {
		return
	}
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	st, err := ctrl.Search(operationContext(c), req.Query)
	h.respond(c, ctrl, st, err)
}

// Select opens a candidate: detail fetch, then recap.
func (h *Handler) Select(c *gin.Context) {
	ctrl, ok := h.lookup(c)
	if !ok {
		return
	}
	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "A series ID is required.")
		return
	}

	st, err := ctrl.Select(operationContext(c), req.ID)
	h.respond(c, ctrl, st, err)
}

// DeleteSession ends a session and closes its websocket streams.
func (h *Handler) DeleteSession(c *gin.Context) {
	id := c.Param("id")
	if !h.sessions.Delete(id) {
		h.Response.NotFound(c, "Session not found: "+id)
		return
	}
	h.Response.Success(c, gin.H{"id": id}, "session closed")
}

func (h *Handler) lookup(c *gin.Context) (*session.Controller, bool) {
	ctrl, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.Response.AppError(c, err, nil)
		return nil, false
	}
	return ctrl, true
}

// respond writes st, with the mapped error envelope when err is set.
func (h *Handler) respond(c *gin.Context, ctrl *session.Controller, st session.State, err error) {
	data := SessionResponse{ID: ctrl.ID(), State: st}
	if err != nil {
		_, code := statusFor(err)
		h.metrics.RecordError(code, "session")
		h.Response.AppError(c, err, data)
		return
	}
	h.Response.Success(c, data)
}

// operationContext keeps the flow running if the browser drops the request;
// the state still reaches websocket listeners. Provider clients bound it.
func operationContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}
