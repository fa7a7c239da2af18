package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/cwrk-planet/coderoom/internal/domain"
	"github.com/cwrk-planet/coderoom/internal/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Presence interface {
	Join(ctx context.Context, connID, roomID, displayName string) (domain.Session, error)
	Leave(ctx context.Context, connID string) error
}

type Router interface {
	UpdateCode(ctx context.Context, roomID, senderID, code string, cursor json.RawMessage) error
	ChangeLanguage(ctx context.Context, roomID, senderID, language string) error
	RelayExecutionResult(ctx context.Context, roomID, senderID string, res domain.ExecutionResult) error
	RelayChatMessage(ctx context.Context, roomID, senderID, text, displayName string) (domain.ChatMessage, error)
}

// Metrics is what the transport reports; internal/metrics implements it.
type Metrics interface {
	ConnOpened()
	ConnClosed()
	EventReceived(eventType string)
	EventDropped(reason string)
}

type noopMetrics struct{}

func (noopMetrics) ConnOpened()          {}
func (noopMetrics) ConnClosed()          {}
func (noopMetrics) EventReceived(string) {}
func (noopMetrics) EventDropped(string)  {}

type Config struct {
	PingEvery       time.Duration
	MaxMessageBytes int64
	SendBuffer      int
	AllowedOrigins  []string
}

func (c *Config) withDefaults() {
	if c.PingEvery <= 0 {
		c.PingEvery = 15 * time.Second
	}
	if c.MaxMessageBytes <= 0 {
		c.MaxMessageBytes = 1 << 20
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = 256
	}
}

type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	presence Presence
	router   Router
	metrics  Metrics
	cfg      Config
}

func NewServer(hub *Hub, presence Presence, router Router, m Metrics, cfg Config) *Server {
	cfg.withDefaults()
	if m == nil {
		m = noopMetrics{}
	}
	return &Server{
		hub:      hub,
		presence: presence,
		router:   router,
		metrics:  m,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(cfg.AllowedOrigins),
		},
	}
}

// HandleWS serves GET /ws. The connection joins rooms through join-room events.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		logger.FromContext(r.Context()).Warn("ws upgrade failed", "err", err)
		return
	}

	c := newConn(uuid.NewString(), ws, s.cfg.SendBuffer)
	log := logger.FromContext(r.Context()).With("conn", c.id)
	// the request context is done once the handler returns; keep its values only
	ctx := logger.WithContext(context.WithoutCancel(r.Context()), log)

	s.hub.Add(c)
	s.metrics.ConnOpened()
	log.Debug("ws connected", "remote", r.RemoteAddr)

	go c.writeLoop(s.cfg.PingEvery)
	s.readLoop(ctx, c)

	if err := s.presence.Leave(ctx, c.id); err != nil {
		log.Warn("ws leave failed", "err", err)
	}
	s.hub.Remove(c.id)
	c.close()
	s.metrics.ConnClosed()
	log.Debug("ws disconnected")
}

func (s *Server) readLoop(ctx context.Context, c *conn) {
	c.ws.SetReadLimit(s.cfg.MaxMessageBytes)
	_ = c.ws.SetReadDeadline(time.Now().Add(2 * s.cfg.PingEvery))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(2 * s.cfg.PingEvery))
	})

	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.FromContext(ctx).Debug("ws read failed", "err", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(2 * s.cfg.PingEvery))
		s.dispatch(ctx, c, data)
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimRight(o, "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
