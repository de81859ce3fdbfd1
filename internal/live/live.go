// Package live serves list screens over a websocket.
//
// Each connection owns one list controller. The browser forwards search
// input, page clicks, history navigation, reloads and deletes; the server
// answers with the rendered results fragment after every state change, and
// with navigate messages that keep the address bar in step for URL-mode
// screens.
//
// The auth gate runs again for every inbound message against the session
// captured when the connection opened. A signed-out session gets a redirect
// message and the connection is closed.
package live

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/DukeRupert/treadline/internal/api"
	"github.com/DukeRupert/treadline/internal/authgate"
	"github.com/DukeRupert/treadline/internal/clock"
	"github.com/DukeRupert/treadline/internal/csrf"
	"github.com/DukeRupert/treadline/internal/listquery"
	"github.com/DukeRupert/treadline/internal/pagination"
	"github.com/DukeRupert/treadline/internal/screens"
	"github.com/DukeRupert/treadline/internal/session"
)

const (
	// writeWait bounds a single write to the peer.
	writeWait = 10 * time.Second

	// pongWait is how long the peer may stay silent, pings included.
	pongWait = 60 * time.Second

	// pingPeriod must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize caps inbound messages. Search terms are capped far
	// below this.
	maxMessageSize = 4096

	// deleteTimeout bounds a delete call to the backend.
	deleteTimeout = 15 * time.Second

	// outboxSize is the number of messages queued for the writer.
	outboxSize = 16
)

// Message types sent by the browser.
const (
	TypeSearch = "search"
	TypePage   = "page"
	TypeSync   = "sync"
	TypeReload = "reload"
	TypeDelete = "delete"
)

// Message types sent by the server.
const (
	TypeRender   = "render"
	TypeNavigate = "navigate"
	TypeRedirect = "redirect"
)

// Inbound is a message from the browser.
type Inbound struct {
	Type   string `json:"type"`
	Value  string `json:"value,omitempty"`  // search
	Page   int    `json:"page,omitempty"`   // page, sync
	Search string `json:"search,omitempty"` // sync
	ID     string `json:"id,omitempty"`     // delete
}

// Outbound is a message to the browser.
type Outbound struct {
	Type    string `json:"type"`
	HTML    string `json:"html,omitempty"`
	Version uint64 `json:"version,omitempty"`
	URL     string `json:"url,omitempty"`
	Replace bool   `json:"replace,omitempty"`
}

// Config holds the dependencies of a Handler.
type Config struct {
	Backend  api.Backend
	Screens  *screens.Registry
	Sessions session.Provider
	Gate     *authgate.Gate

	// SearchDelay is the search debounce. Defaults to
	// listquery.DefaultSearchDelay.
	SearchDelay time.Duration

	// CheckOrigin overrides the same-origin check on upgrade.
	CheckOrigin func(r *http.Request) bool

	Clock  clock.Clock
	Logger *slog.Logger
}

// Handler upgrades GET /live/{screen} requests and runs one session per
// connection. Mount it behind the CSRF protector so rendered delete forms
// carry the page's token.
type Handler struct {
	backend     api.Backend
	screens     *screens.Registry
	sessions    session.Provider
	gate        *authgate.Gate
	searchDelay time.Duration
	clock       clock.Clock
	logger      *slog.Logger
	upgrader    websocket.Upgrader
}

// NewHandler creates a Handler.
func NewHandler(cfg Config) *Handler {
	if cfg.SearchDelay <= 0 {
		cfg.SearchDelay = listquery.DefaultSearchDelay
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Gate == nil {
		cfg.Gate = authgate.New("", cfg.Logger)
	}
	return &Handler{
		backend:     cfg.Backend,
		screens:     cfg.Screens,
		sessions:    cfg.Sessions,
		gate:        cfg.Gate,
		searchDelay: cfg.SearchDelay,
		clock:       cfg.Clock,
		logger:      cfg.Logger.With("component", "live"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     cfg.CheckOrigin,
		},
	}
}

// ServeHTTP handles the websocket upgrade.
//
// The gate is checked before upgrading, but an unauthorized visitor still
// gets a connection: the redirect travels as a message so the browser
// script can follow it instead of retrying the handshake.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	screen, ok := h.screens.Get(r.PathValue("screen"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()
	page := pagination.ParsePage(q.Get("page"))
	search := q.Get("search")

	sess := h.sessions.Session(w, r)
	decision := h.gate.Check(r.Context(), sess, screenURL(screen, page, search))

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error response.
		h.logger.Warn("websocket upgrade failed", "screen", screen.Name, "error", err)
		return
	}

	if decision.State != authgate.Authorized {
		h.reject(ws, h.gate.SignInURL(screenURL(screen, page, search)))
		return
	}

	c := newConn(h, ws, screen, sess, csrf.Token(r.Context()), page, search)
	c.run()
}

// reject sends a redirect on a fresh connection and closes it.
func (h *Handler) reject(ws *websocket.Conn, target string) {
	defer ws.Close()
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := ws.WriteJSON(Outbound{Type: TypeRedirect, URL: target}); err != nil {
		return
	}
	_ = ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthorized"),
		time.Now().Add(time.Second))
}

// decode parses one inbound message.
func decode(data []byte) (Inbound, error) {
	var msg Inbound
	err := json.Unmarshal(data, &msg)
	return msg, err
}
