package live

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/DukeRupert/treadline/internal/api"
	"github.com/DukeRupert/treadline/internal/authgate"
	"github.com/DukeRupert/treadline/internal/domain"
	"github.com/DukeRupert/treadline/internal/listquery"
	"github.com/DukeRupert/treadline/internal/metrics"
	"github.com/DukeRupert/treadline/internal/screens"
	"github.com/DukeRupert/treadline/internal/session"
	"github.com/DukeRupert/treadline/internal/templ/components/flash"
	"github.com/DukeRupert/treadline/internal/templ/components/listview"
)

// conn is one live list session.
type conn struct {
	h      *Handler
	ws     *websocket.Conn
	screen screens.Screen
	sess   *session.Session
	csrf   string // token the page was served with
	ctrl   *listquery.Controller[domain.Row]
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	out       chan Outbound
	done      chan struct{}
	closeOnce sync.Once

	mu    sync.Mutex
	flash flash.Message // shown until the next operator action
}

func newConn(h *Handler, ws *websocket.Conn, screen screens.Screen, sess *session.Session, csrfToken string, page int, search string) *conn {
	ctx, cancel := context.WithCancel(context.Background())
	c := &conn{
		h:      h,
		ws:     ws,
		screen: screen,
		sess:   sess,
		csrf:   csrfToken,
		logger: h.logger.With("screen", screen.Name),
		ctx:    ctx,
		cancel: cancel,
		out:    make(chan Outbound, outboxSize),
		done:   make(chan struct{}),
	}

	opts := listquery.Options[domain.Row]{
		Name:          screen.Name,
		ItemsPerPage:  screen.ItemsPerPage,
		SearchDelay:   h.searchDelay,
		Mode:          screen.Mode(),
		InitialPage:   page,
		InitialSearch: search,
		OnChange:      c.changed,
		Clock:         h.clock,
		Logger:        h.logger,
	}
	if opts.Mode == listquery.ModeURL {
		opts.Navigator = navigator{c}
	}
	c.ctrl = listquery.New(api.Fetcher(h.backend, sess, screen.Resource), opts)
	return c
}

// run serves the connection until the peer goes away or the session is
// closed.
func (c *conn) run() {
	metrics.LiveSessionsActive.Inc()
	defer metrics.LiveSessionsActive.Dec()
	c.logger.Debug("live session opened")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writeLoop()
	}()

	c.ctrl.Start()
	c.readLoop()

	c.shutdown()
	c.ctrl.Close()
	c.cancel()
	wg.Wait()
	c.ws.Close()
	c.logger.Debug("live session closed")
}

func (c *conn) shutdown() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *conn) readLoop() {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.logger.Warn("live read error", "error", err)
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))

		msg, err := decode(data)
		if err != nil {
			c.logger.Warn("malformed live message", "error", err)
			continue
		}
		if !c.authorized() {
			return
		}
		if !c.handle(msg) {
			return
		}
	}
}

// authorized re-runs the gate for the current route. On lock-out the
// redirect is queued and the session ends.
func (c *conn) authorized() bool {
	state := c.ctrl.State()
	route := screenURL(c.screen, state.CurrentPage, state.DebouncedSearch)
	d := c.h.gate.Check(c.ctx, c.sess, route)
	if d.State == authgate.Authorized {
		return true
	}
	c.logger.Info("live session signed out")
	c.redirect(d.Redirect)
	return false
}

// handle applies one message. It returns false when the session must end.
func (c *conn) handle(msg Inbound) bool {
	switch msg.Type {
	case TypeSearch:
		c.clearFlash()
		c.ctrl.SetSearch(msg.Value)
	case TypePage:
		c.clearFlash()
		c.ctrl.SetPage(msg.Page)
	case TypeSync:
		c.clearFlash()
		c.ctrl.Sync(msg.Page, msg.Search)
	case TypeReload:
		c.clearFlash()
		c.ctrl.Reload()
	case TypeDelete:
		return c.delete(msg.ID)
	default:
		c.logger.Warn("unknown live message", "type", msg.Type)
	}
	return true
}

// delete removes a row on the backend. Success refetches through the
// controller, which steps back a page when the last row of the last page
// went away. Failure re-renders the current state with the backend's
// message.
func (c *conn) delete(id string) bool {
	if id == "" {
		return true
	}
	token, err := c.sess.Token(c.ctx)
	if err != nil || token == "" {
		c.redirect(c.h.gate.SignInURL(c.currentURL()))
		return false
	}

	ctx, cancel := context.WithTimeout(c.ctx, deleteTimeout)
	defer cancel()

	if err := c.h.backend.Delete(ctx, token, c.screen.Resource, id); err != nil {
		if api.IsUnauthorized(err) {
			c.redirect(c.currentURL())
			return false
		}
		c.logger.Warn("delete failed", "id", id, "error", err)
		c.setFlash(flash.Message{Kind: flash.Error, Text: domain.ErrorMessage(err)})
		c.render(c.ctrl.State())
		return true
	}

	c.logger.Info("row deleted", "id", id)
	c.setFlash(flash.Message{Kind: flash.Success, Text: "Deleted."})
	c.ctrl.ItemDeleted()
	return true
}

// changed receives every controller state change.
func (c *conn) changed(state listquery.State[domain.Row]) {
	if state.ErrorCode == domain.EUNAUTHORIZED {
		// The page route clears the rejected session on a normal HTTP
		// response and sends the operator on to sign in.
		c.redirect(screenURL(c.screen, state.CurrentPage, state.DebouncedSearch))
		return
	}
	c.render(state)
}

func (c *conn) render(state listquery.State[domain.Row]) {
	view := listview.New(c.screen, state, c.csrf)
	c.mu.Lock()
	view.Flash = c.flash
	c.mu.Unlock()

	var buf bytes.Buffer
	if err := listview.Fragment(view).Render(c.ctx, &buf); err != nil {
		c.logger.Error("live render failed", "error", err)
		return
	}
	c.send(Outbound{Type: TypeRender, HTML: buf.String(), Version: state.Version})
}

func (c *conn) redirect(target string) {
	c.send(Outbound{Type: TypeRedirect, URL: target})
}

// send queues msg for the writer. It gives up once the session is closing.
func (c *conn) send(msg Outbound) {
	select {
	case c.out <- msg:
	case <-c.done:
	}
}

func (c *conn) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.out:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(msg); err != nil {
				c.logger.Debug("live write failed", "error", err)
				c.ws.Close()
				return
			}
			if msg.Type == TypeRedirect {
				c.closeWith(websocket.ClosePolicyViolation, "signed out")
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.ws.Close()
				return
			}
		case <-c.done:
			c.flush()
			return
		}
	}
}

// flush writes whatever is still queued, such as a redirect sent just
// before the read loop ended, then closes.
func (c *conn) flush() {
	for {
		select {
		case msg := <-c.out:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(msg); err != nil {
				c.ws.Close()
				return
			}
			if msg.Type == TypeRedirect {
				c.closeWith(websocket.ClosePolicyViolation, "signed out")
				return
			}
		default:
			c.closeWith(websocket.CloseNormalClosure, "")
			return
		}
	}
}

// closeWith sends a close frame and closes the socket, which also ends the
// read loop.
func (c *conn) closeWith(code int, reason string) {
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(time.Second))
	c.ws.Close()
}

func (c *conn) setFlash(msg flash.Message) {
	c.mu.Lock()
	c.flash = msg
	c.mu.Unlock()
}

func (c *conn) clearFlash() {
	c.setFlash(flash.Message{})
}

func (c *conn) currentURL() string {
	state := c.ctrl.State()
	return screenURL(c.screen, state.CurrentPage, state.DebouncedSearch)
}

// navigator mirrors URL-mode pagination into the browser's address bar.
type navigator struct {
	c *conn
}

func (n navigator) Navigate(query url.Values, replace bool) {
	n.c.send(Outbound{Type: TypeNavigate, URL: n.c.screen.Path() + "?" + query.Encode(), Replace: replace})
}

// screenURL is the page route for a list state.
func screenURL(screen screens.Screen, page int, search string) string {
	return screen.Path() + "?" + listquery.Query(page, search).Encode()
}
