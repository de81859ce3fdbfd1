package session

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/DukeRupert/treadline/internal/clock"
)

const (
	// TokenCookieName holds the API token slot for the cookie store.
	TokenCookieName = "treadline_token"

	// ProfileCookieName holds the profile slot for the cookie store.
	ProfileCookieName = "treadline_profile"

	// CookiePath ensures the cookies are sent with all requests.
	CookiePath = "/"
)

// CookieProvider keeps both slots in cookies on the browser.
//
// The token cookie is a browser-session cookie; its expiry is written into
// the value and checked on read so a browser that never closes still loses
// the token after TokenTTL. The profile cookie carries a Max-Age.
//
// Clearing a session also records the request's token cookie as revoked
// until it expires, so sessions built from an earlier request (a live
// connection) stop reading the token. The record is per process.
type CookieProvider struct {
	opts Options

	mu      sync.Mutex
	revoked map[string]time.Time // cookie digest -> cookie expiry
}

// NewCookieProvider creates a cookie-backed Provider.
func NewCookieProvider(opts Options) *CookieProvider {
	return &CookieProvider{opts: opts.withDefaults(), revoked: make(map[string]time.Time)}
}

// Session implements Provider.
func (p *CookieProvider) Session(w http.ResponseWriter, r *http.Request) *Session {
	store := &cookieStore{
		p:       p,
		w:       w,
		r:       r,
		clock:   p.opts.Clock,
		secure:  p.opts.Secure,
		written: make(map[Slot]string),
	}
	return New(store, p.opts.TokenTTL, p.opts.ProfileTTL)
}

// revoke records a token cookie value until its own expiry and drops
// records that have lapsed.
func (p *CookieProvider) revoke(value string) {
	now := p.opts.Clock.Now()
	exp, ok := tokenExpiry(value)
	if !ok || !now.Before(exp) {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for k, at := range p.revoked {
		if !now.Before(at) {
			delete(p.revoked, k)
		}
	}
	p.revoked[cookieDigest(value)] = exp
}

func (p *CookieProvider) isRevoked(value string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.revoked[cookieDigest(value)]
	return ok
}

func cookieDigest(value string) string {
	sum := blake2b.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}

type cookieStore struct {
	p      *CookieProvider
	w      http.ResponseWriter
	r      *http.Request
	clock  clock.Clock
	secure bool

	// Values written during this request win over the request's cookies.
	mu      sync.Mutex
	written map[Slot]string
}

func cookieName(slot Slot) string {
	if slot == TokenSlot {
		return TokenCookieName
	}
	return ProfileCookieName
}

func (s *cookieStore) Get(_ context.Context, slot Slot) (string, error) {
	s.mu.Lock()
	v, ok := s.written[slot]
	s.mu.Unlock()
	if ok {
		return v, nil
	}

	c, err := s.r.Cookie(cookieName(slot))
	if err != nil {
		return "", nil
	}
	if slot == TokenSlot {
		if s.p.isRevoked(c.Value) {
			return "", nil
		}
		return s.decodeToken(c.Value), nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return "", nil
	}
	return string(raw), nil
}

func (s *cookieStore) Set(_ context.Context, slot Slot, value string, ttl time.Duration) error {
	c := &http.Cookie{
		Name:     cookieName(slot),
		Path:     CookiePath,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if slot == TokenSlot {
		expires := s.clock.Now().Add(ttl)
		c.Value = strconv.FormatInt(expires.Unix(), 10) + "." + base64.RawURLEncoding.EncodeToString([]byte(value))
	} else {
		c.Value = base64.RawURLEncoding.EncodeToString([]byte(value))
		c.MaxAge = int(ttl.Seconds())
	}
	http.SetCookie(s.w, c)

	s.mu.Lock()
	s.written[slot] = value
	s.mu.Unlock()
	return nil
}

func (s *cookieStore) Delete(_ context.Context, slots ...Slot) error {
	for _, slot := range slots {
		if slot == TokenSlot {
			if c, err := s.r.Cookie(TokenCookieName); err == nil {
				s.p.revoke(c.Value)
			}
		}
		http.SetCookie(s.w, &http.Cookie{
			Name:     cookieName(slot),
			Value:    "",
			Path:     CookiePath,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   s.secure,
			SameSite: http.SameSiteLaxMode,
		})
		s.mu.Lock()
		s.written[slot] = ""
		s.mu.Unlock()
	}
	return nil
}

// decodeToken returns the token from "<unix expiry>.<base64 token>", or ""
// when malformed or expired.
func (s *cookieStore) decodeToken(v string) string {
	exp, ok := tokenExpiry(v)
	if !ok || !s.clock.Now().Before(exp) {
		return ""
	}
	_, encoded, _ := strings.Cut(v, ".")
	token, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return ""
	}
	return string(token)
}

func tokenExpiry(v string) (time.Time, bool) {
	exp, _, ok := strings.Cut(v, ".")
	if !ok {
		return time.Time{}, false
	}
	unix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}
