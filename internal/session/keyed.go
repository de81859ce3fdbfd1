package session

import (
	"context"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// BrowserCookieName identifies the browser for server-side stores.
const BrowserCookieName = "treadline_sid"

// Entry is one stored slot in a server-side Backend.
type Entry struct {
	Key       string // hashed browser id
	Slot      Slot
	Value     string
	ExpiresAt time.Time
	IP        net.IP // may be nil
}

// Backend persists slots server-side, keyed by hashed browser id.
type Backend interface {
	// Get returns the slot value, or ok=false if it is missing or expired
	// at now.
	Get(ctx context.Context, key string, slot Slot, now time.Time) (value string, ok bool, err error)
	Put(ctx context.Context, e Entry) error
	Delete(ctx context.Context, key string, slots ...Slot) error
	// DeleteExpired removes every slot that expired before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// KeyedProvider stores slots in a Backend. The browser only holds a random
// id cookie; the backend sees a blake2b hash of it.
type KeyedProvider struct {
	backend Backend
	opts    Options
}

// NewKeyedProvider creates a Provider over backend.
func NewKeyedProvider(backend Backend, opts Options) *KeyedProvider {
	return &KeyedProvider{backend: backend, opts: opts.withDefaults()}
}

// Backend returns the underlying Backend.
func (p *KeyedProvider) Backend() Backend {
	return p.backend
}

// Session implements Provider.
func (p *KeyedProvider) Session(w http.ResponseWriter, r *http.Request) *Session {
	store := &keyedStore{p: p, w: w, ip: clientIP(r)}
	if c, err := r.Cookie(BrowserCookieName); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			store.id = c.Value
		}
	}
	return New(store, p.opts.TokenTTL, p.opts.ProfileTTL)
}

type keyedStore struct {
	p  *KeyedProvider
	w  http.ResponseWriter
	ip net.IP

	mu sync.Mutex
	id string
}

func (s *keyedStore) key() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id == "" {
		return ""
	}
	return HashBrowserID(s.id)
}

// ensureKey issues a browser id cookie on first write.
func (s *keyedStore) ensureKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id == "" {
		s.id = uuid.NewString()
		http.SetCookie(s.w, &http.Cookie{
			Name:     BrowserCookieName,
			Value:    s.id,
			Path:     CookiePath,
			MaxAge:   int(s.p.opts.ProfileTTL.Seconds()),
			HttpOnly: true,
			Secure:   s.p.opts.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return HashBrowserID(s.id)
}

func (s *keyedStore) Get(ctx context.Context, slot Slot) (string, error) {
	key := s.key()
	if key == "" {
		return "", nil
	}
	v, ok, err := s.p.backend.Get(ctx, key, slot, s.p.opts.Clock.Now())
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return v, nil
}

func (s *keyedStore) Set(ctx context.Context, slot Slot, value string, ttl time.Duration) error {
	return s.p.backend.Put(ctx, Entry{
		Key:       s.ensureKey(),
		Slot:      slot,
		Value:     value,
		ExpiresAt: s.p.opts.Clock.Now().Add(ttl),
		IP:        s.ip,
	})
}

func (s *keyedStore) Delete(ctx context.Context, slots ...Slot) error {
	key := s.key()
	if key == "" {
		return nil
	}
	return s.p.backend.Delete(ctx, key, slots...)
}

// HashBrowserID returns the hex blake2b-256 digest stored in place of the
// raw browser id.
func HashBrowserID(id string) string {
	sum := blake2b.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then
// the connection address.
func clientIP(r *http.Request) net.IP {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip
		}
	}
	if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return net.ParseIP(host)
}
