// Package session stores the signed-in operator's credentials between
// requests.
//
// Two slots are kept per browser: the short-lived API token and the
// long-lived user profile. A Session wraps one browser's Store and is the
// only thing handlers, the auth gate and live connections talk to. Reads
// always go to the store so a sign-out elsewhere is seen on the next check.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/DukeRupert/treadline/internal/clock"
	"github.com/DukeRupert/treadline/internal/domain"
)

// Slot names one stored value.
type Slot string

const (
	// TokenSlot holds the bearer token for the REST API.
	TokenSlot Slot = "auth_token"

	// ProfileSlot holds the JSON-encoded domain.User.
	ProfileSlot Slot = "user_profile"
)

const (
	// DefaultTokenTTL is how long a token slot stays readable.
	DefaultTokenTTL = 12 * time.Hour

	// DefaultProfileTTL is how long a profile slot stays readable.
	DefaultProfileTTL = 30 * 24 * time.Hour
)

// Store reads and writes slots for a single browser. A missing or expired
// slot reads as the empty string with a nil error.
type Store interface {
	Get(ctx context.Context, slot Slot) (string, error)
	Set(ctx context.Context, slot Slot, value string, ttl time.Duration) error
	Delete(ctx context.Context, slots ...Slot) error
}

// Provider builds the Session for an incoming request. Writes made through
// the Session may set cookies on w, so the Session must be used before the
// response is written.
type Provider interface {
	Session(w http.ResponseWriter, r *http.Request) *Session
}

// Options configures a Provider.
type Options struct {
	TokenTTL   time.Duration
	ProfileTTL time.Duration
	Secure     bool // set the Secure flag on cookies
	Clock      clock.Clock
	Logger     *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.TokenTTL <= 0 {
		o.TokenTTL = DefaultTokenTTL
	}
	if o.ProfileTTL <= 0 {
		o.ProfileTTL = DefaultProfileTTL
	}
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// =============================================================================
// Session
// =============================================================================

// Session is one browser's view of the credential slots.
type Session struct {
	store      Store
	tokenTTL   time.Duration
	profileTTL time.Duration
}

// New wraps store. Zero TTLs take the package defaults.
func New(store Store, tokenTTL, profileTTL time.Duration) *Session {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	if profileTTL <= 0 {
		profileTTL = DefaultProfileTTL
	}
	return &Session{store: store, tokenTTL: tokenTTL, profileTTL: profileTTL}
}

// Token returns the stored API token, or "" when signed out.
func (s *Session) Token(ctx context.Context) (string, error) {
	return s.store.Get(ctx, TokenSlot)
}

// SetCredentials stores the token and profile returned by a sign-in.
func (s *Session) SetCredentials(ctx context.Context, token string, user *domain.User) error {
	const op = "session.SetCredentials"

	if token == "" {
		return domain.Invalid(op, "Sign-in returned an empty token.")
	}
	if err := s.store.Set(ctx, TokenSlot, token, s.tokenTTL); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if user == nil {
		return nil
	}

	profile, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := s.store.Set(ctx, ProfileSlot, string(profile), s.profileTTL); err != nil {
		return fmt.Errorf("store profile: %w", err)
	}
	return nil
}

// Clear removes both slots.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, TokenSlot, ProfileSlot); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// User returns the stored profile, or nil when none is stored.
func (s *Session) User(ctx context.Context) (*domain.User, error) {
	raw, err := s.store.Get(ctx, ProfileSlot)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}

	var user domain.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &user, nil
}
