// Package api talks to the tyre shop's REST backend.
//
// The backend owns all data. This package only knows the wire format: list
// pages, single-row deletes and the sign-in/sign-out endpoints. Every
// failure comes back as a *domain.Error whose Message can be shown to the
// operator as-is.
package api

import (
	"context"

	"github.com/DukeRupert/treadline/internal/domain"
	"github.com/DukeRupert/treadline/internal/listquery"
)

// Backend defines the operations the dashboard needs from the REST API.
type Backend interface {
	// SignIn exchanges credentials for a bearer token and profile.
	SignIn(ctx context.Context, params domain.SignInParams) (*domain.SignInResult, error)

	// SignOut invalidates token on the backend.
	SignOut(ctx context.Context, token string) error

	// List fetches one page of resource.
	List(ctx context.Context, token, resource string, req domain.ListRequest) (domain.ListResult[domain.Row], error)

	// Delete removes one row of resource.
	Delete(ctx context.Context, token, resource, id string) error
}

// TokenSource supplies the bearer token at call time. *session.Session
// satisfies it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Fetcher adapts b to a list controller for one resource. The token is read
// from tokens on every fetch so a sign-out is honoured immediately.
func Fetcher(b Backend, tokens TokenSource, resource string) listquery.Fetcher[domain.Row] {
	return listquery.FetchFunc[domain.Row](func(ctx context.Context, req domain.ListRequest) (domain.ListResult[domain.Row], error) {
		token, err := tokens.Token(ctx)
		if err != nil || token == "" {
			return domain.ListResult[domain.Row]{}, domain.Unauthorized("api.fetch", "Your session has expired. Please sign in again.")
		}
		return b.List(ctx, token, resource, req)
	})
}

// Total returns the number of rows in resource, using a one-row page.
func Total(ctx context.Context, b Backend, token, resource string) (int, error) {
	res, err := b.List(ctx, token, resource, domain.ListRequest{CurrentPage: 1, ItemsPerPage: 1})
	if err != nil {
		return 0, err
	}
	return res.Pagination.TotalItems, nil
}

// KnownResource reports whether resource has a row decoder.
func KnownResource(resource string) bool {
	_, ok := decoders[resource]
	return ok
}
