// Package identity consumes the external identity gateway. The gateway owns
// sessions; this service only maps an opaque session credential to a stable
// user id and display name.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"faderbank/internal/config"
	"faderbank/internal/models"
	"faderbank/pkg/apperrors"

	"github.com/redis/go-redis/v9"
)

// Resolver maps a session credential to an identity. Implementations return
// an UNAUTHENTICATED error when the credential is missing or stale.
type Resolver interface {
	Resolve(ctx context.Context, session string) (*models.Identity, error)
}

// HTTPResolver asks the gateway's user-info endpoint, forwarding the session
// cookie the same way a browser would.
type HTTPResolver struct {
	baseURL    string
	cookieName string
	client     *http.Client
}

func NewHTTPResolver(cfg *config.IdentityConfig) *HTTPResolver {
	return &HTTPResolver{
		baseURL:    cfg.BaseURL,
		cookieName: cfg.SessionCookie,
		client:     &http.Client{Timeout: cfg.HTTPTimeout},
	}
}

func (r *HTTPResolver) Resolve(ctx context.Context, session string) (*models.Identity, error) {
	if session == "" {
		return nil, apperrors.Unauthenticated("no session credential")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/user/info", nil)
	if err != nil {
		return nil, fmt.Errorf("build identity request: %w", err)
	}
	req.AddCookie(&http.Cookie{Name: r.cookieName, Value: session})

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUnauthenticated, "identity gateway unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Unauthenticated("session not recognized")
	}

	var ident models.Identity
	if err := json.NewDecoder(resp.Body).Decode(&ident); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUnauthenticated, "malformed identity response", err)
	}
	if ident.UserID == 0 {
		return nil, apperrors.Unauthenticated("identity response missing user id")
	}

	return &ident, nil
}

// CachedResolver memoizes successful resolutions in Redis so the gateway is
// not hit on every request of a busy session. Failures are never cached.
type CachedResolver struct {
	next   Resolver
	client *redis.Client
	ttl    time.Duration
}

func NewCachedResolver(next Resolver, client *redis.Client, ttl time.Duration) *CachedResolver {
	return &CachedResolver{next: next, client: client, ttl: ttl}
}

func (c *CachedResolver) Resolve(ctx context.Context, session string) (*models.Identity, error) {
	if session == "" {
		return nil, apperrors.Unauthenticated("no session credential")
	}

	key := "identity:session:" + session
	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var ident models.Identity
		if err := json.Unmarshal(data, &ident); err == nil {
			return &ident, nil
		}
	}

	ident, err := c.next.Resolve(ctx, session)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(ident); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			slog.Debug("Failed to cache identity", "error", err)
		}
	}

	return ident, nil
}
