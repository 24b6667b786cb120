// Package identity resolves user ids against the platform's account
// service. Resolved identities are cached; user names do not change
// mid-conversation often enough to matter.
package identity

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"

	"licitahub/services/support-chat/internal/config"
	"licitahub/services/support-chat/internal/domain/chat"
)

// Client resolves users over the account service's HTTP API.
type Client struct {
	http  *resty.Client
	cache *lru.Cache
	log   zerolog.Logger
}

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	CompanyName string `json:"company_name"`
	Name        string `json:"name"`
}

// NewClient creates an identity client against cfg.IdentityBaseURL.
func NewClient(cfg *config.Config, log zerolog.Logger) (*Client, error) {
	cache, err := lru.New(cfg.IdentityCacheSize)
	if err != nil {
		return nil, fmt.Errorf("identity cache: %w", err)
	}

	http := resty.New().
		SetBaseURL(cfg.IdentityBaseURL).
		SetTimeout(cfg.IdentityTimeout).
		SetRetryCount(1)

	return &Client{
		http:  http,
		cache: cache,
		log:   log.With().Str("component", "identity-client").Logger(),
	}, nil
}

// ResolveUser fetches a user's identity, serving cached entries first.
func (c *Client) ResolveUser(ctx context.Context, id string) (*chat.Identity, error) {
	if cached, ok := c.cache.Get(id); ok {
		return cached.(*chat.Identity), nil
	}

	var body userResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&body).
		Get(fmt.Sprintf("/api/v1/users/%s", id))
	if err != nil {
		return nil, fmt.Errorf("resolve user %s: %w", id, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("resolve user %s: status %d", id, resp.StatusCode())
	}

	name := body.Name
	if name == "" {
		name = body.CompanyName
	}
	if body.ID == "" || name == "" {
		return nil, fmt.Errorf("resolve user %s: incomplete identity", id)
	}

	ident := &chat.Identity{ID: body.ID, Name: name, Email: body.Email}
	c.cache.Add(id, ident)
	return ident, nil
}
