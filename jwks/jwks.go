// Package jwks fetches and caches the signing key sets auth servers
// publish. The SDK itself never verifies tokens with them; the keys are
// exposed for consumers that validate backend-signed artifacts out of band.
package jwks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-jose/go-jose/v3"
	"github.com/jellydator/ttlcache/v3"

	"github.com/progalaxyelabs/stonescript-auth-go/log"
	"github.com/progalaxyelabs/stonescript-auth-go/registry"
)

const defaultTTL = 15 * time.Minute

// Client retrieves JWKS documents per server descriptor and caches them
// with a TTL so repeated lookups stay off the network.
type Client struct {
	http     *http.Client
	registry *registry.Registry
	cache    *ttlcache.Cache[string, *jose.JSONWebKeySet]
	logger   log.Logger
}

// NewClient builds a JWKS client. ttl <= 0 uses the default of 15 minutes.
func NewClient(httpClient *http.Client, reg *registry.Registry, ttl time.Duration, logger log.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = log.NewNop()
	}

	cache := ttlcache.New(
		ttlcache.WithTTL[string, *jose.JSONWebKeySet](ttl),
		ttlcache.WithDisableTouchOnHit[string, *jose.JSONWebKeySet](),
	)
	go cache.Start()

	return &Client{
		http:     httpClient,
		registry: reg,
		cache:    cache,
		logger:   logger,
	}
}

// Keys returns the key set for the named server (empty name resolves via
// the registry chain). Cached sets are served until their TTL lapses.
func (c *Client) Keys(ctx context.Context, serverName string) (*jose.JSONWebKeySet, error) {
	desc, err := c.registry.Resolve(serverName)
	if err != nil {
		return nil, err
	}
	endpoint := desc.JWKSEndpoint
	if endpoint == "" {
		endpoint = desc.BaseURL + "/.well-known/jwks.json"
	}

	if item := c.cache.Get(endpoint); item != nil {
		return item.Value(), nil
	}

	set, err := c.fetch(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	c.cache.Set(endpoint, set, ttlcache.DefaultTTL)
	c.logger.Debug(ctx, "jwks fetched", map[string]any{
		"endpoint": endpoint,
		"keys":     len(set.Keys),
	})
	return set, nil
}

// Key returns the key with the given id from the named server's set.
func (c *Client) Key(ctx context.Context, serverName, kid string) (*jose.JSONWebKey, error) {
	set, err := c.Keys(ctx, serverName)
	if err != nil {
		return nil, err
	}
	for i := range set.Keys {
		if set.Keys[i].KeyID == kid {
			return &set.Keys[i], nil
		}
	}
	return nil, fmt.Errorf("key %q not found in jwks", kid)
}

// Stop shuts down the cache's expiration loop.
func (c *Client) Stop() {
	c.cache.Stop()
}

func (c *Client) fetch(ctx context.Context, endpoint string) (*jose.JSONWebKeySet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching jwks from %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jwks endpoint %s returned status %d", endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var set jose.JSONWebKeySet
	if err := json.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("parsing jwks document: %w", err)
	}
	return &set, nil
}
