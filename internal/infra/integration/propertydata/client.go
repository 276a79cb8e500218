// Package propertydata proxies address lookups to the property-data provider,
// caching answers so repeated calculator requests do not hit the API.
package propertydata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/xavierca1/retirement-leads/internal/cache"
)

var (
	ErrNotFound      = errors.New("property not found")
	ErrNotConfigured = errors.New("property lookup not configured")
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	cache   *cache.TTLCache[*Property]
}

func NewClient(baseURL, apiKey string, timeout time.Duration, cacheSize int, cacheTTL time.Duration) *Client {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		cache:   cache.NewTTLCache[*Property](cacheSize, cacheTTL),
	}
}

// Lookup returns the property at address, from cache when a fresh entry
// exists. Misses are not cached.
func (c *Client) Lookup(ctx context.Context, address string) (*Property, error) {
	if c.baseURL == "" || c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	if p, ok := c.cache.Get(address); ok {
		return p, nil
	}

	p, err := c.fetch(ctx, address)
	if err != nil {
		return nil, err
	}
	c.cache.Add(address, p)
	return p, nil
}

func (c *Client) fetch(ctx context.Context, address string) (*Property, error) {
	q := url.Values{}
	q.Set("address", strings.TrimSpace(address))
	endpoint := fmt.Sprintf("%s/properties?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, eris.Wrap(err, "propertydata: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "propertydata: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		zap.L().Warn("propertydata: provider error", zap.Int("status", resp.StatusCode), zap.String("body", string(body)))
		return nil, eris.Errorf("propertydata: provider returned status %d", resp.StatusCode)
	}

	var records []Property
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, eris.Wrap(err, "propertydata: decode response")
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return &records[0], nil
}
