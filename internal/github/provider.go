package github

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

//go:embed fallback.json
var fallbackJSON []byte

// DefaultCacheTTL matches the s-maxage the live endpoint advertises.
const DefaultCacheTTL = time.Hour

// Fallback returns the bundled snapshot shown when the API is unavailable.
func Fallback() Data {
	var d Data
	if err := json.Unmarshal(fallbackJSON, &d); err != nil {
		panic(fmt.Sprintf("github: bundled fallback is invalid: %v", err))
	}
	return d
}

type fetcher interface {
	Fetch(ctx context.Context, username string) (Data, error)
}

// Provider serves GitHub data for one user from a TTL cache.
type Provider struct {
	client   fetcher
	username string
	ttl      time.Duration
	now      func() time.Time
	logf     func(format string, args ...any)

	mu        sync.Mutex
	cached    *Data
	fetchedAt time.Time
	lastErr   string
}

func NewProvider(client *Client, username string, ttl time.Duration) *Provider {
	return newProvider(client, username, ttl)
}

func newProvider(client fetcher, username string, ttl time.Duration) *Provider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Provider{client: client, username: username, ttl: ttl, now: time.Now, logf: log.Printf}
}

func (p *Provider) Username() string { return p.username }

// Fetch returns fresh or cached data, or the error that prevented a fetch.
// A failure is logged once until it changes or a fetch succeeds.
func (p *Provider) Fetch(ctx context.Context) (Data, error) {
	if p.username == "" {
		return Data{}, ErrNoUsername
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if p.cached != nil && now.Sub(p.fetchedAt) < p.ttl {
		return *p.cached, nil
	}

	d, err := p.client.Fetch(ctx, p.username)
	if err != nil {
		if msg := err.Error(); msg != p.lastErr {
			p.lastErr = msg
			p.logf("GitHub API fetch failed: %v", err)
		}
		return Data{}, err
	}
	if p.lastErr != "" {
		p.logf("GitHub API reachable again for @%s", p.username)
		p.lastErr = ""
	}
	p.cached = &d
	p.fetchedAt = now
	return d, nil
}

// Data never fails: when the user is not configured or the API cannot be
// reached it returns the last good response, or the bundled snapshot. A
// missing username is reported once at startup, not per call.
func (p *Provider) Data(ctx context.Context) Data {
	if d, err := p.Fetch(ctx); err == nil {
		return d
	}
	return p.Stale()
}

// Stale returns the last good response regardless of age, or the bundled
// snapshot when nothing was fetched yet.
func (p *Provider) Stale() Data {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached != nil {
		return *p.cached
	}
	return Fallback()
}

// WriteSnapshot writes d as indented JSON, creating parent directories.
func WriteSnapshot(path string, d Data) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// ReadSnapshot loads a file written by WriteSnapshot.
func ReadSnapshot(path string) (Data, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Data{}, err
	}
	var d Data
	if err := json.Unmarshal(b, &d); err != nil {
		return Data{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return d, nil
}
