package allowlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/signalboard/signalboard-backend/models"
)

const (
	DefaultTTL          = 5 * time.Minute
	DefaultFetchTimeout = 10 * time.Second

	// freshKey expires with the TTL; staleKey never expires and is served
	// when a refresh fails. Together they form the empty/fresh/stale states.
	freshKey = "allowlist:fresh"
	staleKey = "allowlist:stale"
)

// Set holds lowercased allow-listed addresses.
type Set map[string]struct{}

func (s Set) Contains(address string) bool {
	_, ok := s[models.NormalizeAddress(address)]
	return ok
}

// Cache is a read-through TTL cache over a remote allow-list. Get never
// returns an error: refresh failures fall back to the last good snapshot,
// or to an empty set if no snapshot was ever taken.
type Cache struct {
	url    string
	ttl    time.Duration
	client *http.Client
	cache  *gocache.Cache
	logger zerolog.Logger
}

func New(url string, ttl, fetchTimeout time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if fetchTimeout <= 0 {
		fetchTimeout = DefaultFetchTimeout
	}
	return &Cache{
		url:    url,
		ttl:    ttl,
		client: &http.Client{Timeout: fetchTimeout},
		cache:  gocache.New(ttl, 2*ttl),
		logger: log.With().Str("component", "allowlist").Logger(),
	}
}

// Get returns the current allow-list snapshot. A fresh cached set is served
// without any external call; otherwise a refresh is attempted. Concurrent
// refreshes are not deduplicated; last write wins.
func (c *Cache) Get(ctx context.Context) Set {
	if cached, found := c.cache.Get(freshKey); found {
		return cached.(Set)
	}

	set, err := c.fetch(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("allow-list refresh failed")
		if stale, found := c.cache.Get(staleKey); found {
			return stale.(Set)
		}
		return Set{}
	}

	c.cache.Set(freshKey, set, c.ttl)
	c.cache.Set(staleKey, set, gocache.NoExpiration)
	c.logger.Debug().Int("addresses", len(set)).Msg("allow-list refreshed")
	return set
}

// remote entries are either plain address strings or objects exposing an
// address field
type remoteEntry struct {
	Address string `json:"address"`
}

func (c *Cache) fetch(ctx context.Context) (Set, error) {
	if c.url == "" {
		return nil, errors.New("allow-list URL not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("allow-list service returned status %d", resp.StatusCode)
	}

	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding allow-list response: %w", err)
	}

	set := make(Set, len(raw))
	for _, item := range raw {
		var address string
		if err := json.Unmarshal(item, &address); err != nil {
			var entry remoteEntry
			if err := json.Unmarshal(item, &entry); err != nil {
				continue
			}
			address = entry.Address
		}
		if address == "" {
			continue
		}
		set[models.NormalizeAddress(address)] = struct{}{}
	}
	return set, nil
}
