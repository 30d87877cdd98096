package profile

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nextch/chat-engine/internal/cache/redis"
	"github.com/nextch/chat-engine/internal/types"
)

const (
	// profileCacheTTL is short so renamed counterparts show up quickly.
	profileCacheTTL = 5 * time.Minute

	cacheKeyPrefix = "nextch:profile:"
)

// Fetcher loads a profile from the backend.
type Fetcher interface {
	GetUser(ctx context.Context, userID string) (*types.Recipient, error)
}

type cacheEntry struct {
	rec    types.Recipient
	expiry time.Time
}

// Service resolves counterpart display profiles through a layered cache:
// in-memory, then Redis when configured, then the backend. A stale entry
// is better than nothing, so origin failures fall back to whatever was
// cached last.
type Service struct {
	fetcher Fetcher
	redis   *redis.Client
	logger  *logrus.Logger

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewService creates a profile service. redisClient may be nil.
func NewService(fetcher Fetcher, redisClient *redis.Client, logger *logrus.Logger) *Service {
	return &Service{
		fetcher: fetcher,
		redis:   redisClient,
		logger:  logger,
		entries: make(map[string]cacheEntry),
	}
}

// Get returns the display profile for a user.
func (s *Service) Get(ctx context.Context, userID string) (*types.Recipient, error) {
	s.mu.RLock()
	entry, ok := s.entries[userID]
	s.mu.RUnlock()
	if ok && time.Now().Before(entry.expiry) {
		rec := entry.rec
		return &rec, nil
	}

	if s.redis != nil {
		cached, err := s.redis.Get(ctx, cacheKeyPrefix+userID)
		if err == nil && cached != "" {
			var rec types.Recipient
			if err := json.Unmarshal([]byte(cached), &rec); err == nil {
				s.store(userID, rec)
				return &rec, nil
			}
		}
	}

	rec, err := s.fetcher.GetUser(ctx, userID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("profile fetch failed")
		// Serve the stale entry if one exists.
		if ok {
			stale := entry.rec
			return &stale, nil
		}
		return nil, err
	}

	s.store(userID, *rec)
	if s.redis != nil {
		if data, merr := json.Marshal(rec); merr == nil {
			if err := s.redis.Set(ctx, cacheKeyPrefix+userID, string(data), profileCacheTTL); err != nil {
				s.logger.WithError(err).Warn("failed to cache profile in redis")
			}
		}
	}
	return rec, nil
}

func (s *Service) store(userID string, rec types.Recipient) {
	s.mu.Lock()
	s.entries[userID] = cacheEntry{rec: rec, expiry: time.Now().Add(profileCacheTTL)}
	s.mu.Unlock()
}
