// Package session carries flash messages across the redirect boundary using
// a redis-backed store keyed by a session cookie.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/agendabr/agenda/pkg/logging"
)

// CookieName identifies the browser session.
const CookieName = "agenda_sid"

const (
	// CategoryErrors tags validation messages; CategorySuccess tags
	// confirmation messages.
	CategoryErrors  = "errors"
	CategorySuccess = "success"
)

// Store persists category-tagged flash messages in redis. Messages survive
// exactly one redirect: PopFlash consumes them atomically.
type Store struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewStore builds a flash store on the provided redis client.
func NewStore(client *redis.Client, ttl time.Duration, logger *logging.Logger) *Store {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		redis:  client,
		ttl:    ttl,
		logger: logger,
	}
}

// SessionID returns the session identifier from the request cookie, minting
// and setting a new one when absent.
func (s *Store) SessionID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	sid := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})
	return sid
}

// AddFlash appends messages under a category for the session.
func (s *Store) AddFlash(ctx context.Context, sid, category string, messages ...string) error {
	if len(messages) == 0 {
		return nil
	}

	key := flashKey(sid, category)

	existing, err := s.redis.Get(ctx, key).Bytes()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("session: failed to load flash messages: %w", err)
	}

	var all []string
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &all); err != nil {
			// Corrupt entry; start over rather than fail the request.
			s.logger.Warn("session: discarding corrupt flash entry", "key", key)
			all = nil
		}
	}
	all = append(all, messages...)

	data, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("session: failed to marshal flash messages: %w", err)
	}
	if err := s.redis.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: failed to persist flash messages: %w", err)
	}
	return nil
}

// PopFlash returns and clears the messages under a category. A missing key
// yields an empty result, not an error.
func (s *Store) PopFlash(ctx context.Context, sid, category string) ([]string, error) {
	data, err := s.redis.GetDel(ctx, flashKey(sid, category)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("session: failed to pop flash messages: %w", err)
	}

	var messages []string
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("session: failed to decode flash messages: %w", err)
	}
	return messages, nil
}

func flashKey(sid, category string) string {
	return fmt.Sprintf("flash:%s:%s", sid, category)
}
