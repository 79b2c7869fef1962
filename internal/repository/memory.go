package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"boulderbot/internal/models"
)

// MemorySessionRepository keeps sessions in process. Sessions are stored
// encoded, so callers never share a pointer with the store, same as Redis.
type MemorySessionRepository struct {
	sessions   sync.Map
	rateLimits sync.Map
	ttl        time.Duration
	now        func() time.Time
}

type sessionEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		ttl: ttl,
		now: time.Now,
	}
}

func (r *MemorySessionRepository) GetSession(ctx context.Context, userID int64) (*models.Session, error) {
	val, ok := r.sessions.Load(userID)
	if !ok {
		return nil, nil
	}
	entry := val.(*sessionEntry)
	if !entry.expiresAt.IsZero() && r.now().After(entry.expiresAt) {
		r.sessions.CompareAndDelete(userID, val)
		return nil, nil
	}

	var session models.Session
	if err := json.Unmarshal(entry.data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

func (r *MemorySessionRepository) SetSession(ctx context.Context, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	entry := &sessionEntry{data: data}
	if r.ttl > 0 {
		entry.expiresAt = r.now().Add(r.ttl)
	}
	r.sessions.Store(session.UserID, entry)
	return nil
}

func (r *MemorySessionRepository) ClearSession(ctx context.Context, userID int64) error {
	r.sessions.Delete(userID)
	return nil
}

// Sweep drops expired sessions and rate limit windows and returns the number
// of sessions removed. Expired sessions are also dropped lazily on read.
func (r *MemorySessionRepository) Sweep() int {
	now := r.now()
	removed := 0
	r.sessions.Range(func(key, val any) bool {
		entry := val.(*sessionEntry)
		if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
			if r.sessions.CompareAndDelete(key, val) {
				removed++
			}
		}
		return true
	})
	r.rateLimits.Range(func(key, val any) bool {
		entry := val.(*rateLimitEntry)
		entry.mu.Lock()
		expired := now.After(entry.expiresAt)
		if expired {
			// a concurrent check holding a stale pointer starts a fresh window
			entry.expiresAt = time.Time{}
			r.rateLimits.CompareAndDelete(key, val)
		}
		entry.mu.Unlock()
		return true
	})
	return removed
}

type rateLimitEntry struct {
	mu        sync.Mutex
	count     int
	expiresAt time.Time
}

func (r *MemorySessionRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	now := r.now()
	val, _ := r.rateLimits.LoadOrStore(userID, &rateLimitEntry{})
	entry := val.(*rateLimitEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.expiresAt.IsZero() || now.After(entry.expiresAt) {
		entry.count = 1
		entry.expiresAt = now.Add(window)
	} else {
		entry.count++
	}

	return entry.count <= limit, nil
}
