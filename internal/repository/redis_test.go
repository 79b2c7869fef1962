package repository

import (
	"context"
	"testing"
	"time"

	"boulderbot/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisSessionRepository(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	defer client.Close()

	repo := NewRedisSessionRepository(client, time.Hour)
	ctx := context.Background()

	t.Run("SetAndGetSession", func(t *testing.T) {
		start := time.Date(2021, 12, 6, 19, 15, 0, 0, time.UTC)
		session := &models.Session{
			UserID: 123,
			State:  models.StateAwaitingConfirmation,
			Date:   "2021-12-06",
			Draft: &models.BookingDraft{
				UserID:   123,
				Facility: "BASEMENT",
				SlotID:   "SKB-45-25",
				Start:    start,
				End:      start.Add(2 * time.Hour),
			},
			Snapshot: models.Availability{
				"BASEMENT": {{ID: "SKB-45-25", Start: start, End: start.Add(2 * time.Hour), FreeSpots: 4}},
			},
		}

		require.NoError(t, repo.SetSession(ctx, session))

		got, err := repo.GetSession(ctx, 123)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, session.State, got.State)
		assert.Equal(t, session.Date, got.Date)
		require.NotNil(t, got.Draft)
		assert.Equal(t, "SKB-45-25", got.Draft.SlotID)
		assert.True(t, start.Equal(got.Draft.Start))
		assert.Equal(t, 4, got.Snapshot["BASEMENT"][0].FreeSpots)
	})

	t.Run("TTLApplied", func(t *testing.T) {
		ttl := s.TTL("boulder_session:123")
		assert.Equal(t, time.Hour, ttl)

		s.FastForward(time.Hour + time.Second)
		got, err := repo.GetSession(ctx, 123)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("GetNonExistentSession", func(t *testing.T) {
		got, err := repo.GetSession(ctx, 999)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ClearSession", func(t *testing.T) {
		require.NoError(t, repo.SetSession(ctx, &models.Session{UserID: 456, State: models.StateAwaitingDate}))

		require.NoError(t, repo.ClearSession(ctx, 456))

		got, _ := repo.GetSession(ctx, 456)
		assert.Nil(t, got)
	})

	t.Run("RateLimit", func(t *testing.T) {
		userID := int64(789)
		limit := 2
		window := time.Second

		allowed, err := repo.CheckRateLimit(ctx, userID, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, userID, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, userID, limit, window)
		require.NoError(t, err)
		assert.False(t, allowed)

		s.FastForward(window + time.Millisecond)

		allowed, err = repo.CheckRateLimit(ctx, userID, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("RateLimitWindowHasTTL", func(t *testing.T) {
		userID := int64(790)
		key := "boulder_rate_limit:790"
		window := 2 * time.Second

		_, err := repo.CheckRateLimit(ctx, userID, 5, window)
		require.NoError(t, err)
		assert.Equal(t, window, s.TTL(key))

		s.FastForward(time.Second)
		_, err = repo.CheckRateLimit(ctx, userID, 5, window)
		require.NoError(t, err)
		assert.Equal(t, time.Second, s.TTL(key), "later hits keep the original window")

		got, err := s.Get(key)
		require.NoError(t, err)
		assert.Equal(t, "2", got)
	})

	t.Run("NilClient", func(t *testing.T) {
		repo := NewRedisSessionRepository(nil, time.Hour)
		_, err := repo.GetSession(ctx, 123)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redis client is nil")
		assert.Error(t, Ping(ctx, nil))
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, Ping(ctx, client))
	})

	t.Run("Close", func(t *testing.T) {
		assert.NoError(t, Close(client))
	})
}
