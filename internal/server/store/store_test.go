package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRegisterLoginSession(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	user, err := s.CreateUser(ctx, "  mecano  ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "mecano", user.Username)

	_, err = s.CreateUser(ctx, "mecano", "secret2")
	assert.ErrorIs(t, err, ErrUserExists)
	_, err = s.CreateUser(ctx, "short", "123")
	assert.Error(t, err)

	_, err = s.Authenticate(ctx, "mecano", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = s.Authenticate(ctx, "nobody", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	logged, err := s.Authenticate(ctx, "mecano", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	token, err := s.CreateSession(ctx, user.ID, time.Hour)
	require.NoError(t, err)
	got, err := s.GetUserBySession(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "mecano", got.Username)

	_, err = s.GetUserBySession(ctx, "missing")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestExpiredSessionCleanup(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	user, err := s.CreateUser(ctx, "chef", "secret1")
	require.NoError(t, err)

	_, err = s.db.ExecContext(ctx, `INSERT INTO sessions(token, user_id, created_at, expires_at) VALUES(?, ?, ?, ?)`,
		"old", user.ID, time.Now().Add(-2*time.Hour).UTC(), time.Now().Add(-time.Hour).UTC())
	require.NoError(t, err)

	_, err = s.GetUserBySession(ctx, "old")
	assert.ErrorIs(t, err, ErrInvalidSession)

	n, err := s.CleanupExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRecordMatchAndStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	alice, err := s.CreateUser(ctx, "alice", "secret1")
	require.NoError(t, err)
	bob, err := s.CreateUser(ctx, "bob", "secret1")
	require.NoError(t, err)

	start := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)
	first := MatchRecord{
		RoomID:    "ABC234",
		Winner:    "gentils",
		StartedAt: start,
		EndedAt:   start.Add(5 * time.Minute),
		Players: []MatchPlayer{
			{AccountID: alice.ID, Name: "Alice", Team: "gentils", Role: "chef", Alive: true},
			{AccountID: bob.ID, Name: "Bob", Team: "saboteurs", Role: "saboteur"},
			{Name: "訪客", Team: "gentils", Role: "mecano", Alive: true},
		},
	}
	id, err := s.RecordMatch(ctx, first)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	second := first
	second.Winner = "saboteurs"
	_, err = s.RecordMatch(ctx, second)
	require.NoError(t, err)

	st, err := s.Stats(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, Stats{Played: 2, Wins: 1}, st)

	st, err = s.Stats(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, Stats{Played: 2, Wins: 1}, st)

	st, err = s.Stats(ctx, 9999)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, st)
}
