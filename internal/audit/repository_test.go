package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	r, err := Open(context.Background(), filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRecordAndRecent(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, r.Record(ctx, &Event{Action: ActionLogin, Actor: "alice", RemoteIP: "10.0.0.1", CreatedAt: base}))
	require.NoError(t, r.Record(ctx, &Event{
		Action:    ActionPermissions,
		Actor:     "root",
		Target:    "alice",
		Details:   map[string]any{"permissions": []string{"Home", "Info"}, "role": "user"},
		CreatedAt: base.Add(time.Minute),
	}))

	evs, err := r.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, evs, 2)

	assert.Equal(t, ActionPermissions, evs[0].Action)
	assert.Equal(t, "root", evs[0].Actor)
	assert.Equal(t, "alice", evs[0].Target)
	assert.Equal(t, "user", evs[0].Details["role"])
	assert.True(t, evs[0].CreatedAt.Equal(base.Add(time.Minute)))
	assert.NotEmpty(t, evs[0].ID)

	assert.Equal(t, ActionLogin, evs[1].Action)
	assert.Equal(t, "10.0.0.1", evs[1].RemoteIP)
	assert.Empty(t, evs[1].Target)
	assert.Nil(t, evs[1].Details)
}

func TestRecent_Limit(t *testing.T) {
	r := testRepo(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, r.Record(ctx, &Event{Action: ActionLogout, Actor: "alice"}))
	}
	evs, err := r.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, evs, 3)
}

func TestNop(t *testing.T) {
	var rec Recorder = Nop{}
	assert.NoError(t, rec.Record(context.Background(), &Event{Action: ActionLogin}))
	evs, err := rec.Recent(context.Background(), 5)
	assert.NoError(t, err)
	assert.Empty(t, evs)
}
