package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_GetOrCreate(t *testing.T) {
	store := NewSessionStore(newFakeAPI(), "test_provider", time.Hour, testOptions())

	sess, created := store.GetOrCreate("")
	require.True(t, created)
	_, err := uuid.Parse(sess.ID)
	assert.NoError(t, err)

	again, created := store.GetOrCreate(sess.ID)
	assert.False(t, created)
	assert.Same(t, sess, again)

	other, created := store.GetOrCreate("not-a-uuid")
	assert.True(t, created)
	assert.NotEqual(t, sess.ID, other.ID)

	unknown, created := store.GetOrCreate(uuid.NewString())
	assert.True(t, created)
	assert.NotNil(t, unknown.Dashboard)
	assert.Equal(t, 3, store.Len())
}

func TestSessionStore_SessionsAreIsolated(t *testing.T) {
	api := newFakeAPI().on("CreateABTest", `{"testId":"ab_1"}`)
	store := NewSessionStore(api, "test_provider", time.Hour, testOptions())

	a, _ := store.GetOrCreate("")
	b, _ := store.GetOrCreate("")
	a.Experiments.Create(context.Background(), validABTest())

	assert.Len(t, a.Experiments.State().Tests, 1)
	assert.Empty(t, b.Experiments.State().Tests)
}

func TestSessionStore_Sweep(t *testing.T) {
	now := fixedNow
	opts := testOptions()
	opts.Now = func() time.Time { return now }
	store := NewSessionStore(newFakeAPI(), "test_provider", time.Hour, opts)

	stale, _ := store.GetOrCreate("")
	now = now.Add(30 * time.Minute)
	fresh, _ := store.GetOrCreate("")

	now = now.Add(45 * time.Minute)
	assert.Equal(t, 1, store.Sweep())

	_, ok := store.Get(stale.ID)
	assert.False(t, ok)
	_, ok = store.Get(fresh.ID)
	assert.True(t, ok)
}

func TestSessionStore_RunStopsWithContext(t *testing.T) {
	store := NewSessionStore(newFakeAPI(), "test_provider", time.Hour, testOptions())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		store.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
