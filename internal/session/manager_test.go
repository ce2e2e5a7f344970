package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonathan/smartapplicant/internal/chat"
	"github.com/jonathan/smartapplicant/internal/types"
	"github.com/jonathan/smartapplicant/internal/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct{}

func (stubGenerator) GenerateCoverLetter(context.Context, *types.ResumeFile, string) (*types.MatchAssessment, string, error) {
	return &types.MatchAssessment{CompanyName: "Acme", MatchPercentage: 70}, "Dear Acme,\n\nRegards", nil
}

func (stubGenerator) GenerateEmail(context.Context, *types.ResumeFile, string, string) (string, error) {
	return "Hi", nil
}

type stubRefiner struct{}

func (stubRefiner) Refine(context.Context, chat.Turn) (*chat.Result, error) {
	return &chat.Result{Reply: "ok"}, nil
}

func newTestManager() (*Manager, *MemoryStore) {
	store := NewMemoryStore(time.Hour)
	return NewManager(store, stubGenerator{}, stubRefiner{}, time.Hour), store
}

func TestManager_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager()
	defer m.Close()

	c, err := m.Create(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID())

	got, err := m.Get(ctx, c.ID())
	require.NoError(t, err)
	assert.Same(t, c, got)

	_, err = m.Get(ctx, "unknown")
	assert.True(t, IsNotFound(err))
}

func TestManager_PersistsChanges(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager()
	defer m.Close()

	c, err := m.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, c.SetJobDescription("Platform engineer"))

	assert.Eventually(t, func() bool {
		s, err := store.Get(ctx, c.ID())
		return err == nil && s.JobDescription == "Platform engineer"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestManager_LoadsFromStore(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager()
	defer m.Close()

	state := wizard.NewState()
	state.JobDescription = "Stored job"
	require.NoError(t, store.Save(ctx, "stored", state))

	c, err := m.Get(ctx, "stored")
	require.NoError(t, err)
	assert.Equal(t, "Stored job", c.Snapshot().JobDescription)
	assert.Equal(t, 1, m.Live())
}

func TestManager_Delete(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager()
	defer m.Close()

	c, err := m.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, c.ID()))
	assert.Equal(t, 0, m.Live())
	_, err = store.Get(ctx, c.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, m.Exists(ctx, c.ID()))
}

// blockingStore holds Save calls until release is closed once blocking is on.
type blockingStore struct {
	*MemoryStore
	blocking atomic.Bool
	entered  chan struct{}
	release  chan struct{}
}

func newBlockingStore() *blockingStore {
	return &blockingStore{
		MemoryStore: NewMemoryStore(time.Hour),
		entered:     make(chan struct{}, 1),
		release:     make(chan struct{}),
	}
}

func (s *blockingStore) Save(ctx context.Context, id string, state wizard.State) error {
	if s.blocking.Load() {
		select {
		case s.entered <- struct{}{}:
		default:
		}
		<-s.release
	}
	return s.MemoryStore.Save(ctx, id, state)
}

func TestManager_DeleteWaitsForInFlightSave(t *testing.T) {
	ctx := context.Background()
	store := newBlockingStore()
	m := NewManager(store, stubGenerator{}, stubRefiner{}, time.Hour)
	defer m.Close()

	c, err := m.Create(ctx)
	require.NoError(t, err)

	store.blocking.Store(true)
	require.NoError(t, c.SetJobDescription("Backend Engineer at Acme"))
	select {
	case <-store.entered:
	case <-time.After(time.Second):
		t.Fatal("state change was not persisted")
	}

	deleted := make(chan error, 1)
	go func() { deleted <- m.Delete(ctx, c.ID()) }()

	select {
	case err := <-deleted:
		t.Fatalf("Delete returned before the save finished: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(store.release)
	select {
	case err := <-deleted:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Delete did not return")
	}

	_, err = store.Get(ctx, c.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(ctx, c.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, m.Live())
}

func TestManager_DeletedSessionIsNotReloaded(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager()
	defer m.Close()

	c, err := m.Create(ctx)
	require.NoError(t, err)
	state := c.State()
	require.NoError(t, m.Delete(ctx, c.ID()))

	// a write that lands after the delete must not bring the session back
	require.NoError(t, store.Save(ctx, c.ID(), state))
	_, err = m.Get(ctx, c.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, m.Exists(ctx, c.ID()))
	assert.Equal(t, 0, m.Live())
}

func TestManager_SweepPrunesTombstones(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager()
	defer m.Close()

	now := time.Now()
	m.now = func() time.Time { return now }

	c, err := m.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, m.Delete(ctx, c.ID()))

	m.Sweep()
	m.mu.Lock()
	assert.Contains(t, m.deleted, c.ID())
	m.mu.Unlock()

	now = now.Add(tombstoneTTL + time.Minute)
	m.Sweep()
	m.mu.Lock()
	assert.NotContains(t, m.deleted, c.ID())
	m.mu.Unlock()
}

func TestManager_Sweep(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager()
	defer m.Close()

	now := time.Now()
	m.now = func() time.Time { return now }

	c, err := m.Create(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, m.Sweep())

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 0, m.Live())

	// state survives in the store until it expires there
	again, err := m.Get(ctx, c.ID())
	require.NoError(t, err)
	assert.NotSame(t, c, again)
}
