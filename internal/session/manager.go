package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/smartapplicant/internal/logging"
	"github.com/jonathan/smartapplicant/internal/wizard"
)

// tombstoneTTL is how long a deleted id stays unloadable. It only has to
// outlast store reads that started before the delete.
const tombstoneTTL = 10 * time.Minute

type liveSession struct {
	controller  *wizard.Controller
	unsubscribe func()
	lastSeen    time.Time
	persisted   chan struct{} // closed when the persist goroutine exits
}

// Manager hands out one Controller per session and saves its state to the
// Store after every change.
type Manager struct {
	store     Store
	generator wizard.Generator
	refiner   wizard.Refiner
	idleTTL   time.Duration

	mu      sync.Mutex
	live    map[string]*liveSession
	deleted map[string]time.Time
	now     func() time.Time

	cleanupStop chan struct{}
	cleanupDone chan struct{}
}

// NewManager creates a Manager. Controllers idle for longer than idleTTL are
// released by Sweep; their state stays in the store until it expires there.
func NewManager(store Store, generator wizard.Generator, refiner wizard.Refiner, idleTTL time.Duration) *Manager {
	return &Manager{
		store:     store,
		generator: generator,
		refiner:   refiner,
		idleTTL:   idleTTL,
		live:      map[string]*liveSession{},
		deleted:   map[string]time.Time{},
		now:       time.Now,
	}
}

// Create starts a new empty session.
func (m *Manager) Create(ctx context.Context) (*wizard.Controller, error) {
	id := uuid.NewString()
	state := wizard.NewState()
	if err := m.store.Save(ctx, id, state); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attachLocked(id, state), nil
}

// Get returns the controller for id, loading it from the store if needed.
func (m *Manager) Get(ctx context.Context, id string) (*wizard.Controller, error) {
	m.mu.Lock()
	if _, gone := m.deleted[id]; gone {
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	if ls, ok := m.live[id]; ok {
		ls.lastSeen = m.now()
		m.mu.Unlock()
		return ls.controller, nil
	}
	m.mu.Unlock()

	state, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// the session may have been deleted while the store was read
	if _, gone := m.deleted[id]; gone {
		return nil, ErrNotFound
	}
	// another request may have loaded it meanwhile
	if ls, ok := m.live[id]; ok {
		ls.lastSeen = m.now()
		return ls.controller, nil
	}
	return m.attachLocked(id, state), nil
}

// Delete ends a session. It waits for a save already in progress to finish
// before removing the stored state, so the session cannot be written back.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	ls, ok := m.live[id]
	delete(m.live, id)
	m.deleted[id] = m.now()
	m.mu.Unlock()

	if ok {
		ls.unsubscribe()
		ls.controller.Close()
		select {
		case <-ls.persisted:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return m.store.Delete(ctx, id)
}

// Exists reports whether id names a live or stored session.
func (m *Manager) Exists(ctx context.Context, id string) bool {
	_, err := m.Get(ctx, id)
	return err == nil
}

func (m *Manager) attachLocked(id string, state wizard.State) *wizard.Controller {
	c := wizard.NewController(id, state, m.generator, m.refiner)
	ch, unsubscribe := c.Subscribe()
	ls := &liveSession{
		controller:  c,
		unsubscribe: unsubscribe,
		lastSeen:    m.now(),
		persisted:   make(chan struct{}),
	}
	m.live[id] = ls

	go func() {
		defer close(ls.persisted)
		m.persist(id, c, ch)
	}()
	return c
}

// persist saves the controller's state whenever it changes. Snapshots are
// coalesced, so the saved state is always the newest one.
func (m *Manager) persist(id string, c *wizard.Controller, changes <-chan wizard.Snapshot) {
	for range changes {
		m.mu.Lock()
		ls, ok := m.live[id]
		if ok {
			ls.lastSeen = m.now()
		}
		m.mu.Unlock()
		if !ok {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := m.store.Save(ctx, id, c.State())
		cancel()
		if err != nil {
			logging.Warn().Err(err).Str("session_id", id).Msg("failed to persist session")
		}
	}
}

// Sweep releases controllers idle for longer than the idle TTL and returns
// how many were released. Busy controllers are kept.
func (m *Manager) Sweep() int {
	if m.idleTTL <= 0 {
		return 0
	}

	m.mu.Lock()
	for id, at := range m.deleted {
		if m.now().Sub(at) > tombstoneTTL {
			delete(m.deleted, id)
		}
	}
	var idle []*liveSession
	cutoff := m.now().Add(-m.idleTTL)
	for id, ls := range m.live {
		if ls.lastSeen.Before(cutoff) && !busy(ls.controller.Snapshot()) {
			idle = append(idle, ls)
			delete(m.live, id)
		}
	}
	m.mu.Unlock()

	for _, ls := range idle {
		ls.unsubscribe()
		ls.controller.Close()
	}
	if cleaner, ok := m.store.(interface{ Cleanup() int }); ok {
		cleaner.Cleanup()
	}
	return len(idle)
}

func busy(s wizard.Snapshot) bool {
	for _, b := range s.Busy {
		if b {
			return true
		}
	}
	return false
}

// StartSweeper runs Sweep every interval until Close.
func (m *Manager) StartSweeper(interval time.Duration) {
	m.mu.Lock()
	if m.cleanupStop != nil {
		m.mu.Unlock()
		return
	}
	m.cleanupStop = make(chan struct{})
	m.cleanupDone = make(chan struct{})
	stop, done := m.cleanupStop, m.cleanupDone
	m.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := m.Sweep(); n > 0 {
					logging.Debug().Int("released", n).Msg("released idle sessions")
				}
			case <-stop:
				return
			}
		}
	}()
}

// Live returns the number of sessions held in memory.
func (m *Manager) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// Close stops the sweeper and releases every controller.
func (m *Manager) Close() {
	m.mu.Lock()
	stop, done := m.cleanupStop, m.cleanupDone
	m.cleanupStop = nil
	live := m.live
	m.live = map[string]*liveSession{}
	m.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
	for _, ls := range live {
		ls.unsubscribe()
		ls.controller.Close()
	}
}

// IsNotFound reports whether err means the session does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
