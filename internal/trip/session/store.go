// internal/trip/session/store.go
package session

import (
	"sync"

	gocache "github.com/patrickmn/go-cache"

	"github.com/EGDongAn/trip-planner-ai/internal/common/config"
	"github.com/EGDongAn/trip-planner-ai/internal/common/metrics"
	"github.com/EGDongAn/trip-planner-ai/internal/trip/state"
)

// entry pairs a session's state with its single-flight lock. The lock
// serializes generation calls per session so concurrent requests cannot
// interleave optimistic updates.
type entry struct {
	mu    sync.Mutex
	state *state.TripState
}

// Store keeps live sessions in memory with idle expiry. Sessions are not
// persisted; a restart clears them.
type Store struct {
	cache *gocache.Cache
}

func NewStore(cfg config.SessionConfig) *Store {
	c := gocache.New(config.GetSeconds(cfg.TTL), config.GetSeconds(cfg.CleanupInterval))
	c.OnEvicted(func(string, interface{}) {
		metrics.ActiveSessions.Dec()
	})
	return &Store{cache: c}
}

// GetOrCreate returns the session entry, creating a fresh one at the initial
// stage if none exists. Each access renews the idle TTL.
func (s *Store) GetOrCreate(sessionID string) *entry {
	for {
		if v, ok := s.cache.Get(sessionID); ok {
			e := v.(*entry)
			s.cache.SetDefault(sessionID, e)
			return e
		}

		e := &entry{state: state.NewTripState()}
		if err := s.cache.Add(sessionID, e, gocache.DefaultExpiration); err != nil {
			// Lost the creation race; read the winner on the next pass. If the
			// winner was already evicted, the next pass re-adds.
			continue
		}
		metrics.ActiveSessions.Inc()
		return e
	}
}

// Get returns the session entry if it exists.
func (s *Store) Get(sessionID string) (*entry, bool) {
	v, ok := s.cache.Get(sessionID)
	if !ok {
		return nil, false
	}
	return v.(*entry), true
}

// Delete removes a session immediately.
func (s *Store) Delete(sessionID string) {
	s.cache.Delete(sessionID)
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	return s.cache.ItemCount()
}
