// Package session keeps one input store per dashboard visitor.
package session

import (
	"container/list"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/ratio-dashboard/internal/ratios"
	"github.com/iwvelando/ratio-dashboard/internal/store"
	"go.uber.org/zap"
)

// sweepInterval is the minimum time between two idle-session sweeps.
const sweepInterval = time.Minute

type entry struct {
	id       string
	mu       sync.Mutex
	store    *store.Store
	lastSeen time.Time
	elem     *list.Element
}

// Registry maps session ids to stores. Access to a single store is
// serialized. Idle sessions are evicted lazily on lookup, and the least
// recently used session makes room once maxSessions is reached.
type Registry struct {
	logger      *zap.Logger
	defaults    ratios.FinancialInputs
	ttl         time.Duration
	maxSessions int
	now         func() time.Time

	mu        sync.Mutex
	entries   map[string]*entry
	recent    *list.List // front is the most recently used
	lastSweep time.Time
}

// NewRegistry creates a Registry whose new sessions start from defaults.
// A non-positive ttl keeps sessions until they are displaced; a
// non-positive maxSessions removes the cap.
func NewRegistry(logger *zap.Logger, defaults ratios.FinancialInputs, ttl time.Duration, maxSessions int) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		logger:      logger,
		defaults:    defaults,
		ttl:         ttl,
		maxSessions: maxSessions,
		now:         time.Now,
		entries:     make(map[string]*entry),
		recent:      list.New(),
	}
}

// With runs fn with exclusive access to the store of session id. When id is
// empty, unknown or expired a new session is created. The id actually used
// is returned.
func (r *Registry) With(id string, fn func(*store.Store)) string {
	id, e := r.acquire(id)

	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.store)
	return id
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry) acquire(id string) (string, *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweepLocked(now)

	if e, ok := r.entries[id]; ok && id != "" {
		if !r.expired(e, now) {
			e.lastSeen = now
			r.recent.MoveToFront(e.elem)
			return id, e
		}
		r.removeLocked(e, "session expired")
	}

	for r.maxSessions > 0 && len(r.entries) >= r.maxSessions {
		r.removeLocked(r.recent.Back().Value.(*entry), "session evicted")
	}

	newID := uuid.NewString()
	e := &entry{
		id:       newID,
		store:    store.New(r.logger.With(zap.String("session", newID)), r.defaults),
		lastSeen: now,
	}
	e.elem = r.recent.PushFront(e)
	r.entries[newID] = e
	r.logger.Debug("session created",
		zap.String("op", "session.acquire"),
		zap.String("session", newID),
		zap.Int("sessions", len(r.entries)),
	)
	return newID, e
}

func (r *Registry) expired(e *entry, now time.Time) bool {
	return r.ttl > 0 && now.Sub(e.lastSeen) > r.ttl
}

// sweepLocked drops expired sessions starting from the least recently used,
// at most once per sweepInterval.
func (r *Registry) sweepLocked(now time.Time) {
	if r.ttl <= 0 || now.Sub(r.lastSweep) < sweepInterval {
		return
	}
	r.lastSweep = now

	for el := r.recent.Back(); el != nil; {
		e := el.Value.(*entry)
		if !r.expired(e, now) {
			break
		}
		prev := el.Prev()
		r.removeLocked(e, "session expired")
		el = prev
	}
}

func (r *Registry) removeLocked(e *entry, reason string) {
	r.recent.Remove(e.elem)
	delete(r.entries, e.id)
	r.logger.Debug(reason,
		zap.String("op", "session.evict"),
		zap.String("session", e.id),
	)
}
