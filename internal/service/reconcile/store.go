package reconcile

import (
	"sort"
	"sync"

	"github.com/KasumiMercury/primind-session-timeline/internal/domain"
)

type Observer func(participantID string, change Change)

type view struct {
	byGuid map[string]*domain.ScheduledSession
	order  []string
}

// Store keeps the latest computed view of every participant's timeline.
// Applying a new computation patches existing instances in place so
// holders of an unchanged instance keep a stable pointer.
type Store struct {
	mu        sync.RWMutex
	views     map[string]*view
	observers map[int]Observer
	nextID    int
}

func NewStore() *Store {
	return &Store{
		views:     make(map[string]*view),
		observers: make(map[int]Observer),
	}
}

// Subscribe registers fn for every future change and returns a function
// that removes it.
func (s *Store) Subscribe(fn Observer) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.observers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

// Apply reconciles the participant's view with sessions and returns the
// changes in instance order. Observers are called once per change after
// the view is updated.
func (s *Store) Apply(participantID string, sessions []domain.ScheduledSession) []Change {
	s.mu.Lock()

	v, ok := s.views[participantID]
	if !ok {
		v = &view{byGuid: make(map[string]*domain.ScheduledSession)}
		s.views[participantID] = v
	}

	seen := make(map[string]struct{}, len(sessions))
	order := make([]string, 0, len(sessions))
	var changes []Change

	for i := range sessions {
		next := &sessions[i]
		if _, dup := seen[next.InstanceGuid]; dup {
			continue
		}
		seen[next.InstanceGuid] = struct{}{}
		order = append(order, next.InstanceGuid)

		cur, exists := v.byGuid[next.InstanceGuid]
		if !exists {
			c := next.Clone()
			v.byGuid[next.InstanceGuid] = &c
			changes = append(changes, Change{Kind: ChangeAdded, InstanceGuid: c.InstanceGuid, Session: &c})
			continue
		}

		fields := Diff(cur, next)
		if len(fields) == 0 {
			continue
		}
		Patch(cur, next, fields)
		changes = append(changes, Change{Kind: ChangeUpdated, InstanceGuid: cur.InstanceGuid, Fields: fields, Session: cur})
	}

	var removed []string
	for guid := range v.byGuid {
		if _, ok := seen[guid]; !ok {
			removed = append(removed, guid)
		}
	}
	sort.Strings(removed)
	for _, guid := range removed {
		changes = append(changes, Change{Kind: ChangeRemoved, InstanceGuid: guid, Session: v.byGuid[guid]})
		delete(v.byGuid, guid)
	}
	v.order = order

	observers := make([]Observer, 0, len(s.observers))
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		observers = append(observers, s.observers[id])
	}
	s.mu.Unlock()

	for _, ch := range changes {
		for _, fn := range observers {
			fn(participantID, ch)
		}
	}

	return changes
}

// Get returns the stored instance. The pointer stays valid until the
// instance is removed and must be treated as read-only.
func (s *Store) Get(participantID, instanceGuid string) (*domain.ScheduledSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.views[participantID]
	if !ok {
		return nil, false
	}
	sess, ok := v.byGuid[instanceGuid]
	return sess, ok
}

// Snapshot returns a deep copy of the participant's view in the order of
// the last applied computation.
func (s *Store) Snapshot(participantID string) ([]domain.ScheduledSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.views[participantID]
	if !ok {
		return nil, false
	}

	out := make([]domain.ScheduledSession, 0, len(v.order))
	for _, guid := range v.order {
		out = append(out, v.byGuid[guid].Clone())
	}
	return out, true
}

func (s *Store) Forget(participantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.views, participantID)
}
