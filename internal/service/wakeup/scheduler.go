package wakeup

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"
	"time"
)

// Handler re-derives a participant's timeline when one of its boundaries
// is reached.
type Handler func(ctx context.Context, participantID string, at time.Time)

// Scheduler holds every pending boundary in one heap and drives a single
// timer for the earliest one.
type Scheduler struct {
	mu            sync.Mutex
	queue         *Queue
	byParticipant map[string][]*Wakeup
	wake          chan struct{}
	handler       Handler
	now           func() time.Time
}

func NewScheduler(handler Handler) *Scheduler {
	return &Scheduler{
		queue:         NewQueue(),
		byParticipant: make(map[string][]*Wakeup),
		wake:          make(chan struct{}, 1),
		handler:       handler,
		now:           time.Now,
	}
}

// Replace drops the participant's pending wake-ups and schedules the given
// instants in their place.
func (s *Scheduler) Replace(participantID string, wakeups []Wakeup) {
	s.mu.Lock()
	s.removeLocked(participantID)

	items := make([]*Wakeup, 0, len(wakeups))
	for _, w := range wakeups {
		item := &Wakeup{At: w.At, ParticipantID: participantID, InstanceGuid: w.InstanceGuid}
		heap.Push(s.queue, item)
		items = append(items, item)
	}
	if len(items) > 0 {
		s.byParticipant[participantID] = items
	}
	s.mu.Unlock()

	s.signal()
}

func (s *Scheduler) Cancel(participantID string) {
	s.mu.Lock()
	s.removeLocked(participantID)
	s.mu.Unlock()

	s.signal()
}

func (s *Scheduler) removeLocked(participantID string) {
	for _, item := range s.byParticipant[participantID] {
		if item.Index >= 0 {
			heap.Remove(s.queue, item.Index)
		}
	}
	delete(s.byParticipant, participantID)
}

func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// Next returns the earliest pending wake-up.
func (s *Scheduler) Next() (Wakeup, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := s.queue.Peek()
	if item == nil {
		return Wakeup{}, false
	}
	return *item, true
}

// PopDue removes every wake-up at or before now and returns one entry per
// participant, carrying that participant's latest due instant.
func (s *Scheduler) PopDue(now time.Time) []Wakeup {
	s.mu.Lock()
	defer s.mu.Unlock()

	due := make([]Wakeup, 0)
	position := make(map[string]int)
	for {
		item := s.queue.Peek()
		if item == nil || item.At.After(now) {
			break
		}
		heap.Pop(s.queue)
		s.forgetLocked(item)

		if i, ok := position[item.ParticipantID]; ok {
			due[i].At = item.At
			due[i].InstanceGuid = item.InstanceGuid
			continue
		}
		position[item.ParticipantID] = len(due)
		due = append(due, *item)
	}
	return due
}

func (s *Scheduler) forgetLocked(item *Wakeup) {
	items := s.byParticipant[item.ParticipantID]
	for i, candidate := range items {
		if candidate == item {
			items = append(items[:i], items[i+1:]...)
			break
		}
	}
	if len(items) == 0 {
		delete(s.byParticipant, item.ParticipantID)
		return
	}
	s.byParticipant[item.ParticipantID] = items
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run fires due wake-ups until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "wakeup scheduler started")

	for {
		var timerC <-chan time.Time
		var timer *time.Timer
		if next, ok := s.Next(); ok {
			delay := max(next.At.Sub(s.now()), 0)
			timer = time.NewTimer(delay)
			timerC = timer.C
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			slog.InfoContext(ctx, "wakeup scheduler stopped")
			return ctx.Err()

		case <-s.wake:
			if timer != nil {
				timer.Stop()
			}

		case <-timerC:
			for _, w := range s.PopDue(s.now()) {
				slog.DebugContext(ctx, "session boundary reached",
					slog.String("participant_id", w.ParticipantID),
					slog.String("instance_guid", w.InstanceGuid),
					slog.Time("at", w.At),
				)
				if s.handler != nil {
					s.handler(ctx, w.ParticipantID, w.At)
				}
			}
		}
	}
}
