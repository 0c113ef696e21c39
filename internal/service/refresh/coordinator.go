package refresh

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Request asks for a participant's timeline to be recomputed.
type Request struct {
	ParticipantID        string
	Now                  time.Time
	Reason               string
	RefreshNotifications bool
}

type Func func(ctx context.Context, req Request) error

// Coordinator runs at most one recomputation per participant at a time.
// A request arriving while one is running replaces any request still
// waiting, so only the newest one runs next.
type Coordinator struct {
	ctx context.Context
	fn  Func

	mu         sync.Mutex
	running    map[string]bool
	pending    map[string]Request
	superseded int
	wg         sync.WaitGroup
}

func NewCoordinator(ctx context.Context, fn Func) *Coordinator {
	return &Coordinator{
		ctx:     ctx,
		fn:      fn,
		running: make(map[string]bool),
		pending: make(map[string]Request),
	}
}

// Submit schedules req and returns immediately.
func (c *Coordinator) Submit(req Request) {
	c.mu.Lock()
	if c.running[req.ParticipantID] {
		if _, waiting := c.pending[req.ParticipantID]; waiting {
			c.superseded++
		}
		c.pending[req.ParticipantID] = req
		c.mu.Unlock()
		return
	}
	c.running[req.ParticipantID] = true
	c.wg.Add(1)
	c.mu.Unlock()

	go c.loop(req)
}

func (c *Coordinator) loop(req Request) {
	defer c.wg.Done()

	for {
		if err := c.fn(c.ctx, req); err != nil {
			slog.WarnContext(c.ctx, "timeline recomputation failed",
				slog.String("event", "timeline.refresh.fail"),
				slog.String("participant_id", req.ParticipantID),
				slog.String("reason", req.Reason),
				slog.String("error", err.Error()),
			)
		}

		c.mu.Lock()
		next, ok := c.pending[req.ParticipantID]
		if !ok || c.ctx.Err() != nil {
			delete(c.running, req.ParticipantID)
			delete(c.pending, req.ParticipantID)
			c.mu.Unlock()
			return
		}
		delete(c.pending, req.ParticipantID)
		c.mu.Unlock()

		req = next
	}
}

// Superseded counts waiting requests that were replaced before running.
func (c *Coordinator) Superseded() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.superseded
}

// Wait blocks until no recomputation is running.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}
