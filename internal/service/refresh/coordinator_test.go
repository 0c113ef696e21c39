package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestCoordinator_LastWriteWins(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)

	var mu sync.Mutex
	var handled []string

	c := NewCoordinator(context.Background(), func(_ context.Context, req Request) error {
		mu.Lock()
		handled = append(handled, req.Reason)
		first := len(handled) == 1
		mu.Unlock()

		if first {
			started <- struct{}{}
			<-release
		}
		return nil
	})

	c.Submit(Request{ParticipantID: "p1", Reason: "first"})
	<-started

	c.Submit(Request{ParticipantID: "p1", Reason: "second"})
	c.Submit(Request{ParticipantID: "p1", Reason: "third"})
	c.Submit(Request{ParticipantID: "p1", Reason: "fourth"})
	close(release)
	c.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(handled) != 2 {
		t.Fatalf("expected 2 runs, got %v", handled)
	}
	if handled[0] != "first" || handled[1] != "fourth" {
		t.Errorf("runs = %v, want [first fourth]", handled)
	}
	if c.Superseded() != 2 {
		t.Errorf("Superseded() = %d, want 2", c.Superseded())
	}
}

func TestCoordinator_ParticipantsRunIndependently(t *testing.T) {
	var mu sync.Mutex
	counts := make(map[string]int)

	c := NewCoordinator(context.Background(), func(_ context.Context, req Request) error {
		mu.Lock()
		counts[req.ParticipantID]++
		mu.Unlock()
		return nil
	})

	c.Submit(Request{ParticipantID: "a"})
	c.Submit(Request{ParticipantID: "b"})
	c.Wait()

	mu.Lock()
	defer mu.Unlock()
	if counts["a"] != 1 || counts["b"] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestCoordinator_ErrorDoesNotStopLoop(t *testing.T) {
	calls := make(chan string, 4)
	release := make(chan struct{})

	c := NewCoordinator(context.Background(), func(_ context.Context, req Request) error {
		calls <- req.Reason
		if req.Reason == "fails" {
			<-release
			return errors.New("upstream unavailable")
		}
		return nil
	})

	c.Submit(Request{ParticipantID: "p", Reason: "fails"})
	if got := <-calls; got != "fails" {
		t.Fatalf("first call = %s", got)
	}
	c.Submit(Request{ParticipantID: "p", Reason: "retry"})
	close(release)
	c.Wait()

	select {
	case got := <-calls:
		if got != "retry" {
			t.Errorf("second call = %s, want retry", got)
		}
	case <-time.After(time.Second):
		t.Fatal("pending request did not run after failure")
	}
}
