package wakeup

import "time"

// Wakeup is a pending state boundary for one session instance.
type Wakeup struct {
	At            time.Time
	ParticipantID string
	InstanceGuid  string
	Index         int
}

// Queue is a min-heap of wake-ups ordered by instant.
type Queue struct {
	items []*Wakeup
}

func NewQueue() *Queue {
	return &Queue{items: make([]*Wakeup, 0)}
}

func (q *Queue) Len() int {
	return len(q.items)
}

func (q *Queue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	if !a.At.Equal(b.At) {
		return a.At.Before(b.At)
	}
	if a.ParticipantID != b.ParticipantID {
		return a.ParticipantID < b.ParticipantID
	}
	return a.InstanceGuid < b.InstanceGuid
}

func (q *Queue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.items[i].Index = i
	q.items[j].Index = j
}

func (q *Queue) Push(x any) {
	item := x.(*Wakeup)
	item.Index = len(q.items)
	q.items = append(q.items, item)
}

func (q *Queue) Pop() any {
	old := q.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.Index = -1
	q.items = old[0 : n-1]
	return item
}

// Peek returns the earliest wake-up without removing it.
func (q *Queue) Peek() *Wakeup {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}
