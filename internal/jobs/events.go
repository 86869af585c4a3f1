package jobs

import (
	"sort"
	"sync"
	"time"

	"vr8-converter/internal/domain"
)

// EventType classifies messages emitted while a batch runs.
type EventType string

const (
	EventTypeStatus   EventType = "status"
	EventTypeProgress EventType = "progress"
	EventTypeResult   EventType = "result"
	EventTypeError    EventType = "error"
)

// DefaultHistory is the event buffer size used when none is given.
const DefaultHistory = 500

// Event is a sequenced payload consumed by UI subscribers.
type Event struct {
	Seq            int64            `json:"seq"`
	Timestamp      time.Time        `json:"timestamp"`
	JobID          string           `json:"jobId"`
	Type           EventType        `json:"type"`
	Status         domain.JobStatus `json:"status,omitempty"`
	Message        string           `json:"message,omitempty"`
	Progress       int              `json:"progress"`
	FilesConverted int              `json:"filesConverted,omitempty"`
	DurationMs     int64            `json:"durationMs,omitempty"`
	OutputDir      string           `json:"outputDir,omitempty"`
}

// EventBus keeps a bounded, sequence-ordered history of events.
type EventBus struct {
	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event
	now       func() time.Time
}

// NewEventBus creates a bus holding at most maxEvents events.
func NewEventBus(maxEvents int) *EventBus {
	if maxEvents <= 0 {
		maxEvents = DefaultHistory
	}

	return &EventBus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Publish stamps event with the next sequence number and stores it.
func (b *EventBus) Publish(event Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = b.now()
	}

	if len(b.events) == b.maxEvents {
		copy(b.events, b.events[1:])
		b.events = b.events[:len(b.events)-1]
	}
	b.events = append(b.events, event)

	return event
}

// Since returns events with sequence strictly greater than seq.
func (b *EventBus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	start := sort.Search(len(b.events), func(i int) bool {
		return b.events[i].Seq > seq
	})
	if start == len(b.events) {
		return nil
	}
	return append([]Event(nil), b.events[start:]...)
}

// LastSeq returns the sequence number of the newest event, or 0.
func (b *EventBus) LastSeq() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.nextSeq
}
