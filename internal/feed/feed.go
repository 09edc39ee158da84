// Package feed fans simulation events out to subscribers and keeps a
// bounded replay buffer for late joiners.
package feed

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Tone classifies an event for presentation.
type Tone string

const (
	ToneGood   Tone = "good"
	ToneInfo   Tone = "info"
	ToneWarn   Tone = "warn"
	ToneBad    Tone = "bad"
	ToneAccent Tone = "accent"
)

// Event is one line of the market feed.
type Event struct {
	ID      string    `json:"id"`
	Message string    `json:"message"`
	Tone    Tone      `json:"tone"`
	At      time.Time `json:"at"`
}

const recentCap = 200

// Bus delivers events to subscribers without blocking the emitter; slow
// subscribers drop events rather than stall the tick loop.
type Bus struct {
	mu     sync.Mutex
	subs   map[chan Event]struct{}
	recent []Event
}

func NewBus() *Bus {
	return &Bus{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a buffered channel for future events. The returned
// cancel func removes the subscription and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Emit records the event and offers it to every subscriber.
func (b *Bus) Emit(message string, tone Tone) Event {
	ev := Event{
		ID:      uuid.NewString(),
		Message: message,
		Tone:    tone,
		At:      time.Now().UTC(),
	}

	b.mu.Lock()
	b.recent = append(b.recent, ev)
	if len(b.recent) > recentCap {
		b.recent = b.recent[len(b.recent)-recentCap:]
	}
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	b.mu.Unlock()
	return ev
}

// Recent returns up to n of the latest events, oldest first.
func (b *Bus) Recent(n int) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if n <= 0 || n > len(b.recent) {
		n = len(b.recent)
	}
	out := make([]Event, n)
	copy(out, b.recent[len(b.recent)-n:])
	return out
}

// Log is a bounded per-company trade log.
type Log struct {
	mu    sync.Mutex
	cap   int
	lines []string
}

func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = 50
	}
	return &Log{cap: capacity}
}

func (l *Log) Add(line string) {
	l.mu.Lock()
	l.lines = append(l.lines, line)
	if len(l.lines) > l.cap {
		l.lines = l.lines[len(l.lines)-l.cap:]
	}
	l.mu.Unlock()
}

func (l *Log) Lines() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.lines...)
}
