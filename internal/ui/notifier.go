// Package ui holds the terminal client's presentation state: transient
// notifications, the single confirm/dismiss modal, the page view model, and
// a renderer that draws them as plain text.
package ui

import (
	"sync"
	"time"
)

type Level int

const (
	LevelSuccess Level = iota
	LevelInfo
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelInfo:
		return "info"
	}
	return "error"
}

const (
	DefaultNotificationTTL = 3000 * time.Millisecond
	DefaultNotificationMax = 5
)

// Notification is one toast. Count is how many times the same message was
// shown back to back.
type Notification struct {
	ID        uint64
	Message   string
	Level     Level
	Count     int
	ShownAt   time.Time
	ExpiresAt time.Time
}

// Notifier is a bounded queue of notifications that expire on their own.
// It is safe for concurrent use.
type Notifier struct {
	mu     sync.Mutex
	ttl    time.Duration
	max    int
	now    func() time.Time
	items  []Notification
	nextID uint64
}

type NotifierOption func(*Notifier)

func WithTTL(d time.Duration) NotifierOption {
	return func(n *Notifier) {
		if d > 0 {
			n.ttl = d
		}
	}
}

// WithMax caps the queue; the oldest notification is dropped first.
func WithMax(max int) NotifierOption {
	return func(n *Notifier) {
		if max > 0 {
			n.max = max
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) NotifierOption {
	return func(n *Notifier) { n.now = now }
}

func NewNotifier(opts ...NotifierOption) *Notifier {
	n := &Notifier{
		ttl: DefaultNotificationTTL,
		max: DefaultNotificationMax,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Show queues message. If the newest live notification has the same message
// and level, it is refreshed and its Count incremented instead.
func (n *Notifier) Show(message string, level Level) {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	n.prune(now)

	if last := len(n.items) - 1; last >= 0 &&
		n.items[last].Message == message && n.items[last].Level == level {
		n.items[last].Count++
		n.items[last].ShownAt = now
		n.items[last].ExpiresAt = now.Add(n.ttl)
		return
	}

	n.nextID++
	n.items = append(n.items, Notification{
		ID:        n.nextID,
		Message:   message,
		Level:     level,
		Count:     1,
		ShownAt:   now,
		ExpiresAt: now.Add(n.ttl),
	})
	if over := len(n.items) - n.max; over > 0 {
		n.items = append(n.items[:0:0], n.items[over:]...)
	}
}

func (n *Notifier) Success(message string) { n.Show(message, LevelSuccess) }
func (n *Notifier) Error(message string)   { n.Show(message, LevelError) }

// Active returns the notifications that have not expired, oldest first.
func (n *Notifier) Active() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.prune(n.now())
	return append([]Notification(nil), n.items...)
}

// Dismiss removes every notification.
func (n *Notifier) Dismiss() {
	n.mu.Lock()
	n.items = nil
	n.mu.Unlock()
}

func (n *Notifier) prune(now time.Time) {
	live := n.items[:0]
	for _, it := range n.items {
		if now.Before(it.ExpiresAt) {
			live = append(live, it)
		}
	}
	n.items = live
}
