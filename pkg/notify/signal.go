// Package notify provides a payload-less observer list. Listeners re-query
// the emitting component for state, so a signal carries nothing.
package notify

import (
	"errors"
	"slices"
)

// ErrReentrant is returned when a signal is emitted from one of its own
// listeners. It marks a notification cycle and is a programming error.
var ErrReentrant = errors.New("notify: signal emitted while already emitting")

// Subscription identifies a registered listener.
type Subscription uint64

type listener struct {
	id Subscription
	fn func()
}

// Signal is a list of listeners called in registration order.
// It is not safe for concurrent use.
type Signal struct {
	listeners []listener
	nextID    Subscription
	emitting  bool
}

// Subscribe registers fn and returns a handle for Unsubscribe.
func (s *Signal) Subscribe(fn func()) Subscription {
	s.nextID++
	s.listeners = append(s.listeners, listener{id: s.nextID, fn: fn})
	return s.nextID
}

// Unsubscribe removes a listener. Unknown handles are ignored.
func (s *Signal) Unsubscribe(sub Subscription) {
	s.listeners = slices.DeleteFunc(s.listeners, func(l listener) bool {
		return l.id == sub
	})
}

// Len returns the number of registered listeners.
func (s *Signal) Len() int {
	return len(s.listeners)
}

// Emitting reports whether an emission is in progress.
func (s *Signal) Emitting() bool {
	return s.emitting
}

// Emit calls every listener before returning. Listeners removed by an
// earlier listener in the same emission are skipped.
func (s *Signal) Emit() error {
	if s.emitting {
		return ErrReentrant
	}
	s.emitting = true
	defer func() { s.emitting = false }()

	pending := slices.Clone(s.listeners)
	for _, l := range pending {
		if !s.subscribed(l.id) {
			continue
		}
		l.fn()
	}
	return nil
}

func (s *Signal) subscribed(id Subscription) bool {
	return slices.ContainsFunc(s.listeners, func(l listener) bool {
		return l.id == id
	})
}
