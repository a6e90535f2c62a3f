package input

import (
	"log/slog"
	"slices"
)

// Signal is a raw input signal delivered by the device layer.
type Signal string

const (
	SignalDown   Signal = "down"
	SignalUp     Signal = "up"
	SignalAction Signal = "action"
	SignalToggle Signal = "toggle"
)

// Valid reports whether s is one of the known signals.
func (s Signal) Valid() bool {
	switch s {
	case SignalDown, SignalUp, SignalAction, SignalToggle:
		return true
	}
	return false
}

// Binding is a handler attached to a Source. Bindings are compared by
// pointer, so detaching removes exactly the binding that was attached.
type Binding struct {
	fn func()
}

// Bind wraps fn in a new Binding.
func Bind(fn func()) *Binding {
	return &Binding{fn: fn}
}

// Source is the upstream raw-input hub that connections attach to.
// It is not safe for concurrent use.
type Source struct {
	bindings map[Signal][]*Binding
	toggles  map[string]func()
	logger   *slog.Logger
}

func NewSource(logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{
		bindings: make(map[Signal][]*Binding),
		toggles:  make(map[string]func()),
		logger:   logger,
	}
}

// On attaches b to sig. Attaching the same binding twice is a no-op.
func (s *Source) On(sig Signal, b *Binding) {
	if b == nil || !sig.Valid() {
		return
	}
	if slices.Contains(s.bindings[sig], b) {
		return
	}
	s.bindings[sig] = append(s.bindings[sig], b)
}

// Off detaches b from sig. Detaching a binding that is not attached is a no-op.
func (s *Source) Off(sig Signal, b *Binding) {
	list := s.bindings[sig]
	i := slices.Index(list, b)
	if i < 0 {
		return
	}
	s.bindings[sig] = slices.Delete(slices.Clone(list), i, i+1)
}

// Attached reports whether b is currently attached to sig.
func (s *Source) Attached(sig Signal, b *Binding) bool {
	return slices.Contains(s.bindings[sig], b)
}

// Bindings returns the number of bindings attached to sig.
func (s *Source) Bindings(sig Signal) int {
	return len(s.bindings[sig])
}

// Dispatch delivers sig to every attached binding in attachment order.
// Unknown signals are dropped. A binding detached by an earlier handler
// in the same dispatch is not called.
func (s *Source) Dispatch(sig Signal) {
	if !sig.Valid() {
		s.logger.Debug("Ignoring unknown input signal", "signal", string(sig))
		return
	}
	for _, b := range slices.Clone(s.bindings[sig]) {
		if !s.Attached(sig, b) {
			continue
		}
		b.fn()
	}
}

// AddToggle registers a named overlay toggle, replacing any previous one
// with the same name.
func (s *Source) AddToggle(name string, fn func()) {
	s.toggles[name] = fn
}

// RemoveToggle unregisters a named toggle.
func (s *Source) RemoveToggle(name string) {
	delete(s.toggles, name)
}

// Toggle fires the named toggle and the toggle signal bindings. It reports
// whether a toggle with that name was registered.
func (s *Source) Toggle(name string) bool {
	fn, ok := s.toggles[name]
	if !ok {
		s.logger.Debug("Ignoring unknown toggle", "toggle", name)
		return false
	}
	fn()
	s.Dispatch(SignalToggle)
	return true
}
