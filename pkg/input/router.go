package input

import "log/slog"

// Connection is a bundle of input handlers for one interaction mode.
// Route and Unroute must be safe to call repeatedly.
type Connection interface {
	Route()
	Unroute()
}

// Router owns the single active Connection.
type Router struct {
	active Connection
	logger *slog.Logger
}

func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Router{logger: logger}
}

// SwitchTo makes c the active connection. The previous connection is
// unrouted before c is routed, so no signal reaches both. Switching to the
// connection that is already active is a no-op.
func (r *Router) SwitchTo(c Connection) {
	if c == nil {
		r.Clear()
		return
	}
	if r.active == c {
		return
	}
	if r.active != nil {
		r.active.Unroute()
	}
	r.active = c
	c.Route()
	r.logger.Debug("Input connection switched", "connection", connectionName(c))
}

// Clear unroutes the active connection, leaving none.
func (r *Router) Clear() {
	if r.active == nil {
		return
	}
	r.active.Unroute()
	r.active = nil
}

// Active returns the active connection, or nil.
func (r *Router) Active() Connection {
	return r.active
}

func connectionName(c Connection) string {
	if n, ok := c.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "custom"
}
