package input

// OptionSelector moves the highlighted response of a dialogue overlay.
type OptionSelector interface {
	SelectNextResponseOption()
	SelectPreviousResponseOption()
}

// Sequencer advances a dialogue.
type Sequencer interface {
	Action()
}

// PlayerController is the part of the app that owns the player character.
type PlayerController interface {
	EnablePCControl()
	DisablePCControl()
	PCAction()
}

// Menu receives menu confirmations.
type Menu interface {
	MenuAction()
}

// handlers is the set of bindings a connection owns, keyed by signal.
type handlers struct {
	source   *Source
	bindings map[Signal]*Binding
	routed   bool
}

func newHandlers(source *Source, bindings map[Signal]*Binding) handlers {
	return handlers{source: source, bindings: bindings}
}

func (h *handlers) attach() bool {
	if h.routed {
		return false
	}
	for sig, b := range h.bindings {
		h.source.On(sig, b)
	}
	h.routed = true
	return true
}

func (h *handlers) detach() bool {
	if !h.routed {
		return false
	}
	for sig, b := range h.bindings {
		h.source.Off(sig, b)
	}
	h.routed = false
	return true
}

// DialogueConnection drives a dialogue overlay: down selects the next
// response, up the previous one, and action advances the sequencer.
type DialogueConnection struct {
	handlers
}

func NewDialogueConnection(source *Source, overlay OptionSelector, sequencer Sequencer) *DialogueConnection {
	return &DialogueConnection{handlers: newHandlers(source, map[Signal]*Binding{
		SignalDown:   Bind(overlay.SelectNextResponseOption),
		SignalUp:     Bind(overlay.SelectPreviousResponseOption),
		SignalAction: Bind(sequencer.Action),
	})}
}

func (c *DialogueConnection) Name() string { return "dialogue" }
func (c *DialogueConnection) Route()       { c.attach() }
func (c *DialogueConnection) Unroute()     { c.detach() }
func (c *DialogueConnection) Routed() bool { return c.routed }

// MovementConnection hands control to the player character while routed.
type MovementConnection struct {
	handlers
	pc PlayerController
}

func NewMovementConnection(source *Source, pc PlayerController) *MovementConnection {
	return &MovementConnection{
		handlers: newHandlers(source, map[Signal]*Binding{
			SignalAction: Bind(pc.PCAction),
		}),
		pc: pc,
	}
}

func (c *MovementConnection) Name() string { return "movement" }

func (c *MovementConnection) Route() {
	if c.attach() {
		c.pc.EnablePCControl()
	}
}

func (c *MovementConnection) Unroute() {
	if c.detach() {
		c.pc.DisablePCControl()
	}
}

func (c *MovementConnection) Routed() bool { return c.routed }

// MenuConnection forwards action to a menu.
type MenuConnection struct {
	handlers
}

func NewMenuConnection(source *Source, menu Menu) *MenuConnection {
	return &MenuConnection{handlers: newHandlers(source, map[Signal]*Binding{
		SignalAction: Bind(menu.MenuAction),
	})}
}

func (c *MenuConnection) Name() string { return "menu" }
func (c *MenuConnection) Route()       { c.attach() }
func (c *MenuConnection) Unroute()     { c.detach() }
func (c *MenuConnection) Routed() bool { return c.routed }
