package calendar

import "craftcal/internal/model"

// CompactMaxWidth is the widest viewport, in CSS pixels, that still uses
// compact (tap-to-open) presentation.
const CompactMaxWidth = 640

// Mode is the presentation mode selected by viewport width.
type Mode int

const (
	// Wide shows a detail popup while an event is hovered.
	Wide Mode = iota
	// Compact opens a modal when an event is tapped.
	Compact
)

func (m Mode) String() string {
	if m == Compact {
		return "compact"
	}
	return "wide"
}

// ModeFor maps a viewport width to its mode. There is no hysteresis.
func ModeFor(width int) Mode {
	if width <= CompactMaxWidth {
		return Compact
	}
	return Wide
}

// Ref points at an event by day-of-month and position in that day's bucket.
type Ref struct {
	Day   int
	Index int
}

// CloseReason says how a compact-mode modal was dismissed.
type CloseReason int

const (
	CloseButton CloseReason = iota
	Outside
	Escape
)

// Interaction tracks which event is hovered (wide mode) or opened (compact
// mode). Each mode owns its own field; switching modes resets both rather
// than carrying a reference across.
type Interaction struct {
	mode Mode

	hovered    Ref
	hoverValid bool

	opened    Ref
	openValid bool
}

// NewInteraction starts in the idle/closed state for the given width.
func NewInteraction(width int) *Interaction {
	return &Interaction{mode: ModeFor(width)}
}

// Mode returns the current presentation mode.
func (in *Interaction) Mode() Mode {
	return in.mode
}

// Resize recomputes the mode for a new width. It reports whether the mode
// flipped, in which case any hover or open modal has been discarded.
func (in *Interaction) Resize(width int) bool {
	next := ModeFor(width)
	if next == in.mode {
		return false
	}
	in.mode = next
	in.Reset()
	return true
}

// Reset returns to idle/closed without changing the mode.
func (in *Interaction) Reset() {
	in.hovered, in.hoverValid = Ref{}, false
	in.opened, in.openValid = Ref{}, false
}

// Enter starts hovering an event. Moving from one event straight to
// another switches the hover without passing through idle. Ignored in
// compact mode.
func (in *Interaction) Enter(r Ref) {
	if in.mode != Wide {
		return
	}
	in.hovered, in.hoverValid = r, true
}

// Leave ends the hover if r is the hovered event. A stale leave for an
// event that is no longer hovered is ignored.
func (in *Interaction) Leave(r Ref) {
	if in.mode != Wide || !in.hoverValid || in.hovered != r {
		return
	}
	in.hovered, in.hoverValid = Ref{}, false
}

// Tap opens the modal for an event. Ignored in wide mode.
func (in *Interaction) Tap(r Ref) {
	if in.mode != Compact {
		return
	}
	in.opened, in.openValid = r, true
}

// Close dismisses the modal. All reasons lead to the same closed state.
func (in *Interaction) Close(CloseReason) {
	if in.mode != Compact {
		return
	}
	in.opened, in.openValid = Ref{}, false
}

// Hovered returns the hovered event in wide mode.
func (in *Interaction) Hovered() (Ref, bool) {
	return in.hovered, in.mode == Wide && in.hoverValid
}

// Opened returns the event whose modal is open in compact mode.
func (in *Interaction) Opened() (Ref, bool) {
	return in.opened, in.mode == Compact && in.openValid
}

// Active returns whichever reference the current mode holds.
func (in *Interaction) Active() (Ref, bool) {
	if in.mode == Compact {
		return in.Opened()
	}
	return in.Hovered()
}

// State names the current state: idle, hovering, closed or open.
func (in *Interaction) State() string {
	switch in.mode {
	case Compact:
		if in.openValid {
			return "open"
		}
		return "closed"
	default:
		if in.hoverValid {
			return "hovering"
		}
		return "idle"
	}
}

// Selected resolves the active reference against b. A reference into a day
// or index that no longer exists reports false instead of panicking.
func (in *Interaction) Selected(b model.Buckets) (model.Event, bool) {
	r, ok := in.Active()
	if !ok {
		return model.Event{}, false
	}
	evs := b[r.Day]
	if r.Index < 0 || r.Index >= len(evs) {
		return model.Event{}, false
	}
	return evs[r.Index], true
}
