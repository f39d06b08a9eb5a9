package calendar

import (
	"context"
	"time"

	"craftcal/internal/model"
)

// Source supplies the event mapping. It must not fail: feed problems are
// expected to come back as an empty mapping.
type Source interface {
	Load(ctx context.Context) model.Mapping
}

// View is one calendar component instance. It owns its cursor, mapping,
// buckets and interaction state; nothing is shared between views.
type View struct {
	src     Source
	mounted bool

	mapping     model.Mapping
	cursor      Cursor
	buckets     model.Buckets
	interaction *Interaction
}

// New creates a view showing the month of now at the given viewport width.
func New(src Source, now time.Time, width int) *View {
	v := &View{
		src:         src,
		mapping:     model.Mapping{},
		cursor:      CursorOf(now),
		interaction: NewInteraction(width),
	}
	v.rebucket()
	return v
}

// Mount loads the mapping from the source. Only the first call fetches.
func (v *View) Mount(ctx context.Context) {
	if v.mounted {
		return
	}
	v.mounted = true
	if v.src == nil {
		return
	}
	v.SetMapping(v.src.Load(ctx))
}

// SetMapping replaces the event mapping and rebuilds the buckets.
func (v *View) SetMapping(m model.Mapping) {
	if m == nil {
		m = model.Mapping{}
	}
	v.mapping = m
	v.rebucket()
}

// Cursor returns the displayed month.
func (v *View) Cursor() Cursor {
	return v.cursor
}

// SetCursor jumps to a month. The mapping is untouched; only the buckets
// are rebuilt and any hover/modal is dropped.
func (v *View) SetCursor(c Cursor) {
	v.cursor = c
	v.interaction.Reset()
	v.rebucket()
}

// Next moves to the following month.
func (v *View) Next() {
	v.SetCursor(v.cursor.Next())
}

// Prev moves to the previous month.
func (v *View) Prev() {
	v.SetCursor(v.cursor.Prev())
}

// Grid returns the day grid for the displayed month.
func (v *View) Grid() []Cell {
	return Grid(v.cursor)
}

// Buckets returns the events of the displayed month by day.
func (v *View) Buckets() model.Buckets {
	return v.buckets
}

// Events returns the events of one day of the displayed month.
func (v *View) Events(day int) []model.Event {
	return v.buckets[day]
}

// Interaction exposes the hover/modal state machine.
func (v *View) Interaction() *Interaction {
	return v.interaction
}

// Selected returns the hovered or opened event, if any still exists.
func (v *View) Selected() (model.Event, Ref, bool) {
	ev, ok := v.interaction.Selected(v.buckets)
	r, _ := v.interaction.Active()
	return ev, r, ok
}

func (v *View) rebucket() {
	v.buckets = Bucket(v.mapping, v.cursor)
}
