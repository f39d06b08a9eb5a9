package web

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"craftcal/internal/calendar"
	"craftcal/internal/ics"
	appLog "craftcal/internal/log"
	"craftcal/internal/model"
)

// defaultViewportWidth is assumed when the client reports no width.
const defaultViewportWidth = 1024

// viewportHeader is the client hint carrying the layout viewport width.
const viewportHeader = "Sec-CH-Viewport-Width"

// calendarState is everything a calendar request decided: the mounted
// view plus the inputs needed to build links back to it.
type calendarState struct {
	view  *calendar.View
	today time.Time
	width int
}

// calendarView builds and mounts the per-request calendar component.
//
// Query parameters:
//   - month:  YYYY-MM cursor (default: current month in the display zone)
//   - w:      viewport width; falls back to the Sec-CH-Viewport-Width hint
//   - prev_w: width at the previous render; a mode flip between the two
//     discards the hover/modal
//   - event:  "day-index" of the hovered (wide) or tapped (compact) event
//   - close:  button | outside | escape, dismisses the modal
func (s *Server) calendarView(r *http.Request) (*calendarState, error) {
	cfg := s.config()
	q := r.URL.Query()
	today := s.today(cfg)

	width := parseIntDefault(q.Get("w"), parseIntDefault(r.Header.Get(viewportHeader), defaultViewportWidth))
	if width <= 0 {
		width = defaultViewportWidth
	}
	prevWidth := parseIntDefault(q.Get("prev_w"), width)

	v := calendar.New(s.fetcher(cfg), today, prevWidth)

	var cursorErr error
	if m := q.Get("month"); m != "" {
		c, err := calendar.ParseCursor(m)
		if err != nil {
			cursorErr = err
		} else {
			v.SetCursor(c)
		}
	}

	v.Mount(r.Context())

	in := v.Interaction()
	if ref, ok := parseRef(q.Get("event")); ok {
		if in.Mode() == calendar.Compact {
			in.Tap(ref)
		} else {
			in.Enter(ref)
		}
	}
	if reason, ok := parseCloseReason(q.Get("close")); ok {
		in.Close(reason)
	}
	in.Resize(width)

	return &calendarState{view: v, today: today, width: width}, cursorErr
}

func parseRef(s string) (calendar.Ref, bool) {
	dayStr, idxStr, ok := strings.Cut(s, "-")
	if !ok {
		return calendar.Ref{}, false
	}
	day, err1 := strconv.Atoi(dayStr)
	idx, err2 := strconv.Atoi(idxStr)
	if err1 != nil || err2 != nil || day < 1 || day > 31 || idx < 0 {
		return calendar.Ref{}, false
	}
	return calendar.Ref{Day: day, Index: idx}, true
}

func parseCloseReason(s string) (calendar.CloseReason, bool) {
	switch s {
	case "button":
		return calendar.CloseButton, true
	case "outside":
		return calendar.Outside, true
	case "escape":
		return calendar.Escape, true
	}
	return 0, false
}

// calendarHref links back to /calendar for a month and width.
func calendarHref(c calendar.Cursor, width int, extra url.Values) string {
	q := url.Values{}
	q.Set("month", c.String())
	q.Set("w", strconv.Itoa(width))
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	return "/calendar?" + q.Encode()
}

type calendarBody struct {
	Title      string
	Month      string
	Mode       string
	Width      int
	Weekdays   []string
	Weeks      [][]dayView
	EventCount int
	PrevHref   string
	NextHref   string
	ICSHref    string
	Selected   *selectedView
}

type dayView struct {
	Day         int
	Placeholder bool
	Today       bool
	Events      []eventView
}

type eventView struct {
	Name   string
	Href   string
	Active bool
}

type selectedView struct {
	Name        string
	Date        string
	Rows        []calendar.DetailRow
	Modal       bool
	Day         int
	Index       int
	CloseHref   string
	OutsideHref string
	EscapeHref  string
	LeaveHref   string
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	st, err := s.calendarView(r)
	if err != nil {
		appLog.Info("ignoring invalid month parameter", "month", r.URL.Query().Get("month"))
	}
	w.Header().Set("Accept-CH", viewportHeader)
	w.Header().Add("Vary", viewportHeader)
	s.render(w, r, http.StatusOK, TabCalendar, "Calendar", buildCalendarBody(st), nil)
}

func buildCalendarBody(st *calendarState) calendarBody {
	v := st.view
	c := v.Cursor()
	in := v.Interaction()
	mode := in.Mode()
	active, hasActive := in.Active()
	todayCursor := calendar.CursorOf(st.today)

	eventParam := func(day, idx int) url.Values {
		return url.Values{"event": {fmt.Sprintf("%d-%d", day, idx)}}
	}

	cells := v.Grid()
	days := make([]dayView, len(cells))
	for i, cell := range cells {
		if cell.Placeholder() {
			days[i] = dayView{Placeholder: true}
			continue
		}
		dv := dayView{
			Day:   cell.Day,
			Today: c == todayCursor && cell.Day == st.today.Day(),
		}
		for idx, ev := range v.Events(cell.Day) {
			ref := calendar.Ref{Day: cell.Day, Index: idx}
			dv.Events = append(dv.Events, eventView{
				Name:   ev.Name,
				Href:   calendarHref(c, st.width, eventParam(cell.Day, idx)),
				Active: hasActive && active == ref,
			})
		}
		days[i] = dv
	}

	body := calendarBody{
		Title:      c.Title(),
		Month:      c.String(),
		Mode:       mode.String(),
		Width:      st.width,
		Weekdays:   calendar.Weekdays,
		Weeks:      calendar.Weeks(days),
		EventCount: v.Buckets().Len(),
		PrevHref:   calendarHref(c.Prev(), st.width, nil),
		NextHref:   calendarHref(c.Next(), st.width, nil),
		ICSHref:    "/calendar.ics?month=" + c.String(),
	}

	if ev, ref, ok := v.Selected(); ok {
		closeWith := func(reason string) string {
			q := eventParam(ref.Day, ref.Index)
			q.Set("close", reason)
			return calendarHref(c, st.width, q)
		}
		body.Selected = &selectedView{
			Name:        ev.Name,
			Date:        ev.Date,
			Rows:        calendar.Detail(ev),
			Modal:       mode == calendar.Compact,
			Day:         ref.Day,
			Index:       ref.Index,
			CloseHref:   closeWith("button"),
			OutsideHref: closeWith("outside"),
			EscapeHref:  closeWith("escape"),
			LeaveHref:   calendarHref(c, st.width, nil),
		}
	}
	return body
}

// calendarAPIResponse is the JSON shape of /api/calendar.
type calendarAPIResponse struct {
	Month        string        `json:"month"`
	Title        string        `json:"title"`
	FirstWeekday int           `json:"first_weekday"`
	DaysInMonth  int           `json:"days_in_month"`
	Grid         []int         `json:"grid"`
	Buckets      model.Buckets `json:"buckets"`
	EventCount   int           `json:"event_count"`
}

// handleCalendarAPI returns the grid and day buckets for a month.
//
// GET /api/calendar?month=2025-04
func (s *Server) handleCalendarAPI(w http.ResponseWriter, r *http.Request) {
	st, err := s.calendarView(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}
	v := st.view
	c := v.Cursor()

	cells := v.Grid()
	grid := make([]int, len(cells))
	for i, cell := range cells {
		grid[i] = cell.Day
	}

	writeJSON(w, http.StatusOK, calendarAPIResponse{
		Month:        c.String(),
		Title:        c.Title(),
		FirstWeekday: int(c.FirstWeekday()),
		DaysInMonth:  c.DaysIn(),
		Grid:         grid,
		Buckets:      v.Buckets(),
		EventCount:   v.Buckets().Len(),
	})
}

// handleCalendarICS exports the month as an iCalendar file.
func (s *Server) handleCalendarICS(w http.ResponseWriter, r *http.Request) {
	st, err := s.calendarView(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}
	c := st.view.Cursor()
	cfg := s.config()

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=craftcal-%s.ics", c.String()))
	err = ics.WriteMonth(w, c, st.view.Buckets(), ics.ExportConfig{
		Location: resolveLocationOrLocal(cfg.Timezone),
		Now:      s.now(),
	})
	if err != nil {
		appLog.Error("failed to write ICS export", err, "month", c.String())
	}
}
