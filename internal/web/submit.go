package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"craftcal/internal/calendar"
	appLog "craftcal/internal/log"
	"craftcal/internal/metrics"
	"craftcal/internal/picker"
	"craftcal/internal/submission"
)

// Form inputs that are not draft fields.
const (
	formToken       = "token"
	formAction      = "action"
	formTimeSlot    = "time_slot"
	formMeridiem    = "meridiem"
	formPick        = "pick"
	formPickMonth   = "picker_pick"
	formPickerShown = "picker_shown"
	formPickerView  = "picker_view"
	formPickerOpen  = "picker_open"
	formErrored     = "errored"
)

// Submit-form actions carried by the clicked button.
const (
	actionSubmit       = "submit"
	actionPickerToggle = "picker-toggle"
	actionPickerPrev   = "picker-prev"
	actionPickerNext   = "picker-next"
	actionPickerMonths = "picker-months"
	actionPickerPrevYr = "picker-prev-year"
	actionPickerNextYr = "picker-next-year"
)

const inFlightMessage = "Your previous submission is still being sent. Please wait a moment."

type option struct {
	Value    string
	Label    string
	Selected bool
}

type datePickerView struct {
	Open      bool
	MonthView bool
	Shown     string
	Title     string
	Year      int
	Weekdays  []string
	Weeks     [][]picker.DayCell
	Months    []picker.MonthCell
}

type submitBody struct {
	Token          string
	Errored        string
	Draft          submission.Draft
	Errors         submission.Errors
	Banner         string
	Confirmed      bool
	ConfirmSeconds int
	Picker         datePickerView
	DateLabel      string
	TimeSlots      []option
	Meridiems      []option
	KidsOptions    []option
}

func (s *Server) handleSubmitForm(w http.ResponseWriter, r *http.Request) {
	today := s.today(s.config())
	body := newSubmitBody(uuid.New().String(), submission.Form{}, picker.NewDatePicker(today))

	var rf *refresh
	if r.URL.Query().Get("submitted") == "1" {
		body.Confirmed = true
		body.ConfirmSeconds = int(submission.ConfirmationDelay / time.Second)
		rf = &refresh{Seconds: body.ConfirmSeconds, URL: "/submit-event"}
	}
	s.render(w, r, http.StatusOK, TabSubmit, "Submit an Event", body, rf)
}

// handleSubmit serves every button of the submit form. Picker buttons
// re-render with the draft intact; the submit button validates and posts.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	cfg := s.config()
	today := s.today(cfg)

	form := draftFromRequest(r)
	// Errors shown by the last render stay until their field is fixed.
	form.Recheck(today, strings.Fields(r.PostFormValue(formErrored))...)
	p := pickerFromRequest(r, today)
	if form.Draft.Date != "" {
		p.Selected = form.Draft.Date
	}

	token := r.PostFormValue(formToken)
	if token == "" {
		token = uuid.New().String()
	}

	if handled := applyPickerAction(r, &form, p); handled {
		s.render(w, r, http.StatusOK, TabSubmit, "Submit an Event", newSubmitBody(token, form, p), nil)
		return
	}

	release, err := s.guard.Begin(token)
	if err != nil {
		metrics.Submissions.WithLabelValues("in_flight").Inc()
		body := newSubmitBody(token, form, p)
		body.Banner = inFlightMessage
		s.render(w, r, http.StatusConflict, TabSubmit, "Submit an Event", body, nil)
		return
	}
	defer release()

	if !form.Validate(today) {
		metrics.Submissions.WithLabelValues("invalid").Inc()
		s.render(w, r, http.StatusUnprocessableEntity, TabSubmit, "Submit an Event", newSubmitBody(token, form, p), nil)
		return
	}

	payload, err := submission.BuildPayload(form.Draft)
	if err != nil {
		metrics.Submissions.WithLabelValues("invalid").Inc()
		appLog.Error("validated draft failed to build payload", err)
		body := newSubmitBody(token, form, p)
		body.Banner = submission.GenericFailure
		s.render(w, r, http.StatusUnprocessableEntity, TabSubmit, "Submit an Event", body, nil)
		return
	}

	if err := s.submitter(cfg).Submit(r.Context(), payload); err != nil {
		metrics.Submissions.WithLabelValues("failed").Inc()
		appLog.Error("event submission failed", err)

		body := newSubmitBody(token, form, p)
		body.Banner = submission.GenericFailure
		var se *submission.SubmitError
		if errors.As(err, &se) && se.Message != "" {
			body.Banner = se.Message
		}
		s.render(w, r, http.StatusBadGateway, TabSubmit, "Submit an Event", body, nil)
		return
	}

	metrics.Submissions.WithLabelValues("ok").Inc()
	http.Redirect(w, r, "/submit-event?submitted=1", http.StatusSeeOther)
}

// draftFromRequest rebuilds the draft from posted fields.
func draftFromRequest(r *http.Request) submission.Form {
	var f submission.Form
	for _, field := range submission.Fields {
		if field == submission.FieldTime {
			continue
		}
		f.Set(field, r.PostFormValue(field))
	}
	slot := strings.TrimSpace(r.PostFormValue(formTimeSlot))
	meridiem := strings.TrimSpace(r.PostFormValue(formMeridiem))
	if slot != "" {
		if tm, err := picker.FormatTime(slot, meridiem); err == nil {
			f.Set(submission.FieldTime, tm)
		} else {
			// Keep the raw value so validation reports it.
			f.Set(submission.FieldTime, strings.TrimSpace(slot+" "+meridiem))
		}
	}
	return f
}

// pickerFromRequest restores the date picker's month, view and open state.
func pickerFromRequest(r *http.Request, today time.Time) *picker.DatePicker {
	p := picker.NewDatePicker(today)
	if c, err := calendar.ParseCursor(r.PostFormValue(formPickerShown)); err == nil && !c.Before(calendar.CursorOf(today)) {
		p.Shown = c
	}
	if r.PostFormValue(formPickerView) == "month" {
		p.View = picker.MonthView
	}
	p.Open = r.PostFormValue(formPickerOpen) == "1"
	return p
}

// applyPickerAction handles the date picker buttons. It reports whether the
// request was a picker interaction rather than a submit.
func applyPickerAction(r *http.Request, f *submission.Form, p *picker.DatePicker) bool {
	if date := r.PostFormValue(formPick); date != "" {
		if _, err := p.Select(date); err != nil {
			f.Errors.Date = "Choose today or a later date"
			return true
		}
		f.Set(submission.FieldDate, date)
		return true
	}
	if m := r.PostFormValue(formPickMonth); m != "" {
		if n, err := strconv.Atoi(m); err == nil && n >= 1 && n <= 12 {
			_ = p.PickMonth(time.Month(n))
		}
		return true
	}

	switch r.PostFormValue(formAction) {
	case actionPickerToggle:
		p.Toggle()
	case actionPickerPrev:
		p.PrevMonth()
	case actionPickerNext:
		p.NextMonth()
	case actionPickerMonths:
		p.ShowMonths()
	case actionPickerPrevYr:
		p.PrevYear()
	case actionPickerNextYr:
		p.NextYear()
	default:
		return false
	}
	return true
}

func newSubmitBody(token string, f submission.Form, p *picker.DatePicker) submitBody {
	body := submitBody{
		Token:   token,
		Errored: strings.Join(f.Errors.Failed(), " "),
		Draft:   f.Draft,
		Errors:  f.Errors,
		Picker: datePickerView{
			Open:      p.Open,
			MonthView: p.View == picker.MonthView,
			Shown:     p.Shown.String(),
			Title:     p.Shown.Title(),
			Year:      p.Shown.Year,
			Weekdays:  calendar.Weekdays,
			Weeks:     calendar.Weeks(p.Days()),
			Months:    p.Months(),
		},
		DateLabel: "No date chosen",
	}
	if f.Draft.Date != "" {
		body.DateLabel = f.Draft.Date
	}

	slot, meridiem, _ := picker.SplitTime(f.Draft.Time)
	for _, t := range picker.TimeOptions() {
		body.TimeSlots = append(body.TimeSlots, option{Value: t, Label: t, Selected: t == slot})
	}
	if meridiem == "" {
		meridiem = "AM"
	}
	for _, m := range picker.Meridiems() {
		body.Meridiems = append(body.Meridiems, option{Value: m, Label: m, Selected: m == meridiem})
	}

	kids := strings.ToLower(f.Draft.Kids)
	for _, k := range []option{{"", "Not sure", false}, {"yes", "Yes", false}, {"no", "No", false}} {
		k.Selected = k.Value == kids
		body.KidsOptions = append(body.KidsOptions, k)
	}
	return body
}
