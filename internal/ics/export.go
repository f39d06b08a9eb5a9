package ics

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"craftcal/internal/calendar"
	appLog "craftcal/internal/log"
	"craftcal/internal/model"
)

// ProductID identifies craftcal in exported calendars.
const ProductID = "-//craftcal//Craft Fair Calendar//EN"

// uidDomain is appended to every exported UID.
const uidDomain = "craftcal"

// ExportConfig controls how a month is exported.
type ExportConfig struct {
	// Location is the zone event times are interpreted in. Nil means
	// time.Local.
	Location *time.Location
	// Now stamps DTSTAMP. Zero means time.Now().
	Now time.Time
}

// BuildMonth converts one month of bucketed events into a VCALENDAR.
//
//   - Events without a time become all-day events (VALUE=DATE).
//   - Events with a time start at that wall-clock time in cfg.Location.
//   - UIDs derive from date, bucket index and name, since the feed has no
//     identifier of its own.
func BuildMonth(c calendar.Cursor, b model.Buckets, cfg ExportConfig) *ical.Calendar {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetXWRCalName("Craft fairs " + c.Title())
	cal.SetXWRTimezone(cfg.Location.String())

	for _, day := range b.Days() {
		for i, ev := range b[day] {
			addEvent(cal, c, day, i, ev, cfg)
		}
	}
	return cal
}

// WriteMonth serializes BuildMonth's result to w.
func WriteMonth(w io.Writer, c calendar.Cursor, b model.Buckets, cfg ExportConfig) error {
	_, err := io.WriteString(w, BuildMonth(c, b, cfg).Serialize())
	return err
}

func addEvent(cal *ical.Calendar, c calendar.Cursor, day, index int, ev model.Event, cfg ExportConfig) {
	date := time.Date(c.Year, c.Month, day, 0, 0, 0, 0, cfg.Location)

	vev := cal.AddEvent(UID(c.Date(day), index, ev.Name))
	vev.SetDtStampTime(cfg.Now.UTC())
	vev.SetSummary(ev.Name)

	if clock, err := parseClock(ev.Time); err == nil {
		// Built from wall-clock fields so DST transition days keep the listed time.
		start := time.Date(c.Year, c.Month, day, clock.Hour(), clock.Minute(), clock.Second(), 0, cfg.Location)
		vev.SetStartAt(start)
	} else {
		if ev.Time != "" {
			appLog.Debug("ics: unparseable event time; exporting as all-day", "name", ev.Name, "time", ev.Time)
		}
		vev.SetAllDayStartAt(date)
		vev.SetAllDayEndAt(date.AddDate(0, 0, 1))
	}

	if loc := location(ev); loc != "" {
		vev.SetLocation(loc)
	}
	if desc := description(ev); desc != "" {
		vev.SetDescription(desc)
	}
	if ev.Link != "" {
		vev.SetURL(ev.Link)
	}
}

// UID builds a stable identifier for the index-th event of a date.
func UID(date string, index int, name string) string {
	sum := sha256.Sum256([]byte(name))
	return fmt.Sprintf("%s-%d-%s@%s", date, index, hex.EncodeToString(sum[:4]), uidDomain)
}

func parseClock(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.TimeOnly, "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("ics: invalid time %q", s)
}

func location(ev model.Event) string {
	parts := make([]string, 0, 2)
	if ev.LocationName != "" {
		parts = append(parts, ev.LocationName)
	}
	if line, ok := calendar.AddressLine(ev); ok {
		parts = append(parts, line)
	}
	return strings.Join(parts, ", ")
}

// description reuses the popup detail rows, minus those already carried by
// dedicated properties.
func description(ev model.Event) string {
	var lines []string
	for _, row := range calendar.Detail(ev) {
		switch row.Label {
		case "Time", "Location", "Address", "Link":
			continue
		}
		lines = append(lines, row.Label+": "+row.Value)
	}
	return strings.Join(lines, "\n")
}
