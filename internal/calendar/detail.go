package calendar

import (
	"fmt"
	"strings"
	"time"

	"craftcal/internal/model"
)

// AddressPlaceholder is the value the feed uses when an event has no real
// street address. The whole address line is hidden when it appears.
const AddressPlaceholder = "N/A"

// DetailRow is one labelled line of the event popup/modal. Href is set for
// rows that render as links.
type DetailRow struct {
	Label string
	Value string
	Href  string
}

// Detail lists the optional fields of e that are present, in display order.
func Detail(e model.Event) []DetailRow {
	var rows []DetailRow
	add := func(label, value string) {
		if value = strings.TrimSpace(value); value != "" {
			rows = append(rows, DetailRow{Label: label, Value: value})
		}
	}

	if t, ok := FormatClock(e.Time); ok {
		add("Time", t)
	}
	add("Organizer", e.Business)
	add("Craft", e.Craft)
	add("Description", e.Description)
	if e.Price != nil {
		add("Price", fmt.Sprintf("$%.2f", *e.Price))
	}
	add("Location", e.LocationName)
	if line, ok := AddressLine(e); ok {
		add("Address", line)
	}
	if e.Kids != nil {
		if *e.Kids {
			add("Kid friendly", "Yes")
		} else {
			add("Kid friendly", "No")
		}
	}
	if link := strings.TrimSpace(e.Link); link != "" {
		rows = append(rows, DetailRow{Label: "Link", Value: link, Href: link})
	}
	return rows
}

// AddressLine composes "address, city, state zip". It reports false when
// the raw address is the placeholder or nothing is set.
func AddressLine(e model.Event) (string, bool) {
	addr := strings.TrimSpace(e.Address)
	if addr == AddressPlaceholder {
		return "", false
	}

	var parts []string
	if addr != "" {
		parts = append(parts, addr)
	}
	if city := strings.TrimSpace(e.City); city != "" {
		parts = append(parts, city)
	}
	stateZip := strings.TrimSpace(strings.TrimSpace(e.State) + " " + strings.TrimSpace(e.Zip))
	if stateZip != "" {
		parts = append(parts, stateZip)
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, ", "), true
}

// FormatClock turns a feed time ("HH:MM:SS" or "HH:MM") into "3:04 PM".
func FormatClock(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, layout := range []string{time.TimeOnly, "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("3:04 PM"), true
		}
	}
	return "", false
}
