package submission

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"craftcal/internal/picker"
)

var escaper = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// Sanitize trims surrounding whitespace and entity-escapes < > " and '.
func Sanitize(s string) string {
	return escaper.Replace(strings.TrimSpace(s))
}

// NormalizeTime converts "H:MM AM|PM" from the time selector to 24-hour
// "HH:MM". 12 AM is midnight and 12 PM is noon.
func NormalizeTime(s string) (string, error) {
	slot, meridiem, err := picker.SplitTime(s)
	if err != nil {
		return "", err
	}
	hh, mm, ok := strings.Cut(slot, ":")
	if !ok {
		return "", picker.ErrInvalidTime
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return "", picker.ErrInvalidTime
	}
	switch {
	case meridiem == "AM" && h == 12:
		h = 0
	case meridiem == "PM" && h != 12:
		h += 12
	}
	return fmt.Sprintf("%02d:%s", h, mm), nil
}

// Payload is the JSON body posted to the endpoint.
type Payload struct {
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Organization string   `json:"organization"`
	Location     string   `json:"location"`
	Link         string   `json:"link"`
	Date         string   `json:"date"`
	Time         string   `json:"time"`
	Price        *float64 `json:"price,omitempty"`
	Description  string   `json:"description,omitempty"`
	Kids         *bool    `json:"kids,omitempty"`
}

// ErrInvalidDraft is returned by BuildPayload for drafts that do not pass
// Validate.
var ErrInvalidDraft = errors.New("submission: draft has validation errors")

// BuildPayload sanitizes every text field and normalizes time, price and
// kids. The draft must already have passed Validate.
func BuildPayload(d Draft) (Payload, error) {
	tm, err := NormalizeTime(d.Time)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: time: %v", ErrInvalidDraft, err)
	}

	p := Payload{
		Name:         Sanitize(d.Name),
		Email:        Sanitize(d.Email),
		Organization: Sanitize(d.Organization),
		Location:     Sanitize(d.Location),
		Link:         Sanitize(d.Link),
		Date:         Sanitize(d.Date),
		Time:         tm,
		Description:  Sanitize(d.Description),
	}

	if price := strings.TrimSpace(d.Price); price != "" {
		v, err := parsePrice(price)
		if err != nil {
			return Payload{}, fmt.Errorf("%w: price %q: %v", ErrInvalidDraft, price, err)
		}
		p.Price = &v
	}

	switch strings.ToLower(strings.TrimSpace(d.Kids)) {
	case "yes":
		yes := true
		p.Kids = &yes
	case "no":
		no := false
		p.Kids = &no
	}

	return p, nil
}
