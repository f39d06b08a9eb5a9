package picker

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTime is returned for values off the half-hour grid.
var ErrInvalidTime = errors.New("picker: invalid time")

var meridiems = []string{"AM", "PM"}

// TimeOptions returns the half-hour slots 1:00 through 12:30.
func TimeOptions() []string {
	out := make([]string, 0, 24)
	for h := 1; h <= 12; h++ {
		out = append(out, fmt.Sprintf("%d:00", h), fmt.Sprintf("%d:30", h))
	}
	return out
}

// Meridiems returns the AM/PM toggle values.
func Meridiems() []string {
	return append([]string(nil), meridiems...)
}

// FormatTime combines a slot and meridiem into "H:MM AM|PM".
func FormatTime(slot, meridiem string) (string, error) {
	slot = strings.TrimSpace(slot)
	meridiem = strings.ToUpper(strings.TrimSpace(meridiem))
	if !validSlot(slot) || (meridiem != "AM" && meridiem != "PM") {
		return "", ErrInvalidTime
	}
	return slot + " " + meridiem, nil
}

// SplitTime is the inverse of FormatTime.
func SplitTime(s string) (slot, meridiem string, err error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return "", "", ErrInvalidTime
	}
	if _, err := FormatTime(fields[0], fields[1]); err != nil {
		return "", "", err
	}
	return fields[0], strings.ToUpper(fields[1]), nil
}

func validSlot(slot string) bool {
	for _, s := range TimeOptions() {
		if s == slot {
			return true
		}
	}
	return false
}
