package model

import "sort"

// Event is a single craft-fair event as delivered by the event feed.
// Optional numeric/boolean fields are pointers so that "absent" and
// "zero" stay distinguishable. Events are never mutated after decoding.
type Event struct {
	Name         string   `json:"name"`
	Date         string   `json:"date"`           // YYYY-MM-DD
	Time         string   `json:"time,omitempty"` // HH:MM:SS
	Business     string   `json:"business,omitempty"`
	Craft        string   `json:"craft,omitempty"`
	Description  string   `json:"description,omitempty"`
	Price        *float64 `json:"price,omitempty"`
	LocationName string   `json:"location_name,omitempty"`
	Address      string   `json:"address,omitempty"`
	City         string   `json:"city,omitempty"`
	State        string   `json:"state,omitempty"`
	Zip          string   `json:"zip,omitempty"`
	Kids         *bool    `json:"kids,omitempty"`
	Link         string   `json:"link,omitempty"`
}

// Mapping groups feed events by their ISO date string. Order within a
// key is fetch order.
type Mapping map[string][]Event

// Dates returns the mapping keys in ascending order.
func (m Mapping) Dates() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the total number of events across all dates.
func (m Mapping) Len() int {
	n := 0
	for _, evs := range m {
		n += len(evs)
	}
	return n
}

// Buckets maps day-of-month (1..31) to the events of that day for one
// displayed month.
type Buckets map[int][]Event

// Len returns the total number of events across all days.
func (b Buckets) Len() int {
	n := 0
	for _, evs := range b {
		n += len(evs)
	}
	return n
}

// Days returns the populated days in ascending order.
func (b Buckets) Days() []int {
	days := make([]int, 0, len(b))
	for d := range b {
		days = append(days, d)
	}
	sort.Ints(days)
	return days
}
