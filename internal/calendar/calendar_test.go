package calendar

import (
	"context"
	"io"
	"testing"
	"time"

	appLog "craftcal/internal/log"
	"craftcal/internal/model"
)

func init() {
	appLog.SetOutput(io.Discard)
}

func TestGridLengthAndPlaceholders(t *testing.T) {
	for year := 2023; year <= 2026; year++ {
		for m := time.January; m <= time.December; m++ {
			c := Cursor{Year: year, Month: m}
			first := time.Date(year, m, 1, 0, 0, 0, 0, time.Local)
			lead := int(first.Weekday())
			days := first.AddDate(0, 1, -1).Day()

			cells := Grid(c)
			if len(cells) != lead+days {
				t.Fatalf("%s: len = %d, want %d", c, len(cells), lead+days)
			}
			for i := 0; i < lead; i++ {
				if !cells[i].Placeholder() {
					t.Fatalf("%s: cell %d should be a placeholder", c, i)
				}
			}
			for d := 1; d <= days; d++ {
				if cells[lead+d-1].Day != d {
					t.Fatalf("%s: cell %d = %d, want %d", c, lead+d-1, cells[lead+d-1].Day, d)
				}
			}
		}
	}
}

func TestGridKnownMonths(t *testing.T) {
	cases := []struct {
		cursor Cursor
		lead   int
		length int
	}{
		{Cursor{2024, time.February}, 4, 33}, // Thursday, leap year
		{Cursor{2025, time.June}, 0, 30},     // Sunday
		{Cursor{2026, time.August}, 6, 37},   // Saturday
	}
	for _, tc := range cases {
		cells := Grid(tc.cursor)
		if len(cells) != tc.length {
			t.Errorf("%s: len = %d, want %d", tc.cursor, len(cells), tc.length)
		}
		if tc.lead > 0 && !cells[tc.lead-1].Placeholder() {
			t.Errorf("%s: expected placeholder at %d", tc.cursor, tc.lead-1)
		}
		if cells[tc.lead].Day != 1 {
			t.Errorf("%s: day 1 at wrong column", tc.cursor)
		}
	}
}

func TestWeeks(t *testing.T) {
	rows := Weeks(Grid(Cursor{2026, time.August}))
	if len(rows) != 6 {
		t.Fatalf("rows = %d, want 6", len(rows))
	}
	if len(rows[5]) != 2 {
		t.Errorf("last row len = %d, want 2 (no trailing padding)", len(rows[5]))
	}
}

func TestCursorNavigation(t *testing.T) {
	dec := Cursor{2025, time.December}
	if got := dec.Next(); got != (Cursor{2026, time.January}) {
		t.Errorf("Dec.Next = %v", got)
	}
	jan := Cursor{2026, time.January}
	if got := jan.Prev(); got != dec {
		t.Errorf("Jan.Prev = %v", got)
	}

	// A cursor created on the 31st must land on the following month, not skip it.
	c := CursorOf(time.Date(2025, time.January, 31, 23, 0, 0, 0, time.UTC))
	if got := c.Next(); got != (Cursor{2025, time.February}) {
		t.Errorf("Jan 31 -> Next = %v, want 2025-02", got)
	}
	if got := (Cursor{2025, time.March}).Prev(); got != (Cursor{2025, time.February}) {
		t.Errorf("Mar.Prev = %v", got)
	}
	for _, tc := range []Cursor{{2024, time.February}, {2025, time.February}, {2025, time.April}} {
		if d := tc.DaysIn(); d < 28 || d > 31 {
			t.Errorf("%s DaysIn = %d", tc, d)
		}
	}
	if got := (Cursor{2024, time.February}).DaysIn(); got != 29 {
		t.Errorf("Feb 2024 DaysIn = %d", got)
	}
}

func TestParseCursor(t *testing.T) {
	c, err := ParseCursor("2026-10")
	if err != nil {
		t.Fatalf("ParseCursor: %v", err)
	}
	if c != (Cursor{2026, time.October}) || c.String() != "2026-10" {
		t.Errorf("got %v / %s", c, c.String())
	}
	if c.Title() != "October 2026" {
		t.Errorf("Title = %q", c.Title())
	}
	for _, bad := range []string{"", "2026-13", "10-2026", "2026/10"} {
		if _, err := ParseCursor(bad); err == nil {
			t.Errorf("ParseCursor(%q) expected error", bad)
		}
	}
}

func sampleMapping() model.Mapping {
	return model.Mapping{
		"2025-04-12": {
			{Name: "Spring Fair", Date: "2025-04-12"},
			{Name: "Pottery Day", Date: "2025-04-12"},
		},
		"2025-04-01": {{Name: "First", Date: "2025-04-01"}},
		"2025-05-12": {{Name: "May Fair", Date: "2025-05-12"}},
		"2024-04-12": {{Name: "Last Year", Date: "2024-04-12"}},
		"bogus":      {{Name: "Broken", Date: "someday"}},
	}
}

func TestBucketPlacesEachEventOnce(t *testing.T) {
	b := Bucket(sampleMapping(), Cursor{2025, time.April})

	if b.Len() != 3 {
		t.Fatalf("Len = %d, want 3", b.Len())
	}
	day := b[12]
	if len(day) != 2 || day[0].Name != "Spring Fair" || day[1].Name != "Pottery Day" {
		t.Errorf("day 12 = %+v", day)
	}
	if len(b[1]) != 1 || b[1][0].Name != "First" {
		t.Errorf("day 1 = %+v", b[1])
	}
	for d, evs := range b {
		for _, ev := range evs {
			if ev.Name == "May Fair" || ev.Name == "Last Year" || ev.Name == "Broken" {
				t.Errorf("out-of-month event %q in day %d", ev.Name, d)
			}
		}
	}
}

func TestBucketUsesEventDateNotKey(t *testing.T) {
	m := model.Mapping{"2025-04-30": {{Name: "Misfiled", Date: "2025-05-01"}}}
	if b := Bucket(m, Cursor{2025, time.April}); b.Len() != 0 {
		t.Errorf("April = %+v, want empty", b)
	}
	if b := Bucket(m, Cursor{2025, time.May}); len(b[1]) != 1 {
		t.Errorf("May = %+v, want event on day 1", b)
	}
}

func TestBucketToleratesPaddedDates(t *testing.T) {
	m := model.Mapping{"2025-04-05": {{Name: "Padded", Date: " 2025-04-05 "}}}
	b := Bucket(m, Cursor{2025, time.April})
	if len(b[5]) != 1 || b[5][0].Name != "Padded" {
		t.Errorf("day 5 = %+v, want the padded event", b[5])
	}
}

func TestBucketEmptyMapping(t *testing.T) {
	if b := Bucket(nil, Cursor{2025, time.April}); b == nil || b.Len() != 0 {
		t.Errorf("Bucket(nil) = %+v", b)
	}
}

func TestParseDateNoShift(t *testing.T) {
	y, m, d, ok := ParseDate("2025-01-01")
	if !ok || y != 2025 || m != time.January || d != 1 {
		t.Errorf("got %d-%d-%d ok=%v", y, m, d, ok)
	}
	y, m, d, ok = ParseDate("2025-12-31T23:30:00-08:00")
	if !ok || y != 2025 || m != time.December || d != 31 {
		t.Errorf("timestamp form: got %d-%d-%d ok=%v", y, m, d, ok)
	}
	if _, _, _, ok := ParseDate("2025-02-30"); ok {
		t.Error("2025-02-30 should not parse")
	}
}

type stubSource struct {
	m     model.Mapping
	calls int
}

func (s *stubSource) Load(context.Context) model.Mapping {
	s.calls++
	return s.m
}

func TestViewMountAndNavigate(t *testing.T) {
	src := &stubSource{m: sampleMapping()}
	v := New(src, time.Date(2025, time.April, 20, 9, 0, 0, 0, time.UTC), 1024)

	if v.Buckets().Len() != 0 {
		t.Fatal("buckets populated before mount")
	}
	v.Mount(context.Background())
	v.Mount(context.Background())
	if src.calls != 1 {
		t.Errorf("source loaded %d times, want 1", src.calls)
	}
	if v.Buckets().Len() != 3 {
		t.Errorf("April buckets = %d, want 3", v.Buckets().Len())
	}

	v.Next()
	if v.Cursor() != (Cursor{2025, time.May}) || len(v.Events(12)) != 1 {
		t.Errorf("May: cursor=%v events=%+v", v.Cursor(), v.Events(12))
	}
	v.Prev()
	v.Prev()
	if v.Cursor() != (Cursor{2025, time.March}) || v.Buckets().Len() != 0 {
		t.Errorf("March: cursor=%v len=%d", v.Cursor(), v.Buckets().Len())
	}
	if len(src.m) != 5 {
		t.Error("navigation mutated the mapping")
	}
}

func TestViewsAreIndependent(t *testing.T) {
	now := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	a := New(&stubSource{m: sampleMapping()}, now, 1024)
	b := New(&stubSource{m: sampleMapping()}, now, 320)
	a.Mount(context.Background())
	b.Mount(context.Background())

	a.Next()
	if b.Cursor() != (Cursor{2025, time.April}) {
		t.Errorf("b cursor moved to %v", b.Cursor())
	}
	if a.Interaction().Mode() == b.Interaction().Mode() {
		t.Error("views share interaction mode")
	}
}

func TestViewMalformedFeedStillRenders(t *testing.T) {
	v := New(&stubSource{m: nil}, time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), 1024)
	v.Mount(context.Background())
	if v.Buckets() == nil || v.Buckets().Len() != 0 {
		t.Errorf("buckets = %+v", v.Buckets())
	}
	if len(v.Grid()) != 2+30 {
		t.Errorf("grid len = %d", len(v.Grid()))
	}
}
