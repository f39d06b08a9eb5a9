package calendar

// Cell is one slot of the month grid. Day is 1..31, or 0 for the leading
// placeholders that line day 1 up with its weekday column.
type Cell struct {
	Day int
}

// Placeholder reports whether the cell is a blank, non-interactive slot.
func (c Cell) Placeholder() bool {
	return c.Day == 0
}

// Grid builds the day grid for a month: FirstWeekday placeholders followed
// by days 1..DaysIn. The final week is not padded, so the length is exactly
// FirstWeekday + DaysIn.
func Grid(c Cursor) []Cell {
	lead := int(c.FirstWeekday())
	days := c.DaysIn()

	cells := make([]Cell, lead+days)
	for d := 1; d <= days; d++ {
		cells[lead+d-1] = Cell{Day: d}
	}
	return cells
}

// Weeks splits a grid, or anything laid out like one, into rows of seven
// for rendering. The last row may be shorter.
func Weeks[T any](cells []T) [][]T {
	rows := make([][]T, 0, (len(cells)+6)/7)
	for i := 0; i < len(cells); i += 7 {
		end := i + 7
		if end > len(cells) {
			end = len(cells)
		}
		rows = append(rows, cells[i:end])
	}
	return rows
}

// Weekdays are the column headings, Sunday first.
var Weekdays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
