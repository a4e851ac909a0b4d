package core

import "time"

// MonthWindow returns the half-open calendar month [start, end) containing
// anchor. The window is always built in UTC: stored transaction dates
// parse as UTC midnight, so a window in the anchor's zone would shift the
// month edges on any server running behind or ahead of UTC. December
// anchors roll the end into January of the next year.
func MonthWindow(anchor time.Time) (start, end time.Time) {
	start = time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0)
	return start, end
}

// InMonthWindow reports whether d falls inside the month containing anchor.
func InMonthWindow(d, anchor time.Time) bool {
	start, end := MonthWindow(anchor)
	return !d.Before(start) && d.Before(end)
}
