package portfolio

import (
	"strings"
	"time"

	"github.com/bobmcallan/paperledger/internal/models"
)

// Window is a resolved NAV reconstruction range. Start and End are UTC
// midnights and Start never falls after End.
type Window struct {
	Period string
	Start  time.Time
	End    time.Time
}

// Days is the length of the window in whole days.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours() / 24)
}

// ResolveWindow turns a period keyword into a date range ending today.
// The start is clamped to [firstTx, today]; a zero firstTx disables the lower clamp.
func ResolveWindow(period string, firstTx, today time.Time) (Window, error) {
	period = strings.ToLower(strings.TrimSpace(period))
	end := truncateDay(today)

	var start time.Time
	switch period {
	case "1m":
		start = end.AddDate(0, 0, -30)
	case "3m":
		start = end.AddDate(0, 0, -90)
	case "1y":
		start = end.AddDate(0, 0, -365)
	case "ytd":
		start = time.Date(end.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	case "all", "max":
		start = end
		if !firstTx.IsZero() {
			start = truncateDay(firstTx)
		}
	default:
		return Window{}, models.NewValidationError("", "unknown history period %q (expected 1m, 3m, 1y, ytd, all)", period)
	}

	if !firstTx.IsZero() && start.Before(truncateDay(firstTx)) {
		start = truncateDay(firstTx)
	}
	if start.After(end) {
		start = end
	}

	return Window{Period: period, Start: start, End: end}, nil
}

// truncateDay returns UTC midnight of t's calendar day in UTC.
func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// generateCalendarDates returns each calendar day from start to end inclusive,
// or nil when end is before start.
func generateCalendarDates(start, end time.Time) []time.Time {
	start, end = truncateDay(start), truncateDay(end)
	if end.Before(start) {
		return nil
	}
	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}
