package metrics

import (
	"fmt"
	"strings"
	"time"
)

// WindowKind names a relative date range.
type WindowKind string

const (
	Last4Weeks  WindowKind = "last_4_weeks"
	PriorMonth  WindowKind = "prior_month"
	MonthToDate WindowKind = "month_to_date"
	// Custom marks a window built from explicit bounds.
	Custom WindowKind = "custom"
)

// ParseWindowKind accepts the relative kinds a caller may ask for.
func ParseWindowKind(s string) (WindowKind, error) {
	switch k := WindowKind(strings.ToLower(strings.TrimSpace(s))); k {
	case Last4Weeks, PriorMonth, MonthToDate:
		return k, nil
	}
	return "", fmt.Errorf("unknown window %q", s)
}

// Window is an inclusive [From, To] time range.
type Window struct {
	Kind WindowKind `json:"ventana"`
	From time.Time  `json:"desde"`
	To   time.Time  `json:"hasta"`
}

// Resolve turns a relative kind into bounds anchored at now. Unknown kinds
// resolve as last_4_weeks.
func Resolve(kind WindowKind, now time.Time) Window {
	now = now.UTC()
	switch kind {
	case PriorMonth:
		thisMonth := MonthStart(now)
		return Window{Kind: kind, From: thisMonth.AddDate(0, -1, 0), To: thisMonth.Add(-time.Second)}
	case MonthToDate:
		return Window{Kind: kind, From: MonthStart(now), To: now}
	default:
		return Window{Kind: Last4Weeks, From: now.AddDate(0, 0, -28), To: now}
	}
}

// Between builds a custom window. To before From is an error.
func Between(from, to time.Time) (Window, error) {
	if to.Before(from) {
		return Window{}, fmt.Errorf("window end %s is before start %s", to.Format(time.RFC3339), from.Format(time.RFC3339))
	}
	return Window{Kind: Custom, From: from.UTC(), To: to.UTC()}, nil
}

// Contains reports whether t falls inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// Label renders the window as "2006-01-02 - 2006-01-02".
func (w Window) Label() string {
	return w.From.Format("2006-01-02") + " - " + w.To.Format("2006-01-02")
}
