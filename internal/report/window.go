package report

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidWindow is returned for unparseable or inverted date bounds and
// unknown periods.
var ErrInvalidWindow = errors.New("invalid reporting window")

const dateLayout = "2006-01-02"

// Periods accepted by WindowForPeriod.
const (
	PeriodDaily   = "daily"
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// Window is an inclusive date range. A zero Start or End leaves that side
// unbounded; the zero Window covers the whole dataset.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// IsZero reports whether w is unbounded on both sides.
func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// Validate checks that the window is not inverted.
func (w Window) Validate() error {
	if !w.Start.IsZero() && !w.End.IsZero() && w.End.Before(w.Start) {
		return fmt.Errorf("%w: end %s before start %s", ErrInvalidWindow,
			w.End.Format(time.RFC3339), w.Start.Format(time.RFC3339))
	}
	return nil
}

// bounds returns concrete limits for filtering.
func (w Window) bounds() (time.Time, time.Time) {
	end := w.End
	if end.IsZero() {
		end = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)
	}
	return w.Start, end
}

func (w Window) key() string {
	return w.Start.Format(time.RFC3339Nano) + "/" + w.End.Format(time.RFC3339Nano)
}

// ParseBound reads an RFC 3339 timestamp or a YYYY-MM-DD date (UTC). A
// date used as an end bound covers the whole day.
func ParseBound(value string, isEnd bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: cannot parse %q as a date", ErrInvalidWindow, value)
	}
	if isEnd {
		t = endOfDay(t)
	}
	return t, nil
}

// ParseWindow parses both bounds. Empty bounds stay unbounded.
func ParseWindow(start, end string) (Window, error) {
	var w Window
	var err error
	if strings.TrimSpace(start) != "" {
		if w.Start, err = ParseBound(start, false); err != nil {
			return Window{}, err
		}
	}
	if strings.TrimSpace(end) != "" {
		if w.End, err = ParseBound(end, true); err != nil {
			return Window{}, err
		}
	}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// WindowForPeriod returns the window of period ending at end: the previous
// day, the previous seven days, or the month of end so far.
func WindowForPeriod(period string, end time.Time) (Window, error) {
	end = end.UTC()
	switch strings.ToLower(strings.TrimSpace(period)) {
	case PeriodDaily:
		return Window{Start: end.AddDate(0, 0, -1), End: end}, nil
	case PeriodWeekly:
		return Window{Start: end.AddDate(0, 0, -7), End: end}, nil
	case PeriodMonthly:
		return Window{Start: time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC), End: end}, nil
	default:
		return Window{}, fmt.Errorf("%w: unknown period %q", ErrInvalidWindow, period)
	}
}

func endOfDay(t time.Time) time.Time {
	return t.AddDate(0, 0, 1).Add(-time.Nanosecond)
}
