package workflow

import (
	"encoding/json"
	"time"
)

// =============================================================================
// DATE - Calendar date abstraction (the workflow reasons in dates, not instants)
// =============================================================================

// Date is a calendar date. It deliberately carries no time-of-day or timezone:
// a leave request for 2025-03-10 means the same day everywhere, so all
// comparisons normalize to UTC midnight.
type Date struct {
	t time.Time
}

// NewDate constructs a Date for the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a time.Time to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses the wire format "2006-01-02".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// Today returns the current calendar date in local time.
func Today() Date {
	return DateOf(time.Now())
}

// Comparison
func (d Date) Before(other Date) bool { return d.t.Before(other.t) }
func (d Date) After(other Date) bool  { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool  { return d.t.Equal(other.t) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int                { return d.t.Year() }
func (d Date) Month() time.Month        { return d.t.Month() }
func (d Date) Day() int                 { return d.t.Day() }
func (d Date) Weekday() time.Weekday    { return d.t.Weekday() }
func (d Date) IsZero() bool             { return d.t.IsZero() }
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
func (d Date) IsWorkday() bool { return !d.IsZero() && !d.IsWeekend() }

// Time exposes the underlying UTC-midnight instant, for formatting only.
func (d Date) Time() time.Time { return d.t }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format("2006-01-02")
}

// MarshalJSON serializes as "2006-01-02", the backend's wire format.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "2006-01-02" and also full timestamps, since the
// backend returns ISO timestamps for some date fields.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		t, err2 := time.Parse(time.RFC3339, s)
		if err2 != nil {
			return err
		}
		parsed = DateOf(t)
	}
	*d = parsed
	return nil
}

// =============================================================================
// WORKING-DAY CALCULATOR
// =============================================================================

// WorkingDays counts the Monday-Friday days between start and end, inclusive
// of both endpoints. Holidays are not modeled and count as working days.
//
// Returns 0 when either date is the zero value or start is after end. Pure
// and timezone-independent: Dates are calendar days, never instants.
func WorkingDays(start, end Date) int {
	if start.IsZero() || end.IsZero() || start.After(end) {
		return 0
	}

	// Leave spans are short (days to weeks), so a day walk beats calendar
	// arithmetic on clarity with no cost that matters.
	count := 0
	for d := start; !d.After(end); d = d.AddDays(1) {
		if !d.IsWeekend() {
			count++
		}
	}
	return count
}
