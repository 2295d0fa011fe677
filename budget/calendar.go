package budget

import (
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// DATE - Timezone-naive calendar date
// =============================================================================

// Date is a calendar date with no time-of-day component. All engine
// comparisons are on date-only values; the backing time.Time is always
// midnight UTC.
type Date struct {
	Time time.Time
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return Date{Time: t}, nil
}

// Comparison
func (d Date) Before(other Date) bool { return d.normalize().Before(other.normalize()) }
func (d Date) After(other Date) bool  { return d.normalize().After(other.normalize()) }
func (d Date) Equal(other Date) bool  { return d.normalize().Equal(other.normalize()) }

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int         { return d.Time.Year() }
func (d Date) Month() time.Month { return d.Time.Month() }
func (d Date) Day() int          { return d.Time.Day() }
func (d Date) IsZero() bool      { return d.Time.IsZero() }

func (d Date) String() string { return d.Time.Format(dateLayout) }

// JSON: dates travel as YYYY-MM-DD strings.
func (d Date) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// MONTH ARITHMETIC
// =============================================================================

// MonthStart returns the first day of the month.
func MonthStart(year int, month time.Month) Date {
	return NewDate(year, month, 1)
}

// MonthEnd returns the last day of the month, inclusive.
func MonthEnd(year int, month time.Month) Date {
	t := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return Date{Time: t}
}

// DaysInMonth returns the number of days in the month (handles leap years).
func DaysInMonth(year int, month time.Month) int {
	return MonthEnd(year, month).Day()
}

// ClampDayOfMonth clamps a day-of-month to the month's length, so a
// rule anchored on day 31 degrades gracefully into shorter months
// (e.g. lands on Feb 28/29).
func ClampDayOfMonth(day int, year int, month time.Month) int {
	if n := DaysInMonth(year, month); day > n {
		return n
	}
	return day
}

// DaysBetween returns the whole days from one date to another.
func DaysBetween(from, to Date) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}

// monthIndex flattens (year, month) into a single comparable index,
// used for the quarterly cadence check.
func monthIndex(year int, month time.Month) int {
	return year*12 + int(month) - 1
}
