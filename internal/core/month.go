package core

import (
	"fmt"
	"strings"
	"time"
)

// Month is a calendar month, anchored at its first instant in a location.
type Month time.Time

// NewMonth returns the month in loc. A nil loc means UTC.
func NewMonth(year int, month time.Month, loc *time.Location) Month {
	if loc == nil {
		loc = time.UTC
	}
	return Month(time.Date(year, month, 1, 0, 0, 0, 0, loc))
}

// MonthOf returns the Month in which t occurs in t's location.
func MonthOf(t time.Time) Month {
	year, month, _ := t.Date()
	return Month(time.Date(year, month, 1, 0, 0, 0, 0, t.Location()))
}

// ParseMonth parses a "YYYY-MM" string in loc.
func ParseMonth(s string, loc *time.Location) (Month, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation("2006-01", strings.TrimSpace(s), loc)
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, s)
	}
	return MonthOf(t), nil
}

// Start is the first instant of the month.
func (m Month) Start() time.Time { return time.Time(m) }

func (m Month) Year() int { return time.Time(m).Year() }

// Index returns the calendar month (January = 1).
func (m Month) Index() time.Month { return time.Time(m).Month() }

func (m Month) Location() *time.Location { return time.Time(m).Location() }

// Days returns the number of days in the month.
func (m Month) Days() int {
	start := time.Time(m)
	return time.Date(start.Year(), start.Month()+1, 0, 0, 0, 0, 0, start.Location()).Day()
}

// String returns the month formatted as YYYY-MM.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year(), m.Index())
}

func (m Month) IsZero() bool { return time.Time(m).IsZero() }

// AddDate adds a number of years and months.
func (m Month) AddDate(years, months int) Month {
	return Month(time.Time(m).AddDate(years, months, 0))
}

func (m Month) Before(n Month) bool { return time.Time(m).Before(time.Time(n)) }

func (m Month) After(n Month) bool { return time.Time(m).After(time.Time(n)) }

func (m Month) Equal(n Month) bool { return time.Time(m).Equal(time.Time(n)) }

// Contains reports whether t falls in the month once re-expressed in the month's location.
func (m Month) Contains(t time.Time) bool {
	local := t.In(m.Location())
	return local.Year() == m.Year() && local.Month() == m.Index()
}

// AssignDate places a new entry in the month: today's day-of-month and clock
// applied to the month's year and month. A day the month does not have is
// clamped to the month's last day rather than rolling into the next month.
func (m Month) AssignDate(now time.Time) time.Time {
	start := time.Time(m)
	loc := start.Location()
	now = now.In(loc)
	hour, minute, sec := now.Clock()

	d := time.Date(start.Year(), start.Month(), now.Day(), hour, minute, sec, now.Nanosecond(), loc)
	if d.Month() != start.Month() {
		d = time.Date(start.Year(), start.Month()+1, 0, hour, minute, sec, now.Nanosecond(), loc)
	}
	return d
}

// IsFuture reports whether the month starts after the month containing now.
func (m Month) IsFuture(now time.Time) bool {
	current := MonthOf(now.In(m.Location()))
	return m.After(current)
}

func (m Month) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts "YYYY-MM" and keeps only year and month of full dates.
func (m *Month) UnmarshalJSON(data []byte) error {
	value := strings.Trim(string(data), `"`)
	if value == "" || value == "null" {
		return nil
	}
	for _, layout := range []string{"2006-01", "2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			*m = NewMonth(t.Year(), t.Month(), time.UTC)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidMonth, value)
}
