package cycle

import (
	"fmt"
	"time"
)

// CandidateCount is the number of consecutive days offered in one cycle.
const CandidateCount = 7

const dateLayout = "2006-01-02"

var weekdayLabels = [...]string{"日", "月", "火", "水", "木", "金", "土"}

// Date is a calendar day in the scheduling time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD key.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) midnight() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date n days later (or earlier for negative n).
func (d Date) AddDays(n int) Date {
	return DateOf(d.midnight().AddDate(0, 0, n))
}

func (d Date) Weekday() time.Weekday {
	return d.midnight().Weekday()
}

func (d Date) Before(other Date) bool {
	return d.midnight().Before(other.midnight())
}

func (d Date) After(other Date) bool {
	return d.midnight().After(other.midnight())
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// String returns the YYYY-MM-DD key, also used as the calendar-day key.
func (d Date) String() string {
	return d.midnight().Format(dateLayout)
}

// Label renders the date the way it is shown to participants, e.g. "10/20(火)".
func (d Date) Label() string {
	return fmt.Sprintf("%02d/%02d(%s)", int(d.Month), d.Day, WeekdayLabel(d.Weekday()))
}

// WeekdayLabel is the one-character Japanese weekday name.
func WeekdayLabel(w time.Weekday) string {
	return weekdayLabels[w]
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// GenerateCandidateDates returns the CandidateCount consecutive days starting at
// the next anchor weekday strictly after the day of now. now must already be
// in the scheduling time zone.
func GenerateCandidateDates(now time.Time, anchor time.Weekday) []Date {
	return GenerateCandidateDatesAfter(DateOf(now), anchor)
}

// GenerateCandidateDatesAfter is GenerateCandidateDates for an explicit
// reference day. If ref is itself the anchor weekday the cycle starts a week later.
func GenerateCandidateDatesAfter(ref Date, anchor time.Weekday) []Date {
	offset := (int(anchor) - int(ref.Weekday()) + 7) % 7
	if offset == 0 {
		offset = 7
	}
	start := ref.AddDays(offset)

	dates := make([]Date, CandidateCount)
	for i := range dates {
		dates[i] = start.AddDays(i)
	}
	return dates
}
