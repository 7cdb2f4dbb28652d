package cycle

import (
	"fmt"
	"time"
)

// TriggerConfig describes the local time windows of the weekly workflow.
// Hour bounds are half-open: a window with start 21 and end 24 covers 21:00-23:59.
type TriggerConfig struct {
	Location *time.Location

	RecruitWeekday time.Weekday
	RecruitHour    int

	ReminderWeekdays  []time.Weekday
	ReminderHourStart int
	ReminderHourEnd   int

	DayBeforeHour int
	DayOfHour     int
}

// DefaultTriggerConfig returns the windows of the original weekly schedule:
// recruitment from Friday 21:00 and weekend digests from 21:00, in UTC+9.
func DefaultTriggerConfig() TriggerConfig {
	return TriggerConfig{
		Location:          time.FixedZone("JST", 9*60*60),
		RecruitWeekday:    time.Friday,
		RecruitHour:       21,
		ReminderWeekdays:  []time.Weekday{time.Saturday, time.Sunday},
		ReminderHourStart: 21,
		ReminderHourEnd:   24,
		DayBeforeHour:     20,
		DayOfHour:         12,
	}
}

// Windows is the classification of one instant against the trigger table.
type Windows struct {
	Now      time.Time
	Today    Date
	TodayKey string
	CycleKey string

	RecruitmentOpen bool
	ReminderOpen    bool
	DayBeforeOpen   bool
	DayOfOpen       bool
	Expired         bool
}

// LocalNow converts t into the configured zone.
func (c TriggerConfig) LocalNow(t time.Time) time.Time {
	if c.Location == nil {
		return t
	}
	return t.In(c.Location)
}

// CycleKey identifies the ISO week of t, e.g. "2026-W42".
func CycleKey(t time.Time) string {
	y, w := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", y, w)
}

// Evaluate classifies now against the configured windows and the state's
// confirmed or candidate dates. It has no side effects.
func Evaluate(now time.Time, st *State, cfg TriggerConfig) Windows {
	local := cfg.LocalNow(now)
	today := DateOf(local)
	hour := local.Hour()

	w := Windows{
		Now:      local,
		Today:    today,
		TodayKey: today.String(),
		CycleKey: CycleKey(local),
	}

	w.RecruitmentOpen = local.Weekday() == cfg.RecruitWeekday && hour >= cfg.RecruitHour
	w.ReminderOpen = containsWeekday(cfg.ReminderWeekdays, local.Weekday()) &&
		hour >= cfg.ReminderHourStart && hour < cfg.ReminderHourEnd

	if st == nil {
		return w
	}

	switch st.Status {
	case StatusGathering:
		if last, ok := st.LastCandidateDate(); ok {
			w.Expired = today.After(last)
		}
	case StatusConfirmed:
		if st.ConfirmedDate != nil {
			confirmed := *st.ConfirmedDate
			w.Expired = today.After(confirmed)
			w.DayBeforeOpen = today == confirmed.AddDays(-1) && hour >= cfg.DayBeforeHour
			w.DayOfOpen = today == confirmed && hour >= cfg.DayOfHour
		}
	}
	return w
}

func containsWeekday(days []time.Weekday, d time.Weekday) bool {
	for _, candidate := range days {
		if candidate == d {
			return true
		}
	}
	return false
}
