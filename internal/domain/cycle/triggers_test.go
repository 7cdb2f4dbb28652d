package cycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func confirmedOn(d Date) *State {
	return &State{Status: StatusConfirmed, ConfirmedDate: &d}
}

func gatheringFrom(now time.Time) *State {
	return &State{
		Status:         StatusGathering,
		CandidateDates: GenerateCandidateDates(now, time.Tuesday),
		ActivePollID:   "poll",
	}
}

func TestEvaluate_RecruitmentWindow(t *testing.T) {
	cfg := DefaultTriggerConfig()

	cases := []struct {
		name string
		now  time.Time
		open bool
	}{
		{"friday before nine", time.Date(2026, time.October, 16, 20, 59, 0, 0, jst), false},
		{"friday at nine", time.Date(2026, time.October, 16, 21, 0, 0, 0, jst), true},
		{"friday late", time.Date(2026, time.October, 16, 23, 59, 0, 0, jst), true},
		{"saturday", time.Date(2026, time.October, 17, 21, 0, 0, 0, jst), false},
		{"friday nine in utc is saturday in jst", time.Date(2026, time.October, 16, 21, 0, 0, 0, time.UTC), false},
		{"friday noon utc is friday nine jst", time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := Evaluate(tc.now, NewState(), cfg)
			assert.Equal(t, tc.open, w.RecruitmentOpen)
		})
	}
}

func TestEvaluate_ReminderWindow(t *testing.T) {
	cfg := DefaultTriggerConfig()

	sat := Evaluate(time.Date(2026, time.October, 17, 21, 30, 0, 0, jst), nil, cfg)
	sun := Evaluate(time.Date(2026, time.October, 18, 22, 0, 0, 0, jst), nil, cfg)
	satEarly := Evaluate(time.Date(2026, time.October, 17, 20, 0, 0, 0, jst), nil, cfg)
	mon := Evaluate(time.Date(2026, time.October, 19, 21, 30, 0, 0, jst), nil, cfg)

	assert.True(t, sat.ReminderOpen)
	assert.True(t, sun.ReminderOpen)
	assert.False(t, satEarly.ReminderOpen)
	assert.False(t, mon.ReminderOpen)
	assert.Equal(t, "2026-10-17", sat.TodayKey)
	assert.Equal(t, "2026-W42", sat.CycleKey)
}

func TestEvaluate_ReminderWindowUpperBoundIsExclusive(t *testing.T) {
	cfg := DefaultTriggerConfig()
	cfg.ReminderHourStart, cfg.ReminderHourEnd = 18, 21

	assert.True(t, Evaluate(time.Date(2026, time.October, 17, 20, 59, 0, 0, jst), nil, cfg).ReminderOpen)
	assert.False(t, Evaluate(time.Date(2026, time.October, 17, 21, 0, 0, 0, jst), nil, cfg).ReminderOpen)
}

func TestEvaluate_ConfirmedWindows(t *testing.T) {
	cfg := DefaultTriggerConfig()
	event := Date{Year: 2026, Month: time.October, Day: 22}
	st := confirmedOn(event)

	dayBeforeEarly := Evaluate(time.Date(2026, time.October, 21, 19, 0, 0, 0, jst), st, cfg)
	dayBefore := Evaluate(time.Date(2026, time.October, 21, 20, 0, 0, 0, jst), st, cfg)
	dayOfEarly := Evaluate(time.Date(2026, time.October, 22, 11, 59, 0, 0, jst), st, cfg)
	dayOf := Evaluate(time.Date(2026, time.October, 22, 12, 0, 0, 0, jst), st, cfg)
	nextDay := Evaluate(time.Date(2026, time.October, 23, 0, 0, 0, 0, jst), st, cfg)

	assert.False(t, dayBeforeEarly.DayBeforeOpen)
	assert.True(t, dayBefore.DayBeforeOpen)
	assert.False(t, dayBefore.DayOfOpen)
	assert.False(t, dayOfEarly.DayOfOpen)
	assert.True(t, dayOf.DayOfOpen)
	assert.False(t, dayOf.DayBeforeOpen)
	assert.False(t, dayOf.Expired)
	assert.True(t, nextDay.Expired)
	assert.False(t, nextDay.DayOfOpen)
}

func TestEvaluate_GatheringExpiry(t *testing.T) {
	cfg := DefaultTriggerConfig()
	opened := time.Date(2026, time.October, 16, 21, 5, 0, 0, jst)
	st := gatheringFrom(opened)

	lastDay := Evaluate(time.Date(2026, time.October, 26, 23, 0, 0, 0, jst), st, cfg)
	after := Evaluate(time.Date(2026, time.October, 27, 0, 0, 0, 0, jst), st, cfg)

	assert.False(t, lastDay.Expired)
	assert.True(t, after.Expired)
}

func TestEvaluate_StableWithinHour(t *testing.T) {
	cfg := DefaultTriggerConfig()
	a := Evaluate(time.Date(2026, time.October, 17, 21, 1, 0, 0, jst), nil, cfg)
	b := Evaluate(time.Date(2026, time.October, 17, 21, 59, 0, 0, jst), nil, cfg)

	assert.Equal(t, a.ReminderOpen, b.ReminderOpen)
	assert.Equal(t, a.TodayKey, b.TodayKey)
	assert.Equal(t, a.CycleKey, b.CycleKey)
}
