package cycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDailyReminder_OncePerKey(t *testing.T) {
	marker := ""
	fired := 0
	for i := 0; i < 2; i++ {
		d := DailyReminder(true, marker, "2026-10-17", false)
		if d.Fire {
			fired++
		}
		d.MarkDaily(&marker, "2026-10-17")
	}

	assert.Equal(t, 1, fired)
	assert.Equal(t, "2026-10-17", marker)
	assert.True(t, DailyReminder(true, marker, "2026-10-18", false).Fire)
}

func TestDailyReminder_ForcedDoesNotPoisonMarker(t *testing.T) {
	marker := "2026-10-16"
	for i := 0; i < 3; i++ {
		d := DailyReminder(false, marker, "2026-10-17", true)
		assert.True(t, d.Fire)
		d.MarkDaily(&marker, "2026-10-17")
	}

	assert.Equal(t, "2026-10-16", marker)
	assert.True(t, DailyReminder(true, marker, "2026-10-17", false).Fire,
		"scheduled path still fires after forced runs")
}

func TestDailyReminder_ClosedWindow(t *testing.T) {
	assert.False(t, DailyReminder(false, "", "2026-10-17", false).Fire)
}

func TestOnceReminder(t *testing.T) {
	sent := false

	d := OnceReminder(true, sent, false)
	d.MarkOnce(&sent)
	assert.True(t, d.Fire)
	assert.True(t, sent)

	assert.False(t, OnceReminder(true, sent, false).Fire)

	forced := OnceReminder(false, false, true)
	flag := false
	forced.MarkOnce(&flag)
	assert.True(t, forced.Fire)
	assert.False(t, flag)
}
