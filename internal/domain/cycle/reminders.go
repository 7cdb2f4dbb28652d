package cycle

// ReminderDecision says whether a reminder fires in this invocation.
// Forced reminders fire regardless of markers and never update them, so the
// scheduled path keeps its once-per-key guarantee.
type ReminderDecision struct {
	Fire   bool
	Forced bool
}

// DailyReminder fires at most once per calendar-day key on the scheduled path.
func DailyReminder(windowOpen bool, lastKey, todayKey string, forced bool) ReminderDecision {
	if forced {
		return ReminderDecision{Fire: true, Forced: true}
	}
	return ReminderDecision{Fire: windowOpen && lastKey != todayKey}
}

// OnceReminder fires at most once per confirmed date on the scheduled path.
func OnceReminder(windowOpen, alreadySent, forced bool) ReminderDecision {
	if forced {
		return ReminderDecision{Fire: true, Forced: true}
	}
	return ReminderDecision{Fire: windowOpen && !alreadySent}
}

// MarkDaily records todayKey as the last scheduled firing unless forced.
func (d ReminderDecision) MarkDaily(marker *string, todayKey string) {
	if d.Fire && !d.Forced {
		*marker = todayKey
	}
}

// MarkOnce sets the sent flag unless forced.
func (d ReminderDecision) MarkOnce(sent *bool) {
	if d.Fire && !d.Forced {
		*sent = true
	}
}
