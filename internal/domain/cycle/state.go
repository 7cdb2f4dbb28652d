package cycle

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Status is the discriminant of the scheduling state machine.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusGathering Status = "gathering"
	StatusConfirmed Status = "confirmed"
)

var (
	ErrStateNotFound = errors.New("cycle state not found")
	ErrCorruptState  = errors.New("cycle state is corrupt")
)

// State is the persisted aggregate for one channel's scheduling cycle.
type State struct {
	Status                Status `json:"status"`
	CandidateDates        []Date `json:"candidate_dates,omitempty"`
	ActivePollID          string `json:"active_poll_id,omitempty"`
	ConfirmedDate         *Date  `json:"confirmed_date,omitempty"`
	LastRecruitedCycleKey string `json:"last_recruited_cycle_key,omitempty"`
	LastReminderDateKey   string `json:"last_reminder_date_key,omitempty"`
	LastCommandID         string `json:"last_command_id,omitempty"`
	DayBeforeReminderSent bool   `json:"day_before_reminder_sent"`
	DayOfReminderSent     bool   `json:"day_of_reminder_sent"`
	Welcomed              bool   `json:"welcomed"`
}

// NewState returns the default state used on first run or after corruption.
func NewState() *State {
	return &State{Status: StatusIdle}
}

// Validate reports whether the fields required by the current status are present.
func (s *State) Validate() error {
	switch s.Status {
	case StatusIdle:
		if s.ActivePollID != "" || s.ConfirmedDate != nil {
			return fmt.Errorf("%w: idle state carries a poll or confirmed date", ErrCorruptState)
		}
	case StatusGathering:
		if s.ActivePollID == "" {
			return fmt.Errorf("%w: gathering state without poll id", ErrCorruptState)
		}
		if len(s.CandidateDates) != CandidateCount {
			return fmt.Errorf("%w: gathering state has %d candidate dates", ErrCorruptState, len(s.CandidateDates))
		}
		for i := 1; i < len(s.CandidateDates); i++ {
			if !s.CandidateDates[i-1].Before(s.CandidateDates[i]) {
				return fmt.Errorf("%w: candidate dates are not chronological", ErrCorruptState)
			}
		}
	case StatusConfirmed:
		if s.ConfirmedDate == nil || s.ConfirmedDate.IsZero() {
			return fmt.Errorf("%w: confirmed state without confirmed date", ErrCorruptState)
		}
	default:
		return fmt.Errorf("%w: unknown status %q", ErrCorruptState, s.Status)
	}
	return nil
}

// LastCandidateDate returns the final day of the gathering window.
func (s *State) LastCandidateDate() (Date, bool) {
	if len(s.CandidateDates) == 0 {
		return Date{}, false
	}
	return s.CandidateDates[len(s.CandidateDates)-1], true
}

// OpenGathering enters the gathering status with a fresh set of dates and poll.
func (s *State) OpenGathering(dates []Date, pollID string, cycleKey string) {
	s.Status = StatusGathering
	s.CandidateDates = append([]Date(nil), dates...)
	s.ActivePollID = pollID
	s.ConfirmedDate = nil
	s.LastRecruitedCycleKey = cycleKey
	s.LastReminderDateKey = ""
	s.DayBeforeReminderSent = false
	s.DayOfReminderSent = false
}

// Confirm leaves gathering for the confirmed status on the given date.
func (s *State) Confirm(d Date) {
	confirmed := d
	s.Status = StatusConfirmed
	s.ConfirmedDate = &confirmed
	s.CandidateDates = nil
	s.ActivePollID = ""
	s.DayBeforeReminderSent = false
	s.DayOfReminderSent = false
}

// ResetToIdle clears every cycle-specific field. Cycle and reminder keys, the
// command watermark and the welcome flag survive so the guards keep working.
func (s *State) ResetToIdle() {
	s.Status = StatusIdle
	s.CandidateDates = nil
	s.ActivePollID = ""
	s.ConfirmedDate = nil
	s.DayBeforeReminderSent = false
	s.DayOfReminderSent = false
}

// Encode serializes the state for a repository.
func Encode(s *State) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cycle state: %w", err)
	}
	return data, nil
}

// Decode parses a stored payload. Undecodable payloads return ErrCorruptState.
func Decode(data []byte) (*State, error) {
	st := &State{}
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	return st, nil
}
