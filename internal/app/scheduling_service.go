// internal/app/scheduling_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"weekly_scheduler_bot/internal/domain/chat"
	"weekly_scheduler_bot/internal/domain/cycle"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ForceOpenPolicy decides what the force-open command does while a poll is
// already gathering votes.
type ForceOpenPolicy string

const (
	// ForceOpenIgnore consumes the command only while idle.
	ForceOpenIgnore ForceOpenPolicy = "ignore"
	// ForceOpenReplace deletes the running poll and opens a fresh cycle.
	ForceOpenReplace ForceOpenPolicy = "replace"
)

// Transition names the single state change applied by one invocation.
type Transition string

const (
	TransitionNone     Transition = "none"
	TransitionOpen     Transition = "open"
	TransitionReopen   Transition = "reopen"
	TransitionConfirm  Transition = "confirm"
	TransitionReminder Transition = "reminder"
	TransitionExpire   Transition = "expire"
	TransitionAbandon  Transition = "abandon"
	TransitionCancel   Transition = "cancel"
)

// Settings are the scheduling rules for one channel.
type Settings struct {
	ChannelRef       string
	AnchorWeekday    time.Weekday
	Triggers         cycle.TriggerConfig
	Commands         cycle.CommandSet
	CommandScanLimit int
	QuorumThreshold  int
	ExcludeSelfVote  bool
	OptionSymbols    []string
	ForceOpenPolicy  ForceOpenPolicy
	Texts            Texts
}

func DefaultSettings() Settings {
	return Settings{
		ChannelRef:       "general",
		AnchorWeekday:    time.Tuesday,
		Triggers:         cycle.DefaultTriggerConfig(),
		Commands:         cycle.DefaultCommandSet(),
		CommandScanLimit: 5,
		QuorumThreshold:  8,
		ExcludeSelfVote:  true,
		OptionSymbols:    DefaultOptionSymbols,
		ForceOpenPolicy:  ForceOpenIgnore,
		Texts:            DefaultTexts(),
	}
}

// Validate checks the settings before a service is built from them.
func (s Settings) Validate() error {
	if s.ChannelRef == "" {
		return fmt.Errorf("channel reference is empty")
	}
	if len(s.OptionSymbols) < cycle.CandidateCount {
		return fmt.Errorf("need %d option symbols, got %d", cycle.CandidateCount, len(s.OptionSymbols))
	}
	if s.QuorumThreshold <= 0 {
		return fmt.Errorf("quorum threshold must be positive, got %d", s.QuorumThreshold)
	}
	switch s.ForceOpenPolicy {
	case ForceOpenIgnore, ForceOpenReplace:
	default:
		return fmt.Errorf("unknown force-open policy %q", s.ForceOpenPolicy)
	}
	return nil
}

// Outcome summarizes one invocation.
type Outcome struct {
	RunID         string
	From          cycle.Status
	To            cycle.Status
	Transition    Transition
	Reset         bool
	Announcements []string
	State         *cycle.State
}

// Option customizes a SchedulingService.
type Option func(*SchedulingService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *SchedulingService) { s.now = now }
}

// WithPicker replaces the random reminder picker.
func WithPicker(p VariantPicker) Option {
	return func(s *SchedulingService) { s.picker = p }
}

// WithMirror copies every announcement to a secondary destination.
func WithMirror(m chat.Mirror) Option {
	return func(s *SchedulingService) { s.mirror = m }
}

// SchedulingService runs the scheduling state machine once per invocation.
// It assumes no other invocation for the same channel runs concurrently.
type SchedulingService struct {
	chat     chat.Client
	repo     cycle.Repository
	mirror   chat.Mirror
	picker   VariantPicker
	now      func() time.Time
	settings Settings
	logger   *logrus.Entry
}

func NewSchedulingService(
	cc chat.Client,
	repo cycle.Repository,
	settings Settings,
	logger *logrus.Entry,
	opts ...Option,
) *SchedulingService {
	s := &SchedulingService{
		chat:     cc,
		repo:     repo,
		picker:   NewRandomPicker(),
		now:      time.Now,
		settings: settings,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// invocation carries the per-run values shared by the evaluation steps.
type invocation struct {
	ch      chat.Channel
	st      *cycle.State
	windows cycle.Windows
	signal  cycle.CommandSignal
	outcome *Outcome
	log     *logrus.Entry
}

// RunOnce loads the state, applies at most one transition and saves the state.
// Only an unavailable channel, an unreadable repository or a failed save
// return an error; chat failures after that point are logged and swallowed.
func (s *SchedulingService) RunOnce(ctx context.Context) (*Outcome, error) {
	runID := uuid.NewString()
	log := s.logger.WithFields(logrus.Fields{"run_id": runID, "channel": s.settings.ChannelRef})

	ch, err := s.chat.FindOrCreateChannel(ctx, s.settings.ChannelRef)
	if err != nil {
		log.WithError(err).Error("Channel could not be resolved, nothing will be saved")
		return nil, fmt.Errorf("failed to resolve channel %q: %w", s.settings.ChannelRef, err)
	}
	log = log.WithField("channel_id", ch.ID)

	st, err := s.loadState(ctx, ch, log)
	if err != nil {
		return nil, err
	}

	inv := &invocation{
		ch:      ch,
		st:      st,
		outcome: &Outcome{RunID: runID, From: st.Status, Transition: TransitionNone},
		log:     log.WithField("status", st.Status),
	}

	inv.signal = s.readCommands(ctx, inv)
	if !st.Welcomed {
		s.welcome(ctx, inv)
	}
	// Reset is an operator override, not the run's transition: evaluation
	// continues from idle below.
	if inv.signal.Reset {
		inv.log.Info("Reset command observed, returning to idle")
		st.ResetToIdle()
		inv.outcome.Reset = true
	}

	now := s.now()
	inv.windows = cycle.Evaluate(now, st, s.settings.Triggers)

	switch st.Status {
	case cycle.StatusIdle:
		s.evaluateIdle(ctx, inv)
	case cycle.StatusGathering:
		s.evaluateGathering(ctx, inv)
	case cycle.StatusConfirmed:
		s.evaluateConfirmed(ctx, inv)
	}

	if err := s.repo.Save(ctx, ch.ID, st); err != nil {
		inv.log.WithError(err).Error("Failed to save cycle state")
		return nil, fmt.Errorf("failed to save cycle state: %w", err)
	}

	inv.outcome.To = st.Status
	inv.outcome.State = st
	inv.log.WithFields(logrus.Fields{
		"transition":    inv.outcome.Transition,
		"to":            st.Status,
		"announcements": len(inv.outcome.Announcements),
	}).Info("Invocation finished")
	return inv.outcome, nil
}

func (s *SchedulingService) loadState(ctx context.Context, ch chat.Channel, log *logrus.Entry) (*cycle.State, error) {
	st, err := s.repo.Load(ctx, ch.ID)
	switch {
	case err == nil:
	case errors.Is(err, cycle.ErrStateNotFound):
		log.Info("No saved state, starting idle")
		return cycle.NewState(), nil
	case errors.Is(err, cycle.ErrCorruptState):
		log.WithError(err).Warn("Saved state is corrupt, resetting to idle")
		return cycle.NewState(), nil
	default:
		log.WithError(err).Error("Failed to load cycle state")
		return nil, fmt.Errorf("failed to load cycle state: %w", err)
	}

	if err := st.Validate(); err != nil {
		log.WithError(err).Warn("Saved state is inconsistent, resetting to idle")
		fresh := cycle.NewState()
		fresh.Welcomed = st.Welcomed
		fresh.LastCommandID = st.LastCommandID
		return fresh, nil
	}
	return st, nil
}

func (s *SchedulingService) readCommands(ctx context.Context, inv *invocation) cycle.CommandSignal {
	msgs, err := s.chat.ReadRecent(ctx, inv.ch, s.settings.CommandScanLimit)
	if err != nil {
		inv.log.WithError(err).Warn("Failed to read recent messages, continuing without commands")
		return cycle.CommandSignal{}
	}

	sig := cycle.InterpretCommands(msgs, s.settings.Commands, s.settings.CommandScanLimit, inv.st.LastCommandID)
	inv.st.LastCommandID = sig.NewestID
	if sig.Any() {
		inv.log.WithFields(logrus.Fields{
			"reset":        sig.Reset,
			"force_open":   sig.ForceOpen,
			"force_remind": sig.ForceRemind,
			"force_cancel": sig.ForceCancel,
		}).Info("Operator commands observed")
	}
	for _, id := range sig.DeleteIDs {
		if err := s.chat.Delete(ctx, inv.ch, id); err != nil {
			inv.log.WithError(err).WithField("message_id", id).Warn("Failed to delete command message")
		}
	}
	return sig
}

func (s *SchedulingService) welcome(ctx context.Context, inv *invocation) {
	if _, err := s.announce(ctx, inv, renderWelcome(s.settings.Texts, s.settings)); err != nil {
		return
	}
	inv.st.Welcomed = true
}

func (s *SchedulingService) evaluateIdle(ctx context.Context, inv *invocation) {
	w := inv.windows
	forced := inv.signal.ForceOpen
	scheduled := w.RecruitmentOpen && inv.st.LastRecruitedCycleKey != w.CycleKey
	if !forced && !scheduled {
		return
	}

	dates := cycle.GenerateCandidateDates(w.Now, s.settings.AnchorWeekday)
	if err := s.openCycle(ctx, inv, dates); err != nil {
		return
	}
	inv.outcome.Transition = TransitionOpen
	inv.log.WithFields(logrus.Fields{"forced": forced, "first_date": dates[0].String()}).Info("Recruitment opened")
}

func (s *SchedulingService) evaluateGathering(ctx context.Context, inv *invocation) {
	st := inv.st

	if inv.signal.ForceOpen && s.settings.ForceOpenPolicy == ForceOpenReplace {
		previous := st.ActivePollID
		if err := s.chat.Delete(ctx, inv.ch, previous); err != nil {
			inv.log.WithError(err).WithField("poll_id", previous).Warn("Failed to delete replaced poll")
		}
		if err := s.openCycle(ctx, inv, cycle.GenerateCandidateDates(inv.windows.Now, s.settings.AnchorWeekday)); err != nil {
			return
		}
		inv.outcome.Transition = TransitionReopen
		inv.log.WithField("replaced_poll_id", previous).Info("Running poll replaced by force-open")
		return
	}

	if inv.windows.Expired {
		inv.log.WithField("poll_id", st.ActivePollID).Info("Gathering expired without quorum")
		st.ResetToIdle()
		inv.outcome.Transition = TransitionExpire
		return
	}

	if _, err := s.chat.Fetch(ctx, inv.ch, st.ActivePollID); err != nil {
		if errors.Is(err, chat.ErrMessageNotFound) {
			inv.log.WithField("poll_id", st.ActivePollID).Warn("Poll message not found, resetting to idle")
			st.ResetToIdle()
			inv.outcome.Transition = TransitionAbandon
			return
		}
		inv.log.WithError(err).Error("Failed to fetch poll message, will retry next run")
		return
	}

	res, err := s.tally(ctx, inv)
	if err != nil {
		inv.log.WithError(err).Error("Failed to read poll reactions, will retry next run")
		return
	}

	if winner, ok := res.QuorumWinner(s.settings.QuorumThreshold); ok {
		top := res.Ranked(3)
		_, _ = s.announce(ctx, inv, renderConfirmation(s.settings.Texts, winner, top))
		st.Confirm(winner.Date)
		inv.outcome.Transition = TransitionConfirm
		inv.log.WithFields(logrus.Fields{"date": winner.Date.String(), "votes": winner.Count}).Info("Date confirmed")
		return
	}

	decision := cycle.DailyReminder(inv.windows.ReminderOpen, st.LastReminderDateKey, inv.windows.TodayKey, inv.signal.ForceRemind)
	if !decision.Fire {
		return
	}
	if _, err := s.announce(ctx, inv, renderDigest(s.settings.Texts, res, res.Ranked(3))); err != nil {
		return
	}
	decision.MarkDaily(&st.LastReminderDateKey, inv.windows.TodayKey)
	inv.outcome.Transition = TransitionReminder
	inv.log.WithFields(logrus.Fields{"forced": decision.Forced, "responders": len(res.Responders)}).Info("Status digest sent")
}

func (s *SchedulingService) tally(ctx context.Context, inv *invocation) (cycle.TallyResult, error) {
	selfID, err := s.chat.SelfID(ctx)
	if err != nil {
		return cycle.TallyResult{}, fmt.Errorf("failed to resolve bot identity: %w", err)
	}

	options := make([]cycle.OptionVotes, len(inv.st.CandidateDates))
	for i, d := range inv.st.CandidateDates {
		voters, err := s.chat.ReactionVoters(ctx, inv.ch, inv.st.ActivePollID, s.settings.OptionSymbols[i])
		if err != nil {
			return cycle.TallyResult{}, fmt.Errorf("failed to read voters for %s: %w", d, err)
		}
		options[i] = cycle.OptionVotes{Date: d, Voters: voters}
	}
	return cycle.Tally(options, selfID, s.settings.ExcludeSelfVote), nil
}

func (s *SchedulingService) evaluateConfirmed(ctx context.Context, inv *invocation) {
	st := inv.st
	w := inv.windows
	confirmed := *st.ConfirmedDate

	if inv.signal.ForceCancel {
		_, _ = s.announce(ctx, inv, renderCancellation(s.settings.Texts, confirmed))
		ref := w.Today
		if confirmed.After(ref) {
			ref = confirmed
		}
		inv.outcome.Transition = TransitionCancel
		if err := s.openCycle(ctx, inv, cycle.GenerateCandidateDatesAfter(ref, s.settings.AnchorWeekday)); err != nil {
			st.ResetToIdle()
			return
		}
		inv.log.WithField("cancelled_date", confirmed.String()).Info("Confirmed date cancelled, recruitment reopened")
		return
	}

	if w.Expired {
		inv.log.WithField("date", confirmed.String()).Info("Confirmed date has passed, returning to idle")
		st.ResetToIdle()
		inv.outcome.Transition = TransitionExpire
		return
	}

	isEventDay := w.Today == confirmed
	forced := inv.signal.ForceRemind

	dayOf := cycle.OnceReminder(w.DayOfOpen, st.DayOfReminderSent, forced && isEventDay)
	if dayOf.Fire {
		if s.remind(ctx, inv, s.settings.Texts.DayOfPool, confirmed) {
			dayOf.MarkOnce(&st.DayOfReminderSent)
			inv.outcome.Transition = TransitionReminder
		}
		return
	}

	dayBefore := cycle.OnceReminder(w.DayBeforeOpen, st.DayBeforeReminderSent, forced && !isEventDay)
	if dayBefore.Fire {
		pool := s.settings.Texts.DayBeforePool
		if w.Today != confirmed.AddDays(-1) {
			// Forced earlier in the week.
			pool = s.settings.Texts.UpcomingPool
		}
		if s.remind(ctx, inv, pool, confirmed) {
			dayBefore.MarkOnce(&st.DayBeforeReminderSent)
			inv.outcome.Transition = TransitionReminder
		}
	}
}

func (s *SchedulingService) remind(ctx context.Context, inv *invocation, pool []string, d cycle.Date) bool {
	tmpl := s.picker.Pick(pool)
	if tmpl == "" {
		inv.log.Warn("Reminder pool is empty, nothing to send")
		return false
	}
	_, err := s.announce(ctx, inv, renderReminder(tmpl, s.settings.Texts, d))
	return err == nil
}

// openCycle posts a fresh poll and enters gathering. A failed post leaves the
// state untouched because there is no poll to track.
func (s *SchedulingService) openCycle(ctx context.Context, inv *invocation, dates []cycle.Date) error {
	symbols := s.settings.OptionSymbols[:len(dates)]
	ref, err := s.announce(ctx, inv, renderPoll(s.settings.Texts, s.settings.QuorumThreshold, dates, symbols))
	if err != nil {
		return err
	}
	if err := s.chat.AddReactions(ctx, inv.ch, ref.ID, symbols); err != nil {
		inv.log.WithError(err).WithField("poll_id", ref.ID).Warn("Failed to add option reactions")
	}
	inv.st.OpenGathering(dates, ref.ID, inv.windows.CycleKey)
	return nil
}

// announce posts text to the channel and the mirror. Only the channel post
// result is returned; mirror failures are logged.
func (s *SchedulingService) announce(ctx context.Context, inv *invocation, text string) (chat.MessageRef, error) {
	ref, err := s.chat.Post(ctx, inv.ch, text)
	if err != nil {
		inv.log.WithError(err).Error("Failed to post announcement")
		return chat.MessageRef{}, err
	}
	inv.outcome.Announcements = append(inv.outcome.Announcements, text)

	if s.mirror != nil {
		if err := s.mirror.Mirror(ctx, text); err != nil {
			inv.log.WithError(err).Warn("Failed to mirror announcement")
		}
	}
	return ref, nil
}
