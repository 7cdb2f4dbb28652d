package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"weekly_scheduler_bot/internal/domain/chat"
	"weekly_scheduler_bot/internal/domain/cycle"
)

const (
	testChannelID = "chan-1"
	testSelfID    = "bot-self"
)

var jst = time.FixedZone("JST", 9*60*60)

func at(month time.Month, day, hour, minute int) time.Time {
	return time.Date(2026, month, day, hour, minute, 0, 0, jst)
}

func date(month time.Month, day int) cycle.Date {
	return cycle.Date{Year: 2026, Month: month, Day: day}
}

// fakeChat is an in-memory chat.Client.
type fakeChat struct {
	mu sync.Mutex

	channelErr error
	postErr    error
	// failPostContaining fails posts whose text contains this substring.
	failPostContaining string
	fetchErr           error
	votersErr          error
	// deleteErr makes every Delete fail and leaves the message in place.
	deleteErr error

	nextID    int
	posts     []string
	reactions map[string][]string
	deleted   []string
	recent    []chat.InboundMessage
	missing   map[string]bool
	voters    map[string][]chat.Voter
}

func newFakeChat() *fakeChat {
	return &fakeChat{
		reactions: make(map[string][]string),
		missing:   make(map[string]bool),
		voters:    make(map[string][]chat.Voter),
	}
}

func (f *fakeChat) FindOrCreateChannel(_ context.Context, nameOrID string) (chat.Channel, error) {
	if f.channelErr != nil {
		return chat.Channel{}, f.channelErr
	}
	return chat.Channel{ID: testChannelID, Name: nameOrID}, nil
}

func (f *fakeChat) Post(_ context.Context, ch chat.Channel, text string) (chat.MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postErr != nil {
		return chat.MessageRef{}, f.postErr
	}
	if f.failPostContaining != "" && strings.Contains(text, f.failPostContaining) {
		return chat.MessageRef{}, errors.New("post rejected")
	}
	f.nextID++
	f.posts = append(f.posts, text)
	return chat.MessageRef{ChannelID: ch.ID, ID: fmt.Sprintf("msg-%d", f.nextID)}, nil
}

func (f *fakeChat) AddReactions(_ context.Context, _ chat.Channel, messageID string, symbols []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions[messageID] = append(f.reactions[messageID], symbols...)
	return nil
}

func (f *fakeChat) Fetch(_ context.Context, _ chat.Channel, messageID string) (chat.Message, error) {
	if f.fetchErr != nil {
		return chat.Message{}, f.fetchErr
	}
	if f.missing[messageID] {
		return chat.Message{}, chat.ErrMessageNotFound
	}
	return chat.Message{ID: messageID}, nil
}

func (f *fakeChat) ReadRecent(_ context.Context, _ chat.Channel, limit int) ([]chat.InboundMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msgs := f.recent
	if len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return append([]chat.InboundMessage(nil), msgs...), nil
}

func (f *fakeChat) Delete(_ context.Context, _ chat.Channel, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	kept := f.recent[:0]
	for _, m := range f.recent {
		if m.ID != messageID {
			kept = append(kept, m)
		}
	}
	f.recent = kept
	return nil
}

func (f *fakeChat) ReactionVoters(_ context.Context, _ chat.Channel, _ string, symbol string) ([]chat.Voter, error) {
	if f.votersErr != nil {
		return nil, f.votersErr
	}
	return f.voters[symbol], nil
}

func (f *fakeChat) SelfID(context.Context) (string, error) {
	return testSelfID, nil
}

func (f *fakeChat) command(id, text string) {
	f.recent = append([]chat.InboundMessage{{ID: id, AuthorID: "op", AuthorName: "op", Text: text}}, f.recent...)
}

// vote sets n distinct human voters (plus the bot's own seed reaction) on symbol.
func (f *fakeChat) vote(symbol string, n int) {
	voters := []chat.Voter{{ID: testSelfID, DisplayName: "bot", IsBot: true}}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("user%02d", i)
		voters = append(voters, chat.Voter{ID: id, DisplayName: id})
	}
	f.voters[symbol] = voters
}

// memoryRepository stores encoded states keyed by channel.
type memoryRepository struct {
	data    map[string][]byte
	loadErr error
	saveErr error
	saves   int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{data: make(map[string][]byte)}
}

func (r *memoryRepository) Load(_ context.Context, channelKey string) (*cycle.State, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	raw, ok := r.data[channelKey]
	if !ok {
		return nil, cycle.ErrStateNotFound
	}
	return cycle.Decode(raw)
}

func (r *memoryRepository) Save(_ context.Context, channelKey string, st *cycle.State) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	raw, err := cycle.Encode(st)
	if err != nil {
		return err
	}
	r.data[channelKey] = raw
	r.saves++
	return nil
}

func (r *memoryRepository) put(st *cycle.State) {
	raw, _ := cycle.Encode(st)
	r.data[testChannelID] = raw
}

func (r *memoryRepository) state() *cycle.State {
	st, _ := cycle.Decode(r.data[testChannelID])
	return st
}

type recordingMirror struct {
	texts []string
	err   error
}

func (m *recordingMirror) Mirror(_ context.Context, text string) error {
	m.texts = append(m.texts, text)
	return m.err
}

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func firstVariant() VariantPicker {
	return PickerFunc(func(pool []string) string {
		if len(pool) == 0 {
			return ""
		}
		return pool[0]
	})
}

type harness struct {
	chat *fakeChat
	repo *memoryRepository
	now  time.Time
	svc  *SchedulingService
}

func newHarness(settings Settings, opts ...Option) *harness {
	h := &harness{chat: newFakeChat(), repo: newMemoryRepository()}
	opts = append([]Option{
		WithClock(func() time.Time { return h.now }),
		WithPicker(firstVariant()),
	}, opts...)
	h.svc = NewSchedulingService(h.chat, h.repo, settings, testLogger(), opts...)
	return h
}

func (h *harness) runAt(t time.Time) (*Outcome, error) {
	h.now = t
	return h.svc.RunOnce(context.Background())
}

func welcomedIdle() *cycle.State {
	st := cycle.NewState()
	st.Welcomed = true
	return st
}

func gatheringWeekOf(first cycle.Date) *cycle.State {
	st := welcomedIdle()
	dates := make([]cycle.Date, cycle.CandidateCount)
	for i := range dates {
		dates[i] = first.AddDays(i)
	}
	st.OpenGathering(dates, "poll-1", cycle.CycleKey(time.Date(first.Year, first.Month, first.Day, 0, 0, 0, 0, jst).AddDate(0, 0, -4)))
	return st
}

func confirmedOn(d cycle.Date) *cycle.State {
	st := welcomedIdle()
	st.LastRecruitedCycleKey = "2026-W42"
	st.Confirm(d)
	return st
}
