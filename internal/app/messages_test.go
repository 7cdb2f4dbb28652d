package app

import (
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"weekly_scheduler_bot/internal/domain/chat"
	"weekly_scheduler_bot/internal/domain/cycle"
)

func newGolden(t *testing.T) *goldie.Goldie {
	t.Helper()
	return goldie.New(t, goldie.WithFixtureDir("testdata"), goldie.WithNameSuffix(".golden"))
}

func scoresFor(counts ...int) cycle.TallyResult {
	dates := octoberWeek(20)
	res := cycle.TallyResult{Scores: make([]cycle.OptionScore, len(counts))}
	for i, c := range counts {
		res.Scores[i] = cycle.OptionScore{Index: i, Date: dates[i], Count: c}
	}
	return res
}

func TestRenderPoll(t *testing.T) {
	got := renderPoll(DefaultTexts(), 8, octoberWeek(20), DefaultOptionSymbols)
	newGolden(t).Assert(t, "poll", []byte(got))
}

func TestRenderDigest(t *testing.T) {
	res := scoresFor(3, 2, 0, 0, 0, 0, 0)
	res.Responders = []chat.Voter{
		{ID: "1", DisplayName: "Alice"},
		{ID: "2", DisplayName: "Bob"},
		{ID: "3", DisplayName: "Carol"},
	}
	got := renderDigest(DefaultTexts(), res, res.Ranked(3))
	newGolden(t).Assert(t, "digest", []byte(got))
}

func TestRenderDigest_NoResponders(t *testing.T) {
	res := scoresFor(0, 0, 0, 0, 0, 0, 0)
	got := renderDigest(DefaultTexts(), res, res.Ranked(3))
	assert.Contains(t, got, "入力済みメンバー（0人）**: なし\n")
}

func TestRenderConfirmation(t *testing.T) {
	res := scoresFor(3, 8, 8, 2, 0, 0, 0)
	winner, ok := res.QuorumWinner(8)
	assert.True(t, ok)
	got := renderConfirmation(DefaultTexts(), winner, res.Ranked(3))
	newGolden(t).Assert(t, "confirmation", []byte(got))
}

func TestRenderWelcome(t *testing.T) {
	got := renderWelcome(DefaultTexts(), DefaultSettings())
	newGolden(t).Assert(t, "welcome", []byte(got))
}

func TestRenderReminder_EmptyMention(t *testing.T) {
	texts := DefaultTexts()
	texts.Mention = ""
	got := renderReminder("{mention}{event} {date}", texts, date(time.October, 21))
	assert.Equal(t, "零式消化 10/21(水)", got)
}

func TestRandomPicker(t *testing.T) {
	p := NewRandomPicker()
	assert.Empty(t, p.Pick(nil))

	pool := []string{"a", "b", "c"}
	for i := 0; i < 20; i++ {
		assert.Contains(t, pool, p.Pick(pool))
	}
}
