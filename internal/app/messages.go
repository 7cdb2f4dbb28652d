package app

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"weekly_scheduler_bot/internal/domain/cycle"
)

// DefaultOptionSymbols are the reactions used as poll options, one per candidate date.
var DefaultOptionSymbols = []string{"🇦", "🇧", "🇨", "🇩", "🇪", "🇫", "🇬"}

var rankMedals = []string{"🥇", "🥈", "🥉"}

// Texts holds the wording used in announcements.
// Reminder pools may use {mention}, {event}, {date} and {time} placeholders.
// UpcomingPool is used by forced reminders sent before the day-before.
type Texts struct {
	Mention       string
	EventName     string
	EventTime     string
	DayBeforePool []string
	DayOfPool     []string
	UpcomingPool  []string
}

func DefaultTexts() Texts {
	return Texts{
		Mention:   "@everyone",
		EventName: "零式消化",
		EventTime: "21:00",
		DayBeforePool: []string{
			"{mention} 【前日リマインド】{event}は {date} {time}〜 です。準備をお願いします！",
			"{mention} 【前日リマインド】{date} {time}〜 は{event}の日です。お忘れなく！",
			"{mention} 【前日リマインド】いよいよ {date} {time}〜 {event}！よろしくお願いします。",
		},
		DayOfPool: []string{
			"{mention} 【本日】{date} {time}〜 {event}です！よろしくお願いします。",
			"{mention} 【本日】今日は{event}の日です（{time}〜）。集合お願いします！",
			"{mention} 【本日】{event}は本日 {time}〜！遅れないようにお願いします。",
		},
		UpcomingPool: []string{
			"{mention} 【リマインド】{event}は {date} {time}〜 です。予定の確保をお願いします！",
			"{mention} 【リマインド】次回の{event}は {date} {time}〜 に決まっています。",
		},
	}
}

// VariantPicker chooses one entry of a message pool.
type VariantPicker interface {
	Pick(pool []string) string
}

// PickerFunc adapts a function to VariantPicker.
type PickerFunc func(pool []string) string

func (f PickerFunc) Pick(pool []string) string { return f(pool) }

// RandomPicker picks uniformly at random.
type RandomPicker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomPicker() *RandomPicker {
	return &RandomPicker{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (p *RandomPicker) Pick(pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return pool[p.rng.Intn(len(pool))]
}

func withMention(t Texts, sep string) string {
	if t.Mention == "" {
		return ""
	}
	return t.Mention + sep
}

func renderPoll(t Texts, quorum int, dates []cycle.Date, symbols []string) string {
	var b strings.Builder
	b.WriteString(withMention(t, "\n"))
	b.WriteString(fmt.Sprintf("**【%s】今週の予定を確認します**\n", t.EventName))
	b.WriteString(fmt.Sprintf("全員（%d人）揃った日に自動決定します（%s〜）\n\n", quorum, t.EventTime))
	for i, d := range dates {
		b.WriteString(fmt.Sprintf("%s : %s\n", symbols[i], d.Label()))
	}
	return b.String()
}

func renderConfirmation(t Texts, winner cycle.OptionScore, top []cycle.OptionScore) string {
	var b strings.Builder
	b.WriteString(withMention(t, "\n"))
	b.WriteString(fmt.Sprintf("**【日程確定】%s**\n", t.EventName))
	b.WriteString(fmt.Sprintf("✅ **%s %s〜** に決定しました！\n", winner.Date.Label(), t.EventTime))
	b.WriteString("よろしくお願いします。\n")
	if len(top) > 0 {
		b.WriteString("\n📊 **投票結果（上位3日）**\n")
		for i, s := range top {
			b.WriteString(fmt.Sprintf("%s %s ： %d人\n", rankMedals[i%len(rankMedals)], s.Date.Label(), s.Count))
		}
	}
	return b.String()
}

func renderDigest(t Texts, res cycle.TallyResult, top []cycle.OptionScore) string {
	names := make([]string, len(res.Responders))
	for i, r := range res.Responders {
		names[i] = r.DisplayName
	}
	joined := "なし"
	if len(names) > 0 {
		joined = strings.Join(names, "、")
	}

	var b strings.Builder
	b.WriteString(withMention(t, " "))
	b.WriteString("**【日程調整：週末確認】**\n")
	b.WriteString(fmt.Sprintf("✅ **入力済みメンバー（%d人）**: %s\n\n", len(names), joined))
	b.WriteString("📊 **現在の有力候補（上位3日）**\n")
	for _, s := range top {
		b.WriteString(fmt.Sprintf("- %s ： 現在 %d人\n", s.Date.Label(), s.Count))
	}
	return b.String()
}

func renderCancellation(t Texts, cancelled cycle.Date) string {
	var b strings.Builder
	b.WriteString(withMention(t, "\n"))
	b.WriteString(fmt.Sprintf("**【日程キャンセル】%s**\n", t.EventName))
	b.WriteString(fmt.Sprintf("❌ %s の開催を取り消しました。\n", cancelled.Label()))
	b.WriteString("新しい候補日で再募集します。\n")
	return b.String()
}

func renderWelcome(t Texts, s Settings) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("**%s 日程調整ボット**\n", t.EventName))
	b.WriteString(fmt.Sprintf("毎週%s曜 %d:00 から翌週の候補日を募集し、%d人揃った日を自動で確定します。\n\n",
		cycle.WeekdayLabel(s.Triggers.RecruitWeekday), s.Triggers.RecruitHour, s.QuorumThreshold))
	b.WriteString("コマンド:\n")
	b.WriteString(fmt.Sprintf("`%s` … 募集を今すぐ開始\n", s.Commands.ForceOpen))
	b.WriteString(fmt.Sprintf("`%s` … 状況確認・リマインドを今すぐ送信\n", s.Commands.ForceRemind))
	b.WriteString(fmt.Sprintf("`%s` … 確定した日程を取り消して再募集\n", s.Commands.ForceCancel))
	b.WriteString(fmt.Sprintf("`%s` … 状態をリセット\n", s.Commands.Reset))
	return b.String()
}

func renderReminder(tmpl string, t Texts, d cycle.Date) string {
	return strings.NewReplacer(
		"{mention}", t.Mention,
		"{event}", t.EventName,
		"{date}", d.Label(),
		"{time}", t.EventTime,
	).Replace(tmpl)
}
