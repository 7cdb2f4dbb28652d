package cycle

import (
	"sort"

	"weekly_scheduler_bot/internal/domain/chat"
)

// OptionVotes is the raw reaction data for one candidate date.
type OptionVotes struct {
	Date   Date
	Voters []chat.Voter
}

// OptionScore is the counted result for one candidate date.
type OptionScore struct {
	Index int
	Date  Date
	Count int
}

type TallyResult struct {
	// Scores are in original (chronological) option order.
	Scores []OptionScore
	// Responders are the distinct human voters across all options.
	Responders []chat.Voter
}

// Tally counts distinct voters per option. Bot accounts never count; the
// bot's own account (selfID) is excluded as well when excludeSelf is set.
func Tally(options []OptionVotes, selfID string, excludeSelf bool) TallyResult {
	res := TallyResult{Scores: make([]OptionScore, len(options))}
	responders := make(map[string]chat.Voter)

	for i, opt := range options {
		seen := make(map[string]struct{}, len(opt.Voters))
		for _, v := range opt.Voters {
			isSelf := selfID != "" && v.ID == selfID
			if isSelf && excludeSelf {
				continue
			}
			if v.IsBot && !isSelf {
				continue
			}
			if _, dup := seen[v.ID]; dup {
				continue
			}
			seen[v.ID] = struct{}{}
			if !v.IsBot && !isSelf {
				responders[v.ID] = v
			}
		}
		res.Scores[i] = OptionScore{Index: i, Date: opt.Date, Count: len(seen)}
	}

	res.Responders = make([]chat.Voter, 0, len(responders))
	for _, v := range responders {
		res.Responders = append(res.Responders, v)
	}
	sort.Slice(res.Responders, func(i, j int) bool {
		a, b := res.Responders[i], res.Responders[j]
		if a.DisplayName != b.DisplayName {
			return a.DisplayName < b.DisplayName
		}
		return a.ID < b.ID
	})
	return res
}

// QuorumWinner returns the chronologically first option whose count reaches
// threshold, even when a later option has a higher count.
func (r TallyResult) QuorumWinner(threshold int) (OptionScore, bool) {
	if threshold <= 0 {
		return OptionScore{}, false
	}
	for _, s := range r.Scores {
		if s.Count >= threshold {
			return s, true
		}
	}
	return OptionScore{}, false
}

// Ranked returns up to n options by count descending. Ties keep option order.
func (r TallyResult) Ranked(n int) []OptionScore {
	ranked := append([]OptionScore(nil), r.Scores...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
