package cycle

import (
	"strings"

	"weekly_scheduler_bot/internal/domain/chat"
)

// CommandSet holds the literal operator command tokens.
type CommandSet struct {
	Reset       string
	ForceOpen   string
	ForceRemind string
	ForceCancel string
}

func DefaultCommandSet() CommandSet {
	return CommandSet{
		Reset:       "!reset",
		ForceOpen:   "!post",
		ForceRemind: "!remind",
		ForceCancel: "!cancel",
	}
}

// CommandSignal is the operator intent observed during one invocation.
// It is never persisted.
type CommandSignal struct {
	Reset       bool
	ForceOpen   bool
	ForceRemind bool
	ForceCancel bool
	// DeleteIDs lists the command messages that should be removed from the channel.
	DeleteIDs []string
	// NewestID is the newest message id scanned, human or bot. It becomes the
	// watermark for the next invocation.
	NewestID string
}

// Any reports whether at least one command was observed.
func (c CommandSignal) Any() bool {
	return c.Reset || c.ForceOpen || c.ForceRemind || c.ForceCancel
}

// InterpretCommands scans at most limit messages and OR-accumulates the
// commands found in messages written by humans. Messages at or below the
// watermark were seen by an earlier invocation and are skipped, so a command
// whose deletion failed does not fire again.
func InterpretCommands(msgs []chat.InboundMessage, cmds CommandSet, limit int, watermark string) CommandSignal {
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}

	sig := CommandSignal{NewestID: watermark}
	for _, m := range msgs {
		if !IsNewerMessageID(m.ID, watermark) {
			continue
		}
		if IsNewerMessageID(m.ID, sig.NewestID) {
			sig.NewestID = m.ID
		}
		if m.IsBot {
			continue
		}
		matched := true
		switch strings.TrimSpace(m.Text) {
		case "":
			matched = false
		case cmds.Reset:
			sig.Reset = true
		case cmds.ForceOpen:
			sig.ForceOpen = true
		case cmds.ForceRemind:
			sig.ForceRemind = true
		case cmds.ForceCancel:
			sig.ForceCancel = true
		default:
			matched = false
		}
		if matched && m.ID != "" {
			sig.DeleteIDs = append(sig.DeleteIDs, m.ID)
		}
	}
	return sig
}

// IsNewerMessageID orders chat message ids. Ids are increasing decimal
// snowflakes, so a longer id is newer and equal lengths compare as strings.
// Every non-empty id is newer than the empty watermark.
func IsNewerMessageID(id, than string) bool {
	if id == "" {
		return false
	}
	if len(id) != len(than) {
		return len(id) > len(than)
	}
	return id > than
}
