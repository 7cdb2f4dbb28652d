// internal/infra/telegram/client.go
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"gopkg.in/telebot.v3"
)

const sendTimeout = 15 * time.Second

// Sender is the part of *telebot.Bot used by the mirror.
type Sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// TelebotMirror copies channel announcements into one Telegram chat.
// It implements chat.Mirror.
type TelebotMirror struct {
	bot    Sender
	chatID int64
}

// NewBot creates a send-only bot; no updates are polled.
func NewBot(token string) (*telebot.Bot, error) {
	b, err := telebot.NewBot(telebot.Settings{
		Token:   token,
		Offline: true,
		Client:  &http.Client{Timeout: sendTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return b, nil
}

func NewTelebotMirror(b Sender, chatID int64) *TelebotMirror {
	return &TelebotMirror{bot: b, chatID: chatID}
}

// Mirror sends text as a plain message. Discord markdown is left untouched.
func (m *TelebotMirror) Mirror(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := m.bot.Send(&telebot.Chat{ID: m.chatID}, text, &telebot.SendOptions{DisableWebPagePreview: true})
	if err != nil {
		return fmt.Errorf("failed to mirror message to telegram chat %d: %w", m.chatID, err)
	}
	return nil
}
