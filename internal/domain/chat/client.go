package chat

import (
	"context"
	"errors"
	"time"
)

// Errors returned by Client implementations.
var (
	ErrMessageNotFound    = errors.New("chat message not found")
	ErrChannelUnavailable = errors.New("chat channel unavailable")
)

// Channel identifies the channel the bot posts into.
type Channel struct {
	ID   string
	Name string
}

// MessageRef is a handle to a message the bot posted.
type MessageRef struct {
	ChannelID string
	ID        string
}

// Message is a fetched message.
type Message struct {
	ID        string
	Content   string
	AuthorID  string
	CreatedAt time.Time
}

// InboundMessage is a recent channel message considered for operator commands.
type InboundMessage struct {
	ID         string
	AuthorID   string
	AuthorName string
	Text       string
	IsBot      bool
}

// Voter is a user that reacted to a poll option.
type Voter struct {
	ID          string
	DisplayName string
	IsBot       bool
}

// Client defines the chat operations the scheduler needs.
// This keeps the scheduling logic independent of the concrete chat platform.
type Client interface {
	FindOrCreateChannel(ctx context.Context, nameOrID string) (Channel, error)
	Post(ctx context.Context, ch Channel, text string) (MessageRef, error)
	AddReactions(ctx context.Context, ch Channel, messageID string, symbols []string) error
	// Fetch returns ErrMessageNotFound when the message no longer exists.
	Fetch(ctx context.Context, ch Channel, messageID string) (Message, error)
	// ReadRecent returns up to limit messages, newest first.
	ReadRecent(ctx context.Context, ch Channel, limit int) ([]InboundMessage, error)
	Delete(ctx context.Context, ch Channel, messageID string) error
	ReactionVoters(ctx context.Context, ch Channel, messageID, symbol string) ([]Voter, error)
	// SelfID is the bot's own account id.
	SelfID(ctx context.Context) (string, error)
}

// Mirror receives a copy of every announcement posted to the channel.
type Mirror interface {
	Mirror(ctx context.Context, text string) error
}
