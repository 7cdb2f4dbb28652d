package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"weekly_scheduler_bot/internal/domain/chat"
)

const reactionPageSize = 100

// Session is the subset of *discordgo.Session used by Client.
type Session interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	GuildChannelCreate(guildID, name string, ctype discordgo.ChannelType, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	ChannelMessage(channelID, messageID string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	MessageReactions(channelID, messageID, emojiID string, limit int, beforeID, afterID string, options ...discordgo.RequestOption) ([]*discordgo.User, error)
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
}

// Client implements chat.Client over the Discord REST API. No gateway
// connection is opened; every call is a plain HTTP request.
type Client struct {
	session Session
	guildID string
	logger  *logrus.Entry

	mu     sync.Mutex
	selfID string
}

// NewSession builds a REST-only discordgo session for a bot token.
func NewSession(token string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}
	return s, nil
}

func NewClient(session Session, guildID string, logger *logrus.Entry) *Client {
	return &Client{session: session, guildID: guildID, logger: logger}
}

// FindOrCreateChannel resolves a channel id, or a text channel name inside the
// configured guild, creating the channel when no such name exists.
func (c *Client) FindOrCreateChannel(ctx context.Context, nameOrID string) (chat.Channel, error) {
	opt := discordgo.WithContext(ctx)

	if isSnowflake(nameOrID) {
		ch, err := c.session.Channel(nameOrID, opt)
		if err != nil {
			return chat.Channel{}, fmt.Errorf("%w: channel %s: %v", chat.ErrChannelUnavailable, nameOrID, err)
		}
		return chat.Channel{ID: ch.ID, Name: ch.Name}, nil
	}

	if c.guildID == "" {
		return chat.Channel{}, fmt.Errorf("%w: no guild configured to look up %q", chat.ErrChannelUnavailable, nameOrID)
	}
	channels, err := c.session.GuildChannels(c.guildID, opt)
	if err != nil {
		return chat.Channel{}, fmt.Errorf("%w: listing guild channels: %v", chat.ErrChannelUnavailable, err)
	}
	name := strings.TrimPrefix(nameOrID, "#")
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildText && ch.Name == name {
			return chat.Channel{ID: ch.ID, Name: ch.Name}, nil
		}
	}

	c.logger.WithField("name", name).Info("Channel not found, creating it")
	created, err := c.session.GuildChannelCreate(c.guildID, name, discordgo.ChannelTypeGuildText, opt)
	if err != nil {
		return chat.Channel{}, fmt.Errorf("%w: creating channel %q: %v", chat.ErrChannelUnavailable, name, err)
	}
	return chat.Channel{ID: created.ID, Name: created.Name}, nil
}

func (c *Client) Post(ctx context.Context, ch chat.Channel, text string) (chat.MessageRef, error) {
	msg, err := c.session.ChannelMessageSend(ch.ID, text, discordgo.WithContext(ctx))
	if err != nil {
		return chat.MessageRef{}, fmt.Errorf("failed to send message: %w", err)
	}
	return chat.MessageRef{ChannelID: ch.ID, ID: msg.ID}, nil
}

// AddReactions adds every symbol in order and stops at the first failure.
func (c *Client) AddReactions(ctx context.Context, ch chat.Channel, messageID string, symbols []string) error {
	for _, symbol := range symbols {
		if err := c.session.MessageReactionAdd(ch.ID, messageID, symbol, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("failed to add reaction %s: %w", symbol, err)
		}
	}
	return nil
}

func (c *Client) Fetch(ctx context.Context, ch chat.Channel, messageID string) (chat.Message, error) {
	msg, err := c.session.ChannelMessage(ch.ID, messageID, discordgo.WithContext(ctx))
	if err != nil {
		if isNotFound(err) {
			return chat.Message{}, fmt.Errorf("%w: %s", chat.ErrMessageNotFound, messageID)
		}
		return chat.Message{}, fmt.Errorf("failed to fetch message %s: %w", messageID, err)
	}

	out := chat.Message{ID: msg.ID, Content: msg.Content, CreatedAt: msg.Timestamp}
	if msg.Author != nil {
		out.AuthorID = msg.Author.ID
	}
	return out, nil
}

func (c *Client) ReadRecent(ctx context.Context, ch chat.Channel, limit int) ([]chat.InboundMessage, error) {
	msgs, err := c.session.ChannelMessages(ch.ID, limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to read recent messages: %w", err)
	}

	out := make([]chat.InboundMessage, 0, len(msgs))
	for _, m := range msgs {
		in := chat.InboundMessage{ID: m.ID, Text: m.Content}
		if m.Author != nil {
			in.AuthorID = m.Author.ID
			in.AuthorName = displayName(m.Author)
			in.IsBot = m.Author.Bot
		}
		out = append(out, in)
	}
	return out, nil
}

// Delete treats an already deleted message as success.
func (c *Client) Delete(ctx context.Context, ch chat.Channel, messageID string) error {
	err := c.session.ChannelMessageDelete(ch.ID, messageID, discordgo.WithContext(ctx))
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete message %s: %w", messageID, err)
	}
	return nil
}

// ReactionVoters pages through every user who reacted with symbol.
func (c *Client) ReactionVoters(ctx context.Context, ch chat.Channel, messageID, symbol string) ([]chat.Voter, error) {
	var voters []chat.Voter
	after := ""
	for {
		users, err := c.session.MessageReactions(ch.ID, messageID, symbol, reactionPageSize, "", after, discordgo.WithContext(ctx))
		if err != nil {
			if isNotFound(err) {
				return nil, fmt.Errorf("%w: %s", chat.ErrMessageNotFound, messageID)
			}
			return nil, fmt.Errorf("failed to list reactions %s: %w", symbol, err)
		}
		for _, u := range users {
			voters = append(voters, chat.Voter{ID: u.ID, DisplayName: displayName(u), IsBot: u.Bot})
		}
		if len(users) < reactionPageSize {
			return voters, nil
		}
		after = users[len(users)-1].ID
	}
}

// SelfID resolves the bot account and caches it after the first success.
func (c *Client) SelfID(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selfID != "" {
		return c.selfID, nil
	}

	u, err := c.session.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to resolve bot user: %w", err)
	}
	c.selfID = u.ID
	return c.selfID, nil
}

func displayName(u *discordgo.User) string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

func isNotFound(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return false
	}
	if restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownChannel:
			return true
		}
	}
	return restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}

func isSnowflake(s string) bool {
	if len(s) < 15 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
