// Package discord adapts the match engine to Discord: per-player DM
// channels, message delivery and a prefix command handler.
package discord

import (
	"bytes"
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/cory-johannsen/wordrace/internal/game/match"
)

// maxContentLength is Discord's limit for a message's content field.
const maxContentLength = 2000

// Embed colors per message level.
const (
	colorInfo    = 0x5865F2
	colorSuccess = 0x57F287
	colorError   = 0xED4245
)

// API is the subset of *discordgo.Session the transport calls.
type API interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// Channel is a match.Channel backed by one Discord channel.
type Channel struct {
	api API
	id  string
}

// NewChannel wraps the Discord channel with id.
func NewChannel(api API, id string) *Channel {
	return &Channel{api: api, id: id}
}

// ID returns the Discord channel id.
func (c *Channel) ID() string { return c.id }

// Send posts msg. Text becomes an embed colored by level; a markdown board
// short enough to fit is inlined as content, anything else is uploaded.
func (c *Channel) Send(ctx context.Context, msg match.Message) (match.MessageRef, error) {
	data := buildMessage(msg)
	sent, err := c.api.ChannelMessageSendComplex(c.id, data, discordgo.WithContext(ctx))
	if err != nil {
		return match.MessageRef{}, fmt.Errorf("discord: sending to %s: %w", c.id, err)
	}
	return match.MessageRef{ChannelID: sent.ChannelID, MessageID: sent.ID}, nil
}

// Delete removes the message ref points at.
func (c *Channel) Delete(ctx context.Context, ref match.MessageRef) error {
	channelID := ref.ChannelID
	if channelID == "" {
		channelID = c.id
	}
	if err := c.api.ChannelMessageDelete(channelID, ref.MessageID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: deleting %s/%s: %w", channelID, ref.MessageID, err)
	}
	return nil
}

func buildMessage(msg match.Message) *discordgo.MessageSend {
	data := &discordgo.MessageSend{}
	if msg.Text != "" {
		data.Embeds = []*discordgo.MessageEmbed{{
			Description: msg.Text,
			Color:       levelColor(msg.Level),
		}}
	}
	if a := msg.Attachment; a != nil {
		if a.ContentType == "text/markdown" && len(a.Data) > 0 && len(a.Data) <= maxContentLength {
			data.Content = string(a.Data)
		} else if len(a.Data) > 0 {
			data.Files = []*discordgo.File{{
				Name:        a.Name,
				ContentType: a.ContentType,
				Reader:      bytes.NewReader(a.Data),
			}}
		}
	}
	return data
}

func levelColor(l match.Level) int {
	switch l {
	case match.LevelSuccess:
		return colorSuccess
	case match.LevelError:
		return colorError
	default:
		return colorInfo
	}
}

// Opener opens each player's session channel as a DM.
type Opener struct {
	api API
}

// NewOpener creates an Opener.
func NewOpener(api API) *Opener {
	return &Opener{api: api}
}

// Open creates or fetches the DM channel with user.
func (o *Opener) Open(ctx context.Context, _ match.Channel, user match.User) (match.Channel, error) {
	ch, err := o.api.UserChannelCreate(user.ID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("discord: opening DM with %s: %w", user.ID, err)
	}
	return NewChannel(o.api, ch.ID), nil
}

// Resolve rebinds a stored channel id without a round trip.
func (o *Opener) Resolve(_ context.Context, channelID string) (match.Channel, error) {
	if channelID == "" {
		return nil, fmt.Errorf("discord: empty channel id")
	}
	return NewChannel(o.api, channelID), nil
}

var (
	_ match.Channel         = (*Channel)(nil)
	_ match.ChannelOpener   = (*Opener)(nil)
	_ match.ChannelResolver = (*Opener)(nil)
)
