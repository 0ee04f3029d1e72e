package match

import (
	"context"

	"github.com/cory-johannsen/wordrace/internal/game/player"
)

// Catalog keys used by the session.
const (
	KeyInfo           = "GameMultiplayerInfo"
	KeyFull           = "GameMultiplayerFull"
	KeyAlreadyStarted = "AlreadyStarted"
	KeyAlreadyJoined  = "AlreadyJoined"
	KeyNotInSession   = "NotInSession"
	KeyCannotLeave    = "CannotLeaveWhilePlaying"
	KeyJoined         = "GameMultiplayerJoined"
	KeyLeft           = "GameMultiplayerLeft"
	KeyStart          = "GameStart"
	KeyInvalidWord    = "GameInvalidWord"
	KeyAlreadyUsed    = "GameAlreadyUsed"
	KeyWin            = "GameWin"
	KeyWinner         = "GameMultiplayerWinner"
	KeyAborted        = "GameAborted"
	KeyGameTypePrefix = "GameTypeName."
)

// Level is the severity of an outbound notice; transports map it to colour.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

// String returns the lower-case level name.
func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// User identifies a participant as seen by the transport.
type User struct {
	ID     string
	Name   string
	Locale string
}

// Attachment is a rendered artifact sent alongside a message.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Message is one outbound message.
type Message struct {
	Level      Level
	Text       string
	Attachment *Attachment
}

// MessageRef addresses a sent message so it can be deleted later.
type MessageRef struct {
	ChannelID string `json:"channel_id"`
	MessageID string `json:"message_id"`
}

// Channel is a per-participant message sink.
type Channel interface {
	ID() string
	Send(ctx context.Context, msg Message) (MessageRef, error)
	Delete(ctx context.Context, ref MessageRef) error
}

// ChannelOpener creates the dedicated channel a player uses for one session.
// caller is the channel the join request arrived on and may be nil.
type ChannelOpener interface {
	Open(ctx context.Context, caller Channel, user User) (Channel, error)
}

// ChannelResolver rebinds a stored channel id to a live Channel.
type ChannelResolver interface {
	Resolve(ctx context.Context, channelID string) (Channel, error)
}

// Dictionary selects answers and checks guesses.
type Dictionary interface {
	SelectAnswer(ctx context.Context, language string, length int) (string, error)
	Exists(ctx context.Context, language, word string) (bool, error)
}

// Renderer turns a guess history into an attachment.
type Renderer interface {
	Render(guesses []player.Guess, theme string) (Attachment, error)
}

// Store keeps snapshots of active sessions.
type Store interface {
	Upsert(ctx context.Context, info Info) error
	Remove(ctx context.Context, id string) error
	List(ctx context.Context) ([]Info, error)
}

// Broadcaster delivers a localized notice to every participant of s.
type Broadcaster interface {
	Broadcast(ctx context.Context, s *Session, level Level, key string, args ...any) error
}

// Localizer formats catalog messages for a locale code.
type Localizer interface {
	Text(locale, key string, args ...any) string
}
