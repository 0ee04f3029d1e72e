// Package matchtest provides in-memory collaborators for exercising the
// match engine without a chat platform or database.
package matchtest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/cory-johannsen/wordrace/internal/game/match"
	"github.com/cory-johannsen/wordrace/internal/game/player"
)

// Sent is one message recorded by a Channel.
type Sent struct {
	Ref     match.MessageRef
	Message match.Message
}

// Channel records sends and deletes. FailSends makes the next n sends fail.
type Channel struct {
	id string

	mu        sync.Mutex
	seq       int
	sent      []Sent
	deleted   []match.MessageRef
	failSends int
}

// NewChannel creates an empty Channel with id.
func NewChannel(id string) *Channel {
	return &Channel{id: id}
}

// ID returns the channel id.
func (c *Channel) ID() string { return c.id }

// Send records msg and returns a fresh reference.
func (c *Channel) Send(_ context.Context, msg match.Message) (match.MessageRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSends > 0 {
		c.failSends--
		return match.MessageRef{}, errors.New("send failed")
	}
	c.seq++
	ref := match.MessageRef{ChannelID: c.id, MessageID: c.id + "-" + strconv.Itoa(c.seq)}
	c.sent = append(c.sent, Sent{Ref: ref, Message: msg})
	return ref, nil
}

// Delete records ref.
func (c *Channel) Delete(_ context.Context, ref match.MessageRef) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, ref)
	return nil
}

// FailSends makes the next n sends return an error.
func (c *Channel) FailSends(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failSends = n
}

// Sent returns a copy of every recorded send.
func (c *Channel) Sent() []Sent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Sent(nil), c.sent...)
}

// Texts returns the text of every recorded send.
func (c *Channel) Texts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.sent))
	for _, s := range c.sent {
		out = append(out, s.Message.Text)
	}
	return out
}

// Deleted returns a copy of every recorded delete.
func (c *Channel) Deleted() []match.MessageRef {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]match.MessageRef(nil), c.deleted...)
}

// Count returns how many sent texts start with prefix.
func (c *Channel) Count(prefix string) int {
	n := 0
	for _, t := range c.Texts() {
		if strings.HasPrefix(t, prefix) {
			n++
		}
	}
	return n
}

// Opener hands out one Channel per user and remembers it.
type Opener struct {
	mu       sync.Mutex
	channels map[string]*Channel
	fail     map[string]bool
}

// NewOpener creates an Opener.
func NewOpener() *Opener {
	return &Opener{channels: make(map[string]*Channel), fail: make(map[string]bool)}
}

// Open returns the channel "dm-<user id>", creating it on first use.
func (o *Opener) Open(_ context.Context, _ match.Channel, user match.User) (match.Channel, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail[user.ID] {
		return nil, fmt.Errorf("cannot open channel for %s", user.ID)
	}
	return o.channelLocked(user.ID), nil
}

// Resolve returns the channel with channelID, creating it if needed.
func (o *Opener) Resolve(_ context.Context, channelID string) (match.Channel, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.channelLocked(strings.TrimPrefix(channelID, "dm-")), nil
}

// Fail makes Open fail for userID.
func (o *Opener) Fail(userID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.fail[userID] = true
}

// Channel returns the channel opened for userID.
func (o *Opener) Channel(userID string) *Channel {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.channelLocked(userID)
}

func (o *Opener) channelLocked(userID string) *Channel {
	ch, ok := o.channels[userID]
	if !ok {
		ch = NewChannel("dm-" + userID)
		o.channels[userID] = ch
	}
	return ch
}

// Dictionary answers with a fixed word and accepts a fixed word set.
// Gate, when set, blocks every Exists call until it is closed.
type Dictionary struct {
	Answer string
	Words  map[string]bool
	Gate   chan struct{}
	// Arrived receives one value per Exists call before it waits on Gate.
	Arrived chan struct{}
	Err     error
}

// NewDictionary creates a Dictionary whose answer is also a valid word.
func NewDictionary(answer string, words ...string) *Dictionary {
	d := &Dictionary{Answer: answer, Words: map[string]bool{answer: true}}
	for _, w := range words {
		d.Words[w] = true
	}
	return d
}

// SelectAnswer returns d.Answer when its length matches.
func (d *Dictionary) SelectAnswer(_ context.Context, language string, length int) (string, error) {
	if d.Err != nil {
		return "", d.Err
	}
	if len([]rune(d.Answer)) != length {
		return "", fmt.Errorf("no %s answer of length %d", language, length)
	}
	return d.Answer, nil
}

// Exists reports whether word is in the set.
func (d *Dictionary) Exists(ctx context.Context, _ string, word string) (bool, error) {
	if d.Arrived != nil {
		d.Arrived <- struct{}{}
	}
	if d.Gate != nil {
		select {
		case <-d.Gate:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	return d.Words[word], nil
}

// Renderer renders the history as one line per guess.
type Renderer struct{}

// Render returns a text attachment of the guesses.
func (Renderer) Render(guesses []player.Guess, theme string) (match.Attachment, error) {
	var b strings.Builder
	for _, g := range guesses {
		b.WriteString(g.Word)
		b.WriteByte(' ')
		b.WriteString(player.Row(g.Feedback))
		b.WriteByte('\n')
	}
	return match.Attachment{Name: "board-" + theme + ".txt", ContentType: "text/plain", Data: []byte(b.String())}, nil
}

// Localizer renders "key arg1 arg2 ..." so tests can match on keys.
type Localizer struct{}

// Text returns key followed by its arguments.
func (Localizer) Text(_ string, key string, args ...any) string {
	if len(args) == 0 {
		return key
	}
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, key)
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	return strings.Join(parts, " ")
}
