package match

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// maxBroadcastFanout bounds concurrent sends of one broadcast.
const maxBroadcastFanout = 8

// ChannelBroadcaster sends a localized notice to every participant's channel.
type ChannelBroadcaster struct {
	texts Localizer
	retry RetryPolicy
}

// NewChannelBroadcaster creates a ChannelBroadcaster.
//
// Precondition: texts must be non-nil.
func NewChannelBroadcaster(texts Localizer, retry RetryPolicy) *ChannelBroadcaster {
	return &ChannelBroadcaster{texts: texts, retry: retry}
}

// Broadcast formats key per participant locale and sends it to each channel
// concurrently. One failed delivery does not stop the others.
//
// Postcondition: Returns nil if every send succeeded, otherwise the joined errors.
func (b *ChannelBroadcaster) Broadcast(ctx context.Context, s *Session, level Level, key string, args ...any) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(maxBroadcastFanout)
	for _, p := range s.Participants() {
		g.Go(func() error {
			msg := Message{Level: level, Text: b.texts.Text(p.Locale, key, args...)}
			err := b.retry.Do(ctx, func() error {
				_, err := p.Channel.Send(ctx, msg)
				return err
			})
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("broadcast %s to %s: %w", key, p.UserID, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
