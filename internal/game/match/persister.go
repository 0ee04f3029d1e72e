package match

import (
	"context"
	"sync"
)

// persister writes snapshots of one session in version order and stops
// writing once the session has been removed.
type persister struct {
	mu      sync.Mutex
	store   Store
	retry   RetryPolicy
	latest  uint64
	removed bool
}

// upsert writes info unless a newer version was already written or the
// session was removed.
func (p *persister) upsert(ctx context.Context, info Info) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.removed || info.Version <= p.latest {
		return nil
	}
	if err := p.retry.Do(ctx, func() error { return p.store.Upsert(ctx, info) }); err != nil {
		return err
	}
	p.latest = info.Version
	return nil
}

// remove deletes the session from the store once.
//
// Postcondition: later upsert and remove calls are no-ops.
func (p *persister) remove(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.removed {
		return nil
	}
	p.removed = true
	return p.retry.Do(ctx, func() error { return p.store.Remove(ctx, id) })
}
