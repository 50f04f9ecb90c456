package honeypot

import (
	"context"
	"sync"

	"janitor/internal/storage"
)

// ChannelSet is the in-memory view of every guild's configured honeypot
// channel. It is read on every message event, so lookups stay lock-cheap.
type ChannelSet struct {
	mu       sync.RWMutex
	channels map[string]struct{}
}

func NewChannelSet() *ChannelSet {
	return &ChannelSet{channels: make(map[string]struct{})}
}

// Reload replaces the set with the channel ids currently stored in the
// database. Called on startup and after any config change.
func (c *ChannelSet) Reload(ctx context.Context, store *storage.Store) error {
	ids, err := store.HoneypotChannelIDs(ctx)
	if err != nil {
		return err
	}

	next := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		next[id] = struct{}{}
	}

	c.mu.Lock()
	c.channels = next
	c.mu.Unlock()
	return nil
}

func (c *ChannelSet) Contains(channelID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.channels[channelID]
	return ok
}

func (c *ChannelSet) Set(channelID string) {
	c.mu.Lock()
	c.channels[channelID] = struct{}{}
	c.mu.Unlock()
}

func (c *ChannelSet) Remove(channelID string) {
	c.mu.Lock()
	delete(c.channels, channelID)
	c.mu.Unlock()
}
