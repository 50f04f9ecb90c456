package broadcast

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"

	"janitor/internal/discord"
	"janitor/internal/storage"
)

// Listener is a guild with a resolvable log channel, hydrated with its guild
// object and whitelisted user ids. Built per broadcast, never persisted.
type Listener struct {
	Config     storage.ServerConfig
	Guild      *discordgo.Guild
	Users      []string
	LogChannel *discordgo.Channel
}

// ValidListeners resolves every server config into a broadcast target.
// Guilds that fail any validation step are skipped with a warning; only the
// initial config load can fail the whole call.
func (b *Broadcaster) ValidListeners(ctx context.Context) ([]Listener, error) {
	configs, err := b.store.ServerConfigs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load server configs: %w", err)
	}

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		listeners []Listener
	)
	for _, cfg := range configs {
		cfg := cfg
		wg.Add(1)
		go func() {
			defer wg.Done()
			listener, err := b.resolveListener(ctx, cfg)
			if err != nil {
				b.oplog.Warn(fmt.Sprintf("skipping guild %s for broadcasting: %v", cfg.GuildID, err))
				return
			}
			mu.Lock()
			listeners = append(listeners, listener)
			mu.Unlock()
		}()
	}
	wg.Wait()

	return listeners, nil
}

func (b *Broadcaster) resolveListener(ctx context.Context, cfg storage.ServerConfig) (Listener, error) {
	if cfg.LogChannelID == "" {
		return Listener{}, errors.New("no log channel configured")
	}

	channel, err := b.session.Channel(cfg.LogChannelID)
	if err != nil {
		return Listener{}, fmt.Errorf("resolve log channel %s: %w", cfg.LogChannelID, err)
	}
	if channel.GuildID == "" {
		return Listener{}, errors.New("log channel is not a guild channel")
	}
	if !discord.IsTextChannel(channel) {
		return Listener{}, errors.New("log channel is not a text channel")
	}

	guild, err := b.session.Guild(cfg.GuildID)
	if err != nil {
		return Listener{}, fmt.Errorf("resolve guild: %w", err)
	}

	users, err := b.store.UserIDsByGuild(ctx, cfg.GuildID)
	if err != nil {
		return Listener{}, fmt.Errorf("load whitelisted users: %w", err)
	}

	return Listener{Config: cfg, Guild: guild, Users: users, LogChannel: channel}, nil
}
