package honeypot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"janitor/internal/broadcast"
	"janitor/internal/discord"
	"janitor/internal/format"
	"janitor/internal/locks"
	"janitor/internal/oplog"
	"janitor/internal/storage"
)

const (
	// window is how long a message stays relevant for duplicate detection.
	window = 60 * time.Second
	// minChannels is the number of distinct channels an identical message
	// must hit before it counts as a spam wave.
	minChannels = 3

	colorOrange = 0xFFA500
)

// Message is one observed guild message, reduced to the fields the
// duplicate scan needs.
type Message struct {
	GuildID    string
	UserID     string
	ChannelID  string
	Content    string
	Timestamp  time.Time
	InHoneypot bool
}

// Detector watches the message stream for users who either post into a
// honeypot channel or blast the same content across several channels
// within a short window.
type Detector struct {
	session     discord.Session
	store       *storage.Store
	oplog       *oplog.Logger
	locks       *locks.Registry
	broadcaster *broadcast.Broadcaster
	channels    *ChannelSet
	botID       string

	clock func() time.Time

	mu    sync.Mutex
	queue []Message
}

func NewDetector(session discord.Session, store *storage.Store, logger *oplog.Logger, registry *locks.Registry, broadcaster *broadcast.Broadcaster, channels *ChannelSet, botID string) *Detector {
	return &Detector{
		session:     session,
		store:       store,
		oplog:       logger,
		locks:       registry,
		broadcaster: broadcaster,
		channels:    channels,
		botID:       botID,
		clock:       time.Now,
	}
}

// HandleMessage processes one incoming guild message. It never returns an
// error: every failure is logged and the stream moves on.
func (d *Detector) HandleMessage(ctx context.Context, msg *discordgo.Message) {
	if msg.GuildID == "" || msg.Author == nil || msg.Author.ID == d.botID {
		return
	}

	inHoneypot := d.channels.Contains(msg.ChannelID)
	if inHoneypot {
		d.deleteFromHoneypot(ctx, msg)
	}

	d.mu.Lock()
	// the clock is read under the lock so queue timestamps stay in append
	// order, which evictOld relies on
	now := d.clock()
	observed := Message{
		GuildID:    msg.GuildID,
		UserID:     msg.Author.ID,
		ChannelID:  msg.ChannelID,
		Content:    msg.Content,
		Timestamp:  now,
		InHoneypot: inHoneypot,
	}
	evicted := evictOld(&d.queue, now)
	report := shouldReport(d.queue, observed)
	d.queue = append(d.queue, observed)
	d.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if report {
			d.reportBadActor(ctx, msg.Author, msg.GuildID)
		}
	}()
	go func() {
		defer wg.Done()
		d.timeoutTrolls(ctx, evicted)
	}()
	wg.Wait()
}

// evictOld drops every message older than the window and returns the
// evicted ones that were posted into a honeypot channel. Those drive the
// delayed timeouts.
func evictOld(queue *[]Message, now time.Time) []Message {
	firstFresh := len(*queue)
	for i, msg := range *queue {
		if now.Sub(msg.Timestamp) < window {
			firstFresh = i
			break
		}
	}

	var honeypotMsgs []Message
	for _, msg := range (*queue)[:firstFresh] {
		if msg.InHoneypot {
			honeypotMsgs = append(honeypotMsgs, msg)
		}
	}
	*queue = (*queue)[firstFresh:]
	return honeypotMsgs
}

// shouldReport checks whether the new message completes a spam wave: the
// same user posting identical content into at least minChannels distinct
// channels, with at least one of them being a honeypot.
func shouldReport(queue []Message, newMsg Message) bool {
	anyInHoneypot := newMsg.InHoneypot
	seen := []string{newMsg.ChannelID}

	for _, queued := range queue {
		if queued.UserID != newMsg.UserID || queued.Content != newMsg.Content {
			continue
		}
		known := false
		for _, id := range seen {
			if id == queued.ChannelID {
				known = true
				break
			}
		}
		if !known {
			anyInHoneypot = anyInHoneypot || queued.InHoneypot
			seen = append(seen, queued.ChannelID)
		}
	}

	return len(seen) >= minChannels && anyInHoneypot
}

func (d *Detector) reportBadActor(ctx context.Context, target *discordgo.User, originGuildID string) {
	guard, err := d.locks.Lock(ctx, target.ID)
	if err != nil {
		return
	}
	defer guard.Unlock()

	active, err := d.store.HasActiveCase(ctx, target.ID)
	if err != nil {
		d.oplog.Error(err, fmt.Sprintf("failed to check for an active case for user %s", format.DisplayUser(target)))
		return
	}
	if active {
		d.oplog.Warn(fmt.Sprintf(
			"User %s reached into a honeypot but already has an active case. Skipping report.",
			format.DisplayUser(target)))
		return
	}

	actor, err := d.store.CreateBadActor(ctx, storage.CreateBadActorOptions{
		UserID:          target.ID,
		ActorType:       storage.ActorTypeHoneypot,
		Explanation:     "reached into the honeypot",
		OriginGuildID:   originGuildID,
		UpdatedByUserID: d.botID,
	})
	if err != nil {
		d.oplog.Error(err, fmt.Sprintf(
			"Failed to add bad actor %s into the database after honeypot triggered.",
			format.DisplayUser(target)))
		return
	}

	botUser, err := d.session.User(d.botID)
	if err != nil {
		d.oplog.Error(err, fmt.Sprintf("Failed to get bot user from ID %s", d.botID))
		return
	}

	originGuild, err := d.session.Guild(originGuildID)
	if err != nil {
		d.oplog.Error(err, fmt.Sprintf("Failed to get guild from ID %s", originGuildID))
		originGuild = nil
	}

	d.broadcaster.Broadcast(ctx, broadcast.Options{
		Kind:          broadcast.KindHoneypot,
		BadActor:      actor,
		TargetUser:    target,
		ReportingUser: botUser,
		OriginGuild:   originGuild,
	})
}

// timeoutTrolls punishes users whose honeypot messages aged out of the
// queue. Doing it on eviction keeps the hot path free of REST calls.
func (d *Detector) timeoutTrolls(ctx context.Context, messages []Message) {
	for _, msg := range messages {
		cfg, err := d.store.ServerConfig(ctx, msg.GuildID)
		if err != nil {
			d.oplog.Warn(fmt.Sprintf("cannot find server config for guild %s for honeypot timeout", msg.GuildID))
			continue
		}
		if cfg.HoneypotTimeout == 0 || cfg.LogChannelID == "" {
			continue
		}

		logChannel, err := d.session.Channel(cfg.LogChannelID)
		if err != nil || !discord.IsTextChannel(logChannel) {
			continue
		}

		member, err := d.session.GuildMember(msg.GuildID, msg.UserID)
		if err != nil {
			d.oplog.Warn(fmt.Sprintf("cannot get member from user id %s in guild %s", msg.UserID, msg.GuildID))
			continue
		}

		until := d.clock().Add(cfg.HoneypotTimeout)
		if err := d.session.GuildMemberTimeout(msg.GuildID, msg.UserID, &until); err != nil {
			d.oplog.Error(err, fmt.Sprintf(
				"Failed to timeout user %s in guild %s after they posted a message into the honeypot channel",
				format.DisplayUser(member.User), d.displayGuild(msg.GuildID)))
			continue
		}

		notice := fmt.Sprintf(
			"User %s was timed out for `%d` minutes due to posting in the honeypot channel.\nTimeout end: %s",
			format.FDisplayUser(member.User),
			int(cfg.HoneypotTimeout.Minutes()),
			format.Timestamp(until))
		if _, err := d.session.ChannelMessageSend(logChannel.ID, notice); err != nil {
			d.oplog.Error(err, fmt.Sprintf(
				"Failed to inform %s in channel %s (`%s`) that a user was timed out for posting into their channel",
				d.displayGuild(msg.GuildID), logChannel.Name, logChannel.ID))
		}
	}
}

func (d *Detector) deleteFromHoneypot(ctx context.Context, msg *discordgo.Message) {
	if err := d.session.ChannelMessageDelete(msg.ChannelID, msg.ID); err != nil {
		d.oplog.Error(err, fmt.Sprintf(
			"Failed to delete message %s in guild %s", msg.ID, d.displayGuild(msg.GuildID)))
		return
	}

	logChannel := d.logChannel(ctx, msg.GuildID)
	if logChannel == nil {
		return
	}

	embed := deletedMessageEmbed(msg)
	if _, err := d.session.ChannelMessageSendComplex(logChannel.ID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	}); err != nil {
		d.oplog.Error(err, fmt.Sprintf(
			"Failed to inform %s in channel %s (`%s`) that a message was deleted from their honeypot",
			d.displayGuild(msg.GuildID), logChannel.Name, logChannel.ID))
	}
}

func (d *Detector) logChannel(ctx context.Context, guildID string) *discordgo.Channel {
	cfg, err := d.store.ServerConfig(ctx, guildID)
	if err != nil || cfg.LogChannelID == "" {
		return nil
	}
	channel, err := d.session.Channel(cfg.LogChannelID)
	if err != nil || !discord.IsTextChannel(channel) {
		return nil
	}
	return channel
}

func (d *Detector) displayGuild(guildID string) string {
	guild, err := d.session.Guild(guildID)
	if err != nil {
		return guildID
	}
	return format.DisplayGuild(guild)
}

func deletedMessageEmbed(msg *discordgo.Message) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: "Honeypot message deleted",
		Color: colorOrange,
		Author: &discordgo.MessageEmbedAuthor{
			Name:    format.Username(msg.Author),
			IconURL: msg.Author.AvatarURL(""),
		},
		Description: fmt.Sprintf(
			"Janitor deleted a message from user %s from the honeypot channel.\n\n```%s```",
			format.FDisplayUser(msg.Author),
			format.EscapeMarkdown(msg.Content)),
		Footer:    &discordgo.MessageEmbedFooter{Text: "Honeypot Log"},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}
