// Package broadcast fans a bad actor lifecycle event out to the admin server,
// the target user, every subscribed guild and every registered webhook.
package broadcast

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"janitor/internal/discord"
	"janitor/internal/files"
	"janitor/internal/format"
	"janitor/internal/oplog"
	"janitor/internal/storage"
)

type Kind int

const (
	KindReport Kind = iota
	KindDeactivate
	KindAddScreenshot
	KindReplaceScreenshot
	KindUpdateExplanation
	KindHoneypot
)

// descriptor keeps each broadcast kind's behavior in one place instead of
// scattering it across match arms.
type descriptor struct {
	message   string
	color     int
	newReport bool
}

var descriptors = map[Kind]descriptor{
	KindReport:            {message: "A bad actor has been reported.", color: 0xFF0000, newReport: true},
	KindDeactivate:        {message: "A bad actor has been deactivated.", color: 0x00FF00},
	KindAddScreenshot:     {message: "A screenshot proof has been added to a bad actor entry.", color: 0xFFFF00},
	KindReplaceScreenshot: {message: "A screenshot has been replaced for a bad actor.", color: 0xFFA500},
	KindUpdateExplanation: {message: "The explanation for a bad actor has been updated.", color: 0xFFA500},
	KindHoneypot:          {message: "A bad actor was caught by the honeypot.", color: 0xFF1493, newReport: true},
}

func (k Kind) Message() string { return descriptors[k].message }
func (k Kind) Color() int      { return descriptors[k].color }

// IsNewReport reports whether the kind opens a new case; only those drive
// automatic moderation and target DMs.
func (k Kind) IsNewReport() bool { return descriptors[k].newReport }

type Broadcaster struct {
	session         discord.Session
	store           *storage.Store
	files           *files.Manager
	oplog           *oplog.Logger
	adminLogChannel string
	botID           string
}

func New(session discord.Session, store *storage.Store, fileManager *files.Manager, logger *oplog.Logger, adminLogChannel, botID string) *Broadcaster {
	return &Broadcaster{
		session:         session,
		store:           store,
		files:           fileManager,
		oplog:           logger,
		adminLogChannel: adminLogChannel,
		botID:           botID,
	}
}

type Options struct {
	Kind          Kind
	BadActor      storage.BadActor
	TargetUser    *discordgo.User
	ReportingUser *discordgo.User
	// OriginGuild may be nil when the guild could not be resolved; the
	// embed then falls back to the raw guild id.
	OriginGuild *discordgo.Guild
}

// Broadcast runs the full pipeline. Only a failure to resolve the listener
// set aborts it; every later failure is logged and skipped.
func (b *Broadcaster) Broadcast(ctx context.Context, opts Options) {
	listeners, err := b.ValidListeners(ctx)
	if err != nil {
		b.oplog.Error(err, "failed to get valid listeners from the database")
		return
	}

	embed, attach := b.buildEmbed(opts)

	adminMsg := buildMessage(opts.Kind.Message(), embed, attach, nil)
	if _, err := b.session.ChannelMessageSendComplex(b.adminLogChannel, adminMsg); err != nil {
		b.oplog.Error(err, "failed to broadcast to admin server log channel")
	}

	if opts.Kind.IsNewReport() {
		if err := b.notifyTarget(opts.TargetUser); err != nil {
			b.oplog.Warn(fmt.Sprintf("failed to inform %s about the moderation actions in DM",
				format.DisplayUser(opts.TargetUser)), zap.Error(err))
		}
	}

	var wg sync.WaitGroup
	for _, listener := range listeners {
		listener := listener
		wg.Add(3)
		go func() {
			defer wg.Done()
			b.sendToListener(listener, opts, embed, attach)
		}()
		go func() {
			defer wg.Done()
			b.moderate(listener, opts)
		}()
		go func() {
			defer wg.Done()
			b.broadcastToWebhooks(ctx, opts.Kind, embed, attach)
		}()
	}
	wg.Wait()
}

type attachment struct {
	name string
	data []byte
}

func (a *attachment) file() *discordgo.File {
	return &discordgo.File{Name: a.name, Reader: bytes.NewReader(a.data)}
}

func (b *Broadcaster) buildEmbed(opts Options) (*discordgo.MessageEmbed, *attachment) {
	actor := opts.BadActor

	explanation := actor.Explanation
	if explanation == "" {
		explanation = "No explanation provided."
	}

	originDisplay := actor.OriginGuildID
	if opts.OriginGuild != nil {
		originDisplay = format.FDisplayGuild(opts.OriginGuild)
	}

	active := "no"
	if actor.IsActive {
		active = "yes"
	}

	embed := &discordgo.MessageEmbed{
		Title:     fmt.Sprintf("%s (`%s`)", format.Username(opts.TargetUser), actor.UserID),
		Color:     opts.Kind.Color(),
		Timestamp: time.Now().Format(time.RFC3339),
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: opts.TargetUser.AvatarURL("")},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Report ID", Value: fmt.Sprintf("%d", actor.ID), Inline: true},
			{Name: "Active", Value: active, Inline: true},
			{Name: "Type", Value: string(actor.ActorType), Inline: true},
			{Name: "Explanation", Value: explanation},
			{Name: "Server of Origin", Value: originDisplay},
			{Name: "Last Updated By", Value: fmt.Sprintf("%s (`%s`)", format.UserMention(opts.ReportingUser.ID), opts.ReportingUser.ID)},
		},
	}

	if botUser, err := b.session.User(b.botID); err == nil {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text:    format.Username(botUser),
			IconURL: botUser.AvatarURL(""),
		}
	} else {
		b.oplog.Error(err, "failed to get bot user")
	}

	if actor.ScreenshotProof == "" {
		return embed, nil
	}

	data, err := b.files.Get(actor.ScreenshotProof)
	if err != nil {
		b.oplog.Error(err, fmt.Sprintf("failed to load screenshot %s for report %d", actor.ScreenshotProof, actor.ID))
		return embed, nil
	}

	embed.Image = &discordgo.MessageEmbedImage{URL: "attachment://" + actor.ScreenshotProof}
	return embed, &attachment{name: actor.ScreenshotProof, data: data}
}

func buildMessage(content string, embed *discordgo.MessageEmbed, attach *attachment, components []discordgo.MessageComponent) *discordgo.MessageSend {
	msg := &discordgo.MessageSend{
		Content:    content,
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	}
	if attach != nil {
		msg.Files = []*discordgo.File{attach.file()}
	}
	return msg
}

const targetNotice = "It appears your account has been compromised and used as a spam bot.\n\n" +
	"As part of a collaborative effort to more efficiently moderate partner servers, the actions as listed in the embed have been taken against your account.\n" +
	"Since not all guilds have automatic moderation, it's possible that you have been banned from more servers than listed.\n\n" +
	"If you have now recovered your account, please contact the admin server staff.\n" +
	"Follow the instructions there to clear your name and remove the bans on your account."

func (b *Broadcaster) notifyTarget(target *discordgo.User) error {
	channel, err := b.session.UserChannelCreate(target.ID)
	if err != nil {
		return err
	}
	_, err = b.session.ChannelMessageSend(channel.ID, targetNotice)
	return err
}
