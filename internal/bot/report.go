package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"janitor/internal/broadcast"
	"janitor/internal/format"
	"janitor/internal/locks"
	"janitor/internal/storage"
)

// reportConfirmWindow is how long a reporter has to press Confirm or
// Cancel before the pending report expires and the per-user lock is
// released.
const reportConfirmWindow = 120 * time.Second

type pendingReport struct {
	target      *discordgo.User
	actorType   storage.ActorType
	screenshot  *discordgo.MessageAttachment
	explanation string
	guildID     string
	guard       *locks.Guard
	timer       *time.Timer
}

func (b *Bot) handleReport(ctx context.Context, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if !b.assertWhitelisted(ctx, i) {
		return
	}

	opts := optionMap(options)
	target := opts["user"].UserValue(b.session)
	if target == nil {
		b.respond(i, "Failed to resolve the user you want to report!")
		return
	}

	actorType, err := storage.ParseActorType(opts["type"].StringValue())
	if err != nil {
		b.respond(i, "Unknown report type!")
		return
	}

	screenshot := b.attachmentOption(i, opts["screenshot"])
	var explanation string
	if opt, ok := opts["explanation"]; ok {
		explanation = opt.StringValue()
	}
	if screenshot == nil && explanation == "" {
		b.respond(i, "You have to provide either a screenshot or an explanation.")
		return
	}

	// never wait for the lock here: the interaction token would outlive a
	// blocked acquisition, so a contending reporter gets an immediate answer
	guard, ok := b.locks.TryLock(target.ID)
	if !ok {
		b.respond(i, "Another report for this user is being processed. Please try again.")
		return
	}

	active, err := b.store.HasActiveCase(ctx, target.ID)
	if err != nil {
		guard.Unlock()
		b.oplog.Error(err, fmt.Sprintf("failed to check for an active case for user %s", format.DisplayUser(target)))
		b.respond(i, "Failed to check the database for an active case!")
		return
	}
	if active {
		guard.Unlock()
		b.respond(i, fmt.Sprintf("User %s already has an active case!", format.FDisplayUser(target)))
		return
	}

	pending := &pendingReport{
		target:      target,
		actorType:   actorType,
		screenshot:  screenshot,
		explanation: explanation,
		guildID:     i.GuildID,
		guard:       guard,
	}

	reporterID := i.Member.User.ID
	b.pendingMu.Lock()
	if old, ok := b.pending[reporterID]; ok {
		old.timer.Stop()
		old.guard.Unlock()
	}
	pending.timer = time.AfterFunc(reportConfirmWindow, func() {
		b.expirePendingReport(reporterID, pending)
	})
	b.pending[reporterID] = pending
	b.pendingMu.Unlock()

	if err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Is this the user that you want to report?",
			Embeds:  []*discordgo.MessageEmbed{checkUserEmbed(target)},
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.Button{Label: "Confirm", Style: discordgo.SuccessButton, CustomID: "confirm"},
					discordgo.Button{Label: "Cancel", Style: discordgo.DangerButton, CustomID: "cancel"},
				}},
			},
		},
	}); err != nil {
		b.oplog.Error(err, "failed to send report confirmation prompt")
		b.removePendingReport(reporterID, pending)
	}
}

// expirePendingReport removes a timed-out prompt. Only the party that
// actually removes the map entry may release the guard: if the decision
// handler claimed the entry first, it still owns the lock.
func (b *Bot) expirePendingReport(reporterID string, pending *pendingReport) {
	b.pendingMu.Lock()
	claimed := b.pending[reporterID] == pending
	if claimed {
		delete(b.pending, reporterID)
	}
	b.pendingMu.Unlock()
	if claimed {
		pending.guard.Unlock()
	}
}

func (b *Bot) removePendingReport(reporterID string, pending *pendingReport) {
	b.pendingMu.Lock()
	claimed := b.pending[reporterID] == pending
	if claimed {
		delete(b.pending, reporterID)
	}
	b.pendingMu.Unlock()
	pending.timer.Stop()
	if claimed {
		pending.guard.Unlock()
	}
}

// handleReportDecision resolves a Confirm or Cancel press on the report
// prompt. Presses from users without a pending report are ignored.
func (b *Bot) handleReportDecision(ctx context.Context, i *discordgo.InteractionCreate, customID string) {
	if i.Member == nil {
		return
	}

	b.pendingMu.Lock()
	pending, ok := b.pending[i.Member.User.ID]
	if ok {
		delete(b.pending, i.Member.User.ID)
	}
	b.pendingMu.Unlock()
	if !ok {
		return
	}
	pending.timer.Stop()
	defer pending.guard.Unlock()

	if customID == "cancel" {
		b.updatePrompt(i, fmt.Sprintf("Cancelled reporting user %s!", format.FDisplayUser(pending.target)))
		return
	}

	b.updatePrompt(i, fmt.Sprintf("Reporting user %s to the community and taking action...", format.FDisplayUser(pending.target)))

	var screenshotName string
	if pending.screenshot != nil {
		name, err := b.saveScreenshot(pending.screenshot, pending.target.ID)
		if err != nil {
			b.oplog.Error(err, fmt.Sprintf("Failed to save screenshot for %s", format.DisplayUser(pending.target)))
			b.editPrompt(i, fmt.Sprintf("Failed to save screenshot for %s!", format.FDisplayUser(pending.target)))
			return
		}
		screenshotName = name
	}

	actor, err := b.store.CreateBadActor(ctx, storage.CreateBadActorOptions{
		UserID:          pending.target.ID,
		ActorType:       pending.actorType,
		ScreenshotProof: screenshotName,
		Explanation:     pending.explanation,
		OriginGuildID:   pending.guildID,
		UpdatedByUserID: i.Member.User.ID,
	})
	if err != nil {
		b.oplog.Error(err, fmt.Sprintf("Failed to add bad actor %s to the database", format.DisplayUser(pending.target)))
		b.editPrompt(i, fmt.Sprintf("Failed to add bad actor %s to the database!", format.FDisplayUser(pending.target)))
		return
	}

	if err := b.store.IncrementScores(ctx, i.Member.User.ID, pending.guildID); err != nil {
		b.oplog.Error(err, fmt.Sprintf("Failed to update scores for user %s or guild %s",
			format.DisplayUser(i.Member.User), pending.guildID))
	}

	b.broadcaster.Broadcast(ctx, broadcast.Options{
		Kind:          broadcast.KindReport,
		BadActor:      actor,
		TargetUser:    pending.target,
		ReportingUser: i.Member.User,
		OriginGuild:   b.interactionGuild(i),
	})

	b.editPrompt(i, fmt.Sprintf("Successfully reported %s to the community!", format.FDisplayUser(pending.target)))
}

// updatePrompt answers the component interaction by replacing the prompt
// message and stripping its buttons.
func (b *Bot) updatePrompt(i *discordgo.InteractionCreate, content string) {
	err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Embeds:     []*discordgo.MessageEmbed{},
			Components: []discordgo.MessageComponent{},
		},
	})
	if err != nil {
		b.oplog.Error(err, "failed to update report prompt")
	}
}

// editPrompt edits the prompt message after the interaction was already
// answered by updatePrompt.
func (b *Bot) editPrompt(i *discordgo.InteractionCreate, content string) {
	if i.Message == nil {
		return
	}
	if _, err := b.session.ChannelMessageEdit(i.Message.ChannelID, i.Message.ID, content); err != nil {
		b.oplog.Error(err, "failed to edit report prompt")
	}
}

func checkUserEmbed(target *discordgo.User) *discordgo.MessageEmbed {
	createdAt, _ := discordgo.SnowflakeTimestamp(target.ID)
	return &discordgo.MessageEmbed{
		Title:     fmt.Sprintf("Info User %s", format.Username(target)),
		Thumbnail: &discordgo.MessageEmbedThumbnail{URL: target.AvatarURL("")},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "ID", Value: target.ID},
			{Name: "Created At", Value: format.Timestamp(createdAt)},
		},
	}
}
