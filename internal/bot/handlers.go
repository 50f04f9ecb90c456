package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"janitor/internal/broadcast"
	"janitor/internal/discord"
	"janitor/internal/format"
	"janitor/internal/storage"
)

const maxBanReasonLength = 500

func (b *Bot) respond(i *discordgo.InteractionCreate, content string) {
	err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
	if err != nil {
		b.oplog.Error(err, "failed to respond to interaction")
	}
}

func (b *Bot) deferResponse(i *discordgo.InteractionCreate) {
	err := b.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		b.oplog.Error(err, "failed to defer interaction response")
	}
}

func (b *Bot) editResponse(i *discordgo.InteractionCreate, content string) {
	if _, err := b.session.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	}); err != nil {
		b.oplog.Error(err, "failed to edit interaction response")
	}
}

func (b *Bot) editResponseEmbed(i *discordgo.InteractionCreate, content string, embeds []*discordgo.MessageEmbed) {
	if _, err := b.session.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
		Embeds:  &embeds,
	}); err != nil {
		b.oplog.Error(err, "failed to edit interaction response")
	}
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

func (b *Bot) attachmentOption(i *discordgo.InteractionCreate, opt *discordgo.ApplicationCommandInteractionDataOption) *discordgo.MessageAttachment {
	if opt == nil {
		return nil
	}
	id, ok := opt.Value.(string)
	if !ok {
		return nil
	}
	data := i.ApplicationCommandData()
	if data.Resolved == nil {
		return nil
	}
	return data.Resolved.Attachments[id]
}

// assertWhitelisted checks that the calling user is whitelisted for the
// guild the command was used in. Responds to the interaction on failure.
func (b *Bot) assertWhitelisted(ctx context.Context, i *discordgo.InteractionCreate) bool {
	if i.GuildID == "" || i.Member == nil {
		b.respond(i, "This command can only be used in a server!")
		return false
	}

	user, err := b.store.UserByID(ctx, i.Member.User.ID)
	if err != nil {
		b.respond(i, "You are not allowed to use this command!")
		return false
	}
	for _, id := range user.GuildIDs {
		if id == i.GuildID {
			return true
		}
	}
	b.respond(i, "You are not allowed to use this command in this server!")
	return false
}

func (b *Bot) downloadAttachment(att *discordgo.MessageAttachment) ([]byte, error) {
	resp, err := b.httpClient.Get(att.URL)
	if err != nil {
		return nil, fmt.Errorf("download attachment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("download attachment: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 8_000_000))
}

func (b *Bot) saveScreenshot(att *discordgo.MessageAttachment, targetUserID string) (string, error) {
	data, err := b.downloadAttachment(att)
	if err != nil {
		return "", err
	}
	return b.files.Save(att.Filename, targetUserID, data, time.Now())
}

func (b *Bot) interactionGuild(i *discordgo.InteractionCreate) *discordgo.Guild {
	guild, err := b.session.Guild(i.GuildID)
	if err != nil {
		return nil
	}
	return guild
}

func (b *Bot) handleBadActor(ctx context.Context, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(options) == 0 {
		return
	}
	if !b.assertWhitelisted(ctx, i) {
		return
	}

	sub := options[0]
	opts := optionMap(sub.Options)

	switch sub.Name {
	case "deactivate":
		b.handleDeactivate(ctx, i, opts)
	case "add_screenshot":
		b.handleAddScreenshot(ctx, i, opts)
	case "replace_screenshot":
		b.handleReplaceScreenshot(ctx, i, opts)
	case "update_explanation":
		b.handleUpdateExplanation(ctx, i, opts)
	case "display":
		b.handleDisplay(ctx, i, opts)
	case "display_by_user":
		b.handleDisplayByUser(ctx, i, opts)
	case "purge":
		b.handlePurge(ctx, i, opts)
	}
}

func (b *Bot) handleDeactivate(ctx context.Context, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	reportID := opts["id"].IntValue()
	explanation := opts["explanation"].StringValue()

	b.deferResponse(i)

	existing, err := b.store.BadActorByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			b.editResponse(i, "There is no such entry in the database!")
			return
		}
		b.oplog.Error(err, fmt.Sprintf("failed to get bad actor %d from the database", reportID))
		b.editResponse(i, "Failed to get the report from the database!")
		return
	}
	if !existing.IsActive {
		b.editResponse(i, "This entry is not active!")
		return
	}

	deactivated, err := b.store.DeactivateBadActor(ctx, reportID, explanation, i.Member.User.ID)
	if err != nil {
		b.oplog.Error(err, fmt.Sprintf("failed to deactivate bad actor %d", reportID))
		b.editResponse(i, "Failed to deactivate the report!")
		return
	}

	target, err := b.session.User(deactivated.UserID)
	if err != nil {
		b.oplog.Warn(fmt.Sprintf("User with ID %s does not exist anymore, skipping broadcast", deactivated.UserID))
		b.editResponse(i, "This user's account no longer exists, deactivating it does not have any impact.")
		return
	}

	b.broadcaster.Broadcast(ctx, broadcast.Options{
		Kind:          broadcast.KindDeactivate,
		BadActor:      deactivated,
		TargetUser:    target,
		ReportingUser: i.Member.User,
		OriginGuild:   b.interactionGuild(i),
	})

	b.editResponse(i, fmt.Sprintf("Successfully disabled report entry %d.", reportID))
}

func (b *Bot) handleAddScreenshot(ctx context.Context, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	reportID := opts["id"].IntValue()
	att := b.attachmentOption(i, opts["screenshot"])

	b.deferResponse(i)

	existing, err := b.store.BadActorByID(ctx, reportID)
	if err != nil {
		b.editResponse(i, "There is no entry with this report ID!")
		return
	}
	if existing.ScreenshotProof != "" {
		b.editResponse(i, "This report ID already has a screenshot proof. Please use `/badactor replace_screenshot` if you want to overwrite it.")
		return
	}
	if att == nil {
		b.editResponse(i, "You have to provide a screenshot!")
		return
	}

	name, err := b.saveScreenshot(att, existing.UserID)
	if err != nil {
		b.oplog.Error(err, "Failed to save screenshot")
		b.editResponse(i, "Failed to save screenshot!")
		return
	}

	b.updateScreenshot(ctx, i, reportID, name, broadcast.KindAddScreenshot)
}

func (b *Bot) handleReplaceScreenshot(ctx context.Context, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	reportID := opts["id"].IntValue()
	att := b.attachmentOption(i, opts["screenshot"])

	b.deferResponse(i)

	existing, err := b.store.BadActorByID(ctx, reportID)
	if err != nil {
		b.editResponse(i, "There is no entry with this report ID!")
		return
	}
	if existing.ScreenshotProof == "" {
		b.editResponse(i, "This report ID does not have a screenshot proof yet. Please use `/badactor add_screenshot` if you want to provide one for it.")
		return
	}
	if att == nil {
		b.editResponse(i, "You have to provide a screenshot!")
		return
	}

	name, err := b.saveScreenshot(att, existing.UserID)
	if err != nil {
		b.oplog.Error(err, "Failed to save screenshot")
		b.editResponse(i, "Failed to save screenshot!")
		return
	}

	if err := b.files.Delete(existing.ScreenshotProof); err != nil {
		b.oplog.Warn(fmt.Sprintf("failed to delete old screenshot %s: %v", existing.ScreenshotProof, err))
	}

	b.updateScreenshot(ctx, i, reportID, name, broadcast.KindReplaceScreenshot)
}

func (b *Bot) updateScreenshot(ctx context.Context, i *discordgo.InteractionCreate, reportID int64, name string, kind broadcast.Kind) {
	updated, err := b.store.UpdateBadActorScreenshot(ctx, reportID, name, i.Member.User.ID)
	if err != nil {
		b.oplog.Error(err, fmt.Sprintf("failed to update screenshot for bad actor %d", reportID))
		b.editResponse(i, "Failed to update the report!")
		return
	}

	target, err := b.session.User(updated.UserID)
	if err != nil {
		b.oplog.Warn(fmt.Sprintf("User with ID %s does not exist anymore, skipping broadcast", updated.UserID))
		b.editResponse(i, "This user's account no longer exists. The screenshot was updated in the database but broadcasting will be skipped.")
		return
	}

	b.broadcaster.Broadcast(ctx, broadcast.Options{
		Kind:          kind,
		BadActor:      updated,
		TargetUser:    target,
		ReportingUser: i.Member.User,
		OriginGuild:   b.interactionGuild(i),
	})

	b.editResponse(i, fmt.Sprintf("Successfully updated screenshot for report entry %d.", reportID))
}

func (b *Bot) handleUpdateExplanation(ctx context.Context, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	reportID := opts["id"].IntValue()
	explanation := opts["explanation"].StringValue()

	b.deferResponse(i)

	updated, err := b.store.UpdateBadActorExplanation(ctx, reportID, explanation, i.Member.User.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			b.editResponse(i, "There is no entry with this report ID!")
			return
		}
		b.oplog.Error(err, fmt.Sprintf("failed to update explanation for bad actor %d", reportID))
		b.editResponse(i, "Failed to update the report!")
		return
	}

	target, err := b.session.User(updated.UserID)
	if err != nil {
		b.oplog.Warn(fmt.Sprintf("User with ID %s does not exist anymore, skipping broadcast", updated.UserID))
		b.editResponse(i, "This user's account no longer exists. The explanation was updated in the database but broadcasting will be skipped.")
		return
	}

	b.broadcaster.Broadcast(ctx, broadcast.Options{
		Kind:          broadcast.KindUpdateExplanation,
		BadActor:      updated,
		TargetUser:    target,
		ReportingUser: i.Member.User,
		OriginGuild:   b.interactionGuild(i),
	})

	b.editResponse(i, fmt.Sprintf("Successfully updated explanation for report entry %d.", reportID))
}

func (b *Bot) handleDisplay(ctx context.Context, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	limit := int64(5)
	if opt, ok := opts["limit"]; ok {
		limit = opt.IntValue()
	}
	if limit > 10 {
		limit = 10
	}

	query := storage.BadActorQueryAll
	if opt, ok := opts["type"]; ok {
		query = storage.BadActorQuery(opt.StringValue())
	}

	b.deferResponse(i)

	actors, err := b.store.BadActors(ctx, query, int(limit))
	if err != nil {
		b.oplog.Error(err, "failed to get bad actors from the database")
		b.editResponse(i, "Failed to get the reports from the database!")
		return
	}
	if len(actors) == 0 {
		b.editResponse(i, "There are no bad actor entries to display!")
		return
	}

	embeds := make([]*discordgo.MessageEmbed, 0, len(actors))
	for _, actor := range actors {
		embeds = append(embeds, b.reportEmbed(actor))
	}
	b.editResponseEmbed(i, "", embeds)
}

func (b *Bot) handleDisplayByUser(ctx context.Context, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	target := opts["user"].UserValue(b.session)
	if target == nil {
		b.respond(i, "Failed to resolve the user!")
		return
	}

	b.deferResponse(i)

	actor, err := b.store.ActiveBadActorByUser(ctx, target.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			b.editResponse(i, fmt.Sprintf("User %s does not have an active case!", format.FDisplayUser(target)))
			return
		}
		b.oplog.Error(err, fmt.Sprintf("failed to get the active case for user %s", format.DisplayUser(target)))
		b.editResponse(i, "Failed to get the report from the database!")
		return
	}

	b.editResponseEmbed(i, "", []*discordgo.MessageEmbed{b.reportEmbed(actor)})
}

// handlePurge hard-deletes a report and its screenshot file. Unlike
// deactivation this leaves no trace, so it is limited to administrators.
func (b *Bot) handlePurge(ctx context.Context, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	if i.Member == nil || i.Member.Permissions&discordgo.PermissionAdministrator == 0 {
		b.respond(i, "You are not allowed to purge reports!")
		return
	}

	reportID := opts["id"].IntValue()

	b.deferResponse(i)

	deleted, err := b.store.DeleteBadActor(ctx, reportID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			b.editResponse(i, "There is no such entry in the database!")
			return
		}
		b.oplog.Error(err, fmt.Sprintf("failed to delete bad actor %d", reportID))
		b.editResponse(i, "Failed to delete the report!")
		return
	}

	if deleted.ScreenshotProof != "" {
		if err := b.files.Delete(deleted.ScreenshotProof); err != nil {
			b.oplog.Warn(fmt.Sprintf("failed to delete screenshot %s for purged report %d: %v",
				deleted.ScreenshotProof, reportID, err))
		}
	}

	b.editResponse(i, fmt.Sprintf("Successfully purged report entry %d.", reportID))
}

func (b *Bot) reportEmbed(actor storage.BadActor) *discordgo.MessageEmbed {
	active := "Yes"
	if !actor.IsActive {
		active = "No"
	}
	explanation := actor.Explanation
	if explanation == "" {
		explanation = "none"
	}

	origin := actor.OriginGuildID
	if guild, err := b.session.Guild(actor.OriginGuildID); err == nil {
		origin = format.FDisplayGuild(guild)
	}

	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Report %d", actor.ID),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "User ID", Value: format.InlineCode(actor.UserID)},
			{Name: "Active", Value: active},
			{Name: "Type", Value: string(actor.ActorType)},
			{Name: "Explanation", Value: explanation},
			{Name: "Server of Origin", Value: origin},
			{Name: "Last Updated By", Value: format.UserMention(actor.UpdatedByUserID)},
		},
		Timestamp: actor.UpdatedAt.Format(time.RFC3339),
	}
}

func (b *Bot) handleConfig(ctx context.Context, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(options) == 0 {
		return
	}
	if !b.assertWhitelisted(ctx, i) {
		return
	}

	sub := options[0]
	switch sub.Name {
	case "display":
		b.handleConfigDisplay(ctx, i)
	case "update":
		b.handleConfigUpdate(ctx, i, optionMap(sub.Options))
	}
}

func (b *Bot) handleConfigDisplay(ctx context.Context, i *discordgo.InteractionCreate) {
	b.deferResponse(i)

	cfg, err := b.store.ServerConfig(ctx, i.GuildID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			b.editResponse(i, "Your server doesn't have a config in the database!")
			return
		}
		b.oplog.Error(err, fmt.Sprintf("failed to get server config for guild %s", i.GuildID))
		b.editResponse(i, "Failed to get your server config from the database!")
		return
	}

	b.editResponseEmbed(i, "", []*discordgo.MessageEmbed{b.configEmbed(ctx, cfg)})
}

func (b *Bot) handleConfigUpdate(ctx context.Context, i *discordgo.InteractionCreate, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	var update storage.UpdateServerConfig

	if opt, ok := opts["log_channel"]; ok {
		channel := opt.ChannelValue(b.session)
		if channel == nil || !discord.IsTextChannel(channel) {
			b.respond(i, "The log channel has to be a text channel.")
			return
		}
		update.LogChannelID = &channel.ID
	}
	if opt, ok := opts["ping_users"]; ok {
		v := opt.BoolValue()
		update.PingUsers = &v
	}
	if opt, ok := opts["ping_role"]; ok {
		role := opt.RoleValue(b.session, i.GuildID)
		if role != nil {
			update.PingRole = &role.ID
		}
	}
	for name, dst := range map[string]**storage.ActionLevel{
		"spam_action_level":          &update.SpamActionLevel,
		"impersonation_action_level": &update.ImpersonationActionLevel,
		"bigotry_action_level":       &update.BigotryActionLevel,
		"honeypot_action_level":      &update.HoneypotActionLevel,
	} {
		if opt, ok := opts[name]; ok {
			level, err := storage.ParseActionLevel(opt.StringValue())
			if err != nil {
				b.respond(i, fmt.Sprintf("Unknown action level %q.", opt.StringValue()))
				return
			}
			*dst = &level
		}
	}
	if opt, ok := opts["ignored_roles"]; ok {
		roles := splitIDList(opt.StringValue())
		update.IgnoredRoles = &roles
	}
	if opt, ok := opts["ban_reason"]; ok {
		reason := opt.StringValue()
		if len(reason) > maxBanReasonLength {
			b.respond(i, fmt.Sprintf("Maximum ban reason length is %d, got %d!", maxBanReasonLength, len(reason)))
			return
		}
		if !validBanReason(reason) {
			b.respond(i, "Your custom ban reason is wrongly formatted. Please fix it and try again!")
			return
		}
		update.BanReason = &reason
	}
	if opt, ok := opts["honeypot_channel"]; ok {
		channel := opt.ChannelValue(b.session)
		if channel == nil || !discord.IsTextChannel(channel) {
			b.respond(i, "The honeypot channel has to be a text channel.")
			return
		}
		update.HoneypotChannelID = &channel.ID
	}
	if opt, ok := opts["honeypot_timeout"]; ok {
		minutes := int(opt.IntValue())
		update.HoneypotTimeoutMinutes = &minutes
	}

	b.deferResponse(i)

	previous, err := b.store.ServerConfig(ctx, i.GuildID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		b.oplog.Error(err, fmt.Sprintf("failed to get server config for guild %s", i.GuildID))
		b.editResponse(i, "Failed to update your server config!")
		return
	}

	updated, err := b.store.UpdateServerConfig(ctx, i.GuildID, update)
	if err != nil {
		b.oplog.Error(err, fmt.Sprintf("failed to update server config for guild %s", i.GuildID))
		b.editResponse(i, "Failed to update your server config!")
		return
	}

	if update.HoneypotChannelID != nil {
		if previous.HoneypotChannelID != "" && previous.HoneypotChannelID != updated.HoneypotChannelID {
			b.channels.Remove(previous.HoneypotChannelID)
		}
		b.channels.Set(updated.HoneypotChannelID)
	}

	b.editResponseEmbed(i, "Successfully updated your server config.",
		[]*discordgo.MessageEmbed{b.configEmbed(ctx, updated)})
}

func (b *Bot) configEmbed(ctx context.Context, cfg storage.ServerConfig) *discordgo.MessageEmbed {
	orNotSet := func(s string) string {
		if s == "" {
			return "not set"
		}
		return s
	}

	pingRole := "not set"
	if cfg.PingRole != "" {
		pingRole = format.RoleMention(cfg.PingRole)
	}
	logChannel := "not set"
	if cfg.LogChannelID != "" {
		logChannel = format.ChannelMention(cfg.LogChannelID)
	}
	honeypotChannel := "not set"
	if cfg.HoneypotChannelID != "" {
		honeypotChannel = format.ChannelMention(cfg.HoneypotChannelID)
	}
	ignoredRoles := "none"
	if len(cfg.IgnoredRoles) > 0 {
		mentions := make([]string, 0, len(cfg.IgnoredRoles))
		for _, id := range cfg.IgnoredRoles {
			mentions = append(mentions, format.RoleMention(id))
		}
		ignoredRoles = strings.Join(mentions, ", ")
	}

	whitelisted := "none"
	if ids, err := b.store.UserIDsByGuild(ctx, cfg.GuildID); err == nil && len(ids) > 0 {
		mentions := make([]string, 0, len(ids))
		for _, id := range ids {
			mentions = append(mentions, format.UserMention(id))
		}
		whitelisted = strings.Join(mentions, "\n")
	}

	return &discordgo.MessageEmbed{
		Title: "Server Config",
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Log Channel", Value: logChannel, Inline: true},
			{Name: "Ping Users", Value: strconv.FormatBool(cfg.PingUsers), Inline: true},
			{Name: "Ping Role", Value: pingRole, Inline: true},
			{Name: "Spam Action", Value: cfg.SpamActionLevel.String(), Inline: true},
			{Name: "Impersonation Action", Value: cfg.ImpersonationActionLevel.String(), Inline: true},
			{Name: "Bigotry Action", Value: cfg.BigotryActionLevel.String(), Inline: true},
			{Name: "Honeypot Action", Value: cfg.HoneypotActionLevel.String(), Inline: true},
			{Name: "Honeypot Channel", Value: honeypotChannel, Inline: true},
			{Name: "Honeypot Timeout", Value: fmt.Sprintf("%d minutes", int(cfg.HoneypotTimeout.Minutes())), Inline: true},
			{Name: "Ignored Roles", Value: ignoredRoles},
			{Name: "Ban Reason", Value: orNotSet(cfg.BanReason)},
			{Name: "Whitelisted Users", Value: whitelisted},
		},
		Timestamp: cfg.UpdatedAt.Format(time.RFC3339),
	}
}

func (b *Bot) handleScores(ctx context.Context, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(options) == 0 {
		return
	}
	if !b.assertWhitelisted(ctx, i) {
		return
	}

	b.deferResponse(i)

	var (
		scores []storage.Scoreboard
		err    error
		title  string
		users  bool
	)
	switch options[0].Name {
	case "users":
		scores, err = b.store.TopUsers(ctx, 10)
		title = "Top 10 Users with the most reports"
		users = true
	case "guilds":
		scores, err = b.store.TopGuilds(ctx, 10)
		title = "Top 10 Guilds with the most reports"
	default:
		return
	}
	if err != nil {
		b.oplog.Error(err, "failed to get scores from the database")
		b.editResponse(i, "Failed to get the scores from the database!")
		return
	}

	var lines []string
	for rank, score := range scores {
		if score.Score == 0 {
			continue
		}
		name := score.ID
		if users {
			name = format.UserMention(score.ID)
		} else if guild, gerr := b.session.Guild(score.ID); gerr == nil {
			name = guild.Name
		}
		lines = append(lines, fmt.Sprintf("%d. %s: `%d`", rank+1, name, score.Score))
	}
	if len(lines) == 0 {
		b.editResponse(i, "Nobody has reported any bad actors yet.")
		return
	}

	b.editResponseEmbed(i, "", []*discordgo.MessageEmbed{{
		Title:       title,
		Description: strings.Join(lines, "\n"),
	}})
}

func (b *Bot) handleWhitelist(ctx context.Context, i *discordgo.InteractionCreate, options []*discordgo.ApplicationCommandInteractionDataOption) {
	if len(options) == 0 || i.Member == nil {
		return
	}
	if i.Member.Permissions&discordgo.PermissionAdministrator == 0 {
		b.respond(i, "You are not allowed to manage the whitelist!")
		return
	}

	sub := options[0]
	opts := optionMap(sub.Options)

	target := opts["user"].UserValue(b.session)
	if target == nil {
		b.respond(i, "Failed to resolve the user!")
		return
	}

	switch sub.Name {
	case "add":
		b.handleWhitelistAdd(ctx, i, target, opts)
	case "remove":
		b.handleWhitelistRemove(ctx, i, target)
	}
}

func (b *Bot) handleWhitelistAdd(ctx context.Context, i *discordgo.InteractionCreate, target *discordgo.User, opts map[string]*discordgo.ApplicationCommandInteractionDataOption) {
	guildIDs := splitIDList(opts["servers"].StringValue())
	if len(guildIDs) == 0 {
		b.respond(i, "Failed to parse your provided guild IDs!")
		return
	}

	b.deferResponse(i)

	if _, err := b.store.CreateUser(ctx, target.ID, guildIDs); err != nil {
		b.oplog.Error(err, fmt.Sprintf("failed to add user %s to the database", format.DisplayUser(target)))
		b.editResponse(i, fmt.Sprintf("Failed to add user %s to the database!", format.FDisplayUser(target)))
		return
	}

	for _, guildID := range guildIDs {
		if err := b.store.CreateDefaultServerConfig(ctx, guildID); err != nil {
			b.oplog.Error(err, fmt.Sprintf("failed to create default server config for guild %s", guildID))
		}
	}

	b.editResponse(i, fmt.Sprintf("User %s added to the whitelist!", format.FDisplayUser(target)))
}

func (b *Bot) handleWhitelistRemove(ctx context.Context, i *discordgo.InteractionCreate, target *discordgo.User) {
	b.deferResponse(i)

	removed, err := b.store.DeleteUser(ctx, target.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			b.editResponse(i, fmt.Sprintf("User %s is not on the whitelist!", format.FDisplayUser(target)))
			return
		}
		b.oplog.Error(err, fmt.Sprintf("failed to remove user %s from the database", format.DisplayUser(target)))
		b.editResponse(i, fmt.Sprintf("Failed to remove user %s from the database!", format.FDisplayUser(target)))
		return
	}

	for _, guildID := range removed.GuildIDs {
		deleted, err := b.store.DeleteServerConfigIfUnused(ctx, guildID)
		if err != nil {
			b.oplog.Error(err, fmt.Sprintf("failed to clean up server config for guild %s", guildID))
			continue
		}
		if deleted {
			b.logger.Info("removed unused server config", zap.String("guild_id", guildID))
		}
	}

	b.editResponse(i, fmt.Sprintf("User %s removed from the whitelist!", format.FDisplayUser(target)))
}

func splitIDList(raw string) []string {
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if _, err := strconv.ParseUint(id, 10, 64); err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// validBanReason rejects templates with unbalanced braces, which would
// otherwise produce garbled audit log reasons.
func validBanReason(reason string) bool {
	depth := 0
	for _, c := range reason {
		switch c {
		case '{':
			depth++
		case '}':
			depth--
		}
		if depth < 0 {
			return false
		}
	}
	return depth == 0
}
