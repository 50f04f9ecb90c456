// Package moderation handles the buttons attached to broadcast embeds.
// Guild moderators use them to punish a reported user manually after the
// automatic action level left the decision to them.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"janitor/internal/discord"
	"janitor/internal/format"
	"janitor/internal/oplog"
	"janitor/internal/storage"
)

// Action is the moderation verb carried in a button custom id.
type Action string

const (
	ActionBan     Action = "ban"
	ActionSoftBan Action = "softban"
	ActionKick    Action = "kick"
	ActionUnban   Action = "unban"
)

// customIDPrefix namespaces moderation buttons so the handler never has to
// guess whether a component belongs to a broadcast embed.
const customIDPrefix = "moderate"

var errUnknownCustomID = errors.New("unknown custom id")

// CustomID encodes an action and the report it targets into a component
// custom id of the form "moderate:<action>:<reportID>".
func CustomID(action Action, reportID int64) string {
	return fmt.Sprintf("%s:%s:%d", customIDPrefix, action, reportID)
}

// parseCustomID is the inverse of CustomID. The boolean return is false for
// custom ids that belong to other flows (report confirmation buttons) and
// must be ignored here.
func parseCustomID(customID string) (Action, int64, bool, error) {
	switch customID {
	case "confirm", "cancel":
		return "", 0, false, nil
	}

	parts := strings.Split(customID, ":")
	if len(parts) != 3 || parts[0] != customIDPrefix {
		return "", 0, false, fmt.Errorf("%w %q", errUnknownCustomID, customID)
	}

	var action Action
	switch parts[1] {
	case "ban", "softban", "kick", "unban":
		action = Action(parts[1])
	default:
		return "", 0, false, fmt.Errorf("%w %q", errUnknownCustomID, customID)
	}

	reportID, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", 0, false, fmt.Errorf("invalid report id in custom id %q: %w", customID, err)
	}
	return action, reportID, true, nil
}

type Handler struct {
	session discord.Session
	store   *storage.Store
	oplog   *oplog.Logger
}

func NewHandler(session discord.Session, store *storage.Store, logger *oplog.Logger) *Handler {
	return &Handler{session: session, store: store, oplog: logger}
}

// HandleInteraction processes a single component interaction. Anything that
// is not a moderation button is silently ignored.
func (h *Handler) HandleInteraction(ctx context.Context, i *discordgo.Interaction) {
	if i.Type != discordgo.InteractionMessageComponent || i.GuildID == "" {
		return
	}

	data := i.MessageComponentData()
	if data.ComponentType != discordgo.ButtonComponent && data.ComponentType != 0 {
		return
	}

	action, reportID, ok, err := parseCustomID(data.CustomID)
	if err != nil {
		h.oplog.Zap().Warn("unhandled component custom id", zap.String("custom_id", data.CustomID))
		return
	}
	if !ok {
		return
	}

	if i.Member == nil || !h.canModerate(i, action) {
		return
	}

	actor, err := h.store.BadActorByID(ctx, reportID)
	if err != nil {
		h.oplog.Error(err, fmt.Sprintf("failed to get bad actor %d for moderation button", reportID))
		return
	}

	target, err := h.session.User(actor.UserID)
	if err != nil {
		h.oplog.Error(err, fmt.Sprintf("failed to get user from ID %s", actor.UserID))
		return
	}

	if err := h.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	}); err != nil {
		h.oplog.Error(err, "failed to acknowledge moderation button interaction")
	}

	h.moderate(ctx, i, action, target, actor)
	h.removeButtons(i, target)
}

func (h *Handler) moderate(ctx context.Context, i *discordgo.Interaction, action Action, target *discordgo.User, actor storage.BadActor) {
	cfg, err := h.store.ServerConfig(ctx, i.GuildID)
	if err != nil {
		h.oplog.Error(err, fmt.Sprintf("failed to get server config for guild %s", i.GuildID))
		return
	}

	logChannel := h.logChannel(cfg)
	if logChannel == nil {
		h.oplog.Warn(fmt.Sprintf(
			"Cannot moderate %s in guild %s because of missing log channel",
			format.DisplayUser(target), h.displayGuild(i.GuildID)))
		return
	}

	reason := actor.BanReason(cfg.BanReason)

	switch action {
	case ActionBan:
		err = h.session.GuildBanCreateWithReason(i.GuildID, target.ID, reason, 7)
	case ActionSoftBan:
		if err = h.session.GuildBanCreateWithReason(i.GuildID, target.ID, reason, 7); err == nil {
			err = h.session.GuildBanDelete(i.GuildID, target.ID)
		}
	case ActionKick:
		err = h.session.GuildMemberDeleteWithReason(i.GuildID, target.ID, reason)
	case ActionUnban:
		err = h.session.GuildBanDelete(i.GuildID, target.ID)
		if isUnknownBan(err) {
			h.postToLogChannel(i.GuildID, logChannel, fmt.Sprintf(
				"Failed to unban user %s. Their ban was not found which most likely means they were not banned in the first place.",
				format.FDisplayUser(target)))
			return
		}
	}

	if err != nil {
		h.oplog.Error(err, fmt.Sprintf("Failed to %s user %s from %s",
			action, format.DisplayUser(target), h.displayGuild(i.GuildID)))
		h.postToLogChannel(i.GuildID, logChannel, fmt.Sprintf(
			"Failed to %s user %s from your guild!", action, format.FDisplayUser(target)))
		return
	}

	h.postToLogChannel(i.GuildID, logChannel, fmt.Sprintf(
		"%s took moderation action `%s` against user %s using the broadcast embed buttons.",
		format.FDisplayUser(i.Member.User), action, format.FDisplayUser(target)))
}

// canModerate checks the pressing member's guild-level permissions. Ban,
// softban and unban require ban rights, kick requires kick rights.
// Administrators and the guild owner always pass.
func (h *Handler) canModerate(i *discordgo.Interaction, action Action) bool {
	guild, err := h.session.Guild(i.GuildID)
	if err != nil {
		h.oplog.Error(err, fmt.Sprintf(
			"Failed to get guild level permissions for user %s in guild %s",
			format.DisplayUser(i.Member.User), i.GuildID))
		return false
	}

	perms := memberPermissions(guild, i.Member)

	var required int64
	switch action {
	case ActionKick:
		required = discordgo.PermissionKickMembers
	default:
		required = discordgo.PermissionBanMembers
	}

	if perms&required == 0 {
		h.oplog.Zap().Warn(fmt.Sprintf(
			"Guild member %s tried to use moderation button `%s` but lacks the required permissions",
			format.DisplayUser(i.Member.User), action))
		return false
	}
	return true
}

func memberPermissions(guild *discordgo.Guild, member *discordgo.Member) int64 {
	if member.User != nil && member.User.ID == guild.OwnerID {
		return discordgo.PermissionAll
	}

	var perms int64
	for _, role := range guild.Roles {
		if role.ID == guild.ID {
			perms |= role.Permissions
			continue
		}
		for _, memberRole := range member.Roles {
			if memberRole == role.ID {
				perms |= role.Permissions
				break
			}
		}
	}

	if perms&discordgo.PermissionAdministrator != 0 {
		return discordgo.PermissionAll
	}
	return perms
}

func isUnknownBan(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		return restErr.Message.Code == discordgo.ErrCodeUnknownBan
	}
	return false
}

func (h *Handler) removeButtons(i *discordgo.Interaction, target *discordgo.User) {
	if i.Message == nil {
		return
	}
	_, err := h.session.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    i.Message.ChannelID,
		ID:         i.Message.ID,
		Components: &[]discordgo.MessageComponent{},
	})
	if err != nil {
		h.oplog.Error(err, fmt.Sprintf(
			"Failed to remove buttons from broadcast embed for target user %s in %s",
			format.DisplayUser(target), h.displayGuild(i.GuildID)))
	}
}

func (h *Handler) logChannel(cfg storage.ServerConfig) *discordgo.Channel {
	if cfg.LogChannelID == "" {
		return nil
	}
	channel, err := h.session.Channel(cfg.LogChannelID)
	if err != nil || !discord.IsTextChannel(channel) {
		return nil
	}
	return channel
}

func (h *Handler) postToLogChannel(guildID string, channel *discordgo.Channel, content string) {
	if _, err := h.session.ChannelMessageSend(channel.ID, content); err != nil {
		h.oplog.Error(err, fmt.Sprintf(
			"Failed to inform guild %s about the outcome of a moderation button action",
			h.displayGuild(guildID)))
	}
}

func (h *Handler) displayGuild(guildID string) string {
	guild, err := h.session.Guild(guildID)
	if err != nil {
		return guildID
	}
	return format.DisplayGuild(guild)
}
