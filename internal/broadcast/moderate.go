package broadcast

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"janitor/internal/format"
	"janitor/internal/storage"
)

func zapUser(u *discordgo.User) zap.Field {
	return zap.String("user", format.DisplayUser(u))
}

func zapGuild(g *discordgo.Guild) zap.Field {
	return zap.String("guild", format.DisplayGuild(g))
}

const timeoutDays = 7

// ActionFor is the decision rule: lifecycle notices never enforce, new
// reports enforce at the guild's configured level for the actor category.
func ActionFor(kind Kind, actorType storage.ActorType, cfg storage.ServerConfig) storage.ActionLevel {
	if !kind.IsNewReport() {
		return storage.ActionNotify
	}
	return cfg.ActionLevelFor(actorType)
}

// NonIgnoredRoles returns the member's roles minus @everyone and the guild's
// ignored list. Any survivor blocks automatic moderation.
func NonIgnoredRoles(memberRoles, ignoredRoles []string, guildID string) []string {
	var remaining []string
	for _, role := range memberRoles {
		if role == guildID {
			continue
		}
		ignored := false
		for _, ignoredRole := range ignoredRoles {
			if role == ignoredRole {
				ignored = true
				break
			}
		}
		if !ignored {
			remaining = append(remaining, role)
		}
	}
	return remaining
}

func (b *Broadcaster) moderate(listener Listener, opts Options) {
	actor := opts.BadActor
	target := opts.TargetUser

	level := ActionFor(opts.Kind, actor.ActorType, listener.Config)
	if level == storage.ActionNotify {
		return
	}

	reason := actor.BanReason(listener.Config.BanReason)

	member, err := b.session.GuildMember(listener.Guild.ID, actor.UserID)
	if err != nil {
		// bans are the only action that works without membership
		if level == storage.ActionBan {
			b.ban(listener, target, reason)
			return
		}
		b.postToLogChannel(listener, fmt.Sprintf(
			"User %s is not a member of your server. Skipping moderation.",
			format.FDisplayUser(target)))
		return
	}

	nonIgnored := NonIgnoredRoles(member.Roles, listener.Config.IgnoredRoles, listener.Guild.ID)
	if len(nonIgnored) > 0 {
		mentions := make([]string, 0, len(nonIgnored))
		for _, role := range nonIgnored {
			mentions = append(mentions, format.RoleMention(role))
		}
		b.postToLogChannel(listener, fmt.Sprintf(
			"User %s has roles that are not ignored. Those roles are %s. Skipping all moderation action.",
			format.FDisplayUser(target), strings.Join(mentions, ", ")))
		return
	}

	switch level {
	case storage.ActionTimeout:
		b.timeout(listener, target)
	case storage.ActionKick:
		b.kick(listener, target)
	case storage.ActionSoftBan:
		b.softBan(listener, target, reason)
	case storage.ActionBan:
		b.ban(listener, target, reason)
	}
}

func (b *Broadcaster) ban(listener Listener, target *discordgo.User, reason string) {
	if err := b.session.GuildBanCreateWithReason(listener.Guild.ID, target.ID, reason, timeoutDays); err != nil {
		b.reportActionFailure(listener, target, "ban", err)
		return
	}
	b.oplog.Zap().Info("banned user",
		zapUser(target), zapGuild(listener.Guild))
	b.postToLogChannel(listener, fmt.Sprintf("User %s was banned from your server!", format.FDisplayUser(target)))
}

func (b *Broadcaster) softBan(listener Listener, target *discordgo.User, reason string) {
	if err := b.session.GuildBanCreateWithReason(listener.Guild.ID, target.ID, reason, timeoutDays); err != nil {
		b.reportActionFailure(listener, target, "softban", err)
		return
	}
	if err := b.session.GuildBanDelete(listener.Guild.ID, target.ID); err != nil {
		b.reportActionFailure(listener, target, "softban", err)
		return
	}
	b.oplog.Zap().Info("softbanned user",
		zapUser(target), zapGuild(listener.Guild))
	b.postToLogChannel(listener, fmt.Sprintf("User %s was softbanned from your server!", format.FDisplayUser(target)))
}

func (b *Broadcaster) kick(listener Listener, target *discordgo.User) {
	if err := b.session.GuildMemberDeleteWithReason(listener.Guild.ID, target.ID, "Bad actor report"); err != nil {
		b.reportActionFailure(listener, target, "kick", err)
		return
	}
	b.oplog.Zap().Info("kicked user",
		zapUser(target), zapGuild(listener.Guild))
	b.postToLogChannel(listener, fmt.Sprintf("User %s was kicked from your server!", format.FDisplayUser(target)))
}

func (b *Broadcaster) timeout(listener Listener, target *discordgo.User) {
	until := time.Now().AddDate(0, 0, timeoutDays)
	if err := b.session.GuildMemberTimeout(listener.Guild.ID, target.ID, &until); err != nil {
		b.reportActionFailure(listener, target, "timeout", err)
		return
	}
	b.oplog.Zap().Info("timed out user",
		zapUser(target), zapGuild(listener.Guild))
	b.postToLogChannel(listener, fmt.Sprintf("User %s was timed out for %d days!", format.FDisplayUser(target), timeoutDays))
}

func (b *Broadcaster) reportActionFailure(listener Listener, target *discordgo.User, action string, err error) {
	b.oplog.Error(err, fmt.Sprintf("error moderating %s in %s",
		format.DisplayUser(target), format.DisplayGuild(listener.Guild)))
	b.postToLogChannel(listener, fmt.Sprintf("Failed to %s user %s from your server!",
		action, format.FDisplayUser(target)))
}

func (b *Broadcaster) postToLogChannel(listener Listener, content string) {
	if _, err := b.session.ChannelMessageSend(listener.LogChannel.ID, content); err != nil {
		b.oplog.Error(err, fmt.Sprintf("failed to send message to #%s in %s",
			listener.LogChannel.Name, format.DisplayGuild(listener.Guild)))
	}
}
