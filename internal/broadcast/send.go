package broadcast

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"janitor/internal/format"
	"janitor/internal/moderation"
	"janitor/internal/storage"
)

func (b *Broadcaster) sendToListener(listener Listener, opts Options, embed *discordgo.MessageEmbed, attach *attachment) {
	level := ActionFor(opts.Kind, opts.BadActor.ActorType, listener.Config)

	content := contentWithPings(opts.Kind, listener, opts.BadActor, level)
	msg := buildMessage(content, embed, attach, buttonsFor(opts.Kind, level, opts.BadActor.ID))

	if _, err := b.session.ChannelMessageSendComplex(listener.LogChannel.ID, msg); err != nil {
		b.oplog.Error(err, fmt.Sprintf("failed to send broadcast embed to #%s in %s",
			listener.LogChannel.Name, format.DisplayGuild(listener.Guild)))
	}
}

// contentWithPings appends the configured ping mentions. Pings are suppressed
// in the report's origin guild and in guilds where an automatic action is
// already being taken.
func contentWithPings(kind Kind, listener Listener, actor storage.BadActor, level storage.ActionLevel) string {
	content := kind.Message()

	if listener.Config.GuildID == actor.OriginGuildID {
		return content
	}
	if level != storage.ActionNotify {
		return content
	}

	if listener.Config.PingRole != "" {
		content += "\n" + format.RoleMention(listener.Config.PingRole)
	}
	if listener.Config.PingUsers && len(listener.Users) > 0 {
		mentions := make([]string, 0, len(listener.Users))
		for _, id := range listener.Users {
			mentions = append(mentions, format.UserMention(id))
		}
		content += "\n" + strings.Join(mentions, "\n")
	}

	return content
}

// buttonsFor attaches manual moderation buttons when no automatic action will
// run, and an unban button on deactivation notices. Each custom id carries the
// report id so the interaction handler can resolve the case from storage.
func buttonsFor(kind Kind, level storage.ActionLevel, reportID int64) []discordgo.MessageComponent {
	var buttons []discordgo.MessageComponent

	switch {
	case kind.IsNewReport() && level == storage.ActionNotify:
		buttons = []discordgo.MessageComponent{
			discordgo.Button{Label: "Ban", Style: discordgo.DangerButton, CustomID: moderation.CustomID(moderation.ActionBan, reportID)},
			discordgo.Button{Label: "Softban", Style: discordgo.SecondaryButton, CustomID: moderation.CustomID(moderation.ActionSoftBan, reportID)},
			discordgo.Button{Label: "Kick", Style: discordgo.SecondaryButton, CustomID: moderation.CustomID(moderation.ActionKick, reportID)},
		}
	case kind == KindDeactivate:
		buttons = []discordgo.MessageComponent{
			discordgo.Button{Label: "Unban", Style: discordgo.PrimaryButton, CustomID: moderation.CustomID(moderation.ActionUnban, reportID)},
		}
	}

	if len(buttons) == 0 {
		return nil
	}
	return []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}}
}
