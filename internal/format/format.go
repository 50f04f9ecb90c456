// Package format holds the small display helpers shared by every
// Discord-facing component.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Display renders "Name (id)" for process logs.
func Display(name, id string) string {
	return fmt.Sprintf("%s (%s)", name, id)
}

// FDisplay renders "Name (`id`)" with markdown escaping for guild-facing
// messages.
func FDisplay(name, id string) string {
	return fmt.Sprintf("%s (%s)", EscapeMarkdown(name), InlineCode(id))
}

func DisplayUser(u *discordgo.User) string {
	return Display(Username(u), u.ID)
}

func FDisplayUser(u *discordgo.User) string {
	return FDisplay(Username(u), u.ID)
}

func DisplayGuild(g *discordgo.Guild) string {
	return Display(g.Name, g.ID)
}

func FDisplayGuild(g *discordgo.Guild) string {
	return FDisplay(g.Name, g.ID)
}

// Username prefers the display name over the legacy username.
func Username(u *discordgo.User) string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

func InlineCode(s string) string {
	return "`" + s + "`"
}

func UserMention(id string) string {
	return "<@" + id + ">"
}

func RoleMention(id string) string {
	return "<@&" + id + ">"
}

func ChannelMention(id string) string {
	return "<#" + id + ">"
}

// Timestamp renders a Discord timestamp tag that clients localize.
func Timestamp(t time.Time) string {
	return fmt.Sprintf("<t:%d:f>", t.Unix())
}

func EscapeMarkdown(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, c := range input {
		if c > 0x7F || isAlphanumeric(c) || isSpace(c) {
			b.WriteRune(c)
		} else {
			b.WriteByte('\\')
			b.WriteRune(c)
		}
	}
	return b.String()
}

func isAlphanumeric(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isSpace(c rune) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
