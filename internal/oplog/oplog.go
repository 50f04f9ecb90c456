// Package oplog mirrors warnings and errors into the admin server's
// operations channel so the federation operators see failures without tailing
// process logs.
package oplog

import (
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"janitor/internal/discord"
)

const (
	colorWarn  = 0xFFFF00
	colorError = 0xFF0000
)

type Logger struct {
	logger    *zap.Logger
	session   discord.Session
	channelID string
}

// New builds the operations logger. An empty channelID disables the Discord
// mirror, which keeps tests and dry runs quiet.
func New(logger *zap.Logger, session discord.Session, channelID string) *Logger {
	return &Logger{logger: logger, session: session, channelID: channelID}
}

func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.logger.Warn(msg, fields...)
	l.post(msg, colorWarn, nil)
}

func (l *Logger) Error(err error, msg string, fields ...zap.Field) {
	l.logger.Error(msg, append(fields, zap.Error(err))...)
	l.post(msg, colorError, err)
}

func (l *Logger) Zap() *zap.Logger {
	return l.logger
}

func (l *Logger) post(msg string, color int, err error) {
	if l.channelID == "" || l.session == nil {
		return
	}

	description := msg
	if err != nil {
		description = msg + "\n\n```" + err.Error() + "```"
	}

	embed := &discordgo.MessageEmbed{
		Description: description,
		Color:       color,
		Author:      &discordgo.MessageEmbedAuthor{Name: "Janitor"},
		Footer:      &discordgo.MessageEmbedFooter{Text: "Error Log"},
		Timestamp:   time.Now().Format(time.RFC3339),
	}

	if _, sendErr := l.session.ChannelMessageSendComplex(l.channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	}); sendErr != nil {
		l.logger.Error("failed to send log embed to operations channel", zap.Error(sendErr))
	}
}
