// Package bot wires the gateway session to the broadcast pipeline, the
// honeypot detector and the slash command handlers.
package bot

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"janitor/internal/broadcast"
	"janitor/internal/config"
	"janitor/internal/files"
	"janitor/internal/honeypot"
	"janitor/internal/locks"
	"janitor/internal/moderation"
	"janitor/internal/oplog"
	"janitor/internal/storage"
)

type Bot struct {
	cfg     config.Config
	logger  *zap.Logger
	store   *storage.Store
	files   *files.Manager
	session *discordgo.Session
	oplog   *oplog.Logger
	locks   *locks.Registry

	channels    *honeypot.ChannelSet
	broadcaster *broadcast.Broadcaster
	detector    *honeypot.Detector
	moderation  *moderation.Handler

	httpClient *http.Client

	pendingMu sync.Mutex
	pending   map[string]*pendingReport
}

func New(cfg config.Config, logger *zap.Logger, store *storage.Store, fileManager *files.Manager) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, err
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent

	b := &Bot{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		files:      fileManager,
		session:    session,
		oplog:      oplog.New(logger, session, cfg.AdminServerErrorChan),
		locks:      locks.NewRegistry(),
		channels:   honeypot.NewChannelSet(),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		pending:    make(map[string]*pendingReport),
	}

	return b, nil
}

func (b *Bot) Start(ctx context.Context) error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return err
	}

	// the gateway handshake has completed here, so the bot user is known
	botID := b.session.State.User.ID
	b.broadcaster = broadcast.New(b.session, b.store, b.files, b.oplog, b.cfg.AdminServerLogChan, botID)
	b.detector = honeypot.NewDetector(b.session, b.store, b.oplog, b.locks, b.broadcaster, b.channels, botID)
	b.moderation = moderation.NewHandler(b.session, b.store, b.oplog)

	if err := b.channels.Reload(ctx, b.store); err != nil {
		b.logger.Error("failed to load honeypot channels", zap.Error(err))
	}

	return b.registerCommands()
}

func (b *Bot) Close(ctx context.Context) {
	_ = ctx
	if b.session != nil {
		_ = b.session.Close()
	}
}

func (b *Bot) onReady(session *discordgo.Session, event *discordgo.Ready) {
	b.logger.Info("discord ready",
		zap.String("user", session.State.User.Username),
		zap.Int("guilds", len(event.Guilds)))
}

// onMessageCreate feeds every guild message into the honeypot detector.
// Only the bot's own messages are excluded, inside HandleMessage; other
// bots spamming across channels are just as reportable as users.
func (b *Bot) onMessageCreate(session *discordgo.Session, msg *discordgo.MessageCreate) {
	if b.detector == nil || msg.Author == nil {
		return
	}
	b.detector.HandleMessage(context.Background(), msg.Message)
}

func (b *Bot) onInteractionCreate(session *discordgo.Session, interaction *discordgo.InteractionCreate) {
	ctx := context.Background()

	switch interaction.Type {
	case discordgo.InteractionApplicationCommand:
		data := interaction.ApplicationCommandData()
		switch data.Name {
		case "report":
			b.handleReport(ctx, interaction, data.Options)
		case "badactor":
			b.handleBadActor(ctx, interaction, data.Options)
		case "config":
			b.handleConfig(ctx, interaction, data.Options)
		case "scores":
			b.handleScores(ctx, interaction, data.Options)
		case "whitelist":
			b.handleWhitelist(ctx, interaction, data.Options)
		}
	case discordgo.InteractionMessageComponent:
		customID := interaction.MessageComponentData().CustomID
		if customID == "confirm" || customID == "cancel" {
			b.handleReportDecision(ctx, interaction, customID)
			return
		}
		if b.moderation != nil {
			b.moderation.HandleInteraction(ctx, interaction.Interaction)
		}
	}
}
