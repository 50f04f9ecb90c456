package broadcast

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"janitor/internal/storage"
)

func (b *Broadcaster) broadcastToWebhooks(ctx context.Context, kind Kind, embed *discordgo.MessageEmbed, attach *attachment) {
	hooks, err := b.store.Webhooks(ctx)
	if err != nil {
		b.oplog.Error(err, "failed to load webhooks for broadcasting")
		return
	}

	var wg sync.WaitGroup
	for _, hook := range hooks {
		id, token, err := parseWebhookURL(hook.URL)
		if err != nil {
			b.oplog.Error(err, fmt.Sprintf("invalid webhook URL for guild %s (%s)", hook.GuildName, hook.GuildID))
			continue
		}

		wg.Add(1)
		go func(hook storage.Webhook, id, token string) {
			defer wg.Done()
			params := &discordgo.WebhookParams{
				Content: kind.Message(),
				Embeds:  []*discordgo.MessageEmbed{embed},
			}
			if attach != nil {
				params.Files = []*discordgo.File{attach.file()}
			}
			if _, err := b.session.WebhookExecute(id, token, false, params); err != nil {
				b.oplog.Error(err, fmt.Sprintf(
					"failed to send broadcast embed to webhook in guild %s (%s)",
					hook.GuildName, hook.GuildID))
			}
		}(hook, id, token)
	}
	wg.Wait()
}

// parseWebhookURL extracts the webhook id and token from a Discord webhook
// URL of the form https://discord.com/api/webhooks/{id}/{token}.
func parseWebhookURL(raw string) (string, string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", err
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 4 || parts[len(parts)-4] != "api" || parts[len(parts)-3] != "webhooks" {
		return "", "", fmt.Errorf("malformed webhook URL %q", raw)
	}
	id := parts[len(parts)-2]
	token := parts[len(parts)-1]
	if id == "" || token == "" {
		return "", "", fmt.Errorf("malformed webhook URL %q", raw)
	}
	return id, token, nil
}
