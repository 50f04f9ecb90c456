package broadcast

import (
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"

	"janitor/internal/storage"
)

func testListener(guildID string) Listener {
	return Listener{
		Config: storage.ServerConfig{
			GuildID:   guildID,
			PingRole:  "role1",
			PingUsers: true,
		},
		Guild:      &discordgo.Guild{ID: guildID, Name: "Guild"},
		Users:      []string{"mod1", "mod2"},
		LogChannel: &discordgo.Channel{ID: "log1", Name: "log"},
	}
}

func TestContentWithPings(t *testing.T) {
	actor := storage.BadActor{OriginGuildID: "origin"}
	listener := testListener("other")

	content := contentWithPings(KindReport, listener, actor, storage.ActionNotify)
	if !strings.Contains(content, "<@&role1>") {
		t.Fatalf("expected role ping, got %q", content)
	}
	if !strings.Contains(content, "<@mod1>") || !strings.Contains(content, "<@mod2>") {
		t.Fatalf("expected user pings, got %q", content)
	}
}

func TestContentWithPingsSuppressedInOriginGuild(t *testing.T) {
	actor := storage.BadActor{OriginGuildID: "origin"}
	listener := testListener("origin")

	content := contentWithPings(KindReport, listener, actor, storage.ActionNotify)
	if content != KindReport.Message() {
		t.Fatalf("expected bare message in origin guild, got %q", content)
	}
}

func TestContentWithPingsSuppressedOnAutomaticAction(t *testing.T) {
	actor := storage.BadActor{OriginGuildID: "origin"}
	listener := testListener("other")

	content := contentWithPings(KindReport, listener, actor, storage.ActionBan)
	if content != KindReport.Message() {
		t.Fatalf("expected bare message when action is automatic, got %q", content)
	}
}

func TestButtonsForNewReportWithoutAutomaticAction(t *testing.T) {
	components := buttonsFor(KindReport, storage.ActionNotify, 42)
	if len(components) != 1 {
		t.Fatalf("expected one actions row, got %d components", len(components))
	}
	row, ok := components[0].(discordgo.ActionsRow)
	if !ok {
		t.Fatalf("expected an actions row, got %T", components[0])
	}
	if len(row.Components) != 3 {
		t.Fatalf("expected ban/softban/kick, got %d buttons", len(row.Components))
	}
	ban := row.Components[0].(discordgo.Button)
	if ban.CustomID != "moderate:ban:42" || ban.Style != discordgo.DangerButton {
		t.Fatalf("unexpected first button: %+v", ban)
	}
}

func TestButtonsForDeactivate(t *testing.T) {
	components := buttonsFor(KindDeactivate, storage.ActionNotify, 7)
	row := components[0].(discordgo.ActionsRow)
	if len(row.Components) != 1 {
		t.Fatalf("expected a single unban button, got %d", len(row.Components))
	}
	unban := row.Components[0].(discordgo.Button)
	if unban.CustomID != "moderate:unban:7" {
		t.Fatalf("unexpected custom id %q", unban.CustomID)
	}
}

func TestButtonsForSuppressed(t *testing.T) {
	if components := buttonsFor(KindReport, storage.ActionBan, 42); components != nil {
		t.Fatalf("expected no buttons when automatic action runs, got %v", components)
	}
	if components := buttonsFor(KindAddScreenshot, storage.ActionNotify, 42); components != nil {
		t.Fatalf("expected no buttons on screenshot updates, got %v", components)
	}
}

func TestKindDescriptors(t *testing.T) {
	if !KindReport.IsNewReport() || !KindHoneypot.IsNewReport() {
		t.Fatalf("report and honeypot kinds open new cases")
	}
	if KindDeactivate.IsNewReport() {
		t.Fatalf("deactivation must not open a new case")
	}
	if KindHoneypot.Color() != 0xFF1493 {
		t.Fatalf("unexpected honeypot color %#x", KindHoneypot.Color())
	}
	for _, kind := range []Kind{KindReport, KindDeactivate, KindAddScreenshot, KindReplaceScreenshot, KindUpdateExplanation, KindHoneypot} {
		if kind.Message() == "" {
			t.Fatalf("kind %d has no message", kind)
		}
	}
}
