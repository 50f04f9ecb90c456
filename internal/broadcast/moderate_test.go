package broadcast

import (
	"testing"

	"janitor/internal/storage"
)

func TestActionForNonNewReportAlwaysNotifies(t *testing.T) {
	cfg := storage.ServerConfig{
		SpamActionLevel:          storage.ActionBan,
		ImpersonationActionLevel: storage.ActionBan,
		BigotryActionLevel:       storage.ActionBan,
		HoneypotActionLevel:      storage.ActionBan,
	}

	for _, kind := range []Kind{KindDeactivate, KindAddScreenshot, KindReplaceScreenshot, KindUpdateExplanation} {
		if level := ActionFor(kind, storage.ActorTypeSpam, cfg); level != storage.ActionNotify {
			t.Fatalf("kind %d: got %v, want notify", kind, level)
		}
	}
}

func TestActionForNewReportUsesConfiguredLevel(t *testing.T) {
	cfg := storage.ServerConfig{
		SpamActionLevel:          storage.ActionBan,
		ImpersonationActionLevel: storage.ActionKick,
		BigotryActionLevel:       storage.ActionNotify,
		HoneypotActionLevel:      storage.ActionTimeout,
	}

	if level := ActionFor(KindReport, storage.ActorTypeSpam, cfg); level != storage.ActionBan {
		t.Fatalf("spam: got %v, want ban", level)
	}
	if level := ActionFor(KindReport, storage.ActorTypeImpersonation, cfg); level != storage.ActionKick {
		t.Fatalf("impersonation: got %v, want kick", level)
	}
	if level := ActionFor(KindReport, storage.ActorTypeBigotry, cfg); level != storage.ActionNotify {
		t.Fatalf("bigotry: got %v, want notify", level)
	}
	if level := ActionFor(KindHoneypot, storage.ActorTypeHoneypot, cfg); level != storage.ActionTimeout {
		t.Fatalf("honeypot: got %v, want timeout", level)
	}
}

func TestNonIgnoredRoles(t *testing.T) {
	const guildID = "guild1"

	remaining := NonIgnoredRoles([]string{guildID}, nil, guildID)
	if len(remaining) != 0 {
		t.Fatalf("everyone role should be skipped, got %v", remaining)
	}

	remaining = NonIgnoredRoles([]string{guildID, "r1", "r2"}, []string{"r1"}, guildID)
	if len(remaining) != 1 || remaining[0] != "r2" {
		t.Fatalf("got %v, want [r2]", remaining)
	}

	remaining = NonIgnoredRoles([]string{guildID, "r1", "r2"}, []string{"r1", "r2"}, guildID)
	if len(remaining) != 0 {
		t.Fatalf("all roles ignored, got %v", remaining)
	}
}
