package format

import (
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
)

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain name", "plain name"},
		{"*bold*", `\*bold\*`},
		{"a_b`c", "a\\_b\\`c"},
		{"héllo", "héllo"},
	}
	for _, tt := range tests {
		if got := EscapeMarkdown(tt.in); got != tt.want {
			t.Fatalf("EscapeMarkdown(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFDisplay(t *testing.T) {
	got := FDisplay("Evil*Bot", "123")
	if got != "Evil\\*Bot (`123`)" {
		t.Fatalf("got %q", got)
	}
}

func TestUsernamePrefersGlobalName(t *testing.T) {
	u := &discordgo.User{Username: "legacy", GlobalName: "Display"}
	if got := Username(u); got != "Display" {
		t.Fatalf("got %q", got)
	}
	u.GlobalName = ""
	if got := Username(u); got != "legacy" {
		t.Fatalf("got %q", got)
	}
}

func TestTimestamp(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	if got := Timestamp(ts); got != "<t:1700000000:f>" {
		t.Fatalf("got %q", got)
	}
}
