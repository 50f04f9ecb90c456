package storage

import "testing"

func TestBanReasonTemplate(t *testing.T) {
	actor := BadActor{ID: 42, ActorType: ActorTypeSpam}

	got := actor.BanReason("Violation: {type} #{id}")
	if got != "Violation: spam #42" {
		t.Fatalf("templated reason: got %q", got)
	}

	got = actor.BanReason("")
	if got != "Bad Actor spam (42)" {
		t.Fatalf("default reason: got %q", got)
	}
}

func TestParseActorType(t *testing.T) {
	for _, s := range []string{"spam", "impersonation", "bigotry", "honeypot"} {
		if _, err := ParseActorType(s); err != nil {
			t.Fatalf("%s: unexpected error: %v", s, err)
		}
	}
	if _, err := ParseActorType("raid"); err == nil {
		t.Fatalf("expected error for unknown actor type")
	}
}

func TestParseActionLevel(t *testing.T) {
	for want, s := range map[ActionLevel]string{
		ActionNotify:  "notify",
		ActionTimeout: "timeout",
		ActionKick:    "kick",
		ActionSoftBan: "softban",
		ActionBan:     "ban",
	} {
		got, err := ParseActionLevel(s)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", s, err)
		}
		if got != want {
			t.Fatalf("%s: got %v, want %v", s, got, want)
		}
		if got.String() != s {
			t.Fatalf("round trip for %s: got %q", s, got.String())
		}
	}
	if _, err := ParseActionLevel("mute"); err == nil {
		t.Fatalf("expected error for unknown action level")
	}
}
