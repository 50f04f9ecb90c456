package broadcast

import "testing"

func TestParseWebhookURL(t *testing.T) {
	id, token, err := parseWebhookURL("https://discord.com/api/webhooks/123456789/secret-token")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if id != "123456789" || token != "secret-token" {
		t.Fatalf("got id=%q token=%q", id, token)
	}
}

func TestParseWebhookURLMalformed(t *testing.T) {
	for _, raw := range []string{
		"https://discord.com/api/webhooks/123456789",
		"https://discord.com/api/other/123/token",
		"https://discord.com/123/token",
		"not a url at all ://",
	} {
		if _, _, err := parseWebhookURL(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
