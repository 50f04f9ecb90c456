package bot

import "testing"

func TestBadActorSubcommands(t *testing.T) {
	var badactor map[string]bool
	for _, cmd := range commandDefinitions() {
		if cmd.Name != "badactor" {
			continue
		}
		badactor = make(map[string]bool)
		for _, opt := range cmd.Options {
			badactor[opt.Name] = true
		}
	}
	if badactor == nil {
		t.Fatalf("badactor command missing")
	}

	for _, sub := range []string{
		"deactivate",
		"add_screenshot",
		"replace_screenshot",
		"update_explanation",
		"display",
		"display_by_user",
		"purge",
	} {
		if !badactor[sub] {
			t.Fatalf("badactor subcommand %s missing", sub)
		}
	}
}
