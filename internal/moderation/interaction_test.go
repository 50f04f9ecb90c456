package moderation

import (
	"testing"

	"github.com/bwmarrin/discordgo"

	"janitor/internal/discord"
)

// fakeSession records message edits; every other call panics.
type fakeSession struct {
	discord.Session
	edits []*discordgo.MessageEdit
}

func (f *fakeSession) ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.edits = append(f.edits, m)
	return nil, nil
}

func TestRemoveButtonsStripsComponents(t *testing.T) {
	fake := &fakeSession{}
	h := &Handler{session: fake}

	i := &discordgo.Interaction{Message: &discordgo.Message{ID: "m1", ChannelID: "c1"}}
	h.removeButtons(i, &discordgo.User{ID: "u1", Username: "target"})

	if len(fake.edits) != 1 {
		t.Fatalf("expected one edit, got %d", len(fake.edits))
	}
	edit := fake.edits[0]
	if edit.Channel != "c1" || edit.ID != "m1" {
		t.Fatalf("edit targets wrong message: %+v", edit)
	}
	if edit.Components == nil || len(*edit.Components) != 0 {
		t.Fatalf("expected an explicit empty component list, got %v", edit.Components)
	}
}

func TestCustomIDRoundTrip(t *testing.T) {
	for _, action := range []Action{ActionBan, ActionSoftBan, ActionKick, ActionUnban} {
		id := CustomID(action, 42)
		gotAction, reportID, ok, err := parseCustomID(id)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", id, err)
		}
		if !ok {
			t.Fatalf("%s: expected a moderation action", id)
		}
		if gotAction != action || reportID != 42 {
			t.Fatalf("%s: got (%s, %d)", id, gotAction, reportID)
		}
	}
}

func TestParseCustomIDIgnoresOtherFlows(t *testing.T) {
	for _, id := range []string{"confirm", "cancel"} {
		_, _, ok, err := parseCustomID(id)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", id, err)
		}
		if ok {
			t.Fatalf("%s must not be treated as a moderation action", id)
		}
	}
}

func TestParseCustomIDRejectsMalformed(t *testing.T) {
	for _, id := range []string{
		"ban",
		"moderate:ban",
		"moderate:mute:42",
		"moderate:ban:abc",
		"other:ban:42",
		"",
	} {
		if _, _, _, err := parseCustomID(id); err == nil {
			t.Fatalf("expected error for %q", id)
		}
	}
}

func TestMemberPermissions(t *testing.T) {
	guild := &discordgo.Guild{
		ID:      "guild1",
		OwnerID: "owner",
		Roles: []*discordgo.Role{
			{ID: "guild1", Permissions: discordgo.PermissionViewChannel},
			{ID: "mod", Permissions: discordgo.PermissionBanMembers},
			{ID: "admin", Permissions: discordgo.PermissionAdministrator},
		},
	}

	mod := &discordgo.Member{User: &discordgo.User{ID: "u1"}, Roles: []string{"mod"}}
	perms := memberPermissions(guild, mod)
	if perms&discordgo.PermissionBanMembers == 0 {
		t.Fatalf("mod role should grant ban")
	}
	if perms&discordgo.PermissionKickMembers != 0 {
		t.Fatalf("mod role should not grant kick")
	}

	plain := &discordgo.Member{User: &discordgo.User{ID: "u2"}}
	if perms := memberPermissions(guild, plain); perms&discordgo.PermissionBanMembers != 0 {
		t.Fatalf("everyone role should not grant ban")
	}

	admin := &discordgo.Member{User: &discordgo.User{ID: "u3"}, Roles: []string{"admin"}}
	if perms := memberPermissions(guild, admin); perms != discordgo.PermissionAll {
		t.Fatalf("administrator should resolve to all permissions, got %d", perms)
	}

	owner := &discordgo.Member{User: &discordgo.User{ID: "owner"}}
	if perms := memberPermissions(guild, owner); perms != discordgo.PermissionAll {
		t.Fatalf("owner should resolve to all permissions, got %d", perms)
	}
}
