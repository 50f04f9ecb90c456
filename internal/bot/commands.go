package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

var actorTypeChoices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: "spam", Value: "spam"},
	{Name: "impersonation", Value: "impersonation"},
	{Name: "bigotry", Value: "bigotry"},
}

var actionLevelChoices = []*discordgo.ApplicationCommandOptionChoice{
	{Name: "notify", Value: "notify"},
	{Name: "timeout", Value: "timeout"},
	{Name: "kick", Value: "kick"},
	{Name: "softban", Value: "softban"},
	{Name: "ban", Value: "ban"},
}

func (b *Bot) registerCommands() error {
	appID := b.session.State.User.ID
	for _, cmd := range commandDefinitions() {
		if _, err := b.session.ApplicationCommandCreate(appID, "", cmd); err != nil {
			return fmt.Errorf("register command %s: %w", cmd.Name, err)
		}
	}
	return nil
}

func commandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "report",
			Description: "Report a user for being naughty",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "The user to report. You can also paste their ID here.",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "type",
					Description: "The type of bad act the user did.",
					Required:    true,
					Choices:     actorTypeChoices,
				},
				{
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Name:        "screenshot",
					Description: "A screenshot of the bad act. You can upload a file here.",
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "explanation",
					Description: "If you can't provide a screenshot, please explain what happened here.",
				},
			},
		},
		{
			Name:        "badactor",
			Description: "Manage bad actor reports",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "deactivate",
					Description: "Deactivate a report",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "id",
							Description: "The ID of the report that you want to deactivate.",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "explanation",
							Description: "Reason for deactivating the report",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add_screenshot",
					Description: "Add a screenshot to a report that doesn't have one yet",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "id",
							Description: "The report ID you want to add the screenshot to.",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionAttachment,
							Name:        "screenshot",
							Description: "The screenshot you want to add. You can upload a file here.",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "replace_screenshot",
					Description: "Replace the screenshot of a report",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "id",
							Description: "The report ID you want to replace the screenshot of.",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionAttachment,
							Name:        "screenshot",
							Description: "The screenshot you want to replace the old one with.",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "update_explanation",
					Description: "Update the explanation of a report",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "id",
							Description: "The report ID you want to update the explanation of.",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "explanation",
							Description: "The updated explanation you want to provide for the report.",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "display",
					Description: "Display the latest reports",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "limit",
							Description: "The amount of entries you want to display. Max 10. Defaults to 5.",
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "type",
							Description: "The type of reports you want to display. Defaults to all report types.",
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: "all", Value: "all"},
								{Name: "active", Value: "active"},
								{Name: "inactive", Value: "inactive"},
							},
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "display_by_user",
					Description: "Display the active report of a user",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionUser,
							Name:        "user",
							Description: "The user whose active report you want to display.",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "purge",
					Description: "Delete a report and its screenshot permanently. Admins only.",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "id",
							Description: "The ID of the report that you want to purge.",
							Required:    true,
						},
					},
				},
			},
		},
		{
			Name:        "config",
			Description: "Manage your server config",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "display",
					Description: "Display your own server config",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "update",
					Description: "Update your own server config",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionChannel,
							Name:        "log_channel",
							Description: "The channel to log actions to.",
						},
						{
							Type:        discordgo.ApplicationCommandOptionBoolean,
							Name:        "ping_users",
							Description: "Ping users when action is taken.",
						},
						{
							Type:        discordgo.ApplicationCommandOptionRole,
							Name:        "ping_role",
							Description: "The role to ping when action is taken.",
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "spam_action_level",
							Description: "The level of action to take for spamming users with hacked accounts.",
							Choices:     actionLevelChoices,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "impersonation_action_level",
							Description: "The level of action to take for users impersonating others.",
							Choices:     actionLevelChoices,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "bigotry_action_level",
							Description: "The level of action to take for users with bigot behaviour.",
							Choices:     actionLevelChoices,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "honeypot_action_level",
							Description: "The level of action to take for users reported through honeypots.",
							Choices:     actionLevelChoices,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "ignored_roles",
							Description: "Role IDs to ignore when taking action. Separate multiple with a comma (,).",
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "ban_reason",
							Description: "Custom ban reason for automatic bans. Add {id} and/or {type} to show them in your reason.",
						},
						{
							Type:        discordgo.ApplicationCommandOptionChannel,
							Name:        "honeypot_channel",
							Description: "The channel to use as a honeypot. Messages posted there are deleted.",
						},
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "honeypot_timeout",
							Description: "Timeout users who send messages in your honeypot channel in minutes. 0 to turn off.",
						},
					},
				},
			},
		},
		{
			Name:        "scores",
			Description: "Check the report leaderboards",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "users",
					Description: "Top 10 users with the most reports",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "guilds",
					Description: "Top 10 guilds with the most reports",
				},
			},
		},
		{
			Name:        "whitelist",
			Description: "Manage whitelisted users",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add",
					Description: "Add a user to the whitelist",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionUser,
							Name:        "user",
							Description: "The user to add to the whitelist.",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "servers",
							Description: "Server ID(s) for bot usage, separated by commas.",
							Required:    true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remove",
					Description: "Remove a user from the whitelist",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionUser,
							Name:        "user",
							Description: "The user to remove from the whitelist.",
							Required:    true,
						},
					},
				},
			},
		},
	}
}
