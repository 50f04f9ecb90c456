package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

type ActionLevel int

const (
	ActionNotify ActionLevel = iota
	ActionTimeout
	ActionKick
	ActionSoftBan
	ActionBan
)

func (a ActionLevel) String() string {
	switch a {
	case ActionNotify:
		return "notify"
	case ActionTimeout:
		return "timeout"
	case ActionKick:
		return "kick"
	case ActionSoftBan:
		return "softban"
	case ActionBan:
		return "ban"
	default:
		return fmt.Sprintf("actionlevel(%d)", int(a))
	}
}

func ParseActionLevel(s string) (ActionLevel, error) {
	switch s {
	case "notify":
		return ActionNotify, nil
	case "timeout":
		return ActionTimeout, nil
	case "kick":
		return ActionKick, nil
	case "softban":
		return ActionSoftBan, nil
	case "ban":
		return ActionBan, nil
	default:
		return 0, fmt.Errorf("unknown action level: %s", s)
	}
}

type ServerConfig struct {
	GuildID                  string
	LogChannelID             string
	PingUsers                bool
	PingRole                 string
	SpamActionLevel          ActionLevel
	ImpersonationActionLevel ActionLevel
	BigotryActionLevel       ActionLevel
	HoneypotActionLevel      ActionLevel
	IgnoredRoles             []string
	HoneypotChannelID        string
	HoneypotTimeout          time.Duration
	BanReason                string
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// ActionLevelFor maps a bad actor category to this guild's configured level.
func (c ServerConfig) ActionLevelFor(actorType ActorType) ActionLevel {
	switch actorType {
	case ActorTypeSpam:
		return c.SpamActionLevel
	case ActorTypeImpersonation:
		return c.ImpersonationActionLevel
	case ActorTypeBigotry:
		return c.BigotryActionLevel
	case ActorTypeHoneypot:
		return c.HoneypotActionLevel
	default:
		return ActionNotify
	}
}

type UpdateServerConfig struct {
	LogChannelID             *string
	PingUsers                *bool
	PingRole                 *string
	SpamActionLevel          *ActionLevel
	ImpersonationActionLevel *ActionLevel
	BigotryActionLevel       *ActionLevel
	HoneypotActionLevel      *ActionLevel
	IgnoredRoles             *[]string
	HoneypotChannelID        *string
	HoneypotTimeoutMinutes   *int
	BanReason                *string
}

const serverConfigColumns = `guild_id, log_channel_id, ping_users, ping_role,
	spam_action_level, impersonation_action_level, bigotry_action_level, honeypot_action_level,
	ignored_roles, honeypot_channel_id, honeypot_timeout_minutes, ban_reason,
	created_at, updated_at`

func scanServerConfig(row pgx.Row) (ServerConfig, error) {
	var (
		c               ServerConfig
		logChannel      *string
		pingRole        *string
		honeypotChannel *string
		banReason       *string
		timeoutMinutes  int
		spam, imp       int16
		bigotry, honey  int16
	)
	err := row.Scan(&c.GuildID, &logChannel, &c.PingUsers, &pingRole,
		&spam, &imp, &bigotry, &honey,
		&c.IgnoredRoles, &honeypotChannel, &timeoutMinutes, &banReason,
		&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ServerConfig{}, ErrNotFound
	}
	if err != nil {
		return ServerConfig{}, err
	}
	if logChannel != nil {
		c.LogChannelID = *logChannel
	}
	if pingRole != nil {
		c.PingRole = *pingRole
	}
	if honeypotChannel != nil {
		c.HoneypotChannelID = *honeypotChannel
	}
	if banReason != nil {
		c.BanReason = *banReason
	}
	c.SpamActionLevel = ActionLevel(spam)
	c.ImpersonationActionLevel = ActionLevel(imp)
	c.BigotryActionLevel = ActionLevel(bigotry)
	c.HoneypotActionLevel = ActionLevel(honey)
	c.HoneypotTimeout = time.Duration(timeoutMinutes) * time.Minute
	return c, nil
}

func (s *Store) CreateDefaultServerConfig(ctx context.Context, guildID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO server_configs (guild_id)
		VALUES ($1)
		ON CONFLICT (guild_id) DO NOTHING;`, guildID)
	return err
}

func (s *Store) ServerConfig(ctx context.Context, guildID string) (ServerConfig, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+serverConfigColumns+` FROM server_configs WHERE guild_id = $1;`, guildID)
	return scanServerConfig(row)
}

func (s *Store) ServerConfigs(ctx context.Context) ([]ServerConfig, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+serverConfigColumns+` FROM server_configs;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []ServerConfig
	for rows.Next() {
		cfg, err := scanServerConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

func (s *Store) UpdateServerConfig(ctx context.Context, guildID string, update UpdateServerConfig) (ServerConfig, error) {
	previous, err := s.ServerConfig(ctx, guildID)
	if err != nil {
		return ServerConfig{}, err
	}

	logChannel := previous.LogChannelID
	if update.LogChannelID != nil {
		logChannel = *update.LogChannelID
	}
	pingUsers := previous.PingUsers
	if update.PingUsers != nil {
		pingUsers = *update.PingUsers
	}
	pingRole := previous.PingRole
	if update.PingRole != nil {
		pingRole = *update.PingRole
	}
	spam := previous.SpamActionLevel
	if update.SpamActionLevel != nil {
		spam = *update.SpamActionLevel
	}
	imp := previous.ImpersonationActionLevel
	if update.ImpersonationActionLevel != nil {
		imp = *update.ImpersonationActionLevel
	}
	bigotry := previous.BigotryActionLevel
	if update.BigotryActionLevel != nil {
		bigotry = *update.BigotryActionLevel
	}
	honey := previous.HoneypotActionLevel
	if update.HoneypotActionLevel != nil {
		honey = *update.HoneypotActionLevel
	}
	ignored := previous.IgnoredRoles
	if update.IgnoredRoles != nil {
		ignored = *update.IgnoredRoles
	}
	honeypotChannel := previous.HoneypotChannelID
	if update.HoneypotChannelID != nil {
		honeypotChannel = *update.HoneypotChannelID
	}
	timeoutMinutes := int(previous.HoneypotTimeout / time.Minute)
	if update.HoneypotTimeoutMinutes != nil {
		timeoutMinutes = *update.HoneypotTimeoutMinutes
	}
	banReason := previous.BanReason
	if update.BanReason != nil {
		banReason = *update.BanReason
	}
	if ignored == nil {
		ignored = []string{}
	}

	row := s.pool.QueryRow(ctx, `
		UPDATE server_configs
		SET log_channel_id = $2,
			ping_users = $3,
			ping_role = $4,
			spam_action_level = $5,
			impersonation_action_level = $6,
			bigotry_action_level = $7,
			honeypot_action_level = $8,
			ignored_roles = $9,
			honeypot_channel_id = $10,
			honeypot_timeout_minutes = $11,
			ban_reason = $12,
			updated_at = now()
		WHERE guild_id = $1
		RETURNING `+serverConfigColumns+`;`,
		guildID, nullable(logChannel), pingUsers, nullable(pingRole),
		int16(spam), int16(imp), int16(bigotry), int16(honey),
		ignored, nullable(honeypotChannel), timeoutMinutes, nullable(banReason))
	return scanServerConfig(row)
}

func (s *Store) DeleteServerConfig(ctx context.Context, guildID string) (ServerConfig, error) {
	row := s.pool.QueryRow(ctx,
		`DELETE FROM server_configs WHERE guild_id = $1 RETURNING `+serverConfigColumns+`;`, guildID)
	return scanServerConfig(row)
}

// DeleteServerConfigIfUnused drops the guild's config when no whitelisted user
// references the guild anymore. Returns whether a row was deleted.
func (s *Store) DeleteServerConfigIfUnused(ctx context.Context, guildID string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM server_configs
		WHERE guild_id = $1
			AND NOT EXISTS (SELECT 1 FROM users WHERE $1 = ANY(guild_ids));`, guildID)
	if err != nil {
		return false, fmt.Errorf("delete unused server config for guild %s: %w", guildID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// HoneypotChannelIDs returns every configured honeypot channel id.
func (s *Store) HoneypotChannelIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT honeypot_channel_id FROM server_configs WHERE honeypot_channel_id IS NOT NULL;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
