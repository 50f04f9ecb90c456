package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// User is an operator whitelisted to report bad actors on behalf of one or
// more guilds.
type User struct {
	UserID    string
	GuildIDs  []string
	CreatedAt time.Time
}

func (s *Store) CreateUser(ctx context.Context, userID string, guildIDs []string) (User, error) {
	if guildIDs == nil {
		guildIDs = []string{}
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (user_id, guild_ids)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET guild_ids = $2
		RETURNING user_id, guild_ids, created_at;`, userID, guildIDs)
	return scanUser(row)
}

func (s *Store) UserByID(ctx context.Context, userID string) (User, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT user_id, guild_ids, created_at FROM users WHERE user_id = $1;`, userID)
	return scanUser(row)
}

// UserIDsByGuild returns the ids of every user whitelisted for the guild.
func (s *Store) UserIDsByGuild(ctx context.Context, guildID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id FROM users WHERE $1 = ANY(guild_ids);`, guildID)
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

func (s *Store) DeleteUser(ctx context.Context, userID string) (User, error) {
	row := s.pool.QueryRow(ctx,
		`DELETE FROM users WHERE user_id = $1 RETURNING user_id, guild_ids, created_at;`, userID)
	return scanUser(row)
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.UserID, &u.GuildIDs, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}
