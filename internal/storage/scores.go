package storage

import (
	"context"
	"fmt"
)

type Scoreboard struct {
	ID    string
	Score int
}

// IncrementScores bumps the reporting user's and the origin guild's report
// counters. Both updates share one transaction; a failure on either side
// rolls back the pair.
func (s *Store) IncrementScores(ctx context.Context, userID, guildID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO user_scores (discord_id, score)
		VALUES ($1, 1)
		ON CONFLICT (discord_id)
		DO UPDATE SET score = user_scores.score + 1;`, userID); err != nil {
		return fmt.Errorf("increment user score: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO guild_scores (guild_id, score)
		VALUES ($1, 1)
		ON CONFLICT (guild_id)
		DO UPDATE SET score = guild_scores.score + 1;`, guildID); err != nil {
		return fmt.Errorf("increment guild score: %w", err)
	}

	return tx.Commit(ctx)
}

func (s *Store) TopUsers(ctx context.Context, limit int) ([]Scoreboard, error) {
	return s.topScores(ctx,
		`SELECT discord_id, score FROM user_scores ORDER BY score DESC LIMIT $1;`, limit)
}

func (s *Store) TopGuilds(ctx context.Context, limit int) ([]Scoreboard, error) {
	return s.topScores(ctx,
		`SELECT guild_id, score FROM guild_scores ORDER BY score DESC LIMIT $1;`, limit)
}

func (s *Store) topScores(ctx context.Context, sql string, limit int) ([]Scoreboard, error) {
	rows, err := s.pool.Query(ctx, sql, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var boards []Scoreboard
	for rows.Next() {
		var b Scoreboard
		if err := rows.Scan(&b.ID, &b.Score); err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}
