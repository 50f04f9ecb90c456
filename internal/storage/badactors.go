package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

type ActorType string

const (
	ActorTypeSpam          ActorType = "spam"
	ActorTypeImpersonation ActorType = "impersonation"
	ActorTypeBigotry       ActorType = "bigotry"
	ActorTypeHoneypot      ActorType = "honeypot"
)

func ParseActorType(s string) (ActorType, error) {
	switch ActorType(s) {
	case ActorTypeSpam, ActorTypeImpersonation, ActorTypeBigotry, ActorTypeHoneypot:
		return ActorType(s), nil
	default:
		return "", fmt.Errorf("invalid actor type: %s", s)
	}
}

type BadActor struct {
	ID              int64
	UserID          string
	IsActive        bool
	ActorType       ActorType
	OriginGuildID   string
	ScreenshotProof string
	Explanation     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	UpdatedByUserID string
}

// BanReason renders a guild's custom ban-reason template, substituting {id}
// and {type}, or falls back to the default reason.
func (b BadActor) BanReason(template string) string {
	if template != "" {
		reason := strings.ReplaceAll(template, "{id}", strconv.FormatInt(b.ID, 10))
		return strings.ReplaceAll(reason, "{type}", string(b.ActorType))
	}
	return fmt.Sprintf("Bad Actor %s (%d)", b.ActorType, b.ID)
}

type CreateBadActorOptions struct {
	UserID          string
	ActorType       ActorType
	ScreenshotProof string
	Explanation     string
	OriginGuildID   string
	UpdatedByUserID string
}

type BadActorQuery string

const (
	BadActorQueryAll      BadActorQuery = "all"
	BadActorQueryActive   BadActorQuery = "active"
	BadActorQueryInactive BadActorQuery = "inactive"
)

var ErrNotFound = errors.New("not found")

const badActorColumns = `id, user_id, is_active, actor_type, origin_guild_id,
	screenshot_proof, explanation, created_at, updated_at, updated_by_user_id`

func scanBadActor(row pgx.Row) (BadActor, error) {
	var (
		b           BadActor
		screenshot  *string
		explanation *string
	)
	err := row.Scan(&b.ID, &b.UserID, &b.IsActive, &b.ActorType, &b.OriginGuildID,
		&screenshot, &explanation, &b.CreatedAt, &b.UpdatedAt, &b.UpdatedByUserID)
	if errors.Is(err, pgx.ErrNoRows) {
		return BadActor{}, ErrNotFound
	}
	if err != nil {
		return BadActor{}, err
	}
	if screenshot != nil {
		b.ScreenshotProof = *screenshot
	}
	if explanation != nil {
		b.Explanation = *explanation
	}
	return b, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *Store) CreateBadActor(ctx context.Context, opts CreateBadActorOptions) (BadActor, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO bad_actors (user_id, actor_type, origin_guild_id, screenshot_proof, explanation, updated_by_user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+badActorColumns+`;`,
		opts.UserID, string(opts.ActorType), opts.OriginGuildID,
		nullable(opts.ScreenshotProof), nullable(opts.Explanation), opts.UpdatedByUserID)
	return scanBadActor(row)
}

func (s *Store) BadActorByID(ctx context.Context, id int64) (BadActor, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+badActorColumns+` FROM bad_actors WHERE id = $1;`, id)
	return scanBadActor(row)
}

func (s *Store) ActiveBadActorByUser(ctx context.Context, userID string) (BadActor, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+badActorColumns+` FROM bad_actors
		WHERE user_id = $1 AND is_active = TRUE
		ORDER BY created_at DESC LIMIT 1;`, userID)
	return scanBadActor(row)
}

func (s *Store) HasActiveCase(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM bad_actors WHERE user_id = $1 AND is_active = TRUE);`,
		userID).Scan(&exists)
	return exists, err
}

func (s *Store) BadActors(ctx context.Context, query BadActorQuery, limit int) ([]BadActor, error) {
	sql := `SELECT ` + badActorColumns + ` FROM bad_actors`
	switch query {
	case BadActorQueryActive:
		sql += ` WHERE is_active = TRUE`
	case BadActorQueryInactive:
		sql += ` WHERE is_active = FALSE`
	}
	sql += ` ORDER BY updated_at DESC LIMIT $1;`

	rows, err := s.pool.Query(ctx, sql, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actors []BadActor
	for rows.Next() {
		actor, err := scanBadActor(rows)
		if err != nil {
			return nil, err
		}
		actors = append(actors, actor)
	}
	return actors, rows.Err()
}

func (s *Store) DeactivateBadActor(ctx context.Context, id int64, explanation, updatedBy string) (BadActor, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE bad_actors
		SET is_active = FALSE, explanation = $2, updated_by_user_id = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+badActorColumns+`;`,
		id, nullable(explanation), updatedBy)
	return scanBadActor(row)
}

func (s *Store) UpdateBadActorScreenshot(ctx context.Context, id int64, screenshot, updatedBy string) (BadActor, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE bad_actors
		SET screenshot_proof = $2, updated_by_user_id = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+badActorColumns+`;`,
		id, nullable(screenshot), updatedBy)
	return scanBadActor(row)
}

func (s *Store) UpdateBadActorExplanation(ctx context.Context, id int64, explanation, updatedBy string) (BadActor, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE bad_actors
		SET explanation = $2, updated_by_user_id = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+badActorColumns+`;`,
		id, nullable(explanation), updatedBy)
	return scanBadActor(row)
}

func (s *Store) DeleteBadActor(ctx context.Context, id int64) (BadActor, error) {
	row := s.pool.QueryRow(ctx,
		`DELETE FROM bad_actors WHERE id = $1 RETURNING `+badActorColumns+`;`, id)
	return scanBadActor(row)
}
