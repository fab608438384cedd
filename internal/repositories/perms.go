package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
)

// PermRepository stores permission tiers keyed by guild and user.
type PermRepository struct {
	db querier
}

// NewPermRepository creates a new [PermRepository] with the given database connection
func NewPermRepository(db *sql.DB) *PermRepository {
	return &PermRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *PermRepository) WithTx(tx *sql.Tx) *PermRepository {
	return &PermRepository{db: tx}
}

// Get returns the stored permission for a member, or nil when none exists.
func (r *PermRepository) Get(ctx context.Context, guildID, userID int64) (*models.Permission, error) {
	query := `
		SELECT guild_id, user_id, perm_level, created_at, updated_at
		FROM perms
		WHERE guild_id = $1 AND user_id = $2
	`

	p, err := scanPermission(r.db.QueryRowContext(ctx, query, guildID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query permission: %w", err)
	}
	return p, nil
}

// Level returns a member's tier, or [models.PermNone] when nothing is stored.
func (r *PermRepository) Level(ctx context.Context, guildID, userID int64) (models.PermLevel, error) {
	p, err := r.Get(ctx, guildID, userID)
	if err != nil {
		return models.PermNone, err
	}
	if p == nil {
		return models.PermNone, nil
	}
	return p.Level, nil
}

// Set inserts or replaces a member's tier and returns the level now stored.
func (r *PermRepository) Set(ctx context.Context, guildID, userID int64, level models.PermLevel) (models.PermLevel, error) {
	if level < models.PermNone || level > models.PermAdmin {
		return models.PermNone, fmt.Errorf("%w: permission level %d", shared.ErrInvalidInput, level)
	}

	query := `
		INSERT INTO perms (guild_id, user_id, perm_level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (guild_id, user_id)
		DO UPDATE SET perm_level = excluded.perm_level, updated_at = excluded.updated_at
		RETURNING perm_level
	`

	var stored int16
	now := time.Now().UTC()
	if err := r.db.QueryRowContext(ctx, query, guildID, userID, int16(level), now).Scan(&stored); err != nil {
		return models.PermNone, fmt.Errorf("failed to upsert permission: %w", err)
	}
	return models.MustPermLevel(stored), nil
}

// ListByLevel returns every member of a guild holding exactly level, ordered by user ID.
func (r *PermRepository) ListByLevel(ctx context.Context, guildID int64, level models.PermLevel) ([]models.Permission, error) {
	query := `
		SELECT guild_id, user_id, perm_level, created_at, updated_at
		FROM perms
		WHERE guild_id = $1 AND perm_level = $2
		ORDER BY user_id
	`

	rows, err := r.db.QueryContext(ctx, query, guildID, int16(level))
	if err != nil {
		return nil, fmt.Errorf("failed to query permissions: %w", err)
	}
	defer rows.Close()

	var perms []models.Permission
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		perms = append(perms, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating permissions: %w", err)
	}

	return perms, nil
}

// DeleteUser removes a member's stored tier.
//
// Returns [shared.ErrNotFound] when the member had no row.
func (r *PermRepository) DeleteUser(ctx context.Context, guildID, userID int64) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM perms WHERE guild_id = $1 AND user_id = $2", guildID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete permission: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return 0, fmt.Errorf("%w: no permission for user %d in guild %d", shared.ErrNotFound, userID, guildID)
	}
	return rows, nil
}

// DeleteGuild removes every stored tier for a guild and reports whether anything existed.
func (r *PermRepository) DeleteGuild(ctx context.Context, guildID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM perms WHERE guild_id = $1", guildID)
	if err != nil {
		return false, fmt.Errorf("failed to delete guild permissions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPermission(row rowScanner) (*models.Permission, error) {
	var (
		p     models.Permission
		level int16
	)
	if err := row.Scan(&p.GuildID, &p.UserID, &level, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Level = models.MustPermLevel(level)
	return &p, nil
}
