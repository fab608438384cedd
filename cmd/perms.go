package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/repositories"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/desertthunder/jukebox/internal/tasks"
	"github.com/urfave/cli/v3"
)

// parseUserArg accepts a bare numeric ID or a chat mention.
func parseUserArg(cmd *cli.Command, pos int) (int64, error) {
	raw := strings.TrimSpace(cmd.Args().Get(pos))
	if raw == "" {
		return 0, fmt.Errorf("%w: user", shared.ErrMissingArgument)
	}
	return tasks.ParseUserID(raw)
}

func parseLevelArg(cmd *cli.Command, pos int) (models.PermLevel, error) {
	raw := cmd.Args().Get(pos)
	if strings.TrimSpace(raw) == "" {
		return models.PermNone, fmt.Errorf("%w: level", shared.ErrMissingArgument)
	}
	level, err := models.ParsePermLevel(raw)
	if err != nil {
		return models.PermNone, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	return level, nil
}

// PermsGet prints a user's tier.
func (r *Runner) PermsGet(ctx context.Context, cmd *cli.Command) error {
	guild := cmd.Int64("guild")
	user, err := parseUserArg(cmd, 0)
	if err != nil {
		return err
	}

	return r.withPerms(ctx, func(repo *repositories.PermRepository) error {
		level, err := repo.Level(ctx, guild, user)
		if err != nil {
			return err
		}
		r.writePlain("%d is %s in guild %d\n", user, level, guild)
		return nil
	})
}

// PermsSet assigns a user's tier.
func (r *Runner) PermsSet(ctx context.Context, cmd *cli.Command) error {
	guild := cmd.Int64("guild")
	user, err := parseUserArg(cmd, 0)
	if err != nil {
		return err
	}
	level, err := parseLevelArg(cmd, 1)
	if err != nil {
		return err
	}

	return r.withPerms(ctx, func(repo *repositories.PermRepository) error {
		stored, err := repo.Set(ctx, guild, user, level)
		if err != nil {
			return err
		}
		r.logger.Info("set permission", "guild", guild, "user", user, "level", stored)
		r.writePlain("✓ Set %d to %s in guild %d\n", user, stored, guild)
		return nil
	})
}

// PermsList prints every user holding a tier.
func (r *Runner) PermsList(ctx context.Context, cmd *cli.Command) error {
	guild := cmd.Int64("guild")
	level, err := parseLevelArg(cmd, 0)
	if err != nil {
		return err
	}

	return r.withPerms(ctx, func(repo *repositories.PermRepository) error {
		perms, err := repo.ListByLevel(ctx, guild, level)
		if err != nil {
			return err
		}

		if cmd.Bool("json") {
			if perms == nil {
				perms = []models.Permission{}
			}
			return r.writeJSON(perms, true)
		}

		if len(perms) == 0 {
			r.writePlain("Nobody is %s in guild %d\n", level, guild)
			return nil
		}
		r.writePlainHeader(fmt.Sprintf("%s (%d)", level, len(perms)))
		for _, p := range perms {
			r.writePlain("%d\t%s\n", p.UserID, p.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	})
}

// PermsRemove deletes a user's tier.
func (r *Runner) PermsRemove(ctx context.Context, cmd *cli.Command) error {
	guild := cmd.Int64("guild")
	user, err := parseUserArg(cmd, 0)
	if err != nil {
		return err
	}

	return r.withPerms(ctx, func(repo *repositories.PermRepository) error {
		if _, err := repo.DeleteUser(ctx, guild, user); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				r.writePlain("%d has no permissions in guild %d\n", user, guild)
				return nil
			}
			return err
		}
		r.writePlain("✓ Removed permissions for %d\n", user)
		return nil
	})
}

// PermsPurge deletes every tier in the guild.
func (r *Runner) PermsPurge(ctx context.Context, cmd *cli.Command) error {
	guild := cmd.Int64("guild")

	return r.withPerms(ctx, func(repo *repositories.PermRepository) error {
		existed, err := repo.DeleteGuild(ctx, guild)
		if err != nil {
			return err
		}
		if !existed {
			r.writePlain("Guild %d has no permissions\n", guild)
			return nil
		}
		r.logger.Warn("purged guild permissions", "guild", guild)
		r.writePlain("✓ Purged permissions for guild %d\n", guild)
		return nil
	})
}

// PermsCopy copies every tier from a source guild into --guild in one transaction.
// Tiers already set in the target guild are overwritten.
func (r *Runner) PermsCopy(ctx context.Context, cmd *cli.Command) error {
	target := cmd.Int64("guild")
	raw := strings.TrimSpace(cmd.Args().Get(0))
	if raw == "" {
		return fmt.Errorf("%w: source guild", shared.ErrMissingArgument)
	}
	source, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: source guild %q", shared.ErrInvalidArgument, raw)
	}
	if source == target {
		return fmt.Errorf("%w: source and target guild are both %d", shared.ErrInvalidArgument, target)
	}

	db, err := r.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	copied := 0
	err = repositories.InTx(ctx, db, func(tx *sql.Tx) error {
		repo := repositories.NewPermRepository(db).WithTx(tx)
		for _, level := range []models.PermLevel{models.PermUser, models.PermDJ, models.PermAdmin} {
			perms, err := repo.ListByLevel(ctx, source, level)
			if err != nil {
				return err
			}
			for _, p := range perms {
				if _, err := repo.Set(ctx, target, p.UserID, p.Level); err != nil {
					return err
				}
				copied++
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to copy permissions: %w", err)
	}

	r.logger.Info("copied permissions", "from", source, "to", target, "count", copied)
	r.writePlain("✓ Copied %d permissions from guild %d to guild %d\n", copied, source, target)
	return nil
}
