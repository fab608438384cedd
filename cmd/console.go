package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/jukebox/internal/repositories"
	"github.com/desertthunder/jukebox/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Console reads chat messages from the runner's input and prints each reply.
//
// The in-memory player joins the guild first so play commands have somewhere to queue.
func (r *Runner) Console(ctx context.Context, cmd *cli.Command) error {
	guild := cmd.Int64("guild")
	user := cmd.Int64("user")

	return r.withPerms(ctx, func(repo *repositories.PermRepository) error {
		r.player.Join(guild)
		defer r.player.Leave(guild)

		return r.runConsole(ctx, r.newEngine(repo), guild, user)
	})
}

func (r *Runner) runConsole(ctx context.Context, engine *tasks.QueueEngine, guild, user int64) error {
	r.writePlain("Connected to guild %d as user %d. Type %shelp for commands, quit to exit.\n", guild, user, r.config.Bot.Prefix)

	scanner := bufio.NewScanner(r.input)
	for {
		r.writePlain("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "quit", "exit":
			return nil
		}

		reply := engine.Handle(ctx, tasks.Message{GuildID: guild, UserID: user, Content: line})
		if reply == "" {
			continue
		}
		r.writePlain("%s\n", reply)

		if err := ctx.Err(); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}
