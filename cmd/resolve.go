package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh/spinner"
	"github.com/desertthunder/jukebox/internal/formatter"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
	"github.com/desertthunder/jukebox/internal/tasks"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
)

// Resolve resolves one reference and renders it to stdout or a file.
func (r *Runner) Resolve(ctx context.Context, cmd *cli.Command) error {
	reference := strings.TrimSpace(cmd.StringArg("reference"))
	if reference == "" {
		return fmt.Errorf("%w: playlist reference", shared.ErrMissingArgument)
	}

	source, err := models.ParseSource(cmd.String("source"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	// Preview never consults perms or the player
	engine := r.newEngine(nil)
	var res *models.PlaylistResolution
	preview := func(ctx context.Context) error {
		var err error
		res, err = engine.Preview(ctx, source, reference)
		return err
	}

	if r.interactive() {
		err = spinner.New().Title(fmt.Sprintf("Resolving %s...", reference)).Context(ctx).ActionWithErr(preview).Run()
	} else {
		err = preview(ctx)
	}
	if err != nil {
		r.logger.Error("failed to resolve playlist", "reference", reference, "error", err)
		return fmt.Errorf("%s: %w", tasks.UserMessage(err), err)
	}

	if output := cmd.String("output"); output != "" {
		path, err := formatter.WriteExport(res, format, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Wrote %d tracks to %s\n", res.Len(), path)
		return nil
	}

	data, err := formatter.Render(res, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// interactive reports whether output is a terminal that can show a spinner.
func (r *Runner) interactive() bool {
	f, ok := r.output.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}
