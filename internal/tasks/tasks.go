package tasks

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
)

// PlaylistResolver resolves references into playlists. Implemented by services.Dispatcher.
type PlaylistResolver interface {
	Resolve(ctx context.Context, reference string) (*models.PlaylistResolution, error)
	ResolveAs(ctx context.Context, source models.Source, reference string) (*models.PlaylistResolution, error)
}

// PermStore reads and writes permission tiers. Implemented by repositories.PermRepository.
type PermStore interface {
	Level(ctx context.Context, guildID, userID int64) (models.PermLevel, error)
	Set(ctx context.Context, guildID, userID int64, level models.PermLevel) (models.PermLevel, error)
	DeleteUser(ctx context.Context, guildID, userID int64) (int64, error)
	ListByLevel(ctx context.Context, guildID int64, level models.PermLevel) ([]models.Permission, error)
}

// Request identifies who issued a command and where.
type Request struct {
	ID      string // Correlates log lines for one command
	GuildID int64
	UserID  int64
}

// NewRequest creates a [Request] with a fresh ID.
func NewRequest(guildID, userID int64) Request {
	return Request{ID: shared.GenerateID(), GuildID: guildID, UserID: userID}
}

// QueueResult contains the outcome of queueing a playlist.
type QueueResult struct {
	RequestID   string
	Resolution  *models.PlaylistResolution // Resolved playlist
	Queued      int                        // Tracks handed to the player
	QueueLength int                        // Queue length after enqueueing
	Elapsed     time.Duration
}

// EngineOpts configures a [QueueEngine].
type EngineOpts struct {
	Resolver PlaylistResolver
	Perms    PermStore
	Player   Player
	Prefix   string // Chat command prefix, "!" when empty
	Logger   *log.Logger
}

// QueueEngine runs commands on behalf of guild members.
type QueueEngine struct {
	resolver PlaylistResolver
	perms    PermStore
	player   Player
	prefix   string
	logger   *log.Logger
}

// NewQueueEngine creates a new QueueEngine with the provided collaborators.
func NewQueueEngine(opts EngineOpts) *QueueEngine {
	e := &QueueEngine{
		resolver: opts.Resolver,
		perms:    opts.Perms,
		player:   opts.Player,
		prefix:   opts.Prefix,
		logger:   opts.Logger,
	}
	if e.prefix == "" {
		e.prefix = "!"
	}
	if e.logger == nil {
		e.logger = log.Default()
	}
	return e
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *QueueEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func (e *QueueEngine) requestLogger(req Request) *log.Logger {
	return shared.WithLogger(e.logger, "request_id", req.ID, "guild", req.GuildID, "user", req.UserID)
}

// authorize fails with [shared.ErrPermissionDenied] unless the requester holds at least required.
func (e *QueueEngine) authorize(ctx context.Context, req Request, required models.PermLevel) error {
	if e.perms == nil {
		return fmt.Errorf("%w: permission store not initialized", shared.ErrServiceUnavailable)
	}

	level, err := e.perms.Level(ctx, req.GuildID, req.UserID)
	if err != nil {
		return fmt.Errorf("failed to look up permission: %w", err)
	}

	if !level.Allows(required) {
		return fmt.Errorf("%w: requires %s, have %s", shared.ErrPermissionDenied, required, level)
	}
	return nil
}

// QueuePlaylist resolves reference and hands every track's reference to the player in order.
//
// An unknown source classifies the reference first. Resolution errors are returned unwrapped.
func (e *QueueEngine) QueuePlaylist(
	ctx context.Context,
	req Request,
	source models.Source,
	reference string,
	progress chan<- ProgressUpdate,
) (*QueueResult, error) {
	if e.resolver == nil || e.player == nil {
		return nil, fmt.Errorf("%w: resolver or player not initialized", shared.ErrServiceUnavailable)
	}

	logger := e.requestLogger(req)
	start := time.Now()

	e.sendProgress(progress, checkPermissionUpdate(models.PermUser))
	if err := e.authorize(ctx, req, models.PermUser); err != nil {
		return nil, err
	}

	e.sendProgress(progress, resolvingUpdate(source, reference))

	res, err := e.Preview(ctx, source, reference)
	if err != nil {
		logger.Warn("failed to resolve playlist", "reference", reference, "error", err)
		return nil, err
	}
	e.sendProgress(progress, resolvedUpdate(res))

	return e.enqueue(ctx, req, res, start, progress)
}

// QueueResolved hands an already resolved playlist to the player, so a previewed
// playlist is queued exactly as shown without resolving it again.
func (e *QueueEngine) QueueResolved(
	ctx context.Context,
	req Request,
	res *models.PlaylistResolution,
	progress chan<- ProgressUpdate,
) (*QueueResult, error) {
	if e.player == nil {
		return nil, fmt.Errorf("%w: player not initialized", shared.ErrServiceUnavailable)
	}
	if res == nil {
		return nil, fmt.Errorf("%w: resolution", shared.ErrMissingArgument)
	}

	start := time.Now()
	e.sendProgress(progress, checkPermissionUpdate(models.PermUser))
	if err := e.authorize(ctx, req, models.PermUser); err != nil {
		return nil, err
	}

	return e.enqueue(ctx, req, res, start, progress)
}

func (e *QueueEngine) enqueue(
	ctx context.Context,
	req Request,
	res *models.PlaylistResolution,
	start time.Time,
	progress chan<- ProgressUpdate,
) (*QueueResult, error) {
	result := &QueueResult{RequestID: req.ID, Resolution: res}
	if res.Len() > 0 {
		e.sendProgress(progress, enqueueUpdate(res.Len()))

		n, err := e.player.Enqueue(ctx, req.GuildID, res.References())
		if err != nil {
			return nil, err
		}
		result.Queued = res.Len()
		result.QueueLength = n
	}

	result.Elapsed = time.Since(start)
	e.requestLogger(req).Info("queued playlist", "source", res.Source, "tracks", result.Queued, "queue", result.QueueLength)
	return result, nil
}

// Preview resolves a reference without checking permissions or touching the player.
func (e *QueueEngine) Preview(ctx context.Context, source models.Source, reference string) (*models.PlaylistResolution, error) {
	if e.resolver == nil {
		return nil, fmt.Errorf("%w: resolver not initialized", shared.ErrServiceUnavailable)
	}
	if source == models.SourceUnknown {
		return e.resolver.Resolve(ctx, reference)
	}
	return e.resolver.ResolveAs(ctx, source, reference)
}

// Stop clears the guild's queue. Requires DJ.
func (e *QueueEngine) Stop(ctx context.Context, req Request) error {
	if err := e.authorize(ctx, req, models.PermDJ); err != nil {
		return err
	}
	if err := e.player.Stop(ctx, req.GuildID); err != nil {
		return err
	}
	e.requestLogger(req).Info("queue cleared")
	return nil
}

// Volume reports the current volume as a 0-100 percentage, or sets it when volume is non-nil.
//
// Reading requires user, setting requires DJ and a value from 0 to 100.
func (e *QueueEngine) Volume(ctx context.Context, req Request, volume *int) (int, error) {
	if volume == nil {
		if err := e.authorize(ctx, req, models.PermUser); err != nil {
			return 0, err
		}
		v, err := e.player.Volume(ctx, req.GuildID)
		if err != nil {
			return 0, err
		}
		return int(math.Round(float64(v) * 100)), nil
	}

	if err := e.authorize(ctx, req, models.PermDJ); err != nil {
		return 0, err
	}
	if *volume < 0 || *volume > 100 {
		return 0, fmt.Errorf("%w: volume must be from 0 to 100, got %d", shared.ErrInvalidArgument, *volume)
	}
	if err := e.player.SetVolume(ctx, req.GuildID, float32(*volume)/100); err != nil {
		return 0, err
	}

	e.requestLogger(req).Info("volume set", "volume", *volume)
	return *volume, nil
}

// SetPermission stores a tier for target. Requires admin.
func (e *QueueEngine) SetPermission(ctx context.Context, req Request, target int64, level models.PermLevel) (models.PermLevel, error) {
	if err := e.authorize(ctx, req, models.PermAdmin); err != nil {
		return models.PermNone, err
	}
	stored, err := e.perms.Set(ctx, req.GuildID, target, level)
	if err != nil {
		return models.PermNone, err
	}
	e.requestLogger(req).Info("permission set", "target", target, "level", stored)
	return stored, nil
}

// GetPermission reports target's tier. Any member may look it up.
func (e *QueueEngine) GetPermission(ctx context.Context, req Request, target int64) (models.PermLevel, error) {
	if e.perms == nil {
		return models.PermNone, fmt.Errorf("%w: permission store not initialized", shared.ErrServiceUnavailable)
	}
	return e.perms.Level(ctx, req.GuildID, target)
}

// RemovePermission deletes target's stored tier. Requires admin.
func (e *QueueEngine) RemovePermission(ctx context.Context, req Request, target int64) error {
	if err := e.authorize(ctx, req, models.PermAdmin); err != nil {
		return err
	}
	if _, err := e.perms.DeleteUser(ctx, req.GuildID, target); err != nil {
		return err
	}
	e.requestLogger(req).Info("permission removed", "target", target)
	return nil
}

// ListPermissions lists the guild's members holding exactly level. Requires admin.
func (e *QueueEngine) ListPermissions(ctx context.Context, req Request, level models.PermLevel) ([]models.Permission, error) {
	if err := e.authorize(ctx, req, models.PermAdmin); err != nil {
		return nil, err
	}
	return e.perms.ListByLevel(ctx, req.GuildID, level)
}
