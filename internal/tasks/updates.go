package tasks

import (
	"fmt"

	"github.com/desertthunder/jukebox/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	CheckPermission Phase = iota
	ResolvePlaylist
	EnqueueTracks
	ExportPlaylist
)

func (p Phase) String() string {
	switch p {
	case CheckPermission:
		return "check_permission"
	case ResolvePlaylist:
		return "resolve_playlist"
	case EnqueueTracks:
		return "enqueue_tracks"
	case ExportPlaylist:
		return "export_playlist"
	default:
		return ""
	}
}

func checkPermissionUpdate(required models.PermLevel) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CheckPermission,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Checking for %s permission...", required),
	}
}

func resolvingUpdate(source models.Source, reference string) ProgressUpdate {
	msg := fmt.Sprintf("Resolving %s...", reference)
	if source != models.SourceUnknown {
		msg = fmt.Sprintf("Resolving %s playlist %s...", source, reference)
	}
	return ProgressUpdate{
		Phase:   ResolvePlaylist,
		Step:    1,
		Total:   1,
		Message: msg,
	}
}

func resolvedUpdate(res *models.PlaylistResolution) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolvePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d tracks", res.Len()),
		Data:    res,
	}
}

func enqueueUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   EnqueueTracks,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Queueing %d tracks...", total),
	}
}

func exportingPlaylistUpdate(step, total int, reference string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Resolving: %s...", step, total, reference),
	}
}

func exportCompletedUpdate(step, total int, reference string, tracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d tracks)", step, total, reference, tracks),
	}
}

func exportFailedUpdate(step, total int, reference string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, reference, err),
	}
}
