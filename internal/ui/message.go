package ui

import (
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/tasks"
)

type resolvedMsg struct {
	resolution *models.PlaylistResolution
	err        error
}

type progressUpdateMsg tasks.ProgressUpdate

type queueCompleteMsg struct {
	result *tasks.QueueResult
	err    error
}
