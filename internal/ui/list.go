package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/jukebox/internal/models"
)

var _ list.Item = trackItem{}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	position int
	track    models.Track
}

func (i trackItem) FilterValue() string { return i.track.Reference }

func (i trackItem) Title() string {
	if i.track.Title == "" {
		return fmt.Sprintf("%d. %s", i.position, i.track.Reference)
	}
	return fmt.Sprintf("%d. %s", i.position, i.track.Title)
}

func (i trackItem) Description() string {
	if len(i.track.Artists) == 0 {
		if i.track.Title == "" {
			return "direct link"
		}
		return "no artists"
	}
	return strings.Join(i.track.Artists, ", ")
}

func trackItems(tracks []models.Track) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{position: i + 1, track: t}
	}
	return items
}
