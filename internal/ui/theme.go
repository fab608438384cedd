package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/jukebox/internal/models"
)

var (
	accent  = lipgloss.AdaptiveColor{Light: "#5A3FD6", Dark: "#7D56F4"}
	good    = lipgloss.AdaptiveColor{Light: "#028A55", Dark: "#04B575"}
	bad     = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#FF5F5F"}
	caution = lipgloss.AdaptiveColor{Light: "#B26A00", Dark: "#FFA500"}
	subtle  = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#626262"}
)

// sourceColors tints playlist badges by provider.
var sourceColors = map[models.Source]lipgloss.Color{
	models.SourceYouTube: lipgloss.Color("#CC0000"),
	models.SourceSpotify: lipgloss.Color("#1DB954"),
}

var theme = struct {
	heading lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	notice  lipgloss.Style
	muted   lipgloss.Style
}{
	heading: lipgloss.NewStyle().Foreground(accent).Bold(true).MarginBottom(1),
	success: lipgloss.NewStyle().Foreground(good).Bold(true),
	failure: lipgloss.NewStyle().Foreground(bad).Bold(true),
	notice:  lipgloss.NewStyle().Foreground(caution),
	muted:   lipgloss.NewStyle().Foreground(subtle).Italic(true),
}

// badge is the list title style for a playlist from source.
func badge(source models.Source) lipgloss.Style {
	bg, ok := sourceColors[source]
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Padding(0, 1)
	if !ok {
		return style.Background(accent)
	}
	return style.Background(bg)
}
