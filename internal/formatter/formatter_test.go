package formatter

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
	th "github.com/desertthunder/jukebox/internal/testing"
)

func spotifyResolution() *models.PlaylistResolution {
	a, _ := models.NewSearchTrack("Song One", []string{"Artist, Jr.", "Guest"})
	b, _ := models.NewSearchTrack("Song Two", nil)
	return &models.PlaylistResolution{
		Source:    models.SourceSpotify,
		Reference: "37i9dQZF1DXcBWIGoYBM5M",
		Tracks:    []models.Track{a, b},
	}
}

func youtubeResolution() *models.PlaylistResolution {
	return &models.PlaylistResolution{
		Source:    models.SourceYouTube,
		Reference: "https://www.youtube.com/playlist?list=PL123&si=x",
		Tracks:    th.URLTracks("https://www.youtube.com/watch?v=a", "https://www.youtube.com/watch?v=b"),
	}
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(spotifyResolution())
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "Position,Title,Artists,Reference\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, `1,Song One,"Artist, Jr.; Guest","Artist, Jr., Guest – Song One"`) {
			t.Errorf("CSV missing quoted first row, got: %s", output)
		}
		if !strings.Contains(output, "2,Song Two,,Song Two") {
			t.Errorf("CSV missing artistless row, got: %s", output)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		t.Run("Search Tracks", func(t *testing.T) {
			data, err := ExportToMarkdown(spotifyResolution())
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}

			output := string(data)
			for _, want := range []string{
				"# Playlist `37i9dQZF1DXcBWIGoYBM5M`",
				"**Source**: spotify",
				"**Tracks**: 2",
				"1. Artist, Jr., Guest – Song One",
				"2. Song Two",
			} {
				if !strings.Contains(output, want) {
					t.Errorf("markdown missing %q, got: %s", want, output)
				}
			}
		})

		t.Run("URL Tracks Become Links", func(t *testing.T) {
			data, err := ExportToMarkdown(youtubeResolution())
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}
			if !strings.Contains(string(data), "1. [https://www.youtube.com/watch?v=a](https://www.youtube.com/watch?v=a)") {
				t.Errorf("expected link, got: %s", data)
			}
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(youtubeResolution())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		want := "Playlist: https://www.youtube.com/playlist?list=PL123&si=x\n" +
			"Source: youtube\n" +
			"Tracks: 2\n\n" +
			"1. https://www.youtube.com/watch?v=a\n" +
			"2. https://www.youtube.com/watch?v=b\n"
		if string(data) != want {
			t.Errorf("expected %q, got %q", want, data)
		}
	})

	t.Run("Render JSON", func(t *testing.T) {
		data, err := Render(spotifyResolution(), FormatJSON)
		if err != nil {
			t.Fatalf("Render failed: %v", err)
		}

		var decoded struct {
			Source string         `json:"source"`
			Tracks []models.Track `json:"tracks"`
		}
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Source != "spotify" {
			t.Errorf("expected source by name, got %q", decoded.Source)
		}
		if len(decoded.Tracks) != 2 || decoded.Tracks[0].Artists[1] != "Guest" {
			t.Errorf("unexpected tracks %+v", decoded.Tracks)
		}
	})

	t.Run("Empty Resolution", func(t *testing.T) {
		res := &models.PlaylistResolution{Source: models.SourceYouTube, Reference: "x", Tracks: []models.Track{}}
		for _, f := range Formats {
			if _, err := Render(res, f); err != nil {
				t.Errorf("%s: expected no error, got %v", f, err)
			}
		}
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", FormatText},
		{"txt", FormatText},
		{"MD", FormatMarkdown},
		{"markdown", FormatMarkdown},
		{" csv ", FormatCSV},
		{"json", FormatJSON},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}

	t.Run("Unknown", func(t *testing.T) {
		if _, err := ParseFormat("yaml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if _, err := Render(spotifyResolution(), "yaml"); err == nil {
			t.Error("expected Render to reject unknown format")
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteExport", func(t *testing.T) {
		t.Run("WithCustomPath", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "out.csv")

			got, err := WriteExport(spotifyResolution(), FormatCSV, path)
			if err != nil {
				t.Fatalf("WriteExport failed: %v", err)
			}
			if got != path {
				t.Errorf("expected %s, got %s", path, got)
			}
			if content := th.MustReadFile(t, path); !strings.Contains(content, "Song Two") {
				t.Errorf("unexpected file content: %s", content)
			}
		})

		t.Run("WithDefaultPath", func(t *testing.T) {
			t.Chdir(t.TempDir())

			got, err := WriteExport(youtubeResolution(), FormatMarkdown, "")
			if err != nil {
				t.Fatalf("WriteExport failed: %v", err)
			}
			if got != "youtube_PL123.md" {
				t.Errorf("expected youtube_PL123.md, got %s", got)
			}
			th.AssertFileExists(t, got)
		})

		t.Run("Unwritable", func(t *testing.T) {
			dir := t.TempDir()
			blocker := filepath.Join(dir, "file")
			if err := os.WriteFile(blocker, nil, 0644); err != nil {
				t.Fatal(err)
			}

			if _, err := WriteExport(spotifyResolution(), FormatText, filepath.Join(blocker, "out.txt")); err == nil {
				t.Error("expected error writing beneath a regular file")
			}
		})
	})

	t.Run("FileName", func(t *testing.T) {
		if got := FileName(spotifyResolution(), FormatJSON); got != "spotify_37i9dQZF1DXcBWIGoYBM5M.json" {
			t.Errorf("unexpected name %s", got)
		}

		odd := &models.PlaylistResolution{Source: models.SourceYouTube, Reference: "https://youtu.be/x y"}
		if got := FileName(odd, FormatText); got != "youtube_https___youtu_be_x_y.txt" {
			t.Errorf("unexpected name %s", got)
		}
	})

	t.Run("WriteManifest", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "manifest.json")
		if err := WriteManifest(map[string]int{"total": 2}, path); err != nil {
			t.Fatalf("WriteManifest failed: %v", err)
		}
		if content := th.MustReadFile(t, path); !strings.Contains(content, `"total": 2`) {
			t.Errorf("unexpected manifest: %s", content)
		}

		if err := WriteManifest(make(chan int), path); err == nil {
			t.Error("expected marshal error")
		}
	})
}
