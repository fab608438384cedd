// package formatter renders a resolved playlist as plain text, Markdown, CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
)

// Format names accepted by [Render].
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatJSON     = "json"
)

// Formats lists every supported format name.
var Formats = []string{FormatText, FormatMarkdown, FormatCSV, FormatJSON}

// ParseFormat normalizes a format name, accepting "md" and "txt" as aliases.
func ParseFormat(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", FormatText, "txt":
		return FormatText, nil
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (expected one of %s)", shared.ErrInvalidArgument, name, strings.Join(Formats, ", "))
	}
}

// Extension returns the file extension used for format, including the dot.
func Extension(format string) string {
	switch format {
	case FormatMarkdown:
		return ".md"
	case FormatCSV:
		return ".csv"
	case FormatJSON:
		return ".json"
	default:
		return ".txt"
	}
}

// Render converts res to the named format.
func Render(res *models.PlaylistResolution, format string) ([]byte, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}

	switch f {
	case FormatMarkdown:
		return ExportToMarkdown(res)
	case FormatCSV:
		return ExportToCSV(res)
	case FormatJSON:
		return shared.MarshalJSON(res, true)
	default:
		return ExportToText(res)
	}
}

// ExportToCSV converts a resolution to CSV with columns: Position, Title, Artists, Reference
//
// Artists are joined with "; " so names containing commas survive.
func ExportToCSV(res *models.PlaylistResolution) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Title", "Artists", "Reference"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range res.Tracks {
		record := []string{
			strconv.Itoa(i + 1),
			track.Title,
			strings.Join(track.Artists, "; "),
			track.Reference,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a resolution to Markdown. URL references become links.
func ExportToMarkdown(res *models.PlaylistResolution) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Playlist `%s`\n\n", res.Reference))
	buf.WriteString(fmt.Sprintf("**Source**: %s\n", res.Source))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", res.Len()))

	buf.WriteString("## Tracks\n\n")
	for i, track := range res.Tracks {
		if isURL(track.Reference) {
			buf.WriteString(fmt.Sprintf("%d. [%s](%s)\n", i+1, track.Label(), track.Reference))
			continue
		}
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, track.Label()))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a resolution to plain text
func ExportToText(res *models.PlaylistResolution) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", res.Reference))
	buf.WriteString(fmt.Sprintf("Source: %s\n", res.Source))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", res.Len()))

	for i, track := range res.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, track.Label()))
	}

	return buf.Bytes(), nil
}

// WriteExport renders res and writes it to path.
//
// Defaults to {source}_{reference}{ext} in the working directory when path is empty.
func WriteExport(res *models.PlaylistResolution, format, path string) (string, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = FileName(res, f)
	}

	data, err := Render(res, f)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", f, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}

	return path, nil
}

// FileName builds a filesystem-safe name for res in format.
func FileName(res *models.PlaylistResolution, format string) string {
	return fmt.Sprintf("%s_%s%s", res.Source, sanitize(res.Reference), Extension(format))
}

// WriteManifest writes v as indented JSON to path.
func WriteManifest(v any, path string) error {
	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}

// sanitize keeps ASCII letters, digits, '-' and '_', replacing everything else.
func sanitize(s string) string {
	if i := strings.Index(s, "list="); i >= 0 {
		s = s[i+len("list="):]
		if j := strings.IndexByte(s, '&'); j >= 0 {
			s = s[:j]
		}
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	out := b.String()
	if len(out) > 64 {
		out = out[:64]
	}
	if out == "" {
		out = "playlist"
	}
	return out
}
