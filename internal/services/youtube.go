package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jukebox/internal/models"
)

// DefaultYouTubeBinary is the flat playlist enumerator looked up on PATH.
const DefaultYouTubeBinary = "yt-dlp"

var (
	errInvalidUTF8 = errors.New("output is not valid UTF-8")
	errMissingURL  = errors.New("record has no url field")
)

// CommandResult is the captured outcome of a finished process.
type CommandResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// CommandRunner runs a process to completion.
//
// A non-zero exit is reported through [CommandResult.ExitCode], not as an error.
// The returned error is reserved for processes that could not be run at all.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (*CommandResult, error)
}

// ExecRunner runs commands with os/exec. Env entries are appended to the current environment.
type ExecRunner struct {
	Env []string
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) (*CommandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &CommandResult{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
		if result.ExitCode == 0 {
			result.ExitCode = -1
		}
	default:
		return result, err
	}
	return result, nil
}

// RecordPolicy decides what happens to a flat playlist line that does not parse.
type RecordPolicy int

const (
	// FailFast aborts the whole resolution on the first malformed line.
	FailFast RecordPolicy = iota
	// SkipMalformed logs the line and keeps going.
	SkipMalformed
)

func (p RecordPolicy) String() string {
	if p == SkipMalformed {
		return "skip_malformed"
	}
	return "fail_fast"
}

type flatEntry struct {
	URL *string `json:"url"`
}

// YouTubeOpts configures a [YouTubeAdapter]. Zero values select defaults.
type YouTubeOpts struct {
	Runner CommandRunner
	Binary string
	Args   []string // Placed before the fixed enumerator flags
	Policy RecordPolicy
	Logger *log.Logger
}

// YouTubeAdapter enumerates a YouTube playlist by running a flat playlist dump.
type YouTubeAdapter struct {
	runner CommandRunner
	binary string
	args   []string
	policy RecordPolicy
	logger *log.Logger
}

func NewYouTubeAdapter(opts YouTubeOpts) *YouTubeAdapter {
	y := &YouTubeAdapter{
		runner: opts.Runner,
		binary: opts.Binary,
		args:   opts.Args,
		policy: opts.Policy,
		logger: opts.Logger,
	}
	if y.runner == nil {
		y.runner = ExecRunner{}
	}
	if y.binary == "" {
		y.binary = DefaultYouTubeBinary
	}
	if y.logger == nil {
		y.logger = log.Default()
	}
	return y
}

func (y *YouTubeAdapter) Name() string { return "YouTube" }

// Args returns the full argument list passed to the enumerator for url.
func (y *YouTubeAdapter) Args(url string) []string {
	args := make([]string, 0, len(y.args)+4)
	args = append(args, y.args...)
	return append(args, "-j", "--flat-playlist", "--", url)
}

// Resolve runs the enumerator for url and returns one track per entry, in output order.
func (y *YouTubeAdapter) Resolve(ctx context.Context, url string) ([]models.Track, error) {
	y.logger.Debug("running flat playlist dump", "binary", y.binary, "url", url)

	result, err := y.runner.Run(ctx, y.binary, y.Args(url)...)
	if err != nil {
		toolErr := &ExternalToolError{Command: y.binary, ExitCode: -1, Err: err}
		if result != nil {
			toolErr.Stderr = result.Stderr
		}
		return nil, toolErr
	}

	if result.ExitCode != 0 {
		return nil, &ExternalToolError{
			Command:  y.binary,
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
			Err:      ctx.Err(),
		}
	}

	return ParseFlatPlaylist(result.Stdout, y.policy, y.logger)
}

// ParseFlatPlaylist turns line-delimited flat playlist records into tracks.
//
// Blank lines are ignored. A record whose url is blank yields no track.
func ParseFlatPlaylist(out []byte, policy RecordPolicy, logger *log.Logger) ([]models.Track, error) {
	if !utf8.Valid(out) {
		return nil, &DeserializationError{Source: "flat playlist", Body: out, Err: errInvalidUTF8}
	}
	if logger == nil {
		logger = log.Default()
	}

	tracks := []models.Track{}
	for i, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var entry flatEntry
		err := json.Unmarshal([]byte(line), &entry)
		if err == nil && entry.URL == nil {
			err = errMissingURL
		}

		if err != nil {
			decodeErr := &DeserializationError{Source: "flat playlist", Line: i + 1, Body: []byte(line), Err: err}
			if policy == SkipMalformed {
				logger.Warn("skipping malformed record", "line", i+1, "error", err)
				continue
			}
			return nil, decodeErr
		}

		track, ok := models.NewURLTrack(*entry.URL)
		if !ok {
			logger.Debug("dropping record with blank url", "line", i+1)
			continue
		}
		tracks = append(tracks, track)
	}

	return tracks, nil
}
