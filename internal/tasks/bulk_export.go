package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/desertthunder/jukebox/internal/formatter"
	"github.com/desertthunder/jukebox/internal/services"
	"github.com/desertthunder/jukebox/internal/shared"
	"golang.org/x/time/rate"
)

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     string  // Export format: text, markdown, csv, json
	OutputDir  string  // Base output directory (default: jukebox_export_{epoch})
	NumWorkers int     // Concurrent workers (default: 4)
	RateLimit  float64 // Resolutions started per second (default: 2)
}

// PlaylistExportResult is the outcome of exporting one reference.
type PlaylistExportResult struct {
	Index     int    `json:"index"`
	Reference string `json:"reference"`
	Source    string `json:"source,omitempty"`
	Tracks    int    `json:"tracks"`
	File      string `json:"file,omitempty"`
	Success   bool   `json:"success"`
	ErrorKind string `json:"error_kind,omitempty"`
	Message   string `json:"error,omitempty"`
	Err       error  `json:"-"`
}

// BulkExportResult summarizes a bulk export and is written as its manifest.
type BulkExportResult struct {
	TotalPlaylists    int                    `json:"total_playlists"`
	SuccessfulExports int                    `json:"successful_exports"`
	FailedExports     int                    `json:"failed_exports"`
	OutputDirectory   string                 `json:"output_directory"`
	ManifestPath      string                 `json:"-"`
	Results           []PlaylistExportResult `json:"results"`
}

type exportJob struct {
	index     int
	reference string
}

// BulkExport resolves many references concurrently and writes each resolution to its own file.
//
// A worker pool resolves through the engine's resolver; failures are recorded per reference and do not stop the batch.
// Results are ordered by input position and summarized in export_manifest.json.
func (e *QueueEngine) BulkExport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	refs []string,
	opts BulkExportOpts,
) (*BulkExportResult, error) {
	if e.resolver == nil {
		return nil, fmt.Errorf("%w: resolver not initialized", shared.ErrServiceUnavailable)
	}

	format, err := formatter.ParseFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	opts.Format = format

	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("jukebox_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 2.0
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalPlaylists:  len(refs),
		OutputDirectory: opts.OutputDir,
		Results:         make([]PlaylistExportResult, 0, len(refs)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan exportJob, len(refs))
	results := make(chan PlaylistExportResult, len(refs))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, ref := range refs {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			e.sendProgress(prog, exportingPlaylistUpdate(i+1, len(refs), ref))
			jobs <- exportJob{index: i, reference: ref}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(refs), res.Reference, res.Tracks))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(completed, len(refs), res.Reference, res.Err))
		}
	}

	sort.Slice(result.Results, func(i, j int) bool {
		return result.Results[i].Index < result.Results[j].Index
	})

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("export interrupted after %d of %d playlists: %w", completed, len(refs), err)
	}

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker is a worker goroutine that resolves and writes references from the jobs channel.
func (e *QueueEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan exportJob,
	results chan<- PlaylistExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- e.exportSinglePlaylist(ctx, job, opts)
	}
}

// exportSinglePlaylist resolves one reference and writes it in the requested format.
func (e *QueueEngine) exportSinglePlaylist(ctx context.Context, j exportJob, opts BulkExportOpts) PlaylistExportResult {
	result := PlaylistExportResult{Index: j.index, Reference: j.reference}

	fail := func(err error) PlaylistExportResult {
		result.Err = err
		result.Message = err.Error()
		if kind := services.KindOf(err); kind != services.KindUnknown {
			result.ErrorKind = kind.String()
		}
		return result
	}

	res, err := e.resolver.Resolve(ctx, j.reference)
	if err != nil {
		return fail(err)
	}
	result.Source = res.Source.String()
	result.Tracks = res.Len()

	name := fmt.Sprintf("%03d_%s", j.index+1, formatter.FileName(res, opts.Format))
	path, err := formatter.WriteExport(res, opts.Format, filepath.Join(opts.OutputDir, name))
	if err != nil {
		return fail(err)
	}

	result.File = path
	result.Success = true
	return result
}
