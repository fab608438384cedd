// Package testing holds test doubles shared by the jukebox packages.
package testing

import (
	"context"
	"errors"
		"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/jukebox/internal/models"
)

// MockResolver is a test double for services.Resolver
//
// It returns Tracks (or Err) and records every reference it was asked for.
type MockResolver struct {
	Provider string
	Tracks   []models.Track
	Err      error

	mu    sync.Mutex
	calls []string
}

func (m *MockResolver) Resolve(ctx context.Context, reference string) ([]models.Track, error) {
	m.mu.Lock()
	m.calls = append(m.calls, reference)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]models.Track(nil), m.Tracks...), nil
}

func (m *MockResolver) Name() string {
	if m.Provider == "" {
		return "mock"
	}
	return m.Provider
}

// Calls returns the references passed to Resolve, in call order.
func (m *MockResolver) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// URLTracks builds YouTube-style tracks for each url.
func URLTracks(urls ...string) []models.Track {
	tracks := make([]models.Track, 0, len(urls))
	for _, u := range urls {
		if t, ok := models.NewURLTrack(u); ok {
			tracks = append(tracks, t)
		}
	}
	return tracks
}

// FWriter fails every write.
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper answers every request with the same response or error.
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser is a response body whose reads fail.
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
