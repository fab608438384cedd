package ui

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/services"
	"github.com/desertthunder/jukebox/internal/tasks"
	tu "github.com/desertthunder/jukebox/internal/testing"
)

const (
	testGuild = int64(7)
	testUser  = int64(42)
	playlist  = "https://www.youtube.com/playlist?list=PLui"
)

type staticPerms struct {
	level models.PermLevel
}

func (p staticPerms) Level(context.Context, int64, int64) (models.PermLevel, error) {
	return p.level, nil
}

func (p staticPerms) Set(_ context.Context, _, _ int64, level models.PermLevel) (models.PermLevel, error) {
	return level, nil
}

func (p staticPerms) DeleteUser(context.Context, int64, int64) (int64, error) { return 1, nil }

func (p staticPerms) ListByLevel(context.Context, int64, models.PermLevel) ([]models.Permission, error) {
	return nil, nil
}

func newTestModel(t *testing.T, youtube *tu.MockResolver, level models.PermLevel) (*Model, *tasks.MemoryPlayer) {
	t.Helper()
	logger := log.New(io.Discard)
	player := tasks.NewMemoryPlayer()
	player.Join(testGuild)

	dispatcher := services.NewDispatcher(services.DispatcherOpts{
		YouTube: youtube,
		Spotify: &tu.MockResolver{Provider: "Spotify"},
		Logger:  logger,
	})
	engine := tasks.NewQueueEngine(tasks.EngineOpts{
		Resolver: dispatcher,
		Perms:    staticPerms{level: level},
		Player:   player,
		Logger:   logger,
	})
	return NewModel(context.Background(), engine, tasks.Request{ID: "req", GuildID: testGuild, UserID: testUser}, ""), player
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drainQueue feeds progress messages back into the model until the queue completes.
func drainQueue(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	for i := 0; i < 20; i++ {
		msg := cmd()
		_, cmd = m.Update(msg)
		if _, ok := msg.(queueCompleteMsg); ok {
			return
		}
		if cmd == nil {
			t.Fatal("expected a follow-up command while queueing")
		}
	}
	t.Fatal("queue did not complete")
}

func TestModel(t *testing.T) {
	t.Run("NewModel", func(t *testing.T) {
		t.Run("Starts In Input View", func(t *testing.T) {
			m, _ := newTestModel(t, &tu.MockResolver{}, models.PermUser)
			if m.view != InputView {
				t.Errorf("expected InputView, got %v", m.view)
			}
			if m.Init() == nil {
				t.Error("expected blink command")
			}
		})

		t.Run("Initial Reference Starts Resolving", func(t *testing.T) {
			yt := &tu.MockResolver{Tracks: tu.URLTracks("https://v/1")}
			m, _ := newTestModel(t, yt, models.PermUser)
			m.reference = playlist

			if cmd := m.Init(); cmd == nil {
				t.Fatal("expected resolve command")
			}
			if m.view != ResolvingView {
				t.Errorf("expected ResolvingView, got %v", m.view)
			}
		})
	})

	t.Run("Input", func(t *testing.T) {
		t.Run("Typing Then Enter Resolves", func(t *testing.T) {
			m, _ := newTestModel(t, &tu.MockResolver{Tracks: tu.URLTracks("https://v/1")}, models.PermUser)

			m.Update(keyRunes(playlist))
			if m.input.Value() != playlist {
				t.Fatalf("expected input %q, got %q", playlist, m.input.Value())
			}

			_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
			if cmd == nil {
				t.Fatal("expected resolve command")
			}
			if m.view != ResolvingView || m.reference != playlist {
				t.Errorf("expected resolving %q, got view %v ref %q", playlist, m.view, m.reference)
			}
		})

		t.Run("Blank Input Is Ignored", func(t *testing.T) {
			m, _ := newTestModel(t, &tu.MockResolver{}, models.PermUser)
			m.Update(tea.KeyMsg{Type: tea.KeyEnter})
			if m.view != InputView {
				t.Errorf("expected InputView, got %v", m.view)
			}
		})
	})

	t.Run("Resolved", func(t *testing.T) {
		t.Run("Shows Track List", func(t *testing.T) {
			yt := &tu.MockResolver{Tracks: tu.URLTracks("https://v/1", "https://v/2")}
			m, _ := newTestModel(t, yt, models.PermUser)
			m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
			m.Update(m.resolve(playlist)())

			if m.view != TrackListView {
				t.Fatalf("expected TrackListView, got %v", m.view)
			}
			if got := len(m.trackList.Items()); got != 2 {
				t.Errorf("expected 2 items, got %d", got)
			}
			if !strings.Contains(m.View(), "1. https://v/1") {
				t.Error("expected track reference in view")
			}
		})

		t.Run("Error Returns To Input", func(t *testing.T) {
			yt := &tu.MockResolver{Err: &services.ExternalToolError{Command: "yt-dlp", ExitCode: 1}}
			m, _ := newTestModel(t, yt, models.PermUser)
			m.Update(m.resolve(playlist)())

			if m.view != InputView {
				t.Errorf("expected InputView, got %v", m.view)
			}
			if !strings.Contains(m.View(), tasks.UserMessage(m.err)) {
				t.Error("expected user-facing error in view")
			}
		})

		t.Run("Unsupported Reference", func(t *testing.T) {
			m, _ := newTestModel(t, &tu.MockResolver{}, models.PermUser)
			m.Update(m.resolve("https://example.com/nope")())

			if m.err == nil {
				t.Fatal("expected error for unsupported reference")
			}
		})

		t.Run("Empty Playlist Shows Notice", func(t *testing.T) {
			m, _ := newTestModel(t, &tu.MockResolver{}, models.PermUser)
			m.Update(m.resolve(playlist)())

			if m.view != InputView {
				t.Errorf("expected InputView, got %v", m.view)
			}
			if !strings.Contains(m.View(), "That playlist is empty") {
				t.Error("expected empty notice in view")
			}
		})
	})

	t.Run("Confirm", func(t *testing.T) {
		setup := func(t *testing.T) *Model {
			yt := &tu.MockResolver{Tracks: tu.URLTracks("https://v/1", "https://v/2")}
			m, _ := newTestModel(t, yt, models.PermUser)
			m.Update(m.resolve(playlist)())
			m.Update(tea.KeyMsg{Type: tea.KeyEnter})
			return m
		}

		t.Run("Enter Asks For Confirmation", func(t *testing.T) {
			m := setup(t)
			if m.view != ConfirmView {
				t.Fatalf("expected ConfirmView, got %v", m.view)
			}
			if !strings.Contains(m.View(), "Queue 2 tracks") {
				t.Errorf("expected confirmation prompt, got %q", m.View())
			}
		})

		t.Run("No Goes Back", func(t *testing.T) {
			m := setup(t)
			m.Update(keyRunes("n"))
			if m.view != TrackListView {
				t.Errorf("expected TrackListView, got %v", m.view)
			}
		})
	})

	t.Run("Queue", func(t *testing.T) {
		t.Run("Queues Tracks And Shows Result", func(t *testing.T) {
			yt := &tu.MockResolver{Tracks: tu.URLTracks("https://v/1", "https://v/2")}
			m, player := newTestModel(t, yt, models.PermUser)
			m.Update(m.resolve(playlist)())
			m.Update(tea.KeyMsg{Type: tea.KeyEnter})
			yt.Tracks = tu.URLTracks("https://v/changed")

			m.Update(keyRunes("y"))
			if m.view != QueueView {
				t.Fatalf("expected QueueView, got %v", m.view)
			}
			drainQueue(t, m, m.waitForProgress())

			if m.view != ResultView {
				t.Fatalf("expected ResultView, got %v", m.view)
			}
			if m.err != nil {
				t.Fatalf("expected no error, got %v", m.err)
			}
			if m.result.Queued != 2 {
				t.Errorf("expected 2 queued, got %d", m.result.Queued)
			}
			if got := player.Queue(testGuild); len(got) != 2 || got[0] != "https://v/1" {
				t.Errorf("expected the previewed references in order, got %v", got)
			}
			if len(yt.Calls()) != 1 {
				t.Errorf("expected a single resolution, got %d", len(yt.Calls()))
			}
			if !strings.Contains(m.View(), "Queue length: 2") {
				t.Errorf("expected queue length in view, got %q", m.View())
			}
		})

		t.Run("Permission Denied", func(t *testing.T) {
			yt := &tu.MockResolver{Tracks: tu.URLTracks("https://v/1")}
			m, player := newTestModel(t, yt, models.PermNone)
			m.Update(m.resolve(playlist)())
			m.Update(tea.KeyMsg{Type: tea.KeyEnter})
			m.Update(keyRunes("y"))
			drainQueue(t, m, m.waitForProgress())

			if m.err == nil {
				t.Fatal("expected permission error")
			}
			if len(player.Queue(testGuild)) != 0 {
				t.Error("expected nothing queued")
			}
			if !strings.Contains(m.View(), "Queue failed") {
				t.Error("expected failure in view")
			}
		})

		t.Run("Progress Updates Are Recorded", func(t *testing.T) {
			m, _ := newTestModel(t, &tu.MockResolver{}, models.PermUser)
			m.view = QueueView
			update := tasks.ProgressUpdate{Phase: tasks.EnqueueTracks, Message: "Queueing 3 tracks..."}

			_, cmd := m.Update(progressUpdateMsg(update))
			if cmd == nil {
				t.Error("expected wait command")
			}
			if !strings.Contains(m.View(), "Queueing 3 tracks...") {
				t.Errorf("expected progress message in view, got %q", m.View())
			}
		})
	})

	t.Run("Result", func(t *testing.T) {
		t.Run("Restart Resets State", func(t *testing.T) {
			m, _ := newTestModel(t, &tu.MockResolver{}, models.PermUser)
			m.view = ResultView
			m.err = errors.New("boom")
			m.input.SetValue(playlist)

			m.Update(keyRunes("r"))
			if m.view != InputView {
				t.Errorf("expected InputView, got %v", m.view)
			}
			if m.err != nil || m.input.Value() != "" {
				t.Error("expected state reset")
			}
		})

		t.Run("Quit", func(t *testing.T) {
			m, _ := newTestModel(t, &tu.MockResolver{}, models.PermUser)
			m.view = ResultView
			_, cmd := m.Update(keyRunes("q"))
			if cmd == nil {
				t.Fatal("expected quit command")
			}
			if _, ok := cmd().(tea.QuitMsg); !ok {
				t.Error("expected tea.QuitMsg")
			}
		})
	})

	t.Run("Ctrl+C Quits From Any View", func(t *testing.T) {
		m, _ := newTestModel(t, &tu.MockResolver{}, models.PermUser)
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}

func TestTrackItem(t *testing.T) {
	t.Run("URL Track", func(t *testing.T) {
		tr, _ := models.NewURLTrack("https://v/1")
		item := trackItem{position: 1, track: tr}
		if item.Title() != "1. https://v/1" {
			t.Errorf("expected reference title, got %q", item.Title())
		}
		if item.Description() != "direct link" {
			t.Errorf("expected 'direct link', got %q", item.Description())
		}
	})

	t.Run("Search Track", func(t *testing.T) {
		tr, _ := models.NewSearchTrack("Song", []string{"A", "B"})
		item := trackItem{position: 3, track: tr}
		if item.Title() != "3. Song" {
			t.Errorf("expected '3. Song', got %q", item.Title())
		}
		if item.Description() != "A, B" {
			t.Errorf("expected 'A, B', got %q", item.Description())
		}
		if item.FilterValue() != tr.Reference {
			t.Errorf("expected filter on reference, got %q", item.FilterValue())
		}
	})
}

func TestKeyMap(t *testing.T) {
	keys := newKeyMap()

	t.Run("Every View Offers A Way Out", func(t *testing.T) {
		for _, v := range []ViewState{InputView, ResolvingView, TrackListView, ConfirmView, QueueView, ResultView} {
			if len(keys.forView(v)) == 0 {
				t.Errorf("expected help bindings for view %d", v)
			}
		}
	})

	t.Run("Confirm Cancels On Escape", func(t *testing.T) {
		found := false
		for _, k := range keys.cancel.Keys() {
			if k == "esc" {
				found = true
			}
		}
		if !found {
			t.Errorf("expected esc to cancel, got %v", keys.cancel.Keys())
		}
	})
}

func TestBadge(t *testing.T) {
	yt := badge(models.SourceYouTube).GetBackground()
	sp := badge(models.SourceSpotify).GetBackground()
	if yt == sp {
		t.Errorf("expected distinct badge colours, got %v for both", yt)
	}
	if badge(models.SourceUnknown).GetBackground() != accent {
		t.Errorf("expected accent for unknown source, got %v", badge(models.SourceUnknown).GetBackground())
	}
}
