package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	InputView ViewState = iota
	ResolvingView
	TrackListView
	ConfirmView
	QueueView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       *tasks.QueueEngine
	req          tasks.Request
	width        int
	height       int
	input        textinput.Model
	spinner      spinner.Model
	trackList    list.Model
	reference    string
	resolution   *models.PlaylistResolution
	progressChan chan tasks.ProgressUpdate
	doneChan     chan queueCompleteMsg
	progress     tasks.ProgressUpdate
	result       *tasks.QueueResult
	notice       string
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model that queues playlists on behalf of req.
//
// A non-empty reference skips the input view and starts resolving immediately.
func NewModel(ctx context.Context, engine *tasks.QueueEngine, req tasks.Request, reference string) *Model {
	input := textinput.New()
	input.Placeholder = "YouTube playlist URL or Spotify playlist link"
	input.CharLimit = 512
	input.Width = 60
	input.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = theme.heading

	return &Model{
		ctx:       ctx,
		view:      InputView,
		engine:    engine,
		req:       req,
		input:     input,
		spinner:   s,
		reference: strings.TrimSpace(reference),
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init starts resolving the initial reference, or blinks the cursor while waiting for one.
func (m *Model) Init() tea.Cmd {
	if m.reference != "" {
		return m.startResolve(m.reference)
	}
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.trackList.Width() != 0 {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		switch m.view {
		case InputView:
			return m.handleInputKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}
		return m, nil

	case spinner.TickMsg:
		if m.view != ResolvingView && m.view != QueueView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case resolvedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = InputView
			return m, nil
		}
		if msg.resolution.Len() == 0 {
			m.notice = "That playlist is empty"
			m.view = InputView
			return m, nil
		}
		m.resolution = msg.resolution
		m.trackList = list.New(trackItems(msg.resolution.Tracks), list.NewDefaultDelegate(), 0, 0)
		m.trackList.Title = fmt.Sprintf("%s playlist • %d tracks", msg.resolution.Source, msg.resolution.Len())
		m.trackList.Styles.Title = badge(msg.resolution.Source)
		m.trackList.SetSize(max(m.width-4, 20), max(m.height-8, 10))
		m.view = TrackListView
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case queueCompleteMsg:
		m.result = msg.result
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		m.doneChan = nil
		return m, nil
	}

	return m.updateComponents(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case InputView:
		return m.renderInput()
	case ResolvingView:
		return m.renderResolving()
	case TrackListView:
		return m.renderTrackList()
	case ConfirmView:
		return m.renderConfirm()
	case QueueView:
		return m.renderQueue()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.resolve) {
		ref := strings.TrimSpace(m.input.Value())
		if ref == "" {
			return m, nil
		}
		return m, m.startResolve(ref)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.trackList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.trackList, cmd = m.trackList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.back):
		m.view = InputView
		m.resolution = nil
		return m, textinput.Blink
	case key.Matches(msg, m.keys.queue):
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.cancel):
		m.view = TrackListView
		return m, nil
	case key.Matches(msg, m.keys.confirm):
		m.view = QueueView
		return m, tea.Batch(m.spinner.Tick, m.startQueue())
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.exit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.again):
		m.reset()
		return m, textinput.Blink
	}
	return m, nil
}

func (m *Model) reset() {
	m.view = InputView
	m.reference = ""
	m.resolution = nil
	m.result = nil
	m.progress = tasks.ProgressUpdate{}
	m.notice = ""
	m.err = nil
	m.input.Reset()
	m.input.Focus()
}

func (m *Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case InputView:
		m.input, cmd = m.input.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) startResolve(reference string) tea.Cmd {
	m.reference = reference
	m.notice = ""
	m.err = nil
	m.view = ResolvingView
	return tea.Batch(m.spinner.Tick, m.resolve(reference))
}

func (m *Model) resolve(reference string) tea.Cmd {
	ctx, engine := m.ctx, m.engine
	return func() tea.Msg {
		res, err := engine.Preview(ctx, models.SourceUnknown, reference)
		return resolvedMsg{resolution: res, err: err}
	}
}

// startQueue runs the queue operation in the background. Progress updates are
// drained one per message by waitForProgress; the outcome arrives on doneChan
// after progressChan is closed.
func (m *Model) startQueue() tea.Cmd {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan queueCompleteMsg, 1)
	m.progressChan = progress
	m.doneChan = done

	ctx, engine, req, res := m.ctx, m.engine, m.req, m.resolution
	go func() {
		result, err := engine.QueueResolved(ctx, req, res, progress)
		close(progress)
		done <- queueCompleteMsg{result: result, err: err}
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.doneChan
	return func() tea.Msg {
		if progress == nil {
			return queueCompleteMsg{result: m.result, err: m.err}
		}

		update, ok := <-progress
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderInput() string {
	var b strings.Builder
	b.WriteString(theme.heading.Render("Queue a playlist"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(theme.failure.Render(tasks.UserMessage(m.err)))
		b.WriteString("\n\n")
	} else if m.notice != "" {
		b.WriteString(theme.notice.Render(m.notice))
		b.WriteString("\n\n")
	}

	b.WriteString(m.help.ShortHelpView(m.keys.forView(m.view)))
	return b.String()
}

func (m *Model) renderResolving() string {
	return fmt.Sprintf("%s Resolving %s...\n\n%s",
		m.spinner.View(), m.reference, m.help.ShortHelpView(m.keys.forView(m.view)))
}

func (m *Model) renderTrackList() string {
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), m.help.ShortHelpView(m.keys.forView(m.view)))
}

func (m *Model) renderConfirm() string {
	title := theme.heading.Render(fmt.Sprintf("Queue %d tracks from %s playlist?", m.resolution.Len(), m.resolution.Source))
	hint := theme.muted.Render(m.resolution.Reference)
	return fmt.Sprintf("%s\n%s\n\n%s", title, hint, m.help.ShortHelpView(m.keys.forView(m.view)))
}

func (m *Model) renderQueue() string {
	msg := m.progress.Message
	if msg == "" {
		msg = "Starting..."
	}
	phase := theme.muted.Render(m.progress.Phase.String())
	return fmt.Sprintf("%s %s\n%s", m.spinner.View(), msg, phase)
}

func (m *Model) renderResult() string {
	var b strings.Builder
	if m.err != nil {
		b.WriteString(theme.failure.Render("Queue failed"))
		b.WriteString("\n")
		b.WriteString(tasks.UserMessage(m.err))
	} else if m.result != nil {
		b.WriteString(theme.success.Render("Queued!"))
		b.WriteString("\n")
		fmt.Fprintf(&b, "%d tracks from %s playlist\n", m.result.Queued, m.result.Resolution.Source)
		fmt.Fprintf(&b, "Queue length: %d\n", m.result.QueueLength)
		b.WriteString(theme.muted.Render(fmt.Sprintf("Took %s", m.result.Elapsed.Round(time.Millisecond))))
	}
	b.WriteString("\n\n")
	b.WriteString(m.help.ShortHelpView(m.keys.forView(m.view)))
	return b.String()
}
