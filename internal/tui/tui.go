// Package tui provides the Bubble Tea downloads screen for feedback.
package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gammazero/deque"

	"github.com/feedback-podcast/feedback/internal/download"
)

// maxLogEntries bounds the event log ring.
const maxLogEntries = 50

// Run starts the downloads screen over the given queue and blocks until
// the user quits. The queue's progress callback is rerouted into the
// Bubble Tea loop for the duration of the program; onItem, if non-nil,
// still sees every snapshot first.
func Run(q *download.Queue, onItem download.ProgressFunc) error {
	p := tea.NewProgram(NewModel(q), tea.WithAltScreen())
	q.SetProgressFunc(func(it download.Item) {
		if onItem != nil {
			onItem(it)
		}
		p.Send(ItemMsg{Item: it})
	})
	defer q.SetProgressFunc(nil)
	_, err := p.Run()
	return err
}

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))
)

// Message types
type (
	// ItemMsg carries a download snapshot from the queue's progress
	// callback into the Bubble Tea loop.
	ItemMsg struct {
		Item download.Item
	}

	// tickMsg drives periodic refresh of the item list.
	tickMsg struct{}
)

type logEntry struct {
	text  string
	style lipgloss.Style
}

// Model is the Bubble Tea model for the downloads screen.
type Model struct {
	queue *download.Queue

	items    []download.Item
	selected int

	adding    bool
	textInput textinput.Model
	spinner   spinner.Model
	bar       progress.Model

	logs deque.Deque[logEntry]

	width  int
	height int
}

// NewModel creates the downloads screen over an existing queue.
func NewModel(q *download.Queue) Model {
	ti := textinput.New()
	ti.Placeholder = "https://example.com/episode.mp3"
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 30

	return Model{
		queue:     q,
		textInput: ti,
		spinner:   sp,
		bar:       bar,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.tick())
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(_ time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m *Model) pushLog(text string, style lipgloss.Style) {
	if m.logs.Len() >= maxLogEntries {
		m.logs.PopFront()
	}
	m.logs.PushBack(logEntry{text: text, style: style})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = msg.Width / 3
		if m.bar.Width > 50 {
			m.bar.Width = 50
		}
		if m.bar.Width < 10 {
			m.bar.Width = 10
		}
		return m, nil

	case tea.KeyMsg:
		if m.adding {
			switch msg.String() {
			case "enter":
				url := strings.TrimSpace(m.textInput.Value())
				if url != "" {
					m.queue.Add(url, "", 0)
					m.pushLog("queued "+url, dimStyle)
				}
				m.adding = false
				m.textInput.SetValue("")
				m.textInput.Blur()
				return m, nil
			case "esc":
				m.adding = false
				m.textInput.SetValue("")
				m.textInput.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.textInput, cmd = m.textInput.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "q", "ctrl+c":
			m.queue.CancelAll()
			return m, tea.Quit

		case "a":
			m.adding = true
			m.textInput.Focus()
			return m, textinput.Blink

		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.selected < len(m.items)-1 {
				m.selected++
			}

		case "c":
			if m.selected < len(m.items) {
				it := m.items[m.selected]
				if m.queue.Cancel(it.URL) {
					m.pushLog("cancelled "+it.URL, warningStyle)
				}
			}

		case "C":
			n := m.queue.CancelAll()
			m.pushLog(fmt.Sprintf("cancelled %d download(s)", n), warningStyle)

		case "x":
			n := m.queue.ClearCompleted()
			m.pushLog(fmt.Sprintf("cleared %d finished download(s)", n), dimStyle)
			m.items = m.queue.Items()
			if m.selected >= len(m.items) {
				m.selected = 0
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ItemMsg:
		it := msg.Item
		switch it.Status {
		case download.StatusCompleted:
			m.pushLog("completed "+filepath.Base(it.Destination), successStyle)
		case download.StatusFailed:
			m.pushLog(fmt.Sprintf("failed %s: %s", it.URL, it.Err), errorStyle)
		}
		m.items = m.queue.Items()

	case tickMsg:
		m.items = m.queue.Items()
		cmds = append(cmds, m.tick())
	}

	return m, tea.Batch(cmds...)
}

// View renders the downloads screen.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Downloads"))
	b.WriteString("\n")

	if m.adding {
		b.WriteString("Add URL: ")
		b.WriteString(m.textInput.View())
		b.WriteString("\n\n")
	}

	if len(m.items) == 0 {
		b.WriteString(dimStyle.Render("Nothing queued. Press 'a' to add a download."))
		b.WriteString("\n")
	}

	for i, it := range m.items {
		b.WriteString(m.renderItem(i, it))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatusLine())
	b.WriteString("\n")
	b.WriteString(m.renderLogs())
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("a add · c cancel · C cancel all · x clear finished · q quit"))
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderItem(i int, it download.Item) string {
	name := filepath.Base(it.Destination)
	line := fmt.Sprintf("%s %s %s", statusGlyph(it.Status), name, m.renderProgress(it))
	if i == m.selected {
		return selectedStyle.Render("> " + line)
	}
	return "  " + line
}

func (m Model) renderProgress(it download.Item) string {
	switch it.Status {
	case download.StatusDownloading:
		if it.TotalBytes > 0 {
			return fmt.Sprintf("%s %s / %s",
				m.bar.ViewAs(it.Progress),
				formatBytes(it.BytesDownloaded), formatBytes(it.TotalBytes))
		}
		return fmt.Sprintf("%s %s", m.spinner.View(), formatBytes(it.BytesDownloaded))
	case download.StatusFailed:
		return errorStyle.Render(it.Err)
	default:
		return dimStyle.Render(it.Status.String())
	}
}

func (m Model) renderStatusLine() string {
	return dimStyle.Render(fmt.Sprintf("active %d · pending %d · completed %d · failed %d",
		m.queue.ActiveCount(), m.queue.PendingCount(),
		m.queue.CompletedCount(), m.queue.FailedCount()))
}

func (m Model) renderLogs() string {
	if m.logs.Len() == 0 {
		return ""
	}
	var b strings.Builder
	shown := 5
	if m.logs.Len() < shown {
		shown = m.logs.Len()
	}
	for i := m.logs.Len() - shown; i < m.logs.Len(); i++ {
		entry := m.logs.At(i)
		b.WriteString(entry.style.Render(entry.text))
		b.WriteString("\n")
	}
	return b.String()
}

func statusGlyph(s download.Status) string {
	switch s {
	case download.StatusPending:
		return dimStyle.Render("·")
	case download.StatusDownloading:
		return "↓"
	case download.StatusCompleted:
		return successStyle.Render("✓")
	case download.StatusFailed:
		return errorStyle.Render("✗")
	case download.StatusCancelled:
		return warningStyle.Render("−")
	default:
		return "?"
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMG"[exp])
}
