// Package tui renders the landing page chat intro in a terminal. The view is
// a pure function of the latest sequencer snapshot.
package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/namahsea/sellmo-landing-page/internal/sequencer"
)

// DefaultLines is the copy shown in each intro bubble.
var DefaultLines = map[string]string{
	sequencer.Chat1: "Hi! I'm Sellmo, your selling sidekick 👋",
	sequencer.Chat2: "Snap a photo and I'll write the listing for you.",
	sequencer.Chat3: "Want early access to the beta?",
}

const inputPlaceholder = "I want to try.. (Enter email address)"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#6366f1")).
			MarginBottom(1)

	bubbleStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#6366f1")).
			Padding(0, 1)

	revealingStyle = bubbleStyle.
			BorderForeground(lipgloss.Color("#a5b4fc")).
			Faint(true)

	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#e5e7eb")).
			Foreground(lipgloss.Color("#9ca3af")).
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1)
)

type snapshotMsg sequencer.Snapshot

// startedMsg carries the board right after a (re)start. It is not a read
// from updates, so it does not queue another reader.
type startedMsg sequencer.Snapshot

type updatesClosedMsg struct{}

// Model is the bubbletea model for the intro preview.
type Model struct {
	seq     *sequencer.Sequencer
	updates <-chan sequencer.Snapshot
	lines   map[string]string
	snap    sequencer.Snapshot
	width   int
}

// NewIntro creates a model that renders updates from seq. The caller owns the
// subscription behind updates.
func NewIntro(seq *sequencer.Sequencer, updates <-chan sequencer.Snapshot, lines map[string]string) Model {
	if lines == nil {
		lines = DefaultLines
	}
	return Model{seq: seq, updates: updates, lines: lines, snap: seq.Snapshot()}
}

func (m Model) start() tea.Msg {
	m.seq.Start()
	return startedMsg(m.seq.Snapshot())
}

func waitForSnapshot(updates <-chan sequencer.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-updates
		if !ok {
			return updatesClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.start, waitForSnapshot(m.updates))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.seq.Stop()
			return m, tea.Quit
		case "r":
			return m, m.start
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case startedMsg:
		m = m.apply(sequencer.Snapshot(msg))
		return m, nil

	case snapshotMsg:
		m = m.apply(sequencer.Snapshot(msg))
		return m, waitForSnapshot(m.updates)

	case updatesClosedMsg:
		return m, nil
	}
	return m, nil
}

// apply keeps the newest snapshot seen; an older one arriving late is dropped.
func (m Model) apply(snap sequencer.Snapshot) Model {
	if snap.Version >= m.snap.Version {
		m.snap = snap
	}
	return m
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Sellmo"))
	b.WriteString("\n")

	var bubbles []string
	inputShown := false
	for _, el := range m.snap.Elements {
		if !el.State.Shown() {
			continue
		}
		if !el.Message {
			inputShown = true
			continue
		}
		style := bubbleStyle
		if el.State == sequencer.Revealing {
			style = revealingStyle
		}
		text := m.lines[el.ID]
		if text == "" {
			text = el.ID
		}
		if m.width > 8 {
			style = style.MaxWidth(m.width - 2)
		}
		bubbles = append(bubbles, style.Render(text))
	}

	column := lipgloss.JoinVertical(lipgloss.Left, bubbles...)
	if m.snap.Anchored {
		// Messages stack from the bottom of a fixed-height column
		column = lipgloss.PlaceVertical(bubbleColumnHeight(len(m.lines)), lipgloss.Bottom, column)
	}
	b.WriteString(column)
	b.WriteString("\n")

	if inputShown {
		b.WriteString(inputStyle.Render(inputPlaceholder))
		b.WriteString("\n")
	}

	b.WriteString(footerStyle.Render("r restart • q quit"))
	return b.String()
}

// bubbleColumnHeight fits n single-line bordered bubbles.
func bubbleColumnHeight(n int) int {
	return n * 3
}
