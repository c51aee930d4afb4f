// Package tui implements the interactive question loop behind `ragqa chat`.
// Questions are answered one at a time against the same immutable cache.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/54b3r/ragqa-go/internal/query"
)

// Asker is the TUI-facing subset of the query engine.
type Asker interface {
	Ask(ctx context.Context, question string) (*query.Result, error)
}

// answerMsg carries the outcome of one Ask back into the update loop.
type answerMsg struct {
	question string
	result   *query.Result
	err      error
}

// Model is the Bubble Tea model for the chat loop.
type Model struct {
	ctx      context.Context
	asker    Asker
	input    textinput.Model
	viewport viewport.Model
	summary  string
	status   string
	busy     bool
	ready    bool
	asked    int

	question string
	result   *query.Result
}

// New creates a chat model. summary is shown under the header (e.g. the
// cache path and record count).
func New(ctx context.Context, asker Asker, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	return Model{
		ctx:      ctx,
		asker:    asker,
		input:    ti,
		viewport: viewport.New(0, 0),
		summary:  summary,
		status:   "Ready. Ctrl+C to quit.",
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, resize, and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 + 1 // header+summary, status, input box, spacers
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.renderResult())
		return m, nil

	case answerMsg:
		m.busy = false
		m.question = msg.question
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.result = nil
		} else {
			m.asked++
			m.result = msg.result
			m.status = fmt.Sprintf("Answered %d question(s).", m.asked)
		}
		m.viewport.SetContent(m.renderResult())
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		if msg.Type == tea.KeyEnter {
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.status = "Searching..."
			m.input.SetValue("")
			return m, m.ask(q)
		}
		if msg.Type == tea.KeyPgDown || msg.Type == tea.KeyPgUp {
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// ask runs the question off the update loop so the UI stays responsive.
func (m Model) ask(question string) tea.Cmd {
	return func() tea.Msg {
		res, err := m.asker.Ask(m.ctx, question)
		return answerMsg{question: question, result: res, err: err}
	}
}

// View renders the layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("RAG Question Answering")
	summary := summaryStyle.Render(m.summary)
	results := resultBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + summary + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) renderResult() string {
	if m.result == nil {
		return "No question asked yet."
	}
	r := m.result

	var b strings.Builder
	b.WriteString(questionStyle.Render("Q: "+m.question) + "\n")
	fmt.Fprintf(&b, "Best similarity score: %s   intent: %s\n\n",
		scoreStyle(r.BestScore).Render(fmt.Sprintf("%.3f", r.BestScore)), r.Intent)

	b.WriteString(sectionStyle.Render("Retrieved Context") + "\n")
	if r.NoMatch() {
		b.WriteString("No relevant context found.\n\n")
		b.WriteString(sectionStyle.Render("Answer") + "\n")
		b.WriteString(query.NoMatchMessage)
		return b.String()
	}
	for i, c := range r.Contexts {
		fmt.Fprintf(&b, "- (%.3f) %s ...\n", r.Scores[i], query.Snippet(c))
	}
	b.WriteString("\n" + sectionStyle.Render("Answer") + "\n")
	b.WriteString(r.Answer)
	return b.String()
}

// scoreStyle colours a similarity by which gate it clears.
func scoreStyle(score float64) lipgloss.Style {
	switch {
	case score >= query.SimilarityThreshold:
		return goodScoreStyle
	case score >= query.MinSemanticFloor:
		return fairScoreStyle
	default:
		return poorScoreStyle
	}
}

var (
	headerStyle    = lipgloss.NewStyle().Bold(true)
	summaryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	questionStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	sectionStyle   = lipgloss.NewStyle().Underline(true)
	goodScoreStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	fairScoreStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	poorScoreStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)
