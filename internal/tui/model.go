package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"raganswer/internal/service"
	"raganswer/internal/textutil"
)

// ServicePort is the TUI-facing subset of the answering service.
type ServicePort interface {
	Initialize(ctx context.Context, forceReindex bool) (service.Outcome, error)
	Resolve(ctx context.Context, q service.Query) service.Resolution
	Status() service.Status
}

// Options are the query parameters used for every question.
type Options struct {
	Mode string
	TopK int
}

type answerMsg struct {
	question string
	res      service.Resolution
}

type reindexMsg struct {
	outcome service.Outcome
	err     error
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	service   ServicePort
	opts      Options
	input     textinput.Model
	viewport  viewport.Model
	answer    *service.Resolution
	status    string
	busy      bool
	ready     bool
	lastQuery string
}

// New creates a new TUI model instance.
func New(svc ServicePort, opts Options) Model {
	if opts.Mode == "" {
		opts.Mode = "mix"
	}
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter (ctrl+r reindex)"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{service: svc, opts: opts, input: ti, viewport: vp, status: "Ready. Type a question."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around answer and query boxes
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header+state, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case answerMsg:
		m.busy = false
		m.answer = &msg.res
		m.lastQuery = msg.question
		m.status = fmt.Sprintf("Answered %q via %s", msg.question, msg.res.Tier)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case reindexMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Reindex failed: " + msg.err.Error()
		} else {
			m.status = fmt.Sprintf("Reindexed: %s (%d indexed, %d failed)", msg.outcome.Phase, len(msg.outcome.Indexed), len(msg.outcome.Failed))
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" && !m.busy {
				m.busy = true
				m.status = "Thinking..."
				m.input.SetValue("")
				return m, m.ask(q)
			}
		case "ctrl+r":
			if !m.busy {
				m.busy = true
				m.status = "Reindexing..."
				return m, m.reindex()
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(question string) tea.Cmd {
	svc, opts := m.service, m.opts
	return func() tea.Msg {
		res := svc.Resolve(context.Background(), service.Query{Question: question, Mode: opts.Mode, TopK: opts.TopK})
		return answerMsg{question: question, res: res}
	}
}

func (m Model) reindex() tea.Cmd {
	svc := m.service
	return func() tea.Msg {
		out, err := svc.Initialize(context.Background(), true)
		return reindexMsg{outcome: out, err: err}
	}
}

// View renders the TUI layout and current answer.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("RAG Answering")
	state := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(renderState(m.service.Status()))
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return header + "\n" + state + "\n" + results + "\n" + input + "\n" + status
}

func renderState(st service.Status) string {
	return fmt.Sprintf("engine=%t indexed=%t fallback=%t state=%s sources=%d",
		st.EngineReady, st.IndexingComplete, st.HasFallbackText, st.Phase, st.SourceCount)
}

func (m Model) renderAnswer() string {
	if m.answer == nil {
		return "No answer yet."
	}
	title := fmt.Sprintf("Q: %s  [%s]", m.lastQuery, m.answer.Tier)
	return title + "\n\n" + highlightBestSentence(m.answer.Answer, m.lastQuery)
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

// highlightBestSentence emphasizes the sentence sharing the most content
// tokens with query.
func highlightBestSentence(text, query string) string {
	sentences := textutil.Sentences(text)
	if len(sentences) == 0 {
		return text
	}
	qTokens := textutil.TokenSet(strings.Join(textutil.ContentTokens(query), " "))
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx, bestScore := 0, -1
	for i, s := range sentences {
		if score := tokenOverlapScore(qTokens, s); score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	sentences[bestIdx] = highlightStyle.Render(sentences[bestIdx])
	return strings.Join(sentences, " ")
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	for t := range textutil.TokenSet(sentence) {
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
