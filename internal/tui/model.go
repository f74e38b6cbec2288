package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"anayasa/internal/domain"
	"anayasa/internal/service"
)

// Asker is the chat-facing subset of the engine.
type Asker interface {
	Ask(ctx context.Context, question string) (*service.Answer, error)
}

// Examples returns the four canned questions offered on F1-F4.
func Examples(lang string) []string {
	if lang == "tr" {
		return []string{
			"Cumhurbaşkanı nasıl seçilir?",
			"Anayasa nedir?",
			"Temel hak ve özgürlükler nelerdir?",
			"Anayasa nasıl değiştirilir?",
		}
	}
	return []string{
		"How is the President elected?",
		"What is the constitution?",
		"What are fundamental rights and freedoms?",
		"How is the constitution amended?",
	}
}

type answerMsg struct {
	question string
	answer   *service.Answer
	err      error
}

// Model is the Bubble Tea model for the chat shell.
type Model struct {
	asker    Asker
	title    string
	examples []string
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	turns    []domain.Turn
	sources  []domain.SearchResult
	cursor   int
	showSrc  bool
	busy     bool
	status   string
	ready    bool
	question string
}

// New creates a chat shell over asker. title is shown above the transcript.
func New(asker Asker, title string, examples []string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about the constitution and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		asker:    asker,
		title:    title,
		examples: examples,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		status:   "Ready. F1-F4 ask an example, Tab shows sources.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Turns returns the conversation so far.
func (m Model) Turns() []domain.Turn { return m.turns }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := transcriptStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + len(m.examples) + 1 + qh + 1 // header, examples, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.refresh()
		return m, nil
	case answerMsg:
		m.busy = false
		if msg.err != nil {
			m.turns = append(m.turns, domain.Turn{Role: domain.RoleAssistant, Content: "Error: " + msg.err.Error()})
			m.sources = nil
			m.status = "Question failed."
		} else {
			m.turns = append(m.turns, domain.Turn{Role: domain.RoleAssistant, Content: msg.answer.Text})
			m.sources = msg.answer.Sources
			m.status = fmt.Sprintf("Answered from %d articles.", len(m.sources))
		}
		m.question = msg.question
		m.cursor = 0
		m.refresh()
		m.viewport.GotoBottom()
		return m, nil
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			return m.submit(m.input.Value())
		case "f1", "f2", "f3", "f4":
			i := int(msg.String()[1] - '1')
			if i < len(m.examples) {
				return m.submit(m.examples[i])
			}
		case "tab":
			m.showSrc = !m.showSrc
			m.refresh()
			return m, nil
		case "down":
			if m.showSrc && len(m.sources) > 0 {
				m.cursor = (m.cursor + 1) % len(m.sources)
				m.refresh()
				return m, nil
			}
		case "up":
			if m.showSrc && len(m.sources) > 0 {
				m.cursor = (m.cursor - 1 + len(m.sources)) % len(m.sources)
				m.refresh()
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit records the question and answers it off the event loop.
// Input is ignored while a question is in flight.
func (m Model) submit(q string) (tea.Model, tea.Cmd) {
	q = strings.TrimSpace(q)
	if q == "" || m.busy {
		return m, nil
	}
	m.turns = append(m.turns, domain.Turn{Role: domain.RoleUser, Content: q})
	m.input.SetValue("")
	m.busy = true
	m.showSrc = false
	m.status = "Searching the articles..."
	m.refresh()
	m.viewport.GotoBottom()
	asker := m.asker
	ask := func() tea.Msg {
		a, err := asker.Ask(context.Background(), q)
		return answerMsg{question: q, answer: a, err: err}
	}
	return m, tea.Batch(ask, m.spinner.Tick)
}

func (m *Model) refresh() {
	if m.showSrc {
		m.viewport.SetContent(m.renderCurrentSource())
		return
	}
	m.viewport.SetContent(m.renderTranscript())
}

// View renders the chat layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	for i, q := range m.examples {
		b.WriteString(dimStyle.Render(fmt.Sprintf("F%d  %s", i+1, q)))
		b.WriteString("\n")
	}
	b.WriteString(transcriptStyle.Render(m.viewport.View()))
	b.WriteString("\n")
	b.WriteString(queryBoxStyle.Render(m.input.View()))
	b.WriteString("\n")
	status := statusStyle.Render(m.status)
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	b.WriteString(status)
	return b.String()
}

func (m Model) renderTranscript() string {
	if len(m.turns) == 0 {
		return "No questions yet."
	}
	parts := make([]string, 0, len(m.turns))
	for _, t := range m.turns {
		if t.Role == domain.RoleUser {
			parts = append(parts, userStyle.Render("You: ")+t.Content)
		} else {
			parts = append(parts, assistantStyle.Render("Assistant: ")+t.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}

func (m Model) renderCurrentSource() string {
	if len(m.sources) == 0 {
		return "No sources for the last answer."
	}
	r := m.sources[m.cursor]
	title := fmt.Sprintf("Source %d/%d  %s  score=%.3f", m.cursor+1, len(m.sources), r.Unit.Label, r.Score)
	return title + "\n\n" + highlightBestSentence(r.Unit.Body, m.question)
}

var (
	titleStyle      = lipgloss.NewStyle().Bold(true)
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	unicodeWordRe   = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe      = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

// highlightBestSentence marks the sentence sharing the most words with query.
func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sentences[i] = highlightStyle.Render(sent)
		} else {
			sentences[i] = sent
		}
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
