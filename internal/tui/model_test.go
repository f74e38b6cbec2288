package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anayasa/internal/domain"
	"anayasa/internal/service"
)

type fakeAsker struct {
	questions []string
	err       error
}

func (f *fakeAsker) Ask(_ context.Context, q string) (*service.Answer, error) {
	f.questions = append(f.questions, q)
	if f.err != nil {
		return nil, f.err
	}
	return &service.Answer{
		Text: "Turkey is a republic (Article 1).",
		Sources: []domain.SearchResult{
			{Unit: domain.Unit{Label: "Article 1 —", Body: "Turkey is a republic."}, Score: 0.9},
			{Unit: domain.Unit{Label: "Article 2 —", Body: "It is a democratic state."}, Score: 0.4},
		},
	}, nil
}

// drain runs cmd and any batched commands, returning the produced messages.
func drain(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, drain(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func sized(t *testing.T, asker Asker) Model {
	t.Helper()
	m, _ := New(asker, "Constitution Q&A", Examples("en")).Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m.(Model)
}

func ask(t *testing.T, m Model, key tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(key)
	m = next.(Model)
	require.True(t, m.busy)
	for _, msg := range drain(cmd) {
		if am, ok := msg.(answerMsg); ok {
			next, _ = m.Update(am)
			m = next.(Model)
		}
	}
	return m
}

func TestExamples(t *testing.T) {
	assert.Len(t, Examples("en"), 4)
	assert.Equal(t, "Cumhurbaşkanı nasıl seçilir?", Examples("tr")[0])
}

func TestModel_ExampleKeyAsksQuestion(t *testing.T) {
	asker := &fakeAsker{}
	m := ask(t, sized(t, asker), tea.KeyMsg{Type: tea.KeyF1})

	assert.Equal(t, []string{"How is the President elected?"}, asker.questions)
	require.Len(t, m.Turns(), 2)
	assert.Equal(t, domain.RoleUser, m.Turns()[0].Role)
	assert.Equal(t, domain.Turn{Role: domain.RoleAssistant, Content: "Turkey is a republic (Article 1)."}, m.Turns()[1])
	assert.False(t, m.busy)
	assert.Contains(t, m.View(), "Turkey is a republic")
}

func TestModel_EnterAsksTypedQuestion(t *testing.T) {
	asker := &fakeAsker{}
	m := sized(t, asker)
	m.input.SetValue("  What is the form of the state?  ")

	m = ask(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, []string{"What is the form of the state?"}, asker.questions)
	assert.Empty(t, m.input.Value())
}

func TestModel_BlankInputIgnored(t *testing.T) {
	m := sized(t, &fakeAsker{})
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Empty(t, next.(Model).Turns())
}

func TestModel_ErrorRenderedAsTurn(t *testing.T) {
	m := ask(t, sized(t, &fakeAsker{err: errors.New("generation failed: upstream 503")}), tea.KeyMsg{Type: tea.KeyF2})

	require.Len(t, m.Turns(), 2)
	assert.Equal(t, "Error: generation failed: upstream 503", m.Turns()[1].Content)
	assert.Empty(t, m.sources)
}

func TestModel_TurnLogAppendOnly(t *testing.T) {
	m := sized(t, &fakeAsker{})
	m = ask(t, m, tea.KeyMsg{Type: tea.KeyF1})
	first := append([]domain.Turn(nil), m.Turns()...)
	m = ask(t, m, tea.KeyMsg{Type: tea.KeyF3})

	require.Len(t, m.Turns(), 4)
	assert.Equal(t, first, m.Turns()[:2])
	assert.Equal(t, "What are fundamental rights and freedoms?", m.Turns()[2].Content)
}

func TestModel_SourcesView(t *testing.T) {
	m := ask(t, sized(t, &fakeAsker{}), tea.KeyMsg{Type: tea.KeyF1})

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	assert.Contains(t, m.View(), "Source 1/2")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	assert.Contains(t, m.View(), "Source 2/2")
	assert.Contains(t, m.View(), "Article 2 —")
}

func TestModel_Quit(t *testing.T) {
	_, cmd := sized(t, &fakeAsker{}).Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestHighlightBestSentence(t *testing.T) {
	text := "Sovereignty belongs to the nation. The capital is Ankara."
	out := highlightBestSentence(text, "Which city is the capital?")
	assert.Contains(t, out, "Sovereignty belongs to the nation.")
	assert.Contains(t, out, "The capital is Ankara.")
	assert.Equal(t, 2, tokenOverlapScore(toTokenSet("the capital"), "The capital is Ankara."))
}
