package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeanpaul/sakemate/internal/types"
)

func TestFlavorBarClamps(t *testing.T) {
	assert.Equal(t, 10, strings.Count(FlavorBar(14), "█"))
	assert.Equal(t, 0, strings.Count(FlavorBar(-3), "█"))
	assert.Equal(t, 4, strings.Count(FlavorBar(4), "█"))
	assert.Equal(t, 6, strings.Count(FlavorBar(4), "░"))
}

func TestReportMarkdown(t *testing.T) {
	md := ReportMarkdown(types.MenuAnalysisResult{
		DetectedSakes: []string{"而今", "黒龍"},
		Recommendations: []types.RecommendedSake{{
			Name: "而今", Brewery: "木屋正酒造", MatchScore: 92, Reason: "balanced and fruity",
			FlavorProfile:   types.FlavorProfile{Sweetness: 6, Acidity: 5, Umami: 5, Richness: 4, Fragrance: 7},
			Characteristics: []string{"melon", "crisp finish"},
		}},
		AnalysisText: "Mostly ginjo.",
	})
	assert.Contains(t, md, "## 1. 而今 (92%)")
	assert.Contains(t, md, "*木屋正酒造*")
	assert.Contains(t, md, "| 6 | 5 | 5 | 4 | 7 |")
	assert.Contains(t, md, "- crisp finish")
	assert.Contains(t, md, "而今, 黒龍")
	assert.Contains(t, md, "Mostly ginjo.")

	empty := ReportMarkdown(types.MenuAnalysisResult{})
	assert.Contains(t, empty, "No sake on this menu")
	assert.NotContains(t, empty, "## Overview")
}

func TestRenderMarkdownPlain(t *testing.T) {
	assert.Equal(t, "# hi\n", RenderMarkdown("# hi\n", 80, false))
}

func TestBrandCard(t *testing.T) {
	card := BrandCard(types.SakeBrand{ID: "b1", Name: "獺祭", Brewery: "旭酒造", FlavorProfile: types.NeutralFlavorProfile()}, "Hanako")
	assert.Contains(t, card, "獺祭")
	assert.Contains(t, card, "Hanako")
	assert.Contains(t, card, "fragrance")
	assert.Contains(t, card, "id b1")
}

func TestWaitNonInteractive(t *testing.T) {
	called := false
	err := Wait(context.Background(), nil, "thinking", false, func(context.Context) error {
		called = true
		return errors.New("boom")
	})
	assert.True(t, called)
	assert.EqualError(t, err, "boom")
}

func TestWaitModel(t *testing.T) {
	cancelled := 0
	m := newWaitModel("Reading the menu", func() error { return nil }, func() { cancelled++ })
	assert.Contains(t, m.View(), "Reading the menu")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(waitModel)
	assert.Nil(t, cmd)
	assert.True(t, m.interrupted)
	assert.Contains(t, m.View(), "cancelling")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(waitModel)
	assert.Equal(t, 1, cancelled)

	next, cmd = m.Update(doneMsg{err: context.Canceled})
	m = next.(waitModel)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.ErrorIs(t, m.err, context.Canceled)
	assert.Empty(t, m.View())
}

func TestPickerModel(t *testing.T) {
	users := []types.User{{ID: "u1", Name: "Hanako"}, {ID: "u2", Name: "Taro"}}
	m := newPickerModel(users, "u2")
	assert.Equal(t, 1, m.list.Index())
	assert.Equal(t, list.Unfiltered, m.list.FilterState())

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(pickerModel)
	_ = cmd
	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(pickerModel)
	require.NotNil(t, m.chosen)
	assert.Equal(t, "u1", m.chosen.ID)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	m = newPickerModel(users, "")
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, next.(pickerModel).chosen)
}
