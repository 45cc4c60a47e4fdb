package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeanpaul/sakemate/internal/types"
)

type userItem struct {
	user    types.User
	current bool
}

func (i userItem) Title() string {
	if i.current {
		return i.user.Name + " *"
	}
	return i.user.Name
}

func (i userItem) Description() string {
	return fmt.Sprintf("since %s", i.user.CreatedAt.Local().Format("2006-01-02"))
}

func (i userItem) FilterValue() string { return i.user.Name }

type pickerModel struct {
	list   list.Model
	chosen *types.User
	width  int
	height int
}

func newPickerModel(users []types.User, currentID string) pickerModel {
	items := make([]list.Item, 0, len(users))
	selected := 0
	for i, u := range users {
		items = append(items, userItem{user: u, current: u.ID == currentID})
		if u.ID == currentID {
			selected = i
		}
	}

	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = lipgloss.NewStyle().Foreground(Gold).Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(Gold).PaddingLeft(1)
	d.Styles.SelectedDesc = d.Styles.SelectedTitle.Foreground(Amber)

	l := list.New(items, d, 40, 14)
	l.Title = "Who is drinking?"
	l.Styles.Title = TitleStyle
	l.SetShowStatusBar(false)
	l.Select(selected)
	return pickerModel{list: l}
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width-2, min(msg.Height-2, 20))
	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "enter":
			if it, ok := m.list.SelectedItem().(userItem); ok {
				u := it.user
				m.chosen = &u
			}
			return m, tea.Quit
		case "esc", "q", "ctrl+c":
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m pickerModel) View() string {
	return m.list.View()
}

// PickUser lets the user choose among users interactively. ok is false
// when the picker was dismissed.
func PickUser(out io.Writer, users []types.User, currentID string) (types.User, bool, error) {
	if len(users) == 0 {
		return types.User{}, false, nil
	}
	final, err := tea.NewProgram(newPickerModel(users, currentID), tea.WithOutput(out)).Run()
	if err != nil {
		return types.User{}, false, err
	}
	m := final.(pickerModel)
	if m.chosen == nil {
		return types.User{}, false, nil
	}
	return *m.chosen, true, nil
}
