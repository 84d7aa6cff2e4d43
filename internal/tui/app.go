// Package tui provides the interactive terminal view over the task
// list controller.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/taskdeck/taskdeck/internal/client/controller"
)

var (
	primaryColor = lipgloss.Color("#7C3AED")
	successColor = lipgloss.Color("#10B981")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
	fgColor      = lipgloss.Color("#F9FAFB")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true).
			Padding(0, 1)

	taskStyle = lipgloss.NewStyle().
			Padding(0, 2)

	selectedStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true).
			Padding(0, 2)

	doneStyle = lipgloss.NewStyle().
			Foreground(successColor)

	errorBannerStyle = lipgloss.NewStyle().
				Foreground(fgColor).
				Background(errorColor).
				Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)
)

var filterOrder = []controller.Filter{
	controller.FilterAll,
	controller.FilterActive,
	controller.FilterCompleted,
}

// SignOutFunc tears down the local session when the user chooses the
// re-authenticate action on an expired-credential error.
type SignOutFunc func(ctx context.Context) error

// App is the main TUI model.
type App struct {
	ctrl    *controller.Controller
	signOut SignOutFunc

	input     textinput.Model
	mode      string // "list", "add", "rename"
	renameID  string
	selected  int
	width     int
	height    int
	loading   bool
	signedOut bool
}

type loadedMsg struct{ err error }
type settledMsg struct{ err error }
type signedOutMsg struct{ err error }

// New creates the TUI application model.
func New(ctrl *controller.Controller, signOut SignOutFunc) *App {
	ti := textinput.New()
	ti.Placeholder = "Task title"
	ti.CharLimit = 255
	ti.Width = 60

	return &App{
		ctrl:    ctrl,
		signOut: signOut,
		input:   ti,
		mode:    "list",
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	a.loading = true
	return a.load()
}

func (a *App) load() tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: a.ctrl.Load(context.Background())}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case loadedMsg:
		a.loading = false
		a.clampSelection()
		return a, nil

	case settledMsg:
		a.clampSelection()
		return a, nil

	case signedOutMsg:
		a.signedOut = true
		return a, tea.Quit

	case tea.KeyMsg:
		if a.mode == "add" || a.mode == "rename" {
			return a.updateInput(msg)
		}
		return a.updateList(msg)
	}

	return a, nil
}

func (a *App) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return a, tea.Quit

	case "up", "k":
		if a.selected > 0 {
			a.selected--
		}

	case "down", "j":
		if a.selected < len(a.ctrl.Visible())-1 {
			a.selected++
		}

	case "tab", "f":
		a.cycleFilter()
		a.clampSelection()

	case "a":
		a.mode = "add"
		a.input.SetValue("")
		a.input.Focus()
		return a, textinput.Blink

	case "r":
		if task, ok := a.selectedTask(); ok {
			a.mode = "rename"
			a.renameID = task.ID
			a.input.SetValue(task.Title)
			a.input.Focus()
			return a, textinput.Blink
		}

	case " ", "enter":
		if task, ok := a.selectedTask(); ok {
			id := task.ID
			return a, func() tea.Msg {
				return settledMsg{err: a.ctrl.Toggle(context.Background(), id)}
			}
		}

	case "d":
		if task, ok := a.selectedTask(); ok {
			id := task.ID
			return a, func() tea.Msg {
				return settledMsg{err: a.ctrl.Remove(context.Background(), id)}
			}
		}

	case "g":
		a.loading = true
		return a, a.load()

	case "esc":
		a.ctrl.ClearErr()

	case "o":
		if err := a.ctrl.Err(); err != nil && err.AuthExpired {
			return a, func() tea.Msg {
				return signedOutMsg{err: a.signOut(context.Background())}
			}
		}
	}

	return a, nil
}

func (a *App) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.mode = "list"
		a.input.Blur()
		return a, nil

	case "enter":
		title := a.input.Value()
		mode, renameID := a.mode, a.renameID
		a.mode = "list"
		a.input.Blur()

		return a, func() tea.Msg {
			var err error
			if mode == "rename" {
				err = a.ctrl.Rename(context.Background(), renameID, title)
			} else {
				err = a.ctrl.Create(context.Background(), title)
			}
			return settledMsg{err: err}
		}
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if a.signedOut {
		return "Signed out. Run `taskdeck login` to sign in again.\n"
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("taskdeck"))
	b.WriteString("\n\n")
	b.WriteString(a.renderTabs())
	b.WriteString("\n\n")

	if banner := a.renderError(); banner != "" {
		b.WriteString(banner)
		b.WriteString("\n\n")
	}

	if a.loading {
		b.WriteString(taskStyle.Render("Loading tasks..."))
		b.WriteString("\n")
	} else {
		b.WriteString(a.renderTasks())
	}

	if a.mode == "add" || a.mode == "rename" {
		b.WriteString("\n")
		b.WriteString(inputBoxStyle.Render(a.input.View()))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter: save • esc: cancel"))
	} else {
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("a: add • space: toggle • r: rename • d: delete • tab: filter • g: reload • q: quit"))
	}
	b.WriteString("\n")

	return b.String()
}

func (a *App) renderTabs() string {
	total, completed, active := a.ctrl.Counts()
	counts := map[controller.Filter]int{
		controller.FilterAll:       total,
		controller.FilterActive:    active,
		controller.FilterCompleted: completed,
	}

	tabs := make([]string, 0, len(filterOrder))
	for _, f := range filterOrder {
		label := fmt.Sprintf("%s %d", strings.ToUpper(string(f)), counts[f])
		if f == a.ctrl.Filter() {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (a *App) renderTasks() string {
	visible := a.ctrl.Visible()
	if len(visible) == 0 {
		return taskStyle.Render("No tasks here. Press 'a' to add one.") + "\n"
	}

	var b strings.Builder
	for i, task := range visible {
		marker := "[ ]"
		if task.Completed {
			marker = doneStyle.Render("[x]")
		}
		line := fmt.Sprintf("%s %s", marker, task.Title)

		if i == a.selected {
			b.WriteString(selectedStyle.Render(line))
		} else {
			b.WriteString(taskStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) renderError() string {
	userErr := a.ctrl.Err()
	if userErr == nil {
		return ""
	}

	banner := "Error: " + userErr.Message + " (esc: dismiss)"
	if userErr.AuthExpired {
		banner = "Session expired: " + userErr.Message + " (o: sign out, esc: dismiss)"
	}
	return errorBannerStyle.Render(banner)
}

func (a *App) cycleFilter() {
	current := a.ctrl.Filter()
	for i, f := range filterOrder {
		if f == current {
			a.ctrl.SetFilter(filterOrder[(i+1)%len(filterOrder)])
			return
		}
	}
	a.ctrl.SetFilter(controller.FilterAll)
}

func (a *App) selectedTask() (task struct{ ID, Title string }, ok bool) {
	visible := a.ctrl.Visible()
	if a.selected < 0 || a.selected >= len(visible) {
		return task, false
	}
	task.ID = visible[a.selected].ID
	task.Title = visible[a.selected].Title
	return task, true
}

func (a *App) clampSelection() {
	visible := len(a.ctrl.Visible())
	if a.selected >= visible {
		a.selected = visible - 1
	}
	if a.selected < 0 {
		a.selected = 0
	}
}
