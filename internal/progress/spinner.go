package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)
)

// directoryMsg reports one swept directory to the Bubble Tea program.
type directoryMsg struct {
	path  string
	found int
}

// doneMsg signals the sweep finished and the program should quit.
type doneMsg struct {
	dirs, total int
}

type spinnerModel struct {
	spin    spinner.Model
	current string
	dirs    int
	total   int
	done    bool
}

func newSpinnerModel() spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return spinnerModel{spin: s}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spin.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case directoryMsg:
		m.current = msg.path
		m.dirs++
		m.total += msg.found
		return m, nil
	case doneMsg:
		m.dirs = msg.dirs
		m.total = msg.total
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render(" indxripper "))
	s.WriteString("\n\n")
	if m.done {
		s.WriteString(fmt.Sprintf("swept %s, recovered %s entries\n",
			countStyle.Render(fmt.Sprintf("%d", m.dirs)),
			countStyle.Render(fmt.Sprintf("%d", m.total))))
		return s.String()
	}
	s.WriteString(fmt.Sprintf("%s %s\n", m.spin.View(), dimStyle.Render(m.current)))
	s.WriteString(dimStyle.Render(fmt.Sprintf("%d directories, %d recovered so far", m.dirs, m.total)))
	s.WriteString("\n")
	return s.String()
}

// spinnerReporter drives a Bubble Tea program from the scanning goroutine
// via Program.Send, the same pattern the teacher's wizard TUI used to push
// tea.Msg values in from outside Update.
type spinnerReporter struct {
	program *tea.Program
	wg      sync.WaitGroup
}

func newSpinnerReporter(out io.Writer) *spinnerReporter {
	p := tea.NewProgram(newSpinnerModel(), tea.WithOutput(out))
	r := &spinnerReporter{program: p}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		p.Run()
	}()
	return r
}

func (r *spinnerReporter) Directory(path string, found int) {
	r.program.Send(directoryMsg{path: path, found: found})
}

func (r *spinnerReporter) Done(dirs, total int) {
	r.program.Send(doneMsg{dirs: dirs, total: total})
	r.wg.Wait()
}
