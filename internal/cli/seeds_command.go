package cli

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"tiktok-meta-collector/internal/runstore"
	"tiktok-meta-collector/internal/seeds"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type seedsMode int

const (
	seedsModeBrowse seedsMode = iota
	seedsModeAdd
	seedsModeDeleteConfirm
)

type seedsModel struct {
	path   string
	users  []string
	cursor int
	width  int
	height int
	mode   seedsMode
	input  textinput.Model

	dirty         bool
	statusMessage string
	fatalErr      error
}

type seedsLoadedMsg struct {
	users []string
	err   error
}

type seedsSavedMsg struct {
	count int
	err   error
}

func runSeeds(args []string) error {
	fs := flag.NewFlagSet("seeds", flag.ContinueOnError)
	file := fs.String("file", "", "seed usernames file to manage")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*file) == "" {
		fs.Usage()
		return errors.New("--file is required")
	}
	if !stdinIsTTY() {
		return errors.New("seeds requires an interactive terminal (TTY)")
	}

	input := textinput.New()
	input.Placeholder = "username (with or without @)"
	input.CharLimit = 64

	m := seedsModel{
		path:  strings.TrimSpace(*file),
		mode:  seedsModeBrowse,
		input: input,
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "tty") {
			return errors.New("seeds requires an interactive terminal (TTY)")
		}
		return err
	}
	if fm, ok := finalModel.(seedsModel); ok {
		return fm.fatalErr
	}
	return nil
}

func loadSeedsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		users, err := seeds.Load(path)
		return seedsLoadedMsg{users: users, err: err}
	}
}

// saveSeedsCmd rewrites the file cleaned: one username per line, comments
// and duplicates from the source file do not survive a save.
func saveSeedsCmd(path string, users []string) tea.Cmd {
	return func() tea.Msg {
		var b strings.Builder
		for _, u := range users {
			b.WriteString(u)
			b.WriteByte('\n')
		}
		if err := runstore.WriteBytes(path, []byte(b.String())); err != nil {
			return seedsSavedMsg{err: err}
		}
		return seedsSavedMsg{count: len(users)}
	}
}

func (m seedsModel) Init() tea.Cmd {
	return loadSeedsCmd(m.path)
}

func (m seedsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case seedsLoadedMsg:
		if msg.err != nil {
			m.fatalErr = msg.err
			return m, tea.Quit
		}
		m.users = msg.users
		m.dirty = false
		if m.cursor > len(m.users)-1 {
			m.cursor = maxOf(len(m.users)-1, 0)
		}
		return m, nil
	case seedsSavedMsg:
		if msg.err != nil {
			m.statusMessage = "error: " + msg.err.Error()
			return m, nil
		}
		m.dirty = false
		m.statusMessage = fmt.Sprintf("saved %d usernames", msg.count)
		return m, nil
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch m.mode {
	case seedsModeBrowse:
		return m.updateBrowse(keyMsg)
	case seedsModeAdd:
		return m.updateAdd(keyMsg)
	case seedsModeDeleteConfirm:
		return m.updateDeleteConfirm(keyMsg)
	default:
		return m, nil
	}
}

func (m seedsModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.users)-1 {
			m.cursor++
		}
	case "a", "n":
		m.mode = seedsModeAdd
		m.statusMessage = ""
		m.input.SetValue("")
		return m, m.input.Focus()
	case "d":
		if len(m.users) == 0 {
			m.statusMessage = "nothing to delete"
			return m, nil
		}
		m.mode = seedsModeDeleteConfirm
	case "r":
		m.statusMessage = ""
		return m, loadSeedsCmd(m.path)
	case "s":
		return m, saveSeedsCmd(m.path, m.users)
	}
	return m, nil
}

func (m seedsModel) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.mode = seedsModeBrowse
		m.input.Blur()
		return m, nil
	case "enter":
		u := cleanUsername(m.input.Value())
		if u == "" {
			m.statusMessage = "username is empty"
			return m, nil
		}
		if containsFold(m.users, u) {
			m.statusMessage = fmt.Sprintf("%q is already in the list", u)
			return m, nil
		}
		m.users = append(m.users, u)
		m.cursor = len(m.users) - 1
		m.dirty = true
		m.mode = seedsModeBrowse
		m.input.Blur()
		m.statusMessage = fmt.Sprintf("added %q", u)
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m seedsModel) updateDeleteConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch strings.ToLower(msg.String()) {
	case "y", "enter":
		removed := m.users[m.cursor]
		m.users = append(m.users[:m.cursor], m.users[m.cursor+1:]...)
		if m.cursor > len(m.users)-1 {
			m.cursor = maxOf(len(m.users)-1, 0)
		}
		m.dirty = true
		m.statusMessage = fmt.Sprintf("removed %q", removed)
	default:
		m.statusMessage = "delete cancelled"
	}
	m.mode = seedsModeBrowse
	return m, nil
}

func (m seedsModel) View() string {
	var b strings.Builder
	b.WriteString(seedsTitleStyle.Render("seed usernames — " + m.path))
	if m.dirty {
		b.WriteString(" " + seedsWarnStyle.Render("(unsaved)"))
	}
	b.WriteString("\n\n")

	if len(m.users) == 0 {
		b.WriteString(seedsMutedStyle.Render("no usernames yet — press 'a' to add one"))
		b.WriteString("\n")
	} else {
		maxRows := m.height - 8
		if maxRows < 5 {
			maxRows = 5
		}
		start, end := listWindow(len(m.users), m.cursor, maxRows)
		for i := start; i < end; i++ {
			line := truncateRunes(m.users[i], maxOf(m.width-8, 16))
			if !seeds.IsWellFormed(m.users[i]) {
				line += " " + seedsWarnStyle.Render("!")
			}
			if i == m.cursor {
				b.WriteString(seedsSelStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\n")

	switch m.mode {
	case seedsModeAdd:
		b.WriteString("add username: " + m.input.View() + "\n")
		b.WriteString(seedsMutedStyle.Render("enter: add • esc: cancel"))
	case seedsModeDeleteConfirm:
		b.WriteString(seedsErrorStyle.Render(fmt.Sprintf("delete %q? (y/n)", m.users[m.cursor])))
	default:
		b.WriteString(seedsMutedStyle.Render("a: add • d: delete • s: save • r: reload • q: quit • ! = unusual characters"))
	}

	if m.statusMessage != "" {
		b.WriteString("\n" + seedsOKStyle.Render(m.statusMessage))
	}
	return b.String()
}

func maxOf(a, b int) int {
	if a > b {
		return a
	}
	return b
}
