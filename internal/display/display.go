// Package display renders a live Mars clock table in the terminal using
// bubbletea. One row per site, refreshed every second.
package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mars/marsclock/internal/marstime"
	"github.com/mars/marsclock/internal/site"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// tickMsg carries the wall-clock instant of a refresh tick.
type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model is the bubbletea model for the Mars clock table.
type Model struct {
	sites []site.Site
	table table.Model
	now   time.Time
	err   error
}

// NewModel builds the clock table for the given site catalog.
func NewModel(sites []site.Site) Model {
	cols := []table.Column{
		{Title: "Site", Width: 20},
		{Title: "Lon °E", Width: 8},
		{Title: "LMST", Width: 10},
		{Title: "LTST", Width: 10},
		{Title: "Sol", Width: 7},
	}
	t := table.New(
		table.WithColumns(cols),
		table.WithRows(nil),
		table.WithHeight(len(sites)+1),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	s.Selected = lipgloss.NewStyle() // No row selection in a clock display.
	t.SetStyles(s)

	m := Model{sites: sites, table: t, now: time.Now().UTC()}
	m.refresh()
	return m
}

// refresh recomputes all rows for the current instant.
func (m *Model) refresh() {
	rows := make([]table.Row, 0, len(m.sites))
	for _, s := range m.sites {
		r, err := marstime.Convert(m.now, s.LongitudeE)
		if err != nil {
			m.err = err
			return
		}
		rows = append(rows, table.Row{
			s.Name,
			fmt.Sprintf("%.1f", s.LongitudeE),
			marstime.FormatHMS(r.LMSTHours),
			marstime.FormatHMS(r.LTSTHours),
			fmt.Sprintf("%d", r.SolNumber),
		})
	}
	m.err = nil
	m.table.SetRows(rows)
}

// mtcLine formats the shared header: Earth UTC and planet-wide MTC.
func (m Model) mtcLine() string {
	r, err := marstime.Convert(m.now, 0)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("UTC %s   MTC %s   MSD %.5f",
		m.now.Format("2006-01-02 15:04:05"),
		marstime.FormatHMS(r.MTCHours),
		r.MarsSolDate,
	)
}

func (m Model) Init() tea.Cmd { return tickCmd() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case tickMsg:
		m.now = time.Time(msg).UTC()
		m.refresh()
		return m, tickCmd()
	}
	return m, nil
}

func (m Model) View() string {
	if m.err != nil {
		return errStyle.Render("error: "+m.err.Error()) + "\n"
	}
	sections := []string{
		titleStyle.Render("Mars Clock"),
		dimStyle.Render(m.mtcLine()),
		m.table.View(),
		dimStyle.Render("q to quit"),
	}
	return strings.Join(sections, "\n") + "\n"
}
