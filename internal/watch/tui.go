package watch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/sprocketaudio/mctelemetry/internal/telemetry"
)

// pollMsg carries the result of one fetch. Manual polls do not schedule
// the next automatic one.
type pollMsg struct {
	payload telemetry.Payload
	err     error
	at      time.Time
	manual  bool
}

type tickMsg time.Time

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

func levelStyle(l Level) lipgloss.Style {
	switch l {
	case LevelGood:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case LevelStrained:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	case LevelLagging:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	default:
		return dimStyle
	}
}

type tuiModel struct {
	client   *Client
	interval time.Duration
	table    table.Model
	payload  telemetry.Payload
	have     bool
	err      error
	lastPoll time.Time
	polls    int
	width    int
}

func newTUIModel(c *Client, interval time.Duration) tuiModel {
	cols := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Player", Width: 18},
		{Title: "UUID", Width: 34},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(10))
	return tuiModel{client: c, interval: interval, table: t}
}

func (m tuiModel) Init() tea.Cmd { return m.poll(false) }

func (m tuiModel) poll(manual bool) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), c.http.Timeout)
		defer cancel()
		p, err := c.Fetch(ctx)
		return pollMsg{payload: p, err: err, at: time.Now(), manual: manual}
	}
}

func (m tuiModel) schedule() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.table.SetWidth(msg.Width)
		if h := msg.Height - 8; h > 3 {
			m.table.SetHeight(h)
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.poll(true)
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	case pollMsg:
		m.polls++
		m.lastPoll = msg.at
		m.err = msg.err
		if msg.err == nil {
			m.payload = msg.payload
			m.have = true
			m.table.SetRows(playerRows(msg.payload))
		}
		if msg.manual {
			return m, nil
		}
		return m, m.schedule()
	case tickMsg:
		return m, m.poll(false)
	}
	return m, nil
}

func playerRows(p telemetry.Payload) []table.Row {
	rows := make([]table.Row, len(p.Players))
	for i, pl := range p.Players {
		rows[i] = table.Row{fmt.Sprintf("%d", i+1), pl.Name, pl.UUID}
	}
	return rows
}

func (m tuiModel) View() string {
	sections := []string{m.renderHeader(), m.table.View()}
	if m.err != nil {
		text := "poll failed: " + m.err.Error()
		if m.width > 0 {
			text = wordwrap.String(text, m.width)
		}
		sections = append(sections, errStyle.Render(text))
	}
	sections = append(sections, dimStyle.Render("q quit • r refresh • ↑/↓ scroll"))
	return strings.Join(sections, "\n")
}

func (m tuiModel) renderHeader() string {
	title := titleStyle.Render("mctelemetry") + " " + dimStyle.Render(m.client.URL())
	if !m.have {
		return title + "\n" + dimStyle.Render("waiting for first poll…")
	}
	p := m.payload
	level := LevelOf(p.TPS)
	stats := lipgloss.JoinHorizontal(lipgloss.Top,
		fmt.Sprintf("mc %s  loader %s  ", p.MC, p.Loader),
		levelStyle(level).Render(fmt.Sprintf("tps %s  mspt %s", formatMetric(p.TPS), formatMetric(p.MSPT))),
		fmt.Sprintf("  players %d", len(p.Players)),
	)
	polled := dimStyle.Render("last poll " + m.lastPoll.Format(time.TimeOnly))
	return title + "\n" + stats + "\n" + polled
}
