package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/aria/internal/models"
	"github.com/desertthunder/aria/internal/player"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	StationListView ViewState = iota
	NowPlayingView
)

// statusMsg delivers one engine status snapshot into the Elm loop.
type statusMsg player.Status

// statusClosedMsg signals the engine shut its status channel.
type statusClosedMsg struct{}

// Model represents the TUI application state.
type Model struct {
	view        ViewState
	commands    chan<- player.Command
	status      <-chan player.Status
	stationList list.Model
	current     player.Status
	width       int
	height      int
	quitting    bool
	help        help.Model
	keys        keyMap
}

// NewModel creates a new TUI model wired to the playback engine's channels.
// The station catalog is fetched before the TUI starts so the list renders
// immediately.
func NewModel(commands chan<- player.Command, status <-chan player.Status, stations []models.Station) *Model {
	items := make([]list.Item, len(stations))
	for i, st := range stations {
		items[i] = stationItem{station: st}
	}
	stationList := list.New(items, list.NewDefaultDelegate(), 0, 0)
	stationList.Title = "Stations"

	return &Model{
		view:        StationListView,
		commands:    commands,
		status:      status,
		stationList: stationList,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init starts the status-channel pump.
func (m *Model) Init() tea.Cmd {
	return m.waitForStatus()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.stationList.SetSize(msg.Width-4, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case StationListView:
			return m.handleStationListKeys(msg)
		case NowPlayingView:
			return m.handleNowPlayingKeys(msg)
		}

	case statusMsg:
		m.current = player.Status(msg)
		if m.quitting && m.current.State == player.StateStopped {
			return m, tea.Quit
		}
		return m, m.waitForStatus()

	case statusClosedMsg:
		return m, tea.Quit
	}

	if m.view == StationListView {
		var cmd tea.Cmd
		m.stationList, cmd = m.stationList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case StationListView:
		return m.renderStationList()
	case NowPlayingView:
		return m.renderNowPlaying()
	default:
		return ""
	}
}

func (m *Model) handleStationListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.enter):
		if selected, ok := m.stationList.SelectedItem().(stationItem); ok {
			m.view = NowPlayingView
			return m, m.send(player.SelectStation(selected.station.ID))
		}
	case key.Matches(msg, m.keys.back):
		if m.current.Station != nil {
			// A station is already tuned; drop back to it.
			m.view = NowPlayingView
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.stationList, cmd = m.stationList.Update(msg)
	return m, cmd
}

func (m *Model) handleNowPlayingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.stations), key.Matches(msg, m.keys.back):
		m.view = StationListView
		return m, nil
	case key.Matches(msg, m.keys.pause):
		return m, m.send(player.Command{Kind: player.CmdTogglePause})
	case key.Matches(msg, m.keys.skip):
		return m, m.send(player.Command{Kind: player.CmdSkip})
	case key.Matches(msg, m.keys.tired):
		return m, m.send(player.Command{Kind: player.CmdTired})
	case key.Matches(msg, m.keys.volUp):
		return m, m.send(player.Command{Kind: player.CmdVolumeUp})
	case key.Matches(msg, m.keys.volDown):
		return m, m.send(player.Command{Kind: player.CmdVolumeDown})
	case key.Matches(msg, m.keys.thumbUp):
		return m, m.send(player.Command{Kind: player.CmdThumbsUp})
	case key.Matches(msg, m.keys.thumbDn):
		return m, m.send(player.Command{Kind: player.CmdThumbsDown})
	case key.Matches(msg, m.keys.unrate):
		return m, m.send(player.Command{Kind: player.CmdClearRating})
	}
	return m, nil
}

// send delivers a command to the engine off the Elm update thread.
func (m *Model) send(cmd player.Command) tea.Cmd {
	return func() tea.Msg {
		m.commands <- cmd
		return nil
	}
}

// quit asks the engine to shut down; tea.Quit follows once the engine reports
// StateStopped, so audio teardown finishes before the terminal is restored.
func (m *Model) quit() tea.Cmd {
	m.quitting = true
	return m.send(player.Command{Kind: player.CmdQuit})
}

func (m *Model) waitForStatus() tea.Cmd {
	return func() tea.Msg {
		st, ok := <-m.status
		if !ok {
			return statusClosedMsg{}
		}
		return statusMsg(st)
	}
}

func (m *Model) renderStationList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.stationList.View(), helpView)
}

func (m *Model) renderNowPlaying() string {
	var b strings.Builder

	station := "No station"
	if m.current.Station != nil {
		station = m.current.Station.Name
		if station == "" {
			station = m.current.Station.ID
		}
	}
	b.WriteString(styles.title.Render(station))
	b.WriteString("\n")

	switch {
	case m.current.Track != nil:
		t := m.current.Track
		b.WriteString(styles.track.Render(t.Title))
		b.WriteString(fmt.Sprintf("\n%s — %s\n", t.Artist, t.Album))
		b.WriteString(fmt.Sprintf("\n%s %s / %s%s\n",
			stateGlyph(m.current.State),
			fmtDuration(m.current.Position),
			fmtDuration(t.Duration),
			ratingGlyph(t.Rating),
		))
	case m.current.State == player.StateLoading:
		b.WriteString("Loading...\n")
	default:
		b.WriteString(styles.help.Render("Pick a station to start playback"))
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("\nVolume: %3.0f%%\n", m.current.Volume*100))

	if m.current.Notice != "" {
		b.WriteString("\n")
		b.WriteString(styles.warn.Render(m.current.Notice))
		b.WriteString("\n")
	}

	helpKeys := []key.Binding{
		m.keys.pause, m.keys.skip, m.keys.thumbUp, m.keys.thumbDn,
		m.keys.tired, m.keys.stations, m.keys.quit,
	}
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(helpKeys))
	return b.String()
}

func stateGlyph(s player.State) string {
	switch s {
	case player.StatePlaying:
		return "▶"
	case player.StatePaused:
		return "⏸"
	case player.StateLoading:
		return "…"
	default:
		return "■"
	}
}

func ratingGlyph(r models.Rating) string {
	switch r {
	case models.RatingThumbsUp:
		return "  " + styles.ok.Render("▲")
	case models.RatingThumbsDown:
		return "  " + styles.err.Render("▼")
	default:
		return ""
	}
}

// fmtDuration renders mm:ss (or h:mm:ss past the hour).
func fmtDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
