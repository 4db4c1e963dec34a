// Package tui renders one voice conversation session in the terminal:
// the turn log, the session mode, a live microphone meter and a text input
// for typed messages.
package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	session "github.com/medivoice/voice-core/core"
)

// Session events arrive over a channel fed by the session callbacks; the
// model re-arms a read command after each one, keeping the update loop the
// single owner of UI state.
type (
	ModeChangedMsg struct{ Mode session.Mode }
	TurnAppendedMsg struct{ Turn session.Turn }
	TurnUpdatedMsg struct{ Turn session.Turn }
	AlertMsg struct{ Message string }
)

type levelTickMsg struct{}
type clearAlertMsg struct{}

const levelTickInterval = 100 * time.Millisecond

type Model struct {
	session *session.Session
	events  <-chan tea.Msg

	input   textinput.Model
	loading spinner.Model

	mode  session.Mode
	turns []session.Turn
	level float64
	alert string
	muted bool

	width  int
	height int
}

func New(sess *session.Session, events <-chan tea.Msg) Model {
	input := textinput.New()
	input.Placeholder = "Type a message, or press ctrl+v to talk"
	input.Focus()

	loading := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(spinnerStyle),
	)

	return Model{
		session: sess,
		events:  events,
		input:   input,
		loading: loading,
		mode:    sess.Mode(),
		turns:   sess.Turns(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.loading.Tick,
		readEventCmd(m.events),
		levelTickCmd(),
	)
}

func readEventCmd(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg { return <-events }
}

func levelTickCmd() tea.Cmd {
	return tea.Tick(levelTickInterval, func(time.Time) tea.Msg {
		return levelTickMsg{}
	})
}

func clearAlertCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return clearAlertMsg{}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(20, m.width-4)
		return m, nil

	case ModeChangedMsg:
		m.mode = msg.Mode
		return m, readEventCmd(m.events)

	case TurnAppendedMsg:
		m.turns = append(m.turns, msg.Turn)
		return m, readEventCmd(m.events)

	case TurnUpdatedMsg:
		for i := range m.turns {
			if m.turns[i].ID == msg.Turn.ID {
				m.turns[i] = msg.Turn
				break
			}
		}
		return m, readEventCmd(m.events)

	case AlertMsg:
		m.alert = msg.Message
		return m, tea.Batch(readEventCmd(m.events), clearAlertCmd())

	case clearAlertMsg:
		m.alert = ""
		return m, nil

	case levelTickMsg:
		m.level = m.session.VoiceLevel()
		return m, levelTickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.loading, cmd = m.loading.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.session.Close()
		return m, tea.Quit

	case "enter":
		message := strings.TrimSpace(m.input.Value())
		if message == "" {
			return m, nil
		}
		m.input.Reset()
		if err := m.session.SendText(message); err != nil {
			m.alert = err.Error()
			return m, clearAlertCmd()
		}
		return m, nil

	case "ctrl+v":
		var err error
		if m.mode.IsContinuous() {
			err = m.session.DisableContinuousMode()
		} else {
			err = m.session.EnableContinuousMode()
		}
		if err != nil {
			m.alert = err.Error()
			return m, clearAlertCmd()
		}
		return m, nil

	case "ctrl+r":
		var err error
		if m.mode == session.ModeRecording {
			err = m.session.StopRecording()
		} else {
			err = m.session.StartRecording()
		}
		if err != nil {
			m.alert = err.Error()
			return m, clearAlertCmd()
		}
		return m, nil

	case "ctrl+l":
		if err := m.session.ClearHistory(); err != nil {
			m.alert = err.Error()
			return m, clearAlertCmd()
		}
		m.turns = nil
		return m, nil

	case "ctrl+s":
		m.muted = !m.muted
		m.session.SetSpeechMuted(m.muted)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderStatusBar())
	sections = append(sections, dividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderConversation())
	sections = append(sections, dividerStyle.Render(strings.Repeat("─", m.width)))
	if m.alert != "" {
		sections = append(sections, errorStyle.Render("! ")+errorTextStyle.Render(m.alert))
	}
	sections = append(sections, m.input.View())
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("MEDIVOICE")
	id := m.session.ID()
	if len(id) > 8 {
		id = id[:8]
	}
	return title + dimStyle.Render(" — session "+id)
}

func (m Model) renderStatusBar() string {
	var badge string
	switch m.mode {
	case session.ModeRecording, session.ModeSilencePending:
		badge = recordingDotStyle.Render("● REC")
	case session.ModeListening:
		badge = listeningDotStyle.Render("● LISTENING")
	case session.ModeConnecting:
		badge = pendingTurnStyle.Render("○ CONNECTING")
	case session.ModeProcessing:
		badge = m.loading.View() + spinnerStyle.Render("THINKING")
	case session.ModeSpeaking:
		badge = assistantTurnStyle.Render("● SPEAKING")
	case session.ModeErrorHalted:
		badge = haltedDotStyle.Render("✗ HALTED")
	default:
		badge = idleDotStyle.Render("○ IDLE")
	}

	var meter string
	if m.mode == session.ModeListening || m.mode.RecordingActive() {
		meter = "  " + renderLevelMeter(m.level)
	}

	var mute string
	if m.muted {
		mute = "  " + dimStyle.Render("[MUTED]")
	}

	return badge + meter + mute
}

func renderLevelMeter(level float64) string {
	const barLen = 10
	filled := int(level * barLen * 4)
	if filled > barLen {
		filled = barLen
	}

	var bar strings.Builder
	for i := 0; i < barLen; i++ {
		if i < filled {
			if float64(i)/barLen > 0.6 {
				bar.WriteString(levelYellowStyle.Render("█"))
			} else {
				bar.WriteString(levelGreenStyle.Render("█"))
			}
		} else {
			bar.WriteString(levelGrayStyle.Render("░"))
		}
	}
	return dimStyle.Render("MIC ") + bar.String()
}

func (m Model) renderConversation() string {
	height := m.conversationHeight()
	textWidth := max(20, m.width-14)

	var lines []string
	for _, turn := range m.turns {
		timestamp := timestampStyle.Render(turn.Timestamp.Format("[15:04:05]"))

		var label string
		switch {
		case turn.IsError:
			label = errorStyle.Render(" error ")
		case turn.Role == session.TurnRoleUser:
			label = userTurnStyle.Render(" you ")
		default:
			label = assistantTurnStyle.Render(" assistant ")
		}

		wrapped := strings.Split(wordwrap.String(turn.Content, textWidth), "\n")
		lines = append(lines, timestamp+label+wrapped[0])
		for _, line := range wrapped[1:] {
			lines = append(lines, strings.Repeat(" ", 11)+line)
		}
	}

	if len(lines) == 0 {
		lines = append(lines, "")
		lines = append(lines, dimStyle.Render("  Say something, or type below"))
	}

	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

func (m Model) conversationHeight() int {
	if m.height == 0 {
		return 20
	}
	// header, status, two dividers, input, footer, alert slack
	return max(5, m.height-7)
}

func (m Model) renderFooter() string {
	parts := []string{
		footerKeyStyle.Render("enter") + footerDescStyle.Render(" send"),
	}

	if m.mode.IsContinuous() {
		parts = append(parts, footerKeyStyle.Render("ctrl+v")+footerDescStyle.Render(" stop voice"))
	} else {
		parts = append(parts, footerKeyStyle.Render("ctrl+v")+footerDescStyle.Render(" voice mode"))
	}
	if m.mode == session.ModeRecording {
		parts = append(parts, footerKeyStyle.Render("ctrl+r")+footerDescStyle.Render(" stop talking"))
	} else {
		parts = append(parts, footerKeyStyle.Render("ctrl+r")+footerDescStyle.Render(" push to talk"))
	}
	parts = append(parts,
		footerKeyStyle.Render("ctrl+s")+footerDescStyle.Render(" mute"),
		footerKeyStyle.Render("ctrl+l")+footerDescStyle.Render(" clear"),
		footerKeyStyle.Render("ctrl+c")+footerDescStyle.Render(" quit"),
	)

	return strings.Join(parts, "  ")
}
