// Package tui renders a live meeting in the terminal.
package tui

import (
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zhouzirui/z-meeting/internal/live"
	"github.com/zhouzirui/z-meeting/internal/meeting"
	"github.com/zhouzirui/z-meeting/internal/model/transcript"
)

const placeholder = "Simulate someone speaking in the meeting..."

// Meeting is the part of *meeting.Meeting the view drives.
type Meeting interface {
	Send(content string) (transcript.Turn, error)
	Simulate() (transcript.Turn, error)
	Snapshot() meeting.Snapshot
	Events() <-chan struct{}
	Done() <-chan struct{}
	End()
}

// Model is the bubbletea model of the meeting view.
type Model struct {
	meeting Meeting

	title    string
	name     string
	role     string
	snapshot meeting.Snapshot

	input   []rune
	sendErr string
	ended   bool

	width  int
	height int
}

// New creates the view for m. title, name and role fill the header.
func New(m Meeting, title, name, role string) Model {
	return Model{
		meeting:  m,
		title:    title,
		name:     name,
		role:     role,
		snapshot: m.Snapshot(),
	}
}

// Init starts listening for meeting changes.
func (m Model) Init() tea.Cmd {
	return readEventCmd(m.meeting)
}

// readEventCmd waits for the next meeting change, or for the meeting to finish.
func readEventCmd(mt Meeting) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-mt.Events():
			return MeetingChangedMsg{}
		case <-mt.Done():
			return MeetingDoneMsg{}
		}
	}
}

// endCmd tears the meeting down off the UI goroutine.
func endCmd(mt Meeting) tea.Cmd {
	return func() tea.Msg {
		mt.End()
		return EndedMsg{}
	}
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case MeetingChangedMsg:
		m.snapshot = m.meeting.Snapshot()
		if m.ended {
			return m, nil
		}
		return m, readEventCmd(m.meeting)

	case MeetingDoneMsg:
		// nothing changes after the channel is gone
		m.snapshot = m.meeting.Snapshot()
		return m, nil

	case SentMsg:
		m.recordSend(msg.Err)
		m.snapshot = m.meeting.Snapshot()
		return m, nil

	case EndedMsg:
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.ended {
		return m, nil
	}

	switch msg.String() {
	case KeyEnd, KeyCtrlC:
		m.ended = true
		return m, endCmd(m.meeting)

	case KeyEnter:
		text := strings.TrimSpace(string(m.input))
		if text == "" {
			return m, nil
		}
		// Sent inline so turns keep keystroke order.
		_, err := m.meeting.Send(text)
		m.recordSend(err)
		if err == nil {
			m.input = m.input[:0]
		}
		m.snapshot = m.meeting.Snapshot()
		return m, nil

	case KeySimulate:
		_, err := m.meeting.Simulate()
		m.recordSend(err)
		m.snapshot = m.meeting.Snapshot()
		return m, nil

	case KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
		return m, nil

	case KeySpace:
		m.input = append(m.input, ' ')
		return m, nil
	}

	if msg.Type == tea.KeyRunes {
		m.input = append(m.input, msg.Runes...)
	}
	return m, nil
}

func (m *Model) recordSend(err error) {
	switch {
	case err == nil:
		m.sendErr = ""
	case errors.Is(err, live.ErrNotOpen):
		m.sendErr = "not connected, message not sent"
	default:
		m.sendErr = err.Error()
	}
}

// Input returns the pending input line.
func (m Model) Input() string { return string(m.input) }

func (m Model) View() string {
	if m.width == 0 {
		return "Connecting..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, DividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderTranscript(m.transcriptHeight())...)
	sections = append(sections, DividerStyle.Render(strings.Repeat("─", m.width)))
	if e := m.errorText(); e != "" {
		sections = append(sections, ErrorStyle.Render("Error: ")+e)
	}
	sections = append(sections, m.renderInput())
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	dot := DisconnectedDotStyle.Render("●")
	if m.snapshot.Connected {
		dot = ConnectedDotStyle.Render("●")
	}
	title := TitleStyle.Render("Live Meeting - " + m.title)
	acting := ActingAsStyle.Render("Acting as: " + m.name + " (" + m.role + ")")
	return dot + " " + title + "  " + acting
}

func (m Model) transcriptHeight() int {
	// header, two dividers, input, footer
	h := m.height - 5
	if m.errorText() != "" {
		h--
	}
	return max(h, 1)
}

// renderTranscript returns the last height lines of the transcript.
func (m Model) renderTranscript(height int) []string {
	width := max(m.width-2, 10)

	var lines []string
	for _, turn := range m.snapshot.Turns {
		lines = append(lines, m.renderTurn(turn, width)...)
	}
	if len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return lines
}

func (m Model) renderTurn(turn transcript.Turn, width int) []string {
	meta := MetaStyle.Render(turn.Speaker + " • " + turn.DisplayTime())
	style := UserStyle
	if turn.Role == transcript.RoleAssistant {
		style = AssistantStyle
	}

	lines := []string{meta}
	for _, l := range wrapText(turn.Content, width) {
		lines = append(lines, style.Render(l))
	}
	return lines
}

func (m Model) renderInput() string {
	prompt := PromptStyle.Render("> ")
	if len(m.input) == 0 {
		return prompt + PlaceholderStyle.Render(placeholder)
	}
	return prompt + truncateLeft(string(m.input), m.width-2)
}

func (m Model) renderFooter() string {
	parts := []string{
		FooterKeyStyle.Render("Enter") + FooterDescStyle.Render(" Send"),
		FooterKeyStyle.Render("Ctrl+S") + FooterDescStyle.Render(" Simulate Question"),
		FooterKeyStyle.Render("Esc") + FooterDescStyle.Render(" End Meeting"),
	}
	return strings.Join(parts, "  ")
}

func (m Model) errorText() string {
	if m.sendErr != "" {
		return m.sendErr
	}
	return m.snapshot.LastError
}

// Helpers

// truncateLeft keeps the tail of s that fits in width cells, prefixed with an ellipsis.
func truncateLeft(s string, width int) string {
	if width <= 1 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes)) > width-1 {
		runes = runes[1:]
	}
	return "…" + string(runes)
}

// wrapText breaks text into lines of at most width cells. Words wider than a line are split.
func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			for _, piece := range splitWide(word, width) {
				switch {
				case current == "":
					current = piece
				case lipgloss.Width(current)+1+lipgloss.Width(piece) <= width:
					current += " " + piece
				default:
					lines = append(lines, current)
					current = piece
				}
			}
		}
		lines = append(lines, current)
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

// splitWide cuts word into chunks no wider than width cells.
func splitWide(word string, width int) []string {
	if lipgloss.Width(word) <= width {
		return []string{word}
	}

	var chunks []string
	var current []rune
	for _, r := range word {
		if len(current) > 0 && lipgloss.Width(string(append(current, r))) > width {
			chunks = append(chunks, string(current))
			current = nil
		}
		current = append(current, r)
	}
	if len(current) > 0 {
		chunks = append(chunks, string(current))
	}
	return chunks
}
