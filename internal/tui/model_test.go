package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zhouzirui/z-meeting/internal/live"
	"github.com/zhouzirui/z-meeting/internal/meeting"
	"github.com/zhouzirui/z-meeting/internal/model/transcript"
)

type fakeMeeting struct {
	open      bool
	turns     []transcript.Turn
	lastError string
	events    chan struct{}
	done      chan struct{}
	ended     int
}

func newFakeMeeting(open bool) *fakeMeeting {
	return &fakeMeeting{open: open, events: make(chan struct{}, 1), done: make(chan struct{})}
}

func (f *fakeMeeting) Send(content string) (transcript.Turn, error) {
	return f.SendAs(content, live.DefaultSpeaker)
}

func (f *fakeMeeting) SendAs(content, speaker string) (transcript.Turn, error) {
	if !f.open {
		return transcript.Turn{}, live.ErrNotOpen
	}
	turn := transcript.Turn{Role: transcript.RoleUser, Speaker: speaker, Content: content, Timestamp: time.Now()}
	f.turns = append(f.turns, turn)
	return turn, nil
}

func (f *fakeMeeting) Simulate() (transcript.Turn, error) {
	s := live.Scenarios[0]
	return f.SendAs(s.Message, s.Speaker)
}

func (f *fakeMeeting) Snapshot() meeting.Snapshot {
	return meeting.Snapshot{Connected: f.open, LastError: f.lastError, Turns: append([]transcript.Turn(nil), f.turns...)}
}

func (f *fakeMeeting) Events() <-chan struct{} { return f.events }

func (f *fakeMeeting) Done() <-chan struct{} { return f.done }

func (f *fakeMeeting) End() {
	f.ended++
	if f.open {
		close(f.done)
	}
	f.open = false
}

func typeText(m Model, text string) Model {
	for _, r := range text {
		var msg tea.KeyMsg
		if r == ' ' {
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		} else {
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
		}
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	return m
}

func newTestModel(f *fakeMeeting) Model {
	m := New(f, "Meeting with Sarah", "Sarah", "Product Manager")
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model)
}

func TestEnterSendsTypedText(t *testing.T) {
	f := newFakeMeeting(true)
	m := typeText(newTestModel(f), "status update?")

	if m.Input() != "status update?" {
		t.Fatalf("input = %q", m.Input())
	}

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	if len(f.turns) != 1 || f.turns[0].Content != "status update?" {
		t.Fatalf("turns = %+v", f.turns)
	}
	if m.Input() != "" {
		t.Errorf("input should be cleared, got %q", m.Input())
	}
	if len(m.snapshot.Turns) != 1 {
		t.Errorf("snapshot not refreshed")
	}
}

func TestEnterIgnoresBlankInput(t *testing.T) {
	f := newFakeMeeting(true)
	m := typeText(newTestModel(f), "   ")

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if len(f.turns) != 0 {
		t.Fatalf("blank input should not be sent")
	}
}

func TestSendWhileDisconnectedKeepsInput(t *testing.T) {
	f := newFakeMeeting(false)
	m := typeText(newTestModel(f), "hello")

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	if m.Input() != "hello" {
		t.Errorf("input = %q, want it kept", m.Input())
	}
	if !strings.Contains(m.View(), "not connected") {
		t.Errorf("view should report the dropped send")
	}
}

func TestSimulateKey(t *testing.T) {
	f := newFakeMeeting(true)
	m := newTestModel(f)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	if len(f.turns) != 1 || f.turns[0].Speaker != live.Scenarios[0].Speaker {
		t.Fatalf("turns = %+v", f.turns)
	}
}

func TestBackspace(t *testing.T) {
	m := typeText(newTestModel(newFakeMeeting(true)), "abc")
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if got := updated.(Model).Input(); got != "ab" {
		t.Errorf("input = %q", got)
	}
}

func TestEscEndsMeeting(t *testing.T) {
	f := newFakeMeeting(true)
	m := newTestModel(f)

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("esc should return an end command")
	}
	if _, ok := cmd().(EndedMsg); !ok {
		t.Fatal("end command should report EndedMsg")
	}
	if f.ended != 1 {
		t.Errorf("End called %d times", f.ended)
	}

	_, cmd = updated.(Model).Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd != nil {
		t.Error("second esc should be ignored")
	}

	_, cmd = updated.(Model).Update(EndedMsg{})
	if cmd == nil {
		t.Fatal("EndedMsg should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("EndedMsg should produce tea.Quit")
	}
}

func TestMeetingChangedRefreshesView(t *testing.T) {
	f := newFakeMeeting(false)
	m := newTestModel(f)

	if !strings.Contains(m.View(), "Live Meeting - Meeting with Sarah") {
		t.Errorf("header missing title")
	}
	if !strings.Contains(m.View(), "Acting as: Sarah (Product Manager)") {
		t.Errorf("header missing profile")
	}

	f.open = true
	f.turns = append(f.turns,
		transcript.Turn{Role: transcript.RoleUser, Speaker: "Manager", Content: "status update?", Timestamp: time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)},
		transcript.Turn{Role: transcript.RoleAssistant, Speaker: "Assistant", Content: "On track", Timestamp: time.Date(2024, 5, 1, 10, 0, 5, 0, time.Local)},
	)
	updated, cmd := m.Update(MeetingChangedMsg{})
	m = updated.(Model)
	if cmd == nil {
		t.Error("should keep listening for changes")
	}

	view := m.View()
	for _, want := range []string{"Manager • 10:00:00", "status update?", "Assistant • 10:00:05", "On track"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if !m.snapshot.Connected {
		t.Error("snapshot should be connected")
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four", 9)
	want := []string{"one two", "three", "four"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("wrapText = %q", lines)
	}
}

func TestWrapTextWideRunes(t *testing.T) {
	lines := wrapText("会议状态更新 请稍等", 6)
	want := []string{"会议状", "态更新", "请稍等"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("wrapText = %q", lines)
	}
	for _, l := range lines {
		if w := lipgloss.Width(l); w > 6 {
			t.Errorf("line %q is %d cells wide", l, w)
		}
	}
}

func TestTruncateLeftWideRunes(t *testing.T) {
	got := truncateLeft("会议状态更新", 10)
	if got != "…状态更新" {
		t.Errorf("truncateLeft = %q", got)
	}
	if w := lipgloss.Width(got); w > 10 {
		t.Errorf("width = %d", w)
	}

	if got := truncateLeft("abcdef", 4); got != "…def" {
		t.Errorf("truncateLeft ascii = %q", got)
	}
}

func TestLongWideInputRenders(t *testing.T) {
	m := typeText(newTestModel(newFakeMeeting(true)), strings.Repeat("会议", 40))
	view := m.View()
	if !strings.Contains(view, "…") {
		t.Error("long input should be truncated from the left")
	}
}

func TestEventCommandReturnsWhenMeetingDone(t *testing.T) {
	f := newFakeMeeting(true)
	m := newTestModel(f)
	f.End()

	msg := readEventCmd(f)()
	if _, ok := msg.(MeetingDoneMsg); !ok {
		t.Fatalf("expected MeetingDoneMsg, got %T", msg)
	}
	if _, cmd := m.Update(msg); cmd != nil {
		t.Error("done meeting should not re-arm the event command")
	}
}
