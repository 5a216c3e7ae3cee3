package tui

import "github.com/zhouzirui/z-meeting/internal/model/transcript"

// MeetingChangedMsg is sent when the meeting snapshot changed.
type MeetingChangedMsg struct{}

// MeetingDoneMsg is sent once the meeting's channel has shut down.
type MeetingDoneMsg struct{}

// SentMsg reports the result of a send or simulate command.
type SentMsg struct {
	Turn transcript.Turn
	Err  error
}

// EndedMsg is sent once the meeting has been torn down.
type EndedMsg struct{}
