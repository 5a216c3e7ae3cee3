package session

import "github.com/zhouzirui/z-meeting/internal/model/wire"

// Known session statuses. The client treats the value as opaque.
const (
	StatusActive = "active"
	StatusPaused = "paused"
	StatusEnded  = "ended"
)

// DefaultParticipants is used when a meeting is started from a profile.
var DefaultParticipants = []string{"Meeting Participants"}

// Session is one meeting bound to a profile.
type Session struct {
	ID                  string         `json:"id"`
	Title               string         `json:"title"`
	ProfileID           string         `json:"profile_id"`
	Participants        []string       `json:"participants"`
	Status              string         `json:"status"`
	ConversationHistory []HistoryEntry `json:"conversation_history"`
	CreatedAt           wire.Time      `json:"created_at"`
}

// HistoryEntry 会话历史中的一问一答。
type HistoryEntry struct {
	UserMessage string `json:"user_message"`
	AIResponse  string `json:"ai_response"`
	Timestamp   string `json:"timestamp"`
}

// Input 创建会话的请求体。
type Input struct {
	Title        string   `json:"title"`
	ProfileID    string   `json:"profile_id"`
	Participants []string `json:"participants"`
}

// ForProfile returns the default session request used when starting a meeting as a profile.
func ForProfile(profileID, profileName string) Input {
	return Input{
		Title:        "Meeting with " + profileName,
		ProfileID:    profileID,
		Participants: append([]string(nil), DefaultParticipants...),
	}
}

// MessageCount 返回会话历史条数。
func (s Session) MessageCount() int {
	return len(s.ConversationHistory)
}
