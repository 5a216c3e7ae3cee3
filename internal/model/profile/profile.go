package profile

import (
	"strings"
	"time"

	"github.com/zhouzirui/z-meeting/internal/model/wire"
)

// Profile captures the AI persona a meeting assistant acts as.
type Profile struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Role          string    `json:"role"`
	Personality   string    `json:"personality"`
	ResponseStyle string    `json:"response_style"`
	MeetingTopics []string  `json:"meeting_topics"`
	CreatedAt     wire.Time `json:"created_at"`
}

// Input 创建 profile 时提交的字段（不含 ID）。
type Input struct {
	Name          string   `json:"name"`
	Role          string   `json:"role"`
	Personality   string   `json:"personality"`
	ResponseStyle string   `json:"response_style"`
	MeetingTopics []string `json:"meeting_topics"`
}

// ParseTopics splits a comma separated topic string, trimming entries and dropping empty ones.
func ParseTopics(raw string) []string {
	topics := make([]string, 0, 4)
	for _, part := range strings.Split(raw, ",") {
		if topic := strings.TrimSpace(part); topic != "" {
			topics = append(topics, topic)
		}
	}
	return topics
}

// Build 将输入转换为带有身份信息的 Profile。
func (in Input) Build(id string, now time.Time) Profile {
	topics := make([]string, len(in.MeetingTopics))
	copy(topics, in.MeetingTopics)
	return Profile{
		ID:            id,
		Name:          in.Name,
		Role:          in.Role,
		Personality:   in.Personality,
		ResponseStyle: in.ResponseStyle,
		MeetingTopics: topics,
		CreatedAt:     wire.NewTime(now),
	}
}
