package ai

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/z-meeting/internal/model/profile"
)

// PromptTemplate defines the fixed part of a stand-in prompt.
type PromptTemplate struct {
	Preamble     string
	ContextRules []string
	Closing      string
}

// DefaultTemplate is used for every profile.
var DefaultTemplate = PromptTemplate{
	Preamble: "You are attending a meeting on behalf of someone. Your responses should be:",
	ContextRules: []string{
		"Professional and contextual",
		"Brief but meaningful (2-3 sentences max)",
		"Appropriate for the meeting context",
		"Reflect the personality and role described",
	},
	Closing: "Important: Always respond as if you're the person attending the meeting, not an AI assistant.",
}

// BuildSystemPrompt creates the system prompt for a profile.
func BuildSystemPrompt(p profile.Profile) string {
	return DefaultTemplate.Render(p)
}

// Render fills the template with the profile.
func (t PromptTemplate) Render(p profile.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a %s.\n", p.Name, p.Role)
	fmt.Fprintf(&b, "Personality: %s\n", p.Personality)
	fmt.Fprintf(&b, "Response style: %s\n\n", p.ResponseStyle)

	b.WriteString(t.Preamble)
	b.WriteString("\n")
	for _, rule := range t.ContextRules {
		b.WriteString("- ")
		b.WriteString(rule)
		b.WriteString("\n")
	}

	topics := "general business topics"
	if len(p.MeetingTopics) > 0 {
		topics = strings.Join(p.MeetingTopics, ", ")
	}
	fmt.Fprintf(&b, "\nMeeting topics you're familiar with: %s\n\n", topics)
	b.WriteString(t.Closing)
	return b.String()
}

// LiveQuery prefixes a live meeting message with its speaker.
func LiveQuery(speaker, content string) string {
	if speaker == "" {
		speaker = "Unknown"
	}
	return speaker + ": " + content
}
