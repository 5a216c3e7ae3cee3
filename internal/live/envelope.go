package live

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Envelope types carried on the live channel.
const (
	TypeMessage    = "message"
	TypePing       = "ping"
	TypePong       = "pong"
	TypeAIResponse = "ai_response"
	TypeConnected  = "connected"
	TypeError      = "error"
)

// Envelope is the JSON frame exchanged on the live channel in both directions.
// Unknown fields are ignored.
type Envelope struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	Content   string `json:"content,omitempty"`
	Speaker   string `json:"speaker,omitempty"`
	ReplyTo   string `json:"reply_to,omitempty"`
	Message   string `json:"message,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	// Error is set by backends that reject a session before typing the frame, e.g. {"error":"Session not found"}.
	Error string `json:"error,omitempty"`
}

// AIResponse is an assistant turn produced by the backend.
type AIResponse struct {
	Content   string
	Speaker   string
	ReplyTo   string
	Timestamp string
}

// Connected 后端在握手后发送的欢迎消息。
type Connected struct {
	Message   string
	SessionID string
}

// ServerError 后端报告的错误。
type ServerError struct {
	Message string
}

var errMalformed = errors.New("malformed envelope")

// inboundFrame mirrors Envelope with presence tracking for required fields.
type inboundFrame struct {
	Type      string  `json:"type"`
	Content   *string `json:"content"`
	Speaker   *string `json:"speaker"`
	ReplyTo   string  `json:"reply_to"`
	Message   string  `json:"message"`
	SessionID string  `json:"session_id"`
	Timestamp string  `json:"timestamp"`
	Error     string  `json:"error"`
}

// decodeInbound parses one frame. ai_response frames must carry content and speaker.
func decodeInbound(data []byte) (inboundFrame, error) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return frame, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if frame.Type == "" && frame.Error != "" {
		frame.Type = TypeError
		frame.Message = frame.Error
	}
	if frame.Type == TypeAIResponse && (frame.Content == nil || frame.Speaker == nil) {
		return frame, fmt.Errorf("%w: ai_response without content or speaker", errMalformed)
	}
	return frame, nil
}

func (f inboundFrame) aiResponse() AIResponse {
	return AIResponse{
		Content:   deref(f.Content),
		Speaker:   deref(f.Speaker),
		ReplyTo:   f.ReplyTo,
		Timestamp: f.Timestamp,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
