package voice

import "github.com/zhouzirui/z-meeting/internal/model/wire"

// PlaceholderDuration is reported for uploaded samples until real duration probing exists.
const PlaceholderDuration = 10.0

// Profile is an uploaded voice sample available for cloning.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AudioData string    `json:"audio_data,omitempty"` // base64, only populated server side
	Duration  float64   `json:"duration"`
	CreatedAt wire.Time `json:"created_at"`
}

// Synthesis 语音合成接口的返回值。
type Synthesis struct {
	Text     string  `json:"text"`
	VoiceID  *string `json:"voice_id"`
	AudioURL *string `json:"audio_url"`
	Message  string  `json:"message"`
}
