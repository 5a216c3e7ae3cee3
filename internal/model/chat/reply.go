package chat

// Response types reported with a reply.
const (
	ResponseAnswer         = "answer"
	ResponseQuestion       = "question"
	ResponseAcknowledgment = "acknowledgment"
)

// DefaultConfidence is attached to generated replies.
const DefaultConfidence = 0.9

// Reply is the result of one request/response chat turn.
type Reply struct {
	Message      string  `json:"message"`
	Confidence   float64 `json:"confidence"`
	ResponseType string  `json:"response_type"`
	AudioURL     *string `json:"audio_url"`
}
