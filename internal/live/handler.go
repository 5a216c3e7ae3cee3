package live

import "github.com/zhouzirui/z-meeting/internal/model/transcript"

// Handler consumes channel events. Inbound callbacks run on the channel's receive goroutine in
// network-delivery order; OnSent runs on the goroutine that called Send. Handlers must not call
// Send from inside a callback.
type Handler interface {
	// OnOpen fires once when the handshake completes.
	OnOpen()
	// OnSent fires after a message was transmitted, with the local user turn.
	OnSent(turn transcript.Turn)
	// OnAIResponse fires for every ai_response envelope.
	OnAIResponse(resp AIResponse)
	// OnConnected fires for the backend's connected greeting.
	OnConnected(info Connected)
	// OnServerError fires for error envelopes. The channel stays open.
	OnServerError(serr ServerError)
	// OnClose fires exactly once when the channel reaches Closed. err is nil for a normal closure.
	OnClose(err error)
}

// NopHandler implements Handler with no-ops; embed it to override a subset.
type NopHandler struct{}

func (NopHandler) OnOpen() {}
func (NopHandler) OnSent(transcript.Turn) {}
func (NopHandler) OnAIResponse(AIResponse) {}
func (NopHandler) OnConnected(Connected) {}
func (NopHandler) OnServerError(ServerError) {}
func (NopHandler) OnClose(error) {}
