package transcript

import (
	"sync"
	"time"
)

// Role tags who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of the live meeting transcript. Turns are client-local and never persisted.
type Turn struct {
	Role          Role      `json:"role"`
	Speaker       string    `json:"speaker"`
	Content       string    `json:"content"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// DisplayTime 返回用于界面展示的本地时间。
func (t Turn) DisplayTime() string {
	return t.Timestamp.Local().Format("15:04:05")
}

// Transcript is an append-only, arrival-ordered log of turns.
type Transcript struct {
	mu    sync.RWMutex
	turns []Turn
}

// New returns an empty transcript.
func New() *Transcript {
	return &Transcript{turns: make([]Turn, 0, 32)}
}

// Append adds a turn at the end. Turns are never reordered, deduplicated or removed.
func (t *Transcript) Append(turn Turn) {
	t.mu.Lock()
	t.turns = append(t.turns, turn)
	t.mu.Unlock()
}

// Turns returns a copy of the transcript in arrival order.
func (t *Transcript) Turns() []Turn {
	t.mu.RLock()
	defer t.mu.RUnlock()

	copied := make([]Turn, len(t.turns))
	copy(copied, t.turns)
	return copied
}

// Len 返回当前条目数。
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.turns)
}
