package speech

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

const defaultQueueSize = 32

// Queue speaks utterances one after another on a worker goroutine.
type Queue struct {
	synth  Synthesizer
	logger zerolog.Logger
	items  chan Utterance

	mu     sync.Mutex
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewQueue starts the worker. size <= 0 uses the default buffer.
func NewQueue(synth Synthesizer, logger zerolog.Logger, size int) *Queue {
	if size <= 0 {
		size = defaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		synth:  synth,
		logger: logger,
		items:  make(chan Utterance, size),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go q.loop()
	return q
}

// Enqueue hands u to the worker without blocking. A full buffer drops u.
func (q *Queue) Enqueue(u Utterance) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	select {
	case q.items <- u:
	default:
		q.logger.Warn().Str("text", u.Text).Msg("speech queue full, dropping utterance")
	}
	return nil
}

// Close speaks what is already queued and stops the worker. Close is idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.items)
	}
	q.mu.Unlock()
	<-q.done
}

// Abort stops the worker, interrupting the current utterance and discarding the rest.
func (q *Queue) Abort() {
	q.cancel()
	q.Close()
}

func (q *Queue) loop() {
	defer close(q.done)
	defer q.cancel()

	for u := range q.items {
		if q.ctx.Err() != nil {
			continue
		}
		if err := q.synth.Speak(q.ctx, u); err != nil {
			q.logger.Error().Err(err).Msg("speech output failed")
		}
	}
}
