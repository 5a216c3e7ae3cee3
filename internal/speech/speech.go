// Package speech speaks assistant turns through the platform's synthesizer.
package speech

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"

	"github.com/rs/zerolog"
)

const (
	DefaultRate  = 0.9
	DefaultPitch = 1.0

	// baseWordsPerMinute is the neutral speaking rate of say and espeak.
	baseWordsPerMinute = 175
	// espeakNeutralPitch is espeak's default on its 0-99 pitch scale.
	espeakNeutralPitch = 50
)

// Speech modes accepted by New.
const (
	ModeAuto   = "auto"
	ModeSay    = "say"
	ModeEspeak = "espeak"
	ModeLog    = "log"
	ModeOff    = "off"
)

// ErrClosed is returned by Queue.Enqueue after Close.
var ErrClosed = errors.New("speech queue closed")

// Utterance 一次语音输出请求。
type Utterance struct {
	Text  string
	Rate  float64
	Pitch float64
}

// NewUtterance returns an utterance with the meeting defaults.
func NewUtterance(text string) Utterance {
	return Utterance{Text: text, Rate: DefaultRate, Pitch: DefaultPitch}
}

// WordsPerMinute maps Rate onto the engines' words-per-minute scale.
func (u Utterance) WordsPerMinute() int {
	rate := u.Rate
	if rate <= 0 {
		rate = DefaultRate
	}
	return int(baseWordsPerMinute * rate)
}

// Synthesizer speaks one utterance and returns when it is done.
type Synthesizer interface {
	Speak(ctx context.Context, u Utterance) error
}

// Runner executes an external command. It exists so tests can observe invocations.
type Runner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, out)
	}
	return nil
}

// CommandSynthesizer drives say (macOS) or espeak.
type CommandSynthesizer struct {
	engine string
	run    Runner
}

// NewCommandSynthesizer returns a synthesizer for engine, which must be ModeSay or ModeEspeak.
func NewCommandSynthesizer(engine string, run Runner) (*CommandSynthesizer, error) {
	if engine != ModeSay && engine != ModeEspeak {
		return nil, fmt.Errorf("unsupported speech engine %q", engine)
	}
	if run == nil {
		run = execRunner
	}
	return &CommandSynthesizer{engine: engine, run: run}, nil
}

// Engine 返回所用的命令名。
func (s *CommandSynthesizer) Engine() string { return s.engine }

func (s *CommandSynthesizer) Speak(ctx context.Context, u Utterance) error {
	return s.run(ctx, s.engine, s.args(u)...)
}

func (s *CommandSynthesizer) args(u Utterance) []string {
	wpm := strconv.Itoa(u.WordsPerMinute())
	if s.engine == ModeSay {
		// say has no pitch flag.
		return []string{"-r", wpm, "--", u.Text}
	}
	pitch := int(espeakNeutralPitch * u.Pitch)
	pitch = min(max(pitch, 0), 99)
	return []string{"-s", wpm, "-p", strconv.Itoa(pitch), "--", u.Text}
}

// LogSynthesizer writes utterances to the log instead of speaking them.
type LogSynthesizer struct {
	logger zerolog.Logger
}

func NewLogSynthesizer(logger zerolog.Logger) *LogSynthesizer {
	return &LogSynthesizer{logger: logger}
}

func (s *LogSynthesizer) Speak(_ context.Context, u Utterance) error {
	s.logger.Info().Str("text", u.Text).Float64("rate", u.Rate).Float64("pitch", u.Pitch).Msg("speak")
	return nil
}

// Silent discards utterances.
type Silent struct{}

func (Silent) Speak(context.Context, Utterance) error { return nil }

// LookPath is swapped in tests.
var LookPath = exec.LookPath

// New builds the synthesizer for mode. auto picks say on darwin, then espeak, and falls back to
// logging when neither is installed.
func New(mode string, logger zerolog.Logger) (Synthesizer, error) {
	switch mode {
	case "", ModeAuto:
		candidates := []string{ModeEspeak}
		if runtime.GOOS == "darwin" {
			candidates = []string{ModeSay, ModeEspeak}
		}
		for _, engine := range candidates {
			if _, err := LookPath(engine); err == nil {
				return NewCommandSynthesizer(engine, nil)
			}
		}
		logger.Warn().Msg("no speech engine found, logging utterances instead")
		return NewLogSynthesizer(logger), nil
	case ModeSay, ModeEspeak:
		if _, err := LookPath(mode); err != nil {
			return nil, fmt.Errorf("speech engine %s not available: %w", mode, err)
		}
		return NewCommandSynthesizer(mode, nil)
	case ModeLog:
		return NewLogSynthesizer(logger), nil
	case ModeOff:
		return Silent{}, nil
	default:
		return nil, fmt.Errorf("unknown speech mode %q", mode)
	}
}
