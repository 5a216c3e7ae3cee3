// Package cli implements the meetingctl commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/z-meeting/internal/config"
	"github.com/zhouzirui/z-meeting/internal/gateway"
	"github.com/zhouzirui/z-meeting/internal/logging"
	"github.com/zhouzirui/z-meeting/internal/speech"
)

// Deps holds the dependencies of the command tree.
type Deps struct {
	LoadConfig     func() (*config.Config, error)
	NewSynthesizer func(mode string, logger zerolog.Logger) (speech.Synthesizer, error)

	// RunView runs the meeting view until the user ends it.
	RunView func(m tea.Model) error
	Out     io.Writer
}

// DefaultDeps returns default dependencies for production use.
func DefaultDeps() *Deps {
	return &Deps{
		LoadConfig:     config.Load,
		NewSynthesizer: speech.New,
		RunView: func(m tea.Model) error {
			_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
			return err
		},
		Out: os.Stdout,
	}
}

// app is the per-invocation state shared by subcommands.
type app struct {
	deps    *Deps
	cfg     *config.Config
	client  *gateway.Client
	logger  zerolog.Logger
	logFile *os.File

	output  string
	backend string
}

// Execute runs meetingctl with args and returns the process exit code.
// Failures are printed to errOut.
func Execute(ctx context.Context, deps *Deps, args []string, errOut io.Writer) int {
	cmd, a := newRootCommand(deps)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	_ = a.close()
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}
	return 0
}

// NewRootCommand creates the meetingctl command with all subcommands.
func NewRootCommand(deps *Deps) *cobra.Command {
	cmd, _ := newRootCommand(deps)
	return cmd
}

func newRootCommand(deps *Deps) (*cobra.Command, *app) {
	if deps == nil {
		deps = DefaultDeps()
	}
	a := &app{deps: deps, logger: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:   "meetingctl",
		Short: "AI meeting assistant client",
		Long: `meetingctl manages meeting profiles and sessions and joins live meetings
as a profile's AI stand-in.

Examples:
  # Create a profile and start a meeting as it
  meetingctl profiles create --name Sarah --role "Product Manager" --topics "roadmap, hiring"
  meetingctl meeting start <profile-id>

  # List sessions as JSON
  meetingctl sessions list -o json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	cmd.SetOut(deps.Out)

	cmd.PersistentFlags().StringVarP(&a.output, "output", "o", string(OutputText), "Output format: text, json, yaml")
	cmd.PersistentFlags().StringVar(&a.backend, "backend", "", "Backend URL (overrides MEETING_BACKEND_URL)")

	cmd.AddCommand(newProfilesCommand(a))
	cmd.AddCommand(newSessionsCommand(a))
	cmd.AddCommand(newVoiceCommand(a))
	cmd.AddCommand(newChatCommand(a))
	cmd.AddCommand(newMeetingCommand(a))

	return cmd, a
}

func (a *app) init() error {
	if !OutputFormat(a.output).IsValid() {
		return fmt.Errorf("invalid output format: %s", a.output)
	}

	cfg, err := a.deps.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if a.backend != "" {
		cfg.Client.BackendURL = strings.TrimRight(a.backend, "/")
	}
	a.cfg = cfg

	// 日志写入文件，避免干扰终端界面
	if cfg.Client.LogFile != "" {
		f, err := os.OpenFile(cfg.Client.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		a.logFile = f
		a.logger = logging.New(logging.Config{
			Level:   cfg.Log.Level,
			Format:  logging.FormatJSON,
			Service: "meetingctl",
			Output:  f,
		})
	}

	a.client = gateway.New(cfg.Client.BackendURL,
		gateway.WithTimeout(cfg.Client.HTTPTimeout),
		gateway.WithLogger(logging.Component(a.logger, "gateway")),
	)
	return nil
}

func (a *app) close() error {
	if a.logFile == nil {
		return nil
	}
	err := a.logFile.Close()
	a.logFile = nil
	return err
}

func (a *app) out() io.Writer {
	return a.deps.Out
}

func (a *app) format() OutputFormat {
	return OutputFormat(a.output)
}
