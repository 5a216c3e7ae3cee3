package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/z-meeting/internal/config"
	"github.com/zhouzirui/z-meeting/internal/model/profile"
	"github.com/zhouzirui/z-meeting/internal/model/session"
)

// historyLimit bounds the history entries replayed to the model.
const historyLimit = 10

// Responder produces the stand-in's reply to one meeting message.
type Responder interface {
	Reply(ctx context.Context, p profile.Profile, history []session.HistoryEntry, query string) (string, error)
}

// Service answers through an eino chain: prompt template then chat model.
type Service struct {
	chain  compose.Runnable[map[string]any, *schema.Message]
	logger zerolog.Logger
}

// NewService creates the Ark-backed responder.
func NewService(ctx context.Context, cfg config.AIConfig, logger zerolog.Logger) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, chatModel, logger)
}

// NewServiceWithModel compiles the chain around any chat model.
func NewServiceWithModel(ctx context.Context, chatModel model.BaseChatModel, logger zerolog.Logger) (*Service, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile chat chain: %w", err)
	}

	return &Service{chain: runnable, logger: logger}, nil
}

// Reply runs the chain for one message.
func (s *Service) Reply(ctx context.Context, p profile.Profile, history []session.HistoryEntry, query string) (string, error) {
	input := map[string]any{
		"system":  BuildSystemPrompt(p),
		"history": buildHistoryMessages(history),
		"query":   query,
	}

	response, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to run AI chain: %w", err)
	}

	content := strings.TrimSpace(response.Content)
	s.logger.Debug().Str("profile_id", p.ID).Int("length", len(content)).Msg("generated response")
	return content, nil
}

func buildHistoryMessages(history []session.HistoryEntry) []*schema.Message {
	if len(history) == 0 {
		return nil
	}

	start := max(len(history)-historyLimit, 0)
	messages := make([]*schema.Message, 0, 2*(len(history)-start))
	for _, entry := range history[start:] {
		messages = append(messages,
			schema.UserMessage(entry.UserMessage),
			schema.AssistantMessage(entry.AIResponse, nil),
		)
	}
	return messages
}

// CannedResponder answers without a model; used when Ark is not configured.
type CannedResponder struct{}

func (CannedResponder) Reply(_ context.Context, p profile.Profile, _ []session.HistoryEntry, query string) (string, error) {
	role := p.Role
	if role == "" {
		role = "representative"
	}
	speaker, _, found := strings.Cut(query, ": ")
	if !found {
		return fmt.Sprintf("Thanks for raising that. As the %s here, I'll follow up with details shortly.", role), nil
	}
	return fmt.Sprintf("Thanks, %s. As the %s here, I'll follow up with details shortly.", speaker, role), nil
}
