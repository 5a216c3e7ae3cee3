package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/z-meeting/internal/model/profile"
	"github.com/zhouzirui/z-meeting/internal/model/session"
)

// fakeChatModel records the prompt it receives and answers with a fixed reply.
type fakeChatModel struct {
	reply    string
	err      error
	received []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.received = input
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

var sarah = profile.Profile{
	ID:            "p-1",
	Name:          "Sarah",
	Role:          "Product Manager",
	Personality:   "calm and concise",
	ResponseStyle: "bullet points",
	MeetingTopics: []string{"roadmap", "hiring"},
}

func TestBuildSystemPrompt(t *testing.T) {
	prompt := BuildSystemPrompt(sarah)

	for _, want := range []string{
		"You are Sarah, a Product Manager.",
		"Personality: calm and concise",
		"Response style: bullet points",
		"- Brief but meaningful (2-3 sentences max)",
		"Meeting topics you're familiar with: roadmap, hiring",
		"not an AI assistant",
	} {
		assert.Contains(t, prompt, want)
	}
}

func TestServiceReplyRunsChain(t *testing.T) {
	fake := &fakeChatModel{reply: "  On track.  "}
	svc, err := NewServiceWithModel(context.Background(), fake, zerolog.Nop())
	require.NoError(t, err)

	history := []session.HistoryEntry{{UserMessage: "Manager: hello", AIResponse: "Hi all"}}
	reply, err := svc.Reply(context.Background(), sarah, history, LiveQuery("Manager", "status update?"))
	require.NoError(t, err)
	assert.Equal(t, "On track.", reply)

	require.Len(t, fake.received, 4)
	assert.Equal(t, schema.System, fake.received[0].Role)
	assert.True(t, strings.HasPrefix(fake.received[0].Content, "You are Sarah"))
	assert.Equal(t, schema.User, fake.received[1].Role)
	assert.Equal(t, "Manager: hello", fake.received[1].Content)
	assert.Equal(t, schema.Assistant, fake.received[2].Role)
	assert.Equal(t, "Manager: status update?", fake.received[3].Content)
}

func TestServiceReplyTruncatesHistory(t *testing.T) {
	fake := &fakeChatModel{reply: "ok"}
	svc, err := NewServiceWithModel(context.Background(), fake, zerolog.Nop())
	require.NoError(t, err)

	history := make([]session.HistoryEntry, historyLimit+5)
	_, err = svc.Reply(context.Background(), sarah, history, "q")
	require.NoError(t, err)
	assert.Len(t, fake.received, 1+2*historyLimit+1)
}

func TestServiceReplyError(t *testing.T) {
	fake := &fakeChatModel{err: errors.New("quota exceeded")}
	svc, err := NewServiceWithModel(context.Background(), fake, zerolog.Nop())
	require.NoError(t, err)

	_, err = svc.Reply(context.Background(), sarah, nil, "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestCannedResponder(t *testing.T) {
	reply, err := CannedResponder{}.Reply(context.Background(), sarah, nil, LiveQuery("Manager", "status update?"))
	require.NoError(t, err)
	assert.Equal(t, "Thanks, Manager. As the Product Manager here, I'll follow up with details shortly.", reply)

	reply, err = CannedResponder{}.Reply(context.Background(), profile.Profile{}, nil, "status update?")
	require.NoError(t, err)
	assert.Contains(t, reply, "representative")
}
