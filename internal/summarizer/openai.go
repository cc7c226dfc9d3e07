package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
)

func (s *implOpenAI) Summarize(ctx context.Context, streamID, transcript string) (string, error) {
	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: s.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(s.prompt.Render(streamID)),
			openai.UserMessage(transcript),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
