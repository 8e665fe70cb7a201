package app

import (
	"context"
	"strings"

	"intelidoc/internal/ai"
)

type SummaryService struct {
	llmClient  *ai.OpenAICompatibleClient
	chatConfig ai.ChatConfig
}

func NewSummaryService(chatConfig ai.ChatConfig) *SummaryService {
	return &SummaryService{
		llmClient:  ai.NewOpenAICompatibleClient(),
		chatConfig: chatConfig,
	}
}

type SummarizeInput struct {
	Text     string
	MaxWords int
}

func (s *SummaryService) Summarize(ctx context.Context, input SummarizeInput) (*ai.Summary, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, ErrInvalidInput
	}
	return s.llmClient.Summarize(ctx, s.chatConfig, text, input.MaxWords)
}
