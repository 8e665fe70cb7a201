package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const extractionSystemPrompt = `You are a compliance and requirements extraction expert. Given unstructured text, extract clear, actionable obligations or requirements, classify them by category, and return them as structured JSON.

Categories: privacy, security, payments, ux, compliance, legal, operations, other.
Priorities: high, medium, low.

Return ONLY a valid JSON array with no additional text or explanation.`

// ExtractedObligation is the model's structured extraction output.
type ExtractedObligation struct {
	ObligationText string `json:"obligation_text"`
	Category       string `json:"category"`
	Priority       string `json:"priority"`
	SourceSection  string `json:"source_section"`
}

// ExtractObligations asks the model for an obligation list over the given
// text. Callers must treat any error as a degradation signal and fall back
// to rule-based extraction, never abort the document.
func (c *OpenAICompatibleClient) ExtractObligations(ctx context.Context, cfg ChatConfig, title, docType, text string) ([]ExtractedObligation, error) {
	if title == "" {
		title = "Unknown"
	}
	if docType == "" {
		docType = "General"
	}
	userPrompt := fmt.Sprintf(`Extract obligations or requirements from the following text. For each, provide:

- obligation_text: the extracted obligation or requirement (specific and actionable)
- category: best-guess category (privacy, security, payments, ux, compliance, legal, operations, other)
- priority: high/medium/low (medium if the text gives no signal)
- source_section: the section or heading it was found in, if any

Document Title: %s
Document Type: %s

TEXT:
%s

Return a JSON array of objects with exactly those four keys.`, title, docType, text)

	content, err := c.Complete(ctx, cfg, []ChatMessage{
		{Role: "system", Content: extractionSystemPrompt},
		{Role: "user", Content: userPrompt},
	})
	if err != nil {
		return nil, err
	}

	var parsed []ExtractedObligation
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &parsed); err != nil {
		return nil, fmt.Errorf("parse extraction json failed: %w", err)
	}
	return parsed, nil
}

// Summary is the summarization output.
type Summary struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
}

// Summarize produces a short summary with key points. Falls back to
// treating the raw completion as the summary when the model ignores the
// JSON contract.
func (c *OpenAICompatibleClient) Summarize(ctx context.Context, cfg ChatConfig, text string, maxWords int) (*Summary, error) {
	if maxWords <= 0 {
		maxWords = 500
	}
	userPrompt := fmt.Sprintf(`Summarize the following text in %d words or less and extract 3-5 key points.

TEXT:
%s

Respond as JSON: {"summary": "...", "key_points": ["...", "..."]}`, maxWords, text)

	content, err := c.Complete(ctx, cfg, []ChatMessage{
		{Role: "system", Content: "You are an expert at summarizing documents and extracting key requirements."},
		{Role: "user", Content: userPrompt},
	})
	if err != nil {
		return nil, err
	}

	var parsed Summary
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &parsed); err != nil {
		return &Summary{Summary: strings.TrimSpace(content)}, nil
	}
	return &parsed, nil
}

// stripCodeFence removes a surrounding markdown code fence some models
// insist on emitting around JSON.
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
