package nlp

import (
	"context"
	"log"
	"strings"
)

const defaultMinClauseTokens = 4

// ExtractedClause is one candidate obligation statement.
type ExtractedClause struct {
	Text          string  `json:"text"`
	SourceSection string  `json:"source_section"`
	RawConfidence float64 `json:"raw_confidence"` // [0,1]
}

// obligationPattern scores a modal/imperative phrase that signals a duty,
// requirement or prohibition. Matched case-insensitively.
type obligationPattern struct {
	phrase     string
	confidence float64
}

// Patterns are ordered strongest first; the first match decides the score.
var obligationPatterns = []obligationPattern{
	{"must not", 0.95},
	{"shall not", 0.95},
	{"is prohibited", 0.95},
	{"are prohibited", 0.95},
	{"must ", 0.9},
	{"shall ", 0.9},
	{"is required to", 0.9},
	{"are required to", 0.9},
	{"will ensure", 0.8},
	{"is responsible for", 0.75},
	{"are responsible for", 0.75},
	{"needs to ", 0.7},
	{"need to ", 0.7},
	{"is obligated to", 0.9},
	{"should ", 0.6},
	{"may not ", 0.85},
}

// Imperative lead verbs that open a requirement ("Ensure all data is...").
var imperativeLeads = []string{
	"ensure", "implement", "provide", "maintain", "encrypt",
	"review", "restrict", "enforce", "verify", "document",
}

// Extractor scans normalized clauses for obligation statements.
// Zero value is usable; MinClauseTokens falls back to a default.
type Extractor struct {
	MinClauseTokens int
}

// Extract selects clauses that express an obligation, deterministic for a
// deterministic clause sequence. Clauses below the token minimum are
// discarded; exact duplicates keep the first occurrence and its earliest
// section. The context is checked between clause units so long documents
// can be aborted cleanly.
func (e *Extractor) Extract(ctx context.Context, normalized *NormalizedText) []ExtractedClause {
	if normalized == nil {
		return nil
	}
	minTokens := e.MinClauseTokens
	if minTokens <= 0 {
		minTokens = defaultMinClauseTokens
	}

	seen := make(map[string]struct{})
	var out []ExtractedClause
	for _, clause := range normalized.Clauses {
		select {
		case <-ctx.Done():
			log.Printf("extraction aborted: %v", ctx.Err())
			return out
		default:
		}

		text := strings.TrimSpace(clause.Text)
		if text == "" || tokenCount(text) < minTokens {
			continue
		}

		confidence := scoreClause(text)
		if confidence == 0 {
			continue
		}

		key := strings.ToLower(text)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		out = append(out, ExtractedClause{
			Text:          text,
			SourceSection: clause.Section,
			RawConfidence: confidence,
		})
	}
	return out
}

// scoreClause returns the raw confidence for an obligation candidate, or 0
// when the clause does not express a duty/requirement/prohibition.
func scoreClause(text string) float64 {
	lower := strings.ToLower(text)
	for _, p := range obligationPatterns {
		if strings.Contains(lower, p.phrase) {
			return p.confidence
		}
	}
	firstToken := lower
	if i := strings.IndexByte(lower, ' '); i > 0 {
		firstToken = lower[:i]
	}
	for _, lead := range imperativeLeads {
		if firstToken == lead {
			return 0.65
		}
	}
	return 0
}

func tokenCount(text string) int {
	return len(strings.Fields(text))
}
