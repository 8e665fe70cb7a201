package nlp

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extractAll(t *testing.T, raw string) []ExtractedClause {
	t.Helper()
	normalized, err := Normalize(raw)
	require.NoError(t, err)
	e := &Extractor{}
	return e.Extract(context.Background(), normalized)
}

func TestExtract_ModalClauses(t *testing.T) {
	clauses := extractAll(t, "All personal data must be encrypted at rest. The sky was blue that day.")
	require.Len(t, clauses, 1)
	assert.Equal(t, "All personal data must be encrypted at rest.", clauses[0].Text)
	assert.InDelta(t, 0.9, clauses[0].RawConfidence, 0.001)
}

func TestExtract_ProhibitionScoresHigher(t *testing.T) {
	clauses := extractAll(t, "Vendors must not share credentials with third parties. Staff should attend annual training sessions.")
	require.Len(t, clauses, 2)
	assert.Greater(t, clauses[0].RawConfidence, clauses[1].RawConfidence)
}

func TestExtract_ImperativeLead(t *testing.T) {
	clauses := extractAll(t, "Ensure all audit logs are retained for one year.")
	require.Len(t, clauses, 1)
	assert.InDelta(t, 0.65, clauses[0].RawConfidence, 0.001)
}

func TestExtract_MinTokenThreshold(t *testing.T) {
	// "Must comply fully." is only 3 tokens.
	clauses := extractAll(t, "Must comply fully. Everyone must comply with the retention policy.")
	require.Len(t, clauses, 1)
	assert.Contains(t, clauses[0].Text, "retention policy")
}

func TestExtract_NeverReturnsBlankOrShortClauses(t *testing.T) {
	clauses := extractAll(t, "Data must be kept safe at all times.\n\n   \nShall we?")
	for _, clause := range clauses {
		assert.NotEmpty(t, strings.TrimSpace(clause.Text))
		assert.GreaterOrEqual(t, tokenCount(clause.Text), defaultMinClauseTokens)
	}
}

func TestExtract_DeduplicatesKeepingFirstSection(t *testing.T) {
	raw := "# Section One\nAccess must be reviewed quarterly by the team.\n" +
		"# Section Two\nAccess must be reviewed quarterly by the team."
	clauses := extractAll(t, raw)
	require.Len(t, clauses, 1)
	assert.Equal(t, "Section One", clauses[0].SourceSection)
}

func TestExtract_IdempotentForSameInput(t *testing.T) {
	raw := "Data must be encrypted at rest. Vendors shall implement MFA before onboarding."
	first := extractAll(t, raw)
	second := extractAll(t, raw)
	assert.Equal(t, first, second)
}

func TestExtract_CanceledContextStopsBetweenClauses(t *testing.T) {
	normalized, err := Normalize("Data must be encrypted at rest. Vendors shall implement MFA before onboarding.")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := &Extractor{}
	clauses := e.Extract(ctx, normalized)
	assert.Empty(t, clauses)
}

func TestExtract_NoObligations(t *testing.T) {
	clauses := extractAll(t, "The weather today is sunny and warm across the region.")
	assert.Empty(t, clauses)
}
