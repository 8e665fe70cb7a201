package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"intelidoc/internal/model"
)

func TestClassify_EncryptionScenario(t *testing.T) {
	got := Classify(ExtractedClause{
		Text:          "All personal data MUST be encrypted at rest.",
		RawConfidence: 0.9,
	})

	// "personal data" and "encrypt" both match; either regulated category
	// is acceptable per the pipeline contract.
	assert.Contains(t, []string{model.CategoryPrivacy, model.CategorySecurity}, got.Category)
	assert.Equal(t, model.PriorityHigh, got.Priority)
	assert.Greater(t, got.ConfidenceScore, 0)
}

func TestClassify_CategoryAlwaysInClosedSet(t *testing.T) {
	inputs := []string{
		"Payment refunds must be processed within 30 days.",
		"The interface must meet WCAG accessibility standards.",
		"Quarterly SOC2 audits shall be performed.",
		"The contract must include an indemnification clause.",
		"Backups must run nightly per the disaster recovery procedure.",
		"Gadgets shall be frobnicated before shipping.",
	}
	for _, text := range inputs {
		got := Classify(ExtractedClause{Text: text, RawConfidence: 0.5})
		assert.True(t, model.ValidCategory(got.Category), "category %q for %q", got.Category, text)
	}
}

func TestClassify_UnmatchedFallsToOther(t *testing.T) {
	got := Classify(ExtractedClause{Text: "Gadgets shall be frobnicated before shipping.", RawConfidence: 0.5})
	assert.Equal(t, model.CategoryOther, got.Category)
}

func TestClassify_PriorityDefaultsToMedium(t *testing.T) {
	got := Classify(ExtractedClause{Text: "Staff will ensure tickets are triaged weekly.", RawConfidence: 0.8})
	assert.Equal(t, model.PriorityMedium, got.Priority)
}

func TestClassify_LowPrioritySignal(t *testing.T) {
	got := Classify(ExtractedClause{Text: "Teams should document optional configuration where possible.", RawConfidence: 0.6})
	assert.Equal(t, model.PriorityLow, got.Priority)
}

func TestConfidenceScore_BoundsAndMonotonic(t *testing.T) {
	assert.Equal(t, 0, confidenceScore(-0.5))
	assert.Equal(t, 0, confidenceScore(0))
	assert.Equal(t, 100, confidenceScore(1))
	assert.Equal(t, 100, confidenceScore(1.7))

	prev := -1
	for _, raw := range []float64{0, 0.1, 0.25, 0.5, 0.65, 0.9, 1} {
		score := confidenceScore(raw)
		assert.GreaterOrEqual(t, score, prev)
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, 100)
		prev = score
	}
}
