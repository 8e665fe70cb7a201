package nlp

import (
	"math"
	"strings"

	"intelidoc/internal/model"
)

// Classification is the classifier output for one extracted clause.
type Classification struct {
	Category        string `json:"category"`
	Priority        string `json:"priority"`
	ConfidenceScore int    `json:"confidence_score"` // [0,100]
}

// Category lexicons. The first category whose lexicon scores highest wins;
// unmatched clauses fall through to "other".
var categoryLexicons = []struct {
	category string
	terms    []string
}{
	{model.CategoryPrivacy, []string{
		"personal data", "privacy", "consent", "data subject", "gdpr",
		"pii", "anonymiz", "pseudonymiz", "data protection", "right to erasure",
	}},
	{model.CategorySecurity, []string{
		"encrypt", "security", "mfa", "multi-factor", "access control",
		"authentication", "authorization", "vulnerabilit", "firewall",
		"penetration test", "audit log",
	}},
	{model.CategoryPayments, []string{
		"payment", "invoice", "billing", "refund", "chargeback",
		"pci", "transaction fee", "settlement",
	}},
	{model.CategoryUX, []string{
		"user interface", "usability", "accessibility", "wcag",
		"user experience", "responsive", "navigation",
	}},
	{model.CategoryCompliance, []string{
		"compliance", "audit", "regulatory", "regulation", "soc2", "soc 2",
		"iso27001", "iso 27001", "certification", "framework",
	}},
	{model.CategoryLegal, []string{
		"contract", "liability", "indemnif", "legal", "jurisdiction",
		"terms of service", "agreement", "warranty", "intellectual property",
	}},
	{model.CategoryOperations, []string{
		"backup", "retention", "incident", "availability", "sla",
		"monitoring", "disaster recovery", "procedure", "training",
		"quarterly", "review process",
	}},
}

var highPriorityTerms = []string{
	"must", "shall", "critical", "immediately", "urgent", "required",
	"prohibited", "at all times",
}

var lowPriorityTerms = []string{
	"may ", "optional", "nice to have", "where possible", "if feasible",
}

// Classify assigns category, priority and an integer confidence score to
// one extracted clause. Stateless and order-independent across clauses.
// A score of 0 is valid: low-confidence extractions are kept for human
// review rather than dropped.
func Classify(clause ExtractedClause) Classification {
	lower := strings.ToLower(clause.Text)

	category := model.CategoryOther
	best := 0
	for _, lexicon := range categoryLexicons {
		score := 0
		for _, term := range lexicon.terms {
			if strings.Contains(lower, term) {
				score++
			}
		}
		if score > best {
			best = score
			category = lexicon.category
		}
	}

	return Classification{
		Category:        category,
		Priority:        resolvePriority(lower),
		ConfidenceScore: confidenceScore(clause.RawConfidence),
	}
}

// resolvePriority defaults to medium when the clause carries no strong
// priority signal.
func resolvePriority(lower string) string {
	for _, term := range highPriorityTerms {
		if strings.Contains(lower, term) {
			return model.PriorityHigh
		}
	}
	for _, term := range lowPriorityTerms {
		if strings.Contains(lower, term) {
			return model.PriorityLow
		}
	}
	return model.PriorityMedium
}

// confidenceScore maps raw confidence [0,1] monotonically onto [0,100].
func confidenceScore(raw float64) int {
	score := int(math.Round(raw * 100))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
