package model

import "time"

// Obligation categories (closed set).
const (
	CategoryPrivacy    = "privacy"
	CategorySecurity   = "security"
	CategoryPayments   = "payments"
	CategoryUX         = "ux"
	CategoryCompliance = "compliance"
	CategoryLegal      = "legal"
	CategoryOperations = "operations"
	CategoryOther      = "other"
)

// Obligation priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Categories lists the closed category set in canonical order.
func Categories() []string {
	return []string{
		CategoryPrivacy, CategorySecurity, CategoryPayments, CategoryUX,
		CategoryCompliance, CategoryLegal, CategoryOperations, CategoryOther,
	}
}

// ValidCategory reports whether c is one of the eight fixed categories.
func ValidCategory(c string) bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// ValidPriority reports whether p is low, medium or high.
func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// RegulatedCategory reports whether the category carries regulatory weight
// for discrepancy severity purposes.
func RegulatedCategory(c string) bool {
	switch c {
	case CategoryPrivacy, CategorySecurity, CategoryCompliance, CategoryLegal:
		return true
	}
	return false
}

// Obligation is created only by the extraction/classification pipeline.
// Search and mapping attach side records and never mutate it.
type Obligation struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	DocumentID      uint      `gorm:"not null;index" json:"document_id"`
	Text            string    `gorm:"type:text;not null" json:"text"`
	Category        string    `gorm:"size:32;not null;index" json:"category"`
	Priority        *string   `gorm:"size:16;index" json:"priority"`
	ConfidenceScore *int      `json:"confidence_score"`
	SourceSection   *string   `gorm:"size:256" json:"source_section"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
