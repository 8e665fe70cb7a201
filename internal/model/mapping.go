package model

import "time"

// Mapping types.
const (
	MappingPolicy      = "policy"
	MappingControl     = "control"
	MappingJiraTicket  = "jira_ticket"
	MappingBacklogItem = "backlog_item"
	MappingOther       = "other"
)

// ValidMappingType reports whether t is a known mapping type.
func ValidMappingType(t string) bool {
	switch t {
	case MappingPolicy, MappingControl, MappingJiraTicket, MappingBacklogItem, MappingOther:
		return true
	}
	return false
}

// Mapping links an obligation to an external system-of-record item.
// Duplicate (obligation_id, mapping_type, external_id) rows are allowed;
// idempotency is a caller concern.
type Mapping struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ObligationID uint      `gorm:"not null;index" json:"obligation_id"`
	MappingType  string    `gorm:"size:32;not null;index" json:"mapping_type"`
	ExternalID   string    `gorm:"size:128;not null" json:"external_id"`
	ExternalName string    `gorm:"size:256;not null" json:"external_name"`
	ExternalURL  *string   `gorm:"size:512" json:"external_url"`
	Notes        *string   `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time `json:"created_at"`
}
