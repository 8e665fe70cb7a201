package model

import "time"

// Document source types.
const (
	SourceFile         = "file"
	SourcePastedText   = "pasted_text"
	SourcePlatformItem = "platform_item"
)

func ValidSourceType(s string) bool {
	switch s {
	case SourceFile, SourcePastedText, SourcePlatformItem:
		return true
	}
	return false
}

// Document is immutable once stored; re-uploading creates a new row.
type Document struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Title          string    `gorm:"size:256;not null" json:"title"`
	SourceType     string    `gorm:"size:32;not null;index" json:"source_type"`
	RawText        string    `gorm:"type:text;not null" json:"raw_text"`
	NormalizedText string    `gorm:"type:text" json:"normalized_text"`
	CreatedAt      time.Time `json:"created_at"`
}
