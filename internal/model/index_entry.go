package model

import (
	"encoding/json"
	"time"
)

// IndexEntry stores the persisted embedding for one obligation.
// Embedding is stored as JSON array of float32 for portability.
// It is derived state: regenerated whenever the obligation text changes,
// never created independent of an obligation.
type IndexEntry struct {
	ObligationID uint      `gorm:"primaryKey" json:"obligation_id"`
	Embedding    string    `gorm:"type:text" json:"-"` // JSON array of float32
	UpdatedAt    time.Time `json:"updated_at"`
}

// EmbeddingVector returns the parsed embedding slice; empty on parse error.
func (e *IndexEntry) EmbeddingVector() []float32 {
	if e.Embedding == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(e.Embedding), &v)
	return v
}

// SetEmbedding stores the embedding as JSON.
func (e *IndexEntry) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		e.Embedding = "[]"
		return
	}
	b, _ := json.Marshal(vec)
	e.Embedding = string(b)
}
