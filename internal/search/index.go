// Package search maintains the in-process semantic index over obligation
// text and answers similarity queries against it.
package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

const DefaultLimit = 10

var ErrInvalidLimit = errors.New("limit must be a positive integer")

// Embedder turns text into an embedding vector. The production
// implementation calls an OpenAI-compatible /embeddings endpoint; tests
// inject a deterministic fake.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Entry is one indexed obligation with the metadata needed for
// filter-then-rank queries.
type Entry struct {
	ObligationID uint
	Vector       []float32
	Category     string
	Priority     string // empty = unset
	CreatedAt    time.Time
}

// Match is one ranked query hit.
type Match struct {
	ObligationID uint    `json:"obligation_id"`
	Similarity   float64 `json:"similarity_score"` // [0,1]
}

// QueryOptions filter the candidate set before ranking, so a limit never
// truncates relevant filtered results.
type QueryOptions struct {
	Limit          int
	CategoryFilter string
	PriorityFilter string
}

// Index is safe for concurrent use. Upserts for the same obligation are
// last-writer-wins; upserts for different obligations proceed
// independently. Reads observe completed writes (read-your-writes within
// the process).
type Index struct {
	embedder Embedder

	mu      sync.RWMutex
	entries map[uint]Entry
}

func NewIndex(embedder Embedder) *Index {
	return &Index{
		embedder: embedder,
		entries:  make(map[uint]Entry),
	}
}

// Upsert computes the embedding for the obligation text and replaces any
// prior entry for that obligation.
func (ix *Index) Upsert(ctx context.Context, obligationID uint, text, category, priority string, createdAt time.Time) ([]float32, error) {
	vec, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed obligation %d failed: %w", obligationID, err)
	}
	ix.Put(Entry{
		ObligationID: obligationID,
		Vector:       vec,
		Category:     category,
		Priority:     priority,
		CreatedAt:    createdAt,
	})
	return vec, nil
}

// Put installs a precomputed entry, replacing any prior one. Used when the
// embedding was produced elsewhere (async worker, boot-time reload).
func (ix *Index) Put(entry Entry) {
	ix.mu.Lock()
	ix.entries[entry.ObligationID] = entry
	ix.mu.Unlock()
}

// Remove drops the entry for an obligation; no-op if absent.
func (ix *Index) Remove(obligationID uint) {
	ix.mu.Lock()
	delete(ix.entries, obligationID)
	ix.mu.Unlock()
}

// Len returns the number of indexed obligations.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Query embeds the query text and returns up to opts.Limit matches ranked
// by descending similarity, ties broken by most recent entry. Filters are
// applied before ranking.
func (ix *Index) Query(ctx context.Context, text string, opts QueryOptions) ([]Match, error) {
	if opts.Limit <= 0 {
		return nil, ErrInvalidLimit
	}

	queryVec, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query failed: %w", err)
	}

	type scored struct {
		match     Match
		createdAt time.Time
	}

	ix.mu.RLock()
	candidates := make([]scored, 0, len(ix.entries))
	for _, entry := range ix.entries {
		if opts.CategoryFilter != "" && entry.Category != opts.CategoryFilter {
			continue
		}
		if opts.PriorityFilter != "" && entry.Priority != opts.PriorityFilter {
			continue
		}
		candidates = append(candidates, scored{
			match: Match{
				ObligationID: entry.ObligationID,
				Similarity:   cosineSimilarity(queryVec, entry.Vector),
			},
			createdAt: entry.CreatedAt,
		})
	}
	ix.mu.RUnlock()

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].match.Similarity != candidates[j].match.Similarity {
			return candidates[i].match.Similarity > candidates[j].match.Similarity
		}
		return candidates[i].createdAt.After(candidates[j].createdAt)
	})

	if len(candidates) > opts.Limit {
		candidates = candidates[:opts.Limit]
	}
	matches := make([]Match, len(candidates))
	for i, c := range candidates {
		matches[i] = c.match
	}
	return matches, nil
}
