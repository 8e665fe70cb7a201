package app

import (
	"context"
	"strings"

	"intelidoc/internal/model"
	"intelidoc/internal/repository"
	"intelidoc/internal/search"
)

type SearchService struct {
	index          *search.Index
	obligationRepo *repository.ObligationRepository
}

func NewSearchService(index *search.Index, obligationRepo *repository.ObligationRepository) *SearchService {
	return &SearchService{
		index:          index,
		obligationRepo: obligationRepo,
	}
}

type SearchInput struct {
	Query    string
	Limit    int
	Category string
	Priority string
}

type SearchResult struct {
	Obligation model.Obligation `json:"obligation"`
	Similarity float64          `json:"similarity_score"`
}

// Search ranks indexed obligations against the query and hydrates the
// matches from the store. An index entry whose obligation row has since
// been removed is silently dropped.
func (s *SearchService) Search(ctx context.Context, input SearchInput) ([]SearchResult, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, ErrInvalidInput
	}
	if input.Category != "" && !model.ValidCategory(input.Category) {
		return nil, ErrInvalidInput
	}
	if input.Priority != "" && !model.ValidPriority(input.Priority) {
		return nil, ErrInvalidInput
	}

	limit := input.Limit
	if limit == 0 {
		limit = search.DefaultLimit
	}

	matches, err := s.index.Query(ctx, query, search.QueryOptions{
		Limit:          limit,
		CategoryFilter: input.Category,
		PriorityFilter: input.Priority,
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []SearchResult{}, nil
	}

	ids := make([]uint, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ObligationID)
	}
	obligations, err := s.obligationRepo.ListByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]model.Obligation, len(obligations))
	for _, ob := range obligations {
		byID[ob.ID] = ob
	}

	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		ob, ok := byID[m.ObligationID]
		if !ok {
			continue
		}
		results = append(results, SearchResult{Obligation: ob, Similarity: m.Similarity})
	}
	return results, nil
}
