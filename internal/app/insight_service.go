package app

import (
	"time"

	"intelidoc/internal/model"
	"intelidoc/internal/repository"
)

type InsightService struct {
	obligationRepo *repository.ObligationRepository
	mappingRepo    *repository.MappingRepository
}

func NewInsightService(obligationRepo *repository.ObligationRepository, mappingRepo *repository.MappingRepository) *InsightService {
	return &InsightService{
		obligationRepo: obligationRepo,
		mappingRepo:    mappingRepo,
	}
}

type CategoryGap struct {
	Category        string   `json:"category"`
	Total           int      `json:"total"`
	Unmapped        int      `json:"unmapped"`
	UnmappedHigh    int      `json:"unmapped_high_priority"`
	ExampleUnmapped []string `json:"example_unmapped,omitempty"`
}

type GapAnalysis struct {
	GeneratedAt      time.Time     `json:"generated_at"`
	TotalObligations int           `json:"total_obligations"`
	TotalUnmapped    int           `json:"total_unmapped"`
	CoveragePercent  int           `json:"coverage_percent"`
	Categories       []CategoryGap `json:"categories"`
}

const maxGapExamples = 3

type MappingSummary struct {
	GeneratedAt       time.Time                     `json:"generated_at"`
	TotalMappings     int                           `json:"total_mappings"`
	MappedObligations int                           `json:"mapped_obligations"`
	ByType            []repository.MappingTypeCount `json:"by_type"`
}

// MappingSummary reports mapping volume per type, plus how many distinct
// obligations carry at least one mapping overall.
func (s *InsightService) MappingSummary() (*MappingSummary, error) {
	byType, err := s.mappingRepo.CountByType()
	if err != nil {
		return nil, err
	}
	counts, err := s.mappingRepo.CountByObligation()
	if err != nil {
		return nil, err
	}

	total := 0
	for _, row := range byType {
		total += row.Total
	}

	return &MappingSummary{
		GeneratedAt:       time.Now().UTC(),
		TotalMappings:     total,
		MappedObligations: len(counts),
		ByType:            byType,
	}, nil
}

// GapAnalysis reports, per category, how many obligations lack any mapping
// to a policy, control or ticket. Coverage is the share of obligations with
// at least one mapping.
func (s *InsightService) GapAnalysis() (*GapAnalysis, error) {
	obligations, err := s.obligationRepo.ListAll()
	if err != nil {
		return nil, err
	}
	counts, err := s.mappingRepo.CountByObligation()
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string]*CategoryGap)
	for _, category := range model.Categories() {
		byCategory[category] = &CategoryGap{Category: category}
	}

	unmappedTotal := 0
	for _, ob := range obligations {
		gap, ok := byCategory[ob.Category]
		if !ok {
			gap = &CategoryGap{Category: ob.Category}
			byCategory[ob.Category] = gap
		}
		gap.Total++

		if counts[ob.ID] > 0 {
			continue
		}
		unmappedTotal++
		gap.Unmapped++
		if ob.Priority != nil && *ob.Priority == model.PriorityHigh {
			gap.UnmappedHigh++
		}
		if len(gap.ExampleUnmapped) < maxGapExamples {
			gap.ExampleUnmapped = append(gap.ExampleUnmapped, ob.Text)
		}
	}

	categories := make([]CategoryGap, 0, len(byCategory))
	for _, category := range model.Categories() {
		if gap := byCategory[category]; gap.Total > 0 {
			categories = append(categories, *gap)
		}
	}

	coverage := 100
	if len(obligations) > 0 {
		coverage = (len(obligations) - unmappedTotal) * 100 / len(obligations)
	}

	return &GapAnalysis{
		GeneratedAt:      time.Now().UTC(),
		TotalObligations: len(obligations),
		TotalUnmapped:    unmappedTotal,
		CoveragePercent:  coverage,
		Categories:       categories,
	}, nil
}
