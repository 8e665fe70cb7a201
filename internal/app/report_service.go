package app

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"intelidoc/internal/grc"
	"intelidoc/internal/platformagg"
	"intelidoc/internal/repository"
)

// ReportCache holds the latest cross-platform report. Services that mutate
// obligations or mappings call MarkDirty so the next monitor run recomputes.
type ReportCache interface {
	GetReport(ctx context.Context) (*grc.Report, bool, error)
	SetReport(ctx context.Context, report *grc.Report) error
	DeleteReport(ctx context.Context) error
	MarkDirty(ctx context.Context) error
	IsDirty(ctx context.Context) (bool, error)
}

// invalidateReport drops the cached report and sets the dirty marker.
// Deleting is what guarantees a recompute; the marker only papers over the
// window where an async write is still in flight.
func invalidateReport(ctx context.Context, cache ReportCache) {
	if err := cache.DeleteReport(ctx); err != nil {
		log.Printf("drop cached report failed: %v", err)
	}
	if err := cache.MarkDirty(ctx); err != nil {
		log.Printf("mark report cache dirty failed: %v", err)
	}
}

// ExportSource supplies raw per-platform export payloads for one
// aggregation pass. The default source replays the bundled simulation
// dataset; a live deployment swaps in real connector output.
type ExportSource func() map[string][]json.RawMessage

type ReportService struct {
	detector       *grc.Detector
	obligationRepo *repository.ObligationRepository
	mappingRepo    *repository.MappingRepository
	cache          ReportCache
	exports        ExportSource
}

func NewReportService(
	detector *grc.Detector,
	obligationRepo *repository.ObligationRepository,
	mappingRepo *repository.MappingRepository,
	cache ReportCache,
	exports ExportSource,
) *ReportService {
	if exports == nil {
		exports = platformagg.SeedExports
	}
	return &ReportService{
		detector:       detector,
		obligationRepo: obligationRepo,
		mappingRepo:    mappingRepo,
		cache:          cache,
		exports:        exports,
	}
}

// Monitor returns the current cross-platform report, serving the cached
// copy while it is fresh and no mutation has marked it dirty.
func (s *ReportService) Monitor(ctx context.Context) (*grc.Report, error) {
	cached, ok, err := s.cache.GetReport(ctx)
	if err != nil {
		log.Printf("report cache read failed: %v", err)
	} else if ok {
		dirty, derr := s.cache.IsDirty(ctx)
		if derr != nil {
			log.Printf("report cache dirty check failed: %v", derr)
		}
		if derr == nil && !dirty {
			return cached, nil
		}
	}

	report, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetReport(ctx, report); err != nil {
		log.Printf("report cache write failed: %v", err)
	}
	return report, nil
}

func (s *ReportService) compute(ctx context.Context) (*grc.Report, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	discrepancies := s.detector.Detect(snap)
	report := grc.BuildReport(uuid.NewString(), time.Now().UTC(), snap.Platforms, discrepancies)
	return &report, nil
}

// snapshot aggregates the platform exports and takes a committed read of
// the obligation and mapping stores, so one detection run never mixes
// states.
func (s *ReportService) snapshot() (grc.Snapshot, error) {
	platforms := platformagg.Aggregate(s.exports())

	obligations, err := s.obligationRepo.ListAll()
	if err != nil {
		return grc.Snapshot{}, err
	}
	counts, err := s.mappingRepo.CountByObligation()
	if err != nil {
		return grc.Snapshot{}, err
	}

	return grc.Snapshot{
		Platforms:     platforms,
		Obligations:   obligations,
		MappingCounts: counts,
	}, nil
}

// Validate runs the discrepancy rules and returns only the findings,
// bypassing the cache so callers always get a fresh pass.
func (s *ReportService) Validate(ctx context.Context) ([]grc.Discrepancy, error) {
	report, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetReport(ctx, report); err != nil {
		log.Printf("report cache write failed: %v", err)
	}
	return report.Discrepancies, nil
}

// IntelligenceSummary is the monitor report minus the per-discrepancy
// detail, for dashboard consumption.
type IntelligenceSummary struct {
	RunID                string             `json:"run_id"`
	GeneratedAt          time.Time          `json:"report_generated_at"`
	RiskAssessment       grc.RiskAssessment `json:"risk_assessment"`
	IntelligenceInsights []string           `json:"intelligence_insights"`
	PlatformsMonitored   []string           `json:"platforms_monitored"`
}

func (s *ReportService) Intelligence(ctx context.Context) (*IntelligenceSummary, error) {
	report, err := s.Monitor(ctx)
	if err != nil {
		return nil, err
	}

	platforms := make([]string, 0, len(report.PlatformSummary))
	for name := range report.PlatformSummary {
		platforms = append(platforms, name)
	}
	sort.Strings(platforms)

	return &IntelligenceSummary{
		RunID:                report.RunID,
		GeneratedAt:          report.GeneratedAt,
		RiskAssessment:       report.RiskAssessment,
		IntelligenceInsights: report.IntelligenceInsights,
		PlatformsMonitored:   platforms,
	}, nil
}

// ActivityFeed lists the most recent platform items, newest first.
func (s *ReportService) ActivityFeed(ctx context.Context, limit int) ([]grc.ActivityEntry, error) {
	platforms := platformagg.Aggregate(s.exports())
	return grc.ActivityFeed(platforms, limit), nil
}
