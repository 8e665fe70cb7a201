package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intelidoc/internal/grc"
	"intelidoc/internal/model"
	"intelidoc/internal/repository"
)

func newReportFixture(t *testing.T) (*fixture, *ReportService, *InsightService) {
	t.Helper()
	f := newFixture(t)

	obligationRepo := repository.NewObligationRepository(f.db)
	mappingRepo := repository.NewMappingRepository(f.db)
	detector := grc.NewDetector(72*time.Hour, []string{"GDPR", "SOC2", "ISO27001", "HIPAA", "PCI-DSS"})

	reports := NewReportService(detector, obligationRepo, mappingRepo, f.cache, nil)
	insights := NewInsightService(obligationRepo, mappingRepo)
	return f, reports, insights
}

func TestMonitorFindsSeededDiscrepancies(t *testing.T) {
	_, reports, _ := newReportFixture(t)

	report, err := reports.Monitor(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Len(t, report.PlatformSummary, 7)
	assert.NotEmpty(t, report.Discrepancies)
	for _, d := range report.Discrepancies {
		assert.GreaterOrEqual(t, len(d.PlatformsInvolved), 2)
	}
	assert.NotEmpty(t, report.IntelligenceInsights)
	assert.Contains(t, []string{grc.SeverityLow, grc.SeverityMedium, grc.SeverityHigh}, report.RiskAssessment.OverallRisk)
}

func TestMonitorServesCachedReportUntilDirty(t *testing.T) {
	f, reports, _ := newReportFixture(t)

	first, err := reports.Monitor(context.Background())
	require.NoError(t, err)

	second, err := reports.Monitor(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.RunID, second.RunID, "clean cache is served as is")

	require.NoError(t, f.cache.MarkDirty(context.Background()))

	third, err := reports.Monitor(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, third.RunID, "dirty cache forces a recompute")
}

func TestMutationInvalidatesReportAfterMarkerExpiry(t *testing.T) {
	f, reports, _ := newReportFixture(t)

	first, err := reports.Monitor(context.Background())
	require.NoError(t, err)

	// A committed mutation drops the cached report outright.
	result, err := f.documents.Ingest(context.Background(), IngestInput{Title: "Policy", RawText: policyText})
	require.NoError(t, err)
	require.NotEmpty(t, result.Obligations)

	// The dirty marker has a short TTL; simulate it lapsing before the
	// next monitor call.
	f.cache.mu.Lock()
	f.cache.dirty = false
	f.cache.mu.Unlock()

	second, err := reports.Monitor(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID, "mutation must not be lost to marker expiry")
}

func TestValidateAlwaysRunsFresh(t *testing.T) {
	_, reports, _ := newReportFixture(t)

	discrepancies, err := reports.Validate(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, discrepancies)
}

func TestIntelligenceSummaryShape(t *testing.T) {
	_, reports, _ := newReportFixture(t)

	summary, err := reports.Intelligence(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, summary.RunID)
	assert.Len(t, summary.PlatformsMonitored, 7)
	assert.NotEmpty(t, summary.IntelligenceInsights)
}

func TestActivityFeedNewestFirst(t *testing.T) {
	_, reports, _ := newReportFixture(t)

	feed, err := reports.ActivityFeed(context.Background(), 5)
	require.NoError(t, err)
	require.NotEmpty(t, feed)
	assert.LessOrEqual(t, len(feed), 5)
	for i := 1; i < len(feed); i++ {
		assert.False(t, feed[i].Timestamp.After(feed[i-1].Timestamp))
	}
}

func TestGapAnalysisCountsUnmapped(t *testing.T) {
	f, _, insights := newReportFixture(t)

	result, err := f.documents.Ingest(context.Background(), IngestInput{Title: "Policy", RawText: policyText})
	require.NoError(t, err)
	require.NotEmpty(t, result.Obligations)

	analysis, err := insights.GapAnalysis()
	require.NoError(t, err)
	assert.Equal(t, len(result.Obligations), analysis.TotalObligations)
	assert.Equal(t, len(result.Obligations), analysis.TotalUnmapped)
	assert.Zero(t, analysis.CoveragePercent)

	_, err = f.mappings.Create(context.Background(), CreateMappingInput{
		ObligationID: result.Obligations[0].ID,
		MappingType:  model.MappingControl,
		ExternalID:   "CTRL-1",
		ExternalName: "Encryption",
	})
	require.NoError(t, err)

	analysis, err = insights.GapAnalysis()
	require.NoError(t, err)
	assert.Equal(t, len(result.Obligations)-1, analysis.TotalUnmapped)
	assert.Positive(t, analysis.CoveragePercent)
}

func TestMappingSummaryCountsByType(t *testing.T) {
	f, _, insights := newReportFixture(t)

	result, err := f.documents.Ingest(context.Background(), IngestInput{Title: "Policy", RawText: policyText})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(result.Obligations), 2)

	first, second := result.Obligations[0], result.Obligations[1]
	for _, input := range []CreateMappingInput{
		{ObligationID: first.ID, MappingType: model.MappingControl, ExternalID: "CTRL-1", ExternalName: "MFA"},
		{ObligationID: first.ID, MappingType: model.MappingControl, ExternalID: "CTRL-2", ExternalName: "Encryption"},
		{ObligationID: second.ID, MappingType: model.MappingJiraTicket, ExternalID: "SEC-7", ExternalName: "Review vendors"},
	} {
		_, err := f.mappings.Create(context.Background(), input)
		require.NoError(t, err)
	}

	summary, err := insights.MappingSummary()
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalMappings)
	assert.Equal(t, 2, summary.MappedObligations)
	require.Len(t, summary.ByType, 2)
	assert.Equal(t, model.MappingControl, summary.ByType[0].MappingType)
	assert.Equal(t, 2, summary.ByType[0].Total)
	assert.Equal(t, 1, summary.ByType[0].DistinctObligations)
	assert.Equal(t, model.MappingJiraTicket, summary.ByType[1].MappingType)
	assert.Equal(t, 1, summary.ByType[1].Total)
}

func TestGapAnalysisEmptyStore(t *testing.T) {
	_, _, insights := newReportFixture(t)

	analysis, err := insights.GapAnalysis()
	require.NoError(t, err)
	assert.Zero(t, analysis.TotalObligations)
	assert.Equal(t, 100, analysis.CoveragePercent)
	assert.Empty(t, analysis.Categories)
}
