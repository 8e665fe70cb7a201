package grc

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"intelidoc/internal/platformagg"
)

// RiskAssessment is recomputed in full from the current discrepancy set
// and platform summary on every run, never updated incrementally.
type RiskAssessment struct {
	OverallRisk             string `json:"overall_risk"`
	HighRiskDiscrepancies   int    `json:"high_risk_discrepancies"`
	MediumRiskDiscrepancies int    `json:"medium_risk_discrepancies"`
	LowRiskDiscrepancies    int    `json:"low_risk_discrepancies"`
	PlatformsMonitored      int    `json:"platforms_monitored"`
	TotalItemsAnalyzed      int    `json:"total_items_analyzed"`
}

// Summarize counts discrepancies by severity and takes the maximum
// severity present as the overall risk; low when the set is empty.
func Summarize(discrepancies []Discrepancy, platforms map[string]platformagg.PlatformData) RiskAssessment {
	assessment := RiskAssessment{
		OverallRisk:        SeverityLow,
		PlatformsMonitored: len(platforms),
	}
	for _, data := range platforms {
		assessment.TotalItemsAnalyzed += data.ItemsCount
	}
	for _, d := range discrepancies {
		switch d.Severity {
		case SeverityHigh:
			assessment.HighRiskDiscrepancies++
		case SeverityMedium:
			assessment.MediumRiskDiscrepancies++
		default:
			assessment.LowRiskDiscrepancies++
		}
		if severityRank(d.Severity) > severityRank(assessment.OverallRisk) {
			assessment.OverallRisk = d.Severity
		}
	}
	return assessment
}

// PlatformSummary is the per-platform slice of a report, without the full
// item payloads.
type PlatformSummary struct {
	Name         string     `json:"name"`
	ItemsCount   int        `json:"items_count"`
	DataTypes    []string   `json:"data_types"`
	Users        []string   `json:"users"`
	LastActivity *time.Time `json:"last_activity"`
}

// Report is the read-only snapshot returned by one report-generation
// call. There is no shared mutable report state.
type Report struct {
	RunID                string                     `json:"run_id"`
	GeneratedAt          time.Time                  `json:"report_generated_at"`
	PlatformSummary      map[string]PlatformSummary `json:"platform_summary"`
	Discrepancies        []Discrepancy              `json:"grc_discrepancies"`
	RiskAssessment       RiskAssessment             `json:"risk_assessment"`
	IntelligenceInsights []string                   `json:"intelligence_insights"`
}

// BuildReport assembles the full report from one detection run.
func BuildReport(runID string, generatedAt time.Time, platforms map[string]platformagg.PlatformData, discrepancies []Discrepancy) Report {
	summary := make(map[string]PlatformSummary, len(platforms))
	for name, data := range platforms {
		summary[name] = PlatformSummary{
			Name:         data.Name,
			ItemsCount:   data.ItemsCount,
			DataTypes:    data.DataTypes,
			Users:        data.Users,
			LastActivity: data.LastActivity,
		}
	}
	return Report{
		RunID:                runID,
		GeneratedAt:          generatedAt,
		PlatformSummary:      summary,
		Discrepancies:        discrepancies,
		RiskAssessment:       Summarize(discrepancies, platforms),
		IntelligenceInsights: insights(discrepancies),
	}
}

// insights derives one line per fired rule family.
func insights(discrepancies []Discrepancy) []string {
	families := make(map[string]struct{})
	for _, d := range discrepancies {
		lower := strings.ToLower(d.Description)
		switch {
		case strings.Contains(lower, "mfa") || strings.Contains(lower, "control"):
			families["security"] = struct{}{}
		case strings.Contains(lower, "vendor"):
			families["vendor"] = struct{}{}
		case strings.Contains(lower, "retention"):
			families["retention"] = struct{}{}
		case strings.Contains(lower, "unmapped"):
			families["mapping"] = struct{}{}
		default:
			families["framework"] = struct{}{}
		}
	}

	lines := map[string]string{
		"security":  "Cross-platform security requirements need standardization",
		"vendor":    "Vendor management process requires immediate attention",
		"framework": "Compliance framework gaps identified across systems of record",
		"retention": "Data retention policies show inconsistencies across systems",
		"mapping":   "Regulated obligations remain unmapped to controls or policies",
	}
	var out []string
	for family := range families {
		out = append(out, lines[family])
	}
	sort.Strings(out)
	if len(out) == 0 {
		out = []string{"No cross-platform compliance inconsistencies detected in this run"}
	}
	return out
}

// ActivityEntry is one row of the cross-platform activity feed.
type ActivityEntry struct {
	Platform       string    `json:"platform"`
	DataType       string    `json:"data_type"`
	ContentPreview string    `json:"content_preview"`
	Users          []string  `json:"users"`
	Timestamp      time.Time `json:"timestamp"`
}

// ActivityFeed returns the most recent platform items, newest first,
// capped at limit.
func ActivityFeed(platforms map[string]platformagg.PlatformData, limit int) []ActivityEntry {
	if limit <= 0 {
		limit = 20
	}
	var entries []ActivityEntry
	for _, data := range platforms {
		for _, item := range data.Items {
			entries = append(entries, ActivityEntry{
				Platform:       item.Platform,
				DataType:       item.DataType,
				ContentPreview: preview(item.Content),
				Users:          item.Users,
				Timestamp:      item.LastActivity,
			})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].Timestamp.After(entries[j].Timestamp)
		}
		return fmt.Sprint(entries[i].Platform, entries[i].ContentPreview) < fmt.Sprint(entries[j].Platform, entries[j].ContentPreview)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
