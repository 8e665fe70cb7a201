// Package grc cross-validates aggregated platform items and mapped
// obligations against compliance rules, emitting scored discrepancies.
package grc

import (
	"log"
	"sort"
	"strings"
	"time"

	"intelidoc/internal/model"
	"intelidoc/internal/platformagg"
)

// Severity / risk levels.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// ItemRef points a discrepancy at the platform items or obligations that
// triggered it.
type ItemRef struct {
	Kind           string    `json:"kind"` // platform_item | obligation
	Platform       string    `json:"platform,omitempty"`
	ItemID         string    `json:"item_id,omitempty"`
	ObligationID   uint      `json:"obligation_id,omitempty"`
	DataType       string    `json:"data_type,omitempty"`
	ContentPreview string    `json:"content_preview"`
	LastActivity   time.Time `json:"last_activity"`
}

// Discrepancy is immutable once emitted within a run; a new run produces
// a new set.
type Discrepancy struct {
	Severity            string    `json:"severity"`
	Description         string    `json:"description"`
	PlatformsInvolved   []string  `json:"platforms_involved"` // ordered set, >= 2
	ComplianceFramework string    `json:"compliance_framework"`
	RiskLevel           string    `json:"risk_level"`
	RecommendedAction   string    `json:"recommended_action"`
	DetectedAt          time.Time `json:"detected_at"`
	ItemsCount          int       `json:"items_count"`
	Items               []ItemRef `json:"items"`
}

// Snapshot is the consistent input state for one detection run: freshly
// aggregated platform items plus a committed read of the obligation and
// mapping stores.
type Snapshot struct {
	Platforms     map[string]platformagg.PlatformData
	Obligations   []model.Obligation
	MappingCounts map[uint]int // obligation ID -> number of mappings
}

type rule struct {
	name string
	eval func(d *Detector, snap Snapshot, now time.Time) ([]Discrepancy, error)
}

// Detector evaluates a fixed rule set over one snapshot. Stateless between
// runs; a run over identical inputs yields the identical discrepancy set
// (detected_at aside).
type Detector struct {
	recencyWindow time.Duration
	highStakes    map[string]struct{}
	now           func() time.Time

	rules []rule
}

func NewDetector(recencyWindow time.Duration, highStakesFrameworks []string) *Detector {
	if recencyWindow <= 0 {
		recencyWindow = 72 * time.Hour
	}
	stakes := make(map[string]struct{}, len(highStakesFrameworks))
	for _, f := range highStakesFrameworks {
		stakes[normalizeFramework(f)] = struct{}{}
	}
	d := &Detector{
		recencyWindow: recencyWindow,
		highStakes:    stakes,
		now:           time.Now,
	}
	d.rules = []rule{
		{"control_state_conflict", (*Detector).checkControlStateConflicts},
		{"security_requirements", (*Detector).checkSecurityRequirements},
		{"compliance_framework_gap", (*Detector).checkFrameworkGaps},
		{"data_retention", (*Detector).checkDataRetention},
		{"vendor_management", (*Detector).checkVendorManagement},
		{"unmapped_obligations", (*Detector).checkUnmappedObligations},
	}
	return d
}

// Detect runs every rule over the snapshot. A failing rule is logged and
// skipped; it costs its own discrepancy category, never the report. The
// result order is deterministic regardless of rule evaluation order.
func (d *Detector) Detect(snap Snapshot) []Discrepancy {
	now := d.now()
	var out []Discrepancy
	for _, r := range d.rules {
		found, err := r.eval(d, snap, now)
		if err != nil {
			log.Printf("grc rule %s failed: %v", r.name, err)
			continue
		}
		out = append(out, found...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Severity != out[j].Severity {
			return severityRank(out[i].Severity) > severityRank(out[j].Severity)
		}
		return out[i].Description < out[j].Description
	})
	return out
}

func severityRank(s string) int {
	switch s {
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	}
	return 0
}

// severityFor applies the severity matrix: regulated domain plus two or more
// recently active platforms is high; exactly one of those is medium;
// neither is low. Monotonic in both conditions.
func (d *Detector) severityFor(regulated bool, recentlyActivePlatforms int) string {
	multiRecent := recentlyActivePlatforms >= 2
	switch {
	case regulated && multiRecent:
		return SeverityHigh
	case regulated || multiRecent:
		return SeverityMedium
	}
	return SeverityLow
}

// riskLevel mirrors severity, escalated one step (capped at high) when the
// compliance framework is high-stakes.
func (d *Detector) riskLevel(severity, framework string) string {
	if !d.isHighStakes(framework) {
		return severity
	}
	switch severity {
	case SeverityLow:
		return SeverityMedium
	default:
		return SeverityHigh
	}
}

func (d *Detector) isHighStakes(framework string) bool {
	for _, part := range strings.Split(framework, ",") {
		if _, ok := d.highStakes[normalizeFramework(part)]; ok {
			return true
		}
	}
	return false
}

func normalizeFramework(f string) string {
	f = strings.ToLower(strings.TrimSpace(f))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(f)
}

func (d *Detector) isRecent(ts time.Time, now time.Time) bool {
	return now.Sub(ts) <= d.recencyWindow
}

// recentPlatformCount counts distinct platforms among refs whose activity
// falls within the recency window.
func (d *Detector) recentPlatformCount(refs []ItemRef, now time.Time) int {
	recent := make(map[string]struct{})
	for _, ref := range refs {
		if ref.Platform != "" && d.isRecent(ref.LastActivity, now) {
			recent[ref.Platform] = struct{}{}
		}
	}
	return len(recent)
}

func platformsOf(refs []ItemRef) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, ref := range refs {
		if ref.Platform == "" {
			continue
		}
		if _, dup := seen[ref.Platform]; dup {
			continue
		}
		seen[ref.Platform] = struct{}{}
		out = append(out, ref.Platform)
	}
	sort.Strings(out)
	return out
}

func itemRef(item platformagg.Item) ItemRef {
	return ItemRef{
		Kind:           "platform_item",
		Platform:       item.Platform,
		ItemID:         item.ItemID,
		DataType:       item.DataType,
		ContentPreview: preview(item.Content),
		LastActivity:   item.LastActivity,
	}
}

func obligationRef(ob model.Obligation) ItemRef {
	return ItemRef{
		Kind:           "obligation",
		ObligationID:   ob.ID,
		ContentPreview: preview(ob.Text),
		LastActivity:   ob.CreatedAt,
	}
}

func preview(content string) string {
	const max = 100
	if len(content) <= max {
		return content
	}
	return content[:max] + "..."
}
