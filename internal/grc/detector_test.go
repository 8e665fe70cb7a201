package grc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intelidoc/internal/model"
	"intelidoc/internal/platformagg"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestDetector() *Detector {
	d := NewDetector(72*time.Hour, []string{"GDPR", "SOC2", "ISO27001"})
	d.now = func() time.Time { return testNow }
	return d
}

func makeItem(platform, id, dataType, content string, age time.Duration, refs ...string) platformagg.Item {
	return platformagg.Item{
		Platform:      platform,
		ItemID:        id,
		DataType:      dataType,
		Content:       content,
		ContentDigest: platformagg.Digest(content),
		Users:         []string{"user@co.com"},
		LastActivity:  testNow.Add(-age),
		CrossRefs:     refs,
	}
}

func snapshotOf(items ...platformagg.Item) Snapshot {
	platforms := make(map[string]platformagg.PlatformData)
	for _, item := range items {
		data := platforms[item.Platform]
		data.Name = item.Platform
		data.Items = append(data.Items, item)
		data.ItemsCount = len(data.Items)
		platforms[item.Platform] = data
	}
	return Snapshot{Platforms: platforms, MappingCounts: map[uint]int{}}
}

func TestDetect_ControlStateConflict_HighWhenBothRecent(t *testing.T) {
	d := newTestDetector()
	snap := snapshotOf(
		makeItem("sharepoint", "sp-1", platformagg.TypePolicy,
			"Access control CTRL-7 is implemented for all vendors", time.Hour, "CTRL-7"),
		makeItem("sap", "sap-1", platformagg.TypeContract,
			"Control CTRL-7 not implemented for vendor systems", 2*time.Hour, "CTRL-7"),
	)

	discrepancies := d.Detect(snap)
	require.NotEmpty(t, discrepancies)

	found := false
	for _, disc := range discrepancies {
		if disc.ItemsCount == 2 && len(disc.PlatformsInvolved) == 2 {
			found = true
			assert.Equal(t, SeverityHigh, disc.Severity)
			assert.Equal(t, []string{"sap", "sharepoint"}, disc.PlatformsInvolved)
		}
	}
	assert.True(t, found, "expected a cross-platform control conflict")
}

func TestDetect_ImplementedVsNotImplementedScenario(t *testing.T) {
	d := newTestDetector()
	snap := snapshotOf(
		makeItem("jira", "SEC-1", platformagg.TypeTask,
			"Encryption control is implemented and enforced", time.Hour, "CTRL-ENC"),
		makeItem("sap", "sap-9", platformagg.TypeCompliance,
			"Encryption control not implemented", time.Hour, "CTRL-ENC"),
	)

	discrepancies := d.Detect(snap)
	require.NotEmpty(t, discrepancies)
	top := discrepancies[0]
	assert.Equal(t, SeverityHigh, top.Severity)
	assert.Contains(t, top.PlatformsInvolved, "jira")
	assert.Contains(t, top.PlatformsInvolved, "sap")
}

func TestDetect_SeverityMonotonicInPlatformCount(t *testing.T) {
	d := newTestDetector()

	onePlatformRecent := snapshotOf(
		makeItem("sharepoint", "sp-1", platformagg.TypePolicy,
			"All vendors must use MFA, it is required", time.Hour),
		makeItem("sap", "sap-1", platformagg.TypeContract,
			"vendor security: basic authentication only", 200*time.Hour),
	)
	bothRecent := snapshotOf(
		makeItem("sharepoint", "sp-1", platformagg.TypePolicy,
			"All vendors must use MFA, it is required", time.Hour),
		makeItem("sap", "sap-1", platformagg.TypeContract,
			"vendor security: basic authentication only", 2*time.Hour),
	)

	weaker := findByFramework(d.Detect(onePlatformRecent), "SOC2, ISO27001")
	stronger := findByFramework(d.Detect(bothRecent), "SOC2, ISO27001")
	require.NotNil(t, weaker)
	require.NotNil(t, stronger)
	assert.GreaterOrEqual(t, severityRank(stronger.Severity), severityRank(weaker.Severity))
	assert.Equal(t, SeverityMedium, weaker.Severity)
	assert.Equal(t, SeverityHigh, stronger.Severity)
}

func TestDetect_RetentionInconsistency(t *testing.T) {
	d := newTestDetector()
	snap := snapshotOf(
		makeItem("onedrive", "od-1", platformagg.TypePolicy,
			"Data retention: customer data kept for 7 years", time.Hour),
		makeItem("sap", "sap-1", platformagg.TypeContract,
			"Contract data retention period is 2 years", 2*time.Hour),
	)

	disc := findByFramework(d.Detect(snap), "Data Retention Policy")
	require.NotNil(t, disc)
	assert.Len(t, disc.PlatformsInvolved, 2)
	// framework is not high-stakes, risk mirrors severity
	assert.Equal(t, disc.Severity, disc.RiskLevel)
}

func TestDetect_VendorManagement(t *testing.T) {
	d := newTestDetector()
	snap := snapshotOf(
		makeItem("outlook", "mail-1", platformagg.TypeEmail,
			"Vendor ABC security review found URGENT issues", time.Hour),
		makeItem("sharepoint", "sp-1", platformagg.TypePolicy,
			"Vendor access reviews happen quarterly", 2*time.Hour),
	)

	disc := findByFramework(d.Detect(snap), "Vendor Management")
	require.NotNil(t, disc)
	assert.Equal(t, SeverityHigh, disc.Severity)
}

func TestDetect_FrameworkGap_EscalatesHighStakesRisk(t *testing.T) {
	d := newTestDetector()
	snap := snapshotOf(
		makeItem("teams", "chat-1", platformagg.TypeUserActivity,
			"Client requires GDPR compliance for the new deal", 200*time.Hour),
		makeItem("jira", "SEC-2", platformagg.TypeTask,
			"Track compliance audit preparation", 190*time.Hour),
	)

	disc := findByFramework(d.Detect(snap), "GDPR")
	require.NotNil(t, disc)
	// Regulated but no recent activity: medium severity, escalated to
	// high risk because GDPR is high-stakes.
	assert.Equal(t, SeverityMedium, disc.Severity)
	assert.Equal(t, SeverityHigh, disc.RiskLevel)
}

func TestDetect_UnmappedObligations(t *testing.T) {
	d := newTestDetector()
	snap := snapshotOf(
		makeItem("sharepoint", "sp-1", platformagg.TypePolicy,
			"Security baseline requires encryption everywhere", time.Hour),
		makeItem("jira", "SEC-3", platformagg.TypeTask,
			"Roll out MFA to all vendor accounts", 2*time.Hour),
	)
	snap.Obligations = []model.Obligation{
		{ID: 1, Category: model.CategorySecurity, Text: "All systems must enforce MFA.", CreatedAt: testNow},
		{ID: 2, Category: model.CategoryUX, Text: "Forms should be keyboard friendly.", CreatedAt: testNow},
	}
	snap.MappingCounts = map[uint]int{}

	disc := findByFramework(d.Detect(snap), "SOC2, ISO27001")
	require.NotNil(t, disc)
	assert.Contains(t, disc.Description, "unmapped")
	assert.Equal(t, SeverityHigh, disc.Severity)

	// Mapping the obligation silences the rule.
	snap.MappingCounts[1] = 1
	for _, remaining := range d.Detect(snap) {
		assert.NotContains(t, remaining.Description, "unmapped")
	}
}

func TestDetect_IdempotentForIdenticalInputs(t *testing.T) {
	d := newTestDetector()
	snap := snapshotOf(
		makeItem("sharepoint", "sp-1", platformagg.TypePolicy,
			"All vendors must use MFA, it is required", time.Hour),
		makeItem("sap", "sap-1", platformagg.TypeContract,
			"vendor security: basic authentication only", 2*time.Hour),
	)

	first := d.Detect(snap)
	second := d.Detect(snap)
	assert.Equal(t, first, second)
}

func TestDetect_EveryDiscrepancySpansTwoPlatforms(t *testing.T) {
	d := newTestDetector()
	discrepancies := d.Detect(Snapshot{
		Platforms:     platformagg.Aggregate(platformagg.SeedExports()),
		MappingCounts: map[uint]int{},
	})
	require.NotEmpty(t, discrepancies)
	for _, disc := range discrepancies {
		assert.GreaterOrEqual(t, len(disc.PlatformsInvolved), 2, disc.Description)
		assert.Equal(t, len(disc.Items), disc.ItemsCount)
	}
}

func TestDetect_SingleQuietPlatform(t *testing.T) {
	d := newTestDetector()
	snap := snapshotOf(
		makeItem("sap", "sap-1", platformagg.TypeContract, "routine purchase order", time.Hour),
	)
	assert.Empty(t, d.Detect(snap))
}

func findByFramework(discrepancies []Discrepancy, framework string) *Discrepancy {
	for i := range discrepancies {
		if discrepancies[i].ComplianceFramework == framework {
			return &discrepancies[i]
		}
	}
	return nil
}
