package grc

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"intelidoc/internal/model"
	"intelidoc/internal/platformagg"
)

func allItems(snap Snapshot) []platformagg.Item {
	var items []platformagg.Item
	names := make([]string, 0, len(snap.Platforms))
	for name := range snap.Platforms {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		items = append(items, snap.Platforms[name].Items...)
	}
	return items
}

var positiveStateMarkers = []string{
	"must implement", "is implemented", "implemented", "required",
	"enabled", "enforced",
}

var negativeStateMarkers = []string{
	"not implemented", "basic authentication", "disabled", "missing",
	"doesn't meet", "does not meet", "without mfa",
}

func controlStance(content string) int {
	lower := strings.ToLower(content)
	for _, m := range negativeStateMarkers {
		if strings.Contains(lower, m) {
			return -1
		}
	}
	for _, m := range positiveStateMarkers {
		if strings.Contains(lower, m) {
			return 1
		}
	}
	return 0
}

// checkControlStateConflicts matches the same logical item across
// platforms by content digest or explicit cross-reference, and fires when
// the matched group carries a conflicting classification or control state.
func (d *Detector) checkControlStateConflicts(snap Snapshot, now time.Time) ([]Discrepancy, error) {
	items := allItems(snap)

	byDigest := make(map[string][]platformagg.Item)
	byRef := make(map[string][]platformagg.Item)
	for _, item := range items {
		byDigest[item.ContentDigest] = append(byDigest[item.ContentDigest], item)
		for _, ref := range item.CrossRefs {
			byRef[ref] = append(byRef[ref], item)
		}
	}

	var out []Discrepancy

	digests := sortedKeys(byDigest)
	for _, digest := range digests {
		group := byDigest[digest]
		if crossPlatformCount(group) < 2 {
			continue
		}
		types := make(map[string]struct{})
		for _, item := range group {
			types[item.DataType] = struct{}{}
		}
		if len(types) < 2 {
			continue
		}
		out = append(out, d.conflictDiscrepancy(group, now,
			"Identical content classified differently across platforms",
			"Align the item's classification across the involved platforms"))
	}

	refs := sortedKeys(byRef)
	for _, ref := range refs {
		group := byRef[ref]
		if crossPlatformCount(group) < 2 {
			continue
		}
		hasPositive, hasNegative := false, false
		for _, item := range group {
			switch controlStance(item.Content) {
			case 1:
				hasPositive = true
			case -1:
				hasNegative = true
			}
		}
		if hasPositive && hasNegative {
			out = append(out, d.conflictDiscrepancy(group, now,
				fmt.Sprintf("Control %s reported in conflicting states across platforms", ref),
				fmt.Sprintf("Reconcile the state of control %s and update the out-of-date system of record", ref)))
		}
	}
	return out, nil
}

func (d *Detector) conflictDiscrepancy(group []platformagg.Item, now time.Time, description, action string) Discrepancy {
	refs := make([]ItemRef, len(group))
	for i, item := range group {
		refs[i] = itemRef(item)
	}
	severity := d.severityFor(true, d.recentPlatformCount(refs, now))
	framework := "SOC2, ISO27001"
	return Discrepancy{
		Severity:            severity,
		Description:         description,
		PlatformsInvolved:   platformsOf(refs),
		ComplianceFramework: framework,
		RiskLevel:           d.riskLevel(severity, framework),
		RecommendedAction:   action,
		DetectedAt:          now,
		ItemsCount:          len(refs),
		Items:               refs,
	}
}

// checkSecurityRequirements flags MFA requirements asserted on one
// platform while another platform still permits basic authentication.
func (d *Detector) checkSecurityRequirements(snap Snapshot, now time.Time) ([]Discrepancy, error) {
	var mfaRequired, basicAuth []platformagg.Item
	for _, item := range allItems(snap) {
		lower := strings.ToLower(item.Content)
		if !strings.Contains(lower, "security") && !strings.Contains(lower, "mfa") {
			continue
		}
		switch {
		case strings.Contains(lower, "mfa") && (strings.Contains(lower, "required") || strings.Contains(lower, "must")):
			mfaRequired = append(mfaRequired, item)
		case strings.Contains(lower, "basic authentication"):
			basicAuth = append(basicAuth, item)
		}
	}
	if len(mfaRequired) == 0 || len(basicAuth) == 0 {
		return nil, nil
	}

	refs := make([]ItemRef, 0, len(mfaRequired)+len(basicAuth))
	for _, item := range append(mfaRequired, basicAuth...) {
		refs = append(refs, itemRef(item))
	}
	severity := d.severityFor(true, d.recentPlatformCount(refs, now))
	framework := "SOC2, ISO27001"
	return []Discrepancy{{
		Severity:            severity,
		Description:         "Inconsistent MFA requirements detected across platforms. Policy requires MFA but another system allows basic authentication.",
		PlatformsInvolved:   platformsOf(refs),
		ComplianceFramework: framework,
		RiskLevel:           d.riskLevel(severity, framework),
		RecommendedAction:   "Update vendor contract to require MFA and conduct security review",
		DetectedAt:          now,
		ItemsCount:          len(refs),
		Items:               refs,
	}}, nil
}

var frameworkTokens = map[string][]string{
	"GDPR":     {"gdpr"},
	"SOC2":     {"soc2", "soc 2"},
	"ISO27001": {"iso27001", "iso 27001"},
	"HIPAA":    {"hipaa"},
	"PCI-DSS":  {"pci"},
}

// checkFrameworkGaps flags a compliance framework implicated on a single
// platform while the surrounding compliance activity spans others: the
// framework's requirements are being discussed but not tracked anywhere
// else.
func (d *Detector) checkFrameworkGaps(snap Snapshot, now time.Time) ([]Discrepancy, error) {
	mentions := make(map[string][]platformagg.Item)
	complianceActive := make(map[string][]platformagg.Item) // platform -> items
	for _, item := range allItems(snap) {
		lower := strings.ToLower(item.Content)
		matched := false
		for framework, tokens := range frameworkTokens {
			for _, token := range tokens {
				if strings.Contains(lower, token) {
					mentions[framework] = append(mentions[framework], item)
					matched = true
					break
				}
			}
		}
		if matched || strings.Contains(lower, "compliance") {
			complianceActive[item.Platform] = append(complianceActive[item.Platform], item)
		}
	}

	var out []Discrepancy
	for _, framework := range sortedKeys(mentions) {
		group := mentions[framework]
		if crossPlatformCount(group) != 1 {
			continue
		}
		sole := group[0].Platform
		refs := make([]ItemRef, 0, len(group))
		for _, item := range group {
			refs = append(refs, itemRef(item))
		}
		for _, platform := range sortedKeys(complianceActive) {
			if platform == sole {
				continue
			}
			for _, item := range complianceActive[platform] {
				refs = append(refs, itemRef(item))
			}
		}
		if len(platformsOf(refs)) < 2 {
			continue
		}
		severity := d.severityFor(true, d.recentPlatformCount(refs, now))
		out = append(out, Discrepancy{
			Severity:            severity,
			Description:         fmt.Sprintf("%s requirements surfaced on %s but are not tracked on any other platform", framework, sole),
			PlatformsInvolved:   platformsOf(refs),
			ComplianceFramework: framework,
			RiskLevel:           d.riskLevel(severity, framework),
			RecommendedAction:   fmt.Sprintf("Review %s obligations and create tracking items in the systems of record", framework),
			DetectedAt:          now,
			ItemsCount:          len(refs),
			Items:               refs,
		})
	}
	return out, nil
}

var retentionPeriod = regexp.MustCompile(`(\d+)\s*(?:year|yr)`)

// checkDataRetention flags different retention periods specified across
// platforms.
func (d *Detector) checkDataRetention(snap Snapshot, now time.Time) ([]Discrepancy, error) {
	periods := make(map[string]struct{})
	var retentionItems []platformagg.Item
	for _, item := range allItems(snap) {
		lower := strings.ToLower(item.Content)
		if !strings.Contains(lower, "retention") {
			continue
		}
		retentionItems = append(retentionItems, item)
		for _, m := range retentionPeriod.FindAllStringSubmatch(lower, -1) {
			periods[m[1]] = struct{}{}
		}
	}
	if len(retentionItems) < 2 || len(periods) < 2 || crossPlatformCount(retentionItems) < 2 {
		return nil, nil
	}

	refs := make([]ItemRef, len(retentionItems))
	for i, item := range retentionItems {
		refs[i] = itemRef(item)
	}
	severity := d.severityFor(true, d.recentPlatformCount(refs, now))
	framework := "Data Retention Policy"
	return []Discrepancy{{
		Severity:            severity,
		Description:         "Inconsistent data retention periods specified across platforms",
		PlatformsInvolved:   platformsOf(refs),
		ComplianceFramework: framework,
		RiskLevel:           d.riskLevel(severity, framework),
		RecommendedAction:   "Standardize data retention periods across all contracts and policies",
		DetectedAt:          now,
		ItemsCount:          len(refs),
		Items:               refs,
	}}, nil
}

// checkVendorManagement flags vendor security reviews that surfaced urgent
// issues.
func (d *Detector) checkVendorManagement(snap Snapshot, now time.Time) ([]Discrepancy, error) {
	var vendorItems []platformagg.Item
	reviewMentioned, urgent := false, false
	for _, item := range allItems(snap) {
		lower := strings.ToLower(item.Content)
		if !strings.Contains(lower, "vendor") {
			continue
		}
		vendorItems = append(vendorItems, item)
		if strings.Contains(lower, "security review") {
			reviewMentioned = true
		}
		if strings.Contains(lower, "urgent") || strings.Contains(lower, "immediate") {
			urgent = true
		}
	}
	if !reviewMentioned || !urgent || crossPlatformCount(vendorItems) < 2 {
		return nil, nil
	}

	refs := make([]ItemRef, len(vendorItems))
	for i, item := range vendorItems {
		refs[i] = itemRef(item)
	}
	severity := d.severityFor(true, d.recentPlatformCount(refs, now))
	framework := "Vendor Management"
	return []Discrepancy{{
		Severity:            severity,
		Description:         "Vendor security review identified urgent issues requiring immediate attention",
		PlatformsInvolved:   platformsOf(refs),
		ComplianceFramework: framework,
		RiskLevel:           d.riskLevel(severity, framework),
		RecommendedAction:   "Immediate vendor security remediation and quarterly review implementation",
		DetectedAt:          now,
		ItemsCount:          len(refs),
		Items:               refs,
	}}, nil
}

var categoryDomainTerms = map[string][]string{
	model.CategoryPrivacy:    {"gdpr", "personal data", "privacy", "data processing"},
	model.CategorySecurity:   {"mfa", "security", "encrypt", "authentication"},
	model.CategoryCompliance: {"soc2", "compliance", "audit", "iso 27001", "iso27001"},
	model.CategoryLegal:      {"contract", "agreement", "legal"},
}

var categoryFrameworks = map[string]string{
	model.CategoryPrivacy:    "GDPR",
	model.CategorySecurity:   "SOC2, ISO27001",
	model.CategoryCompliance: "SOC2",
	model.CategoryLegal:      "Contract Governance",
}

// checkUnmappedObligations flags regulated obligations that lack any
// control/policy mapping while platform activity implicates their domain.
func (d *Detector) checkUnmappedObligations(snap Snapshot, now time.Time) ([]Discrepancy, error) {
	unmappedByCategory := make(map[string][]model.Obligation)
	for _, ob := range snap.Obligations {
		if !model.RegulatedCategory(ob.Category) {
			continue
		}
		if snap.MappingCounts[ob.ID] > 0 {
			continue
		}
		unmappedByCategory[ob.Category] = append(unmappedByCategory[ob.Category], ob)
	}

	var out []Discrepancy
	for _, category := range sortedKeys(unmappedByCategory) {
		obligations := unmappedByCategory[category]
		terms := categoryDomainTerms[category]

		var implicated []platformagg.Item
		for _, item := range allItems(snap) {
			lower := strings.ToLower(item.Content)
			for _, term := range terms {
				if strings.Contains(lower, term) {
					implicated = append(implicated, item)
					break
				}
			}
		}
		if crossPlatformCount(implicated) < 2 {
			continue
		}

		refs := make([]ItemRef, 0, len(obligations)+len(implicated))
		for _, ob := range obligations {
			refs = append(refs, obligationRef(ob))
		}
		for _, item := range implicated {
			refs = append(refs, itemRef(item))
		}
		severity := d.severityFor(true, d.recentPlatformCount(refs, now))
		framework := categoryFrameworks[category]
		out = append(out, Discrepancy{
			Severity:            severity,
			Description:         fmt.Sprintf("%d unmapped %s obligation(s) while platform activity implicates that domain", len(obligations), category),
			PlatformsInvolved:   platformsOf(refs),
			ComplianceFramework: framework,
			RiskLevel:           d.riskLevel(severity, framework),
			RecommendedAction:   fmt.Sprintf("Map the open %s obligations to controls or policies and assign owners", category),
			DetectedAt:          now,
			ItemsCount:          len(refs),
			Items:               refs,
		})
	}
	return out, nil
}

func crossPlatformCount(items []platformagg.Item) int {
	platforms := make(map[string]struct{})
	for _, item := range items {
		platforms[item.Platform] = struct{}{}
	}
	return len(platforms)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
