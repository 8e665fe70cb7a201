package platformagg

import (
	"encoding/json"
	"time"
)

// SeedExports returns a simulated enterprise dataset used when no live
// connector payloads are supplied, so reporting works out of the box.
// Timestamps are relative to now so recency rules behave the same on any
// day the seed is loaded.
func SeedExports() map[string][]json.RawMessage {
	now := time.Now()
	mustJSON := func(v any) json.RawMessage {
		b, _ := json.Marshal(v)
		return b
	}

	return map[string][]json.RawMessage{
		"sharepoint": {
			mustJSON(fileExport{
				ID:     "sharepoint_doc_001",
				Title:  "Vendor Security Policy v2.1",
				Author: "security.team@company.com",
				Text: "Vendor Security Requirements: All vendors must implement MFA and data encryption. " +
					"Vendor access must be reviewed quarterly.",
				Kind:       TypePolicy,
				ModifiedAt: now.Add(-48 * time.Hour),
				Refs:       []string{"CTRL-MFA-001"},
				Metadata:   json.RawMessage(`{"department":"IT Security","tags":["security","vendor","compliance"]}`),
			}),
		},
		"sap": {
			mustJSON(erpExport{
				ID:         "sap_contract_001",
				DocumentNo: "CON-2024-001",
				DocType:    TypeContract,
				Description: "Contract with Vendor ABC: Payment terms 30 days, security requirements: " +
					"basic authentication only, data retention: 2 years",
				CreatedBy: "procurement@company.com",
				ChangedAt: now.Add(-120 * time.Hour),
				Refs:      []string{"CTRL-MFA-001"},
				Metadata:  json.RawMessage(`{"vendor_name":"Vendor ABC","contract_value":"$500,000"}`),
			}),
		},
		"salesforce": {
			mustJSON(crmExport{
				ID:          "salesforce_opp_001",
				Opportunity: "Enterprise deal with Client XYZ",
				Account:     "Client XYZ",
				Stage:       "Proposal",
				Notes:       "Requires SOC2 compliance, data residency in EU, 24/7 support",
				Owner:       "sales.rep@company.com",
				UpdatedAt:   now.Add(-24 * time.Hour),
				Metadata:    json.RawMessage(`{"deal_value":"$2,500,000","probability":"75%"}`),
			}),
		},
		"jira": {
			mustJSON(ticketExport{
				Key:         "PROJ-123",
				IssueType:   "Task",
				Summary:     "Implement SOC2 compliance controls for Client XYZ deal",
				Description: "Required: MFA, audit logging, data encryption",
				Status:      "In Progress",
				Assignee:    "dev.team@company.com",
				Reporter:    "project.manager@company.com",
				UpdatedAt:   now.Add(-6 * time.Hour),
				Metadata:    json.RawMessage(`{"project":"Compliance Implementation","priority":"High"}`),
			}),
		},
		"teams": {
			mustJSON(chatExport{
				ID:           "teams_chat_001",
				Channel:      "Sales Team",
				Participants: []string{"sales.rep@company.com", "legal.team@company.com"},
				Message:      "Client XYZ requires GDPR compliance. Need to update our data processing agreements.",
				PostedAt:     now.Add(-2 * time.Hour),
			}),
		},
		"outlook": {
			mustJSON(emailExport{
				ID:      "outlook_email_001",
				Subject: "Vendor ABC Security Review - URGENT",
				From:    "security.team@company.com",
				To:      []string{"procurement@company.com", "vendor.abc@company.com"},
				Body:    "Vendor ABC's current security setup doesn't meet our MFA requirements. Need immediate remediation.",
				ReceivedAt: now.Add(-1 * time.Hour),
				Metadata:   json.RawMessage(`{"priority":"High","has_attachments":true}`),
			}),
		},
		"onedrive": {
			mustJSON(fileExport{
				ID:     "onedrive_policy_001",
				Title:  "Data Retention Policy v1.2",
				Author: "legal.team@company.com",
				Text: "Data Retention Policy: Customer data must be retained for 7 years. Vendor data: 3 years. " +
					"All data must be encrypted at rest.",
				Kind:       TypePolicy,
				ModifiedAt: now.Add(-72 * time.Hour),
				Metadata:   json.RawMessage(`{"department":"Legal","version":"1.2"}`),
			}),
		},
	}
}
