// Package platformagg normalizes heterogeneous platform exports into a
// common item shape consumed by discrepancy detection.
package platformagg

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"sort"
	"strings"
	"time"
)

// Data types carried by normalized items.
const (
	TypeDocument     = "document"
	TypeEmail        = "email"
	TypeTask         = "task"
	TypeOpportunity  = "opportunity"
	TypeContract     = "contract"
	TypePolicy       = "policy"
	TypeCompliance   = "compliance"
	TypeUserActivity = "user_activity"
)

// Known platform names and the export schema each one ships.
var platformSchemas = map[string]string{
	"microsoft_365": schemaFile,
	"sharepoint":    schemaFile,
	"onedrive":      schemaFile,
	"outlook":       schemaEmail,
	"teams":         schemaChat,
	"salesforce":    schemaCRM,
	"sap":           schemaERP,
	"jira":          schemaTicket,
}

const (
	schemaEmail   = "email"
	schemaChat    = "chat"
	schemaCRM     = "crm"
	schemaERP     = "erp"
	schemaTicket  = "ticket"
	schemaFile    = "file"
	schemaGeneric = "generic"
)

// Item is one normalized unit of platform activity. Metadata preserves the
// export's unknown fields opaquely; it is never interpreted downstream.
type Item struct {
	Platform      string          `json:"platform"`
	ItemID        string          `json:"item_id"`
	DataType      string          `json:"data_type"`
	Content       string          `json:"content"`
	ContentDigest string          `json:"content_digest"`
	Users         []string        `json:"users"`
	LastActivity  time.Time       `json:"last_activity"`
	CrossRefs     []string        `json:"cross_refs,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
}

// PlatformData summarizes one platform's contribution to a run. A platform
// with zero items is still recorded so platforms_monitored stays
// consistent downstream.
type PlatformData struct {
	Name         string     `json:"name"`
	ItemsCount   int        `json:"items_count"`
	DataTypes    []string   `json:"data_types"`
	Users        []string   `json:"users"`
	LastActivity *time.Time `json:"last_activity"`
	Items        []Item     `json:"items"`
}

// Aggregate decodes each platform's raw export items into normalized
// Items, grouped by platform name. Undecodable items are logged and
// skipped; they never abort the rest of the platform or run.
func Aggregate(exports map[string][]json.RawMessage) map[string]PlatformData {
	out := make(map[string]PlatformData, len(exports))
	for platform, rawItems := range exports {
		schema := platformSchemas[platform]
		if schema == "" {
			schema = schemaGeneric
		}

		items := make([]Item, 0, len(rawItems))
		for _, raw := range rawItems {
			item, err := decodeItem(platform, schema, raw)
			if err != nil {
				log.Printf("skip undecodable %s item: %v", platform, err)
				continue
			}
			items = append(items, item)
		}
		out[platform] = summarize(platform, items)
	}
	return out
}

func summarize(platform string, items []Item) PlatformData {
	data := PlatformData{
		Name:       platform,
		ItemsCount: len(items),
		DataTypes:  []string{},
		Users:      []string{},
		Items:      items,
	}

	typeSet := make(map[string]struct{})
	userSet := make(map[string]struct{})
	for _, item := range items {
		typeSet[item.DataType] = struct{}{}
		for _, u := range item.Users {
			userSet[u] = struct{}{}
		}
		if data.LastActivity == nil || item.LastActivity.After(*data.LastActivity) {
			ts := item.LastActivity
			data.LastActivity = &ts
		}
	}
	for dt := range typeSet {
		data.DataTypes = append(data.DataTypes, dt)
	}
	for u := range userSet {
		data.Users = append(data.Users, u)
	}
	sort.Strings(data.DataTypes)
	sort.Strings(data.Users)
	return data
}

// Digest returns the content digest used to match the same logical item
// across platforms: sha256 over lowercased, whitespace-collapsed content.
func Digest(content string) string {
	canonical := strings.Join(strings.Fields(strings.ToLower(content)), " ")
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

func newItem(platform, itemID, dataType, content string, users []string, ts time.Time, refs []string, metadata json.RawMessage) Item {
	return Item{
		Platform:      platform,
		ItemID:        itemID,
		DataType:      dataType,
		Content:       content,
		ContentDigest: Digest(content),
		Users:         uniqueSorted(users),
		LastActivity:  ts,
		CrossRefs:     refs,
		Metadata:      metadata,
	}
}

func uniqueSorted(in []string) []string {
	set := make(map[string]struct{}, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			set[s] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
