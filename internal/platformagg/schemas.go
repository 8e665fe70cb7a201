package platformagg

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Per-platform export schemas. Each decoder maps its platform's native
// shape onto Item; fields the schema does not know are preserved in the
// export's "metadata" object and carried opaquely.

type emailExport struct {
	ID         string          `json:"id"`
	Subject    string          `json:"subject"`
	From       string          `json:"from"`
	To         []string        `json:"to"`
	Body       string          `json:"body"`
	ReceivedAt time.Time       `json:"received_at"`
	Refs       []string        `json:"refs"`
	Metadata   json.RawMessage `json:"metadata"`
}

type chatExport struct {
	ID           string          `json:"id"`
	Channel      string          `json:"channel"`
	Participants []string        `json:"participants"`
	Message      string          `json:"message"`
	PostedAt     time.Time       `json:"posted_at"`
	Refs         []string        `json:"refs"`
	Metadata     json.RawMessage `json:"metadata"`
}

type crmExport struct {
	ID          string          `json:"id"`
	Opportunity string          `json:"opportunity"`
	Account     string          `json:"account"`
	Stage       string          `json:"stage"`
	Notes       string          `json:"notes"`
	Owner       string          `json:"owner"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Refs        []string        `json:"refs"`
	Metadata    json.RawMessage `json:"metadata"`
}

type erpExport struct {
	ID          string          `json:"id"`
	DocumentNo  string          `json:"document_no"`
	DocType     string          `json:"doc_type"`
	Description string          `json:"description"`
	CreatedBy   string          `json:"created_by"`
	ChangedAt   time.Time       `json:"changed_at"`
	Refs        []string        `json:"refs"`
	Metadata    json.RawMessage `json:"metadata"`
}

type ticketExport struct {
	Key         string          `json:"key"`
	IssueType   string          `json:"issue_type"`
	Summary     string          `json:"summary"`
	Description string          `json:"description"`
	Status      string          `json:"status"`
	Assignee    string          `json:"assignee"`
	Reporter    string          `json:"reporter"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Refs        []string        `json:"refs"`
	Metadata    json.RawMessage `json:"metadata"`
}

type fileExport struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Path       string          `json:"path"`
	Author     string          `json:"author"`
	Text       string          `json:"text"`
	Kind       string          `json:"kind"` // document|policy|compliance
	ModifiedAt time.Time       `json:"modified_at"`
	Refs       []string        `json:"refs"`
	Metadata   json.RawMessage `json:"metadata"`
}

type genericExport struct {
	ID        string          `json:"id"`
	DataType  string          `json:"data_type"`
	Content   string          `json:"content"`
	UserID    string          `json:"user_id"`
	Timestamp time.Time       `json:"timestamp"`
	Refs      []string        `json:"refs"`
	Metadata  json.RawMessage `json:"metadata"`
}

func decodeItem(platform, schema string, raw json.RawMessage) (Item, error) {
	switch schema {
	case schemaEmail:
		var e emailExport
		if err := json.Unmarshal(raw, &e); err != nil {
			return Item{}, fmt.Errorf("decode email export: %w", err)
		}
		users := append([]string{e.From}, e.To...)
		content := strings.TrimSpace(e.Subject + "\n" + e.Body)
		return newItem(platform, e.ID, TypeEmail, content, users, e.ReceivedAt, e.Refs, e.Metadata), nil

	case schemaChat:
		var c chatExport
		if err := json.Unmarshal(raw, &c); err != nil {
			return Item{}, fmt.Errorf("decode chat export: %w", err)
		}
		return newItem(platform, c.ID, TypeUserActivity, c.Message, c.Participants, c.PostedAt, c.Refs, c.Metadata), nil

	case schemaCRM:
		var c crmExport
		if err := json.Unmarshal(raw, &c); err != nil {
			return Item{}, fmt.Errorf("decode crm export: %w", err)
		}
		content := strings.TrimSpace(c.Opportunity + ": " + c.Notes)
		return newItem(platform, c.ID, TypeOpportunity, content, []string{c.Owner}, c.UpdatedAt, c.Refs, c.Metadata), nil

	case schemaERP:
		var e erpExport
		if err := json.Unmarshal(raw, &e); err != nil {
			return Item{}, fmt.Errorf("decode erp export: %w", err)
		}
		dataType := TypeContract
		if e.DocType != "" {
			dataType = e.DocType
		}
		return newItem(platform, e.ID, dataType, e.Description, []string{e.CreatedBy}, e.ChangedAt, e.Refs, e.Metadata), nil

	case schemaTicket:
		var tk ticketExport
		if err := json.Unmarshal(raw, &tk); err != nil {
			return Item{}, fmt.Errorf("decode ticket export: %w", err)
		}
		content := strings.TrimSpace(tk.Summary + "\n" + tk.Description)
		users := []string{tk.Assignee, tk.Reporter}
		return newItem(platform, tk.Key, TypeTask, content, users, tk.UpdatedAt, tk.Refs, tk.Metadata), nil

	case schemaFile:
		var f fileExport
		if err := json.Unmarshal(raw, &f); err != nil {
			return Item{}, fmt.Errorf("decode file export: %w", err)
		}
		dataType := TypeDocument
		switch f.Kind {
		case TypePolicy, TypeCompliance:
			dataType = f.Kind
		}
		content := strings.TrimSpace(f.Title + "\n" + f.Text)
		return newItem(platform, f.ID, dataType, content, []string{f.Author}, f.ModifiedAt, f.Refs, f.Metadata), nil

	default:
		var g genericExport
		if err := json.Unmarshal(raw, &g); err != nil {
			return Item{}, fmt.Errorf("decode generic export: %w", err)
		}
		dataType := g.DataType
		if dataType == "" {
			dataType = TypeDocument
		}
		return newItem(platform, g.ID, dataType, g.Content, []string{g.UserID}, g.Timestamp, g.Refs, g.Metadata), nil
	}
}
