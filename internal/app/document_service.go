package app

import (
	"context"
	"errors"
	"log"
	"strings"

	"intelidoc/internal/ai"
	"intelidoc/internal/model"
	"intelidoc/internal/nlp"
	"intelidoc/internal/platform/rabbitmq"
	"intelidoc/internal/repository"
)

// IndexJobPublisher hands obligation texts to the async embedding worker.
type IndexJobPublisher interface {
	Publish(ctx context.Context, job rabbitmq.IndexJob) error
}

type DocumentService struct {
	docRepo        *repository.DocumentRepository
	obligationRepo *repository.ObligationRepository
	extractor      *nlp.Extractor
	publisher      IndexJobPublisher
	reportCache    ReportCache
	llmClient      *ai.OpenAICompatibleClient
	chatConfig     ai.ChatConfig
	useLLM         bool
}

func NewDocumentService(
	docRepo *repository.DocumentRepository,
	obligationRepo *repository.ObligationRepository,
	extractor *nlp.Extractor,
	publisher IndexJobPublisher,
	reportCache ReportCache,
	chatConfig ai.ChatConfig,
	useLLM bool,
) *DocumentService {
	return &DocumentService{
		docRepo:        docRepo,
		obligationRepo: obligationRepo,
		extractor:      extractor,
		publisher:      publisher,
		reportCache:    reportCache,
		llmClient:      ai.NewOpenAICompatibleClient(),
		chatConfig:     chatConfig,
		useLLM:         useLLM,
	}
}

type IngestInput struct {
	Title      string
	SourceType string
	RawText    string
}

type IngestResult struct {
	Document            *model.Document    `json:"document"`
	Obligations         []model.Obligation `json:"obligations"`
	ExtractionDegraded  bool               `json:"extraction_degraded"`
	DegradationWarnings []string           `json:"degradation_warnings,omitempty"`
}

// Ingest normalizes the text, extracts and classifies obligations, stores
// everything and queues each obligation for embedding. Any failure in the
// optional stages (LLM extraction, index publish) degrades the result
// instead of failing the ingest.
func (s *DocumentService) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = "Untitled Document"
	}
	sourceType := input.SourceType
	if sourceType == "" {
		sourceType = model.SourcePastedText
	}
	if !model.ValidSourceType(sourceType) {
		return nil, ErrInvalidInput
	}

	normalized, err := nlp.Normalize(input.RawText)
	if err != nil {
		if errors.Is(err, nlp.ErrInvalidInput) {
			return nil, ErrInvalidInput
		}
		return nil, err
	}

	doc := &model.Document{
		Title:          title,
		SourceType:     sourceType,
		RawText:        input.RawText,
		NormalizedText: normalized.Text,
	}
	if err := s.docRepo.Create(doc); err != nil {
		return nil, err
	}

	result := &IngestResult{Document: doc}

	obligations := s.extractObligations(ctx, doc, title, normalized, result)
	if len(obligations) == 0 {
		result.ExtractionDegraded = true
		result.DegradationWarnings = append(result.DegradationWarnings, "no obligations were extracted from the document")
	}
	if len(obligations) > 0 {
		stored, err := s.obligationRepo.CreateBatch(obligations)
		if err != nil {
			return nil, err
		}
		result.Obligations = stored

		for _, ob := range stored {
			if err := s.publisher.Publish(ctx, rabbitmq.IndexJob{ObligationID: ob.ID, Text: ob.Text}); err != nil {
				log.Printf("queue index job for obligation %d failed: %v", ob.ID, err)
				result.ExtractionDegraded = true
				result.DegradationWarnings = append(result.DegradationWarnings, "semantic index update queued partially; search results may lag")
				break
			}
		}

		invalidateReport(ctx, s.reportCache)
	}

	return result, nil
}

// extractObligations prefers the LLM path when enabled and falls back to
// rule-based extraction on any model failure.
func (s *DocumentService) extractObligations(ctx context.Context, doc *model.Document, title string, normalized *nlp.NormalizedText, result *IngestResult) []model.Obligation {
	if s.useLLM {
		extracted, err := s.llmClient.ExtractObligations(ctx, s.chatConfig, title, doc.SourceType, normalized.Text)
		if err == nil {
			return s.fromLLM(doc.ID, extracted)
		}
		log.Printf("llm extraction failed, falling back to rule-based: %v", err)
		result.ExtractionDegraded = true
		result.DegradationWarnings = append(result.DegradationWarnings, "model-assisted extraction unavailable; rule-based results returned")
	}
	return s.fromRules(ctx, doc.ID, normalized)
}

func (s *DocumentService) fromRules(ctx context.Context, documentID uint, normalized *nlp.NormalizedText) []model.Obligation {
	clauses := s.extractor.Extract(ctx, normalized)
	obligations := make([]model.Obligation, 0, len(clauses))
	for _, clause := range clauses {
		cls := nlp.Classify(clause)
		priority := cls.Priority
		score := cls.ConfidenceScore
		section := clause.SourceSection

		ob := model.Obligation{
			DocumentID:      documentID,
			Text:            clause.Text,
			Category:        cls.Category,
			Priority:        &priority,
			ConfidenceScore: &score,
		}
		if section != "" {
			ob.SourceSection = &section
		}
		obligations = append(obligations, ob)
	}
	return obligations
}

func (s *DocumentService) fromLLM(documentID uint, extracted []ai.ExtractedObligation) []model.Obligation {
	obligations := make([]model.Obligation, 0, len(extracted))
	for _, e := range extracted {
		text := strings.TrimSpace(e.ObligationText)
		if text == "" {
			continue
		}

		category := strings.ToLower(strings.TrimSpace(e.Category))
		if !model.ValidCategory(category) {
			category = model.CategoryOther
		}

		ob := model.Obligation{
			DocumentID: documentID,
			Text:       text,
			Category:   category,
		}
		if priority := strings.ToLower(strings.TrimSpace(e.Priority)); model.ValidPriority(priority) {
			ob.Priority = &priority
		}
		if section := strings.TrimSpace(e.SourceSection); section != "" {
			ob.SourceSection = &section
		}
		obligations = append(obligations, ob)
	}
	return obligations
}

func (s *DocumentService) Get(id uint) (*model.Document, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	doc, err := s.docRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	return doc, nil
}

func (s *DocumentService) List(limit int) ([]model.Document, error) {
	return s.docRepo.List(limit)
}
