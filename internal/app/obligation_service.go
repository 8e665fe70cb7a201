package app

import (
	"context"
	"log"
	"strings"

	"intelidoc/internal/model"
	"intelidoc/internal/platform/rabbitmq"
	"intelidoc/internal/repository"
	"intelidoc/internal/search"
)

type ObligationService struct {
	obligationRepo *repository.ObligationRepository
	index          *search.Index
	publisher      IndexJobPublisher
	reportCache    ReportCache
}

func NewObligationService(
	obligationRepo *repository.ObligationRepository,
	index *search.Index,
	publisher IndexJobPublisher,
	reportCache ReportCache,
) *ObligationService {
	return &ObligationService{
		obligationRepo: obligationRepo,
		index:          index,
		publisher:      publisher,
		reportCache:    reportCache,
	}
}

func (s *ObligationService) Get(id uint) (*model.Obligation, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	ob, err := s.obligationRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if ob == nil {
		return nil, ErrNotFound
	}
	return ob, nil
}

func (s *ObligationService) List(filter repository.ListFilter) ([]model.Obligation, error) {
	if filter.Category != "" && !model.ValidCategory(filter.Category) {
		return nil, ErrInvalidInput
	}
	if filter.Priority != "" && !model.ValidPriority(filter.Priority) {
		return nil, ErrInvalidInput
	}
	return s.obligationRepo.List(filter)
}

// UpdateInput carries only the mutable fields. Nil means "leave as is".
type UpdateInput struct {
	Text     *string
	Category *string
	Priority *string
}

// Update persists the edit and queues a re-embed when the text changed so
// search reflects the new wording.
func (s *ObligationService) Update(ctx context.Context, id uint, input UpdateInput) (*model.Obligation, error) {
	ob, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	textChanged := false
	if input.Text != nil {
		text := strings.TrimSpace(*input.Text)
		if text == "" {
			return nil, ErrInvalidInput
		}
		if text != ob.Text {
			ob.Text = text
			textChanged = true
		}
	}
	if input.Category != nil {
		if !model.ValidCategory(*input.Category) {
			return nil, ErrInvalidInput
		}
		ob.Category = *input.Category
	}
	if input.Priority != nil {
		if !model.ValidPriority(*input.Priority) {
			return nil, ErrInvalidInput
		}
		priority := *input.Priority
		ob.Priority = &priority
	}

	if err := s.obligationRepo.Update(ob); err != nil {
		return nil, err
	}

	if textChanged {
		if err := s.publisher.Publish(ctx, rabbitmq.IndexJob{ObligationID: ob.ID, Text: ob.Text}); err != nil {
			log.Printf("queue re-embed for obligation %d failed: %v", ob.ID, err)
		}
	}
	invalidateReport(ctx, s.reportCache)

	return ob, nil
}

// Delete removes the obligation, its mappings and its index entry. The
// in-memory index is updated immediately so the ID never resurfaces in
// search results.
func (s *ObligationService) Delete(ctx context.Context, id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}

	if err := s.obligationRepo.DeleteCascade(id); err != nil {
		return err
	}

	s.index.Remove(id)

	invalidateReport(ctx, s.reportCache)
	return nil
}
