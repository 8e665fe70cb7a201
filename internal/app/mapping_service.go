package app

import (
	"context"
	"strings"

	"intelidoc/internal/model"
	"intelidoc/internal/repository"
)

type MappingService struct {
	mappingRepo    *repository.MappingRepository
	obligationRepo *repository.ObligationRepository
	reportCache    ReportCache
}

func NewMappingService(
	mappingRepo *repository.MappingRepository,
	obligationRepo *repository.ObligationRepository,
	reportCache ReportCache,
) *MappingService {
	return &MappingService{
		mappingRepo:    mappingRepo,
		obligationRepo: obligationRepo,
		reportCache:    reportCache,
	}
}

type CreateMappingInput struct {
	ObligationID uint
	MappingType  string
	ExternalID   string
	ExternalName string
	ExternalURL  *string
	Notes        *string
}

// Create links an obligation to an external artifact. The obligation must
// exist; the external reference is stored opaquely and never validated
// against the external system.
func (s *MappingService) Create(ctx context.Context, input CreateMappingInput) (*model.Mapping, error) {
	if input.ObligationID == 0 || !model.ValidMappingType(input.MappingType) {
		return nil, ErrInvalidInput
	}
	externalID := strings.TrimSpace(input.ExternalID)
	externalName := strings.TrimSpace(input.ExternalName)
	if externalID == "" || externalName == "" {
		return nil, ErrInvalidInput
	}

	ob, err := s.obligationRepo.GetByID(input.ObligationID)
	if err != nil {
		return nil, err
	}
	if ob == nil {
		return nil, ErrNotFound
	}

	m := &model.Mapping{
		ObligationID: input.ObligationID,
		MappingType:  input.MappingType,
		ExternalID:   externalID,
		ExternalName: externalName,
		ExternalURL:  input.ExternalURL,
		Notes:        input.Notes,
	}
	if err := s.mappingRepo.Create(m); err != nil {
		return nil, err
	}

	invalidateReport(ctx, s.reportCache)
	return m, nil
}

func (s *MappingService) List(filter repository.MappingFilter) ([]model.Mapping, error) {
	if filter.MappingType != "" && !model.ValidMappingType(filter.MappingType) {
		return nil, ErrInvalidInput
	}
	return s.mappingRepo.List(filter)
}

func (s *MappingService) ListByObligation(obligationID uint) ([]model.Mapping, error) {
	if obligationID == 0 {
		return nil, ErrInvalidInput
	}
	ob, err := s.obligationRepo.GetByID(obligationID)
	if err != nil {
		return nil, err
	}
	if ob == nil {
		return nil, ErrNotFound
	}
	return s.mappingRepo.ListByObligationID(obligationID)
}

func (s *MappingService) Delete(ctx context.Context, id uint) error {
	if id == 0 {
		return ErrInvalidInput
	}
	m, err := s.mappingRepo.GetByID(id)
	if err != nil {
		return err
	}
	if m == nil {
		return ErrNotFound
	}
	if err := s.mappingRepo.Delete(id); err != nil {
		return err
	}
	invalidateReport(ctx, s.reportCache)
	return nil
}
