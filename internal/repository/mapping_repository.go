package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"intelidoc/internal/model"
)

type MappingRepository struct {
	db *gorm.DB
}

func NewMappingRepository(db *gorm.DB) *MappingRepository {
	return &MappingRepository{db: db}
}

func (r *MappingRepository) Create(m *model.Mapping) error {
	if err := r.db.Create(m).Error; err != nil {
		return fmt.Errorf("create mapping failed: %w", err)
	}
	return nil
}

func (r *MappingRepository) GetByID(id uint) (*model.Mapping, error) {
	var m model.Mapping
	if err := r.db.First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get mapping failed: %w", err)
	}
	return &m, nil
}

func (r *MappingRepository) ListByObligationID(obligationID uint) ([]model.Mapping, error) {
	var list []model.Mapping
	if err := r.db.Where("obligation_id = ?", obligationID).Order("created_at ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list mappings failed: %w", err)
	}
	return list, nil
}

// MappingFilter narrows List. Zero values mean "no filter".
type MappingFilter struct {
	ObligationID uint
	MappingType  string
	Limit        int
}

func (r *MappingRepository) List(f MappingFilter) ([]model.Mapping, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}

	q := r.db.Model(&model.Mapping{})
	if f.ObligationID != 0 {
		q = q.Where("obligation_id = ?", f.ObligationID)
	}
	if f.MappingType != "" {
		q = q.Where("mapping_type = ?", f.MappingType)
	}

	var list []model.Mapping
	if err := q.Order("created_at DESC").Limit(f.Limit).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list mappings failed: %w", err)
	}
	return list, nil
}

// CountByObligation returns mapping counts keyed by obligation ID, used by
// the discrepancy detector to spot unmapped regulated obligations.
func (r *MappingRepository) CountByObligation() (map[uint]int, error) {
	type row struct {
		ObligationID uint
		N            int
	}
	var rows []row
	if err := r.db.Model(&model.Mapping{}).
		Select("obligation_id, count(*) as n").
		Group("obligation_id").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count mappings failed: %w", err)
	}

	counts := make(map[uint]int, len(rows))
	for _, rw := range rows {
		counts[rw.ObligationID] = rw.N
	}
	return counts, nil
}

// MappingTypeCount is one row of the per-type summary.
type MappingTypeCount struct {
	MappingType         string `json:"mapping_type"`
	Total               int    `json:"total"`
	DistinctObligations int    `json:"distinct_obligations"`
}

func (r *MappingRepository) CountByType() ([]MappingTypeCount, error) {
	var rows []MappingTypeCount
	if err := r.db.Model(&model.Mapping{}).
		Select("mapping_type, count(*) as total, count(distinct obligation_id) as distinct_obligations").
		Group("mapping_type").
		Order("mapping_type ASC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("count mappings by type failed: %w", err)
	}
	return rows, nil
}

func (r *MappingRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Mapping{}, id).Error; err != nil {
		return fmt.Errorf("delete mapping failed: %w", err)
	}
	return nil
}
