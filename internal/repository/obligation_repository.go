package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"intelidoc/internal/model"
)

type ObligationRepository struct {
	db *gorm.DB
}

func NewObligationRepository(db *gorm.DB) *ObligationRepository {
	return &ObligationRepository{db: db}
}

func (r *ObligationRepository) Create(o *model.Obligation) error {
	if err := r.db.Create(o).Error; err != nil {
		return fmt.Errorf("create obligation failed: %w", err)
	}
	return nil
}

func (r *ObligationRepository) CreateBatch(list []model.Obligation) ([]model.Obligation, error) {
	if len(list) == 0 {
		return nil, nil
	}
	if err := r.db.Create(&list).Error; err != nil {
		return nil, fmt.Errorf("create obligations failed: %w", err)
	}
	return list, nil
}

func (r *ObligationRepository) GetByID(id uint) (*model.Obligation, error) {
	var o model.Obligation
	if err := r.db.First(&o, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get obligation failed: %w", err)
	}
	return &o, nil
}

// ListFilter narrows List. Zero values mean "no filter".
type ListFilter struct {
	DocumentID uint
	Category   string
	Priority   string
	Limit      int
	Offset     int
}

func (r *ObligationRepository) List(f ListFilter) ([]model.Obligation, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}

	q := r.db.Model(&model.Obligation{})
	if f.DocumentID != 0 {
		q = q.Where("document_id = ?", f.DocumentID)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}

	var list []model.Obligation
	if err := q.Order("created_at DESC").Limit(f.Limit).Offset(f.Offset).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list obligations failed: %w", err)
	}
	return list, nil
}

func (r *ObligationRepository) ListByIDs(ids []uint) ([]model.Obligation, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var list []model.Obligation
	if err := r.db.Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list obligations by ids failed: %w", err)
	}
	return list, nil
}

func (r *ObligationRepository) ListAll() ([]model.Obligation, error) {
	var list []model.Obligation
	if err := r.db.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list all obligations failed: %w", err)
	}
	return list, nil
}

func (r *ObligationRepository) Update(o *model.Obligation) error {
	if err := r.db.Save(o).Error; err != nil {
		return fmt.Errorf("update obligation failed: %w", err)
	}
	return nil
}

// DeleteCascade removes an obligation together with its mappings and index
// entry in one transaction so no orphan rows survive a partial failure.
func (r *ObligationRepository) DeleteCascade(id uint) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("obligation_id = ?", id).Delete(&model.Mapping{}).Error; err != nil {
			return fmt.Errorf("delete mappings failed: %w", err)
		}
		if err := tx.Where("obligation_id = ?", id).Delete(&model.IndexEntry{}).Error; err != nil {
			return fmt.Errorf("delete index entry failed: %w", err)
		}
		if err := tx.Delete(&model.Obligation{}, id).Error; err != nil {
			return fmt.Errorf("delete obligation failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete obligation cascade failed: %w", err)
	}
	return nil
}
