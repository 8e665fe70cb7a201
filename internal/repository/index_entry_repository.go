package repository

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"intelidoc/internal/model"
)

type IndexEntryRepository struct {
	db *gorm.DB
}

func NewIndexEntryRepository(db *gorm.DB) *IndexEntryRepository {
	return &IndexEntryRepository{db: db}
}

func (r *IndexEntryRepository) Upsert(entry *model.IndexEntry) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "obligation_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"embedding", "updated_at"}),
	}).Create(entry).Error; err != nil {
		return fmt.Errorf("upsert index entry failed: %w", err)
	}
	return nil
}

func (r *IndexEntryRepository) ListAll() ([]model.IndexEntry, error) {
	var list []model.IndexEntry
	if err := r.db.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list index entries failed: %w", err)
	}
	return list, nil
}

func (r *IndexEntryRepository) DeleteByObligationID(obligationID uint) error {
	if err := r.db.Where("obligation_id = ?", obligationID).Delete(&model.IndexEntry{}).Error; err != nil {
		return fmt.Errorf("delete index entry failed: %w", err)
	}
	return nil
}
