package repository

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"intelidoc/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Document{},
		&model.Obligation{},
		&model.Mapping{},
		&model.IndexEntry{},
	))
	return db
}

func seedObligation(t *testing.T, db *gorm.DB, category string) *model.Obligation {
	t.Helper()
	doc := &model.Document{Title: "Policy", SourceType: model.SourcePastedText, RawText: "x", NormalizedText: "x"}
	require.NoError(t, NewDocumentRepository(db).Create(doc))

	o := &model.Obligation{DocumentID: doc.ID, Text: "All data must be encrypted at rest", Category: category}
	require.NoError(t, NewObligationRepository(db).Create(o))
	return o
}

func TestDocumentCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewDocumentRepository(db)

	doc := &model.Document{Title: "DPA", SourceType: model.SourceFile, RawText: "raw", NormalizedText: "norm"}
	require.NoError(t, repo.Create(doc))
	require.NotZero(t, doc.ID)

	got, err := repo.GetByID(doc.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "DPA", got.Title)

	missing, err := repo.GetByID(9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestObligationListFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewObligationRepository(db)

	doc := &model.Document{Title: "Policy", SourceType: model.SourcePastedText, RawText: "x", NormalizedText: "x"}
	require.NoError(t, NewDocumentRepository(db).Create(doc))

	high := "high"
	low := "low"
	_, err := repo.CreateBatch([]model.Obligation{
		{DocumentID: doc.ID, Text: "Encrypt PII", Category: model.CategoryPrivacy, Priority: &high},
		{DocumentID: doc.ID, Text: "Enable MFA", Category: model.CategorySecurity, Priority: &high},
		{DocumentID: doc.ID, Text: "Update docs", Category: model.CategoryOperations, Priority: &low},
	})
	require.NoError(t, err)

	all, err := repo.List(ListFilter{DocumentID: doc.ID})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	sec, err := repo.List(ListFilter{Category: model.CategorySecurity})
	require.NoError(t, err)
	require.Len(t, sec, 1)
	assert.Equal(t, "Enable MFA", sec[0].Text)

	highs, err := repo.List(ListFilter{Priority: "high"})
	require.NoError(t, err)
	assert.Len(t, highs, 2)

	none, err := repo.List(ListFilter{Category: model.CategoryPayments})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestObligationUpdate(t *testing.T) {
	db := newTestDB(t)
	repo := NewObligationRepository(db)
	o := seedObligation(t, db, model.CategoryOther)

	o.Category = model.CategorySecurity
	require.NoError(t, repo.Update(o))

	got, err := repo.GetByID(o.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.CategorySecurity, got.Category)
}

func TestDeleteCascadeRemovesMappingsAndIndexEntry(t *testing.T) {
	db := newTestDB(t)
	obligations := NewObligationRepository(db)
	mappings := NewMappingRepository(db)
	entries := NewIndexEntryRepository(db)

	o := seedObligation(t, db, model.CategoryPrivacy)
	require.NoError(t, mappings.Create(&model.Mapping{ObligationID: o.ID, MappingType: model.MappingPolicy, ExternalID: "POL-1", ExternalName: "Retention"}))
	require.NoError(t, mappings.Create(&model.Mapping{ObligationID: o.ID, MappingType: model.MappingJiraTicket, ExternalID: "SEC-42", ExternalName: "Encrypt"}))

	entry := &model.IndexEntry{ObligationID: o.ID}
	entry.SetEmbedding([]float32{0.1, 0.2})
	require.NoError(t, entries.Upsert(entry))

	require.NoError(t, obligations.DeleteCascade(o.ID))

	got, err := obligations.GetByID(o.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	left, err := mappings.ListByObligationID(o.ID)
	require.NoError(t, err)
	assert.Empty(t, left, "no orphan mappings after cascade")

	idx, err := entries.ListAll()
	require.NoError(t, err)
	assert.Empty(t, idx)
}

func TestMappingCountByObligation(t *testing.T) {
	db := newTestDB(t)
	mappings := NewMappingRepository(db)

	a := seedObligation(t, db, model.CategoryPrivacy)
	b := seedObligation(t, db, model.CategorySecurity)

	require.NoError(t, mappings.Create(&model.Mapping{ObligationID: a.ID, MappingType: model.MappingControl, ExternalID: "CTRL-1", ExternalName: "MFA"}))
	require.NoError(t, mappings.Create(&model.Mapping{ObligationID: a.ID, MappingType: model.MappingPolicy, ExternalID: "POL-2", ExternalName: "Access"}))

	counts, err := mappings.CountByObligation()
	require.NoError(t, err)
	assert.Equal(t, 2, counts[a.ID])
	assert.Zero(t, counts[b.ID])
}

func TestIndexEntryUpsertReplaces(t *testing.T) {
	db := newTestDB(t)
	entries := NewIndexEntryRepository(db)
	o := seedObligation(t, db, model.CategoryCompliance)

	first := &model.IndexEntry{ObligationID: o.ID}
	first.SetEmbedding([]float32{1, 0})
	require.NoError(t, entries.Upsert(first))

	second := &model.IndexEntry{ObligationID: o.ID}
	second.SetEmbedding([]float32{0, 1})
	require.NoError(t, entries.Upsert(second))

	all, err := entries.ListAll()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, []float32{0, 1}, all[0].EmbeddingVector())
}
