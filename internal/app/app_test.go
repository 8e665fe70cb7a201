package app

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"intelidoc/internal/ai"
	"intelidoc/internal/grc"
	"intelidoc/internal/model"
	"intelidoc/internal/nlp"
	"intelidoc/internal/platform/rabbitmq"
	"intelidoc/internal/repository"
	"intelidoc/internal/search"
)

type fakePublisher struct {
	mu   sync.Mutex
	jobs []rabbitmq.IndexJob
	fail bool
}

func (p *fakePublisher) Publish(_ context.Context, job rabbitmq.IndexJob) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return assert.AnError
	}
	p.jobs = append(p.jobs, job)
	return nil
}

type fakeReportCache struct {
	mu     sync.Mutex
	report *grc.Report
	dirty  bool

	dirtyMarks int
}

func (c *fakeReportCache) GetReport(context.Context) (*grc.Report, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.report == nil {
		return nil, false, nil
	}
	return c.report, true, nil
}

func (c *fakeReportCache) SetReport(_ context.Context, report *grc.Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report = report
	c.dirty = false
	return nil
}

func (c *fakeReportCache) DeleteReport(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.report = nil
	return nil
}

func (c *fakeReportCache) MarkDirty(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirty = true
	c.dirtyMarks++
	return nil
}

func (c *fakeReportCache) IsDirty(context.Context) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty, nil
}

// fakeEmbedder embeds along fixed keyword axes so similarity ordering is
// deterministic.
type fakeEmbedder struct{}

var embedAxes = []string{"encrypt", "retention", "billing", "vendor"}

func (fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	lower := strings.ToLower(text)
	vec := make([]float32, len(embedAxes)+1)
	for i, axis := range embedAxes {
		if strings.Contains(lower, axis) {
			vec[i] = 1
		}
	}
	vec[len(embedAxes)] = 0.1
	return vec, nil
}

type fixture struct {
	db          *gorm.DB
	publisher   *fakePublisher
	cache       *fakeReportCache
	index       *search.Index
	documents   *DocumentService
	obligations *ObligationService
	mappings    *MappingService
	searches    *SearchService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Document{}, &model.Obligation{}, &model.Mapping{}, &model.IndexEntry{}))

	docRepo := repository.NewDocumentRepository(db)
	obligationRepo := repository.NewObligationRepository(db)
	mappingRepo := repository.NewMappingRepository(db)

	publisher := &fakePublisher{}
	cache := &fakeReportCache{}
	index := search.NewIndex(fakeEmbedder{})
	extractor := &nlp.Extractor{}

	return &fixture{
		db:          db,
		publisher:   publisher,
		cache:       cache,
		index:       index,
		documents:   NewDocumentService(docRepo, obligationRepo, extractor, publisher, cache, ai.ChatConfig{}, false),
		obligations: NewObligationService(obligationRepo, index, publisher, cache),
		mappings:    NewMappingService(mappingRepo, obligationRepo, cache),
		searches:    NewSearchService(index, obligationRepo),
	}
}

const policyText = `SECURITY REQUIREMENTS
All customer data must be encrypted at rest and in transit.
Vendors shall complete a security review before onboarding.

Retention
Records may be archived after five years of inactivity.`

func TestIngestExtractsAndStoresObligations(t *testing.T) {
	f := newFixture(t)

	result, err := f.documents.Ingest(context.Background(), IngestInput{
		Title:   "Data Policy",
		RawText: policyText,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Document)
	assert.NotZero(t, result.Document.ID)
	assert.False(t, result.ExtractionDegraded)
	require.NotEmpty(t, result.Obligations)

	for _, ob := range result.Obligations {
		assert.NotZero(t, ob.ID)
		assert.Equal(t, result.Document.ID, ob.DocumentID)
		assert.True(t, model.ValidCategory(ob.Category))
		require.NotNil(t, ob.Priority)
		assert.True(t, model.ValidPriority(*ob.Priority))
		require.NotNil(t, ob.ConfidenceScore)
		assert.GreaterOrEqual(t, *ob.ConfidenceScore, 0)
		assert.LessOrEqual(t, *ob.ConfidenceScore, 100)
	}

	assert.Len(t, f.publisher.jobs, len(result.Obligations), "every obligation queued for embedding")
	assert.Positive(t, f.cache.dirtyMarks, "report cache invalidated on ingest")
}

func TestIngestEmptyTextRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.documents.Ingest(context.Background(), IngestInput{Title: "Empty", RawText: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestIngestZeroObligationsMarksDegraded(t *testing.T) {
	f := newFixture(t)

	result, err := f.documents.Ingest(context.Background(), IngestInput{
		Title:   "Newsletter",
		RawText: "Our quarterly newsletter covers recent product updates.\nThe team enjoyed the summer offsite.",
	})
	require.NoError(t, err)
	assert.Empty(t, result.Obligations)
	assert.True(t, result.ExtractionDegraded)
	assert.NotEmpty(t, result.DegradationWarnings)
}

func TestIngestInvalidSourceTypeRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.documents.Ingest(context.Background(), IngestInput{
		Title:      "Bad",
		SourceType: "carrier_pigeon",
		RawText:    policyText,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestIngestPublishFailureDegradesNotFails(t *testing.T) {
	f := newFixture(t)
	f.publisher.fail = true

	result, err := f.documents.Ingest(context.Background(), IngestInput{Title: "Policy", RawText: policyText})
	require.NoError(t, err)
	assert.True(t, result.ExtractionDegraded)
	assert.NotEmpty(t, result.DegradationWarnings)
	assert.NotEmpty(t, result.Obligations, "obligations still persisted")
}

func TestObligationUpdateValidation(t *testing.T) {
	f := newFixture(t)
	result, err := f.documents.Ingest(context.Background(), IngestInput{Title: "Policy", RawText: policyText})
	require.NoError(t, err)
	ob := result.Obligations[0]

	bad := "made_up_category"
	_, err = f.obligations.Update(context.Background(), ob.ID, UpdateInput{Category: &bad})
	assert.ErrorIs(t, err, ErrInvalidInput)

	category := model.CategoryPayments
	updated, err := f.obligations.Update(context.Background(), ob.ID, UpdateInput{Category: &category})
	require.NoError(t, err)
	assert.Equal(t, model.CategoryPayments, updated.Category)
}

func TestObligationUpdateTextQueuesReembed(t *testing.T) {
	f := newFixture(t)
	result, err := f.documents.Ingest(context.Background(), IngestInput{Title: "Policy", RawText: policyText})
	require.NoError(t, err)
	ob := result.Obligations[0]

	before := len(f.publisher.jobs)
	text := "All backups must be encrypted with rotating keys"
	_, err = f.obligations.Update(context.Background(), ob.ID, UpdateInput{Text: &text})
	require.NoError(t, err)
	require.Len(t, f.publisher.jobs, before+1)
	assert.Equal(t, text, f.publisher.jobs[before].Text)
}

func TestObligationDeleteCascadesAndDropsFromIndex(t *testing.T) {
	f := newFixture(t)
	result, err := f.documents.Ingest(context.Background(), IngestInput{Title: "Policy", RawText: policyText})
	require.NoError(t, err)
	ob := result.Obligations[0]

	_, err = f.mappings.Create(context.Background(), CreateMappingInput{
		ObligationID: ob.ID,
		MappingType:  model.MappingControl,
		ExternalID:   "CTRL-9",
		ExternalName: "Encryption control",
	})
	require.NoError(t, err)

	_, err = f.index.Upsert(context.Background(), ob.ID, ob.Text, ob.Category, "", ob.CreatedAt)
	require.NoError(t, err)
	require.Equal(t, 1, f.index.Len())

	require.NoError(t, f.obligations.Delete(context.Background(), ob.ID))

	_, err = f.obligations.Get(ob.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, f.index.Len())

	_, err = f.mappings.ListByObligation(ob.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMappingCreateMissingObligation(t *testing.T) {
	f := newFixture(t)

	_, err := f.mappings.Create(context.Background(), CreateMappingInput{
		ObligationID: 12345,
		MappingType:  model.MappingPolicy,
		ExternalID:   "POL-1",
		ExternalName: "Retention policy",
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMappingCreateInvalidType(t *testing.T) {
	f := newFixture(t)

	_, err := f.mappings.Create(context.Background(), CreateMappingInput{
		ObligationID: 1,
		MappingType:  "spreadsheet_row",
		ExternalID:   "X",
		ExternalName: "Y",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSearchHydratesAndDropsStaleEntries(t *testing.T) {
	f := newFixture(t)
	result, err := f.documents.Ingest(context.Background(), IngestInput{Title: "Policy", RawText: policyText})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(result.Obligations), 2)

	for _, ob := range result.Obligations {
		_, err := f.index.Upsert(context.Background(), ob.ID, ob.Text, ob.Category, "", ob.CreatedAt)
		require.NoError(t, err)
	}

	results, err := f.searches.Search(context.Background(), SearchInput{Query: "data must be encrypted"})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Obligation.Text, "encrypted")

	// Remove the row behind the top hit; search must not surface a ghost.
	stale := results[0].Obligation.ID
	require.NoError(t, f.db.Delete(&model.Obligation{}, stale).Error)

	results, err = f.searches.Search(context.Background(), SearchInput{Query: "data must be encrypted"})
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, stale, r.Obligation.ID)
	}
}

func TestSearchRejectsBlankQuery(t *testing.T) {
	f := newFixture(t)
	_, err := f.searches.Search(context.Background(), SearchInput{Query: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
