// internal/pipeline/groundtruth/verifier_test.go
package groundtruth

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"parcinfo-verifier/internal/common/logger"
	"parcinfo-verifier/internal/models"
)

// fakeStore answers from in-memory tables and can fail selectively.
type fakeStore struct {
	suppliers map[string][]models.Record
	materials map[string][]models.Record
	orders    map[string][]models.Record
	users     map[string][]models.Record

	failOn  map[string]error
	lookups int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		suppliers: map[string][]models.Record{},
		materials: map[string][]models.Record{},
		orders:    map[string][]models.Record{},
		users:     map[string][]models.Record{},
		failOn:    map[string]error{},
	}
}

func (f *fakeStore) find(table map[string][]models.Record, value string) LookupResult {
	atomic.AddInt64(&f.lookups, 1)
	if err, ok := f.failOn[value]; ok {
		return Errf(err)
	}
	if records, ok := table[value]; ok {
		return Ok(records)
	}
	return NotFound()
}

func (f *fakeStore) FindSupplierByName(_ context.Context, name string) LookupResult {
	return f.find(f.suppliers, name)
}

func (f *fakeStore) FindMaterialByCode(_ context.Context, code string) LookupResult {
	return f.find(f.materials, code)
}

func (f *fakeStore) FindOrderByNumber(_ context.Context, number string) LookupResult {
	return f.find(f.orders, number)
}

func (f *fakeStore) FindUserByUsername(_ context.Context, username string) LookupResult {
	return f.find(f.users, username)
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func entity(entityType models.EntityType, text string) models.ExtractedEntity {
	return models.ExtractedEntity{Type: entityType, RawText: text}
}

func TestVerify_VerifiedRequiresMatches(t *testing.T) {
	store := newFakeStore()
	store.materials["CD99"] = []models.Record{{"code": "CD99"}}

	verifier := NewVerifier(store, logger.NewTestLogger(t), false)
	results := verifier.Verify(context.Background(), map[models.EntityType][]models.ExtractedEntity{
		models.EntityMaterial: {entity(models.EntityMaterial, "CD99"), entity(models.EntityMaterial, "XX77")},
	})

	found := results[ResultKey(models.EntityMaterial, "CD99")]
	assert.True(t, found.Verified)
	assert.Equal(t, models.SourceDatabase, found.Source)
	assert.NotEmpty(t, found.Matches)

	missing := results[ResultKey(models.EntityMaterial, "XX77")]
	assert.False(t, missing.Verified)
	assert.Equal(t, models.SourceNotFound, missing.Source)
	assert.Empty(t, missing.Matches)
}

func TestVerify_LookupErrorDegrades(t *testing.T) {
	store := newFakeStore()
	store.failOn["BC99"] = errors.New("connection refused")

	verifier := NewVerifier(store, logger.NewTestLogger(t), false)
	results := verifier.Verify(context.Background(), map[models.EntityType][]models.ExtractedEntity{
		models.EntityOrder: {entity(models.EntityOrder, "BC99")},
	})

	res := results[ResultKey(models.EntityOrder, "BC99")]
	assert.False(t, res.Verified)
	assert.Equal(t, models.SourceError, res.Source)
	assert.Contains(t, res.Error, "connection refused")
}

func TestVerify_MemoizesDuplicateEntities(t *testing.T) {
	store := newFakeStore()
	store.orders["BC25"] = []models.Record{{"numero": "BC25"}}

	verifier := NewVerifier(store, logger.NewTestLogger(t), false)
	results := verifier.Verify(context.Background(), map[models.EntityType][]models.ExtractedEntity{
		models.EntityOrder: {
			entity(models.EntityOrder, "BC25"),
			entity(models.EntityOrder, "bc25"),
		},
	})

	assert.Len(t, results, 1)
	assert.EqualValues(t, 1, atomic.LoadInt64(&store.lookups))
}

func TestVerify_ExpiredContextMarksError(t *testing.T) {
	store := newFakeStore()
	store.orders["BC25"] = []models.Record{{"numero": "BC25"}}

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	verifier := NewVerifier(store, logger.NewTestLogger(t), false)
	results := verifier.Verify(ctx, map[models.EntityType][]models.ExtractedEntity{
		models.EntityOrder: {entity(models.EntityOrder, "BC25")},
	})

	res := results[ResultKey(models.EntityOrder, "BC25")]
	assert.False(t, res.Verified)
	assert.Equal(t, models.SourceError, res.Source)
	assert.EqualValues(t, 0, atomic.LoadInt64(&store.lookups))
}

func TestVerify_ConcurrentMatchesSequential(t *testing.T) {
	store := newFakeStore()
	store.suppliers["SGTM"] = []models.Record{{"nom": "SGTM"}}
	store.materials["CD99"] = []models.Record{{"code": "CD99"}}

	entities := map[models.EntityType][]models.ExtractedEntity{
		models.EntitySupplier: {entity(models.EntitySupplier, "SGTM")},
		models.EntityMaterial: {entity(models.EntityMaterial, "CD99"), entity(models.EntityMaterial, "XX77")},
		models.EntityUser:     {entity(models.EntityUser, "superadmin")},
	}

	sequential := NewVerifier(store, logger.NewTestLogger(t), false).Verify(context.Background(), entities)
	concurrent := NewVerifier(store, logger.NewTestLogger(t), true).Verify(context.Background(), entities)

	assert.Len(t, concurrent, len(sequential))
	for key, want := range sequential {
		got := concurrent[key]
		assert.Equal(t, want.Verified, got.Verified, key)
		assert.Equal(t, want.Source, got.Source, key)
	}
}
