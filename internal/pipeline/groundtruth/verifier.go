// internal/pipeline/groundtruth/verifier.go
package groundtruth

import (
	"context"
	"strings"
	"sync"

	"parcinfo-verifier/internal/common/logger"
	"parcinfo-verifier/internal/common/metrics"
	"parcinfo-verifier/internal/models"
)

// Verifier checks extracted entities against the ground-truth store. A
// lookup failure marks the entity source=error, verified=false; it is never
// silently treated as verified.
type Verifier struct {
	store      Store
	logger     logger.Logger
	concurrent bool
}

func NewVerifier(store Store, log logger.Logger, concurrent bool) *Verifier {
	return &Verifier{
		store:      store,
		logger:     log.WithFields(map[string]interface{}{"component": "verifier"}),
		concurrent: concurrent,
	}
}

// Verify looks up every distinct entity exactly once and returns one result
// per (type, text) pair, keyed by "<type>:<lowercased text>". Entity types
// are independent and read-only, so they may be dispatched concurrently.
func (v *Verifier) Verify(ctx context.Context, entities map[models.EntityType][]models.ExtractedEntity) map[string]*models.VerificationResult {
	results := make(map[string]*models.VerificationResult)
	var mu sync.Mutex

	verifyType := func(entityType models.EntityType, list []models.ExtractedEntity) {
		for _, entity := range list {
			key := ResultKey(entity.Type, entity.RawText)

			mu.Lock()
			_, done := results[key]
			if !done {
				results[key] = nil // reserve to keep the per-invocation memoization
			}
			mu.Unlock()
			if done {
				continue
			}

			result := v.verifyOne(ctx, entity)

			mu.Lock()
			results[key] = result
			mu.Unlock()
		}
	}

	if v.concurrent {
		var wg sync.WaitGroup
		for entityType, list := range entities {
			if len(list) == 0 {
				continue
			}
			wg.Add(1)
			go func(t models.EntityType, l []models.ExtractedEntity) {
				defer wg.Done()
				verifyType(t, l)
			}(entityType, list)
		}
		wg.Wait()
	} else {
		for _, entityType := range models.AllEntityTypes {
			verifyType(entityType, entities[entityType])
		}
	}

	return results
}

func (v *Verifier) verifyOne(ctx context.Context, entity models.ExtractedEntity) *models.VerificationResult {
	if err := ctx.Err(); err != nil {
		// Deadline already gone: mark as error without touching the store.
		metrics.EntityLookups.WithLabelValues(string(entity.Type), string(models.SourceError)).Inc()
		return &models.VerificationResult{
			Entity:   entity,
			Verified: false,
			Matches:  []models.Record{},
			Source:   models.SourceError,
			Error:    err.Error(),
		}
	}

	lookup := Lookup(ctx, v.store, entity.Type, entity.RawText)

	switch lookup.Status {
	case StatusOK:
		if len(lookup.Records) == 0 {
			// Defect in a Store implementation; treat as not found rather
			// than let an empty match set count as verified.
			v.logger.Warn("store returned ok with no records", map[string]interface{}{
				"entityType": entity.Type,
				"entity":     entity.RawText,
			})
			metrics.EntityLookups.WithLabelValues(string(entity.Type), string(models.SourceNotFound)).Inc()
			return &models.VerificationResult{
				Entity:   entity,
				Verified: false,
				Matches:  []models.Record{},
				Source:   models.SourceNotFound,
			}
		}
		metrics.EntityLookups.WithLabelValues(string(entity.Type), string(models.SourceDatabase)).Inc()
		return &models.VerificationResult{
			Entity:   entity,
			Verified: true,
			Matches:  lookup.Records,
			Source:   models.SourceDatabase,
		}

	case StatusError:
		v.logger.Warn("ground-truth lookup failed", map[string]interface{}{
			"entityType": entity.Type,
			"entity":     entity.RawText,
			"error":      lookup.Err,
		})
		metrics.EntityLookups.WithLabelValues(string(entity.Type), string(models.SourceError)).Inc()
		return &models.VerificationResult{
			Entity:   entity,
			Verified: false,
			Matches:  []models.Record{},
			Source:   models.SourceError,
			Error:    lookup.Err.Error(),
		}

	default:
		metrics.EntityLookups.WithLabelValues(string(entity.Type), string(models.SourceNotFound)).Inc()
		return &models.VerificationResult{
			Entity:   entity,
			Verified: false,
			Matches:  []models.Record{},
			Source:   models.SourceNotFound,
		}
	}
}

// ResultKey builds the memoization key for one distinct entity.
func ResultKey(entityType models.EntityType, rawText string) string {
	return string(entityType) + ":" + strings.ToLower(rawText)
}
