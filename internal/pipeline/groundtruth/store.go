// internal/pipeline/groundtruth/store.go
package groundtruth

import (
	"context"

	"parcinfo-verifier/internal/models"
)

// LookupStatus is the outcome of one store lookup. "Not found" is an expected
// case and is modeled as a status, not an error.
type LookupStatus string

const (
	StatusOK       LookupStatus = "ok"
	StatusNotFound LookupStatus = "not_found"
	StatusError    LookupStatus = "error"
)

// LookupResult carries either matched records, a not-found verdict, or the
// reason the lookup itself failed.
type LookupResult struct {
	Status  LookupStatus
	Records []models.Record
	Err     error
}

// Ok builds a successful result. Callers must pass at least one record.
func Ok(records []models.Record) LookupResult {
	return LookupResult{Status: StatusOK, Records: records}
}

// NotFound builds an empty result.
func NotFound() LookupResult {
	return LookupResult{Status: StatusNotFound}
}

// Errf wraps a lookup failure.
func Errf(err error) LookupResult {
	return LookupResult{Status: StatusError, Err: err}
}

// Store is the read-only view of the authoritative database the pipeline
// verifies entities against. Implementations look up by exact match first,
// then fall back to a case-insensitive partial match.
type Store interface {
	FindSupplierByName(ctx context.Context, name string) LookupResult
	FindMaterialByCode(ctx context.Context, code string) LookupResult
	FindOrderByNumber(ctx context.Context, number string) LookupResult
	FindUserByUsername(ctx context.Context, username string) LookupResult
	Ping(ctx context.Context) error
}

// Lookup dispatches to the finder matching the entity type.
func Lookup(ctx context.Context, store Store, entityType models.EntityType, value string) LookupResult {
	switch entityType {
	case models.EntitySupplier:
		return store.FindSupplierByName(ctx, value)
	case models.EntityMaterial:
		return store.FindMaterialByCode(ctx, value)
	case models.EntityOrder:
		return store.FindOrderByNumber(ctx, value)
	case models.EntityUser:
		return store.FindUserByUsername(ctx, value)
	default:
		return NotFound()
	}
}
