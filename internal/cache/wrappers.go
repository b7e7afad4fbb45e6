// internal/cache/wrappers.go
package cache

import (
	"context"
	"time"

	"parcinfo-verifier/internal/models"
)

// Category names with configured default TTLs.
const (
	CategoryResponse  = "response"
	CategoryIntent    = "intent"
	CategoryEmbedding = "embedding"
	CategorySession   = "user_session"
	CategoryDBQuery   = "db_query"
)

// IntentEntry is a cached intent classification.
type IntentEntry struct {
	Intent     string    `json:"intent"`
	Confidence float64   `json:"confidence"`
	CachedAt   time.Time `json:"cachedAt"`
}

// CacheResponse stores a verification report keyed by the normalized query.
func (m *Manager) CacheResponse(ctx context.Context, query string, report *models.Report, ttl time.Duration) string {
	key := m.Key(CategoryResponse, []string{query}, nil)
	m.Set(ctx, key, report, ttl, CategoryResponse)
	return key
}

// CachedResponse returns a previously cached report, or nil on miss.
func (m *Manager) CachedResponse(ctx context.Context, query string) *models.Report {
	key := m.Key(CategoryResponse, []string{query}, nil)
	var report models.Report
	if !m.GetJSON(ctx, key, &report) {
		return nil
	}
	return &report
}

// CacheIntent stores an intent classification for a query. Intent,
// embedding and session entries are written by the chatbot orchestrator,
// which shares this manager; the verifier itself only uses the response
// category.
func (m *Manager) CacheIntent(ctx context.Context, query, intent string, confidence float64, ttl time.Duration) string {
	key := m.Key(CategoryIntent, []string{query}, nil)
	m.Set(ctx, key, IntentEntry{
		Intent:     intent,
		Confidence: confidence,
		CachedAt:   time.Now().UTC(),
	}, ttl, CategoryIntent)
	return key
}

// CachedIntent returns a previously cached intent classification.
func (m *Manager) CachedIntent(ctx context.Context, query string) *IntentEntry {
	key := m.Key(CategoryIntent, []string{query}, nil)
	var entry IntentEntry
	if !m.GetJSON(ctx, key, &entry) {
		return nil
	}
	return &entry
}

// CacheEmbedding stores an embedding vector for a text, on behalf of the
// orchestrator's retrieval step.
func (m *Manager) CacheEmbedding(ctx context.Context, text string, embedding []float64, ttl time.Duration) string {
	key := m.Key(CategoryEmbedding, []string{text}, nil)
	m.Set(ctx, key, embedding, ttl, CategoryEmbedding)
	return key
}

// CachedEmbedding returns a previously cached embedding, or nil on miss.
func (m *Manager) CachedEmbedding(ctx context.Context, text string) []float64 {
	key := m.Key(CategoryEmbedding, []string{text}, nil)
	var embedding []float64
	if !m.GetJSON(ctx, key, &embedding) {
		return nil
	}
	return embedding
}

// CacheSession stores per-user session data for the orchestrator's
// conversation state.
func (m *Manager) CacheSession(ctx context.Context, userID string, session map[string]interface{}, ttl time.Duration) string {
	key := m.Key(CategorySession, []string{userID}, nil)
	m.Set(ctx, key, session, ttl, CategorySession)
	return key
}

// CachedSession returns previously cached session data, or nil on miss.
func (m *Manager) CachedSession(ctx context.Context, userID string) map[string]interface{} {
	key := m.Key(CategorySession, []string{userID}, nil)
	var session map[string]interface{}
	if !m.GetJSON(ctx, key, &session) {
		return nil
	}
	return session
}

// InvalidateResponses drops the whole response category, e.g. after the
// inventory data changes.
func (m *Manager) InvalidateResponses(ctx context.Context) int {
	return m.ClearCategory(ctx, CategoryResponse)
}
