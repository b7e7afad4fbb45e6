// internal/audit/indexer.go
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"parcinfo-verifier/internal/common/errors"
	"parcinfo-verifier/internal/common/logger"
	"parcinfo-verifier/internal/models"
)

// Event is the audit record indexed for one completed verification. It
// carries aggregates only, never the raw response text.
type Event struct {
	ReportID          string    `json:"reportId"`
	QueryFingerprint  string    `json:"queryFingerprint,omitempty"`
	ConfidenceScore   float64   `json:"confidenceScore"`
	Hallucinations    bool      `json:"hallucinations"`
	EntityCount       int       `json:"entityCount"`
	UnverifiedCount   int       `json:"unverifiedCount"`
	InconsistencyHigh int       `json:"inconsistencyHigh"`
	InconsistencyMed  int       `json:"inconsistencyMed"`
	InconsistencyLow  int       `json:"inconsistencyLow"`
	DurationMs        int64     `json:"durationMs"`
	Timestamp         time.Time `json:"@timestamp"`
}

// Indexer writes verification audit events into a dated Elasticsearch index.
// Indexing failures are logged and never surfaced to the pipeline caller.
type Indexer struct {
	client      *elasticsearch.Client
	indexPrefix string
	logger      logger.Logger
}

func NewIndexer(client *elasticsearch.Client, indexPrefix string, log logger.Logger) *Indexer {
	return &Indexer{
		client:      client,
		indexPrefix: indexPrefix,
		logger:      log.WithFields(map[string]interface{}{"component": "audit"}),
	}
}

// EventFromReport aggregates a report into an audit event.
func EventFromReport(report *models.Report, queryFingerprint string) Event {
	event := Event{
		ReportID:         report.ID,
		QueryFingerprint: queryFingerprint,
		ConfidenceScore:  report.ConfidenceScore,
		Hallucinations:   report.HallucinationsDetected,
		EntityCount:      len(report.Results),
		DurationMs:       report.ProcessingTime.Milliseconds(),
		Timestamp:        time.Now().UTC(),
	}
	for _, result := range report.Results {
		if result != nil && !result.Verified {
			event.UnverifiedCount++
		}
	}
	for _, inc := range report.Inconsistencies {
		switch inc.Severity {
		case models.SeverityHigh:
			event.InconsistencyHigh++
		case models.SeverityMedium:
			event.InconsistencyMed++
		default:
			event.InconsistencyLow++
		}
	}
	return event
}

// Index writes one event to today's index.
func (i *Indexer) Index(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return errors.NewAuditIndexFailedError(err)
	}

	indexName := fmt.Sprintf("%s-%s", i.indexPrefix, event.Timestamp.Format("2006.01.02"))
	res, err := i.client.Index(
		indexName,
		bytes.NewReader(body),
		i.client.Index.WithContext(ctx),
		i.client.Index.WithDocumentID(event.ReportID),
	)
	if err != nil {
		i.logger.Warn("audit index failed", map[string]interface{}{"index": indexName, "error": err})
		return errors.NewAuditIndexFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		err := fmt.Errorf("elasticsearch returned %s", res.Status())
		i.logger.Warn("audit index rejected", map[string]interface{}{"index": indexName, "status": res.Status()})
		return errors.NewAuditIndexFailedError(err)
	}

	i.logger.Debug("audit event indexed", map[string]interface{}{"index": indexName, "reportId": event.ReportID})
	return nil
}
