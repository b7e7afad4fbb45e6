package server

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"parcinfo-verifier/internal/alert"
	"parcinfo-verifier/internal/audit"
	"parcinfo-verifier/internal/common/errors"
	"parcinfo-verifier/internal/common/validation"
	"parcinfo-verifier/internal/models"
)

// WithAuditIndexer enables the Elasticsearch audit trail for /verify.
func WithAuditIndexer(indexer *audit.Indexer) Option {
	return func(s *Server) { s.audit = indexer }
}

// WithAlertNotifier enables low-confidence alerting for /verify.
func WithAlertNotifier(notifier *alert.Notifier) Option {
	return func(s *Server) { s.alerts = notifier }
}

type verifyRequest struct {
	ResponseText string `json:"responseText"`
	QueryContext string `json:"queryContext,omitempty"`
}

// verifyResponse is the report plus the loop-guard verdict for this turn.
type verifyResponse struct {
	*models.Report
	LoopDetected     bool   `json:"loopDetected,omitempty"`
	BreakingResponse string `json:"breakingResponse,omitempty"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var raw map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, errors.NewMalformedInputError("request body is not valid JSON"))
		return
	}

	result, err := validation.Validate(raw, validation.VerifyRequestSchema)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !result.Valid {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":   "invalid request",
			"details": result.Errors,
		})
		return
	}

	var req verifyRequest
	if v, ok := raw["responseText"].(string); ok {
		req.ResponseText = v
	}
	if v, ok := raw["queryContext"].(string); ok {
		req.QueryContext = v
	}

	report, err := s.pipeline.Verify(r.Context(), req.ResponseText, req.QueryContext)
	if err != nil {
		if errors.IsRejection(err) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	// Side channels never delay or fail the response.
	if !report.FromCache {
		s.recordSideChannels(report, req.QueryContext)
	}

	// Every turn feeds the loop guard, cache hits included: a stuck
	// conversation is exactly the one that keeps hitting the cache.
	resp := verifyResponse{Report: report}
	if s.guard != nil && s.guard.Observe(req.QueryContext, report.FilteredResponse) {
		resp.LoopDetected = true
		resp.BreakingResponse = s.guard.BreakingResponse(r.Context())
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			deps[name] = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":       healthLabel(status),
		"dependencies": deps,
		"time":         time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	payload := make(map[string]interface{}, 2)
	if s.cache != nil {
		payload["cache"] = s.cache.Stats()
	}
	if s.guard != nil {
		payload["loopguard"] = s.guard.Stats(r.Context())
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(payload)
}

// recordSideChannels ships the report to the audit trail and the alert
// notifier in the background, detached from the request context.
func (s *Server) recordSideChannels(report *models.Report, queryContext string) {
	if s.audit == nil && s.alerts == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if s.audit != nil {
			_ = s.audit.Index(ctx, audit.EventFromReport(report, fingerprint(queryContext)))
		}
		if s.alerts != nil {
			s.alerts.Check(ctx, report)
		}
	}()
}

func fingerprint(query string) string {
	if query == "" {
		return ""
	}
	sum := md5.Sum([]byte(query))
	return hex.EncodeToString(sum[:])
}

func healthLabel(status int) string {
	if status == http.StatusOK {
		return "healthy"
	}
	return "degraded"
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
