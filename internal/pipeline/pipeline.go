// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	oteltrace "go.opentelemetry.io/otel/trace"

	"parcinfo-verifier/internal/cache"
	"parcinfo-verifier/internal/common/config"
	"parcinfo-verifier/internal/common/errors"
	"parcinfo-verifier/internal/common/logger"
	"parcinfo-verifier/internal/common/metrics"
	"parcinfo-verifier/internal/common/observability"
	"parcinfo-verifier/internal/models"
	"parcinfo-verifier/internal/pipeline/consistency"
	"parcinfo-verifier/internal/pipeline/extract"
	"parcinfo-verifier/internal/pipeline/filter"
	"parcinfo-verifier/internal/pipeline/groundtruth"
	"parcinfo-verifier/internal/pipeline/score"
)

// Normalizer rewrites the query context before it is fingerprinted for the
// response cache.
type Normalizer func(string) string

// Pipeline runs the verification stages in order: extraction, ground-truth
// verification, consistency analysis, scoring, filtering. Extraction always
// completes before verification starts, and each later stage only sees the
// finished output of the previous one.
type Pipeline struct {
	extractor *extract.Extractor
	verifier  *groundtruth.Verifier
	analyzer  *consistency.Analyzer
	scorer    *score.Scorer
	filter    *filter.Filter
	cache     *cache.Manager
	obs       *observability.Observability
	logger    logger.Logger
	cfg       config.PipelineConfig
	normalize Normalizer
}

// Option configures optional collaborators.
type Option func(*Pipeline)

// WithCache enables the response cache in front of the pipeline.
func WithCache(manager *cache.Manager) Option {
	return func(p *Pipeline) { p.cache = manager }
}

// WithNormalizer overrides the query normalization used for cache keys.
func WithNormalizer(n Normalizer) Option {
	return func(p *Pipeline) { p.normalize = n }
}

// WithObservability attaches tracing and OTel metrics.
func WithObservability(obs *observability.Observability) Option {
	return func(p *Pipeline) { p.obs = obs }
}

func New(store groundtruth.Store, cfg config.PipelineConfig, weights score.Weights, log logger.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor: extract.New(log),
		verifier:  groundtruth.NewVerifier(store, log, cfg.ConcurrentLookup),
		analyzer:  consistency.New(log),
		scorer:    score.New(weights),
		filter:    filter.New(log),
		logger:    log.WithFields(map[string]interface{}{"component": "pipeline"}),
		cfg:       cfg,
		normalize: defaultNormalize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func defaultNormalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Verify checks a candidate response against the ground-truth store and
// returns the filtered, scored report. Lookup failures and cache outages
// degrade into lower confidence; only malformed input is rejected.
func (p *Pipeline) Verify(ctx context.Context, responseText, queryContext string) (*models.Report, error) {
	start := time.Now()

	if !utf8.ValidString(responseText) {
		return nil, errors.NewMalformedInputError("response text is not valid UTF-8")
	}
	if len(responseText) > p.cfg.MaxResponseBytes {
		return nil, errors.NewMalformedInputError("response text exceeds size bound")
	}

	normalizedQuery := ""
	if queryContext != "" {
		normalizedQuery = p.normalize(queryContext)
	}

	if p.cache != nil && normalizedQuery != "" {
		if cached := p.cache.CachedResponse(ctx, normalizedQuery); cached != nil && cached.OriginalResponse == responseText {
			cached.FromCache = true
			metrics.VerificationsTotal.WithLabelValues("cached").Inc()
			return cached, nil
		}
	}

	report := &models.Report{
		ID:               uuid.New().String(),
		OriginalResponse: responseText,
	}

	// 1. Extraction, full entity set before any lookup.
	stageStart := time.Now()
	sctx, span := p.startSpan(ctx, "extract")
	extracted := p.extractor.Extract(responseText)
	report.Entities = entityStrings(extracted)
	span.End()
	metrics.StageDuration.WithLabelValues("extract").Observe(time.Since(stageStart).Seconds())

	// 2. Ground-truth verification under the lookup deadline. Entities whose
	// lookups do not finish in time come back source=error.
	stageStart = time.Now()
	sctx, span = p.startSpan(sctx, "verify")
	verifyCtx, cancel := context.WithTimeout(sctx, time.Duration(p.cfg.VerifyTimeout)*time.Millisecond)
	report.Results = p.verifier.Verify(verifyCtx, extracted)
	cancel()
	span.End()
	metrics.StageDuration.WithLabelValues("verify").Observe(time.Since(stageStart).Seconds())

	// 3. Suspicious patterns and internal contradictions.
	stageStart = time.Now()
	sctx, span = p.startSpan(sctx, "analyze")
	report.SuspiciousPatterns = p.filter.DetectSuspicious(responseText)
	report.Inconsistencies = p.analyzer.Analyze(responseText, report.Results)
	span.End()
	metrics.StageDuration.WithLabelValues("analyze").Observe(time.Since(stageStart).Seconds())

	// 4. Scoring and filtering.
	report.ConfidenceScore = p.scorer.Score(report.Results, report.Inconsistencies)
	report.FilteredResponse = p.filter.Apply(responseText, report.Results)
	report.HallucinationsDetected = len(report.SuspiciousPatterns) > 0 || len(report.Inconsistencies) > 0
	report.ProcessingTime = time.Since(start)

	if report.HallucinationsDetected {
		metrics.HallucinationsDetected.Inc()
	}
	metrics.ConfidenceScore.Observe(report.ConfidenceScore)
	metrics.VerificationsTotal.WithLabelValues("ok").Inc()
	if p.obs != nil {
		p.obs.RecordVerification(ctx, "ok")
		p.obs.RecordVerificationDuration(ctx, report.ProcessingTime, "ok")
	}

	if p.cache != nil && normalizedQuery != "" {
		p.cache.CacheResponse(ctx, normalizedQuery, report, 0)
	}

	p.logger.Info("verification complete", map[string]interface{}{
		"id":             report.ID,
		"confidence":     report.ConfidenceScore,
		"hallucinations": report.HallucinationsDetected,
		"durationMs":     report.ProcessingTime.Milliseconds(),
	})

	return report, nil
}

func entityStrings(extracted map[models.EntityType][]models.ExtractedEntity) map[models.EntityType][]string {
	out := make(map[models.EntityType][]string, len(extracted))
	for entityType, entities := range extracted {
		values := make([]string, 0, len(entities))
		for _, entity := range entities {
			values = append(values, entity.RawText)
		}
		out[entityType] = values
	}
	return out
}

func (p *Pipeline) startSpan(ctx context.Context, name string) (context.Context, oteltrace.Span) {
	if p.obs == nil {
		return ctx, oteltrace.SpanFromContext(ctx)
	}
	return p.obs.StartSpan(ctx, name)
}
