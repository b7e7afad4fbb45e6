// Package loopguard detects conversations stuck in a loop: the same
// answer (or the same question) repeated several turns in a row. The
// detection counter is persisted in Redis so restarts keep the rotation
// of loop-breaking replies; without Redis an in-memory counter is used.
package loopguard

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"parcinfo-verifier/internal/common/logger"
	"parcinfo-verifier/internal/common/metrics"
)

const counterKey = "parcinfo:loopguard:loops_detected"

var breakingResponses = []string{
	"Je remarque que nous tournons en rond. Laissez-moi vous aider différemment. Pouvez-vous reformuler votre question ?",
	"Il semble que nous ayons un problème de communication. Essayons une approche différente. Que puis-je faire pour vous aider ?",
	"Je détecte une répétition dans notre conversation. Pouvez-vous me donner plus de détails sur ce que vous cherchez ?",
	"Nous semblons être dans une boucle. Laissez-moi vous proposer de l'aide alternative. Quel est votre besoin principal ?",
	"Je vais essayer de vous aider autrement. Pouvez-vous me donner un contexte plus spécifique ?",
}

type turn struct {
	userInput   string
	botResponse string
	timestamp   time.Time
}

// Stats summarizes the guard state for the stats endpoint.
type Stats struct {
	LoopsDetected      int64 `json:"loops_detected"`
	ConversationLength int   `json:"conversation_length"`
	LastDetection      int64 `json:"last_detection"`
}

// Guard keeps a bounded history of conversation turns and flags loops.
// All methods are safe for concurrent use.
type Guard struct {
	mu             sync.Mutex
	history        []turn
	maxHistory     int
	maxRepetitions int

	client *redis.Client // nil when Redis is unavailable
	logger logger.Logger

	localCount    int64
	lastDetection time.Time
}

// New builds a Guard. client may be nil; the counter then stays local.
func New(maxHistory, maxRepetitions int, client *redis.Client, log logger.Logger) *Guard {
	if maxHistory < maxRepetitions {
		maxHistory = maxRepetitions
	}
	return &Guard{
		maxHistory:     maxHistory,
		maxRepetitions: maxRepetitions,
		client:         client,
		logger:         log,
	}
}

// Observe records one turn and reports whether the conversation is
// looping: the last maxRepetitions responses are identical, or the last
// maxRepetitions questions are identical. Comparison is case-insensitive
// and ignores surrounding whitespace.
func (g *Guard) Observe(userInput, botResponse string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.history = append(g.history, turn{
		userInput:   normalize(userInput),
		botResponse: normalize(botResponse),
		timestamp:   time.Now(),
	})
	if len(g.history) > g.maxHistory {
		g.history = g.history[len(g.history)-g.maxHistory:]
	}

	if len(g.history) < g.maxRepetitions {
		return false
	}

	recent := g.history[len(g.history)-g.maxRepetitions:]
	if allSame(recent, func(t turn) string { return t.botResponse }) {
		g.logger.Warn("conversation loop detected", map[string]interface{}{
			"kind":     "repeated_response",
			"response": recent[0].botResponse,
		})
		return true
	}
	if allSame(recent, func(t turn) string { return t.userInput }) {
		g.logger.Warn("conversation loop detected", map[string]interface{}{
			"kind":     "repeated_question",
			"question": recent[0].userInput,
		})
		return true
	}
	return false
}

// BreakingResponse bumps the loop counter and returns the reply used to
// break the loop. Replies rotate with the number of loops seen so far
// and stick to the last one once exhausted.
func (g *Guard) BreakingResponse(ctx context.Context) string {
	count := g.bumpCounter(ctx)
	metrics.LoopsDetected.Inc()

	idx := int(count) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(breakingResponses) {
		idx = len(breakingResponses) - 1
	}
	return breakingResponses[idx]
}

// Reset clears the conversation history. The loop counter is kept.
func (g *Guard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.history = g.history[:0]
	g.logger.Info("conversation history reset", nil)
}

// Stats returns the current counters.
func (g *Guard) Stats(ctx context.Context) Stats {
	g.mu.Lock()
	length := len(g.history)
	last := g.lastDetection
	local := g.localCount
	g.mu.Unlock()

	count := local
	if g.client != nil {
		if n, err := g.client.Get(ctx, counterKey).Int64(); err == nil {
			count = n
		}
	}

	s := Stats{LoopsDetected: count, ConversationLength: length}
	if !last.IsZero() {
		s.LastDetection = last.Unix()
	}
	return s
}

func (g *Guard) bumpCounter(ctx context.Context) int64 {
	g.mu.Lock()
	g.localCount++
	g.lastDetection = time.Now()
	local := g.localCount
	g.mu.Unlock()

	if g.client == nil {
		return local
	}
	count, err := g.client.Incr(ctx, counterKey).Result()
	if err != nil {
		g.logger.WithError(err).Warn("loop counter not persisted, using local count", nil)
		return local
	}
	return count
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func allSame(turns []turn, key func(turn) string) bool {
	first := key(turns[0])
	if first == "" {
		return false
	}
	for _, t := range turns[1:] {
		if key(t) != first {
			return false
		}
	}
	return true
}
