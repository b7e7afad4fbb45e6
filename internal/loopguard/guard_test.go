// internal/loopguard/guard_test.go
package loopguard

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"parcinfo-verifier/internal/common/logger"
)

func setupRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	assert.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestObserve_RepeatedResponseIsLoop(t *testing.T) {
	g := New(5, 3, nil, logger.NewTestLogger(t))

	assert.False(t, g.Observe("Comment ça va ?", "Ça va bien, merci !"))
	assert.False(t, g.Observe("Et maintenant ?", "Ça va bien, merci !"))
	assert.True(t, g.Observe("Autre chose ?", "Ça va bien, merci !"))
}

func TestObserve_RepeatedQuestionIsLoop(t *testing.T) {
	g := New(5, 3, nil, logger.NewTestLogger(t))

	assert.False(t, g.Observe("où est ma commande ?", "réponse un"))
	assert.False(t, g.Observe("où est ma commande ?", "réponse deux"))
	assert.True(t, g.Observe("où est ma commande ?", "réponse trois"))
}

func TestObserve_ComparisonIgnoresCaseAndSpace(t *testing.T) {
	g := New(5, 3, nil, logger.NewTestLogger(t))

	assert.False(t, g.Observe("q1", "Même Réponse"))
	assert.False(t, g.Observe("q2", "  même réponse  "))
	assert.True(t, g.Observe("q3", "MÊME RÉPONSE"))
}

func TestObserve_VariedConversationIsNotLoop(t *testing.T) {
	g := New(5, 3, nil, logger.NewTestLogger(t))

	assert.False(t, g.Observe("q1", "r1"))
	assert.False(t, g.Observe("q2", "r2"))
	assert.False(t, g.Observe("q3", "r3"))
	assert.False(t, g.Observe("q4", "r4"))
}

func TestBreakingResponse_RotatesWithCounter(t *testing.T) {
	g := New(5, 3, nil, logger.NewTestLogger(t))
	ctx := context.Background()

	first := g.BreakingResponse(ctx)
	second := g.BreakingResponse(ctx)
	assert.NotEqual(t, first, second)

	// Rotation sticks to the last reply once exhausted.
	var last string
	for i := 0; i < 10; i++ {
		last = g.BreakingResponse(ctx)
	}
	assert.Equal(t, breakingResponses[len(breakingResponses)-1], last)
}

func TestBreakingResponse_CounterPersistedInRedis(t *testing.T) {
	client := setupRedis(t)
	ctx := context.Background()

	g := New(5, 3, client, logger.NewTestLogger(t))
	g.BreakingResponse(ctx)
	g.BreakingResponse(ctx)

	count, err := client.Get(ctx, counterKey).Int64()
	assert.NoError(t, err)
	assert.EqualValues(t, 2, count)

	// A fresh guard resumes from the persisted counter.
	g2 := New(5, 3, client, logger.NewTestLogger(t))
	assert.Equal(t, breakingResponses[2], g2.BreakingResponse(ctx))
}

func TestReset_ClearsHistoryOnly(t *testing.T) {
	g := New(5, 3, nil, logger.NewTestLogger(t))
	ctx := context.Background()

	g.Observe("q", "r")
	g.BreakingResponse(ctx)
	g.Reset()

	stats := g.Stats(ctx)
	assert.Equal(t, 0, stats.ConversationLength)
	assert.EqualValues(t, 1, stats.LoopsDetected)
}

func TestStats(t *testing.T) {
	g := New(5, 3, nil, logger.NewTestLogger(t))
	ctx := context.Background()

	g.Observe("q1", "r1")
	g.Observe("q2", "r2")

	stats := g.Stats(ctx)
	assert.Equal(t, 2, stats.ConversationLength)
	assert.EqualValues(t, 0, stats.LoopsDetected)
	assert.Zero(t, stats.LastDetection)
}
