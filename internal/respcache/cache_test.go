package respcache_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onikuma-games/prowler/internal/game"
	"github.com/onikuma-games/prowler/internal/respcache"
)

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func testContext() *game.Context {
	return &game.Context{
		AgentID:     "prowler-1",
		AgentHealth: 80,
		TimeOfDay:   game.TimeNight,
		Weather:     game.WeatherClear,
		Opponents: []game.Opponent{
			{ID: "p1", Name: "Mika", Position: game.Point{X: 100, Y: 50}, Health: 60, InHazardZone: true},
			{ID: "p2", Name: "Theo", Position: game.Point{X: 300, Y: 200}, Health: 90},
		},
	}
}

func decision(action game.Action, target, monologue string) game.Decision {
	return game.Decision{
		Action:     action,
		TargetID:   target,
		Monologue:  monologue,
		Confidence: 0.7,
		Reasoning:  "test fixture",
	}
}

func TestGetDecisionPrefersHighestScore(t *testing.T) {
	clk := newFakeClock()
	c := respcache.New(respcache.WithClock(clk.now))
	live := testContext()
	fp := respcache.FingerprintContext(live)

	c.CacheDecision("key", decision(game.ActionPatrol, "", "low"), fp, 0.5)
	c.CacheDecision("key", decision(game.ActionHunt, "p1", "high"), fp, 0.9)

	d, ok := c.GetDecision("key", live)
	require.True(t, ok)
	assert.Equal(t, "high", d.Monologue)
	assert.Equal(t, game.ActionHunt, d.Action)
}

func TestGetDecisionMissesOnDissimilarContext(t *testing.T) {
	clk := newFakeClock()
	c := respcache.New(respcache.WithClock(clk.now))
	live := testContext()

	// Cache against a context that disagrees on every field.
	far := respcache.Fingerprint{
		Opponents: 8, InZone: 6, HealthBucket: 20, AvgHealthBucket: 10,
		TimeOfDay: game.TimeDay, Weather: game.WeatherStorm, HighGrudge: true,
	}
	c.CacheDecision("key", decision(game.ActionHunt, "p1", "stale"), far, 0.9)

	_, ok := c.GetDecision("key", live)
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestGetDecisionFreshnessFloor(t *testing.T) {
	clk := newFakeClock()
	c := respcache.New(respcache.WithClock(clk.now))
	live := testContext()
	fp := respcache.FingerprintContext(live)

	c.CacheDecision("key", decision(game.ActionStalk, "p1", "aging"), fp, 0.8)

	clk.advance(3 * time.Minute)
	_, ok := c.GetDecision("key", live)
	assert.True(t, ok, "entry at 3 minutes should still be fresh enough")

	// At 4 of 5 minutes freshness is 0.2, under the 0.3 floor, so the
	// entry is unusable well before the TTL expires it.
	clk.advance(time.Minute)
	_, ok = c.GetDecision("key", live)
	assert.False(t, ok)
}

func TestGetDecisionRepairsTarget(t *testing.T) {
	clk := newFakeClock()
	c := respcache.New(respcache.WithClock(clk.now))
	live := testContext()
	fp := respcache.FingerprintContext(live)

	c.CacheDecision("key", decision(game.ActionHunt, "left-the-game", "chase"), fp, 0.8)

	d, ok := c.GetDecision("key", live)
	require.True(t, ok)
	assert.Equal(t, "p1", d.TargetID, "stale target should be swapped for an in-zone opponent")
	require.NotNil(t, d.Destination)
	assert.Equal(t, game.Point{X: 100, Y: 50}, *d.Destination)
}

func TestGetDecisionClearsUnrepairableTarget(t *testing.T) {
	clk := newFakeClock()
	c := respcache.New(respcache.WithClock(clk.now))
	live := testContext()
	live.Opponents[0].InHazardZone = false
	fp := respcache.FingerprintContext(live)

	c.CacheDecision("key", decision(game.ActionHunt, "left-the-game", "chase"), fp, 0.8)

	d, ok := c.GetDecision("key", live)
	require.True(t, ok)
	assert.Empty(t, d.TargetID)
	assert.Nil(t, d.Destination)
}

func TestUpdateDecisionQuality(t *testing.T) {
	clk := newFakeClock()
	c := respcache.New(respcache.WithClock(clk.now))
	live := testContext()
	fp := respcache.FingerprintContext(live)

	d := decision(game.ActionHunt, "p1", "the hunt begins")
	c.CacheDecision("key", d, fp, 0.7)

	_, ok := c.GetDecision("key", live)
	require.True(t, ok)

	c.UpdateDecisionQuality("key", d, 0.9)
	assert.InDelta(t, 0.8, c.Stats().AvgDecisionQuality, 1e-9)
}

func TestGetLineWeightedDiversity(t *testing.T) {
	clk := newFakeClock()
	rng := rand.New(rand.NewSource(42))
	c := respcache.New(respcache.WithClock(clk.now), respcache.WithRand(rng))

	c.CacheLine("taunt:escape", "You can run.", 0.8)
	c.CacheLine("taunt:escape", "Not far enough.", 0.8)

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		line, ok := c.GetLine("taunt:escape")
		require.True(t, ok)
		seen[line] = true
	}
	assert.Len(t, seen, 2, "equal-quality lines should both surface over repeated draws")
}

func TestGetLineQualityFloor(t *testing.T) {
	clk := newFakeClock()
	c := respcache.New(respcache.WithClock(clk.now))

	c.CacheLine("taunt:kill", "meh line", 0.5)
	_, ok := c.GetLine("taunt:kill")
	assert.False(t, ok, "lines at or below the quality floor never surface")
}

func TestGetLineExpiry(t *testing.T) {
	clk := newFakeClock()
	c := respcache.New(respcache.WithClock(clk.now))

	c.CacheLine("taunt:spotted", "I see you.", 0.9)
	clk.advance(6 * time.Minute)
	_, ok := c.GetLine("taunt:spotted")
	assert.False(t, ok)
}

func TestCapacityEvictsLowestQuality(t *testing.T) {
	clk := newFakeClock()
	c := respcache.New(respcache.WithClock(clk.now), respcache.WithMaxEntries(3))
	live := testContext()
	fp := respcache.FingerprintContext(live)

	c.CacheDecision("key", decision(game.ActionPatrol, "", "a"), fp, 0.9)
	c.CacheDecision("key", decision(game.ActionPatrol, "", "b"), fp, 0.2)
	c.CacheDecision("key", decision(game.ActionPatrol, "", "c"), fp, 0.8)
	c.CacheDecision("key", decision(game.ActionPatrol, "", "d"), fp, 0.7)

	stats := c.Stats()
	assert.Equal(t, 3, stats.DecisionEntries)
	assert.InDelta(t, 0.8, stats.AvgDecisionQuality, 1e-9, "lowest-quality entry should be the one evicted")
}

func TestClearAndStats(t *testing.T) {
	clk := newFakeClock()
	c := respcache.New(respcache.WithClock(clk.now))
	live := testContext()
	fp := respcache.FingerprintContext(live)

	c.CacheDecision("key", decision(game.ActionHunt, "p1", "x"), fp, 0.7)
	c.GetDecision("key", live)
	c.GetDecision("other", live)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate, 1e-9)

	c.Clear()
	stats = c.Stats()
	assert.Zero(t, stats.DecisionEntries)
	assert.Zero(t, stats.LineEntries)
}
