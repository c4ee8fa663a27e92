package memory_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onikuma-games/prowler/internal/game"
	"github.com/onikuma-games/prowler/internal/memory"
)

func circleTrail(cx, cy, r float64, n int) []game.Point {
	trail := make([]game.Point, n)
	for i := range trail {
		a := 2 * math.Pi * float64(i) / float64(n)
		trail[i] = game.Point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
	}
	return trail
}

func TestDetectCircularMovement(t *testing.T) {
	p, ok := memory.DetectCircularMovement(circleTrail(100, 100, 50, 6))
	require.True(t, ok)
	assert.Equal(t, game.PatternCircularMovement, p.Type)
	assert.Equal(t, 0.5, p.Confidence)
	require.NotNil(t, p.Circular)
	assert.InDelta(t, 100, p.Circular.Center.X, 1e-6)
	assert.InDelta(t, 100, p.Circular.Center.Y, 1e-6)
	assert.InDelta(t, 50, p.Circular.Radius, 1e-6)
}

func TestDetectCircularMovementRejectsLine(t *testing.T) {
	trail := []game.Point{
		{X: 0, Y: 0}, {X: 50, Y: 0}, {X: 100, Y: 0}, {X: 150, Y: 0}, {X: 200, Y: 0},
	}
	_, ok := memory.DetectCircularMovement(trail)
	assert.False(t, ok)
}

func TestDetectCircularMovementNeedsSamples(t *testing.T) {
	_, ok := memory.DetectCircularMovement(circleTrail(0, 0, 30, 4))
	assert.False(t, ok)
}

func TestObservePositionAttachesPattern(t *testing.T) {
	s := memory.NewStore()
	s.RecordEncounter("agent", "orbiter", memory.EventSighting, nil, nil)

	for _, pos := range circleTrail(200, 200, 60, 8) {
		s.ObservePosition("agent", "orbiter", pos)
	}

	m := s.Get("agent", "orbiter")
	require.NotNil(t, m)
	require.NotEmpty(t, m.Patterns)
	assert.Equal(t, game.PatternCircularMovement, m.Patterns[0].Type)
	// Repeated detections reinforce the same pattern rather than stacking.
	assert.Len(t, m.Patterns, 1)
}
