package synth_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onikuma-games/prowler/internal/game"
	"github.com/onikuma-games/prowler/internal/synth"
)

func newSynth(t *testing.T) *synth.Synthesizer {
	t.Helper()
	return synth.New(synth.DefaultConfig(), synth.WithRand(rand.New(rand.NewSource(7))))
}

func baseContext(p game.Personality) *game.Context {
	return &game.Context{
		AgentID:       "prowler-1",
		AgentPosition: game.Point{X: 0, Y: 0},
		AgentHealth:   100,
		Personality:   p,
		TimeOfDay:     game.TimeNight,
		Weather:       game.WeatherClear,
	}
}

func TestAnalyzeCascadeOrder(t *testing.T) {
	s := newSynth(t)

	t.Run("critical health beats everything", func(t *testing.T) {
		c := baseContext(game.PersonalityMethodical)
		c.AgentHealth = 20
		c.Opponents = []game.Opponent{{ID: "p1", Health: 10, InHazardZone: true}}
		a := s.Analyze(c)
		assert.Equal(t, game.ActionRetreat, a.SuggestedAction)
		assert.Equal(t, synth.PriorityHigh, a.Priority)
	})

	t.Run("wounded prey in zone", func(t *testing.T) {
		c := baseContext(game.PersonalityMethodical)
		c.Opponents = []game.Opponent{
			{ID: "healthy", Health: 90, InHazardZone: true},
			{ID: "wounded", Health: 20, InHazardZone: true},
		}
		a := s.Analyze(c)
		assert.Equal(t, game.ActionHunt, a.SuggestedAction)
		assert.Equal(t, "wounded", a.TargetID)
	})

	t.Run("grudge target", func(t *testing.T) {
		c := baseContext(game.PersonalityMethodical)
		c.Opponents = []game.Opponent{{ID: "nemesis", Health: 90}}
		c.Memories = []*game.Memory{
			{OpponentID: "nemesis", Relationship: game.RelationNemesis, Encounters: 8},
		}
		a := s.Analyze(c)
		assert.Equal(t, game.ActionHunt, a.SuggestedAction)
		assert.Equal(t, "nemesis", a.TargetID)
	})

	t.Run("crowded zone", func(t *testing.T) {
		c := baseContext(game.PersonalityMethodical)
		c.Opponents = []game.Opponent{
			{ID: "a", Health: 90, InHazardZone: true},
			{ID: "b", Health: 90, InHazardZone: true},
			{ID: "c", Health: 90, InHazardZone: true},
		}
		a := s.Analyze(c)
		assert.Equal(t, game.ActionAmbush, a.SuggestedAction)
		assert.Equal(t, synth.PriorityMedium, a.Priority)
	})

	t.Run("quiet contact", func(t *testing.T) {
		c := baseContext(game.PersonalityMethodical)
		c.Opponents = []game.Opponent{{ID: "far", Health: 90}}
		a := s.Analyze(c)
		assert.Equal(t, game.ActionInvestigate, a.SuggestedAction)
	})

	t.Run("empty arena", func(t *testing.T) {
		c := baseContext(game.PersonalityMethodical)
		a := s.Analyze(c)
		assert.Equal(t, game.ActionPatrol, a.SuggestedAction)
		assert.Equal(t, synth.PriorityLow, a.Priority)
	})
}

func TestSynthesizeWoundedPrey(t *testing.T) {
	s := newSynth(t)
	c := baseContext(game.PersonalityMethodical)
	c.Opponents = []game.Opponent{
		{ID: "wounded", Name: "Mika", Position: game.Point{X: 40, Y: 40}, Health: 20, InHazardZone: true},
	}

	d := s.Synthesize(c)
	require.NoError(t, d.Validate())
	assert.Equal(t, game.ActionHunt, d.Action)
	assert.Equal(t, "wounded", d.TargetID)
	require.NotNil(t, d.Destination)
	assert.Equal(t, game.Point{X: 40, Y: 40}, *d.Destination)
	assert.GreaterOrEqual(t, d.Confidence, 0.6)
}

func TestSynthesizeRetreatsWhenCritical(t *testing.T) {
	s := newSynth(t)
	c := baseContext(game.PersonalityTheatrical)
	c.AgentHealth = 20
	c.Opponents = []game.Opponent{
		{ID: "wounded", Position: game.Point{X: 100, Y: 0}, Health: 20, InHazardZone: true},
	}

	d := s.Synthesize(c)
	require.NoError(t, d.Validate())
	assert.Equal(t, game.ActionRetreat, d.Action)
	require.NotNil(t, d.Destination)
	// Destination points directly away from the nearest opponent.
	assert.Equal(t, game.Point{X: -120, Y: 0}, *d.Destination)
}

func TestSynthesizeGrudgeConfidenceBonus(t *testing.T) {
	s := newSynth(t)
	c := baseContext(game.PersonalityVengeful)
	c.Opponents = []game.Opponent{
		{ID: "old-foe", Name: "Theo", Position: game.Point{X: 60, Y: 0}, Health: 95},
	}
	// Escape rate 0.6 plus one intensity-10 moment scores a grudge of 8.
	c.Memories = []*game.Memory{{
		OpponentID:     "old-foe",
		Encounters:     10,
		Escapes:        6,
		Relationship:   game.RelationNeutral,
		NotableMoments: []game.NotableMoment{{Description: "vanished at the wall", Intensity: 10}},
	}}

	d := s.Synthesize(c)
	require.NoError(t, d.Validate())
	assert.Equal(t, game.ActionHunt, d.Action)
	assert.Equal(t, "old-foe", d.TargetID)
	// 0.8 base plus 0.05 per grudge point, capped at 0.9.
	assert.Equal(t, 0.9, d.Confidence)
}

func TestSynthesizeAllPersonalities(t *testing.T) {
	s := newSynth(t)
	scenarios := []func() *game.Context{
		func() *game.Context { return baseContext("") },
		func() *game.Context {
			c := baseContext("")
			c.AgentHealth = 10
			return c
		},
		func() *game.Context {
			c := baseContext("")
			c.Opponents = []game.Opponent{
				{ID: "a", Position: game.Point{X: 10, Y: 10}, Health: 30, InHazardZone: true},
				{ID: "b", Position: game.Point{X: 90, Y: 90}, Health: 80},
			}
			return c
		},
	}

	for _, p := range game.Personalities {
		for i, build := range scenarios {
			c := build()
			c.Personality = p
			d := s.Synthesize(c)
			assert.NoError(t, d.Validate(), "personality %s scenario %d", p, i)
		}
	}
}

func TestThresholdAwareReasoning(t *testing.T) {
	s := newSynth(t)
	c := baseContext(game.PersonalityMeta)
	c.AgentHealth = 40
	c.Opponents = []game.Opponent{{ID: "p1", Health: 90}}

	d := s.Synthesize(c)
	require.NoError(t, d.Validate())
	assert.Contains(t, d.Reasoning, "threshold")
}

func TestTauntForFillsName(t *testing.T) {
	s := newSynth(t)
	c := baseContext(game.PersonalityTheatrical)
	c.Opponents = []game.Opponent{
		{ID: "p1", Name: "Mika", Position: game.Point{X: 10, Y: 0}, Health: 60, InHazardZone: true},
	}

	line := s.TauntFor(c, synth.TriggerEscape)
	assert.NotEmpty(t, line)
	assert.NotContains(t, line, "{name}")
}

func TestTauntForEmptyArena(t *testing.T) {
	s := newSynth(t)
	line := s.TauntFor(baseContext(game.PersonalityPhilosophical), synth.TriggerSpotted)
	assert.NotEmpty(t, line)
	assert.NotContains(t, line, "{name}")
}
