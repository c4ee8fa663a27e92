package memory

import "github.com/onikuma-games/prowler/internal/game"

// Classify derives the relationship from the pair's history. The rules run
// in priority order; each is gated by a minimum encounter count so early
// impressions don't over-commit.
func Classify(m *game.Memory) game.Relationship {
	if m == nil || m.Encounters < 3 {
		return game.RelationNeutral
	}
	huntRate := m.HuntRate()
	escapeRate := m.EscapeRate()
	switch {
	case huntRate > 0.7:
		return game.RelationFavoriteTarget
	case escapeRate > 0.7:
		return game.RelationNemesis
	case m.Encounters > 10 && escapeRate > 0.5:
		return game.RelationRespected
	case m.Encounters > 5 && huntRate < 0.3 && escapeRate < 0.3:
		return game.RelationRival
	default:
		return game.RelationNeutral
	}
}

// GrudgeLevel scores 0-10 how much the agent resents this opponent. It is
// a read-only view over the memory; the synthesizer uses it for targeting.
func GrudgeLevel(m *game.Memory) float64 {
	if m == nil {
		return 0
	}
	switch m.Relationship {
	case game.RelationNemesis:
		return 10
	case game.RelationRival:
		return 7
	case game.RelationRespected:
		return 5
	}
	var avgIntensity float64
	if n := len(m.NotableMoments); n > 0 {
		var sum float64
		for _, nm := range m.NotableMoments {
			sum += nm.Intensity
		}
		avgIntensity = sum / float64(n)
	}
	score := m.EscapeRate()*5 + avgIntensity*0.5
	if score > 10 {
		score = 10
	}
	return score
}
