package memory

import "github.com/onikuma-games/prowler/internal/game"

// radialVarianceThreshold bounds how much the radial distances may spread
// before a trail stops counting as circular. Tuned against arena-scale
// coordinates (hundreds of units).
const radialVarianceThreshold = 40.0

const minTrailSamples = 5

// ObservePosition feeds one position sample for an opponent into the
// pair's trail. When the trail is long enough and reads as circular, the
// detected pattern is merged into the pair's memory so predictability
// becomes an exploitable targeting signal.
func (s *Store) ObservePosition(agentID, opponentID string, pos game.Point) {
	s.mu.Lock()
	key := pairKey(agentID, opponentID)
	trail := append(s.trails[key], pos)
	if len(trail) > maxTrailSamples {
		trail = trail[len(trail)-maxTrailSamples:]
	}
	s.trails[key] = trail

	p, ok := DetectCircularMovement(trail)
	s.mu.Unlock()
	if !ok {
		return
	}
	if m := s.Get(agentID, opponentID); m != nil {
		s.mu.Lock()
		mergePattern(m, p)
		s.mu.Unlock()
	}
}

// DetectCircularMovement reports whether the trail orbits a fixed center.
// It needs at least five samples; the test is the variance of radial
// distances from the centroid.
func DetectCircularMovement(trail []game.Point) (game.Pattern, bool) {
	if len(trail) < minTrailSamples {
		return game.Pattern{}, false
	}

	var center game.Point
	for _, p := range trail {
		center.X += p.X
		center.Y += p.Y
	}
	center.X /= float64(len(trail))
	center.Y /= float64(len(trail))

	radii := make([]float64, len(trail))
	var mean float64
	for i, p := range trail {
		radii[i] = p.DistanceTo(center)
		mean += radii[i]
	}
	mean /= float64(len(radii))

	var variance float64
	for _, r := range radii {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(radii))

	if variance >= radialVarianceThreshold {
		return game.Pattern{}, false
	}
	return game.Pattern{
		Type:       game.PatternCircularMovement,
		Confidence: 0.5,
		Circular:   &game.CircularMovement{Center: center, Radius: mean},
	}, true
}
