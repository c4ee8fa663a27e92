// Package respcache caches previously produced decisions and flavor lines,
// keyed by coarse context fingerprints, so the engine can reuse work when a
// new situation is close enough to one it has already solved.
package respcache

import (
	"fmt"
	"math"

	"github.com/onikuma-games/prowler/internal/game"
	"github.com/onikuma-games/prowler/internal/memory"
)

// highGrudgeThreshold marks an opponent as worth a dedicated fingerprint
// bit; it matches the synthesizer's grudge targeting threshold.
const highGrudgeThreshold = 6.0

// Fingerprint is a coarse, comparable digest of a decision context. Two
// contexts with similar fingerprints are candidates for response reuse.
type Fingerprint struct {
	Opponents       int            `json:"opponents"`
	InZone          int            `json:"in_zone"`
	HealthBucket    int            `json:"health_bucket"`     // agent health, nearest 20
	AvgHealthBucket int            `json:"avg_health_bucket"` // opponent avg health, nearest 10
	TimeOfDay       game.TimeOfDay `json:"time_of_day"`
	Weather         game.Weather   `json:"weather"`
	HighGrudge      bool           `json:"high_grudge"`
}

// FingerprintContext reduces a full context to its fingerprint.
func FingerprintContext(c *game.Context) Fingerprint {
	fp := Fingerprint{
		Opponents:    len(c.Opponents),
		HealthBucket: bucket(c.AgentHealth, 20),
		TimeOfDay:    c.TimeOfDay,
		Weather:      c.Weather,
	}
	var healthSum float64
	for _, o := range c.Opponents {
		if o.InHazardZone {
			fp.InZone++
		}
		healthSum += o.Health
		if memory.GrudgeLevel(c.MemoryFor(o.ID)) > highGrudgeThreshold {
			fp.HighGrudge = true
		}
	}
	if len(c.Opponents) > 0 {
		fp.AvgHealthBucket = bucket(healthSum/float64(len(c.Opponents)), 10)
	}
	return fp
}

func bucket(v float64, size int) int {
	return int(math.Round(v/float64(size))) * size
}

// String serializes the fingerprint to a stable cache-comparable form.
func (f Fingerprint) String() string {
	return fmt.Sprintf("o%d|z%d|h%d|a%d|%s|%s|g%t",
		f.Opponents, f.InZone, f.HealthBucket, f.AvgHealthBucket,
		f.TimeOfDay, f.Weather, f.HighGrudge)
}

// Similarity scores two fingerprints in [0,1]: the fraction of matching
// fields, where numeric buckets earn half credit when within 20% of each
// other. Reuse requires a score of at least SimilarityThreshold.
func Similarity(a, b Fingerprint) float64 {
	const fields = 7
	var score float64
	score += numericScore(a.Opponents, b.Opponents)
	score += numericScore(a.InZone, b.InZone)
	score += numericScore(a.HealthBucket, b.HealthBucket)
	score += numericScore(a.AvgHealthBucket, b.AvgHealthBucket)
	if a.TimeOfDay == b.TimeOfDay {
		score++
	}
	if a.Weather == b.Weather {
		score++
	}
	if a.HighGrudge == b.HighGrudge {
		score++
	}
	return score / fields
}

func numericScore(a, b int) float64 {
	if a == b {
		return 1
	}
	max := math.Max(math.Abs(float64(a)), math.Abs(float64(b)))
	if max == 0 {
		return 1
	}
	if math.Abs(float64(a-b)) <= 0.2*max {
		return 0.5
	}
	return 0
}
