package synth

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/onikuma-games/prowler/internal/game"
	"github.com/onikuma-games/prowler/internal/memory"
)

// Priority ranks how urgent the assessed situation is.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Assessment is the synthesizer's read of the current situation before
// personality flavor is applied.
type Assessment struct {
	Situation       string
	Priority        Priority
	SuggestedAction game.Action
	TargetID        string
}

// Config tunes the shared rule cascade.
type Config struct {
	// CriticalHealth is the agent health below which retreat wins over
	// everything else.
	CriticalHealth float64

	// WoundedHealth marks an in-zone opponent as wounded prey.
	WoundedHealth float64

	// GrudgeThreshold is the grudge level at which a remembered opponent
	// becomes a priority target.
	GrudgeThreshold float64

	// ChunkDelay paces thought-stream chunks.
	ChunkDelay time.Duration
}

// DefaultConfig returns the cascade thresholds used when nothing is
// configured.
func DefaultConfig() Config {
	return Config{
		CriticalHealth:  25,
		WoundedHealth:   50,
		GrudgeThreshold: 6,
		ChunkDelay:      60 * time.Millisecond,
	}
}

// retreatDistance is how far the retreat destination is placed from the
// nearest threat.
const retreatDistance = 120.0

// Synthesizer produces complete, in-character decisions locally.
type Synthesizer struct {
	cfg      Config
	profiles map[game.Personality]*Profile

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithRand overrides the randomness source, used by tests.
func WithRand(r *rand.Rand) Option {
	return func(s *Synthesizer) { s.rng = r }
}

// WithProfiles overrides the personality tables.
func WithProfiles(p map[game.Personality]*Profile) Option {
	return func(s *Synthesizer) { s.profiles = p }
}

// New creates a synthesizer with the built-in personality tables.
func New(cfg Config, opts ...Option) *Synthesizer {
	if cfg.CriticalHealth == 0 {
		cfg.CriticalHealth = DefaultConfig().CriticalHealth
	}
	if cfg.WoundedHealth == 0 {
		cfg.WoundedHealth = DefaultConfig().WoundedHealth
	}
	if cfg.GrudgeThreshold == 0 {
		cfg.GrudgeThreshold = DefaultConfig().GrudgeThreshold
	}
	if cfg.ChunkDelay == 0 {
		cfg.ChunkDelay = DefaultConfig().ChunkDelay
	}
	s := &Synthesizer{
		cfg:      cfg,
		profiles: BuiltinProfiles(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Analyze classifies the situation with an ordered rule cascade; the first
// matching rule wins.
func (s *Synthesizer) Analyze(c *game.Context) Assessment {
	if c.AgentHealth < s.cfg.CriticalHealth {
		return Assessment{Situation: "critical-health", Priority: PriorityHigh, SuggestedAction: game.ActionRetreat}
	}
	if w := s.woundedInZone(c); w != nil {
		return Assessment{Situation: "wounded-prey", Priority: PriorityHigh, SuggestedAction: game.ActionHunt, TargetID: w.ID}
	}
	if g, level := s.grudgeTarget(c); g != nil && level > s.cfg.GrudgeThreshold {
		return Assessment{Situation: "grudge-target", Priority: PriorityHigh, SuggestedAction: game.ActionHunt, TargetID: g.ID}
	}
	if s.inZoneCount(c) > 2 {
		return Assessment{Situation: "crowded-zone", Priority: PriorityMedium, SuggestedAction: game.ActionAmbush}
	}
	if len(c.Opponents) > 0 {
		return Assessment{Situation: "quiet-contact", Priority: PriorityLow, SuggestedAction: game.ActionInvestigate}
	}
	return Assessment{Situation: "empty-arena", Priority: PriorityLow, SuggestedAction: game.ActionPatrol}
}

// Synthesize produces a complete decision for the context: assessment,
// personality bias, target selection, flavor text, and confidence.
func (s *Synthesizer) Synthesize(c *game.Context) game.Decision {
	profile := s.profile(c.Personality)
	assessment := s.Analyze(c)

	target, grudgeLevel, grudgeDriven := s.selectTarget(c, assessment, profile)

	d := game.Decision{
		Action:     assessment.SuggestedAction,
		Confidence: baseConfidence(assessment.Priority),
	}
	if grudgeDriven {
		d.Confidence = math.Min(0.9, d.Confidence+0.05*grudgeLevel)
	}

	switch d.Action {
	case game.ActionRetreat:
		dest := s.retreatPoint(c)
		d.Destination = &dest
	default:
		if target != nil {
			d.TargetID = target.ID
			pos := target.Position
			d.Destination = &pos
		}
	}

	d.Monologue = s.pick(profile.Monologues)
	d.Reasoning = s.reasoning(profile, c, d.Action)
	return d
}

// selectTarget applies the target selection order: wounded in-zone prey,
// then highest-grudge present opponent, then nearest in-zone opponent. A
// grudge-preferring profile jumps the queue whenever a grudge target over
// the threshold is present.
func (s *Synthesizer) selectTarget(c *game.Context, a Assessment, profile *Profile) (target *game.Opponent, grudgeLevel float64, grudgeDriven bool) {
	grudge, level := s.grudgeTarget(c)

	if profile.PreferGrudge && grudge != nil && level > s.cfg.GrudgeThreshold {
		return grudge, level, true
	}
	if w := s.woundedInZone(c); w != nil {
		return w, 0, false
	}
	if grudge != nil && level > s.cfg.GrudgeThreshold {
		return grudge, level, true
	}
	if n := s.nearestInZone(c); n != nil {
		return n, 0, false
	}
	if a.SuggestedAction == game.ActionInvestigate {
		return s.nearest(c), 0, false
	}
	return nil, 0, false
}

func baseConfidence(p Priority) float64 {
	switch p {
	case PriorityHigh:
		return 0.8
	case PriorityMedium:
		return 0.6
	default:
		return 0.4
	}
}

func (s *Synthesizer) reasoning(profile *Profile, c *game.Context, action game.Action) string {
	if profile.ThresholdAware && c.AgentHealth < s.cfg.WoundedHealth && action != game.ActionRetreat {
		return "My health readout crossed a threshold the game thinks I can't see. Adjusting playstyle accordingly."
	}
	if pool := profile.Reasoning[action]; len(pool) > 0 {
		return s.pick(pool)
	}
	return "Acting on instinct; the situation offers nothing better."
}

func (s *Synthesizer) profile(p game.Personality) *Profile {
	if prof, ok := s.profiles[p]; ok {
		return prof
	}
	return s.profiles[game.PersonalityMethodical]
}

func (s *Synthesizer) pick(pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return pool[s.rng.Intn(len(pool))]
}

func (s *Synthesizer) woundedInZone(c *game.Context) *game.Opponent {
	for i := range c.Opponents {
		o := &c.Opponents[i]
		if o.InHazardZone && o.Health < s.cfg.WoundedHealth {
			return o
		}
	}
	return nil
}

// grudgeTarget returns the present opponent with the highest grudge level.
func (s *Synthesizer) grudgeTarget(c *game.Context) (*game.Opponent, float64) {
	var best *game.Opponent
	var bestLevel float64
	for i := range c.Opponents {
		level := memory.GrudgeLevel(c.MemoryFor(c.Opponents[i].ID))
		if level > bestLevel {
			best, bestLevel = &c.Opponents[i], level
		}
	}
	return best, bestLevel
}

func (s *Synthesizer) inZoneCount(c *game.Context) int {
	n := 0
	for i := range c.Opponents {
		if c.Opponents[i].InHazardZone {
			n++
		}
	}
	return n
}

func (s *Synthesizer) nearestInZone(c *game.Context) *game.Opponent {
	var best *game.Opponent
	bestDist := math.MaxFloat64
	for i := range c.Opponents {
		o := &c.Opponents[i]
		if !o.InHazardZone {
			continue
		}
		if d := c.AgentPosition.DistanceTo(o.Position); d < bestDist {
			best, bestDist = o, d
		}
	}
	return best
}

func (s *Synthesizer) nearest(c *game.Context) *game.Opponent {
	var best *game.Opponent
	bestDist := math.MaxFloat64
	for i := range c.Opponents {
		o := &c.Opponents[i]
		if d := c.AgentPosition.DistanceTo(o.Position); d < bestDist {
			best, bestDist = o, d
		}
	}
	return best
}

// retreatPoint places the destination directly away from the nearest
// opponent; with nobody visible the agent holds position.
func (s *Synthesizer) retreatPoint(c *game.Context) game.Point {
	n := s.nearest(c)
	if n == nil {
		return c.AgentPosition
	}
	dx := c.AgentPosition.X - n.Position.X
	dy := c.AgentPosition.Y - n.Position.Y
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		return game.Point{X: c.AgentPosition.X + retreatDistance, Y: c.AgentPosition.Y}
	}
	return game.Point{
		X: c.AgentPosition.X + dx/dist*retreatDistance,
		Y: c.AgentPosition.Y + dy/dist*retreatDistance,
	}
}
