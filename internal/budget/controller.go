// Package budget tracks external inference usage against a rolling daily
// budget and chooses whether the next request should hit the live
// provider, the response cache, or the local synthesizer.
package budget

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Mode is the decision source favored for the next request.
type Mode string

const (
	ModeReal   Mode = "real"   // live inference
	ModeCached Mode = "cached" // reuse from the response cache
	ModeMock   Mode = "mock"   // local synthesis only
)

// Category labels what an external call was for.
type Category string

const (
	CategoryDecide   Category = "decide"
	CategoryTaunt    Category = "taunt"
	CategoryDialogue Category = "dialogue"
)

const (
	windowLength = 24 * time.Hour

	// lowBudgetWarning is the remaining-call level that triggers an
	// operator warning.
	lowBudgetWarning = 10

	// minHealthyCacheEntries is how many cached decisions must exist
	// before cached mode is considered.
	minHealthyCacheEntries = 10
)

// Config tunes the controller.
type Config struct {
	// DailyCallLimit caps external calls inside the rolling window.
	DailyCallLimit int

	// ForceLocal pins the controller to mock mode regardless of budget.
	ForceLocal bool

	// CachedProbability is the chance of answering from cache when the
	// cache is healthy and budget remains.
	CachedProbability float64

	// CacheQualityThreshold is the average cached-decision quality needed
	// for the cache to count as healthy.
	CacheQualityThreshold float64
}

// DefaultConfig returns the limits used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		DailyCallLimit:        50,
		CachedProbability:     0.3,
		CacheQualityThreshold: 0.6,
	}
}

// CacheHealth is the slice of cache stats the controller inspects.
type CacheHealth struct {
	DecisionEntries int
	AvgQuality      float64
}

// Stats is the usage surface consumed by monitoring, not gameplay.
type Stats struct {
	PerCategory map[Category]int `json:"per_category"`
	TotalCalls  int              `json:"total_calls"`
	Remaining   int              `json:"remaining"`
	WindowStart time.Time        `json:"window_start"`
	CurrentMode Mode             `json:"current_mode"`
}

// Controller is process-wide shared state; construct one, pass it by
// handle, and Reset between tests.
type Controller struct {
	mu          sync.Mutex
	cfg         Config
	counts      map[Category]int
	total       int
	windowStart time.Time
	currentMode Mode
	warned      bool
	now         func() time.Time
	rng         *rand.Rand
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithRand overrides the randomness source, used by tests.
func WithRand(r *rand.Rand) Option {
	return func(c *Controller) { c.rng = r }
}

// New creates a controller with a fresh usage window.
func New(cfg Config, opts ...Option) *Controller {
	if cfg.DailyCallLimit <= 0 {
		cfg.DailyCallLimit = DefaultConfig().DailyCallLimit
	}
	if cfg.CachedProbability == 0 {
		cfg.CachedProbability = DefaultConfig().CachedProbability
	}
	if cfg.CacheQualityThreshold == 0 {
		cfg.CacheQualityThreshold = DefaultConfig().CacheQualityThreshold
	}
	c := &Controller{
		cfg:         cfg,
		counts:      make(map[Category]int),
		currentMode: ModeReal,
		now:         time.Now,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, o := range opts {
		o(c)
	}
	c.windowStart = c.now()
	return c
}

// DetermineMode picks the source for the next request. Force-local wins,
// then budget exhaustion, then a probabilistic cache reuse when the cache
// is healthy, otherwise live inference.
func (c *Controller) DetermineMode(h CacheHealth) Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rolloverLocked()

	if c.cfg.ForceLocal {
		return ModeMock
	}
	if c.total >= c.cfg.DailyCallLimit {
		return ModeMock
	}
	if h.DecisionEntries > minHealthyCacheEntries && h.AvgQuality > c.cfg.CacheQualityThreshold {
		if c.rng.Float64() < c.cfg.CachedProbability {
			return ModeCached
		}
	}
	return ModeReal
}

// TrackUsage counts one external call. It warns once when the remaining
// budget drops to the warning level and logs when the budget is spent.
func (c *Controller) TrackUsage(cat Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rolloverLocked()

	c.counts[cat]++
	c.total++

	remaining := c.cfg.DailyCallLimit - c.total
	if remaining < 0 {
		remaining = 0
	}
	if remaining <= lowBudgetWarning && !c.warned {
		c.warned = true
		log.Warn().Int("remaining", remaining).Str("category", string(cat)).Msg("inference budget running low")
	}
	if remaining == 0 {
		log.Info().Int("limit", c.cfg.DailyCallLimit).Msg("inference budget exhausted, degrading to local synthesis")
	}
}

// SetCurrentMode records the mode the engine actually used; the window
// reset deliberately leaves this field alone.
func (c *Controller) SetCurrentMode(m Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.currentMode = m
}

// UsageStats returns a snapshot of the usage surface.
func (c *Controller) UsageStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rolloverLocked()

	per := make(map[Category]int, len(c.counts))
	for k, v := range c.counts {
		per[k] = v
	}
	remaining := c.cfg.DailyCallLimit - c.total
	if remaining < 0 {
		remaining = 0
	}
	return Stats{
		PerCategory: per,
		TotalCalls:  c.total,
		Remaining:   remaining,
		WindowStart: c.windowStart,
		CurrentMode: c.currentMode,
	}
}

// Restore rehydrates a persisted usage window so a restart does not hand
// the agent a fresh daily budget. An already-elapsed window is ignored.
func (c *Controller) Restore(s Stats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.now().Sub(s.WindowStart) > windowLength {
		return
	}
	c.windowStart = s.WindowStart
	c.total = s.TotalCalls
	c.counts = make(map[Category]int, len(s.PerCategory))
	for k, v := range s.PerCategory {
		c.counts[k] = v
	}
}

// Reset clears counters and restarts the window. Used by tests.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts = make(map[Category]int)
	c.total = 0
	c.warned = false
	c.windowStart = c.now()
}

// rolloverLocked resets all counters once the rolling window elapses.
// currentMode is left for the engine to update. Lock must be held.
func (c *Controller) rolloverLocked() {
	now := c.now()
	if now.Sub(c.windowStart) <= windowLength {
		return
	}
	log.Debug().Time("window_start", c.windowStart).Int("calls", c.total).Msg("usage window reset")
	c.counts = make(map[Category]int)
	c.total = 0
	c.warned = false
	c.windowStart = now
}
