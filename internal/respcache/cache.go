package respcache

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/onikuma-games/prowler/internal/game"
)

const (
	// SimilarityThreshold is the minimum fingerprint similarity for a
	// cached decision to be reused.
	SimilarityThreshold = 0.70

	// minFreshness is the freshness floor below which an entry is too old
	// to reuse even if it still beats the TTL.
	minFreshness = 0.3

	// lineQualityFloor filters flavor lines out of the draw pool.
	lineQualityFloor = 0.5

	defaultTTL          = 5 * time.Minute
	defaultMaxEntries   = 100
	defaultCleanupEvery = 60 * time.Second
)

type decisionEntry struct {
	payload  game.Decision
	fp       Fingerprint
	created  time.Time
	useCount int
	quality  float64
}

type lineEntry struct {
	text     string
	created  time.Time
	useCount int
	quality  float64
}

// Stats describes cache health; the mode controller reads it to decide
// when cached responses can stand in for live inference.
type Stats struct {
	DecisionEntries    int     `json:"decision_entries"`
	LineEntries        int     `json:"line_entries"`
	AvgDecisionQuality float64 `json:"avg_decision_quality"`
	Hits               int64   `json:"hits"`
	Misses             int64   `json:"misses"`
	HitRate            float64 `json:"hit_rate"`
}

// Cache holds bounded, time-boxed buckets of decisions and flavor lines.
// Construct one per process and share it by handle; Clear resets it for
// tests and game restarts.
type Cache struct {
	mu          sync.Mutex
	decisions   map[string][]*decisionEntry
	lines       map[string][]*lineEntry
	lastCleanup map[string]time.Time

	ttl          time.Duration
	maxEntries   int
	cleanupEvery time.Duration
	now          func() time.Time
	rng          *rand.Rand

	hits   int64
	misses int64
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithRand overrides the randomness source, used by tests.
func WithRand(r *rand.Rand) Option {
	return func(c *Cache) { c.rng = r }
}

// WithTTL overrides the entry lifetime.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) { c.ttl = d }
}

// WithMaxEntries overrides the per-key capacity.
func WithMaxEntries(n int) Option {
	return func(c *Cache) { c.maxEntries = n }
}

// New creates an empty response cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		decisions:    make(map[string][]*decisionEntry),
		lines:        make(map[string][]*lineEntry),
		lastCleanup:  make(map[string]time.Time),
		ttl:          defaultTTL,
		maxEntries:   defaultMaxEntries,
		cleanupEvery: defaultCleanupEvery,
		now:          time.Now,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// CacheDecision stores a decision under key with the fingerprint of the
// context that produced it.
func (c *Cache) CacheDecision(key string, d game.Decision, fp Fingerprint, quality float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maybeCleanupDecisions(key)
	c.decisions[key] = append(c.decisions[key], &decisionEntry{
		payload: d,
		fp:      fp,
		created: c.now(),
		quality: quality,
	})
	c.capDecisions(key)
	log.Debug().Str("key", key).Str("action", string(d.Action)).Float64("quality", quality).Msg("decision cached")
}

// GetDecision returns the best reusable decision for the live context:
// similarity at or above the threshold, freshness above the floor, ranked
// by 0.5·quality + 0.3·similarity + 0.2·freshness. Stale target references
// are repaired against the live context before the copy is returned.
func (c *Cache) GetDecision(key string, live *game.Context) (game.Decision, bool) {
	liveFP := FingerprintContext(live)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.maybeCleanupDecisions(key)

	var best *decisionEntry
	var bestScore float64
	now := c.now()
	for _, e := range c.decisions[key] {
		sim := Similarity(e.fp, liveFP)
		if sim < SimilarityThreshold {
			continue
		}
		fresh := 1 - now.Sub(e.created).Seconds()/c.ttl.Seconds()
		if fresh <= minFreshness {
			continue
		}
		score := 0.5*e.quality + 0.3*sim + 0.2*fresh
		if best == nil || score > bestScore {
			best, bestScore = e, score
		}
	}
	if best == nil {
		c.misses++
		return game.Decision{}, false
	}

	best.useCount++
	c.hits++
	d := best.payload
	repairTarget(&d, live)
	log.Debug().Str("key", key).Float64("score", bestScore).Int("use_count", best.useCount).Msg("decision cache hit")
	return d, true
}

// repairTarget fixes staleness inside a reused decision: a target that
// left the arena is swapped for the first opponent in the hazard zone, or
// dropped along with the destination when none exists.
func repairTarget(d *game.Decision, live *game.Context) {
	if d.TargetID == "" || live.Opponent(d.TargetID) != nil {
		return
	}
	for i := range live.Opponents {
		if live.Opponents[i].InHazardZone {
			d.TargetID = live.Opponents[i].ID
			pos := live.Opponents[i].Position
			d.Destination = &pos
			return
		}
	}
	d.TargetID = ""
	d.Destination = nil
}

// CacheLine stores a flavor line (taunt or dialogue) under key.
func (c *Cache) CacheLine(key, text string, quality float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maybeCleanupLines(key)
	c.lines[key] = append(c.lines[key], &lineEntry{
		text:    text,
		created: c.now(),
		quality: quality,
	})
	c.capLines(key)
}

// GetLine draws a cached line with probability proportional to
// quality/(useCount+1), so better and less-repeated lines surface more
// often without the draw ever going fully deterministic.
func (c *Cache) GetLine(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maybeCleanupLines(key)

	now := c.now()
	pool := make([]*lineEntry, 0, len(c.lines[key]))
	var totalWeight float64
	for _, e := range c.lines[key] {
		if now.Sub(e.created) > c.ttl || e.quality <= lineQualityFloor {
			continue
		}
		pool = append(pool, e)
		totalWeight += e.quality / float64(e.useCount+1)
	}
	if len(pool) == 0 || totalWeight == 0 {
		c.misses++
		return "", false
	}

	r := c.rng.Float64() * totalWeight
	for _, e := range pool {
		r -= e.quality / float64(e.useCount+1)
		if r <= 0 {
			e.useCount++
			c.hits++
			return e.text, true
		}
	}
	last := pool[len(pool)-1]
	last.useCount++
	c.hits++
	return last.text, true
}

// UpdateDecisionQuality applies usage feedback to the stored entry whose
// payload matches, as a running weighted average over its use count.
func (c *Cache) UpdateDecisionQuality(key string, d game.Decision, feedback float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.decisions[key] {
		if e.payload.Action == d.Action && e.payload.TargetID == d.TargetID && e.payload.Monologue == d.Monologue {
			e.quality = (e.quality*float64(e.useCount) + feedback) / float64(e.useCount+1)
			return
		}
	}
}

// UpdateLineQuality applies usage feedback to a stored line.
func (c *Cache) UpdateLineQuality(key, text string, feedback float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.lines[key] {
		if e.text == text {
			e.quality = (e.quality*float64(e.useCount) + feedback) / float64(e.useCount+1)
			return
		}
	}
}

// Stats returns current cache health.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{Hits: c.hits, Misses: c.misses}
	var qualitySum float64
	for _, entries := range c.decisions {
		s.DecisionEntries += len(entries)
		for _, e := range entries {
			qualitySum += e.quality
		}
	}
	for _, entries := range c.lines {
		s.LineEntries += len(entries)
	}
	if s.DecisionEntries > 0 {
		s.AvgDecisionQuality = qualitySum / float64(s.DecisionEntries)
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}
	return s
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.decisions = make(map[string][]*decisionEntry)
	c.lines = make(map[string][]*lineEntry)
	c.lastCleanup = make(map[string]time.Time)
	log.Info().Msg("response cache cleared")
}

// maybeCleanupDecisions runs expiry for a key at most once per throttle
// window. Entries are snapshotted before mutation so cleanup never
// invalidates an in-progress iteration. Lock must be held.
func (c *Cache) maybeCleanupDecisions(key string) {
	now := c.now()
	if now.Sub(c.lastCleanup["d:"+key]) < c.cleanupEvery {
		return
	}
	c.lastCleanup["d:"+key] = now

	old := c.decisions[key]
	kept := make([]*decisionEntry, 0, len(old))
	for _, e := range old {
		if now.Sub(e.created) <= c.ttl {
			kept = append(kept, e)
		}
	}
	c.decisions[key] = kept
	c.capDecisions(key)
	if dropped := len(old) - len(kept); dropped > 0 {
		log.Debug().Str("key", key).Int("dropped", dropped).Msg("expired decisions cleaned")
	}
}

func (c *Cache) maybeCleanupLines(key string) {
	now := c.now()
	if now.Sub(c.lastCleanup["l:"+key]) < c.cleanupEvery {
		return
	}
	c.lastCleanup["l:"+key] = now

	old := c.lines[key]
	kept := make([]*lineEntry, 0, len(old))
	for _, e := range old {
		if now.Sub(e.created) <= c.ttl {
			kept = append(kept, e)
		}
	}
	c.lines[key] = kept
	c.capLines(key)
}

// capDecisions enforces the per-key cap, dropping lowest quality first.
// Lock must be held.
func (c *Cache) capDecisions(key string) {
	entries := c.decisions[key]
	if len(entries) <= c.maxEntries {
		return
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].quality > entries[j].quality
	})
	c.decisions[key] = entries[:c.maxEntries]
}

func (c *Cache) capLines(key string) {
	entries := c.lines[key]
	if len(entries) <= c.maxEntries {
		return
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].quality > entries[j].quality
	})
	c.lines[key] = entries[:c.maxEntries]
}
