// Package engine is the decision façade the rest of the game calls. It
// orchestrates the mode controller, response cache, live inference, and
// the local synthesizer so that callers always receive a complete
// decision and never observe an error from the live path.
package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/onikuma-games/prowler/internal/budget"
	"github.com/onikuma-games/prowler/internal/game"
	"github.com/onikuma-games/prowler/internal/infer"
	"github.com/onikuma-games/prowler/internal/memory"
	"github.com/onikuma-games/prowler/internal/respcache"
	"github.com/onikuma-games/prowler/internal/synth"
)

// Cache-write quality per production path. Live responses get the default
// write quality; deliberate mock decisions are worth a little less; a
// fallback after a live failure is worth less still.
const (
	liveQuality     = 0.7
	mockQuality     = 0.6
	fallbackQuality = 0.5
)

// Engine wires the decision subsystems together. One Engine serves the
// whole process; all of its collaborators are shared by handle.
type Engine struct {
	provider infer.Provider
	modes    *budget.Controller
	cache    *respcache.Cache
	memories *memory.Store
	synth    *synth.Synthesizer

	sessionID string

	mu       sync.Mutex
	inFlight map[string]bool
}

// New assembles an engine from its collaborators.
func New(provider infer.Provider, modes *budget.Controller, cache *respcache.Cache, memories *memory.Store, s *synth.Synthesizer) *Engine {
	return &Engine{
		provider:  provider,
		modes:     modes,
		cache:     cache,
		memories:  memories,
		synth:     s,
		sessionID: uuid.NewString(),
		inFlight:  make(map[string]bool),
	}
}

// MakeDecision produces the agent's next decision. Exactly one request per
// agent may be in flight; a trigger arriving while one is outstanding is
// dropped, reported by ok=false. Whatever happens on the live path, the
// returned decision is schema-complete.
func (e *Engine) MakeDecision(ctx context.Context, c *game.Context) (d game.Decision, ok bool) {
	e.mu.Lock()
	if e.inFlight[c.AgentID] {
		e.mu.Unlock()
		log.Debug().Str("agent", c.AgentID).Msg("decision request dropped, one already in flight")
		return game.Decision{}, false
	}
	e.inFlight[c.AgentID] = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.inFlight, c.AgentID)
		e.mu.Unlock()
	}()

	c = e.withMemories(c)
	stats := e.cache.Stats()
	mode := e.modes.DetermineMode(budget.CacheHealth{
		DecisionEntries: stats.DecisionEntries,
		AvgQuality:      stats.AvgDecisionQuality,
	})
	e.modes.SetCurrentMode(mode)

	key := "decision:" + c.AgentID
	fp := respcache.FingerprintContext(c)

	switch mode {
	case budget.ModeCached:
		if cached, hit := e.cache.GetDecision(key, c); hit {
			return cached, true
		}
		// Cache miss is not an error; synthesize and conserve budget.
		d = e.synth.Synthesize(c)
		e.cache.CacheDecision(key, d, fp, mockQuality)
		return d, true

	case budget.ModeMock:
		d = e.synth.Synthesize(c)
		e.cache.CacheDecision(key, d, fp, mockQuality)
		return d, true
	}

	live, err := e.inferDecision(ctx, c)
	if err != nil {
		log.Warn().Err(err).Str("agent", c.AgentID).Str("session", e.sessionID).Msg("live inference failed, synthesizing locally")
		d = e.synth.Synthesize(c)
		e.cache.CacheDecision(key, d, fp, fallbackQuality)
		return d, true
	}
	e.cache.CacheDecision(key, *live, fp, liveQuality)
	return *live, true
}

func (e *Engine) inferDecision(ctx context.Context, c *game.Context) (*game.Decision, error) {
	prompt, err := infer.BuildDecisionPrompt(c)
	if err != nil {
		return nil, err
	}
	e.modes.TrackUsage(budget.CategoryDecide)
	result, err := e.provider.Infer(ctx, infer.PurposeDecide, prompt)
	if err != nil {
		return nil, err
	}
	return infer.ParseDecision(result.Text)
}

// GenerateTaunt returns a short in-character line for the trigger. The
// line comes from the cache, live inference, or the synthesizer depending
// on mode; failures degrade silently like decisions do.
func (e *Engine) GenerateTaunt(ctx context.Context, c *game.Context, trigger synth.Trigger) string {
	return e.generateLine(ctx, c, infer.PurposeTaunt, trigger, "taunt:"+string(trigger))
}

// GenerateDialogue returns a short situational dialogue line.
func (e *Engine) GenerateDialogue(ctx context.Context, c *game.Context, trigger synth.Trigger) string {
	return e.generateLine(ctx, c, infer.PurposeDialogue, trigger, "dialogue:"+c.AgentID)
}

func (e *Engine) generateLine(ctx context.Context, c *game.Context, purpose infer.Purpose, trigger synth.Trigger, key string) string {
	c = e.withMemories(c)
	stats := e.cache.Stats()
	mode := e.modes.DetermineMode(budget.CacheHealth{
		DecisionEntries: stats.DecisionEntries,
		AvgQuality:      stats.AvgDecisionQuality,
	})

	if mode == budget.ModeCached || mode == budget.ModeMock {
		if line, hit := e.cache.GetLine(key); hit {
			return line
		}
		line := e.synth.TauntFor(c, trigger)
		e.cache.CacheLine(key, line, mockQuality)
		return line
	}

	category := budget.CategoryTaunt
	if purpose == infer.PurposeDialogue {
		category = budget.CategoryDialogue
	}
	e.modes.TrackUsage(category)
	result, err := e.provider.Infer(ctx, purpose, infer.BuildLinePrompt(c, purpose, string(trigger)))
	if err != nil || result.Text == "" {
		log.Warn().Err(err).Str("purpose", string(purpose)).Msg("line inference failed, synthesizing locally")
		line := e.synth.TauntFor(c, trigger)
		e.cache.CacheLine(key, line, fallbackQuality)
		return line
	}
	e.cache.CacheLine(key, result.Text, liveQuality)
	return result.Text
}

// StreamThought exposes the synthesizer's cancellable thought stream.
func (e *Engine) StreamThought(ctx context.Context, c *game.Context, lastAction game.Action) <-chan string {
	return e.synth.StreamThought(ctx, e.withMemories(c), lastAction)
}

// RecordEncounter forwards an encounter event into the memory store and
// returns the updated memory.
func (e *Engine) RecordEncounter(agentID, opponentID string, event memory.Event, pattern *game.Pattern, moment *game.NotableMoment) *game.Memory {
	return e.memories.RecordEncounter(agentID, opponentID, event, pattern, moment)
}

// UsageStats exposes the budget surface for monitoring.
func (e *Engine) UsageStats() budget.Stats {
	return e.modes.UsageStats()
}

// withMemories returns a shallow copy of the context with the agent's
// memories attached when the caller did not supply them. The caller's
// context is never mutated.
func (e *Engine) withMemories(c *game.Context) *game.Context {
	if c.Memories != nil {
		return c
	}
	ids := make([]string, len(c.Opponents))
	for i, o := range c.Opponents {
		ids[i] = o.ID
	}
	copied := *c
	copied.Memories = e.memories.All(c.AgentID, ids)
	return &copied
}
