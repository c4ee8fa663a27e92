// Package memory implements the per-opponent relationship store: encounter
// bookkeeping, pattern observations, relationship classification, and the
// grudge score the synthesizer reads at decision time.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/onikuma-games/prowler/internal/game"
)

// Event is an encounter outcome reported by the game.
type Event string

const (
	EventSighting    Event = "sighting"
	EventHuntSuccess Event = "hunt-success"
	EventEscape      Event = "escape"
)

// Persister is the persistence boundary for memories. The store does not
// dictate storage technology; internal/store provides the SQLite
// implementation.
type Persister interface {
	LoadMemories(ctx context.Context, agentID string) ([]*game.Memory, error)
	UpsertMemory(ctx context.Context, m *game.Memory) error
}

const (
	maxNotableMoments = 10
	maxTrailSamples   = 12
)

// Store holds memories for every (agent, opponent) pair seen this session.
// It is process-wide shared state: construct once, pass by handle, reset
// with Clear between games or tests.
type Store struct {
	mu        sync.Mutex
	memories  map[string]*game.Memory
	trails    map[string][]game.Point // trailing position samples per pair
	persister Persister
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithPersister attaches a write-through persistence boundary.
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

// NewStore creates an empty memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		memories: make(map[string]*game.Memory),
		trails:   make(map[string][]game.Point),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func pairKey(agentID, opponentID string) string {
	return agentID + "|" + opponentID
}

// LoadSession hydrates the store from the persistence boundary at session
// start. Existing in-memory records for the agent are replaced.
func (s *Store) LoadSession(ctx context.Context, agentID string) error {
	if s.persister == nil {
		return nil
	}
	loaded, err := s.persister.LoadMemories(ctx, agentID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range loaded {
		m.TotalSessions++
		s.memories[pairKey(m.AgentID, m.OpponentID)] = m
	}
	log.Debug().Str("agent", agentID).Int("memories", len(loaded)).Msg("session memories loaded")
	return nil
}

// Get returns the memory for a pair, or nil if the pair has never met.
func (s *Store) Get(agentID, opponentID string) *game.Memory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memories[pairKey(agentID, opponentID)]
}

// All returns the memories the agent holds about the given opponents.
func (s *Store) All(agentID string, opponentIDs []string) []*game.Memory {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*game.Memory, 0, len(opponentIDs))
	for _, id := range opponentIDs {
		if m, ok := s.memories[pairKey(agentID, id)]; ok {
			out = append(out, m)
		}
	}
	return out
}

// RecordEncounter applies one encounter event to the pair's memory,
// creating the record on first contact. The optional pattern is merged by
// type; the optional moment joins the notable list, pruned by intensity.
// The updated memory is re-classified and written through to persistence.
func (s *Store) RecordEncounter(agentID, opponentID string, event Event, pattern *game.Pattern, moment *game.NotableMoment) *game.Memory {
	s.mu.Lock()
	key := pairKey(agentID, opponentID)
	m, ok := s.memories[key]
	now := s.now()
	if !ok {
		m = &game.Memory{
			AgentID:        agentID,
			OpponentID:     opponentID,
			Relationship:   game.RelationNeutral,
			FirstEncounter: now,
			TotalSessions:  1,
		}
		s.memories[key] = m
	}

	m.Encounters++
	m.LastEncounter = now
	switch event {
	case EventHuntSuccess:
		m.SuccessfulHunts++
	case EventEscape:
		m.Escapes++
	}

	if pattern != nil {
		mergePattern(m, *pattern)
	}
	if moment != nil {
		m.NotableMoments = appendMoment(m.NotableMoments, *moment)
	}

	m.Relationship = Classify(m)
	s.mu.Unlock()

	if s.persister != nil {
		if err := s.persister.UpsertMemory(context.Background(), m); err != nil {
			log.Warn().Err(err).Str("agent", agentID).Str("opponent", opponentID).Msg("memory upsert failed")
		}
	}
	return m
}

// mergePattern merges an incoming pattern: an existing pattern of the same
// type gains +0.1 confidence (capped at 1) and takes the new payload;
// otherwise the pattern is appended.
func mergePattern(m *game.Memory, p game.Pattern) {
	for i := range m.Patterns {
		if m.Patterns[i].Type == p.Type {
			c := m.Patterns[i].Confidence + 0.1
			if c > 1 {
				c = 1
			}
			p.Confidence = c
			m.Patterns[i] = p
			return
		}
	}
	m.Patterns = append(m.Patterns, p)
}

// appendMoment appends and keeps only the top entries by intensity.
func appendMoment(moments []game.NotableMoment, nm game.NotableMoment) []game.NotableMoment {
	moments = append(moments, nm)
	if len(moments) <= maxNotableMoments {
		return moments
	}
	// Stable-ish selection: drop the single lowest-intensity entry.
	lowest := 0
	for i := range moments {
		if moments[i].Intensity < moments[lowest].Intensity {
			lowest = i
		}
	}
	return append(moments[:lowest], moments[lowest+1:]...)
}

// ReinforcePattern adjusts pattern confidence from outcome validation:
// a correct prediction gains +0.1 (capped at 1), an incorrect one loses
// 0.15 (floored at 0).
func (s *Store) ReinforcePattern(agentID, opponentID string, t game.PatternType, correct bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.memories[pairKey(agentID, opponentID)]
	if !ok {
		return
	}
	for i := range m.Patterns {
		if m.Patterns[i].Type != t {
			continue
		}
		c := m.Patterns[i].Confidence
		if correct {
			c += 0.1
			if c > 1 {
				c = 1
			}
		} else {
			c -= 0.15
			if c < 0 {
				c = 0
			}
		}
		m.Patterns[i].Confidence = c
		return
	}
}

// Clear drops all in-memory state. Used by tests and game restarts;
// persisted rows are untouched.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memories = make(map[string]*game.Memory)
	s.trails = make(map[string][]game.Point)
}
