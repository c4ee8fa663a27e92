package synth

import (
	"context"
	"strings"
	"time"

	"github.com/onikuma-games/prowler/internal/game"
)

// StreamThought produces the agent's current monologue as a finite
// sequence of word-sized chunks on the returned channel, optionally
// prefixed by situational clauses drawn from the context. The stream is a
// presentation device, never a source of game-state truth. Cancelling ctx
// stops the producer promptly: no further chunk is emitted and no timer
// leaks. The channel is closed when the stream ends for any reason.
func (s *Synthesizer) StreamThought(ctx context.Context, c *game.Context, lastAction game.Action) <-chan string {
	profile := s.profile(c.Personality)

	var parts []string
	parts = append(parts, s.situationalClauses(c)...)
	parts = append(parts, strings.Fields(s.pick(profile.Monologues))...)

	out := make(chan string)
	go func() {
		defer close(out)
		ticker := time.NewTicker(s.cfg.ChunkDelay)
		defer ticker.Stop()
		for _, word := range parts {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			select {
			case <-ctx.Done():
				return
			case out <- word + " ":
			}
		}
	}()
	return out
}

// situationalClauses derives deterministic lead-in fragments from the
// context so the stream reacts to what is actually happening.
func (s *Synthesizer) situationalClauses(c *game.Context) []string {
	var clauses []string
	if c.AgentHealth < s.cfg.WoundedHealth {
		clauses = append(clauses, "Wounded,", "but", "far", "from", "done.")
	}
	if c.Weather == game.WeatherStorm {
		clauses = append(clauses, "The", "storm", "covers", "everything", "I", "do.")
	}
	if c.TimeOfDay == game.TimeNight {
		clauses = append(clauses, "Night.", "My", "hours.")
	}
	return clauses
}

// TauntFor returns an in-character taunt for the trigger. The {name}
// placeholder is filled with the most relevant opponent; with nobody to
// address, the line stands on its own.
func (s *Synthesizer) TauntFor(c *game.Context, trigger Trigger) string {
	profile := s.profile(c.Personality)
	pool := profile.Taunts[trigger]
	if len(pool) == 0 {
		for _, p := range profile.Taunts {
			pool = append(pool, p...)
		}
	}
	line := s.pick(pool)
	if line == "" {
		line = "You cannot hide from me forever."
	}

	name := "prey"
	if t := s.nearestInZone(c); t != nil {
		name = t.Name
	} else if t := s.nearest(c); t != nil {
		name = t.Name
	}
	return strings.ReplaceAll(line, "{name}", name)
}
