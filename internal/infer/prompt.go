package infer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/onikuma-games/prowler/internal/game"
	"github.com/onikuma-games/prowler/internal/memory"
)

// personaRoles gives the system prompt a voice per personality.
var personaRoles = map[game.Personality]string{
	game.PersonalityMethodical:    "a calculating, methodical predator that treats every hunt as a solved problem",
	game.PersonalityTheatrical:    "a dramatic, theatrical predator that treats every hunt as a performance",
	game.PersonalityVengeful:      "a grudge-driven predator that never forgets an opponent who escaped",
	game.PersonalityPhilosophical: "a reflective, philosophical predator that narrates the hunt as meditation",
	game.PersonalityMeta:          "a self-aware predator that knows it is inside a game and reads the numbers",
}

// BuildDecisionPrompt assembles the structured decide prompt: a persona
// system prompt plus a JSON snapshot of the arena and the memories that
// matter, with the reply schema spelled out.
func BuildDecisionPrompt(c *game.Context) (*Prompt, error) {
	role, ok := personaRoles[c.Personality]
	if !ok {
		role = personaRoles[game.PersonalityMethodical]
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("You are the Prowler, %s.\n\n", role))
	sb.WriteString("Decide your next action. Respond with a single JSON object:\n")
	sb.WriteString(`{"action": "hunt|stalk|ambush|retreat|taunt|investigate|patrol", "target_id": "", "destination": {"x": 0, "y": 0}, "monologue": "", "confidence": 0.0, "reasoning": ""}` + "\n")
	sb.WriteString("Stay in character. Monologue and reasoning must not be empty.\n")

	snapshot := struct {
		AgentHealth   float64            `json:"agent_health"`
		AgentPosition game.Point         `json:"agent_position"`
		TimeOfDay     game.TimeOfDay     `json:"time_of_day"`
		Weather       game.Weather       `json:"weather"`
		Opponents     []game.Opponent    `json:"opponents"`
		RecentEvents  []string           `json:"recent_events,omitempty"`
		Grudges       map[string]float64 `json:"grudges,omitempty"`
	}{
		AgentHealth:   c.AgentHealth,
		AgentPosition: c.AgentPosition,
		TimeOfDay:     c.TimeOfDay,
		Weather:       c.Weather,
		Opponents:     c.Opponents,
		RecentEvents:  c.RecentEvents,
		Grudges:       make(map[string]float64),
	}
	for _, o := range c.Opponents {
		if level := memory.GrudgeLevel(c.MemoryFor(o.ID)); level > 0 {
			snapshot.Grudges[o.ID] = level
		}
	}

	user, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("marshal context snapshot: %w", err)
	}
	return &Prompt{System: sb.String(), User: string(user)}, nil
}

// BuildLinePrompt assembles a taunt or dialogue prompt.
func BuildLinePrompt(c *game.Context, purpose Purpose, trigger string) *Prompt {
	role, ok := personaRoles[c.Personality]
	if !ok {
		role = personaRoles[game.PersonalityMethodical]
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("You are the Prowler, %s.\n", role))
	if purpose == PurposeTaunt {
		sb.WriteString("Reply with one short taunt, a single sentence, no quotes.\n")
	} else {
		sb.WriteString("Reply with one short in-character line of dialogue, no quotes.\n")
	}
	return &Prompt{
		System: sb.String(),
		User:   fmt.Sprintf("Trigger: %s. Weather: %s. Time: %s.", trigger, c.Weather, c.TimeOfDay),
	}
}
