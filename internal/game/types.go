// Package game defines the shared data model for the Prowler decision engine:
// the decision context snapshot, the decision schema, and the per-opponent
// memory records. Every other internal package operates on these types.
package game

import (
	"fmt"
	"math"
	"time"
)

// Point is a 2D world position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DistanceTo returns the straight-line distance between two points.
func (p Point) DistanceTo(o Point) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// TimeOfDay is the coarse in-game clock phase.
type TimeOfDay string

const (
	TimeDawn  TimeOfDay = "dawn"
	TimeDay   TimeOfDay = "day"
	TimeDusk  TimeOfDay = "dusk"
	TimeNight TimeOfDay = "night"
)

// Weather is the current in-game weather condition.
type Weather string

const (
	WeatherClear Weather = "clear"
	WeatherRain  Weather = "rain"
	WeatherFog   Weather = "fog"
	WeatherStorm Weather = "storm"
)

// Personality selects one of the five fixed behavioral templates.
type Personality string

const (
	PersonalityMethodical    Personality = "methodical"    // calculating, patient
	PersonalityTheatrical    Personality = "theatrical"    // dramatic, performative
	PersonalityVengeful      Personality = "vengeful"      // grudge-driven
	PersonalityPhilosophical Personality = "philosophical" // reflective
	PersonalityMeta          Personality = "meta"          // self-aware, exploit-minded
)

// Personalities lists every built-in template.
var Personalities = []Personality{
	PersonalityMethodical,
	PersonalityTheatrical,
	PersonalityVengeful,
	PersonalityPhilosophical,
	PersonalityMeta,
}

// Action is what the agent does next cycle.
type Action string

const (
	ActionHunt        Action = "hunt"
	ActionStalk       Action = "stalk"
	ActionAmbush      Action = "ambush"
	ActionRetreat     Action = "retreat"
	ActionTaunt       Action = "taunt"
	ActionInvestigate Action = "investigate"
	ActionPatrol      Action = "patrol"
)

// ValidAction reports whether a is one of the seven known actions.
func ValidAction(a Action) bool {
	switch a {
	case ActionHunt, ActionStalk, ActionAmbush, ActionRetreat,
		ActionTaunt, ActionInvestigate, ActionPatrol:
		return true
	}
	return false
}

// Opponent is a human-controlled participant visible to the agent.
type Opponent struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Position     Point   `json:"position"`
	Health       float64 `json:"health"`
	Speed        float64 `json:"speed"`
	InHazardZone bool    `json:"in_hazard_zone"`
}

// Context is an immutable snapshot of everything the engine may consider
// for one decision request. Build a fresh Context per request; the engine
// never mutates it.
type Context struct {
	AgentID       string      `json:"agent_id"`
	AgentPosition Point       `json:"agent_position"`
	AgentHealth   float64     `json:"agent_health"`
	Personality   Personality `json:"personality"`
	Opponents     []Opponent  `json:"opponents"`
	TimeOfDay     TimeOfDay   `json:"time_of_day"`
	Weather       Weather     `json:"weather"`
	RecentEvents  []string    `json:"recent_events,omitempty"`
	Memories      []*Memory   `json:"memories,omitempty"`
}

// Opponent returns the opponent with the given id, or nil.
func (c *Context) Opponent(id string) *Opponent {
	for i := range c.Opponents {
		if c.Opponents[i].ID == id {
			return &c.Opponents[i]
		}
	}
	return nil
}

// MemoryFor returns the memory record for the given opponent, or nil.
func (c *Context) MemoryFor(opponentID string) *Memory {
	for _, m := range c.Memories {
		if m != nil && m.OpponentID == opponentID {
			return m
		}
	}
	return nil
}

// Decision is the engine's answer to a decision request. Every Decision
// handed to a caller is schema-complete regardless of which production
// path generated it; TargetID and Destination may be empty only when no
// opponent is eligible.
type Decision struct {
	Action      Action  `json:"action"`
	TargetID    string  `json:"target_id,omitempty"`
	Destination *Point  `json:"destination,omitempty"`
	Monologue   string  `json:"monologue"`
	Confidence  float64 `json:"confidence"`
	Reasoning   string  `json:"reasoning"`
}

// Validate checks that the decision satisfies the schema contract.
func (d *Decision) Validate() error {
	if !ValidAction(d.Action) {
		return fmt.Errorf("unknown action %q", d.Action)
	}
	if d.Monologue == "" {
		return fmt.Errorf("empty monologue")
	}
	if d.Reasoning == "" {
		return fmt.Errorf("empty reasoning")
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("confidence %.2f out of range", d.Confidence)
	}
	return nil
}

// Relationship classifies how the agent regards an opponent.
type Relationship string

const (
	RelationNeutral        Relationship = "neutral"
	RelationFavoriteTarget Relationship = "favorite-target"
	RelationNemesis        Relationship = "nemesis"
	RelationRespected      Relationship = "respected"
	RelationRival          Relationship = "rival"
)

// PatternType keys the closed set of observable opponent patterns.
type PatternType string

const (
	PatternCircularMovement PatternType = "circular-movement"
	PatternHidingSpot       PatternType = "hiding-spot"
	PatternEscapeRoute      PatternType = "escape-route"
)

// CircularMovement describes an opponent orbiting a fixed center.
type CircularMovement struct {
	Center Point   `json:"center"`
	Radius float64 `json:"radius"`
}

// HidingSpot describes a position an opponent repeatedly retreats to.
type HidingSpot struct {
	Position Point `json:"position"`
}

// EscapeRoute describes a path an opponent has used to break contact.
type EscapeRoute struct {
	Path []Point `json:"path"`
}

// Pattern is one observed behavioral pattern. Exactly one payload field is
// set, matching Type; the union is closed so persistence round-trips it
// losslessly.
type Pattern struct {
	Type       PatternType       `json:"type"`
	Confidence float64           `json:"confidence"`
	Circular   *CircularMovement `json:"circular,omitempty"`
	Hiding     *HidingSpot       `json:"hiding,omitempty"`
	Escape     *EscapeRoute      `json:"escape,omitempty"`
}

// NotableMoment is a high-intensity event worth remembering.
type NotableMoment struct {
	Description string    `json:"description"`
	Intensity   float64   `json:"intensity"` // 0-10
	Timestamp   time.Time `json:"timestamp"`
}

// Memory is the persistent relationship record for one (agent, opponent)
// pair. Created on first encounter, mutated on every encounter event,
// never deleted during a session.
type Memory struct {
	AgentID         string          `json:"agent_id"`
	OpponentID      string          `json:"opponent_id"`
	Encounters      int             `json:"encounters"`
	SuccessfulHunts int             `json:"successful_hunts"`
	Escapes         int             `json:"escapes"`
	Patterns        []Pattern       `json:"patterns,omitempty"`
	Relationship    Relationship    `json:"relationship"`
	NotableMoments  []NotableMoment `json:"notable_moments,omitempty"`
	FirstEncounter  time.Time       `json:"first_encounter"`
	LastEncounter   time.Time       `json:"last_encounter"`
	TotalSessions   int             `json:"total_sessions"`
}

// HuntRate is successful hunts over encounters.
func (m *Memory) HuntRate() float64 {
	if m.Encounters == 0 {
		return 0
	}
	return float64(m.SuccessfulHunts) / float64(m.Encounters)
}

// EscapeRate is escapes over encounters.
func (m *Memory) EscapeRate() float64 {
	if m.Encounters == 0 {
		return 0
	}
	return float64(m.Escapes) / float64(m.Encounters)
}

// Pattern returns the pattern of the given type, or nil.
func (m *Memory) Pattern(t PatternType) *Pattern {
	for i := range m.Patterns {
		if m.Patterns[i].Type == t {
			return &m.Patterns[i]
		}
	}
	return nil
}
