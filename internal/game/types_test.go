package game_test

import (
	"testing"

	"github.com/onikuma-games/prowler/internal/game"
)

func TestDecisionValidate(t *testing.T) {
	valid := game.Decision{
		Action:     game.ActionHunt,
		TargetID:   "opp-1",
		Monologue:  "The hunt begins.",
		Confidence: 0.8,
		Reasoning:  "Wounded prey in the zone.",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid decision rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*game.Decision)
	}{
		{"unknown action", func(d *game.Decision) { d.Action = "fly" }},
		{"empty monologue", func(d *game.Decision) { d.Monologue = "" }},
		{"empty reasoning", func(d *game.Decision) { d.Reasoning = "" }},
		{"confidence too high", func(d *game.Decision) { d.Confidence = 1.2 }},
		{"confidence negative", func(d *game.Decision) { d.Confidence = -0.1 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := valid
			tc.mutate(&d)
			if err := d.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestContextLookups(t *testing.T) {
	c := &game.Context{
		Opponents: []game.Opponent{
			{ID: "a", Name: "Moss"},
			{ID: "b", Name: "Vex"},
		},
		Memories: []*game.Memory{
			{OpponentID: "b", Encounters: 4},
		},
	}

	if o := c.Opponent("b"); o == nil || o.Name != "Vex" {
		t.Errorf("expected opponent b, got %+v", o)
	}
	if o := c.Opponent("missing"); o != nil {
		t.Errorf("expected nil for unknown opponent, got %+v", o)
	}
	if m := c.MemoryFor("b"); m == nil || m.Encounters != 4 {
		t.Errorf("expected memory for b, got %+v", m)
	}
	if m := c.MemoryFor("a"); m != nil {
		t.Errorf("expected nil memory for a, got %+v", m)
	}
}

func TestMemoryRates(t *testing.T) {
	m := &game.Memory{Encounters: 10, SuccessfulHunts: 4, Escapes: 2}
	if got := m.HuntRate(); got != 0.4 {
		t.Errorf("hunt rate = %v, want 0.4", got)
	}
	if got := m.EscapeRate(); got != 0.2 {
		t.Errorf("escape rate = %v, want 0.2", got)
	}

	empty := &game.Memory{}
	if empty.HuntRate() != 0 || empty.EscapeRate() != 0 {
		t.Error("zero-encounter rates must be 0")
	}
}
