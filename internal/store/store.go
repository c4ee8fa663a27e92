package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/onikuma-games/prowler/internal/budget"
	"github.com/onikuma-games/prowler/internal/game"
)

// LoadMemories returns every memory the agent holds. Patterns and notable
// moments round-trip through JSON columns losslessly.
func (s *Store) LoadMemories(ctx context.Context, agentID string) ([]*game.Memory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT agent_id, opponent_id, encounters, successful_hunts, escapes,
		       relationship, patterns, notable_moments,
		       first_encounter, last_encounter, total_sessions
		FROM memories WHERE agent_id = ?`, agentID)
	if err != nil {
		return nil, fmt.Errorf("query memories: %w", err)
	}
	defer rows.Close()

	var out []*game.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpsertMemory writes one memory record, replacing any previous row for
// the pair.
func (s *Store) UpsertMemory(ctx context.Context, m *game.Memory) error {
	patterns, err := json.Marshal(m.Patterns)
	if err != nil {
		return fmt.Errorf("marshal patterns: %w", err)
	}
	moments, err := json.Marshal(m.NotableMoments)
	if err != nil {
		return fmt.Errorf("marshal notable moments: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO memories (
			agent_id, opponent_id, encounters, successful_hunts, escapes,
			relationship, patterns, notable_moments,
			first_encounter, last_encounter, total_sessions
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(agent_id, opponent_id) DO UPDATE SET
			encounters = excluded.encounters,
			successful_hunts = excluded.successful_hunts,
			escapes = excluded.escapes,
			relationship = excluded.relationship,
			patterns = excluded.patterns,
			notable_moments = excluded.notable_moments,
			last_encounter = excluded.last_encounter,
			total_sessions = excluded.total_sessions`,
		m.AgentID, m.OpponentID, m.Encounters, m.SuccessfulHunts, m.Escapes,
		string(m.Relationship), string(patterns), string(moments),
		m.FirstEncounter.UTC().Format(time.RFC3339Nano),
		m.LastEncounter.UTC().Format(time.RFC3339Nano),
		m.TotalSessions)
	if err != nil {
		return fmt.Errorf("upsert memory: %w", err)
	}
	return nil
}

func scanMemory(rows *sql.Rows) (*game.Memory, error) {
	var m game.Memory
	var relationship, patterns, moments string
	var first, last sql.NullString
	if err := rows.Scan(&m.AgentID, &m.OpponentID, &m.Encounters, &m.SuccessfulHunts,
		&m.Escapes, &relationship, &patterns, &moments, &first, &last, &m.TotalSessions); err != nil {
		return nil, fmt.Errorf("scan memory: %w", err)
	}
	m.Relationship = game.Relationship(relationship)
	if err := json.Unmarshal([]byte(patterns), &m.Patterns); err != nil {
		return nil, fmt.Errorf("unmarshal patterns: %w", err)
	}
	if err := json.Unmarshal([]byte(moments), &m.NotableMoments); err != nil {
		return nil, fmt.Errorf("unmarshal notable moments: %w", err)
	}
	if first.Valid {
		if t, err := time.Parse(time.RFC3339Nano, first.String); err == nil {
			m.FirstEncounter = t
		}
	}
	if last.Valid {
		if t, err := time.Parse(time.RFC3339Nano, last.String); err == nil {
			m.LastEncounter = t
		}
	}
	return &m, nil
}

// SaveUsageWindow persists the budget window so restarts do not hand the
// agent a fresh daily budget.
func (s *Store) SaveUsageWindow(ctx context.Context, agentID string, stats budget.Stats) error {
	counts, err := json.Marshal(stats.PerCategory)
	if err != nil {
		return fmt.Errorf("marshal usage counts: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO usage_windows (agent_id, window_start, counts, total_calls)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(agent_id) DO UPDATE SET
			window_start = excluded.window_start,
			counts = excluded.counts,
			total_calls = excluded.total_calls`,
		agentID, stats.WindowStart.UTC().Format(time.RFC3339Nano), string(counts), stats.TotalCalls)
	if err != nil {
		return fmt.Errorf("save usage window: %w", err)
	}
	return nil
}

// LoadUsageWindow returns the persisted window, or ok=false when the
// agent has none.
func (s *Store) LoadUsageWindow(ctx context.Context, agentID string) (budget.Stats, bool, error) {
	var windowStart, counts string
	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT window_start, counts, total_calls FROM usage_windows WHERE agent_id = ?`,
		agentID).Scan(&windowStart, &counts, &total)
	if err == sql.ErrNoRows {
		return budget.Stats{}, false, nil
	}
	if err != nil {
		return budget.Stats{}, false, fmt.Errorf("load usage window: %w", err)
	}

	stats := budget.Stats{TotalCalls: total, PerCategory: make(map[budget.Category]int)}
	if err := json.Unmarshal([]byte(counts), &stats.PerCategory); err != nil {
		return budget.Stats{}, false, fmt.Errorf("unmarshal usage counts: %w", err)
	}
	if t, err := time.Parse(time.RFC3339Nano, windowStart); err == nil {
		stats.WindowStart = t
	}
	return stats, true, nil
}
