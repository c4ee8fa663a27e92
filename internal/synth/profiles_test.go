package synth_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onikuma-games/prowler/internal/game"
	"github.com/onikuma-games/prowler/internal/synth"
)

func TestBuiltinProfilesComplete(t *testing.T) {
	profiles := synth.BuiltinProfiles()
	require.Len(t, profiles, len(game.Personalities))

	for _, p := range game.Personalities {
		prof, ok := profiles[p]
		require.True(t, ok, "missing profile for %s", p)
		assert.NotEmpty(t, prof.Monologues, "%s monologues", p)
		assert.NotEmpty(t, prof.Reasoning, "%s reasoning", p)
		assert.NotEmpty(t, prof.Taunts, "%s taunts", p)
	}

	assert.True(t, profiles[game.PersonalityVengeful].PreferGrudge)
	assert.True(t, profiles[game.PersonalityMeta].ThresholdAware)
}

func TestLoadProfilesOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	content := `
methodical:
  monologues:
    - "Custom monologue."
  reasoning:
    patrol:
      - "Custom patrol reasoning."
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	profiles, err := synth.LoadProfiles(path)
	require.NoError(t, err)

	// The listed personality is replaced; the rest keep their built-ins.
	assert.Equal(t, []string{"Custom monologue."}, profiles[game.PersonalityMethodical].Monologues)
	assert.NotEmpty(t, profiles[game.PersonalityVengeful].Taunts)
}

func TestLoadProfilesMissingFileFallsBack(t *testing.T) {
	profiles, err := synth.LoadProfiles(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Len(t, profiles, len(game.Personalities))
}

func TestLoadProfilesRejectsIncomplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	content := `
theatrical:
  monologues: []
  reasoning:
    hunt: ["r"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := synth.LoadProfiles(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monologues")
}
