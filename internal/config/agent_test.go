package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAgentDefinition(t *testing.T) {
	t.Run("empty path returns default", func(t *testing.T) {
		def, err := LoadAgentDefinition("")
		require.NoError(t, err)
		assert.Equal(t, "code-interpreter-agent", def.Name)
		assert.NotEmpty(t, def.Instructions)
	})

	t.Run("reads yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "agent.yaml")
		content := `name: chart-bot
description: draws charts
instructions: Plot things.
model: gpt-4o-mini
temperature: 0.2
metadata:
  owner: docs
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		def, err := LoadAgentDefinition(path)
		require.NoError(t, err)
		assert.Equal(t, "chart-bot", def.Name)
		assert.Equal(t, "Plot things.", def.Instructions)
		assert.Equal(t, "gpt-4o-mini", def.ModelOr("gpt-4o"))
		require.NotNil(t, def.Temperature)
		assert.InDelta(t, 0.2, *def.Temperature, 0.0001)
		assert.Equal(t, "docs", def.Metadata["owner"])
	})

	t.Run("missing instructions fall back to defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "agent.yaml")
		require.NoError(t, os.WriteFile(path, []byte("name: minimal\n"), 0o600))

		def, err := LoadAgentDefinition(path)
		require.NoError(t, err)
		assert.Equal(t, defaultAgentInstructions, def.Instructions)
		assert.Equal(t, "gpt-4o", def.ModelOr("gpt-4o"))
	})

	t.Run("name is required", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "agent.yaml")
		require.NoError(t, os.WriteFile(path, []byte("instructions: hi\n"), 0o600))

		_, err := LoadAgentDefinition(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadAgentDefinition(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
