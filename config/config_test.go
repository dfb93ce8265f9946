package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/enrollstat/engine"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "hybrid", c.Mode)
	assert.Equal(t, runtime.NumCPU(), c.Workers)
	assert.Equal(t, "커리큘럼", c.CurriculumHeader)
	assert.Equal(t, "table", c.Format)
	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, int64(32<<20), c.MaxUploadBytes())
	assert.Empty(t, c.FunnelStages)
	assert.Len(t, c.RunOptions(), 3)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "enrollstat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode: multi-sheet
workers: 2
format: json
funnelStages: [signup, a_complete, b_start]
gapPairs:
  - a_complete>b_start
`), 0o644))

	t.Setenv("ENROLLSTAT_WORKERS", "6")
	t.Setenv("ENROLLSTAT_CURRICULUMHEADER", "Curriculum")

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "multi-sheet", c.Mode)
	assert.Equal(t, 6, c.Workers, "environment beats the file")
	assert.Equal(t, "Curriculum", c.CurriculumHeader)
	assert.Equal(t, "json", c.Format)
	assert.Equal(t, []string{"signup", "a_complete", "b_start"}, c.FunnelStages)

	pairs, err := c.Pairs()
	require.NoError(t, err)
	assert.Equal(t, []engine.StagePair{{From: "a_complete", To: "b_start"}}, pairs)
}

func TestLoadEnvList(t *testing.T) {
	t.Setenv("ENROLLSTAT_FUNNELSTAGES", "a, b,c")
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, c.FunnelStages)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"mode":     "ENROLLSTAT_MODE",
		"format":   "ENROLLSTAT_FORMAT",
		"logLevel": "ENROLLSTAT_LOGLEVEL",
		"timezone": "ENROLLSTAT_TIMEZONE",
		"gapPairs": "ENROLLSTAT_GAPPAIRS",
	}
	for name, env := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(env, "bogus")
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
