package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKDL_Defaults(t *testing.T) {
	cfg, err := parseKDL("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, 300, cfg.Watch.DebounceMs)
	assert.Equal(t, 50000, cfg.Query.MaxPoints)
}

func TestParseKDL_WatchSection(t *testing.T) {
	kdlContent := `
watch {
    enabled true
    debounce_ms 500
    include "**/*.tfevent*"
    exclude "**/*.tmp"
}
`
	cfg, err := parseKDL(kdlContent)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.True(t, cfg.Watch.Enabled)
	assert.Equal(t, 500, cfg.Watch.DebounceMs)
	assert.Contains(t, cfg.Watch.IncludeGlobs, "**/*.tfevent*")
	assert.Contains(t, cfg.Watch.ExcludeGlobs, "**/*.tmp")
}

func TestParseKDL_ParseSectionWithSizeString(t *testing.T) {
	kdlContent := `
parse {
    max_goroutines 8
    max_memory_mb "256MB"
    timeout_sec 60
}
`
	cfg, err := parseKDL(kdlContent)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 8, cfg.Parse.MaxGoroutines)
	assert.Equal(t, 256, cfg.Parse.MaxMemoryMB)
	assert.Equal(t, 60, cfg.Parse.TimeoutSec)
}

func TestParseKDL_QueryAndServer(t *testing.T) {
	kdlContent := `
query {
    max_points 10000
    default_sample_size 500
}

server {
    listen_addr ":9000"
}
`
	cfg, err := parseKDL(kdlContent)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 10000, cfg.Query.MaxPoints)
	assert.Equal(t, 500, cfg.Query.DefaultSampleSize)
	assert.Equal(t, ":9000", cfg.Server.ListenAddr)
}

func TestParseKDL_FullConfig(t *testing.T) {
	kdlContent := `
project {
    root "."
    name "training-run-viz"
}

watch {
    debounce_ms 250
}

parse {
    max_goroutines 4
}

query {
    max_points 25000
}
`
	cfg, err := parseKDL(kdlContent)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "training-run-viz", cfg.Project.Name)
	assert.Equal(t, 250, cfg.Watch.DebounceMs)
	assert.Equal(t, 4, cfg.Parse.MaxGoroutines)
	assert.Equal(t, 25000, cfg.Query.MaxPoints)
}
