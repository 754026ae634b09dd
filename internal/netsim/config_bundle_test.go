package netsim

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigBundle_ValidYAML(t *testing.T) {
	yaml := `
k: 8
classes: 2
vcs_per_class: 4
powergate_type: nord
powergate_percentile: 30
pattern: tornado
injection_rate: 0.1
seed: 7
`
	path := writeTempYAML(t, yaml)
	bundle, err := LoadConfigBundle(path)
	require.NoError(t, err)
	assert.Equal(t, 8, bundle.K)
	assert.EqualValues(t, "nord", bundle.PowergateType)

	cfg := bundle.Config()
	require.NoError(t, cfg.Validate())
	assert.EqualValues(t, "tornado", cfg.Pattern)
}

func TestLoadConfigBundle_RejectsUnknownKeys(t *testing.T) {
	yaml := `
k: 4
not_a_real_field: true
`
	path := writeTempYAML(t, yaml)
	_, err := LoadConfigBundle(path)
	assert.Error(t, err, "expected an error for an unrecognized key")
}

func TestLoadConfigBundle_MissingFile(t *testing.T) {
	_, err := LoadConfigBundle(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "expected an error for a missing file")
}

func TestDefaultBundle_FillsDefaults(t *testing.T) {
	path := writeTempYAML(t, "k: 6\n")
	bundle, err := LoadConfigBundle(path)
	require.NoError(t, err)
	assert.Equal(t, 6, bundle.K)
	assert.Equal(t, DefaultConfig().VCsPerClass, bundle.VCsPerClass)
}

func TestLoadConfigBundle_AllocationKnobsRoundTrip(t *testing.T) {
	yaml := `
k: 4
vc_allocator: matrix
sw_allocator: round_robin
alloc_iters: 2
input_speedup: 2
output_speedup: 2
powergate_seed: 42
`
	path := writeTempYAML(t, yaml)
	bundle, err := LoadConfigBundle(path)
	require.NoError(t, err)

	cfg := bundle.Config()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "matrix", cfg.VCAllocator)
	assert.Equal(t, "round_robin", cfg.SWAllocator)
	assert.Equal(t, 2, cfg.AllocIters)
	assert.Equal(t, 2, cfg.InputSpeedup)
	assert.Equal(t, 2, cfg.OutputSpeedup)
	assert.EqualValues(t, 42, cfg.PowergateSeed)
}
