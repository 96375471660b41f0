package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/assert"
)

func TestLoadParsesNestedSections(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "taskfarm.yaml")
	contents := `
dispatcher:
  port: 5555
  cmd: echo
  inputs_path: inputs.txt
  all_workers: 4
  start: 1
worker:
  mother_superior: node0
  port: 5555
  count: 2
  wall_time: "01:00:00"
metrics:
  enabled: true
  port: 9090
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5555, cfg.Dispatcher.Port)
	assert.Equal(t, "echo", cfg.Dispatcher.Cmd)
	assert.Equal(t, 4, cfg.Dispatcher.AllWorkers)
	assert.Equal(t, "node0", cfg.Worker.MotherSuperior)
	assert.Equal(t, 2, cfg.Worker.Count)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/taskfarm.yaml")
	assert.Error(t, err)
}
