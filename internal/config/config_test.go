package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	raw := `
server:
  rest_port: 9000
  metrics_port: 9100
storage:
  data_path: /var/lib/blockmap
eventbus:
  url: nats://127.0.0.1:4222
  stream: TEST_EVENTS
  retention_hours: 48
spatial:
  cell_size: 2.0
  max_step_height: 1.5
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 9000, cfg.Server.GetRESTPort())
	assert.Equal(t, 9100, cfg.Server.GetMetricsPort())
	assert.Equal(t, "/var/lib/blockmap", cfg.Storage.GetDataPath())
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.EventBus.URL)
	assert.Equal(t, 48, cfg.EventBus.Retention)
	assert.Equal(t, 2.0, cfg.Spatial.CellSize)
	assert.Equal(t, 1.5, cfg.Spatial.MaxStepHeight)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yml")
	assert.Error(t, err)
}

func TestLoadEmptyPathWithoutEnv(t *testing.T) {
	t.Setenv("BLOCKMAP_CONFIG", "")

	cfg, err := Load("")
	assert.NoError(t, err)
	assert.Nil(t, cfg, "Без конфига и ENV должен вернуться nil")
}

func TestPortFallbacks(t *testing.T) {
	var s ServerConfig

	t.Setenv("BLOCKMAP_REST_PORT", "")
	t.Setenv("BLOCKMAP_METRICS_PORT", "")
	assert.Equal(t, 8088, s.GetRESTPort(), "Должен вернуться порт по умолчанию")
	assert.Equal(t, 2112, s.GetMetricsPort(), "Должен вернуться порт по умолчанию")

	t.Setenv("BLOCKMAP_REST_PORT", "7070")
	assert.Equal(t, 7070, s.GetRESTPort(), "ENV должен переопределять значение по умолчанию")

	s.RESTPort = 6060
	assert.Equal(t, 6060, s.GetRESTPort(), "Конфиг имеет приоритет над ENV")
}

func TestDataPathFallback(t *testing.T) {
	var s StorageConfig

	t.Setenv("BLOCKMAP_DATA_PATH", "")
	assert.Equal(t, "data", s.GetDataPath())

	t.Setenv("BLOCKMAP_DATA_PATH", "/tmp/maps")
	assert.Equal(t, "/tmp/maps", s.GetDataPath())

	s.DataPath = "custom"
	assert.Equal(t, "custom", s.GetDataPath())
}
