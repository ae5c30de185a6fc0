package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/annel0/rts-engine/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("RTS_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Map.Width)
	assert.Equal(t, 2, cfg.Map.Players)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.NoError(t, cfg.Map.Validate())
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapgen.yaml")
	content := `
map:
  width: 32
  height: 24
  impassable: 50
  obstacles: perlin
storage:
  driver: badger
  ttl: 1h
metrics:
  addr: ":2112"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.Map.Width)
	assert.Equal(t, 24, cfg.Map.Height)
	assert.Equal(t, 1, cfg.Map.Levels, "Незаданные поля сохраняют значения по умолчанию")
	assert.Equal(t, "perlin", cfg.Map.Obstacles)
	assert.Equal(t, "badger", cfg.Storage.Driver)
	assert.Equal(t, time.Hour, cfg.Storage.TTL)
	assert.Equal(t, ":2112", cfg.Metrics.GetMetricsAddr())
}

func TestLoad_EnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte("map:\n  players: 1\n"), 0644))
	t.Setenv("RTS_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Map.Players)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("map:\n  width: 0\n"), 0644))
	_, err = Load(bad)
	assert.Error(t, err, "Нулевая ширина должна отклоняться")

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("map: [1, 2"), 0644))
	_, err = Load(broken)
	assert.Error(t, err)
}

func TestEnvFallbacks(t *testing.T) {
	t.Setenv("RTS_SEED", "77")
	t.Setenv("RTS_METRICS_ADDR", ":9100")

	m := MapConfig{}
	assert.Equal(t, int64(77), m.GetSeed())
	m.Seed = 5
	assert.Equal(t, int64(5), m.GetSeed(), "Значение из конфига важнее переменной окружения")

	metrics := MetricsConfig{}
	assert.Equal(t, ":9100", metrics.GetMetricsAddr())
}

func TestMapConfig_GeneratorOptions(t *testing.T) {
	m := Default().Map
	m.Obstacles = "perlin"
	m.MaxAttempts = 0

	opts := m.GeneratorOptions()
	assert.Equal(t, world.ObstaclePerlin, opts.Obstacles)
	assert.Equal(t, 0, opts.MaxAttempts, "0 означает неограниченное число попыток")
	assert.Equal(t, 4096, opts.MaxDistanceCells)
}

func TestLoad_SeedFromEnv(t *testing.T) {
	t.Setenv("RTS_CONFIG", "")
	t.Setenv("RTS_SEED", "1234")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(1234), cfg.Map.GetSeed(), "Сид из окружения применяется, если в конфиге он не задан")

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("map:\n  seed: 9\n"), 0644))
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(9), cfg.Map.GetSeed())

	t.Setenv("RTS_SEED", "")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(1), cfg.Map.GetSeed(), "Без конфига и окружения сид равен 1")
}
