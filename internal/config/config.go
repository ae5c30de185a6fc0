package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/annel0/rts-engine/internal/world"
	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации генератора карт
type Config struct {
	Map       MapConfig       `yaml:"map"`
	Storage   StorageConfig   `yaml:"storage"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	LogLevel  string          `yaml:"log_level"`
}

// MapConfig описывает параметры генерации карты
type MapConfig struct {
	Width            int    `yaml:"width"`
	Height           int    `yaml:"height"`
	Levels           int    `yaml:"levels"`
	Impassable       int    `yaml:"impassable"`
	Players          int    `yaml:"players"`
	InitResource     int    `yaml:"init_resource"`
	MaxAttempts      int    `yaml:"max_attempts"`
	Obstacles        string `yaml:"obstacles"`
	Seed             int64  `yaml:"seed"`
	MaxDistanceCells int    `yaml:"max_distance_cells"`
}

// StorageConfig описывает хранилище снимков карт
type StorageConfig struct {
	Driver    string        `yaml:"driver"` // memory | badger | redis
	Path      string        `yaml:"path"`
	RedisAddr string        `yaml:"redis_addr"`
	RedisDB   int           `yaml:"redis_db"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

// MetricsConfig описывает эндпоинт Prometheus
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// TelemetryConfig описывает экспорт трассировок OpenTelemetry
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// Default возвращает конфигурацию по умолчанию: карта 20x20, 2 игрока
func Default() *Config {
	return &Config{
		Map: MapConfig{
			Width:            20,
			Height:           20,
			Levels:           1,
			Impassable:       0,
			Players:          2,
			InitResource:     100,
			MaxAttempts:      1000,
			Obstacles:        "uniform",
			MaxDistanceCells: 4096,
		},
		Storage: StorageConfig{
			Driver:    "memory",
			Path:      "data",
			RedisAddr: "localhost:6379",
			KeyPrefix: "rts:snapshot:",
			TTL:       24 * time.Hour,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "rts-mapgen",
		},
		LogLevel: "info",
	}
}

// Validate проверяет размеры карты и число игроков
func (m *MapConfig) Validate() error {
	if m.Width <= 0 || m.Height <= 0 || m.Levels <= 0 {
		return fmt.Errorf("недопустимые размеры карты: %dx%dx%d", m.Width, m.Height, m.Levels)
	}
	if m.Players < 0 || m.Impassable < 0 || m.MaxAttempts < 0 {
		return fmt.Errorf("отрицательные параметры генерации: players=%d impassable=%d max_attempts=%d",
			m.Players, m.Impassable, m.MaxAttempts)
	}
	switch m.Obstacles {
	case "uniform", "perlin":
	default:
		return fmt.Errorf("неизвестный способ расстановки скал: %q", m.Obstacles)
	}
	return nil
}

// GeneratorOptions переводит параметры карты в опции генератора
func (m *MapConfig) GeneratorOptions() world.GeneratorOptions {
	return world.GeneratorOptions{
		MaxAttempts:      m.MaxAttempts,
		Obstacles:        world.ObstacleStrategy(m.Obstacles),
		MaxDistanceCells: m.MaxDistanceCells,
	}
}

// GetSeed возвращает сид с поддержкой fallback: config -> env RTS_SEED -> 1
func (m *MapConfig) GetSeed() int64 {
	if m.Seed != 0 {
		return m.Seed
	}
	if envVal := os.Getenv("RTS_SEED"); envVal != "" {
		if seed, err := strconv.ParseInt(envVal, 10, 64); err == nil {
			return seed
		}
	}
	return 1
}

// GetMetricsAddr возвращает адрес метрик: config -> env RTS_METRICS_ADDR -> "" (выключено)
func (m *MetricsConfig) GetMetricsAddr() string {
	if m.Addr != "" {
		return m.Addr
	}
	return os.Getenv("RTS_METRICS_ADDR")
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать путь из ENV RTS_CONFIG, иначе возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("RTS_CONFIG")
		if path == "" {
			return cfg, nil // конфиг не задан, используем дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения конфигурации %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации %s: %w", path, err)
	}

	if err := cfg.Map.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
