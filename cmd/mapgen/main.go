package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/annel0/rts-engine/internal/config"
	"github.com/annel0/rts-engine/internal/logging"
	"github.com/annel0/rts-engine/internal/metrics"
	"github.com/annel0/rts-engine/internal/observability"
	"github.com/annel0/rts-engine/internal/storage"
	"github.com/annel0/rts-engine/internal/util"
	"github.com/annel0/rts-engine/internal/world"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (или ENV RTS_CONFIG)")
	seed := flag.Int64("seed", 0, "сид генератора (0 - из конфигурации)")
	players := flag.Int("players", -1, "число игроков (-1 - из конфигурации)")
	impassable := flag.Int("impassable", -1, "число скал (-1 - из конфигурации)")
	snapshot := flag.Bool("snapshot", false, "сохранить снимок карты в хранилище")
	metricsAddr := flag.String("metrics", "", "адрес Prometheus /metrics, например :2112")
	flag.Parse()

	if err := logging.InitDefaultLogger("mapgen"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	applyFlags(cfg, *seed, *players, *impassable, *metricsAddr)
	if err := cfg.Map.Validate(); err != nil {
		log.Fatalf("❌ Некорректные параметры карты: %v", err)
	}

	if level, err := logging.ParseLevel(cfg.LogLevel); err == nil {
		logging.GetWorldLogger().SetLevels(level, logging.DEBUG)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *snapshot); err != nil {
		logging.Error("❌ %v", err)
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
}

func applyFlags(cfg *config.Config, seed int64, players, impassable int, metricsAddr string) {
	if seed != 0 {
		cfg.Map.Seed = seed
	}
	if players >= 0 {
		cfg.Map.Players = players
	}
	if impassable >= 0 {
		cfg.Map.Impassable = impassable
	}
	if metricsAddr != "" {
		cfg.Metrics.Addr = metricsAddr
	}
}

func run(ctx context.Context, cfg *config.Config, saveSnapshot bool) error {
	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, cfg.Telemetry.ServiceName)
		if err != nil {
			logging.Warn("OpenTelemetry не инициализирован: %v", err)
		} else {
			defer shutdown(context.Background())
		}
	}

	rtsMap := world.NewRTSMap(cfg.Map.GeneratorOptions())

	if addr := cfg.Metrics.GetMetricsAddr(); addr != "" {
		registry := prometheus.NewRegistry()
		rtsMap.SetObserver(metrics.NewGenerationMetrics(registry))
		srv := metrics.StartHTTP(addr, registry)
		defer srv.Close()
	}

	if err := rtsMap.InitMap(cfg.Map.Width, cfg.Map.Height, cfg.Map.Levels); err != nil {
		return err
	}

	seed := cfg.Map.GetSeed()
	f := util.NewSeededRandFunc(seed)
	if err := rtsMap.GenerateMap(ctx, f, cfg.Map.Impassable, cfg.Map.Players, cfg.Map.InitResource); err != nil {
		return fmt.Errorf("генерация карты не удалась: %w", err)
	}

	fmt.Print(rtsMap.Draw())
	for _, info := range rtsMap.PlayerInfos() {
		fmt.Printf("player %d base=%s resource=%s resource_amount=%d\n",
			info.PlayerID,
			rtsMap.Grid().PrintCoord(rtsMap.GetLoc(info.BaseCoord)),
			rtsMap.Grid().PrintCoord(rtsMap.GetLoc(info.ResourceCoord)),
			info.InitialResource)
	}

	if !saveSnapshot {
		return nil
	}

	store, err := storage.NewSnapshotStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	snap, err := storage.NewMapSnapshot(rtsMap, seed)
	if err != nil {
		return err
	}
	if err := store.Save(ctx, snap); err != nil {
		return err
	}
	logging.Info("💾 Снимок карты сохранён: %s (%s)", snap.RunID, cfg.Storage.Driver)
	return nil
}
