package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/annel0/rts-engine/internal/logging"
	"github.com/annel0/rts-engine/internal/world"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// GenerationMetrics инкапсулирует Prometheus-метрики генерации карт.
// Реализует world.GenerationObserver.
type GenerationMetrics struct {
	attempts       prometheus.Counter
	playerFailures *prometheus.CounterVec
	generated      prometheus.Counter
	failed         prometheus.Counter
	duration       prometheus.Histogram
	attemptsPerMap prometheus.Histogram
}

var _ world.GenerationObserver = (*GenerationMetrics)(nil)

// NewGenerationMetrics создаёт метрики и регистрирует их в reg
func NewGenerationMetrics(reg prometheus.Registerer) *GenerationMetrics {
	gm := &GenerationMetrics{
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mapgen",
			Name:      "attempts_total",
			Help:      "Общее число попыток генерации карты (включая перегенерации).",
		}),
		playerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mapgen",
			Name:      "player_placement_failures_total",
			Help:      "Неудачные размещения слотов по игрокам.",
		}, []string{"player"}),
		generated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mapgen",
			Name:      "maps_generated_total",
			Help:      "Успешно сгенерированные карты.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mapgen",
			Name:      "generation_failures_total",
			Help:      "Генерации, исчерпавшие лимит попыток.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mapgen",
			Name:      "generation_duration_seconds",
			Help:      "Длительность успешной генерации, включая таблицу расстояний.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		attemptsPerMap: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mapgen",
			Name:      "attempts_per_map",
			Help:      "Число попыток, потребовавшихся для одной карты.",
			Buckets:   []float64{1, 2, 4, 8, 16, 64, 256, 1024},
		}),
	}

	reg.MustRegister(gm.attempts, gm.playerFailures, gm.generated, gm.failed, gm.duration, gm.attemptsPerMap)
	return gm
}

// AttemptStarted учитывает очередную попытку генерации
func (gm *GenerationMetrics) AttemptStarted(int) {
	gm.attempts.Inc()
}

// PlayerPlacementFailed учитывает неудачу размещения слотов игрока
func (gm *GenerationMetrics) PlayerPlacementFailed(player world.PlayerID) {
	gm.playerFailures.WithLabelValues(playerLabel(player)).Inc()
}

// MapGenerated учитывает успешную генерацию
func (gm *GenerationMetrics) MapGenerated(attempts int, elapsed time.Duration) {
	gm.generated.Inc()
	gm.duration.Observe(elapsed.Seconds())
	gm.attemptsPerMap.Observe(float64(attempts))
}

// GenerationFailed учитывает исчерпание лимита попыток
func (gm *GenerationMetrics) GenerationFailed(int) {
	gm.failed.Inc()
}

func playerLabel(player world.PlayerID) string {
	return strconv.Itoa(int(player))
}

// StartHTTP запускает HTTP-эндпоинт /metrics на указанном адресе (например, ":2112").
// Метод неблокирующий: HTTP-сервер стартует в отдельной горутине.
func StartHTTP(addr string, gatherer prometheus.Gatherer) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
	return srv
}
