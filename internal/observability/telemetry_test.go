package observability

import (
	"context"
	"testing"

	"github.com/annel0/rts-engine/internal/util"
	"github.com/annel0/rts-engine/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInstallProvider_RecordsGenerationSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	shutdown, err := installProvider(context.Background(), "rts-test", trace.WithSpanProcessor(recorder))
	require.NoError(t, err)

	m := world.NewRTSMap(world.DefaultGeneratorOptions())
	require.NoError(t, m.InitMap(10, 10, 1))
	require.NoError(t, m.GenerateMap(context.Background(), util.NewSeededRandFunc(3), 5, 2, 100))

	names := make(map[string]bool)
	for _, span := range recorder.Ended() {
		names[span.Name()] = true
	}
	assert.True(t, names["world.GenerateMap"])
	assert.True(t, names["world.BuildDistanceTable"], "Таблица расстояний трассируется внутри генерации")

	_, isSDK := otel.GetTracerProvider().(*trace.TracerProvider)
	assert.True(t, isSDK, "Глобальный провайдер должен быть заменён")
	assert.NoError(t, shutdown(context.Background()))
}
