package world

import "go.opentelemetry.io/otel"

// Без настроенного TracerProvider используется no-op реализация
var tracer = otel.Tracer("github.com/annel0/rts-engine/internal/world")
