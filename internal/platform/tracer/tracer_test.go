package tracer

import (
	"context"
	"testing"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

func TestInitTracerWithoutEndpoint(t *testing.T) {
	tp := InitTracer("drink-service", "", logger.NewNop())
	require.NotNil(t, tp)
	assert.NoError(t, tp.Shutdown(context.Background()))

	fields := otel.GetTextMapPropagator().Fields()
	assert.Contains(t, fields, "traceparent")
	assert.Contains(t, fields, "baggage")
}

func TestServiceResource(t *testing.T) {
	res := serviceResource("drink-service", logger.NewNop())
	name, ok := res.Set().Value(semconv.ServiceNameKey)
	require.True(t, ok)
	assert.Equal(t, "drink-service", name.AsString())
}
