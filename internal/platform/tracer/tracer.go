package tracer

import (
	"context"
	"fmt"
	"time"

	"github.com/Abdurahmanit/GroupProject/drink-service/internal/platform/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const exporterDialTimeout = 10 * time.Second

// InitTracer installs the W3C propagators and, when otlpEndpoint is set, a
// batching OTLP/gRPC provider as the global one. The returned provider is
// never nil so callers can always Shutdown it.
func InitTracer(serviceName, otlpEndpoint string, appLogger *logger.Logger) *sdktrace.TracerProvider {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	res := serviceResource(serviceName, appLogger)
	if otlpEndpoint == "" {
		appLogger.Info("Tracing export disabled, OTEL_EXPORTER_OTLP_ENDPOINT is empty")
		return sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	}

	exporter, err := newExporter(otlpEndpoint)
	if err != nil {
		appLogger.Error("Tracing export disabled", zap.String("otlp_endpoint", otlpEndpoint), zap.Error(err))
		return sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	appLogger.Info("Tracing export enabled",
		zap.String("service_name", serviceName),
		zap.String("otlp_endpoint", otlpEndpoint))
	return tp
}

func newExporter(endpoint string) (sdktrace.SpanExporter, error) {
	conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("otlp grpc client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), exporterDialTimeout)
	defer cancel()
	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("otlp exporter: %w", err)
	}
	return exporter, nil
}

// serviceResource describes this process. A schema conflict with the SDK
// defaults keeps only the service name.
func serviceResource(serviceName string, appLogger *logger.Logger) *resource.Resource {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(serviceName)),
	)
	if err != nil {
		appLogger.Warn("Falling back to a schemaless tracing resource", zap.Error(err))
		return resource.NewSchemaless(semconv.ServiceName(serviceName))
	}
	return res
}
