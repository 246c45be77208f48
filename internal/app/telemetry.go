package app

import (
	"context"
	"errors"
	"time"

	"github.com/cinezone/cinezone-ai-service/internal/scheduler"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

type metrics struct {
	optimizeDuration otelmetric.Float64Histogram
	candidateCount   otelmetric.Int64Histogram
	solverDegraded   otelmetric.Int64Counter
	trainingRuns     otelmetric.Int64Counter
}

// initTelemetry initializes the OpenTelemetry meter provider and returns a
// shutdown function. Without a collector URL the global no-op provider stays
// in place and instruments record nothing.
func (app *application) initTelemetry() (func(context.Context), error) {
	if app.config.otelCollectorUrl == "" {
		app.logger.Info("OpenTelemetry collector URL not set, skipping initialization")

		app.initMetrics()
		return func(context.Context) {}, nil
	}

	ctx := context.Background()

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName("cinezone-ai-service"),
			semconv.ServiceVersion(version),
			semconv.DeploymentEnvironment(app.config.env),
		),
	)
	if err != nil {
		return nil, errors.New("failed to create otel resource")
	}

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithInsecure(),
		otlpmetricgrpc.WithEndpoint(app.config.otelCollectorUrl),
	)
	if err != nil {
		return nil, errors.New("failed to create otel metric exporter")
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(15*time.Second))),
	)

	otel.SetMeterProvider(meterProvider)

	app.initMetrics()

	shutdown := func(ctx context.Context) {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		err := meterProvider.Shutdown(shutdownCtx)
		if err != nil {
			app.logger.Error("failed to shutdown telemetry provider", "error", err)
		}
	}

	return shutdown, nil
}

func (app *application) initMetrics() {
	meter := otel.Meter("cinezone-ai-service")

	app.metrics.optimizeDuration, _ = meter.Float64Histogram(
		"schedule.optimize.duration",
		otelmetric.WithDescription("Duration of schedule optimization runs"),
		otelmetric.WithUnit("s"),
	)
	app.metrics.candidateCount, _ = meter.Int64Histogram(
		"schedule.optimize.candidates",
		otelmetric.WithDescription("Candidate shows evaluated per optimization run"),
	)
	app.metrics.solverDegraded, _ = meter.Int64Counter(
		"schedule.solver.degraded",
		otelmetric.WithDescription("Optimization runs that fell back from a proven optimum"),
	)
	app.metrics.trainingRuns, _ = meter.Int64Counter(
		"model.training.runs",
		otelmetric.WithDescription("Completed demand model training jobs"),
	)
}

func (app *application) recordOptimization(ctx context.Context, elapsed time.Duration, schedule scheduler.Schedule) {
	if app.metrics.optimizeDuration == nil {
		return
	}

	solver := otelmetric.WithAttributes(attribute.String("solver", string(schedule.Solver)))

	app.metrics.optimizeDuration.Record(ctx, elapsed.Seconds(), solver)
	app.metrics.candidateCount.Record(ctx, int64(schedule.CandidateCount))

	if schedule.Solver != scheduler.StatusOptimal {
		app.metrics.solverDegraded.Add(ctx, 1, solver)
	}
}

func (app *application) recordTrainingRun(ctx context.Context) {
	if app.metrics.trainingRuns == nil {
		return
	}

	app.metrics.trainingRuns.Add(ctx, 1)
}
