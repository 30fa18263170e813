package observability

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	"npc-chatlab/backend/pkg/logger"
)

// SetupTracing initializes OpenTelemetry tracing with a stdout exporter.
// Returns a shutdown func for graceful termination.
func SetupTracing(serviceName string, log *logger.Logger) func(context.Context) {
	exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		log.Error("failed to initialize stdouttrace exporter", "error", err.Error())
		return func(context.Context) {}
	}
	res, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return func(ctx context.Context) { _ = provider.Shutdown(ctx) }
}

// SetupMetrics initializes the Prometheus metrics exporter.
func SetupMetrics(log *logger.Logger) *sdkmetric.MeterProvider {
	exp, err := otelprom.New()
	if err != nil {
		log.Error("failed to initialize prometheus exporter", "error", err.Error())
		return nil
	}
	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp))
}

// MetricsHandler exposes the Prometheus scrape endpoint as a Gin handler.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// ChatRecorder reports NPC turn and compaction activity to Prometheus.
type ChatRecorder struct {
	turns             *prometheus.CounterVec
	degradedTurns     *prometheus.CounterVec
	generationLatency *prometheus.HistogramVec
	compactions       prometheus.Counter
	fallbackSummaries prometheus.Counter
}

// NewChatRecorder registers the chat metrics on the default registry.
func NewChatRecorder() *ChatRecorder {
	return &ChatRecorder{
		turns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "chatlab_turns_total",
			Help: "NPC replies generated, by model.",
		}, []string{"model"}),
		degradedTurns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "chatlab_degraded_turns_total",
			Help: "NPC replies that fell back to the error placeholder, by model.",
		}, []string{"model"}),
		generationLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chatlab_generation_latency_seconds",
			Help:    "Latency of model reply generation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"model"}),
		compactions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chatlab_compactions_total",
			Help: "History compactions performed.",
		}),
		fallbackSummaries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chatlab_fallback_summaries_total",
			Help: "Compactions that used the static fallback summary.",
		}),
	}
}

func (r *ChatRecorder) ObserveTurn(model string, degraded bool, latency time.Duration) {
	r.turns.WithLabelValues(model).Inc()
	if degraded {
		r.degradedTurns.WithLabelValues(model).Inc()
	}
	r.generationLatency.WithLabelValues(model).Observe(latency.Seconds())
}

func (r *ChatRecorder) ObserveCompaction(degraded bool) {
	r.compactions.Inc()
	if degraded {
		r.fallbackSummaries.Inc()
	}
}
