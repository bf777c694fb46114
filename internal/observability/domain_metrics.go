package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	pipelineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querylens_pipeline_requests_total",
			Help: "Total number of questions processed by the pipeline, by outcome.",
		},
		[]string{"outcome"},
	)
	pipelineInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "querylens_pipeline_in_flight",
			Help: "Questions currently holding a pipeline slot.",
		},
	)
	pipelineStageDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "querylens_pipeline_stage_duration_seconds",
			Help:    "Latency of each pipeline stage.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"},
	)
	schemaUnavailableTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "querylens_schema_unavailable_total",
			Help: "Total number of requests that fell back to an empty schema snapshot.",
		},
	)
	generationErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querylens_generation_errors_total",
			Help: "Total number of failed model generations, by provider and kind.",
		},
		[]string{"provider", "kind"},
	)
	executionFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querylens_execution_failures_total",
			Help: "Total number of generated statements that failed or were rejected, by kind.",
		},
		[]string{"kind"},
	)
	chartSelectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querylens_chart_selections_total",
			Help: "Total number of chart selections, by chart type (none when no chart was produced).",
		},
		[]string{"type"},
	)
	generationConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "querylens_generation_confidence",
			Help:    "Confidence reported by the model for generated SQL.",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)
	archiveWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querylens_archive_writes_total",
			Help: "Total number of answer archive writes, by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		pipelineRequestsTotal,
		pipelineInFlight,
		pipelineStageDurationSeconds,
		schemaUnavailableTotal,
		generationErrorsTotal,
		executionFailuresTotal,
		chartSelectionsTotal,
		generationConfidence,
		archiveWritesTotal,
	)
}

func ObservePipelineRequest(outcome string) {
	pipelineRequestsTotal.WithLabelValues(outcome).Inc()
}

func PipelineSlotAcquired() {
	pipelineInFlight.Inc()
}

func PipelineSlotReleased() {
	pipelineInFlight.Dec()
}

func ObservePipelineStage(stage string, elapsed time.Duration) {
	pipelineStageDurationSeconds.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func IncrementSchemaUnavailable() {
	schemaUnavailableTotal.Inc()
}

func IncrementGenerationError(provider, kind string) {
	generationErrorsTotal.WithLabelValues(provider, kind).Inc()
}

func IncrementExecutionFailure(kind string) {
	executionFailuresTotal.WithLabelValues(kind).Inc()
}

func ObserveChartSelection(chartType string) {
	if chartType == "" {
		chartType = "none"
	}
	chartSelectionsTotal.WithLabelValues(chartType).Inc()
}

func ObserveGenerationConfidence(confidence int) {
	if confidence < 0 {
		confidence = 0
	}
	generationConfidence.Observe(float64(confidence))
}

func ObserveArchiveWrite(result string) {
	archiveWritesTotal.WithLabelValues(result).Inc()
}
