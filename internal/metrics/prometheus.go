package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AnalysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adgm_agent_analysis_duration_seconds",
			Help:    "Batch analysis duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"status"},
	)

	AnalysisTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adgm_agent_analysis_total",
			Help: "Total number of analysis runs",
		},
		[]string{"status"},
	)

	DocumentsAnalyzed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "adgm_agent_documents_analyzed_total",
			Help: "Total documents analyzed",
		},
	)

	IssuesFound = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adgm_agent_issues_found_total",
			Help: "Total issues found by severity",
		},
		[]string{"severity"},
	)

	DetectionConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "adgm_agent_detection_confidence",
			Help:    "Best-match type detection confidence scores",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	RetrievalResultsCount = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "adgm_agent_retrieval_results_count",
			Help:    "Number of retrieval results per citation query",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		},
	)

	CitationsAttached = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adgm_agent_citations_attached_total",
			Help: "Citation outcomes per issue query",
		},
		[]string{"outcome"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adgm_agent_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adgm_agent_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	IndexChunksTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "adgm_agent_index_chunks_total",
			Help: "Chunks loaded in the embedding index",
		},
	)

	EmbeddingCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adgm_agent_embedding_calls_total",
			Help: "Embedding service calls",
		},
		[]string{"status"},
	)
)

func Init() {
	prometheus.MustRegister(AnalysisDuration)
	prometheus.MustRegister(AnalysisTotal)
	prometheus.MustRegister(DocumentsAnalyzed)
	prometheus.MustRegister(IssuesFound)
	prometheus.MustRegister(DetectionConfidence)
	prometheus.MustRegister(RetrievalResultsCount)
	prometheus.MustRegister(CitationsAttached)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(IndexChunksTotal)
	prometheus.MustRegister(EmbeddingCalls)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
