package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	ReasonDeadlineExceeded     = "deadline_exceeded"
	ReasonDBLockTimeout        = "db_lock_timeout"
	ReasonSerializationFailure = "serialization_failure"
	ReasonUniqueViolation      = "unique_violation"
	ReasonUnknown              = "unknown"
)

const (
	StageSynthesize = "synthesize"
	StageCreateSite = "create_site"
	StageAssemble   = "assemble"
	StageArchive    = "archive"
	StageDeploy     = "deploy"
	StagePersist    = "persist"
)

// PublisherMetrics tracks publish pipeline stages and background jobs.
type PublisherMetrics struct {
	stageDuration *prometheus.HistogramVec
	stageErrors   *prometheus.CounterVec
	jobRuns       *prometheus.CounterVec
	jobDuration   *prometheus.HistogramVec
	jobErrors     *prometheus.CounterVec
	jobProcessed  *prometheus.CounterVec
}

var (
	publisherMetricsOnce sync.Once
	publisherMetrics     *PublisherMetrics
)

// Publisher returns the process-wide registry bound to the default registerer.
func Publisher(cfg Config) *PublisherMetrics {
	publisherMetricsOnce.Do(func() {
		publisherMetrics = newPublisherMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return publisherMetrics
}

// NewPublisherMetrics registers against a custom registerer, mostly for tests.
func NewPublisherMetrics(registerer prometheus.Registerer, cfg Config) *PublisherMetrics {
	return newPublisherMetrics(registerer, cfg)
}

func serviceLabels(cfg Config) prometheus.Labels {
	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "breakeven"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	return prometheus.Labels{"service": serviceName, "env": environment}
}

func newPublisherMetrics(registerer prometheus.Registerer, cfg Config) *PublisherMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := serviceLabels(cfg)

	m := &PublisherMetrics{
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "breakeven_publish_stage_duration_seconds",
			Help:        "Latency of each publish pipeline stage.",
			Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
			ConstLabels: constLabels,
		}, []string{"stage"}),
		stageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "breakeven_publish_stage_errors_total",
			Help:        "Publish pipeline failures by stage and reason.",
			ConstLabels: constLabels,
		}, []string{"stage", "reason"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "breakeven_scheduler_job_runs_total",
			Help:        "Background job runs by name.",
			ConstLabels: constLabels,
		}, []string{"job"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "breakeven_scheduler_job_duration_seconds",
			Help:        "Background job latency.",
			Buckets:     []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
			ConstLabels: constLabels,
		}, []string{"job"}),
		jobErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "breakeven_scheduler_job_errors_total",
			Help:        "Background job errors by reason.",
			ConstLabels: constLabels,
		}, []string{"job", "reason"}),
		jobProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "breakeven_scheduler_job_processed_total",
			Help:        "Items handled by background jobs.",
			ConstLabels: constLabels,
		}, []string{"job"}),
	}

	registerer.MustRegister(
		m.stageDuration,
		m.stageErrors,
		m.jobRuns,
		m.jobDuration,
		m.jobErrors,
		m.jobProcessed,
	)
	return m
}

// ObserveStage records one stage. A non-nil err also counts a failure.
func (m *PublisherMetrics) ObserveStage(stage string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(duration.Seconds())
	if err != nil {
		m.stageErrors.WithLabelValues(stage, ClassifyReason(err)).Inc()
	}
}

func (m *PublisherMetrics) IncJobRun(job string) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
}

func (m *PublisherMetrics) ObserveJobDuration(job string, duration time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

func (m *PublisherMetrics) IncJobError(job string, err error) {
	if m == nil || err == nil {
		return
	}
	m.jobErrors.WithLabelValues(job, ClassifyReason(err)).Inc()
}

func (m *PublisherMetrics) AddJobProcessed(job string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.jobProcessed.WithLabelValues(job).Add(float64(count))
}

// ClassifyReason maps an error to a low-cardinality label.
func ClassifyReason(err error) string {
	if err == nil {
		return ReasonUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ReasonDeadlineExceeded
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ReasonUniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "55P03":
			return ReasonDBLockTimeout
		case "40001":
			return ReasonSerializationFailure
		case "23505":
			return ReasonUniqueViolation
		}
	}
	var classified interface{ Class() string }
	if errors.As(err, &classified) {
		if class := strings.TrimSpace(classified.Class()); class != "" {
			return class
		}
	}
	return ReasonUnknown
}
