package metrics

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cognicore/destek/pkg/destek"
	"github.com/cognicore/destek/pkg/destek/analytics"
	"github.com/cognicore/destek/pkg/destek/internalerr"
	"github.com/cognicore/destek/pkg/destek/store"
)

const namespace = "destek"

// collectTimeout bounds the store reads done on one scrape.
const collectTimeout = 5 * time.Second

var (
	entitiesDesc = prometheus.NewDesc(
		"destek_entities",
		"Number of entities by kind",
		[]string{"kind"},
		nil,
	)
	associationsDesc = prometheus.NewDesc(
		"destek_associations",
		"Number of keyword associations by kind",
		[]string{"kind"},
		nil,
	)
	weightDesc = prometheus.NewDesc(
		"destek_association_weight_total",
		"Sum of association weights by kind (confirmed learn events per keyword)",
		[]string{"kind"},
		nil,
	)
	keywordsDesc = prometheus.NewDesc(
		"destek_keywords",
		"Number of distinct keywords",
		nil,
		nil,
	)
)

// StoreReader is the part of store.Store the collector reads.
type StoreReader interface {
	analytics.AssociationReader
	KeywordCount(ctx context.Context) (int64, error)
}

// AssociationCollector is a custom Prometheus collector that reads the
// association tables on each scrape.
type AssociationCollector struct {
	store StoreReader
}

// NewAssociationCollector creates a collector over st.
func NewAssociationCollector(st StoreReader) *AssociationCollector {
	return &AssociationCollector{store: st}
}

// Describe sends the metric descriptors to the channel.
func (c *AssociationCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- entitiesDesc
	ch <- associationsDesc
	ch <- weightDesc
	ch <- keywordsDesc
}

// Collect queries the store and emits one gauge set per kind.
func (c *AssociationCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
	defer cancel()

	stats, err := analytics.Collect(ctx, c.store)
	if err != nil {
		slog.Error("failed to collect association metrics", "error", err)
		return
	}
	report := stats.Report(0)
	for _, k := range report.Kinds {
		kind := k.Kind.String()
		ch <- prometheus.MustNewConstMetric(entitiesDesc, prometheus.GaugeValue, float64(k.Entities), kind)
		ch <- prometheus.MustNewConstMetric(associationsDesc, prometheus.GaugeValue, float64(k.Associations), kind)
		ch <- prometheus.MustNewConstMetric(weightDesc, prometheus.CounterValue, float64(k.TotalWeight), kind)
	}

	n, err := c.store.KeywordCount(ctx)
	if err != nil {
		slog.Error("failed to count keywords", "error", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(keywordsDesc, prometheus.GaugeValue, float64(n))
}

// Recorder counts engine calls. It implements destek.Observer.
type Recorder struct {
	analyzeTotal    *prometheus.CounterVec
	analyzeDuration prometheus.Histogram
	decisions       *prometheus.CounterVec
	recognized      *prometheus.CounterVec
	learnTotal      *prometheus.CounterVec
	reinforced      *prometheus.CounterVec
	newKeywords     prometheus.Counter
}

// NewRecorder creates the engine metrics and registers them, together
// with an AssociationCollector over st when st is not nil.
func NewRecorder(reg prometheus.Registerer, st StoreReader) (*Recorder, error) {
	r := &Recorder{
		analyzeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyze_total",
			Help:      "Analyze calls by outcome",
		}, []string{"outcome"}),
		analyzeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analyze_duration_seconds",
			Help:      "Analyze latency",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Successful analyses by kind and decision (selected or undetermined)",
		}, []string{"kind", "decision"}),
		recognized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recognized_total",
			Help:      "Entity names spotted in ticket text by kind",
		}, []string{"kind"}),
		learnTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "learn_total",
			Help:      "Learn calls by outcome",
		}, []string{"outcome"}),
		reinforced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reinforced_total",
			Help:      "Selections reinforced by kind",
		}, []string{"kind"}),
		newKeywords: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "new_keywords_total",
			Help:      "Keyword rows created by learning",
		}),
	}

	collectors := []prometheus.Collector{
		r.analyzeTotal, r.analyzeDuration, r.decisions, r.recognized,
		r.learnTotal, r.reinforced, r.newKeywords,
	}
	if st != nil {
		collectors = append(collectors, NewAssociationCollector(st))
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ObserveAnalyze implements destek.Observer.
func (r *Recorder) ObserveAnalyze(res destek.Result, elapsed time.Duration, err error) {
	r.analyzeTotal.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		return
	}
	r.analyzeDuration.Observe(elapsed.Seconds())
	for _, kind := range store.Kinds {
		kr := res.For(kind)
		decision := "undetermined"
		if kr.BestID != nil {
			decision = "selected"
		}
		r.decisions.WithLabelValues(kind.String(), decision).Inc()
		if n := len(kr.Recognized); n > 0 {
			r.recognized.WithLabelValues(kind.String()).Add(float64(n))
		}
	}
}

// ObserveLearn implements destek.Observer.
func (r *Recorder) ObserveLearn(fb destek.Feedback, _ time.Duration, err error) {
	r.learnTotal.WithLabelValues(outcome(err)).Inc()
	// Selections applied before a failure are committed and counted.
	flags := map[store.Kind]bool{
		store.Category:   fb.Category,
		store.Department: fb.Department,
		store.Personnel:  fb.Personnel,
	}
	for kind, ok := range flags {
		if ok {
			r.reinforced.WithLabelValues(kind.String()).Inc()
		}
	}
	r.newKeywords.Add(float64(fb.NewKeywords))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, internalerr.ErrInvalidInput):
		return "invalid"
	default:
		return "error"
	}
}

var _ destek.Observer = (*Recorder)(nil)
