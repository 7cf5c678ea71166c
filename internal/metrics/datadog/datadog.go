// Package datadog implements a Datadog backend for the internal/metrics
// package.
//
// The backend buffers metrics in memory (lock-protected, cheap) and submits
// them on Flush(): periodically from a ticker loop for long runs, and one
// final time from Close(). Short derivation runs therefore produce a single
// tail submission; long ones produce a usable time series.
//
// Concurrency model:
//   - pipeline goroutines may call IncCounter/ObserveHistogram at any time
//   - Flush snapshots and resets the buffers under a mutex, then submits
//     out-of-lock
//   - Close stops the flush loop and flushes once more
package datadog

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	dd "github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"

	"costvar/internal/metrics"
)

// Options controls Datadog backend configuration.
type Options struct {
	// JobName becomes tag "job:<name>" on every metric. Defaults to
	// "costvar".
	JobName string

	// Tags are extra Datadog tags (e.g. []string{"env:prod"}).
	Tags []string

	// FlushEvery controls the periodic submission interval. If <= 0,
	// defaults to 60 seconds.
	FlushEvery time.Duration

	// Unexported test seams. Production code never sets these; unit tests
	// use them to avoid real clocks, tickers, and HTTP.
	now       func() time.Time
	newTicker func(d time.Duration) *time.Ticker
	submitter metricsSubmitter
}

// metricsSubmitter is the minimal slice of the Datadog SDK the backend
// needs. The SDK only exposes the concrete *datadogV2.MetricsApi, which a
// test cannot stub without real HTTP; depending on this interface instead
// keeps tests deterministic.
type metricsSubmitter interface {
	SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error)
}

// Backend implements metrics.Backend for Datadog.
type Backend struct {
	api      metricsSubmitter
	withAuth func(ctx context.Context) context.Context

	flushEvery time.Duration
	stopCh     chan struct{}
	doneCh     chan struct{}

	baseTags []string

	now       func() time.Time
	newTicker func(d time.Duration) *time.Ticker

	mu         sync.Mutex
	counters   map[string]float64
	histograms map[string][]float64
}

var _ metrics.Backend = (*Backend)(nil)

func resolveEnvTag() string {
	if v := strings.TrimSpace(os.Getenv("ENV")); v != "" {
		return "env:" + v
	}
	return "env:dev"
}

// New constructs and starts a Datadog backend. Credentials come from the
// standard DD_API_KEY/DD_APP_KEY environment variables honored by the SDK.
func New(opts Options) *Backend {
	job := strings.TrimSpace(opts.JobName)
	if job == "" {
		job = "costvar"
	}

	tags := append([]string{"job:" + job, resolveEnvTag()}, opts.Tags...)
	sort.Strings(tags)

	flushEvery := opts.FlushEvery
	if flushEvery <= 0 {
		flushEvery = 60 * time.Second
	}

	api := opts.submitter
	withAuth := func(ctx context.Context) context.Context { return ctx }
	if api == nil {
		client := dd.NewAPIClient(dd.NewConfiguration())
		api = datadogV2.NewMetricsApi(client)
		// Inject DD_API_KEY/DD_APP_KEY from the environment.
		withAuth = dd.NewDefaultContext
	}

	b := &Backend{
		api:        api,
		withAuth:   withAuth,
		flushEvery: flushEvery,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
		baseTags:   tags,
		now:        opts.now,
		newTicker:  opts.newTicker,
		counters:   map[string]float64{},
		histograms: map[string][]float64{},
	}
	if b.now == nil {
		b.now = time.Now
	}
	if b.newTicker == nil {
		b.newTicker = time.NewTicker
	}

	go b.flushLoop()
	return b
}

// IncCounter adds delta to a named counter.
func (b *Backend) IncCounter(name string, delta float64) {
	b.mu.Lock()
	b.counters[name] += delta
	b.mu.Unlock()
}

// ObserveHistogram records one distribution sample.
func (b *Backend) ObserveHistogram(name string, value float64) {
	b.mu.Lock()
	b.histograms[name] = append(b.histograms[name], value)
	b.mu.Unlock()
}

// Flush submits the buffered metrics and resets the buffers. An empty
// buffer is a no-op.
func (b *Backend) Flush(ctx context.Context) error {
	b.mu.Lock()
	counters := b.counters
	histograms := b.histograms
	b.counters = map[string]float64{}
	b.histograms = map[string][]float64{}
	b.mu.Unlock()

	series := b.buildSeries(counters, histograms)
	if len(series) == 0 {
		return nil
	}

	payload := datadogV2.MetricPayload{Series: series}
	if _, _, err := b.api.SubmitMetrics(b.withAuth(ctx), payload); err != nil {
		return fmt.Errorf("datadog submit: %w", err)
	}
	return nil
}

// Close stops the flush loop and performs the final flush.
func (b *Backend) Close(ctx context.Context) error {
	close(b.stopCh)
	<-b.doneCh
	return b.Flush(ctx)
}

func (b *Backend) flushLoop() {
	defer close(b.doneCh)

	t := b.newTicker(b.flushEvery)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			// Periodic flushes are best-effort; the final Close flush
			// reports the terminal error.
			_ = b.Flush(context.Background())
		case <-b.stopCh:
			return
		}
	}
}

// buildSeries converts the buffered values into Datadog series. Counters
// become count points; each histogram becomes gauge points for avg and max
// plus a sample count, which covers the dashboards we actually build
// without shipping every sample.
func (b *Backend) buildSeries(counters map[string]float64, histograms map[string][]float64) []datadogV2.MetricSeries {
	ts := b.now().Unix()
	var series []datadogV2.MetricSeries

	point := func(v float64) []datadogV2.MetricPoint {
		return []datadogV2.MetricPoint{{
			Timestamp: dd.PtrInt64(ts),
			Value:     dd.PtrFloat64(v),
		}}
	}

	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		series = append(series, datadogV2.MetricSeries{
			Metric: name,
			Type:   datadogV2.METRICINTAKETYPE_COUNT.Ptr(),
			Points: point(counters[name]),
			Tags:   b.baseTags,
		})
	}

	names = names[:0]
	for name := range histograms {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		samples := histograms[name]
		if len(samples) == 0 {
			continue
		}
		var sum, max float64
		for i, s := range samples {
			sum += s
			if i == 0 || s > max {
				max = s
			}
		}
		avg := sum / float64(len(samples))

		gauge := func(suffix string, v float64) datadogV2.MetricSeries {
			return datadogV2.MetricSeries{
				Metric: name + suffix,
				Type:   datadogV2.METRICINTAKETYPE_GAUGE.Ptr(),
				Points: point(v),
				Tags:   b.baseTags,
			}
		}
		series = append(series,
			gauge(".avg", avg),
			gauge(".max", max),
			gauge(".count", float64(len(samples))),
		)
	}

	return series
}

// ParseTagsCSV splits a comma-separated tag list ("team:energy,tier:batch")
// into Datadog tags, dropping empty entries.
func ParseTagsCSV(s string) []string {
	var tags []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}
