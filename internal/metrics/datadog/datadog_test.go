package datadog

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"
)

type fakeSubmitter struct {
	mu       sync.Mutex
	payloads []datadogV2.MetricPayload
	err      error
}

func (f *fakeSubmitter) SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, body)
	return datadogV2.IntakePayloadAccepted{}, nil, f.err
}

func newTestBackend(sub *fakeSubmitter) *Backend {
	return New(Options{
		JobName:   "canoe-costvariable",
		submitter: sub,
		now:       func() time.Time { return time.Unix(1700000000, 0) },
		// A very long ticker keeps the flush loop quiet during tests;
		// flushes are driven explicitly.
		newTicker: func(time.Duration) *time.Ticker { return time.NewTicker(time.Hour) },
	})
}

func TestFlushSubmitsCountersAndHistograms(t *testing.T) {
	sub := &fakeSubmitter{}
	b := newTestBackend(sub)
	defer b.Close(context.Background())

	b.IncCounter("costvar.rows_built", 10)
	b.IncCounter("costvar.rows_built", 5)
	b.ObserveHistogram("costvar.stage_duration_seconds", 1.0)
	b.ObserveHistogram("costvar.stage_duration_seconds", 3.0)

	if err := b.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()
	if len(sub.payloads) != 1 {
		t.Fatalf("payloads = %d, want 1", len(sub.payloads))
	}

	series := sub.payloads[0].Series
	byName := map[string]datadogV2.MetricSeries{}
	for _, s := range series {
		byName[s.Metric] = s
	}

	c, ok := byName["costvar.rows_built"]
	if !ok {
		t.Fatalf("missing counter series: %v", byName)
	}
	if got := *c.Points[0].Value; got != 15 {
		t.Fatalf("counter value = %v, want 15", got)
	}
	if *c.Type != datadogV2.METRICINTAKETYPE_COUNT {
		t.Fatalf("counter type = %v", *c.Type)
	}

	avg, ok := byName["costvar.stage_duration_seconds.avg"]
	if !ok || *avg.Points[0].Value != 2.0 {
		t.Fatalf("avg series = %+v, %v", avg, ok)
	}
	max, ok := byName["costvar.stage_duration_seconds.max"]
	if !ok || *max.Points[0].Value != 3.0 {
		t.Fatalf("max series = %+v, %v", max, ok)
	}
	count, ok := byName["costvar.stage_duration_seconds.count"]
	if !ok || *count.Points[0].Value != 2.0 {
		t.Fatalf("count series = %+v, %v", count, ok)
	}

	for _, s := range series {
		if *s.Points[0].Timestamp != 1700000000 {
			t.Fatalf("timestamp = %d", *s.Points[0].Timestamp)
		}
	}
}

func TestFlushEmptyIsNoop(t *testing.T) {
	sub := &fakeSubmitter{}
	b := newTestBackend(sub)
	defer b.Close(context.Background())

	if err := b.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if len(sub.payloads) != 0 {
		t.Fatalf("payloads = %d, want 0", len(sub.payloads))
	}
}

func TestFlushResetsBuffers(t *testing.T) {
	sub := &fakeSubmitter{}
	b := newTestBackend(sub)
	defer b.Close(context.Background())

	b.IncCounter("costvar.lookup_misses", 1)
	if err := b.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := b.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()
	if len(sub.payloads) != 1 {
		t.Fatalf("payloads = %d, want 1 (second flush had nothing to send)", len(sub.payloads))
	}
}

func TestCloseFlushesTail(t *testing.T) {
	sub := &fakeSubmitter{}
	b := newTestBackend(sub)

	b.IncCounter("costvar.rows_built", 7)
	if err := b.Close(context.Background()); err != nil {
		t.Fatal(err)
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()
	if len(sub.payloads) != 1 {
		t.Fatalf("payloads = %d, want 1", len(sub.payloads))
	}
}

func TestBaseTagsIncludeJob(t *testing.T) {
	sub := &fakeSubmitter{}
	b := newTestBackend(sub)
	defer b.Close(context.Background())

	b.IncCounter("costvar.rows_built", 1)
	if err := b.Flush(context.Background()); err != nil {
		t.Fatal(err)
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()
	tags := sub.payloads[0].Series[0].Tags
	found := false
	for _, tag := range tags {
		if tag == "job:canoe-costvariable" {
			found = true
		}
	}
	if !found {
		t.Fatalf("job tag missing from %v", tags)
	}
}
