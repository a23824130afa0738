package metrics

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

// recorder captures backend calls for assertions.
type recorder struct {
	counters   []call
	histograms []call
	flushed    int
}

type call struct {
	name   string
	value  float64
	labels Labels
}

func (r *recorder) IncCounter(name string, delta float64, labels Labels) {
	r.counters = append(r.counters, call{name, delta, labels})
}

func (r *recorder) ObserveHistogram(name string, value float64, labels Labels) {
	r.histograms = append(r.histograms, call{name, value, labels})
}

func (r *recorder) Flush() error { r.flushed++; return nil }

// install swaps in a recorder and restores the nop backend afterwards.
func install(t *testing.T) *recorder {
	t.Helper()
	rec := &recorder{}
	SetBackend(rec)
	t.Cleanup(func() { backend = nopBackend{} })
	return rec
}

func TestSetBackendNilKeepsCurrent(t *testing.T) {
	rec := install(t)
	SetBackend(nil)
	RecordInsights("job", 1)
	if len(rec.counters) != 1 {
		t.Fatalf("recorder saw %d calls after SetBackend(nil), want 1", len(rec.counters))
	}
}

func TestRecordStage(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus string
	}{
		{"success", nil, "success"},
		{"failure", errors.New("boom"), "failure"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := install(t)
			RecordStage("job1", "clean", tc.err, 250*time.Millisecond)

			wantLabels := Labels{"job": "job1", "stage": "clean", "status": tc.wantStatus}
			wantCounters := []call{{"retail_stage_total", 1, wantLabels}}
			if !reflect.DeepEqual(rec.counters, wantCounters) {
				t.Errorf("counters = %+v, want %+v", rec.counters, wantCounters)
			}
			wantHistograms := []call{{"retail_stage_duration_seconds", 0.25, wantLabels}}
			if !reflect.DeepEqual(rec.histograms, wantHistograms) {
				t.Errorf("histograms = %+v, want %+v", rec.histograms, wantHistograms)
			}
		})
	}
}

func TestRecordRows(t *testing.T) {
	rec := install(t)
	RecordRows("job1", "rows_dropped", 7)
	RecordRows("job1", "rows_dropped", 0)
	RecordRows("job1", "rows_dropped", -3)

	want := []call{
		{"retail_rows_total", 7, Labels{"job": "job1", "kind": "rows_dropped"}},
	}
	if !reflect.DeepEqual(rec.counters, want) {
		t.Errorf("counters = %+v, want %+v (non-positive deltas skipped)", rec.counters, want)
	}
}

func TestRecordInsights(t *testing.T) {
	rec := install(t)
	RecordInsights("job1", 5)
	RecordInsights("job1", 0)

	want := []call{
		{"retail_insights_total", 5, Labels{"job": "job1"}},
	}
	if !reflect.DeepEqual(rec.counters, want) {
		t.Errorf("counters = %+v, want %+v", rec.counters, want)
	}
}

func TestFlushDelegates(t *testing.T) {
	rec := install(t)
	if err := Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if rec.flushed != 1 {
		t.Errorf("flushed = %d, want 1", rec.flushed)
	}
}
