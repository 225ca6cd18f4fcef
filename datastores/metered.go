package datastores

import (
	"context"
	"strings"
	"time"

	"github.com/VictoriaMetrics/metrics"
)

// Metered wraps a [RecordStore] and records per-collection operation
// counts, failures and durations.
type Metered struct {
	RecordStore
	set *metrics.Set
}

var _ RecordStore = (*Metered)(nil)

var meteredBuckets = metrics.ExponentialBuckets(1e-4, 5, 6) //nolint: gochecknoglobals,mnd // arbitrary

func NewMetered(s RecordStore, set *metrics.Set) *Metered {
	return &Metered{RecordStore: s, set: set}
}

func (s *Metered) Load(ctx context.Context, collection string) ([]byte, error) {
	start := time.Now()
	data, err := s.RecordStore.Load(ctx, collection)
	s.observe("load", collection, start, err)
	return data, err
}

func (s *Metered) Save(ctx context.Context, docs ...Document) error {
	start := time.Now()
	err := s.RecordStore.Save(ctx, docs...)
	names := make([]string, 0, len(docs))
	for _, d := range docs {
		names = append(names, d.Collection)
	}
	s.observe("save", strings.Join(names, "+"), start, err)
	return err
}

func (s *Metered) observe(op, collection string, start time.Time, err error) {
	labels := `{op="` + op + `",collection="` + collection + `"}`
	s.set.GetOrCreateCounter(`record_store_operations_total` + labels).Inc()
	if err != nil {
		s.set.GetOrCreateCounter(`record_store_errors_total` + labels).Inc()
	}
	s.set.GetOrCreatePrometheusHistogramExt(`record_store_duration_seconds`+labels, meteredBuckets).UpdateDuration(start)
}
