package query

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	metricsOnce  sync.Once
	queryFetches metric.Int64Counter
)

func initMetrics() {
	metricsOnce.Do(func() {
		meter := otel.Meter("github.com/campusql/campusql-go/internal/query")

		var err error
		queryFetches, err = meter.Int64Counter(
			"query.fetches",
			metric.WithDescription("Query cache fetches by outcome"),
		)
		if err != nil {
			otel.Handle(err)
		}
	})
}

// recordFetch counts one fetch outcome: hit, miss, error or refetch.
func recordFetch(ctx context.Context, status string) {
	initMetrics()
	if queryFetches == nil {
		return
	}
	queryFetches.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("query.status", status),
		),
	)
}
