// Copyright (C) 2016  The CascadeDB Authors.  All rights reserved.
// This file is part of CascadeDB.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package observability holds the client's metrics and tracing handles.
package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var (
	// CacheHits counts region-location cache hits.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cascade",
		Subsystem: "client",
		Name:      "region_cache_hits_total",
		Help:      "Number of region lookups answered from the location cache.",
	})

	// CacheMisses counts region-location cache misses.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cascade",
		Subsystem: "client",
		Name:      "region_cache_misses_total",
		Help:      "Number of region lookups that had to go to a catalog region.",
	})

	// CacheInvalidations counts entries removed from the location cache,
	// by reason.
	CacheInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "cascade",
		Subsystem: "client",
		Name:      "region_cache_invalidations_total",
		Help:      "Number of location cache entries removed.",
	}, []string{"reason"})

	// RetrySleeps counts backoff sleeps taken by the retry driver and the
	// batch engine.
	RetrySleeps = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cascade",
		Subsystem: "client",
		Name:      "retry_sleeps_total",
		Help:      "Number of backoff sleeps before a retry.",
	})

	// BatchRounds counts rounds executed by the batch fan-out engine.
	BatchRounds = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "cascade",
		Subsystem: "client",
		Name:      "batch_rounds_total",
		Help:      "Number of fan-out rounds executed for batch operations.",
	})
)

const tracerName = "github.com/cascadedb/cascade-go"

// StartSpan opens a span on the module's tracer.
func StartSpan(ctx context.Context, name string,
	opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, opts...)
}
