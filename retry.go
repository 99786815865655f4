// Copyright (C) 2016  The CascadeDB Authors.  All rights reserved.
// This file is part of CascadeDB.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package cascade

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/cascadedb/cascade-go/internal/observability"
	"github.com/cascadedb/cascade-go/region"
)

// retryBackoff is the shared backoff schedule. The sleep that follows failed
// try n (counting from zero) lasts retryBackoff[min(n, len-1)] times the
// configured base pause.
var retryBackoff = []time.Duration{1, 1, 1, 2, 2, 4, 4, 8, 16, 32}

func backoffFor(tries int) time.Duration {
	if tries >= len(retryBackoff) {
		tries = len(retryBackoff) - 1
	}
	return retryBackoff[tries]
}

// sleepBackoff sleeps for the tries-th step of the schedule, or returns
// early with the context's error.
func (c *client) sleepBackoff(ctx context.Context, tries int) error {
	observability.RetrySleeps.Inc()
	select {
	case <-time.After(backoffFor(tries) * c.conf.Pause):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// A ServerCallable is a single-row operation that can re-bind itself to
// whichever server currently hosts its row.
type ServerCallable struct {
	Table []byte
	Row   []byte

	// Call performs the operation against the given location using the
	// stub bound to its server. The context already carries the per-RPC
	// deadline.
	Call func(ctx context.Context, loc *region.Location, sc region.ShardClient) (interface{}, error)
}

// invoke resolves the stub for the location and performs one attempt.
func (c *client) invoke(ctx context.Context, op *ServerCallable,
	loc *region.Location) (interface{}, error) {
	sc, err := c.shardClientFor(ctx, loc.Addr)
	if err != nil {
		return nil, err
	}
	rpcCtx, cancel := context.WithTimeout(ctx, c.conf.RPCTimeout)
	defer cancel()
	return op.Call(rpcCtx, loc, sc)
}

// WithRetries runs the operation until it succeeds, its failure is hopeless,
// the try budget is spent, or the wall-clock deadline passes. A stale
// location is invalidated and re-resolved between attempts; the sleep is
// skipped when the re-resolved server differs from the one that failed,
// because there is fresh information worth acting on immediately.
func (c *client) WithRetries(ctx context.Context, op *ServerCallable) (interface{}, error) {
	if c.isClosed() {
		return nil, ErrConnectionClosed
	}
	loc, err := c.locateRegion(ctx, op.Table, op.Row, true)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	var trail []error
	for tries := 0; ; tries++ {
		if loc == nil {
			var lerr error
			loc, lerr = c.locateRegion(ctx, op.Table, op.Row, true)
			if lerr != nil {
				if isDoNotRetry(lerr) || isInterrupted(lerr) {
					return nil, lerr
				}
				trail = append(trail, lerr)
				if tries >= c.conf.Retries-1 ||
					(c.conf.RPCRetryTimeout > 0 && time.Since(start) >= c.conf.RPCRetryTimeout) {
					return nil, RetriesExhaustedError{Tries: tries + 1, Trail: trail}
				}
				if err := c.sleepBackoff(ctx, tries); err != nil {
					return nil, err
				}
				continue
			}
		}
		res, err := c.invoke(ctx, op, loc)
		if err == nil {
			return res, nil
		}
		if isInterrupted(err) {
			return nil, err
		}
		if isDoNotRetry(err) {
			if isNotServing(err) {
				c.regions.invalidate(op.Table, op.Row, loc.Addr.String())
			}
			return nil, err
		}
		if isNotServing(err) {
			c.regions.invalidate(op.Table, op.Row, loc.Addr.String())
		} else if isTransportDeath(err) {
			c.dropServer(loc.Addr)
		}
		trail = append(trail, err)
		log.WithFields(log.Fields{
			"table": string(op.Table),
			"key":   string(op.Row),
			"try":   tries,
			"err":   err,
		}).Warn("operation failed, will retry")

		if tries >= c.conf.Retries-1 {
			return nil, RetriesExhaustedError{Tries: tries + 1, Trail: trail}
		}
		if c.conf.RPCRetryTimeout > 0 && time.Since(start) >= c.conf.RPCRetryTimeout {
			return nil, RetriesExhaustedError{Tries: tries + 1, Trail: trail}
		}

		prev := loc.Addr
		// Not forcing a reload: a peer thread may already have fixed
		// the cache for us.
		loc, err = c.locateRegion(ctx, op.Table, op.Row, true)
		if err != nil {
			if isDoNotRetry(err) || isInterrupted(err) {
				return nil, err
			}
			// Resolved again at the top of the next iteration.
			loc = nil
			continue
		}
		if loc.Addr == prev {
			if err := c.sleepBackoff(ctx, tries); err != nil {
				return nil, err
			}
		}
	}
}

// WithoutRetries runs the operation exactly once. Any transport-level
// failure makes the target server's cached state suspect, so every location
// pointing at it is dropped before the failure is surfaced.
func (c *client) WithoutRetries(ctx context.Context, op *ServerCallable) (interface{}, error) {
	if c.isClosed() {
		return nil, ErrConnectionClosed
	}
	loc, err := c.locateRegion(ctx, op.Table, op.Row, true)
	if err != nil {
		return nil, err
	}
	res, err := c.invoke(ctx, op, loc)
	if err != nil && isTransportDeath(err) {
		c.dropServer(loc.Addr)
	}
	return res, err
}
