// Copyright (C) 2016  The CascadeDB Authors.  All rights reserved.
// This file is part of CascadeDB.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package cascade

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"

	"github.com/cascadedb/cascade-go/pb"
	"github.com/cascadedb/cascade-go/region"
)

func TestBackoffSchedule(t *testing.T) {
	want := []time.Duration{1, 1, 1, 2, 2, 4, 4, 8, 16, 32}
	for i, w := range want {
		if got := backoffFor(i); got != w {
			t.Errorf("backoffFor(%d) = %d, want %d", i, got, w)
		}
	}
	// Past the end of the schedule the last step repeats.
	if got := backoffFor(100); got != 32 {
		t.Errorf("backoffFor(100) = %d, want 32", got)
	}
}

// Move-during-call: the server answers "not serving", the driver invalidates
// the stale entry, re-resolves, and retries immediately on the new server.
func TestWithRetriesRegionMoved(t *testing.T) {
	users := []byte("users")
	c := newTestClient(nil)
	// A sleep would make the test visibly slow; the moved-region retry
	// must not take one.
	c.conf.Pause = 2 * time.Second
	c.SetRegionCachePrefetch(users, false)
	c.cachePut(mkLocation(metaRegionInfo(), "meta-srv:6001"))
	c.cachePut(mkLocation(mkRegion("users", "a", "z", 7), "s1:6002"))

	metaSrv := &fakeShard{
		addr: region.ServerAddress{Host: "meta-srv", Port: 6001},
		crb: func(ctx context.Context, regionName, probe []byte, family string) (*pb.Row, error) {
			return catalogRow(mkRegion("users", "a", "z", 8), "s2:6002"), nil
		},
	}
	stubShardClients(t, func(addr region.ServerAddress) region.ShardClient {
		if addr.String() == "meta-srv:6001" {
			return metaSrv
		}
		return &fakeShard{addr: addr}
	})

	var attempts []string
	op := &ServerCallable{
		Table: users,
		Row:   []byte("g"),
		Call: func(ctx context.Context, loc *region.Location, sc region.ShardClient) (interface{}, error) {
			attempts = append(attempts, loc.Addr.String())
			if loc.Addr.String() == "s1:6002" {
				return nil, region.NotServingRegionError{Cause: errors.New("moved")}
			}
			return "ok", nil
		},
	}

	start := time.Now()
	res, err := c.WithRetries(context.Background(), op)
	if err != nil {
		t.Fatal(err)
	}
	if res != "ok" {
		t.Errorf("res = %v", res)
	}
	if len(attempts) != 2 || attempts[0] != "s1:6002" || attempts[1] != "s2:6002" {
		t.Errorf("attempts = %v, want [s1 s2]", attempts)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("retry slept for %s; a changed server must retry immediately", elapsed)
	}
	if got := c.regions.get(users, []byte("g")); got == nil || got.Addr.String() != "s2:6002" {
		t.Errorf("final cache entry %v, want s2", got)
	}
}

// Dead server: a connect-refused on one call drops every cached entry for
// that server.
func TestWithoutRetriesDropsDeadServer(t *testing.T) {
	users := []byte("users")
	c := newTestClient(nil)
	s1 := "s1:6002"
	c.cachePut(mkLocation(mkRegion("users", "", "f", 1), s1))
	c.cachePut(mkLocation(mkRegion("users", "f", "m", 1), s1))
	c.cachePut(mkLocation(mkRegion("users", "m", "", 1), s1))

	shard := &fakeShard{addr: region.ServerAddress{Host: "s1", Port: 6002}}
	stubShardClients(t, func(addr region.ServerAddress) region.ShardClient {
		return shard
	})

	op := &ServerCallable{
		Table: users,
		Row:   []byte("g"),
		Call: func(ctx context.Context, loc *region.Location, sc region.ShardClient) (interface{}, error) {
			return nil, fmt.Errorf("dial s1:6002: %w", syscall.ECONNREFUSED)
		},
	}
	_, err := c.WithoutRetries(context.Background(), op)
	if !errors.Is(err, syscall.ECONNREFUSED) {
		t.Fatalf("err = %v", err)
	}

	if c.regions.knownServer(s1) {
		t.Error("s1 should be unknown after the transport failure")
	}
	for _, key := range []string{"a", "g", "z"} {
		if loc := c.regions.get(users, []byte(key)); loc != nil {
			t.Errorf("entry for %q survived: %v", key, loc)
		}
	}
	addr, _ := region.ParseServerAddress(s1)
	if !c.IsDeadServer(addr) {
		t.Error("s1 should be marked dead")
	}
	if shard.closed == 0 {
		t.Error("the pooled stub for s1 should have been closed")
	}
}

// The same transport failure inside WithRetries drops the server and then
// recovers through a fresh resolve.
func TestWithRetriesRecoversFromDeadServer(t *testing.T) {
	users := []byte("users")
	c := newTestClient(nil)
	c.SetRegionCachePrefetch(users, false)
	c.cachePut(mkLocation(metaRegionInfo(), "meta-srv:6001"))
	c.cachePut(mkLocation(mkRegion("users", "a", "z", 7), "s1:6002"))

	metaSrv := &fakeShard{
		addr: region.ServerAddress{Host: "meta-srv", Port: 6001},
		crb: func(ctx context.Context, regionName, probe []byte, family string) (*pb.Row, error) {
			return catalogRow(mkRegion("users", "a", "z", 8), "s2:6002"), nil
		},
	}
	stubShardClients(t, func(addr region.ServerAddress) region.ShardClient {
		if addr.String() == "meta-srv:6001" {
			return metaSrv
		}
		return &fakeShard{addr: addr}
	})

	op := &ServerCallable{
		Table: users,
		Row:   []byte("g"),
		Call: func(ctx context.Context, loc *region.Location, sc region.ShardClient) (interface{}, error) {
			if loc.Addr.String() == "s1:6002" {
				return nil, region.ServerError{Cause: errors.New("channel closed")}
			}
			return "ok", nil
		},
	}
	res, err := c.WithRetries(context.Background(), op)
	if err != nil {
		t.Fatal(err)
	}
	if res != "ok" {
		t.Errorf("res = %v", res)
	}
	if c.regions.knownServer("s1:6002") {
		t.Error("s1 should have been dropped")
	}
}

// A do-not-retry failure wrapping "not serving" still invalidates the stale
// entry before surfacing.
func TestWithRetriesDoNotRetryInvalidates(t *testing.T) {
	users := []byte("users")
	c := newTestClient(nil)
	c.cachePut(mkLocation(mkRegion("users", "a", "z", 7), "s1:6002"))
	stubShardClients(t, func(addr region.ServerAddress) region.ShardClient {
		return &fakeShard{addr: addr}
	})

	var calls int
	op := &ServerCallable{
		Table: users,
		Row:   []byte("g"),
		Call: func(ctx context.Context, loc *region.Location, sc region.ShardClient) (interface{}, error) {
			calls++
			return nil, DoNotRetryError{
				Cause: region.NotServingRegionError{Cause: errors.New("gone")},
			}
		},
	}
	_, err := c.WithRetries(context.Background(), op)
	if !isDoNotRetry(err) {
		t.Fatalf("err = %v, want do-not-retry", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if loc := c.regions.get(users, []byte("g")); loc != nil {
		t.Errorf("stale entry should have been invalidated, found %v", loc)
	}
}

// Exhaustion carries the ordered failure trail.
func TestWithRetriesExhausted(t *testing.T) {
	users := []byte("users")
	c := newTestClient(nil)
	c.conf.Retries = 3
	c.cachePut(mkLocation(mkRegion("users", "a", "z", 7), "s1:6002"))
	stubShardClients(t, func(addr region.ServerAddress) region.ShardClient {
		return &fakeShard{addr: addr}
	})

	var calls int
	op := &ServerCallable{
		Table: users,
		Row:   []byte("g"),
		Call: func(ctx context.Context, loc *region.Location, sc region.ShardClient) (interface{}, error) {
			calls++
			return nil, fmt.Errorf("flaky failure %d", calls)
		},
	}
	_, err := c.WithRetries(context.Background(), op)
	var re RetriesExhaustedError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want RetriesExhaustedError", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if len(re.Trail) != 3 {
		t.Errorf("trail has %d entries, want 3", len(re.Trail))
	}
	for i, e := range re.Trail {
		want := fmt.Sprintf("flaky failure %d", i+1)
		if e.Error() != want {
			t.Errorf("trail[%d] = %q, want %q", i, e, want)
		}
	}
}

// The wall-clock deadline cuts the loop short even with budget left.
func TestWithRetriesDeadline(t *testing.T) {
	users := []byte("users")
	c := newTestClient(nil)
	c.conf.RPCRetryTimeout = time.Nanosecond
	c.cachePut(mkLocation(mkRegion("users", "a", "z", 7), "s1:6002"))
	stubShardClients(t, func(addr region.ServerAddress) region.ShardClient {
		return &fakeShard{addr: addr}
	})

	var calls int
	op := &ServerCallable{
		Table: users,
		Row:   []byte("g"),
		Call: func(ctx context.Context, loc *region.Location, sc region.ShardClient) (interface{}, error) {
			calls++
			time.Sleep(time.Millisecond)
			return nil, errors.New("slow failure")
		},
	}
	_, err := c.WithRetries(context.Background(), op)
	var re RetriesExhaustedError
	if !errors.As(err, &re) {
		t.Fatalf("err = %v, want RetriesExhaustedError", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

// Cancellation surfaces unchanged so callers can tell an interrupt from a
// cluster failure.
func TestWithRetriesInterrupted(t *testing.T) {
	users := []byte("users")
	c := newTestClient(nil)
	c.cachePut(mkLocation(mkRegion("users", "a", "z", 7), "s1:6002"))
	stubShardClients(t, func(addr region.ServerAddress) region.ShardClient {
		return &fakeShard{addr: addr}
	})

	ctx, cancel := context.WithCancel(context.Background())
	op := &ServerCallable{
		Table: users,
		Row:   []byte("g"),
		Call: func(ctx context.Context, loc *region.Location, sc region.ShardClient) (interface{}, error) {
			cancel()
			return nil, ctx.Err()
		},
	}
	_, err := c.WithRetries(ctx, op)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
