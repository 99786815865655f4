// Copyright (C) 2016  The CascadeDB Authors.  All rights reserved.
// This file is part of CascadeDB.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package cascade

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/cascadedb/cascade-go/internal/observability"
	"github.com/cascadedb/cascade-go/pb"
	"github.com/cascadedb/cascade-go/region"
)

// A Pool runs the per-server sub-requests of a batch. Submit schedules the
// task and returns without waiting for it.
type Pool interface {
	Submit(task func())
}

type goPool struct {
	sem chan struct{}
}

// NewPool returns a Pool running at most size tasks concurrently on plain
// goroutines.
func NewPool(size int) Pool {
	if size < 1 {
		size = 1
	}
	return &goPool{sem: make(chan struct{}, size)}
}

func (p *goPool) Submit(task func()) {
	go func() {
		p.sem <- struct{}{}
		defer func() { <-p.sem }()
		task()
	}()
}

// regionBatch is the slice of one round aimed at one region: the actions and
// the original indices they came from.
type regionBatch struct {
	name    []byte
	actions []*pb.Action
}

// serverBatch groups a round's region batches by hosting server.
type serverBatch struct {
	addr    region.ServerAddress
	regions []*regionBatch

	resp *pb.MultiResponse
	err  error
}

// BatchGets fetches many rows of one table in parallel. results must have
// the same length as gets; on return every slot holds the fetched row or is
// left nil if that item ultimately failed. The error reports items that
// stayed unsatisfied after the retry budget.
func (c *client) BatchGets(ctx context.Context, gets []*pb.Get, table []byte,
	pool Pool, results []*pb.Row) error {
	if len(results) != len(gets) {
		return doNotRetry(fmt.Errorf("results slice has length %d, want %d",
			len(results), len(gets)))
	}
	actions := make([]*pb.Action, len(gets))
	for i, g := range gets {
		actions[i] = &pb.Action{Index: uint32(i), Get: g}
	}
	return c.processBatch(ctx, table, pool, actions, func(idx uint32, row *pb.Row) {
		results[idx] = row
	})
}

// BatchMutations applies many puts and deletes to one table in parallel and
// returns the mutations that could not be applied. Applied and failed items
// are identified by their position in muts.
func (c *client) BatchMutations(ctx context.Context, muts []pb.Mutation, table []byte,
	pool Pool) ([]pb.Mutation, error) {
	actions := make([]*pb.Action, len(muts))
	for i, m := range muts {
		a := &pb.Action{Index: uint32(i)}
		switch m := m.(type) {
		case *pb.Put:
			a.Put = m
		case *pb.Delete:
			a.Delete = m
		default:
			return muts, doNotRetry(fmt.Errorf("unsupported mutation type %T", m))
		}
		actions[i] = a
	}
	unsatisfied, err := c.runBatch(ctx, table, pool, actions, nil)
	failed := make([]pb.Mutation, 0, len(unsatisfied))
	for _, a := range unsatisfied {
		failed = append(failed, muts[a.Index])
	}
	return failed, err
}

// processBatch runs the rounds and reports unsatisfied reads through the
// error only; fetched rows are delivered through place.
func (c *client) processBatch(ctx context.Context, table []byte, pool Pool,
	actions []*pb.Action, place func(idx uint32, row *pb.Row)) error {
	_, err := c.runBatch(ctx, table, pool, actions, place)
	return err
}

// runBatch drives the fan-out rounds. Each round locates every remaining
// item afresh, groups items by server, dispatches one multi-action per
// server on the pool, and feeds whatever failed into the next round. It
// returns the actions that stayed unsatisfied.
func (c *client) runBatch(ctx context.Context, table []byte, pool Pool,
	actions []*pb.Action, place func(idx uint32, row *pb.Row)) ([]*pb.Action, error) {
	if c.isClosed() {
		return actions, ErrConnectionClosed
	}
	ctx, span := observability.StartSpan(ctx, "batch")
	defer span.End()

	working := actions
	var trail []error
	for tries := 0; tries < c.conf.Retries && len(working) > 0; tries++ {
		if tries > 1 {
			// The first retry goes out immediately: the relocation
			// after an invalidation is fresh information. Later
			// rounds back off.
			if err := c.sleepBackoff(ctx, tries-1); err != nil {
				return working, err
			}
		}
		observability.BatchRounds.Inc()

		next, err := c.batchRound(ctx, table, pool, working, place, &trail)
		if err != nil {
			return working, err
		}
		working = next
	}
	if len(working) > 0 {
		return working, RetriesExhaustedError{Tries: c.conf.Retries, Trail: trail}
	}
	return nil, nil
}

// batchRound executes one split/dispatch/gather cycle and returns the
// actions for the next round.
func (c *client) batchRound(ctx context.Context, table []byte, pool Pool,
	working []*pb.Action, place func(idx uint32, row *pb.Row),
	trail *[]error) ([]*pb.Action, error) {

	var next []*pb.Action

	// Split: group by server, then by region within the server. Locations
	// are resolved fresh each round; the invalidations of the previous
	// gather have made cached entries untrustworthy.
	servers := make(map[string]*serverBatch)
	var order []*serverBatch
	for _, a := range working {
		loc, err := c.locateRegion(ctx, table, a.Row(), false)
		if err != nil {
			if isDoNotRetry(err) || isInterrupted(err) {
				return nil, err
			}
			*trail = append(*trail, err)
			next = append(next, a)
			continue
		}
		sb, ok := servers[loc.Addr.String()]
		if !ok {
			sb = &serverBatch{addr: loc.Addr}
			servers[loc.Addr.String()] = sb
			order = append(order, sb)
		}
		var rb *regionBatch
		for _, r := range sb.regions {
			if string(r.name) == string(loc.Info.Name) {
				rb = r
				break
			}
		}
		if rb == nil {
			rb = &regionBatch{name: loc.Info.Name}
			sb.regions = append(sb.regions, rb)
		}
		rb.actions = append(rb.actions, a)
	}

	// Dispatch: one task per server. A single server runs inline in the
	// caller's thread to avoid the pool hop.
	if len(order) == 1 {
		c.sendMulti(ctx, order[0])
	} else if len(order) > 1 {
		var wg sync.WaitGroup
		for _, sb := range order {
			sb := sb
			wg.Add(1)
			pool.Submit(func() {
				defer wg.Done()
				c.sendMulti(ctx, sb)
			})
		}
		wg.Wait()
	}

	// Gather.
	for _, sb := range order {
		if sb.err != nil {
			if isInterrupted(sb.err) || isDoNotRetry(sb.err) {
				return nil, sb.err
			}
			// The whole server failed this round: every one of its
			// items goes around again.
			*trail = append(*trail, sb.err)
			if isTransportDeath(sb.err) {
				c.dropServer(sb.addr)
			} else {
				for _, rb := range sb.regions {
					c.regions.invalidate(table, rb.actions[0].Row(),
						sb.addr.String())
				}
			}
			for _, rb := range sb.regions {
				next = append(next, rb.actions...)
			}
			continue
		}
		for _, rb := range sb.regions {
			res := findRegionResult(sb.resp, rb.name)
			if res == nil {
				*trail = append(*trail, fmt.Errorf(
					"server %s returned no result for region %q",
					sb.addr, rb.name))
				c.regions.invalidate(table, rb.actions[0].Row(), sb.addr.String())
				next = append(next, rb.actions...)
				continue
			}
			k := int(res.SuccessCount)
			if k > len(rb.actions) {
				k = len(rb.actions)
			}
			if place != nil {
				for i := 0; i < k && i < len(res.Rows); i++ {
					place(rb.actions[i].Index, res.Rows[i])
				}
			}
			if k < len(rb.actions) {
				// Items past the success count did not run; the
				// region's location is suspect.
				*trail = append(*trail, fmt.Errorf(
					"region %q on %s applied %d of %d actions",
					rb.name, sb.addr, k, len(rb.actions)))
				c.regions.invalidate(table, rb.actions[k].Row(), sb.addr.String())
				next = append(next, rb.actions[k:]...)
			}
		}
	}

	if len(next) > 0 {
		log.WithFields(log.Fields{
			"table":     string(table),
			"remaining": len(next),
		}).Info("batch round left items unsatisfied, retrying")
	}
	return next, nil
}

// sendMulti ships one server's slice of the round and records the outcome
// in place.
func (c *client) sendMulti(ctx context.Context, sb *serverBatch) {
	sc, err := c.shardClientFor(ctx, sb.addr)
	if err != nil {
		sb.err = err
		return
	}
	ma := &pb.MultiAction{}
	for _, rb := range sb.regions {
		ma.Actions = append(ma.Actions, &pb.RegionAction{
			Region:  rb.name,
			Actions: rb.actions,
		})
	}
	rpcCtx, cancel := context.WithTimeout(ctx, c.conf.RPCTimeout)
	sb.resp, sb.err = sc.MultiAction(rpcCtx, ma)
	cancel()
	if sb.err == nil && sb.resp == nil {
		sb.err = fmt.Errorf("server %s returned an empty multi-action response", sb.addr)
	}
}

func findRegionResult(resp *pb.MultiResponse, name []byte) *pb.RegionActionResult {
	for _, r := range resp.Results {
		if string(r.Region) == string(name) {
			return r
		}
	}
	return nil
}
