// Copyright (C) 2016  The CascadeDB Authors.  All rights reserved.
// This file is part of CascadeDB.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package cascade

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/cascadedb/cascade-go/internal/observability"
	"github.com/cascadedb/cascade-go/region"
	"github.com/cascadedb/cascade-go/zk"
)

// Constants
var (
	// Name of the root catalog table. Its single region holds one row per
	// meta region and is the only region located through the coordination
	// service.
	rootTableName = []byte("cascade:root")

	// Name of the meta catalog table. Its rows are the descriptors of
	// every user-table region.
	metaTableName = []byte("cascade:meta")

	rootRegionInfo = &region.Info{
		Table:    rootTableName,
		Name:     []byte("cascade:root,,0"),
		StartKey: []byte{},
		StopKey:  []byte{},
	}

	infoFamily = region.InfoFamily
)

// locateRegion resolves (table, row) to the location currently hosting the
// row. Root goes through the coordination service, meta through a
// closest-row-before probe against root, user tables through a probe against
// meta. With useCache false the cache is bypassed on the read side but still
// populated with whatever the discovery finds.
func (c *client) locateRegion(ctx context.Context, table, row []byte,
	useCache bool) (*region.Location, error) {
	if c.isClosed() {
		return nil, ErrConnectionClosed
	}
	switch {
	case bytes.Equal(table, rootTableName):
		return c.locateRootRegion(ctx, useCache)
	case bytes.Equal(table, metaTableName):
		return c.locateMetaRegion(ctx, row, useCache)
	default:
		return c.locateUserRegion(ctx, table, row, useCache)
	}
}

// locateRootRegion reads the root-region address from the coordination
// service, retrying with the shared backoff schedule. The root location
// lives outside the per-table cache.
func (c *client) locateRootRegion(ctx context.Context, useCache bool) (*region.Location, error) {
	c.rootMu.Lock()
	defer c.rootMu.Unlock()
	if !useCache {
		c.rootLoc = nil
	}
	if c.rootLoc != nil {
		return c.rootLoc, nil
	}

	var lastErr error
	for tries := 0; tries < c.conf.Retries; tries++ {
		if tries > 0 {
			if err := c.sleepBackoff(ctx, tries-1); err != nil {
				return nil, err
			}
		}
		lookupCtx, cancel := context.WithTimeout(ctx, c.conf.RPCTimeout)
		host, port, err := c.zkClient.LocateResource(lookupCtx, zk.RootRegion)
		cancel()
		if err == nil {
			loc := &region.Location{
				Info: rootRegionInfo,
				Addr: region.ServerAddress{Host: host, Port: port},
			}
			c.rootLoc = loc
			return loc, nil
		}
		if errors.Is(err, zk.ErrSessionLostPermanent) || isInterrupted(err) {
			return nil, err
		}
		log.WithFields(log.Fields{
			"resource": zk.RootRegion,
			"err":      err,
		}).Warn("failed to read root region address")
		lastErr = err
	}
	return nil, fmt.Errorf("cannot locate root region: %w", lastErr)
}

// invalidateRoot forces the next root lookup back to the coordination
// service.
func (c *client) invalidateRoot() {
	c.rootMu.Lock()
	c.rootLoc = nil
	c.rootMu.Unlock()
}

// locateMetaRegion finds the meta region covering the given meta row. At
// most one meta discovery runs at a time; contenders that waited re-check
// the cache before doing their own lookup.
func (c *client) locateMetaRegion(ctx context.Context, row []byte,
	useCache bool) (*region.Location, error) {
	if useCache {
		if loc := c.regions.get(metaTableName, row); loc != nil {
			return loc, nil
		}
	}

	c.metaLookupMu.Lock()
	defer c.metaLookupMu.Unlock()
	if useCache {
		if loc := c.regions.get(metaTableName, row); loc != nil {
			return loc, nil
		}
	}

	ctx, span := observability.StartSpan(ctx, "locateMetaRegion")
	defer span.End()

	var lastErr error
	for tries := 0; tries < c.conf.Retries; tries++ {
		if tries > 0 {
			if err := c.sleepBackoff(ctx, tries-1); err != nil {
				return nil, err
			}
		}
		root, err := c.locateRootRegion(ctx, true)
		if err != nil {
			return nil, err
		}
		loc, err := c.catalogLookup(ctx, root, metaTableName, row)
		if err == nil {
			c.cachePut(loc)
			return loc, nil
		}
		if isDoNotRetry(err) || isInterrupted(err) {
			return nil, err
		}
		if !errors.Is(err, ErrRegionOffline) && !errors.Is(err, ErrNoServerForRegion) {
			// The root location itself may be stale; re-resolve it
			// upward on the next try.
			c.invalidateRoot()
		}
		log.WithFields(log.Fields{
			"row": fmt.Sprintf("%q", row),
			"err": err,
		}).Warn("failed to locate meta region")
		lastErr = err
	}
	return nil, lastErr
}

// locateUserRegion finds the user-table region covering row via the meta
// table, prefetching a window of adjacent descriptors when enabled.
func (c *client) locateUserRegion(ctx context.Context, table, row []byte,
	useCache bool) (*region.Location, error) {
	if useCache {
		if loc := c.regions.get(table, row); loc != nil {
			return loc, nil
		}
	}

	c.userLookupMu.Lock()
	defer c.userLookupMu.Unlock()
	if useCache {
		if loc := c.regions.get(table, row); loc != nil {
			return loc, nil
		}
	}

	ctx, span := observability.StartSpan(ctx, "locateUserRegion")
	defer span.End()

	// The row in meta describing the region covering (table, row) has a
	// key strictly below this probe, and the probe sorts below the next
	// region's row.
	metaProbe := region.SearchKey(table, row)

	var lastErr error
	for tries := 0; tries < c.conf.Retries; tries++ {
		if tries > 0 {
			if err := c.sleepBackoff(ctx, tries-1); err != nil {
				return nil, err
			}
		}
		metaLoc, err := c.locateMetaRegion(ctx, metaProbe, true)
		if err != nil {
			return nil, err
		}

		if c.RegionCachePrefetch(table) {
			c.prefetchRegionCache(ctx, metaLoc, table, row)
			if loc := c.regions.get(table, row); loc != nil {
				return loc, nil
			}
		}

		loc, err := c.catalogLookup(ctx, metaLoc, table, row)
		if err == nil {
			c.cachePut(loc)
			return loc, nil
		}
		if isDoNotRetry(err) || isInterrupted(err) {
			return nil, err
		}
		if !errors.Is(err, ErrRegionOffline) && !errors.Is(err, ErrNoServerForRegion) {
			// The meta entry we consulted may itself be stale.
			c.regions.invalidate(metaTableName, metaProbe, "")
		}
		log.WithFields(log.Fields{
			"table": string(table),
			"key":   fmt.Sprintf("%q", row),
			"err":   err,
		}).Warn("failed to locate region")
		lastErr = err
	}
	return nil, lastErr
}

// catalogLookup asks the server hosting a catalog region (root or meta) for
// the row describing the region of (table, row), and decodes it.
func (c *client) catalogLookup(ctx context.Context, catalog *region.Location,
	table, row []byte) (*region.Location, error) {
	sc, err := c.shardClientFor(ctx, catalog.Addr)
	if err != nil {
		return nil, err
	}

	rpcCtx, cancel := context.WithTimeout(ctx, c.conf.RPCTimeout)
	probe := region.SearchKey(table, row)
	res, err := sc.GetClosestRowBefore(rpcCtx, catalog.Info.Name, probe, infoFamily)
	cancel()
	if err != nil {
		if isTransportDeath(err) {
			c.dropServer(catalog.Addr)
		}
		return nil, err
	}
	if res == nil || len(res.Cells) == 0 {
		return nil, TableNotFound
	}

	info, addr, err := region.ParseCatalogRow(res)
	if err != nil {
		return nil, doNotRetry(err)
	}
	if !bytes.Equal(info.Table, table) {
		// The closest row belongs to another table: the requested
		// table has no regions.
		return nil, TableNotFound
	}
	if info.Offline {
		return nil, fmt.Errorf("%w: %q", ErrRegionOffline, info.Name)
	}
	if addr.IsZero() {
		return nil, fmt.Errorf("%w: %q", ErrNoServerForRegion, info.Name)
	}
	if !info.Covers(row) {
		// A hole in the catalog, usually mid-split; retryable.
		return nil, fmt.Errorf("catalog hole: looked up table=%q key=%q got region=%s",
			table, row, info)
	}
	return &region.Location{Info: info, Addr: addr}, nil
}

// prefetchRegionCache scans up to PrefetchLimit consecutive descriptors of
// the table starting at the requested key and caches every live one. The
// scan stops at the first row of another table and at the first offline
// region. Prefetch is best effort: failures are logged and the caller falls
// back to a single probe.
func (c *client) prefetchRegionCache(ctx context.Context, metaLoc *region.Location,
	table, row []byte) {
	sc, err := c.shardClientFor(ctx, metaLoc.Addr)
	if err != nil {
		return
	}
	rpcCtx, cancel := context.WithTimeout(ctx, c.conf.RPCTimeout)
	rows, err := sc.MetaScan(rpcCtx, metaLoc.Info.Name,
		region.SearchKey(table, row), c.conf.PrefetchLimit)
	cancel()
	if err != nil {
		log.WithFields(log.Fields{
			"table": string(table),
			"err":   err,
		}).Info("region prefetch failed")
		if isTransportDeath(err) {
			c.dropServer(metaLoc.Addr)
		}
		return
	}
	for _, r := range rows {
		info, addr, err := region.ParseCatalogRow(r)
		if err != nil {
			log.WithFields(log.Fields{
				"row": fmt.Sprintf("%q", r.Key),
				"err": err,
			}).Info("skipping corrupt catalog row during prefetch")
			return
		}
		if !bytes.Equal(info.Table, table) || info.Offline {
			return
		}
		if addr.IsZero() {
			// In transition; nothing worth caching.
			continue
		}
		c.cachePut(&region.Location{Info: info, Addr: addr})
	}
}

// cachePut publishes a freshly discovered location and clears any dead mark
// for its server: a catalog row naming the server is the cluster telling us
// it is alive again.
func (c *client) cachePut(loc *region.Location) {
	c.regions.put(loc)
	c.deadMu.Lock()
	delete(c.dead, loc.Addr.String())
	c.deadMu.Unlock()
}

// shardClientFor returns the pooled stub for a server, creating it on first
// use.
func (c *client) shardClientFor(ctx context.Context,
	addr region.ServerAddress) (region.ShardClient, error) {
	key := addr.String()
	if sc := c.clients.get(key); sc != nil {
		return sc, nil
	}
	sc, err := region.NewShardClient(ctx, addr, c.conf.RPCTimeout)
	if err != nil {
		if isDoNotRetry(err) {
			return nil, err
		}
		return nil, fmt.Errorf("cannot connect to shard server %s: %w", key, err)
	}
	if existing := c.clients.put(key, sc); existing != sc {
		sc.Close()
		sc = existing
	}
	return sc, nil
}

// dropServer declares a server dead: every cached location pointing at it is
// removed, its pooled stub is closed and the address is remembered as dead
// until a catalog row names it again.
func (c *client) dropServer(addr region.ServerAddress) {
	key := addr.String()
	n := c.regions.dropServer(key)
	if sc := c.clients.del(key); sc != nil {
		sc.Close()
	}
	c.deadMu.Lock()
	c.dead[key] = struct{}{}
	c.deadMu.Unlock()
	log.WithFields(log.Fields{
		"server":  key,
		"dropped": n,
	}).Info("dropped all cached locations for dead server")
}
