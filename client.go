// Copyright (C) 2016  The CascadeDB Authors.  All rights reserved.
// This file is part of CascadeDB.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package cascade is the client-side cluster connection core of CascadeDB:
// region-location discovery and caching, master discovery through the
// coordination service, retry control for single-row operations and
// parallel fan-out for batches.
package cascade

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/cascadedb/cascade-go/pb"
	"github.com/cascadedb/cascade-go/region"
	"github.com/cascadedb/cascade-go/zk"
)

// A Client is one logical connection to a cluster. It owns the region
// location cache, the pooled server stubs, the shared master proxy and the
// coordination-service session, and is safe for concurrent use. Table
// façades and administrative tools are built on top of this surface.
type Client interface {
	// Conf returns the configuration the connection was created with.
	Conf() *Conf

	// IsMasterRunning reports whether a live master is reachable.
	IsMasterRunning(ctx context.Context) (bool, error)

	// ListTables returns the descriptors of every table in the cluster.
	ListTables(ctx context.Context) ([]*pb.TableDescriptor, error)

	// GetTableDescriptor returns one table's descriptor.
	GetTableDescriptor(ctx context.Context, table []byte) (*pb.TableDescriptor, error)

	// IsTableEnabled reports whether the table is fully enabled.
	IsTableEnabled(ctx context.Context, table []byte) (bool, error)

	// IsTableDisabled reports whether the table is fully disabled.
	IsTableDisabled(ctx context.Context, table []byte) (bool, error)

	// IsTableAvailable reports whether every region of the table is
	// assigned to a live server.
	IsTableAvailable(ctx context.Context, table []byte) (bool, error)

	// IsTableAvailableWithSplitKeys additionally verifies that the table
	// has exactly one region per requested split point.
	IsTableAvailableWithSplitKeys(ctx context.Context, table []byte,
		splitKeys [][]byte) (bool, error)

	// LocateRegion resolves the region containing row, consulting the
	// cache first.
	LocateRegion(ctx context.Context, table, row []byte) (*region.Location, error)

	// RelocateRegion resolves the region containing row, bypassing the
	// cache.
	RelocateRegion(ctx context.Context, table, row []byte) (*region.Location, error)

	// LocateRegionByName resolves a region from its full name.
	LocateRegionByName(ctx context.Context, regionName []byte) (*region.Location, error)

	// LocateRegions lists the locations of every live region of a table.
	LocateRegions(ctx context.Context, table []byte) ([]*region.Location, error)

	// LocateRegionsOpts is LocateRegions with explicit cache and offline
	// handling.
	LocateRegionsOpts(ctx context.Context, table []byte,
		useCache, includeOffline bool) ([]*region.Location, error)

	// ClearRegionCache empties the whole location cache, including the
	// root location.
	ClearRegionCache()

	// ClearRegionCacheForTable removes every cached location of one
	// table.
	ClearRegionCacheForTable(table []byte)

	// DropCachedLocation removes one cached location, unless a fresher
	// entry for the same range already replaced it.
	DropCachedLocation(loc *region.Location)

	// ClearCaches removes every cached location hosted by the server.
	ClearCaches(server region.ServerAddress)

	// ShardClient returns the pooled stub for a shard server.
	ShardClient(ctx context.Context, server region.ServerAddress) (region.ShardClient, error)

	// ShardAdmin returns the pooled stub for administrative calls,
	// optionally verifying first that a master is running.
	ShardAdmin(ctx context.Context, server region.ServerAddress,
		checkMaster bool) (region.ShardClient, error)

	// KeepAliveMasterMonitor returns the shared master proxy for
	// monitoring reads.
	KeepAliveMasterMonitor(ctx context.Context) (region.MasterClient, error)

	// KeepAliveMasterAdmin returns the shared master proxy for
	// administrative calls.
	KeepAliveMasterAdmin(ctx context.Context) (region.MasterClient, error)

	// IsDeadServer reports whether the server was recently declared dead
	// and has not reappeared in the catalog since.
	IsDeadServer(server region.ServerAddress) bool

	// SetRegionCachePrefetch enables or disables prefetch for a table.
	SetRegionCachePrefetch(table []byte, enabled bool)

	// RegionCachePrefetch reports whether prefetch is enabled for a
	// table.
	RegionCachePrefetch(table []byte) bool

	// BatchGets fetches many rows in parallel; see the method on client.
	BatchGets(ctx context.Context, gets []*pb.Get, table []byte,
		pool Pool, results []*pb.Row) error

	// BatchMutations applies many puts and deletes in parallel and
	// returns the ones that failed.
	BatchMutations(ctx context.Context, muts []pb.Mutation, table []byte,
		pool Pool) ([]pb.Mutation, error)

	// WithRetries runs a single-row operation with relocation and
	// backoff.
	WithRetries(ctx context.Context, op *ServerCallable) (interface{}, error)

	// WithoutRetries runs a single-row operation exactly once, declaring
	// the target server dead on transport failures.
	WithoutRetries(ctx context.Context, op *ServerCallable) (interface{}, error)

	// Close tears the connection down: coordination session, pooled
	// stubs, master proxy, caches.
	Close() error

	// IsClosed reports whether Close or Abort ran.
	IsClosed() bool

	// Abort logs the fatal condition and closes the connection.
	Abort(msg string, cause error)
}

type client struct {
	conf     *Conf
	zkClient zk.Client

	regions keyRegionCache
	clients clientCache

	rootMu  sync.Mutex
	rootLoc *region.Location

	// One discovery at a time per catalog level; contenders re-check the
	// cache after acquiring.
	metaLookupMu sync.Mutex
	userLookupMu sync.Mutex

	masterMu       sync.Mutex
	masterCond     *sync.Cond
	master         region.MasterClient
	masterChecked  bool
	masterInflight bool

	prefetchMu  sync.Mutex
	prefetchOff map[string]struct{}

	deadMu sync.Mutex
	dead   map[string]struct{}

	closedMu sync.Mutex
	closed   bool
}

var _ Client = (*client)(nil)

// NewClient creates a connection for the given conf. Nothing is dialed
// until the first operation needs it.
func NewClient(conf *Conf) (Client, error) {
	conf.applyDefaults()
	c := newClient(conf)
	c.zkClient = zk.NewSession(conf.Quorum, conf.SessionTimeout, conf.MaxCoordReconnection)
	return c, nil
}

func newClient(conf *Conf) *client {
	c := &client{
		conf:        conf,
		regions:     newKeyRegionCache(),
		clients:     newClientCache(),
		prefetchOff: make(map[string]struct{}),
		dead:        make(map[string]struct{}),
	}
	c.masterCond = sync.NewCond(&c.masterMu)
	return c
}

func (c *client) Conf() *Conf { return c.conf }

func (c *client) isClosed() bool {
	c.closedMu.Lock()
	defer c.closedMu.Unlock()
	return c.closed
}

// IsClosed implements Client.
func (c *client) IsClosed() bool { return c.isClosed() }

// Close implements Client.
func (c *client) Close() error {
	c.closedMu.Lock()
	if c.closed {
		c.closedMu.Unlock()
		return nil
	}
	c.closed = true
	c.closedMu.Unlock()

	// Wake anyone parked on master discovery so they observe the close.
	c.masterMu.Lock()
	m := c.master
	c.master = nil
	c.masterChecked = false
	c.masterCond.Broadcast()
	c.masterMu.Unlock()
	if m != nil {
		m.Close()
	}

	c.clients.closeAll()
	c.regions.dropAll()
	c.invalidateRoot()
	if c.zkClient != nil {
		c.zkClient.Close()
	}
	return nil
}

// Abort implements Client.
func (c *client) Abort(msg string, cause error) {
	log.WithFields(log.Fields{
		"err": cause,
	}).Error(msg)
	c.Close()
}

// LocateRegion implements Client.
func (c *client) LocateRegion(ctx context.Context, table, row []byte) (*region.Location, error) {
	return c.locateRegion(ctx, table, row, true)
}

// RelocateRegion implements Client.
func (c *client) RelocateRegion(ctx context.Context, table, row []byte) (*region.Location, error) {
	return c.locateRegion(ctx, table, row, false)
}

// LocateRegionByName implements Client. Catalog rows are keyed by region
// name, so the region's own meta row is probed directly.
func (c *client) LocateRegionByName(ctx context.Context,
	regionName []byte) (*region.Location, error) {
	if c.isClosed() {
		return nil, ErrConnectionClosed
	}
	if bytes.Equal(regionName, rootRegionInfo.Name) {
		return c.locateRootRegion(ctx, true)
	}
	metaLoc, err := c.locateMetaRegion(ctx, regionName, true)
	if err != nil {
		return nil, err
	}
	sc, err := c.shardClientFor(ctx, metaLoc.Addr)
	if err != nil {
		return nil, err
	}
	rpcCtx, cancel := context.WithTimeout(ctx, c.conf.RPCTimeout)
	res, err := sc.GetClosestRowBefore(rpcCtx, metaLoc.Info.Name, regionName, infoFamily)
	cancel()
	if err != nil {
		if isTransportDeath(err) {
			c.dropServer(metaLoc.Addr)
		}
		return nil, err
	}
	if res == nil || !bytes.Equal(res.Key, regionName) {
		return nil, doNotRetry(fmt.Errorf("region %q not found in catalog", regionName))
	}
	loc, err := region.ParseLocation(res)
	if err != nil {
		return nil, err
	}
	c.cachePut(loc)
	return loc, nil
}

// LocateRegions implements Client.
func (c *client) LocateRegions(ctx context.Context, table []byte) ([]*region.Location, error) {
	return c.LocateRegionsOpts(ctx, table, true, false)
}

// LocateRegionsOpts implements Client.
func (c *client) LocateRegionsOpts(ctx context.Context, table []byte,
	useCache, includeOffline bool) ([]*region.Location, error) {
	if c.isClosed() {
		return nil, ErrConnectionClosed
	}
	if bytes.Equal(table, rootTableName) {
		loc, err := c.locateRootRegion(ctx, useCache)
		if err != nil {
			return nil, err
		}
		return []*region.Location{loc}, nil
	}
	entries, err := c.scanCatalog(ctx, table)
	if err != nil {
		return nil, err
	}
	var out []*region.Location
	for _, e := range entries {
		if e.info.Offline && !includeOffline {
			continue
		}
		if e.addr.IsZero() {
			continue
		}
		loc := &region.Location{Info: e.info, Addr: e.addr}
		if useCache && !e.info.Offline {
			c.cachePut(loc)
		}
		out = append(out, loc)
	}
	return out, nil
}

// catalogEntry is one decoded catalog row; addr is zero while the region is
// unassigned.
type catalogEntry struct {
	info *region.Info
	addr region.ServerAddress
}

// scanCatalog reads every catalog row of one table, paging by
// MetaScannerCaching and following the catalog regions' stop keys. User
// tables are read from meta; the meta table itself is read from root.
func (c *client) scanCatalog(ctx context.Context, table []byte) ([]catalogEntry, error) {
	isMeta := bytes.Equal(table, metaTableName)
	prefix := region.CacheKey(table, nil)
	startRow := prefix
	var out []catalogEntry

	for {
		var catLoc *region.Location
		var err error
		if isMeta {
			catLoc, err = c.locateRootRegion(ctx, true)
		} else {
			catLoc, err = c.locateMetaRegion(ctx, startRow, true)
		}
		if err != nil {
			return nil, err
		}
		sc, err := c.shardClientFor(ctx, catLoc.Addr)
		if err != nil {
			return nil, err
		}

		rpcCtx, cancel := context.WithTimeout(ctx, c.conf.RPCTimeout)
		rows, err := sc.MetaScan(rpcCtx, catLoc.Info.Name, startRow, c.conf.MetaScannerCaching)
		cancel()
		if err != nil {
			if isTransportDeath(err) {
				c.dropServer(catLoc.Addr)
			}
			return nil, err
		}

		for _, r := range rows {
			if !bytes.HasPrefix(r.Key, prefix) {
				return out, nil
			}
			info, addr, err := region.ParseCatalogRow(r)
			if err != nil {
				return nil, doNotRetry(err)
			}
			if !bytes.Equal(info.Table, table) {
				return out, nil
			}
			out = append(out, catalogEntry{info: info, addr: addr})
			startRow = append(append([]byte{}, r.Key...), 0)
		}

		if uint32(len(rows)) < c.conf.MetaScannerCaching {
			// The catalog region is exhausted; continue in the next
			// one unless this was the last.
			if len(catLoc.Info.StopKey) == 0 {
				return out, nil
			}
			if bytes.Compare(startRow, catLoc.Info.StopKey) < 0 {
				startRow = catLoc.Info.StopKey
			}
		}
	}
}

// ListTables implements Client.
func (c *client) ListTables(ctx context.Context) ([]*pb.TableDescriptor, error) {
	m, err := c.getMaster(ctx)
	if err != nil {
		return nil, err
	}
	rpcCtx, cancel := context.WithTimeout(ctx, c.conf.RPCTimeout)
	defer cancel()
	return m.ListTables(rpcCtx)
}

// GetTableDescriptor implements Client.
func (c *client) GetTableDescriptor(ctx context.Context,
	table []byte) (*pb.TableDescriptor, error) {
	m, err := c.getMaster(ctx)
	if err != nil {
		return nil, err
	}
	rpcCtx, cancel := context.WithTimeout(ctx, c.conf.RPCTimeout)
	defer cancel()
	td, err := m.GetTableDescriptor(rpcCtx, table)
	if err != nil {
		return nil, err
	}
	if td == nil {
		return nil, TableNotFound
	}
	return td, nil
}

// IsTableEnabled implements Client.
func (c *client) IsTableEnabled(ctx context.Context, table []byte) (bool, error) {
	state, err := c.tableState(ctx, table)
	if err != nil {
		return false, err
	}
	return state == pb.TableStateEnabled, nil
}

// IsTableDisabled implements Client.
func (c *client) IsTableDisabled(ctx context.Context, table []byte) (bool, error) {
	state, err := c.tableState(ctx, table)
	if err != nil {
		return false, err
	}
	return state == pb.TableStateDisabled, nil
}

func (c *client) tableState(ctx context.Context, table []byte) (pb.TableState, error) {
	m, err := c.getMaster(ctx)
	if err != nil {
		return 0, err
	}
	rpcCtx, cancel := context.WithTimeout(ctx, c.conf.RPCTimeout)
	defer cancel()
	return m.GetTableState(rpcCtx, table)
}

// IsTableAvailable implements Client.
func (c *client) IsTableAvailable(ctx context.Context, table []byte) (bool, error) {
	return c.tableAvailable(ctx, table, nil)
}

// IsTableAvailableWithSplitKeys implements Client.
func (c *client) IsTableAvailableWithSplitKeys(ctx context.Context, table []byte,
	splitKeys [][]byte) (bool, error) {
	return c.tableAvailable(ctx, table, splitKeys)
}

// tableAvailable walks the table's catalog rows: the table is available
// when it has regions, none is offline, and every one is assigned. With
// split keys, the region boundaries must also match: one region starting at
// each split key plus the first region.
func (c *client) tableAvailable(ctx context.Context, table []byte,
	splitKeys [][]byte) (bool, error) {
	if c.isClosed() {
		return false, ErrConnectionClosed
	}
	entries, err := c.scanCatalog(ctx, table)
	if err != nil {
		return false, err
	}
	if len(entries) == 0 {
		return false, TableNotFound
	}
	starts := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.info.Offline && !e.info.Split {
			return false, nil
		}
		if e.info.Split {
			// Split parents stay in the catalog until cleanup;
			// their daughters carry the availability.
			continue
		}
		if e.addr.IsZero() {
			return false, nil
		}
		starts[string(e.info.StartKey)] = struct{}{}
	}
	if splitKeys != nil {
		if len(starts) != len(splitKeys)+1 {
			return false, nil
		}
		for _, k := range splitKeys {
			if _, ok := starts[string(k)]; !ok {
				return false, nil
			}
		}
	}
	return true, nil
}

// ClearRegionCache implements Client.
func (c *client) ClearRegionCache() {
	c.regions.dropAll()
	c.invalidateRoot()
}

// ClearRegionCacheForTable implements Client.
func (c *client) ClearRegionCacheForTable(table []byte) {
	c.regions.dropTable(table)
}

// DropCachedLocation implements Client.
func (c *client) DropCachedLocation(loc *region.Location) {
	c.regions.invalidate(loc.Info.Table, loc.Info.StartKey, loc.Addr.String())
}

// ClearCaches implements Client.
func (c *client) ClearCaches(server region.ServerAddress) {
	c.regions.dropServer(server.String())
}

// ShardClient implements Client.
func (c *client) ShardClient(ctx context.Context,
	server region.ServerAddress) (region.ShardClient, error) {
	if c.isClosed() {
		return nil, ErrConnectionClosed
	}
	return c.shardClientFor(ctx, server)
}

// ShardAdmin implements Client.
func (c *client) ShardAdmin(ctx context.Context, server region.ServerAddress,
	checkMaster bool) (region.ShardClient, error) {
	if c.isClosed() {
		return nil, ErrConnectionClosed
	}
	if checkMaster {
		running, err := c.IsMasterRunning(ctx)
		if err != nil {
			return nil, err
		}
		if !running {
			return nil, ErrMasterNotRunning
		}
	}
	return c.shardClientFor(ctx, server)
}

// IsDeadServer implements Client.
func (c *client) IsDeadServer(server region.ServerAddress) bool {
	c.deadMu.Lock()
	_, ok := c.dead[server.String()]
	c.deadMu.Unlock()
	return ok
}

// SetRegionCachePrefetch implements Client.
func (c *client) SetRegionCachePrefetch(table []byte, enabled bool) {
	c.prefetchMu.Lock()
	if enabled {
		delete(c.prefetchOff, string(table))
	} else {
		c.prefetchOff[string(table)] = struct{}{}
	}
	c.prefetchMu.Unlock()
}

// RegionCachePrefetch implements Client.
func (c *client) RegionCachePrefetch(table []byte) bool {
	c.prefetchMu.Lock()
	_, off := c.prefetchOff[string(table)]
	c.prefetchMu.Unlock()
	return !off
}
