// Copyright (C) 2016  The CascadeDB Authors.  All rights reserved.
// This file is part of CascadeDB.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package cascade

import (
	"bytes"
	"io"
	"sync"

	b "modernc.org/b/v2"

	"github.com/cascadedb/cascade-go/internal/observability"
	"github.com/cascadedb/cascade-go/region"
)

// keyRegionCache maps a (table, start key) pair to the location last known
// to host that key range, with fast predecessor queries. A reverse index
// from server address to cache keys makes dropping every entry of a dead
// server cheap. One mutex guards both structures: every read and write of
// the reverse index goes through it, so an address is present in the index
// exactly while some entry maps to it.
type keyRegionCache struct {
	m sync.Mutex

	// Maps region.CacheKey(table, startKey) to a *region.Location.
	regions *b.Tree[[]byte, *region.Location]

	// Maps a server address to the set of cache keys whose location
	// points at that server.
	servers map[string]map[string]struct{}
}

func newKeyRegionCache() keyRegionCache {
	return keyRegionCache{
		regions: b.TreeNew[[]byte, *region.Location](region.Compare),
		servers: make(map[string]map[string]struct{}),
	}
}

// getLocked finds the entry with the greatest start key not exceeding row
// and verifies that the entry actually covers the row. Callers hold m.
func (krc *keyRegionCache) getLocked(table, row []byte) *region.Location {
	probe := region.SearchKey(table, row)
	enum, _ := krc.regions.Seek(probe)
	k, v, err := enum.Prev()
	if err == io.EOF && krc.regions.Len() > 0 {
		// Nothing sorts at or before the probe. Fall back to the last
		// element; the checks below reject it unless it covers the row.
		k, v = krc.regions.Last()
		err = nil
	}
	enum.Close()
	if err != nil || k == nil {
		return nil
	}
	if !bytes.Equal(v.Info.Table, table) || !v.Info.Covers(row) {
		return nil
	}
	return v
}

// get returns the cached location covering row, or nil.
func (krc *keyRegionCache) get(table, row []byte) *region.Location {
	krc.m.Lock()
	v := krc.getLocked(table, row)
	krc.m.Unlock()
	if v == nil {
		observability.CacheMisses.Inc()
	} else {
		observability.CacheHits.Inc()
	}
	return v
}

// put inserts a location, overwriting any entry with the same start key and
// removing entries of the same table whose ranges the new region overlaps
// (daughters of a split shadowing their parent, or the other way around).
// The removed locations are returned.
func (krc *keyRegionCache) put(loc *region.Location) []*region.Location {
	key := region.CacheKey(loc.Info.Table, loc.Info.StartKey)

	krc.m.Lock()
	defer krc.m.Unlock()

	victims := krc.overlapsLocked(loc, key)
	for _, v := range victims {
		vkey := region.CacheKey(v.Info.Table, v.Info.StartKey)
		krc.regions.Delete(vkey)
		krc.unindexLocked(v.Addr.String(), vkey)
	}

	krc.regions.Set(key, loc)
	krc.indexLocked(loc.Addr.String(), key)
	return victims
}

// overlapsLocked collects every cached entry of loc's table whose key range
// intersects loc's range, including an entry with the same start key.
func (krc *keyRegionCache) overlapsLocked(loc *region.Location, key []byte) []*region.Location {
	var victims []*region.Location

	// The predecessor is the only earlier entry that can reach into the
	// new range, because cached entries never overlap each other.
	if prev := krc.getLocked(loc.Info.Table, loc.Info.StartKey); prev != nil {
		victims = append(victims, prev)
	}

	// Later entries overlap while their start key is below the new stop
	// key.
	enum, _ := krc.regions.Seek(key)
	for {
		k, v, err := enum.Next()
		if err != nil {
			break
		}
		if !bytes.Equal(v.Info.Table, loc.Info.Table) {
			break
		}
		if len(victims) > 0 && v == victims[0] {
			continue
		}
		if bytes.Equal(k, key) {
			victims = append(victims, v)
			continue
		}
		if len(loc.Info.StopKey) != 0 &&
			bytes.Compare(v.Info.StartKey, loc.Info.StopKey) >= 0 {
			break
		}
		victims = append(victims, v)
	}
	enum.Close()
	return victims
}

// invalidate removes the entry covering row, but only if its server matches
// expected. An empty expected address forces removal. It reports whether an
// entry was removed.
func (krc *keyRegionCache) invalidate(table, row []byte, expected string) bool {
	krc.m.Lock()
	defer krc.m.Unlock()
	v := krc.getLocked(table, row)
	if v == nil {
		return false
	}
	if expected != "" && v.Addr.String() != expected {
		// A peer thread already replaced the entry with a fresher
		// location; keep it.
		return false
	}
	key := region.CacheKey(v.Info.Table, v.Info.StartKey)
	krc.regions.Delete(key)
	krc.unindexLocked(v.Addr.String(), key)
	observability.CacheInvalidations.WithLabelValues("stale").Inc()
	return true
}

// dropServer removes every entry hosted by the given server and forgets the
// server. It returns how many entries were removed.
func (krc *keyRegionCache) dropServer(addr string) int {
	krc.m.Lock()
	defer krc.m.Unlock()
	keys, ok := krc.servers[addr]
	if !ok {
		return 0
	}
	for k := range keys {
		krc.regions.Delete([]byte(k))
	}
	delete(krc.servers, addr)
	n := len(keys)
	observability.CacheInvalidations.WithLabelValues("server_dead").Add(float64(n))
	return n
}

// dropTable removes every entry of one table. It returns how many entries
// were removed.
func (krc *keyRegionCache) dropTable(table []byte) int {
	krc.m.Lock()
	defer krc.m.Unlock()
	var n int
	for _, v := range krc.tableLocationsLocked(table) {
		key := region.CacheKey(v.Info.Table, v.Info.StartKey)
		krc.regions.Delete(key)
		krc.unindexLocked(v.Addr.String(), key)
		n++
	}
	observability.CacheInvalidations.WithLabelValues("flush").Add(float64(n))
	return n
}

// dropAll empties the cache and the server index.
func (krc *keyRegionCache) dropAll() {
	krc.m.Lock()
	krc.regions.Clear()
	krc.servers = make(map[string]map[string]struct{})
	krc.m.Unlock()
}

// knownServer reports whether any cached entry maps to the address.
func (krc *keyRegionCache) knownServer(addr string) bool {
	krc.m.Lock()
	_, ok := krc.servers[addr]
	krc.m.Unlock()
	return ok
}

// tableLocations returns every cached location of one table, in start-key
// order.
func (krc *keyRegionCache) tableLocations(table []byte) []*region.Location {
	krc.m.Lock()
	defer krc.m.Unlock()
	return krc.tableLocationsLocked(table)
}

func (krc *keyRegionCache) tableLocationsLocked(table []byte) []*region.Location {
	prefix := region.CacheKey(table, nil)
	var out []*region.Location
	enum, _ := krc.regions.Seek(prefix)
	for {
		k, v, err := enum.Next()
		if err != nil {
			break
		}
		if !bytes.HasPrefix(k, prefix) {
			break
		}
		out = append(out, v)
	}
	enum.Close()
	return out
}

// size returns the number of cached entries.
func (krc *keyRegionCache) size() int {
	krc.m.Lock()
	n := krc.regions.Len()
	krc.m.Unlock()
	return n
}

func (krc *keyRegionCache) indexLocked(addr string, key []byte) {
	set, ok := krc.servers[addr]
	if !ok {
		set = make(map[string]struct{})
		krc.servers[addr] = set
	}
	set[string(key)] = struct{}{}
}

func (krc *keyRegionCache) unindexLocked(addr string, key []byte) {
	set, ok := krc.servers[addr]
	if !ok {
		return
	}
	delete(set, string(key))
	if len(set) == 0 {
		delete(krc.servers, addr)
	}
}

// clientCache is a keyed pool of shard-server stubs: one per server address,
// shared by every region hosted there.
type clientCache struct {
	m       sync.Mutex
	clients map[string]region.ShardClient
}

func newClientCache() clientCache {
	return clientCache{clients: make(map[string]region.ShardClient)}
}

func (ccc *clientCache) get(addr string) region.ShardClient {
	ccc.m.Lock()
	c := ccc.clients[addr]
	ccc.m.Unlock()
	return c
}

// put caches the client unless another one won the race, in which case the
// existing client is returned and the caller should close its own.
func (ccc *clientCache) put(addr string, c region.ShardClient) region.ShardClient {
	ccc.m.Lock()
	defer ccc.m.Unlock()
	if existing, ok := ccc.clients[addr]; ok {
		return existing
	}
	ccc.clients[addr] = c
	return c
}

// del removes and returns the client for the address, if any.
func (ccc *clientCache) del(addr string) region.ShardClient {
	ccc.m.Lock()
	c := ccc.clients[addr]
	delete(ccc.clients, addr)
	ccc.m.Unlock()
	return c
}

func (ccc *clientCache) closeAll() {
	ccc.m.Lock()
	clients := ccc.clients
	ccc.clients = make(map[string]region.ShardClient)
	ccc.m.Unlock()
	for _, c := range clients {
		c.Close()
	}
}
