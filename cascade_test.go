// Copyright (C) 2016  The CascadeDB Authors.  All rights reserved.
// This file is part of CascadeDB.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package cascade

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cascadedb/cascade-go/pb"
	"github.com/cascadedb/cascade-go/region"
	"github.com/cascadedb/cascade-go/zk"
)

// newTestClient builds a client with a millisecond pause so backoffs don't
// slow the tests down. No coordination quorum is dialed.
func newTestClient(zkc zk.Client) *client {
	conf := NewConf("~invalid.quorum~")
	conf.Pause = time.Millisecond
	c := newClient(conf)
	c.zkClient = zkc
	return c
}

// fakeZK answers coordination reads from a closure.
type fakeZK struct {
	locate func(ctx context.Context, r zk.ResourceName) (string, uint16, error)
}

func (f *fakeZK) LocateResource(ctx context.Context, r zk.ResourceName) (string, uint16, error) {
	if f.locate == nil {
		return "", 0, fmt.Errorf("unexpected coordination read of %q", r)
	}
	return f.locate(ctx, r)
}

func (f *fakeZK) MasterAddress() (string, uint16, bool)     { return "", 0, false }
func (f *fakeZK) RootRegionAddress() (string, uint16, bool) { return "", 0, false }
func (f *fakeZK) Close()                                    {}

// fakeShard is a programmable ShardClient. Methods without a programmed
// closure fail loudly.
type fakeShard struct {
	addr   region.ServerAddress
	crb    func(ctx context.Context, regionName, probe []byte, family string) (*pb.Row, error)
	scan   func(ctx context.Context, regionName, startRow []byte, limit uint32) ([]*pb.Row, error)
	multi  func(ctx context.Context, ma *pb.MultiAction) (*pb.MultiResponse, error)
	closed int32
}

func (f *fakeShard) MultiAction(ctx context.Context, ma *pb.MultiAction) (*pb.MultiResponse, error) {
	if f.multi == nil {
		return nil, fmt.Errorf("unexpected MultiAction on %s", f.addr)
	}
	return f.multi(ctx, ma)
}

func (f *fakeShard) GetClosestRowBefore(ctx context.Context, regionName, probe []byte,
	family string) (*pb.Row, error) {
	if f.crb == nil {
		return nil, fmt.Errorf("unexpected GetClosestRowBefore on %s", f.addr)
	}
	return f.crb(ctx, regionName, probe, family)
}

func (f *fakeShard) Put(ctx context.Context, regionName []byte, puts []*pb.Put) (int, error) {
	return 0, fmt.Errorf("unexpected Put on %s", f.addr)
}

func (f *fakeShard) Delete(ctx context.Context, regionName []byte, dels []*pb.Delete) (int, error) {
	return 0, fmt.Errorf("unexpected Delete on %s", f.addr)
}

func (f *fakeShard) MutateRow(ctx context.Context, regionName []byte, muts []pb.Mutation) error {
	return fmt.Errorf("unexpected MutateRow on %s", f.addr)
}

func (f *fakeShard) GetRegionInfo(ctx context.Context, regionName []byte) (*pb.RegionDescriptor, error) {
	return nil, fmt.Errorf("unexpected GetRegionInfo on %s", f.addr)
}

func (f *fakeShard) GetRegionsAssignment(ctx context.Context) ([]*pb.RegionAssignment, error) {
	return nil, fmt.Errorf("unexpected GetRegionsAssignment on %s", f.addr)
}

func (f *fakeShard) MetaScan(ctx context.Context, regionName, startRow []byte,
	limit uint32) ([]*pb.Row, error) {
	if f.scan == nil {
		return nil, fmt.Errorf("unexpected MetaScan on %s", f.addr)
	}
	return f.scan(ctx, regionName, startRow, limit)
}

func (f *fakeShard) Addr() region.ServerAddress { return f.addr }

func (f *fakeShard) Close() error {
	atomic.AddInt32(&f.closed, 1)
	return nil
}

// stubShardClients reroutes shard stub construction to the factory for the
// duration of the test.
func stubShardClients(t testingT, factory func(addr region.ServerAddress) region.ShardClient) {
	orig := region.NewShardClient
	region.NewShardClient = func(ctx context.Context, addr region.ServerAddress,
		rpcTimeout time.Duration) (region.ShardClient, error) {
		sc := factory(addr)
		if sc == nil {
			return nil, fmt.Errorf("no fake shard server at %s", addr)
		}
		return sc, nil
	}
	t.Cleanup(func() { region.NewShardClient = orig })
}

// stubMasterClients does the same for the master stub.
func stubMasterClients(t testingT, factory func(addr region.ServerAddress) (region.MasterClient, error)) {
	orig := region.NewMasterClient
	region.NewMasterClient = func(ctx context.Context, addr region.ServerAddress,
		rpcTimeout time.Duration) (region.MasterClient, error) {
		return factory(addr)
	}
	t.Cleanup(func() { region.NewMasterClient = orig })
}

// testingT is the slice of *testing.T the helpers need.
type testingT interface {
	Cleanup(func())
}

// mkRegion builds a live region descriptor for tests.
func mkRegion(table, start, stop string, id uint64) *region.Info {
	return region.New([]byte(table), []byte(start), []byte(stop), id)
}

// mkLocation pairs a region with a "host:port" server.
func mkLocation(info *region.Info, server string) *region.Location {
	addr, err := region.ParseServerAddress(server)
	if err != nil {
		panic(err)
	}
	return &region.Location{Info: info, Addr: addr}
}

// catalogRow renders a region as the catalog row the servers would return
// for it.
func catalogRow(info *region.Info, server string) *pb.Row {
	cells := []*pb.Cell{{
		Row:       info.Name,
		Family:    []byte(infoFamily),
		Qualifier: []byte(region.RegionInfoQual),
		Value:     info.Descriptor().Marshal(),
	}}
	cells = append(cells, &pb.Cell{
		Row:       info.Name,
		Family:    []byte(infoFamily),
		Qualifier: []byte(region.ServerQual),
		Value:     []byte(server),
	})
	return &pb.Row{Key: info.Name, Cells: cells}
}

// metaRegionInfo is the single meta region most tests pre-seed.
func metaRegionInfo() *region.Info {
	return &region.Info{
		Table:    metaTableName,
		Name:     []byte("cascade:meta,,1"),
		StartKey: []byte{},
		StopKey:  []byte{},
	}
}
