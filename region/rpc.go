// Copyright (C) 2016  The CascadeDB Authors.  All rights reserved.
// This file is part of CascadeDB.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package region

import (
	"context"
	"errors"
	"time"

	"github.com/cascadedb/cascade-go/pb"
)

// ErrNoTransport is returned by the default client constructors. The wire
// codec ships as a separate package that replaces NewShardClient and
// NewMasterClient at init time; tests replace them with mocks.
var ErrNoTransport = errors.New("region: no RPC transport linked in")

// A ShardClient is the capability surface of one shard-server process. All
// methods are safe for concurrent use. Implementations own a single
// connection to the server and multiplex callers onto it.
type ShardClient interface {
	// MultiAction executes a batch of reads and writes grouped by region.
	MultiAction(ctx context.Context, ma *pb.MultiAction) (*pb.MultiResponse, error)

	// GetClosestRowBefore returns the row of the given region whose key is
	// the greatest key not exceeding the probe, narrowed to one family.
	GetClosestRowBefore(ctx context.Context, regionName, probe []byte, family string) (*pb.Row, error)

	// Put applies the given puts to one region and returns how many were
	// written.
	Put(ctx context.Context, regionName []byte, puts []*pb.Put) (int, error)

	// Delete applies the given deletes to one region and returns how many
	// were applied.
	Delete(ctx context.Context, regionName []byte, dels []*pb.Delete) (int, error)

	// MutateRow applies all mutations to a single row atomically.
	MutateRow(ctx context.Context, regionName []byte, muts []pb.Mutation) error

	// GetRegionInfo returns the descriptor of a region hosted by this
	// server.
	GetRegionInfo(ctx context.Context, regionName []byte) (*pb.RegionDescriptor, error)

	// GetRegionsAssignment lists every region the server currently hosts.
	GetRegionsAssignment(ctx context.Context) ([]*pb.RegionAssignment, error)

	// MetaScan reads up to limit rows of the given catalog region starting
	// at startRow, in key order.
	MetaScan(ctx context.Context, regionName, startRow []byte, limit uint32) ([]*pb.Row, error)

	// Addr is the server this client is bound to.
	Addr() ServerAddress

	Close() error
}

// A MasterClient is the capability surface of the master process.
type MasterClient interface {
	// IsMasterRunning reports whether the master answers and considers
	// itself active.
	IsMasterRunning(ctx context.Context) (bool, error)

	// ListTables returns the descriptors of every table in the cluster.
	ListTables(ctx context.Context) ([]*pb.TableDescriptor, error)

	// GetTableDescriptor returns one table's descriptor.
	GetTableDescriptor(ctx context.Context, table []byte) (*pb.TableDescriptor, error)

	// GetTableState returns the lifecycle state of a table.
	GetTableState(ctx context.Context, table []byte) (pb.TableState, error)

	// Addr is the master this client is bound to.
	Addr() ServerAddress

	Close() error
}

// NewShardClient constructs a client stub bound to one shard server. The
// variable form is the seam the transport package and the tests use to plug
// in concrete implementations.
var NewShardClient = func(ctx context.Context, addr ServerAddress,
	rpcTimeout time.Duration) (ShardClient, error) {
	return nil, ErrNoTransport
}

// NewMasterClient constructs a client stub bound to the master.
var NewMasterClient = func(ctx context.Context, addr ServerAddress,
	rpcTimeout time.Duration) (MasterClient, error) {
	return nil, ErrNoTransport
}
