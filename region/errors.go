// Copyright (C) 2016  The CascadeDB Authors.  All rights reserved.
// This file is part of CascadeDB.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package region

import "fmt"

// A NotServingRegionError is returned by a shard server that no longer hosts
// the region an RPC was addressed to. The region itself is fine, the cached
// location is stale: callers invalidate the one entry and look the region up
// again.
type NotServingRegionError struct {
	Cause error
}

func (e NotServingRegionError) Error() string {
	return fmt.Sprintf("region is not served by this server: %s", e.Cause)
}

func (e NotServingRegionError) Unwrap() error { return e.Cause }

// A ServerError means the connection to a shard server is unusable and every
// region hosted there must be considered lost until re-located.
type ServerError struct {
	Cause error
}

func (e ServerError) Error() string {
	return fmt.Sprintf("shard server is unusable: %s", e.Cause)
}

func (e ServerError) Unwrap() error { return e.Cause }
