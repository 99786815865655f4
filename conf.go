// Copyright (C) 2016  The CascadeDB Authors.  All rights reserved.
// This file is part of CascadeDB.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package cascade

import (
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Default values for every tunable the client recognizes.
const (
	// DefaultRetries bounds locator lookups, master discovery and batch
	// rounds ("client.retries.number").
	DefaultRetries = 10

	// DefaultPause is the base pause the backoff schedule multiplies
	// ("client.pause").
	DefaultPause = 200 * time.Millisecond

	// DefaultRPCTimeout bounds one RPC ("rpc.timeout").
	DefaultRPCTimeout = 60 * time.Second

	// DefaultPrefetchLimit is how many adjacent region descriptors a meta
	// scan may cache in one pass ("client.prefetch.limit").
	DefaultPrefetchLimit = 10

	// DefaultMaxCoordReconnection caps transparent coordination-session
	// reconnects ("client.max.coordination.reconnection").
	DefaultMaxCoordReconnection = 3

	// DefaultMetaScannerCaching is the row batch size for catalog scans
	// ("meta.scanner.caching").
	DefaultMetaScannerCaching = 100

	// DefaultSessionTimeout is the coordination-session timeout.
	DefaultSessionTimeout = 30 * time.Second
)

// A Conf carries every setting a connection honors. The zero value of each
// field selects its default. Conf values are compared by fingerprint: two
// confs that agree on every cluster-identity field share a cached
// connection.
type Conf struct {
	// Quorum lists the coordination-service servers.
	Quorum []string

	// Retries is the try budget for the locator, master discovery and the
	// batch engine ("client.retries.number").
	Retries int

	// Pause is the base pause multiplied by the backoff schedule
	// ("client.pause").
	Pause time.Duration

	// RPCRetryTimeout is the wall-clock deadline of one single-row retry
	// loop; zero means unbounded ("client.rpc.retry.timeout").
	RPCRetryTimeout time.Duration

	// RPCTimeout bounds each individual RPC ("rpc.timeout").
	RPCTimeout time.Duration

	// PrefetchLimit is the prefetch window W ("client.prefetch.limit").
	PrefetchLimit uint32

	// MaxCoordReconnection caps coordination-session reconnects
	// ("client.max.coordination.reconnection").
	MaxCoordReconnection int

	// MetaScannerCaching is the row batch size for catalog scans
	// ("meta.scanner.caching").
	MetaScannerCaching uint32

	// SessionTimeout is the coordination-session timeout.
	SessionTimeout time.Duration

	// RegionServerClass names the shard-server stub implementation the
	// transport package should select ("region.server.class"). It is part
	// of the cluster identity because different stubs speak different
	// codecs.
	RegionServerClass string
}

// NewConf returns a Conf for the given quorum with every tunable at its
// default.
func NewConf(quorum ...string) *Conf {
	c := &Conf{Quorum: quorum}
	c.applyDefaults()
	return c
}

func (c *Conf) applyDefaults() {
	if c.Retries == 0 {
		c.Retries = DefaultRetries
	}
	if c.Pause == 0 {
		c.Pause = DefaultPause
	}
	if c.RPCTimeout == 0 {
		c.RPCTimeout = DefaultRPCTimeout
	}
	if c.PrefetchLimit == 0 {
		c.PrefetchLimit = DefaultPrefetchLimit
	}
	if c.MaxCoordReconnection == 0 {
		c.MaxCoordReconnection = DefaultMaxCoordReconnection
	}
	if c.MetaScannerCaching == 0 {
		c.MetaScannerCaching = DefaultMetaScannerCaching
	}
	if c.SessionTimeout == 0 {
		c.SessionTimeout = DefaultSessionTimeout
	}
}

// fingerprint hashes every field that affects which cluster the connection
// talks to and how its RPCs behave. Connections are shared between callers
// whose confs collide here, so the hash must cover all of them.
func (c *Conf) fingerprint() uint64 {
	h := xxhash.New()
	h.WriteString(strings.Join(c.Quorum, ","))
	h.WriteString("\x00")
	h.WriteString(c.RegionServerClass)
	h.WriteString("\x00")
	for _, d := range []time.Duration{
		c.Pause, c.RPCRetryTimeout, c.RPCTimeout, c.SessionTimeout,
	} {
		h.WriteString(strconv.FormatInt(int64(d), 10))
		h.WriteString("\x00")
	}
	for _, n := range []uint64{
		uint64(c.Retries), uint64(c.PrefetchLimit),
		uint64(c.MaxCoordReconnection), uint64(c.MetaScannerCaching),
	} {
		h.WriteString(strconv.FormatUint(n, 10))
		h.WriteString("\x00")
	}
	return h.Sum64()
}
