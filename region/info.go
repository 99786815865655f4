// Copyright (C) 2016  The CascadeDB Authors.  All rights reserved.
// This file is part of CascadeDB.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package region holds region descriptors, the region name codec and the
// capability interfaces shard servers and the master are reached through.
package region

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// A ServerAddress identifies one shard-server or master process. Two
// addresses are equal iff both host and port are equal.
type ServerAddress struct {
	Host string
	Port uint16
}

func (a ServerAddress) String() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// IsZero reports whether the address is the zero value.
func (a ServerAddress) IsZero() bool {
	return a.Host == "" && a.Port == 0
}

// ParseServerAddress parses a "host:port" pair.
func ParseServerAddress(s string) (ServerAddress, error) {
	colon := strings.LastIndexByte(s, ':')
	if colon < 1 {
		return ServerAddress{}, fmt.Errorf("region: malformed server address %q", s)
	}
	port, err := strconv.ParseUint(s[colon+1:], 10, 16)
	if err != nil {
		return ServerAddress{}, fmt.Errorf("region: malformed port in server address %q: %w", s, err)
	}
	return ServerAddress{Host: s[:colon], Port: uint16(port)}, nil
}

// Info describes one region of one table at a point in time. It is immutable
// once constructed; a region that moves or splits is represented by a new
// Info.
type Info struct {
	// Name uniquely identifies the region. It embeds the table name, the
	// start key and the creation id: "table,start,id.encoded.".
	Name []byte

	Table    []byte
	StartKey []byte
	// StopKey is exclusive. An empty StopKey means the region extends to
	// the end of the table.
	StopKey []byte

	ID          uint64
	EncodedName string
	Offline     bool
	Split       bool
}

// New constructs the descriptor of a live region, deriving Name and
// EncodedName from the table, start key and creation id.
func New(table, startKey, stopKey []byte, id uint64) *Info {
	name := make([]byte, 0, len(table)+len(startKey)+24)
	name = append(name, table...)
	name = append(name, ',')
	name = append(name, startKey...)
	name = append(name, ',')
	name = strconv.AppendUint(name, id, 10)
	encoded := strconv.FormatUint(xxhash.Sum64(name), 16)
	name = append(name, '.')
	name = append(name, encoded...)
	name = append(name, '.')
	return &Info{
		Name:        name,
		Table:       table,
		StartKey:    startKey,
		StopKey:     stopKey,
		ID:          id,
		EncodedName: encoded,
	}
}

func (i *Info) String() string {
	return fmt.Sprintf("*region.Info{Table: %q, Name: %q, StartKey: %q, StopKey: %q}",
		i.Table, i.Name, i.StartKey, i.StopKey)
}

// Covers reports whether the region's half-open key range contains the row.
func (i *Info) Covers(row []byte) bool {
	if bytes.Compare(row, i.StartKey) < 0 {
		return false
	}
	return len(i.StopKey) == 0 || bytes.Compare(row, i.StopKey) < 0
}

// SearchKey builds the probe used both for closest-row-before lookups in a
// catalog region and for predecessor queries in the location cache. ':' is
// the first byte greater than '9', so the probe sorts right after every real
// region name for (table, key) and right before the next start key.
func SearchKey(table, key []byte) []byte {
	probe := make([]byte, 0, len(table)+len(key)+3)
	probe = append(probe, table...)
	probe = append(probe, ',')
	probe = append(probe, key...)
	probe = append(probe, ',')
	probe = append(probe, ':')
	return probe
}

// CacheKey is the location-cache key of a region: the table name and the
// start key, in the same collation as SearchKey probes.
func CacheKey(table, startKey []byte) []byte {
	k := make([]byte, 0, len(table)+len(startKey)+1)
	k = append(k, table...)
	k = append(k, ',')
	k = append(k, startKey...)
	return k
}

// Compare is the collation used by the location cache's ordered map.
func Compare(a, b []byte) int {
	return bytes.Compare(a, b)
}

// A Location pairs a region descriptor with the server last known to host
// it. Locations are transient: any region movement or server death makes
// them stale.
type Location struct {
	Info *Info
	Addr ServerAddress
}

func (l *Location) String() string {
	return fmt.Sprintf("%s @ %s", l.Info, l.Addr)
}
