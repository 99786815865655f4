// Copyright (C) 2016  The CascadeDB Authors.  All rights reserved.
// This file is part of CascadeDB.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package region

import (
	"errors"
	"fmt"

	"github.com/cascadedb/cascade-go/pb"
)

// Catalog column layout. Every catalog row (root and meta alike) keeps the
// serialized region descriptor and the address of the hosting server under
// the "info" family.
const (
	InfoFamily     = "info"
	RegionInfoQual = "regioninfo"
	ServerQual     = "server"
)

// ErrNoServer is returned when a catalog row has a region descriptor but no
// server column. This happens while a region is in transition between
// servers.
var ErrNoServer = errors.New("region: no server assigned to region")

// FromDescriptor converts a wire descriptor into an Info.
func FromDescriptor(rd *pb.RegionDescriptor) *Info {
	encoded := ""
	if dot := lastSegment(rd.Name); dot != "" {
		encoded = dot
	}
	return &Info{
		Name:        rd.Name,
		Table:       rd.Table,
		StartKey:    rd.StartKey,
		StopKey:     rd.StopKey,
		ID:          rd.ID,
		EncodedName: encoded,
		Offline:     rd.Offline,
		Split:       rd.Split,
	}
}

// Descriptor converts an Info back into its wire form.
func (i *Info) Descriptor() *pb.RegionDescriptor {
	return &pb.RegionDescriptor{
		Name:     i.Name,
		Table:    i.Table,
		StartKey: i.StartKey,
		StopKey:  i.StopKey,
		ID:       i.ID,
		Offline:  i.Offline,
		Split:    i.Split,
	}
}

// lastSegment extracts the encoded name from "table,start,id.encoded.".
func lastSegment(name []byte) string {
	if len(name) < 2 || name[len(name)-1] != '.' {
		return ""
	}
	for j := len(name) - 2; j >= 0; j-- {
		if name[j] == '.' {
			return string(name[j+1 : len(name)-1])
		}
	}
	return ""
}

// ParseCatalogRow decodes a catalog row into the descriptor it carries and
// the address of the hosting server. The address is the zero value while the
// region is in transition between servers.
func ParseCatalogRow(row *pb.Row) (*Info, ServerAddress, error) {
	if row == nil {
		return nil, ServerAddress{}, errors.New("region: empty catalog row")
	}
	var info *Info
	var addr ServerAddress
	for _, cell := range row.Cells {
		if string(cell.Family) != InfoFamily {
			continue
		}
		switch string(cell.Qualifier) {
		case RegionInfoQual:
			rd, err := pb.UnmarshalRegionDescriptor(cell.Value)
			if err != nil {
				return nil, ServerAddress{}, fmt.Errorf(
					"region: corrupt descriptor in catalog row %q: %w", row.Key, err)
			}
			info = FromDescriptor(rd)
		case ServerQual:
			if len(cell.Value) == 0 {
				// Empty while the region is in transition.
				continue
			}
			a, err := ParseServerAddress(string(cell.Value))
			if err != nil {
				return nil, ServerAddress{}, fmt.Errorf(
					"region: corrupt server column in catalog row %q: %w", row.Key, err)
			}
			addr = a
		}
	}
	if info == nil {
		return nil, ServerAddress{}, fmt.Errorf(
			"region: catalog row %q has no region descriptor", row.Key)
	}
	return info, addr, nil
}

// ParseLocation decodes a catalog row into the location of the region the
// row describes. It returns ErrNoServer when the row carries a descriptor
// but no live assignment.
func ParseLocation(row *pb.Row) (*Location, error) {
	info, addr, err := ParseCatalogRow(row)
	if err != nil {
		return nil, err
	}
	if addr.IsZero() {
		return nil, fmt.Errorf("%w: %q", ErrNoServer, info.Name)
	}
	return &Location{Info: info, Addr: addr}, nil
}
