// Copyright (C) 2016  The CascadeDB Authors.  All rights reserved.
// This file is part of CascadeDB.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package pb

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// A RegionDescriptor is the persistent form of a region: it is the value of
// the "regioninfo" cell in catalog rows. Field numbers are part of the wire
// contract with the servers and must not be reused.
type RegionDescriptor struct {
	Name     []byte // 1
	Table    []byte // 2
	StartKey []byte // 3
	StopKey  []byte // 4
	ID       uint64 // 5
	Offline  bool   // 6
	Split    bool   // 7
}

// Marshal encodes the descriptor in protobuf wire format.
func (rd *RegionDescriptor) Marshal() []byte {
	b := make([]byte, 0, 32+len(rd.Name)+len(rd.Table)+len(rd.StartKey)+len(rd.StopKey))
	b = appendBytesField(b, 1, rd.Name)
	b = appendBytesField(b, 2, rd.Table)
	b = appendBytesField(b, 3, rd.StartKey)
	b = appendBytesField(b, 4, rd.StopKey)
	if rd.ID != 0 {
		b = protowire.AppendTag(b, 5, protowire.VarintType)
		b = protowire.AppendVarint(b, rd.ID)
	}
	if rd.Offline {
		b = protowire.AppendTag(b, 6, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
	}
	if rd.Split {
		b = protowire.AppendTag(b, 7, protowire.VarintType)
		b = protowire.AppendVarint(b, 1)
	}
	return b
}

// UnmarshalRegionDescriptor decodes a descriptor from protobuf wire format.
// Unknown fields are skipped so that newer servers can add fields without
// breaking older clients.
func UnmarshalRegionDescriptor(b []byte) (*RegionDescriptor, error) {
	rd := &RegionDescriptor{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("pb: bad region descriptor tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case typ == protowire.BytesType && num >= 1 && num <= 4:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("pb: bad region descriptor field %d: %w",
					num, protowire.ParseError(n))
			}
			cp := make([]byte, len(v))
			copy(cp, v)
			switch num {
			case 1:
				rd.Name = cp
			case 2:
				rd.Table = cp
			case 3:
				rd.StartKey = cp
			case 4:
				rd.StopKey = cp
			}
			b = b[n:]
		case typ == protowire.VarintType && num >= 5 && num <= 7:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("pb: bad region descriptor field %d: %w",
					num, protowire.ParseError(n))
			}
			switch num {
			case 5:
				rd.ID = v
			case 6:
				rd.Offline = v != 0
			case 7:
				rd.Split = v != 0
			}
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("pb: bad region descriptor field %d: %w",
					num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	return rd, nil
}

func appendBytesField(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}
