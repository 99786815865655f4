// Copyright (C) 2016  The CascadeDB Authors.  All rights reserved.
// This file is part of CascadeDB.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package pb holds the wire structures exchanged with shard servers and the
// master. The structures a transport has to frame are kept deliberately
// plain; the region descriptor stored in catalog cells carries its own
// protobuf wire codec because it travels inside cell values.
package pb

// A Cell is one versioned value of one column of one row.
type Cell struct {
	Row       []byte
	Family    []byte
	Qualifier []byte
	Timestamp uint64
	Value     []byte
}

// A Row is a row key together with the cells fetched for it.
type Row struct {
	Key   []byte
	Cells []*Cell
}

// Cell returns the first cell matching the given family and qualifier, or nil.
func (r *Row) Cell(family, qualifier string) *Cell {
	for _, c := range r.Cells {
		if string(c.Family) == family && string(c.Qualifier) == qualifier {
			return c
		}
	}
	return nil
}

// A Get reads one row, optionally narrowed to a family and qualifiers.
type Get struct {
	Row        []byte
	Family     []byte
	Qualifiers [][]byte
}

// A Put writes the given cells into one row.
type Put struct {
	Row   []byte
	Cells []*Cell
}

// A Delete removes the given cells from one row. An empty cell list removes
// the whole row.
type Delete struct {
	Row   []byte
	Cells []*Cell
}

// A Mutation is a write against a single row: a Put or a Delete.
type Mutation interface {
	// MutationRow returns the key of the row the mutation applies to.
	MutationRow() []byte
}

// MutationRow implements Mutation.
func (p *Put) MutationRow() []byte { return p.Row }

// MutationRow implements Mutation.
func (d *Delete) MutationRow() []byte { return d.Row }

// An Action is one read or write inside a multi-action request. Index is the
// position of the action in the caller's original list, so that partial
// results can be placed back where they came from. Exactly one of Get, Put
// and Delete is set.
type Action struct {
	Index  uint32
	Get    *Get
	Put    *Put
	Delete *Delete
}

// Row returns the row key of whichever operation the action carries.
func (a *Action) Row() []byte {
	switch {
	case a.Get != nil:
		return a.Get.Row
	case a.Put != nil:
		return a.Put.Row
	case a.Delete != nil:
		return a.Delete.Row
	}
	return nil
}

// A RegionAction is the slice of a multi-action aimed at one region.
type RegionAction struct {
	Region  []byte
	Actions []*Action
}

// A MultiAction is every action a client wants one server to execute, grouped
// by region.
type MultiAction struct {
	Actions []*RegionAction
}

// A RegionActionResult reports the outcome of one region's slice of a
// multi-action. The server executes actions in order and stops at the first
// failure, so SuccessCount actions succeeded and the rest did not run. For
// reads, Rows holds one entry per successful action, in action order; an
// absent row is nil.
type RegionActionResult struct {
	Region       []byte
	SuccessCount uint32
	Rows         []*Row
}

// A MultiResponse is the server's answer to a MultiAction.
type MultiResponse struct {
	Results []*RegionActionResult
}

// TableState is the lifecycle state of a table as tracked by the master.
type TableState int32

const (
	TableStateEnabled TableState = iota
	TableStateDisabled
	TableStateEnabling
	TableStateDisabling
)

// A TableDescriptor names a table and its column families.
type TableDescriptor struct {
	Name     []byte
	Families []string
	State    TableState
}

// A RegionAssignment pairs a region descriptor with the server currently
// hosting it.
type RegionAssignment struct {
	Region *RegionDescriptor
	Server string
}
