// Copyright (C) 2016  The CascadeDB Authors.  All rights reserved.
// This file is part of CascadeDB.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package cascade

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"syscall"

	"github.com/cascadedb/cascade-go/region"
)

var (
	// ErrDeadline reports that the deadline of a request has been exceeded.
	// The connection core does not return it: an expired retry deadline
	// surfaces as RetriesExhaustedError and an expired context as the
	// context's own error.
	ErrDeadline = errors.New("deadline exceeded")

	// TableNotFound is returned when attempting to access a table that
	// doesn't exist on this cluster.
	TableNotFound = errors.New("table not found")

	// ErrRegionOffline is returned when a catalog row describes a region
	// that has been taken offline (usually the parent of a split).
	ErrRegionOffline = errors.New("region is offline")

	// ErrNoServerForRegion is returned when a catalog row has no server
	// assignment even after the retry budget is spent.
	ErrNoServerForRegion = region.ErrNoServer

	// ErrMasterNotRunning is returned when master discovery exhausts its
	// retries without finding a live master.
	ErrMasterNotRunning = errors.New("master is not running")

	// ErrConnectionClosed is returned by every call made after Close.
	ErrConnectionClosed = errors.New("connection is closed")
)

// A DoNotRetryError marks a failure as hopeless to retry: a client-side
// contract breach, a serialization mismatch, or a failure the server flagged
// as fatal. It is propagated verbatim.
type DoNotRetryError struct {
	Cause error
}

func (e DoNotRetryError) Error() string {
	return fmt.Sprintf("do not retry: %s", e.Cause)
}

func (e DoNotRetryError) Unwrap() error { return e.Cause }

// doNotRetry wraps err so that no retry layer will touch it again.
func doNotRetry(err error) error {
	if err == nil {
		return nil
	}
	return DoNotRetryError{Cause: err}
}

// A RetriesExhaustedError carries the ordered trail of failures observed by
// a retry loop that ran out of budget.
type RetriesExhaustedError struct {
	Tries int
	Trail []error
}

func (e RetriesExhaustedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "retries exhausted after %d tries", e.Tries)
	for i, err := range e.Trail {
		fmt.Fprintf(&b, "; try %d: %s", i+1, err)
	}
	return b.String()
}

// Unwrap exposes the last failure, which is usually the one worth acting on.
func (e RetriesExhaustedError) Unwrap() error {
	if len(e.Trail) == 0 {
		return nil
	}
	return e.Trail[len(e.Trail)-1]
}

// isDoNotRetry reports whether the failure must be propagated without
// another attempt.
func isDoNotRetry(err error) bool {
	var dnr DoNotRetryError
	return errors.As(err, &dnr) || errors.Is(err, TableNotFound)
}

// isNotServing reports whether the failure means the addressed server no
// longer hosts the region.
func isNotServing(err error) bool {
	var nsre region.NotServingRegionError
	return errors.As(err, &nsre)
}

// isTransportDeath reports whether the failure means the server itself is
// unreachable or its connection unusable: a region.ServerError, a network
// timeout, EOF, a closed pipe or connection, an expired I/O deadline, or a
// refused, reset or broken connection. No other failure kind, such as a
// failed sync, is recognized unless it arrives wrapped in a
// region.ServerError. Every cached location for that server must be
// dropped.
func isTransportDeath(err error) bool {
	var se region.ServerError
	if errors.As(err, &se) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, os.ErrDeadlineExceeded) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

// isInterrupted reports whether the failure is a context cancellation, which
// must surface unchanged so callers can observe it.
func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
