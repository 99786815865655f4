// Copyright (C) 2016  The CascadeDB Authors.  All rights reserved.
// This file is part of CascadeDB.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package zk

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	zkc "github.com/go-zookeeper/zk"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu     sync.Mutex
	data   map[string][]byte
	delay  time.Duration
	err    error
	closed bool
}

func (f *fakeConn) Get(path string) ([]byte, *zkc.Stat, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, nil, f.err
	}
	data, ok := f.data[path]
	if !ok {
		return nil, nil, zkc.ErrNoNode
	}
	return data, &zkc.Stat{}, nil
}

func (f *fakeConn) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// withFakeDial reroutes session dialing for the duration of a test and
// returns the event channel the test feeds.
func withFakeDial(t *testing.T, c *fakeConn) chan zkc.Event {
	events := make(chan zkc.Event, 16)
	orig := dial
	dial = func(quorum []string, sessionTimeout time.Duration) (conn, <-chan zkc.Event, error) {
		return c, events, nil
	}
	t.Cleanup(func() { dial = orig })
	return events
}

func TestLocateResource(t *testing.T) {
	fc := &fakeConn{data: map[string][]byte{
		string(Master):     []byte("master1:6010"),
		string(RootRegion): []byte("shard1:6020"),
	}}
	withFakeDial(t, fc)
	s := NewSession([]string{"quorum1"}, time.Second, 3)
	defer s.Close()

	host, port, err := s.LocateResource(context.Background(), Master)
	require.NoError(t, err)
	require.Equal(t, "master1", host)
	require.Equal(t, uint16(6010), port)

	host, port, err = s.LocateResource(context.Background(), RootRegion)
	require.NoError(t, err)
	require.Equal(t, "shard1", host)
	require.Equal(t, uint16(6020), port)

	// Snapshot reads return the last observed values.
	h, p, ok := s.MasterAddress()
	require.True(t, ok)
	require.Equal(t, "master1", h)
	require.Equal(t, uint16(6010), p)
	h, p, ok = s.RootRegionAddress()
	require.True(t, ok)
	require.Equal(t, "shard1", h)
	require.Equal(t, uint16(6020), p)
}

func TestLocateResourceErrors(t *testing.T) {
	fc := &fakeConn{data: map[string][]byte{
		string(Master): []byte("garbage-no-port"),
	}}
	withFakeDial(t, fc)
	s := NewSession([]string{"quorum1"}, time.Second, 3)
	defer s.Close()

	// Missing znode.
	_, _, err := s.LocateResource(context.Background(), RootRegion)
	require.Error(t, err)
	require.ErrorIs(t, err, zkc.ErrNoNode)

	// Corrupt payload.
	_, _, err = s.LocateResource(context.Background(), Master)
	require.Error(t, err)

	// No snapshot was recorded for either.
	_, _, ok := s.MasterAddress()
	require.False(t, ok)
}

func TestLocateResourceDeadline(t *testing.T) {
	fc := &fakeConn{data: map[string][]byte{}, delay: 100 * time.Millisecond}
	withFakeDial(t, fc)
	s := NewSession([]string{"quorum1"}, time.Second, 3)
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := s.LocateResource(ctx, Master)
	require.ErrorIs(t, err, ErrDeadline)
}

func (s *Session) reconnectCount() int {
	s.m.Lock()
	defer s.m.Unlock()
	return s.reconnects
}

// Session expiry is ridden out up to the cap; the counter resets every time
// a session is re-established; past the cap the session aborts for good.
func TestSessionExpiry(t *testing.T) {
	fc := &fakeConn{data: map[string][]byte{
		string(Master): []byte("master1:6010"),
	}}
	events := withFakeDial(t, fc)
	s := NewSession([]string{"quorum1"}, time.Second, 3)

	// First read starts the watcher.
	_, _, err := s.LocateResource(context.Background(), Master)
	require.NoError(t, err)

	expire := func() {
		events <- zkc.Event{Type: zkc.EventSession, State: zkc.StateExpired}
	}
	reconnect := func() {
		events <- zkc.Event{Type: zkc.EventSession, State: zkc.StateHasSession}
	}

	expire()
	require.Eventually(t, func() bool { return s.reconnectCount() == 1 },
		2*time.Second, 5*time.Millisecond)

	// The session still answers: the library reconnects underneath.
	_, _, err = s.LocateResource(context.Background(), Master)
	require.NoError(t, err)

	// A re-established session resets the counter.
	reconnect()
	require.Eventually(t, func() bool { return s.reconnectCount() == 0 },
		2*time.Second, 5*time.Millisecond)

	// Cap is 3: the fourth consecutive expiry aborts permanently.
	expire()
	expire()
	expire()
	expire()
	require.Eventually(t, func() bool {
		_, _, err := s.LocateResource(context.Background(), Master)
		return errors.Is(err, ErrSessionLostPermanent)
	}, 2*time.Second, 5*time.Millisecond)
	require.True(t, fc.isClosed())

	// Still permanently lost on the next call.
	_, _, err = s.LocateResource(context.Background(), Master)
	require.ErrorIs(t, err, ErrSessionLostPermanent)
}

func TestSessionCloseIdempotent(t *testing.T) {
	fc := &fakeConn{data: map[string][]byte{string(Master): []byte("m:1")}}
	withFakeDial(t, fc)
	s := NewSession([]string{"quorum1"}, time.Second, 3)
	_, _, err := s.LocateResource(context.Background(), Master)
	require.NoError(t, err)

	s.Close()
	require.True(t, fc.isClosed())
	s.Close()
}

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in   string
		host string
		port uint16
		ok   bool
	}{
		{"host:1234", "host", 1234, true},
		{"10.1.2.3:60020", "10.1.2.3", 60020, true},
		{"nocolon", "", 0, false},
		{":1234", "", 0, false},
		{"host:notnum", "", 0, false},
	}
	for _, tt := range tests {
		host, port, err := parseAddress(tt.in)
		if tt.ok {
			require.NoError(t, err, tt.in)
			require.Equal(t, tt.host, host)
			require.Equal(t, tt.port, port)
		} else {
			require.Error(t, err, tt.in)
		}
	}
}
