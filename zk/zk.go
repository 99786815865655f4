// Copyright (C) 2016  The CascadeDB Authors.  All rights reserved.
// This file is part of CascadeDB.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

// Package zk talks to the coordination quorum. It maintains one logical
// session per connection, reads the master and root-region addresses from
// their well-known znodes, and rides out session expiries up to a cap before
// declaring the session permanently lost.
package zk

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	zkc "github.com/go-zookeeper/zk"
	log "github.com/sirupsen/logrus"
)

// ResourceName is the path of a znode holding a "host:port" address.
type ResourceName string

const (
	// Master is the znode holding the address of the active master.
	Master = ResourceName("/cascade/master")
	// RootRegion is the znode holding the address of the server hosting
	// the root catalog region.
	RootRegion = ResourceName("/cascade/root-region-server")
)

var (
	// ErrSessionLostPermanent is returned once the session has expired
	// more times than the configured cap. Every later call fails fast
	// with it.
	ErrSessionLostPermanent = errors.New("zk: coordination session permanently lost")

	// ErrDeadline is returned when a read is abandoned because its
	// context expired.
	ErrDeadline = errors.New("zk: deadline exceeded")
)

// Client is the read surface the connection core consumes.
type Client interface {
	// LocateResource reads the address stored under the given znode.
	LocateResource(ctx context.Context, resource ResourceName) (string, uint16, error)

	// MasterAddress returns the last master address observed, if any.
	MasterAddress() (string, uint16, bool)

	// RootRegionAddress returns the last root-region address observed, if
	// any.
	RootRegionAddress() (string, uint16, bool)

	Close()
}

// conn is the slice of *zkc.Conn the session uses. Tests substitute it.
type conn interface {
	Get(path string) ([]byte, *zkc.Stat, error)
	Close()
}

// dial is replaceable for tests.
var dial = func(quorum []string, sessionTimeout time.Duration) (conn, <-chan zkc.Event, error) {
	c, events, err := zkc.Connect(quorum, sessionTimeout)
	if err != nil {
		return nil, nil, err
	}
	return c, events, nil
}

type address struct {
	host string
	port uint16
	ok   bool
}

// A Session is the process-wide logical session to the coordination quorum.
// The zero number of expiries is restored every time the session
// reconnects; once the count exceeds the cap the session aborts for good.
type Session struct {
	quorum         []string
	sessionTimeout time.Duration
	maxReconnect   int

	m          sync.Mutex
	conn       conn
	aborted    bool
	reconnects int
	master     address
	root       address
}

// NewSession creates a lazy session. No connection is made until the first
// read.
func NewSession(quorum []string, sessionTimeout time.Duration, maxReconnect int) *Session {
	return &Session{
		quorum:         quorum,
		sessionTimeout: sessionTimeout,
		maxReconnect:   maxReconnect,
	}
}

// acquire returns the live connection, dialing on first use.
func (s *Session) acquire() (conn, error) {
	s.m.Lock()
	defer s.m.Unlock()
	if s.aborted {
		return nil, ErrSessionLostPermanent
	}
	if s.conn != nil {
		return s.conn, nil
	}
	c, events, err := dial(s.quorum, s.sessionTimeout)
	if err != nil {
		return nil, fmt.Errorf("zk: failed to connect to %v: %w", s.quorum, err)
	}
	s.conn = c
	go s.watch(events)
	return c, nil
}

// watch consumes session events. The underlying library re-establishes the
// session by itself after an expiry; the watcher's job is to count expiries,
// reset the count once a session is back, and abort for good past the cap.
func (s *Session) watch(events <-chan zkc.Event) {
	for ev := range events {
		if ev.Type != zkc.EventSession {
			continue
		}
		switch ev.State {
		case zkc.StateHasSession:
			s.m.Lock()
			s.reconnects = 0
			s.m.Unlock()
		case zkc.StateExpired:
			s.m.Lock()
			s.reconnects++
			n := s.reconnects
			abort := n > s.maxReconnect
			var c conn
			if abort {
				s.aborted = true
				c = s.conn
				s.conn = nil
			}
			s.m.Unlock()
			if abort {
				log.WithFields(log.Fields{
					"expiries": n,
					"max":      s.maxReconnect,
				}).Error("coordination session expired too many times, aborting")
				if c != nil {
					c.Close()
				}
				return
			}
			log.WithFields(log.Fields{
				"expiries": n,
				"max":      s.maxReconnect,
			}).Warn("coordination session expired, reconnecting")
		}
	}
}

type readResult struct {
	data []byte
	err  error
}

// LocateResource reads and parses the "host:port" payload of a znode. The
// read is bounded by ctx; the goroutine writing to the buffered channel can
// never block even if the caller has already given up.
func (s *Session) LocateResource(ctx context.Context,
	resource ResourceName) (string, uint16, error) {
	c, err := s.acquire()
	if err != nil {
		return "", 0, err
	}

	reschan := make(chan readResult, 1)
	go func() {
		data, _, err := c.Get(string(resource))
		reschan <- readResult{data, err}
	}()

	var data []byte
	select {
	case res := <-reschan:
		if res.err != nil {
			return "", 0, fmt.Errorf("zk: failed to read %q: %w", resource, res.err)
		}
		data = res.data
	case <-ctx.Done():
		return "", 0, ErrDeadline
	}

	host, port, err := parseAddress(string(data))
	if err != nil {
		return "", 0, fmt.Errorf("zk: corrupt payload in %q: %w", resource, err)
	}

	s.m.Lock()
	switch resource {
	case Master:
		s.master = address{host, port, true}
	case RootRegion:
		s.root = address{host, port, true}
	}
	s.m.Unlock()
	return host, port, nil
}

// MasterAddress implements Client.
func (s *Session) MasterAddress() (string, uint16, bool) {
	s.m.Lock()
	defer s.m.Unlock()
	return s.master.host, s.master.port, s.master.ok
}

// RootRegionAddress implements Client.
func (s *Session) RootRegionAddress() (string, uint16, bool) {
	s.m.Lock()
	defer s.m.Unlock()
	return s.root.host, s.root.port, s.root.ok
}

// Close releases the session.
func (s *Session) Close() {
	s.m.Lock()
	c := s.conn
	s.conn = nil
	s.m.Unlock()
	if c != nil {
		c.Close()
	}
}

func parseAddress(s string) (string, uint16, error) {
	colon := strings.LastIndexByte(s, ':')
	if colon < 1 {
		return "", 0, fmt.Errorf("no colon in %q", s)
	}
	port, err := strconv.ParseUint(s[colon+1:], 10, 16)
	if err != nil {
		return "", 0, err
	}
	return s[:colon], uint16(port), nil
}
