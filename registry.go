// Copyright (C) 2016  The CascadeDB Authors.  All rights reserved.
// This file is part of CascadeDB.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package cascade

import (
	"container/list"
	"sync"

	log "github.com/sirupsen/logrus"
)

// maxCachedConnections bounds the process-wide connection registry. The LRU
// eviction is a safety net against fingerprint churn, not something callers
// should lean on.
const maxCachedConnections = 31

type registryEntry struct {
	key  uint64
	conn Client
}

var registry = struct {
	m      sync.Mutex
	lru    *list.List // of *registryEntry, most recent first
	byKey  map[uint64]*list.Element
	closed bool
}{
	lru:   list.New(),
	byKey: make(map[uint64]*list.Element),
}

// GetConnection returns the process-wide connection for the given conf,
// creating it on first use. Connections are keyed by the conf's fingerprint:
// callers with identical confs share one connection and one region cache.
func GetConnection(conf *Conf) (Client, error) {
	key := conf.fingerprint()

	registry.m.Lock()
	defer registry.m.Unlock()
	if registry.closed {
		return nil, ErrConnectionClosed
	}
	if el, ok := registry.byKey[key]; ok {
		registry.lru.MoveToFront(el)
		return el.Value.(*registryEntry).conn, nil
	}

	conn, err := NewClient(conf)
	if err != nil {
		return nil, err
	}
	el := registry.lru.PushFront(&registryEntry{key: key, conn: conn})
	registry.byKey[key] = el

	if registry.lru.Len() > maxCachedConnections {
		oldest := registry.lru.Back()
		registry.lru.Remove(oldest)
		entry := oldest.Value.(*registryEntry)
		delete(registry.byKey, entry.key)
		log.WithFields(log.Fields{
			"fingerprint": entry.key,
		}).Info("evicting least recently used connection")
		entry.conn.Close()
	}
	return conn, nil
}

// DeleteConnection drops and closes the cached connection for the conf, if
// one exists.
func DeleteConnection(conf *Conf) {
	key := conf.fingerprint()
	registry.m.Lock()
	el, ok := registry.byKey[key]
	if ok {
		registry.lru.Remove(el)
		delete(registry.byKey, key)
	}
	registry.m.Unlock()
	if ok {
		el.Value.(*registryEntry).conn.Close()
	}
}

// DeleteAllConnections closes every cached connection. The registry remains
// usable afterwards.
func DeleteAllConnections() {
	registry.m.Lock()
	conns := make([]Client, 0, registry.lru.Len())
	for el := registry.lru.Front(); el != nil; el = el.Next() {
		conns = append(conns, el.Value.(*registryEntry).conn)
	}
	registry.lru.Init()
	registry.byKey = make(map[uint64]*list.Element)
	registry.m.Unlock()
	for _, c := range conns {
		c.Close()
	}
}

// Shutdown closes every cached connection and refuses to create new ones.
// Intended for a process-exit hook.
func Shutdown() {
	registry.m.Lock()
	registry.closed = true
	registry.m.Unlock()
	DeleteAllConnections()
}
