// Copyright (C) 2016  The CascadeDB Authors.  All rights reserved.
// This file is part of CascadeDB.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package cascade

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/cascadedb/cascade-go/region"
	"github.com/cascadedb/cascade-go/zk"
)

// getMaster returns the shared master proxy, discovering it on first use.
// Discovery is serialized: when many callers race, exactly one asks the
// coordination service and probes the address, and the rest wait on the
// condition and reuse the outcome.
func (c *client) getMaster(ctx context.Context) (region.MasterClient, error) {
	c.masterMu.Lock()
	for {
		if c.closed {
			c.masterMu.Unlock()
			return nil, ErrConnectionClosed
		}
		if c.master != nil && c.masterChecked {
			m := c.master
			c.masterMu.Unlock()
			return m, nil
		}
		if !c.masterInflight {
			break
		}
		c.masterCond.Wait()
	}
	c.masterInflight = true
	c.masterMu.Unlock()

	m, err := c.discoverMaster(ctx)

	c.masterMu.Lock()
	c.masterInflight = false
	if err == nil {
		c.master = m
		c.masterChecked = true
	}
	c.masterCond.Broadcast()
	c.masterMu.Unlock()
	return m, err
}

// discoverMaster reads the master address from the coordination service and
// verifies liveness, retrying within the shared budget.
func (c *client) discoverMaster(ctx context.Context) (region.MasterClient, error) {
	var lastErr error
	for tries := 0; tries < c.conf.Retries; tries++ {
		if tries > 0 {
			if err := c.sleepBackoff(ctx, tries-1); err != nil {
				return nil, err
			}
		}

		lookupCtx, cancel := context.WithTimeout(ctx, c.conf.RPCTimeout)
		host, port, err := c.zkClient.LocateResource(lookupCtx, zk.Master)
		cancel()
		if err != nil {
			if errors.Is(err, zk.ErrSessionLostPermanent) || isInterrupted(err) {
				return nil, err
			}
			log.WithFields(log.Fields{"err": err}).Warn("failed to read master address")
			lastErr = err
			continue
		}
		addr := region.ServerAddress{Host: host, Port: port}

		m, err := region.NewMasterClient(ctx, addr, c.conf.RPCTimeout)
		if err != nil {
			if isDoNotRetry(err) || isInterrupted(err) {
				return nil, err
			}
			lastErr = err
			continue
		}

		rpcCtx, cancel := context.WithTimeout(ctx, c.conf.RPCTimeout)
		running, err := m.IsMasterRunning(rpcCtx)
		cancel()
		if err != nil {
			m.Close()
			if isDoNotRetry(err) || isInterrupted(err) {
				return nil, err
			}
			log.WithFields(log.Fields{
				"master": addr.String(),
				"err":    err,
			}).Warn("failed to probe master")
			lastErr = err
			continue
		}
		if !running {
			m.Close()
			lastErr = fmt.Errorf("%w at %s", ErrMasterNotRunning, addr)
			continue
		}
		return m, nil
	}
	if lastErr == nil {
		lastErr = ErrMasterNotRunning
	}
	return nil, fmt.Errorf("master discovery failed: %w", lastErr)
}

// resetMaster drops the shared proxy so the next caller re-runs discovery.
func (c *client) resetMaster() {
	c.masterMu.Lock()
	m := c.master
	c.master = nil
	c.masterChecked = false
	c.masterMu.Unlock()
	if m != nil {
		m.Close()
	}
}

// IsMasterRunning reports whether a live master is reachable. Discovery
// failures that simply mean "no master right now" come back as false rather
// than an error.
func (c *client) IsMasterRunning(ctx context.Context) (bool, error) {
	_, err := c.getMaster(ctx)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrMasterNotRunning) {
		return false, nil
	}
	return false, err
}

// KeepAliveMasterMonitor returns the shared master proxy for monitoring
// reads. The proxy is kept alive by the connection; callers must not close
// it.
func (c *client) KeepAliveMasterMonitor(ctx context.Context) (region.MasterClient, error) {
	return c.getMaster(ctx)
}

// KeepAliveMasterAdmin returns the shared master proxy for administrative
// calls. The proxy is kept alive by the connection; callers must not close
// it.
func (c *client) KeepAliveMasterAdmin(ctx context.Context) (region.MasterClient, error) {
	return c.getMaster(ctx)
}
