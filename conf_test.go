// Copyright (C) 2016  The CascadeDB Authors.  All rights reserved.
// This file is part of CascadeDB.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package cascade

import (
	"testing"
	"time"
)

func TestConfDefaults(t *testing.T) {
	c := NewConf("q1:2181", "q2:2181")
	if c.Retries != DefaultRetries {
		t.Errorf("Retries = %d", c.Retries)
	}
	if c.Pause != DefaultPause {
		t.Errorf("Pause = %s", c.Pause)
	}
	if c.RPCTimeout != DefaultRPCTimeout {
		t.Errorf("RPCTimeout = %s", c.RPCTimeout)
	}
	if c.RPCRetryTimeout != 0 {
		t.Errorf("RPCRetryTimeout = %s, want unbounded", c.RPCRetryTimeout)
	}
	if c.PrefetchLimit != DefaultPrefetchLimit {
		t.Errorf("PrefetchLimit = %d", c.PrefetchLimit)
	}
	if c.MaxCoordReconnection != DefaultMaxCoordReconnection {
		t.Errorf("MaxCoordReconnection = %d", c.MaxCoordReconnection)
	}
	if c.MetaScannerCaching != DefaultMetaScannerCaching {
		t.Errorf("MetaScannerCaching = %d", c.MetaScannerCaching)
	}

	// Explicit settings survive defaulting.
	c = &Conf{Quorum: []string{"q1:2181"}, Retries: 3, Pause: time.Second}
	c.applyDefaults()
	if c.Retries != 3 || c.Pause != time.Second {
		t.Errorf("explicit settings were clobbered: %+v", c)
	}
}

func TestConfFingerprint(t *testing.T) {
	base := NewConf("q1:2181")
	same := NewConf("q1:2181")
	if base.fingerprint() != same.fingerprint() {
		t.Error("identical confs should collide")
	}

	variants := []*Conf{
		NewConf("q2:2181"),
		NewConf("q1:2181", "q2:2181"),
	}
	withTweaks := NewConf("q1:2181")
	withTweaks.RPCTimeout = 5 * time.Second
	variants = append(variants, withTweaks)

	withClass := NewConf("q1:2181")
	withClass.RegionServerClass = "experimental"
	variants = append(variants, withClass)

	withRetries := NewConf("q1:2181")
	withRetries.Retries = 4
	variants = append(variants, withRetries)

	for i, v := range variants {
		if v.fingerprint() == base.fingerprint() {
			t.Errorf("[#%d] conf %+v should not collide with the base", i, v)
		}
	}
}
