// Copyright (C) 2016  The CascadeDB Authors.  All rights reserved.
// This file is part of CascadeDB.
// Use of this source code is governed by the Apache License 2.0
// that can be found in the COPYING file.

package mock_test

import (
	regionMock "github.com/cascadedb/cascade-go/test/mock/region"
	zkMock "github.com/cascadedb/cascade-go/test/mock/zk"

	"github.com/cascadedb/cascade-go/region"
	"github.com/cascadedb/cascade-go/zk"
)

var _ zk.Client = (*zkMock.MockClient)(nil)
var _ region.ShardClient = (*regionMock.MockShardClient)(nil)
var _ region.MasterClient = (*regionMock.MockMasterClient)(nil)
