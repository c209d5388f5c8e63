//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

package util

import (
	"runtime"
)

// determined once at startup, so that sizing decisions made from it are
// stable for the process lifetime
var numCPUs = runtime.GOMAXPROCS(0)

func NumCPU() int {
	return numCPUs
}
