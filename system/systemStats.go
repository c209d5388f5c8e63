//  Copyright 2016-Present StrandDB, Inc.
//
//  Use of this software is governed by the Business Source License included
//  in the file licenses/BSL-StrandDB.txt.  As of the Change Date specified
//  in that file, in accordance with the Business Source License, use of this
//  software will be governed by the Apache License, Version 2.0, included in
//  the file licenses/APL2.txt.

// Package system probes host resources. The prepared statement caches size
// themselves off the total memory reported here.
package system

import (
	"os"
	"time"

	sigar "github.com/cloudfoundry/gosigar"
)

type SystemStats struct {
	pid int
}

// Open a new handle
func NewSystemStats() (*SystemStats, error) {
	return &SystemStats{pid: os.Getpid()}, nil
}

func (s *SystemStats) Close() {
	// nothing held open
}

// ProcessRSS gets the size in bytes of the memory-resident portion of this Go runtime.
func (s *SystemStats) ProcessRSS() (int, uint64, error) {
	mem := sigar.ProcMem{}
	if err := mem.Get(s.pid); err != nil {
		return 0, uint64(0), err
	}
	return s.pid, mem.Resident, nil
}

func (s *SystemStats) ProcessCpuStats() (int, uint64, uint64, error) {
	cpu := sigar.ProcTime{}
	if err := cpu.Get(s.pid); err != nil {
		return 0, uint64(0), uint64(0), err
	}
	return s.pid, cpu.User + cpu.Sys, uint64(time.Now().UnixMilli()), nil
}

// SystemFreeMem gets the current free memory in bytes, EXCLUDING inactive
// OS kernel pages.
func (s *SystemStats) SystemFreeMem() (uint64, error) {
	mem := sigar.Mem{}
	if err := mem.Get(); err != nil {
		return uint64(0), err
	}
	return mem.Free, nil
}

// SystemActualFreeMem gets the current free memory in bytes, INCLUDING
// inactive OS kernel pages.
func (s *SystemStats) SystemActualFreeMem() (uint64, error) {
	mem := sigar.Mem{}
	if err := mem.Get(); err != nil {
		return uint64(0), err
	}
	return mem.ActualFree, nil
}

// SystemTotalMem gets the total memory in bytes available to this Go runtime.
func (s *SystemStats) SystemTotalMem() (uint64, error) {
	mem := sigar.Mem{}
	if err := mem.Get(); err != nil {
		return uint64(0), err
	}
	return mem.Total, nil
}
