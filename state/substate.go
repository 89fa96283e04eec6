// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package state

import (
	"github.com/conflux-chain/cfx-evm-executor/common"
	mapset "github.com/deckarep/golang-set/v2"
)

// LogEntry is one emitted event, ordered by execution within a Substate.
type LogEntry struct {
	Address common.Address
	Space   common.Space
	Topics  []common.Hash
	Data    []byte
}

// Substate is the per-transaction mutable accumulator threaded through
// every frame: logs, contracts created, suicided/touched address sets, and
// the storage-clear refund counter. Child substates fold into their parent
// via Accrue.
type Substate struct {
	Logs             []LogEntry
	ContractsCreated []common.AddressWithSpace
	Suicides         mapset.Set[common.AddressWithSpace]
	Touched          mapset.Set[common.AddressWithSpace]
	SstoreClearsRefund uint64
}

func NewSubstate() *Substate {
	return &Substate{
		Suicides: mapset.NewThreadUnsafeSet[common.AddressWithSpace](),
		Touched:  mapset.NewThreadUnsafeSet[common.AddressWithSpace](),
	}
}

// Accrue merges child into s: logs and contracts_created are concatenated
// child-first (the child already finished, so its entries predate anything
// the parent appends afterwards), suicides/touched are unioned, and the
// refund counter is summed.
func (s *Substate) Accrue(child *Substate) {
	if child == nil {
		return
	}
	s.Logs = append(s.Logs, child.Logs...)
	s.ContractsCreated = append(s.ContractsCreated, child.ContractsCreated...)
	s.Suicides = s.Suicides.Union(child.Suicides)
	s.Touched = s.Touched.Union(child.Touched)
	s.SstoreClearsRefund += child.SstoreClearsRefund
}

// FrameStackInfo tracks call-stack depth and the static flag at every
// frame: static disallows any mutating operation below it.
type FrameStackInfo struct {
	depths  []int
	statics []bool
}

func NewFrameStackInfo() *FrameStackInfo {
	return &FrameStackInfo{}
}

func (f *FrameStackInfo) Push(depth int, static bool) {
	f.depths = append(f.depths, depth)
	f.statics = append(f.statics, static)
}

func (f *FrameStackInfo) Pop() {
	if len(f.depths) == 0 {
		return
	}
	f.depths = f.depths[:len(f.depths)-1]
	f.statics = f.statics[:len(f.statics)-1]
}

func (f *FrameStackInfo) Depth() int {
	return len(f.depths)
}

// Static reports whether any frame currently on the stack is static: once
// set, the flag holds for every descendant frame.
func (f *FrameStackInfo) Static() bool {
	for _, s := range f.statics {
		if s {
			return true
		}
	}
	return false
}
