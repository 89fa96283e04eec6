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

package params

import (
	"github.com/conflux-chain/cfx-evm-executor/common"
	"github.com/holiman/uint256"
)

// Env carries the read-only block context the executor and VM need. It is
// never mutated once constructed for a given transact() call.
type Env struct {
	Number     uint64
	Timestamp  uint64
	Author     common.Address
	Difficulty *uint256.Int
	GasLimit   uint64
	LastHashes []common.Hash
}
