// Copyright 2025 The File-Group Reader Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package types

import (
	"bytes"

	"github.com/cespare/xxhash/v2"
)

// RecordState distinguishes a present value from a tombstone in the
// record buffer's keyed view (spec §3 LogicalRecord).
type RecordState uint8

const (
	Present RecordState = iota
	Tombstone
)

// Key identifies a LogicalRecord either by record key (default) or by row
// position (when use_row_position is enabled, spec §4.3). Exactly one of
// RawKey / Position is meaningful, discriminated by Positional.
type Key struct {
	Positional bool
	RawKey     []byte
	Position   uint64
}

func RecordKey(raw []byte) Key { return Key{RawKey: raw} }
func PositionKey(pos uint64) Key { return Key{Positional: true, Position: pos} }

// Hash is the fast, non-cryptographic hash used as the map key for the
// record buffer's resident in-memory index (buffer/ package); RawKey
// equality is still checked on hash collision.
func (k Key) Hash() uint64 {
	if k.Positional {
		return k.Position
	}
	return xxhash.Sum64(k.RawKey)
}

func (k Key) Equal(o Key) bool {
	if k.Positional != o.Positional {
		return false
	}
	if k.Positional {
		return k.Position == o.Position
	}
	return bytes.Equal(k.RawKey, o.RawKey)
}

// Ordering is the totally ordered precombine value a merge rule compares
// (spec §3 LogicalRecord invariant). A nil Ordering falls back to
// (instant_time, block_seq, row_seq) per spec §4.3.
type Ordering struct {
	// Numeric holds a numeric precombine value using a fixed-width 256-bit
	// unsigned representation (uint256), matching how totally-ordered
	// numeric quantities are represented elsewhere in this domain.
	Numeric    *OrderingNumeric
	Opaque     []byte // used when the precombine column is not numeric
	IsNumeric  bool
	BlockSeq   uint64 // fallback component: order blocks were read in
	RowSeq     uint64 // fallback component: order within a block
}

// Compare returns -1, 0, 1. Numeric orderings compare by value; opaque
// orderings compare byte-wise; mixed comparisons fall back to the
// (BlockSeq, RowSeq) tie-break, which is always populated.
func (o Ordering) Compare(other Ordering) int {
	if o.IsNumeric && other.IsNumeric {
		if c := o.Numeric.Compare(other.Numeric); c != 0 {
			return c
		}
	} else if !o.IsNumeric && !other.IsNumeric {
		if c := bytes.Compare(o.Opaque, other.Opaque); c != 0 {
			return c
		}
	}
	if o.BlockSeq != other.BlockSeq {
		if o.BlockSeq < other.BlockSeq {
			return -1
		}
		return 1
	}
	if o.RowSeq != other.RowSeq {
		if o.RowSeq < other.RowSeq {
			return -1
		}
		return 1
	}
	return 0
}

// LogicalRecord is the in-buffer entry keyed by either record-key or
// row-position (spec §3).
type LogicalRecord struct {
	Key            Key
	Partition      string
	State          RecordState
	Payload        Row // nil when State == Tombstone
	Ordering       Ordering
	SourceInstant  Instant
}
