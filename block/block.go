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

package block

import "github.com/hudi-project/filegroupreader/types"

// LogBlock is a tagged variant, not a class hierarchy (spec §9 design note:
// "Deep inheritance in log blocks" is replaced with match-dispatch over a
// Kind tag). Exactly one of Data/Delete/Command is populated, selected by
// Kind; KindCorrupt populates none of them.
type LogBlock struct {
	Kind    Kind
	Header  HeaderMap
	Footer  HeaderMap
	Data    *DataBlock
	Delete  *DeleteBlock
	Command *CommandBlock

	// LogFileVersion/Offset identify this block's position for the log
	// scanner's total ordering (spec §4.2: instant_time asc, version asc,
	// block_offset asc).
	LogFileVersion int
	Offset         int64
}

func (b LogBlock) InstantTime() types.Instant {
	return types.Instant(b.Header[InstantTime])
}

// DataBlock carries a batch of records plus the codec tag needed to decode
// them lazily (spec §4.1 "decode_body ... lazy; only materializes records
// when the buffer pulls").
type DataBlock struct {
	CodecTag    uint32
	KeyField    string
	Compression CompressionTag
	RecordCount uint64
	RawRecords  []byte // compressed/encoded per CodecTag+Compression until decoded
	Schema      *types.Schema
}

// DeleteTombstone is one (record-key, partition, ordering-value) entry of a
// DeleteBlock body (spec §6: "length-prefixed list of (key, partition,
// ordering_wrapper_tag, ordering_bytes)").
type DeleteTombstone struct {
	Key       []byte
	Partition string
	Ordering  types.Ordering
}

type DeleteBlock struct {
	Tombstones []DeleteTombstone
}

type CommandBlock struct {
	Subtype CommandSubtype
	Target  types.Instant
}

// CompressionTag is the `u8 compression` byte of a data-block body (spec
// §6).
type CompressionTag uint8

const (
	CompressionNone CompressionTag = iota
	CompressionSnappy
	CompressionZstd
)
