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

// Package block frames a log file as a sequence of typed blocks (spec §4.1,
// on-disk format in spec §6). Only this package and its lazy body decoders
// understand the wire bytes; everything above it deals in LogBlock values.
package block

// Magic is the fixed 7-byte marker every block frame begins with.
const Magic = "#HUDI#!"

const MagicLen = len(Magic)

// HeaderKey enumerates the closed set of header/footer map keys (spec §6).
type HeaderKey uint32

const (
	InstantTime HeaderKey = iota
	SchemaKey
	TargetInstantTime
	CommandBlockType
	CompactedBlockTimes
	RecordPositions
	BlockIdentifier
)

func (k HeaderKey) String() string {
	switch k {
	case InstantTime:
		return "INSTANT_TIME"
	case SchemaKey:
		return "SCHEMA"
	case TargetInstantTime:
		return "TARGET_INSTANT_TIME"
	case CommandBlockType:
		return "COMMAND_BLOCK_TYPE"
	case CompactedBlockTimes:
		return "COMPACTED_BLOCK_TIMES"
	case RecordPositions:
		return "RECORD_POSITIONS"
	case BlockIdentifier:
		return "BLOCK_IDENTIFIER"
	default:
		return "UNKNOWN_HEADER_KEY"
	}
}

// Kind is the block-frame discriminator (spec §6: u32 kind field).
type Kind uint32

const (
	KindData Kind = iota
	KindDelete
	KindCommand
	KindCorrupt
	KindCDC
)

func (k Kind) String() string {
	switch k {
	case KindData:
		return "DATA"
	case KindDelete:
		return "DELETE"
	case KindCommand:
		return "COMMAND"
	case KindCorrupt:
		return "CORRUPT"
	case KindCDC:
		return "CDC"
	default:
		return "UNKNOWN"
	}
}

// CommandSubtype is the value carried in the COMMAND_BLOCK_TYPE header for a
// KindCommand block. ROLLBACK is the only subtype this spec's snapshot read
// path interprets (spec §4.2).
type CommandSubtype string

const CommandRollback CommandSubtype = "ROLLBACK"

// HeaderMap is the serialized (enum key -> string) map carried by a block's
// header and footer (spec §6).
type HeaderMap map[HeaderKey]string
