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

import (
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"

	"github.com/hudi-project/filegroupreader/kv"
	"github.com/hudi-project/filegroupreader/types"
)

// Reader frames one log file into a sequence of LogBlock values (spec §4.1).
// It owns no retry/caching policy beyond growing its read window when a
// frame turns out to be larger than what it first fetched.
type Reader struct {
	storage kv.Storage
	handle  kv.ReadHandle
	size    int64
	version int // this log file's position in (version asc) ordering, spec §4.2
}

func NewReader(storage kv.Storage, h kv.ReadHandle, size int64, version int) *Reader {
	return &Reader{storage: storage, handle: h, size: size, version: version}
}

const (
	initialWindow = 8 << 10
	maxWindowGrowth = 24 // 8KiB * 2^24 caps a single frame at 128GiB, far past any sane block
)

// ReadNext decodes the frame starting at offset (spec §4.1:
// "read_next(offset) -> (block, next_offset)"). On a magic mismatch, a
// footer CRC mismatch or a length that would run past EOF, it returns a
// KindCorrupt block whose
// extent is consumed so the caller can resume scanning right after it (spec
// §4.1, §4.7: "Corrupt log block: skip, log, continue").
func (r *Reader) ReadNext(ctx context.Context, offset int64) (LogBlock, int64, error) {
	if offset >= r.size {
		return LogBlock{}, offset, io.EOF
	}

	window := int64(initialWindow)
	var buf []byte
	for attempt := 0; attempt <= maxWindowGrowth; attempt++ {
		remaining := r.size - offset
		fetch := window
		if fetch > remaining {
			fetch = remaining
		}
		var err error
		buf, err = r.storage.ReadRange(ctx, r.handle, offset, fetch)
		if err != nil {
			return LogBlock{}, offset, err
		}

		blk, consumed, perr := r.parseFrame(buf, offset)
		if perr == nil {
			blk.LogFileVersion = r.version
			blk.Offset = offset
			return blk, offset + consumed, nil
		}
		if errors.Is(perr, errCRCMismatch) {
			return corruptBlock(offset), offset + consumed, nil
		}
		if !errors.Is(perr, errShortBuffer) {
			return LogBlock{}, offset, perr
		}
		if fetch >= remaining {
			// Already have everything left in the file and it's still not
			// enough to parse a complete frame: the declared length runs
			// past EOF. Treat the rest of the file as one corrupt extent.
			return corruptBlock(offset), r.size, nil
		}
		window *= 2
	}
	return corruptBlock(offset), offset + window, nil
}

func corruptBlock(offset int64) LogBlock {
	return LogBlock{Kind: KindCorrupt, Offset: offset}
}

// parseFrame attempts to decode one full frame from buf (which starts at
// file offset `offset`). It returns errShortBuffer when buf doesn't yet hold
// enough bytes to tell.
func (r *Reader) parseFrame(buf []byte, offset int64) (LogBlock, int64, error) {
	if len(buf) < MagicLen {
		return LogBlock{}, 0, errShortBuffer
	}
	if string(buf[:MagicLen]) != Magic {
		return r.resyncAfterCorruption(buf, offset)
	}
	rest := buf[MagicLen:]

	_, rest, err := getU32(rest) // version; framing version isn't branched on yet
	if err != nil {
		return LogBlock{}, 0, err
	}
	kindRaw, rest, err := getU32(rest)
	if err != nil {
		return LogBlock{}, 0, err
	}
	header, rest, err := getHeaderMap(rest)
	if err != nil {
		return LogBlock{}, 0, err
	}
	bodyLen, rest, err := getU64(rest)
	if err != nil {
		return LogBlock{}, 0, err
	}
	if uint64(len(rest)) < bodyLen {
		return LogBlock{}, 0, errShortBuffer
	}
	body := rest[:bodyLen]
	rest = rest[bodyLen:]
	footer, rest, err := getHeaderMap(rest)
	if err != nil {
		return LogBlock{}, 0, err
	}
	if len(rest) < 4 {
		return LogBlock{}, 0, errShortBuffer
	}
	wantCRC := binary.BigEndian.Uint32(rest[:4])
	rest = rest[4:]
	consumed := int64(len(buf) - len(rest))

	gotCRC := crc32.ChecksumIEEE(body)
	if gotCRC != wantCRC {
		return LogBlock{}, consumed, errCRCMismatch
	}

	blk := LogBlock{Kind: Kind(kindRaw), Header: header, Footer: footer}
	switch blk.Kind {
	case KindData, KindCDC:
		d, err := parseDataBody(body)
		if err != nil {
			return LogBlock{}, 0, err
		}
		blk.Data = d
	case KindDelete:
		d, err := parseDeleteBody(body)
		if err != nil {
			return LogBlock{}, 0, err
		}
		blk.Delete = d
	case KindCommand:
		blk.Command = &CommandBlock{
			Subtype: CommandSubtype(header[CommandBlockType]),
			Target:  types.Instant(header[TargetInstantTime]),
		}
	default:
		return LogBlock{}, 0, errUnknownKind
	}
	return blk, consumed, nil
}

// resyncAfterCorruption scans forward for the next magic marker within buf,
// reporting the skipped span as one corrupt block (spec §4.1: "in that case
// the caller skips body_len bytes and continues" — generalized here to
// "skip to the next plausible frame start", since a garbled length prefix
// can't be trusted for how many bytes to skip).
func (r *Reader) resyncAfterCorruption(buf []byte, offset int64) (LogBlock, int64, error) {
	for i := 1; i+MagicLen <= len(buf); i++ {
		if string(buf[i:i+MagicLen]) == Magic {
			return LogBlock{Kind: KindCorrupt, Offset: offset}, int64(i), nil
		}
	}
	// No resync point in this window; if we're not yet at EOF, ask for more.
	if offset+int64(len(buf)) < r.size {
		return LogBlock{}, 0, errShortBuffer
	}
	return LogBlock{Kind: KindCorrupt, Offset: offset}, int64(len(buf)), nil
}

var (
	errCRCMismatch = errCorrupt("block footer CRC mismatch")
	errUnknownKind = errCorrupt("unknown block kind")
)

type errCorrupt string

func (e errCorrupt) Error() string { return string(e) }
