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

import "hash/crc32"

// Encoder serializes LogBlock values to the on-disk frame (spec §6). The
// reader's own collaborators are writers and the timeline (spec §1 Out of
// scope); this encoder exists purely so this module's fixtures and tests can
// build realistic log-file byte streams without depending on a real writer.
type Encoder struct{ version uint32 }

func NewEncoder() *Encoder { return &Encoder{version: 1} }

func (e *Encoder) frame(kind Kind, header, footer HeaderMap, body []byte) []byte {
	buf := make([]byte, 0, MagicLen+16+len(body)+64)
	buf = append(buf, Magic...)
	buf = putU32(buf, e.version)
	buf = putU32(buf, uint32(kind))
	buf = putHeaderMap(buf, header)
	buf = putU64(buf, uint64(len(body)))
	buf = append(buf, body...)
	buf = putHeaderMap(buf, footer)
	buf = putU32(buf, crc32.ChecksumIEEE(body))
	return buf
}

// EncodeData emits a DataBlock frame. compression defaults to
// CompressionNone when not set on d.
func (e *Encoder) EncodeData(instant string, schema string, d *DataBlock) ([]byte, error) {
	compressed, err := compress(d.Compression, d.RawRecords)
	if err != nil {
		return nil, err
	}
	body := encodeDataBody(d, compressed)
	header := HeaderMap{InstantTime: instant, SchemaKey: schema}
	return e.frame(KindData, header, HeaderMap{}, body), nil
}

func (e *Encoder) EncodeDelete(instant string, d *DeleteBlock) []byte {
	body := encodeDeleteBody(d)
	header := HeaderMap{InstantTime: instant}
	return e.frame(KindDelete, header, HeaderMap{}, body)
}

func (e *Encoder) EncodeCommand(instant string, c *CommandBlock) []byte {
	header := HeaderMap{
		InstantTime:        instant,
		CommandBlockType:   string(c.Subtype),
		TargetInstantTime:  string(c.Target),
	}
	return e.frame(KindCommand, header, HeaderMap{}, nil)
}

// EncodeCorrupt emits n bytes that won't parse as a valid frame — used by
// tests to exercise corruption recovery (spec §8 scenario S5).
func EncodeCorrupt(n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(0xAA ^ i)
	}
	return buf
}
