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
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/golang/snappy"

	"github.com/hudi-project/filegroupreader/types"
)

// decompress reverses the CompressionTag applied to a data block's record
// bytes (spec §6: "u8 compression" in the data-block body prefix).
func decompress(tag CompressionTag, raw []byte) ([]byte, error) {
	switch tag {
	case CompressionNone:
		return raw, nil
	case CompressionSnappy:
		return snappy.Decode(nil, raw)
	case CompressionZstd:
		dec, err := zstd.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return io.ReadAll(dec)
	default:
		return nil, fmt.Errorf("unknown compression tag %d", tag)
	}
}

func compress(tag CompressionTag, raw []byte) ([]byte, error) {
	switch tag {
	case CompressionNone:
		return raw, nil
	case CompressionSnappy:
		return snappy.Encode(nil, raw), nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(raw, nil), nil
	default:
		return nil, fmt.Errorf("unknown compression tag %d", tag)
	}
}

// Decompressed returns a DataBlock's record bytes with its Compression
// reversed, ready to hand to a kv.BodyCodec.
func (d *DataBlock) Decompressed() ([]byte, error) {
	return decompress(d.Compression, d.RawRecords)
}

// parseDataBody parses the fixed prefix of a data-block body (spec §6):
//
//	u32 codec_tag | u32 key_field_len | bytes key_field | u8 compression |
//	u64 record_count | bytes records...
func parseDataBody(body []byte) (*DataBlock, error) {
	codecTag, rest, err := getU32(body)
	if err != nil {
		return nil, err
	}
	keyField, rest, err := getBytes(rest)
	if err != nil {
		return nil, err
	}
	if len(rest) < 1 {
		return nil, errShortBuffer
	}
	compressionTag := CompressionTag(rest[0])
	rest = rest[1:]
	recordCount, rest, err := getU64(rest)
	if err != nil {
		return nil, err
	}
	return &DataBlock{
		CodecTag:    codecTag,
		KeyField:    string(keyField),
		Compression: compressionTag,
		RecordCount: recordCount,
		RawRecords:  rest,
	}, nil
}

func encodeDataBody(d *DataBlock, compressed []byte) []byte {
	buf := make([]byte, 0, len(compressed)+32)
	buf = putU32(buf, d.CodecTag)
	buf = putBytes(buf, []byte(d.KeyField))
	buf = append(buf, byte(d.Compression))
	buf = putU64(buf, d.RecordCount)
	buf = append(buf, compressed...)
	return buf
}

// parseDeleteBody parses a delete-block body: a length-prefixed list of
// (key, partition, ordering_wrapper_tag, ordering_bytes).
func parseDeleteBody(body []byte) (*DeleteBlock, error) {
	count, rest, err := getU32(body)
	if err != nil {
		return nil, err
	}
	tombstones := make([]DeleteTombstone, 0, count)
	for i := uint32(0); i < count; i++ {
		var key, partition, orderingBytes []byte
		key, rest, err = getBytes(rest)
		if err != nil {
			return nil, err
		}
		partition, rest, err = getBytes(rest)
		if err != nil {
			return nil, err
		}
		if len(rest) < 1 {
			return nil, errShortBuffer
		}
		isNumeric := rest[0] == 1
		rest = rest[1:]
		orderingBytes, rest, err = getBytes(rest)
		if err != nil {
			return nil, err
		}
		var ordering types.Ordering
		if isNumeric {
			ordering = types.Ordering{IsNumeric: true, Numeric: types.NewOrderingNumericFromBigEndian(orderingBytes)}
		} else {
			ordering = types.Ordering{Opaque: orderingBytes}
		}
		tombstones = append(tombstones, DeleteTombstone{
			Key:       key,
			Partition: string(partition),
			Ordering:  ordering,
		})
	}
	return &DeleteBlock{Tombstones: tombstones}, nil
}

func encodeDeleteBody(d *DeleteBlock) []byte {
	buf := make([]byte, 0, 64*len(d.Tombstones))
	buf = putU32(buf, uint32(len(d.Tombstones)))
	for _, t := range d.Tombstones {
		buf = putBytes(buf, t.Key)
		buf = putBytes(buf, []byte(t.Partition))
		if t.Ordering.IsNumeric {
			buf = append(buf, 1)
			var ob []byte
			if t.Ordering.Numeric != nil {
				ob = make([]byte, 8)
				num := t.Ordering.Numeric.Uint64()
				for i := 7; i >= 0; i-- {
					ob[i] = byte(num)
					num >>= 8
				}
			}
			buf = putBytes(buf, ob)
		} else {
			buf = append(buf, 0)
			buf = putBytes(buf, t.Ordering.Opaque)
		}
	}
	return buf
}
