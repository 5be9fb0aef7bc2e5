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
	"encoding/binary"
	"errors"
)

// errShortBuffer signals "not enough bytes to parse yet" to the frame reader,
// which distinguishes it from a genuine corruption and simply re-fetches a
// larger window (spec §4.1 read_next is allowed to need more than one
// underlying read since header/body lengths are only known once parsed).
var errShortBuffer = errors.New("short buffer")

// putU32/putU64/putBytes/getXxx implement the fixed-width encoding used by
// the on-disk frame (spec §6). Big-endian, matching the teacher's own
// wire-format convention for on-disk integers.

func putU32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func putU64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func putBytes(buf []byte, v []byte) []byte {
	buf = putU32(buf, uint32(len(v)))
	return append(buf, v...)
}

func getU32(b []byte) (uint32, []byte, error) {
	if len(b) < 4 {
		return 0, nil, errShortBuffer
	}
	return binary.BigEndian.Uint32(b), b[4:], nil
}

func getU64(b []byte) (uint64, []byte, error) {
	if len(b) < 8 {
		return 0, nil, errShortBuffer
	}
	return binary.BigEndian.Uint64(b), b[8:], nil
}

func getBytes(b []byte) ([]byte, []byte, error) {
	n, rest, err := getU32(b)
	if err != nil {
		return nil, nil, err
	}
	if uint64(len(rest)) < uint64(n) {
		return nil, nil, errShortBuffer
	}
	return rest[:n], rest[n:], nil
}

func putHeaderMap(buf []byte, m HeaderMap) []byte {
	buf = putU32(buf, uint32(len(m)))
	// deterministic order for reproducible fixtures/tests.
	keys := make([]HeaderKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sortHeaderKeys(keys)
	for _, k := range keys {
		buf = putU32(buf, uint32(k))
		buf = putBytes(buf, []byte(m[k]))
	}
	return buf
}

func getHeaderMap(b []byte) (HeaderMap, []byte, error) {
	cnt, rest, err := getU32(b)
	if err != nil {
		return nil, nil, err
	}
	m := make(HeaderMap, cnt)
	for i := uint32(0); i < cnt; i++ {
		var keyEnum uint32
		keyEnum, rest, err = getU32(rest)
		if err != nil {
			return nil, nil, err
		}
		var val []byte
		val, rest, err = getBytes(rest)
		if err != nil {
			return nil, nil, err
		}
		m[HeaderKey(keyEnum)] = string(val)
	}
	return m, rest, nil
}

func sortHeaderKeys(keys []HeaderKey) {
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
}
