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

package buffer

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"os"

	"github.com/gofrs/flock"
	"github.com/google/btree"

	"github.com/hudi-project/filegroupreader/types"
)

func init() {
	gob.Register(bool(false))
	gob.Register(int32(0))
	gob.Register(int64(0))
	gob.Register(float32(0))
	gob.Register(float64(0))
	gob.Register("")
	gob.Register([]byte(nil))
}

// spillIndexEntry locates one record's gob-encoded bytes within the spill
// file. The btree orders entries by (hash, rawKey) so Ascend walks them in
// a stable, reproducible order for Drain.
type spillIndexEntry struct {
	hash   uint64
	rawKey []byte
	offset int64
	length int64
}

func lessSpillIndexEntry(a, b spillIndexEntry) bool {
	if a.hash != b.hash {
		return a.hash < b.hash
	}
	return bytes.Compare(a.rawKey, b.rawKey) < 0
}

// spillStore is the disk-backed overflow tier for Buffer (spec §4.3: "past
// max_memory_bytes the buffer must spill to disk"). One spillStore owns one
// temp file and an flock-guarded lock file, so a crashed process doesn't
// leave another reader believing the spill file is still being written.
type spillStore struct {
	file   *os.File
	lock   *flock.Flock
	index  *btree.BTreeG[spillIndexEntry]
	offset int64
}

func newSpillStore(dir string) (*spillStore, error) {
	f, err := os.CreateTemp(dir, "filegroupreader-spill-*.bin")
	if err != nil {
		return nil, err
	}
	lk := flock.New(f.Name() + ".lock")
	locked, err := lk.TryLock()
	if err != nil {
		f.Close()
		return nil, err
	}
	if !locked {
		f.Close()
		return nil, os.ErrExist
	}
	return &spillStore{
		file:  f,
		lock:  lk,
		index: btree.NewG(32, lessSpillIndexEntry),
	}, nil
}

func (s *spillStore) put(rec types.LogicalRecord) error {
	enc := toEncodable(rec)
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&enc); err != nil {
		return err
	}
	n, err := s.file.WriteAt(buf.Bytes(), s.offset)
	if err != nil {
		return err
	}
	entry := spillIndexEntry{
		hash:   rec.Key.Hash(),
		rawKey: append([]byte(nil), keyBytes(rec.Key)...),
		offset: s.offset,
		length: int64(n),
	}
	s.index.ReplaceOrInsert(entry)
	s.offset += int64(n)
	return nil
}

func (s *spillStore) lookup(key types.Key) (spillIndexEntry, bool) {
	probe := spillIndexEntry{hash: key.Hash(), rawKey: keyBytes(key)}
	return s.index.Get(probe)
}

func (s *spillStore) get(key types.Key) (types.LogicalRecord, bool, error) {
	entry, ok := s.lookup(key)
	if !ok {
		return types.LogicalRecord{}, false, nil
	}
	rec, err := s.readAt(entry)
	if err != nil {
		return types.LogicalRecord{}, false, err
	}
	return rec, true, nil
}

func (s *spillStore) take(key types.Key) (types.LogicalRecord, bool, error) {
	entry, ok := s.lookup(key)
	if !ok {
		return types.LogicalRecord{}, false, nil
	}
	rec, err := s.readAt(entry)
	if err != nil {
		return types.LogicalRecord{}, false, err
	}
	s.index.Delete(entry)
	return rec, true, nil
}

func (s *spillStore) readAt(entry spillIndexEntry) (types.LogicalRecord, error) {
	buf := make([]byte, entry.length)
	if _, err := s.file.ReadAt(buf, entry.offset); err != nil {
		return types.LogicalRecord{}, err
	}
	var enc encodableRecord
	if err := gob.NewDecoder(bytes.NewReader(buf)).Decode(&enc); err != nil {
		return types.LogicalRecord{}, err
	}
	return enc.toLogicalRecord(), nil
}

func (s *spillStore) len() int { return s.index.Len() }

func (s *spillStore) drain(fn func(types.LogicalRecord) error) error {
	entries := make([]spillIndexEntry, 0, s.index.Len())
	s.index.Ascend(func(e spillIndexEntry) bool {
		entries = append(entries, e)
		return true
	})
	for _, e := range entries {
		rec, err := s.readAt(e)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
		s.index.Delete(e)
	}
	return nil
}

func (s *spillStore) close() error {
	name := s.file.Name()
	lockPath := s.lock.Path()
	closeErr := s.file.Close()
	os.Remove(name)
	unlockErr := s.lock.Unlock()
	os.Remove(lockPath)
	if closeErr != nil {
		return closeErr
	}
	return unlockErr
}

func keyBytes(k types.Key) []byte {
	if k.Positional {
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, k.Position)
		return b
	}
	return k.RawKey
}

// encodableRecord mirrors types.LogicalRecord in a form gob is comfortable
// with: Ordering's *OrderingNumeric needs to round-trip through its
// fixed-width byte form rather than gob-encoding uint256's internal array
// representation directly.
type encodableRecord struct {
	Positional    bool
	RawKey        []byte
	Position      uint64
	Partition     string
	State         types.RecordState
	Payload       types.Row
	IsNumeric     bool
	OrderingBytes []byte
	Opaque        []byte
	BlockSeq      uint64
	RowSeq        uint64
	SourceInstant types.Instant
}

func toEncodable(rec types.LogicalRecord) encodableRecord {
	e := encodableRecord{
		Positional:    rec.Key.Positional,
		RawKey:        rec.Key.RawKey,
		Position:      rec.Key.Position,
		Partition:     rec.Partition,
		State:         rec.State,
		Payload:       rec.Payload,
		IsNumeric:     rec.Ordering.IsNumeric,
		Opaque:        rec.Ordering.Opaque,
		BlockSeq:      rec.Ordering.BlockSeq,
		RowSeq:        rec.Ordering.RowSeq,
		SourceInstant: rec.SourceInstant,
	}
	if rec.Ordering.IsNumeric && rec.Ordering.Numeric != nil {
		num := rec.Ordering.Numeric.Uint64()
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, num)
		e.OrderingBytes = b
	}
	return e
}

func (e encodableRecord) toLogicalRecord() types.LogicalRecord {
	key := types.Key{Positional: e.Positional, RawKey: e.RawKey, Position: e.Position}
	ordering := types.Ordering{
		IsNumeric: e.IsNumeric,
		Opaque:    e.Opaque,
		BlockSeq:  e.BlockSeq,
		RowSeq:    e.RowSeq,
	}
	if e.IsNumeric {
		ordering.Numeric = types.NewOrderingNumericFromBigEndian(e.OrderingBytes)
	}
	return types.LogicalRecord{
		Key:           key,
		Partition:     e.Partition,
		State:         e.State,
		Payload:       e.Payload,
		Ordering:      ordering,
		SourceInstant: e.SourceInstant,
	}
}
