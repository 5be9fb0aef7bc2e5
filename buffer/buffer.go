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

// Package buffer implements the record buffer (spec §4.3): a keyed or
// positional index of the latest LogicalRecord per key, folded in scan
// order according to the configured merge mode, spilling to disk past a
// configured memory ceiling.
package buffer

import (
	"sort"

	"github.com/c2h5oh/datasize"

	errs "github.com/hudi-project/filegroupreader/errors"
	"github.com/hudi-project/filegroupreader/types"
)

// perRecordOverhead is a conservative fixed cost charged per resident entry
// on top of its payload's estimated size, covering the map bucket, the
// chain slice header and the LogicalRecord struct itself.
const perRecordOverhead = datasize.ByteSize(96)

// Buffer is the merge-fold index described in spec §4.3. It is not safe for
// concurrent use; the reader serializes access to it.
type Buffer struct {
	mode      types.MergeMode
	merger    types.Merger
	schema    *types.Schema
	maxMemory datasize.ByteSize

	resident   map[uint64][]*types.LogicalRecord
	usedMemory datasize.ByteSize
	count      int
	spillDir   string

	spill *spillStore // nil until the resident set first exceeds maxMemory
}

// Config bundles the knobs Buffer needs out of config.ReaderConfig, so this
// package does not depend on config/.
type Config struct {
	Mode      types.MergeMode
	Merger    types.Merger
	Schema    *types.Schema
	MaxMemory datasize.ByteSize
	SpillDir  string
}

func New(cfg Config) *Buffer {
	return &Buffer{
		mode:      cfg.Mode,
		merger:    cfg.Merger,
		schema:    cfg.Schema,
		maxMemory: cfg.MaxMemory,
		spillDir:  cfg.SpillDir,
		resident:  make(map[uint64][]*types.LogicalRecord),
	}
}

// Len reports the number of distinct keys currently tracked, resident and
// spilled.
func (b *Buffer) Len() int {
	n := b.count
	if b.spill != nil {
		n += b.spill.len()
	}
	return n
}

// Put folds rec into whatever is already tracked for its key (spec §4.3
// fold table), spilling older entries to disk once usedMemory would exceed
// maxMemory.
func (b *Buffer) Put(rec types.LogicalRecord) error {
	h := rec.Key.Hash()
	chain := b.resident[h]
	for i, existing := range chain {
		if existing.Key.Equal(rec.Key) {
			merged, err := b.fold(*existing, rec)
			if err != nil {
				return err
			}
			delta := estimateSize(merged) - estimateSize(*existing)
			chain[i] = &merged
			b.usedMemory += delta
			return b.maybeSpill()
		}
	}

	if b.spill != nil {
		if existing, ok, err := b.spill.get(rec.Key); err != nil {
			return err
		} else if ok {
			merged, err := b.fold(existing, rec)
			if err != nil {
				return err
			}
			return b.spill.put(merged)
		}
	}

	b.resident[h] = append(chain, &rec)
	b.count++
	b.usedMemory += estimateSize(rec) + perRecordOverhead
	return b.maybeSpill()
}

// Get returns the current folded record for key, if any is tracked.
func (b *Buffer) Get(key types.Key) (types.LogicalRecord, bool, error) {
	h := key.Hash()
	for _, existing := range b.resident[h] {
		if existing.Key.Equal(key) {
			return *existing, true, nil
		}
	}
	if b.spill != nil {
		return b.spill.get(key)
	}
	return types.LogicalRecord{}, false, nil
}

// Take removes and returns the folded record for key, if any. The merge
// driver (spec §4.5) uses this to consume buffer-only entries once the base
// stream is exhausted.
func (b *Buffer) Take(key types.Key) (types.LogicalRecord, bool, error) {
	h := key.Hash()
	chain := b.resident[h]
	for i, existing := range chain {
		if existing.Key.Equal(key) {
			rec := *existing
			chain = append(chain[:i], chain[i+1:]...)
			if len(chain) == 0 {
				delete(b.resident, h)
			} else {
				b.resident[h] = chain
			}
			b.count--
			b.usedMemory -= estimateSize(rec) + perRecordOverhead
			return rec, true, nil
		}
	}
	if b.spill != nil {
		return b.spill.take(key)
	}
	return types.LogicalRecord{}, false, nil
}

// Drain calls fn once for every remaining record, resident then spilled,
// removing each as it is visited.
func (b *Buffer) Drain(fn func(types.LogicalRecord) error) error {
	for h, chain := range b.resident {
		for _, rec := range chain {
			if err := fn(*rec); err != nil {
				return err
			}
		}
		delete(b.resident, h)
	}
	b.count = 0
	b.usedMemory = 0
	if b.spill != nil {
		return b.spill.drain(fn)
	}
	return nil
}

// Close releases any spill file the buffer opened. Calling it again is a
// no-op.
func (b *Buffer) Close() error {
	if b.spill == nil {
		return nil
	}
	err := b.spill.close()
	b.spill = nil
	return err
}

func (b *Buffer) fold(existing, incoming types.LogicalRecord) (types.LogicalRecord, error) {
	return Fold(b.mode, b.merger, b.schema, existing, incoming)
}

// Fold applies the spec §4.3 fold table to two contributions for the same
// key: existing is whatever was already known (older), incoming is the
// newer contribution being folded in. Exported so the merge driver (spec
// §4.5) can apply the identical rule between a base-file row and whatever
// the buffer accumulated for its key, not just between two buffer entries.
func Fold(mode types.MergeMode, merger types.Merger, schema *types.Schema, existing, incoming types.LogicalRecord) (types.LogicalRecord, error) {
	switch mode {
	case types.OverwriteWithLatest:
		return incoming, nil
	case types.EventTime:
		return foldByOrdering(existing, incoming), nil
	case types.Custom:
		return foldCustom(merger, schema, existing, incoming)
	default:
		return incoming, nil
	}
}

// foldByOrdering picks the winner between two contributions purely on
// Ordering, with one asymmetry: a tombstone beats a present value on equal
// ordering, but a present value needs strictly greater ordering to beat a
// tombstone (spec §3, §4.3 fold table). Without this, a present record
// arriving with the same ordering as an existing delete would incorrectly
// resurrect the key instead of leaving it deleted.
func foldByOrdering(existing, incoming types.LogicalRecord) types.LogicalRecord {
	cmp := incoming.Ordering.Compare(existing.Ordering)
	if incoming.State == types.Present && existing.State == types.Tombstone {
		if cmp > 0 {
			return incoming
		}
		return existing
	}
	if cmp >= 0 {
		return incoming
	}
	return existing
}

// foldCustom applies a CUSTOM Merger (spec §4.3, §4.6). Deletes never reach
// the merger: a tombstone on either side is resolved purely by ordering,
// the same as EVENT_TIME, since a Merger's Combine contract assumes two
// present payloads.
func foldCustom(merger types.Merger, schema *types.Schema, existing, incoming types.LogicalRecord) (types.LogicalRecord, error) {
	if existing.State == types.Tombstone || incoming.State == types.Tombstone {
		return foldByOrdering(existing, incoming), nil
	}
	merged, err := merger.Combine(existing.Payload, incoming.Payload, schema)
	if err != nil {
		return types.LogicalRecord{}, errs.Wrap(errs.MergerError, err, "combining key %x", existing.Key.RawKey)
	}
	out := incoming
	out.Payload = merged
	if merger.IsDelete(merged, schema) {
		out.State = types.Tombstone
		out.Payload = nil
	}
	return out, nil
}

func (b *Buffer) maybeSpill() error {
	if b.usedMemory <= b.maxMemory {
		return nil
	}
	if b.spill == nil {
		s, err := newSpillStore(b.spillDir)
		if err != nil {
			return err
		}
		b.spill = s
	}
	// Evict the coldest half of the resident set: scan order means lower
	// BlockSeq/RowSeq entries were folded earliest and are least likely to
	// see another update, so they're the cheapest to push cold first.
	type candidate struct {
		hash uint64
		rec  *types.LogicalRecord
	}
	var all []candidate
	for h, chain := range b.resident {
		for _, rec := range chain {
			all = append(all, candidate{h, rec})
		}
	}
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i].rec.Ordering, all[j].rec.Ordering
		if a.BlockSeq != b.BlockSeq {
			return a.BlockSeq < b.BlockSeq
		}
		return a.RowSeq < b.RowSeq
	})
	target := len(all) / 2
	for i := 0; i < target; i++ {
		c := all[i]
		if err := b.spill.put(*c.rec); err != nil {
			return err
		}
		b.removeResident(c.hash, c.rec.Key)
	}
	return nil
}

func (b *Buffer) removeResident(h uint64, key types.Key) {
	chain := b.resident[h]
	for i, existing := range chain {
		if existing.Key.Equal(key) {
			b.usedMemory -= estimateSize(*existing) + perRecordOverhead
			chain = append(chain[:i], chain[i+1:]...)
			break
		}
	}
	if len(chain) == 0 {
		delete(b.resident, h)
	} else {
		b.resident[h] = chain
	}
	b.count--
}

// estimateSize is a rough accounting of a LogicalRecord's resident cost,
// good enough to trigger spill decisions without walking every cell's
// concrete Go type.
func estimateSize(rec types.LogicalRecord) datasize.ByteSize {
	size := datasize.ByteSize(len(rec.Key.RawKey) + len(rec.Partition) + len(rec.SourceInstant))
	for _, v := range rec.Payload {
		switch val := v.(type) {
		case string:
			size += datasize.ByteSize(len(val))
		case []byte:
			size += datasize.ByteSize(len(val))
		default:
			size += 8
		}
	}
	return size
}
