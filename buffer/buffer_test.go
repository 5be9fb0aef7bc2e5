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
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hudi-project/filegroupreader/types"
)

func rec(key string, ordering uint64, state types.RecordState, payload types.Row) types.LogicalRecord {
	return types.LogicalRecord{
		Key:     types.RecordKey([]byte(key)),
		State:   state,
		Payload: payload,
		Ordering: types.Ordering{
			IsNumeric: true,
			Numeric:   types.NewOrderingNumericU64(ordering),
			RowSeq:    ordering,
		},
	}
}

func TestOverwriteWithLatestKeepsLastArrival(t *testing.T) {
	b := New(Config{Mode: types.OverwriteWithLatest, MaxMemory: 1 << 20})
	require.NoError(t, b.Put(rec("k1", 1, types.Present, types.Row{"v1"})))
	require.NoError(t, b.Put(rec("k1", 2, types.Present, types.Row{"v2"})))

	got, ok, err := b.Get(types.RecordKey([]byte("k1")))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, types.Row{"v2"}, got.Payload)
}

func TestEventTimeKeepsLargerOrderingRegardlessOfArrival(t *testing.T) {
	b := New(Config{Mode: types.EventTime, MaxMemory: 1 << 20})
	require.NoError(t, b.Put(rec("k1", 5, types.Present, types.Row{"newer"})))
	require.NoError(t, b.Put(rec("k1", 2, types.Present, types.Row{"older"})))

	got, ok, err := b.Get(types.RecordKey([]byte("k1")))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, types.Row{"newer"}, got.Payload)
}

func TestEventTimeTombstoneBeatsOlderPresent(t *testing.T) {
	b := New(Config{Mode: types.EventTime, MaxMemory: 1 << 20})
	require.NoError(t, b.Put(rec("k1", 1, types.Present, types.Row{"v1"})))
	require.NoError(t, b.Put(rec("k1", 2, types.Tombstone, nil)))

	got, ok, err := b.Get(types.RecordKey([]byte("k1")))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, types.Tombstone, got.State)
}

func TestEventTimeOlderTombstoneLosesToNewerPresent(t *testing.T) {
	b := New(Config{Mode: types.EventTime, MaxMemory: 1 << 20})
	require.NoError(t, b.Put(rec("k1", 1, types.Tombstone, nil)))
	require.NoError(t, b.Put(rec("k1", 2, types.Present, types.Row{"resurrected"})))

	got, ok, err := b.Get(types.RecordKey([]byte("k1")))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, types.Present, got.State)
	require.Equal(t, types.Row{"resurrected"}, got.Payload)
}

func TestEventTimePresentAtEqualOrderingDoesNotResurrectTombstone(t *testing.T) {
	b := New(Config{Mode: types.EventTime, MaxMemory: 1 << 20})
	require.NoError(t, b.Put(rec("k1", 2, types.Tombstone, nil)))
	require.NoError(t, b.Put(rec("k1", 2, types.Present, types.Row{"late arrival"})))

	got, ok, err := b.Get(types.RecordKey([]byte("k1")))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, types.Tombstone, got.State)
}

type sumMerger struct{}

func (sumMerger) Combine(existing, incoming types.Row, _ *types.Schema) (types.Row, error) {
	return types.Row{existing[0].(int64) + incoming[0].(int64)}, nil
}
func (sumMerger) IsDelete(types.Row, *types.Schema) bool { return false }

func TestCustomMergerCombinesPresentPresent(t *testing.T) {
	b := New(Config{Mode: types.Custom, Merger: sumMerger{}, MaxMemory: 1 << 20})
	require.NoError(t, b.Put(rec("k1", 1, types.Present, types.Row{int64(3)})))
	require.NoError(t, b.Put(rec("k1", 2, types.Present, types.Row{int64(4)})))

	got, ok, err := b.Get(types.RecordKey([]byte("k1")))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, types.Row{int64(7)}, got.Payload)
}

func TestTakeRemovesEntry(t *testing.T) {
	b := New(Config{Mode: types.OverwriteWithLatest, MaxMemory: 1 << 20})
	require.NoError(t, b.Put(rec("k1", 1, types.Present, types.Row{"v1"})))

	got, ok, err := b.Take(types.RecordKey([]byte("k1")))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, types.Row{"v1"}, got.Payload)

	_, ok, err = b.Get(types.RecordKey([]byte("k1")))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSpillRoundTripsOnLowMemoryCeiling(t *testing.T) {
	b := New(Config{Mode: types.OverwriteWithLatest, MaxMemory: 1})
	defer b.Close()

	for i := 0; i < 50; i++ {
		k := fmt.Sprintf("key-%03d", i)
		require.NoError(t, b.Put(rec(k, uint64(i), types.Present, types.Row{k})))
	}
	require.Equal(t, 50, b.Len())

	for i := 0; i < 50; i++ {
		k := fmt.Sprintf("key-%03d", i)
		got, ok, err := b.Get(types.RecordKey([]byte(k)))
		require.NoError(t, err)
		require.True(t, ok, k)
		require.Equal(t, types.Row{k}, got.Payload)
	}
}

func TestDrainVisitsEveryRecordAcrossResidentAndSpill(t *testing.T) {
	b := New(Config{Mode: types.OverwriteWithLatest, MaxMemory: 1})
	defer b.Close()

	for i := 0; i < 10; i++ {
		k := fmt.Sprintf("key-%03d", i)
		require.NoError(t, b.Put(rec(k, uint64(i), types.Present, types.Row{k})))
	}

	seen := map[string]bool{}
	require.NoError(t, b.Drain(func(r types.LogicalRecord) error {
		seen[string(r.Key.RawKey)] = true
		return nil
	}))
	require.Len(t, seen, 10)
	require.Equal(t, 0, b.Len())
}
