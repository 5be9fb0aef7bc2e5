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

package merge

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hudi-project/filegroupreader/buffer"
	"github.com/hudi-project/filegroupreader/types"
)

type sliceSource struct {
	rows []types.Row
	i    int
}

func (s *sliceSource) Next() (types.Row, bool, error) {
	if s.i >= len(s.rows) {
		return nil, false, nil
	}
	row := s.rows[s.i]
	s.i++
	return row, true, nil
}

var testSchema = types.NewSchema(
	types.Field{Name: "id", Kind: types.KindString},
	types.Field{Name: "value", Kind: types.KindInt64},
	types.Field{Name: "ts", Kind: types.KindInt64},
)

func TestDriverOverwritesBaseRowWithLogUpdate(t *testing.T) {
	base := &sliceSource{rows: []types.Row{
		{"k1", int64(1), int64(100)},
		{"k2", int64(2), int64(100)},
	}}
	buf := buffer.New(buffer.Config{Mode: types.OverwriteWithLatest, Schema: testSchema, MaxMemory: 1 << 20})
	require.NoError(t, buf.Put(types.LogicalRecord{
		Key: types.RecordKey([]byte("k1")), State: types.Present,
		Payload: types.Row{"k1", int64(99), int64(200)},
	}))

	d := NewDriver(Config{Base: base, Buf: buf, Mode: types.OverwriteWithLatest, Schema: testSchema, KeyField: "id"})
	var got []types.Row
	for {
		row, ok, err := d.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, row)
	}
	require.Len(t, got, 2)
	require.Equal(t, types.Row{"k1", int64(99), int64(200)}, got[0])
	require.Equal(t, types.Row{"k2", int64(2), int64(100)}, got[1])
}

func TestDriverSkipsBaseRowDeletedByLog(t *testing.T) {
	base := &sliceSource{rows: []types.Row{{"k1", int64(1), int64(100)}}}
	buf := buffer.New(buffer.Config{Mode: types.EventTime, Schema: testSchema, MaxMemory: 1 << 20})
	require.NoError(t, buf.Put(types.LogicalRecord{
		Key: types.RecordKey([]byte("k1")), State: types.Tombstone,
		Ordering: types.Ordering{IsNumeric: true, Numeric: types.NewOrderingNumericU64(200)},
	}))

	d := NewDriver(Config{Base: base, Buf: buf, Mode: types.EventTime, Schema: testSchema, KeyField: "id", PrecombineField: "ts"})
	_, ok, err := d.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDriverEmitsBufferOnlyInsertsAfterBase(t *testing.T) {
	base := &sliceSource{rows: []types.Row{{"k1", int64(1), int64(100)}}}
	buf := buffer.New(buffer.Config{Mode: types.OverwriteWithLatest, Schema: testSchema, MaxMemory: 1 << 20})
	require.NoError(t, buf.Put(types.LogicalRecord{
		Key: types.RecordKey([]byte("k2")), State: types.Present,
		Payload: types.Row{"k2", int64(7), int64(300)},
	}))

	d := NewDriver(Config{Base: base, Buf: buf, Mode: types.OverwriteWithLatest, Schema: testSchema, KeyField: "id"})
	var got []types.Row
	for {
		row, ok, err := d.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, row)
	}
	require.Len(t, got, 2)
	require.Equal(t, "k1", got[0][0])
	require.Equal(t, "k2", got[1][0])
}

func TestDriverEventTimeBaseRowWinsOnLargerPrecombine(t *testing.T) {
	base := &sliceSource{rows: []types.Row{{"k1", int64(1), int64(500)}}}
	buf := buffer.New(buffer.Config{Mode: types.EventTime, Schema: testSchema, MaxMemory: 1 << 20})
	require.NoError(t, buf.Put(types.LogicalRecord{
		Key: types.RecordKey([]byte("k1")), State: types.Present,
		Payload:  types.Row{"k1", int64(2), int64(50)},
		Ordering: types.Ordering{IsNumeric: true, Numeric: types.NewOrderingNumericU64(50)},
	}))

	d := NewDriver(Config{Base: base, Buf: buf, Mode: types.EventTime, Schema: testSchema, KeyField: "id", PrecombineField: "ts"})
	row, ok, err := d.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, types.Row{"k1", int64(1), int64(500)}, row)
}
