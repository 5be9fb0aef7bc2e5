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

package logscan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hudi-project/filegroupreader/block"
	"github.com/hudi-project/filegroupreader/kv"
	"github.com/hudi-project/filegroupreader/types"
)

// memStorage is a minimal in-memory kv.Storage for exercising the scanner
// without any real filesystem.
type memStorage struct {
	files map[string][]byte
}

func (m *memStorage) Open(_ context.Context, path string) (kv.ReadHandle, error) { return path, nil }
func (m *memStorage) Close(kv.ReadHandle) error                                  { return nil }
func (m *memStorage) Stat(_ context.Context, path string) (int64, error) {
	return int64(len(m.files[path])), nil
}
func (m *memStorage) ReadRange(_ context.Context, h kv.ReadHandle, off, length int64) ([]byte, error) {
	buf := m.files[h.(string)]
	end := off + length
	if end > int64(len(buf)) {
		end = int64(len(buf))
	}
	return buf[off:end], nil
}

// allCompletedTimeline treats every instant as completed and visible up to
// a configurable cutoff.
type allCompletedTimeline struct{}

func (allCompletedTimeline) IsCompleted(types.Instant) bool { return true }
func (allCompletedTimeline) LeCutoff(i, cutoff types.Instant) bool {
	return i.LessEq(cutoff)
}
func (allCompletedTimeline) ActionOf(types.Instant) types.InstantAction { return types.ActionDeltaCommit }

func TestScanOrdersAcrossLogFiles(t *testing.T) {
	enc := block.NewEncoder()
	fileA := enc.EncodeDelete("20240101000000", &block.DeleteBlock{})
	fileB := enc.EncodeDelete("20240102000000", &block.DeleteBlock{})

	storage := &memStorage{files: map[string][]byte{
		"log-a": fileA,
		"log-b": fileB,
	}}
	logs := []types.LogFile{
		{FileID: "f1", Path: "log-b", Version: 2},
		{FileID: "f1", Path: "log-a", Version: 1},
	}
	s := NewScanner(storage, allCompletedTimeline{}, logs, types.Instant(""))
	out, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, types.Instant("20240101000000"), out[0].Instant)
	require.Equal(t, types.Instant("20240102000000"), out[1].Instant)
}

func TestScanFoldsRollback(t *testing.T) {
	enc := block.NewEncoder()
	var buf []byte
	buf = append(buf, enc.EncodeDelete("20240101000000", &block.DeleteBlock{})...)
	buf = append(buf, enc.EncodeCommand("20240102000000", &block.CommandBlock{
		Subtype: block.CommandRollback,
		Target:  types.Instant("20240101000000"),
	})...)
	buf = append(buf, enc.EncodeDelete("20240103000000", &block.DeleteBlock{})...)

	storage := &memStorage{files: map[string][]byte{"log-a": buf}}
	logs := []types.LogFile{{FileID: "f1", Path: "log-a", Version: 1}}
	s := NewScanner(storage, allCompletedTimeline{}, logs, types.Instant(""))
	out, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, types.Instant("20240103000000"), out[0].Instant)
}

func TestScanRespectsQueryInstantCutoff(t *testing.T) {
	enc := block.NewEncoder()
	var buf []byte
	buf = append(buf, enc.EncodeDelete("20240101000000", &block.DeleteBlock{})...)
	buf = append(buf, enc.EncodeDelete("20240105000000", &block.DeleteBlock{})...)

	storage := &memStorage{files: map[string][]byte{"log-a": buf}}
	logs := []types.LogFile{{FileID: "f1", Path: "log-a", Version: 1}}
	s := NewScanner(storage, allCompletedTimeline{}, logs, types.Instant("20240102000000"))
	out, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, types.Instant("20240101000000"), out[0].Instant)
}

func TestScanSkipsCorruptTrailingBytes(t *testing.T) {
	enc := block.NewEncoder()
	var buf []byte
	buf = append(buf, enc.EncodeDelete("20240101000000", &block.DeleteBlock{})...)
	buf = append(buf, block.EncodeCorrupt(64)...)

	storage := &memStorage{files: map[string][]byte{"log-a": buf}}
	logs := []types.LogFile{{FileID: "f1", Path: "log-a", Version: 1}}
	s := NewScanner(storage, allCompletedTimeline{}, logs, types.Instant(""))
	out, err := s.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
}
