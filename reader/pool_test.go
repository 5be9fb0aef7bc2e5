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

package reader

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hudi-project/filegroupreader/config"
	"github.com/hudi-project/filegroupreader/kv"
	"github.com/hudi-project/filegroupreader/types"
)

func TestPoolReadsEverySliceAndTracksProgress(t *testing.T) {
	const n = 6
	files := map[string][]byte{}
	var slices []types.FileSlice
	for i := 0; i < n; i++ {
		path := fmt.Sprintf("base-%d", i)
		files[path] = encodeRows(t, []types.Row{
			{fmt.Sprintf("k%d", i), int64(i), int64(100)},
		})
		slices = append(slices, types.FileSlice{
			Group:       types.FileGroup{Partition: "p", FileID: fmt.Sprintf("f%d", i)},
			BaseInstant: types.Instant("20240101000000"),
			Base:        &types.BaseFile{Path: path, SizeBytes: int64(len(files[path])), Schema: schemaIDValueTS},
		})
	}
	storage := &memStorage{files: files}
	registry := kv.NewRegistry()
	registry.Register(kv.ParquetData, gobCodec{})
	cfg := config.Default(
		config.WithMergeMode(types.OverwriteWithLatest),
		config.WithRequestedSchema(schemaIDValueTS),
	)

	pool := NewPool(cfg, storage, allCompletedTimeline{}, registry, 2)
	results, err := pool.ReadAll(context.Background(), slices)
	require.NoError(t, err)
	require.Len(t, results, n)

	for i, r := range results {
		require.NoErrorf(t, r.Err, "slice %d", i)
		require.Len(t, r.Rows, 1)
		require.Equal(t, fmt.Sprintf("k%d", i), r.Rows[0][0])
	}

	done, total := pool.Progress()
	require.Equal(t, n, done)
	require.Equal(t, n, total)
}
