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
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hudi-project/filegroupreader/config"
	"github.com/hudi-project/filegroupreader/kv"
	"github.com/hudi-project/filegroupreader/types"
)

// SliceResult is one FileSlice's merged snapshot, gathered by Pool.ReadAll.
type SliceResult struct {
	Index int
	Rows  []types.Row
	Err   error
}

// Pool fans a bounded number of FileGroupReaders out across goroutines (spec
// §5: "callers wanting to read many slices concurrently should run one
// FileGroupReader per goroutine"). Every reader in the pool shares the same
// config, storage and codec registry; only the slice differs.
type Pool struct {
	cfg         *config.ReaderConfig
	storage     kv.Storage
	timeline    kv.TimelineOracle
	codecs      *kv.Registry
	concurrency int

	mu        sync.Mutex
	completed *roaring.Bitmap
	total     int
}

// NewPool builds a Pool that runs at most concurrency slices at a time. A
// non-positive concurrency means unbounded (one goroutine per slice).
func NewPool(cfg *config.ReaderConfig, storage kv.Storage, timeline kv.TimelineOracle, codecs *kv.Registry, concurrency int) *Pool {
	return &Pool{
		cfg:         cfg,
		storage:     storage,
		timeline:    timeline,
		codecs:      codecs,
		concurrency: concurrency,
		completed:   roaring.New(),
	}
}

// ReadAll drives every slice to exhaustion and returns one SliceResult per
// input slice, indexed by its position in slices. A single slice's error
// does not cancel its siblings; it's attached to that slice's SliceResult
// instead. ReadAll itself only returns an error if the context is cancelled
// before every slice finishes.
func (p *Pool) ReadAll(ctx context.Context, slices []types.FileSlice) ([]SliceResult, error) {
	p.mu.Lock()
	p.completed = roaring.New()
	p.total = len(slices)
	p.mu.Unlock()

	results := make([]SliceResult, len(slices))
	g, gctx := errgroup.WithContext(ctx)
	if p.concurrency > 0 {
		g.SetLimit(p.concurrency)
	}

	for i, slice := range slices {
		i, slice := i, slice
		g.Go(func() error {
			results[i] = p.readOne(gctx, i, slice)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func (p *Pool) readOne(ctx context.Context, index int, slice types.FileSlice) SliceResult {
	fgr, err := New(p.cfg, p.storage, p.timeline, p.codecs, slice)
	if err != nil {
		return SliceResult{Index: index, Err: err}
	}
	defer fgr.Close()

	var rows []types.Row
	for {
		row, ok, err := fgr.Advance(ctx)
		if err != nil {
			return SliceResult{Index: index, Rows: rows, Err: err}
		}
		if !ok {
			break
		}
		rows = append(rows, row)
	}
	p.markCompleted(index)
	return SliceResult{Index: index, Rows: rows}
}

func (p *Pool) markCompleted(index int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed.Add(uint32(index))
}

// Progress reports how many of the slices passed to the most recent ReadAll
// call have finished, for callers polling a long-running fan-out from
// another goroutine.
func (p *Pool) Progress() (done int, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return int(p.completed.GetCardinality()), p.total
}
