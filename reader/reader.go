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

// Package reader assembles the block codec, log scanner, record buffer,
// schema derivation, base-file reader, bootstrap merger and merge driver
// into the top-level FileGroupReader described across spec §2-§5: a single
// file slice in, a merged row stream out.
package reader

import (
	"context"

	"github.com/hudi-project/filegroupreader/basefile"
	"github.com/hudi-project/filegroupreader/block"
	"github.com/hudi-project/filegroupreader/bootstrap"
	"github.com/hudi-project/filegroupreader/buffer"
	"github.com/hudi-project/filegroupreader/config"
	errs "github.com/hudi-project/filegroupreader/errors"
	"github.com/hudi-project/filegroupreader/kv"
	"github.com/hudi-project/filegroupreader/log"
	"github.com/hudi-project/filegroupreader/logscan"
	"github.com/hudi-project/filegroupreader/merge"
	"github.com/hudi-project/filegroupreader/schema"
	"github.com/hudi-project/filegroupreader/types"
)

// State is the reader's lifecycle (spec §5): CREATED -> INIT -> SCANNING ->
// MERGING -> EXHAUSTED, with FAILED/CANCELLED reachable from anywhere in
// between.
type State uint8

const (
	StateCreated State = iota
	StateInit
	StateScanning
	StateMerging
	StateExhausted
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateInit:
		return "INIT"
	case StateScanning:
		return "SCANNING"
	case StateMerging:
		return "MERGING"
	case StateExhausted:
		return "EXHAUSTED"
	case StateFailed:
		return "FAILED"
	case StateCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// FileGroupReader reads the merged snapshot of one FileSlice (spec §2).
// Not safe for concurrent use; callers wanting to read many slices
// concurrently should run one FileGroupReader per goroutine (spec §5 —
// see reader/pool.go for a bounded convenience helper).
type FileGroupReader struct {
	cfg      *config.ReaderConfig
	storage  kv.Storage
	timeline kv.TimelineOracle
	codecs   *kv.Registry
	slice    types.FileSlice

	state State
	err   error

	required *types.Schema
	buf      *buffer.Buffer
	driver   *merge.Driver
}

func New(cfg *config.ReaderConfig, storage kv.Storage, timeline kv.TimelineOracle, codecs *kv.Registry, slice types.FileSlice) (*FileGroupReader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &FileGroupReader{
		cfg:      cfg,
		storage:  storage,
		timeline: timeline,
		codecs:   codecs,
		slice:    slice,
		state:    StateCreated,
	}, nil
}

func (r *FileGroupReader) State() State { return r.state }

// Advance returns the next merged row, or (nil, false, nil) once the slice
// is exhausted. The first call performs scanning and buffering; subsequent
// calls just pull from the already-built merge driver.
func (r *FileGroupReader) Advance(ctx context.Context) (types.Row, bool, error) {
	if r.state == StateFailed {
		return nil, false, r.err
	}
	if r.state == StateCancelled {
		return nil, false, errs.New(errs.Cancelled, "reader was cancelled")
	}
	if r.state == StateExhausted {
		return nil, false, nil
	}
	if r.state == StateCreated {
		if err := r.start(ctx); err != nil {
			r.fail(err)
			return nil, false, err
		}
	}
	select {
	case <-ctx.Done():
		r.cancel()
		return nil, false, errs.Wrap(errs.Cancelled, ctx.Err(), "context cancelled")
	default:
	}

	row, ok, err := r.driver.Next()
	if err != nil {
		r.fail(err)
		return nil, false, err
	}
	if !ok {
		r.state = StateExhausted
		return nil, false, nil
	}
	row = schema.Project(r.required, r.cfg.RequestedSchema, row)
	return row, true, nil
}

// Close releases resources the reader opened (its buffer's spill file, if
// any) and moves a reader that has not yet finished to StateCancelled, so
// later Advance calls return a Cancelled error. Idempotent; on an
// exhausted, failed or cancelled reader it leaves the state as it is.
func (r *FileGroupReader) Close() error {
	switch r.state {
	case StateExhausted, StateFailed, StateCancelled:
	default:
		r.state = StateCancelled
	}
	if r.buf == nil {
		return nil
	}
	return r.buf.Close()
}

func (r *FileGroupReader) cancel() {
	r.state = StateCancelled
	if r.buf != nil {
		r.buf.Close()
	}
}

func (r *FileGroupReader) fail(err error) {
	r.state = StateFailed
	r.err = err
}

func (r *FileGroupReader) start(ctx context.Context) error {
	r.state = StateInit
	var bootstrapRef *types.BootstrapRef
	var dataSchema *types.Schema
	if r.slice.HasBase() {
		bootstrapRef = r.slice.Base.Bootstrap
		dataSchema = r.slice.Base.Schema
	}

	required, err := schema.Required(schema.Options{
		Requested:       r.cfg.RequestedSchema,
		DataSchema:      dataSchema,
		PrecombineField: r.cfg.PrecombineField,
		UseRowPosition:  r.cfg.UseRowPosition,
		Bootstrap:       bootstrapRef,
		KeyField:        r.recordKeyField(),
	})
	if err != nil {
		return err
	}
	r.required = required

	r.state = StateScanning
	scanner := logscan.NewScanner(r.storage, r.timeline, r.slice.Logs, r.cfg.QueryInstant)
	blocks, err := scanner.Scan(ctx)
	if err != nil {
		return err
	}

	buf := buffer.New(buffer.Config{
		Mode:      r.cfg.MergeMode,
		Merger:    r.cfg.Merger,
		Schema:    required,
		MaxMemory: r.cfg.MaxMemoryBytes,
	})
	if err := r.ingest(buf, blocks); err != nil {
		buf.Close()
		return err
	}
	r.buf = buf

	r.state = StateMerging
	base, err := r.openBase(ctx, required)
	if err != nil {
		return err
	}
	r.driver = merge.NewDriver(merge.Config{
		Base:            base,
		Buf:             buf,
		Mode:            r.cfg.MergeMode,
		Merger:          r.cfg.Merger,
		Schema:          required,
		KeyField:        r.recordKeyField(),
		PrecombineField: r.cfg.PrecombineField,
		UseRowPosition:  r.cfg.UseRowPosition,
	})
	return nil
}

// recordKeyField is the requested schema's record-key column. ReaderConfig
// has no option naming it: this module always takes the requested schema's
// first field (or `_row_index` under position-based merging), matching how
// most Hudi tables name `_hoodie_record_key` as their leading projected
// column.
func (r *FileGroupReader) recordKeyField() string {
	if r.cfg.UseRowPosition {
		return types.RowIndexField
	}
	if len(r.cfg.RequestedSchema.Fields) == 0 {
		return ""
	}
	return r.cfg.RequestedSchema.Fields[0].Name
}

func (r *FileGroupReader) openBase(ctx context.Context, required *types.Schema) (kv.RowIterator, error) {
	if !r.slice.HasBase() {
		return nil, nil
	}
	base := r.slice.Base
	if !base.IsBootstrap() {
		rdr := basefile.NewReader(r.storage, r.lookupCodec(kv.ParquetData), base, required, r.cfg.UseRowPosition)
		return rdr.Rows(ctx)
	}

	skeletonRows, err := r.openRawRows(ctx, base.Path, base.Schema)
	if err != nil {
		return nil, errs.Wrap(errs.BootstrapDesync, err, "reading bootstrap skeleton file %s", base.Path)
	}
	dataSchema := externalDataSchema(required, base.Bootstrap.MetaColumns)
	dataRows, err := r.openRawRows(ctx, base.Bootstrap.Path, dataSchema)
	if err != nil {
		return nil, errs.Wrap(errs.BootstrapDesync, err, "reading bootstrap data file %s", base.Bootstrap.Path)
	}
	merger := bootstrap.NewMerger(skeletonRows, dataRows, base.Schema, dataSchema, required, r.cfg.UseRowPosition)
	return merger, nil
}

func (r *FileGroupReader) openRawRows(ctx context.Context, path string, fileSchema *types.Schema) (kv.RowIterator, error) {
	h, err := r.storage.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer r.storage.Close(h)
	size, err := r.storage.Stat(ctx, path)
	if err != nil {
		return nil, err
	}
	buf, err := r.storage.ReadRange(ctx, h, 0, size)
	if err != nil {
		return nil, err
	}
	return r.lookupCodec(kv.ParquetData).Decode(buf, fileSchema)
}

func (r *FileGroupReader) lookupCodec(tag kv.CodecTag) kv.BodyCodec {
	c, err := r.codecs.Lookup(tag)
	if err != nil {
		// A missing codec registration is a construction-time mistake, not
		// a data condition; surface it loudly rather than returning a
		// partial result. start()'s callers see it via the returned error
		// from whichever Rows()/Decode() call actually needed it.
		log.Error("no body codec registered", "tag", tag.String())
		return nopCodec{}
	}
	return c
}

type nopCodec struct{}

func (nopCodec) Decode([]byte, *types.Schema) (kv.RowIterator, error) {
	return nil, errs.New(errs.UnreadableLogBlock, "no body codec registered for this data file's codec tag")
}

// externalDataSchema is every required field that isn't one of the
// skeleton's meta columns — the columns a bootstrap's external data file is
// expected to supply (spec §4.5).
func externalDataSchema(required *types.Schema, metaColumns []string) *types.Schema {
	meta := make(map[string]struct{}, len(metaColumns))
	for _, c := range metaColumns {
		meta[c] = struct{}{}
	}
	out := &types.Schema{}
	for _, f := range required.Fields {
		if _, isMeta := meta[f.Name]; !isMeta {
			out.Fields = append(out.Fields, f)
		}
	}
	return out
}

func (r *FileGroupReader) ingest(buf *buffer.Buffer, blocks []logscan.EffectiveBlock) error {
	for blockSeq, blk := range blocks {
		switch blk.Kind {
		case block.KindDelete:
			if err := r.ingestDelete(buf, blk, blockSeq); err != nil {
				return err
			}
		case block.KindData:
			if err := r.ingestData(buf, blk, blockSeq); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *FileGroupReader) ingestDelete(buf *buffer.Buffer, blk logscan.EffectiveBlock, blockSeq int) error {
	for rowSeq, t := range blk.Delete.Tombstones {
		ordering := t.Ordering
		ordering.BlockSeq = uint64(blockSeq)
		ordering.RowSeq = uint64(rowSeq)
		key := types.RecordKey(t.Key)
		if r.cfg.UseRowPosition {
			key = types.PositionKey(bytesToPosition(t.Key))
		}
		if err := buf.Put(types.LogicalRecord{
			Key:           key,
			Partition:     t.Partition,
			State:         types.Tombstone,
			Ordering:      ordering,
			SourceInstant: blk.Instant,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (r *FileGroupReader) ingestData(buf *buffer.Buffer, blk logscan.EffectiveBlock, blockSeq int) error {
	codec, err := r.codecs.Lookup(kv.CodecTag(blk.Data.CodecTag))
	if err != nil {
		return errs.Wrap(errs.UnreadableLogBlock, err, "looking up body codec")
	}
	raw, err := blk.Data.Decompressed()
	if err != nil {
		return errs.Wrap(errs.UnreadableLogBlock, err, "decompressing data block")
	}
	it, err := codec.Decode(raw, r.required)
	if err != nil {
		return errs.Wrap(errs.UnreadableLogBlock, err, "decoding data block body")
	}
	rowSeq := 0
	for {
		row, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		key := r.keyForRow(row, blk.Data.KeyField)
		ordering := types.Ordering{BlockSeq: uint64(blockSeq), RowSeq: uint64(rowSeq)}
		if r.cfg.MergeMode != types.OverwriteWithLatest && r.cfg.PrecombineField != "" {
			if idx := r.required.IndexOf(r.cfg.PrecombineField); idx >= 0 && idx < len(row) {
				ordering = merge.OrderingFromValue(row[idx])
				ordering.BlockSeq = uint64(blockSeq)
				ordering.RowSeq = uint64(rowSeq)
			}
		}
		if err := buf.Put(types.LogicalRecord{
			Key:           key,
			State:         types.Present,
			Payload:       row,
			Ordering:      ordering,
			SourceInstant: blk.Instant,
		}); err != nil {
			return err
		}
		rowSeq++
	}
	return nil
}

func (r *FileGroupReader) keyForRow(row types.Row, keyField string) types.Key {
	if r.cfg.UseRowPosition {
		idx := r.required.IndexOf(types.RowIndexField)
		pos, _ := row[idx].(int64)
		return types.PositionKey(uint64(pos))
	}
	field := keyField
	if field == "" {
		field = r.recordKeyField()
	}
	idx := r.required.IndexOf(field)
	if idx < 0 || idx >= len(row) {
		return types.RecordKey(nil)
	}
	switch v := row[idx].(type) {
	case string:
		return types.RecordKey([]byte(v))
	case []byte:
		return types.RecordKey(v)
	default:
		return types.RecordKey(nil)
	}
}

func bytesToPosition(b []byte) uint64 {
	var pos uint64
	for _, c := range b {
		pos = pos<<8 | uint64(c)
	}
	return pos
}
