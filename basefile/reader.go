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

// Package basefile streams rows out of a file slice's base file (spec
// §4.4): byte-range reads through the storage collaborator, schema
// compatibility checking, and `_row_index` synthesis under position-based
// merging. Actual column decoding (Parquet/Avro/HFile) stays behind the
// kv.BodyCodec collaborator — out of scope here (spec §1).
package basefile

import (
	"context"

	"github.com/hudi-project/filegroupreader/kv"
	"github.com/hudi-project/filegroupreader/schema"
	"github.com/hudi-project/filegroupreader/types"
)

// Reader streams the rows of one BaseFile, already widened/validated
// against required_schema and carrying a synthetic `_row_index` column when
// position-based merging is in effect.
type Reader struct {
	storage        kv.Storage
	codec          kv.BodyCodec
	file           *types.BaseFile
	required       *types.Schema
	useRowPosition bool
}

func NewReader(storage kv.Storage, codec kv.BodyCodec, file *types.BaseFile, required *types.Schema, useRowPosition bool) *Reader {
	return &Reader{storage: storage, codec: codec, file: file, required: required, useRowPosition: useRowPosition}
}

// Rows opens the base file, reads it in full (base files are read exactly
// once per slice scan and the host-side BodyCodec owns any internal
// streaming/row-group pagination it wants to do) and returns a RowIterator
// over required_schema.
func (r *Reader) Rows(ctx context.Context) (kv.RowIterator, error) {
	if err := schema.CheckCompatible(r.required, r.file.Schema); err != nil {
		return nil, err
	}
	h, err := r.storage.Open(ctx, r.file.Path)
	if err != nil {
		return nil, err
	}
	defer r.storage.Close(h)

	buf, err := r.storage.ReadRange(ctx, h, 0, r.file.SizeBytes)
	if err != nil {
		return nil, err
	}
	inner, err := r.codec.Decode(buf, r.file.Schema)
	if err != nil {
		return nil, err
	}
	return &positionIterator{
		inner:          inner,
		fileSchema:     r.file.Schema,
		required:       r.required,
		useRowPosition: r.useRowPosition,
	}, nil
}

// positionIterator projects each decoded row from the base file's physical
// schema to required_schema, stamping `_row_index` with the row's ordinal
// position when position-based merging is enabled (spec §4.6).
type positionIterator struct {
	inner          kv.RowIterator
	fileSchema     *types.Schema
	required       *types.Schema
	useRowPosition bool
	pos            uint64
}

func (p *positionIterator) Next() (types.Row, bool, error) {
	row, ok, err := p.inner.Next()
	if err != nil || !ok {
		return nil, ok, err
	}
	out := types.Project(p.fileSchema, p.required, row)
	if p.useRowPosition {
		if idx := p.required.IndexOf(types.RowIndexField); idx >= 0 {
			out[idx] = int64(p.pos)
		}
	}
	p.pos++
	return out, true, nil
}
