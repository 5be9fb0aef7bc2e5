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

// Package bootstrap zip-merges a skeleton base file's Hudi-meta columns
// with an externally-owned data file's user columns (spec §3 BootstrapRef,
// §4.5). Two alignment modes are supported: strict positional zip (every
// row of one side corresponds 1:1 with the same ordinal row of the other)
// and `_row_index`-matched zip, which advances whichever side is lagging —
// needed once clustering/compaction can leave the two files with different
// physical row counts for the same logical rows.
package bootstrap

import (
	errs "github.com/hudi-project/filegroupreader/errors"
	"github.com/hudi-project/filegroupreader/kv"
	"github.com/hudi-project/filegroupreader/types"
)

// Merger yields the combined rows of a bootstrap file slice, projected to
// required_schema.
type Merger struct {
	skeleton *peekIter
	data     *peekIter

	skeletonSchema *types.Schema
	dataSchema     *types.Schema
	combinedSchema *types.Schema
	required       *types.Schema

	positional bool
}

func NewMerger(skeleton, data kv.RowIterator, skeletonSchema, dataSchema, required *types.Schema, positional bool) *Merger {
	combined := skeletonSchema.Clone()
	for _, f := range dataSchema.Fields {
		combined = combined.WithAppended(f)
	}
	return &Merger{
		skeleton:       &peekIter{inner: skeleton},
		data:           &peekIter{inner: data},
		skeletonSchema: skeletonSchema,
		dataSchema:     dataSchema,
		combinedSchema: combined,
		required:       required,
		positional:     positional,
	}
}

func (m *Merger) Next() (types.Row, bool, error) {
	if m.positional {
		return m.nextPositional()
	}
	return m.nextStrictZip()
}

func (m *Merger) nextStrictZip() (types.Row, bool, error) {
	skelRow, skelOK, err := m.skeleton.peek()
	if err != nil {
		return nil, false, err
	}
	dataRow, dataOK, err := m.data.peek()
	if err != nil {
		return nil, false, err
	}
	if !skelOK && !dataOK {
		return nil, false, nil
	}
	if !skelOK || !dataOK {
		return nil, false, errs.New(errs.BootstrapDesync, "skeleton/data row counts diverge under strict-zip bootstrap merge")
	}
	m.skeleton.consume()
	m.data.consume()
	return m.combine(skelRow, dataRow), true, nil
}

// nextPositional advances whichever side's `_row_index` is behind until
// both sides agree on the next logical row, matching them by position
// rather than by ordinal arrival (spec §4.5: positional bootstrap merge).
func (m *Merger) nextPositional() (types.Row, bool, error) {
	for {
		skelRow, skelOK, err := m.skeleton.peek()
		if err != nil {
			return nil, false, err
		}
		dataRow, dataOK, err := m.data.peek()
		if err != nil {
			return nil, false, err
		}
		if !skelOK || !dataOK {
			// once either side is exhausted no further position can match
			return nil, false, nil
		}

		skelPos := rowIndexOf(skelRow, m.skeletonSchema)
		dataPos := rowIndexOf(dataRow, m.dataSchema)
		switch {
		case skelPos < dataPos:
			m.skeleton.consume()
		case dataPos < skelPos:
			m.data.consume()
		default:
			m.skeleton.consume()
			m.data.consume()
			return m.combine(skelRow, dataRow), true, nil
		}
	}
}

func (m *Merger) combine(skelRow, dataRow types.Row) types.Row {
	composite := make(types.Row, len(m.combinedSchema.Fields))
	for i, f := range m.skeletonSchema.Fields {
		if idx := m.combinedSchema.IndexOf(f.Name); idx >= 0 && i < len(skelRow) {
			composite[idx] = skelRow[i]
		}
	}
	for i, f := range m.dataSchema.Fields {
		if idx := m.combinedSchema.IndexOf(f.Name); idx >= 0 && i < len(dataRow) {
			composite[idx] = dataRow[i]
		}
	}
	return types.Project(m.combinedSchema, m.required, composite)
}

func rowIndexOf(row types.Row, s *types.Schema) int64 {
	idx := s.IndexOf(types.RowIndexField)
	if idx < 0 || idx >= len(row) {
		return 0
	}
	v, _ := row[idx].(int64)
	return v
}

// peekIter lets the merge driver look at the next row of a RowIterator
// without consuming it, which the desync check and the lagging-side advance
// both need.
type peekIter struct {
	inner kv.RowIterator
	cur   types.Row
	has   bool
	done  bool
}

func (p *peekIter) peek() (types.Row, bool, error) {
	if p.done {
		return nil, false, nil
	}
	if !p.has {
		row, ok, err := p.inner.Next()
		if err != nil {
			return nil, false, err
		}
		if !ok {
			p.done = true
			return nil, false, nil
		}
		p.cur, p.has = row, true
	}
	return p.cur, true, nil
}

func (p *peekIter) consume() { p.has = false }
