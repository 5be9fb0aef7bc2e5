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

// Package schema derives the required_schema a base-file/log read must
// materialize from the caller's requested_schema, and performs the final
// projection back down to it (spec §4.6).
package schema

import (
	errs "github.com/hudi-project/filegroupreader/errors"
	"github.com/hudi-project/filegroupreader/types"
)

// Options carries the inputs schema derivation needs beyond the requested
// schema itself.
type Options struct {
	Requested       *types.Schema
	DataSchema      *types.Schema // the base/log file's physical schema; source of columns requested_schema omitted
	PrecombineField string        // only consulted when non-empty (EVENT_TIME mode)
	UseRowPosition  bool
	Bootstrap       *types.BootstrapRef // nil for a non-bootstrap slice
	KeyField        string
}

// Required computes required_schema: requested_schema widened with every
// column a downstream component needs to see but the caller may not have
// asked for. Per spec §4.6 step 2, the record-key and precombine columns are
// merger-mandatory but needn't be in the caller's requested_schema — a
// caller projecting down to a narrow output schema is the primary case this
// exists for — so when they're missing they're copied from DataSchema (the
// base/log file's physical schema) instead, and only rejected with
// SchemaMismatch when DataSchema doesn't carry them either. `_row_index`
// under position-based merging and (for a bootstrap slice) every meta
// column the skeleton file carries are still synthesized directly (spec
// §4.6, §4.4 bootstrap).
func Required(opts Options) (*types.Schema, error) {
	if opts.Requested == nil {
		return nil, errs.New(errs.SchemaMismatch, "requested schema is nil")
	}
	out := opts.Requested.Clone()

	out, err := ensureField(out, opts.DataSchema, opts.KeyField)
	if err != nil {
		return nil, err
	}
	out, err = ensureField(out, opts.DataSchema, opts.PrecombineField)
	if err != nil {
		return nil, err
	}
	if opts.UseRowPosition && !out.Has(types.RowIndexField) {
		out = out.WithAppended(types.Field{Name: types.RowIndexField, Kind: types.KindInt64, Nullable: false})
	}
	if opts.Bootstrap != nil {
		for _, col := range opts.Bootstrap.MetaColumns {
			if !out.Has(col) {
				out = out.WithAppended(types.Field{Name: col, Kind: types.KindString, Nullable: true})
			}
		}
	}
	return out, nil
}

// ensureField makes sure schema carries name, copying its field definition
// out of dataSchema when schema doesn't already have it (spec §4.6 step 2).
// A blank name is a no-op; schema is returned unchanged.
func ensureField(schema, dataSchema *types.Schema, name string) (*types.Schema, error) {
	if name == "" || schema.Has(name) {
		return schema, nil
	}
	if dataSchema != nil {
		if idx := dataSchema.IndexOf(name); idx >= 0 {
			return schema.WithAppended(dataSchema.Fields[idx]), nil
		}
	}
	return nil, errs.New(errs.SchemaMismatch, "column %q required but absent from both requested and data schema", name)
}

// CheckCompatible fails fast if dataSchema (what a base/log file actually
// carries) cannot supply every column required (spec §7 SchemaMismatch:
// "a required column is absent ... or has an incompatible type").
func CheckCompatible(required, data *types.Schema) error {
	for _, f := range required.Fields {
		idx := data.IndexOf(f.Name)
		if idx < 0 {
			if f.Name == types.RowIndexField {
				continue // synthesized, not expected to be physically present
			}
			return errs.New(errs.SchemaMismatch, "column %q required but absent from data schema", f.Name)
		}
		actual := data.Fields[idx]
		if !widensTo(actual.Kind, f.Kind) {
			return errs.New(errs.SchemaMismatch, "column %q: data kind %v cannot widen to required kind %v", f.Name, actual.Kind, f.Kind)
		}
	}
	return nil
}

// widensTo reports whether a value of kind `from` can be safely widened to
// kind `to` without loss (spec §4.4: base-file reader widening).
func widensTo(from, to types.FieldKind) bool {
	if from == to {
		return true
	}
	switch to {
	case types.KindInt64:
		return from == types.KindInt32
	case types.KindFloat64:
		return from == types.KindFloat32 || from == types.KindInt32
	case types.KindString:
		return from == types.KindBytes
	default:
		return false
	}
}

// Project narrows a row materialized against required_schema down to the
// caller's originally requested_schema (spec §4.6 final projection).
func Project(required, requested *types.Schema, row types.Row) types.Row {
	return types.Project(required, requested, row)
}
