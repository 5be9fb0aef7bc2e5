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

package types

// Row is a positional tuple of values aligned to a *Schema. Values are plain
// Go types (bool, int32, int64, float32, float64, string, []byte, nil).
type Row []any

func (r Row) Get(schema *Schema, name string) (any, bool) {
	idx := schema.IndexOf(name)
	if idx < 0 || idx >= len(r) {
		return nil, false
	}
	return r[idx], true
}

func (r Row) Clone() Row {
	c := make(Row, len(r))
	copy(c, r)
	return c
}

// Project narrows r (laid out per `from`) down to the field order of `to`.
// A field of `to` that `from` lacks (or that r is too short to hold) is left
// nil in the output; basefile relies on this for `_row_index`, which it
// stamps after projecting.
func Project(from, to *Schema, r Row) Row {
	out := make(Row, len(to.Fields))
	for i, f := range to.Fields {
		if idx := from.IndexOf(f.Name); idx >= 0 && idx < len(r) {
			out[i] = r[idx]
		}
	}
	return out
}
