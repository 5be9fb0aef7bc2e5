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

// FieldKind is a minimal, engine-agnostic type tag. Columnar codecs
// (Parquet/ORC/HFile) are abstracted behind the kv.BodyCodec collaborator
// (spec §1 Out of scope); the reader only needs to know enough about a
// column's type to widen, null-check, and synthesize `_row_index`.
type FieldKind uint8

const (
	KindUnknown FieldKind = iota
	KindBool
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindString
	KindBytes
)

// RowIndexField is the name of the synthetic column appended to
// required_schema when position-based merging is enabled (spec §4.6).
const RowIndexField = "_row_index"

type Field struct {
	Name     string
	Kind     FieldKind
	Nullable bool
}

// Schema is an ordered list of fields. Field order is significant: Row values
// are positional and aligned to a specific Schema.
type Schema struct {
	Fields []Field
}

func NewSchema(fields ...Field) *Schema { return &Schema{Fields: append([]Field{}, fields...)} }

func (s *Schema) IndexOf(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

func (s *Schema) Has(name string) bool { return s.IndexOf(name) >= 0 }

func (s *Schema) Clone() *Schema {
	c := &Schema{Fields: make([]Field, len(s.Fields))}
	copy(c.Fields, s.Fields)
	return c
}

// WithAppended returns a new schema with f appended, unless a field of the
// same name is already present (in which case the receiver's fields win).
func (s *Schema) WithAppended(f Field) *Schema {
	if s.Has(f.Name) {
		return s.Clone()
	}
	c := s.Clone()
	c.Fields = append(c.Fields, f)
	return c
}

// IsSubsetOf reports whether every field of s (by name) also appears in o —
// used by the Projection-preservation invariant (spec §8 invariant 5).
func (s *Schema) IsSubsetOf(o *Schema) bool {
	for _, f := range s.Fields {
		if !o.Has(f.Name) {
			return false
		}
	}
	return true
}
