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

package kv

import (
	"fmt"

	"github.com/hudi-project/filegroupreader/types"
)

// CodecTag identifies a data-block body framing (spec §6.1: AVRO_DATA,
// PARQUET_DATA, HFILE_DATA, CDC_DATA, plus the fixed DELETE/COMMAND bodies
// this module decodes itself).
type CodecTag uint32

const (
	AvroData CodecTag = iota
	ParquetData
	HFileData
	CDCData
)

func (t CodecTag) String() string {
	switch t {
	case AvroData:
		return "AVRO_DATA"
	case ParquetData:
		return "PARQUET_DATA"
	case HFileData:
		return "HFILE_DATA"
	case CDCData:
		return "CDC_DATA"
	default:
		return "UNKNOWN_DATA"
	}
}

// RowIterator yields the rows a BodyCodec decoded from one data block body.
// Finite, single-pass, non-blocking (the bytes are already resident).
type RowIterator interface {
	Next() (types.Row, bool, error)
}

// BodyCodec decodes a data block's raw body into rows of the schema carried
// in the block's header (spec §6.3). Implementations are supplied by the
// host engine (Avro/Parquet/HFile are out of scope here, spec §1).
type BodyCodec interface {
	Decode(body []byte, schema *types.Schema) (RowIterator, error)
}

// Registry dispatches a CodecTag to its BodyCodec. Registration happens at
// construction time, never via reflection (spec §9 design note: "Reflection-
// loaded codec writers" is replaced by a compile-time/init-time registry).
type Registry struct {
	codecs map[CodecTag]BodyCodec
}

func NewRegistry() *Registry { return &Registry{codecs: make(map[CodecTag]BodyCodec)} }

func (r *Registry) Register(tag CodecTag, codec BodyCodec) { r.codecs[tag] = codec }

func (r *Registry) Lookup(tag CodecTag) (BodyCodec, error) {
	c, ok := r.codecs[tag]
	if !ok {
		return nil, fmt.Errorf("no body codec registered for tag %s", tag)
	}
	return c, nil
}
