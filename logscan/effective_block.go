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

// Package logscan produces a single totally ordered stream of effective
// blocks across all log files of a file slice (spec §4.2): ordered by
// (instant_time asc, log_file.version asc, block_offset asc), with rollback
// command blocks folded in and instants the timeline doesn't consider
// visible dropped.
package logscan

import (
	"github.com/hudi-project/filegroupreader/block"
	"github.com/hudi-project/filegroupreader/types"
)

// EffectiveBlock is one surviving block after rollback-folding and the
// visibility filter have run (spec §4.2 Output).
type EffectiveBlock struct {
	Kind          block.Kind
	Instant       types.Instant
	SchemaAtWrite string
	Data          *block.DataBlock
	Delete        *block.DeleteBlock

	command *block.CommandBlock
	version int
	offset  int64
}

func (e EffectiveBlock) less(o EffectiveBlock) bool {
	if c := e.Instant.Compare(o.Instant); c != 0 {
		return c < 0
	}
	if e.version != o.version {
		return e.version < o.version
	}
	return e.offset < o.offset
}
