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

// MergeMode selects the merge rule applied to two contributions of the same
// key (spec §3 Merge rule).
type MergeMode uint8

const (
	OverwriteWithLatest MergeMode = iota
	EventTime
	Custom
)

func (m MergeMode) String() string {
	switch m {
	case OverwriteWithLatest:
		return "OVERWRITE_WITH_LATEST"
	case EventTime:
		return "EVENT_TIME"
	case Custom:
		return "CUSTOM"
	default:
		return "UNKNOWN"
	}
}

// Merger is the pure-function collaborator a CUSTOM merge mode delegates to
// (spec §3 Merge rule, §4.3 fold semantics "present e, present x" row).
// Combine and IsDelete must be pure: no I/O, no mutation of their arguments.
type Merger interface {
	// Combine returns the merged payload of two present records for the same
	// key, newer-arriving record passed as `incoming`.
	Combine(existing, incoming Row, schema *Schema) (merged Row, err error)
	// IsDelete reports whether a combined row represents a logical delete
	// (e.g. a soft-delete marker column set) even though no DeleteBlock
	// tombstone was present — spec §4.3 "if result is delete, skip".
	IsDelete(merged Row, schema *Schema) bool
}
