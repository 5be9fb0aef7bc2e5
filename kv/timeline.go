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

import "github.com/hudi-project/filegroupreader/types"

// TimelineOracle is the out-of-scope collaborator (spec §1) the reader
// queries to decide block visibility (spec §4.2 Visibility filter): only
// completed instants at or before the query instant are visible; unknown or
// inflight instants are dropped.
type TimelineOracle interface {
	IsCompleted(instant types.Instant) bool
	LeCutoff(instant, cutoff types.Instant) bool
	ActionOf(instant types.Instant) types.InstantAction
}
