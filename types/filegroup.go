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

import "fmt"

// FileGroup is the opaque identity (partition, file-id) that owns a lineage
// of file slices. Equality and ordering are by (Partition, FileID).
type FileGroup struct {
	Partition string
	FileID    string
}

func (g FileGroup) String() string { return fmt.Sprintf("%s/%s", g.Partition, g.FileID) }

func (g FileGroup) Compare(o FileGroup) int {
	if g.Partition != o.Partition {
		if g.Partition < o.Partition {
			return -1
		}
		return 1
	}
	if g.FileID != o.FileID {
		if g.FileID < o.FileID {
			return -1
		}
		return 1
	}
	return 0
}

// BootstrapRef is the legacy back-reference from a skeleton base file to the
// external file holding the user-data columns (spec §3 BaseFile, §4.5).
type BootstrapRef struct {
	Path string
	// MetaColumns names the Hudi-meta columns carried by the skeleton base
	// file itself; everything else in the data_schema lives in the external
	// file referenced by Path.
	MetaColumns []string
}

// BaseFile is the immutable columnar artifact a file slice was built from.
type BaseFile struct {
	Path      string
	SizeBytes int64
	Schema    *Schema
	Bootstrap *BootstrapRef // nil unless this base file is a skeleton
}

func (b *BaseFile) IsBootstrap() bool { return b != nil && b.Bootstrap != nil }

// LogFile is uniquely identified by (FileID, BaseInstant, Version, WriteToken)
// per spec §3 FileSlice invariant.
type LogFile struct {
	Path        string
	FileID      string
	BaseInstant Instant
	Version     int
	WriteToken  string
	SizeBytes   int64
}

func (l LogFile) Compare(o LogFile) int {
	if l.Version != o.Version {
		if l.Version < o.Version {
			return -1
		}
		return 1
	}
	if l.WriteToken != o.WriteToken {
		if l.WriteToken < o.WriteToken {
			return -1
		}
		return 1
	}
	return 0
}

// FileSlice is a snapshot of one file group at a base instant: an optional
// BaseFile plus the ordered log files written after that instant.
type FileSlice struct {
	Group       FileGroup
	BaseInstant Instant
	Base        *BaseFile // nil when the slice is log-only (spec §3 BaseFile invariant: optional)
	Logs        []LogFile // ordered by (Version asc, WriteToken asc)
}

func (s FileSlice) HasBase() bool { return s.Base != nil }
