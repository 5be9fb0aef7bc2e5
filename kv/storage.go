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

// Package kv names the external collaborator interfaces the file-group
// reader consumes (spec §6): Storage, the timeline oracle, and the
// block-body codec registry. None of them are implemented here — the host
// program supplies them; this package only pins the contract.
//
// Naming follows the convention used throughout this domain:
//
//	h      - ReadHandle returned by Storage.Open
//	path   - a storage-addressable location, opaque to the reader
//	off/len - byte range, always [off, off+len)
package kv

import "context"

// ReadHandle is an opaque, Storage-owned handle to an open readable object.
type ReadHandle interface{}

// Storage is bit-exact byte-range I/O with no buffering guarantees (spec
// §6.1). The reader never assumes readahead, caching, or coalescing beyond
// what an implementation chooses to do internally.
type Storage interface {
	Open(ctx context.Context, path string) (ReadHandle, error)
	ReadRange(ctx context.Context, h ReadHandle, off, length int64) ([]byte, error)
	Stat(ctx context.Context, path string) (size int64, err error)
	Close(h ReadHandle) error
}
