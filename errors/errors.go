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

// Package errors defines the error kinds the file-group reader core exposes
// (spec §7). Only CorruptBlock is ever recovered locally; everything else
// surfaces to the caller. No implicit partial results are ever returned.
package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/pkg/errors"
)

// Kind is a sentinel error identifying one of the reader's fatal or
// recoverable conditions. Test with stdlib errors.Is.
type Kind struct{ name string }

func (k *Kind) Error() string { return k.name }

var (
	// CorruptBlock is recoverable: the block is skipped and the scan
	// continues (spec §4.1, §4.7).
	CorruptBlock = &Kind{"corrupt block"}
	// UnreadableLogBlock is fatal: unknown block kind or schema parse
	// failure in a block header.
	UnreadableLogBlock = &Kind{"unreadable log block"}
	// MissingBaseFile is fatal: the slice expects a base file that isn't
	// there.
	MissingBaseFile = &Kind{"missing base file"}
	// BootstrapDesync is fatal: skeleton/data streams could not be
	// zip-matched.
	BootstrapDesync = &Kind{"bootstrap desync"}
	// SchemaMismatch is fatal: a required column is absent from data_schema
	// or has an incompatible type.
	SchemaMismatch = &Kind{"schema mismatch"}
	// UnderlyingIoError wraps a storage collaborator failure; the caller
	// decides the retry policy.
	UnderlyingIoError = &Kind{"underlying io error"}
	// MergerError is fatal: a CUSTOM merger signaled failure.
	MergerError = &Kind{"merger error"}
	// Cancelled is not a failure: cooperative cancellation via close().
	Cancelled = &Kind{"cancelled"}
)

// Wrap annotates err with kind and a message, preserving it for errors.Is.
func Wrap(kind *Kind, err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return errors.Wrap(&kindError{kind: kind, cause: err}, msg)
}

// New creates a fresh error of the given kind with a formatted message.
func New(kind *Kind, format string, args ...any) error {
	return &kindError{kind: kind, cause: stderrors.New(fmt.Sprintf(format, args...))}
}

type kindError struct {
	kind  *Kind
	cause error
}

func (e *kindError) Error() string { return e.cause.Error() }
func (e *kindError) Unwrap() error { return e.cause }
func (e *kindError) Is(target error) bool {
	k, ok := target.(*Kind)
	return ok && k == e.kind
}
