// Copyright 2026 The EmbedDB Authors.
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

// Package errs declares the typed error-kind taxonomy shared by every
// package in the engine: preconditions, resource exhaustion, consistency
// violations, and lock contention (spec §7).
package errs

import errors "gopkg.in/src-d/go-errors.v1"

var (
	// ErrPrecondition is given when a caller violates an API contract
	// (bad index, wrong column type, mutating through a const view).
	// Treated as a programmer error: callers should not attempt to
	// recover from it.
	ErrPrecondition = errors.NewKind("precondition violation: %s")

	// ErrOutOfMemory is given when the allocator cannot satisfy a
	// request. Recoverable by aborting the enclosing transaction.
	ErrOutOfMemory = errors.NewKind("allocator exhausted: %s")

	// ErrIO is given on a failed read or write against the backing file.
	ErrIO = errors.NewKind("i/o error: %s")

	// ErrCrossTableLinkTarget is given when removing a table that is
	// still the target of a link column on another table.
	ErrCrossTableLinkTarget = errors.NewKind("table %q is a link target of table %q")

	// ErrBadVersion is given when advancing a reader to a version that
	// is not reachable from its pinned version.
	ErrBadVersion = errors.NewKind("cannot advance from version %d to %d")

	// ErrCorruptFile is given when the file header or an array fails
	// its self-describing validation on open.
	ErrCorruptFile = errors.NewKind("corrupt file: %s")

	// ErrFormatVersion is given when a file declares a format version
	// newer than this build understands.
	ErrFormatVersion = errors.NewKind("file format version %d is newer than supported version %d")

	// ErrWouldBlock is given by a future non-blocking writer-lock
	// acquisition variant (spec §7.4); not currently returned, blocking
	// is the only implemented mode.
	ErrWouldBlock = errors.NewKind("writer lock is held by another transaction")
)
