/*
Copyright 2026 The ordkv Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package kv

// Capability is a bitset a Backend reports via Capabilities(), so a caller
// can reject an engine that can't support a workload (e.g. a read-only
// snapshot store under a writable index build) before issuing the first op,
// instead of discovering it from a run-time Misuse error.
type Capability uint8

const (
	CapRead Capability = 1 << iota
	CapWrite
	CapIterate
	CapTransact
)

// Has reports whether c contains every bit set in want.
func (c Capability) Has(want Capability) bool { return c&want == want }

// SeekDir selects how Backend.Seek resolves a probe key that isn't present.
type SeekDir int

const (
	EQ SeekDir = iota
	GE
	LE
	// LEFAST allows the engine to return any key <= the probe without
	// guaranteeing it is the true predecessor, when a cheap answer is
	// available. Used by optimistic lookups that would otherwise pay for
	// an exact-predecessor search they don't strictly need.
	LEFAST
)

// BackendFactory constructs a fresh, empty Backend, for a conformance
// harness that needs to run the same suite against a new instance per
// backend kind.
type BackendFactory func() (Backend, error)

// CursorHandle is an opaque cursor token returned by Backend.OpenCursor and
// passed back into every other cursor-scoped Backend method. Concrete
// backends type-assert it back to their own cursor struct.
type CursorHandle interface{}

// Backend is the storage-engine contract the core consumes: one method per
// verb, the engine's own monomorphic concerns hidden behind it. Backend is
// the single dynamic-dispatch point at the connection boundary; everything
// built on top of a concrete Backend value (Store, Cursor, TableCursor)
// dispatches to it monomorphically.
type Backend interface {
	Capabilities() Capability

	// Replace upserts key/value. The caller retains its buffers only until
	// Replace returns; a Backend that needs to keep the bytes must copy them.
	Replace(key, value []byte) error

	OpenCursor() (CursorHandle, error)
	CloseCursor(c CursorHandle) error

	// Seek positions c at key under dir, returning Ok (exact match), Inexact
	// (positioned at the nearest entry in dir's direction), or NotFound.
	Seek(c CursorHandle, key []byte, dir SeekDir) (Result, error)
	First(c CursorHandle) (Result, error)
	Last(c CursorHandle) (Result, error)
	Next(c CursorHandle) (Result, error)
	Prev(c CursorHandle) (Result, error)

	// Key and Data return views valid until the cursor's next movement.
	Key(c CursorHandle) ([]byte, error)
	Data(c CursorHandle, offset, length int) ([]byte, error)

	// Delete removes the entry under c, leaving c in a valid phantom state:
	// Next/Prev remain defined, Key/Data are undefined until a movement.
	Delete(c CursorHandle) error

	// Reset releases c's current position without closing it.
	Reset(c CursorHandle) error

	// Begin, CommitPhaseOne, CommitPhaseTwo and Rollback implement the
	// level-nesting rules against the target level directly: each is a
	// no-op if the backend's own level already satisfies the target, and
	// otherwise steps the backend's internal transaction stack to it.
	Begin(level int) error
	CommitPhaseOne(level int) error
	CommitPhaseTwo(level int) error
	Rollback(level int) error

	// Revert discards any in-progress transaction work and returns the
	// backend to level 0, for use during connection teardown after a failed
	// CommitPhaseTwo leaves the level at an engine-defined recovery state.
	Revert() error

	Close() error

	// Control passes an engine-specific knob (page size, safety level,
	// checkpoint trigger, a one-shot fast-insert-mode toggle) straight to
	// the backend.
	Control(op string, arg []byte) ([]byte, error)

	// GetMeta/PutMeta hold the 32-bit schema cookie the VM uses to detect
	// out-of-band schema changes.
	GetMeta() (uint32, error)
	PutMeta(v uint32) error

	// GetMethod looks up an engine-specific pragma by name, for callers that
	// need a capability no verb above expresses.
	GetMethod(name string) (interface{}, bool)
}
