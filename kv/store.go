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

// Store wraps a Backend and owns the transaction-level counter L. The core
// never spawns threads and exposes no internal locking: a Store handle may
// be used concurrently only if an external mutex serializes every entry
// point, exactly as a single-threaded cooperative scheduling model assumes.
type Store struct {
	backend Backend
	level   int
}

// NewStore wraps backend in a Store starting at transaction level 0.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// Level reports the store's current transaction level L.
func (s *Store) Level() int { return s.level }

func (s *Store) Capabilities() Capability { return s.backend.Capabilities() }

func (s *Store) Replace(key, value []byte) error {
	return s.backend.Replace(key, value)
}

func (s *Store) OpenCursor() (*Cursor, error) {
	h, err := s.backend.OpenCursor()
	if err != nil {
		return nil, err
	}
	return &Cursor{backend: s.backend, handle: h}, nil
}

// Begin opens sub-transactions until L = level. A level below the current L
// is a no-op: begin never closes anything.
func (s *Store) Begin(level int) error {
	if level < 1 {
		return newError(Misuse, "begin", nil)
	}
	if s.level >= level {
		return nil
	}
	if err := s.backend.Begin(level); err != nil {
		return err
	}
	s.level = level
	return nil
}

// CommitPhaseOne prepares the inner levels down to level without yet making
// them irreversible, so a caller coordinating multiple attached stores can
// ask each one to validate before any of them actually commits.
func (s *Store) CommitPhaseOne(level int) error {
	if s.level <= level {
		return nil
	}
	return s.backend.CommitPhaseOne(level)
}

// CommitPhaseTwo closes and commits inner levels until L = level. It is the
// irreversible half of a two-phase commit; a failure here leaves L at a
// backend-defined recovery state and callers are expected to Rollback(0).
func (s *Store) CommitPhaseTwo(level int) error {
	if s.level <= level {
		return nil
	}
	if err := s.backend.CommitPhaseTwo(level); err != nil {
		return err
	}
	s.level = level
	return nil
}

// Rollback discards every level deeper than level, keeping level's own work
// intact and open (not closed). For level >= 2 this is ROLLBACK TO SAVEPOINT:
// the savepoint's own prior writes survive, only work done after it is
// undone (see DESIGN.md's kv/kvtest entry for why this reads literally
// rather than via spec.md §5's general "discard the innermost remaining
// level" phrasing).
func (s *Store) Rollback(level int) error {
	if s.level <= level {
		return nil
	}
	if err := s.backend.Rollback(level); err != nil {
		return err
	}
	s.level = level
	return nil
}

// Revert discards all transaction state and returns the store to level 0,
// for connection teardown after an unrecoverable CommitPhaseTwo failure.
func (s *Store) Revert() error {
	if err := s.backend.Revert(); err != nil {
		return err
	}
	s.level = 0
	return nil
}

func (s *Store) GetMeta() (uint32, error) { return s.backend.GetMeta() }
func (s *Store) PutMeta(v uint32) error   { return s.backend.PutMeta(v) }

func (s *Store) Control(op string, arg []byte) ([]byte, error) {
	return s.backend.Control(op, arg)
}

// Close closes the underlying backend. The caller must ensure no cursor is
// still open and the transaction level is 0 first; Close itself does not
// enforce this (the core has no bookkeeping of live cursors by design,
// mirroring the C contract this module is descended from).
func (s *Store) Close() error {
	return s.backend.Close()
}
