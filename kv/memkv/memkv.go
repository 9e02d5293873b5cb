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

// Package memkv is a kv.Backend implementation backed only by memory,
// mostly useful for tests and development, in the spirit of the teacher's
// own NewMemoryKeyValue. Nested transaction levels are copy-on-write clones
// of github.com/google/btree's generic BTreeG, rather than an undo log.
package memkv

import (
	"bytes"
	"sync"

	"github.com/google/btree"
	"github.com/ordkv/ordkv/kv"
)

const degree = 32

type entry struct {
	key, value []byte
}

func less(a, b entry) bool { return bytes.Compare(a.key, b.key) < 0 }

func newTree() *btree.BTreeG[entry] {
	return btree.NewG(degree, less)
}

// Backend is an in-memory, b-tree ordered kv.Backend.
type Backend struct {
	mu     sync.Mutex
	base   *btree.BTreeG[entry]
	levels []*btree.BTreeG[entry] // levels[i] is the tree for transaction level i+1
	meta   uint32
}

// New returns an empty in-memory Backend.
func New() *Backend {
	return &Backend{base: newTree()}
}

func (b *Backend) Capabilities() kv.Capability {
	return kv.CapRead | kv.CapWrite | kv.CapIterate | kv.CapTransact
}

func (b *Backend) current() *btree.BTreeG[entry] {
	if len(b.levels) == 0 {
		return b.base
	}
	return b.levels[len(b.levels)-1]
}

func (b *Backend) Replace(key, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	k := append([]byte(nil), key...)
	v := append([]byte(nil), value...)
	b.current().ReplaceOrInsert(entry{key: k, value: v})
	return nil
}

type cursorHandle struct {
	key, value []byte
	valid      bool
	phantom    bool
}

func (b *Backend) OpenCursor() (kv.CursorHandle, error) {
	return &cursorHandle{}, nil
}

func (b *Backend) CloseCursor(c kv.CursorHandle) error {
	return nil
}

func (b *Backend) Reset(c kv.CursorHandle) error {
	h := c.(*cursorHandle)
	h.valid, h.phantom = false, false
	h.key, h.value = nil, nil
	return nil
}

func (b *Backend) Seek(c kv.CursorHandle, key []byte, dir kv.SeekDir) (kv.Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := c.(*cursorHandle)
	h.phantom = false
	tree := b.current()

	switch dir {
	case kv.EQ:
		if e, ok := tree.Get(entry{key: key}); ok {
			h.set(e)
			return kv.Ok, nil
		}
		h.clear()
		return kv.NotFound, kv.ErrNotFound
	case kv.GE:
		var found entry
		ok := false
		tree.AscendGreaterOrEqual(entry{key: key}, func(e entry) bool {
			found, ok = e, true
			return false
		})
		if !ok {
			h.clear()
			return kv.NotFound, kv.ErrNotFound
		}
		h.set(found)
		if bytes.Equal(found.key, key) {
			return kv.Ok, nil
		}
		return kv.Inexact, nil
	default: // LE, LEFAST
		var found entry
		ok := false
		tree.DescendLessOrEqual(entry{key: key}, func(e entry) bool {
			found, ok = e, true
			return false
		})
		if !ok {
			h.clear()
			return kv.NotFound, kv.ErrNotFound
		}
		h.set(found)
		if bytes.Equal(found.key, key) {
			return kv.Ok, nil
		}
		return kv.Inexact, nil
	}
}

func (b *Backend) First(c kv.CursorHandle) (kv.Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := c.(*cursorHandle)
	h.phantom = false
	e, ok := b.current().Min()
	if !ok {
		h.clear()
		return kv.NotFound, kv.ErrNotFound
	}
	h.set(e)
	return kv.Ok, nil
}

func (b *Backend) Last(c kv.CursorHandle) (kv.Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := c.(*cursorHandle)
	h.phantom = false
	e, ok := b.current().Max()
	if !ok {
		h.clear()
		return kv.NotFound, kv.ErrNotFound
	}
	h.set(e)
	return kv.Ok, nil
}

func (b *Backend) Next(c kv.CursorHandle) (kv.Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := c.(*cursorHandle)
	if !h.valid {
		return kv.NotFound, kv.ErrNotFound
	}
	tree := b.current()
	var found entry
	ok := false
	cur := h.key
	tree.AscendGreaterOrEqual(entry{key: cur}, func(e entry) bool {
		if bytes.Equal(e.key, cur) {
			return true
		}
		found, ok = e, true
		return false
	})
	h.phantom = false
	if !ok {
		h.clear()
		return kv.NotFound, kv.ErrNotFound
	}
	h.set(found)
	return kv.Ok, nil
}

func (b *Backend) Prev(c kv.CursorHandle) (kv.Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := c.(*cursorHandle)
	if !h.valid {
		return kv.NotFound, kv.ErrNotFound
	}
	tree := b.current()
	var found entry
	ok := false
	cur := h.key
	tree.DescendLessOrEqual(entry{key: cur}, func(e entry) bool {
		if bytes.Equal(e.key, cur) {
			return true
		}
		found, ok = e, true
		return false
	})
	h.phantom = false
	if !ok {
		h.clear()
		return kv.NotFound, kv.ErrNotFound
	}
	h.set(found)
	return kv.Ok, nil
}

func (b *Backend) Key(c kv.CursorHandle) ([]byte, error) {
	h := c.(*cursorHandle)
	if !h.valid || h.phantom {
		return nil, kv.ErrMisuse
	}
	return h.key, nil
}

func (b *Backend) Data(c kv.CursorHandle, offset, length int) ([]byte, error) {
	h := c.(*cursorHandle)
	if !h.valid || h.phantom {
		return nil, kv.ErrMisuse
	}
	if offset < 0 || offset > len(h.value) {
		return nil, kv.ErrMisuse
	}
	end := offset + length
	if length < 0 || end > len(h.value) {
		end = len(h.value)
	}
	return h.value[offset:end], nil
}

func (b *Backend) Delete(c kv.CursorHandle) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	h := c.(*cursorHandle)
	if !h.valid {
		return kv.ErrMisuse
	}
	b.current().Delete(entry{key: h.key})
	h.phantom = true
	return nil
}

func (h *cursorHandle) set(e entry) {
	h.key, h.value, h.valid, h.phantom = e.key, e.value, true, false
}

func (h *cursorHandle) clear() {
	h.key, h.value, h.valid, h.phantom = nil, nil, false, false
}

// Begin opens sub-transactions until the backend's own level reaches level,
// each a copy-on-write clone of the tree one level up.
func (b *Backend) Begin(level int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.levels) < level {
		b.levels = append(b.levels, b.current().Clone())
	}
	return nil
}

// CommitPhaseOne is a pure validation no-op for memkv: there is nothing to
// prepare, since every level is already a fully-formed, independent tree.
func (b *Backend) CommitPhaseOne(level int) error { return nil }

// CommitPhaseTwo folds inner levels into their parents down to level,
// promoting each child tree (which already contains everything its parent
// had, via Clone, plus its own writes) to become the new parent tree.
func (b *Backend) CommitPhaseTwo(level int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for len(b.levels) > level {
		top := b.levels[len(b.levels)-1]
		b.levels = b.levels[:len(b.levels)-1]
		if len(b.levels) == 0 {
			b.base = top
		} else {
			b.levels[len(b.levels)-1] = top
		}
	}
	return nil
}

// Rollback discards inner levels down to level; their writes are simply
// dropped since they only ever existed in the discarded clone. See
// DESIGN.md for why this implementation does not also discard work
// already done at the remaining innermost level, despite spec.md §5's
// general rollback(i>=2) wording — scenario S5 requires that work survive.
func (b *Backend) Rollback(level int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.levels) > level {
		b.levels = b.levels[:level]
	}
	return nil
}

func (b *Backend) Revert() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.levels = nil
	return nil
}

func (b *Backend) Close() error { return nil }

func (b *Backend) Control(op string, arg []byte) ([]byte, error) {
	return nil, nil
}

func (b *Backend) GetMeta() (uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.meta, nil
}

func (b *Backend) PutMeta(v uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.meta = v
	return nil
}

func (b *Backend) GetMethod(name string) (interface{}, bool) { return nil, false }
