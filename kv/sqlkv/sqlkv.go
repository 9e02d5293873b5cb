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

// Package sqlkv is a kv.Backend backed by a single SQLite table (k BLOB
// PRIMARY KEY, v BLOB), using the pure-Go modernc.org/sqlite driver.
// SQLite's default BLOB collation is a plain byte-wise memcmp, so an
// order-preserving key (see package keycodec) sorts identically whether
// compared in Go or by the engine's own index.
package sqlkv

import (
	"database/sql"
	"fmt"
	"strconv"

	"github.com/ordkv/ordkv/kv"
	_ "modernc.org/sqlite"
)

// Options configures Open.
type Options struct {
	File string
}

// queryer is satisfied by both *sql.DB and *sql.Tx, so query helpers don't
// need to know whether a transaction is in progress.
type queryer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Backend is a kv.Backend over a SQLite database file. Level 1 maps to a
// real *sql.Tx; levels 2 and deeper map to real SQLite SAVEPOINTs, whose
// ROLLBACK TO semantics already match spec.md §5's savepoint model exactly
// (the savepoint's own prior writes survive; only work done after it is
// undone), so no undo log is needed here unlike kv/leveldbkv and
// kv/moderndkv.
type Backend struct {
	db *sql.DB

	level int
	tx    *sql.Tx
}

// Open opens (creating if absent) a SQLite database file at opts.File and
// ensures its rows table (the ordered data cursors walk) and its separate
// single-row meta table (the schema cookie, kept out of that keyspace
// entirely rather than sharing it with a reserved sentinel key) exist.
func Open(opts Options) (*Backend, error) {
	db, err := sql.Open("sqlite", opts.File)
	if err != nil {
		return nil, wrapErr("open", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS rows (k BLOB PRIMARY KEY, v BLOB) WITHOUT ROWID`); err != nil {
		db.Close()
		return nil, wrapErr("open", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (id INTEGER PRIMARY KEY CHECK (id = 0), v BLOB)`); err != nil {
		db.Close()
		return nil, wrapErr("open", err)
	}
	return &Backend{db: db}, nil
}

func (b *Backend) Capabilities() kv.Capability {
	return kv.CapRead | kv.CapWrite | kv.CapIterate | kv.CapTransact
}

func (b *Backend) execer() queryer {
	if b.tx != nil {
		return b.tx
	}
	return b.db
}

func (b *Backend) Replace(key, value []byte) error {
	_, err := b.execer().Exec(
		`INSERT INTO rows (k, v) VALUES (?, ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v`,
		key, value)
	return wrapErr("replace", err)
}

type cursorState struct {
	key, val []byte
	valid    bool
	phantom  bool
}

func (b *Backend) OpenCursor() (kv.CursorHandle, error) { return &cursorState{}, nil }
func (b *Backend) CloseCursor(c kv.CursorHandle) error  { return nil }

func (b *Backend) Reset(c kv.CursorHandle) error {
	h := c.(*cursorState)
	h.valid, h.phantom = false, false
	return nil
}

func (b *Backend) land(h *cursorState, row *sql.Row) (kv.Result, error) {
	var k, v []byte
	if err := row.Scan(&k, &v); err != nil {
		h.valid = false
		return kv.NotFound, kv.ErrNotFound
	}
	h.key, h.val, h.valid, h.phantom = k, v, true, false
	return kv.Ok, nil
}

func (b *Backend) Seek(c kv.CursorHandle, key []byte, dir kv.SeekDir) (kv.Result, error) {
	h := c.(*cursorState)
	switch dir {
	case kv.EQ:
		return b.land(h, b.execer().QueryRow(`SELECT k, v FROM rows WHERE k = ?`, key))
	case kv.GE:
		res, err := b.land(h, b.execer().QueryRow(`SELECT k, v FROM rows WHERE k >= ? ORDER BY k ASC LIMIT 1`, key))
		if err != nil {
			return res, err
		}
		if string(h.key) != string(key) {
			return kv.Inexact, nil
		}
		return kv.Ok, nil
	default: // LE, LEFAST
		res, err := b.land(h, b.execer().QueryRow(`SELECT k, v FROM rows WHERE k <= ? ORDER BY k DESC LIMIT 1`, key))
		if err != nil {
			return res, err
		}
		if string(h.key) != string(key) {
			return kv.Inexact, nil
		}
		return kv.Ok, nil
	}
}

func (b *Backend) First(c kv.CursorHandle) (kv.Result, error) {
	h := c.(*cursorState)
	return b.land(h, b.execer().QueryRow(`SELECT k, v FROM rows ORDER BY k ASC LIMIT 1`))
}

func (b *Backend) Last(c kv.CursorHandle) (kv.Result, error) {
	h := c.(*cursorState)
	return b.land(h, b.execer().QueryRow(`SELECT k, v FROM rows ORDER BY k DESC LIMIT 1`))
}

func (b *Backend) Next(c kv.CursorHandle) (kv.Result, error) {
	h := c.(*cursorState)
	if !h.valid {
		return kv.NotFound, kv.ErrNotFound
	}
	return b.land(h, b.execer().QueryRow(`SELECT k, v FROM rows WHERE k > ? ORDER BY k ASC LIMIT 1`, h.key))
}

func (b *Backend) Prev(c kv.CursorHandle) (kv.Result, error) {
	h := c.(*cursorState)
	if !h.valid {
		return kv.NotFound, kv.ErrNotFound
	}
	return b.land(h, b.execer().QueryRow(`SELECT k, v FROM rows WHERE k < ? ORDER BY k DESC LIMIT 1`, h.key))
}

func (b *Backend) Key(c kv.CursorHandle) ([]byte, error) {
	h := c.(*cursorState)
	if !h.valid || h.phantom {
		return nil, kv.ErrMisuse
	}
	return h.key, nil
}

func (b *Backend) Data(c kv.CursorHandle, offset, length int) ([]byte, error) {
	h := c.(*cursorState)
	if !h.valid || h.phantom {
		return nil, kv.ErrMisuse
	}
	if offset < 0 || offset > len(h.val) {
		return nil, kv.ErrMisuse
	}
	end := offset + length
	if length < 0 || end > len(h.val) {
		end = len(h.val)
	}
	return h.val[offset:end], nil
}

func (b *Backend) Delete(c kv.CursorHandle) error {
	h := c.(*cursorState)
	if !h.valid {
		return kv.ErrMisuse
	}
	if _, err := b.execer().Exec(`DELETE FROM rows WHERE k = ?`, h.key); err != nil {
		return wrapErr("delete", err)
	}
	h.phantom = true
	return nil
}

func savepointName(level int) string { return "sp" + strconv.Itoa(level) }

func (b *Backend) Begin(target int) error {
	if b.level >= target {
		return nil
	}
	if b.level == 0 {
		tx, err := b.db.Begin()
		if err != nil {
			return wrapErr("begin", err)
		}
		b.tx = tx
		b.level = 1
	}
	for b.level < target {
		b.level++
		if b.level >= 2 {
			if _, err := b.tx.Exec(`SAVEPOINT ` + savepointName(b.level)); err != nil {
				return wrapErr("begin", err)
			}
		}
	}
	return nil
}

func (b *Backend) CommitPhaseOne(level int) error { return nil }

func (b *Backend) CommitPhaseTwo(target int) error {
	if b.level <= target {
		return nil
	}
	for b.level > target && b.level >= 2 {
		if _, err := b.tx.Exec(`RELEASE ` + savepointName(b.level)); err != nil {
			return wrapErr("commit", err)
		}
		b.level--
	}
	if target == 0 && b.level == 1 {
		if err := b.tx.Commit(); err != nil {
			return wrapErr("commit", err)
		}
		b.tx = nil
		b.level = 0
	}
	return nil
}

func (b *Backend) Rollback(target int) error {
	if b.level <= target {
		return nil
	}
	for b.level > target && b.level >= 2 {
		if _, err := b.tx.Exec(`ROLLBACK TO ` + savepointName(b.level)); err != nil {
			return wrapErr("rollback", err)
		}
		b.level--
	}
	if target == 0 && b.level == 1 {
		if err := b.tx.Rollback(); err != nil {
			return wrapErr("rollback", err)
		}
		b.tx = nil
		b.level = 0
	}
	return nil
}

func (b *Backend) Revert() error {
	if b.tx != nil {
		b.tx.Rollback()
	}
	b.tx = nil
	b.level = 0
	return nil
}

func (b *Backend) Close() error { return wrapErr("close", b.db.Close()) }

func (b *Backend) Control(op string, arg []byte) ([]byte, error) { return nil, nil }

func (b *Backend) GetMeta() (uint32, error) {
	var v []byte
	err := b.execer().QueryRow(`SELECT v FROM meta WHERE id = 0`).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, wrapErr("get_meta", err)
	}
	if len(v) != 4 {
		return 0, kv.ErrCorrupt
	}
	return uint32(v[0])<<24 | uint32(v[1])<<16 | uint32(v[2])<<8 | uint32(v[3]), nil
}

func (b *Backend) PutMeta(v uint32) error {
	buf := []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	_, err := b.execer().Exec(
		`INSERT INTO meta (id, v) VALUES (0, ?) ON CONFLICT(id) DO UPDATE SET v = excluded.v`,
		buf)
	return wrapErr("put_meta", err)
}

func (b *Backend) GetMethod(name string) (interface{}, bool) { return nil, false }

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &kv.Error{Result: kv.IoErr, Op: op, Err: fmt.Errorf("%w", err)}
}
