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

import (
	"bytes"
	"math"

	"github.com/ordkv/ordkv/keycodec"
	"github.com/ordkv/ordkv/varint"
)

// RootTable is the reserved table id that exposes the full flat keyspace
// instead of a varint-prefixed slice of it.
const RootTable uint64 = 0

// TableCursor sits between the row layer and a Cursor. It prefixes every
// key with varint(tableID) and strips the prefix back off on read; once a
// Next/Prev walks past the table's key range it returns NotFound so table
// scans terminate at the boundary on their own.
type TableCursor struct {
	cur    *Cursor
	table  uint64
	prefix []byte
}

// NewTableCursor wraps cur to expose only the keys belonging to table.
func NewTableCursor(cur *Cursor, table uint64) *TableCursor {
	tc := &TableCursor{cur: cur, table: table}
	if table != RootTable {
		tc.prefix = varint.Put(nil, table)
	}
	return tc
}

func (tc *TableCursor) probe(key []byte) []byte {
	if tc.prefix == nil {
		return key
	}
	buf := make([]byte, 0, len(tc.prefix)+len(key))
	buf = append(buf, tc.prefix...)
	return append(buf, key...)
}

func (tc *TableCursor) checkBounds(res Result, err error) (Result, error) {
	if err != nil || tc.table == RootTable {
		return res, err
	}
	key, kerr := tc.cur.Key()
	if kerr != nil {
		return res, kerr
	}
	if !bytes.HasPrefix(key, tc.prefix) {
		return NotFound, ErrNotFound
	}
	return res, nil
}

func (tc *TableCursor) Seek(key []byte, dir SeekDir) (Result, error) {
	return tc.checkBounds(tc.cur.Seek(tc.probe(key), dir))
}

// First seeks to the first key in the table (or, for RootTable, the first
// key in the whole store), using the sentinel probe described in spec.md
// §4.5: "\x00" for the root table's first key, or the table's own varint
// prefix for an ordinary table (landing on or after the first real entry).
func (tc *TableCursor) First() (Result, error) {
	if tc.table == RootTable {
		return tc.cur.Seek([]byte{0x00}, GE)
	}
	return tc.checkBounds(tc.cur.Seek(tc.prefix, GE))
}

// Last seeks to the last key in the table, probing at
// varint(table_id) || 0xFF (or varint(LargestInt64) for the root table).
func (tc *TableCursor) Last() (Result, error) {
	if tc.table == RootTable {
		sentinel := varint.Put(nil, uint64(math.MaxInt64))
		return tc.cur.Seek(sentinel, LE)
	}
	sentinel := append(append([]byte(nil), tc.prefix...), 0xFF)
	return tc.checkBounds(tc.cur.Seek(sentinel, LE))
}

func (tc *TableCursor) Next() (Result, error) { return tc.checkBounds(tc.cur.Next()) }
func (tc *TableCursor) Prev() (Result, error) { return tc.checkBounds(tc.cur.Prev()) }

// Key returns the current key with the table prefix stripped.
func (tc *TableCursor) Key() ([]byte, error) {
	key, err := tc.cur.Key()
	if err != nil {
		return nil, err
	}
	if tc.prefix == nil {
		return key, nil
	}
	if len(key) < len(tc.prefix) {
		return nil, ErrCorrupt
	}
	return key[len(tc.prefix):], nil
}

func (tc *TableCursor) Data(offset, length int) ([]byte, error) {
	return tc.cur.Data(offset, length)
}

func (tc *TableCursor) Delete() error { return tc.cur.Delete() }
func (tc *TableCursor) Close() error  { return tc.cur.Close() }

func (tc *TableCursor) RowChanged() bool      { return tc.cur.RowChanged() }
func (tc *TableCursor) ClearRowChanged()      { tc.cur.ClearRowChanged() }
func (tc *TableCursor) KeyField(i int) (keycodec.Value, bool) {
	key, err := tc.Key()
	if err != nil {
		return keycodec.Value{}, false
	}
	values, _, _, err := keycodec.Decode(key, i+1)
	if err != nil || i >= len(values) {
		return keycodec.Value{}, false
	}
	return values[i], true
}

// TableShortKey reports the byte length of varint(table) || encode(fields
// 0..n-1 of the key), without decoding the fields that follow, for a key
// buffer that still carries its table-id prefix (the on-disk form a
// TableCursor key-scans over).
func TableShortKey(buf []byte, table uint64, n int) (int, error) {
	prefix := varint.Len(table)
	if len(buf) < prefix {
		return 0, ErrCorrupt
	}
	l, err := keycodec.ShortKey(buf[prefix:], n)
	if err != nil {
		return 0, err
	}
	return prefix + l, nil
}
