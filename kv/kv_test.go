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

package kv_test

import (
	"errors"
	"testing"

	"github.com/ordkv/ordkv/kv"
	"github.com/ordkv/ordkv/kv/memkv"
)

func TestBeginIsNoOpBelowCurrentLevel(t *testing.T) {
	s := kv.NewStore(memkv.New())
	if err := s.Begin(3); err != nil {
		t.Fatalf("Begin(3): %v", err)
	}
	if err := s.Begin(2); err != nil {
		t.Fatalf("Begin(2) while L=3 should be a no-op, got: %v", err)
	}
	if s.Level() != 3 {
		t.Errorf("L = %d, want 3 (Begin never closes a level)", s.Level())
	}
}

func TestCommitPhaseTwoClosesToTarget(t *testing.T) {
	s := kv.NewStore(memkv.New())
	if err := s.Begin(2); err != nil {
		t.Fatal(err)
	}
	if err := s.Replace([]byte("k"), []byte("v")); err != nil {
		t.Fatal(err)
	}
	if err := s.CommitPhaseOne(0); err != nil {
		t.Fatalf("CommitPhaseOne: %v", err)
	}
	if s.Level() != 2 {
		t.Errorf("CommitPhaseOne must not change L; got %d", s.Level())
	}
	if err := s.CommitPhaseTwo(0); err != nil {
		t.Fatalf("CommitPhaseTwo: %v", err)
	}
	if s.Level() != 0 {
		t.Errorf("L after CommitPhaseTwo(0) = %d, want 0", s.Level())
	}
	c, err := s.OpenCursor()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if res, err := c.Seek([]byte("k"), kv.EQ); err != nil || res != kv.Ok {
		t.Fatalf("committed write not visible: %v, %v", res, err)
	}
}

func TestRevertReturnsToLevelZero(t *testing.T) {
	s := kv.NewStore(memkv.New())
	if err := s.Begin(2); err != nil {
		t.Fatal(err)
	}
	if err := s.Replace([]byte("k"), []byte("v")); err != nil {
		t.Fatal(err)
	}
	if err := s.Revert(); err != nil {
		t.Fatalf("Revert: %v", err)
	}
	if s.Level() != 0 {
		t.Errorf("L after Revert = %d, want 0", s.Level())
	}
}

func TestTableCursorScopesToItsTable(t *testing.T) {
	s := kv.NewStore(memkv.New())
	cur1, err := s.OpenCursor()
	if err != nil {
		t.Fatal(err)
	}
	defer cur1.Close()
	t1 := kv.NewTableCursor(cur1, 1)

	cur2, err := s.OpenCursor()
	if err != nil {
		t.Fatal(err)
	}
	defer cur2.Close()
	t2 := kv.NewTableCursor(cur2, 2)

	if err := s.Replace(append(varintByte(1), "a"...), []byte("table1-a")); err != nil {
		t.Fatal(err)
	}
	if err := s.Replace(append(varintByte(2), "a"...), []byte("table2-a")); err != nil {
		t.Fatal(err)
	}

	if res, err := t1.Seek([]byte("a"), kv.EQ); err != nil || res != kv.Ok {
		t.Fatalf("t1.Seek(a) = %v, %v; want Ok", res, err)
	}
	v, err := t1.Data(0, -1)
	if err != nil || string(v) != "table1-a" {
		t.Fatalf("t1 data = %q, %v; want table1-a", v, err)
	}
	key, err := t1.Key()
	if err != nil || string(key) != "a" {
		t.Fatalf("t1.Key() = %q, %v; want the table prefix stripped off", key, err)
	}

	if res, err := t2.Seek([]byte("a"), kv.EQ); err != nil || res != kv.Ok {
		t.Fatalf("t2.Seek(a) = %v, %v; want Ok", res, err)
	}
	v, err = t2.Data(0, -1)
	if err != nil || string(v) != "table2-a" {
		t.Fatalf("t2 data = %q, %v; want table2-a", v, err)
	}

	// t1 has exactly one key; stepping Next past it must report NotFound
	// rather than bleeding into table 2's keyspace.
	if _, err := t1.Seek([]byte("a"), kv.EQ); err != nil {
		t.Fatal(err)
	}
	if res, err := t1.Next(); err == nil || res == kv.Ok {
		t.Errorf("t1.Next() past its table's last key = %v, %v; want NotFound", res, err)
	}
}

func TestRootTableSeesEverything(t *testing.T) {
	s := kv.NewStore(memkv.New())
	if err := s.Replace(append(varintByte(5), "x"...), []byte("v")); err != nil {
		t.Fatal(err)
	}
	cur, err := s.OpenCursor()
	if err != nil {
		t.Fatal(err)
	}
	defer cur.Close()
	root := kv.NewTableCursor(cur, kv.RootTable)
	if res, err := root.First(); err != nil || res != kv.Ok {
		t.Fatalf("root.First() = %v, %v; want Ok", res, err)
	}
	key, err := root.Key()
	if err != nil {
		t.Fatal(err)
	}
	if len(key) == 0 {
		t.Errorf("root table key should be the raw unprefixed on-disk key")
	}
}

func TestErrorIsMatchesByResultKind(t *testing.T) {
	s := kv.NewStore(memkv.New())
	c, err := s.OpenCursor()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	_, err = c.Seek([]byte("missing"), kv.EQ)
	if !errors.Is(err, kv.ErrNotFound) {
		t.Errorf("errors.Is(err, ErrNotFound) = false, want true; err = %v", err)
	}
}

// varintByte builds a one-byte varint prefix for small table ids, avoiding
// an import of the varint package just for this test helper.
func varintByte(table byte) []byte { return []byte{table} }
