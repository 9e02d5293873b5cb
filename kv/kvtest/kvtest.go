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

// Package kvtest drives any kv.Backend through a shared black-box
// conformance suite, mirroring the teacher's kvtest.TestSorted, which
// exercises every sorted.KeyValue implementation against one shared set of
// expectations rather than duplicating the checks per backend package.
package kvtest

import (
	"bytes"
	"sort"
	"testing"

	"github.com/ordkv/ordkv/keycodec"
	"github.com/ordkv/ordkv/kv"
	"github.com/ordkv/ordkv/num"
	"github.com/ordkv/ordkv/rowcodec"
	"github.com/ordkv/ordkv/varint"
)

// Run drives newBackend() through basic replace/seek/delete, every
// concrete scenario in spec.md §8 (S1-S6), and the transaction/cursor
// invariants (5, 6). Each sub-test opens its own fresh backend.
func Run(t *testing.T, newBackend kv.BackendFactory) {
	t.Run("basic", func(t *testing.T) { testBasic(t, newBackend) })
	t.Run("numeric_order_S1", func(t *testing.T) { testNumericOrder(t, newBackend) })
	t.Run("text_terminator_S2", func(t *testing.T) { testTextTerminator(t, newBackend) })
	t.Run("blob_packing_S3", func(t *testing.T) { testBlobPacking(t, newBackend) })
	t.Run("row_typed_int_S4", func(t *testing.T) { testRowTypedInt(t, newBackend) })
	t.Run("savepoint_rollback_S5", func(t *testing.T) { testSavepointRollback(t, newBackend) })
	t.Run("short_key_S6", func(t *testing.T) { testShortKey(t, newBackend) })
	t.Run("cursor_after_delete_invariant6", func(t *testing.T) { testCursorAfterDelete(t, newBackend) })
}

func open(t *testing.T, newBackend kv.BackendFactory) *kv.Store {
	t.Helper()
	b, err := newBackend()
	if err != nil {
		t.Fatalf("newBackend: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return kv.NewStore(b)
}

func testBasic(t *testing.T, newBackend kv.BackendFactory) {
	s := open(t, newBackend)
	if err := s.Replace([]byte("foo"), []byte("bar")); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	c, err := s.OpenCursor()
	if err != nil {
		t.Fatalf("OpenCursor: %v", err)
	}
	defer c.Close()
	if res, err := c.Seek([]byte("foo"), kv.EQ); err != nil || res != kv.Ok {
		t.Fatalf("Seek(foo, EQ) = %v, %v; want Ok", res, err)
	}
	if v, err := c.Data(0, -1); err != nil || string(v) != "bar" {
		t.Fatalf("Data = %q, %v; want bar", v, err)
	}
	if res, err := c.Seek([]byte("nope"), kv.EQ); err == nil || res != kv.NotFound {
		t.Fatalf("Seek(nope, EQ) = %v, %v; want NotFound", res, err)
	}
	if _, err := c.Seek([]byte("foo"), kv.EQ); err != nil {
		t.Fatalf("re-seek(foo): %v", err)
	}
	if err := c.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if res, err := c.Seek([]byte("foo"), kv.EQ); err == nil || res != kv.NotFound {
		t.Fatalf("Seek(foo, EQ) after delete = %v, %v; want NotFound", res, err)
	}
}

// S1: storing the ascending encodings of NaN, -Inf, -1, 0, 1, +Inf and
// scanning the store in order must reproduce the encodings' own sorted
// order, end to end through a real backend rather than just bytes.Compare.
func testNumericOrder(t *testing.T, newBackend kv.BackendFactory) {
	s := open(t, newBackend)
	vals := []num.Num{
		num.NaN(), num.Inf(1), num.FromInt64(-1), num.Zero, num.FromInt64(1), num.Inf(0),
	}
	var keys [][]byte
	for i, v := range vals {
		enc, err := keycodec.Encode(nil, []keycodec.Field{keycodec.Asc(keycodec.Number(v))})
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		keys = append(keys, enc)
		if err := s.Replace(enc, []byte{byte(i)}); err != nil {
			t.Fatalf("Replace: %v", err)
		}
	}
	want := append([][]byte(nil), keys...)
	sort.Slice(want, func(i, j int) bool { return bytes.Compare(want[i], want[j]) < 0 })

	c, err := s.OpenCursor()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	var got [][]byte
	for res, err := c.First(); err == nil; res, err = c.Next() {
		if res != kv.Ok {
			break
		}
		key, kerr := c.Key()
		if kerr != nil {
			t.Fatalf("Key: %v", kerr)
		}
		got = append(got, append([]byte(nil), key...))
	}
	if len(got) != len(want) {
		t.Fatalf("scanned %d keys, want %d", len(got), len(want))
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Errorf("key %d = % x, want % x", i, got[i], want[i])
		}
	}
}

// S2: a text key containing a literal NUL byte round-trips through real
// storage, not just the codec's own in-memory Encode/Decode pair.
func testTextTerminator(t *testing.T, newBackend kv.BackendFactory) {
	s := open(t, newBackend)
	text := "a\x00b"
	enc, err := keycodec.Encode(nil, []keycodec.Field{keycodec.Asc(keycodec.Text(text))})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Replace(enc, []byte("v")); err != nil {
		t.Fatal(err)
	}
	c, err := s.OpenCursor()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if res, err := c.Seek(enc, kv.EQ); err != nil || res != kv.Ok {
		t.Fatalf("Seek = %v, %v; want Ok", res, err)
	}
	key, err := c.Key()
	if err != nil {
		t.Fatal(err)
	}
	values, _, _, err := keycodec.Decode(key, 1)
	if err != nil || values[0].Text != text {
		t.Fatalf("decoded text = %q, %v; want %q", values[0].Text, err, text)
	}
}

// S3: a 7-byte blob round-trips through real storage with the same 9-byte
// (8 packed groups + terminator) body the codec's own test checks.
func testBlobPacking(t *testing.T, newBackend kv.BackendFactory) {
	s := open(t, newBackend)
	data := []byte{1, 2, 3, 4, 5, 6, 7}
	enc, err := keycodec.Encode(nil, []keycodec.Field{keycodec.Asc(keycodec.Blob(data))})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Replace(enc, []byte("v")); err != nil {
		t.Fatal(err)
	}
	c, err := s.OpenCursor()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if res, err := c.Seek(enc, kv.EQ); err != nil || res != kv.Ok {
		t.Fatalf("Seek = %v, %v; want Ok", res, err)
	}
	key, err := c.Key()
	if err != nil {
		t.Fatal(err)
	}
	values, _, _, err := keycodec.Decode(key, 1)
	if err != nil || !bytes.Equal(values[0].Blob, data) {
		t.Fatalf("decoded blob = % x, %v; want % x", values[0].Blob, err, data)
	}
}

// S4: row columns [NULL, 1, 300, "hi"] stored as a value decode column 2
// (300) without needing to decode columns 0, 1 or 3.
func testRowTypedInt(t *testing.T, newBackend kv.BackendFactory) {
	s := open(t, newBackend)
	cols := []rowcodec.Column{rowcodec.Null(), rowcodec.Int(1), rowcodec.Int(300), rowcodec.Text("hi")}
	row, err := rowcodec.Encode(nil, cols, nil)
	if err != nil {
		t.Fatal(err)
	}
	key := []byte("row-key")
	if err := s.Replace(key, row); err != nil {
		t.Fatal(err)
	}
	c, err := s.OpenCursor()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if res, err := c.Seek(key, kv.EQ); err != nil || res != kv.Ok {
		t.Fatalf("Seek = %v, %v; want Ok", res, err)
	}
	data, err := c.Data(0, -1)
	if err != nil {
		t.Fatal(err)
	}
	got, err := rowcodec.DecodeColumn(data, 2, nil)
	if err != nil || got.Kind != rowcodec.KindInt || got.Int != 300 {
		t.Fatalf("DecodeColumn(2) = %+v, %v; want Int(300)", got, err)
	}
}

// S5: begin(2); replace(k, v1); begin(3); replace(k, v2); rollback(2) must
// leave k == v1 and L == 2.
func testSavepointRollback(t *testing.T, newBackend kv.BackendFactory) {
	s := open(t, newBackend)
	k := []byte("k")
	if err := s.Begin(2); err != nil {
		t.Fatalf("Begin(2): %v", err)
	}
	if err := s.Replace(k, []byte("v1")); err != nil {
		t.Fatalf("Replace(v1): %v", err)
	}
	if err := s.Begin(3); err != nil {
		t.Fatalf("Begin(3): %v", err)
	}
	if err := s.Replace(k, []byte("v2")); err != nil {
		t.Fatalf("Replace(v2): %v", err)
	}
	if err := s.Rollback(2); err != nil {
		t.Fatalf("Rollback(2): %v", err)
	}
	if s.Level() != 2 {
		t.Errorf("L = %d, want 2", s.Level())
	}
	c, err := s.OpenCursor()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if res, err := c.Seek(k, kv.EQ); err != nil || res != kv.Ok {
		t.Fatalf("Seek(k) after rollback = %v, %v; want Ok", res, err)
	}
	v, err := c.Data(0, -1)
	if err != nil || string(v) != "v1" {
		t.Fatalf("value after rollback = %q, %v; want v1", v, err)
	}
}

// S6: for a two-field key (42, "abc") on table 7, TableShortKey(buf, 7, 1)
// reports the byte length of varint(7) || encode(42).
func testShortKey(t *testing.T, newBackend kv.BackendFactory) {
	fields := []keycodec.Field{
		keycodec.Asc(keycodec.Number(num.FromInt64(42))),
		keycodec.Asc(keycodec.Text("abc")),
	}
	encoded, err := keycodec.Encode(nil, fields)
	if err != nil {
		t.Fatal(err)
	}
	buf := append(varint.Put(nil, 7), encoded...)

	got, err := kv.TableShortKey(buf, 7, 1)
	if err != nil {
		t.Fatal(err)
	}
	want := len(varint.Put(nil, 7))
	firstField, err := keycodec.Encode(nil, fields[:1])
	if err != nil {
		t.Fatal(err)
	}
	want += len(firstField)
	if got != want {
		t.Errorf("TableShortKey = %d, want %d", got, want)
	}
}

// Invariant 6: delete(); next() does not crash and visits the same
// successor the undeleted cursor would have visited; Key/Data are
// undefined (return an error) in the phantom state between delete and the
// next movement.
func testCursorAfterDelete(t *testing.T, newBackend kv.BackendFactory) {
	s := open(t, newBackend)
	for _, k := range []string{"a", "b", "c"} {
		if err := s.Replace([]byte(k), []byte(k+"v")); err != nil {
			t.Fatal(err)
		}
	}
	c, err := s.OpenCursor()
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if res, err := c.Seek([]byte("b"), kv.EQ); err != nil || res != kv.Ok {
		t.Fatalf("Seek(b) = %v, %v; want Ok", res, err)
	}
	if err := c.Delete(); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := c.Key(); err == nil {
		t.Errorf("Key() right after Delete should error (phantom state)")
	}
	res, err := c.Next()
	if err != nil || res != kv.Ok {
		t.Fatalf("Next() after delete = %v, %v; want Ok", res, err)
	}
	key, err := c.Key()
	if err != nil || string(key) != "c" {
		t.Fatalf("Next() after delete landed on %q, %v; want c", key, err)
	}
}
