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

package keycodec

import (
	"bytes"
	"sort"
	"testing"

	"github.com/ordkv/ordkv/num"
)

func encodeOne(t *testing.T, v Value, order Order) []byte {
	t.Helper()
	enc, err := Encode(nil, []Field{{Value: v, Order: order}})
	if err != nil {
		t.Fatalf("Encode(%+v) error: %v", v, err)
	}
	return enc
}

// S1: sorting the encodings of NaN, -Inf, -1, 0, 1, +Inf lexicographically
// must reproduce that exact order.
func TestNumericOrdering(t *testing.T) {
	vals := []num.Num{
		num.NaN(), num.Inf(1), num.FromInt64(-1), num.Zero, num.FromInt64(1), num.Inf(0),
	}
	var encs [][]byte
	for _, v := range vals {
		encs = append(encs, encodeOne(t, Number(v), Ascending))
	}
	sorted := append([][]byte(nil), encs...)
	sort.Slice(sorted, func(i, j int) bool { return bytes.Compare(sorted[i], sorted[j]) < 0 })
	for i := range encs {
		if !bytes.Equal(sorted[i], encs[i]) {
			t.Fatalf("sorted order at index %d = %x, want %x (input order already canonical)", i, sorted[i], encs[i])
		}
	}
}

// S2: a text value containing a literal NUL byte must encode with no
// internal 0x00 before its terminator, and round-trip exactly.
func TestTextEmbeddedNUL(t *testing.T) {
	s := "a\x00b"
	enc := encodeOne(t, Text(s), Ascending)
	if c := bytes.Count(enc, []byte{0x00}); c != 1 {
		t.Fatalf("encoding contains %d NUL bytes, want exactly 1 (the terminator): % x", c, enc)
	}
	if enc[len(enc)-1] != 0x00 {
		t.Fatalf("terminator is not the final byte: % x", enc)
	}
	values, _, consumed, err := Decode(enc, 1)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if consumed != len(enc) {
		t.Fatalf("consumed %d, want %d", consumed, len(enc))
	}
	if values[0].Text != s {
		t.Fatalf("decoded text = %q, want %q", values[0].Text, s)
	}
}

// S3: packing a 7-byte blob into groups of 7 bits produces exactly 8 group
// bytes (56 bits / 7), plus a 1-byte terminator.
func TestBlobPacking(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7}
	packed := pack7(data)
	if len(packed) != 8 {
		t.Fatalf("pack7(7 bytes) = %d bytes, want 8", len(packed))
	}
	enc := encodeOne(t, Blob(data), Ascending)
	if got := len(enc) - 1; got != 9 {
		t.Fatalf("encoded blob body+terminator = %d bytes, want 9", got)
	}
	values, _, consumed, err := Decode(enc, 1)
	if err != nil || consumed != len(enc) {
		t.Fatalf("Decode: %v, consumed=%d", err, consumed)
	}
	if !bytes.Equal(values[0].Blob, data) {
		t.Fatalf("decoded blob = % x, want % x", values[0].Blob, data)
	}
}

// S6: ShortKey must report the exact byte length of a field prefix without
// decoding the fields that follow.
func TestShortKey(t *testing.T) {
	fields := []Field{
		Asc(Number(num.FromInt64(42))),
		Asc(Text("hello world")),
		Asc(Number(num.FromInt64(-7))),
	}
	buf, err := Encode(nil, fields)
	if err != nil {
		t.Fatal(err)
	}
	firstLen, err := ShortKey(buf, 1)
	if err != nil {
		t.Fatal(err)
	}
	want, err := Encode(nil, fields[:1])
	if err != nil {
		t.Fatal(err)
	}
	if firstLen != len(want) {
		t.Errorf("ShortKey(buf,1) = %d, want %d", firstLen, len(want))
	}
	twoLen, err := ShortKey(buf, 2)
	if err != nil {
		t.Fatal(err)
	}
	want2, err := Encode(nil, fields[:2])
	if err != nil {
		t.Fatal(err)
	}
	if twoLen != len(want2) {
		t.Errorf("ShortKey(buf,2) = %d, want %d", twoLen, len(want2))
	}
}

func TestRoundTripValues(t *testing.T) {
	nums := []num.Num{
		num.Zero, num.FromInt64(1), num.FromInt64(-1), num.FromInt64(100),
		num.FromInt64(123), num.FromInt64(-123), num.FromInt64(1000000000000),
		num.FromInt64(-1000000000000),
	}
	quarter := num.Div(num.FromInt64(1), num.FromInt64(4))
	nums = append(nums, quarter, num.Add(quarter, num.Zero))

	var values []Value
	for _, n := range nums {
		values = append(values, Number(n))
	}
	values = append(values, Null(), Text("hello"), Blob([]byte{9, 8, 7}), TerminalBlob([]byte{1, 2, 3, 0, 255}))

	for _, order := range []Order{Ascending, Descending} {
		for _, v := range values {
			enc := encodeOne(t, v, order)
			got, orders, consumed, err := Decode(enc, 1)
			if err != nil {
				t.Fatalf("order=%v value=%+v: Decode error: %v", order, v, err)
			}
			if consumed != len(enc) {
				t.Fatalf("order=%v value=%+v: consumed %d, want %d", order, v, consumed, len(enc))
			}
			if orders[0] != order {
				t.Fatalf("order=%v value=%+v: decoded order = %v", order, v, orders[0])
			}
			switch v.Kind {
			case KindNumber:
				if num.CompareNum(got[0].Num, v.Num) != num.Equal && !v.Num.IsNaN() {
					t.Errorf("order=%v: decoded %v, want %v", order, got[0].Num, v.Num)
				}
				if v.Num.IsNaN() && !got[0].Num.IsNaN() {
					t.Errorf("order=%v: NaN did not round-trip", order)
				}
			case KindText:
				if got[0].Text != v.Text {
					t.Errorf("order=%v: decoded text %q, want %q", order, got[0].Text, v.Text)
				}
			case KindBlob:
				if !bytes.Equal(got[0].Blob, v.Blob) {
					t.Errorf("order=%v: decoded blob % x, want % x", order, got[0].Blob, v.Blob)
				}
			case KindNull:
				if got[0].Kind != KindNull {
					t.Errorf("order=%v: decoded kind %v, want Null", order, got[0].Kind)
				}
			}
		}
	}
}

func TestOrderingAcrossMagnitudeTiers(t *testing.T) {
	ints := []int64{
		-1000000000000, -123456789, -100, -12, -1,
		0, 1, 12, 100, 123456789, 1000000000000,
	}
	var encs [][]byte
	for _, v := range ints {
		encs = append(encs, encodeOne(t, Number(num.FromInt64(v)), Ascending))
	}
	for i := 0; i < len(encs)-1; i++ {
		if bytes.Compare(encs[i], encs[i+1]) >= 0 {
			t.Errorf("encoding of %d does not sort before encoding of %d", ints[i], ints[i+1])
		}
	}
}

func TestDescendingReversesOrder(t *testing.T) {
	a := encodeOne(t, Number(num.FromInt64(1)), Descending)
	b := encodeOne(t, Number(num.FromInt64(2)), Descending)
	if bytes.Compare(a, b) <= 0 {
		t.Errorf("descending encoding of 1 should sort after descending encoding of 2")
	}
}

func TestTerminalBlobMustBeLast(t *testing.T) {
	_, err := Encode(nil, []Field{
		Asc(TerminalBlob([]byte("x"))),
		Asc(Number(num.FromInt64(1))),
	})
	if err != ErrMisuse {
		t.Errorf("Encode with non-last terminal blob: err = %v, want ErrMisuse", err)
	}
}
