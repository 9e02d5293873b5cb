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

package rowcodec

import (
	"bytes"
	"testing"

	"github.com/ordkv/ordkv/keycodec"
	"github.com/ordkv/ordkv/num"
	"github.com/ordkv/ordkv/varint"
)

// S4-shaped scenario: columns [NULL, 1, 300, "hi"]. 300 needs 2 bytes
// (code 2+2=4); "hi" needs no text prefix since 'h' (0x68) is >= 3.
func TestRowLayout(t *testing.T) {
	cols := []Column{Null(), Int(1), Int(300), Text("hi")}
	buf, err := Encode(nil, cols, nil)
	if err != nil {
		t.Fatal(err)
	}

	wantHeader := []byte{0, 2, 4, 30} // NULL, int-1, int(2 bytes), text(n=2)
	hlen, n1, ok := varint.Get(buf)
	if !ok {
		t.Fatalf("unexpected header-length varint encoding")
	}
	if int(hlen) != len(wantHeader) {
		t.Fatalf("header length = %d, want %d", hlen, len(wantHeader))
	}
	gotHeader := buf[n1 : n1+int(hlen)]
	if !bytes.Equal(gotHeader, wantHeader) {
		t.Fatalf("header = % x, want % x", gotHeader, wantHeader)
	}
	wantPayload := []byte{0x01, 0x2C, 'h', 'i'}
	gotPayload := buf[n1+int(hlen):]
	if !bytes.Equal(gotPayload, wantPayload) {
		t.Fatalf("payload = % x, want % x", gotPayload, wantPayload)
	}

	n, err := NumColumns(buf)
	if err != nil || n != 4 {
		t.Fatalf("NumColumns = %d, %v, want 4, nil", n, err)
	}

	c2, err := DecodeColumn(buf, 2, nil)
	if err != nil {
		t.Fatalf("DecodeColumn(2): %v", err)
	}
	if c2.Kind != KindInt || c2.Int != 300 {
		t.Fatalf("column 2 = %+v, want Int(300)", c2)
	}
}

// Invariant 4: decoding column i yields the same value whether or not the
// columns around it were decoded first.
func TestDecodeColumnOrderIndependence(t *testing.T) {
	cols := []Column{Int(-1), Text("hello world"), Blob([]byte{1, 2, 3}), Number(num.FromInt64(-42)), Null()}
	buf, err := Encode(nil, cols, nil)
	if err != nil {
		t.Fatal(err)
	}

	// Decode in reverse order; each column should still decode correctly.
	for i := len(cols) - 1; i >= 0; i-- {
		got, err := DecodeColumn(buf, i, nil)
		if err != nil {
			t.Fatalf("DecodeColumn(%d): %v", i, err)
		}
		want := cols[i]
		if got.Kind != want.Kind {
			t.Fatalf("column %d kind = %v, want %v", i, got.Kind, want.Kind)
		}
		switch want.Kind {
		case KindInt:
			if got.Int != want.Int {
				t.Errorf("column %d = %d, want %d", i, got.Int, want.Int)
			}
		case KindText:
			if string(got.TextBytes) != string(want.TextBytes) {
				t.Errorf("column %d = %q, want %q", i, got.TextBytes, want.TextBytes)
			}
		case KindBlob:
			if !bytes.Equal(got.Blob, want.Blob) {
				t.Errorf("column %d = % x, want % x", i, got.Blob, want.Blob)
			}
		case KindNumber:
			if num.CompareNum(got.Num, want.Num) != num.Equal {
				t.Errorf("column %d = %v, want %v", i, got.Num, want.Num)
			}
		}
	}
}

type fakeKeySource struct {
	fields []keycodec.Value
}

func (f fakeKeySource) KeyField(i int) (keycodec.Value, bool) {
	if i < 0 || i >= len(f.fields) {
		return keycodec.Value{}, false
	}
	return f.fields[i], true
}

func TestInKeyIndirection(t *testing.T) {
	ks := fakeKeySource{fields: []keycodec.Value{
		keycodec.Number(num.FromInt64(7)),
		keycodec.Text("pk-text"),
	}}
	cols := []Column{InKey(0, false), InKey(1, false), Int(99)}
	buf, err := Encode(nil, cols, nil)
	if err != nil {
		t.Fatal(err)
	}
	c0, err := DecodeColumn(buf, 0, ks)
	if err != nil {
		t.Fatal(err)
	}
	if c0.Kind != KindNumber || num.CompareNum(c0.Num, num.FromInt64(7)) != num.Equal {
		t.Errorf("column 0 = %+v, want Number(7)", c0)
	}
	c1, err := DecodeColumn(buf, 1, ks)
	if err != nil {
		t.Fatal(err)
	}
	if c1.Kind != KindText || string(c1.TextBytes) != "pk-text" {
		t.Errorf("column 1 = %+v, want Text(pk-text)", c1)
	}
	if _, err := DecodeColumn(buf, 0, nil); err != ErrMisuse {
		t.Errorf("DecodeColumn with nil KeySource on in-key column: err = %v, want ErrMisuse", err)
	}
}

func TestPermutedEncode(t *testing.T) {
	cols := []Column{Int(1), Int(2), Int(3)}
	buf, err := Encode(nil, cols, []int{2, 0})
	if err != nil {
		t.Fatal(err)
	}
	n, err := NumColumns(buf)
	if err != nil || n != 2 {
		t.Fatalf("NumColumns = %d, %v, want 2, nil", n, err)
	}
	c0, _ := DecodeColumn(buf, 0, nil)
	c1, _ := DecodeColumn(buf, 1, nil)
	if c0.Int != 3 || c1.Int != 1 {
		t.Errorf("permuted columns = %d, %d, want 3, 1", c0.Int, c1.Int)
	}
}
