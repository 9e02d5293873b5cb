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

// Package keycodec implements the order-preserving binary key encoding:
// every supported value kind maps to a byte run such that memcmp over the
// concatenation of a row's key fields matches the row's position in the
// table's declared collation, for every combination of ascending and
// descending field order.
package keycodec

import "github.com/ordkv/ordkv/num"

// Kind identifies which union member of Value is populated.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindText
	KindBlob
)

// Collation produces the sort-key bytes a Text value encodes instead of its
// raw UTF-8 form. The returned bytes are still passed through the text
// field's NUL-escaping, so a Collation implementation need not worry about
// embedded zero bytes.
type Collation interface {
	SortKey(in []byte) []byte
}

type binaryCollation struct{}

func (binaryCollation) SortKey(in []byte) []byte { return in }

// BinaryCollation treats text as an opaque byte string: its sort key is the
// UTF-8 encoding unchanged, so ordering is by Unicode code point.
var BinaryCollation Collation = binaryCollation{}

// Value is one key field's logical content, independent of its field order.
type Value struct {
	Kind      Kind
	Num       num.Num
	Text      string
	Blob      []byte
	Terminal  bool // Blob only: encode raw, running to the end of the key
	Collation Collation
}

// Null returns the NULL value.
func Null() Value { return Value{Kind: KindNull} }

// Number wraps a decimal scalar as a key value.
func Number(n num.Num) Value { return Value{Kind: KindNumber, Num: n} }

// Text wraps a UTF-8 string, sorted under BinaryCollation.
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// TextCollated wraps a UTF-8 string sorted under a caller-supplied collation.
func TextCollated(s string, c Collation) Value {
	return Value{Kind: KindText, Text: s, Collation: c}
}

// Blob wraps a byte string packed the same way text is, so it may be
// followed by further key fields.
func Blob(b []byte) Value { return Value{Kind: KindBlob, Blob: b} }

// TerminalBlob wraps a byte string encoded raw, with no escaping or
// terminator. It must be the last field passed to Encode.
func TerminalBlob(b []byte) Value { return Value{Kind: KindBlob, Blob: b, Terminal: true} }

// Order selects a key field's sort direction.
type Order bool

const (
	Ascending  Order = false
	Descending Order = true
)

// Field pairs a Value with the direction it sorts under.
type Field struct {
	Value Value
	Order Order
}

// Asc builds an ascending Field.
func Asc(v Value) Field { return Field{Value: v, Order: Ascending} }

// Desc builds a descending Field.
func Desc(v Value) Field { return Field{Value: v, Order: Descending} }
