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

// Package rowcodec implements the self-describing row encoding: a
// varint-length header of per-column type codes, followed by a contiguous
// payload. A column's value can be decoded on its own, in any order,
// without materializing the columns around it.
package rowcodec

import (
	"github.com/ordkv/ordkv/keycodec"
	"github.com/ordkv/ordkv/num"
	"github.com/ordkv/ordkv/varint"
)

// Kind identifies which union member of Column is populated.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindNumber
	KindText
	KindBlob
	KindTypedBlob
	KindInKey
)

// Column is one row column's logical content.
type Column struct {
	Kind         Kind
	Int          int64
	Num          num.Num
	TextBytes    []byte
	TextEncoding byte // 0=UTF-8, 1=UTF-16LE, 2=UTF-16BE; meaningful for KindText
	Blob         []byte
	Subtype      uint64 // KindTypedBlob
	KeyField     int    // KindInKey: index into the row's key
	ForceFloat   bool   // KindInKey: force float affinity on decode
}

func Null() Column                { return Column{Kind: KindNull} }
func Int(v int64) Column          { return Column{Kind: KindInt, Int: v} }
func Number(n num.Num) Column     { return Column{Kind: KindNumber, Num: n} }
func Text(s string) Column        { return Column{Kind: KindText, TextBytes: []byte(s)} }
func Blob(b []byte) Column        { return Column{Kind: KindBlob, Blob: b} }
func TypedBlob(subtype uint64, b []byte) Column {
	return Column{Kind: KindTypedBlob, Subtype: subtype, Blob: b}
}
func InKey(fieldIndex int, forceFloat bool) Column {
	return Column{Kind: KindInKey, KeyField: fieldIndex, ForceFloat: forceFloat}
}

// KeySource resolves an in-key column (type code 24+4k) back to the key
// field it shadows. A cursor implements this over its current key, via a
// rowChanged-style invalidation so the row decoder never outlives its key.
type KeySource interface {
	KeyField(index int) (keycodec.Value, bool)
}

// Encode appends the row encoding of cols to buf. perm, if non-nil, gives
// the output column order as indices into cols, letting a caller project
// columns without first materializing an intermediate row.
func Encode(buf []byte, cols []Column, perm []int) ([]byte, error) {
	order := perm
	if order == nil {
		order = identityPerm(len(cols))
	}
	var header []byte
	sizes := make([]int, len(order))
	for i, ci := range order {
		code, size, err := describe(cols[ci])
		if err != nil {
			return nil, err
		}
		header = varint.Put(header, code)
		sizes[i] = size
	}
	buf = varint.Put(buf, uint64(len(header)))
	buf = append(buf, header...)
	for i, ci := range order {
		var err error
		buf, err = appendPayload(buf, cols[ci], sizes[i])
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func identityPerm(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return p
}

func describe(c Column) (code uint64, size int, err error) {
	switch c.Kind {
	case KindNull:
		return 0, 0, nil
	case KindInt:
		switch c.Int {
		case 0:
			return 1, 0, nil
		case 1:
			return 2, 0, nil
		}
		n := intByteLen(c.Int)
		return uint64(2 + n), n, nil
	case KindNumber:
		flags := numberFlags(c.Num)
		return 11, varint.Len(flags) + varint.Len(c.Num.Mantissa), nil
	case KindText:
		n := len(c.TextBytes)
		size := n
		if needsTextPrefix(c) {
			size++
		}
		return uint64(22 + 4*n), size, nil
	case KindBlob:
		return uint64(23 + 4*len(c.Blob)), len(c.Blob), nil
	case KindInKey:
		k := uint64(c.KeyField * 2)
		if c.ForceFloat {
			k |= 1
		}
		return 24 + 4*k, 0, nil
	case KindTypedBlob:
		return uint64(25 + 4*len(c.Blob)), varint.Len(c.Subtype) + len(c.Blob), nil
	default:
		return 0, 0, ErrMisuse
	}
}

func appendPayload(buf []byte, c Column, size int) ([]byte, error) {
	switch c.Kind {
	case KindNull, KindInKey:
		return buf, nil
	case KindInt:
		if c.Int == 0 || c.Int == 1 {
			return buf, nil
		}
		return putIntBytes(buf, c.Int, size), nil
	case KindNumber:
		buf = varint.Put(buf, numberFlags(c.Num))
		return varint.Put(buf, c.Num.Mantissa), nil
	case KindText:
		if needsTextPrefix(c) {
			buf = append(buf, c.TextEncoding)
		}
		return append(buf, c.TextBytes...), nil
	case KindBlob:
		return append(buf, c.Blob...), nil
	case KindTypedBlob:
		buf = varint.Put(buf, c.Subtype)
		return append(buf, c.Blob...), nil
	default:
		return buf, ErrMisuse
	}
}

func needsTextPrefix(c Column) bool {
	if len(c.TextBytes) == 0 {
		return false
	}
	if c.TextEncoding != 0 {
		return true
	}
	return c.TextBytes[0] < 3
}

func numberFlags(n num.Num) uint64 {
	var sign, expSign uint64
	if n.Sign != 0 {
		sign = 1
	}
	e := int64(n.Exp)
	if e < 0 {
		expSign = 1
		e = -e
	}
	return uint64(e)<<2 | expSign<<1 | sign
}

func intByteLen(v int64) int {
	for n := 1; n <= 8; n++ {
		bits := uint(n * 8)
		lo := -(int64(1) << (bits - 1))
		var hi int64
		if bits == 64 {
			hi = int64(^uint64(0) >> 1)
		} else {
			hi = int64(1)<<(bits-1) - 1
		}
		if v >= lo && v <= hi {
			return n
		}
	}
	return 8
}

func putIntBytes(buf []byte, v int64, n int) []byte {
	u := uint64(v)
	out := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		out[i] = byte(u)
		u >>= 8
	}
	return append(buf, out...)
}

func getIntBytes(b []byte) int64 {
	var u uint64
	for _, c := range b {
		u = u<<8 | uint64(c)
	}
	bits := uint(len(b) * 8)
	if bits < 64 && u&(1<<(bits-1)) != 0 {
		u |= ^uint64(0) << bits
	}
	return int64(u)
}

// DecodeColumn decodes column i of the row encoded in buf, resolving any
// in-key indirection through ks (which may be nil if the row is known to
// have no in-key columns).
func DecodeColumn(buf []byte, i int, ks KeySource) (Column, error) {
	hlen, n1, ok := varint.Get(buf)
	if !ok {
		return Column{}, ErrCorrupt
	}
	if n1+int(hlen) > len(buf) {
		return Column{}, ErrCorrupt
	}
	header := buf[n1 : n1+int(hlen)]
	payload := buf[n1+int(hlen):]

	hp, pp := 0, 0
	for col := 0; ; col++ {
		if hp >= len(header) {
			return Column{}, ErrCorrupt
		}
		code, used, ok := varint.Get(header[hp:])
		if !ok {
			return Column{}, ErrCorrupt
		}
		hp += used
		size, err := columnPayloadSize(code, payload[pp:])
		if err != nil {
			return Column{}, err
		}
		if pp+size > len(payload) {
			return Column{}, ErrCorrupt
		}
		if col == i {
			return decodeColumnValue(code, payload[pp:pp+size], ks)
		}
		pp += size
	}
}

// NumColumns reports how many columns buf's header declares.
func NumColumns(buf []byte) (int, error) {
	hlen, n1, ok := varint.Get(buf)
	if !ok || n1+int(hlen) > len(buf) {
		return 0, ErrCorrupt
	}
	header := buf[n1 : n1+int(hlen)]
	count, hp := 0, 0
	for hp < len(header) {
		_, used, ok := varint.Get(header[hp:])
		if !ok {
			return 0, ErrCorrupt
		}
		hp += used
		count++
	}
	return count, nil
}

func columnPayloadSize(code uint64, payload []byte) (int, error) {
	switch {
	case code == 0 || code == 1 || code == 2:
		return 0, nil
	case code >= 3 && code <= 10:
		return int(code - 2), nil
	case code >= 11 && code <= 21:
		if len(payload) == 0 {
			return 0, ErrCorrupt
		}
		l1 := varint.PeekLen(payload[0])
		if l1 >= len(payload) {
			return 0, ErrCorrupt
		}
		l2 := varint.PeekLen(payload[l1])
		if l1+l2 > len(payload) {
			return 0, ErrCorrupt
		}
		return l1 + l2, nil
	case code >= 22:
		rel := code - 22
		cat := rel % 4
		n := int(rel / 4)
		switch cat {
		case 0: // text
			if n == 0 {
				return 0, nil
			}
			if len(payload) == 0 {
				return 0, ErrCorrupt
			}
			if payload[0] < 3 {
				return n + 1, nil
			}
			return n, nil
		case 1: // blob
			return n, nil
		case 2: // in-key
			return 0, nil
		case 3: // typed blob
			if len(payload) == 0 {
				return 0, ErrCorrupt
			}
			l := varint.PeekLen(payload[0])
			if l > len(payload) {
				return 0, ErrCorrupt
			}
			return l + n, nil
		}
	}
	return 0, ErrCorrupt
}

func decodeColumnValue(code uint64, data []byte, ks KeySource) (Column, error) {
	switch {
	case code == 0:
		return Column{Kind: KindNull}, nil
	case code == 1:
		return Column{Kind: KindInt, Int: 0}, nil
	case code == 2:
		return Column{Kind: KindInt, Int: 1}, nil
	case code >= 3 && code <= 10:
		return Column{Kind: KindInt, Int: getIntBytes(data)}, nil
	case code >= 11 && code <= 21:
		flags, used, ok := varint.Get(data)
		if !ok {
			return Column{}, ErrCorrupt
		}
		mant, _, ok := varint.Get(data[used:])
		if !ok {
			return Column{}, ErrCorrupt
		}
		sign := uint8(flags & 1)
		expSign := (flags >> 1) & 1
		e := int64(flags >> 2)
		if expSign == 1 {
			e = -e
		}
		return Column{Kind: KindNumber, Num: num.Num{Sign: sign, Exp: int16(e), Mantissa: mant}}, nil
	case code >= 22:
		rel := code - 22
		cat := rel % 4
		n := int(rel / 4)
		switch cat {
		case 0:
			enc := byte(0)
			text := data
			if len(data) == n+1 && len(data) > 0 && data[0] < 3 {
				enc = data[0]
				text = data[1:]
			}
			return Column{Kind: KindText, TextBytes: append([]byte(nil), text...), TextEncoding: enc}, nil
		case 1:
			return Column{Kind: KindBlob, Blob: append([]byte(nil), data...)}, nil
		case 2:
			if ks == nil {
				return Column{}, ErrMisuse
			}
			k := n / 2
			forceFloat := n%2 == 1
			v, ok := ks.KeyField(k)
			if !ok {
				return Column{}, ErrCorrupt
			}
			return fromKeyValue(v, forceFloat), nil
		case 3:
			l := varint.PeekLen(data[0])
			sub, _, ok := varint.Get(data[:l])
			if !ok {
				return Column{}, ErrCorrupt
			}
			return Column{Kind: KindTypedBlob, Subtype: sub, Blob: append([]byte(nil), data[l:]...)}, nil
		}
	}
	return Column{}, ErrCorrupt
}

func fromKeyValue(v keycodec.Value, forceFloat bool) Column {
	switch v.Kind {
	case keycodec.KindNumber:
		return Column{Kind: KindNumber, Num: v.Num, ForceFloat: forceFloat}
	case keycodec.KindText:
		return Column{Kind: KindText, TextBytes: []byte(v.Text)}
	case keycodec.KindBlob:
		return Column{Kind: KindBlob, Blob: v.Blob}
	default:
		return Column{Kind: KindNull}
	}
}
