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
	"github.com/ordkv/ordkv/num"
	"github.com/ordkv/ordkv/varint"
)

// Encode appends the key encoding of fields to buf and returns the
// extended slice. A TerminalBlob value is only valid as the last field.
func Encode(buf []byte, fields []Field) ([]byte, error) {
	for i, f := range fields {
		if f.Value.Kind == KindBlob && f.Value.Terminal && i != len(fields)-1 {
			return nil, ErrMisuse
		}
		enc, err := encodeField(f.Value)
		if err != nil {
			return nil, err
		}
		if f.Order == Descending {
			complementInto(enc)
		}
		buf = append(buf, enc...)
	}
	return buf, nil
}

func complementInto(b []byte) {
	for i, c := range b {
		b[i] = ^c
	}
}

func encodeField(v Value) ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte{tagNull}, nil
	case KindNumber:
		return encodeNumber(v.Num), nil
	case KindText:
		sk := v.Text
		raw := []byte(sk)
		if v.Collation != nil {
			raw = v.Collation.SortKey([]byte(sk))
		}
		return encodeEscaped(tagText, raw), nil
	case KindBlob:
		if v.Terminal {
			out := make([]byte, 1+len(v.Blob))
			out[0] = tagTermBlob
			copy(out[1:], v.Blob)
			return out, nil
		}
		return encodeEscaped(tagBlob, v.Blob), nil
	default:
		return []byte{tagNull}, nil
	}
}

func encodeEscaped(tag byte, data []byte) []byte {
	body := pack7(data)
	out := make([]byte, 0, 2+len(body))
	out = append(out, tag)
	out = append(out, body...)
	out = append(out, 0x00)
	return out
}

func encodeNumber(n num.Num) []byte {
	switch {
	case n.IsNaN():
		return []byte{tagNaN}
	case n.IsInf():
		if n.Sign != 0 {
			return []byte{tagNegInf}
		}
		return []byte{tagPosInf}
	case n.IsZero():
		return []byte{tagZero}
	}

	neg := n.Sign != 0
	digits := digitString(n.Mantissa)
	e1 := len(digits) + int(n.Exp)

	var tag byte
	var body []byte
	switch {
	case e1 >= 1 && e1 <= 11:
		if neg {
			tag = tagNegMediumHi - byte(e1-1)
		} else {
			tag = tagPosMediumLo + byte(e1-1)
		}
		body = packDigitPairs(digits, neg)
	default:
		if neg {
			if e1 > 11 {
				tag = tagNegLarge
			} else {
				tag = tagNegSmall
			}
		} else {
			if e1 > 11 {
				tag = tagPosLarge
			} else {
				tag = tagPosSmall
			}
		}
		var plain []byte
		plain = varint.Put(plain, uint64(int64(e1)+magnitudeBias))
		plain = append(plain, packDigitPairs(digits, false)...)
		if neg {
			complementInto(plain)
		}
		body = plain
	}

	out := make([]byte, 0, 1+len(body))
	out = append(out, tag)
	return append(out, body...)
}

// Decode parses up to n fields from the start of buf (all of buf if n < 0),
// returning the decoded values, their field orders, and the number of bytes
// consumed.
func Decode(buf []byte, n int) ([]Value, []Order, int, error) {
	var values []Value
	var orders []Order
	consumed := 0
	for (n < 0 || len(values) < n) && consumed < len(buf) {
		v, ord, used, err := decodeOneField(buf[consumed:])
		if err != nil {
			return nil, nil, 0, err
		}
		values = append(values, v)
		orders = append(orders, ord)
		consumed += used
	}
	return values, orders, consumed, nil
}

// ShortKey reports how many bytes the first n fields of buf occupy. It runs
// Decode over those n fields, so their values are fully decoded and then
// discarded; fields after the n-th are not read.
func ShortKey(buf []byte, n int) (int, error) {
	_, _, consumed, err := Decode(buf, n)
	return consumed, err
}

func bodyXor(neg, desc bool) bool { return neg != desc }

func decodeOneField(buf []byte) (Value, Order, int, error) {
	if len(buf) == 0 {
		return Value{}, Ascending, 0, ErrCorrupt
	}
	raw := buf[0]
	desc := isDescTag(raw)
	ascTag := raw
	if desc {
		ascTag = ^raw
	}
	ord := Ascending
	if desc {
		ord = Descending
	}

	switch {
	case ascTag == tagNull:
		return Value{Kind: KindNull}, ord, 1, nil
	case ascTag == tagNaN:
		return Value{Kind: KindNumber, Num: num.NaN()}, ord, 1, nil
	case ascTag == tagNegInf:
		return Value{Kind: KindNumber, Num: num.Inf(1)}, ord, 1, nil
	case ascTag == tagPosInf:
		return Value{Kind: KindNumber, Num: num.Inf(0)}, ord, 1, nil
	case ascTag == tagZero:
		return Value{Kind: KindNumber, Num: num.Zero}, ord, 1, nil

	case ascTag >= tagNegMediumLo && ascTag <= tagNegMediumHi:
		e1 := int(tagNegMediumHi-ascTag) + 1
		digits, used, ok := unpackDigitPairs(buf[1:], bodyXor(true, desc))
		if !ok {
			return Value{}, Ascending, 0, ErrCorrupt
		}
		mant, exp := digitsToMantExp(digits, e1)
		return Value{Kind: KindNumber, Num: num.New(1, 0, int16(exp), mant)}, ord, 1 + used, nil

	case ascTag >= tagPosMediumLo && ascTag <= tagPosMediumHi:
		e1 := int(ascTag-tagPosMediumLo) + 1
		digits, used, ok := unpackDigitPairs(buf[1:], bodyXor(false, desc))
		if !ok {
			return Value{}, Ascending, 0, ErrCorrupt
		}
		mant, exp := digitsToMantExp(digits, e1)
		return Value{Kind: KindNumber, Num: num.New(0, 0, int16(exp), mant)}, ord, 1 + used, nil

	case ascTag == tagNegSmall || ascTag == tagNegLarge:
		return decodeUniformMagnitude(buf, ord, desc, true)
	case ascTag == tagPosSmall || ascTag == tagPosLarge:
		return decodeUniformMagnitude(buf, ord, desc, false)

	case ascTag == tagText:
		groups, used, ok := scanPacked(buf[1:], desc)
		if !ok {
			return Value{}, Ascending, 0, ErrCorrupt
		}
		return Value{Kind: KindText, Text: string(unpack7(groups))}, ord, 1 + used, nil

	case ascTag == tagBlob:
		groups, used, ok := scanPacked(buf[1:], desc)
		if !ok {
			return Value{}, Ascending, 0, ErrCorrupt
		}
		return Value{Kind: KindBlob, Blob: unpack7(groups)}, ord, 1 + used, nil

	case ascTag == tagTermBlob:
		rest := buf[1:]
		out := make([]byte, len(rest))
		for i, b := range rest {
			if desc {
				b = ^b
			}
			out[i] = b
		}
		return Value{Kind: KindBlob, Blob: out, Terminal: true}, ord, len(buf), nil

	default:
		return Value{}, Ascending, 0, ErrCorrupt
	}
}

func decodeUniformMagnitude(buf []byte, ord Order, desc, neg bool) (Value, Order, int, error) {
	xor := bodyXor(neg, desc)
	e1v, used1, ok := readVarintXor(buf[1:], xor)
	if !ok {
		return Value{}, Ascending, 0, ErrCorrupt
	}
	digits, used2, ok := unpackDigitPairs(buf[1+used1:], xor)
	if !ok {
		return Value{}, Ascending, 0, ErrCorrupt
	}
	e1 := int(int64(e1v) - magnitudeBias)
	mant, exp := digitsToMantExp(digits, e1)
	var sign uint8
	if neg {
		sign = 1
	}
	return Value{Kind: KindNumber, Num: num.New(sign, 0, int16(exp), mant)}, ord, 1 + used1 + used2, nil
}

// readVarintXor decodes a varint whose bytes are bit-complemented when xor
// is true, without disturbing buf.
func readVarintXor(buf []byte, xor bool) (v uint64, n int, ok bool) {
	if len(buf) == 0 {
		return 0, 0, false
	}
	first := buf[0]
	if xor {
		first = ^first
	}
	total := varint.PeekLen(first)
	if total > len(buf) {
		return 0, 0, false
	}
	tmp := make([]byte, total)
	for i := 0; i < total; i++ {
		b := buf[i]
		if xor {
			b = ^b
		}
		tmp[i] = b
	}
	v, _, ok = varint.Get(tmp)
	return v, total, ok
}
