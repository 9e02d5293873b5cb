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

// Ascending tag bytes, per the key-codec tag table. Descending fields store
// the bitwise complement of every byte an ascending field would produce,
// tag included, so the descending tag set is simply 0xFF^tag.
const (
	tagNull = 0x05
	tagNaN  = 0x06
	tagNegInf = 0x07

	tagNegLarge   = 0x08
	tagNegMediumLo = 0x09 // e1 == 11 (biggest negative magnitude in the medium band)
	tagNegMediumHi = 0x13 // e1 == 1
	tagNegSmall   = 0x14

	tagZero = 0x15

	tagPosSmall    = 0x16
	tagPosMediumLo = 0x17 // e1 == 1
	tagPosMediumHi = 0x21 // e1 == 11
	tagPosLarge    = 0x22

	tagPosInf = 0x23

	tagText     = 0x24
	tagBlob     = 0x25
	tagTermBlob = 0x26
)

// descLo/descHi bound the range a descending-field tag falls into: the
// bitwise complement of [tagNull, tagTermBlob].
const (
	descLo = 0xFF - tagTermBlob // 0xD9
	descHi = 0xFF - tagNull     // 0xFA
)

// magnitudeBias shifts e1 (the count of decimal digits before the point,
// which may be zero or negative for a fraction less than 1) into the
// non-negative range the small/large tiers store as a plain varint.
const magnitudeBias = 1 << 20

func isDescTag(b byte) bool { return b >= descLo && b <= descHi }
