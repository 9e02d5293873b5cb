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

import "errors"

// ErrCorrupt is returned when a row buffer violates the codec's invariants:
// a header that overruns the row, a truncated varint, or a declared payload
// size that extends past the end of the row.
var ErrCorrupt = errors.New("rowcodec: corrupt row")

// ErrMisuse is returned for caller contract violations, such as decoding an
// in-key column without a KeySource.
var ErrMisuse = errors.New("rowcodec: invalid column or missing key source")
