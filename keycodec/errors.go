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

import "errors"

// ErrCorrupt is returned when a buffer does not hold a well-formed encoding:
// a truncated varint, an unterminated text/blob run, or an unrecognized tag.
var ErrCorrupt = errors.New("keycodec: corrupt key encoding")

// ErrMisuse is returned for caller contract violations, such as placing a
// terminal blob anywhere but the last field of a key.
var ErrMisuse = errors.New("keycodec: terminal blob must be the last field")
