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

package kv

import "github.com/ordkv/ordkv/keycodec"

// Cursor wraps a backend cursor handle. It tracks rowChanged so a row
// decoder built on top of it (rowcodec.KeySource) never outlives the key it
// last resolved a column against: any movement flips the flag, and KeyField
// always re-reads Key() rather than caching a decode.
type Cursor struct {
	backend Backend
	handle  CursorHandle
	rowChanged bool
	closed     bool
}

func (c *Cursor) Seek(key []byte, dir SeekDir) (Result, error) {
	res, err := c.backend.Seek(c.handle, key, dir)
	c.rowChanged = true
	return res, err
}

func (c *Cursor) First() (Result, error) {
	res, err := c.backend.First(c.handle)
	c.rowChanged = true
	return res, err
}

func (c *Cursor) Last() (Result, error) {
	res, err := c.backend.Last(c.handle)
	c.rowChanged = true
	return res, err
}

func (c *Cursor) Next() (Result, error) {
	res, err := c.backend.Next(c.handle)
	c.rowChanged = true
	return res, err
}

func (c *Cursor) Prev() (Result, error) {
	res, err := c.backend.Prev(c.handle)
	c.rowChanged = true
	return res, err
}

func (c *Cursor) Key() ([]byte, error) {
	return c.backend.Key(c.handle)
}

func (c *Cursor) Data(offset, length int) ([]byte, error) {
	return c.backend.Data(c.handle, offset, length)
}

// Delete removes the entry under the cursor, leaving it in the phantom
// state: Next/Prev remain valid, Key/Data are undefined until a movement.
func (c *Cursor) Delete() error {
	err := c.backend.Delete(c.handle)
	c.rowChanged = true
	return err
}

func (c *Cursor) Reset() error {
	err := c.backend.Reset(c.handle)
	c.rowChanged = true
	return err
}

// RowChanged reports whether the cursor has moved (or deleted) since the
// last ClearRowChanged, invalidating any cached column decode.
func (c *Cursor) RowChanged() bool { return c.rowChanged }

// ClearRowChanged acknowledges the current position; a row decoder calls
// this once it has re-read whatever it needed from Key/Data.
func (c *Cursor) ClearRowChanged() { c.rowChanged = false }

func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.backend.CloseCursor(c.handle)
}

// KeyField implements rowcodec.KeySource: it decodes the cursor's current
// key far enough to resolve field index, for rows whose primary-key columns
// are stored only in-key (row type codes 24+4k) rather than duplicated in
// the row payload.
func (c *Cursor) KeyField(index int) (keycodec.Value, bool) {
	key, err := c.Key()
	if err != nil {
		return keycodec.Value{}, false
	}
	values, _, _, err := keycodec.Decode(key, index+1)
	if err != nil || index >= len(values) {
		return keycodec.Value{}, false
	}
	return values[index], true
}
