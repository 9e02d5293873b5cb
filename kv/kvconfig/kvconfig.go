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

// Package kvconfig is an engine registry and jsonconfig-driven constructor,
// mirroring the teacher's sorted.RegisterKeyValue/sorted.NewKeyValue.
package kvconfig

import (
	"fmt"

	"github.com/ordkv/ordkv/kv"
	"go4.org/jsonconfig"
)

var ctors = make(map[string]func(jsonconfig.Obj) (kv.Backend, error))

// Register adds a constructor for the engine named typ. It panics on an
// empty name, a nil constructor, or a duplicate registration, exactly as
// the teacher's registry does: these are programming errors caught at
// package-init time, not run-time conditions a caller recovers from.
func Register(typ string, fn func(jsonconfig.Obj) (kv.Backend, error)) {
	if typ == "" || fn == nil {
		panic("kvconfig: zero type or nil constructor")
	}
	if _, dup := ctors[typ]; dup {
		panic("kvconfig: duplicate registration of type " + typ)
	}
	ctors[typ] = fn
}

// Open builds a kv.Backend from a config object shaped like
// {"type": "leveldb", "file": "/path/to/db"}.
func Open(cfg jsonconfig.Obj) (kv.Backend, error) {
	typ := cfg.RequiredString("type")
	ctor, ok := ctors[typ]
	if typ != "" && !ok {
		return nil, fmt.Errorf("kvconfig: unknown backend type %q", typ)
	}
	var b kv.Backend
	var err error
	if ok {
		b, err = ctor(cfg)
		if err != nil {
			return nil, err
		}
	}
	if verr := cfg.Validate(); verr != nil {
		return nil, verr
	}
	return b, nil
}

// OpenStore is a convenience wrapping Open in a *kv.Store.
func OpenStore(cfg jsonconfig.Obj) (*kv.Store, error) {
	b, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	return kv.NewStore(b), nil
}
