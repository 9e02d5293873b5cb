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

package leveldbkv

import (
	"github.com/ordkv/ordkv/kv"
	"github.com/ordkv/ordkv/kv/kvconfig"
	"go4.org/jsonconfig"
)

func init() {
	kvconfig.Register("leveldb", func(cfg jsonconfig.Obj) (kv.Backend, error) {
		file := cfg.RequiredString("file")
		strict := cfg.OptionalBool("strict", false)
		sync := cfg.OptionalBool("sync", false)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return Open(Options{File: file, Strict: strict, Sync: sync})
	})
}
