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

// ordkvtool is a small command-line client against any registered kv.Backend,
// for poking at a store by hand the way camdbinit pokes at a raw SQL
// database: put/get/delete a single text-keyed entry, or scan a table in
// key order.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ordkv/ordkv/keycodec"
	"github.com/ordkv/ordkv/kv"
	"github.com/ordkv/ordkv/kv/kvconfig"
	"github.com/ordkv/ordkv/varint"

	_ "github.com/ordkv/ordkv/kv/leveldbkv"
	_ "github.com/ordkv/ordkv/kv/memkv"
	_ "github.com/ordkv/ordkv/kv/moderndkv"
	_ "github.com/ordkv/ordkv/kv/sqlkv"

	"go4.org/jsonconfig"
)

var (
	flagConfig = flag.String("config", "", `path to a backend config file, e.g. {"type":"leveldb","file":"/tmp/ordkv.db"}`)
	flagTable  = flag.Uint64("table", uint64(kv.RootTable), "table id to operate against")
)

func main() {
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	if *flagConfig == "" {
		exitf("--config is required")
	}

	cfg, err := jsonconfig.ReadFile(*flagConfig)
	if err != nil {
		exitf("reading config: %v", err)
	}
	store, err := kvconfig.OpenStore(cfg)
	if err != nil {
		exitf("opening backend: %v", err)
	}
	defer store.Close()

	cur, err := store.OpenCursor()
	if err != nil {
		exitf("opening cursor: %v", err)
	}
	tc := kv.NewTableCursor(cur, *flagTable)
	defer tc.Close()

	switch cmd, rest := args[0], args[1:]; cmd {
	case "put":
		runPut(store, tc, rest)
	case "get":
		runGet(tc, rest)
	case "delete":
		runDelete(tc, rest)
	case "scan":
		runScan(tc, rest)
	default:
		exitf("unknown command %q", cmd)
	}
}

func encodeKey(text string) []byte {
	buf, err := keycodec.Encode(nil, []keycodec.Field{keycodec.Asc(keycodec.Text(text))})
	if err != nil {
		exitf("encoding key %q: %v", text, err)
	}
	return buf
}

func runPut(store *kv.Store, tc *kv.TableCursor, args []string) {
	if len(args) != 2 {
		exitf("usage: ordkvtool put <key> <value>")
	}
	key, value := encodeKey(args[0]), []byte(args[1])
	if err := store.Replace(tableKey(*flagTable, key), value); err != nil {
		exitf("put: %v", err)
	}
}

// tableKey prepends the same varint(table) prefix TableCursor strips back
// off on read, since Store.Replace writes raw backend keys below
// TableCursor's prefix handling.
func tableKey(table uint64, key []byte) []byte {
	if table == uint64(kv.RootTable) {
		return key
	}
	prefix := varint.Put(nil, table)
	return append(prefix, key...)
}

func runGet(tc *kv.TableCursor, args []string) {
	if len(args) != 1 {
		exitf("usage: ordkvtool get <key>")
	}
	res, err := tc.Seek(encodeKey(args[0]), kv.EQ)
	if err != nil || res != kv.Ok {
		exitf("get %q: not found", args[0])
	}
	data, err := tc.Data(0, -1)
	if err != nil {
		exitf("get: %v", err)
	}
	fmt.Println(string(data))
}

func runDelete(tc *kv.TableCursor, args []string) {
	if len(args) != 1 {
		exitf("usage: ordkvtool delete <key>")
	}
	res, err := tc.Seek(encodeKey(args[0]), kv.EQ)
	if err != nil || res != kv.Ok {
		exitf("delete %q: not found", args[0])
	}
	if err := tc.Delete(); err != nil {
		exitf("delete: %v", err)
	}
}

func runScan(tc *kv.TableCursor, args []string) {
	if len(args) != 0 {
		exitf("usage: ordkvtool scan")
	}
	res, err := tc.First()
	for ; err == nil && res == kv.Ok; res, err = tc.Next() {
		key, kerr := tc.Key()
		if kerr != nil {
			exitf("scan: %v", kerr)
		}
		values, _, _, derr := keycodec.Decode(key, 1)
		if derr != nil {
			exitf("scan: decoding key: %v", derr)
		}
		data, derr := tc.Data(0, -1)
		if derr != nil {
			exitf("scan: %v", derr)
		}
		fmt.Printf("%s\t%s\n", values[0].Text, data)
	}
}

func exitf(format string, args ...interface{}) {
	if !strings.HasSuffix(format, "\n") {
		format = format + "\n"
	}
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}

func usage() {
	fmt.Fprintf(os.Stderr, strings.TrimSpace(`
ordkvtool --config <file> <command> [args]

Commands:
  put <key> <value>   store value under key
  get <key>            print the value stored under key
  delete <key>         remove key
  scan                  print every key/value pair in table order
`)+"\n")
}
