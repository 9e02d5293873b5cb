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

import "errors"

// Result is the outcome kind of a store or cursor operation, mirroring the
// result-code table every codec and cursor function returns.
type Result int

const (
	Ok Result = iota
	NotFound
	Inexact
	Corrupt
	NoMem
	Busy
	IoErr
	Misuse
	Auth
	Constraint
	Abort
)

func (r Result) String() string {
	switch r {
	case Ok:
		return "ok"
	case NotFound:
		return "not found"
	case Inexact:
		return "inexact"
	case Corrupt:
		return "corrupt"
	case NoMem:
		return "no memory"
	case Busy:
		return "busy"
	case IoErr:
		return "i/o error"
	case Misuse:
		return "misuse"
	case Auth:
		return "auth"
	case Constraint:
		return "constraint"
	case Abort:
		return "abort"
	default:
		return "unknown result"
	}
}

// Error wraps a Result with an operation name and an optional underlying
// cause, so callers can errors.Is/errors.As down to the result kind without
// losing the wrapped error (e.g. an *os.PathError from a backend's VFS).
type Error struct {
	Result Result
	Op     string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Op != "" {
			return "kv: " + e.Op + ": " + e.Result.String() + ": " + e.Err.Error()
		}
		return "kv: " + e.Result.String() + ": " + e.Err.Error()
	}
	if e.Op != "" {
		return "kv: " + e.Op + ": " + e.Result.String()
	}
	return "kv: " + e.Result.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match two *Error values by Result kind alone, the way a
// caller tests "was this a NotFound" without caring which op produced it.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Result == t.Result
}

func newError(result Result, op string, err error) *Error {
	return &Error{Result: result, Op: op, Err: err}
}

// Sentinel errors for the common result kinds, so callers can write
// errors.Is(err, kv.ErrNotFound) without constructing an *Error themselves.
var (
	ErrNotFound   = &Error{Result: NotFound, Err: errors.New("key not found")}
	ErrCorrupt    = &Error{Result: Corrupt, Err: errors.New("on-disk bytes violate codec invariants")}
	ErrMisuse     = &Error{Result: Misuse, Err: errors.New("api precondition violated")}
	ErrBusy       = &Error{Result: Busy, Err: errors.New("engine temporarily unable to proceed")}
	ErrIoErr      = &Error{Result: IoErr, Err: errors.New("backend i/o failure")}
	ErrNoMem      = &Error{Result: NoMem, Err: errors.New("allocation failed")}
	ErrConstraint = &Error{Result: Constraint, Err: errors.New("constraint violated")}
	ErrAbort      = &Error{Result: Abort, Err: errors.New("operation aborted")}
)
