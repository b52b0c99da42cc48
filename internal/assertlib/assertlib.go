// Copyright (c) 2024 The Falcon Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package assertlib collects the fatal-invariant and diagnostic reporting
// helpers shared by the allocator packages. Every fatal condition in this
// module goes through Assert or Fatalf so that it panics with the offending
// position, range, or register spelled out, rather than a bare message.
package assertlib

import (
	"fmt"
	"io"
	"os"
)

// Assert panics with a formatted message when cond is false. It is the only
// way this module reports a fatal invariant violation: there is no retry, no
// fallback path, and no partial-success mode for the conditions it guards.
func Assert(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(fmt.Sprintf(format, args...))
	}
}

// Fatalf always panics with a formatted message. Used where the code has
// already determined failure rather than merely checking a condition.
func Fatalf(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}

// Unimplemented marks a path the source leaves unimplemented on purpose.
func Unimplemented(what string) {
	panic("not implemented: " + what)
}

// Trace, when non-nil, receives diagnostic ([WARN]-prefixed) output instead
// of the process's stdout/stderr. Nil means diagnostics are discarded, not
// that they default to a writer — callers that want falcon's old behavior of
// printing warnings pass os.Stderr explicitly.
type Trace struct {
	W io.Writer
}

// NewStderrTrace returns a Trace that writes to os.Stderr, matching falcon's
// and the original Rust prototype's unconditional println!/fmt.Printf.
func NewStderrTrace() *Trace {
	return &Trace{W: os.Stderr}
}

// Warnf writes a "[WARN] "-prefixed diagnostic line. A nil Trace discards it.
func (t *Trace) Warnf(format string, args ...interface{}) {
	if t == nil || t.W == nil {
		return
	}
	fmt.Fprintf(t.W, "[WARN] "+format+"\n", args...)
}
