/*

  Copyright 2012 Dmitry Kolesnikov, All Rights Reserved

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

package idcompressor

import "fmt"

// Kind classifies the failure modes of the compressor. It is never
// exchanged across the API boundary as a bare integer; callers compare
// against the Kind constants via Error.Kind or errors.Is against the
// sentinel values below.
type Kind int

const (
	// InvalidArgument marks an out-of-range capacity, a malformed UUID, or an
	// oversized finalization range.
	InvalidArgument Kind = iota + 1
	// ProtocolError marks a zero-count or non-contiguous finalization range,
	// a cluster collision, or a session collision on resume.
	ProtocolError
	// UnknownID marks an id or stable UUID absent from the cluster table.
	UnknownID
	// UnfinalizedForeignID marks a foreign LocalId whose owner has not yet
	// finalized it.
	UnfinalizedForeignID
	// VersionMismatch marks an unknown serialization version tag.
	VersionMismatch
	// OverflowError marks a GenCount, FinalId, or UUID arithmetic overflow.
	OverflowError
	// Disposed marks an operation attempted after Dispose.
	Disposed
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "InvalidArgument"
	case ProtocolError:
		return "ProtocolError"
	case UnknownID:
		return "UnknownID"
	case UnfinalizedForeignID:
		return "UnfinalizedForeignID"
	case VersionMismatch:
		return "VersionMismatch"
	case OverflowError:
		return "OverflowError"
	case Disposed:
		return "Disposed"
	default:
		return "Unknown"
	}
}

// Error is the single error type raised by this package. Op names the
// failing operation (e.g. "FinalizeCreationRange"); Err, when present, wraps the
// underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("idcompressor: %s: %s: %s: %v", e.Op, e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("idcompressor: %s: %s: %s", e.Op, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind, letting callers
// write errors.Is(err, idcompressor.ErrUnknownID) without a type switch.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newErr(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

func wrapErr(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// Sentinel values usable with errors.Is(err, idcompressor.ErrXxx); only
// the Kind field is compared.
var (
	ErrInvalidArgument    = &Error{Kind: InvalidArgument}
	ErrProtocolError      = &Error{Kind: ProtocolError}
	ErrUnknownID          = &Error{Kind: UnknownID}
	ErrUnfinalizedForeign = &Error{Kind: UnfinalizedForeignID}
	ErrVersionMismatch    = &Error{Kind: VersionMismatch}
	ErrOverflow           = &Error{Kind: OverflowError}
	ErrDisposed           = &Error{Kind: Disposed}
)
