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

import (
	"encoding/json"
	"math/big"

	"github.com/google/uuid"
)

// StableId is a v4/variant-1 UUID treated as a 122-bit unsigned integer.
// The struct holds the raw 128 bits as two big-endian halves — hi is bytes
// 0-7, lo is bytes 8-15 — exactly as guid.K holds its 64/96-bit k-order
// numbers. The version nibble (bits 48-51 of the UUID, i.e. hi's bits
// 12-15) and the variant bits (bits 64-65, i.e. lo's bits 62-63) are fixed
// and never participate in arithmetic.
type StableId struct{ hi, lo uint64 }

const (
	versionMask = uint64(0xf) << 12 // hi bits 12-15
	versionBits = uint64(0x4) << 12 // version 4

	variantMask = uint64(0x3) << 62 // lo bits 62-63
	variantBits = uint64(0x2) << 62 // variant 0b10
)

// NewStableId generates a fresh random v4/variant-1 StableId using
// crypto-grade randomness from github.com/google/uuid. Per spec.md's
// non-goals, the randomness itself is not a correctness property this
// package relies on — only the fixed version/variant bits are.
func NewStableId() (StableId, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return StableId{}, wrapErr(InvalidArgument, "NewStableId", "failed to generate UUID", err)
	}
	return stableIdFromUUID(u), nil
}

// newStableIdFrom mints a StableId from an explicit UUID source instead of
// crypto/rand, letting a caller pin session-id generation deterministically
// in tests (see WithUUIDSource in compressor.go).
func newStableIdFrom(src func() (uuid.UUID, error)) (StableId, error) {
	u, err := src()
	if err != nil {
		return StableId{}, wrapErr(InvalidArgument, "NewStableId", "uuid source failed", err)
	}
	return stableIdFromUUID(u), nil
}

func stableIdFromUUID(u uuid.UUID) StableId {
	return StableId{
		hi: beUint64(u[0:8]),
		lo: beUint64(u[8:16]),
	}
}

func (id StableId) toUUID() uuid.UUID {
	var u uuid.UUID
	putBeUint64(u[0:8], id.hi)
	putBeUint64(u[8:16], id.lo)
	return u
}

func beUint64(b []byte) uint64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}

func putBeUint64(b []byte, v uint64) {
	for i := len(b) - 1; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}

// ParseStableId decodes the canonical lowercase dashed form.
func ParseStableId(s string) (StableId, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return StableId{}, wrapErr(InvalidArgument, "ParseStableId", "malformed UUID", err)
	}
	return stableIdFromUUID(u), nil
}

// String renders the canonical lowercase dashed form.
func (id StableId) String() string {
	return id.toUUID().String()
}

func (id StableId) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

func (id *StableId) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseStableId(s)
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// Equal reports whether two StableIds hold the same bit pattern.
func (id StableId) Equal(other StableId) bool {
	return id.hi == other.hi && id.lo == other.lo
}

// Less orders StableIds by their raw 128-bit value, which is also their
// order as 122-bit packed values (the fixed bits sit at the same position
// in every value of this type, so comparing raw bits preserves the packed
// order).
func (id StableId) Less(other StableId) bool {
	if id.hi != other.hi {
		return id.hi < other.hi
	}
	return id.lo < other.lo
}

// pack compacts the 122 free bits into a 60-bit/62-bit pair, dropping the
// fixed version/variant bits. This mirrors guid.split/guid.fold, which
// likewise treat a sparse bit layout as a dense number for arithmetic.
func (id StableId) pack() (hi60, lo62 uint64) {
	lo62 = id.lo &^ variantMask
	lo12 := id.hi & 0x0fff
	hi48 := id.hi >> 16
	hi60 = lo12 | (hi48 << 12)
	return
}

func unpack(hi60, lo62 uint64) StableId {
	lo12 := hi60 & 0x0fff
	hi48 := hi60 >> 12
	return StableId{
		hi: lo12 | (hi48 << 16) | versionBits,
		lo: lo62 | variantBits,
	}
}

// Add returns id shifted forward by k in the 122-bit packed space,
// preserving the version/variant bit pattern. It fails with OverflowError
// if the result would not fit in 122 bits.
func (id StableId) Add(k uint64) (StableId, error) {
	hi60, lo62 := id.pack()

	const mask62 = (uint64(1) << 62) - 1
	sum := lo62 + (k & mask62) // < 2^63, cannot wrap
	carry := k>>62 + sum>>62
	lo62 = sum & mask62

	hi60 += carry
	if hi60 >= (uint64(1) << 60) {
		return StableId{}, newErr(OverflowError, "StableId.Add", "result exceeds 122-bit UUID space")
	}

	return unpack(hi60, lo62), nil
}

// Sub returns id - other as a signed difference over the 122-bit packed
// space. A plain int64/uint64 cannot hold every representable difference,
// so the result is a *big.Int — the stdlib's answer to "arithmetic wider
// than 64 bits", used here because no third-party big-integer library
// appears anywhere in the retrieved example pack (see DESIGN.md).
func (id StableId) Sub(other StableId) *big.Int {
	aHi, aLo := id.pack()
	bHi, bLo := other.pack()

	a := new(big.Int).Lsh(big.NewInt(0).SetUint64(aHi), 62)
	a.Or(a, new(big.Int).SetUint64(aLo))

	b := new(big.Int).Lsh(big.NewInt(0).SetUint64(bHi), 62)
	b.Or(b, new(big.Int).SetUint64(bLo))

	return a.Sub(a, b)
}
