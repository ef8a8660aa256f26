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
	"math"
	"testing"

	"github.com/fogfish/it/v2"
	"github.com/google/uuid"
)

func TestCreateMintsRandomSessionByDefault(t *testing.T) {
	a, err := Create()
	it.Then(t).Should(it.Nil(err))
	b, err := Create()
	it.Then(t).Should(it.Nil(err))

	it.Then(t).ShouldNot(it.Equal(a.LocalSessionID(), b.LocalSessionID()))
}

func TestWithUUIDSourceOverridesGeneration(t *testing.T) {
	fixed := mustStable(t, "40000000-0000-4000-8000-000000000000")
	c, err := Create(WithUUIDSource(func() (uuid.UUID, error) {
		return fixed.toUUID(), nil
	}))
	it.Then(t).Should(it.Nil(err))

	it.Then(t).Should(it.Equal(c.LocalSessionID(), fixed))
}

func TestWithUUIDSourceIgnoredWhenSessionIDGiven(t *testing.T) {
	pinned := mustStable(t, "10000000-0000-4000-8000-000000000000")
	calls := 0
	c, err := Create(
		WithSessionID(pinned),
		WithUUIDSource(func() (uuid.UUID, error) {
			calls++
			return uuid.New(), nil
		}),
	)
	it.Then(t).Should(it.Nil(err))

	it.Then(t).Should(
		it.Equal(c.LocalSessionID(), pinned),
		it.Equal(calls, 0),
	)
}

func TestGenerateCompressedIDIsMonotonic(t *testing.T) {
	c := newTestCompressor(t, "10000000-0000-4000-8000-000000000000")

	a, err := c.GenerateCompressedID()
	it.Then(t).Should(it.Nil(err))
	b, err := c.GenerateCompressedID()
	it.Then(t).Should(it.Nil(err))

	it.Then(t).Should(it.Equal(a.GenCount()+1, b.GenCount()))
}

func TestTakeNextCreationRangeDrainsOnce(t *testing.T) {
	c := newTestCompressor(t, "10000000-0000-4000-8000-000000000000")

	_, err := c.GenerateCompressedID()
	it.Then(t).Should(it.Nil(err))
	_, err = c.GenerateCompressedID()
	it.Then(t).Should(it.Nil(err))

	r := c.TakeNextCreationRange()
	it.Then(t).Should(
		it.Equal(r.Ids != nil, true),
		it.Equal(r.Ids.First, GenCount(1)),
		it.Equal(r.Ids.Last, GenCount(2)),
	)

	empty := c.TakeNextCreationRange()
	it.Then(t).Should(it.Equal(empty.Ids == nil, true))
}

func TestDisposedCompressorRejectsOperations(t *testing.T) {
	c := newTestCompressor(t, "10000000-0000-4000-8000-000000000000")
	c.Dispose()

	_, err := c.GenerateCompressedID()
	it.Then(t).Should(it.Equal(err.(*Error).Kind, Disposed))
}

func TestSetClusterCapacityRejectsOutOfRange(t *testing.T) {
	c := newTestCompressor(t, "10000000-0000-4000-8000-000000000000")

	err := c.SetClusterCapacity(0)
	it.Then(t).Should(it.Equal(err.(*Error).Kind, InvalidArgument))

	err = c.SetClusterCapacity(1 << 21)
	it.Then(t).Should(it.Equal(err.(*Error).Kind, InvalidArgument))

	err = c.SetClusterCapacity(1 << 20)
	it.Then(t).Should(it.Nil(err))
}

func TestCreateRejectsOutOfRangeClusterCapacity(t *testing.T) {
	_, err := Create(WithClusterCapacity(1 << 21))
	it.Then(t).Should(it.Equal(err.(*Error).Kind, InvalidArgument))
}

func TestGenerateCompressedIDRejectsGenCountOverflow(t *testing.T) {
	c := newTestCompressor(t, "10000000-0000-4000-8000-000000000000")
	c.generatedIDCount = GenCount(math.MaxInt64)

	_, err := c.GenerateCompressedID()
	it.Then(t).Should(
		it.Equal(err.(*Error).Kind, OverflowError),
		it.Equal(c.generatedIDCount, GenCount(math.MaxInt64)),
	)
}

// TestConvergenceOverInterleavedFinalizations reproduces spec.md §8
// invariant 7 directly: two independently-created replicas that apply the
// same totally-ordered sequence of FinalizationRanges, interleaved across
// three sessions over two rounds, end up with structurally identical
// cluster tables — not merely agreeing on one decompressed id.
func TestConvergenceOverInterleavedFinalizations(t *testing.T) {
	alice := newTestCompressor(t, "10000000-0000-4000-8000-000000000000")
	bob := newTestCompressor(t, "20000000-0000-4000-8000-000000000000")
	carol := mustStable(t, "30000000-0000-4000-8000-000000000000")

	for i := 0; i < 2; i++ {
		_, err := alice.GenerateCompressedID()
		it.Then(t).Should(it.Nil(err))
	}
	for i := 0; i < 3; i++ {
		_, err := bob.GenerateCompressedID()
		it.Then(t).Should(it.Nil(err))
	}

	rangeA := alice.TakeNextCreationRange()
	rangeB := bob.TakeNextCreationRange()

	finalA := FinalizationRange{Session: rangeA.SessionID, FirstGenCount: rangeA.Ids.First, Count: uint64(rangeA.Ids.Last-rangeA.Ids.First) + 1}
	finalB := FinalizationRange{Session: rangeB.SessionID, FirstGenCount: rangeB.Ids.First, Count: uint64(rangeB.Ids.Last-rangeB.Ids.First) + 1}
	finalC := FinalizationRange{Session: carol, FirstGenCount: 1, Count: 2}

	// Total order: A, then C (a session neither replica created locally),
	// then B.
	for _, replica := range []*Compressor{alice, bob} {
		it.Then(t).Should(
			it.Nil(replica.FinalizeCreationRange(finalA)),
			it.Nil(replica.FinalizeCreationRange(finalC)),
			it.Nil(replica.FinalizeCreationRange(finalB)),
		)
	}

	it.Then(t).Should(it.Equal(alice.equalsForTest(bob), true))

	// A second round of minting and finalizing, applied in the opposite
	// order (B before A), still must converge.
	_, err := alice.GenerateCompressedID()
	it.Then(t).Should(it.Nil(err))
	for i := 0; i < 2; i++ {
		_, err := bob.GenerateCompressedID()
		it.Then(t).Should(it.Nil(err))
	}

	rangeA2 := alice.TakeNextCreationRange()
	rangeB2 := bob.TakeNextCreationRange()
	finalA2 := FinalizationRange{Session: rangeA2.SessionID, FirstGenCount: rangeA2.Ids.First, Count: uint64(rangeA2.Ids.Last-rangeA2.Ids.First) + 1}
	finalB2 := FinalizationRange{Session: rangeB2.SessionID, FirstGenCount: rangeB2.Ids.First, Count: uint64(rangeB2.Ids.Last-rangeB2.Ids.First) + 1}

	for _, replica := range []*Compressor{alice, bob} {
		it.Then(t).Should(
			it.Nil(replica.FinalizeCreationRange(finalB2)),
			it.Nil(replica.FinalizeCreationRange(finalA2)),
		)
	}

	it.Then(t).Should(it.Equal(alice.equalsForTest(bob), true))
}

func TestConvergenceAcrossTwoReplicas(t *testing.T) {
	alice := newTestCompressor(t, "10000000-0000-4000-8000-000000000000")
	bob := newTestCompressor(t, "20000000-0000-4000-8000-000000000000")

	id, err := alice.GenerateCompressedID()
	it.Then(t).Should(it.Nil(err))

	r := alice.TakeNextCreationRange()
	final := FinalizationRange{
		Session:       r.SessionID,
		FirstGenCount: r.Ids.First,
		Count:         uint64(r.Ids.Last-r.Ids.First) + 1,
	}

	it.Then(t).Should(it.Nil(alice.FinalizeCreationRange(final)))
	it.Then(t).Should(it.Nil(bob.FinalizeCreationRange(final)))

	stableFromAlice, err := alice.Decompress(id)
	it.Then(t).Should(it.Nil(err))

	opID, err := alice.NormalizeToOpSpace(id)
	it.Then(t).Should(it.Nil(err))

	sessionIDOnBob, err := bob.NormalizeToSessionSpace(opID, alice.LocalSessionID())
	it.Then(t).Should(it.Nil(err))

	stableFromBob, err := bob.Decompress(sessionIDOnBob)
	it.Then(t).Should(it.Nil(err))

	it.Then(t).Should(it.Equal(stableFromAlice.Equal(stableFromBob), true))
}
