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

import "math"

// maxFinal is the largest FinalID a SessionSpaceID/OpSpaceID (signed int64,
// non-negative for a FinalID) can encode.
const maxFinal = FinalID(math.MaxInt64)

// FinalizationRange is a totally-ordered announcement from the broadcast
// service: session minted count ids starting at firstGenCount.
type FinalizationRange struct {
	Session       SessionID
	FirstGenCount GenCount
	Count         uint64
}

// finalizeRange applies one FinalizationRange to the cluster table,
// following spec.md §4.5's literal two-way rule, extended with the
// collision-detection behavior recovered from original_source/
// (see SPEC_FULL.md §4).
func finalizeRange(t *clusterTable, ss *sessions, policy uint32, r FinalizationRange) error {
	const op = "FinalizeCreationRange"

	if r.Count == 0 {
		return newErr(ProtocolError, op, "finalization range must cover at least one id")
	}
	if r.Count > math.MaxUint32 {
		return newErr(InvalidArgument, op, "finalization range too large")
	}
	count := uint32(r.Count)

	session := ss.intern(r.Session)
	sessionBase := ss.base(session)

	rangeBaseStable, err := sessionBase.Add(uint64(r.FirstGenCount - 1))
	if err != nil {
		return wrapErr(OverflowError, op, "range base id exceeds UUID space", err)
	}
	if collides, cerr := detectCollision(t, ss, session, rangeBaseStable, r.Count, policy); cerr != nil {
		return cerr
	} else if collides {
		return newErr(ProtocolError, op, "finalization range collides with another session's cluster")
	}

	active := t.tailCluster(session)

	if active == nil {
		if r.FirstGenCount != 1 {
			return newErr(ProtocolError, op, "first finalization for a session must start at GenCount 1")
		}
		capacity := maxU32(policy, count)
		if maxFinal-t.nextFinal < FinalID(capacity) {
			return newErr(OverflowError, op, "final id space exhausted")
		}
		t.appendNewCluster(session, r.FirstGenCount, capacity, count, rangeBaseStable)
		return nil
	}

	if active.FirstGenCount+GenCount(active.Count) != r.FirstGenCount {
		return newErr(ProtocolError, op, "finalization range is not contiguous with the session's prior range")
	}

	// Extend in place only if the range fits the existing reservation AND
	// no other cluster has been allocated after it since (spec.md §4.5 step
	// 3: active.baseFinal+active.capacity == nextFinal). Any other case —
	// insufficient slack, or slack present but stale — allocates a fresh
	// cluster and abandons the remaining slack, preserving dense packing of
	// final space (spec.md §4.5 step 4, illustrated by scenario S4).
	fits := active.Capacity-active.Count >= count
	isGlobalTail := active.BaseFinal+FinalID(active.Capacity) == t.nextFinal
	if fits && isGlobalTail {
		active.Count += count
		return nil
	}

	capacity := maxU32(policy, count)
	if maxFinal-t.nextFinal < FinalID(capacity) {
		return newErr(OverflowError, op, "final id space exhausted")
	}
	t.appendNewCluster(session, r.FirstGenCount, capacity, count, rangeBaseStable)
	return nil
}

// detectCollision checks whether the implied StableId span of a
// finalization range overlaps another session's reserved cluster span.
// Grounded on original_source/uuid_space.rs's range_collides: only the
// cluster whose base stable id is the predecessor of the range's far end
// need be consulted, since clusters never overlap each other.
func detectCollision(t *clusterTable, ss *sessions, originator SessionIndex, rangeBase StableId, count uint64, policy uint32) (bool, error) {
	rangeMax, err := rangeBase.Add(count + uint64(policy))
	if err != nil {
		return false, wrapErr(OverflowError, "FinalizeCreationRange", "collision probe exceeds UUID space", err)
	}

	base, cluster, ok := t.uuids.predecessorAtMost(rangeMax)
	if !ok {
		return false, nil
	}
	if cluster.Session == originator {
		return false, nil
	}

	clusterMax, err := base.Add(uint64(cluster.Capacity))
	if err != nil {
		return false, wrapErr(OverflowError, "FinalizeCreationRange", "cluster bound exceeds UUID space", err)
	}
	// Collision iff rangeBase <= clusterMax.
	return !clusterMax.Less(rangeBase), nil
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}
