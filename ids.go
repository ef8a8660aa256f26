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

// GenCount is the 1-based, per-session, monotonically increasing index of
// a minted id. The k-th id minted by a session equals sessionBase + (k-1).
type GenCount uint64

// FinalID is a document-wide, non-negative integer assigned by
// finalization. Final IDs are densely packed within a cluster.
type FinalID uint64

// SessionIndex interns a SessionID to a small non-negative integer, local
// to one compressor instance.
type SessionIndex uint32

// noSessionIndex marks "not yet interned".
const noSessionIndex = SessionIndex(^uint32(0))

// SessionSpaceID is a caller-facing id: non-negative means it is already a
// FinalID, negative means it is a LocalId (session-space form) whose
// magnitude is its GenCount.
type SessionSpaceID int64

// OpSpaceID is the wire-facing form of a SessionSpaceID: same encoding,
// different space (see spec.md Glossary: "op space").
type OpSpaceID int64

// IsLocal reports whether the id is in LocalId (not-yet-final) form.
func (id SessionSpaceID) IsLocal() bool { return id < 0 }

// IsLocal reports whether the id is in LocalId (not-yet-final) form.
func (id OpSpaceID) IsLocal() bool { return id < 0 }

// GenCount recovers the GenCount encoded by a negative (LocalId) value.
// Only meaningful when IsLocal() is true.
func (id SessionSpaceID) GenCount() GenCount { return GenCount(-id) }

// GenCount recovers the GenCount encoded by a negative (LocalId) value.
// Only meaningful when IsLocal() is true.
func (id OpSpaceID) GenCount() GenCount { return GenCount(-id) }

// FinalID recovers the FinalId encoded by a non-negative value. Only
// meaningful when IsLocal() is false.
func (id SessionSpaceID) FinalID() FinalID { return FinalID(id) }

// FinalID recovers the FinalId encoded by a non-negative value. Only
// meaningful when IsLocal() is false.
func (id OpSpaceID) FinalID() FinalID { return FinalID(id) }

// localIDFromGenCount builds the negative wire encoding of a GenCount.
func localIDFromGenCount(g GenCount) int64 { return -int64(g) }

func sessionSpaceFromFinal(f FinalID) SessionSpaceID { return SessionSpaceID(f) }
func sessionSpaceFromGenCount(g GenCount) SessionSpaceID {
	return SessionSpaceID(localIDFromGenCount(g))
}

func opSpaceFromFinal(f FinalID) OpSpaceID { return OpSpaceID(f) }
func opSpaceFromGenCount(g GenCount) OpSpaceID {
	return OpSpaceID(localIDFromGenCount(g))
}
