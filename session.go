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

import "sort"

// SessionID designates a session. It is a StableId and is globally unique
// by assumption (spec.md §3); the session's own value doubles as its
// sessionBase, since the k-th id it mints is sessionBase + (k-1).
type SessionID = StableId

// sessions interns SessionIDs to small SessionIndex values (C2). It is
// shared, mutable state of one Compressor; it is not safe for concurrent
// use, matching the single-threaded model of spec.md §5.
type sessions struct {
	byIndex []SessionID
	byID    map[SessionID]SessionIndex

	// sortedByBase supports recompress's "find the session owning this
	// StableId" search (spec.md §4.6): a session's range is
	// [sessionBase, sessionBase+maxGenCountEverMinted). Kept sorted by
	// base so the owner can be found by binary search, exactly as
	// uuid_space.rs keeps a BTreeMap<StableId, ClusterRef> for the
	// equivalent acceleration structure.
	sortedByBase []SessionIndex
}

func newSessions() *sessions {
	return &sessions{
		byID: make(map[SessionID]SessionIndex),
	}
}

// intern returns the existing index for id, or assigns and returns the
// next free index. Never fails; duplicate ids collapse to the same index.
func (s *sessions) intern(id SessionID) SessionIndex {
	if idx, ok := s.byID[id]; ok {
		return idx
	}

	idx := SessionIndex(len(s.byIndex))
	s.byIndex = append(s.byIndex, id)
	s.byID[id] = idx

	pos := sort.Search(len(s.sortedByBase), func(i int) bool {
		return !s.byIndex[s.sortedByBase[i]].Less(id)
	})
	s.sortedByBase = append(s.sortedByBase, 0)
	copy(s.sortedByBase[pos+1:], s.sortedByBase[pos:])
	s.sortedByBase[pos] = idx

	return idx
}

// base returns the sessionBase StableId for idx.
func (s *sessions) base(idx SessionIndex) SessionID {
	return s.byIndex[idx]
}

// indexOf returns the SessionIndex for id, if interned.
func (s *sessions) indexOf(id SessionID) (SessionIndex, bool) {
	idx, ok := s.byID[id]
	return idx, ok
}

// len reports how many sessions have been interned.
func (s *sessions) len() int { return len(s.byIndex) }

// predecessor returns the session whose base is the greatest base ≤
// stable, if any — the sole candidate owner for recompress (spec.md
// §4.6). It is only a candidate: the caller must still check stable is
// within that session's allocated span.
func (s *sessions) predecessor(stable StableId) (SessionIndex, bool) {
	n := len(s.sortedByBase)
	pos := sort.Search(n, func(i int) bool {
		return stable.Less(s.byIndex[s.sortedByBase[i]])
	})
	if pos == 0 {
		return 0, false
	}
	return s.sortedByBase[pos-1], true
}
