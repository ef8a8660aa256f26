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

// Cluster binds a contiguous run of one session's GenCounts to a
// contiguous run of document-wide FinalIds (spec.md §3).
type Cluster struct {
	Session       SessionIndex
	FirstGenCount GenCount
	Capacity      uint32
	Count         uint32
	BaseFinal     FinalID
}

// covers reports whether g falls within the finalized (not merely
// reserved) span of the cluster.
func (c *Cluster) covers(g GenCount) bool {
	return g >= c.FirstGenCount && g < c.FirstGenCount+GenCount(c.Count)
}

// coversFinal reports whether f falls within the finalized span.
func (c *Cluster) coversFinal(f FinalID) bool {
	return f >= c.BaseFinal && f < c.BaseFinal+FinalID(c.Count)
}

// finalFor returns the FinalId aligned with GenCount g, assuming covers(g).
func (c *Cluster) finalFor(g GenCount) FinalID {
	return c.BaseFinal + FinalID(g-c.FirstGenCount)
}

// genCountFor returns the GenCount aligned with FinalId f, assuming
// coversFinal(f).
func (c *Cluster) genCountFor(f FinalID) GenCount {
	return c.FirstGenCount + GenCount(f-c.BaseFinal)
}

// clusterTable is the dual-indexed collection of clusters described in
// spec.md §4.4: a vector sorted by BaseFinal for decompress/normalize
// lookups, and a per-session ordered list for generate/finalize lookups.
// It also carries a third, stable-id-keyed index (uuids) used only by the
// finalizer's collision check (SPEC_FULL.md §4, "cluster collision
// detection" — a feature recovered from original_source/uuid_space.rs).
type clusterTable struct {
	byFinal   []*Cluster
	bySession [][]*Cluster // indexed by SessionIndex
	nextFinal FinalID
	uuids     uuidSpace
}

func newClusterTable() *clusterTable {
	return &clusterTable{}
}

// uuidSpace is a sorted acceleration structure over cluster base stable
// ids, mirroring original_source/uuid_space.rs's UuidSpace (there backed
// by a BTreeMap; here, by parallel sorted slices since the pack has no
// ordered-map library and a slice plus binary search is the idiomatic
// stdlib equivalent for this size of table).
type uuidSpace struct {
	bases    []StableId
	clusters []*Cluster
}

func (u *uuidSpace) insert(base StableId, c *Cluster) {
	pos := sort.Search(len(u.bases), func(i int) bool { return !u.bases[i].Less(base) })
	u.bases = append(u.bases, StableId{})
	copy(u.bases[pos+1:], u.bases[pos:])
	u.bases[pos] = base

	u.clusters = append(u.clusters, nil)
	copy(u.clusters[pos+1:], u.clusters[pos:])
	u.clusters[pos] = c
}

// predecessorAtMost returns the cluster with the greatest base ≤ query, if
// any.
func (u *uuidSpace) predecessorAtMost(query StableId) (StableId, *Cluster, bool) {
	n := len(u.bases)
	pos := sort.Search(n, func(i int) bool { return query.Less(u.bases[i]) })
	if pos == 0 {
		return StableId{}, nil, false
	}
	return u.bases[pos-1], u.clusters[pos-1], true
}

// tailCluster returns the last (most recently allocated) cluster for a
// session, if any — the only cluster the finalizer (C5) consults when
// deciding whether a range extends the session's active cluster.
func (t *clusterTable) tailCluster(session SessionIndex) *Cluster {
	if int(session) >= len(t.bySession) {
		return nil
	}
	list := t.bySession[session]
	if len(list) == 0 {
		return nil
	}
	return list[len(list)-1]
}

// globalTail returns the cluster with the greatest BaseFinal across all
// sessions, if any. The finalizer does not call it: it decides whether a
// session's tail cluster may still be extended in place by comparing that
// cluster's reserved end against nextFinal.
func (t *clusterTable) globalTail() *Cluster {
	if len(t.byFinal) == 0 {
		return nil
	}
	return t.byFinal[len(t.byFinal)-1]
}

// ensureSession grows the per-session index so session is addressable.
func (t *clusterTable) ensureSession(session SessionIndex) {
	for int(session) >= len(t.bySession) {
		t.bySession = append(t.bySession, nil)
	}
}

// appendNewCluster allocates and appends a brand-new cluster, advancing
// nextFinal by its capacity. baseStable is the cluster's first covered
// StableId (sessionBase + firstGenCount - 1), recorded in the uuid-space
// index for the finalizer's collision check.
func (t *clusterTable) appendNewCluster(session SessionIndex, firstGenCount GenCount, capacity, count uint32, baseStable StableId) *Cluster {
	t.ensureSession(session)

	c := &Cluster{
		Session:       session,
		FirstGenCount: firstGenCount,
		Capacity:      capacity,
		Count:         count,
		BaseFinal:     t.nextFinal,
	}
	t.byFinal = append(t.byFinal, c)
	t.bySession[session] = append(t.bySession[session], c)
	t.nextFinal += FinalID(capacity)
	t.uuids.insert(baseStable, c)
	return c
}

// findByFinal returns the rightmost cluster with BaseFinal ≤ f, confirming
// f also falls within its finalized (not merely reserved) span.
func (t *clusterTable) findByFinal(f FinalID) (*Cluster, bool) {
	n := len(t.byFinal)
	pos := sort.Search(n, func(i int) bool {
		return t.byFinal[i].BaseFinal > f
	})
	if pos == 0 {
		return nil, false
	}
	c := t.byFinal[pos-1]
	if !c.coversFinal(f) {
		return nil, false
	}
	return c, true
}

// findBySessionGen returns the rightmost cluster of session with
// FirstGenCount ≤ g, confirming g falls within its finalized span.
func (t *clusterTable) findBySessionGen(session SessionIndex, g GenCount) (*Cluster, bool) {
	if int(session) >= len(t.bySession) {
		return nil, false
	}
	list := t.bySession[session]
	n := len(list)
	pos := sort.Search(n, func(i int) bool {
		return list[i].FirstGenCount > g
	})
	if pos == 0 {
		return nil, false
	}
	c := list[pos-1]
	if !c.covers(g) {
		return nil, false
	}
	return c, true
}

// mintedGenCount returns the highest GenCount reachable through session's
// clusters — the only bound recompress (spec.md §4.6) can place on a
// remote session's extent, since an unfinalized remote mint is invisible
// to this compressor.
func (t *clusterTable) mintedGenCount(session SessionIndex) GenCount {
	if int(session) >= len(t.bySession) {
		return 0
	}
	var total GenCount
	for _, c := range t.bySession[session] {
		total += GenCount(c.Count)
	}
	return total
}
