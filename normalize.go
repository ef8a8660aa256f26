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

// NormalizeToOpSpace converts a caller-facing SessionSpaceID (necessarily
// one this compressor issued) into its wire-facing OpSpaceID form
// (spec.md §4.6).
func (c *Compressor) NormalizeToOpSpace(id SessionSpaceID) (OpSpaceID, error) {
	if err := c.checkDisposed("NormalizeToOpSpace"); err != nil {
		return 0, err
	}

	if !id.IsLocal() {
		return OpSpaceID(id), nil
	}

	g := id.GenCount()
	if cluster, ok := c.clusters.findBySessionGen(c.localSession, g); ok {
		return opSpaceFromFinal(cluster.finalFor(g)), nil
	}
	return OpSpaceID(id), nil
}

// NormalizeToSessionSpace converts an OpSpaceID originated by origin into
// this compressor's session space (spec.md §4.6).
func (c *Compressor) NormalizeToSessionSpace(id OpSpaceID, origin SessionID) (SessionSpaceID, error) {
	if err := c.checkDisposed("NormalizeToSessionSpace"); err != nil {
		return 0, err
	}

	originIdx, known := c.sessions.indexOf(origin)
	if !known {
		if !id.IsLocal() {
			// A FinalId's owner need not be known locally: FinalIds are
			// document-unique on their own.
			return c.normalizeFinalToSessionSpace(FinalID(id))
		}
		// The local session is always interned at Create, so an unknown
		// origin here can only be a genuinely foreign session this
		// compressor has not yet heard finalize anything (spec.md §4.6,
		// scenario S6).
		return 0, newErr(UnfinalizedForeignID, "NormalizeToSessionSpace", "origin session has not finalized this id yet")
	}
	return c.normalizeToSessionSpaceIndexed(id, originIdx)
}

// NilSessionToken marks "no session token known", mirroring
// original_source/compressor.rs's NIL_TOKEN (SPEC_FULL.md §4).
const NilSessionToken int64 = -1

// SessionToken returns a cheap integer handle for id, reusable across
// calls to NormalizeToSessionSpaceWithToken (SPEC_FULL.md §4).
func (c *Compressor) SessionToken(id SessionID) (int64, error) {
	if err := c.checkDisposed("SessionToken"); err != nil {
		return NilSessionToken, err
	}
	idx, ok := c.sessions.indexOf(id)
	if !ok {
		return NilSessionToken, newErr(UnknownID, "SessionToken", "no session token for the given session id")
	}
	return int64(idx), nil
}

// NormalizeToSessionSpaceWithToken is NormalizeToSessionSpace with the
// origin already resolved to a SessionToken (SPEC_FULL.md §4).
func (c *Compressor) NormalizeToSessionSpaceWithToken(id OpSpaceID, token int64) (SessionSpaceID, error) {
	if err := c.checkDisposed("NormalizeToSessionSpaceWithToken"); err != nil {
		return 0, err
	}
	if token == NilSessionToken {
		if !id.IsLocal() {
			return c.normalizeFinalToSessionSpace(FinalID(id))
		}
		return 0, newErr(UnfinalizedForeignID, "NormalizeToSessionSpaceWithToken", "origin session has not finalized this id yet")
	}
	return c.normalizeToSessionSpaceIndexed(id, SessionIndex(token))
}

func (c *Compressor) normalizeToSessionSpaceIndexed(id OpSpaceID, originIdx SessionIndex) (SessionSpaceID, error) {
	if !id.IsLocal() {
		return c.normalizeFinalToSessionSpace(FinalID(id))
	}

	g := id.GenCount()
	if originIdx == c.localSession {
		if cluster, ok := c.clusters.findBySessionGen(c.localSession, g); ok {
			return sessionSpaceFromFinal(cluster.finalFor(g)), nil
		}
		// Not yet finalized: still legitimate as the local session's own
		// LocalId.
		return sessionSpaceFromGenCount(g), nil
	}

	// LocalId of a foreign session.
	if cluster, ok := c.clusters.findBySessionGen(originIdx, g); ok {
		return sessionSpaceFromFinal(cluster.finalFor(g)), nil
	}
	return 0, newErr(UnfinalizedForeignID, "NormalizeToSessionSpace", "foreign session has not finalized this id yet")
}

func (c *Compressor) normalizeFinalToSessionSpace(f FinalID) (SessionSpaceID, error) {
	if _, ok := c.clusters.findByFinal(f); !ok {
		return 0, newErr(UnknownID, "NormalizeToSessionSpace", "final id not present in the cluster table")
	}
	// Whether owned locally or remotely, a known FinalId is a valid
	// session-space value unchanged (spec.md §4.6).
	return sessionSpaceFromFinal(f), nil
}

// Decompress returns the StableId equivalent of a SessionSpaceID (spec.md
// §4.6).
func (c *Compressor) Decompress(id SessionSpaceID) (StableId, error) {
	if err := c.checkDisposed("Decompress"); err != nil {
		return StableId{}, err
	}

	if id.IsLocal() {
		g := id.GenCount()
		return c.sessions.base(c.localSession).Add(uint64(g - 1))
	}

	cluster, ok := c.clusters.findByFinal(FinalID(id))
	if !ok {
		return StableId{}, newErr(UnknownID, "Decompress", "final id not present in the cluster table")
	}
	g := cluster.genCountFor(FinalID(id))
	return c.sessions.base(cluster.Session).Add(uint64(g - 1))
}

// TryDecompress is Decompress without an error result: it returns ok=false
// whenever Decompress would fail, whatever the error kind (UnknownID,
// Disposed, OverflowError alike).
func (c *Compressor) TryDecompress(id SessionSpaceID) (StableId, bool) {
	v, err := c.Decompress(id)
	if err != nil {
		return StableId{}, false
	}
	return v, true
}

// Recompress returns the SessionSpaceID equivalent of a StableId (spec.md
// §4.6).
func (c *Compressor) Recompress(stable StableId) (SessionSpaceID, error) {
	if err := c.checkDisposed("Recompress"); err != nil {
		return 0, err
	}

	owner, ok := c.sessions.predecessor(stable)
	if !ok {
		return 0, newErr(UnknownID, "Recompress", "no session owns this stable id")
	}

	base := c.sessions.base(owner)
	diff := stable.Sub(base)
	if diff.Sign() < 0 || !diff.IsUint64() {
		return 0, newErr(UnknownID, "Recompress", "stable id precedes its candidate owning session")
	}
	g := GenCount(diff.Uint64()) + 1

	var extent GenCount
	if owner == c.localSession {
		extent = c.generatedIDCount
	} else {
		extent = c.clusters.mintedGenCount(owner)
	}
	if g > extent {
		return 0, newErr(UnknownID, "Recompress", "stable id was never minted by its owning session")
	}

	if owner == c.localSession {
		if cluster, ok := c.clusters.findBySessionGen(c.localSession, g); ok {
			return sessionSpaceFromFinal(cluster.finalFor(g)), nil
		}
		return sessionSpaceFromGenCount(g), nil
	}

	cluster, ok := c.clusters.findBySessionGen(owner, g)
	if !ok {
		return 0, newErr(UnknownID, "Recompress", "remote id has not been finalized")
	}
	return sessionSpaceFromFinal(cluster.finalFor(g)), nil
}

// TryRecompress is Recompress without an error result: it returns ok=false
// whenever Recompress would fail, whatever the error kind.
func (c *Compressor) TryRecompress(stable StableId) (SessionSpaceID, bool) {
	v, err := c.Recompress(stable)
	if err != nil {
		return 0, false
	}
	return v, true
}
