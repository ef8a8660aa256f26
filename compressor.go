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
	"reflect"

	"github.com/google/uuid"
)

// defaultClusterCapacity is the reservation granted to a session's first
// cluster, and to the policy-driven slack appended on every subsequent
// overflow, when the caller does not choose one explicitly.
const defaultClusterCapacity = 512

// maxClusterCapacity is the upper bound spec.md §6's setClusterCapacity
// names: 1 ≤ n ≤ 2^20.
const maxClusterCapacity = 1 << 20

// Compressor is the per-replica state machine described across spec.md
// §§3-6: a session registry (C2), a local generator (C3), a cluster table
// (C4), a finalizer (C5), a normalizer (C6), a range buffer (C7), and a
// serializer (C8), all closing over one StableId space (C1).
//
// A Compressor is not safe for concurrent use, matching spec.md §5's
// single-threaded execution model: all operations are expected to run on
// the thread that owns the document.
type Compressor struct {
	disposed bool

	sessions *sessions
	clusters *clusterTable
	rangeBuf rangeBuffer

	clusterCapacityPolicy uint32

	localSessionID   SessionID
	localSession     SessionIndex
	generatedIDCount GenCount
}

// compressorConfig collects the options applied during Create, mirroring
// clock.go's Config/clock pairing.
type compressorConfig struct {
	sessionID       *SessionID
	clusterCapacity uint32
	uuidSource      func() (uuid.UUID, error)
}

// Option configures a Compressor at construction time.
type Option func(*compressorConfig)

// WithSessionID pins the local session's identity, instead of minting a
// fresh random one.
func WithSessionID(id SessionID) Option {
	return func(cfg *compressorConfig) { cfg.sessionID = &id }
}

// WithClusterCapacity overrides the default cluster reservation size
// (spec.md §4.4, "cluster capacity policy").
func WithClusterCapacity(capacity uint32) Option {
	return func(cfg *compressorConfig) { cfg.clusterCapacity = capacity }
}

// WithUUIDSource overrides the source Create mints a fresh local session id
// from, instead of uuid.NewRandom. Ignored when WithSessionID is also given.
// Mirrors clock.go's ConfClockUnix: a deterministic substitute for a
// nondeterministic default, for tests that need reproducible session ids.
func WithUUIDSource(src func() (uuid.UUID, error)) Option {
	return func(cfg *compressorConfig) { cfg.uuidSource = src }
}

// Create builds a fresh Compressor with a newly generated local session
// unless WithSessionID overrides it (spec.md §6 "create").
func Create(opts ...Option) (*Compressor, error) {
	cfg := &compressorConfig{clusterCapacity: defaultClusterCapacity}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.clusterCapacity == 0 || cfg.clusterCapacity > maxClusterCapacity {
		return nil, newErr(InvalidArgument, "Create", "cluster capacity must satisfy 1 <= n <= 2^20")
	}

	var localID SessionID
	switch {
	case cfg.sessionID != nil:
		localID = *cfg.sessionID
	case cfg.uuidSource != nil:
		id, err := newStableIdFrom(cfg.uuidSource)
		if err != nil {
			return nil, wrapErr(InvalidArgument, "Create", "failed to mint a local session id", err)
		}
		localID = id
	default:
		id, err := NewStableId()
		if err != nil {
			return nil, wrapErr(InvalidArgument, "Create", "failed to mint a local session id", err)
		}
		localID = id
	}

	ss := newSessions()
	idx := ss.intern(localID)

	return &Compressor{
		sessions:              ss,
		clusters:              newClusterTable(),
		clusterCapacityPolicy: cfg.clusterCapacity,
		localSessionID:        localID,
		localSession:          idx,
	}, nil
}

func (c *Compressor) checkDisposed(op string) error {
	if c.disposed {
		return newErr(Disposed, op, "compressor has been disposed")
	}
	return nil
}

// Dispose permanently invalidates the compressor; every subsequent
// operation that returns an error fails with Disposed. LocalSessionID and
// TakeNextCreationRange do not check for disposal and keep working, and
// TryDecompress/TryRecompress report the failure only as ok=false.
func (c *Compressor) Dispose() {
	c.disposed = true
}

// LocalSessionID returns the session identity this compressor mints ids
// under.
func (c *Compressor) LocalSessionID() SessionID { return c.localSessionID }

// SetClusterCapacity changes the reservation granted to clusters allocated
// from this point forward. It does not affect clusters already allocated.
func (c *Compressor) SetClusterCapacity(capacity uint32) error {
	if err := c.checkDisposed("SetClusterCapacity"); err != nil {
		return err
	}
	if capacity == 0 || capacity > maxClusterCapacity {
		return newErr(InvalidArgument, "SetClusterCapacity", "capacity must satisfy 1 <= n <= 2^20")
	}
	c.clusterCapacityPolicy = capacity
	return nil
}

// GenerateCompressedID mints the next id for the local session (C3,
// spec.md §4.3): a counter increment plus one binary search over the local
// session's clusters, returning a FinalId outright when a cluster already
// covers the new GenCount, and a LocalId otherwise.
func (c *Compressor) GenerateCompressedID() (SessionSpaceID, error) {
	if err := c.checkDisposed("GenerateCompressedID"); err != nil {
		return 0, err
	}

	if c.generatedIDCount >= math.MaxInt64 {
		return 0, newErr(OverflowError, "GenerateCompressedID", "session has exhausted its GenCount space")
	}
	g := c.generatedIDCount + 1
	c.generatedIDCount = g

	if cluster, ok := c.clusters.findBySessionGen(c.localSession, g); ok {
		return sessionSpaceFromFinal(cluster.finalFor(g)), nil
	}
	return sessionSpaceFromGenCount(g), nil
}

// TakeNextCreationRange drains the ids minted locally since the last call
// into a range the caller must broadcast for finalization (C7, spec.md
// §4.7).
func (c *Compressor) TakeNextCreationRange() IdCreationRange {
	return c.rangeBuf.takeNextRange(c.localSessionID, c.generatedIDCount)
}

// FinalizeCreationRange applies one totally-ordered FinalizationRange
// announcement from the broadcast service (C5, spec.md §4.5).
func (c *Compressor) FinalizeCreationRange(r FinalizationRange) error {
	if err := c.checkDisposed("FinalizeCreationRange"); err != nil {
		return err
	}
	return finalizeRange(c.clusters, c.sessions, c.clusterCapacityPolicy, r)
}

// equalsForTest reports whether c and other have finalized the same
// cluster table, keyed by the globally-unique SessionID each cluster
// belongs to rather than by each compressor's own local SessionIndex
// numbering (which depends on interning order and can legitimately differ
// between replicas that heard finalizations in a different order).
// Recovered from original_source/compressor.rs's equals_test_only, for
// the cross-compressor convergence property of spec.md §8 invariant 7.
func (c *Compressor) equalsForTest(other *Compressor) bool {
	if c.clusters.nextFinal != other.clusters.nextFinal {
		return false
	}
	return reflect.DeepEqual(clustersBySessionID(c), clustersBySessionID(other))
}

func clustersBySessionID(c *Compressor) map[SessionID][]Cluster {
	out := make(map[SessionID][]Cluster)
	for _, cl := range c.clusters.byFinal {
		sid := c.sessions.base(cl.Session)
		out[sid] = append(out[sid], Cluster{
			FirstGenCount: cl.FirstGenCount,
			Capacity:      cl.Capacity,
			Count:         cl.Count,
			BaseFinal:     cl.BaseFinal,
		})
	}
	return out
}
