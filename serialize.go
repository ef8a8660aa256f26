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
	"encoding/binary"
	"fmt"
	"io"
)

// currentWrittenVersion is the only version accepted by Deserialize
// (spec.md §6: "Only the stated version is accepted; mismatch ⇒
// VersionMismatch").
const currentWrittenVersion = uint32(1)

const stableIDLen = 16 // two big-endian uint64 halves

func putStableID(b []byte, id StableId) {
	binary.BigEndian.PutUint64(b[0:8], id.hi)
	binary.BigEndian.PutUint64(b[8:16], id.lo)
}

func getStableID(b []byte) StableId {
	return StableId{
		hi: binary.BigEndian.Uint64(b[0:8]),
		lo: binary.BigEndian.Uint64(b[8:16]),
	}
}

// Serialize renders the compressor's state per spec.md §6's wire format,
// grounded on hupe1980-vecgo's wal/header.go and persistence/binary.go
// (fixed-width little-endian fields, no intermediate buffering struct).
// When includeLocalSession is false the local generator's state
// (nextLocalGenCount, lastTakenGenCount) is omitted; a resuming caller
// must then supply a fresh SessionID to Deserialize.
func (c *Compressor) Serialize(includeLocalSession bool) ([]byte, error) {
	if err := c.checkDisposed("Serialize"); err != nil {
		return nil, err
	}

	buf := make([]byte, 0, 32+c.sessions.len()*stableIDLen+len(c.clusters.byFinal)*28)

	var head [13]byte
	binary.LittleEndian.PutUint32(head[0:4], currentWrittenVersion)
	binary.LittleEndian.PutUint32(head[4:8], c.clusterCapacityPolicy)
	if includeLocalSession {
		head[8] = 1
	}
	binary.LittleEndian.PutUint32(head[9:13], uint32(c.sessions.len()))
	buf = append(buf, head[:]...)

	for i := 0; i < c.sessions.len(); i++ {
		var idBytes [stableIDLen]byte
		putStableID(idBytes[:], c.sessions.base(SessionIndex(i)))
		buf = append(buf, idBytes[:]...)
	}

	var clusterCount [4]byte
	binary.LittleEndian.PutUint32(clusterCount[:], uint32(len(c.clusters.byFinal)))
	buf = append(buf, clusterCount[:]...)
	for _, cl := range c.clusters.byFinal {
		var rec [28]byte
		binary.LittleEndian.PutUint32(rec[0:4], uint32(cl.Session))
		binary.LittleEndian.PutUint64(rec[4:12], uint64(cl.FirstGenCount))
		binary.LittleEndian.PutUint32(rec[12:16], cl.Capacity)
		binary.LittleEndian.PutUint32(rec[16:20], cl.Count)
		binary.LittleEndian.PutUint64(rec[20:28], uint64(cl.BaseFinal))
		buf = append(buf, rec[:]...)
	}

	var nextFinal [8]byte
	binary.LittleEndian.PutUint64(nextFinal[:], uint64(c.clusters.nextFinal))
	buf = append(buf, nextFinal[:]...)

	if includeLocalSession {
		var tail [20]byte
		binary.LittleEndian.PutUint32(tail[0:4], uint32(c.localSession))
		binary.LittleEndian.PutUint64(tail[4:12], uint64(c.generatedIDCount))
		binary.LittleEndian.PutUint64(tail[12:20], uint64(c.rangeBuf.lastTaken))
		buf = append(buf, tail[:]...)
	}

	return buf, nil
}

// Deserialize reconstructs a Compressor from bytes produced by Serialize.
// When the source was serialized with includeLocalSession=false, the
// caller must supply exactly one newSessionID to become the resumed
// compressor's local session; supplying one when the source already
// carries its own is a ProtocolError.
func Deserialize(data []byte, newSessionID ...SessionID) (*Compressor, error) {
	const op = "Deserialize"
	r := &byteReader{buf: data}

	var head [13]byte
	if err := r.read(head[:]); err != nil {
		return nil, wrapErr(InvalidArgument, op, "truncated header", err)
	}
	version := binary.LittleEndian.Uint32(head[0:4])
	if version != currentWrittenVersion {
		return nil, newErr(VersionMismatch, op, fmt.Sprintf("unsupported version %d", version))
	}
	policy := binary.LittleEndian.Uint32(head[4:8])
	hasLocalSession := head[8] != 0
	sessionCount := binary.LittleEndian.Uint32(head[9:13])

	if hasLocalSession && len(newSessionID) > 0 {
		return nil, newErr(ProtocolError, op, "source already carries a local session; no newSessionID expected")
	}
	if !hasLocalSession && len(newSessionID) != 1 {
		return nil, newErr(ProtocolError, op, "source has no local session; exactly one newSessionID is required")
	}

	ss := newSessions()
	for i := uint32(0); i < sessionCount; i++ {
		var idBytes [stableIDLen]byte
		if err := r.read(idBytes[:]); err != nil {
			return nil, wrapErr(InvalidArgument, op, "truncated session entry", err)
		}
		ss.intern(getStableID(idBytes[:]))
	}

	var clusterCountBytes [4]byte
	if err := r.read(clusterCountBytes[:]); err != nil {
		return nil, wrapErr(InvalidArgument, op, "truncated cluster table", err)
	}
	clusterCount := binary.LittleEndian.Uint32(clusterCountBytes[:])

	clusters := newClusterTable()
	for i := uint32(0); i < clusterCount; i++ {
		var rec [28]byte
		if err := r.read(rec[:]); err != nil {
			return nil, wrapErr(InvalidArgument, op, "truncated cluster entry", err)
		}
		session := SessionIndex(binary.LittleEndian.Uint32(rec[0:4]))
		firstGenCount := GenCount(binary.LittleEndian.Uint64(rec[4:12]))
		capacity := binary.LittleEndian.Uint32(rec[12:16])
		count := binary.LittleEndian.Uint32(rec[16:20])
		baseFinal := FinalID(binary.LittleEndian.Uint64(rec[20:28]))

		sessionBase := ss.base(session)
		baseStable, err := sessionBase.Add(uint64(firstGenCount - 1))
		if err != nil {
			return nil, wrapErr(OverflowError, op, "cluster base exceeds UUID space", err)
		}
		c := clusters.appendNewCluster(session, firstGenCount, capacity, count, baseStable)
		c.BaseFinal = baseFinal
	}

	var nextFinalBytes [8]byte
	if err := r.read(nextFinalBytes[:]); err != nil {
		return nil, wrapErr(InvalidArgument, op, "truncated next-final marker", err)
	}
	clusters.nextFinal = FinalID(binary.LittleEndian.Uint64(nextFinalBytes[:]))

	c := &Compressor{
		sessions:              ss,
		clusters:              clusters,
		clusterCapacityPolicy: policy,
	}

	if hasLocalSession {
		var tail [20]byte
		if err := r.read(tail[:]); err != nil {
			return nil, wrapErr(InvalidArgument, op, "truncated generator tail", err)
		}
		c.localSession = SessionIndex(binary.LittleEndian.Uint32(tail[0:4]))
		c.localSessionID = ss.base(c.localSession)
		c.generatedIDCount = GenCount(binary.LittleEndian.Uint64(tail[4:12]))
		c.rangeBuf.lastTaken = GenCount(binary.LittleEndian.Uint64(tail[12:20]))
	} else {
		if _, collides := ss.indexOf(newSessionID[0]); collides {
			return nil, newErr(ProtocolError, op, "newSessionID collides with a session already recorded in the blob")
		}
		c.localSessionID = newSessionID[0]
		c.localSession = ss.intern(c.localSessionID)
	}

	if !r.atEOF() {
		return nil, newErr(InvalidArgument, op, "trailing bytes after a well-formed payload")
	}

	return c, nil
}

// byteReader is a minimal io.ReadFull-style cursor over an in-memory
// buffer, avoiding a bytes.Reader allocation for what is otherwise a
// handful of fixed-width reads (mirrors persistence/binary.go's direct
// slicing approach).
type byteReader struct {
	buf []byte
	pos int
}

func (r *byteReader) read(dst []byte) error {
	n := copy(dst, r.buf[r.pos:])
	if n < len(dst) {
		r.pos += n
		return io.ErrUnexpectedEOF
	}
	r.pos += n
	return nil
}

func (r *byteReader) atEOF() bool { return r.pos >= len(r.buf) }
