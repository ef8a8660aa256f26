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

/*

Package idcompressor implements a decentralized compression scheme for
the identifiers exchanged by collaborative, eventually-consistent
applications — editors, CRDTs, and other systems where every replica must
be able to mint new globally unique ids locally, without waiting on a
round trip to a central authority.

Key features

↣ every replica mints ids without coordination: each session starts from
a random 128-bit base StableId and mints its ids as consecutive offsets
from that base, so new object identities never block on the network.

↣ ids shrink as they settle: a freshly minted id is carried as a small
per-session LocalId until the op that created it reaches the document's
total order, at which point every replica maps it to the same small
document-wide FinalId.

↣ ids round-trip: Decompress/Recompress losslessly convert between the
128-bit StableId space and the session-space compressed form; op-space
ids are first brought into session space with NormalizeToSessionSpace.

Inspiration

The same tension appears across many CRDT- and log-replicated systems:
Lamport timestamps (https://en.wikipedia.org/wiki/Lamport_timestamps) and
vector clocks establish a partial order cheaply, but the event identities
themselves still need to be globally unique without coordination. UUIDs
(https://tools.ietf.org/html/rfc4122) solve uniqueness but are expensive
to store and compare at scale; Twitter's Snowflake
(https://blog.twitter.com/engineering/en_us/a/2010/announcing-snowflake.html)
solves compactness but requires a coordinator to allocate node ids. This
package borrows the allocator-local arithmetic of Snowflake-style schemes
and combines it with a random, coordination-free base identifier, then
adds a second compression pass — the cluster table — that runs only after
the total order is known, because that is the only point at which a
document-wide dense numbering is possible at all.

Identity Spaces

An id passes through three representations over its lifetime:

  StableId  -----Recompress----->  SessionSpaceID  -----NormalizeToOpSpace----->  OpSpaceID
      ^--------------Decompress-------------/                \----NormalizeToSessionSpace---->/

↣ StableId is the 128-bit v4/variant-1 UUID. 122 of its 128 bits (every bit
but the fixed version nibble and variant bits) form a dense integer usable
in ordinary arithmetic: the k-th id minted by a session is exactly
sessionBase + (k-1) in that 122-bit space.

↣ SessionSpaceID is what the local replica sees: a FinalId once finalized,
or else a LocalId — a negative integer encoding the id's 1-based GenCount
within its minting session.

↣ OpSpaceID is the wire encoding used inside ops sent to peers. It shares
SessionSpaceID's representation but is only meaningful together with the
id of the session that produced it, since two sessions' LocalIds of the
same GenCount are unrelated ids.

A cluster table (see cluster.go) is the data structure that makes the
FinalId transition possible: the broadcast service's totally-ordered
finalization announcements let every replica independently — but
identically — assign the same contiguous run of FinalIds to the same run
of one session's GenCounts, without any replica needing to ask another
"what did you decide".

Usage

A typical replica creates one Compressor, mints LocalIds locally via
GenerateCompressedID, periodically drains them with
TakeNextCreationRange for broadcast, and applies the resulting
FinalizationRange announcements — its own and every peer's — via
FinalizeCreationRange, in the order the broadcast service delivers them.

*/
package idcompressor
