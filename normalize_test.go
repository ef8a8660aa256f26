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
	"testing"

	"github.com/fogfish/it/v2"
)

func newTestCompressor(t *testing.T, seed string) *Compressor {
	t.Helper()
	id := mustStable(t, seed)
	c, err := Create(WithSessionID(id), WithClusterCapacity(4))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return c
}

func TestDecompressRecompressRoundTripLocal(t *testing.T) {
	c := newTestCompressor(t, "10000000-0000-4000-8000-000000000000")

	id, err := c.GenerateCompressedID()
	it.Then(t).Should(it.Nil(err))

	stable, err := c.Decompress(id)
	it.Then(t).Should(it.Nil(err))

	back, err := c.Recompress(stable)
	it.Then(t).Should(it.Nil(err))

	it.Then(t).Should(it.Equal(back, id))
}

func TestNormalizeToOpSpaceTurnsFinalOnceFinalized(t *testing.T) {
	c := newTestCompressor(t, "10000000-0000-4000-8000-000000000000")

	id, err := c.GenerateCompressedID()
	it.Then(t).Should(it.Nil(err))
	it.Then(t).Should(it.Equal(id.IsLocal(), true))

	err = c.FinalizeCreationRange(FinalizationRange{
		Session:       c.LocalSessionID(),
		FirstGenCount: 1,
		Count:         1,
	})
	it.Then(t).Should(it.Nil(err))

	op, err := c.NormalizeToOpSpace(id)
	it.Then(t).Should(
		it.Nil(err),
		it.Equal(op.IsLocal(), false),
	)
}

func TestNormalizeToSessionSpaceForeignUnfinalized(t *testing.T) {
	local := newTestCompressor(t, "10000000-0000-4000-8000-000000000000")
	remote := mustStable(t, "20000000-0000-4000-8000-000000000000")

	_, err := local.NormalizeToSessionSpace(OpSpaceID(localIDFromGenCount(1)), remote)
	it.Then(t).Should(it.Equal(err.(*Error).Kind, UnfinalizedForeignID))
}

func TestNormalizeToSessionSpaceForeignFinalized(t *testing.T) {
	local := newTestCompressor(t, "10000000-0000-4000-8000-000000000000")
	remote := mustStable(t, "20000000-0000-4000-8000-000000000000")

	err := local.FinalizeCreationRange(FinalizationRange{Session: remote, FirstGenCount: 1, Count: 1})
	it.Then(t).Should(it.Nil(err))

	ssid, err := local.NormalizeToSessionSpace(OpSpaceID(localIDFromGenCount(1)), remote)
	it.Then(t).Should(
		it.Nil(err),
		it.Equal(ssid.IsLocal(), false),
	)
}

func TestRecompressUnknownStableId(t *testing.T) {
	c := newTestCompressor(t, "10000000-0000-4000-8000-000000000000")
	unrelated := mustStable(t, "90000000-0000-4000-8000-000000000000")

	_, ok := c.TryRecompress(unrelated)
	it.Then(t).Should(it.Equal(ok, false))
}

func TestSessionTokenRoundTrip(t *testing.T) {
	local := newTestCompressor(t, "10000000-0000-4000-8000-000000000000")
	remote := mustStable(t, "20000000-0000-4000-8000-000000000000")

	err := local.FinalizeCreationRange(FinalizationRange{Session: remote, FirstGenCount: 1, Count: 1})
	it.Then(t).Should(it.Nil(err))

	token, err := local.SessionToken(remote)
	it.Then(t).Should(it.Nil(err))

	ssid, err := local.NormalizeToSessionSpaceWithToken(OpSpaceID(localIDFromGenCount(1)), token)
	it.Then(t).Should(
		it.Nil(err),
		it.Equal(ssid.IsLocal(), false),
	)
}
