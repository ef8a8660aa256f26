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

func mustStable(t *testing.T, s string) StableId {
	t.Helper()
	id, err := ParseStableId(s)
	if err != nil {
		t.Fatalf("bad fixture %q: %v", s, err)
	}
	return id
}

func TestSessionsInternIsIdempotent(t *testing.T) {
	ss := newSessions()
	a := mustStable(t, "00000000-0000-4000-8000-000000000000")

	first := ss.intern(a)
	second := ss.intern(a)

	it.Then(t).Should(
		it.Equal(first, second),
		it.Equal(ss.len(), 1),
	)
}

func TestSessionsIndexOfUnknown(t *testing.T) {
	ss := newSessions()
	_, ok := ss.indexOf(mustStable(t, "00000000-0000-4000-8000-000000000000"))
	it.Then(t).Should(it.Equal(ok, false))
}

func TestSessionsPredecessorFindsLowerBound(t *testing.T) {
	ss := newSessions()
	low := mustStable(t, "10000000-0000-4000-8000-000000000000")
	high := mustStable(t, "20000000-0000-4000-8000-000000000000")
	ss.intern(low)
	ss.intern(high)

	query, err := low.Add(5)
	it.Then(t).Should(it.Nil(err))

	owner, ok := ss.predecessor(query)
	it.Then(t).Should(
		it.Equal(ok, true),
		it.Equal(ss.base(owner).Equal(low), true),
	)
}

func TestSessionsPredecessorBeforeAnySession(t *testing.T) {
	ss := newSessions()
	ss.intern(mustStable(t, "20000000-0000-4000-8000-000000000000"))

	_, ok := ss.predecessor(mustStable(t, "10000000-0000-4000-8000-000000000000"))
	it.Then(t).Should(it.Equal(ok, false))
}
