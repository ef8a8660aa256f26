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

// IdCreationRange is the wire-visible announcement of locally-minted,
// not-yet-broadcast ids (spec.md §6). Ids is nil when nothing has been
// minted since the last take.
type IdCreationRange struct {
	SessionID SessionID
	Ids       *GenCountSpan
}

// GenCountSpan is an inclusive [First, Last] range of GenCounts.
type GenCountSpan struct {
	First GenCount
	Last  GenCount
}

// rangeBuffer tracks the half-open interval of local ids minted but not
// yet handed to the broadcast service (spec.md §4.7).
type rangeBuffer struct {
	lastTaken GenCount
}

// takeNextRange drains the buffer up to generated, returning the range (if
// any) the caller must deliver to broadcast.
func (b *rangeBuffer) takeNextRange(sessionID SessionID, generated GenCount) IdCreationRange {
	if generated <= b.lastTaken {
		return IdCreationRange{SessionID: sessionID}
	}

	span := GenCountSpan{First: b.lastTaken + 1, Last: generated}
	b.lastTaken = generated
	return IdCreationRange{SessionID: sessionID, Ids: &span}
}
