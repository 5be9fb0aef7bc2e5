// Copyright 2025 The File-Group Reader Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logscan

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/hudi-project/filegroupreader/block"
	"github.com/hudi-project/filegroupreader/types"
)

// TestFoldDropsCommandBlocksAndRolledBackInstants checks spec §4.2's rollback
// rule against an arbitrary set of instants, some of which are targeted by a
// ROLLBACK command: every surviving block is neither a COMMAND block nor
// carries an instant any ROLLBACK in the input targeted.
func TestFoldDropsCommandBlocksAndRolledBackInstants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numInstants := rapid.IntRange(1, 6).Draw(t, "numInstants")
		numDataBlocks := rapid.IntRange(0, 10).Draw(t, "numDataBlocks")
		numRollbacks := rapid.IntRange(0, 4).Draw(t, "numRollbacks")

		var blocks []EffectiveBlock
		for i := 0; i < numDataBlocks; i++ {
			instant := types.Instant(fmt.Sprintf("instant-%d", rapid.IntRange(0, numInstants-1).Draw(t, "dataInstant")))
			blocks = append(blocks, EffectiveBlock{Kind: block.KindData, Instant: instant, offset: int64(i)})
		}
		rolledBack := make(map[types.Instant]struct{})
		for i := 0; i < numRollbacks; i++ {
			target := types.Instant(fmt.Sprintf("instant-%d", rapid.IntRange(0, numInstants-1).Draw(t, "rollbackTarget")))
			rolledBack[target] = struct{}{}
			blocks = append(blocks, EffectiveBlock{
				Kind:    block.KindCommand,
				Instant: types.Instant(fmt.Sprintf("rollback-instant-%d", i)),
				command: &block.CommandBlock{Subtype: block.CommandRollback, Target: target},
				offset:  int64(numDataBlocks + i),
			})
		}

		out := fold(blocks)

		for _, b := range out {
			if b.Kind == block.KindCommand {
				t.Fatalf("fold left a COMMAND block in the output: %+v", b)
			}
			if _, bad := rolledBack[b.Instant]; bad {
				t.Fatalf("fold kept a block at rolled-back instant %s", b.Instant)
			}
		}

		// Idempotence: folding the already-folded output changes nothing
		// further, since it carries no COMMAND blocks left to act on.
		again := fold(out)
		if len(again) != len(out) {
			t.Fatalf("fold is not idempotent: %d blocks, then %d", len(out), len(again))
		}
	})
}
