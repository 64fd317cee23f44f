// Copyright 2025 Poiesic Systems
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

package badger

import (
	"encoding/binary"
	"fmt"
	"strings"
)

const (
	targetRecordPrefix = "tgtrec"
	aliasIndexPrefix   = "aliidx"
	tracePrefix        = "trc"
	traceIDSeq         = "trcseq"
)

// makeTargetKey generates the key for a target entry. Targets are keyed by
// their lowercased term so lookup is case-insensitive.
func makeTargetKey(target string) []byte {
	return []byte(fmt.Sprintf("%s:%s", targetRecordPrefix, strings.ToLower(target)))
}

// makeAliasKey generates the key of the source-to-current-target index.
func makeAliasKey(source string) []byte {
	return []byte(fmt.Sprintf("%s:%s", aliasIndexPrefix, strings.ToLower(source)))
}

// makeTraceKey generates a composite key for a trace.
// Format: prefix:day:seq. The day bucket is YYYY-MM-DD, so lexicographic
// iteration yields day order, and the BigEndian sequence preserves insertion
// order within the day.
func makeTraceKey(day string, seq uint64) []byte {
	prefix := tracePrefix + ":" + day + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, []byte(prefix))
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}
