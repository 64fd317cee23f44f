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

package storage

import (
	"encoding/json"
	"fmt"

	"github.com/poiesic/termnorm/core"
)

// Stored values are JSON. Entity profiles are schemaless documents whose
// shape changes with the prompt schema version, so a self-describing format
// is required at every value boundary.

// MarshalTargetEntry serializes a target entry for storage.
func MarshalTargetEntry(entry *core.TargetEntry) ([]byte, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("%w: target %q: %s", ErrSerializationFailed, entry.Target, err)
	}
	return data, nil
}

// UnmarshalTargetEntry deserializes a stored target entry.
func UnmarshalTargetEntry(data []byte) (*core.TargetEntry, error) {
	var entry core.TargetEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("%w: target entry: %s", ErrSerializationFailed, err)
	}
	if entry.Aliases == nil {
		entry.Aliases = make(map[string]core.AliasEntry)
	}
	return &entry, nil
}

// MarshalTrace serializes a pipeline trace for storage.
func MarshalTrace(trace *core.PipelineTrace) ([]byte, error) {
	data, err := json.Marshal(trace)
	if err != nil {
		return nil, fmt.Errorf("%w: trace %d: %s", ErrSerializationFailed, trace.TraceID, err)
	}
	return data, nil
}

// UnmarshalTrace deserializes a stored pipeline trace.
func UnmarshalTrace(data []byte) (*core.PipelineTrace, error) {
	var trace core.PipelineTrace
	if err := json.Unmarshal(data, &trace); err != nil {
		return nil, fmt.Errorf("%w: trace: %s", ErrSerializationFailed, err)
	}
	return &trace, nil
}
