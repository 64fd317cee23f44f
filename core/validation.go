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


package core

import (
	"fmt"
	"strings"
)

// ValidateQuery validates free-text query input at the boundary.
//
// Validation rules:
//   - Query must contain at least one non-whitespace character
func ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return ErrEmptyQuery
	}
	return nil
}

// ValidateTerms validates a vocabulary term list at the boundary.
//
// Validation rules:
//   - The list must be non-empty
//   - At least one entry must contain a non-whitespace character
//
// Blank entries among valid ones are tolerated; the matcher skips them.
func ValidateTerms(terms []string) error {
	if len(terms) == 0 {
		return ErrInvalidTerms
	}
	for _, term := range terms {
		if strings.TrimSpace(term) != "" {
			return nil
		}
	}
	return fmt.Errorf("%w: all entries blank", ErrInvalidTerms)
}

// ValidateMatchRecord validates a MatchRecord before persistence.
//
// Validation rules:
//   - Source must not be empty
//   - Target must not be empty (use NoMatchTarget for zero-candidate runs)
//   - Confidence must be in [0, 1]
func ValidateMatchRecord(record *MatchRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}
	if record.Source == "" {
		return fmt.Errorf("%w: source is empty", ErrInvalidRecord)
	}
	if record.Target == "" {
		return fmt.Errorf("%w: target is empty", ErrInvalidRecord)
	}
	if record.Confidence < 0 || record.Confidence > 1 {
		return fmt.Errorf("%w: confidence %f out of range", ErrInvalidRecord, record.Confidence)
	}
	return nil
}
