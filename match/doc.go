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


// Package match implements deterministic lexical matching over a user
// vocabulary: tokenization, an incrementally extendable inverted-index
// matcher, and the fuzzy corrector that repairs LLM-paraphrased candidate
// strings back onto the vocabulary.
//
// The three pieces deliberately have no failure modes. Tokenize is a pure
// function; TokenMatcher degrades malformed input to empty results; Correct
// always produces an answer, with low confidence rather than an error when
// nothing plausible matches.
package match
