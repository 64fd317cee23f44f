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


// Package research finds and scrapes web sources for a query.
//
// A strict engine cascade (Brave API → SearXNG meta-search → DuckDuckGo HTML
// → Bing HTML) is tried in order, each stage getting one enriched retry,
// stopping at the first non-empty URL list. The winning URLs are fetched by a
// bounded worker pool, visible text extracted, and pages outside sane size
// bounds rejected.
//
// The package never hard-fails: a total search miss yields a fallback-marked
// result so the downstream profiler can distinguish grounded from ungrounded
// profiles, and per-URL scrape failures are recorded for diagnostics rather
// than propagated.
package research
