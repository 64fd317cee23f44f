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

// Package session scopes matcher vocabularies to callers.
//
// Each Session owns one token matcher and the full log of terms submitted to
// it. The Registry keys sessions by caller-supplied ID and keeps memory
// bounded two ways: least-recently-used eviction at capacity, and an idle
// TTL swept on every registry access. Sessions hold no persistent state;
// match outcomes are persisted separately by the storage layer.
package session
