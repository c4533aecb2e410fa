// Copyright 2025 walteh LLC
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

/*
Package filter compiles replacement rules into a prioritized match specification.

	+-----------+       +-----------+
	|   Rules   | ----> |   Spec    |
	| (ordered) |       | (compiled)|
	+-----------+       +-----+-----+
	                          |
	                    +-----+-----+
	                    |   Match   |
	                    | (lazy sub)|
	                    +-----------+

🎯 Purpose:
- Compiles literal and regexp rules into a single Spec
- Finds the highest-priority match in a text snapshot
- Produces lazy replacement thunks evaluated only on consumption

🔄 Flow:
1. Caller lists rules in priority order
2. Compile validates rules and derives the maximum match length
3. Find probes rules in listed order against the full snapshot
4. The first rule that matches anywhere wins, regardless of position

⚡ Key Responsibilities:
- Rule validation (no empty literals, bounded patterns)
- Priority ordering: rule order beats match position
- Stateless matching, safe to call on any snapshot

📝 Design Philosophy:
Matchers hold no cursor. Every Find sees the whole snapshot it is
given, so the same Spec can serve many concurrent streams.
*/
package filter
