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
Package stream applies a filter.Spec to arbitrarily chunked text.

	+--------+    Feed     +--------------+    sink     +--------+
	| chunks | ----------> | Accumulator  | ----------> | output |
	+--------+             | (buffer+gate)|             +--------+
	                        +------+------+
	                               |
	                          +----+----+
	                          |  Flush  |
	                          +---------+

🎯 Purpose:
- Buffers incoming chunks until a match could be decided
- Drains all decidable matches before accepting more input
- Keeps the retained buffer bounded by the maximum match length

🔄 Flow:
1. Feed appends a chunk to the buffer
2. While the buffer covers the longest possible match, probe the Spec
3. Matched prefixes are replaced and forwarded; the tail is retained
4. Flush settles whatever remains when the stream ends

⚡ Key Responsibilities:
- Chunk-boundary safety: results never depend on how input was split
- Consumption policies: rewrite everything, or stop on first match
- Bounded memory via tail trimming

📝 Design Philosophy:
The accumulator never forwards bytes it might still need. Anything it
does forward is final, which is what lets file rewrites stream.
*/
package stream
