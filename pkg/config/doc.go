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
Package config manages configuration parsing and validation for devrig.

	            +-------------+
	            |   Config    |
	            | (Settings)  |
	            +------+------+
	                   |
	    +---------+----+----+---------+
	    |         |         |         |
	+---+---+ +---+---+ +---+---+ +---+---+
	| YAML  | | JSON  | | TOML  | |  HCL  |
	|Parser | |Parser | |Parser | |Parser |
	+-------+ +-------+ +-------+ +-------+

🎯 Purpose:
- Loads rewrite jobs, watch defaults, and install settings from file
- Validates configuration before any command runs
- Supports multiple config formats through a parser registry

🔄 Flow:
1. Reads configuration from file
2. The registry picks a parser by filename
3. The parser decodes strictly into the shared model
4. Validate compiles every job's rules to surface errors early

⚡ Key Responsibilities:
- Format abstraction behind a single Load entrypoint
- Strict decoding, unknown fields are errors
- Translating rule templates into compiled filter specs
*/
package config
