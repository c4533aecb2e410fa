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
Package watch blocks until sought text appears in live process output.

🎯 Purpose:
- Subscribes to a procout.Output and scans chunks as they arrive
- Settles exactly once: match, timeout, or context cancellation
- Restores the output source to its pre-watch paused state

🔄 Flow:
1. Subscribe to the output, then resume it so queued chunks replay
2. Each chunk feeds a stop-after-first-match accumulator
3. The first settlement wins; late signals are discarded
4. Deferred cleanup unsubscribes and re-pauses if needed

⚡ Key Responsibilities:
- Exactly-once settlement under racing match/timeout/cancel
- Timeout errors that carry the sought text and observed output
- No goroutine or listener leaks across repeated waits
*/
package watch
