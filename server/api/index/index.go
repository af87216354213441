// Copyright 2025 Zintix Labs
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

// Package index 提供主頁（/）的靜態說明頁：列出可用端點，方便人工探索。
package index

import "net/http"

const indexPage = `randlab api

  GET  /v1/scenarios                 list registered scenarios
  GET  /v1/draw?sid=&count=          draw samples from a scenario pool
  POST /v1/draw                      draw (json body: scenario/sid/count/start_b64u)
  GET  /v1/moments?sid=              closed-form moments (wishart only)
  GET  /v1/sim?sid=&rounds=          run a simulation against a registered scenario
  POST /v1/sim                       same, json body (sid/rounds/workers/seed)
  POST /v1/simbycfg                  simulate an uploaded json scenario config
  POST /v1/simbyyaml?rounds=&seed=   simulate an uploaded yaml scenario config
`

func IndexHandlerFn(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(indexPage))
}
