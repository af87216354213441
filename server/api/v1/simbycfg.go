package v1

import (
	"crypto/rand"
	"encoding/json"
	"io"
	"math"
	"math/big"
	"net/http"
	"strconv"

	"github.com/zintix-labs/randlab/errs"
	"github.com/zintix-labs/randlab/server/httperr"
)

// SetByJson 傳入 JSON設定格式 以及希望模擬的局數
//
// 與 /v1/sim 的差別：場景設定不需要事先註冊在 catalog，直接隨請求上傳。
func (sh *SimHandler) SetByJson(w http.ResponseWriter, r *http.Request) {
	type SimRequestByJson struct {
		Rounds   int             `json:"rounds"`
		Workers  int             `json:"workers,omitempty"`
		Scenario json.RawMessage `json:"cfg"`
		Seed     *int64          `json:"seed,omitempty"`
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// 1. decode request
	req := new(SimRequestByJson)
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20) // 5MB
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		httperr.Errs(w, errs.Wrap(err, "json decode failed"))
		return
	}

	// 2. valid rounds
	if req.Rounds < 1 {
		httperr.Errs(w, errs.NewWarn("rounds must be at least 1"))
		return
	}
	if req.Workers < 0 {
		httperr.Errs(w, errs.NewWarn("workers must be non-negative integer"))
		return
	}
	if req.Seed == nil {
		rnd, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			httperr.Errs(w, errs.NewWarn("seed generate failed"))
			return
		}
		v := rnd.Int64()
		req.Seed = &v
	}

	// 3. NewSimulator
	sim, err := sh.Lab.NewSimulatorByJSON(req.Scenario, *req.Seed)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	resp, err := runSim(sim, sim.Kind(), req.Rounds, req.Workers)
	if err != nil {
		httperr.Errs(w, err)
		return
	}

	// 4. 回傳Json
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// SetByYaml 傳入 YAML 設定檔本體（request body），局數與種子走 query string。
//
//	POST /v1/simbyyaml?rounds=100000&workers=4&seed=42
//	Content-Type: application/yaml
func (sh *SimHandler) SetByYaml(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	rounds, err := strconv.Atoi(r.URL.Query().Get("rounds"))
	if err != nil || rounds < 1 {
		httperr.Errs(w, errs.NewWarn("rounds must be a positive integer"))
		return
	}
	workers := 0
	if ws := r.URL.Query().Get("workers"); ws != "" {
		workers, err = strconv.Atoi(ws)
		if err != nil || workers < 0 {
			httperr.Errs(w, errs.NewWarn("workers must be non-negative integer"))
			return
		}
	}
	var seed int64
	if s := r.URL.Query().Get("seed"); s != "" {
		seed, err = strconv.ParseInt(s, 10, 64)
		if err != nil {
			httperr.Errs(w, errs.NewWarn("seed must be int64"))
			return
		}
	} else {
		rnd, rerr := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if rerr != nil {
			httperr.Errs(w, errs.NewWarn("seed generate failed"))
			return
		}
		seed = rnd.Int64()
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 5<<20)) // 5MB
	if err != nil {
		httperr.Errs(w, errs.NewWarn("read body failed: "+err.Error()))
		return
	}

	sim, err := sh.Lab.NewSimulatorByYAML(raw, seed)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	resp, err := runSim(sim, sim.Kind(), rounds, workers)
	if err != nil {
		httperr.Errs(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
