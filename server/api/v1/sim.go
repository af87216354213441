package v1

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/zintix-labs/randlab"
	"github.com/zintix-labs/randlab/dto"
	"github.com/zintix-labs/randlab/errs"
	"github.com/zintix-labs/randlab/scenario"
	"github.com/zintix-labs/randlab/server/httperr"
	"github.com/zintix-labs/randlab/stats"
)

type SimHandler struct {
	Lab *randlab.Lab
}

func NewSimHandler(lab *randlab.Lab) (*SimHandler, error) {
	return &SimHandler{Lab: lab}, nil
}

// simResponse 內部結構 不影響外部 也不被外部使用
//
// Freq / Mat 依場景類型擇一出現。
type simResponse struct {
	Freq     *stats.FreqReport `json:"freq,omitempty"`
	Mat      *stats.MatReport  `json:"mat,omitempty"`
	UsedTime int64             `json:"used_ms"`
}

func (sh *SimHandler) Sim(w http.ResponseWriter, q *http.Request) {
	req := new(dto.SimRequest)
	if q.Method != http.MethodGet && q.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if q.Method == http.MethodGet {
		// sid
		if s := q.URL.Query().Get("sid"); s != "" {
			u, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				httperr.Errs(w, errs.NewWarn("sid must be integer"))
				return
			}
			req.SID = scenario.SID(u)
		} else {
			// 直接空值
			httperr.Errs(w, errs.NewWarn("sid is required"))
			return
		}

		// rounds
		if r := q.URL.Query().Get("rounds"); r != "" {
			u, err := strconv.ParseInt(r, 10, 64)
			if err != nil {
				httperr.Errs(w, errs.NewWarn("rounds must be integer"))
				return
			}
			req.Rounds = int(u)
		} else {
			httperr.Errs(w, errs.NewWarn("rounds is required"))
			return
		}

		// workers
		if m := q.URL.Query().Get("workers"); m != "" {
			u, err := strconv.ParseInt(m, 10, 64)
			if err != nil {
				httperr.Errs(w, errs.NewWarn("workers must be integer"))
				return
			}
			req.Workers = int(u)
		}

		// seed
		if s := q.URL.Query().Get("seed"); s != "" {
			u, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				httperr.Errs(w, errs.NewWarn("seed must be int64"))
				return
			}
			v := u
			req.Seed = &v
		}
	}
	if q.Method == http.MethodPost {
		if err := json.NewDecoder(q.Body).Decode(req); err != nil {
			httperr.Errs(w, errs.NewWarn("invalid json:"+err.Error()))
			return
		}
	}
	// 業務檢驗
	if _, ok := sh.Lab.EntryById(req.SID); !ok {
		httperr.Errs(w, errs.NewWarn("sid not found"))
		return
	}
	if req.Rounds < 1 || req.Rounds > 1000000 {
		httperr.Errs(w, errs.NewWarn("rounds must be between 1 to 1,000,000"))
		return
	}
	if req.Workers < 0 || req.Workers > 64 {
		httperr.Errs(w, errs.NewWarn("workers must be between 0 to 64"))
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

	st, err := sh.Lab.SettingById(req.SID)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	sim, err := sh.Lab.NewSimulatorWithSeed(req.SID, *req.Seed)
	if err != nil {
		// 這裡的錯誤是來自randlab 尊重錯誤分級
		httperr.Errs(w, errs.Wrap(err, fmt.Sprintf("build simulator err: %d", req.SID)))
		return
	}

	resp, err := runSim(sim, st.Kind, req.Rounds, req.Workers)
	if err != nil {
		// 這裡的錯誤來自simulator 尊重錯誤分級
		httperr.Errs(w, errs.Wrap(err, "simulate err"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// runSim 依場景類型分流：discrete 走頻率報表，wishart 走矩陣收斂報表。
// workers <= 1 走單線路徑（可重現性最好），否則走 MP 路徑。
func runSim(sim *randlab.Simulator, kind scenario.Kind, rounds, workers int) (*simResponse, error) {
	var (
		used time.Duration
		err  error
		resp = new(simResponse)
	)
	switch kind {
	case scenario.KindDiscrete:
		if workers <= 1 {
			resp.Freq, used, err = sim.Sim(rounds, false)
		} else {
			resp.Freq, used, err = sim.SimMP(rounds, workers, false)
		}
	case scenario.KindWishart:
		if workers <= 1 {
			resp.Mat, used, err = sim.SimMat(rounds, false)
		} else {
			resp.Mat, used, err = sim.SimMatMP(rounds, workers, false)
		}
	default:
		return nil, errs.NewFatal("scenario kind not set")
	}
	if err != nil {
		return nil, err
	}
	resp.UsedTime = used.Milliseconds()
	return resp, nil
}
