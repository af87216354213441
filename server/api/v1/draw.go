package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/zintix-labs/randlab"
	"github.com/zintix-labs/randlab/dto"
	"github.com/zintix-labs/randlab/errs"
	"github.com/zintix-labs/randlab/scenario"
	"github.com/zintix-labs/randlab/server/httperr"
	"github.com/zintix-labs/randlab/server/svrcfg"
)

func (h *DrawHandler) Draw(w http.ResponseWriter, q *http.Request) {
	// 請求方法、結構體校驗
	if q.Method != http.MethodGet && q.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req, err := decodeDrawRequest(q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	// 請求解析完成，設置超時 context
	ctx := q.Context()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// 開始 Draw
	result, err := h.rt.Draw(ctx, req)
	if err != nil {
		httperr.Errs(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		httperr.Errs(w, err)
		return
	}
}

// decodeDrawRequest 把 GET query / POST JSON 統一解析成 dto.DrawRequest。
// 細節驗證（count 上限等）交給 dto.DrawRequest.Valid()，這裡只做格式解析。
func decodeDrawRequest(q *http.Request) (*dto.DrawRequest, error) {
	req := new(dto.DrawRequest)

	if q.Method == http.MethodPost {
		if err := json.NewDecoder(q.Body).Decode(req); err != nil {
			return nil, errs.NewWarn("invalid json:" + err.Error())
		}
		return req, nil
	}

	// GET：scenario / sid 擇一，count 與 start_b64u 可選
	req.Scenario = q.URL.Query().Get("scenario")
	if s := q.URL.Query().Get("sid"); s != "" {
		u, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errs.NewWarn("sid must be integer")
		}
		req.SID = scenario.SID(u)
	}
	if c := q.URL.Query().Get("count"); c != "" {
		u, err := strconv.Atoi(c)
		if err != nil {
			return nil, errs.NewWarn("count must be integer")
		}
		req.Count = u
	}
	req.StartSnapB64U = q.URL.Query().Get("start_b64u")

	if req.Scenario == "" && req.SID == 0 {
		return nil, errs.NewWarn("scenario or sid is required")
	}
	return req, nil
}

// ============================================================
// ** DrawHandler **
// ============================================================

type DrawHandler struct {
	rt *randlab.LabRuntime
}

func NewDrawHandler(sCfg *svrcfg.SvrCfg) (*DrawHandler, error) {
	rt, err := sCfg.Lab.BuildRuntime(sCfg.PoolSize)
	if err != nil {
		return nil, errs.Wrap(err, "build draw handler error")
	}
	return &DrawHandler{rt: rt}, nil
}
