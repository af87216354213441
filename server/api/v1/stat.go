package v1

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/zintix-labs/randlab/errs"
	"github.com/zintix-labs/randlab/scenario"
	"github.com/zintix-labs/randlab/server/httperr"
)

// Moments 回傳 wishart 場景的閉式動差（mean/mode/entropy/E[log|X|]/log 正規化常數）。
//
//	GET /v1/moments?sid=101
//
// discrete 場景沒有閉式動差端點，會回 400。
func (sh *SimHandler) Moments(w http.ResponseWriter, q *http.Request) {
	if q.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var sid scenario.SID
	if s := q.URL.Query().Get("sid"); s != "" {
		u, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			httperr.Errs(w, errs.NewWarn("sid must be integer"))
			return
		}
		sid = scenario.SID(u)
	} else {
		httperr.Errs(w, errs.NewWarn("sid is required"))
		return
	}

	// 動差是閉式計算，不耗用亂數；seed 無關緊要，直接建一台臨時機台。
	m, err := sh.Lab.NewMachine(sid)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	res, err := m.Moments()
	if err != nil {
		httperr.Errs(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(res); err != nil {
		httperr.Errs(w, err)
		return
	}
}

// Scenarios 列出所有已註冊場景的摘要（sid/name/kind/categories/dim）。
//
//	GET /v1/scenarios
func (sh *SimHandler) Scenarios(w http.ResponseWriter, q *http.Request) {
	if q.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sum, err := sh.Lab.Summary()
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(sum); err != nil {
		httperr.Errs(w, err)
		return
	}
}
