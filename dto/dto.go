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

// Package dto 定義對外（HTTP/JSON）的請求與結果結構。
//
// 核心型別（sdk 內的 matrix、alias table 等）不直接出現在 wire 上；
// 所有輸出都轉成 JSON 友善的平面結構，core snapshot 以 Base64URL 編碼。
package dto

import (
	"gonum.org/v1/gonum/mat"

	"github.com/zintix-labs/randlab/errs"
	"github.com/zintix-labs/randlab/scenario"
)

const MaxDrawCount = 10_000

// DrawRequest 抽樣請求。
//
// Scenario（名稱）與 SID 擇一；Count 省略時視為 1。
// StartSnapB64U 可指定抽樣起點（可重現／審計用），省略時沿用機台當前狀態。
type DrawRequest struct {
	Scenario      string       `json:"scenario,omitempty"`
	SID           scenario.SID `json:"sid,omitempty"`
	Count         int          `json:"count,omitempty"`
	StartSnapB64U string       `json:"start_b64u,omitempty"`
}

// Valid 校驗請求並正規化 Count。
func (r *DrawRequest) Valid() error {
	if r.Scenario == "" && r.SID == 0 {
		return errs.NewWarn("scenario or sid required")
	}
	if r.Count < 0 {
		return errs.NewWarn("count must not be negative")
	}
	if r.Count == 0 {
		r.Count = 1
	}
	if r.Count > MaxDrawCount {
		return errs.NewWarn("count exceeds limit")
	}
	return nil
}

// DrawState 抽樣前後的 core snapshot（必回，審計基礎）。
type DrawState struct {
	StartSnapB64U string `json:"start_b64u"`
	AfterSnapB64U string `json:"after_b64u"`
}

// DrawResult 抽樣結果。
//
// discrete 場景填 Draws（與 Labels，若場景有定義）；
// wishart 場景填 Mats（每筆一個完整 p×p 矩陣）。
type DrawResult struct {
	Scenario string        `json:"scenario"`
	SID      scenario.SID  `json:"sid"`
	Kind     string        `json:"kind"`
	Draws    []int         `json:"draws,omitempty"`
	Labels   []string      `json:"labels,omitempty"`
	Mats     [][][]float64 `json:"mats,omitempty"`
	State    DrawState     `json:"state"`
}

// SimRequest 模擬請求。
type SimRequest struct {
	Scenario string       `json:"scenario,omitempty"`
	SID      scenario.SID `json:"sid,omitempty"`
	Rounds   int          `json:"rounds"`
	Workers  int          `json:"workers,omitempty"`
	Seed     *int64       `json:"seed,omitempty"`
}

const MaxSimRounds = 100_000_000

func (r *SimRequest) Valid() error {
	if r.Scenario == "" && r.SID == 0 {
		return errs.NewWarn("scenario or sid required")
	}
	if r.Rounds < 1 {
		return errs.NewWarn("rounds must > 0")
	}
	if r.Rounds > MaxSimRounds {
		return errs.NewWarn("rounds exceeds limit")
	}
	if r.Workers < 0 {
		return errs.NewWarn("workers must not be negative")
	}
	if r.Workers == 0 {
		r.Workers = 1
	}
	return nil
}

// MomentsResult Wishart 場景的閉式動差。
//
// Mode 只有在 df > p+1 時才有定義，否則為 nil。
type MomentsResult struct {
	Scenario     string       `json:"scenario"`
	SID          scenario.SID `json:"sid"`
	Df           float64      `json:"df"`
	Dim          int          `json:"dim"`
	Mean         [][]float64  `json:"mean"`
	Mode         [][]float64  `json:"mode,omitempty"`
	Entropy      float64      `json:"entropy"`
	MeanLogDet   float64      `json:"mean_logdet"`
	LogNormConst float64      `json:"log_norm_const"`
}

// MatDTO 將對稱矩陣轉為 JSON 友善的二維切片。
func MatDTO(s *mat.SymDense) [][]float64 {
	if s == nil {
		return nil
	}
	p := s.SymmetricDim()
	out := make([][]float64, p)
	for i := range out {
		out[i] = make([]float64, p)
		for j := 0; j < p; j++ {
			out[i][j] = s.At(i, j)
		}
	}
	return out
}
