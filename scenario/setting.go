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

package scenario

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/zintix-labs/randlab/errs"
)

// Setting 包含啟動一個抽樣場景所需的所有高階設定。
//
// 一個場景對應一個目標分布：discrete（離散分布，走 alias table）
// 或 wishart（Wishart 隨機矩陣，走 Bartlett 分解）。
type Setting struct {
	Name     string           `yaml:"name"               json:"name"`
	ID       SID              `yaml:"id"                 json:"id"`
	KindStr  string           `yaml:"kind"               json:"kind"`
	Kind     Kind             `yaml:"-"                  json:"-"`
	Discrete *DiscreteSetting `yaml:"discrete,omitempty" json:"discrete,omitempty"`
	Wishart  *WishartSetting  `yaml:"wishart,omitempty"  json:"wishart,omitempty"`
	Extra    map[string]any   `yaml:"extra,omitempty"    json:"extra,omitempty"`
}

// init
func (s *Setting) init() error {
	k, ok := ParseKind(s.KindStr)
	if !ok {
		return errs.NewFatal(fmt.Sprintf("scenario %q: invalid kind %q", s.Name, s.KindStr))
	}
	s.Kind = k

	switch s.Kind {
	case KindDiscrete:
		if s.Discrete == nil {
			return errs.NewFatal(fmt.Sprintf("scenario %q: discrete section required", s.Name))
		}
		if s.Wishart != nil {
			return errs.NewFatal(fmt.Sprintf("scenario %q: wishart section not allowed for discrete kind", s.Name))
		}
		if err := s.Discrete.Init(); err != nil {
			return err
		}
	case KindWishart:
		if s.Wishart == nil {
			return errs.NewFatal(fmt.Sprintf("scenario %q: wishart section required", s.Name))
		}
		if s.Discrete != nil {
			return errs.NewFatal(fmt.Sprintf("scenario %q: discrete section not allowed for wishart kind", s.Name))
		}
		if err := s.Wishart.Init(); err != nil {
			return err
		}
	}

	return s.valid()
}

// valid 執行最基本的設定檔檢查，如需更多驗證可在此擴充。
func (s *Setting) valid() error {
	if s.Name == "" {
		return errs.NewFatal("scenario name required")
	}
	return nil
}

// DiscreteSetting 離散分布場景設定。
//
// probs 與 weights 擇一：
//   - probs：機率向量，總和須為 1（容差由 alias table 建表時把關）。
//   - weights：非負權重，建表前會正規化成機率。
type DiscreteSetting struct {
	Probs    []float64 `yaml:"probs,omitempty"   json:"probs,omitempty"`
	Weights  []float64 `yaml:"weights,omitempty" json:"weights,omitempty"`
	Labels   []string  `yaml:"labels,omitempty"  json:"labels,omitempty"`
	Dist     []float64 `yaml:"-"                 json:"-"`
	initFlag bool
}

// Init 檢查設定並建出正規化後的機率向量 Dist。
func (ds *DiscreteSetting) Init() error {
	if ds.initFlag {
		return nil
	}

	if len(ds.Probs) > 0 && len(ds.Weights) > 0 {
		return errs.NewFatal("discrete: probs and weights are mutually exclusive")
	}

	switch {
	case len(ds.Probs) > 0:
		ds.Dist = append([]float64(nil), ds.Probs...)
	case len(ds.Weights) > 0:
		total := 0.0
		for _, w := range ds.Weights {
			if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
				return errs.NewFatal(fmt.Sprintf("discrete: invalid weight %v", w))
			}
			total += w
		}
		if total <= 0 {
			return errs.NewFatal("discrete: weights sum to zero")
		}
		ds.Dist = make([]float64, len(ds.Weights))
		for i, w := range ds.Weights {
			ds.Dist[i] = w / total
		}
	default:
		return errs.NewFatal("discrete: probs or weights required")
	}

	if len(ds.Labels) > 0 && len(ds.Labels) != len(ds.Dist) {
		return errs.NewFatal("discrete: len(labels) != len(probs)")
	}

	ds.initFlag = true
	return nil
}

// Categories 回傳類別數。
func (ds *DiscreteSetting) Categories() int {
	return len(ds.Dist)
}

// WishartSetting Wishart 場景設定。
//
// scale 以 row 列出完整 p×p 矩陣；讀入時檢查方陣與對稱性，
// 正定性留給 Cholesky 分解在建機台時把關。
type WishartSetting struct {
	Df       float64       `yaml:"df"    json:"df"`
	Scale    [][]float64   `yaml:"scale" json:"scale"`
	ScaleSym *mat.SymDense `yaml:"-"     json:"-"`
	initFlag bool
}

const symTol = 1e-9

// Init 檢查設定並建出 ScaleSym。
func (ws *WishartSetting) Init() error {
	if ws.initFlag {
		return nil
	}

	p := len(ws.Scale)
	if p == 0 {
		return errs.NewFatal("wishart: scale matrix required")
	}
	for i, row := range ws.Scale {
		if len(row) != p {
			return errs.NewFatal(fmt.Sprintf("wishart: scale row %d has %d entries, want %d", i, len(row), p))
		}
	}
	for i := 0; i < p; i++ {
		for j := i + 1; j < p; j++ {
			if math.Abs(ws.Scale[i][j]-ws.Scale[j][i]) > symTol {
				return errs.NewFatal(fmt.Sprintf("wishart: scale not symmetric at (%d,%d)", i, j))
			}
		}
	}

	if math.IsNaN(ws.Df) || ws.Df <= float64(p-1) {
		return errs.NewFatal(fmt.Sprintf("wishart: df must be > p-1 = %d, got %v", p-1, ws.Df))
	}

	sym := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			sym.SetSym(i, j, ws.Scale[i][j])
		}
	}
	ws.ScaleSym = sym

	ws.initFlag = true
	return nil
}

// Dim 回傳矩陣維度 p。
func (ws *WishartSetting) Dim() int {
	return len(ws.Scale)
}
