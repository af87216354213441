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

package stats

import (
	"fmt"
	"io"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/zintix-labs/randlab/errs"
)

// MatReport 隨機矩陣抽樣統計報告。
//
// 紀錄時只累加元素和與 log-determinant 和；Done() 後輸出
// 元素平均、與理論期望（df·S）的最大偏差、以及經驗 E[log|X|]。
type MatReport struct {
	Name string `json:"Name"`
	Dim  int    `json:"Dim"`
	Df   float64 `json:"Df"`

	Expected [][]float64 `json:"Expected"` // 理論期望 df·S
	Mean     [][]float64 `json:"Mean"`     // 經驗元素平均（Done 後填入）

	Rounds     int     `json:"Rounds"`
	MaxAbsDev  float64 `json:"MaxAbsDev"`  // max_ij |Mean - Expected|
	MeanLogDet float64 `json:"MeanLogDet"` // 經驗 E[log|X|]
	WantLogDet float64 `json:"WantLogDet"` // 理論 E[log|X|]

	sum       *mat.SymDense
	logdetSum float64
	isDone    bool
}

// NewMatReport 建立矩陣抽樣報告。
// expectedMean 為理論期望矩陣（df·S），wantLogDet 為理論 E[log|X|]。
func NewMatReport(name string, df float64, expectedMean *mat.SymDense, wantLogDet float64) (*MatReport, error) {
	if expectedMean == nil || expectedMean.SymmetricDim() == 0 {
		return nil, errs.InvalidDistribution("mat report: empty expected mean")
	}
	p := expectedMean.SymmetricDim()

	exp := make([][]float64, p)
	for i := range exp {
		exp[i] = make([]float64, p)
		for j := 0; j < p; j++ {
			exp[i][j] = expectedMean.At(i, j)
		}
	}

	return &MatReport{
		Name:       name,
		Dim:        p,
		Df:         df,
		Expected:   exp,
		WantLogDet: wantLogDet,
		sum:        mat.NewSymDense(p, nil),
	}, nil
}

// Record 累加一次抽樣矩陣。
// x 必須是 p×p；log|x| 經 Cholesky 取得，非正定的樣本屬於抽樣器缺陷，直接回報錯誤。
func (r *MatReport) Record(x *mat.SymDense) error {
	if x == nil || x.SymmetricDim() != r.Dim {
		return errs.DimMismatch("mat report: sample dim mismatch")
	}

	var ch mat.Cholesky
	if ok := ch.Factorize(x); !ok {
		return errs.Domain("mat report: sampled matrix is not positive definite")
	}

	r.sum.AddSym(r.sum, x)
	r.logdetSum += ch.LogDet()
	r.Rounds++
	return nil
}

// Merge 合併另一份相同形狀的報告（併發模擬用）。
func (r *MatReport) Merge(o *MatReport) error {
	if o == nil || o.Dim != r.Dim {
		return errs.DimMismatch("mat report: merge shape mismatch")
	}
	r.sum.AddSym(r.sum, o.sum)
	r.logdetSum += o.logdetSum
	r.Rounds += o.Rounds
	return nil
}

// Done 將累積和轉換為最終統計結果並鎖定 isDone 標記。
func (r *MatReport) Done() {
	if r.isDone {
		return
	}

	r.Mean = make([][]float64, r.Dim)
	for i := range r.Mean {
		r.Mean[i] = make([]float64, r.Dim)
	}

	if r.Rounds > 0 {
		inv := 1 / float64(r.Rounds)
		for i := 0; i < r.Dim; i++ {
			for j := 0; j < r.Dim; j++ {
				r.Mean[i][j] = r.sum.At(i, j) * inv
				if d := math.Abs(r.Mean[i][j] - r.Expected[i][j]); d > r.MaxAbsDev {
					r.MaxAbsDev = d
				}
			}
		}
		r.MeanLogDet = r.logdetSum * inv
	}

	r.isDone = true
}

func (r *MatReport) WriteWith(w io.Writer, rep Render) error {
	r.Done()
	return rep.Write(w, r)
}

// StdOut 輸出人類可讀的摘要表格。
func (r *MatReport) StdOut(ut time.Duration) {
	r.Done()
	formatDuration(ut, r.Rounds)

	keys := []string{"Name", "Dim", "Df", "Rounds", "Max |dev|", "E[logdet] emp", "E[logdet] want"}
	msg := map[string]string{
		"Name":           r.Name,
		"Dim":            fmt.Sprintf("%d", r.Dim),
		"Df":             fmt.Sprintf("%.3f", r.Df),
		"Rounds":         printer().Sprintf("%d", r.Rounds),
		"Max |dev|":      fmt.Sprintf("%.6f", r.MaxAbsDev),
		"E[logdet] emp":  fmt.Sprintf("%.6f", r.MeanLogDet),
		"E[logdet] want": fmt.Sprintf("%.6f", r.WantLogDet),
	}
	fmt.Println(fmtTable(r.Name, keys, msg))
}
