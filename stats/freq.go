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

	"github.com/zintix-labs/randlab/errs"
)

// CI 信賴區間
type CI struct {
	Lo float64 `json:"Lo"`
	Hi float64 `json:"Hi"`
}

// FreqReport 離散抽樣統計報告。
//
// 紀錄時只做整數計數（熱路徑避免浮點運算與配置），
// 抽樣完成後呼叫 Done() 一次性計算頻率、卡方統計量與 p-value。
type FreqReport struct {
	Name      string    `json:"Name"`
	Expected  []float64 `json:"Expected"`  // 理論機率
	Counts    []int     `json:"Counts"`    // 各類別計數
	Rounds    int       `json:"Rounds"`    // 總抽樣次數
	Dropped   int       `json:"Dropped"`   // 越界樣本數（理論上恆為 0）
	Freq      []float64 `json:"Freq"`      // 經驗頻率（Done 後填入）
	FreqCI    []CI      `json:"FreqCI"`    // 各類別頻率 95% 信賴區間
	Chi2      float64   `json:"Chi2"`      // 卡方適合度統計量
	PValue    float64   `json:"PValue"`    // 卡方檢定 p-value
	MaxAbsErr float64   `json:"MaxAbsErr"` // max |Freq - Expected|
	isDone    bool
}

// NewFreqReport 建立對應理論機率向量的計數報告。
func NewFreqReport(name string, expected []float64) (*FreqReport, error) {
	if len(expected) == 0 {
		return nil, errs.InvalidDistribution("freq report: empty expected vector")
	}
	return &FreqReport{
		Name:     name,
		Expected: expected,
		Counts:   make([]int, len(expected)),
	}, nil
}

// Record 紀錄一次抽樣結果。
// 越界索引不會中斷模擬，改以 Dropped 計數暴露（報表上應為 0）。
func (r *FreqReport) Record(idx int) {
	if idx < 0 || idx >= len(r.Counts) {
		r.Dropped++
		return
	}
	r.Counts[idx]++
	r.Rounds++
}

// Merge 合併另一份相同形狀的報告（併發模擬用）。
func (r *FreqReport) Merge(o *FreqReport) error {
	if o == nil || len(o.Counts) != len(r.Counts) {
		return errs.DimMismatch("freq report: merge shape mismatch")
	}
	for i, c := range o.Counts {
		r.Counts[i] += c
	}
	r.Rounds += o.Rounds
	r.Dropped += o.Dropped
	return nil
}

// Done 將累積計數轉換為最終統計結果並鎖定 isDone 標記。
//
// 卡方適合度檢定只納入理論機率 > 0 的類別；
// 自由度為「納入類別數 - 1」。
func (r *FreqReport) Done() {
	if r.isDone {
		return
	}

	n := len(r.Expected)
	r.Freq = make([]float64, n)
	r.FreqCI = make([]CI, n)
	if r.Rounds > 0 {
		for i, c := range r.Counts {
			f := float64(c) / float64(r.Rounds)
			r.Freq[i] = f
			se := math.Sqrt(f * (1 - f) / float64(r.Rounds))
			r.FreqCI[i] = CI{Lo: max(f-1.96*se, 0.0), Hi: f + 1.96*se}
		}
	}

	r.Chi2, r.PValue = ChiSquareGOF(r.Counts, r.Expected, r.Rounds)

	r.MaxAbsErr = 0
	for i := range r.Freq {
		if d := math.Abs(r.Freq[i] - r.Expected[i]); d > r.MaxAbsErr {
			r.MaxAbsErr = d
		}
	}

	r.isDone = true
}

func (r *FreqReport) WriteWith(w io.Writer, rep Render) error {
	r.Done()
	return rep.Write(w, r)
}

// StdOut 輸出人類可讀的摘要表格。
func (r *FreqReport) StdOut(ut time.Duration) {
	r.Done()
	formatDuration(ut, r.Rounds)

	keys := []string{"Name", "Categories", "Rounds", "Dropped", "Chi2", "P-Value", "Max |f-p|"}
	msg := map[string]string{
		"Name":       r.Name,
		"Categories": printer().Sprintf("%d", len(r.Expected)),
		"Rounds":     printer().Sprintf("%d", r.Rounds),
		"Dropped":    printer().Sprintf("%d", r.Dropped),
		"Chi2":       fmt.Sprintf("%.4f", r.Chi2),
		"P-Value":    fmt.Sprintf("%.4f", r.PValue),
		"Max |f-p|":  fmt.Sprintf("%.6f", r.MaxAbsErr),
	}
	fmt.Println(fmtTable(r.Name, keys, msg))
}
