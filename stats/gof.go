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
	"gonum.org/v1/gonum/stat/distuv"
)

// ChiSquareGOF 計算 Pearson 卡方適合度統計量與 p-value。
//
//	chi2 = Σ (O_i - E_i)² / E_i，E_i = rounds · expected[i]
//
// 理論機率為 0 的類別不納入統計量與自由度
// （該類別若出現觀測值，會反映在 chi2 以外的 Dropped/MaxAbsErr 上）。
// 自由度 = 納入類別數 - 1；p-value 以卡方分布右尾機率計算。
func ChiSquareGOF(counts []int, expected []float64, rounds int) (chi2, pvalue float64) {
	if rounds <= 0 || len(counts) != len(expected) {
		return 0, 1
	}

	k := 0
	for i, p := range expected {
		if p <= 0 {
			continue
		}
		k++
		e := p * float64(rounds)
		d := float64(counts[i]) - e
		chi2 += d * d / e
	}

	if k < 2 {
		return chi2, 1
	}

	dist := distuv.ChiSquared{K: float64(k - 1)}
	return chi2, dist.Survival(chi2)
}
