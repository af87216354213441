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

// Package sampler 提供一系列高效能的加權/離散分布抽樣演算法與工具。
//
// 本檔案 (lut.go) 實作了查找表 (Look-Up Table) 整數權重抽樣。
//
// 演算法原理：
//   - 空間換時間：將權重展開為一個長陣列，每個索引出現的次數等於其權重。
//   - 抽樣：生成一個隨機位置存取陣列，O(1) 且只需一次 IntN。
//
// 對比 AliasTable：
//   - LUT 建表 O(sum(weights))、記憶體與權重總和成正比；
//     權重總和大（> maxLUTCap）或為浮點機率時，應改用 AliasTable。
//   - 適合小權重總和的離散場景（骰子、少量選項的情境設定）。

package sampler

import (
	"math"

	"github.com/zintix-labs/randlab/errs"
	"github.com/zintix-labs/randlab/sdk/core"
)

const maxLUTCap uint64 = 10_000_000 // 約 80MB (int slice)

// LUT 是展開後的查找表，元素值即類別索引。
type LUT []int

// BuildLUT 根據非負整數權重列表建立查找表。
//
// 建表流程：
//  1. 累加 acc 取得權重總和，預先配置 lut 容量並檢查上限。
//  2. 對每個元素 i，將其索引重複寫入 lut v 次（v 為權重）。
//
// 負權重、全零權重、總和超過 maxLUTCap 皆回傳 KindInvalidDistribution 錯誤。
func BuildLUT[T Integers](src []T) (LUT, error) {
	if len(src) == 0 {
		return nil, errs.InvalidDistribution("lut: empty weight vector")
	}

	acc := uint64(0)
	for i, v := range src {
		if v < 0 {
			return nil, errs.InvalidDistribution("lut: negative weight at index %d", i)
		}
		uv := uint64(v)
		if acc > math.MaxUint64-uv {
			return nil, errs.InvalidDistribution("lut: total weight overflow uint64 range")
		}
		acc += uv
	}

	if acc == 0 {
		return nil, errs.InvalidDistribution("lut: all weights are zero")
	}
	if acc > maxLUTCap {
		return nil, errs.InvalidDistribution("lut: total weight %d exceeds limit %d, use alias table instead", acc, maxLUTCap)
	}

	lut := make([]int, 0, int(acc))
	for i, v := range src {
		for j := T(0); j < v; j++ {
			lut = append(lut, i)
		}
	}
	return lut, nil
}

// Pick 會透過 Core 的 RNG 從 LUT 中隨機位置取一個值。
// 若 lut 為空，回傳 -1。
func (l LUT) Pick(c *core.Core) int {
	return c.Pick(l)
}
