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
// 本檔案 (weighted.go) 實作加權「不放回」抽樣：全排列與前 K 抽樣。
//
// 演算法：Efraimidis-Spirakis（2006, "Weighted random sampling with a reservoir"）
//   - 每個元素 i 生成特徵分數 Score_i = -ln(U_i) / w_i（即 ExpFloat64 / w_i）。
//   - 權重越大分數越小；依分數由小到大排序即為加權隨機排列。
//   - 前 K 抽樣以容量 K 的 Max-Heap 維護目前最優的 K 個元素。

package sampler

import (
	"cmp"
	"container/heap"
	"math"
	"slices"

	"github.com/zintix-labs/randlab/errs"
	"github.com/zintix-labs/randlab/sdk/core"
)

// weightItem 封裝原始索引與計算後的隨機分數。
type weightItem struct {
	idx   int
	score float64
}

// weightHeap 實作 heap.Interface 的 Max-Heap：
// h[0] 是目前入選 K 個元素中「分數最大（最該被淘汰）」者。
// Less 故意反向（大者優先浮頂）以在 Go 的 Min-Heap 介面上做出 Max-Heap。
type weightHeap []weightItem

func (h weightHeap) Len() int            { return len(h) }
func (h weightHeap) Less(i, j int) bool  { return h[i].score > h[j].score }
func (h weightHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *weightHeap) Push(x any)         { *h = append(*h, x.(weightItem)) }
func (h *weightHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// WeightedShuffle 加權不放回抽樣 - 全排列。
//
// 權重為 0 的元素分數設為 +Inf，保證排在最後；負權重回傳
// KindInvalidDistribution 錯誤。
//
// 複雜度：時間 O(N log N)（瓶頸在排序）、空間 O(N)。
func WeightedShuffle[T Numbers](c *core.Core, weights []T) ([]int, error) {
	n := len(weights)
	if n == 0 {
		return []int{}, nil
	}

	items := make([]weightItem, n)
	for i, w := range weights {
		fw := float64(w)
		if fw < 0 {
			return nil, errs.InvalidDistribution("weighted shuffle: negative weight at index %d", i)
		}
		if fw == 0 {
			items[i] = weightItem{idx: i, score: math.Inf(1)}
			continue
		}
		// Score = ExpFloat64 / Weight：隨機「路程」除以「速度」，
		// 跑完所需時間越短排名越前。
		items[i] = weightItem{idx: i, score: c.ExpFloat64() / fw}
	}

	slices.SortFunc(items, func(a, b weightItem) int {
		return cmp.Compare(a.score, b.score)
	})

	result := make([]int, n)
	for i, item := range items {
		result[i] = item.idx
	}
	return result, nil
}

// WeightedSample 加權不放回抽樣 - 只取前 K 個（Weighted Reservoir Sampling）。
//
// 相比 WeightedShuffle：空間 O(K)、時間 O(N log K)，K << N 時快得多。
// 權重為 0 的元素永不入選；有效權重數量不足 K 時回傳實際數量。
func WeightedSample[T Numbers](c *core.Core, weights []T, k int) ([]int, error) {
	n := len(weights)
	if k <= 0 || n == 0 {
		return []int{}, nil
	}
	if k > n {
		k = n
	}

	h := make(weightHeap, 0, k)
	for i, w := range weights {
		fw := float64(w)
		if fw < 0 {
			return nil, errs.InvalidDistribution("weighted sample: negative weight at index %d", i)
		}
		if fw == 0 {
			continue
		}

		score := c.ExpFloat64() / fw
		if h.Len() < k {
			heap.Push(&h, weightItem{idx: i, score: score})
		} else if score < h[0].score {
			// 直接替換堆頂並 Fix，比 Pop+Push 少一次 log K 操作
			h[0] = weightItem{idx: i, score: score}
			heap.Fix(&h, 0)
		}
	}

	actual := h.Len()
	result := make([]int, actual)
	// Max-Heap Pop 出來的是目前最大（最後一名），倒序填入
	for i := actual - 1; i >= 0; i-- {
		item := heap.Pop(&h).(weightItem)
		result[i] = item.idx
	}
	return result, nil
}
