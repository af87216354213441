// Package sampler 提供一系列高效能的加權/離散分布抽樣演算法與工具。
//
// 本檔案 (aliastable.go) 實作了 Alias Method 離散分布抽樣（浮點機率版）。
//
// 演算法原理：
//   - 將任意離散分佈轉換為均勻分佈的組合。
//   - 每個槽位 (Bucket) 只存放「自己」和「別名 (Alias)」兩個選項。
//   - 抽樣時先均勻選槽位，再依接受機率決定是自己還是別名。
//
// 特性：
//   - 建表時間：O(N)，線性時間。
//   - 抽樣時間：O(1)，固定兩次亂數（IntN + Float64），零配置。
//   - 空間複雜度：O(N)，與選項數量成正比。
//
// 輸入為「已正規化的機率向量」（非負、總和為 1）；若手上是原始權重，
// 請改用 NewFromWeights，它會先正規化再建表。

package sampler

import (
	"math"

	"github.com/zintix-labs/randlab/errs"
	"github.com/zintix-labs/randlab/sdk/core"
)

// sumTol 為建表時允許的機率總和誤差（|sum-1| <= sumTol 視為合法）。
const sumTol = 1e-9

// AliasTable 是 Alias Method 的 O(1) 離散分布抽樣結構。
//
// 結構欄位說明：
//   - Accept: 每個槽位的接受機率，建表完成後恆在 [0,1]。
//   - Alias:  別名索引；當槽位擲出「不接受」時改抽 Alias[i]。
//   - Size:   槽位數量，即類別數量。
//
// 不變量：對每個類別 i，「以 Accept[i] 機率抽中 i、以 1-Accept[i] 機率抽中
// Alias[i]」整體重現輸入分布（至浮點捨入誤差）。建表完成後結構不可變，
// 多執行緒可共用同一張表，只要各自帶自己的 core.Core。
type AliasTable struct {
	Accept []float64
	Alias  []int
	Size   int
}

// New 根據機率向量 probs 建立 AliasTable。
//
// 驗證採「急切」策略：長度為 0、含負值、總和偏離 1 超過 sumTol，
// 一律回傳 KindInvalidDistribution 錯誤，不做任何部分建表。
//
// 建表流程（Vose 式重分配）：
//  1. 每個機率乘以 n 得 Accept[i] = probs[i]*n。
//  2. 依嚴格不等式分類：Accept[i] < 1 入 small、> 1 入 large，
//     恰等於 1 者不入任何堆（Alias 永不被查詢）。
//  3. small/large 皆非空時：各自以 LIFO 取出 s 與 l（取出順序是自由實作選擇，
//     只影響形成哪些別名對，不影響抽樣分布），設 Alias[s] = l，
//     並令 Accept[l] = Accept[l] - 1 + Accept[s]，再依新值重新分類 l。
//  4. 迴圈結束後殘留在 small 的項目（浮點捨入殘渣，精確算術下應為空）
//     一律強制 Accept = 1.0；殘留在 large 的項目同樣夾回 1.0。
//     這是刻意的數值穩定補償，不是錯誤回復。
func New(probs []float64) (*AliasTable, error) {
	n := len(probs)
	if n == 0 {
		return nil, errs.InvalidDistribution("alias table: empty probability vector")
	}

	sum := 0.0
	for i, p := range probs {
		if p < 0 || math.IsNaN(p) {
			return nil, errs.InvalidDistribution("alias table: negative probability at index %d: %v", i, p)
		}
		sum += p
	}
	if math.Abs(sum-1) > sumTol {
		return nil, errs.InvalidDistribution("alias table: probabilities sum to %v, want 1", sum)
	}

	accept := make([]float64, n)
	alias := make([]int, n)

	// 兩個索引堆疊由建表流程獨佔持有，建表完成即丟棄
	small := make([]int, 0, n)
	large := make([]int, 0, n)

	for i, p := range probs {
		accept[i] = p * float64(n)
		alias[i] = i // 預設自指，保證 Alias 永遠是合法索引
		switch {
		case accept[i] < 1:
			small = append(small, i)
		case accept[i] > 1:
			large = append(large, i)
		}
	}

	for len(small) > 0 && len(large) > 0 {
		s := small[len(small)-1]
		small = small[:len(small)-1]
		l := large[len(large)-1]
		large = large[:len(large)-1]

		alias[s] = l                       // s 的剩餘機率由 l 補足
		accept[l] = accept[l] - 1 + accept[s] // 從 l 扣掉補給 s 的 (1 - Accept[s])

		switch {
		case accept[l] < 1:
			small = append(small, l)
		case accept[l] > 1:
			large = append(large, l)
		}
	}

	// 浮點殘渣清理：殘留項目一律視為滿槽
	for _, i := range small {
		accept[i] = 1.0
	}
	for _, i := range large {
		accept[i] = 1.0
	}

	return &AliasTable{
		Accept: accept,
		Alias:  alias,
		Size:   n,
	}, nil
}

// NewFromWeights 根據任意非負權重建立 AliasTable。
//
// 權重先正規化為機率向量再交給 New；全零或含負權重回傳
// KindInvalidDistribution 錯誤。泛型參數允許直接傳入整數或浮點權重。
func NewFromWeights[T Numbers](weights []T) (*AliasTable, error) {
	n := len(weights)
	if n == 0 {
		return nil, errs.InvalidDistribution("alias table: empty weight vector")
	}

	sum := 0.0
	for i, w := range weights {
		fw := float64(w)
		if fw < 0 || math.IsNaN(fw) {
			return nil, errs.InvalidDistribution("alias table: negative weight at index %d: %v", i, fw)
		}
		sum += fw
	}
	if sum <= 0 {
		return nil, errs.InvalidDistribution("alias table: all weights are zero")
	}

	probs := make([]float64, n)
	for i, w := range weights {
		probs[i] = float64(w) / sum
	}
	return New(probs)
}

// Pick 從表中抽出一個類別索引（0-based），若表為空回傳 -1。
//
// 抽樣步驟：
//  1. idx := IntN(Size) 均勻選槽位。
//  2. u := Float64()；u < Accept[idx] 則接受 idx，否則回傳 Alias[idx]。
//
// 除了消耗兩次亂數外沒有任何副作用；常數時間、零配置。
func (at *AliasTable) Pick(c *core.Core) int {
	if at.Size == 0 {
		return -1
	}
	idx := c.IntN(at.Size)
	if c.Float64() < at.Accept[idx] {
		return idx
	}
	return at.Alias[idx]
}
