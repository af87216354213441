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

package core

import (
	r2 "math/rand/v2"
)

// PRNG 定義 Core 所需的亂數來源，需同時支援取樣與狀態保存/還原。
type PRNG interface {
	RAND
	Restorable
}

// Restorable 定義可快照與還原的狀態介面。
type Restorable interface {
	// Snapshot 回傳可用於還原的序列化狀態。
	Snapshot() ([]byte, error)
	// Restore 依序列化狀態還原 PRNG 內部狀態。
	Restore([]byte) error
}

// RAND 定義核心亂數取樣能力。
//
// 為什麼要求同時提供 4 個方法（Uint64 / Float64 / UintN / IntN），而不是只要求 Uint64？
//
// 1) 允許實作針對 32-bit / 64-bit 平台做最佳化
//   - 有些 PRNG 的「原生輸出寬度」是 32-bit（例如以 uint32 為核心），直接產生 uint32/uint
//     可能更快、更少指令；反之 64-bit PRNG 直接提供 Uint64/UintN 更自然。
//   - 若合約只要求 Uint64，所有實作都被迫走「先產生 uint64 再轉換/裁切」的路徑。
//   - bounded 生成（IntN/UintN）交由 PRNG 自己實作，能讓每個 PRNG 用最合適的策略。
//
// 2) Float64 的精度與生成方式應由 PRNG 決定
//   - Float64 通常希望使用 53-bit mantissa 來生成 [0,1)；但有些實作只提供 32-bit 精度。
//     讓 PRNG 自己提供 Float64，可以明確表達精度與效能的取捨。
//
// 另外：RAND 內含 Uint64，因此任何 PRNG 都同時滿足 math/rand/v2 的 rand.Source，
// 可以直接塞進 gonum/stat/distuv 的 Src 欄位（例如 distuv.Chi{Src: c}）。
type RAND interface {
	// Uint64 回傳非負 uint64 亂數。
	Uint64() uint64
	// Float64 回傳 [0,1) 的浮點亂數。
	Float64() float64
	// UintN 回傳 [0,max) 的 uint 亂數，若 max == 0 回傳 0。
	UintN(uint) uint
	// IntN 回傳 [0,max) 的 int 亂數，若 max <= 0 回傳 -1。
	IntN(int) int
}

// CoreFactory 定義 PRNG 工廠。
//
// 合約（很重要）：在同一個實作與同一個版本下，New(seed) 必須是「決定性」的——
// 相同的 seed 必須產生相同的初始內部狀態與輸出序列。
//
// 為什麼只保留 New？
//   - Randlab 需要可重現（審計/回放/併發模擬的多機台派生）。
//   - seed 的生命週期由 Randlab 統一管理：外部未提供時由 Randlab 產生並保存 baseSeed，
//     後續所有 Machine/Sim 皆由 baseSeed 以固定算法派生子 seed。
//   - 因此內部永遠不需要「不帶 seed 的 New()」，避免行為不一致與難以重現。
type CoreFactory interface {
	New(int64) PRNG
}

// DefaultPRNG 是預設的 CoreFactory，以 PCG64 為底層。
type DefaultPRNG struct{}

// New 滿足 CoreFactory 合約。
func (d *DefaultPRNG) New(seed int64) PRNG {
	return newPCG64WithSeed(seed)
}

func Default() *DefaultPRNG {
	return &DefaultPRNG{}
}

// PRNG32 是 32-bit 輸出的 CoreFactory，以 PCG32 為底層。
// 用於需要較小狀態或對 32-bit 平台友善的場合。
type PRNG32 struct{}

func (d *PRNG32) New(seed int64) PRNG {
	return newPCG32WithSeed(seed)
}

func Default32() *PRNG32 {
	return &PRNG32{}
}

// Core 封裝 PRNG，並提供常用取樣與工具方法。
//
// NormFloat64 / ExpFloat64 由 math/rand/v2 的通用演算法提供，
// 以注入的 PRNG 作為 Source，因此同一個 seed 仍然完全可重現。
type Core struct {
	PRNG
	std *r2.Rand
}

// New 允許使用外部自實現的 PRNG 建立 Core。
func New(rng PRNG) *Core {
	return &Core{PRNG: rng, std: r2.New(rng)}
}

// NormFloat64 回傳標準常態 N(0,1) 亂數。
func (c *Core) NormFloat64() float64 {
	return c.std.NormFloat64()
}

// ExpFloat64 回傳標準指數分布（rate=1）亂數。
func (c *Core) ExpFloat64() float64 {
	return c.std.ExpFloat64()
}

// Pick 從列表中隨機選取一個元素，若列表為空回傳 -1
// 熱路徑中只使用哨兵值回傳
func (c *Core) Pick(src []int) int {
	if len(src) == 0 {
		return -1
	}
	idx := c.IntN(len(src))
	return src[idx]
}

// ShuffleInts 使用 Fisher-Yates (亦稱 Knuth Shuffle) 演算法
// 對[]int進行「就地 (In-place)」隨機重排。
//
// 演算法特性：
//
//  1. 公平性 (Unbiased)：所有 N! 種排列出現機率嚴格相等 (1/N!)。
//
//  2. 效能：時間 O(N)、空間 O(1)，就地交換，零配置。
func (c *Core) ShuffleInts(src []int) {
	if len(src) <= 1 {
		return
	}

	for i := len(src) - 1; i > 0; i-- {
		j := c.IntN(i + 1)
		src[i], src[j] = src[j], src[i]
	}
}
