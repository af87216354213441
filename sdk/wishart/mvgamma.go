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

package wishart

import (
	"math"

	"gonum.org/v1/gonum/mathext"
)

// LogMvGamma 回傳多元 gamma 函數的對數 log Γ_p(a)：
//
//	log Γ_p(a) = p(p-1)/4 · log π + Σ_{i=0}^{p-1} log Γ(a - i/2)
//
// 這是 Wishart 正規化常數的組成部分；直接在 log 域累加避免溢位。
func LogMvGamma(p int, a float64) float64 {
	out := float64(p*(p-1)) / 4 * math.Log(math.Pi)
	for i := 0; i < p; i++ {
		lg, _ := math.Lgamma(a - float64(i)/2)
		out += lg
	}
	return out
}

// MvDigamma 回傳多元 digamma 函數 ψ_p(a) = Σ_{i=0}^{p-1} ψ(a - i/2)，
// 用於抽樣矩陣 log-determinant 的期望值。
func MvDigamma(p int, a float64) float64 {
	out := 0.0
	for i := 0; i < p; i++ {
		out += mathext.Digamma(a - float64(i)/2)
	}
	return out
}
