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

// Package spd 提供「對稱正定矩陣」的能力介面與 Cholesky 實作。
//
// 設計目的：
//   - 矩陣分布（如 wishart）只依賴這組能力（維度、log-determinant、
//     unwhitening、解線性系統），不直接綁定某種稠密表示。
//   - 讓 scale 矩陣可以用不同表示（稠密 Cholesky、外部已分解的因子）
//     注入，而分布程式碼不變。
//
// whitening/unwhitening 術語：
//   - unwhiten：左乘下三角 Cholesky 因子 L，把「白」的隨機矩陣帶上相關結構。
//   - whiten：乘上 L⁻¹，反向操作。本套件只需要 unwhiten。
package spd

import (
	"gonum.org/v1/gonum/mat"

	"github.com/zintix-labs/randlab/errs"
)

// PosDef 是對稱正定矩陣的能力介面。
//
// 實作必須是不可變的：建構完成後所有方法皆可被多執行緒併發呼叫。
type PosDef interface {
	// Dim 回傳矩陣維度 p。
	Dim() int
	// LogDet 回傳 log|S|。
	LogDet() float64
	// At 回傳稠密元素 S[i,j]。
	At(i, j int) float64
	// Sym 回傳 S 的稠密複本（呼叫端可自由修改）。
	Sym() *mat.SymDense
	// UnwhitenTo 計算 dst = L·a，其中 L 為 S 的下三角 Cholesky 因子。
	// dst 不可與 a 共用底層儲存。
	UnwhitenTo(dst *mat.Dense, a mat.Matrix)
	// SolveTo 解 S·X = b，將 X 寫入 dst。
	SolveTo(dst *mat.Dense, b mat.Matrix) error
}

// Chol 是 PosDef 的稠密 Cholesky 實作。
//
// 建構時即完成分解並保留一份 S 的複本與下三角因子 L；
// 之後所有查詢皆為唯讀。
type Chol struct {
	sym  *mat.SymDense
	chol mat.Cholesky
	l    *mat.TriDense
}

var _ PosDef = (*Chol)(nil)

// FromSym 由對稱矩陣建立 Chol。
// 非正定（Cholesky 分解失敗）回傳 KindInvalidDistribution 錯誤。
func FromSym(s mat.Symmetric) (*Chol, error) {
	n := s.SymmetricDim()
	if n == 0 {
		return nil, errs.InvalidDistribution("spd: empty matrix")
	}

	c := &Chol{}
	if ok := c.chol.Factorize(s); !ok {
		return nil, errs.InvalidDistribution("spd: matrix is not positive definite")
	}

	c.sym = mat.NewSymDense(n, nil)
	c.sym.CopySym(s)
	c.l = mat.NewTriDense(n, mat.Lower, nil)
	c.chol.LTo(c.l)
	return c, nil
}

// FromChol 採用外部已完成的 Cholesky 分解建立 Chol。
// S 由 L·Lᵀ 重建，因此不需要呼叫端再提供原矩陣。
func FromChol(ch *mat.Cholesky) (*Chol, error) {
	n := ch.SymmetricDim()
	if n == 0 {
		return nil, errs.InvalidDistribution("spd: empty factorization")
	}

	c := &Chol{}
	c.l = mat.NewTriDense(n, mat.Lower, nil)
	ch.LTo(c.l)

	c.sym = mat.NewSymDense(n, nil)
	c.sym.SymOuterK(1, c.l)

	if ok := c.chol.Factorize(c.sym); !ok {
		return nil, errs.InvalidDistribution("spd: factorization is not positive definite")
	}
	return c, nil
}

// Dim 回傳矩陣維度 p。
func (c *Chol) Dim() int {
	return c.sym.SymmetricDim()
}

// LogDet 回傳 log|S|（由分解直接取得，不經過行列式）。
func (c *Chol) LogDet() float64 {
	return c.chol.LogDet()
}

// At 回傳 S[i,j]。
func (c *Chol) At(i, j int) float64 {
	return c.sym.At(i, j)
}

// Sym 回傳 S 的稠密複本。
func (c *Chol) Sym() *mat.SymDense {
	n := c.Dim()
	out := mat.NewSymDense(n, nil)
	out.CopySym(c.sym)
	return out
}

// UnwhitenTo 計算 dst = L·a。
func (c *Chol) UnwhitenTo(dst *mat.Dense, a mat.Matrix) {
	dst.Mul(c.l, a)
}

// SolveTo 解 S·X = b。
func (c *Chol) SolveTo(dst *mat.Dense, b mat.Matrix) error {
	if err := c.chol.SolveTo(dst, b); err != nil {
		return errs.Wrap(err, "spd: solve failed")
	}
	return nil
}
