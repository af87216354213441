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

// Package wishart 實作 Wishart 隨機矩陣分布。
//
// Wishart(df, S) 是 p×p 對稱正定隨機矩陣的分布：df 為自由度（df > p-1），
// S 為 scale 矩陣（以 spd.PosDef 能力介面注入）。抽樣採 Bartlett 分解：
// 生成特殊結構的下三角亂數矩陣 A（對角為 chi 分布、嚴格下三角為標準常態），
// 以 S 的下三角 Cholesky 因子 L unwhiten 後回傳 (LA)(LA)ᵀ。
//
// 併發模型：Wishart 實例建構完成後不可變，多執行緒可共用；
// 抽樣時每個執行緒需帶自己的 core.Core。
package wishart

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/zintix-labs/randlab/errs"
	"github.com/zintix-labs/randlab/sdk/core"
	"github.com/zintix-labs/randlab/sdk/spd"
)

// Wishart 隨機矩陣分布。
//
// 不變量：logc0 永遠與 (df, scale) 一致——建構時一次算定，之後不再變動。
// 抽樣與評估都不會改動分布本身。
type Wishart struct {
	df    float64
	scale spd.PosDef
	dim   int
	logc0 float64
}

// New 建立 Wishart(df, scale)。
//
// 驗證 df > p-1（p 為 scale 維度），否則回傳 KindInvalidDistribution。
// 建構時即預計算 log 正規化常數：
//
//	logc0 = -(df/2)·(log|S| + p·log 2) - log Γ_p(df/2)
func New(df float64, scale spd.PosDef) (*Wishart, error) {
	if scale == nil || scale.Dim() == 0 {
		return nil, errs.InvalidDistribution("wishart: nil or empty scale matrix")
	}
	p := scale.Dim()
	if math.IsNaN(df) || df <= float64(p-1) {
		return nil, errs.InvalidDistribution("wishart: df must be > p-1, got df=%v p=%d", df, p)
	}

	return &Wishart{
		df:    df,
		scale: scale,
		dim:   p,
		logc0: -(df/2)*(scale.LogDet()+float64(p)*math.Ln2) - LogMvGamma(p, df/2),
	}, nil
}

// Params 回傳建構時的 (df, scale)，原樣不變。
func (w *Wishart) Params() (df float64, scale spd.PosDef) {
	return w.df, w.scale
}

// Dim 回傳矩陣維度 p。
func (w *Wishart) Dim() int { return w.dim }

// Df 回傳自由度。
func (w *Wishart) Df() float64 { return w.df }

// LogNormConst 回傳預計算的 log 正規化常數 logc0。
func (w *Wishart) LogNormConst() float64 { return w.logc0 }

// ------------------------------------------------------------
// 封閉形式動差
// ------------------------------------------------------------

// MeanSym 回傳期望值 E[X] = df·S。
func (w *Wishart) MeanSym() *mat.SymDense {
	out := mat.NewSymDense(w.dim, nil)
	out.ScaleSym(w.df, w.scale.Sym())
	return out
}

// ModeSym 回傳眾數 (df-p-1)·S。
// 只在 df > p+1 時有定義，否則回傳 KindDomain 錯誤。
func (w *Wishart) ModeSym() (*mat.SymDense, error) {
	if w.df <= float64(w.dim+1) {
		return nil, errs.Domain("wishart: mode requires df > p+1, got df=%v p=%d", w.df, w.dim)
	}
	out := mat.NewSymDense(w.dim, nil)
	out.ScaleSym(w.df-float64(w.dim)-1, w.scale.Sym())
	return out, nil
}

// MeanLogDet 回傳抽樣矩陣 log-determinant 的期望值：
//
//	E[log|X|] = log|S| + p·log 2 + Σ_{i=0}^{p-1} ψ((df-i)/2)
func (w *Wishart) MeanLogDet() float64 {
	return w.scale.LogDet() + float64(w.dim)*math.Ln2 + MvDigamma(w.dim, w.df/2)
}

// Entropy 回傳微分熵：
//
//	H = -logc0 - (df-p-1)/2 · E[log|X|] + df·p/2
func (w *Wishart) Entropy() float64 {
	return -w.logc0 - (w.df-float64(w.dim)-1)/2*w.MeanLogDet() + w.df*float64(w.dim)/2
}

// Cov 回傳元素對的共變異數（Gupta & Nagar 1999, Thm 3.3.15.i）：
//
//	cov(X[i,j], X[k,l]) = df·(S[i,k]·S[j,l] + S[i,l]·S[j,k])
func (w *Wishart) Cov(i, j, k, l int) float64 {
	s := w.scale
	return w.df * (s.At(i, k)*s.At(j, l) + s.At(i, l)*s.At(j, k))
}

// Var 回傳單一元素的變異數 var(X[i,j]) = df·(S[i,i]·S[j,j] + S[i,j]²)。
func (w *Wishart) Var(i, j int) float64 {
	s := w.scale
	return w.df * (s.At(i, i)*s.At(j, j) + s.At(i, j)*s.At(i, j))
}

// ------------------------------------------------------------
// 密度評估
// ------------------------------------------------------------

// InSupport 回報 x 是否落在支撐集內：尺寸為 p×p 且對稱正定。
// 作為成員測試使用，對任何輸入都只回傳布林值、不回傳錯誤。
func (w *Wishart) InSupport(x mat.Symmetric) bool {
	if x == nil || x.SymmetricDim() != w.dim {
		return false
	}
	var ch mat.Cholesky
	return ch.Factorize(x)
}

// LogKernel 回傳未正規化的 log 密度：
//
//	((df-p-1)·log|X| - tr(S⁻¹X)) / 2
//
// 尺寸不符回傳 KindDimensionMismatch；X 非正定回傳 KindDomain。
// 驗證先於任何計算，失敗時不做部分運算。
func (w *Wishart) LogKernel(x mat.Symmetric) (float64, error) {
	if x == nil || x.SymmetricDim() != w.dim {
		got := 0
		if x != nil {
			got = x.SymmetricDim()
		}
		return 0, errs.DimMismatch("wishart: candidate is %d×%d, want %d×%d", got, got, w.dim, w.dim)
	}

	var ch mat.Cholesky
	if ok := ch.Factorize(x); !ok {
		return 0, errs.Domain("wishart: candidate matrix is not positive definite")
	}

	var sinvx mat.Dense
	if err := w.scale.SolveTo(&sinvx, x); err != nil {
		return 0, err
	}

	return ((w.df-float64(w.dim)-1)*ch.LogDet() - mat.Trace(&sinvx)) / 2, nil
}

// LogProb 回傳 log 密度 LogKernel(x) + logc0。
func (w *Wishart) LogProb(x mat.Symmetric) (float64, error) {
	lk, err := w.LogKernel(x)
	if err != nil {
		return 0, err
	}
	return lk + w.logc0, nil
}

// ------------------------------------------------------------
// 抽樣（Bartlett 分解）
// ------------------------------------------------------------

// RandSym 回傳一次 Wishart(df, S) 抽樣，矩陣為全新配置。
//
// Bartlett 分解：
//   - A[i,i] = sqrt(ChiSquared(df-i) 抽樣)，i = 0..p-1
//   - A[i,j] = N(0,1)，i > j；其餘為 0
//   - 以 S 的下三角因子 L unwhiten：回傳 (LA)(LA)ᵀ
//
// 整數 df ≥ p 時為精確抽樣；非整數 df 經由 chi 分布對角仍為合法的廣義抽樣。
// 除了消耗 RNG 外沒有共享狀態，同一實例可供多執行緒（各帶 Core）併發抽樣。
func (w *Wishart) RandSym(c *core.Core) *mat.SymDense {
	p := w.dim
	a := mat.NewDense(p, p, nil)
	for i := 0; i < p; i++ {
		chisq := distuv.ChiSquared{K: w.df - float64(i), Src: c}
		a.Set(i, i, math.Sqrt(chisq.Rand()))
		for j := 0; j < i; j++ {
			a.Set(i, j, c.NormFloat64())
		}
	}

	var la mat.Dense
	w.scale.UnwhitenTo(&la, a)

	out := mat.NewSymDense(p, nil)
	out.SymOuterK(1, &la)
	return out
}
