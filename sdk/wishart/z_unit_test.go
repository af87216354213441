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
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/zintix-labs/randlab/errs"
	"github.com/zintix-labs/randlab/sdk/core"
	"github.com/zintix-labs/randlab/sdk/spd"
)

func mustPD(t *testing.T, s *mat.SymDense) *spd.Chol {
	t.Helper()
	c, err := spd.FromSym(s)
	if err != nil {
		t.Fatalf("scale matrix not positive definite: %v", err)
	}
	return c
}

func scale3(t *testing.T) *spd.Chol {
	t.Helper()
	return mustPD(t, mat.NewSymDense(3, []float64{
		2.0, 0.3, 0.1,
		0.3, 1.5, 0.2,
		0.1, 0.2, 1.0,
	}))
}

func TestConstructionValidation(t *testing.T) {
	s := scale3(t) // p = 3

	// df = p-1 rejected, df = p-1+ε accepted
	if _, err := New(2.0, s); !errs.IsKind(err, errs.KindInvalidDistribution) {
		t.Fatalf("df = p-1 must be rejected, got %v", err)
	}
	if _, err := New(2.0+1e-9, s); err != nil {
		t.Fatalf("df = p-1+ε must be accepted, got %v", err)
	}
	if _, err := New(math.NaN(), s); !errs.IsKind(err, errs.KindInvalidDistribution) {
		t.Fatalf("NaN df must be rejected")
	}
	if _, err := New(5, nil); !errs.IsKind(err, errs.KindInvalidDistribution) {
		t.Fatalf("nil scale must be rejected")
	}
}

func TestParamsRoundTrip(t *testing.T) {
	s := scale3(t)
	w, err := New(5.5, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	df, sc := w.Params()
	if df != 5.5 || sc != spd.PosDef(s) {
		t.Fatalf("params round trip failed")
	}
	if w.Dim() != 3 || w.Df() != 5.5 {
		t.Fatalf("dim/df accessors mismatch")
	}
}

func TestMeanAndMode(t *testing.T) {
	s := scale3(t)
	w, err := New(6, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mean := w.MeanSym()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(mean.At(i, j)-6*s.At(i, j)) > 1e-12 {
				t.Fatalf("mean != df*S at (%d,%d)", i, j)
			}
		}
	}

	mode, err := w.ModeSym()
	if err != nil {
		t.Fatalf("mode: %v", err)
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(mode.At(i, j)-2*s.At(i, j)) > 1e-12 {
				t.Fatalf("mode != (df-p-1)*S at (%d,%d)", i, j)
			}
		}
	}

	// df = 3.5 <= p+1 = 4: mode undefined
	w2, _ := New(3.5, s)
	if _, err := w2.ModeSym(); !errs.IsKind(err, errs.KindDomain) {
		t.Fatalf("expected KindDomain for undefined mode, got %v", err)
	}
}

// Scalar reduction: Wishart(df, s) with p=1 is Gamma(df/2, scale 2s).
func TestScalarReductionToGamma(t *testing.T) {
	const df, sv = 7.0, 1.6
	s := mustPD(t, mat.NewSymDense(1, []float64{sv}))
	w, err := New(df, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g := distuv.Gamma{Alpha: df / 2, Beta: 1 / (2 * sv)}

	if got, want := w.MeanSym().At(0, 0), g.Mean(); math.Abs(got-want) > 1e-10 {
		t.Fatalf("mean: got %v want %v", got, want)
	}
	if got, want := w.Var(0, 0), g.Variance(); math.Abs(got-want) > 1e-10 {
		t.Fatalf("variance: got %v want %v", got, want)
	}
	if got, want := w.Entropy(), g.Entropy(); math.Abs(got-want) > 1e-9 {
		t.Fatalf("entropy: got %v want %v", got, want)
	}

	for _, x := range []float64{0.5, 3, 11.25} {
		xm := mat.NewSymDense(1, []float64{x})
		lp, err := w.LogProb(xm)
		if err != nil {
			t.Fatalf("logprob(%v): %v", x, err)
		}
		if want := g.LogProb(x); math.Abs(lp-want) > 1e-9 {
			t.Fatalf("logprob(%v): got %v want %v", x, lp, want)
		}
	}
}

func TestCovFormula(t *testing.T) {
	s := scale3(t)
	w, _ := New(5, s)

	if got, want := w.Var(0, 1), w.Cov(0, 1, 0, 1); math.Abs(got-want) > 1e-12 {
		t.Fatalf("var(0,1) must equal cov(0,1,0,1): got %v want %v", got, want)
	}
	want := 5 * (s.At(0, 1)*s.At(1, 2) + s.At(0, 2)*s.At(1, 1))
	if got := w.Cov(0, 1, 1, 2); math.Abs(got-want) > 1e-12 {
		t.Fatalf("cov(0,1,1,2): got %v want %v", got, want)
	}
}

func TestSupportAndDensityGuards(t *testing.T) {
	s := scale3(t)
	w, _ := New(5, s)

	if !w.InSupport(s.Sym()) {
		t.Fatalf("scale matrix itself must be in support")
	}
	if w.InSupport(mat.NewSymDense(2, []float64{1, 0, 0, 1})) {
		t.Fatalf("wrong size must be out of support")
	}
	nonPD := mat.NewSymDense(3, []float64{
		1, 2, 0,
		2, 1, 0,
		0, 0, 1,
	})
	if w.InSupport(nonPD) {
		t.Fatalf("non-PD matrix must be out of support")
	}

	if _, err := w.LogKernel(mat.NewSymDense(2, []float64{1, 0, 0, 1})); !errs.IsKind(err, errs.KindDimensionMismatch) {
		t.Fatalf("expected KindDimensionMismatch, got %v", err)
	}
	if _, err := w.LogKernel(nonPD); !errs.IsKind(err, errs.KindDomain) {
		t.Fatalf("expected KindDomain, got %v", err)
	}

	// finite log density everywhere in support
	lp, err := w.LogProb(w.MeanSym())
	if err != nil {
		t.Fatalf("logprob at mean: %v", err)
	}
	if math.IsNaN(lp) || math.IsInf(lp, 0) {
		t.Fatalf("log density not finite: %v", lp)
	}
}

func TestSampleMeanConvergence(t *testing.T) {
	s := scale3(t)
	const df = 5.0
	w, err := New(df, s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := core.New(core.Default().New(20250825))
	const rounds = 30000
	sum := mat.NewSymDense(3, nil)
	var logdetSum float64
	for r := 0; r < rounds; r++ {
		x := w.RandSym(c)
		sum.AddSym(sum, x)

		var ch mat.Cholesky
		if ok := ch.Factorize(x); !ok {
			t.Fatalf("sampled matrix not positive definite at round %d", r)
		}
		logdetSum += ch.LogDet()
	}

	// law of large numbers: mean of draws -> df*S
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			got := sum.At(i, j) / rounds
			want := df * s.At(i, j)
			se := math.Sqrt(w.Cov(i, j, i, j) / rounds)
			if math.Abs(got-want) > 6*se+1e-9 {
				t.Fatalf("sample mean off at (%d,%d): got %v want %v (se %v)", i, j, got, want, se)
			}
		}
	}

	// empirical mean log-determinant vs closed form
	if got, want := logdetSum/rounds, w.MeanLogDet(); math.Abs(got-want) > 0.03 {
		t.Fatalf("mean logdet: got %v want %v", got, want)
	}
}

func TestSamplingDeterministicPerSeed(t *testing.T) {
	s := scale3(t)
	w, _ := New(5, s)

	x1 := w.RandSym(core.New(core.Default().New(321)))
	x2 := w.RandSym(core.New(core.Default().New(321)))
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if x1.At(i, j) != x2.At(i, j) {
				t.Fatalf("same seed must give identical draws")
			}
		}
	}
}

func TestLogMvGamma(t *testing.T) {
	// p=1 reduces to plain log-gamma
	lg, _ := math.Lgamma(2.5)
	if got := LogMvGamma(1, 2.5); math.Abs(got-lg) > 1e-12 {
		t.Fatalf("p=1: got %v want %v", got, lg)
	}

	// recurrence: logΓ_2(a) = log π/2 + logΓ(a) + logΓ(a-1/2)
	a := 3.2
	lga, _ := math.Lgamma(a)
	lgb, _ := math.Lgamma(a - 0.5)
	want := math.Log(math.Pi)/2 + lga + lgb
	if got := LogMvGamma(2, a); math.Abs(got-want) > 1e-12 {
		t.Fatalf("p=2: got %v want %v", got, want)
	}
}
