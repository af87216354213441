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

package spd

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/zintix-labs/randlab/errs"
)

func sym2x2(a, b, c float64) *mat.SymDense {
	return mat.NewSymDense(2, []float64{a, b, b, c})
}

func TestFromSymRejectsNonPD(t *testing.T) {
	// eigenvalues 3 and -1: not positive definite
	if _, err := FromSym(sym2x2(1, 2, 1)); !errs.IsKind(err, errs.KindInvalidDistribution) {
		t.Fatalf("expected KindInvalidDistribution, got %v", err)
	}
}

func TestCholBasics(t *testing.T) {
	s := sym2x2(4, 1, 3)
	c, err := FromSym(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Dim() != 2 {
		t.Fatalf("dim: got %d want 2", c.Dim())
	}

	// det = 4*3 - 1 = 11
	if got, want := c.LogDet(), math.Log(11); math.Abs(got-want) > 1e-12 {
		t.Fatalf("logdet: got %v want %v", got, want)
	}
	if c.At(0, 1) != 1 || c.At(1, 1) != 3 {
		t.Fatalf("At mismatch")
	}

	// Sym must be a copy: mutating it must not touch the original
	cp := c.Sym()
	cp.SetSym(0, 0, 99)
	if c.At(0, 0) != 4 {
		t.Fatalf("Sym returned a shared reference")
	}
}

func TestUnwhitenRebuildsScale(t *testing.T) {
	s := sym2x2(4, 1, 3)
	c, err := FromSym(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// L*I = L, and L·Lᵀ must rebuild S
	eye := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	var l mat.Dense
	c.UnwhitenTo(&l, eye)

	var rebuilt mat.Dense
	rebuilt.Mul(&l, l.T())
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if math.Abs(rebuilt.At(i, j)-s.At(i, j)) > 1e-12 {
				t.Fatalf("L·Lᵀ != S at (%d,%d): got %v want %v", i, j, rebuilt.At(i, j), s.At(i, j))
			}
		}
	}
}

func TestSolve(t *testing.T) {
	s := sym2x2(4, 1, 3)
	c, err := FromSym(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// S⁻¹·S = I
	var x mat.Dense
	if err := c.SolveTo(&x, s); err != nil {
		t.Fatalf("solve: %v", err)
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			if math.Abs(x.At(i, j)-want) > 1e-12 {
				t.Fatalf("S⁻¹S != I at (%d,%d): got %v", i, j, x.At(i, j))
			}
		}
	}
}

func TestFromChol(t *testing.T) {
	s := sym2x2(4, 1, 3)
	var ch mat.Cholesky
	if ok := ch.Factorize(s); !ok {
		t.Fatalf("factorize failed")
	}

	c, err := FromChol(&ch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if math.Abs(c.At(i, j)-s.At(i, j)) > 1e-12 {
				t.Fatalf("rebuilt S mismatch at (%d,%d)", i, j)
			}
		}
	}
	if math.Abs(c.LogDet()-math.Log(11)) > 1e-12 {
		t.Fatalf("logdet mismatch after FromChol")
	}
}
