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

package sampler

import (
	"math"
	"slices"
	"testing"

	"github.com/zintix-labs/randlab/errs"
	"github.com/zintix-labs/randlab/sdk/core"
)

// -----------------------------------------------------------------------------
// Helper Functions
// -----------------------------------------------------------------------------

// checkFreq verifies that empirical frequencies converge to the expected
// probabilities within tolerance.
func checkFreq(t *testing.T, name string, probs []float64, samples []int, tolerance float64) {
	t.Helper()
	counts := make([]int, len(probs))
	for _, idx := range samples {
		if idx < 0 || idx >= len(probs) {
			t.Fatalf("[%s] sampled index out of range: %d", name, idx)
		}
		counts[idx]++
	}
	total := float64(len(samples))
	for i, p := range probs {
		got := float64(counts[i]) / total
		if diff := math.Abs(got - p); diff > tolerance {
			t.Errorf("[%s] index %d: expected prob %.4f, got %.4f (diff %.4f > tol %.4f)",
				name, i, p, got, diff, tolerance)
		}
	}
}

// -----------------------------------------------------------------------------
// AliasTable
// -----------------------------------------------------------------------------

func TestAliasTableInvalidInputs(t *testing.T) {
	cases := map[string][]float64{
		"empty":    {},
		"negative": {0.5, -0.1, 0.6},
		"sum_low":  {0.2, 0.2, 0.2},
		"sum_high": {0.9, 0.9},
	}
	for name, probs := range cases {
		if _, err := New(probs); !errs.IsKind(err, errs.KindInvalidDistribution) {
			t.Errorf("[%s] expected KindInvalidDistribution, got %v", name, err)
		}
	}
}

func TestAliasTableInvariant(t *testing.T) {
	vectors := [][]float64{
		{1.0},
		{0.5, 0.5},
		{0.1, 0.2, 0.3, 0.4},
		{0.97, 0.01, 0.01, 0.01},
		{0.25, 0.25, 0.25, 0.25},
		{1e-9, 0.5 - 5e-10, 0.5 - 5e-10},
	}
	for _, probs := range vectors {
		at, err := New(probs)
		if err != nil {
			t.Fatalf("unexpected error for %v: %v", probs, err)
		}
		if at.Size != len(probs) {
			t.Fatalf("size mismatch: got %d want %d", at.Size, len(probs))
		}
		for i := 0; i < at.Size; i++ {
			if at.Accept[i] < 0 || at.Accept[i] > 1 {
				t.Errorf("accept[%d] = %v out of [0,1] for %v", i, at.Accept[i], probs)
			}
			if at.Alias[i] < 0 || at.Alias[i] >= at.Size {
				t.Errorf("alias[%d] = %d out of range for %v", i, at.Alias[i], probs)
			}
		}

		// reconstruct the input distribution from the table:
		// p[i] = (accept[i] + sum over j with alias[j]=i of (1-accept[j])) / n
		rebuilt := make([]float64, at.Size)
		for i := 0; i < at.Size; i++ {
			rebuilt[i] += at.Accept[i]
			if at.Accept[i] < 1 {
				rebuilt[at.Alias[i]] += 1 - at.Accept[i]
			}
		}
		for i := range rebuilt {
			rebuilt[i] /= float64(at.Size)
			if math.Abs(rebuilt[i]-probs[i]) > 1e-9 {
				t.Errorf("table does not reproduce input at %d: got %v want %v (probs %v)",
					i, rebuilt[i], probs[i], probs)
			}
		}
	}
}

func TestAliasTableDegenerate(t *testing.T) {
	at, err := New([]float64{1.0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := core.New(core.Default().New(1))
	for i := 0; i < 100; i++ {
		if got := at.Pick(c); got != 0 {
			t.Fatalf("degenerate table must always sample 0, got %d", got)
		}
	}

	var empty AliasTable
	if got := empty.Pick(c); got != -1 {
		t.Fatalf("empty table must return -1, got %d", got)
	}
}

func TestAliasTableFrequencies(t *testing.T) {
	probs := []float64{0.1, 0.2, 0.3, 0.4}
	at, err := New(probs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	c := core.New(core.Default().New(20250825))
	const rounds = 400000
	samples := make([]int, rounds)
	for i := range samples {
		samples[i] = at.Pick(c)
	}
	checkFreq(t, "alias", probs, samples, 0.005)
}

func TestAliasTableFromWeights(t *testing.T) {
	at, err := NewFromWeights([]int{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := core.New(core.Default().New(99))
	const rounds = 200000
	samples := make([]int, rounds)
	for i := range samples {
		samples[i] = at.Pick(c)
	}
	checkFreq(t, "from_weights", []float64{0.1, 0.2, 0.3, 0.4}, samples, 0.006)

	if _, err := NewFromWeights([]float64{0, 0}); !errs.IsKind(err, errs.KindInvalidDistribution) {
		t.Fatalf("expected KindInvalidDistribution for all-zero weights, got %v", err)
	}
	if _, err := NewFromWeights([]int{3, -1}); !errs.IsKind(err, errs.KindInvalidDistribution) {
		t.Fatalf("expected KindInvalidDistribution for negative weight, got %v", err)
	}
}

// -----------------------------------------------------------------------------
// LUT
// -----------------------------------------------------------------------------

func TestLUT(t *testing.T) {
	lut, err := BuildLUT([]int{3, 5, 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lut) != 8 {
		t.Fatalf("lut length: got %d want 8", len(lut))
	}

	c := core.New(core.Default().New(5))
	const rounds = 200000
	samples := make([]int, rounds)
	for i := range samples {
		samples[i] = lut.Pick(c)
		if samples[i] == 2 {
			t.Fatalf("zero-weight index sampled")
		}
	}
	checkFreq(t, "lut", []float64{3.0 / 8, 5.0 / 8, 0}, samples, 0.006)

	if _, err := BuildLUT([]int{0, 0}); !errs.IsKind(err, errs.KindInvalidDistribution) {
		t.Fatalf("expected KindInvalidDistribution for all-zero lut, got %v", err)
	}
	if _, err := BuildLUT([]int{-1}); !errs.IsKind(err, errs.KindInvalidDistribution) {
		t.Fatalf("expected KindInvalidDistribution for negative lut weight, got %v", err)
	}
}

// -----------------------------------------------------------------------------
// Weighted shuffle / sample
// -----------------------------------------------------------------------------

func TestWeightedShuffle(t *testing.T) {
	c := core.New(core.Default().New(17))
	order, err := WeightedShuffle(c, []float64{1, 0, 2, 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 4 {
		t.Fatalf("order length: got %d want 4", len(order))
	}
	if order[len(order)-1] != 1 {
		t.Fatalf("zero-weight index must be last, got order %v", order)
	}
	sorted := slices.Clone(order)
	slices.Sort(sorted)
	if !slices.Equal(sorted, []int{0, 1, 2, 3}) {
		t.Fatalf("order is not a permutation: %v", order)
	}

	if _, err := WeightedShuffle(c, []float64{1, -2}); !errs.IsKind(err, errs.KindInvalidDistribution) {
		t.Fatalf("expected KindInvalidDistribution, got %v", err)
	}
}

func TestWeightedSample(t *testing.T) {
	c := core.New(core.Default().New(23))
	got, err := WeightedSample(c, []int{0, 10, 0, 7}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// only two indices carry weight; result must be exactly those two
	sorted := slices.Clone(got)
	slices.Sort(sorted)
	if !slices.Equal(sorted, []int{1, 3}) {
		t.Fatalf("expected {1,3}, got %v", got)
	}

	if res, _ := WeightedSample(c, []int{1, 2, 3}, 0); len(res) != 0 {
		t.Fatalf("k=0 must return empty, got %v", res)
	}
}
