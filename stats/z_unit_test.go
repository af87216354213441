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

package stats

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/zintix-labs/randlab/errs"
)

func TestFreqReportBasics(t *testing.T) {
	r, err := NewFreqReport("die", []float64{0.5, 0.3, 0.2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 5:3:2 over 10 records, plus one out-of-range draw
	for i, n := range []int{5, 3, 2} {
		for k := 0; k < n; k++ {
			r.Record(i)
		}
	}
	r.Record(7)
	r.Record(-1)

	r.Done()
	if r.Rounds != 10 || r.Dropped != 2 {
		t.Fatalf("rounds/dropped: got %d/%d", r.Rounds, r.Dropped)
	}
	for i, want := range []float64{0.5, 0.3, 0.2} {
		if r.Freq[i] != want {
			t.Fatalf("freq[%d]: got %v want %v", i, r.Freq[i], want)
		}
		if r.FreqCI[i].Lo > want || r.FreqCI[i].Hi < want {
			t.Fatalf("ci[%d] does not bracket the point estimate", i)
		}
	}
	if r.Chi2 != 0 || r.MaxAbsErr != 0 {
		t.Fatalf("exact match must give chi2=0, maxerr=0: got %v/%v", r.Chi2, r.MaxAbsErr)
	}
	if r.PValue < 0.999 {
		t.Fatalf("exact match must give p-value ~1: got %v", r.PValue)
	}
}

func TestFreqReportRejectsEmpty(t *testing.T) {
	if _, err := NewFreqReport("bad", nil); !errs.IsKind(err, errs.KindInvalidDistribution) {
		t.Fatalf("expected KindInvalidDistribution, got %v", err)
	}
}

func TestFreqReportMerge(t *testing.T) {
	exp := []float64{0.6, 0.4}
	a, _ := NewFreqReport("a", exp)
	b, _ := NewFreqReport("b", exp)
	for i := 0; i < 6; i++ {
		a.Record(0)
	}
	for i := 0; i < 4; i++ {
		b.Record(1)
	}

	if err := a.Merge(b); err != nil {
		t.Fatalf("merge: %v", err)
	}
	a.Done()
	if a.Rounds != 10 || a.Freq[0] != 0.6 || a.Freq[1] != 0.4 {
		t.Fatalf("merged freq mismatch: %+v", a.Freq)
	}

	c, _ := NewFreqReport("c", []float64{1.0})
	if err := a.Merge(c); !errs.IsKind(err, errs.KindDimensionMismatch) {
		t.Fatalf("expected KindDimensionMismatch, got %v", err)
	}
}

func TestChiSquareGOF(t *testing.T) {
	// perfect fit
	chi2, p := ChiSquareGOF([]int{50, 30, 20}, []float64{0.5, 0.3, 0.2}, 100)
	if chi2 != 0 || p < 0.999 {
		t.Fatalf("perfect fit: chi2=%v p=%v", chi2, p)
	}

	// gross misfit must have a tiny p-value
	_, p = ChiSquareGOF([]int{100, 0, 0}, []float64{0.1, 0.45, 0.45}, 100)
	if p > 1e-6 {
		t.Fatalf("gross misfit p-value too large: %v", p)
	}

	// zero-probability categories excluded from dof
	chi2, p = ChiSquareGOF([]int{100, 0}, []float64{1.0, 0.0}, 100)
	if chi2 != 0 || p != 1 {
		t.Fatalf("single live category: chi2=%v p=%v", chi2, p)
	}
}

func TestMatReport(t *testing.T) {
	s := mat.NewSymDense(2, []float64{4, 1, 1, 3})
	expMean := mat.NewSymDense(2, nil)
	expMean.ScaleSym(5, s) // df = 5

	r, err := NewMatReport("wishart", 5, expMean, 2.0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// record the expected mean itself twice: mean dev must be 0
	for i := 0; i < 2; i++ {
		if err := r.Record(expMean); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	r.Done()
	if r.Rounds != 2 || r.MaxAbsDev > 1e-12 {
		t.Fatalf("rounds=%d maxdev=%v", r.Rounds, r.MaxAbsDev)
	}
	// logdet(5S) = log(25*11)
	if want := math.Log(275.0); math.Abs(r.MeanLogDet-want) > 1e-9 {
		t.Fatalf("mean logdet: got %v want %v", r.MeanLogDet, want)
	}
}

func TestMatReportGuards(t *testing.T) {
	s := mat.NewSymDense(2, []float64{4, 1, 1, 3})
	r, _ := NewMatReport("w", 5, s, 0)

	if err := r.Record(mat.NewSymDense(3, nil)); !errs.IsKind(err, errs.KindDimensionMismatch) {
		t.Fatalf("expected KindDimensionMismatch, got %v", err)
	}
	nonPD := mat.NewSymDense(2, []float64{1, 2, 2, 1})
	if err := r.Record(nonPD); !errs.IsKind(err, errs.KindDomain) {
		t.Fatalf("expected KindDomain, got %v", err)
	}

	o, _ := NewMatReport("o", 5, mat.NewSymDense(3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}), 0)
	if err := r.Merge(o); !errs.IsKind(err, errs.KindDimensionMismatch) {
		t.Fatalf("expected KindDimensionMismatch on merge, got %v", err)
	}
}

func TestMatReportMerge(t *testing.T) {
	s := mat.NewSymDense(2, []float64{4, 1, 1, 3})
	a, _ := NewMatReport("a", 5, s, 0)
	b, _ := NewMatReport("b", 5, s, 0)
	if err := a.Record(s); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := b.Record(s); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := a.Merge(b); err != nil {
		t.Fatalf("merge: %v", err)
	}
	a.Done()
	if a.Rounds != 2 || a.MaxAbsDev > 1e-12 {
		t.Fatalf("merged report off: rounds=%d maxdev=%v", a.Rounds, a.MaxAbsDev)
	}
}

func TestRenders(t *testing.T) {
	r, _ := NewFreqReport("die", []float64{0.5, 0.5})
	r.Record(0)
	r.Record(1)

	var jb bytes.Buffer
	if err := r.WriteWith(&jb, &JsonRender{}); err != nil {
		t.Fatalf("json render: %v", err)
	}
	var back FreqReport
	if err := json.Unmarshal(jb.Bytes(), &back); err != nil {
		t.Fatalf("json output invalid: %v", err)
	}
	if back.Name != "die" || back.Rounds != 2 {
		t.Fatalf("json round trip mismatch: %+v", back)
	}

	var yb bytes.Buffer
	if err := r.WriteWith(&yb, &YAMLRender{}); err != nil {
		t.Fatalf("yaml render: %v", err)
	}
	// one-dimensional sequences come out in flow style
	if !strings.Contains(yb.String(), "[") {
		t.Fatalf("expected flow-style sequences in yaml output:\n%s", yb.String())
	}
}
