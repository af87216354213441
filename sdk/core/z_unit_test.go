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
	"math"
	"slices"
	"testing"
)

func TestCoreDeterminism(t *testing.T) {
	c1 := New(Default().New(7))
	c2 := New(Default().New(7))
	for i := 0; i < 5; i++ {
		if c1.Uint64() != c2.Uint64() {
			t.Fatalf("Uint64 mismatch at %d", i)
		}
	}
	if c1.IntN(10) != c2.IntN(10) {
		t.Fatalf("IntN mismatch")
	}
	if c1.UintN(10) != c2.UintN(10) {
		t.Fatalf("UintN mismatch")
	}
}

func TestPCG32Determinism(t *testing.T) {
	c1 := New(Default32().New(7))
	c2 := New(Default32().New(7))
	for i := 0; i < 5; i++ {
		if c1.Uint64() != c2.Uint64() {
			t.Fatalf("pcg32 Uint64 mismatch at %d", i)
		}
	}
	v := c1.Float64()
	if v < 0 || v >= 1 {
		t.Fatalf("pcg32 Float64 out of [0,1): %v", v)
	}
}

func TestSnapshotRestore(t *testing.T) {
	for name, f := range map[string]CoreFactory{"pcg64": Default(), "pcg32": Default32()} {
		rng := f.New(42)
		for i := 0; i < 10; i++ {
			rng.Uint64()
		}
		snap, err := rng.Snapshot()
		if err != nil {
			t.Fatalf("%s snapshot: %v", name, err)
		}
		want := []uint64{rng.Uint64(), rng.Uint64(), rng.Uint64()}

		fresh := f.New(0)
		if err := fresh.Restore(snap); err != nil {
			t.Fatalf("%s restore: %v", name, err)
		}
		for i, w := range want {
			if got := fresh.Uint64(); got != w {
				t.Fatalf("%s restore diverged at %d: got %d want %d", name, i, got, w)
			}
		}
	}
}

func TestCorePickAndShuffle(t *testing.T) {
	c := New(Default().New(9))
	if got := c.Pick(nil); got != -1 {
		t.Fatalf("expected -1 for empty pick, got %d", got)
	}

	src := []int{1, 2, 3, 4}
	c.ShuffleInts(src)
	if len(src) != 4 {
		t.Fatalf("unexpected length after shuffle")
	}
	want := []int{1, 2, 3, 4}
	got := slices.Clone(src)
	slices.Sort(want)
	slices.Sort(got)
	if !slices.Equal(want, got) {
		t.Fatalf("shuffle changed elements: %v", src)
	}
}

func TestNormAndExpFloat64(t *testing.T) {
	c1 := New(Default().New(11))
	c2 := New(Default().New(11))
	if c1.ExpFloat64() != c2.ExpFloat64() {
		t.Fatalf("expected deterministic ExpFloat64")
	}
	if c1.NormFloat64() != c2.NormFloat64() {
		t.Fatalf("expected deterministic NormFloat64")
	}

	c := New(Default().New(13))
	var sum, sq float64
	const n = 200000
	for i := 0; i < n; i++ {
		v := c.NormFloat64()
		sum += v
		sq += v * v
	}
	mean := sum / n
	variance := sq/n - mean*mean
	if math.Abs(mean) > 0.02 {
		t.Fatalf("norm mean too far from 0: %v", mean)
	}
	if math.Abs(variance-1) > 0.03 {
		t.Fatalf("norm variance too far from 1: %v", variance)
	}
}
