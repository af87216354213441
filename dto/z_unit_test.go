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

package dto

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestDrawRequestValid(t *testing.T) {
	r := &DrawRequest{SID: 1}
	if err := r.Valid(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Count != 1 {
		t.Fatalf("count default: got %d want 1", r.Count)
	}

	bad := []*DrawRequest{
		{},                                      // no scenario
		{SID: 1, Count: -1},                     // negative count
		{SID: 1, Count: MaxDrawCount + 1},       // over cap
	}
	for i, b := range bad {
		if err := b.Valid(); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestSimRequestValid(t *testing.T) {
	r := &SimRequest{Scenario: "die", Rounds: 100}
	if err := r.Valid(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Workers != 1 {
		t.Fatalf("workers default: got %d want 1", r.Workers)
	}

	bad := []*SimRequest{
		{Rounds: 100},
		{Scenario: "die", Rounds: 0},
		{Scenario: "die", Rounds: MaxSimRounds + 1},
		{Scenario: "die", Rounds: 1, Workers: -1},
	}
	for i, b := range bad {
		if err := b.Valid(); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestMatDTO(t *testing.T) {
	if MatDTO(nil) != nil {
		t.Fatalf("nil in, nil out")
	}
	s := mat.NewSymDense(2, []float64{4, 1, 1, 3})
	d := MatDTO(s)
	if len(d) != 2 || d[0][1] != 1 || d[1][1] != 3 {
		t.Fatalf("mat dto mismatch: %v", d)
	}
}
