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

package scenario

import (
	"math"
	"testing"
)

const discreteYAML = `
name: loaded_die
id: 1001
kind: discrete
discrete:
  weights: [3, 1, 1, 1]
  labels: [one, two, three, four]
`

const wishartYAML = `
name: covgen
id: 2001
kind: wishart
wishart:
  df: 5.5
  scale:
    - [2.0, 0.3]
    - [0.3, 1.5]
`

func TestGetSettingByYAMLDiscrete(t *testing.T) {
	s, err := GetSettingByYAML([]byte(discreteYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Kind != KindDiscrete || s.ID != 1001 || s.Name != "loaded_die" {
		t.Fatalf("header mismatch: %+v", s)
	}
	if s.Discrete.Categories() != 4 {
		t.Fatalf("categories: got %d want 4", s.Discrete.Categories())
	}
	// weights 3:1:1:1 normalize to 0.5, 1/6, 1/6, 1/6
	if math.Abs(s.Discrete.Dist[0]-0.5) > 1e-12 {
		t.Fatalf("dist[0]: got %v want 0.5", s.Discrete.Dist[0])
	}
	sum := 0.0
	for _, p := range s.Discrete.Dist {
		sum += p
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Fatalf("dist must sum to 1, got %v", sum)
	}
}

func TestGetSettingByYAMLWishart(t *testing.T) {
	s, err := GetSettingByYAML([]byte(wishartYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Kind != KindWishart || s.Wishart.Dim() != 2 {
		t.Fatalf("header mismatch: %+v", s)
	}
	if s.Wishart.ScaleSym.At(0, 1) != 0.3 {
		t.Fatalf("scale sym not built")
	}
}

func TestGetSettingByJSON(t *testing.T) {
	raw := []byte(`{"name":"die","id":7,"kind":"discrete","discrete":{"probs":[0.5,0.5]}}`)
	s, err := GetSettingByJSON(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Kind != KindDiscrete || len(s.Discrete.Dist) != 2 {
		t.Fatalf("json parse mismatch: %+v", s)
	}
}

func TestSettingValidation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"bad kind", "name: x\nid: 1\nkind: gaussian\n"},
		{"missing section", "name: x\nid: 1\nkind: discrete\n"},
		{"both sections", discreteYAML + "wishart:\n  df: 5\n  scale:\n    - [1.0]\n"},
		{"empty name", "id: 1\nkind: discrete\ndiscrete:\n  probs: [1.0]\n"},
		{"probs and weights", "name: x\nid: 1\nkind: discrete\ndiscrete:\n  probs: [1.0]\n  weights: [1]\n"},
		{"negative weight", "name: x\nid: 1\nkind: discrete\ndiscrete:\n  weights: [1, -1]\n"},
		{"zero weights", "name: x\nid: 1\nkind: discrete\ndiscrete:\n  weights: [0, 0]\n"},
		{"label mismatch", "name: x\nid: 1\nkind: discrete\ndiscrete:\n  probs: [1.0]\n  labels: [a, b]\n"},
		{"ragged scale", "name: x\nid: 1\nkind: wishart\nwishart:\n  df: 5\n  scale:\n    - [1.0, 0.0]\n    - [0.0]\n"},
		{"asymmetric scale", "name: x\nid: 1\nkind: wishart\nwishart:\n  df: 5\n  scale:\n    - [1.0, 0.5]\n    - [0.2, 1.0]\n"},
		{"df too small", "name: x\nid: 1\nkind: wishart\nwishart:\n  df: 1\n  scale:\n    - [1.0, 0.0]\n    - [0.0, 1.0]\n"},
	}
	for _, tc := range cases {
		if _, err := GetSettingByYAML([]byte(tc.yaml)); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestDecodeExtra(t *testing.T) {
	s, err := GetSettingByYAML([]byte(discreteYAML + "extra:\n  note: hello\n  trials: 42\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	type extra struct {
		Note   string `yaml:"note"`
		Trials int    `yaml:"trials"`
	}
	var e extra
	if err := DecodeExtra(s, &e); err != nil {
		t.Fatalf("decode extra: %v", err)
	}
	if e.Note != "hello" || e.Trials != 42 {
		t.Fatalf("extra mismatch: %+v", e)
	}

	// unknown fields rejected
	type strict struct {
		Note string `yaml:"note"`
	}
	var st strict
	if err := DecodeExtra(s, &st); err == nil {
		t.Fatalf("expected strict decode to fail on unknown field")
	}
}
