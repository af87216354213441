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

package recorder

import (
	"bytes"
	"io"
	"math"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestTraceRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	tr, err := NewTrace(&buf)
	if err != nil {
		t.Fatalf("new trace: %v", err)
	}

	want := []int{2, 0, 5, 1}
	for r, idx := range want {
		if err := tr.Draw(r, idx); err != nil {
			t.Fatalf("draw: %v", err)
		}
	}
	x := mat.NewSymDense(2, []float64{4, 1, 1, 3})
	if err := tr.DrawMat(len(want), x); err != nil {
		t.Fatalf("draw mat: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	rd, err := NewTraceReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	defer rd.Close()

	for r, idx := range want {
		ev, err := rd.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if ev.Round != r || ev.Idx != idx {
			t.Fatalf("event %d: got %+v", r, ev)
		}
	}

	ev, err := rd.Next()
	if err != nil {
		t.Fatalf("next mat: %v", err)
	}
	got, err := ev.SymOf()
	if err != nil {
		t.Fatalf("symof: %v", err)
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if math.Abs(got.At(i, j)-x.At(i, j)) > 0 {
				t.Fatalf("matrix mismatch at (%d,%d)", i, j)
			}
		}
	}

	if _, err := rd.Next(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestTraceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draws.jsonl.zst")
	tr, err := CreateTrace(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := tr.Draw(0, 3); err != nil {
		t.Fatalf("draw: %v", err)
	}
	if err := tr.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	rd, err := OpenTrace(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rd.Close()
	ev, err := rd.Next()
	if err != nil || ev.Idx != 3 {
		t.Fatalf("round trip through file failed: %+v %v", ev, err)
	}
}

func TestMalformedMatEvent(t *testing.T) {
	ev := DrawEvent{Dim: 2, Mat: []float64{1, 2}}
	if _, err := ev.SymOf(); err == nil {
		t.Fatalf("expected error for malformed matrix payload")
	}
}
