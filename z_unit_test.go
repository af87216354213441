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

package randlab

import (
	"context"
	"math"
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/randlab/dto"
	"github.com/zintix-labs/randlab/scenario"
	"github.com/zintix-labs/randlab/sdk/core"
)

const dieYAML = `
name: loaded_die
id: 1001
kind: discrete
discrete:
  weights: [3, 1, 1, 1]
  labels: [one, two, three, four]
`

const covYAML = `
name: covgen
id: 2001
kind: wishart
wishart:
  df: 5.5
  scale:
    - [2.0, 0.3]
    - [0.3, 1.5]
`

func demoFS() fstest.MapFS {
	return fstest.MapFS{
		"loaded_die.yaml": {Data: []byte(dieYAML)},
		"covgen.yaml":     {Data: []byte(covYAML)},
	}
}

func newLab(t *testing.T) *Lab {
	t.Helper()
	lab, err := NewAuto(core.Default(), Configs(demoFS()))
	if err != nil {
		t.Fatalf("new lab: %v", err)
	}
	return lab
}

func TestLabAssembly(t *testing.T) {
	lab := newLab(t)

	ids := lab.IDs()
	if len(ids) != 2 || ids[0] != 1001 || ids[1] != 2001 {
		t.Fatalf("ids: %v", ids)
	}

	sum, err := lab.Summary()
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum[0].Kind != "discrete" || sum[0].Categories != 4 {
		t.Fatalf("discrete summary: %+v", sum[0])
	}
	if sum[1].Kind != "wishart" || sum[1].Dim != 2 {
		t.Fatalf("wishart summary: %+v", sum[1])
	}

	if _, ok := lab.EntryByName("Loaded_Die"); !ok {
		t.Fatalf("name lookup must be case-insensitive")
	}
}

func TestLabRejectsDuplicateIDs(t *testing.T) {
	dup := fstest.MapFS{
		"a.yaml": {Data: []byte(dieYAML)},
		"b.yaml": {Data: []byte("name: other\nid: 1001\nkind: discrete\ndiscrete:\n  probs: [1.0]\n")},
	}
	if _, err := NewAuto(core.Default(), Configs(dup)); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestMachineDrawDiscrete(t *testing.T) {
	lab := newLab(t)
	m, err := lab.NewMachineWithSeed(1001, 42)
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}

	res, err := m.Draw(&dto.DrawRequest{SID: 1001, Count: 10})
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	if len(res.Draws) != 10 || len(res.Labels) != 10 {
		t.Fatalf("draw shape: %+v", res)
	}
	for i, d := range res.Draws {
		if d < 0 || d > 3 {
			t.Fatalf("draw out of range: %d", d)
		}
		want := []string{"one", "two", "three", "four"}[d]
		if res.Labels[i] != want {
			t.Fatalf("label mismatch at %d", i)
		}
	}
	if res.State.StartSnapB64U == "" || res.State.AfterSnapB64U == "" {
		t.Fatalf("state snapshots must be present")
	}

	// replay from the returned start snapshot must reproduce the draws
	res2, err := m.Draw(&dto.DrawRequest{SID: 1001, Count: 10, StartSnapB64U: res.State.StartSnapB64U})
	if err != nil {
		t.Fatalf("replay draw: %v", err)
	}
	for i := range res.Draws {
		if res.Draws[i] != res2.Draws[i] {
			t.Fatalf("replay mismatch at %d: %d vs %d", i, res.Draws[i], res2.Draws[i])
		}
	}
	if res.State.AfterSnapB64U != res2.State.AfterSnapB64U {
		t.Fatalf("replay must land on the same after-state")
	}
}

func TestMachineDrawWishart(t *testing.T) {
	lab := newLab(t)
	m, err := lab.NewMachineWithSeed(2001, 7)
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}

	res, err := m.Draw(&dto.DrawRequest{SID: 2001, Count: 3})
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	if len(res.Mats) != 3 {
		t.Fatalf("mats: got %d want 3", len(res.Mats))
	}
	for _, mt := range res.Mats {
		if len(mt) != 2 || len(mt[0]) != 2 {
			t.Fatalf("matrix shape: %v", mt)
		}
		if math.Abs(mt[0][1]-mt[1][0]) > 1e-12 {
			t.Fatalf("matrix must be symmetric: %v", mt)
		}
		// diagonal of a PD draw is strictly positive
		if mt[0][0] <= 0 || mt[1][1] <= 0 {
			t.Fatalf("diagonal must be positive: %v", mt)
		}
	}
}

func TestMachineMoments(t *testing.T) {
	lab := newLab(t)
	m, _ := lab.NewMachineWithSeed(2001, 7)

	mo, err := m.Moments()
	if err != nil {
		t.Fatalf("moments: %v", err)
	}
	if mo.Dim != 2 || mo.Df != 5.5 {
		t.Fatalf("moments header: %+v", mo)
	}
	// mean = df * S
	if math.Abs(mo.Mean[0][0]-5.5*2.0) > 1e-12 {
		t.Fatalf("mean mismatch: %v", mo.Mean)
	}
	// df = 5.5 > p+1 = 3: mode defined, (df-p-1)*S
	if mo.Mode == nil || math.Abs(mo.Mode[0][0]-2.5*2.0) > 1e-12 {
		t.Fatalf("mode mismatch: %v", mo.Mode)
	}

	md, _ := lab.NewMachineWithSeed(1001, 7)
	if _, err := md.Moments(); err == nil {
		t.Fatalf("moments on discrete must fail")
	}
}

func TestMachineExpected(t *testing.T) {
	lab := newLab(t)
	m, _ := lab.NewMachineWithSeed(1001, 7)

	exp := m.Expected()
	want := []float64{0.5, 1.0 / 6, 1.0 / 6, 1.0 / 6}
	for i := range want {
		if math.Abs(exp[i]-want[i]) > 1e-9 {
			t.Fatalf("expected[%d]: got %v want %v", i, exp[i], want[i])
		}
	}
}

func TestSimulatorDiscrete(t *testing.T) {
	lab := newLab(t)
	sim, err := lab.NewSimulatorWithSeed(1001, 99)
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}

	r, _, err := sim.Sim(200000, false)
	if err != nil {
		t.Fatalf("sim: %v", err)
	}
	if r.Rounds != 200000 || r.Dropped != 0 {
		t.Fatalf("rounds/dropped: %d/%d", r.Rounds, r.Dropped)
	}
	if r.MaxAbsErr > 0.005 {
		t.Fatalf("empirical frequency too far off: %v", r.MaxAbsErr)
	}
	if r.PValue < 1e-6 {
		t.Fatalf("chi-square rejects a correct sampler: p=%v", r.PValue)
	}

	// wrong kind guards
	if _, _, err := sim.SimMat(10, false); err == nil {
		t.Fatalf("simmat on discrete must fail")
	}
}

func TestSimulatorDiscreteMP(t *testing.T) {
	lab := newLab(t)
	sim, _ := lab.NewSimulatorWithSeed(1001, 123)

	r, _, err := sim.SimMP(50000, 4, false)
	if err != nil {
		t.Fatalf("simmp: %v", err)
	}
	if r.Rounds != 200000 {
		t.Fatalf("merged rounds: got %d want 200000", r.Rounds)
	}
	if r.MaxAbsErr > 0.005 {
		t.Fatalf("empirical frequency too far off: %v", r.MaxAbsErr)
	}
}

func TestSimulatorWishart(t *testing.T) {
	lab := newLab(t)
	sim, _ := lab.NewSimulatorWithSeed(2001, 55)

	r, _, err := sim.SimMat(20000, false)
	if err != nil {
		t.Fatalf("simmat: %v", err)
	}
	if r.Rounds != 20000 {
		t.Fatalf("rounds: %d", r.Rounds)
	}
	// loose LLN bound for 20k draws on a small matrix
	if r.MaxAbsDev > 0.2 {
		t.Fatalf("sample mean too far from df*S: %v", r.MaxAbsDev)
	}
	if math.Abs(r.MeanLogDet-r.WantLogDet) > 0.05 {
		t.Fatalf("mean logdet: got %v want %v", r.MeanLogDet, r.WantLogDet)
	}

	if _, _, err := sim.Sim(10, false); err == nil {
		t.Fatalf("sim on wishart must fail")
	}
}

func TestSimulatorWishartMP(t *testing.T) {
	lab := newLab(t)
	sim, _ := lab.NewSimulatorWithSeed(2001, 56)

	r, _, err := sim.SimMatMP(5000, 4, false)
	if err != nil {
		t.Fatalf("simmatmp: %v", err)
	}
	if r.Rounds != 20000 {
		t.Fatalf("merged rounds: got %d want 20000", r.Rounds)
	}
	if r.MaxAbsDev > 0.2 {
		t.Fatalf("sample mean too far from df*S: %v", r.MaxAbsDev)
	}
}

func TestSeedMakerUniqueness(t *testing.T) {
	sm := newSeedMaker(1)
	seen := map[int64]struct{}{}
	for i := 0; i < 10000; i++ {
		s := sm.next()
		if s < 0 {
			t.Fatalf("seed must be non-negative: %d", s)
		}
		if _, ok := seen[s]; ok {
			t.Fatalf("seed repeated at %d", i)
		}
		seen[s] = struct{}{}
	}
}

func TestRuntimeDraw(t *testing.T) {
	lab := newLab(t)
	rt, err := lab.BuildRuntime(2)
	if err != nil {
		t.Fatalf("build runtime: %v", err)
	}
	defer rt.Close()

	ctx := context.Background()

	res, err := rt.Draw(ctx, &dto.DrawRequest{SID: 1001, Count: 5})
	if err != nil {
		t.Fatalf("draw by sid: %v", err)
	}
	if len(res.Draws) != 5 {
		t.Fatalf("draws: %v", res.Draws)
	}

	// route by name
	res, err = rt.Draw(ctx, &dto.DrawRequest{Scenario: "covgen", Count: 1})
	if err != nil {
		t.Fatalf("draw by name: %v", err)
	}
	if len(res.Mats) != 1 {
		t.Fatalf("mats: %v", res.Mats)
	}

	if _, err := rt.Draw(ctx, &dto.DrawRequest{SID: 999}); err == nil {
		t.Fatalf("unknown sid must fail")
	}

	rt.Close()
	if _, err := rt.Draw(ctx, &dto.DrawRequest{SID: 1001}); err == nil {
		t.Fatalf("draw after close must fail")
	}
}

func TestRuntimeDrawCanceled(t *testing.T) {
	lab := newLab(t)
	rt, err := lab.BuildRuntime(1)
	if err != nil {
		t.Fatalf("build runtime: %v", err)
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := rt.Draw(ctx, &dto.DrawRequest{SID: 1001}); err == nil {
		t.Fatalf("canceled context must fail")
	}
}

func TestMachineByYAMLAndSnapshotRoundTrip(t *testing.T) {
	lab := newLab(t)
	m, err := lab.NewMachineByYAML([]byte(dieYAML), 77)
	if err != nil {
		t.Fatalf("machine by yaml: %v", err)
	}
	if m.Kind() != scenario.KindDiscrete || m.InitSeed() != 77 {
		t.Fatalf("machine header: kind=%v seed=%d", m.Kind(), m.InitSeed())
	}

	snap, err := m.SnapshotCore()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	first := m.DrawInternal()
	for i := 0; i < 100; i++ {
		m.DrawInternal()
	}
	if err := m.RestoreCore(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got := m.DrawInternal(); got != first {
		t.Fatalf("restore must rewind the stream: got %d want %d", got, first)
	}
}
