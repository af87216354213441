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
	"crypto/rand"
	"math"
	"math/big"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/zintix-labs/randlab/corefmt"
	"github.com/zintix-labs/randlab/dto"
	"github.com/zintix-labs/randlab/errs"
	"github.com/zintix-labs/randlab/scenario"
	"github.com/zintix-labs/randlab/sdk/core"
	"github.com/zintix-labs/randlab/sdk/sampler"
	"github.com/zintix-labs/randlab/sdk/spd"
	"github.com/zintix-labs/randlab/sdk/wishart"
)

// Machine 封裝一台「可對外提供 Draw」的抽樣機台。
//
// 你可以把 Machine 視為場景的「外殼（shell）」：
//   - 對外：提供 Draw 入口（HTTP/模擬器通常只操作 Machine）。
//   - 對內：持有 RNG（Core）與場景對應的抽樣結構（alias table 或 Wishart 分布）。
//
// 並發語意：
//   - 同一台 Machine 不應被多 goroutine 同時 Draw；Draw 內含 mutex 保護 RNG 狀態一致性。
//   - 若要併發模擬，由更高層建立多台 Machine 分散到不同 worker（見 Simulator / MachinePool）。
//
// 熱路徑語意：
//   - DrawInternal / DrawMatInternal 不加鎖、不配置（矩陣除外），給單一擁有者的模擬迴圈用。
//
// initseed 用於記錄出生時的 seed（追溯/重現的基礎資訊）；完整審計仍以 Core 的 Snapshot/Restore 為準。
type Machine struct {
	name     string
	sid      scenario.SID
	kind     scenario.Kind
	core     *core.Core
	picker   *sampler.AliasTable // discrete 場景的抽樣表
	labels   []string
	dist     *wishart.Wishart // wishart 場景的分布
	mu       sync.Mutex
	initseed int64
}

// newMachine 以「隨機 seed」建立 Machine。
//
// 這裡使用 crypto/rand 產生 seed 是為了：
//   - 在對外服務情境避免可預測 RNG
//   - 同時保留可追溯性（seed 會被記錄在 Machine.initseed）
func newMachine(st *scenario.Setting, cf core.CoreFactory) (*Machine, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return nil, errs.Wrap(err, "new crypto seed error in go std lib")
	}
	return newMachineWithSeed(st, cf, seed.Int64())
}

// newMachineWithSeed 以指定 seed 建立 Machine。
//
// 這是最常用的「可重現」入口：同一份 Setting + 同一個 seed，應能得到一致的隨機序列（取決於 Core 實作）。
func newMachineWithSeed(st *scenario.Setting, cf core.CoreFactory, seed int64) (*Machine, error) {
	m := &Machine{
		name:     st.Name,
		sid:      st.ID,
		kind:     st.Kind,
		core:     core.New(cf.New(seed)),
		initseed: seed,
	}

	switch st.Kind {
	case scenario.KindDiscrete:
		picker, err := sampler.New(st.Discrete.Dist)
		if err != nil {
			return nil, err
		}
		m.picker = picker
		m.labels = st.Discrete.Labels
	case scenario.KindWishart:
		ch, err := spd.FromSym(st.Wishart.ScaleSym)
		if err != nil {
			return nil, err
		}
		w, err := wishart.New(st.Wishart.Df, ch)
		if err != nil {
			return nil, err
		}
		m.dist = w
	default:
		return nil, errs.NewFatal("scenario kind not set")
	}

	return m, nil
}

func (m *Machine) Name() string        { return m.name }
func (m *Machine) SID() scenario.SID   { return m.sid }
func (m *Machine) Kind() scenario.Kind { return m.kind }
func (m *Machine) InitSeed() int64     { return m.initseed }

// Draw 為主要公開入口，會驗證請求，執行抽樣並回傳結果 DTO。
//
// 結果一定附帶抽樣前/後的 core snapshot（Base64URL），作為審計與回放的依據。
func (m *Machine) Draw(r *dto.DrawRequest) (dto.DrawResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := r.Valid(); err != nil {
		return dto.DrawResult{}, err
	}

	// 指定起點：先還原 core 狀態
	if r.StartSnapB64U != "" {
		snap, err := corefmt.DecodeBase64URL(r.StartSnapB64U)
		if err != nil {
			return dto.DrawResult{}, errs.Wrap(err, "invalid start snapshot")
		}
		if err := m.core.Restore(snap); err != nil {
			return dto.DrawResult{}, errs.Wrap(err, "restore core failed")
		}
	}

	before, err := m.core.Snapshot()
	if err != nil {
		return dto.DrawResult{}, errs.Wrap(err, "snapshot core failed")
	}

	res := dto.DrawResult{
		Scenario: m.name,
		SID:      m.sid,
		Kind:     m.kind.String(),
	}

	switch m.kind {
	case scenario.KindDiscrete:
		res.Draws = make([]int, r.Count)
		for i := range res.Draws {
			res.Draws[i] = m.picker.Pick(m.core)
		}
		if len(m.labels) > 0 {
			res.Labels = make([]string, r.Count)
			for i, d := range res.Draws {
				res.Labels[i] = m.labels[d]
			}
		}
	case scenario.KindWishart:
		res.Mats = make([][][]float64, r.Count)
		for i := range res.Mats {
			res.Mats[i] = dto.MatDTO(m.dist.RandSym(m.core))
		}
	}

	after, err := m.core.Snapshot()
	if err != nil {
		return dto.DrawResult{}, errs.Wrap(err, "snapshot core failed")
	}
	res.State = dto.DrawState{
		StartSnapB64U: corefmt.EncodeBase64URL(before),
		AfterSnapB64U: corefmt.EncodeBase64URL(after),
	}

	return res, nil
}

// Moments Wishart 場景的閉式動差（mean/mode/entropy/E[log|X|]）。
// discrete 場景沒有這個端點。
func (m *Machine) Moments() (dto.MomentsResult, error) {
	if m.kind != scenario.KindWishart {
		return dto.MomentsResult{}, errs.NewWarn("moments only defined for wishart scenarios")
	}

	res := dto.MomentsResult{
		Scenario:     m.name,
		SID:          m.sid,
		Df:           m.dist.Df(),
		Dim:          m.dist.Dim(),
		Mean:         dto.MatDTO(m.dist.MeanSym()),
		Entropy:      m.dist.Entropy(),
		MeanLogDet:   m.dist.MeanLogDet(),
		LogNormConst: m.dist.LogNormConst(),
	}
	if mode, err := m.dist.ModeSym(); err == nil {
		res.Mode = dto.MatDTO(mode)
	}
	return res, nil
}

// Expected 回傳 discrete 場景的理論機率向量（報表比對用）。
func (m *Machine) Expected() []float64 {
	if m.picker == nil {
		return nil
	}
	exp := make([]float64, m.picker.Size)
	n := float64(m.picker.Size)
	for i := range exp {
		exp[i] = m.picker.Accept[i] / n
	}
	for i, a := range m.picker.Alias {
		if a != i {
			exp[a] += (1 - m.picker.Accept[i]) / n
		}
	}
	return exp
}

// Wishart 回傳 wishart 場景的分布物件（nil 表示非 wishart 場景）。
func (m *Machine) Wishart() *wishart.Wishart {
	return m.dist
}

// DrawInternal 離散場景熱路徑：不加鎖，單一擁有者使用。
func (m *Machine) DrawInternal() int {
	return m.picker.Pick(m.core)
}

// DrawMatInternal Wishart 場景熱路徑：不加鎖，單一擁有者使用。
func (m *Machine) DrawMatInternal() *mat.SymDense {
	return m.dist.RandSym(m.core)
}

// SnapshotCore 匯出 core 當前狀態。
func (m *Machine) SnapshotCore() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.core.Snapshot()
}

// RestoreCore 以先前匯出的狀態還原 core。
func (m *Machine) RestoreCore(snap []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.core.Restore(snap)
}
