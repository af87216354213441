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

// Package randlab 提供抽樣實驗引擎的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// 你可以把 Randlab 視為一個「可被後端/模擬器使用的 runtime」，它負責把兩個必需的地基組裝在一起，並提供建立 Machine 的入口：
//  1. Catalog：場景目錄（Single Source of Truth / SSOT），定義有哪些抽樣場景、各自對應的設定檔名稱（ConfigName）。
//  2. CoreFactory：亂數核心工廠（PRNG factory），保證可重現（reproducible）與可審計（auditable）。
//
// 設計重點：
//   - Randlab 本身不綁定任何「檔案路徑」概念：設定檔來源一律以 fs.FS 的形式注入。
//   - Machine 是對外提供 Draw 的最小單位；場景類型（discrete/wishart）決定機台內部的抽樣結構。
//
// 典型使用情境：
//   - 後端服務（HTTP）：由 Randlab 建立 Machine，Machine 對外提供 Draw。
//   - 模擬器（sim）：由 Randlab 建立多台 Machine 進行大量模擬與統計檢定。
package randlab

import (
	"crypto/rand"
	"fmt"
	"io/fs"
	"math"
	"math/big"
	"path/filepath"
	"strings"

	"github.com/zintix-labs/randlab/catalog"
	"github.com/zintix-labs/randlab/errs"
	"github.com/zintix-labs/randlab/scenario"
	"github.com/zintix-labs/randlab/sdk/core"
)

// Configs 用來把一或多個設定檔來源（fs.FS）打包成 New() 需要的參數。
//
// 為什麼是 fs.FS：
//   - 你可以用 go:embed 把 configs 直接編進 binary（部署最穩定，不依賴工作目錄）。
//   - 也可以用 os.DirFS 在本機開發時讀取目錄。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Lab 是「組裝器（assembler）」與「運行入口（runtime entry）」。
//
// 使用流程通常分成兩階段：
//   - 註冊/組裝階段（registration/build）：建立 catalog、檢查重複與缺漏。
//   - 執行階段（runtime）：依據場景 ID 產生 Machine，並在 Machine 上執行 Draw。
//
// 重要設計原則：
//   - Catalog 的 ID 唯一性只保證在「同一個 Lab instance」內。
//   - runtime 一旦開始（例如已建立 Machine 並對外服務），不建議再變更 Catalog。
type Lab struct {
	cat *catalog.Catalog
	cf  core.CoreFactory
	sum []catalog.Summary
}

// New 建立一個 Lab instance。
//
// 參數要求（是合約的一部分）：
//   - cf 不能為 nil：沒有 RNG 工廠就無法建立可重現/可審計的核心。
//   - cfgs 至少一個：沒有設定檔來源，Catalog 無法解析場景設定。
func New(cf core.CoreFactory, cfgs []fs.FS) (*Lab, error) {
	if cf == nil {
		return nil, errs.NewFatal("core factory required")
	}
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("configs required")
	}
	cata, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	return &Lab{cat: cata, cf: cf}, nil
}

// NewAuto 建立一個直接進入執行階段的 Lab instance。
func NewAuto(cf core.CoreFactory, cfgs []fs.FS) (*Lab, error) {
	lab, err := New(cf, cfgs)
	if err != nil {
		return nil, err
	}
	if err := lab.RegisterAll(); err != nil {
		return nil, err
	}
	lab.Freeze()
	return lab, nil
}

func (l *Lab) Register(ents ...catalog.Entry) error {
	return l.cat.Register(ents...)
}

// RegisterAll
//
// 會掃描 catalog 持有的設定檔來源（fs.FS），把所有可辨識的設定檔（.yaml/.yml/.json）嘗試解析成
// *scenario.Setting，並用設定檔內宣告的 ID/Name 產生對應的 catalog.Entry 來批次註冊。
//
// 行為特性（重要）：
//  1. Fail-fast：任何一個檔案讀取/解析/基本檢查失敗，都會立刻回傳 error。
//  2. 原子性：只有當「全部檔案」都成功解析並通過基本檢查時，才會呼叫 Register(...) 一次性寫入。
//  3. 穩定性：依檔名排序後再處理，確保行為 determinism。
func (l *Lab) RegisterAll() error {
	cfgs := l.cat.Cfg()
	sources := cfgs.Sources()
	if len(sources) == 0 {
		return errs.NewFatal("configs required")
	}

	entries := make([]catalog.Entry, 0, 64)
	seenID := map[scenario.SID]string{}
	seenName := map[string]string{}

	for _, src := range sources {
		walkErr := fs.WalkDir(src, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == "." {
					return nil
				}
				return errs.NewFatal(fmt.Sprintf("configs must be flat (no subdir): %q", path))
			}

			base := filepath.Base(path)
			if strings.Contains(path, "/") && path != base {
				return errs.NewFatal(fmt.Sprintf("configs must be flat (nested path): %q", path))
			}
			if strings.HasPrefix(base, ".") {
				return nil
			}

			ext := strings.ToLower(filepath.Ext(base))
			if ext != ".yaml" && ext != ".yml" && ext != ".json" {
				return nil
			}

			raw, rerr := fs.ReadFile(src, path)
			if rerr != nil {
				return errs.NewFatal(fmt.Sprintf("read config failed: %s", base))
			}

			var (
				st   *scenario.Setting
				serr error
			)
			switch ext {
			case ".yaml", ".yml":
				st, serr = scenario.GetSettingByYAML(raw)
			case ".json":
				st, serr = scenario.GetSettingByJSON(raw)
			default:
				return errs.NewFatal(fmt.Sprintf("unsupported config format: %q", base))
			}
			if serr != nil {
				return errs.Wrap(serr, fmt.Sprintf("parse scenario setting failed: %s", base))
			}

			name := strings.TrimSpace(st.Name)
			if name == "" {
				return errs.NewFatal(fmt.Sprintf("scenario name required: %s", base))
			}

			id := st.ID
			if prev, ok := seenID[id]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate scenario id: %d (config=%s and %s)", id, prev, base))
			}
			if _, ok := l.cat.GetByID(id); ok {
				return errs.NewFatal(fmt.Sprintf("scenario id already registered: %d (config=%s)", id, base))
			}
			seenID[id] = base

			nameKey := strings.ToLower(name)
			if prev, ok := seenName[nameKey]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate scenario name: %s (config=%s and %s)", nameKey, prev, base))
			}
			if _, ok := l.cat.GetByName(name); ok {
				return errs.NewFatal(fmt.Sprintf("scenario name already registered: %s (config=%s)", name, base))
			}
			seenName[nameKey] = base

			entries = append(entries, catalog.Entry{
				SID:        id,
				Name:       name,
				ConfigName: base,
			})
			return nil
		})
		if walkErr != nil {
			return walkErr
		}
	}

	if len(entries) == 0 {
		return errs.NewFatal("no config files found to register")
	}

	return l.cat.Register(entries...)
}

func (l *Lab) Freeze() {
	l.cat.Freeze()
}

func (l *Lab) EntryById(id scenario.SID) (catalog.Entry, bool) {
	return l.cat.GetByID(id)
}

func (l *Lab) EntryByName(name string) (catalog.Entry, bool) {
	return l.cat.GetByName(name)
}

func (l *Lab) IDs() []scenario.SID {
	return l.cat.IDs()
}

func (l *Lab) All() []catalog.Entry {
	return l.cat.All()
}

func (l *Lab) SettingById(id scenario.SID) (*scenario.Setting, error) {
	return l.cat.SettingById(id)
}

func (l *Lab) SettingByName(name string) (*scenario.Setting, error) {
	return l.cat.SettingByName(name)
}

// Summary 回傳所有已註冊場景的摘要列表（快取一次）。
func (l *Lab) Summary() ([]catalog.Summary, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	if l.sum != nil {
		return l.sum, nil
	}
	ids := l.cat.IDs()
	cs := make([]catalog.Summary, 0, len(ids))
	for _, id := range ids {
		st, err := l.cat.SettingById(id)
		if err != nil {
			return nil, errs.NewFatal("parse scenario setting failed")
		}
		s := catalog.Summary{
			SID:  id,
			Name: st.Name,
			Kind: st.Kind.String(),
		}
		switch st.Kind {
		case scenario.KindDiscrete:
			s.Categories = st.Discrete.Categories()
		case scenario.KindWishart:
			s.Dim = st.Wishart.Dim()
		}
		cs = append(cs, s)
	}
	l.sum = cs
	return l.sum, nil
}

// NewMachine 依據 Catalog 內的場景 ID 建立一台 Machine。
//
// 行為：
//  1. 由 Catalog 取得對應的 Setting（通常來自 fs.FS 內的 YAML/JSON）。
//  2. 以 CoreFactory 產生 RNG 核心（seed 由 crypto/rand 產生）。
//  3. 依場景類型建出抽樣結構（alias table 或 Wishart 分布）。
//
// 注意：seed 會被記錄在 Machine 內（initseed），用於追溯/重現；真正的可審計能力以 Core 的 Snapshot/Restore 合約為準。
func (l *Lab) NewMachine(id scenario.SID) (*Machine, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	st, err := l.cat.SettingById(id)
	if err != nil {
		return nil, err
	}
	return newMachine(st, l.cf)
}

// NewMachineWithSeed 與 NewMachine 相同，但由呼叫端指定初始 seed。
//
// 使用情境：可重現的測試。同一份設定 + 同一個 seed，應產生一致的隨機序列（取決於 Core 實作）。
//
// 注意：seed 只是「出生入口」。若要在任意時間點完整重現，請使用 Core 的 Snapshot/Restore（以 []byte 交換狀態）。
func (l *Lab) NewMachineWithSeed(id scenario.SID, seed int64) (*Machine, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	st, err := l.cat.SettingById(id)
	if err != nil {
		return nil, err
	}
	return newMachineWithSeed(st, l.cf, seed)
}

func (l *Lab) NewMachineByYAML(raw []byte, seed int64) (*Machine, error) {
	st, err := scenario.GetSettingByYAML(raw)
	if err != nil {
		return nil, err
	}
	return newMachineWithSeed(st, l.cf, seed)
}

func (l *Lab) NewMachineByJSON(raw []byte, seed int64) (*Machine, error) {
	st, err := scenario.GetSettingByJSON(raw)
	if err != nil {
		return nil, err
	}
	return newMachineWithSeed(st, l.cf, seed)
}

func (l *Lab) NewSimulator(id scenario.SID) (*Simulator, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	st, err := l.cat.SettingById(id)
	if err != nil {
		return nil, err
	}
	return newSimulator(st, l.cf)
}

func (l *Lab) NewSimulatorWithSeed(id scenario.SID, seed int64) (*Simulator, error) {
	if !l.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	st, err := l.cat.SettingById(id)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(st, l.cf, seed)
}

func (l *Lab) NewSimulatorByYAML(raw []byte, seed int64) (*Simulator, error) {
	st, err := scenario.GetSettingByYAML(raw)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(st, l.cf, seed)
}

func (l *Lab) NewSimulatorByJSON(raw []byte, seed int64) (*Simulator, error) {
	st, err := scenario.GetSettingByJSON(raw)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(st, l.cf, seed)
}

// BuildRuntime 進入對外服務模式：為每個已註冊場景建立一個機台池。
func (l *Lab) BuildRuntime(poolSize int) (*LabRuntime, error) {
	// 1. 進入 runtime 前，catalog 必須 Freeze
	l.Freeze()

	ids := l.cat.IDs()
	if len(ids) == 0 {
		return nil, errs.NewFatal("no scenarios registered")
	}

	rt := &LabRuntime{
		lab:      l,
		pools:    make(map[scenario.SID]*MachinePool, len(ids)),
		ids:      ids,
		done:     make(chan struct{}),
		poolSize: max(1, poolSize),
	}
	rt.reason.Store("")

	// 2. 先全建好（fail-fast + cleanup）
	for _, id := range ids {
		st, err := l.cat.SettingById(id)
		if err != nil {
			return nil, err
		}

		seed, _ := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		mp, err := newMachinePool(rt.poolSize, st, l.cf, seed.Int64())
		if err != nil {
			return nil, err
		}
		rt.pools[id] = mp
	}
	return rt, nil
}
