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
	"io"
	"math"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"

	"github.com/zintix-labs/randlab/errs"
	"github.com/zintix-labs/randlab/recorder"
	"github.com/zintix-labs/randlab/scenario"
	"github.com/zintix-labs/randlab/sdk/core"
	"github.com/zintix-labs/randlab/stats"
)

const capPrepare int = 100

// Simulator 用於大量抽樣驗證，可建立多台機台並平行紀錄統計。
//
// discrete 場景走 Sim/SimMP（頻率 + 卡方檢定報表）；
// wishart 場景走 SimMat/SimMatMP（元素均值收斂 + E[log|X|] 報表）。
type Simulator struct {
	Name      string              // 場景名稱
	SID       scenario.SID        // 場景編號
	st        *scenario.Setting   // 方便重用建立報表
	cf        core.CoreFactory    // 亂數生成器
	initSeed  int64               // 初始下的種子
	seedmaker *seedMaker          // 種子生成器
	trace     *recorder.Trace     // 抽樣軌跡（可選，僅單線路徑寫入）
	mBuf      []*Machine          // 併發執行機台實例
	fBuf      []*stats.FreqReport // 併發頻率報表
	tBuf      []*stats.MatReport  // 併發矩陣報表
}

func newSimulator(st *scenario.Setting, cf core.CoreFactory) (*Simulator, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(st, cf, seed.Int64())
}

func newSimulatorWithSeed(st *scenario.Setting, cf core.CoreFactory, seed int64) (*Simulator, error) {
	s := &Simulator{
		Name:      st.Name,
		SID:       st.ID,
		st:        st,
		cf:        cf,
		initSeed:  seed,
		seedmaker: newSeedMaker(seed),
		mBuf:      make([]*Machine, 1, capPrepare),
		fBuf:      make([]*stats.FreqReport, 0, capPrepare),
		tBuf:      make([]*stats.MatReport, 0, capPrepare),
	}
	m, err := newMachineWithSeed(st, cf, s.initSeed)
	if err != nil {
		return nil, err
	}
	s.mBuf[0] = m
	return s, nil
}

// AttachTrace 掛上抽樣軌跡紀錄器（只作用於單線 Sim/SimMat）。
// 呼叫端負責 Close。
func (s *Simulator) AttachTrace(t *recorder.Trace) {
	s.trace = t
}

// Kind 回傳場景類型（決定該走 Sim 還是 SimMat 路徑）。
func (s *Simulator) Kind() scenario.Kind {
	return s.st.Kind
}

func (s *Simulator) newFreqReport() (*stats.FreqReport, error) {
	return stats.NewFreqReport(s.Name, s.st.Discrete.Dist)
}

func (s *Simulator) newMatReport() (*stats.MatReport, error) {
	w := s.mBuf[0].Wishart()
	return stats.NewMatReport(s.Name, w.Df(), w.MeanSym(), w.MeanLogDet())
}

// Sim 單線模擬器：以一台機台連續抽指定 rounds 並回傳頻率報表與用時。
func (s *Simulator) Sim(rounds int, showpb bool) (*stats.FreqReport, time.Duration, error) {
	defer s.reset()
	if s.st.Kind != scenario.KindDiscrete {
		return nil, 0, errs.NewWarn("sim requires a discrete scenario")
	}
	if rounds < 1 {
		return nil, 0, errs.NewWarn("rounds must > 0")
	}
	r, err := s.newFreqReport()
	if err != nil {
		return nil, 0, err
	}
	m := s.mBuf[0]

	bar := pb.StartNew(rounds)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := 0; i < rounds; i++ {
		idx := m.DrawInternal()
		r.Record(idx)
		if s.trace != nil {
			if err := s.trace.Draw(i, idx); err != nil {
				return nil, 0, err
			}
		}
		bar.Increment()
	}
	used := time.Since(bar.StartTime())
	bar.Finish()
	r.Done()

	return r, used, nil
}

// SimMP 平行執行多個機台，總計 rounds*mp 次抽樣，合併統計結果後回傳頻率報表與用時。
func (s *Simulator) SimMP(rounds int, mp int, showpb bool) (*stats.FreqReport, time.Duration, error) {
	defer s.reset()
	if s.st.Kind != scenario.KindDiscrete {
		return nil, 0, errs.NewWarn("sim requires a discrete scenario")
	}
	if mp <= 0 {
		return nil, 0, errs.NewWarn("workers must > 0")
	}
	if rounds < 1 {
		return nil, 0, errs.NewWarn("rounds must > 0")
	}
	for len(s.mBuf) < mp {
		m, err := newMachineWithSeed(s.st, s.cf, s.seedmaker.next())
		if err != nil {
			return nil, 0, err
		}
		s.mBuf = append(s.mBuf, m)
	}
	for len(s.fBuf) < mp {
		r, err := s.newFreqReport()
		if err != nil {
			return nil, 0, err
		}
		s.fBuf = append(s.fBuf, r)
	}

	wg := new(sync.WaitGroup)
	wg.Add(mp)
	bar := pb.StartNew(rounds * mp)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := 0; i < mp; i++ {
		go func(i int) {
			defer wg.Done()
			m := s.mBuf[i]
			r := s.fBuf[i]
			for k := 0; k < rounds; k++ {
				r.Record(m.DrawInternal())
				bar.Increment()
			}
		}(i)
	}
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	merged := s.fBuf[0]
	for _, r := range s.fBuf[1:] {
		if err := merged.Merge(r); err != nil {
			return nil, 0, err
		}
	}
	merged.Done()

	return merged, used, nil
}

// SimMat 單線模擬器：以一台機台連續抽指定 rounds 個矩陣並回傳收斂報表與用時。
func (s *Simulator) SimMat(rounds int, showpb bool) (*stats.MatReport, time.Duration, error) {
	defer s.reset()
	if s.st.Kind != scenario.KindWishart {
		return nil, 0, errs.NewWarn("simmat requires a wishart scenario")
	}
	if rounds < 1 {
		return nil, 0, errs.NewWarn("rounds must > 0")
	}
	r, err := s.newMatReport()
	if err != nil {
		return nil, 0, err
	}
	m := s.mBuf[0]

	bar := pb.StartNew(rounds)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := 0; i < rounds; i++ {
		x := m.DrawMatInternal()
		if err := r.Record(x); err != nil {
			return nil, 0, err
		}
		if s.trace != nil {
			if err := s.trace.DrawMat(i, x); err != nil {
				return nil, 0, err
			}
		}
		bar.Increment()
	}
	used := time.Since(bar.StartTime())
	bar.Finish()
	r.Done()

	return r, used, nil
}

// SimMatMP 平行執行多個機台，總計 rounds*mp 次矩陣抽樣，合併統計結果後回傳收斂報表與用時。
func (s *Simulator) SimMatMP(rounds int, mp int, showpb bool) (*stats.MatReport, time.Duration, error) {
	defer s.reset()
	if s.st.Kind != scenario.KindWishart {
		return nil, 0, errs.NewWarn("simmat requires a wishart scenario")
	}
	if mp <= 0 {
		return nil, 0, errs.NewWarn("workers must > 0")
	}
	if rounds < 1 {
		return nil, 0, errs.NewWarn("rounds must > 0")
	}
	for len(s.mBuf) < mp {
		m, err := newMachineWithSeed(s.st, s.cf, s.seedmaker.next())
		if err != nil {
			return nil, 0, err
		}
		s.mBuf = append(s.mBuf, m)
	}
	for len(s.tBuf) < mp {
		r, err := s.newMatReport()
		if err != nil {
			return nil, 0, err
		}
		s.tBuf = append(s.tBuf, r)
	}

	wg := new(sync.WaitGroup)
	wg.Add(mp)
	var firstErr atomic.Value
	bar := pb.StartNew(rounds * mp)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := 0; i < mp; i++ {
		go func(i int) {
			defer wg.Done()
			m := s.mBuf[i]
			r := s.tBuf[i]
			for k := 0; k < rounds; k++ {
				if err := r.Record(m.DrawMatInternal()); err != nil {
					firstErr.CompareAndSwap(nil, err)
					return
				}
				bar.Increment()
			}
		}(i)
	}
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	if v := firstErr.Load(); v != nil {
		return nil, 0, v.(error)
	}

	merged := s.tBuf[0]
	for _, r := range s.tBuf[1:] {
		if err := merged.Merge(r); err != nil {
			return nil, 0, err
		}
	}
	merged.Done()

	return merged, used, nil
}

func (s *Simulator) reset() {
	s.fBuf = s.fBuf[:0]
	s.tBuf = s.tBuf[:0]
}

const mask63 = uint64(1<<63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// state 走全週期（不重複），再用可逆 mix63 打散
//
// 注意：此方法可能在併發環境下被多 goroutines 同時呼叫（例如 MachinePool 補機）。
// 因此 state 的推進必須是原子的：
//   - 使用 CAS（Compare-And-Swap）迴圈確保每次呼叫都會取得唯一的下一個 state。
//   - 回傳值使用推進後的 state 經 mix63 打散後的結果。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()                                            // always masked
		next := (old*6364136223846793005 + 1442695040888963407) & mask63 // full-period LCG mod 2^63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next)) // 一定非負
		}
	}
}

// mix63：只用「可逆」的 bit 操作 + 乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63 // 乘奇數 ⇒ mod 2^63 可逆
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
