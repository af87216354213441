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
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/randlab/dto"
	"github.com/zintix-labs/randlab/errs"
	"github.com/zintix-labs/randlab/scenario"
)

// LabRuntime 對外服務的 data-plane：每個場景一個機台池。
type LabRuntime struct {
	// build-time 來源（只讀引用）
	lab *Lab // 方便取 catalog/corefactory 與共用一些 helper

	// data-plane：關鍵主池（每個場景一個 pool）
	pools map[scenario.SID]*MachinePool
	ids   []scenario.SID // 固定順序，用於觀測/列舉（來自 cat.IDs()）

	// lifecycle
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string

	// runtime 行為設定
	poolSize int // 每個場景的池大小（BuildRuntime(n) 的 n）
}

// Draw 由場景 ID 路由到對應機台池執行抽樣。
func (rt *LabRuntime) Draw(ctx context.Context, req *dto.DrawRequest) (dto.DrawResult, error) {
	select {
	case <-ctx.Done():
		// 如果通知取消
		return dto.DrawResult{}, errs.NewWarn("draw canceled/timeout: " + ctx.Err().Error())
	case <-rt.done:
		// done is the source of truth; keep a fast boolean for cheap reads/telemetry.
		rt.closed.Store(true)
		return dto.DrawResult{}, errs.NewFatal("lab runtime closed: " + rt.ClosedReason())
	default:
	}

	sid := req.SID
	if sid == 0 && req.Scenario != "" {
		ent, ok := rt.lab.EntryByName(req.Scenario)
		if !ok {
			return dto.DrawResult{}, errs.NewWarn("scenario name not found")
		}
		sid = ent.SID
	}

	mp, ok := rt.pools[sid]
	if !ok {
		return dto.DrawResult{}, errs.NewWarn("scenario id not found")
	}

	// pool 自己會處理 done / close / rebuild / metrics
	return mp.Draw(ctx, req)
}

// Lab 回傳建構來源（只讀用途：catalog 查詢、摘要）。
func (rt *LabRuntime) Lab() *Lab {
	return rt.lab
}

func (rt *LabRuntime) IDs() []scenario.SID {
	return append([]scenario.SID(nil), rt.ids...)
}

// Close transitions the runtime into a closed state. It is safe to call multiple times.
func (rt *LabRuntime) Close() {
	rt.closeWithReason("closed")
	for _, mp := range rt.pools {
		mp.Close()
	}
}

// closeWithReason closes the runtime and records the reason (written once).
func (rt *LabRuntime) closeWithReason(reason string) {
	rt.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		rt.reason.Store(reason)
		rt.closed.Store(true)
		close(rt.done)
	})
}

// Closed reports whether the runtime has been closed.
func (rt *LabRuntime) Closed() bool {
	return rt.closed.Load()
}

func (rt *LabRuntime) ClosedReason() string {
	if v := rt.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
