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
	"bufio"
	"encoding/json"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"gonum.org/v1/gonum/mat"

	"github.com/zintix-labs/randlab/errs"
)

// DrawEvent 單筆抽樣事件
//
// 離散抽樣只填 Idx；矩陣抽樣只填 Mat（row-major 上三角含對角）。
type DrawEvent struct {
	Round int       `json:"r"`
	Idx   int       `json:"i,omitempty"`
	Mat   []float64 `json:"m,omitempty"`
	Dim   int       `json:"d,omitempty"`
}

// Trace 抽樣軌跡紀錄器
//
// 以 zstd 壓縮串流寫出 JSON Lines 格式的抽樣事件，供離線重播與驗證。
// 非併發安全：多工模擬時每個 worker 各持一份，事後以檔案串接合併。
type Trace struct {
	zw  *zstd.Encoder
	bw  *bufio.Writer
	enc *json.Encoder
	c   io.Closer // 底層檔案（可為 nil）
}

// NewTrace 在任意 writer 上建立壓縮軌跡。
func NewTrace(w io.Writer) (*Trace, error) {
	zw, err := zstd.NewWriter(w,
		zstd.WithEncoderLevel(zstd.SpeedFastest),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, errs.NewFatal("trace: " + err.Error())
	}
	bw := bufio.NewWriter(zw)
	return &Trace{zw: zw, bw: bw, enc: json.NewEncoder(bw)}, nil
}

// CreateTrace 建立（覆蓋）軌跡檔案。
func CreateTrace(path string) (*Trace, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errs.NewFatal("trace: " + err.Error())
	}
	t, err := NewTrace(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	t.c = f
	return t, nil
}

// Draw 紀錄一次離散抽樣。
func (t *Trace) Draw(round, idx int) error {
	return t.enc.Encode(DrawEvent{Round: round, Idx: idx})
}

// DrawMat 紀錄一次矩陣抽樣（只存上三角含對角）。
func (t *Trace) DrawMat(round int, x *mat.SymDense) error {
	p := x.SymmetricDim()
	m := make([]float64, 0, p*(p+1)/2)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			m = append(m, x.At(i, j))
		}
	}
	return t.enc.Encode(DrawEvent{Round: round, Mat: m, Dim: p})
}

// Close 沖洗並關閉壓縮串流（與底層檔案，若有）。
func (t *Trace) Close() error {
	if err := t.bw.Flush(); err != nil {
		return err
	}
	if err := t.zw.Close(); err != nil {
		return err
	}
	if t.c != nil {
		return t.c.Close()
	}
	return nil
}

// TraceReader 軌跡讀取器，逐筆解出 DrawEvent。
type TraceReader struct {
	zr  *zstd.Decoder
	dec *json.Decoder
	c   io.Closer
}

func NewTraceReader(r io.Reader) (*TraceReader, error) {
	zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, errs.NewFatal("trace: " + err.Error())
	}
	return &TraceReader{zr: zr, dec: json.NewDecoder(zr)}, nil
}

func OpenTrace(path string) (*TraceReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.NewFatal("trace: " + err.Error())
	}
	tr, err := NewTraceReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	tr.c = f
	return tr, nil
}

// Next 讀取下一筆事件，讀完回傳 io.EOF。
func (tr *TraceReader) Next() (DrawEvent, error) {
	var ev DrawEvent
	err := tr.dec.Decode(&ev)
	return ev, err
}

// SymOf 將事件中的上三角向量還原為對稱矩陣。
func (ev DrawEvent) SymOf() (*mat.SymDense, error) {
	p := ev.Dim
	if p <= 0 || len(ev.Mat) != p*(p+1)/2 {
		return nil, errs.DimMismatch("trace: malformed matrix event")
	}
	s := mat.NewSymDense(p, nil)
	k := 0
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			s.SetSym(i, j, ev.Mat[k])
			k++
		}
	}
	return s, nil
}

func (tr *TraceReader) Close() error {
	tr.zr.Close()
	if tr.c != nil {
		return tr.c.Close()
	}
	return nil
}
