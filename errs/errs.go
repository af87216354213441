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

package errs

import (
	"errors"
	"fmt"
)

// ErrLevel : Error 分級，使最上層理解問題嚴重程度
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

var errLvMap = map[ErrLevel]string{
	None:  "",
	Fatal: "fatal",
	Warn:  "warn",
	Log:   "log",
}

func ErrLv(errlv ErrLevel) string {
	if str, ok := errLvMap[errlv]; ok {
		return str
	}
	return ""
}

// ErrKind : 錯誤類別，描述「哪一類輸入/查詢」出了問題。
//
// 與 ErrLevel 的分工：
//   - ErrLevel 告訴最上層「多嚴重」（要不要中止、要不要告警）。
//   - ErrKind 告訴呼叫端「哪一類錯」（參數不合法、查詢超出定義域、維度不合），
//     讓數值程式可以依類別分流處理，而不用解析錯誤字串。
type ErrKind uint8

const (
	KindInternal ErrKind = iota
	// KindInvalidDistribution 分布參數不合法：機率向量為空/含負值/總和不為 1、
	// df <= p-1、scale 矩陣非對稱正定等。
	KindInvalidDistribution
	// KindDomain 查詢超出該量的定義域：例如 df <= p+1 時取 mode。
	KindDomain
	// KindDimensionMismatch 候選矩陣尺寸與分布維度不一致。
	KindDimensionMismatch
)

var errKindMap = map[ErrKind]string{
	KindInternal:            "internal",
	KindInvalidDistribution: "invalid_distribution",
	KindDomain:              "domain",
	KindDimensionMismatch:   "dimension_mismatch",
}

func KindStr(k ErrKind) string {
	if str, ok := errKindMap[k]; ok {
		return str
	}
	return "internal"
}

// E 是統一的錯誤型別。
// Message 為經過樣板格式化後的主訊息；Extra 為呼叫端可追加的額外上下文；
// Cause 可串接下層錯誤（wrap）；ErrLv 表示嚴重度；Kind 表示錯誤類別。
type E struct {
	Message string
	Extra   string
	Cause   error
	ErrLv   ErrLevel
	Kind    ErrKind
}

// Error 實作 error 介面並回傳格式化後的錯誤訊息。
func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s kind=%s %s", ErrLv(e.ErrLv), KindStr(e.Kind), e.Message)
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

// Unwrap 讓 errors.Is / errors.As 能夠向下展開。
func (e *E) Unwrap() error { return e.Cause }

// New 依錯誤分級與訊息建立錯誤（Kind 預設為 KindInternal）
func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

func NewFatal(msg string) *E {
	return &E{Message: msg, ErrLv: Fatal}
}

func NewWarn(msg string) *E {
	return &E{Message: msg, ErrLv: Warn}
}

func NewLog(msg string) *E {
	return &E{Message: msg, ErrLv: Log}
}

func Fatalf(format string, a ...any) *E {
	return NewFatal(fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...any) *E {
	return NewWarn(fmt.Sprintf(format, a...))
}

func Logf(format string, a ...any) *E {
	return NewLog(fmt.Sprintf(format, a...))
}

// InvalidDistribution 建立 KindInvalidDistribution 錯誤。
// 分布參數不合法屬於呼叫端可修正的問題，分級為 Warn。
func InvalidDistribution(format string, a ...any) *E {
	e := Warnf(format, a...)
	e.Kind = KindInvalidDistribution
	return e
}

// Domain 建立 KindDomain 錯誤。
func Domain(format string, a ...any) *E {
	e := Warnf(format, a...)
	e.Kind = KindDomain
	return e
}

// DimMismatch 建立 KindDimensionMismatch 錯誤。
func DimMismatch(format string, a ...any) *E {
	e := Warnf(format, a...)
	e.Kind = KindDimensionMismatch
	return e
}

// IsKind 回報 err（或其包裝鏈中的 *E）是否屬於指定類別。
func IsKind(err error, k ErrKind) bool {
	var e *E
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}

// NewWithExtra 與 New 相同，但可附加額外上下文字串（不影響主訊息）。
func NewWithExtra(errLv ErrLevel, msg string, extra string) *E {
	e := New(errLv, msg)
	e.Extra = extra
	return e
}

// Wrap 使用給定的訊息包裝底層錯誤，建立一個 *E。
//
// ErrLevel / ErrKind 規則：
//   - 若 cause 已經是 *E，則沿用其 ErrLv 與 Kind（保持原本嚴重度與類別）。
//   - 若 cause 不是本包定義的 *E（多半是標準庫或三方依賴錯誤），
//     則 ErrLv 一律視為 Fatal、Kind 視為 KindInternal。
func Wrap(cause error, msg string) *E {
	var e *E
	errLv := Fatal
	kind := KindInternal
	if errors.As(cause, &e) {
		errLv = e.ErrLv
		kind = e.Kind
	}
	r := New(errLv, msg)
	r.Kind = kind
	r.Cause = cause
	return r
}

// WrapWithExtra 與 Wrap 相同，但可附加額外上下文字串。
func WrapWithExtra(cause error, msg string, extra string) *E {
	r := Wrap(cause, msg)
	r.Extra = extra
	return r
}

func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return e, false
}
