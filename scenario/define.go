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

// SID 實驗場景編號，在同一個 Lab 內唯一。
type SID int

// Kind 表示場景的抽樣類型。
type Kind int

const (
	KindNone Kind = iota
	KindDiscrete
	KindWishart
)

var kindMap = map[string]Kind{
	"discrete": KindDiscrete,
	"wishart":  KindWishart,
}

func ParseKind(s string) (Kind, bool) {
	k, ok := kindMap[s]
	return k, ok
}

func (k Kind) String() string {
	switch k {
	case KindDiscrete:
		return "discrete"
	case KindWishart:
		return "wishart"
	default:
		return "none"
	}
}
