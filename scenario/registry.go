package scenario

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/zintix-labs/randlab/errs"
)

// GetSettingByYAML
// 會讀取 YAML 設定、初始化各子設定並執行基本檢查後回傳。
func GetSettingByYAML(data []byte) (*Setting, error) {
	s := &Setting{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshall yaml")
	}

	// 設定檔初始化
	if err := s.init(); err != nil {
		return nil, errs.Wrap(err, "scenario setting initialized err")
	}

	return s, nil
}

// GetSettingByJSON
// 會讀取 Json 設定、初始化各子設定並執行基本檢查後回傳
func GetSettingByJSON(data []byte) (*Setting, error) {
	s := &Setting{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, errs.Wrap(err, "can not unmarshall json byte")
	}

	// 設定檔初始化
	if err := s.init(); err != nil {
		return nil, errs.Wrap(err, "scenario setting initialized err")
	}

	return s, nil
}

// DecodeExtra 會把 s.Extra 由 map[string]any 轉成你要的型別 T。
// T 應該是 struct，例如 MyScenarioExtra。
func DecodeExtra[T any](s *Setting, out *T) error {
	// 先把 map[string]any -> YAML bytes
	bs, err := yaml.Marshal(s.Extra)
	if err != nil {
		return errs.Wrap(err, "scenario.extra : marshal failed")
	}
	// 再把 YAML bytes -> 自定義的型別
	dec := yaml.NewDecoder(bytes.NewReader(bs))
	dec.KnownFields(true) // 嚴格檢查：多寫/拼錯欄位就報錯
	if err = dec.Decode(out); err != nil {
		return errs.Wrap(err, "scenario.extra : decode failed")
	}
	return nil
}
