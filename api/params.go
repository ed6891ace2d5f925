package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/SlpAus/aureates-pokedex-backend/internal/platform/apperr"
)

// parseInt 严格解析十进制整数；"12abc" 之类的输入是 Validation 错误
func parseInt(raw, field string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, apperr.Validation("%s must be an integer", field)
	}
	return n, nil
}

// intField 接受 JSON 数字或数字字符串，格式错误延迟到 Int 时报告
type intField struct {
	raw   string
	value int64
	ok    bool
}

func (f *intField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	f.raw = string(data)

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f.value, f.ok = parseDecimal(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err == nil {
		f.value, f.ok = parseDecimal(num.String())
	}
	return nil
}

func parseDecimal(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err == nil {
		return n, true
	}
	// 允许 3.0 这样的整数值浮点写法
	if fv, ferr := strconv.ParseFloat(strings.TrimSpace(s), 64); ferr == nil && fv == float64(int64(fv)) {
		return int64(fv), true
	}
	return 0, false
}

// Int 返回解析后的值；f 为 nil 时返回 (nil, nil)
func (f *intField) Int(field string) (*int64, error) {
	if f == nil {
		return nil, nil
	}
	if !f.ok {
		return nil, apperr.Validation("%s must be an integer", field)
	}
	v := f.value
	return &v, nil
}
