package realtime

import (
	"fmt"

	"github.com/goccy/go-json"
)

// EncodeChange 推送通道上的统一载荷格式
func EncodeChange(change Change) ([]byte, error) {
	return json.Marshal(change)
}

// DecodeChange 缺少表名或事件类型的载荷视为无效
func DecodeChange(payload []byte) (Change, error) {
	var change Change
	if err := json.Unmarshal(payload, &change); err != nil {
		return Change{}, fmt.Errorf("%w: %w", ErrBadChange, err)
	}
	if change.Table == "" || change.Kind == "" {
		return Change{}, fmt.Errorf("%w: missing table or type", ErrBadChange)
	}
	return change, nil
}
