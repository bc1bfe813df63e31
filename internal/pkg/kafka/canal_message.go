package kafka

import (
	"Parley/internal/model"
	"Parley/internal/pkg/realtime"
	"strings"
	"time"
)

// CanalMessage 定义了 Canal 推送到 Kafka 的 JSON 数据结构
type CanalMessage struct {
	ID       int64    `json:"id"`
	Database string   `json:"database"`
	Table    string   `json:"table"`
	PKNames  []string `json:"pkNames"`
	IsDDL    bool     `json:"isDdl"`
	Type     string   `json:"type"`
	ES       int64    `json:"es"`
	TS       int64    `json:"ts"`
	SQL      string   `json:"sql"`

	// Data 存储变更后的数据
	Data []map[string]interface{} `json:"data"`

	// Old 存储变更前的数据
	Old []map[string]interface{} `json:"old"`

	SqlType   map[string]int    `json:"sqlType"`
	MysqlType map[string]string `json:"mysqlType"`
}

// Changes 一条 Canal 消息按行展开为变更通知，DDL 与未知类型返回空
func (m *CanalMessage) Changes() []realtime.Change {
	if m.IsDDL {
		return nil
	}
	kind := realtime.EventKind(strings.ToUpper(m.Type))
	switch kind {
	case realtime.EventInsert, realtime.EventUpdate, realtime.EventDelete:
	default:
		return nil
	}

	var commit time.Time
	if m.ES > 0 {
		commit = time.UnixMilli(m.ES)
	}
	res := make([]realtime.Change, 0, len(m.Data))
	for _, row := range m.Data {
		res = append(res, realtime.Change{
			Table:      m.Table,
			Kind:       kind,
			Record:     model.Record(row),
			CommitTime: commit,
		})
	}
	return res
}
