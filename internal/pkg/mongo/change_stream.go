package mongo

import (
	"Parley/internal/pkg/realtime"
	"context"
	log "log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// changeEvent change stream 中我们关心的字段
type changeEvent struct {
	OperationType string              `bson:"operationType"`
	FullDocument  *Message            `bson:"fullDocument"`
	ClusterTime   primitive.Timestamp `bson:"clusterTime"`
}

// MessageSource 监听消息集合的插入，作为推送源 (需要副本集)
type MessageSource struct {
	col *mongo.Collection
}

func NewMessageSource(db *mongo.Database, collection string) *MessageSource {
	return &MessageSource{col: db.Collection(collection)}
}

func (s *MessageSource) Run(ctx context.Context, sink realtime.Publisher) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"operationType": "insert"}}},
	}
	stream, err := s.col.Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return err
	}
	defer func() {
		_ = stream.Close(context.Background())
	}()
	log.Info("Mongo realtime source started", "collection", s.col.Name())

	for stream.Next(ctx) {
		var ev changeEvent
		if err := stream.Decode(&ev); err != nil {
			log.WarnContext(ctx, "Skip undecodable change event", "err", err)
			continue
		}
		change, ok := ev.toChange()
		if !ok {
			continue
		}
		if err := sink.Publish(ctx, change); err != nil {
			log.ErrorContext(ctx, "Failed to dispatch change", "table", change.Table, "err", err)
		}
	}
	if ctx.Err() != nil {
		return nil
	}
	return stream.Err()
}

func (ev *changeEvent) toChange() (realtime.Change, bool) {
	if ev.OperationType != "insert" || ev.FullDocument == nil {
		return realtime.Change{}, false
	}
	var commit time.Time
	if ev.ClusterTime.T > 0 {
		commit = time.Unix(int64(ev.ClusterTime.T), 0)
	}
	return realtime.Change{
		Table:      realtime.TableMessages,
		Kind:       realtime.EventInsert,
		Record:     ev.FullDocument.toModel().ToRecord(),
		CommitTime: commit,
	}, true
}
