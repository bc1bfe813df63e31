package mongo

import (
	"Parley/internal/model"
	"Parley/internal/repository"
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var timelineSort = bson.D{{Key: "created_at", Value: 1}, {Key: "seq", Value: 1}}

type messageRepoImpl struct {
	col *mongo.Collection
}

// NewMessageRepo 消息明细存 MongoDB，会话与成员仍在关系库
func NewMessageRepo(db *mongo.Database, collection string) repository.MessageRepo {
	return &messageRepoImpl{
		col: db.Collection(collection),
	}
}

// EnsureIndexes 建立时间线查询索引
func EnsureIndexes(ctx context.Context, db *mongo.Database, collection string) error {
	_, err := db.Collection(collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "created_at", Value: 1}, {Key: "seq", Value: 1}},
	})
	return err
}

func (s *messageRepoImpl) ListByChat(ctx context.Context, chatID string) ([]*model.Message, error) {
	cursor, err := s.col.Find(ctx, bson.M{"chat_id": chatID}, options.Find().SetSort(timelineSort))
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var docs []*Message
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	res := make([]*model.Message, 0, len(docs))
	for _, d := range docs {
		res = append(res, d.toModel())
	}
	return res, nil
}

func (s *messageRepoImpl) Latest(ctx context.Context, chatID string) (*model.Message, error) {
	var doc Message
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "seq", Value: -1}})
	err := s.col.FindOne(ctx, bson.M{"chat_id": chatID}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toModel(), nil
}

func (s *messageRepoImpl) Create(ctx context.Context, msg *model.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	now := time.Now()
	if msg.CreatedAt.IsZero() {
		// Mongo 只保存到毫秒
		msg.CreatedAt = now.Truncate(time.Millisecond)
	}
	doc := fromModel(msg)
	doc.Seq = now.UnixNano()
	_, err := s.col.InsertOne(ctx, doc)
	return err
}
