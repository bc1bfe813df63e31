package mongo

import (
	"Parley/internal/api/config"
	"Parley/internal/pkg/logger"
	"context"
	"fmt"
	log "log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const defaultConnectTimeout = 10 * time.Second

// InitMongo 连接并返回消息库，change stream 需要副本集，Ping 走主节点
func InitMongo(cfg config.MongoConfig) (*mongo.Database, error) {
	timeout := defaultConnectTimeout
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URL).
		SetAppName("parley").
		SetServerSelectionTimeout(timeout).
		SetMonitor(logger.NewMongoMonitor()),
	)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	log.Info("MongoDB connected", "db", cfg.Database, "collection", cfg.Collection)
	return client.Database(cfg.Database), nil
}
