package wire

import (
	"Parley/internal/api"
	"Parley/internal/api/config"
	"Parley/internal/api/handler"
	"Parley/internal/job"
	"Parley/internal/pkg/cron"
	"Parley/internal/pkg/database"
	"Parley/internal/pkg/kafka"
	"Parley/internal/pkg/minio"
	"Parley/internal/pkg/mongo"
	"Parley/internal/pkg/postgres"
	"Parley/internal/pkg/postgrest"
	"Parley/internal/pkg/realtime"
	"Parley/internal/pkg/redis"
	"Parley/internal/pkg/security"
	"Parley/internal/repository"
	"Parley/internal/service"
	"Parley/internal/session"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
)

const (
	DriverLocal    = "local"
	DriverRedis    = "redis"
	DriverKafka    = "kafka"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

var ErrBadDriver = errors.New("unsupported driver")

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router   *gin.Engine
	Hub      *realtime.Hub
	Source   realtime.Source
	Registry *session.Registry
	CronMgr  *cron.Manager

	closers []func()
}

// Close 关闭会话后按建立的逆序释放连接
func (a *ApplicationContainer) Close() {
	a.Registry.CloseAll()
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func BuildApplication(ctx context.Context, cfg *config.Config) (app *ApplicationContainer, err error) {
	app = &ApplicationContainer{
		Hub:      realtime.NewHub(),
		Registry: session.NewRegistry(),
	}
	defer func() {
		if err != nil {
			for i := len(app.closers) - 1; i >= 0; i-- {
				app.closers[i]()
			}
		}
	}()

	store, err := app.buildStore(cfg)
	if err != nil {
		return nil, err
	}

	var mongoDB *mongodrv.Database
	if cfg.Store.Messages == DriverMongo || cfg.Realtime.Driver == DriverMongo {
		if mongoDB, err = mongo.InitMongo(cfg.Mongo); err != nil {
			return nil, fmt.Errorf("failed to create mongo connection: %w", err)
		}
		app.closers = append(app.closers, func() {
			_ = mongoDB.Client().Disconnect(context.Background())
		})
	}
	switch cfg.Store.Messages {
	case "sql", "":
	case DriverMongo:
		if err = mongo.EnsureIndexes(ctx, mongoDB, cfg.Mongo.Collection); err != nil {
			return nil, fmt.Errorf("failed to ensure mongo indexes: %w", err)
		}
		store.Messages = mongo.NewMessageRepo(mongoDB, cfg.Mongo.Collection)
	default:
		return nil, fmt.Errorf("%w: store.messages=%s", ErrBadDriver, cfg.Store.Messages)
	}

	var rdb *goredis.Client
	if cfg.Realtime.Driver == DriverRedis || cfg.ProfileCache.Enable {
		if rdb, err = redis.NewClient(ctx, cfg.Redis); err != nil {
			return nil, fmt.Errorf("failed to create redis connection: %w", err)
		}
		app.closers = append(app.closers, func() { _ = rdb.Close() })
	}
	if cfg.ProfileCache.Enable {
		store.Profiles = repository.NewCachedProfileRepo(store.Profiles, rdb, time.Duration(cfg.ProfileCache.TTL)*time.Second)
	}

	if store, err = app.buildRealtime(ctx, cfg, store, rdb, mongoDB); err != nil {
		return nil, err
	}

	avatars, err := buildAvatars(cfg.MinIO)
	if err != nil {
		return nil, err
	}

	directory := service.NewDirectoryService(store, avatars)
	timeline := service.NewTimelineService(store, avatars)
	sender := service.NewSendService(store)
	chats := service.NewChatService(store, avatars)

	deps := session.Deps{
		Directory: directory,
		Timeline:  timeline,
		Sender:    sender,
		Chats:     chats,
		Realtime:  app.Hub,
	}

	handlers := &api.HandlersGroup{
		IMHandler: handler.NewIMHandler(directory, timeline, sender, chats),
		WSHandler: handler.NewWsHandlerWithOrigins(deps, app.Registry, cfg.Server.AllowOrigins),
	}
	app.Router = api.SetupRouter(handlers, security.NewSigner(cfg.JWT.Secret, cfg.JWT.Issuer), cfg.Server.AllowOrigins)

	presence := job.NewPresenceJob(app.Registry, store.Profiles, rdb, 0)
	app.CronMgr = cron.NewCronManager(cfg.Presence.Spec, presence)

	return app, nil
}

func (a *ApplicationContainer) buildStore(cfg *config.Config) (*repository.Store, error) {
	switch cfg.Store.Driver {
	case "gorm", "":
		dbCfg := cfg.DB
		db, err := database.NewGormDB(&dbCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create database connection: %w", err)
		}
		a.closers = append(a.closers, func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		})
		if dbCfg.AutoMigrate {
			if err = repository.AutoMigrate(db); err != nil {
				return nil, fmt.Errorf("failed to migrate schema: %w", err)
			}
		}
		return repository.NewGormStore(db), nil
	case "postgrest":
		client, err := postgrest.NewClient(cfg.PostgREST)
		if err != nil {
			return nil, err
		}
		return postgrest.NewStore(client), nil
	}
	return nil, fmt.Errorf("%w: store.driver=%s", ErrBadDriver, cfg.Store.Driver)
}

// buildRealtime 选择推送源；没有 CDC 的通道由写路径主动发布
func (a *ApplicationContainer) buildRealtime(ctx context.Context, cfg *config.Config, store *repository.Store,
	rdb *goredis.Client, mongoDB *mongodrv.Database) (*repository.Store, error) {
	switch cfg.Realtime.Driver {
	case DriverLocal, "":
		return store.WithPublisher(a.Hub), nil
	case DriverRedis:
		a.Source = redis.NewSource(rdb, cfg.Realtime.Channel)
		return store.WithPublisher(redis.NewPublisher(rdb, cfg.Realtime.Channel)), nil
	case DriverKafka:
		a.Source = kafka.NewCanalSource(cfg)
		return store, nil
	case DriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		if err = postgres.InstallTriggers(ctx, pool, cfg.Postgres.Channel); err != nil {
			return nil, fmt.Errorf("failed to install notify triggers: %w", err)
		}
		a.Source = postgres.NewNotifySource(pool, cfg.Postgres.Channel)
		return store, nil
	case DriverMongo:
		if cfg.Store.Messages != DriverMongo {
			return nil, fmt.Errorf("%w: realtime.driver=mongo requires store.messages=mongo", ErrBadDriver)
		}
		a.Source = mongo.NewMessageSource(mongoDB, cfg.Mongo.Collection)
		return store.WithChatPublisher(a.Hub), nil
	}
	return nil, fmt.Errorf("%w: realtime.driver=%s", ErrBadDriver, cfg.Realtime.Driver)
}

func buildAvatars(cfg config.MinIOConfig) (service.AvatarResolver, error) {
	if cfg.InternalEndpoint == "" {
		log.Info("MinIO not configured, avatar references pass through")
		return service.PassthroughAvatars, nil
	}
	client, err := minio.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO: %w", err)
	}
	return minio.NewAvatarResolver(client, cfg), nil
}
