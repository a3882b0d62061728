package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"lecture-qa/internal/app"
	"lecture-qa/internal/cache"
	"lecture-qa/internal/config"
	mysqlClient "lecture-qa/internal/platform/mysql"
	rabbitmqClient "lecture-qa/internal/platform/rabbitmq"
	redisClient "lecture-qa/internal/platform/redis"
	"lecture-qa/internal/rag"
	"lecture-qa/internal/repository"
	"lecture-qa/internal/worker"
)

type App struct {
	Config         *config.Config
	MySQL          *gorm.DB
	Redis          *redis.Client
	MQConn         *amqp.Connection
	EntryWorker    *worker.ChatEntryPersistWorker
	Index          *rag.Index
	LectureService *app.LectureService

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	a := &App{Config: cfg, StartedAt: time.Now()}
	if err := a.connect(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	historyCache := cache.NewHistoryCache(
		a.Redis,
		time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(cfg.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	embeddingCache := cache.NewEmbeddingCache(a.Redis, time.Duration(cfg.Redis.EmbeddingTTLSeconds)*time.Second)
	engine := NewEngine(cfg, embeddingCache)
	a.Index = engine.Index

	sessionRepo := repository.NewSessionRepository(a.MySQL)
	entryRepo := repository.NewChatEntryRepository(a.MySQL)

	a.EntryWorker = worker.NewChatEntryPersistWorker(a.MQConn, entryRepo, historyCache, cfg.RabbitMQ.ChatEntryPersistQueue)
	if err := a.EntryWorker.Start(ctx); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("start chat entry worker failed: %w", err)
	}

	a.LectureService = app.NewLectureService(
		engine.Index,
		engine.Pipeline,
		sessionRepo,
		entryRepo,
		rabbitmqClient.NewChatEntryPublisher(a.MQConn, cfg.RabbitMQ.ChatEntryPersistQueue),
		historyCache,
		app.LectureServiceConfig{
			TokenSecret:       cfg.Session.TokenSecret,
			TokenTTL:          time.Duration(cfg.Session.TokenExpireMinute) * time.Minute,
			DefaultCredential: cfg.LLM.APIKey,
		},
	)
	return a, nil
}

func (a *App) connect(ctx context.Context) error {
	var err error
	if a.MySQL, err = mysqlClient.New(ctx, a.Config.MySQLDSN()); err != nil {
		return err
	}
	if err := mysqlClient.Migrate(a.MySQL); err != nil {
		return err
	}
	if a.Redis, err = redisClient.New(ctx, a.Config.Redis); err != nil {
		return err
	}
	if a.MQConn, err = rabbitmqClient.New(ctx, a.Config.RabbitMQ.URL); err != nil {
		return err
	}
	return nil
}

func (a *App) Close() error {
	var closeErr error
	if a.EntryWorker != nil {
		a.EntryWorker.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
