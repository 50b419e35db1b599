package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"admissions-advisor/internal/config"
	"admissions-advisor/internal/model"
	postgresClient "admissions-advisor/internal/platform/postgres"
	rabbitmqClient "admissions-advisor/internal/platform/rabbitmq"
	redisClient "admissions-advisor/internal/platform/redis"
	"admissions-advisor/internal/repository"
	"admissions-advisor/internal/worker"
)

type App struct {
	Config       *config.Config
	DB           *gorm.DB
	Redis        *redis.Client
	MQConn       *amqp.Connection
	IngestWorker *worker.DocumentIngestWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	// Connections already opened are released through Close when a later
	// setup step fails.
	app := &App{Config: cfg, StartedAt: time.Now()}

	app.DB, err = postgresClient.New(ctx, cfg.PostgresDSN())
	if err != nil {
		return nil, err
	}
	if err := app.DB.AutoMigrate(
		&model.ChatSession{},
		&model.ChatMessage{},
		&model.Document{},
		&model.DocumentChunk{},
		&model.Staff{},
	); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	app.Redis, err = redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	app.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	docRepo := repository.NewDocumentRepository(app.DB)
	app.IngestWorker = worker.NewDocumentIngestWorker(app.MQConn, docRepo, cfg.RabbitMQ.IngestQueue)
	if err := app.IngestWorker.Start(ctx); err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("start ingest worker failed: %w", err)
	}

	return app, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.IngestWorker != nil {
		a.IngestWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
