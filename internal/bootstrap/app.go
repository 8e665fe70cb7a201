package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"intelidoc/internal/ai"
	"intelidoc/internal/config"
	"intelidoc/internal/model"
	mysqlClient "intelidoc/internal/platform/mysql"
	rabbitmqClient "intelidoc/internal/platform/rabbitmq"
	redisClient "intelidoc/internal/platform/redis"
	"intelidoc/internal/repository"
	"intelidoc/internal/search"
	"intelidoc/internal/worker"
)

type App struct {
	Config      *config.Config
	MySQL       *gorm.DB
	Redis       *redis.Client
	MQConn      *amqp.Connection
	SearchIndex *search.Index
	Embedder    search.Embedder
	IndexWorker *worker.IndexWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.Document{},
		&model.Obligation{},
		&model.Mapping{},
		&model.IndexEntry{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	embedder := ai.NewEmbeddingClient(ai.NewOpenAICompatibleClient(), ai.EmbeddingConfig{
		BaseURL: cfg.LLM.BaseURL,
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.EmbeddingModel,
	})
	index := search.NewIndex(embedder)

	obligationRepo := repository.NewObligationRepository(mysqlDB)
	entryRepo := repository.NewIndexEntryRepository(mysqlDB)
	if err := reloadIndex(index, obligationRepo, entryRepo); err != nil {
		return nil, err
	}

	indexWorker := worker.NewIndexWorker(mqConn, embedder, index, obligationRepo, entryRepo, cfg.RabbitMQ.IndexUpsertQueue)
	if err := indexWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start index worker failed: %w", err)
	}

	return &App{
		Config:      cfg,
		MySQL:       mysqlDB,
		Redis:       redisCli,
		MQConn:      mqConn,
		SearchIndex: index,
		Embedder:    embedder,
		IndexWorker: indexWorker,
		StartedAt:   time.Now(),
	}, nil
}

// reloadIndex rebuilds the in-memory search index from persisted
// embeddings so a restart does not lose search coverage. Entries whose
// obligation vanished are skipped.
func reloadIndex(index *search.Index, obligations *repository.ObligationRepository, entries *repository.IndexEntryRepository) error {
	stored, err := entries.ListAll()
	if err != nil {
		return err
	}
	if len(stored) == 0 {
		return nil
	}

	all, err := obligations.ListAll()
	if err != nil {
		return err
	}
	byID := make(map[uint]model.Obligation, len(all))
	for _, ob := range all {
		byID[ob.ID] = ob
	}

	loaded := 0
	for _, entry := range stored {
		ob, ok := byID[entry.ObligationID]
		if !ok {
			continue
		}
		vec := entry.EmbeddingVector()
		if len(vec) == 0 {
			log.Printf("skip index entry %d: empty embedding", entry.ObligationID)
			continue
		}
		priority := ""
		if ob.Priority != nil {
			priority = *ob.Priority
		}
		index.Put(search.Entry{
			ObligationID: ob.ID,
			Vector:       vec,
			Category:     ob.Category,
			Priority:     priority,
			CreatedAt:    ob.CreatedAt,
		})
		loaded++
	}
	log.Printf("search index reloaded with %d entries", loaded)
	return nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.IndexWorker != nil {
		a.IndexWorker.Close()
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
