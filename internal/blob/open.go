package blob

import (
	"context"
	"fmt"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/blogdesk/blogdesk/internal/config"
	"github.com/blogdesk/blogdesk/pkg/logger"
)

// Store names used by the application.
const (
	StoreSite      = "site"
	StoreComments  = "comments"
	StoreAnalytics = "analytics"
)

// Provider owns the connection to the configured backend and hands out
// named stores that share it.
type Provider struct {
	backend string

	mu     sync.Mutex
	memory map[string]*MemoryBackend

	redis  *redis.Client
	minio  *minio.Client
	bucket string
	mongo  *mongo.Client
	blobs  *mongo.Collection
}

// Open connects to the backend named by cfg.Blob.Backend.
func Open(ctx context.Context, cfg *config.Config) (*Provider, error) {
	p := &Provider{backend: cfg.Blob.Backend, memory: make(map[string]*MemoryBackend)}
	switch cfg.Blob.Backend {
	case "", "memory":
		p.backend = "memory"
	case "redis":
		if cfg.Redis.Host == "" {
			return nil, fmt.Errorf("blob backend redis: REDIS_HOST not set")
		}
		p.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := p.redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("blob backend redis: %w", err)
		}
	case "minio":
		mc, err := NewMinIOClient(cfg.MinIO)
		if err != nil {
			return nil, fmt.Errorf("blob backend minio: %w", err)
		}
		p.minio = mc
		p.bucket = cfg.MinIO.Bucket
	case "mongo", "mongodb":
		p.backend = "mongo"
		if cfg.MongoDB.URI == "" {
			return nil, fmt.Errorf("blob backend mongo: MONGODB_URI not set")
		}
		client, err := ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if err != nil {
			return nil, fmt.Errorf("blob backend mongo: %w", err)
		}
		p.mongo = client
		p.blobs = client.Database(cfg.MongoDB.Database).Collection("blobs")
		if err := EnsureMongoIndexes(ctx, p.blobs); err != nil {
			logger.Warnf("mongo blob index: %v", err)
		}
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.Blob.Backend)
	}
	logger.Infof("blob backend: %s", p.backend)
	return p, nil
}

// NewRedisProvider builds a provider over an existing client.
func NewRedisProvider(client *redis.Client) *Provider {
	return &Provider{backend: "redis", redis: client, memory: make(map[string]*MemoryBackend)}
}

// NewMemoryProvider builds an in-process provider.
func NewMemoryProvider() *Provider {
	return &Provider{backend: "memory", memory: make(map[string]*MemoryBackend)}
}

func (p *Provider) Backend() string { return p.backend }

// Redis returns the Redis client when the redis backend is in use.
func (p *Provider) Redis() *redis.Client { return p.redis }

// Store returns the named store. Memory stores are created once and reused.
func (p *Provider) Store(name string) *Store {
	switch p.backend {
	case "redis":
		return NewStore(name, NewRedisBackend(p.redis, "", name))
	case "minio":
		return NewStore(name, NewMinIOBackend(p.minio, p.bucket, name))
	case "mongo":
		return NewStore(name, NewMongoBackend(p.blobs, name))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.memory[name]
	if !ok {
		b = NewMemoryBackend()
		p.memory[name] = b
	}
	return NewStore(name, b)
}

// Ping checks the backend is reachable.
func (p *Provider) Ping(ctx context.Context) error {
	switch p.backend {
	case "redis":
		return p.redis.Ping(ctx).Err()
	case "minio":
		_, err := p.minio.BucketExists(ctx, p.bucket)
		return err
	case "mongo":
		return p.mongo.Ping(ctx, nil)
	}
	return nil
}

func (p *Provider) Close(ctx context.Context) error {
	switch p.backend {
	case "redis":
		return p.redis.Close()
	case "mongo":
		return p.mongo.Disconnect(ctx)
	}
	return nil
}
