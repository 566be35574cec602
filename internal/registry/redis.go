package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/javiersolana/crypto-swarm/internal/domain/models"
	"github.com/javiersolana/crypto-swarm/pkg/logger"
)

const hashKey = "swarm:registry"

// RedisRegistry stores watched entities in one Redis hash, field per
// entity key. Entities are deactivated in place, never removed, so an
// operator can always see why an address stopped being scanned.
type RedisRegistry struct {
	client *redis.Client
	log    *logger.Logger
}

func NewRedisRegistry(client *redis.Client, log *logger.Logger) *RedisRegistry {
	return &RedisRegistry{client: client, log: log}
}

func (r *RedisRegistry) LoadAll(ctx context.Context) ([]*models.WatchedEntity, error) {
	fields, err := r.client.HGetAll(ctx, hashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}

	entities := make([]*models.WatchedEntity, 0, len(fields))
	for field, raw := range fields {
		var entity models.WatchedEntity
		if err := json.Unmarshal([]byte(raw), &entity); err != nil {
			r.log.Warn("skipping corrupt registry entry", logger.String("key", field), logger.Error(err))
			continue
		}
		entities = append(entities, &entity)
	}
	return entities, nil
}

func (r *RedisRegistry) ReplaceAll(ctx context.Context, entities []*models.WatchedEntity) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, hashKey)
	for _, entity := range entities {
		raw, err := json.Marshal(entity)
		if err != nil {
			return fmt.Errorf("marshal entity %s: %w", entity.Key(), err)
		}
		pipe.HSet(ctx, hashKey, entity.Key(), raw)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("replace registry: %w", err)
	}
	return nil
}

func (r *RedisRegistry) Add(ctx context.Context, entity *models.WatchedEntity) error {
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = time.Now()
	}
	entity.Active = true

	raw, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("marshal entity %s: %w", entity.Key(), err)
	}
	if err := r.client.HSet(ctx, hashKey, entity.Key(), string(raw)).Err(); err != nil {
		return fmt.Errorf("add entity %s: %w", entity.Key(), err)
	}
	return nil
}

func (r *RedisRegistry) Deactivate(ctx context.Context, key string) error {
	return r.update(ctx, key, func(entity *models.WatchedEntity) {
		entity.Active = false
	})
}

func (r *RedisRegistry) TouchScanned(ctx context.Context, key string, at time.Time) error {
	return r.update(ctx, key, func(entity *models.WatchedEntity) {
		entity.LastScannedAt = at
	})
}

func (r *RedisRegistry) update(ctx context.Context, key string, mutate func(*models.WatchedEntity)) error {
	raw, err := r.client.HGet(ctx, hashKey, key).Result()
	if err == redis.Nil {
		return fmt.Errorf("entity %s not registered", key)
	}
	if err != nil {
		return fmt.Errorf("read entity %s: %w", key, err)
	}

	var entity models.WatchedEntity
	if err := json.Unmarshal([]byte(raw), &entity); err != nil {
		return fmt.Errorf("unmarshal entity %s: %w", key, err)
	}
	mutate(&entity)

	updated, err := json.Marshal(&entity)
	if err != nil {
		return fmt.Errorf("marshal entity %s: %w", key, err)
	}
	if err := r.client.HSet(ctx, hashKey, key, string(updated)).Err(); err != nil {
		return fmt.Errorf("write entity %s: %w", key, err)
	}
	return nil
}
