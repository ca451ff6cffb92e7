package repo

import (
	"codegen"
	"codegen/pkg"
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const stickyKeyPrefix = "gii:sticky:"

// StickyRepository remembers the last successfully previewed attribute values
// of each generator.
type StickyRepository struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewStickyRepository() *StickyRepository {
	return &StickyRepository{Redis: codegen.Redis, TTL: codegen.GetConfig().Gii.StickyTTL}
}

func stickyKey(generatorID string) string {
	return stickyKeyPrefix + generatorID
}

// Get returns the stored values, or an empty map when nothing was stored yet
func (slf *StickyRepository) Get(ctx context.Context, generatorID string) (map[string]string, error) {
	values := make(map[string]string)
	err := pkg.RedisGet(ctx, slf.Redis, stickyKey(generatorID), &values)
	if pkg.IsRedisNil(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sticky attributes of %s: %w", generatorID, err)
	}
	return values, nil
}

// Save replaces the stored values of a generator
func (slf *StickyRepository) Save(ctx context.Context, generatorID string, values map[string]string) error {
	if err := pkg.RedisSet(ctx, slf.Redis, stickyKey(generatorID), values, slf.TTL); err != nil {
		return fmt.Errorf("failed to save sticky attributes of %s: %w", generatorID, err)
	}
	return nil
}

func (slf *StickyRepository) Delete(ctx context.Context, generatorID string) error {
	return pkg.RedisDelete(ctx, slf.Redis, stickyKey(generatorID))
}
