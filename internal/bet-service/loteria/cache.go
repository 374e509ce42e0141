package loteria

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Cache guarda resultados já normalizados; concursos apurados não mudam
type Cache interface {
	Get(ctx context.Context, jogo string, concurso int) (Result, bool, error)
	Set(ctx context.Context, jogo string, concurso int, r Result) error
}

type RedisCache struct {
	R   *redis.Client
	TTL time.Duration
}

func NewRedisCache(r *redis.Client, ttl time.Duration) *RedisCache { return &RedisCache{R: r, TTL: ttl} }

func keyResult(jogo string, concurso int) string {
	return fmt.Sprintf("loteria:result:%s:%d", jogo, concurso)
}

func (c *RedisCache) Get(ctx context.Context, jogo string, concurso int) (Result, bool, error) {
	b, err := c.R.Get(ctx, keyResult(jogo, concurso)).Bytes()
	if err == redis.Nil {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, err
	}
	var r Result
	if err := json.Unmarshal(b, &r); err != nil {
		return Result{}, false, err
	}
	return r, true, nil
}

func (c *RedisCache) Set(ctx context.Context, jogo string, concurso int, r Result) error {
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, keyResult(jogo, concurso), b, c.TTL).Err()
}

// CachedFetcher consulta o cache antes da API. Falhas do cache só geram log.
type CachedFetcher struct {
	Upstream Fetcher
	Cache    Cache
	Log      *zap.Logger

	// callbacks de métricas (opcionais)
	OnHit  func()
	OnMiss func()
}

func NewCachedFetcher(up Fetcher, c Cache, log *zap.Logger) *CachedFetcher {
	return &CachedFetcher{Upstream: up, Cache: c, Log: log}
}

func (f *CachedFetcher) Fetch(ctx context.Context, jogo string, concurso int) (Result, error) {
	if r, ok, err := f.Cache.Get(ctx, jogo, concurso); err != nil {
		f.Log.Warn("cache de resultados indisponível", zap.String("jogo", jogo), zap.Int("concurso", concurso), zap.Error(err))
	} else if ok {
		if f.OnHit != nil {
			f.OnHit()
		}
		return r, nil
	}

	if f.OnMiss != nil {
		f.OnMiss()
	}
	r, err := f.Upstream.Fetch(ctx, jogo, concurso)
	if err != nil {
		return Result{}, err
	}
	if err := f.Cache.Set(ctx, jogo, concurso, r); err != nil {
		f.Log.Warn("falha ao gravar resultado no cache", zap.String("jogo", jogo), zap.Int("concurso", concurso), zap.Error(err))
	}
	return r, nil
}

var _ Fetcher = (*CachedFetcher)(nil)
