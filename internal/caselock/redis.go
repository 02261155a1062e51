package caselock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type Redis struct {
	locker *redislock.Client
	ttl    time.Duration
	log    *logrus.Logger
}

func NewRedis(client redis.UniversalClient, ttl time.Duration, log *logrus.Logger) *Redis {
	return &Redis{
		locker: redislock.New(client),
		ttl:    ttl,
		log:    log,
	}
}

// Connect: cliente Redis + ping, usado pelo cmd/server
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "",
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s: %w", addr, err)
	}
	return rdb, nil
}

func Key(caseID uint) string {
	return fmt.Sprintf("case-lock:%d", caseID)
}

func (r *Redis) Lock(ctx context.Context, caseID uint) (func(), error) {
	opts := &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(100 * time.Millisecond),
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.ttl)
		defer cancel()
	}

	lock, err := r.locker.Obtain(ctx, Key(caseID), r.ttl, opts)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("caso %d em uso por outra operação", caseID)
	}
	if err != nil {
		return nil, err
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go r.keepAlive(lock, caseID, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			// contexto novo: o da requisição pode já ter sido cancelado
			if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				r.log.WithField("case_id", caseID).WithError(err).Warn("falha ao liberar lock do caso")
			}
		})
	}, nil
}

// keepAlive renova o TTL enquanto a transação do caso não termina.
func (r *Redis) keepAlive(lock *redislock.Lock, caseID uint, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(refreshEvery(r.ttl))
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := lock.Refresh(context.Background(), r.ttl, nil); err != nil {
				r.log.WithField("case_id", caseID).WithError(err).Warn("lock do caso perdido antes do fim da operação")
				return
			}
		}
	}
}

// refreshEvery: metade do TTL, com piso de 500ms
func refreshEvery(ttl time.Duration) time.Duration {
	return max(ttl/2, 500*time.Millisecond)
}
