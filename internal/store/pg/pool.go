package pg

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/openidgate/internal/observability/logger"
)

// PoolManager caches pgxpools by hashed DSN. Concurrent first calls for
// the same DSN share one dial through singleflight.
type PoolManager struct {
	pools sync.Map // hash(DSN) → *pgxpool.Pool
	sf    singleflight.Group

	// MaxConns applies when the DSN does not set pool_max_conns.
	MaxConns int32
}

func NewPoolManager() *PoolManager {
	return &PoolManager{MaxConns: 10}
}

// GetPool returns a cached pool for dsn or creates one.
func (m *PoolManager) GetPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	key := hashDSN(dsn)
	if p, ok := m.pools.Load(key); ok {
		return p.(*pgxpool.Pool), nil
	}

	v, err, _ := m.sf.Do(key, func() (any, error) {
		if p, ok := m.pools.Load(key); ok {
			return p, nil
		}
		cfg, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse dsn: %w", err)
		}
		if !strings.Contains(dsn, "pool_max_conns") && m.MaxConns > 0 {
			cfg.MaxConns = m.MaxConns
		}
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("create pool: %w", err)
		}

		// Log safe connection info
		target := fmt.Sprintf("%s@%s:%d/%s", cfg.ConnConfig.User, cfg.ConnConfig.Host, cfg.ConnConfig.Port, cfg.ConnConfig.Database)
		logger.From(ctx).Debug("created new pgxpool",
			logger.Component("store.pg"),
			logger.String("pool_key", key),
			logger.String("db_target", target),
		)
		m.pools.Store(key, pool)
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*pgxpool.Pool), nil
}

// CloseAll closes every managed pool.
func (m *PoolManager) CloseAll() {
	m.pools.Range(func(key, value any) bool {
		if p, ok := value.(*pgxpool.Pool); ok {
			p.Close()
		}
		m.pools.Delete(key)
		return true
	})
}

func hashDSN(dsn string) string {
	h := sha256.Sum256([]byte(strings.TrimSpace(dsn)))
	return base64.RawURLEncoding.EncodeToString(h[:])
}
