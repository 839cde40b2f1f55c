package cli

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/zefrenchwan/egonet.git/config"
	"github.com/zefrenchwan/egonet.git/storage"
	"github.com/zefrenchwan/egonet.git/storage/badgerdb"
	"github.com/zefrenchwan/egonet.git/storage/boltdb"
	"github.com/zefrenchwan/egonet.git/storage/postgres"
	"github.com/zefrenchwan/egonet.git/versioned"
	"go.uber.org/zap"
)

// OpenBackend opens the row store of the configuration.
// Postgres schema is migrated before use
func OpenBackend(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return storage.NewMemoryStore(), nil
	case "bolt":
		db, err := boltdb.Open(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}

		return db, nil
	case "badger":
		db, err := badgerdb.Open(cfg.Storage.Path, logger)
		if err != nil {
			return nil, err
		}

		return db, nil
	case "postgres":
		dao, err := postgres.NewDao(ctx, cfg.Storage.URL)
		if err != nil {
			return nil, err
		}

		if err := dao.Migrate(ctx, logger); err != nil {
			dao.Close()
			return nil, err
		}

		return dao, nil
	default:
		return nil, errors.Newf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// OpenStore opens the configured backend and returns the versioned store over it.
// Rejections are logged at info level by the store
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (*versioned.Store, error) {
	backend, err := OpenBackend(ctx, cfg, logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s storage", cfg.Storage.Backend)
	}

	logger.Debugw("storage opened", "backend", cfg.Storage.Backend)
	return versioned.New(backend, versioned.Options{Logger: logger}), nil
}
