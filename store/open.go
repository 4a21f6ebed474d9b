package store

import (
	"context"

	"github.com/Thanhdhxd/logbook-app/config"
)

// Open connects the backend named by cfg.StoreDriver.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	if cfg.StoreDriver == config.DriverSQLite {
		st, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
	st, err := OpenMongo(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, err
	}
	return st, nil
}
