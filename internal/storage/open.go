package storage

import (
	"fmt"

	"go.uber.org/zap"
)

// Driver names accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Options selects and configures a driver.
type Options struct {
	Driver string
	// Path is the SQLite file or Badger directory. Empty selects the
	// driver default (~/.tracklens/state.db for SQLite, in-memory for Badger).
	Path  string
	Redis RedisOptions
}

// Open creates and initializes the configured store.
//
// A SQLite store that fails to initialize is returned disabled rather than
// as an error; the other drivers report initialization errors.
func Open(opts Options, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var s Store
	switch opts.Driver {
	case "", DriverSQLite:
		sqlite := NewSQLiteStorage(opts.Path, logger)
		if err := sqlite.Init(); err != nil {
			logger.Warn("continuing without persistence", zap.Error(err))
		}
		return sqlite, nil
	case DriverBadger:
		s = NewBadgerStore(opts.Path)
	case DriverRedis:
		s = NewRedisStore(opts.Redis)
	case DriverMemory:
		s = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", opts.Driver)
	}

	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", opts.Driver, err)
	}
	return s, nil
}
