package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"pkt.systems/pslog"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrUnknownBackend = errors.New("unknown store backend")
)

const (
	BackendBadger   = "badger"
	BackendPostgres = "postgres"
)

// Options selects and configures a store backend.
type Options struct {
	Backend string

	// BadgerPath is the data directory for the badger backend.
	BadgerPath string
	// InMemory keeps badger data in memory only.
	InMemory bool

	Postgres PoolConfig

	Logger pslog.Logger
}

// Open returns the PostRepository selected by opts.Backend. There is no lock
// above the store; concurrent callers rely on the backend's own transactions
// or connection checkout.
func Open(ctx context.Context, opts Options) (PostRepository, error) {
	logger := opts.Logger
	if logger == nil {
		logger = pslog.NoopLogger()
	}
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendBadger:
		db, err := OpenBadger(opts.BadgerPath, opts.InMemory, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("store.open", "backend", BackendBadger, "path", opts.BadgerPath, "in_memory", opts.InMemory)
		return NewBadgerPostRepository(db), nil
	case BackendPostgres:
		pool, err := NewPostgresPool(ctx, opts.Postgres)
		if err != nil {
			return nil, err
		}
		repo, err := NewPostgresPostRepository(ctx, pool, opts.Postgres.AcquireTimeout)
		if err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("store.open", "backend", BackendPostgres,
			"max_conns", opts.Postgres.MaxConns, "min_conns", opts.Postgres.MinConns)
		return repo, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

// OpenBadger opens (or creates) a badger store, routing its logs through logger.
func OpenBadger(path string, inMemory bool, logger pslog.Logger) (*badger.DB, error) {
	if inMemory {
		path = ""
	}
	opts := badger.DefaultOptions(path).
		WithInMemory(inMemory).
		WithLogger(badgerLogger{logger: logger}).
		WithNumVersionsToKeep(1)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}
	return db, nil
}

// badgerLogger adapts pslog to badger.Logger. Badger's info chatter is demoted
// to debug.
type badgerLogger struct {
	logger pslog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(badgerMessage(format, args...), "sys", "store.badger")
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(badgerMessage(format, args...), "sys", "store.badger")
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(badgerMessage(format, args...), "sys", "store.badger")
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(badgerMessage(format, args...), "sys", "store.badger")
}

func badgerMessage(format string, args ...interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
