// Package kvstore provides the embedded Badger storage backend.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"rupl/internal/persistence"

	"github.com/dgraph-io/badger/v4"
)

// Config controls how the database is opened.
type Config struct {
	// Path is the data directory. Ignored when InMemory is set.
	Path     string
	InMemory bool
	// Logger receives Badger's own log lines. Nil silences them.
	Logger *slog.Logger
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// BadgerKV implements persistence.KV on an embedded Badger database.
type BadgerKV struct {
	db *badger.DB
}

// Open opens the database described by cfg, creating the directory if needed.
func Open(cfg Config) (*BadgerKV, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &BadgerKV{db: db}, nil
}

func (k *BadgerKV) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []byte
	err := k.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, persistence.ErrKeyNotFound
	}
	return out, err
}

// Write applies the batch in one read-write transaction.
func (k *BadgerKV) Write(ctx context.Context, b *persistence.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return k.db.Update(func(txn *badger.Txn) error {
		for _, key := range b.Deletes {
			if err := txn.Delete([]byte(key)); err != nil {
				return err
			}
		}
		for key, v := range b.Sets {
			if err := txn.Set([]byte(key), v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (k *BadgerKV) Close() error {
	return k.db.Close()
}
