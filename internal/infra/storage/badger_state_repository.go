package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v3"

	"weekly_scheduler_bot/internal/domain/cycle"
)

const stateKeyPrefix = "cycle:"

// BadgerStateRepository stores states in an embedded BadgerDB under
// "cycle:<channel>" keys.
type BadgerStateRepository struct {
	db *badger.DB
}

// OpenBadgerStateRepository opens (or creates) the database in dir.
func OpenBadgerStateRepository(dir string) (*BadgerStateRepository, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	opts := badger.DefaultOptions(absPath)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}
	return &BadgerStateRepository{db: db}, nil
}

func (r *BadgerStateRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func stateKey(channelKey string) []byte {
	return []byte(stateKeyPrefix + channelKey)
}

func (r *BadgerStateRepository) Load(_ context.Context, channelKey string) (*cycle.State, error) {
	var data []byte
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(stateKey(channelKey))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, cycle.ErrStateNotFound
		}
		return nil, fmt.Errorf("failed to load cycle state: %w", err)
	}
	return cycle.Decode(data)
}

func (r *BadgerStateRepository) Save(_ context.Context, channelKey string, st *cycle.State) error {
	data, err := cycle.Encode(st)
	if err != nil {
		return err
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(stateKey(channelKey), data)
	})
	if err != nil {
		return fmt.Errorf("failed to save cycle state: %w", err)
	}
	return nil
}
