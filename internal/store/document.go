// Goalpost - Stream Donation Goal Tracking Overlay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/goalpost

// Package store persists the goal-state document and mediates every write
// to it. DocumentStore is a thin JSON-document layer over BadgerDB;
// GoalStore on top of it is the merge engine that owns the GoalState
// document exclusively.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/goalpost/internal/apperror"
)

// DocumentStore stores JSON documents at fixed logical keys in BadgerDB.
type DocumentStore struct {
	db *badger.DB
}

// Open opens (or creates) the store at path. With inMemory set, path is
// ignored and nothing touches disk; used by tests and ephemeral sessions.
func Open(path string, inMemory bool) (*DocumentStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, apperror.Persistence("open store", err)
	}
	return &DocumentStore{db: db}, nil
}

// Close releases the underlying database.
func (s *DocumentStore) Close() error {
	if err := s.db.Close(); err != nil {
		return apperror.Persistence("close store", err)
	}
	return nil
}

// Get unmarshals the document at key into out. A missing key is reported
// as a NotFoundError; any other failure as a PersistenceError.
func (s *DocumentStore) Get(ctx context.Context, key string, out any) error {
	if err := ctx.Err(); err != nil {
		return apperror.Persistence("get "+key, err)
	}
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, out); err != nil {
				return fmt.Errorf("unmarshal document: %w", err)
			}
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return apperror.NotFound("document", key)
	}
	if err != nil {
		return apperror.Persistence("get "+key, err)
	}
	return nil
}

// Put marshals v and stores it wholesale at key.
func (s *DocumentStore) Put(ctx context.Context, key string, v any) error {
	if err := ctx.Err(); err != nil {
		return apperror.Persistence("put "+key, err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return apperror.Persistence("marshal "+key, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return apperror.Persistence("put "+key, err)
	}
	return nil
}
