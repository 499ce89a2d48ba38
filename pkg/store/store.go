// Package store is a small key-attribute document store. Documents are JSON
// objects addressed by (collection, id); queries are conjunctions of
// top-level attribute conditions. Backends live in sub-packages.
package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("store: not found")
	ErrExists   = errors.New("store: already exists")
)

// Backend persists raw JSON documents. Find returns documents in insertion
// order. Mutate is the only read-modify-write primitive and must be atomic
// with respect to other writers of the same document.
type Backend interface {
	Insert(ctx context.Context, coll, id string, doc []byte) error
	Get(ctx context.Context, coll, id string) ([]byte, error)
	Find(ctx context.Context, coll string, f Filter) ([][]byte, error)
	Replace(ctx context.Context, coll, id string, doc []byte) error
	Mutate(ctx context.Context, coll, id string, fn func(doc []byte) ([]byte, error)) error
	Delete(ctx context.Context, coll, id string) error
	DeleteWhere(ctx context.Context, coll string, f Filter) (int, error)
}
