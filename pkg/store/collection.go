package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Meta is embedded by every stored record.
type Meta struct {
	ID          string    `json:"_id"`
	DateCreated time.Time `json:"dateCreated"`
	DateUpdated time.Time `json:"dateUpdated"`
}

// Collection is a typed view over one backend collection. T must embed Meta.
type Collection[T any] struct {
	b     Backend
	name  string
	now   func() time.Time
	newID func() string
}

func NewCollection[T any](b Backend, name string) *Collection[T] {
	return &Collection[T]{
		b:     b,
		name:  name,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

func (c *Collection[T]) Name() string { return c.name }

// Create stores doc under a fresh id and returns the id.
func (c *Collection[T]) Create(ctx context.Context, doc T) (string, error) {
	return c.CreateWithID(ctx, c.newID(), doc)
}

// CreateWithID stores doc under id, failing with ErrExists if it is taken.
// Callers use a deterministic id when creation must be idempotent.
func (c *Collection[T]) CreateWithID(ctx context.Context, id string, doc T) (string, error) {
	now := c.now()
	raw, err := stamp(doc, id, now, now)
	if err != nil {
		return "", err
	}
	if err := c.b.Insert(ctx, c.name, id, raw); err != nil {
		return "", err
	}
	return id, nil
}

func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	raw, err := c.b.Get(ctx, c.name, id)
	if err != nil {
		return zero, err
	}
	return decode[T](raw)
}

// FindOne returns the first match in insertion order or ErrNotFound.
func (c *Collection[T]) FindOne(ctx context.Context, f Filter) (T, error) {
	var zero T
	all, err := c.b.Find(ctx, c.name, f)
	if err != nil {
		return zero, err
	}
	if len(all) == 0 {
		return zero, ErrNotFound
	}
	return decode[T](all[0])
}

func (c *Collection[T]) Find(ctx context.Context, f Filter) ([]T, error) {
	all, err := c.b.Find(ctx, c.name, f)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(all))
	for _, raw := range all {
		v, err := decode[T](raw)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Update applies fn to the stored record atomically. The id and creation
// date are preserved whatever fn does to them.
func (c *Collection[T]) Update(ctx context.Context, id string, fn func(*T) error) (T, error) {
	var out T
	err := c.b.Mutate(ctx, c.name, id, func(raw []byte) ([]byte, error) {
		var m Meta
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("store: decode %s/%s: %w", c.name, id, err)
		}
		v, err := decode[T](raw)
		if err != nil {
			return nil, err
		}
		if err := fn(&v); err != nil {
			return nil, err
		}
		next, err := stamp(v, id, m.DateCreated, c.now())
		if err != nil {
			return nil, err
		}
		out, err = decode[T](next)
		return next, err
	})
	return out, err
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	return c.b.Delete(ctx, c.name, id)
}

func (c *Collection[T]) DeleteWhere(ctx context.Context, f Filter) (int, error) {
	return c.b.DeleteWhere(ctx, c.name, f)
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func stamp(doc any, id string, created, updated time.Time) ([]byte, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("store: encode: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("store: document must be an object: %w", err)
	}
	m["_id"] = id
	m["dateCreated"] = created
	m["dateUpdated"] = updated
	return json.Marshal(m)
}

func decode[T any](raw []byte) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("store: decode: %w", err)
	}
	return v, nil
}
