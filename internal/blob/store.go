// Package blob is a small key-value gateway over a durable blob service.
// Values are opaque bytes; the JSON helpers cover the common case of one
// document per key. Missing keys are reported as absent, never as errors.
package blob

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// Backend is the storage primitive a named Store is built on. Get returns
// (nil, nil) for a missing key.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) (bool, error)
	Keys(ctx context.Context) ([]string, error)
}

// Entry is one item returned by List.
type Entry struct {
	Key string `json:"key"`
}

// Store is a named key space.
type Store struct {
	name    string
	backend Backend
}

// NewStore wraps backend as the store called name.
func NewStore(name string, backend Backend) *Store {
	return &Store{name: name, backend: backend}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.backend.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("blob %s/%s get: %w", s.name, key, err)
	}
	return v, nil
}

// GetJSON decodes the value at key into v. It reports false when the key
// does not exist.
func (s *Store) GetJSON(ctx context.Context, key string, v any) (bool, error) {
	b, err := s.Get(ctx, key)
	if err != nil || b == nil {
		return false, err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("blob %s/%s decode: %w", s.name, key, err)
	}
	return true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.backend.Set(ctx, key, value); err != nil {
		return fmt.Errorf("blob %s/%s set: %w", s.name, key, err)
	}
	return nil
}

func (s *Store) SetJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("blob %s/%s encode: %w", s.name, key, err)
	}
	return s.Set(ctx, key, b)
}

// Delete removes key and reports whether it existed.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	ok, err := s.backend.Delete(ctx, key)
	if err != nil {
		return false, fmt.Errorf("blob %s/%s delete: %w", s.name, key, err)
	}
	return ok, nil
}

// List returns every key in the store, sorted.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	keys, err := s.backend.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("blob %s list: %w", s.name, err)
	}
	sort.Strings(keys)
	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		out = append(out, Entry{Key: k})
	}
	return out, nil
}
