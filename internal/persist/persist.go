// Package persist stores the client caches between sessions. Each store is
// one JSON blob under a named slot in a durable keyed backend.
package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Slot names, one per store.
const (
	SlotPosts    = "post-storage"
	SlotComments = "comment"
	SlotProfile  = "profile-storage"
)

// Slots lists every slot the session writes.
var Slots = []string{SlotPosts, SlotComments, SlotProfile}

// ErrSlotEmpty is returned by Load when nothing was saved under the slot.
var ErrSlotEmpty = errors.New("slot empty")

// Backend is a durable key-value store of opaque blobs.
type Backend interface {
	Load(ctx context.Context, slot string) ([]byte, error)
	Save(ctx context.Context, slot string, blob []byte) error
	Delete(ctx context.Context, slot string) error
	Close() error
}

var (
	_ Backend = (*FileBackend)(nil)
	_ Backend = (*SQLiteBackend)(nil)
	_ Backend = (*PostgresBackend)(nil)
)

// Backend names accepted by Open.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Options select and configure a backend.
type Options struct {
	Backend string // file (default), sqlite or postgres
	Dir     string // expanded state directory for file and sqlite
	DSN     string // postgres connection string; sqlite path override
}

// Open builds the backend named in opts.
func Open(ctx context.Context, opts Options) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendFile:
		return NewFileBackend(opts.Dir)
	case BackendSQLite:
		path, err := sqlitePath(opts)
		if err != nil {
			return nil, err
		}
		return NewSQLiteBackend(path)
	case BackendPostgres:
		return NewPostgresBackend(ctx, opts.DSN)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
}

const blobVersion = 1

// envelope mirrors the {"state": ..., "version": n} layout of saved slots.
type envelope struct {
	State   json.RawMessage `json:"state"`
	Version int             `json:"version"`
}

// SaveJSON encodes v into slot.
func SaveJSON(ctx context.Context, b Backend, slot string, v any) error {
	state, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", slot, err)
	}
	blob, err := json.Marshal(envelope{State: state, Version: blobVersion})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", slot, err)
	}
	if err := b.Save(ctx, slot, blob); err != nil {
		return fmt.Errorf("save %s: %w", slot, err)
	}
	return nil
}

// LoadJSON decodes slot into v. It returns ErrSlotEmpty when the slot was
// never saved and an error for blobs written by an unknown version.
func LoadJSON(ctx context.Context, b Backend, slot string, v any) error {
	blob, err := b.Load(ctx, slot)
	if err != nil {
		if errors.Is(err, ErrSlotEmpty) {
			return err
		}
		return fmt.Errorf("load %s: %w", slot, err)
	}
	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return fmt.Errorf("parse %s: %w", slot, err)
	}
	if env.Version != blobVersion {
		return fmt.Errorf("parse %s: unsupported version %d", slot, env.Version)
	}
	if len(env.State) == 0 || string(env.State) == "null" {
		return ErrSlotEmpty
	}
	if err := json.Unmarshal(env.State, v); err != nil {
		return fmt.Errorf("parse %s: %w", slot, err)
	}
	return nil
}
