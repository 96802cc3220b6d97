// Package backup stores the server's configuration backup, the snapshot
// written by SAVE and restored by LOAD.
package backup

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/c360/hlxmatrix/errors"
	"github.com/c360/hlxmatrix/model"
	"github.com/c360/hlxmatrix/natsclient"
)

// DefaultKey is the KV key holding the backup.
const DefaultKey = "configuration"

// Store persists one configuration snapshot.
type Store interface {
	Save(ctx context.Context, s model.Snapshot) error
	// Load returns the saved snapshot, or errors.ErrBackupNotFound when
	// nothing was saved.
	Load(ctx context.Context) (model.Snapshot, error)
}

// MemoryStore keeps the backup in process. It is the default when no NATS
// server is configured.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

// Save replaces the backup. The snapshot is serialized so later model
// changes cannot reach it.
func (m *MemoryStore) Save(_ context.Context, s model.Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return errors.WrapInvalid(err, "backup", "Save", "encode snapshot")
	}
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}

// Load returns the backup.
func (m *MemoryStore) Load(_ context.Context) (model.Snapshot, error) {
	m.mu.Lock()
	data := m.data
	m.mu.Unlock()
	if data == nil {
		return model.Snapshot{}, errors.ErrBackupNotFound
	}
	return decode(data)
}

func decode(data []byte) (model.Snapshot, error) {
	var s model.Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return model.Snapshot{}, errors.WrapInvalid(err, "backup", "Load", "decode snapshot")
	}
	if err := s.Validate(); err != nil {
		return model.Snapshot{}, errors.WrapInvalid(err, "backup", "Load", "validate snapshot")
	}
	return s, nil
}

// KVStore keeps the backup in a NATS KV bucket so it survives restarts
// and can be shared by several simulators.
type KVStore struct {
	kv     *natsclient.KVStore
	key    string
	logger *slog.Logger
}

// NewKVStore stores the backup under key, DefaultKey when empty.
func NewKVStore(kv *natsclient.KVStore, key string, logger *slog.Logger) *KVStore {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KVStore{kv: kv, key: key, logger: logger.With("component", "backup", "key", key)}
}

// Save writes the snapshot.
func (k *KVStore) Save(ctx context.Context, s model.Snapshot) error {
	rev, err := k.kv.PutJSON(ctx, k.key, s)
	if err != nil {
		return errors.WrapTransient(err, "backup", "Save", "put snapshot")
	}
	k.logger.Info("Configuration backed up", "revision", rev)
	return nil
}

// Load reads the snapshot.
func (k *KVStore) Load(ctx context.Context) (model.Snapshot, error) {
	entry, err := k.kv.Get(ctx, k.key)
	if err != nil {
		if natsclient.IsKVNotFoundError(err) {
			return model.Snapshot{}, errors.ErrBackupNotFound
		}
		return model.Snapshot{}, errors.WrapTransient(err, "backup", "Load", "get snapshot")
	}
	s, err := decode(entry.Value)
	if err != nil {
		return model.Snapshot{}, err
	}
	k.logger.Info("Configuration backup loaded", "revision", entry.Revision)
	return s, nil
}
