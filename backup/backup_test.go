package backup

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/hlxmatrix/errors"
	"github.com/c360/hlxmatrix/model"
	"github.com/c360/hlxmatrix/natsclient"
)

func configured(t *testing.T) *model.Model {
	t.Helper()
	m := model.New()
	z, err := m.Zone(3)
	require.NoError(t, err)
	_, err = z.SetName("Kitchen")
	require.NoError(t, err)
	_, err = z.SetVolume(-22)
	require.NoError(t, err)
	g, err := m.Group(2)
	require.NoError(t, err)
	_, err = g.AddMember(3)
	require.NoError(t, err)
	_, err = m.Network.SetEUI48("00-11-22-aa-bb-cc")
	require.NoError(t, err)
	return m
}

type entry struct {
	key   string
	value []byte
	rev   uint64
}

func (e entry) Bucket() string                  { return "hlx_backup" }
func (e entry) Key() string                     { return e.key }
func (e entry) Value() []byte                   { return e.value }
func (e entry) Revision() uint64                { return e.rev }
func (e entry) Created() time.Time              { return time.Time{} }
func (e entry) Delta() uint64                   { return 0 }
func (e entry) Operation() jetstream.KeyValueOp { return jetstream.KeyValuePut }

type bucket map[string]entry

func (b bucket) Get(_ context.Context, key string) (jetstream.KeyValueEntry, error) {
	e, ok := b[key]
	if !ok {
		return nil, jetstream.ErrKeyNotFound
	}
	return e, nil
}

func (b bucket) Put(_ context.Context, key string, value []byte) (uint64, error) {
	rev := b[key].rev + 1
	b[key] = entry{key: key, value: value, rev: rev}
	return rev, nil
}

func (b bucket) Delete(_ context.Context, key string, _ ...jetstream.KVDeleteOpt) error {
	delete(b, key)
	return nil
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	return map[string]Store{
		"memory": NewMemoryStore(),
		"kv":     NewKVStore(natsclient.NewKVStore(bucket{}, time.Second, nil), "", nil),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			m := configured(t)
			require.NoError(t, store.Save(ctx, m.Snapshot()))

			// Later changes must not reach the saved copy.
			z, _ := m.Zone(3)
			_, _ = z.SetName("Pantry")

			got, err := store.Load(ctx)
			require.NoError(t, err)
			if diff := cmp.Diff(configured(t).Snapshot(), got); diff != "" {
				t.Errorf("loaded snapshot mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStoreNotFound(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Load(context.Background())
			assert.ErrorIs(t, err, errors.ErrBackupNotFound)
		})
	}
}

func TestKVStoreRejectsCorruptBackup(t *testing.T) {
	b := bucket{}
	kv := natsclient.NewKVStore(b, 0, nil)
	_, err := kv.Put(context.Background(), DefaultKey, []byte(`{"zones":[]}`))
	require.NoError(t, err)

	_, err = NewKVStore(kv, DefaultKey, nil).Load(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}
