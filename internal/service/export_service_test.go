package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fasttrack/internal/domain"
	"fasttrack/internal/storage"
)

type fakeBackupStore struct {
	objects map[string][]byte
}

func newFakeBackupStore() *fakeBackupStore {
	return &fakeBackupStore{objects: make(map[string][]byte)}
}

func (f *fakeBackupStore) PutObject(ctx context.Context, key string, payload []byte) (string, error) {
	f.objects[key] = payload
	return "s3://test-bucket/" + key, nil
}

func (f *fakeBackupStore) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	var out []storage.ObjectInfo
	for key, payload := range f.objects {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			out = append(out, storage.ObjectInfo{Key: key, Size: int64(len(payload))})
		}
	}
	return out, nil
}

func (f *fakeBackupStore) DeletePrefix(ctx context.Context, prefix string) error {
	for key := range f.objects {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(f.objects, key)
		}
	}
	return nil
}

func TestSnapshot_Contents(t *testing.T) {
	store := setupStore(t)
	auth := NewAuthService(store, 16)
	export := NewExportService(store, nil, "")
	ctx := context.Background()

	user, err := auth.Register(ctx, "alice", "alice@example.com", "secret1")
	require.NoError(t, err)

	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	appendSession(t, store, user.ID, start, 10, 16)

	snapshot, err := export.Snapshot(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", snapshot.Profile.Name)
	assert.Equal(t, 16.0, snapshot.Settings.GoalHours)
	require.Len(t, snapshot.Sessions, 1)
	assert.Equal(t, 10.0, snapshot.Sessions[0].Duration)
	assert.False(t, snapshot.ExportedAt.IsZero())
}

func TestSnapshot_UnknownUser(t *testing.T) {
	store := setupStore(t)
	export := NewExportService(store, nil, "")

	_, err := export.Snapshot(context.Background(), 999)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestBackup_DisabledWithoutBucket(t *testing.T) {
	store := setupStore(t)
	export := NewExportService(store, nil, "")

	_, err := export.Backup(context.Background(), 1)
	require.ErrorIs(t, err, ErrBackupDisabled)
	_, err = export.ListBackups(context.Background(), 1)
	require.ErrorIs(t, err, ErrBackupDisabled)
}

func TestBackup_UploadsSnapshotJSON(t *testing.T) {
	store := setupStore(t)
	auth := NewAuthService(store, 16)
	backups := newFakeBackupStore()
	export := NewExportService(store, backups, "fasttrack-backups")
	ctx := context.Background()

	user, err := auth.Register(ctx, "alice", "alice@example.com", "secret1")
	require.NoError(t, err)

	location, err := export.Backup(ctx, user.ID)
	require.NoError(t, err)
	assert.Contains(t, location, "s3://test-bucket/fasttrack-backups/user-")

	require.Len(t, backups.objects, 1)
	for _, payload := range backups.objects {
		var snapshot domain.Snapshot
		require.NoError(t, json.Unmarshal(payload, &snapshot))
		assert.Equal(t, "alice", snapshot.Profile.Name)
	}

	listed, err := export.ListBackups(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	require.NoError(t, export.PurgeBackups(ctx, user.ID))
	listed, err = export.ListBackups(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)
}
