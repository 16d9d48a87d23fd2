package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"fasttrack/internal/domain"
	"fasttrack/internal/repository"
	"fasttrack/internal/storage"
)

// ErrBackupDisabled is returned when no object-storage bucket is configured.
var ErrBackupDisabled = errors.New("backup storage is not configured")

// ExportService produces the read-only snapshot document and optionally ships
// it to object storage as a backup. Export only; there is no import path for
// a snapshot.
type ExportService interface {
	Snapshot(ctx context.Context, userID int64) (*domain.Snapshot, error)
	Backup(ctx context.Context, userID int64) (string, error)
	ListBackups(ctx context.Context, userID int64) ([]storage.ObjectInfo, error)
	PurgeBackups(ctx context.Context, userID int64) error
}

type exportService struct {
	store     repository.Store
	backups   storage.Service // nil when backups are disabled
	keyPrefix string
	now       func() time.Time
}

func NewExportService(store repository.Store, backups storage.Service, keyPrefix string) ExportService {
	return &exportService{
		store:     store,
		backups:   backups,
		keyPrefix: strings.Trim(keyPrefix, "/"),
		now:       time.Now,
	}
}

func (s *exportService) Snapshot(ctx context.Context, userID int64) (*domain.Snapshot, error) {
	profile, err := s.store.Profiles().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	settings, err := s.store.Settings().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.store.HistorySessions().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []domain.HistorySession{}
	}

	return &domain.Snapshot{
		Profile:    *profile,
		Sessions:   sessions,
		Settings:   *settings,
		ExportedAt: s.now().UTC(),
	}, nil
}

func (s *exportService) Backup(ctx context.Context, userID int64) (string, error) {
	if s.backups == nil {
		return "", ErrBackupDisabled
	}

	snapshot, err := s.Snapshot(ctx, userID)
	if err != nil {
		return "", err
	}
	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	key := fmt.Sprintf("%s/snapshot-%s.json",
		s.userPrefix(userID),
		snapshot.ExportedAt.Format("20060102T150405Z"),
	)
	return s.backups.PutObject(ctx, key, payload)
}

func (s *exportService) ListBackups(ctx context.Context, userID int64) ([]storage.ObjectInfo, error) {
	if s.backups == nil {
		return nil, ErrBackupDisabled
	}
	return s.backups.ListObjects(ctx, s.userPrefix(userID)+"/")
}

func (s *exportService) PurgeBackups(ctx context.Context, userID int64) error {
	if s.backups == nil {
		return ErrBackupDisabled
	}
	return s.backups.DeletePrefix(ctx, s.userPrefix(userID)+"/")
}

func (s *exportService) userPrefix(userID int64) string {
	if s.keyPrefix == "" {
		return fmt.Sprintf("user-%d", userID)
	}
	return fmt.Sprintf("%s/user-%d", s.keyPrefix, userID)
}
