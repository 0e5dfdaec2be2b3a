package files

import (
	"context"
	"fmt"
	"time"

	"github.com/filedrop/filedrop/internal/common"
	"github.com/filedrop/filedrop/internal/logging"
	"github.com/filedrop/filedrop/internal/server/models"
	"github.com/filedrop/filedrop/internal/server/storage"
)

// Service drives the upload flows against the backing store and keeps the
// metadata index consistent with it. It performs the per-owner access checks
// itself; the backing store knows nothing about ownership.
type Service struct {
	store         *Store
	objects       storage.ObjectStorage
	logger        logging.Logger
	presignTTL    time.Duration
	maxUploadSize int64

	// seams for tests
	now   func() time.Time
	newID func() string
}

func NewService(store *Store, objects storage.ObjectStorage, logger logging.Logger, presignTTL time.Duration, maxUploadSize int64) *Service {
	return &Service{
		store:         store,
		objects:       objects,
		logger:        logger.With("module", "files"),
		presignTTL:    presignTTL,
		maxUploadSize: maxUploadSize,
		now:           time.Now,
		newID:         NewFileID,
	}
}

// Upload is the direct, buffered path: validate the declared type, write the
// bytes to the backing store, and only then record metadata. A failed write
// leaves no metadata behind.
func (s *Service) Upload(ctx context.Context, ownerID, originalName, declaredMimeType string, data []byte) (*models.FileInfo, error) {
	mimeType, err := ClassifyDeclared(declaredMimeType)
	if err != nil {
		return nil, err
	}
	// The HTTP layer caps the request body already; re-check here so the
	// orchestrator holds the invariant on its own.
	if int64(len(data)) > s.maxUploadSize {
		return nil, common.ErrorFileTooLarge
	}

	fileID := s.newID()
	key := DeriveKey(ownerID, fileID, originalName)

	if err := s.objects.Put(ctx, key, data, mimeType); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorUploadFailed, err)
	}

	rec := models.FileInfo{
		ID:           fileID,
		OriginalName: originalName,
		Size:         int64(len(data)),
		MimeType:     mimeType,
		StorageKey:   key,
		UploadedAt:   s.now(),
		OwnerID:      ownerID,
	}
	if err := s.store.Insert(rec); err != nil {
		return nil, fmt.Errorf("recording metadata: %w", err)
	}

	s.logger.Info(ctx, "file uploaded", "fileId", fileID, "ownerId", ownerID, "size", rec.Size)
	return &rec, nil
}

// CreateUploadURL is the presigned path: the client PUTs the bytes straight
// to the backing store. The metadata record is inserted immediately with
// size 0: it deliberately exists before the object does, and FinalizeSize
// fills the size in once the client reports completion.
func (s *Service) CreateUploadURL(ctx context.Context, ownerID, originalName, declaredMimeType string) (string, *models.FileInfo, error) {
	mimeType, err := ClassifyDeclared(declaredMimeType)
	if err != nil {
		return "", nil, err
	}

	fileID := s.newID()
	key := DeriveKey(ownerID, fileID, originalName)

	uploadURL, err := s.objects.PresignPut(ctx, key, mimeType, s.presignTTL)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", common.ErrorUploadFailed, err)
	}

	rec := models.FileInfo{
		ID:           fileID,
		OriginalName: originalName,
		Size:         0, // unknown until the client finishes its PUT
		MimeType:     mimeType,
		StorageKey:   key,
		UploadedAt:   s.now(),
		OwnerID:      ownerID,
	}
	if err := s.store.Insert(rec); err != nil {
		return "", nil, fmt.Errorf("recording metadata: %w", err)
	}

	s.logger.Info(ctx, "upload url issued", "fileId", fileID, "ownerId", ownerID)
	return uploadURL, &rec, nil
}

// FinalizeSize records the client-reported size of a presigned upload, last
// write wins. It is best-effort telemetry: an unknown id or an implausible
// size is logged and ignored rather than failed.
func (s *Service) FinalizeSize(ctx context.Context, fileID string, size int64) {
	if size < 0 || size > s.maxUploadSize {
		s.logger.Warn(ctx, "ignoring implausible reported size", "fileId", fileID, "size", size)
		return
	}
	if !s.store.SetSize(fileID, size) {
		s.logger.Warn(ctx, "size reported for unknown file", "fileId", fileID)
	}
}

// List returns the owner's records.
func (s *Service) List(ownerID string) []models.FileInfo {
	return s.store.ListByOwner(ownerID)
}

// DownloadURL issues a time-limited GET URL for the requester's own file.
// A file owned by someone else is indistinguishable from a missing one.
func (s *Service) DownloadURL(ctx context.Context, fileID, requesterID string) (string, error) {
	rec, ok := s.store.Get(fileID, requesterID)
	if !ok {
		return "", common.ErrorNotFound
	}

	url, err := s.objects.PresignGet(ctx, rec.StorageKey, s.presignTTL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrorUploadFailed, err)
	}
	return url, nil
}

// Delete removes the backing object first and the metadata record second.
// If the storage delete fails the record stays, so the object remains
// reachable for a retry; the reverse order would strand an object that the
// reconciliation scan is the only way back to.
func (s *Service) Delete(ctx context.Context, fileID, requesterID string) error {
	rec, ok := s.store.Get(fileID, requesterID)
	if !ok {
		return common.ErrorNotFound
	}

	if err := s.objects.Delete(ctx, rec.StorageKey); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorDeleteFailed, err)
	}

	s.store.Remove(fileID, requesterID)
	s.logger.Info(ctx, "file deleted", "fileId", fileID, "ownerId", requesterID)
	return nil
}
