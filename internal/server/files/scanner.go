package files

import (
	"context"
	"fmt"

	"github.com/filedrop/filedrop/internal/server/models"
)

// Reconcile rebuilds the metadata index from the backing store's object
// listing. It runs once at startup, before request traffic is accepted.
//
// The backing store is the source of truth; the index is a derived cache, so
// reconciliation favors availability over completeness: a malformed key or a
// zero-size placeholder is skipped, and a listing failure is reported to the
// caller to log. The process then serves with whatever was recovered.
func (s *Service) Reconcile(ctx context.Context) error {
	objects, err := s.objects.List(ctx, KeyPrefix)
	if err != nil {
		return fmt.Errorf("listing backing store: %w", err)
	}

	restored := 0
	for _, obj := range objects {
		ownerID, fileID, originalName, ok := ParseKey(obj.Key)
		if !ok {
			s.logger.Warn(ctx, "skipping object with malformed key", "key", obj.Key)
			continue
		}
		// Zero-size objects are directory placeholders, not uploads.
		if obj.Size == 0 {
			continue
		}

		rec := models.FileInfo{
			ID:           fileID,
			OriginalName: originalName,
			Size:         obj.Size,
			MimeType:     ClassifyFromExtension(originalName),
			StorageKey:   obj.Key,
			UploadedAt:   obj.LastModified,
			OwnerID:      ownerID,
		}
		if err := s.store.Insert(rec); err != nil {
			s.logger.Warn(ctx, "skipping object during reconciliation", "key", obj.Key, "error", err.Error())
			continue
		}
		restored++
	}

	s.logger.Info(ctx, "metadata index rebuilt", "listed", len(objects), "restored", restored)
	return nil
}
