// Package models defines server-side data models.
package models

import "time"

// FileInfo describes the metadata tracked for one uploaded file. The file
// bytes themselves live in object storage under StorageKey; this record is a
// derived, rebuildable index entry.
type FileInfo struct {
	// ID is the opaque primary key, assigned at creation and immutable.
	ID string `json:"id"`
	// OriginalName is the filename as supplied by the uploading client.
	OriginalName string `json:"originalName"`
	// Size is the byte count. Zero is a valid transient value for presigned
	// uploads whose size the client has not reported yet.
	Size int64 `json:"size"`
	// MimeType is the normalized content type.
	MimeType string `json:"mimeType"`
	// StorageKey is the object-storage key, immutable once set. It is the
	// sole join key between this record and the backing store.
	StorageKey string `json:"-"`
	// UploadedAt is the creation time, or the object's last-modified time
	// for records rebuilt by the startup scan.
	UploadedAt time.Time `json:"uploadedAt"`
	// OwnerID is the uploading user. Every access path filters on it.
	OwnerID string `json:"-"`
}
