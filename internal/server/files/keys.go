// Package files implements the file-metadata subsystem: storage key
// derivation, MIME classification, the in-memory metadata index, the upload
// orchestrator with presigned access, and the startup reconciliation scan.
package files

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// KeyPrefix is the namespace all uploaded objects live under. The key format
// below is a durable contract: changing it breaks Reconcile's parser for
// objects written under the old scheme.
const KeyPrefix = "uploads/"

// NewFileID mints an opaque file identifier: a uuid with the hyphens
// stripped. Ids must never contain '-' because ParseKey splits the final key
// segment on its first hyphen.
func NewFileID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// DeriveKey produces the canonical storage key for a file. Embedding owner
// and id in the key lets Reconcile recover full metadata from key text alone.
func DeriveKey(ownerID, fileID, originalName string) string {
	return fmt.Sprintf("%s%s/%s-%s", KeyPrefix, ownerID, fileID, originalName)
}

// ParseKey is the inverse of DeriveKey. It reports ok=false for keys that do
// not have at least three '/'-delimited segments under the expected prefix,
// or whose final segment carries no id-name hyphen.
func ParseKey(key string) (ownerID, fileID, originalName string, ok bool) {
	parts := strings.SplitN(key, "/", 3)
	if len(parts) < 3 || parts[0]+"/" != KeyPrefix {
		return "", "", "", false
	}
	ownerID = parts[1]
	fileID, originalName, found := strings.Cut(parts[2], "-")
	if ownerID == "" || fileID == "" || originalName == "" || !found {
		return "", "", "", false
	}
	return ownerID, fileID, originalName, true
}
