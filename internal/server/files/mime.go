package files

import (
	"path"
	"strings"

	"github.com/filedrop/filedrop/internal/common"
)

// FallbackMimeType is used for scan-rebuilt records whose file extension is
// not recognized. Reconciliation never rejects an object over its type.
const FallbackMimeType = "application/octet-stream"

// allowedMimeTypes maps accepted declared content types to their normalized
// form ("image/jpg" is a common client alias for "image/jpeg").
var allowedMimeTypes = map[string]string{
	"application/pdf": "application/pdf",
	"image/jpeg":      "image/jpeg",
	"image/jpg":       "image/jpeg",
	"image/png":       "image/png",
	"text/plain":      "text/plain",
}

// ClassifyDeclared validates a client-declared content type against the
// allow-list and returns its normalized form, or ErrorUnsupportedMediaType.
func ClassifyDeclared(mimeType string) (string, error) {
	normalized, ok := allowedMimeTypes[strings.ToLower(strings.TrimSpace(mimeType))]
	if !ok {
		return "", common.ErrorUnsupportedMediaType
	}
	return normalized, nil
}

// ClassifyFromExtension derives a content type from a filename. It is used
// by the reconciliation scan, which has no declared type to work with, and
// falls back to a generic binary type rather than failing.
func ClassifyFromExtension(filename string) string {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(filename), ".")) {
	case "pdf":
		return "application/pdf"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "txt":
		return "text/plain"
	default:
		return FallbackMimeType
	}
}
