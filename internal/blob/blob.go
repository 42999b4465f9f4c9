// Package blob stores uploaded identity document images and hands back the
// URL they are served from.
package blob

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	id "vetting/pkg/domain"
)

// Store uploads images and deletes them by URL.
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

// Key builds a unique object key for one side of a user's document.
func Key(prefix string, userID id.UserID, side, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	name := side + "-" + uuid.NewString()
	if ext != "" {
		name += "." + ext
	}
	return path.Join(strings.Trim(prefix, "/"), userID.String(), name)
}

// ExtensionFor maps the accepted image content types to a file extension.
func ExtensionFor(contentType string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "image/jpeg", "image/jpg":
		return "jpg", true
	case "image/png":
		return "png", true
	case "image/webp":
		return "webp", true
	case "application/pdf":
		return "pdf", true
	default:
		return "", false
	}
}
