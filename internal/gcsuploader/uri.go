package gcsuploader

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

const scheme = "gs://"

// ParseURI splits gs://bucket/path/to/object into bucket and object.
func ParseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, scheme) {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, scheme), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}

// URI joins bucket and object into a gs:// URI.
func URI(bucket, object string) string {
	return scheme + bucket + "/" + object
}

// ExtractFilenameFromGCSURI returns the last path element of the object,
// e.g. "gs://bucket/folder/file.pdf" gives "file.pdf".
func ExtractFilenameFromGCSURI(uri string) string {
	trimmed := strings.TrimPrefix(uri, scheme)
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) < 2 {
		return trimmed
	}
	return path.Base(parts[1])
}

// StatementObjectName is where an uploaded statement of userID is archived:
// statements/<user>/<yyyy>/<mm>/<uuid><ext>.
func StatementObjectName(userID string, at time.Time, ext string) string {
	return path.Join("statements", userID, at.UTC().Format("2006"), at.UTC().Format("01"), uuid.NewString()+ext)
}
