package gcsuploader

import "context"

// StorageService is the Cloud Storage surface used by ingestion and the CLI.
type StorageService interface {
	// Put writes data to bucket/object.
	Put(ctx context.Context, bucket, object, contentType string, data []byte) error

	// UploadFile uploads a local file to bucket/object.
	UploadFile(ctx context.Context, bucket, object, filePath string) error

	// FetchFromGCS downloads the object named by a gs:// URI.
	FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error)
}

// Ensure Client implements StorageService.
var _ StorageService = (*Client)(nil)
