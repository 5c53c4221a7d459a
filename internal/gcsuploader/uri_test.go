package gcsuploader

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURI(t *testing.T) {
	bucket, object, err := ParseURI("gs://my-bucket/path/to/file.pdf")
	require.NoError(t, err)
	assert.Equal(t, "my-bucket", bucket)
	assert.Equal(t, "path/to/file.pdf", object)

	for _, bad := range []string{"", "s3://b/o", "gs://bucket", "gs://bucket/", "gs:///object"} {
		_, _, err := ParseURI(bad)
		assert.Error(t, err, bad)
	}
}

func TestURIRoundTrip(t *testing.T) {
	uri := URI("b", "statements/u1/file.pdf")
	assert.Equal(t, "gs://b/statements/u1/file.pdf", uri)

	bucket, object, err := ParseURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "b", bucket)
	assert.Equal(t, "statements/u1/file.pdf", object)
}

func TestExtractFilenameFromGCSURI(t *testing.T) {
	assert.Equal(t, "file.pdf", ExtractFilenameFromGCSURI("gs://bucket/folder/file.pdf"))
	assert.Equal(t, "bucket", ExtractFilenameFromGCSURI("gs://bucket"))
}

func TestStatementObjectName(t *testing.T) {
	at := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)
	name := StatementObjectName("u1", at, ".pdf")

	assert.True(t, strings.HasPrefix(name, "statements/u1/2024/03/"), name)
	assert.True(t, strings.HasSuffix(name, ".pdf"), name)
	assert.NotEqual(t, name, StatementObjectName("u1", at, ".pdf"))
}
