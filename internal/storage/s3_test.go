package storage

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakePresigner struct {
	input   *s3.PutObjectInput
	expires time.Duration
}

func (f *fakePresigner) PresignPutObject(_ context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	f.input = params
	opts := s3.PresignOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	f.expires = opts.Expires
	return &v4.PresignedHTTPRequest{
		URL:    "https://bucket.s3.amazonaws.com/" + *params.Key + "?X-Amz-Signature=abc",
		Method: http.MethodPut,
	}, nil
}

func TestSanitizeFilename(t *testing.T) {
	require.Equal(t, "report-final.pdf", SanitizeFilename("report final.pdf"))
	require.Equal(t, "passwd", SanitizeFilename("../../etc/passwd"))
	require.Equal(t, "photo.png", SanitizeFilename(`C:\Users\me\photo.png`))
	require.Equal(t, "file", SanitizeFilename("..."))
}

func TestObjectKey(t *testing.T) {
	formID := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	key := ObjectKey(formID, "resume", "my cv.pdf")

	require.True(t, strings.HasPrefix(key, "uploads/11111111-1111-1111-1111-111111111111/resume/"))
	require.True(t, strings.HasSuffix(key, "-my-cv.pdf"))
}

func TestPresignUpload(t *testing.T) {
	fake := &fakePresigner{}
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store := &S3{presign: fake, bucket: "forms", expires: presignDuration(10), now: func() time.Time { return now }}

	upload, err := store.PresignUpload(context.Background(), "uploads/a/b/c.pdf", "application/pdf")
	require.NoError(t, err)
	require.Equal(t, http.MethodPut, upload.Method)
	require.Equal(t, "uploads/a/b/c.pdf", upload.Key)
	require.Equal(t, now.Add(10*time.Minute), upload.ExpiresAt)

	require.Equal(t, "forms", *fake.input.Bucket)
	require.Equal(t, "application/pdf", *fake.input.ContentType)
	require.Equal(t, 10*time.Minute, fake.expires)
}

func TestPresignDuration_Default(t *testing.T) {
	require.Equal(t, 15*time.Minute, presignDuration(0))
}
