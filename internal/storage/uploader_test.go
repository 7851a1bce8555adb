package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	return &s3.PutObjectOutput{}, nil
}

func newTestUploader(putter objectPutter, client *http.Client) *Uploader {
	return &Uploader{
		cfg:        Config{Bucket: "art", PublicBaseURL: "https://cdn.example/", Prefix: "/generations/"},
		client:     putter,
		httpClient: client,
		now:        func() time.Time { return time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC) },
	}
}

func TestNewUploaderValidates(t *testing.T) {
	_, err := NewUploader(Config{}, nil)
	assert.Error(t, err)

	u, err := NewUploader(Config{Bucket: "b", Region: "us-east-1", AccessKey: "a", SecretKey: "s", PublicBaseURL: "https://cdn"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "generations", u.cfg.Prefix)
}

func TestMirrorCopiesImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/webp; charset=binary")
		_, _ = w.Write([]byte("webp-bytes"))
	}))
	defer srv.Close()

	putter := &fakePutter{}
	u := newTestUploader(putter, srv.Client())

	publicURL, err := u.Mirror(context.Background(), srv.URL+"/img.webp")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^https://cdn\.example/generations/2025/03/09/[0-9a-f-]{36}\.webp$`), publicURL)
	assert.Equal(t, "art", *putter.input.Bucket)
	assert.Equal(t, "image/webp", *putter.input.ContentType)
	assert.Equal(t, []byte("webp-bytes"), putter.body)
}

func TestMirrorFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("data"))
	}))
	defer srv.Close()

	_, err := newTestUploader(&fakePutter{}, srv.Client()).Mirror(context.Background(), srv.URL+"/gone")
	assert.Error(t, err)

	_, err = newTestUploader(&fakePutter{err: errors.New("denied")}, srv.Client()).Mirror(context.Background(), srv.URL+"/ok.png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
}

func TestContentTypeHelpers(t *testing.T) {
	assert.Equal(t, ".png", extensionFromContentType("image/png"))
	assert.Equal(t, ".jpg", extensionFromContentType("IMAGE/JPEG"))
	assert.Equal(t, ".bin", extensionFromContentType("text/plain"))
	assert.Equal(t, "image/png", contentTypeFromPath("https://im.runware.ai/a/b.PNG?x=1"))
	assert.Equal(t, "image/jpeg", contentTypeFromPath("https://im.runware.ai/a/b"))
}
