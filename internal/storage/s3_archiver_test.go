package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
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

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	f.body, _ = io.ReadAll(params.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func newTestArchiver(endpoint string) *S3Archiver {
	return NewS3Archiver(context.Background(), S3Options{
		Region:          "ap-northeast-2",
		Bucket:          "posts-bucket",
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "secret",
		Endpoint:        endpoint,
	})
}

func TestS3Archiver_Put(t *testing.T) {
	archiver := newTestArchiver("")
	putter := &fakePutter{}
	archiver.client = putter

	err := archiver.Put(context.Background(), "posts/1/a.md", []byte("# 제목"), "text/markdown; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "posts-bucket", *putter.input.Bucket)
	assert.Equal(t, "posts/1/a.md", *putter.input.Key)
	assert.Equal(t, "text/markdown; charset=utf-8", *putter.input.ContentType)
	assert.Equal(t, int64(len("# 제목")), *putter.input.ContentLength)
	assert.Equal(t, "# 제목", string(putter.body))

	putter.err = errors.New("access denied")
	err = archiver.Put(context.Background(), "posts/1/b.md", []byte("x"), "text/markdown")
	assert.ErrorContains(t, err, "posts/1/b.md")
}

func TestS3Archiver_PresignGet(t *testing.T) {
	archiver := newTestArchiver("http://localhost:9000")

	raw, err := archiver.PresignGet(context.Background(), "posts/1/a.md", 10*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/posts-bucket/posts/1/a.md", u.Path)
	assert.Equal(t, "600", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}

func TestS3Archiver_ObjectURL(t *testing.T) {
	archiver := newTestArchiver("")
	assert.Equal(t, "https://posts-bucket.s3.ap-northeast-2.amazonaws.com/posts/1/a.md", archiver.ObjectURL("posts/1/a.md"))

	archiver.baseURL = "https://cdn.example.com"
	assert.Equal(t, "https://cdn.example.com/posts/1/a.md", archiver.ObjectURL("posts/1/a.md"))
}
