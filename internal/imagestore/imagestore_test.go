package imagestore

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claude/fitscan/internal/config"
	"github.com/claude/fitscan/internal/datauri"
)

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func testImage(t *testing.T) datauri.DataURI {
	t.Helper()
	img, err := datauri.Parse("data:image/jpeg;base64,/9j/4AAQ")
	require.NoError(t, err)
	return img
}

func TestS3Put(t *testing.T) {
	fake := &fakePutter{}
	s := NewS3(fake, config.ImagesConfig{
		S3Bucket:  "fitscan-images",
		PublicURL: "https://cdn.example.com/",
		Prefix:    "/equipment/",
	})
	id := uuid.MustParse("7f0c2d4e-1111-4222-8333-944455556666")
	s.newID = func() uuid.UUID { return id }

	img := testImage(t)
	ref, err := s.Put(context.Background(), "dev_abc", img)
	require.NoError(t, err)

	wantKey := "equipment/dev_abc/" + id.String() + ".jpg"
	assert.Equal(t, "https://cdn.example.com/"+wantKey, ref)
	require.NotNil(t, fake.input)
	assert.Equal(t, wantKey, aws.ToString(fake.input.Key))
	assert.Equal(t, "fitscan-images", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "image/jpeg", aws.ToString(fake.input.ContentType))
	assert.Equal(t, img.Data, fake.body)
}

func TestS3PutError(t *testing.T) {
	s := NewS3(&fakePutter{err: errors.New("access denied")}, config.ImagesConfig{S3Bucket: "b"})
	_, err := s.Put(context.Background(), "u", testImage(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestInline(t *testing.T) {
	img := testImage(t)
	ref, err := Inline{}.Put(context.Background(), "u", img)
	require.NoError(t, err)
	assert.Equal(t, img.String(), ref)
}

func TestNewWithoutBucketIsInline(t *testing.T) {
	s, err := New(context.Background(), config.ImagesConfig{})
	require.NoError(t, err)
	assert.IsType(t, Inline{}, s)
}
