package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedPut struct {
	key         string
	contentType string
	data        []byte
}

type fakeS3 struct {
	puts   []capturedPut
	putErr error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.puts = append(f.puts, capturedPut{
		key:         *params.Key,
		contentType: *params.ContentType,
		data:        data,
	})
	return &s3.PutObjectOutput{}, nil
}

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func jpegImage(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil))
	return buf.Bytes()
}

func TestS3UploadStoresOriginal(t *testing.T) {
	fake := &fakeS3{}
	host := newS3HostWithClient(fake, "media-bucket", "cdn.example.com", "us-east-1", false)

	res, err := host.Upload(context.Background(), "photo.png", pngImage(t, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, 201, res.Status)
	assert.Equal(t, "application/json", res.ContentType)

	var out uploadedFile
	require.NoError(t, json.Unmarshal(res.Body, &out))
	assert.NotEmpty(t, out.ID)
	assert.Equal(t, "photo.png", out.Filename)
	assert.Equal(t, "image/png", out.ContentType)
	assert.Equal(t, 2, out.Width)
	assert.Equal(t, 2, out.Height)
	assert.Len(t, out.Checksum, 64)
	assert.True(t, strings.HasPrefix(out.URL, "https://cdn.example.com/uploads/"), out.URL)
	assert.True(t, strings.HasSuffix(out.URL, "_original.png"), out.URL)

	require.Len(t, fake.puts, 1)
	assert.True(t, strings.HasSuffix(fake.puts[0].key, "_original.png"), fake.puts[0].key)
	assert.Equal(t, "image/png", fake.puts[0].contentType)
}

func TestS3UploadGeneratesVariants(t *testing.T) {
	fake := &fakeS3{}
	host := newS3HostWithClient(fake, "media-bucket", "cdn.example.com", "us-east-1", true)

	res, err := host.Upload(context.Background(), "wide.jpg", jpegImage(t, 300, 100))
	require.NoError(t, err)

	var out uploadedFile
	require.NoError(t, json.Unmarshal(res.Body, &out))

	// 300px wide: too narrow for large and medium, resized for thumbnail.
	require.Len(t, fake.puts, 2)
	assert.Contains(t, fake.puts[1].key, "_150w.jpg")
	require.Contains(t, out.Variants, "thumbnail")
	assert.NotContains(t, out.Variants, "medium")
	assert.NotContains(t, out.Variants, "large")

	thumb, err := jpeg.Decode(bytes.NewReader(fake.puts[1].data))
	require.NoError(t, err)
	assert.Equal(t, 150, thumb.Bounds().Dx())
	assert.Equal(t, 50, thumb.Bounds().Dy())
}

func TestS3UploadSmallImageSkipsVariants(t *testing.T) {
	fake := &fakeS3{}
	host := newS3HostWithClient(fake, "media-bucket", "", "us-east-1", true)

	res, err := host.Upload(context.Background(), "tiny.png", pngImage(t, 2, 2))
	require.NoError(t, err)

	var out uploadedFile
	require.NoError(t, json.Unmarshal(res.Body, &out))
	assert.Len(t, fake.puts, 1)
	assert.Empty(t, out.Variants)
}

func TestS3UploadRejectsUnsupportedType(t *testing.T) {
	fake := &fakeS3{}
	host := newS3HostWithClient(fake, "media-bucket", "", "us-east-1", false)

	_, err := host.Upload(context.Background(), "notes.txt", []byte("just text, nothing binary"))
	require.ErrorIs(t, err, ErrInvalidUpload)
	assert.Contains(t, err.Error(), "unsupported image type")
	assert.Empty(t, fake.puts)
}

func TestS3UploadRejectsCorruptImage(t *testing.T) {
	fake := &fakeS3{}
	host := newS3HostWithClient(fake, "media-bucket", "", "us-east-1", false)

	data := append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, []byte("garbage")...)
	_, err := host.Upload(context.Background(), "broken.png", data)
	require.ErrorIs(t, err, ErrInvalidUpload)
	assert.Empty(t, fake.puts)
}

func TestS3UploadRejectsOversize(t *testing.T) {
	fake := &fakeS3{}
	host := newS3HostWithClient(fake, "media-bucket", "", "us-east-1", false)

	_, err := host.Upload(context.Background(), "huge.png", make([]byte, MaxUploadMB*1024*1024+1))
	require.ErrorIs(t, err, ErrInvalidUpload)
	assert.Contains(t, err.Error(), "exceeds maximum")
}

func TestS3UploadPutFailure(t *testing.T) {
	fake := &fakeS3{putErr: errors.New("access denied")}
	host := newS3HostWithClient(fake, "media-bucket", "", "us-east-1", false)

	_, err := host.Upload(context.Background(), "photo.png", pngImage(t, 2, 2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "uploading original to S3")
	assert.NotErrorIs(t, err, ErrInvalidUpload)
	assert.Equal(t, "s3", host.Name())
}

func TestS3PublicURLWithoutCDN(t *testing.T) {
	fake := &fakeS3{}
	host := newS3HostWithClient(fake, "media-bucket", "", "us-east-1", false)

	res, err := host.Upload(context.Background(), "photo.png", pngImage(t, 2, 2))
	require.NoError(t, err)

	var out uploadedFile
	require.NoError(t, json.Unmarshal(res.Body, &out))
	assert.Contains(t, out.URL, "media-bucket.s3.us-east-1.amazonaws.com/")
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"photo.png":        "photo.png",
		"../../etc/passwd": "passwd",
		"dir/sub/shot.jpg": "shot.jpg",
		"bad\\name.png":    "badname.png",
	}
	for in, want := range cases {
		assert.Equal(t, want, sanitizeFilename(in), in)
	}
}

func TestDetectContentType(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "image/jpeg"},
		{"png", []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, "image/png"},
		{"gif", []byte("GIF89a"), "image/gif"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBP"), "image/webp"},
		{"junk", []byte("hello world"), "application/octet-stream"},
		{"empty", nil, "application/octet-stream"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, detectContentType(tc.data))
		})
	}
}
