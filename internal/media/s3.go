package media

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decode support
)

// Widths of the resized variants generated next to each original.
const (
	largeWidth     = 1200
	mediumWidth    = 600
	thumbnailWidth = 150
	jpegQuality    = 85
)

// supportedImageTypes lists the content types the host accepts.
var supportedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// s3API is the slice of the S3 client the host touches.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Host stores uploads in S3 and serves them through a CDN domain.
type S3Host struct {
	client    s3API
	bucket    string
	cdnDomain string
	region    string
	variants  bool
}

// NewS3Host creates an S3-backed media host using the default
// credential chain.
func NewS3Host(ctx context.Context, bucket, cdnDomain, region string, variants bool) (*S3Host, error) {
	if region == "" {
		region = "us-east-1"
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &S3Host{
		client:    s3.NewFromConfig(cfg),
		bucket:    bucket,
		cdnDomain: cdnDomain,
		region:    region,
		variants:  variants,
	}, nil
}

// newS3HostWithClient wires an explicit client, for tests.
func newS3HostWithClient(client s3API, bucket, cdnDomain, region string, variants bool) *S3Host {
	return &S3Host{client: client, bucket: bucket, cdnDomain: cdnDomain, region: region, variants: variants}
}

// uploadedFile is the JSON the route relays back for a stored upload.
type uploadedFile struct {
	ID          string            `json:"id"`
	Filename    string            `json:"filename"`
	ContentType string            `json:"contentType"`
	Size        int64             `json:"size"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	URL         string            `json:"url"`
	Variants    map[string]string `json:"variants,omitempty"`
	Checksum    string            `json:"checksum"`
	UploadedAt  time.Time         `json:"uploadedAt"`
}

// Upload validates and stores one image, with resized variants when
// enabled. Rejections wrap ErrInvalidUpload; everything else is a
// storage fault.
func (h *S3Host) Upload(ctx context.Context, filename string, data []byte) (*Result, error) {
	if len(data) > MaxUploadMB*1024*1024 {
		return nil, fmt.Errorf("%w: file size exceeds maximum of %d MB", ErrInvalidUpload, MaxUploadMB)
	}

	contentType := detectContentType(data)
	if !supportedImageTypes[contentType] {
		return nil, fmt.Errorf("%w: unsupported image type %s", ErrInvalidUpload, contentType)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding image: %v", ErrInvalidUpload, err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	id := uuid.New().String()
	now := time.Now()
	ext := extensionFor(contentType)
	baseKey := fmt.Sprintf("uploads/%s/%s/%s", now.Format("2006"), now.Format("01"), id)
	originalKey := fmt.Sprintf("%s_original%s", baseKey, ext)

	if err := h.putObject(ctx, originalKey, data, contentType); err != nil {
		return nil, fmt.Errorf("uploading original to S3: %w", err)
	}

	hash := sha256.Sum256(data)
	out := &uploadedFile{
		ID:          id,
		Filename:    sanitizeFilename(filename),
		ContentType: contentType,
		Size:        int64(len(data)),
		Width:       width,
		Height:      height,
		URL:         h.publicURL(originalKey),
		Checksum:    hex.EncodeToString(hash[:]),
		UploadedAt:  now,
	}

	if h.variants {
		variants := map[string]string{}
		for _, v := range []struct {
			name  string
			width int
		}{
			{"large", largeWidth},
			{"medium", mediumWidth},
			{"thumbnail", thumbnailWidth},
		} {
			resized, err := resizeImage(img, v.width, format)
			if err != nil {
				// Original is already narrower than this variant.
				continue
			}
			key := fmt.Sprintf("%s_%dw%s", baseKey, v.width, ext)
			if err := h.putObject(ctx, key, resized, contentType); err != nil {
				log.Printf("[Media] WARNING: %s variant upload failed: %v", v.name, err)
				continue
			}
			variants[v.name] = h.publicURL(key)
		}
		if len(variants) > 0 {
			out.Variants = variants
		}
	}

	body, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshaling upload result: %w", err)
	}
	return &Result{Status: http.StatusCreated, ContentType: "application/json", Body: body}, nil
}

// Name identifies the host in logs and startup output.
func (h *S3Host) Name() string { return "s3" }

func (h *S3Host) putObject(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := h.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(h.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000"), // 1 year cache
	})
	return err
}

func (h *S3Host) publicURL(key string) string {
	if h.cdnDomain != "" {
		return fmt.Sprintf("https://%s/%s", h.cdnDomain, key)
	}
	// Fallback to direct S3 URL
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", h.bucket, h.region, key)
}

// resizeImage scales img down to maxWidth preserving aspect ratio,
// re-encoded in the source format. Images at or under the target are
// rejected so variants never upscale.
func resizeImage(img image.Image, maxWidth int, format string) ([]byte, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width <= maxWidth {
		return nil, fmt.Errorf("image already smaller than target")
	}

	newWidth := maxWidth
	newHeight := int(float64(height) * float64(maxWidth) / float64(width))

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	switch format {
	case "jpeg":
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, err
		}
	case "png":
		if err := png.Encode(&buf, dst); err != nil {
			return nil, err
		}
	case "gif":
		if err := gif.Encode(&buf, dst, nil); err != nil {
			return nil, err
		}
	default:
		// WebP has no stdlib encoder; variants fall back to JPEG.
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func detectContentType(data []byte) string {
	if len(data) >= 2 {
		if data[0] == 0xFF && data[1] == 0xD8 {
			return "image/jpeg"
		}
	}
	if len(data) >= 8 {
		if data[0] == 0x89 && data[1] == 'P' && data[2] == 'N' && data[3] == 'G' {
			return "image/png"
		}
	}
	if len(data) >= 6 {
		if data[0] == 'G' && data[1] == 'I' && data[2] == 'F' {
			return "image/gif"
		}
	}
	if len(data) >= 12 {
		if data[0] == 'R' && data[1] == 'I' && data[2] == 'F' && data[3] == 'F' &&
			data[8] == 'W' && data[9] == 'E' && data[10] == 'B' && data[11] == 'P' {
			return "image/webp"
		}
	}
	return "application/octet-stream"
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}

func sanitizeFilename(filename string) string {
	filename = filepath.Base(filename)
	filename = strings.ReplaceAll(filename, "..", "")
	filename = strings.ReplaceAll(filename, "/", "")
	filename = strings.ReplaceAll(filename, "\\", "")
	if len(filename) > 200 {
		ext := filepath.Ext(filename)
		filename = filename[:200-len(ext)] + ext
	}
	return filename
}
