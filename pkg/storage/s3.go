package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// Object kinds, routed to their bucket.
const (
	// KindMedia is for images (course thumbnails).
	KindMedia = "media"
	// KindVideo is for lecture and tutorial videos.
	KindVideo = "video"
)

const (
	// MaxImageFileSize is the maximum allowed thumbnail upload size (5MB).
	MaxImageFileSize = 5 * 1024 * 1024
	// MaxVideoFileSize is the maximum allowed video upload size (2GB).
	MaxVideoFileSize = 2 * 1024 * 1024 * 1024
	// FolderThumbnails is the S3 prefix for course thumbnails.
	FolderThumbnails = "thumbnails"
	// FolderTutorials is the S3 prefix for course preview videos.
	FolderTutorials = "tutorials"
	// FolderVideos is the S3 prefix for sub-lecture videos.
	FolderVideos = "videos"
)

// Allowed MIME types per kind.
var (
	AllowedImageTypes = map[string]string{
		"image/jpeg": ".jpg",
		"image/jpg":  ".jpg",
		"image/png":  ".png",
		"image/webp": ".webp",
	}
	AllowedVideoTypes = map[string]string{
		"video/mp4":       ".mp4",
		"video/quicktime": ".mp4",
		"video/webm":      ".webm",
	}
)

// S3Config holds S3 client configuration.
type S3Config struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	MediaBucket          string
	VideosBucket         string
	PresignExpireMinutes int
}

// S3 provides object storage operations with validation and pre-signed URLs.
type S3 struct {
	client   *s3.Client
	uploader *manager.Uploader
	cfg      S3Config
	logger   *zap.Logger
}

// NewS3 creates an S3 client using credentials from config or environment
// (AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY).
func NewS3(ctx context.Context, cfg S3Config, logger *zap.Logger) (*S3, error) {
	accessKey := cfg.AccessKeyID
	secretKey := cfg.SecretAccessKey
	if accessKey == "" || secretKey == "" {
		accessKey = os.Getenv("AWS_ACCESS_KEY_ID")
		secretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	}
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey, secretKey, "",
		)))
	} else if logger != nil {
		logger.Warn("S3 client using default credential chain (AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY not set)")
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg)
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 5 * 1024 * 1024 // 5MB parts for streaming video uploads
	})
	return &S3{
		client:   client,
		uploader: uploader,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// ValidateImageType reports whether the content type or filename extension is
// an allowed thumbnail image.
func ValidateImageType(contentType, filename string) bool {
	if _, ok := AllowedImageTypes[strings.ToLower(contentType)]; ok {
		return true
	}
	switch strings.ToLower(path.Ext(filename)) {
	case ".jpg", ".jpeg", ".png", ".webp":
		return true
	}
	return false
}

// ValidateVideoType reports whether the content type or filename extension is
// an allowed video.
func ValidateVideoType(contentType, filename string) bool {
	if _, ok := AllowedVideoTypes[strings.ToLower(contentType)]; ok {
		return true
	}
	switch strings.ToLower(path.Ext(filename)) {
	case ".mp4", ".mov", ".webm":
		return true
	}
	return false
}

// ThumbnailKey returns the S3 object key for a course thumbnail.
func ThumbnailKey(courseID, filename string) string {
	return path.Join(FolderThumbnails, courseID, path.Base(filename))
}

// TutorialKey returns the S3 object key for a course preview video. The id
// is unique per upload so that replacing a video never reuses the old key.
func TutorialKey(courseID, id string) string {
	return path.Join(FolderTutorials, courseID, id+".mp4")
}

// VideoKey returns the S3 object key for a sub-lecture video:
// videos/{lecture_id}/{sub_lecture_id}.mp4.
func VideoKey(lectureID, subLectureID string) string {
	return path.Join(FolderVideos, lectureID, subLectureID+".mp4")
}

// BucketForKind returns the bucket holding objects of the given kind.
// Unknown kinds fall back to the media bucket.
func (s *S3) BucketForKind(kind string) string {
	if kind == KindVideo {
		return s.cfg.VideosBucket
	}
	return s.cfg.MediaBucket
}

// MediaBucket returns the images bucket name.
func (s *S3) MediaBucket() string { return s.cfg.MediaBucket }

// VideosBucket returns the videos bucket name.
func (s *S3) VideosBucket() string { return s.cfg.VideosBucket }

// PresignExpire returns the configured presign duration.
func (s *S3) PresignExpire() time.Duration {
	if s.cfg.PresignExpireMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(s.cfg.PresignExpireMinutes) * time.Minute
}

// GeneratePresignedDownloadURL returns a pre-signed GET URL for playback or download.
func (s *S3) GeneratePresignedDownloadURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	presignClient := s3.NewPresignClient(s.client)
	req, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expires
	})
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}

// Upload streams a reader to S3 and returns the object URL. Set publicRead for
// thumbnails so they are readable via direct URL from the SPA.
func (s *S3) Upload(ctx context.Context, bucket, key, contentType string, body io.Reader, contentLength int64, publicRead bool) (string, error) {
	var contentLengthPtr *int64
	if contentLength > 0 {
		contentLengthPtr = &contentLength
	}
	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: contentLengthPtr,
	}
	if publicRead {
		input.ACL = types.ObjectCannedACLPublicRead
	}
	_, err := s.uploader.Upload(ctx, input)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	url := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, s.cfg.Region, key)
	return url, nil
}

// DeleteObject removes an object from S3.
func (s *S3) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// HeadObject returns object metadata if it exists.
func (s *S3) HeadObject(ctx context.Context, bucket, key string) (*s3.HeadObjectOutput, error) {
	return s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
}
