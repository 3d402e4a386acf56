// internal/services/storage_service.go
package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/highdeium-backend/internal/config"
	"github.com/javajoker/highdeium-backend/internal/utils"
)

// StorageService hands out upload URLs for media objects. Clients upload
// the bytes directly to the bucket; the API only stores the resulting URL.
type StorageService struct {
	s3Client *s3.S3
	config   config.AWSConfig
	localURL string
}

type PresignRequest struct {
	Folder      string `json:"folder" validate:"required,oneof=covers images video audio avatars"`
	FileName    string `json:"file_name" validate:"required,max=255"`
	ContentType string `json:"content_type" validate:"required,max=127"`
	FileSize    int64  `json:"file_size" validate:"min=0"`
}

type PresignedUpload struct {
	UploadURL string    `json:"upload_url"`
	PublicURL string    `json:"public_url"`
	Key       string    `json:"key"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expires_at"`
}

type UploadOptions struct {
	Folder       string
	MaxSize      int64 // in bytes
	AllowedTypes []string
}

func NewStorageService(cfg config.AWSConfig, localBaseURL string) (*StorageService, error) {
	if cfg.AccessKeyID == "" {
		// Return service without S3 for local development
		return &StorageService{config: cfg, localURL: strings.TrimRight(localBaseURL, "/")}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   cfg,
	}, nil
}

// PresignUpload returns a short-lived PUT URL for one object and the public
// URL the object will have once uploaded.
func (s *StorageService) PresignUpload(ctx context.Context, req *PresignRequest) (*PresignedUpload, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, validationFailed(err)
	}

	options := s.GetDefaultUploadOptions(req.Folder)
	ext := strings.ToLower(filepath.Ext(req.FileName))
	if !allowedExtension(ext, options.AllowedTypes) {
		return nil, invalidField("file_name", "extension", fmt.Sprintf("file type %s is not allowed in %s", ext, req.Folder))
	}

	if options.MaxSize > 0 && req.FileSize > options.MaxSize {
		return nil, invalidField("file_size", "max", fmt.Sprintf("file size %d bytes exceeds maximum allowed size %d bytes", req.FileSize, options.MaxSize))
	}

	key := s.generateFileName(req.FileName, options.Folder)
	expiresAt := time.Now().Add(s.config.PresignTTL)

	if s.s3Client == nil {
		url := fmt.Sprintf("%s/uploads/%s", s.localURL, key)
		return &PresignedUpload{
			UploadURL: url,
			PublicURL: url,
			Key:       key,
			Method:    "PUT",
			ExpiresAt: expiresAt,
		}, nil
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.config.S3Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(req.ContentType),
	}
	if req.FileSize > 0 {
		input.ContentLength = aws.Int64(req.FileSize)
	}
	put, _ := s.s3Client.PutObjectRequest(input)
	put.SetContext(ctx)

	uploadURL, err := put.Presign(s.config.PresignTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return &PresignedUpload{
		UploadURL: uploadURL,
		PublicURL: s.getS3URL(key),
		Key:       key,
		Method:    "PUT",
		ExpiresAt: expiresAt,
	}, nil
}

// DeleteObject removes the object behind a public URL. URLs outside the
// bucket are left alone.
func (s *StorageService) DeleteObject(ctx context.Context, url string) error {
	key, ok := s.keyFromURL(url)
	if !ok {
		return nil
	}

	if s.s3Client == nil {
		logrus.WithField("key", key).Debug("Local storage: object would be deleted")
		return nil
	}

	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}

func (s *StorageService) GetDefaultUploadOptions(folder string) UploadOptions {
	switch folder {
	case "video":
		return UploadOptions{
			Folder:       "video",
			MaxSize:      500 * 1024 * 1024, // 500MB
			AllowedTypes: []string{".mp4", ".webm", ".mov"},
		}
	case "audio":
		return UploadOptions{
			Folder:       "audio",
			MaxSize:      100 * 1024 * 1024, // 100MB
			AllowedTypes: []string{".mp3", ".m4a", ".ogg", ".wav"},
		}
	case "avatars":
		return UploadOptions{
			Folder:       "avatars",
			MaxSize:      2 * 1024 * 1024, // 2MB
			AllowedTypes: []string{".jpg", ".jpeg", ".png", ".webp"},
		}
	case "covers":
		return UploadOptions{
			Folder:       "covers",
			MaxSize:      5 * 1024 * 1024, // 5MB
			AllowedTypes: []string{".jpg", ".jpeg", ".png", ".webp"},
		}
	default:
		return UploadOptions{
			Folder:       "images",
			MaxSize:      10 * 1024 * 1024, // 10MB
			AllowedTypes: []string{".jpg", ".jpeg", ".png", ".gif", ".webp"},
		}
	}
}

func allowedExtension(ext string, allowed []string) bool {
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}

func (s *StorageService) generateFileName(originalName, folder string) string {
	id := uuid.New()
	ext := strings.ToLower(filepath.Ext(originalName))

	timestamp := time.Now().Format("20060102")
	filename := fmt.Sprintf("%s_%s%s", timestamp, id.String()[:8], ext)

	if folder != "" {
		return fmt.Sprintf("%s/%s", folder, filename)
	}
	return filename
}

func (s *StorageService) baseURL() string {
	if s.s3Client == nil {
		return s.localURL + "/uploads"
	}
	if s.config.CloudFrontURL != "" {
		return strings.TrimRight(s.config.CloudFrontURL, "/")
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s.config.S3Bucket, s.config.Region)
}

func (s *StorageService) getS3URL(key string) string {
	return s.baseURL() + "/" + key
}

func (s *StorageService) keyFromURL(url string) (string, bool) {
	prefix := s.baseURL() + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	return key, key != ""
}
