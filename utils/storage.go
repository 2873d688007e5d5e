package utils

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// ErrStorageDisabled is returned when no object storage is configured
var ErrStorageDisabled = errors.New("object storage is not configured")

// UploadResult describes a stored file
type UploadResult struct {
	PublicID  string `json:"public_id"`
	URL       string `json:"url"`
	SecureURL string `json:"secure_url"`
	Format    string `json:"format,omitempty"`
	Bytes     int    `json:"bytes"`
}

// Storage stores uploaded files and returns where they can be fetched
type Storage interface {
	Upload(ctx context.Context, file io.Reader, filename string) (*UploadResult, error)
}

// CloudinaryStorage forwards uploads to Cloudinary
type CloudinaryStorage struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewStorage returns a Cloudinary-backed Storage, or a disabled one when the
// credentials are absent.
func NewStorage(cfg Config) (Storage, error) {
	if cfg.CloudinaryCloudName == "" || cfg.CloudinaryAPIKey == "" || cfg.CloudinaryAPISecret == "" {
		return disabledStorage{}, nil
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	return &CloudinaryStorage{cld: cld, folder: "products"}, nil
}

// Upload implements Storage
func (s *CloudinaryStorage) Upload(ctx context.Context, file io.Reader, filename string) (*UploadResult, error) {
	res, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		PublicID: uuid.NewString(),
		Folder:   s.folder,
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", filename, err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("upload %s: %s", filename, res.Error.Message)
	}
	return &UploadResult{
		PublicID:  res.PublicID,
		URL:       res.URL,
		SecureURL: res.SecureURL,
		Format:    res.Format,
		Bytes:     res.Bytes,
	}, nil
}

type disabledStorage struct{}

func (disabledStorage) Upload(context.Context, io.Reader, string) (*UploadResult, error) {
	return nil, ErrStorageDisabled
}
