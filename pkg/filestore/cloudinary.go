package filestore

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/admin/search"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// CloudinaryStore implements Store on top of Cloudinary.
type CloudinaryStore struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
}

// NewCloudinary constructs a Cloudinary-backed store.
func NewCloudinary(cfg Config, logger zerolog.Logger) (*CloudinaryStore, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &CloudinaryStore{
		client: cld,
		folder: strings.Trim(cfg.Folder, "/"),
		logger: logger.With().Str("component", "filestore").Logger(),
	}, nil
}

// Upload sends the blob to Cloudinary under the owner's folder and returns the
// stored file description.
func (s *CloudinaryStore) Upload(ctx context.Context, owner Owner, filename, contentType string, reader io.Reader) (File, error) {
	params := uploader.UploadParams{
		Folder:       s.areaFolder(owner),
		PublicID:     buildPublicID(filename),
		ResourceType: "auto",
	}

	result, err := s.client.Upload.Upload(ctx, reader, params)
	if err != nil {
		return File{}, fmt.Errorf("failed to upload asset: %w", err)
	}

	s.logger.Info().Str("public_id", result.PublicID).Str("area", owner.Area).Msg("file uploaded")

	return File{
		Name:        filename,
		ContentType: contentType,
		URL:         result.SecureURL,
		SizeBytes:   int64(result.Bytes),
	}, nil
}

// AreaFiles lists the blobs stored under one owner folder.
func (s *CloudinaryStore) AreaFiles(ctx context.Context, owner Owner) ([]File, error) {
	query := search.Query{
		Expression: fmt.Sprintf("folder=%q", s.areaFolder(owner)),
		MaxResults: 100,
	}

	result, err := s.client.Admin.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list area files: %w", err)
	}

	files := make([]File, 0, len(result.Assets))
	for _, asset := range result.Assets {
		files = append(files, File{
			Name:      asset.PublicID,
			URL:       asset.SecureURL,
			SizeBytes: int64(asset.Bytes),
		})
	}

	return files, nil
}

// DeleteAreas removes every blob stored for the assignment.
func (s *CloudinaryStore) DeleteAreas(ctx context.Context, assignmentID uint) error {
	prefix := fmt.Sprintf("%s/assignment-%d", s.folder, assignmentID)
	_, err := s.client.Admin.DeleteAssetsByPrefix(ctx, admin.DeleteAssetsByPrefixParams{
		Prefix: api.CldAPIArray{prefix},
	})
	if err != nil {
		return fmt.Errorf("failed to delete assignment areas: %w", err)
	}

	s.logger.Info().Uint("assignment_id", assignmentID).Msg("file areas deleted")
	return nil
}

func (s *CloudinaryStore) areaFolder(owner Owner) string {
	return fmt.Sprintf("%s/assignment-%d/%s/%d", s.folder, owner.AssignmentID, owner.Area, owner.ItemID)
}

func buildPublicID(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, base)

	base = strings.Trim(base, "-")
	if base == "" {
		base = fmt.Sprintf("upload-%d", time.Now().Unix())
	}

	return fmt.Sprintf("%s-%d", base, time.Now().Unix())
}
