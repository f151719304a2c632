// Package s3 provides data operation service for S3 storage.

package s3

import (
	"fmt"
	"io"
	"path"

	"catchall-api/internal/config"
	"catchall-api/internal/s3/errors"
	"catchall-api/internal/syncutils"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/rs/zerolog"
)

// Service defines a new S3 service and sets its attributes.
type Service struct {
	s3up      *s3manager.Uploader
	cfg       *config.Config
	log       *zerolog.Logger
	syncUtils *syncutils.SyncUtils
}

// NewService initializes a new S3 service.
func NewService(config *config.Config, logger *zerolog.Logger, syncUtils *syncutils.SyncUtils) (*Service, error) {
	logger.Debug().Msg("calling initializer of S3 service")
	sess := session.Must(session.NewSession(&aws.Config{
		Credentials: credentials.NewStaticCredentials(
			config.S3Storage.AccessKeyID,
			config.S3Storage.SecretAccessKey,
			"",
		),
		Region:   &config.S3Storage.Region,
		Endpoint: &config.S3Storage.Endpoint,
	}))
	uploader := s3manager.NewUploader(sess)

	return &Service{
		s3up:      uploader,
		cfg:       config,
		log:       logger,
		syncUtils: syncUtils,
	}, nil
}

// UploadArchive streams one archive object into the configured bucket and
// returns its final location.
func (s *Service) UploadArchive(key string, body io.Reader) (string, error) {
	s.log.Debug().Msg("calling `UploadArchive` method")
	result, err := s.s3up.UploadWithContext(s.syncUtils.Ctx, &s3manager.UploadInput{
		Bucket: aws.String(s.cfg.S3Storage.Bucket),
		Key:    aws.String(path.Join(s.cfg.S3Storage.Folder, key)),
		Body:   body,
	})
	if err != nil {
		s.log.Error().Err(err).Msg(errors.ArchiveUploadError)
		return "", err
	}
	s.log.Info().Msg(fmt.Sprintf("archive uploaded to %s", result.Location))
	return result.Location, nil
}
