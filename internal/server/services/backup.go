package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	sc "invisiblewallet/internal/server/config"
	"invisiblewallet/internal/wallet"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in)
	}
)

// BackupService keeps best-effort off-site copies of credential ciphertexts
// in an S3-compatible store. The server never holds plaintext key material,
// so a backup is always just the client-encrypted blob.
type BackupService struct {
	config *sc.Config
}

// NewBackupService constructs a BackupService, or nil when no S3 endpoint is
// configured.
func NewBackupService(cfg *sc.Config) *BackupService {
	if cfg.S3BaseEndpoint == "" {
		return nil
	}
	return &BackupService{config: cfg}
}

func (s *BackupService) getClient() (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// BackupCredential stores the ciphertext under users/{id}/{kind}. Repeat
// writes overwrite the previous copy, which is exactly right for idempotent
// credential re-sends.
func (s *BackupService) BackupCredential(ctx context.Context, userID string, kind wallet.Kind, ciphertext string) error {
	client, err := s.getClient()
	if err != nil {
		return fmt.Errorf("s3 client: %w", err)
	}

	bucket := s.config.S3Bucket
	key := fmt.Sprintf("users/%s/%s", userID, kind)

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
		Body:   strings.NewReader(ciphertext),
	})
	if err != nil {
		return fmt.Errorf("s3 put: %w", err)
	}
	return nil
}
