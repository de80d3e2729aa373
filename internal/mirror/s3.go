package mirror

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/bitrise-io/go-utils/v2/log"
)

// Backend is the storage side of mirroring, extracted so tests don't need a
// real bucket.
type Backend interface {
	Connect(ctx context.Context, input MirrorInput) error
	RemoteChecksum(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, path string, size int64) error
}

type s3Backend struct {
	logger log.Logger
	client *s3.Client
	bucket string
}

func (b *s3Backend) Connect(ctx context.Context, input MirrorInput) error {
	if input.Region == "" {
		return fmt.Errorf("region must not be empty")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(input.Region),
	}
	if input.AccessKeyID != "" && input.SecretAccessKey != "" {
		b.logger.Debugf("aws credentials provided, using them...")
		opts = append(opts,
			awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(input.AccessKeyID, input.SecretAccessKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}

	b.client = s3.NewFromConfig(cfg)
	b.bucket = input.Bucket
	return nil
}

// RemoteChecksum returns the SHA-256 checksum of the object at key, or ""
// when the object doesn't exist.
func (b *s3Backend) RemoteChecksum(ctx context.Context, key string) (string, error) {
	var checksum string
	err := withRetry(func() (error, bool) {
		_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			var apiError smithy.APIError
			if errors.As(err, &apiError) {
				if _, ok := apiError.(*types.NotFound); ok {
					return nil, true
				}
			}
			return fmt.Errorf("head object: %w", err), false
		}

		attributes, err := b.client.GetObjectAttributes(ctx, &s3.GetObjectAttributesInput{
			Bucket: aws.String(b.bucket),
			Key:    aws.String(key),
			ObjectAttributes: []types.ObjectAttributes{
				"Checksum",
			},
		})
		if err != nil {
			return fmt.Errorf("get object attributes: %w", err), false
		}

		if attributes != nil && attributes.Checksum != nil && attributes.Checksum.ChecksumSHA256 != nil {
			decoded, err := decodeRemoteChecksum(*attributes.Checksum.ChecksumSHA256)
			if err != nil {
				return err, true
			}
			checksum = decoded
		}
		return nil, true
	})
	return checksum, err
}

func (b *s3Backend) Put(ctx context.Context, key, path string, size int64) error {
	return withRetry(func() (error, bool) {
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open archive: %w", err), true
		}
		defer file.Close() //nolint:errcheck

		var partMB int64 = 10
		uploader := manager.NewUploader(b.client, func(u *manager.Uploader) {
			u.PartSize = partMB * 1024 * 1024
		})

		_, err = uploader.Upload(ctx, &s3.PutObjectInput{
			Body:              file,
			Bucket:            aws.String(b.bucket),
			Key:               aws.String(key),
			ContentType:       aws.String("application/zip"),
			ContentLength:     aws.Int64(size),
			ChecksumAlgorithm: types.ChecksumAlgorithmSha256,
		})
		if err != nil {
			return fmt.Errorf("upload archive: %w", err), false
		}
		return nil, true
	})
}
