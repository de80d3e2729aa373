package mirror

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/bitrise-io/go-utils/retry"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/docker/go-units"

	"github.com/maizy/flickr-archive-extractor/internal/archive"
)

const objectKeyPrefix = "flickr-archive/"

const numUploadRetries = 3

// MirrorInput is the information that comes from the CLI layer.
type MirrorInput struct {
	ArchiveGlobs    []string
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Mirrorer copies archive zips to an S3 bucket as an offsite backup.
type Mirrorer interface {
	Mirror(ctx context.Context, input MirrorInput) error
}

type mirrorer struct {
	logger  log.Logger
	backend Backend
}

// NewMirrorer creates a mirrorer. `backend` can be nil, unless you want to
// provide a custom Backend implementation.
func NewMirrorer(logger log.Logger, backend Backend) *mirrorer {
	if backend == nil {
		backend = &s3Backend{logger: logger}
	}
	return &mirrorer{logger: logger, backend: backend}
}

// Mirror uploads every archive matched by the globs. Objects already in the
// bucket with the same checksum are skipped, so re-running after a partial
// failure only transfers what's missing.
func (m *mirrorer) Mirror(ctx context.Context, input MirrorInput) error {
	if input.Bucket == "" {
		return fmt.Errorf("bucket must not be empty")
	}

	archives, wrongPaths := archive.ListArchives(input.ArchiveGlobs, m.logger)
	for _, p := range wrongPaths {
		m.logger.Warnf("Not an archive, skipping: %s", p)
	}
	if len(archives) == 0 {
		return fmt.Errorf("no readable archives found for the provided paths")
	}

	if err := m.backend.Connect(ctx, input); err != nil {
		return fmt.Errorf("connect to S3: %w", err)
	}

	m.logger.Infof("Mirroring %d archives to s3://%s/%s", len(archives), input.Bucket, objectKeyPrefix)
	for _, path := range archives {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := m.mirrorArchive(ctx, path); err != nil {
			return fmt.Errorf("failed to mirror %s: %w", path, err)
		}
	}

	m.logger.Println()
	m.logger.Donef("All archives mirrored")
	return nil
}

func (m *mirrorer) mirrorArchive(ctx context.Context, path string) error {
	checksum, err := checksumOfFile(path)
	if err != nil {
		return fmt.Errorf("checksum: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	key := objectKeyPrefix + filepath.Base(path)
	remoteChecksum, err := m.backend.RemoteChecksum(ctx, key)
	if err != nil {
		return fmt.Errorf("check remote object: %w", err)
	}
	if remoteChecksum == checksum {
		m.logger.Printf("Already mirrored, skipping: %s", filepath.Base(path))
		return nil
	}

	m.logger.Printf("Uploading %s (%s)", filepath.Base(path), units.HumanSizeWithPrecision(float64(info.Size()), 3))
	startTime := time.Now()
	if err := m.backend.Put(ctx, key, path, info.Size()); err != nil {
		return err
	}
	m.logger.Donef("Uploaded %s in %s", filepath.Base(path), time.Since(startTime).Round(time.Second))
	return nil
}

func checksumOfFile(path string) (string, error) {
	hash := sha256.New()

	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close() //nolint:errcheck

	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

func withRetry(op func() (error, bool)) error {
	return retry.Times(numUploadRetries).Wait(5 * time.Second).TryWithAbort(func(attempt uint) (error, bool) {
		return op()
	})
}

func decodeRemoteChecksum(encoded string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("base64 decode checksum: %w", err)
	}
	return hex.EncodeToString(decoded), nil
}
