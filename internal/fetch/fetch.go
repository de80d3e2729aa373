package fetch

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/melbahja/got"
)

// FetchInput is the information that comes from the CLI layer.
type FetchInput struct {
	LinksFile string
	TargetDir string
}

// Fetcher downloads export archives from Flickr download links.
type Fetcher interface {
	Fetch(ctx context.Context, input FetchInput) error
}

type fetcher struct {
	logger log.Logger
}

// NewFetcher ...
func NewFetcher(logger log.Logger) *fetcher {
	return &fetcher{logger: logger}
}

// Fetch downloads every URL listed in the links file (one per line, blank
// lines and `#` comments allowed) into the target directory. Files already
// downloaded in full are skipped, an interrupted download leaves a local
// file smaller than the remote one and is restarted on the next run.
func (f *fetcher) Fetch(ctx context.Context, input FetchInput) error {
	urls, err := readLinksFile(input.LinksFile)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return fmt.Errorf("no links found in %s", input.LinksFile)
	}

	if err := os.MkdirAll(input.TargetDir, 0755); err != nil {
		return fmt.Errorf("create target directory: %w", err)
	}

	client := retryhttp.NewClient(f.logger).StandardClient()

	f.logger.Infof("Downloading %d archives to %s", len(urls), input.TargetDir)
	for i, downloadURL := range urls {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		dest := filepath.Join(input.TargetDir, fileNameForURL(downloadURL, i))

		download := got.NewDownload(ctx, downloadURL, dest)
		download.Client = client
		if err := download.Init(); err != nil {
			return fmt.Errorf("failed to probe %s: %w", downloadURL, err)
		}

		// A local file of the remote size is a finished download. A smaller
		// one is a leftover of an interrupted run and gets re-downloaded.
		if info, err := os.Stat(dest); err == nil {
			if download.TotalSize() > 0 && uint64(info.Size()) == download.TotalSize() {
				f.logger.Printf("Already downloaded, skipping: %s", filepath.Base(dest))
				continue
			}
			f.logger.Warnf("Incomplete download (%d of %d bytes), restarting: %s",
				info.Size(), download.TotalSize(), filepath.Base(dest))
		}

		f.logger.Printf("Downloading %s", filepath.Base(dest))
		startTime := time.Now()

		if err := download.Start(); err != nil {
			return fmt.Errorf("failed to download %s: %w", downloadURL, err)
		}

		f.logger.Donef("Downloaded %s in %s", filepath.Base(dest), time.Since(startTime).Round(time.Second))
	}

	return nil
}

func readLinksFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open links file: %w", err)
	}
	defer file.Close() //nolint:errcheck

	var urls []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read links file: %w", err)
	}
	return urls, nil
}

// fileNameForURL derives a local file name from the download URL, falling
// back to a positional name when the URL has no usable path component.
func fileNameForURL(downloadURL string, index int) string {
	parsed, err := url.Parse(downloadURL)
	if err == nil {
		name := path.Base(parsed.Path)
		if name != "" && name != "." && name != "/" {
			return name
		}
	}
	return fmt.Sprintf("archive-%d.zip", index+1)
}
