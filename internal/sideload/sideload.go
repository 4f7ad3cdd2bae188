package sideload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"vsgtalent-backend/internal/logging"
	"vsgtalent-backend/internal/mediatypes"
	"vsgtalent-backend/internal/metrics"
)

// maxDownloadBytes caps a single sideloaded file.
const maxDownloadBytes = 50 << 20

// Fetcher downloads remote media files into the uploads directory during
// content seeding.
type Fetcher struct {
	client     *http.Client
	uploadsDir string
}

// New returns a Fetcher writing into uploadsDir.
func New(uploadsDir string) *Fetcher {
	return &Fetcher{
		client:     &http.Client{Timeout: 60 * time.Second},
		uploadsDir: uploadsDir,
	}
}

// Fetch downloads rawURL and stores it under the uploads directory,
// returning the local file path. The filename comes from the URL path;
// collisions get a numeric suffix.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	localPath, err := f.fetch(ctx, rawURL)
	if err != nil {
		metrics.SideloadsTotal.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.SideloadsTotal.WithLabelValues("success").Inc()
	return localPath, nil
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid sideload URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported sideload scheme %q", parsed.Scheme)
	}

	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("sideload URL has no usable filename: %s", rawURL)
	}
	ext := strings.ToLower(filepath.Ext(name))
	if mediatypes.GetMediaType(ext) == mediatypes.MediaTypeOther {
		return "", fmt.Errorf("unsupported media extension %q", ext)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sideload request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logging.Warn("failed to close sideload body: %v", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sideload returned status %d for %s", resp.StatusCode, rawURL)
	}

	localPath := uniquePath(f.uploadsDir, name)
	out, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create sideload file: %w", err)
	}

	written, err := io.Copy(out, io.LimitReader(resp.Body, maxDownloadBytes))
	closeErr := out.Close()
	if err != nil {
		_ = os.Remove(localPath)
		return "", fmt.Errorf("sideload download failed: %w", err)
	}
	if closeErr != nil {
		_ = os.Remove(localPath)
		return "", closeErr
	}

	logging.Info("sideloaded %s (%d bytes) from %s", filepath.Base(localPath), written, parsed.Host)
	return localPath, nil
}

func uniquePath(dir, filename string) string {
	candidate := filepath.Join(dir, filename)
	if _, err := os.Stat(candidate); os.IsNotExist(err) {
		return candidate
	}
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)
	for i := 2; ; i++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s-%d%s", stem, i, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}
