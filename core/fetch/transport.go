package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"dem-manager/core/storage"

	"github.com/minio/minio-go/v7"
)

// ErrNotFound is returned when the remote has no archive for a tile.
var ErrNotFound = errors.New("fetch: tile not found on remote")

// ErrUnsupportedScheme is returned for download URLs no transport understands.
var ErrUnsupportedScheme = errors.New("fetch: unsupported download url scheme")

// Transport copies the archive of one tile into w.
type Transport interface {
	Download(ctx context.Context, baseURL, id string, w io.Writer) error
}

// ArchiveName is the remote object name of a tile archive.
func ArchiveName(id string) string {
	return id + ".hgt.zip"
}

// HTTPTransport fetches archives over HTTP(S).
type HTTPTransport struct {
	Client *http.Client
}

// Download implements Transport.
func (t HTTPTransport) Download(ctx context.Context, baseURL, id string, w io.Writer) error {
	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	target := strings.TrimSuffix(baseURL, "/") + "/" + ArchiveName(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", target, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", target, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", target, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, target)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("failed to read %s: %w", target, err)
	}
	return nil
}

// S3Transport fetches archives from an S3 compatible bucket.
type S3Transport struct {
	Client storage.Client
}

// ParseS3URL splits s3://bucket/prefix into bucket and prefix.
func ParseS3URL(raw string) (bucket, prefix string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid s3 url %q: %w", raw, err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("invalid s3 url %q", raw)
	}
	return u.Host, strings.Trim(u.Path, "/"), nil
}

// Download implements Transport.
func (t S3Transport) Download(ctx context.Context, baseURL, id string, w io.Writer) error {
	if t.Client == nil {
		return fmt.Errorf("no storage client configured for %s", baseURL)
	}
	bucket, prefix, err := ParseS3URL(baseURL)
	if err != nil {
		return err
	}
	key := path.Join(prefix, ArchiveName(id))

	obj, err := t.Client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to get s3://%s/%s: %w", bucket, key, err)
	}
	defer obj.Close()

	if _, err := io.Copy(w, obj); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return fmt.Errorf("s3://%s/%s: %w", bucket, key, ErrNotFound)
		}
		return fmt.Errorf("failed to read s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

// ListRemote returns the tile ids available under an s3:// download URL.
func (t S3Transport) ListRemote(ctx context.Context, baseURL string) ([]string, error) {
	if t.Client == nil {
		return nil, fmt.Errorf("no storage client configured for %s", baseURL)
	}
	bucket, prefix, err := ParseS3URL(baseURL)
	if err != nil {
		return nil, err
	}
	opts := minio.ListObjectsOptions{Recursive: true}
	if prefix != "" {
		opts.Prefix = prefix + "/"
	}
	var ids []string
	for obj := range t.Client.ListObjects(ctx, bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list s3://%s/%s: %w", bucket, prefix, obj.Err)
		}
		name := path.Base(obj.Key)
		if id, ok := strings.CutSuffix(name, ".hgt.zip"); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// transportFor picks the transport serving baseURL.
func (p *Pool) transportFor(baseURL string) (Transport, error) {
	scheme, _, ok := strings.Cut(baseURL, "://")
	if !ok {
		return nil, fmt.Errorf("%q: %w", baseURL, ErrUnsupportedScheme)
	}
	if t, ok := p.transports[strings.ToLower(scheme)]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%q: %w", baseURL, ErrUnsupportedScheme)
}
