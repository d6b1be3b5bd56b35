package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"unipulse/backend/internal/shared"
)

// OSS stores files in an Aliyun OSS bucket
type OSS struct {
	bucket  *oss.Bucket
	baseURL string
}

// NewOSS opens the configured bucket
func NewOSS(cfg shared.OSSConfig) (*OSS, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}

	bucket, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("client.Bucket: %w", err)
	}

	return &OSS{bucket: bucket, baseURL: publicBase(cfg)}, nil
}

// publicBase is OSS_BASE_URL, or the bucket's virtual-hosted endpoint
func publicBase(cfg shared.OSSConfig) string {
	if cfg.BaseURL != "" {
		return strings.TrimRight(cfg.BaseURL, "/")
	}
	end := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
	return fmt.Sprintf("https://%s.%s", cfg.Bucket, strings.TrimRight(end, "/"))
}

func (o *OSS) Store(ctx context.Context, data []byte, filename, subdir string) (string, string, error) {
	key := objectKey(filename, subdir)

	err := o.bucket.PutObject(key, bytes.NewReader(data),
		oss.WithContext(ctx),
		oss.ContentType(contentType(data, filename)),
		oss.ContentDisposition("inline"),
	)
	record("oss", "store", err)
	if err != nil {
		return "", "", shared.Upstream("failed to store file", err)
	}
	return o.baseURL + "/" + key, OriginalName(filename), nil
}

func (o *OSS) Delete(ctx context.Context, url string) error {
	key, ok := keyFromURL(o.baseURL, url)
	if !ok {
		return nil
	}

	err := o.bucket.DeleteObject(key, oss.WithContext(ctx))
	record("oss", "delete", err)
	if err != nil {
		return shared.Upstream("failed to delete file", err)
	}
	return nil
}

func keyFromURL(base, url string) (string, bool) {
	prefix := base + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	return key, key != ""
}
