// Package storage holds uploaded files. A Blob returns a URL for each stored
// file; that URL is the only handle later passed back to Delete.
package storage

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"unipulse/backend/internal/metrics"
	"unipulse/backend/internal/shared"
)

// Blob stores and removes uploaded files
type Blob interface {
	// Store saves data under subdir and returns its URL and the sanitized original name
	Store(ctx context.Context, data []byte, filename, subdir string) (url string, originalName string, err error)
	// Delete removes the file behind url. Unknown URLs are not an error.
	Delete(ctx context.Context, url string) error
}

// New selects the OSS backend when it is configured, local disk otherwise.
// The returned Blob rejects payloads over cfg.Upload.MaxSize.
func New(cfg *shared.Config, logger *zap.Logger) (Blob, error) {
	var backend Blob
	if cfg.OSS.Enabled() {
		oss, err := NewOSS(cfg.OSS)
		if err != nil {
			return nil, err
		}
		logger.Info("blob storage: aliyun oss", zap.String("bucket", cfg.OSS.Bucket))
		backend = oss
	} else {
		local, err := NewLocal(cfg.Upload.Dir)
		if err != nil {
			return nil, err
		}
		logger.Info("blob storage: local disk", zap.String("dir", cfg.Upload.Dir))
		backend = local
	}
	return WithLimit(backend, cfg.Upload.MaxSize), nil
}

// ============================================================================
// Size Limit
// ============================================================================

type limited struct {
	Blob
	max int64
}

// WithLimit rejects payloads larger than max bytes before they reach b
func WithLimit(b Blob, max int64) Blob {
	return &limited{Blob: b, max: max}
}

func (l *limited) Store(ctx context.Context, data []byte, filename, subdir string) (string, string, error) {
	if l.max > 0 && int64(len(data)) > l.max {
		return "", "", shared.TooLarge(fmt.Sprintf("file exceeds maximum size of %d bytes", l.max))
	}
	return l.Blob.Store(ctx, data, filename, subdir)
}

// ============================================================================
// Helpers
// ============================================================================

// OriginalName strips any directory part a client put in the file name
func OriginalName(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return name
}

// Ext returns the lower-cased extension of filename, including the dot
func Ext(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// objectKey builds "<subdir>/<uuid><ext>"
func objectKey(filename, subdir string) string {
	name := uuid.NewString() + Ext(filename)
	subdir = strings.Trim(subdir, "/")
	if subdir == "" {
		return name
	}
	return subdir + "/" + name
}

func contentType(data []byte, filename string) string {
	if ct := mime.TypeByExtension(Ext(filename)); ct != "" {
		return ct
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return http.DetectContentType(head)
}

func record(backend, op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.BlobOperations.WithLabelValues(backend, op, result).Inc()
}

// Upload is a file received from a client
type Upload struct {
	Filename string
	Data     []byte
}
