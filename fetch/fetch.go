// Package fetch reads wishlist and popularity sources that may be local
// files or URLs. Downloaded bodies are kept in the cache for a TTL so
// repeated commands do not hit the network.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kasuganosora/vaultctl/cache"
	"go.uber.org/zap"
)

// MaxBodySize bounds a downloaded body.
const MaxBodySize = 64 << 20

const keyPrefix = "vaultctl:fetch:"

// Fetcher opens sources by path or URL.
type Fetcher struct {
	client *resty.Client
	cache  cache.Cache // nil disables caching
	ttl    time.Duration
	logger *zap.Logger
}

// New creates a Fetcher. A nil client gets a fresh one with a timeout.
func New(c cache.Cache, client *http.Client, ttl time.Duration, logger *zap.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{client: resty.NewWithClient(client), cache: c, ttl: ttl, logger: logger}
}

// IsURL reports whether source is fetched over HTTP.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Open returns the content of source. The caller closes it.
func (f *Fetcher) Open(ctx context.Context, source string) (io.ReadCloser, error) {
	if source == "" {
		return nil, fmt.Errorf("fetch: empty source")
	}
	if !IsURL(source) {
		file, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("fetch: %w", err)
		}
		return file, nil
	}

	if f.cache != nil {
		body, err := f.cache.Get(ctx, keyPrefix+source)
		if err == nil {
			f.logger.Debug("fetch cache hit", zap.String("source", source))
			return io.NopCloser(strings.NewReader(body)), nil
		}
		if !errors.Is(err, cache.ErrNotFound) {
			f.logger.Warn("fetch cache read failed", zap.String("source", source), zap.Error(err))
		}
	}

	body, err := f.download(ctx, source)
	if err != nil {
		return nil, err
	}
	if f.cache != nil && f.ttl > 0 {
		if err := f.cache.Set(ctx, keyPrefix+source, body, f.ttl); err != nil {
			f.logger.Warn("fetch cache write failed", zap.String("source", source), zap.Error(err))
		}
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

// Invalidate drops a cached download.
func (f *Fetcher) Invalidate(ctx context.Context, source string) error {
	if f.cache == nil {
		return nil
	}
	return f.cache.Del(ctx, keyPrefix+source)
}

func (f *Fetcher) download(ctx context.Context, source string) (string, error) {
	start := time.Now()
	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(source)
	if err != nil {
		return "", fmt.Errorf("fetch: %s: %w", source, err)
	}
	body := resp.RawBody()
	defer body.Close()
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("fetch: %s: unexpected status %s", source, resp.Status())
	}
	b, err := io.ReadAll(io.LimitReader(body, MaxBodySize+1))
	if err != nil {
		return "", fmt.Errorf("fetch: %s: %w", source, err)
	}
	if len(b) > MaxBodySize {
		return "", fmt.Errorf("fetch: %s: body exceeds %d bytes", source, MaxBodySize)
	}
	f.logger.Info("fetched",
		zap.String("source", source),
		zap.Int("bytes", len(b)),
		zap.Duration("took", time.Since(start)))
	return string(b), nil
}
