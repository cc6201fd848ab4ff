// Package fetch downloads raw image bytes. Single fetches are pure and
// stateless with no retry; batch fetches run with bounded parallelism while
// preserving URL order in the result.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"storyshort/internal/domain"
)

type DownloaderOptions struct {
	HTTPClient *http.Client
	Timeout    time.Duration

	// Parallelism bounds concurrent downloads in FetchAll. 1 restores the
	// strictly sequential behavior; values below 1 mean 1.
	Parallelism int

	Logger zerolog.Logger
}

type Downloader struct {
	client      *http.Client
	parallelism int
	log         zerolog.Logger
}

const defaultFetchTimeout = 60 * time.Second

func NewDownloader(opts DownloaderOptions) *Downloader {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultFetchTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	parallelism := opts.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}
	return &Downloader{client: client, parallelism: parallelism, log: opts.Logger}
}

// Fetch performs a single GET and returns the body bytes. Non-2xx responses
// and transport errors propagate; there is no retry.
func (d *Downloader) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build download request: %v", domain.ErrUpstreamRequest, err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: download %s: %v", domain.ErrUpstreamRequest, url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: download %s: status %d", domain.ErrUpstreamRequest, url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrUpstreamRequest, url, err)
	}
	return body, nil
}

// FetchAll downloads every URL and returns the successful bodies in URL
// order. Individual failures are logged and skipped; the call errors only
// when no image survives.
func (d *Downloader) FetchAll(ctx context.Context, urls []string) ([][]byte, error) {
	results := make([][]byte, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.parallelism)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			body, err := d.Fetch(gctx, u)
			if err != nil {
				d.log.Warn().Err(err).Str("url", u).Msg("image download failed, skipping")
				return nil
			}
			results[i] = body
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	images := make([][]byte, 0, len(urls))
	for _, b := range results {
		if b != nil {
			images = append(images, b)
		}
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("%w: no images could be downloaded", domain.ErrUpstreamRequest)
	}
	return images, nil
}
