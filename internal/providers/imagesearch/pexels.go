// Package imagesearch finds stock photograph URLs for a query. Unlike the
// script and premium-voice providers, the image provider is mandatory: a
// missing credential or failed request aborts the search.
package imagesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"storyshort/internal/credentials"
	"storyshort/internal/domain"
)

// Searcher finds up to count image URLs for a query.
type Searcher interface {
	Search(ctx context.Context, query string, count int) ([]string, error)
}

type PexelsOptions struct {
	Credentials *credentials.Store
	BaseURL     string
	HTTPClient  *http.Client

	// MaxPages bounds pagination. Observed cap is 5 pages; kept
	// configurable rather than hard-coded.
	MaxPages int
}

// PexelsClient queries the Pexels photo search API page by page until enough
// portrait-friendly URLs are collected.
type PexelsClient struct {
	creds    *credentials.Store
	baseURL  string
	client   *http.Client
	maxPages int
}

const pexelsDefaultTimeout = 30 * time.Second

const defaultMaxPages = 5

type searchResponse struct {
	Photos []photo `json:"photos"`
}

type photo struct {
	Src photoSource `json:"src"`
}

type photoSource struct {
	Portrait string `json:"portrait"`
	Large2x  string `json:"large2x"`
	Large    string `json:"large"`
	Original string `json:"original"`
}

func NewPexelsClient(opts PexelsOptions) *PexelsClient {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.pexels.com/v1"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: pexelsDefaultTimeout}
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}
	return &PexelsClient{
		creds:    opts.Credentials,
		baseURL:  baseURL,
		client:   client,
		maxPages: maxPages,
	}
}

// Search returns at most count image URLs in API order, first seen first
// kept, without deduplication. Pagination stops as soon as count URLs are
// collected, maxPages pages have been requested, or a page comes back empty.
func (c *PexelsClient) Search(ctx context.Context, query string, count int) ([]string, error) {
	apiKey, ok := c.creds.Resolve(credentials.KeyPexels)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingCredential, credentials.KeyPexels)
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: image count must be positive", domain.ErrInvalidInput)
	}

	q := NormalizeQuery(query)
	perPage := pageSize(count)
	urls := make([]string, 0, count)

	for page := 1; len(urls) < count && page <= c.maxPages; page++ {
		photos, err := c.fetchPage(ctx, apiKey, q, perPage, page)
		if err != nil {
			return nil, err
		}
		for _, p := range photos {
			if u, ok := bestVariant(p.Src); ok {
				urls = append(urls, u)
			}
			if len(urls) >= count {
				break
			}
		}
		if len(photos) == 0 {
			break
		}
	}
	if len(urls) > count {
		urls = urls[:count]
	}
	return urls, nil
}

func (c *PexelsClient) fetchPage(ctx context.Context, apiKey, query string, perPage, page int) ([]photo, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", strconv.Itoa(page))
	endpoint := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build search request: %v", domain.ErrUpstreamRequest, err)
	}
	req.Header.Set("Authorization", apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: pexels search: %v", domain.ErrUpstreamRequest, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: pexels search page %d: status %d", domain.ErrUpstreamRequest, page, resp.StatusCode)
	}
	var out searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode pexels response: %v", domain.ErrUpstreamRequest, err)
	}
	return out.Photos, nil
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeQuery trims the query and collapses internal whitespace runs to
// single spaces.
func NormalizeQuery(q string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(q), " ")
}

// pageSize requests roughly twice the wanted count per page, clamped to the
// API's practical bounds.
func pageSize(count int) int {
	size := count * 2
	if size < 6 {
		size = 6
	}
	if size > 30 {
		size = 30
	}
	return size
}

// bestVariant picks the most vertical-friendly URL a photo offers. Photos
// with none of the known variants are skipped.
func bestVariant(src photoSource) (string, bool) {
	for _, u := range []string{src.Portrait, src.Large2x, src.Large, src.Original} {
		if u != "" {
			return u, true
		}
	}
	return "", false
}

var _ Searcher = (*PexelsClient)(nil)
