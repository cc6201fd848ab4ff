package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"storyshort/internal/domain"
)

func newTestDownloader(parallelism int) *Downloader {
	return NewDownloader(DownloaderOptions{Parallelism: parallelism, Logger: zerolog.Nop()})
}

func TestFetchPropagatesBadStatus(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newTestDownloader(1).Fetch(context.Background(), srv.URL+"/gone.jpg")
	if !errors.Is(err, domain.ErrUpstreamRequest) {
		t.Fatalf("err = %v, want ErrUpstreamRequest", err)
	}
}

func TestFetchReturnsBody(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "jpeg-data")
	}))
	defer srv.Close()

	body, err := newTestDownloader(1).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if string(body) != "jpeg-data" {
		t.Fatalf("body = %q", body)
	}
}

func TestFetchAllPreservesOrderAndSkipsFailures(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/2" {
			http.Error(w, "broken", http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, "img%s", r.URL.Path)
	}))
	defer srv.Close()

	urls := []string{srv.URL + "/0", srv.URL + "/1", srv.URL + "/2", srv.URL + "/3"}
	images, err := newTestDownloader(4).FetchAll(context.Background(), urls)
	if err != nil {
		t.Fatalf("FetchAll returned error: %v", err)
	}
	want := []string{"img/0", "img/1", "img/3"}
	if len(images) != len(want) {
		t.Fatalf("len(images) = %d, want %d", len(images), len(want))
	}
	for i, w := range want {
		if string(images[i]) != w {
			t.Fatalf("images[%d] = %q, want %q", i, images[i], w)
		}
	}
}

func TestFetchAllErrorsWhenNothingSurvives(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "broken", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestDownloader(2).FetchAll(context.Background(), []string{srv.URL + "/a", srv.URL + "/b"})
	if !errors.Is(err, domain.ErrUpstreamRequest) {
		t.Fatalf("err = %v, want ErrUpstreamRequest", err)
	}
}
