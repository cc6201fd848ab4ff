package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"storyshort/internal/domain"
	"storyshort/internal/providers/voice"
)

type stubScripts struct {
	script string
	err    error
}

func (s *stubScripts) Generate(context.Context, string, time.Duration) (string, error) {
	return s.script, s.err
}

type stubImages struct {
	urls []string
	err  error
}

func (s *stubImages) Search(context.Context, string, int) ([]string, error) {
	return s.urls, s.err
}

type stubVoice struct {
	path     string
	duration float64
	err      error
	pref     voice.Preference
}

func (s *stubVoice) Synthesize(_ context.Context, _ string, pref voice.Preference, _ string) (string, float64, error) {
	s.pref = pref
	return s.path, s.duration, s.err
}

// writingVoice writes a numbered MP3 into whatever directory it receives,
// like the real synthesizer does.
type writingVoice struct {
	seq int
}

func (s *writingVoice) Synthesize(_ context.Context, _ string, _ voice.Preference, dir string) (string, float64, error) {
	s.seq++
	if dir == "" {
		var err error
		dir, err = os.MkdirTemp("", "voice-")
		if err != nil {
			return "", 0, err
		}
	}
	p := filepath.Join(dir, "voiceover.mp3")
	if err := os.WriteFile(p, []byte(fmt.Sprintf("audio-%d", s.seq)), 0o644); err != nil {
		return "", 0, err
	}
	return p, 5, nil
}

type stubDownloader struct {
	body []byte
	err  error
	url  string
}

func (s *stubDownloader) Fetch(_ context.Context, url string) ([]byte, error) {
	s.url = url
	return s.body, s.err
}

func doJSON(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestScriptsGenerate(t *testing.T) {
	app := &App{Scripts: &stubScripts{script: "drafted text"}, Logger: zerolog.Nop()}

	rec := doJSON(t, app.ScriptsGenerate, `{"topic":"space","duration_seconds":40}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp scriptResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Script != "drafted text" {
		t.Errorf("script = %q", resp.Script)
	}
}

func TestScriptsGenerateValidation(t *testing.T) {
	app := &App{Scripts: &stubScripts{}, Logger: zerolog.Nop()}
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"empty topic", `{"topic":"  ","duration_seconds":40}`},
		{"zero duration", `{"topic":"space","duration_seconds":0}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := doJSON(t, app.ScriptsGenerate, tt.body); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestImagesSearchMapsDomainErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing credential", fmt.Errorf("%w: PEXELS_API_KEY", domain.ErrMissingCredential), http.StatusBadRequest},
		{"upstream", fmt.Errorf("%w: status 500", domain.ErrUpstreamRequest), http.StatusBadGateway},
		{"invalid input", fmt.Errorf("%w: count", domain.ErrInvalidInput), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &App{Images: &stubImages{err: tt.err}, Logger: zerolog.Nop()}
			rec := doJSON(t, app.ImagesSearch, `{"query":"ocean","count":5}`)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestImagesSearchSuccess(t *testing.T) {
	app := &App{Images: &stubImages{urls: []string{"a", "b"}}, Logger: zerolog.Nop()}
	rec := doJSON(t, app.ImagesSearch, `{"query":"ocean","count":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp imageSearchResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.URLs) != 2 {
		t.Errorf("urls = %v", resp.URLs)
	}
}

func TestVoiceoversCreate(t *testing.T) {
	sv := &stubVoice{path: "/tmp/voiceover.mp3", duration: 12.5}
	app := &App{Voice: sv, Logger: zerolog.Nop()}

	rec := doJSON(t, app.VoiceoversCreate, `{"script":"hello there","provider":"elevenlabs"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if sv.pref != voice.PreferenceElevenLabs {
		t.Errorf("preference = %q", sv.pref)
	}
	var resp voiceoverResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.DurationSeconds != 12.5 {
		t.Errorf("duration = %v", resp.DurationSeconds)
	}
}

func TestVoiceoversCreateRejectsUnknownProvider(t *testing.T) {
	app := &App{Voice: &stubVoice{}, Logger: zerolog.Nop()}
	rec := doJSON(t, app.VoiceoversCreate, `{"script":"hello","provider":"espeak"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestVoiceoversCreateRendersFailureAs500(t *testing.T) {
	app := &App{
		Voice:  &stubVoice{err: fmt.Errorf("%w: probe failed", domain.ErrRenderFailure)},
		Logger: zerolog.Nop(),
	}
	rec := doJSON(t, app.VoiceoversCreate, `{"script":"hello"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestVoiceoversCreateIsolatesConcurrentOutputs(t *testing.T) {
	app := &App{Voice: &writingVoice{}, VoiceDir: t.TempDir(), Logger: zerolog.Nop()}

	create := func() string {
		rec := doJSON(t, app.VoiceoversCreate, `{"script":"hello there"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
		}
		var resp voiceoverResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return resp.AudioPath
	}

	first := create()
	second := create()
	if first == second {
		t.Fatalf("both requests wrote %s", first)
	}
	got, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("read first output: %v", err)
	}
	if string(got) != "audio-1" {
		t.Errorf("first output = %q, overwritten by the second request", got)
	}
}

func TestImagesDownloadStreamsBytes(t *testing.T) {
	dl := &stubDownloader{body: []byte("jpeg-data")}
	app := &App{Downloads: dl, Logger: zerolog.Nop()}

	rec := doJSON(t, app.ImagesDownload, `{"url":"https://images.example/p.jpg"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if dl.url != "https://images.example/p.jpg" {
		t.Errorf("fetched url = %q", dl.url)
	}
	if rec.Body.String() != "jpeg-data" {
		t.Errorf("body = %q", rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/octet-stream" {
		t.Errorf("content type = %q", ct)
	}
}

func TestImagesDownloadValidatesAndMapsErrors(t *testing.T) {
	t.Run("missing url", func(t *testing.T) {
		app := &App{Downloads: &stubDownloader{}, Logger: zerolog.Nop()}
		if rec := doJSON(t, app.ImagesDownload, `{"url":" "}`); rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
	t.Run("upstream failure", func(t *testing.T) {
		app := &App{
			Downloads: &stubDownloader{err: fmt.Errorf("%w: status 404", domain.ErrUpstreamRequest)},
			Logger:    zerolog.Nop(),
		}
		if rec := doJSON(t, app.ImagesDownload, `{"url":"https://images.example/p.jpg"}`); rec.Code != http.StatusBadGateway {
			t.Errorf("status = %d, want 502", rec.Code)
		}
	})
}

func TestHealth(t *testing.T) {
	app := &App{Logger: zerolog.Nop()}
	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	rec := httptest.NewRecorder()
	app.Health(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %s", rec.Body)
	}
}
