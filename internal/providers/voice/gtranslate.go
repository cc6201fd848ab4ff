package voice

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storyshort/internal/domain"
)

type GoogleTranslateOptions struct {
	BaseURL    string
	Language   string
	HTTPClient *http.Client
}

// GoogleTranslate synthesizes speech through the keyless Google Translate
// TTS endpoint. It is the free provider in the fallback chain: no credential
// is required, only reachability of the service.
type GoogleTranslate struct {
	baseURL  string
	language string
	client   *http.Client
}

const gtranslateDefaultTimeout = 60 * time.Second

// maxChunkChars bounds the text per request; the endpoint rejects long
// inputs. Chunks split on word boundaries and the MP3 segments concatenate
// into one valid MPEG stream.
const maxChunkChars = 200

func NewGoogleTranslate(opts GoogleTranslateOptions) *GoogleTranslate {
	baseURL := strings.TrimSpace(opts.BaseURL)
	if baseURL == "" {
		baseURL = "https://translate.google.com/translate_tts"
	}
	lang := strings.TrimSpace(opts.Language)
	if lang == "" {
		lang = "en"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: gtranslateDefaultTimeout}
	}
	return &GoogleTranslate{baseURL: baseURL, language: lang, client: client}
}

func (g *GoogleTranslate) Name() string { return "gtts" }

// Synthesize fetches one MP3 segment per text chunk and concatenates them.
func (g *GoogleTranslate) Synthesize(ctx context.Context, text string) ([]byte, error) {
	chunks := splitChunks(text, maxChunkChars)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: empty script", domain.ErrInvalidInput)
	}
	var audio []byte
	for _, chunk := range chunks {
		segment, err := g.fetchSegment(ctx, chunk)
		if err != nil {
			return nil, err
		}
		audio = append(audio, segment...)
	}
	return audio, nil
}

func (g *GoogleTranslate) fetchSegment(ctx context.Context, text string) ([]byte, error) {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("client", "tw-ob")
	params.Set("tl", g.language)
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build tts request: %v", domain.ErrUpstreamRequest, err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: translate tts: %v", domain.ErrUpstreamRequest, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: translate tts status %d", domain.ErrUpstreamRequest, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// splitChunks cuts text into word-boundary chunks of at most max characters.
// A single word longer than max becomes its own chunk rather than being cut.
func splitChunks(text string, max int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var chunks []string
	current := words[0]
	for _, w := range words[1:] {
		if len(current)+1+len(w) > max {
			chunks = append(chunks, current)
			current = w
			continue
		}
		current += " " + w
	}
	return append(chunks, current)
}

var _ Provider = (*GoogleTranslate)(nil)
