package script

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storyshort/internal/credentials"
)

type OpenAIOptions struct {
	Credentials *credentials.Store
	Model       string
	BaseURL     string
	HTTPClient  *http.Client

	// WordsPerSecond and TruncateRatio default to 2.5 and 1.2.
	WordsPerSecond float64
	TruncateRatio  float64

	// OnFallback is invoked whenever generation degrades to an empty
	// script, with the reason (missing_api_key, http_502, decode_response, ...).
	OnFallback func(reason string, err error)
}

// OpenAIWriter drafts scripts through an OpenAI-compatible chat-completions
// endpoint. It satisfies Generator.
type OpenAIWriter struct {
	creds      *credentials.Store
	model      string
	baseURL    string
	client     *http.Client
	rate       float64
	ratio      float64
	onFallback func(reason string, err error)
}

const openAIDefaultTimeout = 30 * time.Second

const defaultOpenAIModel = "gpt-4o-mini"

const systemPrompt = "You are a concise scriptwriter for viral short videos."

const userPromptTemplate = `Write an engaging, concise voiceover script about %q for a short vertical video.
Length target: %d words.
Tone: curious, cinematic but clear. No fluff. Short sentences.
Return JUST the script (plain text), no headings.`

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func NewOpenAIWriter(opts OpenAIOptions) *OpenAIWriter {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultOpenAIModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAIDefaultTimeout}
	}
	return &OpenAIWriter{
		creds:      opts.Credentials,
		model:      model,
		baseURL:    baseURL,
		client:     client,
		rate:       opts.WordsPerSecond,
		ratio:      opts.TruncateRatio,
		onFallback: opts.OnFallback,
	}
}

// Generate drafts a script sized to roughly duration at the configured
// speaking rate. The returned error is nil for every policy failure; callers
// receive "" and are expected to collect a manual script instead.
func (w *OpenAIWriter) Generate(ctx context.Context, topic string, duration time.Duration) (string, error) {
	topic = strings.TrimSpace(topic)
	target := TargetWords(duration, w.rate)

	apiKey, ok := w.creds.Resolve(credentials.KeyOpenAI)
	if !ok {
		return w.empty("missing_api_key", nil)
	}

	payload := chatRequest{
		Model:       w.model,
		Temperature: 0.7,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf(userPromptTemplate, topic, target)},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return w.empty("encode_request", err)
	}
	endpoint := fmt.Sprintf("%s/chat/completions", w.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return w.empty("build_request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return w.empty("http_request", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return w.empty(fmt.Sprintf("http_%d", resp.StatusCode), fmt.Errorf("openai status %d", resp.StatusCode))
	}
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return w.empty("decode_response", err)
	}
	if len(out.Choices) == 0 {
		return w.empty("empty_choices", errors.New("no choices"))
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return w.empty("empty_response", errors.New("empty response"))
	}
	return truncateWords(text, wordCap(target, w.ratio)), nil
}

func (w *OpenAIWriter) empty(reason string, err error) (string, error) {
	if w.onFallback != nil {
		w.onFallback(reason, err)
	}
	return "", nil
}

var _ Generator = (*OpenAIWriter)(nil)
