package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"storyshort/internal/credentials"
	"storyshort/internal/domain"
)

type ElevenLabsOptions struct {
	Credentials *credentials.Store
	VoiceID     string
	BaseURL     string
	HTTPClient  *http.Client
}

// ElevenLabs synthesizes speech through the ElevenLabs text-to-speech API.
// It is the premium provider in the fallback chain.
type ElevenLabs struct {
	creds   *credentials.Store
	voiceID string
	baseURL string
	client  *http.Client
}

const elevenLabsDefaultTimeout = 60 * time.Second

// defaultVoiceID is a commonly available example voice.
const defaultVoiceID = "21m00Tcm4TlvDq8ikWAM"

const elevenLabsModel = "eleven_multilingual_v2"

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

func NewElevenLabs(opts ElevenLabsOptions) *ElevenLabs {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.elevenlabs.io/v1"
	}
	voiceID := strings.TrimSpace(opts.VoiceID)
	if voiceID == "" {
		voiceID = defaultVoiceID
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: elevenLabsDefaultTimeout}
	}
	return &ElevenLabs{
		creds:   opts.Credentials,
		voiceID: voiceID,
		baseURL: baseURL,
		client:  client,
	}
}

func (e *ElevenLabs) Name() string { return "elevenlabs" }

// Synthesize sends the script to the text-to-speech endpoint and returns the
// raw MPEG audio bytes.
func (e *ElevenLabs) Synthesize(ctx context.Context, text string) ([]byte, error) {
	apiKey, ok := e.creds.Resolve(credentials.KeyElevenLabs)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingCredential, credentials.KeyElevenLabs)
	}

	payload := ttsRequest{
		Text:    text,
		ModelID: elevenLabsModel,
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.5,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode tts request: %v", domain.ErrUpstreamRequest, err)
	}

	endpoint := fmt.Sprintf("%s/text-to-speech/%s", e.baseURL, e.voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build tts request: %v", domain.ErrUpstreamRequest, err)
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: elevenlabs tts: %v", domain.ErrUpstreamRequest, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: elevenlabs status %d: %s", domain.ErrUpstreamRequest, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read tts response: %v", domain.ErrUpstreamRequest, err)
	}
	return audio, nil
}

var _ Provider = (*ElevenLabs)(nil)
