// Package handlers holds the HTTP handlers for the public JSON API. They
// stay thin: decode, call the underlying component, translate domain errors
// into status codes.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"storyshort/internal/domain"
	"storyshort/internal/pipeline"
	"storyshort/internal/providers/voice"
)

// ImageDownloader fetches the bytes of a single image URL.
type ImageDownloader interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type App struct {
	Scripts   pipeline.ScriptWriter
	Images    pipeline.ImageSearcher
	Downloads ImageDownloader
	Voice     pipeline.VoiceSynthesizer
	Pipe      *pipeline.Pipeline
	Logger    zerolog.Logger

	// VoiceDir receives standalone voiceover files requested through the
	// API, outside of a full pipeline run.
	VoiceDir string
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"message": msg})
}

// fail maps a domain error onto the right HTTP status and writes it. The
// status carries the classification; the body is just a human-readable
// message.
func (a *App) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		a.error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrMissingCredential):
		a.error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUpstreamRequest):
		a.error(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, domain.ErrRenderFailure):
		a.error(w, http.StatusInternalServerError, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		a.error(w, http.StatusGatewayTimeout, err.Error())
	default:
		a.Logger.Error().Err(err).Msg("unclassified handler error")
		a.error(w, http.StatusInternalServerError, "internal error")
	}
}

func parseVoice(s string) (voice.Preference, error) {
	switch s {
	case "":
		return voice.PreferenceAuto, nil
	case string(voice.PreferenceAuto), string(voice.PreferenceElevenLabs), string(voice.PreferenceGTTS):
		return voice.Preference(s), nil
	default:
		return "", errors.New("unsupported provider")
	}
}
