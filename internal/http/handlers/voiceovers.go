package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type voiceoverRequest struct {
	Script   string `json:"script"`
	Provider string `json:"provider"`
}

type voiceoverResponse struct {
	AudioPath       string  `json:"audio_path"`
	DurationSeconds float64 `json:"duration_seconds"`
}

func (a *App) VoiceoversCreate(w http.ResponseWriter, r *http.Request) {
	var req voiceoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Script) == "" {
		a.error(w, http.StatusBadRequest, "script is required")
		return
	}
	pref, err := parseVoice(req.Provider)
	if err != nil {
		a.error(w, http.StatusBadRequest, err.Error())
		return
	}

	dir, err := a.voiceoverDir()
	if err != nil {
		a.Logger.Error().Err(err).Msg("failed to create voiceover directory")
		a.error(w, http.StatusInternalServerError, "internal error")
		return
	}

	path, duration, err := a.Voice.Synthesize(r.Context(), req.Script, pref, dir)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, voiceoverResponse{AudioPath: path, DurationSeconds: duration})
}

// voiceoverDir allocates a fresh directory per request so concurrent calls
// never share an output path. Empty VoiceDir defers to the synthesizer's
// own temp-dir handling.
func (a *App) voiceoverDir() (string, error) {
	if a.VoiceDir == "" {
		return "", nil
	}
	dir := filepath.Join(a.VoiceDir, "voice-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}
