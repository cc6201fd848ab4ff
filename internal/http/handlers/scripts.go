package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

type scriptRequest struct {
	Topic           string `json:"topic"`
	DurationSeconds int    `json:"duration_seconds"`
}

type scriptResponse struct {
	Script string `json:"script"`
}

// ScriptsGenerate drafts narration for a topic. An empty script in the
// response means drafting is unavailable (no API key or upstream trouble)
// and the client should collect a script from the user instead.
func (a *App) ScriptsGenerate(w http.ResponseWriter, r *http.Request) {
	var req scriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		a.error(w, http.StatusBadRequest, "topic is required")
		return
	}
	if req.DurationSeconds <= 0 {
		a.error(w, http.StatusBadRequest, "duration_seconds must be positive")
		return
	}

	script, err := a.Scripts.Generate(r.Context(), req.Topic, time.Duration(req.DurationSeconds)*time.Second)
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, scriptResponse{Script: script})
}
