package handlers

import (
	"encoding/json"
	"net/http"

	"storyshort/internal/pipeline"
)

type videoRequest struct {
	Topic           string `json:"topic"`
	DurationSeconds int    `json:"duration_seconds"`
	ImageCount      int    `json:"image_count"`
	Provider        string `json:"provider"`
	Script          string `json:"script"`
}

type videoResponse struct {
	RunID           string  `json:"run_id"`
	VideoPath       string  `json:"video_path"`
	AudioPath       string  `json:"audio_path"`
	DurationSeconds float64 `json:"duration_seconds"`
	ImageCount      int     `json:"image_count"`
	StoredVideoKey  string  `json:"stored_video_key,omitempty"`
	StoredAudioKey  string  `json:"stored_audio_key,omitempty"`
}

// VideosCreate runs the whole pipeline synchronously. Renders take a while,
// so the server's write timeout is sized for this route.
func (a *App) VideosCreate(w http.ResponseWriter, r *http.Request) {
	var req videoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid payload")
		return
	}
	pref, err := parseVoice(req.Provider)
	if err != nil {
		a.error(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := a.Pipe.Run(r.Context(), pipeline.Request{
		Topic:      req.Topic,
		Duration:   req.DurationSeconds,
		ImageCount: req.ImageCount,
		Voice:      pref,
		Script:     req.Script,
	})
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, videoResponse{
		RunID:           res.RunID,
		VideoPath:       res.VideoPath,
		AudioPath:       res.AudioPath,
		DurationSeconds: res.AudioDuration,
		ImageCount:      len(res.ImageURLs),
		StoredVideoKey:  res.StoredVideoKey,
		StoredAudioKey:  res.StoredAudioKey,
	})
}
